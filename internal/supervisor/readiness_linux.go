//go:build linux

package supervisor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// epollWaiter is the Linux readiness engine.
type epollWaiter struct {
	epfd int
	fd   int
}

func newWaiter(fd int) (waiter, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLHUP | unix.EPOLLERR, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll_ctl: %w", err)
	}

	return &epollWaiter{epfd: epfd, fd: fd}, nil
}

func (w *epollWaiter) wait(fd int) (readable, hangup bool, err error) {
	events := make([]unix.EpollEvent, 1)
	for {
		n, err := unix.EpollWait(w.epfd, events, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, false, err
		}
		if n == 0 {
			continue
		}
		e := events[0].Events
		if e&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			return false, true, nil
		}
		if e&unix.EPOLLIN != 0 {
			return true, false, nil
		}
		return false, false, nil
	}
}

func (w *epollWaiter) close() {
	unix.Close(w.epfd)
}
