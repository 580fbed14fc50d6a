//go:build darwin

package supervisor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// kqueueWaiter is the macOS readiness engine: a first-class backend
// equivalent to the Linux one except for the polling primitive (kqueue
// in place of epoll).
type kqueueWaiter struct {
	kq int
	fd int
}

func newWaiter(fd int) (waiter, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue: %w", err)
	}

	changes := []unix.Kevent_t{{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_ENABLE,
	}}
	if _, err := unix.Kevent(kq, changes, nil, nil); err != nil {
		unix.Close(kq)
		return nil, fmt.Errorf("kevent register: %w", err)
	}

	return &kqueueWaiter{kq: kq, fd: fd}, nil
}

func (w *kqueueWaiter) wait(fd int) (readable, hangup bool, err error) {
	events := make([]unix.Kevent_t, 1)
	for {
		n, err := unix.Kevent(w.kq, nil, events, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, false, err
		}
		if n == 0 {
			continue
		}
		ev := events[0]
		if ev.Flags&unix.EV_EOF != 0 {
			return false, true, nil
		}
		if ev.Filter == unix.EVFILT_READ {
			return true, false, nil
		}
		return false, false, nil
	}
}

func (w *kqueueWaiter) close() {
	unix.Close(w.kq)
}
