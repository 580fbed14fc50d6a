//go:build linux || darwin

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/creack/pty"
	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"golang.org/x/sys/unix"
)

// waiter blocks until fd is readable, hung up, or errored. Implemented
// per-platform: epoll on Linux, kqueue on macOS.
type waiter interface {
	wait(fd int) (readable, hangup bool, err error)
	close()
}

// unixProc is the Linux/macOS process handle: a forkpty-equivalent
// child (via github.com/creack/pty) plus a reader goroutine driven by
// the platform readiness engine.
type unixProc struct {
	cmd    *exec.Cmd
	master *os.File
	fd     int

	readerDone chan struct{}

	mu       sync.Mutex
	exited   bool
	exitCode int32
	success  bool

	killOnce sync.Once
	closed   atomic.Bool
}

// chdirExecScript changes into $1 (skipped if empty) and execs $2 with
// the remaining arguments, all inside the child: a failed chdir exits
// the shell with status 1 rather than being intercepted by the parent.
const chdirExecScript = `dir=$1; prog=$2; shift 2
if [ -n "$dir" ]; then
	cd "$dir" || exit 1
fi
exec "$prog" "$@"`

// spawn changes into task.WorkDir, execs task.Exec under a new PTY with
// a minimal (empty) environment, and starts a reader goroutine that
// pushes output chunks onto window until EOF/hangup/error.
//
// The directory change happens inside a /bin/sh child (chdirExecScript)
// rather than via os/exec's Cmd.Dir: Cmd.Dir relays a chdir failure back
// to the parent as a Start() error over the fork/exec pipe, but a bad
// WorkDir must instead surface as the child's own non-zero exit status,
// observable only once the caller waits on it.
func spawn(task *model.Task, readBufSize int, window *Window) (proc, error) {
	argv := buildArgv(task)
	shellArgs := append([]string{"-c", chdirExecScript, "flowrunner-task", task.WorkDir}, argv...)
	cmd := exec.Command("/bin/sh", shellArgs...)
	cmd.Env = []string{}

	master, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: spawn: %v", ferr.ErrOSError, err)
	}

	fd := int(master.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		master.Close()
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("%w: set nonblocking: %v", ferr.ErrOSError, err)
	}

	w, err := newWaiter(fd)
	if err != nil {
		master.Close()
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("%w: readiness engine: %v", ferr.ErrOSError, err)
	}

	p := &unixProc{
		cmd:        cmd,
		master:     master,
		fd:         fd,
		readerDone: make(chan struct{}),
	}

	go p.readLoop(w, readBufSize, window)

	return p, nil
}

func (p *unixProc) readLoop(w waiter, bufSize int, window *Window) {
	defer close(p.readerDone)
	defer w.close()

	buf := make([]byte, bufSize)
	for {
		readable, hangup, err := w.wait(p.fd)
		if err != nil {
			return
		}
		if hangup {
			p.drainNonBlocking(buf, window)
			return
		}
		if !readable {
			continue
		}

		for {
			n, err := unix.Read(p.fd, buf)
			if n > 0 {
				chunk := make(model.Chunk, n)
				copy(chunk, buf[:n])
				window.Push(chunk)
			}
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				break
			}
			if err != nil || n == 0 {
				return
			}
			if n < len(buf) {
				// Short read: the kernel would likely block on the
				// next call, but loop once more to confirm EAGAIN
				// rather than assume.
				continue
			}
		}
	}
}

// drainNonBlocking makes a best-effort final read after a hangup event,
// so output written just before the child closed its end is not lost.
func (p *unixProc) drainNonBlocking(buf []byte, window *Window) {
	for {
		n, err := unix.Read(p.fd, buf)
		if n > 0 {
			chunk := make(model.Chunk, n)
			copy(chunk, buf[:n])
			window.Push(chunk)
		}
		if err != nil || n <= 0 {
			return
		}
	}
}

func (p *unixProc) tryWait() (done bool, exitCode int32, success bool, err error) {
	p.mu.Lock()
	if p.exited {
		code, ok := p.exitCode, p.success
		p.mu.Unlock()
		return true, code, ok, nil
	}
	p.mu.Unlock()

	var status syscall.WaitStatus
	pid, werr := syscall.Wait4(p.cmd.Process.Pid, &status, syscall.WNOHANG, nil)
	if werr != nil {
		return false, 0, false, fmt.Errorf("%w: wait4: %v", ferr.ErrOSError, werr)
	}
	if pid == 0 {
		return false, 0, false, nil
	}

	code := int32(status.ExitStatus())
	success := status.Exited() && status.ExitStatus() == 0

	p.mu.Lock()
	p.exited = true
	p.exitCode = code
	p.success = success
	p.mu.Unlock()

	return true, code, success, nil
}

func (p *unixProc) kill() error {
	var err error
	p.killOnce.Do(func() {
		err = p.cmd.Process.Signal(syscall.SIGKILL)
	})
	return err
}

func (p *unixProc) close() {
	if p.closed.CompareAndSwap(false, true) {
		<-p.readerDone
		p.master.Close()
	}
}
