//go:build !linux && !darwin && !windows

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/pkg/ferr"
)

// genericProc is a fallback for platforms without a dedicated PTY/
// readiness backend: a plain pipe-connected child with a blocking
// reader goroutine. No pseudo-terminal is allocated, so line-buffering
// behavior differs from the Linux/macOS/Windows backends.
type genericProc struct {
	cmd        *exec.Cmd
	stdout     *os.File
	readerDone chan struct{}

	mu       sync.Mutex
	exited   bool
	exitCode int32
	success  bool
	waitErr  error

	killOnce sync.Once
	closed   atomic.Bool
}

func spawn(task *model.Task, readBufSize int, window *Window) (proc, error) {
	cmd := exec.Command(task.Exec)
	cmd.Args = buildArgv(task)
	cmd.Dir = task.WorkDir
	cmd.Env = []string{}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ferr.ErrOSError, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: spawn: %v", ferr.ErrOSError, err)
	}

	p := &genericProc{
		cmd:        cmd,
		readerDone: make(chan struct{}),
	}

	f, _ := stdout.(*os.File)
	go p.readLoop(f, readBufSize, window)
	go p.waitLoop()

	return p, nil
}

func (p *genericProc) readLoop(f *os.File, bufSize int, window *Window) {
	defer close(p.readerDone)
	if f == nil {
		return
	}
	buf := make([]byte, bufSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			chunk := make(model.Chunk, n)
			copy(chunk, buf[:n])
			window.Push(chunk)
		}
		if err != nil {
			return
		}
	}
}

func (p *genericProc) waitLoop() {
	err := p.cmd.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exited = true
	p.waitErr = err
	if p.cmd.ProcessState != nil {
		p.exitCode = int32(p.cmd.ProcessState.ExitCode())
		p.success = p.cmd.ProcessState.ExitCode() == 0
	}
}

func (p *genericProc) tryWait() (done bool, exitCode int32, success bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.exited {
		return false, 0, false, nil
	}
	return true, p.exitCode, p.success, nil
}

func (p *genericProc) kill() error {
	var err error
	p.killOnce.Do(func() {
		err = p.cmd.Process.Kill()
	})
	return err
}

func (p *genericProc) close() {
	if p.closed.CompareAndSwap(false, true) {
		<-p.readerDone
	}
}
