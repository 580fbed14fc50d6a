// Package supervisor implements the process supervisor: spawns a task's
// child process under a pseudo-terminal, reads its output
// non-blockingly through a platform readiness mechanism, publishes a
// bounded sliding window of output chunks, and reaps its exit status.
package supervisor

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/cuemby/flowrunner/pkg/flowlog"
)

// proc is the platform-specific handle to a running child. Each
// platform file (ptyproc_unix.go for Linux and macOS, ptyproc_windows.go,
// ptyproc_other.go) provides a spawn function returning one.
type proc interface {
	// tryWait performs a non-blocking check for termination. done is
	// false while the child is still running.
	tryWait() (done bool, exitCode int32, success bool, err error)
	// kill sends a forced-termination signal/request.
	kill() error
	// close releases reader/descriptor resources. Safe to call once
	// tryWait has reported done, or after kill.
	close()
}

// Supervisor owns one child process for the lifetime of one task run.
// Its state is guarded by an internal mutex: the owning Engine calls
// IsRunning and ExitCode under its own lock, and Stop and
// ReadCurrentOutput without it.
type Supervisor struct {
	readBufSize int
	window      *Window

	mu       sync.Mutex
	proc     proc
	exitCode int32
	success  bool
	hasExit  bool
}

// Config configures a Supervisor's read buffer and output window sizes.
type Config struct {
	ReadBufferSize int
	WindowCapacity int
}

// New returns an idle supervisor.
func New(cfg Config) *Supervisor {
	bufSize := cfg.ReadBufferSize
	if bufSize <= 0 {
		bufSize = DefaultReadBufferSize
	}
	return &Supervisor{
		readBufSize: bufSize,
		window:      NewWindow(cfg.WindowCapacity),
	}
}

// Init clears any latched exit state and empties the output window.
// Call before Start on a reused Supervisor.
func (s *Supervisor) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitCode = 0
	s.success = false
	s.hasExit = false
	s.window.Reset()
}

// Start spawns task's child process. It fails if a child is already
// running, or if the caller is running as super-user — refusal is
// checked before any resource is acquired.
func (s *Supervisor) Start(task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc != nil {
		return fmt.Errorf("%w: task already running", ferr.ErrInvalidArgument)
	}
	if isSuperuser() {
		return fmt.Errorf("%w: refusing to run task as super-user", ferr.ErrOSError)
	}

	p, err := spawn(task, s.readBufSize, s.window)
	if err != nil {
		return err
	}

	s.proc = p
	return nil
}

// Stop requests cancellation of the running child: a forced-kill
// signal, then a bounded wait (stopWait) for the child to be reaped.
// It returns once the child is gone or the wait runs out, whichever
// comes first; callers that need certainty poll IsRunning.
func (s *Supervisor) Stop() error {
	const stopWait = 2 * time.Second

	s.mu.Lock()
	p := s.proc
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	if err := p.kill(); err != nil {
		return fmt.Errorf("%w: stop: %v", ferr.ErrOSError, err)
	}

	deadline := time.Now().Add(stopWait)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// IsRunning reaps the child non-blockingly. On a transition to
// terminated it latches the exit status and tears down reader
// resources.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil {
		return false
	}

	done, exitCode, success, err := s.proc.tryWait()
	if err != nil {
		flowlog.Errorf("supervisor: wait failed", err)
	}
	if !done {
		return true
	}

	s.exitCode = exitCode
	s.success = success
	s.hasExit = true
	s.proc.close()
	s.proc = nil
	return false
}

// ReadCurrentOutput atomically drains the sliding output window.
func (s *Supervisor) ReadCurrentOutput() []model.Chunk {
	return s.window.Drain()
}

// ExitCode succeeds only when not running (i.e. after IsRunning has
// observed termination).
func (s *Supervisor) ExitCode() (code int32, success bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc != nil {
		return 0, false, fmt.Errorf("%w: task still running", ferr.ErrInvalidArgument)
	}
	if !s.hasExit {
		return 0, false, fmt.Errorf("%w: no task has run", ferr.ErrInvalidArgument)
	}
	return s.exitCode, s.success, nil
}

// buildArgv constructs argv as [exec-name, arg0, arg1, ...]. An empty
// args list produces [exec-name].
func buildArgv(task *model.Task) []string {
	argv := make([]string, 0, len(task.Args)+1)
	argv = append(argv, task.Exec)
	argv = append(argv, task.Args...)
	return argv
}
