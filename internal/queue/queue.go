// Package queue implements the per-queue state machine: a pending-list
// → current-task → finished-list pipeline, durable across restarts,
// serialising at most one running task per queue.
package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/internal/storage"
	"github.com/cuemby/flowrunner/internal/supervisor"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/cuemby/flowrunner/pkg/flowlog"
)

// stepInterval is how often the background stepper polls a running
// task's supervisor for termination.
const stepInterval = 50 * time.Millisecond

// Engine drives one named queue: its pending FIFO, at-most-one current
// task, finished list, and the supervisor that runs the current task.
// It is safe for concurrent use by multiple goroutines, serialised by
// its own mutex.
type Engine struct {
	name string

	mu      sync.Mutex
	store   storage.Store
	pending []uint64
	current *model.Task
	sup     *supervisor.Supervisor
	finished []uint64

	supCfg supervisor.Config

	stopStepper chan struct{}
	stepperDone chan struct{}
}

// Open constructs an Engine for an already-open store, reloading the
// pending/finished ID order recorded there. name is stored on the
// Engine but not read by it; the owning queue-list keys queues by name
// itself.
func Open(name string, store storage.Store, supCfg supervisor.Config) (*Engine, error) {
	pending, err := store.ListPending()
	if err != nil {
		return nil, fmt.Errorf("load pending: %w", err)
	}
	finished, err := store.ListFinished()
	if err != nil {
		return nil, fmt.Errorf("load finished: %w", err)
	}

	e := &Engine{
		name:     name,
		store:    store,
		pending:  pending,
		finished: finished,
		supCfg:   supCfg,
	}

	e.stopStepper = make(chan struct{})
	e.stepperDone = make(chan struct{})
	go e.stepperLoop()

	return e, nil
}

// Close stops the background stepper and closes the backing store. It
// does not stop a running task.
func (e *Engine) Close() {
	close(e.stopStepper)
	<-e.stepperDone
	if err := e.store.Close(); err != nil {
		flowlog.Errorf("queue: close store failed", err)
	}
}

// AddTask appends task to pending, assigning it a fresh, strictly
// increasing ID, and returns that ID.
func (e *Engine) AddTask(exec string, args []string, workDir string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if exec == "" {
		return 0, fmt.Errorf("%w: empty exec", ferr.ErrInvalidArgument)
	}

	id, err := e.store.ReserveID()
	if err != nil {
		return 0, fmt.Errorf("%w: reserve task id: %v", ferr.ErrOSError, err)
	}

	t := &model.Task{
		ID:      id,
		Exec:    exec,
		Args:    append([]string(nil), args...),
		WorkDir: workDir,
	}

	if err := e.store.PutPending(t); err != nil {
		return 0, fmt.Errorf("%w: persist task: %v", ferr.ErrOSError, err)
	}

	e.pending = append(e.pending, id)
	return id, nil
}

// RemoveTask removes id from pending only; fails with not-found if id is
// running, finished, or unknown.
func (e *Engine) RemoveTask(id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := indexOf(e.pending, id)
	if idx < 0 {
		return ferr.ErrNotFound
	}

	if err := e.store.DeletePending(id); err != nil {
		return fmt.Errorf("%w: %v", ferr.ErrOSError, err)
	}

	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	return nil
}

// ListPending returns pending task IDs in insertion order.
func (e *Engine) ListPending() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint64(nil), e.pending...)
}

// ListFinished returns finished task IDs in insertion order.
func (e *Engine) ListFinished() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint64(nil), e.finished...)
}

// PendingDetails returns the full pending row for id.
func (e *Engine) PendingDetails(id uint64) (*model.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if indexOf(e.pending, id) < 0 {
		return nil, ferr.ErrNotFound
	}
	t, err := e.store.GetPending(id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// FinishedDetails returns the full finished row for id.
func (e *Engine) FinishedDetails(id uint64) (*model.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if indexOf(e.finished, id) < 0 {
		return nil, ferr.ErrNotFound
	}
	return e.store.GetFinished(id)
}

// CurrentTask returns the running task, or not-found when none.
func (e *Engine) CurrentTask() (*model.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil, ferr.ErrNotFound
	}
	return e.current.Clone(), nil
}

// ClearPending removes every pending row; does not touch the running
// task.
func (e *Engine) ClearPending() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.ClearPending(); err != nil {
		return fmt.Errorf("%w: %v", ferr.ErrOSError, err)
	}
	e.pending = nil
	return nil
}

// ClearFinished removes every finished row.
func (e *Engine) ClearFinished() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.ClearFinished(); err != nil {
		return fmt.Errorf("%w: %v", ferr.ErrOSError, err)
	}
	e.finished = nil
	return nil
}

// IsRunning reports whether a task currently occupies the running slot.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// ReadCurrentOutput delegates to the running supervisor's window;
// returns nil when no task is running.
func (e *Engine) ReadCurrentOutput() []model.Chunk {
	e.mu.Lock()
	sup := e.sup
	e.mu.Unlock()
	if sup == nil {
		return nil
	}
	return sup.ReadCurrentOutput()
}

// Start transitions the queue from idle to running: if not already
// running and pending is non-empty, it atomically moves the head of
// pending into current and spawns a supervisor for it. On spawn
// failure, it reverts the task to the head of pending.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked()
}

func (e *Engine) startLocked() error {
	if e.current != nil {
		return nil
	}
	if len(e.pending) == 0 {
		return nil
	}

	id := e.pending[0]
	task, err := e.store.GetPending(id)
	if err != nil {
		return fmt.Errorf("%w: load head of pending: %v", ferr.ErrOSError, err)
	}

	sup := supervisor.New(e.supCfg)
	sup.Init()
	if err := sup.Start(task); err != nil {
		return err
	}

	e.pending = e.pending[1:]
	e.current = task
	e.sup = sup
	return nil
}

// Stop requests cancellation of the running task, if any. The stepper
// observes termination asynchronously and records it in finished.
func (e *Engine) Stop() error {
	e.mu.Lock()
	sup := e.sup
	e.mu.Unlock()
	if sup == nil {
		return nil
	}
	return sup.Stop()
}

func (e *Engine) stepperLoop() {
	defer close(e.stepperDone)
	ticker := time.NewTicker(stepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopStepper:
			return
		case <-ticker.C:
			e.step()
		}
	}
}

// step checks the running task for termination and, on completion,
// records it in finished, deletes its pending row, empties the output
// window, and auto-advances to the next pending task if any.
func (e *Engine) step() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || e.sup == nil {
		return
	}
	if e.sup.IsRunning() {
		return
	}

	code, success, err := e.sup.ExitCode()
	if err != nil {
		flowlog.Errorf("queue: exit code unavailable after termination", err)
		return
	}

	finishedTask := e.current.Clone()
	finishedTask.ExitCode = code
	finishedTask.Success = success

	if err := e.store.PutFinished(finishedTask); err != nil {
		flowlog.Errorf("queue: persist finished task failed", err)
		return
	}
	if err := e.store.DeletePending(finishedTask.ID); err != nil {
		flowlog.Errorf("queue: delete pending row failed", err)
	}

	e.finished = append(e.finished, finishedTask.ID)
	e.current = nil
	e.sup = nil

	if err := e.startLocked(); err != nil {
		flowlog.Errorf("queue: auto-advance failed", err)
	}
}

func indexOf(ids []uint64, id uint64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
