// Package flowrunner is the library's public in-process API surface,
// built directly on internal/handle.Registry so that Connection,
// QueueList, and Queue handles transparently multiplex a local backend
// (internal/queuelist, internal/queue) and a remote one (internal/remote)
// behind the same three operations: connect, list queues, operate on a
// queue.
package flowrunner

import (
	"github.com/cuemby/flowrunner/internal/handle"
	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/internal/queuelist"
	"github.com/cuemby/flowrunner/internal/remote"
	"github.com/cuemby/flowrunner/internal/supervisor"
	"github.com/cuemby/flowrunner/pkg/ferr"
)

// Handle re-exports internal/handle.Handle: the opaque value every
// public operation below takes and returns.
type Handle = handle.Handle

// Task re-exports internal/model.Task for callers that don't want to
// import the internal package directly.
type Task = model.Task

// Chunk re-exports internal/model.Chunk.
type Chunk = model.Chunk

// queueListBackend is satisfied by both the local queue-list manager
// and the remote queue-list client, via the adapters below.
type queueListBackend interface {
	Create(name string) error
	Delete(name string) error
	Rename(oldName, newName string) error
	List() ([]string, error)
	getQueue(name string) (queueBackend, error)
}

// queueBackend is satisfied by both internal/queue.Engine (via an
// adapter) and *internal/remote.Queue directly.
type queueBackend interface {
	AddTask(exec string, args []string, workDir string) (uint64, error)
	RemoveTask(id uint64) error
	ListPending() ([]uint64, error)
	ListFinished() ([]uint64, error)
	PendingDetails(id uint64) (*model.Task, error)
	FinishedDetails(id uint64) (*model.Task, error)
	CurrentTask() (*model.Task, error)
	ClearPending() error
	ClearFinished() error
	IsRunning() (bool, error)
	ReadCurrentOutput() ([]model.Chunk, error)
	Start() error
	Stop() error
}

// Client owns the handle registry backing every Connection/QueueList/
// Queue value it hands out. The zero value is not usable; use New.
type Client struct {
	reg *handle.Registry
}

// New returns a Client with an empty handle registry.
func New() *Client {
	return &Client{reg: handle.New()}
}

// ConnectLocal opens (creating if absent) a local queue-list rooted at
// dataDir and returns a Connection handle for it.
func (c *Client) ConnectLocal(dataDir string, supCfg supervisor.Config) (Handle, error) {
	mgr, err := queuelist.Open(dataDir, supCfg)
	if err != nil {
		return handle.Zero, err
	}
	h := c.reg.Create(handle.KindConnection, handle.VariantLocal, mgr, mgr.Close)
	return h, nil
}

// ConnectRemote dials a flowrunnerd instance at addr and returns a
// Connection handle for it.
func (c *Client) ConnectRemote(addr string) (Handle, error) {
	conn, err := remote.Dial(addr)
	if err != nil {
		return handle.Zero, err
	}
	destroy := func() { _ = conn.Close() }
	h := c.reg.Create(handle.KindConnection, handle.VariantRemote, conn, destroy)
	return h, nil
}

// Disconnect releases a Connection handle, closing its underlying
// backend (local store handles or the remote gRPC channel).
func (c *Client) Disconnect(conn Handle) {
	c.reg.Remove(conn)
}

// QueueList derives a QueueList handle from an open Connection.
func (c *Client) QueueList(conn Handle) (Handle, error) {
	variant, err := c.reg.Variant(conn)
	if err != nil {
		return handle.Zero, err
	}

	var backend queueListBackend
	switch variant {
	case handle.VariantLocal:
		mgr, ok := handle.Get[*queuelist.Manager](c.reg, conn, handle.KindConnection)
		if !ok {
			return handle.Zero, ferr.ErrInvalidArgument
		}
		backend = localQueueListAdapter{mgr}
	case handle.VariantRemote:
		rc, ok := handle.Get[*remote.Connection](c.reg, conn, handle.KindConnection)
		if !ok {
			return handle.Zero, ferr.ErrInvalidArgument
		}
		backend = remoteQueueListAdapter{rc.QueueList()}
	default:
		return handle.Zero, ferr.ErrInvalidArgument
	}

	return c.reg.Create(handle.KindQueueList, variant, backend, nil), nil
}

// CreateQueue creates a new queue named name under ql.
func (c *Client) CreateQueue(ql Handle, name string) error {
	backend, err := c.queueListBackend(ql)
	if err != nil {
		return err
	}
	return backend.Create(name)
}

// DeleteQueue deletes queue name under ql.
func (c *Client) DeleteQueue(ql Handle, name string) error {
	backend, err := c.queueListBackend(ql)
	if err != nil {
		return err
	}
	return backend.Delete(name)
}

// RenameQueue renames a queue under ql.
func (c *Client) RenameQueue(ql Handle, oldName, newName string) error {
	backend, err := c.queueListBackend(ql)
	if err != nil {
		return err
	}
	return backend.Rename(oldName, newName)
}

// ListQueues lists every queue name registered under ql.
func (c *Client) ListQueues(ql Handle) ([]string, error) {
	backend, err := c.queueListBackend(ql)
	if err != nil {
		return nil, err
	}
	return backend.List()
}

// Queue derives a Queue handle for queue name under ql.
func (c *Client) Queue(ql Handle, name string) (Handle, error) {
	variant, err := c.reg.Variant(ql)
	if err != nil {
		return handle.Zero, err
	}
	backend, err := c.queueListBackend(ql)
	if err != nil {
		return handle.Zero, err
	}
	qb, err := backend.getQueue(name)
	if err != nil {
		return handle.Zero, err
	}
	return c.reg.Create(handle.KindQueue, variant, qb, nil), nil
}

func (c *Client) queueListBackend(ql Handle) (queueListBackend, error) {
	backend, ok := handle.Get[queueListBackend](c.reg, ql, handle.KindQueueList)
	if !ok {
		return nil, ferr.ErrInvalidArgument
	}
	return backend, nil
}

func (c *Client) queueBackend(q Handle) (queueBackend, error) {
	backend, ok := handle.Get[queueBackend](c.reg, q, handle.KindQueue)
	if !ok {
		return nil, ferr.ErrInvalidArgument
	}
	return backend, nil
}

// AddTask enqueues a new task on q.
func (c *Client) AddTask(q Handle, exec string, args []string, workDir string) (uint64, error) {
	backend, err := c.queueBackend(q)
	if err != nil {
		return 0, err
	}
	return backend.AddTask(exec, args, workDir)
}

// RemoveTask removes a pending task from q.
func (c *Client) RemoveTask(q Handle, id uint64) error {
	backend, err := c.queueBackend(q)
	if err != nil {
		return err
	}
	return backend.RemoveTask(id)
}

// ListPending lists q's pending task IDs.
func (c *Client) ListPending(q Handle) ([]uint64, error) {
	backend, err := c.queueBackend(q)
	if err != nil {
		return nil, err
	}
	return backend.ListPending()
}

// ListFinished lists q's finished task IDs.
func (c *Client) ListFinished(q Handle) ([]uint64, error) {
	backend, err := c.queueBackend(q)
	if err != nil {
		return nil, err
	}
	return backend.ListFinished()
}

// PendingDetails returns the full record for a pending task.
func (c *Client) PendingDetails(q Handle, id uint64) (*Task, error) {
	backend, err := c.queueBackend(q)
	if err != nil {
		return nil, err
	}
	return backend.PendingDetails(id)
}

// FinishedDetails returns the full record for a finished task.
func (c *Client) FinishedDetails(q Handle, id uint64) (*Task, error) {
	backend, err := c.queueBackend(q)
	if err != nil {
		return nil, err
	}
	return backend.FinishedDetails(id)
}

// CurrentTask returns q's running task, if any.
func (c *Client) CurrentTask(q Handle) (*Task, error) {
	backend, err := c.queueBackend(q)
	if err != nil {
		return nil, err
	}
	return backend.CurrentTask()
}

// ClearPending empties q's pending list.
func (c *Client) ClearPending(q Handle) error {
	backend, err := c.queueBackend(q)
	if err != nil {
		return err
	}
	return backend.ClearPending()
}

// ClearFinished empties q's finished list.
func (c *Client) ClearFinished(q Handle) error {
	backend, err := c.queueBackend(q)
	if err != nil {
		return err
	}
	return backend.ClearFinished()
}

// IsRunning reports whether q currently has a task running.
func (c *Client) IsRunning(q Handle) (bool, error) {
	backend, err := c.queueBackend(q)
	if err != nil {
		return false, err
	}
	return backend.IsRunning()
}

// ReadCurrentOutput drains q's running task's output window.
func (c *Client) ReadCurrentOutput(q Handle) ([]Chunk, error) {
	backend, err := c.queueBackend(q)
	if err != nil {
		return nil, err
	}
	return backend.ReadCurrentOutput()
}

// Start starts q, if idle and non-empty.
func (c *Client) Start(q Handle) error {
	backend, err := c.queueBackend(q)
	if err != nil {
		return err
	}
	return backend.Start()
}

// Stop requests cancellation of q's running task.
func (c *Client) Stop(q Handle) error {
	backend, err := c.queueBackend(q)
	if err != nil {
		return err
	}
	return backend.Stop()
}

// ReleaseQueueList releases a QueueList handle. The local backend
// retains ownership of its queues regardless; the remote backend has no
// server-side state to release either, so this only frees the handle
// slot.
func (c *Client) ReleaseQueueList(ql Handle) {
	c.reg.Remove(ql)
}

// ReleaseQueue releases a Queue handle (see ReleaseQueueList).
func (c *Client) ReleaseQueue(q Handle) {
	c.reg.Remove(q)
}
