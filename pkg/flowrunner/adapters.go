package flowrunner

import (
	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/internal/queue"
	"github.com/cuemby/flowrunner/internal/queuelist"
	"github.com/cuemby/flowrunner/internal/remote"
)

// localQueueListAdapter makes *queuelist.Manager satisfy
// queueListBackend; its methods already match except for List, which
// doesn't return an error on the local backend, and Get, which returns
// a concrete *queue.Engine that getQueue wraps in localQueueAdapter.
type localQueueListAdapter struct {
	mgr *queuelist.Manager
}

func (a localQueueListAdapter) Create(name string) error              { return a.mgr.Create(name) }
func (a localQueueListAdapter) Delete(name string) error              { return a.mgr.Delete(name) }
func (a localQueueListAdapter) Rename(oldName, newName string) error  { return a.mgr.Rename(oldName, newName) }
func (a localQueueListAdapter) List() ([]string, error)               { return a.mgr.List(), nil }

func (a localQueueListAdapter) getQueue(name string) (queueBackend, error) {
	eng, err := a.mgr.Get(name)
	if err != nil {
		return nil, err
	}
	return localQueueAdapter{eng}, nil
}

// remoteQueueListAdapter makes *remote.QueueList satisfy
// queueListBackend.
type remoteQueueListAdapter struct {
	ql *remote.QueueList
}

func (a remoteQueueListAdapter) Create(name string) error             { return a.ql.Create(name) }
func (a remoteQueueListAdapter) Delete(name string) error             { return a.ql.Delete(name) }
func (a remoteQueueListAdapter) Rename(oldName, newName string) error { return a.ql.Rename(oldName, newName) }
func (a remoteQueueListAdapter) List() ([]string, error)              { return a.ql.List() }

func (a remoteQueueListAdapter) getQueue(name string) (queueBackend, error) {
	return a.ql.Get(name)
}

// localQueueAdapter makes *queue.Engine satisfy queueBackend; the
// engine's ListPending/ListFinished/IsRunning/ReadCurrentOutput don't
// return an error locally, since nothing short of a programming bug can
// fail them in-process.
type localQueueAdapter struct {
	eng *queue.Engine
}

func (a localQueueAdapter) AddTask(exec string, args []string, workDir string) (uint64, error) {
	return a.eng.AddTask(exec, args, workDir)
}
func (a localQueueAdapter) RemoveTask(id uint64) error { return a.eng.RemoveTask(id) }
func (a localQueueAdapter) ListPending() ([]uint64, error) {
	return a.eng.ListPending(), nil
}
func (a localQueueAdapter) ListFinished() ([]uint64, error) {
	return a.eng.ListFinished(), nil
}
func (a localQueueAdapter) PendingDetails(id uint64) (*model.Task, error) {
	return a.eng.PendingDetails(id)
}
func (a localQueueAdapter) FinishedDetails(id uint64) (*model.Task, error) {
	return a.eng.FinishedDetails(id)
}
func (a localQueueAdapter) CurrentTask() (*model.Task, error) { return a.eng.CurrentTask() }
func (a localQueueAdapter) ClearPending() error               { return a.eng.ClearPending() }
func (a localQueueAdapter) ClearFinished() error               { return a.eng.ClearFinished() }
func (a localQueueAdapter) IsRunning() (bool, error) {
	return a.eng.IsRunning(), nil
}
func (a localQueueAdapter) ReadCurrentOutput() ([]model.Chunk, error) {
	return a.eng.ReadCurrentOutput(), nil
}
func (a localQueueAdapter) Start() error { return a.eng.Start() }
func (a localQueueAdapter) Stop() error  { return a.eng.Stop() }
