//go:build linux || darwin

package queue

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/flowrunner/internal/storage"
	"github.com/cuemby/flowrunner/internal/supervisor"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)

	eng, err := Open("test", store, supervisor.Config{ReadBufferSize: 4096, WindowCapacity: 16})
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return eng
}

func waitForFinished(t *testing.T, e *Engine, id uint64, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if _, err := e.FinishedDetails(id); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %d did not finish in time", id)
}

func TestAddTaskAssignsMonotonicIDs(t *testing.T) {
	e := openTestEngine(t)

	id1, err := e.AddTask("/bin/true", nil, "")
	require.NoError(t, err)
	id2, err := e.AddTask("/bin/true", nil, "")
	require.NoError(t, err)

	assert.Equal(t, id1+1, id2)
	assert.Equal(t, []uint64{id1, id2}, e.ListPending())
}

func TestAddTaskRejectsEmptyExec(t *testing.T) {
	e := openTestEngine(t)
	_, err := e.AddTask("", nil, "")
	assert.ErrorIs(t, err, ferr.ErrInvalidArgument)
}

func TestRemoveTaskOnlyAffectsPending(t *testing.T) {
	e := openTestEngine(t)
	id, err := e.AddTask("/bin/true", nil, "")
	require.NoError(t, err)

	require.NoError(t, e.RemoveTask(id))
	assert.Empty(t, e.ListPending())

	err = e.RemoveTask(id)
	assert.ErrorIs(t, err, ferr.ErrNotFound)
}

func TestStartRunsHeadOfPendingAndAutoAdvances(t *testing.T) {
	e := openTestEngine(t)
	id1, err := e.AddTask("/bin/echo", []string{"first"}, "")
	require.NoError(t, err)
	id2, err := e.AddTask("/bin/echo", []string{"second"}, "")
	require.NoError(t, err)

	require.NoError(t, e.Start())

	waitForFinished(t, e, id1, 5*time.Second)
	// The stepper should have auto-advanced to the second task.
	waitForFinished(t, e, id2, 5*time.Second)

	assert.Equal(t, []uint64{id1, id2}, e.ListFinished())
	assert.Empty(t, e.ListPending())
}

func TestInvalidWorkDirFinishesNonZeroInsteadOfFailingAddOrStart(t *testing.T) {
	e := openTestEngine(t)
	id, err := e.AddTask("/bin/echo", []string{"hi"}, "/no/such/directory")
	require.NoError(t, err)
	require.NoError(t, e.Start())

	waitForFinished(t, e, id, 5*time.Second)
	task, err := e.FinishedDetails(id)
	require.NoError(t, err)
	assert.False(t, task.Success)
}

func TestStopCancelsRunningTask(t *testing.T) {
	e := openTestEngine(t)
	id, err := e.AddTask("/bin/sleep", []string{"30"}, "")
	require.NoError(t, err)
	require.NoError(t, e.Start())

	require.Eventually(t, e.IsRunning, time.Second, 10*time.Millisecond)
	require.NoError(t, e.Stop())

	waitForFinished(t, e, id, 5*time.Second)
	task, err := e.FinishedDetails(id)
	require.NoError(t, err)
	assert.False(t, task.Success)
}

func TestPersistedPendingSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	store, err := storage.Open(path)
	require.NoError(t, err)
	eng, err := Open("test", store, supervisor.Config{})
	require.NoError(t, err)

	id, err := eng.AddTask("/bin/true", nil, "")
	require.NoError(t, err)
	eng.Close()

	store2, err := storage.Open(path)
	require.NoError(t, err)
	eng2, err := Open("test", store2, supervisor.Config{})
	require.NoError(t, err)
	defer eng2.Close()

	assert.Equal(t, []uint64{id}, eng2.ListPending())
}

func TestIDNotReusedAfterClearAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	store, err := storage.Open(path)
	require.NoError(t, err)
	eng, err := Open("test", store, supervisor.Config{})
	require.NoError(t, err)

	id1, err := eng.AddTask("/bin/true", nil, "")
	require.NoError(t, err)
	id2, err := eng.AddTask("/bin/true", nil, "")
	require.NoError(t, err)

	require.NoError(t, eng.RemoveTask(id1))
	require.NoError(t, eng.RemoveTask(id2))
	require.NoError(t, eng.ClearFinished())
	eng.Close()

	store2, err := storage.Open(path)
	require.NoError(t, err)
	eng2, err := Open("test", store2, supervisor.Config{})
	require.NoError(t, err)
	defer eng2.Close()

	id3, err := eng2.AddTask("/bin/true", nil, "")
	require.NoError(t, err)
	assert.Greater(t, id3, id2)
}

func TestClearPendingAndFinished(t *testing.T) {
	e := openTestEngine(t)
	id, err := e.AddTask("/bin/echo", []string{"x"}, "")
	require.NoError(t, err)
	require.NoError(t, e.Start())
	waitForFinished(t, e, id, 5*time.Second)

	require.NoError(t, e.ClearFinished())
	assert.Empty(t, e.ListFinished())

	_, err = e.AddTask("/bin/true", nil, "")
	require.NoError(t, err)
	require.NoError(t, e.ClearPending())
	assert.Empty(t, e.ListPending())
}
