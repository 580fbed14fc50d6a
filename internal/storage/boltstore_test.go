package storage

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPendingRoundTrip(t *testing.T) {
	store := openTestStore(t)

	task := &model.Task{ID: 1, Exec: "/bin/echo", Args: []string{"hi"}}
	require.NoError(t, store.PutPending(task))

	got, err := store.GetPending(1)
	require.NoError(t, err)
	assert.Equal(t, task.Exec, got.Exec)
	assert.Equal(t, task.Args, got.Args)

	ids, err := store.ListPending()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids)

	require.NoError(t, store.DeletePending(1))
	ids, err = store.ListPending()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestGetPendingNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetPending(99)
	assert.ErrorIs(t, err, ferr.ErrNotFound)
}

func TestListPendingOrderMatchesInsertionID(t *testing.T) {
	store := openTestStore(t)
	for _, id := range []uint64{3, 1, 2} {
		require.NoError(t, store.PutPending(&model.Task{ID: id, Exec: "/bin/true"}))
	}

	ids, err := store.ListPending()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestClearPendingLeavesFinishedIntact(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.PutPending(&model.Task{ID: 1, Exec: "/bin/true"}))
	require.NoError(t, store.PutFinished(&model.Task{ID: 2, Exec: "/bin/true", ExitCode: 0, Success: true}))

	require.NoError(t, store.ClearPending())

	pending, err := store.ListPending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	finished, err := store.ListFinished()
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, finished)
}

func TestFinishedRoundTrip(t *testing.T) {
	store := openTestStore(t)
	task := &model.Task{ID: 5, Exec: "/bin/false", ExitCode: 1, Success: false}
	require.NoError(t, store.PutFinished(task))

	got, err := store.GetFinished(5)
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.ExitCode)
	assert.False(t, got.Success)
}

func TestReserveIDMonotonic(t *testing.T) {
	store := openTestStore(t)

	id1, err := store.ReserveID()
	require.NoError(t, err)
	id2, err := store.ReserveID()
	require.NoError(t, err)

	assert.Equal(t, id1+1, id2)
}

func TestReserveIDSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	store, err := Open(path)
	require.NoError(t, err)
	id1, err := store.ReserveID()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	id2, err := reopened.ReserveID()
	require.NoError(t, err)
	assert.Equal(t, id1+1, id2)
}

func TestReopenPreservesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.PutPending(&model.Task{ID: 1, Exec: "/bin/true"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	ids, err := reopened.ListPending()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids)
}
