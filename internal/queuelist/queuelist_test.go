//go:build linux || darwin

package queuelist

import (
	"os"
	"testing"

	"github.com/cuemby/flowrunner/internal/supervisor"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := Open(t.TempDir(), supervisor.Config{ReadBufferSize: 4096, WindowCapacity: 16})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestCreateAndList(t *testing.T) {
	m := openTestManager(t)
	require.NoError(t, m.Create("builds"))
	require.NoError(t, m.Create("tests"))

	assert.Equal(t, []string{"builds", "tests"}, m.List())
}

func TestCreateDuplicateFails(t *testing.T) {
	m := openTestManager(t)
	require.NoError(t, m.Create("builds"))
	err := m.Create("builds")
	assert.ErrorIs(t, err, ferr.ErrAlreadyExists)
}

func TestCreateRejectsPathSeparators(t *testing.T) {
	m := openTestManager(t)
	assert.ErrorIs(t, m.Create("a/b"), ferr.ErrInvalidArgument)
	assert.ErrorIs(t, m.Create(`a\b`), ferr.ErrInvalidArgument)
}

func TestDeleteUnknownFails(t *testing.T) {
	m := openTestManager(t)
	assert.ErrorIs(t, m.Delete("nope"), ferr.ErrNotFound)
}

func TestDeleteRemovesBackingFile(t *testing.T) {
	m := openTestManager(t)
	require.NoError(t, m.Create("builds"))
	require.NoError(t, m.Delete("builds"))

	_, err := m.Get("builds")
	assert.ErrorIs(t, err, ferr.ErrNotFound)
	assert.Empty(t, m.List())

	_, statErr := os.Stat(m.path("builds"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenamePreservesQueueState(t *testing.T) {
	m := openTestManager(t)
	require.NoError(t, m.Create("builds"))

	eng, err := m.Get("builds")
	require.NoError(t, err)
	id, err := eng.AddTask("/bin/true", nil, "")
	require.NoError(t, err)

	require.NoError(t, m.Rename("builds", "ci"))

	_, err = m.Get("builds")
	assert.ErrorIs(t, err, ferr.ErrNotFound)

	renamed, err := m.Get("ci")
	require.NoError(t, err)
	assert.Equal(t, []uint64{id}, renamed.ListPending())
}

func TestRenameToExistingNameFails(t *testing.T) {
	m := openTestManager(t)
	require.NoError(t, m.Create("builds"))
	require.NoError(t, m.Create("tests"))

	err := m.Rename("builds", "tests")
	assert.ErrorIs(t, err, ferr.ErrAlreadyExists)
}

func TestOpenDiscoversExistingQueues(t *testing.T) {
	dir := t.TempDir()
	cfg := supervisor.Config{ReadBufferSize: 4096, WindowCapacity: 16}

	m, err := Open(dir, cfg)
	require.NoError(t, err)
	require.NoError(t, m.Create("builds"))
	m.Close()

	reopened, err := Open(dir, cfg)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, []string{"builds"}, reopened.List())
}
