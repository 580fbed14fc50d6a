//go:build linux || darwin

package supervisor

import (
	"strings"
	"testing"
	"time"

	"github.com/cuemby/flowrunner/internal/model"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitUntilStopped(t *testing.T, s *Supervisor) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !s.IsRunning() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task did not finish in time")
}

func TestSupervisorRunsAndCapturesOutput(t *testing.T) {
	s := New(Config{ReadBufferSize: 4096, WindowCapacity: 16})
	s.Init()

	task := &model.Task{ID: 1, Exec: "/bin/echo", Args: []string{"hello-flowrunner"}}
	require.NoError(t, s.Start(task))

	waitUntilStopped(t, s)

	code, success, err := s.ExitCode()
	require.NoError(t, err)
	assert.Equal(t, int32(0), code)
	assert.True(t, success)

	var out strings.Builder
	for _, chunk := range s.ReadCurrentOutput() {
		out.Write(chunk)
	}
	assert.Contains(t, out.String(), "hello-flowrunner")
}

func TestSupervisorExitCodeUnavailableWhileRunning(t *testing.T) {
	s := New(Config{})
	s.Init()

	task := &model.Task{ID: 1, Exec: "/bin/sleep", Args: []string{"1"}}
	require.NoError(t, s.Start(task))

	_, _, err := s.ExitCode()
	assert.ErrorIs(t, err, ferr.ErrInvalidArgument)

	waitUntilStopped(t, s)
}

func TestSupervisorNonZeroExit(t *testing.T) {
	s := New(Config{})
	s.Init()

	task := &model.Task{ID: 1, Exec: "/bin/sh", Args: []string{"-c", "exit 7"}}
	require.NoError(t, s.Start(task))

	waitUntilStopped(t, s)

	code, success, err := s.ExitCode()
	require.NoError(t, err)
	assert.Equal(t, int32(7), code)
	assert.False(t, success)
}

func TestSupervisorStopKillsRunningTask(t *testing.T) {
	s := New(Config{})
	s.Init()

	task := &model.Task{ID: 1, Exec: "/bin/sleep", Args: []string{"30"}}
	require.NoError(t, s.Start(task))
	require.True(t, s.IsRunning())

	require.NoError(t, s.Stop())
	waitUntilStopped(t, s)

	_, success, err := s.ExitCode()
	require.NoError(t, err)
	assert.False(t, success)
}

func TestSupervisorInvalidWorkDirExitsNonZeroAtSpawnNotAtStart(t *testing.T) {
	s := New(Config{})
	s.Init()

	task := &model.Task{ID: 1, Exec: "/bin/echo", Args: []string{"hi"}, WorkDir: "/no/such/directory"}
	require.NoError(t, s.Start(task))

	waitUntilStopped(t, s)

	code, success, err := s.ExitCode()
	require.NoError(t, err)
	assert.NotEqual(t, int32(0), code)
	assert.False(t, success)
}

func TestSupervisorValidWorkDirRunsThere(t *testing.T) {
	s := New(Config{ReadBufferSize: 4096, WindowCapacity: 16})
	s.Init()

	dir := t.TempDir()
	task := &model.Task{ID: 1, Exec: "/bin/pwd", WorkDir: dir}
	require.NoError(t, s.Start(task))

	waitUntilStopped(t, s)

	code, success, err := s.ExitCode()
	require.NoError(t, err)
	assert.Equal(t, int32(0), code)
	assert.True(t, success)

	var out strings.Builder
	for _, chunk := range s.ReadCurrentOutput() {
		out.Write(chunk)
	}
	assert.Contains(t, out.String(), dir)
}

func TestSupervisorRefusesSecondStartWhileRunning(t *testing.T) {
	s := New(Config{})
	s.Init()

	require.NoError(t, s.Start(&model.Task{ID: 1, Exec: "/bin/sleep", Args: []string{"1"}}))
	err := s.Start(&model.Task{ID: 2, Exec: "/bin/echo", Args: []string{"nope"}})
	assert.ErrorIs(t, err, ferr.ErrInvalidArgument)

	waitUntilStopped(t, s)
}

func TestBuildArgvEmptyArgs(t *testing.T) {
	argv := buildArgv(&model.Task{Exec: "/bin/true"})
	assert.Equal(t, []string{"/bin/true"}, argv)
}

func TestBuildArgvWithArgs(t *testing.T) {
	argv := buildArgv(&model.Task{Exec: "/bin/echo", Args: []string{"a", "b"}})
	assert.Equal(t, []string{"/bin/echo", "a", "b"}, argv)
}
