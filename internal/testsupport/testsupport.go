// Package testsupport holds shared test fixtures: a scratch data
// directory, a small-window supervisor config, and exec/args pairs for
// common system commands. The package tests in this module do not
// import it; they inline the same values.
package testsupport

import (
	"testing"

	"github.com/cuemby/flowrunner/internal/supervisor"
)

// TempDataDir returns a fresh temporary directory for a queue-list's
// backing files, removed automatically when t completes.
func TempDataDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// SupervisorConfig returns a supervisor.Config with a small window,
// tight enough that tests can exercise eviction without generating much
// output.
func SupervisorConfig() supervisor.Config {
	return supervisor.Config{
		ReadBufferSize: 4096,
		WindowCapacity: 8,
	}
}

// Echo returns an exec/args pair that prints msg and exits zero, in
// place of a committed fixture binary.
func Echo(msg string) (exec string, args []string) {
	return "/bin/echo", []string{msg}
}

// Sleep returns an exec/args pair that sleeps for the given number of
// seconds before exiting zero.
func Sleep(seconds string) (exec string, args []string) {
	return "/bin/sleep", []string{seconds}
}

// FailingCommand returns an exec/args pair that exits non-zero.
func FailingCommand() (exec string, args []string) {
	return "/bin/sh", []string{"-c", "exit 7"}
}
