//go:build !windows

package supervisor

import "os"

// isSuperuser reports whether the calling process is running as root.
func isSuperuser() bool {
	return os.Geteuid() == 0
}
