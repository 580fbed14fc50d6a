//go:build windows

package supervisor

import "golang.org/x/sys/windows"

// isSuperuser reports whether the calling process token is elevated.
func isSuperuser() bool {
	token := windows.GetCurrentProcessToken()
	return token.IsElevated()
}
