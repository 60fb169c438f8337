//go:build windows

package privilege

import "golang.org/x/sys/windows"

func processIdentity() Identity {
	return Identity{EUID: -1, Privileged: windows.GetCurrentProcessToken().IsElevated()}
}
