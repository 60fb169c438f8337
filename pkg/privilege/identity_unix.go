//go:build unix

package privilege

import "golang.org/x/sys/unix"

func processIdentity() Identity {
	euid := unix.Geteuid()
	return Identity{EUID: euid, Privileged: euid == 0}
}
