// Package privilege refuses to run scanners from an elevated process.
package privilege

import (
	"errors"
	"fmt"
)

var ErrPrivileged = errors.New("must run as non-root user")

// Identity describes the effective identity of the running process.
type Identity struct {
	EUID       int // -1 where the platform has no numeric uid
	Privileged bool
}

// Guard checks the process identity on every call, so a process that
// regains privileges after startup is still caught.
type Guard struct {
	identity func() Identity
}

// Option configures a Guard.
type Option func(*Guard)

// WithIdentity replaces the identity lookup.
func WithIdentity(fn func() Identity) Option {
	return func(g *Guard) {
		g.identity = fn
	}
}

// WithEUID makes the guard report a fixed effective uid.
func WithEUID(euid int) Option {
	return WithIdentity(func() Identity {
		return Identity{EUID: euid, Privileged: euid == 0}
	})
}

// NewGuard returns a Guard that inspects the current process.
func NewGuard(opts ...Option) *Guard {
	g := &Guard{identity: processIdentity}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AssertNotPrivileged returns ErrPrivileged when the process runs as root or elevated administrator.
func (g *Guard) AssertNotPrivileged() error {
	id := g.identity()
	if id.Privileged {
		return fmt.Errorf("%w: effective uid %d", ErrPrivileged, id.EUID)
	}
	return nil
}

// AssertNotPrivileged checks the current process.
func AssertNotPrivileged() error {
	return NewGuard().AssertNotPrivileged()
}
