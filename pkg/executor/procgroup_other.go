//go:build !unix

package executor

import "os/exec"

// configureProcessGroup keeps the default CommandContext behavior of killing the child only.
func configureProcessGroup(_ *exec.Cmd) {}
