// Package executor runs scanner commands as child processes without a shell,
// inside the scan directory and under a hard time limit.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/command"
	"github.com/tb0hdan/secscan-mcp/pkg/types"
)

const (
	OutcomeSuccess       = "success"
	OutcomeTimeout       = "timeout"
	OutcomeLaunchFailure = "launch_failure"
	OutcomeNonZeroExit   = "nonzero_exit"

	// defaultWaitDelay bounds how long Wait blocks on output pipes after the child is killed.
	defaultWaitDelay = 2 * time.Second
)

// Result is the outcome of one execution. Succeeded is true exactly when ExitCode is 0.
type Result struct {
	Succeeded    bool          `json:"success"`
	Stdout       string        `json:"stdout"`
	Stderr       string        `json:"stderr"`
	ExitCode     int           `json:"return_code"`
	TimedOut     bool          `json:"timed_out"`
	LaunchFailed bool          `json:"launch_failed"`
	Argv         []string      `json:"argv"`
	Duration     time.Duration `json:"duration"`
}

// Outcome classifies the result for logs and metrics.
func (r Result) Outcome() string {
	switch {
	case r.Succeeded:
		return OutcomeSuccess
	case r.TimedOut:
		return OutcomeTimeout
	case r.LaunchFailed:
		return OutcomeLaunchFailure
	default:
		return OutcomeNonZeroExit
	}
}

// Executor holds only read-only settings and is safe for concurrent use.
type Executor struct {
	logger    zerolog.Logger
	workDir   string
	waitDelay time.Duration
}

// New returns an Executor that starts every child in workDir.
func New(logger zerolog.Logger, workDir string) *Executor {
	return &Executor{
		logger:    logger.With().Str("component", "executor").Logger(),
		workDir:   workDir,
		waitDelay: defaultWaitDelay,
	}
}

// WorkDir returns the working directory of spawned commands.
func (e *Executor) WorkDir() string {
	return e.workDir
}

// Execute runs spec and waits at most timeout for it. It never returns an
// error: launch failures, timeouts and non-zero exits are all reported in
// the Result. Timeouts outside (0, MaxScanTimeout] are clamped to the maximum.
func (e *Executor) Execute(ctx context.Context, spec command.Spec, timeout time.Duration) Result {
	start := time.Now()
	result := Result{
		Argv:     spec.Argv(),
		ExitCode: -1,
	}

	if spec.IsZero() {
		result.LaunchFailed = true
		result.Stderr = "Command execution error: empty command"
		return result
	}

	if timeout <= 0 || timeout > types.MaxScanTimeout {
		timeout = types.MaxScanTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Program(), spec.Args()...) //nolint:gosec
	cmd.Dir = e.workDir
	cmd.WaitDelay = e.waitDelay
	configureProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug().Strs("argv", result.Argv).Dur("timeout", timeout).Msg("executing command")

	err := cmd.Run()

	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case err == nil:
		result.Succeeded = result.ExitCode == 0
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		result.TimedOut = true
		result.ExitCode = -1
		result.Stderr = appendLine(result.Stderr, fmt.Sprintf("Command timed out after %s seconds", formatSeconds(timeout)))
	case ctx.Err() != nil:
		result.ExitCode = -1
		result.Stderr = appendLine(result.Stderr, fmt.Sprintf("Command cancelled: %v", ctx.Err()))
	case cmd.ProcessState == nil:
		result.LaunchFailed = true
		result.Stderr = appendLine(result.Stderr, fmt.Sprintf("Command execution error: %v", err))
	default:
		// Exited on its own; a wait error after exit does not change the code.
		result.Succeeded = result.ExitCode == 0
	}

	e.logger.Debug().
		Str("program", spec.Program()).
		Str("outcome", result.Outcome()).
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Msg("command finished")

	return result
}

func appendLine(text, line string) string {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text + line
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
