// Package scan wires the privilege guard, target policy, command builder and
// executor into a single call used by every scanner tool.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/command"
	"github.com/tb0hdan/secscan-mcp/pkg/executor"
	"github.com/tb0hdan/secscan-mcp/pkg/metrics"
	"github.com/tb0hdan/secscan-mcp/pkg/policy"
	"github.com/tb0hdan/secscan-mcp/pkg/privilege"
)

// Executor runs a command under a time limit.
type Executor interface {
	Execute(ctx context.Context, spec command.Spec, timeout time.Duration) executor.Result
}

// Request is one tool call with raw, unvalidated target and ports.
type Request struct {
	Tool   string
	Target string
	Ports  string
	// Params holds the tool specific fields; its Target and Ports are overwritten.
	Params command.Params
}

// Outcome is what Run produced for a request that reached the executor.
type Outcome struct {
	Tool    string
	Target  policy.Target
	Command command.Spec
	Timeout time.Duration
	Result  executor.Result
}

type Runner struct {
	logger   zerolog.Logger
	guard    *privilege.Guard
	policy   *policy.Policy
	builder  *command.Builder
	executor Executor
}

func NewRunner(logger zerolog.Logger, guard *privilege.Guard, pol *policy.Policy, exec Executor) *Runner {
	return &Runner{
		logger:   logger.With().Str("component", "runner").Logger(),
		guard:    guard,
		policy:   pol,
		builder:  command.NewBuilder(pol),
		executor: exec,
	}
}

// Builder exposes the command builder, mostly for tool listings.
func (r *Runner) Builder() *command.Builder {
	return r.builder
}

// Policy returns the policy requests are validated against.
func (r *Runner) Policy() *policy.Policy {
	return r.policy
}

// Preflight runs the privilege and target checks of Run without building or
// executing anything. Fan-out callers use it to reject a request once.
func (r *Runner) Preflight(tool, rawTarget string) (policy.Target, error) {
	if err := r.guard.AssertNotPrivileged(); err != nil {
		metrics.RecordRejection(tool, metrics.ReasonPrivileged)
		r.logger.Error().Err(err).Str("tool", tool).Msg("This tool should not be run as root for security reasons")
		return "", err
	}

	target, err := r.policy.ValidateTarget(rawTarget)
	if err != nil {
		metrics.RecordRejection(tool, metrics.ReasonInvalidTarget)
		return "", err
	}
	return target, nil
}

// Run validates req and executes it. An error means nothing was spawned;
// once a process has been started the outcome is always returned with a nil
// error, whether the process succeeded or not.
func (r *Runner) Run(ctx context.Context, req Request) (Outcome, error) {
	if err := r.guard.AssertNotPrivileged(); err != nil {
		metrics.RecordRejection(req.Tool, metrics.ReasonPrivileged)
		r.logger.Error().Err(err).Str("tool", req.Tool).Msg("This tool should not be run as root for security reasons")
		return Outcome{}, err
	}

	def, ok := r.builder.Describe(req.Tool)
	if !ok {
		metrics.RecordRejection(req.Tool, metrics.ReasonBuild)
		return Outcome{}, fmt.Errorf("%w: %q", command.ErrUnknownTool, req.Tool)
	}

	params := req.Params
	params.Target = ""
	params.Ports = ""

	if def.RequiresTarget {
		target, err := r.policy.ValidateTarget(req.Target)
		if err != nil {
			metrics.RecordRejection(req.Tool, metrics.ReasonInvalidTarget)
			return Outcome{}, err
		}
		params.Target = target
	}

	if def.UsesPorts {
		ports, err := r.policy.ValidatePortSpec(req.Ports)
		if err != nil {
			metrics.RecordRejection(req.Tool, metrics.ReasonInvalidPorts)
			return Outcome{}, err
		}
		params.Ports = ports
	}

	spec, timeout, err := r.builder.Build(req.Tool, params)
	if err != nil {
		metrics.RecordRejection(req.Tool, metrics.ReasonBuild)
		return Outcome{}, err
	}

	r.logger.Info().
		Str("tool", req.Tool).
		Dur("timeout", timeout).
		Msgf("Running %s: %s", req.Tool, spec.String())

	result := r.executor.Execute(ctx, spec, timeout)
	metrics.RecordExecution(req.Tool, result.Outcome(), result.Duration)

	event := r.logger.Info()
	if !result.Succeeded {
		event = r.logger.Warn()
	}
	event.Str("tool", req.Tool).
		Str("outcome", result.Outcome()).
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Msgf("%s finished", req.Tool)

	return Outcome{
		Tool:    req.Tool,
		Target:  params.Target,
		Command: spec,
		Timeout: timeout,
		Result:  result,
	}, nil
}
