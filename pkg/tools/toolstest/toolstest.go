// Package toolstest provides a scripted executor for testing tool handlers
// without spawning the real binaries.
package toolstest

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/command"
	"github.com/tb0hdan/secscan-mcp/pkg/executor"
	"github.com/tb0hdan/secscan-mcp/pkg/policy"
	"github.com/tb0hdan/secscan-mcp/pkg/privilege"
	"github.com/tb0hdan/secscan-mcp/pkg/scan"
)

// Executor records every command and answers with a fixed result, or with
// the result registered for the command's program.
type Executor struct {
	mu        sync.Mutex
	Result    executor.Result
	ByProgram map[string]executor.Result
	specs     []command.Spec
	timeouts  []time.Duration
}

// NewExecutor returns an Executor whose runs succeed with stdout.
func NewExecutor(stdout string) *Executor {
	return &Executor{
		Result:    executor.Result{Succeeded: true, Stdout: stdout},
		ByProgram: map[string]executor.Result{},
	}
}

func (e *Executor) Execute(_ context.Context, spec command.Spec, timeout time.Duration) executor.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.specs = append(e.specs, spec)
	e.timeouts = append(e.timeouts, timeout)

	result, ok := e.ByProgram[spec.Program()]
	if !ok {
		result = e.Result
	}
	result.Argv = spec.Argv()
	return result
}

// Commands returns the argv of every executed command in call order.
func (e *Executor) Commands() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	argvs := make([][]string, 0, len(e.specs))
	for _, spec := range e.specs {
		argvs = append(argvs, spec.Argv())
	}
	return argvs
}

// Timeouts returns the timeout of every executed command in call order.
func (e *Executor) Timeouts() []time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]time.Duration(nil), e.timeouts...)
}

// NewRunner returns a runner over exec with the default policy, running as euid.
func NewRunner(exec scan.Executor, euid int) *scan.Runner {
	return scan.NewRunner(zerolog.Nop(), privilege.NewGuard(privilege.WithEUID(euid)), policy.Default(), exec)
}
