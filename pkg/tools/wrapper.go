package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tb0hdan/secscan-mcp/pkg/models"
	"github.com/tb0hdan/secscan-mcp/pkg/scan"
	"github.com/tb0hdan/secscan-mcp/pkg/storage"
)

type recordKey struct{}

// record collects what a handler learned about the command it ran.
// It is only touched by the handler's own goroutine.
type record struct {
	target      string
	commandLine string
	exitCode    int
	timedOut    bool
}

// RecordOutcome attaches the executed command to the history entry of the
// tool call running in ctx. It is a no-op outside a wrapped handler.
func RecordOutcome(ctx context.Context, outcome scan.Outcome) {
	rec, ok := ctx.Value(recordKey{}).(*record)
	if !ok {
		return
	}
	rec.target = string(outcome.Target)
	rec.commandLine = outcome.Command.String()
	rec.exitCode = outcome.Result.ExitCode
	rec.timedOut = outcome.Result.TimedOut
}

// RecordTarget sets only the target of the history entry.
func RecordTarget(ctx context.Context, target string) {
	if rec, ok := ctx.Value(recordKey{}).(*record); ok {
		rec.target = target
	}
}

// WrapToolHandler wraps a tool handler to add execution logging.
func WrapToolHandler[In, Out any](
	store storage.Storage,
	toolName string,
	handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error),
) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, Out, error) {
		startTime := time.Now()

		sessionID := ""
		if req != nil && req.Session != nil {
			sessionID = req.Session.ID()
		}

		inputJSON, _ := json.Marshal(input)

		rec := &record{}
		result, output, err := handler(context.WithValue(ctx, recordKey{}, rec), req, input)

		duration := time.Since(startTime)

		exec := &models.ToolExecution{
			SessionID:   sessionID,
			ToolName:    toolName,
			Target:      rec.target,
			CommandLine: rec.commandLine,
			ExitCode:    rec.exitCode,
			TimedOut:    rec.timedOut,
			InputJSON:   string(inputJSON),
			DurationMs:  duration.Milliseconds(),
			Success:     err == nil && (result == nil || !result.IsError),
		}

		if err != nil {
			exec.ErrorMessage = err.Error()
		} else if result != nil {
			outputJSON, _ := json.Marshal(result)
			exec.OutputJSON = string(outputJSON)
		}

		if store == nil {
			return result, output, err
		}

		// Background context: the record is written even if the request is cancelled.
		go func() { //nolint:contextcheck
			_ = store.CreateToolExecution(context.Background(), exec)
		}()

		return result, output, err
	}
}
