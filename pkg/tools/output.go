package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tb0hdan/secscan-mcp/pkg/scan"
	"github.com/tb0hdan/secscan-mcp/pkg/types"
)

// Report holds the headlines a tool prints above its output.
type Report struct {
	Success string
	Failure string
	// Filter, when set, rewrites stdout of successful runs before pagination.
	Filter func(stdout string) string
}

// TextResult wraps text into a tool result.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// Paginate returns at most maxLines lines of text starting at offset. A
// header describing the window is prepended whenever the text was cut.
func Paginate(text string, maxLines, offset int) string {
	if maxLines <= 0 {
		maxLines = types.MaxDefaultLines
	}
	if offset < 0 {
		offset = 0
	}

	lines := strings.Split(text, "\n")
	totalLines := len(lines)

	if offset == 0 && totalLines <= maxLines {
		return text
	}
	if offset >= totalLines {
		return fmt.Sprintf("[Offset %d is past the end of the output (%d lines).]", offset, totalLines)
	}

	end := min(offset+maxLines, totalLines)
	header := fmt.Sprintf("[Showing lines %d-%d of %d lines. Use offset parameter to view more.]\n\n", offset+1, end, totalLines)
	return header + strings.Join(lines[offset:end], "\n")
}

// Render turns a finished run into the text returned to the caller. Failed
// runs are flagged as tool errors and carry stderr and the command line.
func Render(outcome scan.Outcome, report Report, maxLines, offset int) *mcp.CallToolResult {
	result := outcome.Result

	if result.Succeeded {
		body := result.Stdout
		if report.Filter != nil {
			body = report.Filter(body)
		}
		return TextResult(report.Success + "\n\n" + Paginate(body, maxLines, offset))
	}

	var builder strings.Builder
	builder.WriteString(report.Failure)
	builder.WriteString("\n\nError: ")
	builder.WriteString(result.Stderr)
	builder.WriteString("\n\nCommand: ")
	builder.WriteString(outcome.Command.String())
	if strings.TrimSpace(result.Stdout) != "" {
		builder.WriteString("\n\nOutput:\n")
		builder.WriteString(Paginate(result.Stdout, maxLines, offset))
	}

	res := TextResult(builder.String())
	res.IsError = true
	return res
}

// Execute runs req, attaches the command to the call's history record and
// renders the outcome. Requests rejected before spawning return the error.
func Execute(ctx context.Context, runner *scan.Runner, req scan.Request, report Report, maxLines, offset int) (*mcp.CallToolResult, any, error) {
	outcome, err := runner.Run(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	RecordOutcome(ctx, outcome)
	return Render(outcome, report, maxLines, offset), nil, nil
}

// NonBlankLines drops empty and whitespace-only lines.
func NonBlankLines(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
