package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tb0hdan/secscan-mcp/pkg/scan"
	"github.com/tb0hdan/secscan-mcp/pkg/server"
)

type Tool interface {
	Register(srv *server.Server) error
}

// Scanner is a web scanner that can also run as part of web_full_scan.
type Scanner interface {
	Tool
	Name() string
	IsAvailable() bool
	Scan(ctx context.Context, runner *scan.Runner, params ScanParams) ScanResult
}

// ScanParams is the web target shared by all scanners of a full scan.
type ScanParams struct {
	Target string
	Port   int
	SSL    bool
}

// ScanResult is one scanner's contribution to a full scan report.
// Error is set for rejected requests and for failed runs.
type ScanResult struct {
	Output  string
	Command string
	Error   error
}

// LookPath finds tool binaries; tests replace it.
var LookPath = exec.LookPath

// BinaryAvailable reports whether program is installed and where.
func BinaryAvailable(program string) (string, bool) {
	path, err := LookPath(program)
	if err != nil {
		return "", false
	}
	return path, true
}

// NewScanResult converts the outcome of runner.Run into a full scan
// contribution. filter applies to stdout of successful runs.
func NewScanResult(outcome scan.Outcome, err error, filter func(string) string) ScanResult {
	if err != nil {
		return ScanResult{Error: err}
	}

	result := ScanResult{
		Output:  outcome.Result.Stdout,
		Command: outcome.Command.String(),
	}
	switch {
	case outcome.Result.Succeeded:
		if filter != nil {
			result.Output = filter(result.Output)
		}
	case outcome.Result.Stderr != "":
		result.Error = fmt.Errorf("exit code %d: %s", outcome.Result.ExitCode, strings.TrimSpace(outcome.Result.Stderr))
	default:
		result.Error = fmt.Errorf("exit code %d", outcome.Result.ExitCode)
	}
	return result
}
