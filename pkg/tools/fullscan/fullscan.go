package fullscan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/command"
	"github.com/tb0hdan/secscan-mcp/pkg/scan"
	"github.com/tb0hdan/secscan-mcp/pkg/server"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
)

const (
	reportLineWidth = 78
	toolName        = "web_full_scan"
)

// Input defines the MCP tool input parameters.
type Input struct {
	Target   string `json:"target" jsonschema:"target web server, private networks only"`
	Port     int    `json:"port,omitempty" jsonschema:"port number, default 80" validate:"min=0,max=65535"`
	SSL      bool   `json:"ssl,omitempty" jsonschema:"use HTTPS"`
	MaxLines int    `json:"max_lines,omitempty" validate:"min=0,max=100000"`
	Offset   int    `json:"offset,omitempty" validate:"min=0"`
}

// scannerResult holds the result from a single scanner with timing.
type scannerResult struct {
	Name     string
	Output   string
	Command  string
	Duration time.Duration
	Error    error
}

// Tool implements the full scan tool.
type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	scanners  []tools.Scanner
	runner    *scan.Runner
	now       func() time.Time
}

// Register registers the web_full_scan tool with the MCP server.
func (t *Tool) Register(srv *server.Server) error {
	// Filter to only available scanners.
	var availableScanners []tools.Scanner
	for _, scanner := range t.scanners {
		if scanner.IsAvailable() {
			t.logger.Debug().Msgf("scanner %s is available", scanner.Name())
			availableScanners = append(availableScanners, scanner)
		} else {
			t.logger.Warn().Msgf("scanner %s not available, will be skipped", scanner.Name())
		}
	}

	if len(availableScanners) == 0 {
		return fmt.Errorf("no scanner binaries available")
	}

	t.scanners = availableScanners
	t.runner = srv.Runner()

	tool := &mcp.Tool{
		Name:        toolName,
		Description: "Runs every available web scanner (nikto, dirb, wpscan) against one target in parallel and merges the results into a single report.",
	}

	mcp.AddTool(srv.Server, tool, tools.WrapToolHandler(srv.Storage(), toolName, t.FullScanHandler))
	t.logger.Debug().Msgf("%s tool registered with %d scanners", toolName, len(t.scanners))

	return nil
}

// FullScanHandler handles MCP tool requests.
func (t *Tool) FullScanHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	target, err := t.runner.Preflight(toolName, input.Target)
	if err != nil {
		return nil, nil, err
	}
	tools.RecordTarget(ctx, string(target))

	targetURL := command.WebURL(input.SSL, target, input.Port)
	t.logger.Info().Msgf("Starting full scan on %s with %d scanners", targetURL, len(t.scanners))

	results := t.runScannersParallel(ctx, tools.ScanParams{
		Target: string(target),
		Port:   input.Port,
		SSL:    input.SSL,
	})

	result := tools.TextResult(tools.Paginate(t.mergeResults(targetURL, results), input.MaxLines, input.Offset))
	result.IsError = allFailed(results)
	return result, nil, nil
}

// runScannersParallel runs all scanners in parallel. Results keep the order
// of t.scanners.
func (t *Tool) runScannersParallel(ctx context.Context, params tools.ScanParams) []scannerResult {
	results := make([]scannerResult, len(t.scanners))

	var waitGroup sync.WaitGroup
	for i, scanner := range t.scanners {
		waitGroup.Add(1)
		go func(idx int, currentScanner tools.Scanner) {
			defer waitGroup.Done()

			start := time.Now()
			scanResult := currentScanner.Scan(ctx, t.runner, params)

			results[idx] = scannerResult{
				Name:     currentScanner.Name(),
				Output:   scanResult.Output,
				Command:  scanResult.Command,
				Duration: time.Since(start),
				Error:    scanResult.Error,
			}
		}(i, scanner)
	}
	waitGroup.Wait()

	for _, result := range results {
		if result.Error != nil {
			t.logger.Warn().Err(result.Error).Msgf("%s scan failed", result.Name)
		} else {
			t.logger.Info().Dur("duration", result.Duration).Msgf("%s scan completed", result.Name)
		}
	}

	return results
}

// mergeResults merges scanner results into a unified report.
func (t *Tool) mergeResults(targetURL string, results []scannerResult) string {
	var builder strings.Builder

	separator := strings.Repeat("=", reportLineWidth+1)
	dashLine := strings.Repeat("-", reportLineWidth+1)

	builder.WriteString(separator + "\n")
	builder.WriteString("                    WEB SECURITY SCAN REPORT\n")
	builder.WriteString(separator + "\n")
	fmt.Fprintf(&builder, "Target: %s\n", targetURL)
	fmt.Fprintf(&builder, "Date: %s\n", t.now().UTC().Format(time.RFC1123))
	builder.WriteString(separator + "\n\n")

	builder.WriteString("SCAN SUMMARY\n")
	builder.WriteString(dashLine + "\n")

	// Scanners run in parallel, so wall time is the slowest one.
	var wallTime time.Duration
	successCount := 0
	failCount := 0

	for _, result := range results {
		wallTime = max(wallTime, result.Duration)
		status := "SUCCESS"
		if result.Error != nil {
			status = "FAILED"
			failCount++
		} else {
			successCount++
		}
		fmt.Fprintf(&builder, "  %-10s: %s (%.2fs)\n", result.Name, status, result.Duration.Seconds())
	}

	fmt.Fprintf(&builder, "\nTotal scanners: %d | Successful: %d | Failed: %d\n", len(results), successCount, failCount)
	fmt.Fprintf(&builder, "Total scan time: %.2fs\n", wallTime.Seconds())
	builder.WriteString("\n")

	for _, result := range results {
		builder.WriteString(separator + "\n")
		fmt.Fprintf(&builder, "                    %s RESULTS\n", strings.ToUpper(result.Name))
		builder.WriteString(separator + "\n\n")

		if result.Command != "" {
			fmt.Fprintf(&builder, "Command: %s\n\n", result.Command)
		}

		if result.Error != nil {
			fmt.Fprintf(&builder, "ERROR: %s\n\n", result.Error.Error())
			if result.Output != "" {
				builder.WriteString("Output:\n")
				builder.WriteString(result.Output)
				builder.WriteString("\n")
			}
		} else {
			builder.WriteString(strings.TrimSpace(result.Output))
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(separator + "\n")
	builder.WriteString("                    END OF REPORT\n")
	builder.WriteString(separator + "\n")

	return builder.String()
}

func allFailed(results []scannerResult) bool {
	for _, result := range results {
		if result.Error == nil {
			return false
		}
	}
	return len(results) > 0
}

// New creates a new full scan tool with the given scanners.
func New(logger zerolog.Logger, scanners ...tools.Scanner) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
		scanners:  scanners,
		now:       time.Now,
	}
}
