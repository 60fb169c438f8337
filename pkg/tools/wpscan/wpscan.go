package wpscan

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/command"
	"github.com/tb0hdan/secscan-mcp/pkg/policy"
	"github.com/tb0hdan/secscan-mcp/pkg/scan"
	"github.com/tb0hdan/secscan-mcp/pkg/server"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
)

const toolName = "wpscan_scan"

type Input struct {
	Target    string   `json:"target" jsonschema:"target WordPress site, private networks only"`
	Port      int      `json:"port,omitempty" jsonschema:"port number, default 80" validate:"min=0,max=65535"`
	SSL       bool     `json:"ssl,omitempty" jsonschema:"use HTTPS"`
	Enumerate []string `json:"enumerate,omitempty" jsonschema:"items to enumerate such as u, vp, vt" validate:"max=10,dive,max=32"`
	MaxLines  int      `json:"max_lines,omitempty" validate:"min=0,max=100000"`
	Offset    int      `json:"offset,omitempty" validate:"min=0"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	runner    *scan.Runner
}

func (t *Tool) Register(srv *server.Server) error {
	path, ok := tools.BinaryAvailable("wpscan")
	if !ok {
		return fmt.Errorf("wpscan binary not found")
	}
	t.logger.Debug().Msgf("wpscan binary found at %s", path)

	t.runner = srv.Runner()

	tool := &mcp.Tool{
		Name:        toolName,
		Description: "Scan a WordPress site for vulnerabilities with WPScan.",
	}

	mcp.AddTool(srv.Server, tool, tools.WrapToolHandler(srv.Storage(), toolName, t.WPScanHandler))
	t.logger.Debug().Msg("wpscan tool registered")

	return nil
}

func (t *Tool) WPScanHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	url := command.WebURL(input.SSL, policy.Target(strings.TrimSpace(input.Target)), input.Port)
	req := request(tools.ScanParams{Target: input.Target, Port: input.Port, SSL: input.SSL})
	req.Params.Enumerate = input.Enumerate

	return tools.Execute(ctx, t.runner, req, tools.Report{
		Success: "✅ WPScan completed for " + url,
		Failure: "❌ WPScan failed",
	}, input.MaxLines, input.Offset)
}

// Name implements tools.Scanner.
func (t *Tool) Name() string {
	return "wpscan"
}

// IsAvailable implements tools.Scanner.
func (t *Tool) IsAvailable() bool {
	_, ok := tools.BinaryAvailable("wpscan")
	return ok
}

// Scan implements tools.Scanner without enumeration.
func (t *Tool) Scan(ctx context.Context, runner *scan.Runner, params tools.ScanParams) tools.ScanResult {
	outcome, err := runner.Run(ctx, request(params))
	return tools.NewScanResult(outcome, err, strings.TrimSpace)
}

func request(params tools.ScanParams) scan.Request {
	return scan.Request{
		Tool:   command.ToolWPScan,
		Target: params.Target,
		Params: command.Params{Port: params.Port, SSL: params.SSL},
	}
}

func New(logger zerolog.Logger) tools.Scanner {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
	}
}
