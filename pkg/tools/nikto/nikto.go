package nikto

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

const toolName = "nikto_scan"

type Input struct {
	Target   string `json:"target" jsonschema:"target web server, private networks only"`
	Port     int    `json:"port,omitempty" jsonschema:"port number, default 80" validate:"min=0,max=65535"`
	SSL      bool   `json:"ssl,omitempty" jsonschema:"use HTTPS"`
	MaxLines int    `json:"max_lines,omitempty" validate:"min=0,max=100000"` // Maximum lines to return
	Offset   int    `json:"offset,omitempty" validate:"min=0"`               // Line offset for pagination
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	runner    *scan.Runner
}

func (p *Tool) Register(srv *server.Server) error {
	niktoPath, ok := tools.BinaryAvailable("nikto")
	if !ok {
		return fmt.Errorf("nikto binary not found")
	}
	p.logger.Debug().Msgf("nikto binary found at %s", niktoPath)

	p.runner = srv.Runner()

	tool := &mcp.Tool{
		Name:        toolName,
		Description: "Nikto is an open source web server scanner.",
	}

	mcp.AddTool(srv.Server, tool, tools.WrapToolHandler(srv.Storage(), toolName, p.NiktoHandler))
	p.logger.Debug().Msg("nikto tool registered")

	return nil
}

func (p *Tool) NiktoHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := p.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	url := command.WebURL(input.SSL, policy.Target(strings.TrimSpace(input.Target)), input.Port)

	return tools.Execute(ctx, p.runner, request(input.Target, input.Port, input.SSL), tools.Report{
		Success: "✅ Nikto scan completed for " + url,
		Failure: "❌ Nikto scan failed",
		Filter:  tools.NonBlankLines,
	}, input.MaxLines, input.Offset)
}

// Name implements tools.Scanner.
func (p *Tool) Name() string {
	return "nikto"
}

// IsAvailable implements tools.Scanner.
func (p *Tool) IsAvailable() bool {
	_, ok := tools.BinaryAvailable("nikto")
	return ok
}

// Scan implements tools.Scanner.
func (p *Tool) Scan(ctx context.Context, runner *scan.Runner, params tools.ScanParams) tools.ScanResult {
	outcome, err := runner.Run(ctx, request(params.Target, params.Port, params.SSL))
	return tools.NewScanResult(outcome, err, tools.NonBlankLines)
}

func request(target string, port int, ssl bool) scan.Request {
	return scan.Request{
		Tool:   command.ToolNikto,
		Target: target,
		Params: command.Params{Port: port, SSL: ssl},
	}
}

func New(logger zerolog.Logger) tools.Scanner {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
	}
}
