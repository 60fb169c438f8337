package sqlmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/command"
	"github.com/tb0hdan/secscan-mcp/pkg/scan"
	"github.com/tb0hdan/secscan-mcp/pkg/server"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
)

const toolName = "sqlmap_scan"

type Input struct {
	Target   string `json:"target" jsonschema:"target URL or endpoint, private networks only"`
	Method   string `json:"method,omitempty" jsonschema:"HTTP method, GET or POST" validate:"omitempty,oneof=GET POST get post"`
	Data     string `json:"data,omitempty" jsonschema:"POST data"`
	Cookie   string `json:"cookie,omitempty" jsonschema:"session cookies"`
	MaxLines int    `json:"max_lines,omitempty" validate:"min=0,max=100000"`
	Offset   int    `json:"offset,omitempty" validate:"min=0"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	runner    *scan.Runner
}

func (t *Tool) Register(srv *server.Server) error {
	path, ok := tools.BinaryAvailable("sqlmap")
	if !ok {
		return fmt.Errorf("sqlmap binary not found")
	}
	t.logger.Debug().Msgf("sqlmap binary found at %s", path)

	t.runner = srv.Runner()

	tool := &mcp.Tool{
		Name:        toolName,
		Description: "Test an endpoint for SQL injection with sqlmap.",
	}

	mcp.AddTool(srv.Server, tool, tools.WrapToolHandler(srv.Storage(), toolName, t.SQLMapHandler))
	t.logger.Debug().Msg("sqlmap tool registered")

	return nil
}

func (t *Tool) SQLMapHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	return tools.Execute(ctx, t.runner, scan.Request{
		Tool:   command.ToolSQLMap,
		Target: input.Target,
		Params: command.Params{
			Method: input.Method,
			Data:   input.Data,
			Cookie: input.Cookie,
		},
	}, tools.Report{
		Success: "✅ SQLMap scan completed for " + strings.TrimSpace(input.Target),
		Failure: "❌ SQLMap scan failed",
	}, input.MaxLines, input.Offset)
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
	}
}
