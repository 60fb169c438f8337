package hydra

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/command"
	"github.com/tb0hdan/secscan-mcp/pkg/scan"
	"github.com/tb0hdan/secscan-mcp/pkg/server"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
)

const toolName = "hydra_bruteforce"

type Input struct {
	Target   string `json:"target" jsonschema:"target host, private networks only"`
	Service  string `json:"service" jsonschema:"service to attack such as ssh, ftp or http-post-form" validate:"required,max=64"`
	Username string `json:"username" jsonschema:"login name" validate:"required,max=256"`
	Wordlist string `json:"wordlist,omitempty" jsonschema:"password wordlist, rockyou when empty"`
	MaxLines int    `json:"max_lines,omitempty" validate:"min=0,max=100000"`
	Offset   int    `json:"offset,omitempty" validate:"min=0"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	runner    *scan.Runner
}

func (t *Tool) Register(srv *server.Server) error {
	path, ok := tools.BinaryAvailable("hydra")
	if !ok {
		return fmt.Errorf("hydra binary not found")
	}
	t.logger.Debug().Msgf("hydra binary found at %s", path)

	t.runner = srv.Runner()

	tool := &mcp.Tool{
		Name:        toolName,
		Description: "Brute force a login with Hydra. For authorized testing only.",
	}

	mcp.AddTool(srv.Server, tool, tools.WrapToolHandler(srv.Storage(), toolName, t.HydraHandler))
	t.logger.Debug().Msg("hydra tool registered")

	return nil
}

func (t *Tool) HydraHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	return tools.Execute(ctx, t.runner, scan.Request{
		Tool:   command.ToolHydra,
		Target: input.Target,
		Params: command.Params{
			Service:  input.Service,
			Username: input.Username,
			Wordlist: input.Wordlist,
		},
	}, tools.Report{
		Success: "✅ Hydra brute force completed",
		Failure: "❌ Hydra brute force failed",
	}, input.MaxLines, input.Offset)
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
	}
}
