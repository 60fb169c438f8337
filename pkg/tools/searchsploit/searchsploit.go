package searchsploit

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

const toolName = "searchsploit_search"

type Input struct {
	Keyword     string `json:"keyword" jsonschema:"search keyword" validate:"required,max=256"`
	Platform    string `json:"platform,omitempty" jsonschema:"target platform or OS"`
	ExploitType string `json:"exploit_type,omitempty" jsonschema:"exploit type such as remote, local or webapps"`
	MaxLines    int    `json:"max_lines,omitempty" validate:"min=0,max=100000"`
	Offset      int    `json:"offset,omitempty" validate:"min=0"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	runner    *scan.Runner
}

func (t *Tool) Register(srv *server.Server) error {
	path, ok := tools.BinaryAvailable("searchsploit")
	if !ok {
		return fmt.Errorf("searchsploit binary not found")
	}
	t.logger.Debug().Msgf("searchsploit binary found at %s", path)

	t.runner = srv.Runner()

	tool := &mcp.Tool{
		Name:        toolName,
		Description: "Search Exploit-DB for known exploits with SearchSploit.",
	}

	mcp.AddTool(srv.Server, tool, tools.WrapToolHandler(srv.Storage(), toolName, t.SearchsploitHandler))
	t.logger.Debug().Msg("searchsploit tool registered")

	return nil
}

func (t *Tool) SearchsploitHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	return tools.Execute(ctx, t.runner, scan.Request{
		Tool: command.ToolSearchsploit,
		Params: command.Params{
			Keyword:     input.Keyword,
			Platform:    input.Platform,
			ExploitType: input.ExploitType,
		},
	}, tools.Report{
		Success: fmt.Sprintf("✅ SearchSploit search completed for '%s'", strings.TrimSpace(input.Keyword)),
		Failure: "❌ SearchSploit search failed",
	}, input.MaxLines, input.Offset)
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
	}
}
