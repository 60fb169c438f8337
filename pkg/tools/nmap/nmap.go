package nmap

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

const toolName = "nmap_scan"

type Input struct {
	Target   string `json:"target" jsonschema:"target host or network, private networks only"`
	ScanType string `json:"scan_type,omitempty" jsonschema:"basic, aggressive, stealth or udp" validate:"omitempty,oneof=basic aggressive stealth udp"`
	Ports    string `json:"ports,omitempty" jsonschema:"ports or port ranges, default is a list of common ports"`
	Options  string `json:"options,omitempty" jsonschema:"additional nmap options"`
	MaxLines int    `json:"max_lines,omitempty" validate:"min=0,max=100000"`
	Offset   int    `json:"offset,omitempty" validate:"min=0"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	runner    *scan.Runner
}

func (t *Tool) Register(srv *server.Server) error {
	path, ok := tools.BinaryAvailable("nmap")
	if !ok {
		return fmt.Errorf("nmap binary not found")
	}
	t.logger.Debug().Msgf("nmap binary found at %s", path)

	t.runner = srv.Runner()

	tool := &mcp.Tool{
		Name:        toolName,
		Description: "Perform an nmap network scan of a private network target.",
	}

	mcp.AddTool(srv.Server, tool, tools.WrapToolHandler(srv.Storage(), toolName, t.NmapHandler))
	t.logger.Debug().Msg("nmap tool registered")

	return nil
}

func (t *Tool) NmapHandler(ctx context.Context, _ *mcp.CallToolRequest, input Input) (*mcp.CallToolResult, any, error) {
	if err := t.validator.Struct(input); err != nil {
		return nil, nil, fmt.Errorf("validation error: %w", err)
	}

	mode := input.ScanType
	if mode == "" {
		mode = command.DefaultNmapMode
	}

	return tools.Execute(ctx, t.runner, scan.Request{
		Tool:   command.ToolNmap,
		Target: input.Target,
		Ports:  input.Ports,
		Params: command.Params{Mode: mode, ExtraOptions: input.Options},
	}, tools.Report{
		Success: fmt.Sprintf("✅ Nmap %s scan completed successfully", mode),
		Failure: "❌ Nmap scan failed",
	}, input.MaxLines, input.Offset)
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger:    logger.With().Str("tool", toolName).Logger(),
		validator: validator.New(),
	}
}
