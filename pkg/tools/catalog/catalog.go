package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/command"
	"github.com/tb0hdan/secscan-mcp/pkg/server"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
)

const toolName = "list_available_tools"

type group struct {
	title string
	tools []string
}

var groups = []group{
	{title: "Network Scanning", tools: []string{command.ToolNmap}},
	{title: "Web Application Testing", tools: []string{command.ToolNikto, command.ToolDirb, command.ToolWPScan, command.ToolSQLMap}},
	{title: "Security Research", tools: []string{command.ToolSearchsploit, command.ToolHydra}},
}

// mcpNames maps a tool id to the MCP tool wrapping it.
var mcpNames = map[string]string{
	command.ToolNmap:         "nmap_scan",
	command.ToolNikto:        "nikto_scan",
	command.ToolDirb:         "dirb_scan",
	command.ToolWPScan:       "wpscan_scan",
	command.ToolSQLMap:       "sqlmap_scan",
	command.ToolSearchsploit: "searchsploit_search",
	command.ToolHydra:        "hydra_bruteforce",
}

type Input struct{}

type Tool struct {
	logger  zerolog.Logger
	builder *command.Builder
}

func (t *Tool) Register(srv *server.Server) error {
	t.builder = srv.Runner().Builder()

	tool := &mcp.Tool{
		Name:        toolName,
		Description: "List the security tools this server wraps and which of them are installed.",
	}

	mcp.AddTool(srv.Server, tool, t.ListHandler)
	t.logger.Debug().Msg("catalog tool registered")

	return nil
}

func (t *Tool) ListHandler(_ context.Context, _ *mcp.CallToolRequest, _ Input) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder
	builder.WriteString("Available Security Tools:\n")

	var installed []string
	for _, g := range groups {
		fmt.Fprintf(&builder, "\n%s:\n", g.title)
		for _, id := range g.tools {
			def, ok := t.builder.Describe(id)
			if !ok {
				continue
			}
			fmt.Fprintf(&builder, "- %s: %s (MCP tool: %s)\n", def.Program, def.Description, mcpNames[id])
			if _, found := tools.BinaryAvailable(def.Program); found {
				installed = append(installed, def.Program)
			}
		}
	}

	builder.WriteString("\nOther:\n")
	builder.WriteString("- web_full_scan: nikto, dirb and wpscan in parallel against one target\n")
	builder.WriteString("- history: browse recorded tool executions\n")

	if len(installed) == 0 {
		builder.WriteString("\nCurrently installed tools: none\n")
	} else {
		fmt.Fprintf(&builder, "\nCurrently installed tools: %s\n", strings.Join(installed, ", "))
	}

	return tools.TextResult(builder.String()), nil, nil
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger: logger.With().Str("tool", toolName).Logger(),
	}
}
