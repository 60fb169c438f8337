package disclaimer

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/tb0hdan/secscan-mcp/pkg/server"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
)

const toolName = "show_security_disclaimer"

// Text is returned verbatim by the tool.
const Text = `⚠️  SECURITY TESTING DISCLAIMER ⚠️

This tool is for authorized security testing ONLY:

1. Only test systems you own or have explicit permission to test
2. Only target private networks (192.168.x.x, 10.x.x.x, 172.x.x.x, localhost)
3. This tool runs with restricted permissions for safety
4. Always follow responsible disclosure practices
5. Respect privacy and applicable laws

Educational Use Only:
- This MCP server is designed for learning cybersecurity concepts
- Practice in isolated lab environments
- Understand ethical hacking principles

⚖️ Legal Notice:
Unauthorized penetration testing is illegal.
Always obtain proper authorization before testing.
`

type Input struct{}

type Tool struct {
	logger zerolog.Logger
}

func (t *Tool) Register(srv *server.Server) error {
	tool := &mcp.Tool{
		Name:        toolName,
		Description: "Display the security and legal disclaimer.",
	}

	mcp.AddTool(srv.Server, tool, t.DisclaimerHandler)
	t.logger.Debug().Msg("disclaimer tool registered")

	return nil
}

func (t *Tool) DisclaimerHandler(_ context.Context, _ *mcp.CallToolRequest, _ Input) (*mcp.CallToolResult, any, error) {
	return tools.TextResult(Text), nil, nil
}

func New(logger zerolog.Logger) tools.Tool {
	return &Tool{
		logger: logger.With().Str("tool", toolName).Logger(),
	}
}
