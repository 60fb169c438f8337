package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tb0hdan/secscan-mcp/pkg/command"
	"github.com/tb0hdan/secscan-mcp/pkg/policy"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
)

func withInstalled(t *testing.T, programs ...string) {
	t.Helper()

	original := tools.LookPath
	t.Cleanup(func() { tools.LookPath = original })

	tools.LookPath = func(file string) (string, error) {
		for _, p := range programs {
			if p == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", errors.New("not found")
	}
}

func list(t *testing.T) string {
	t.Helper()

	tool := New(zerolog.Nop()).(*Tool)
	tool.builder = command.NewBuilder(policy.Default())

	result, _, err := tool.ListHandler(context.Background(), nil, Input{})
	require.NoError(t, err)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestListHandler(t *testing.T) {
	withInstalled(t, "nmap", "hydra")

	text := list(t)

	assert.Contains(t, text, "Network Scanning:\n- nmap: Network mapper and port scanner (MCP tool: nmap_scan)")
	assert.Contains(t, text, "Web Application Testing:")
	assert.Contains(t, text, "(MCP tool: searchsploit_search)")
	assert.Contains(t, text, "Currently installed tools: nmap, hydra")
}

func TestListHandler_NothingInstalled(t *testing.T) {
	withInstalled(t)

	assert.Contains(t, list(t), "Currently installed tools: none")
}

func TestGroupsCoverEveryTool(t *testing.T) {
	var listed []string
	for _, g := range groups {
		listed = append(listed, g.tools...)
	}

	assert.ElementsMatch(t, command.NewBuilder(policy.Default()).Tools(), listed)
	for _, id := range listed {
		assert.NotEmpty(t, mcpNames[id], id)
	}
}
