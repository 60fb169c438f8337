package nmap

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"github.com/tb0hdan/secscan-mcp/pkg/executor"
	"github.com/tb0hdan/secscan-mcp/pkg/policy"
	"github.com/tb0hdan/secscan-mcp/pkg/privilege"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/toolstest"
)

type NmapTestSuite struct {
	suite.Suite
	exec *toolstest.Executor
	tool *Tool
}

func (s *NmapTestSuite) SetupTest() {
	s.exec = toolstest.NewExecutor("PORT   STATE SERVICE\n22/tcp open  ssh")
	s.tool = New(zerolog.Nop()).(*Tool)
	s.tool.runner = toolstest.NewRunner(s.exec, 1000)
}

func (s *NmapTestSuite) text(result *mcp.CallToolResult) string {
	s.Require().Len(result.Content, 1)
	content, ok := result.Content[0].(*mcp.TextContent)
	s.Require().True(ok)
	return content.Text
}

func (s *NmapTestSuite) TestDefaults() {
	result, _, err := s.tool.NmapHandler(context.Background(), nil, Input{Target: "192.168.1.1"})
	s.Require().NoError(err)

	s.Equal("✅ Nmap basic scan completed successfully\n\nPORT   STATE SERVICE\n22/tcp open  ssh", s.text(result))
	s.Equal([][]string{{"nmap", "-v", "-sS", "-T4", "-p", "22,23,25,53,80,110,143,443,993,995", "192.168.1.1"}}, s.exec.Commands())
	s.Equal([]time.Duration{60 * time.Second}, s.exec.Timeouts())
}

func (s *NmapTestSuite) TestStealthOptions() {
	_, _, err := s.tool.NmapHandler(context.Background(), nil, Input{
		Target:   "10.0.0.5",
		ScanType: "stealth",
		Ports:    "1-1024",
		Options:  "-Pn  --reason",
	})
	s.Require().NoError(err)

	s.Equal([][]string{{"nmap", "-v", "-sS", "-T2", "-f", "-p", "1-1024", "10.0.0.5", "-Pn", "--reason"}}, s.exec.Commands())
	s.Equal([]time.Duration{180 * time.Second}, s.exec.Timeouts())
}

func (s *NmapTestSuite) TestUDPTimeout() {
	_, _, err := s.tool.NmapHandler(context.Background(), nil, Input{Target: "localhost", ScanType: "udp"})
	s.Require().NoError(err)
	s.Equal([]time.Duration{240 * time.Second}, s.exec.Timeouts())
}

func (s *NmapTestSuite) TestFailureIncludesCommand() {
	s.exec.Result = executor.Result{ExitCode: 1, Stderr: "Failed to resolve"}

	result, _, err := s.tool.NmapHandler(context.Background(), nil, Input{Target: "localhost", Ports: "80"})
	s.Require().NoError(err)

	s.True(result.IsError)
	s.Equal("❌ Nmap scan failed\n\nError: Failed to resolve\n\nCommand: nmap -v -sS -T4 -p 80 localhost", s.text(result))
}

func (s *NmapTestSuite) TestInvalidScanType() {
	_, _, err := s.tool.NmapHandler(context.Background(), nil, Input{Target: "localhost", ScanType: "xmas"})
	s.Require().Error(err)
	s.Contains(err.Error(), "validation error")
	s.Empty(s.exec.Commands())
}

func (s *NmapTestSuite) TestRejectsPublicTarget() {
	_, _, err := s.tool.NmapHandler(context.Background(), nil, Input{Target: "scanme.nmap.org"})
	s.ErrorIs(err, policy.ErrInvalidTarget)
	s.Empty(s.exec.Commands())
}

func (s *NmapTestSuite) TestRejectsInjectedPorts() {
	_, _, err := s.tool.NmapHandler(context.Background(), nil, Input{Target: "localhost", Ports: "80;id"})
	s.ErrorIs(err, policy.ErrInvalidPortSpec)
	s.Empty(s.exec.Commands())
}

func (s *NmapTestSuite) TestRefusesRoot() {
	s.tool.runner = toolstest.NewRunner(s.exec, 0)

	_, _, err := s.tool.NmapHandler(context.Background(), nil, Input{Target: "localhost"})
	s.ErrorIs(err, privilege.ErrPrivileged)
	s.Empty(s.exec.Commands())
}

func TestNmapTestSuite(t *testing.T) {
	suite.Run(t, new(NmapTestSuite))
}
