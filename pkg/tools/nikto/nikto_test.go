package nikto

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"github.com/tb0hdan/secscan-mcp/pkg/executor"
	"github.com/tb0hdan/secscan-mcp/pkg/policy"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/toolstest"
)

type NiktoTestSuite struct {
	suite.Suite
	exec *toolstest.Executor
	tool *Tool
}

func (s *NiktoTestSuite) SetupTest() {
	s.exec = toolstest.NewExecutor("- Nikto v2.5.0\n\n+ Target IP: 10.0.0.2\n\n+ Server: Apache\n")
	s.tool = New(zerolog.Nop()).(*Tool)
	s.tool.runner = toolstest.NewRunner(s.exec, 1000)
}

func (s *NiktoTestSuite) text(result *mcp.CallToolResult) string {
	s.Require().Len(result.Content, 1)
	content, ok := result.Content[0].(*mcp.TextContent)
	s.Require().True(ok)
	return content.Text
}

func (s *NiktoTestSuite) TestHandler() {
	result, _, err := s.tool.NiktoHandler(context.Background(), nil, Input{Target: "10.0.0.2"})
	s.Require().NoError(err)

	s.Equal("✅ Nikto scan completed for http://10.0.0.2:80\n\n- Nikto v2.5.0\n+ Target IP: 10.0.0.2\n+ Server: Apache", s.text(result))
	s.Equal([][]string{{"nikto", "-h", "http://10.0.0.2:80", "-Format", "txt"}}, s.exec.Commands())
	s.Equal([]time.Duration{300 * time.Second}, s.exec.Timeouts())
}

func (s *NiktoTestSuite) TestHandlerSSL() {
	result, _, err := s.tool.NiktoHandler(context.Background(), nil, Input{Target: " localhost ", Port: 8443, SSL: true})
	s.Require().NoError(err)

	s.Contains(s.text(result), "✅ Nikto scan completed for https://localhost:8443")
	s.Equal([][]string{{"nikto", "-h", "https://localhost:8443", "-Format", "txt"}}, s.exec.Commands())
}

func (s *NiktoTestSuite) TestHandlerFailure() {
	s.exec.Result = executor.Result{ExitCode: 1, Stderr: "+ ERROR: Host maximum execution time reached"}

	result, _, err := s.tool.NiktoHandler(context.Background(), nil, Input{Target: "10.0.0.2"})
	s.Require().NoError(err)
	s.True(result.IsError)
	s.Contains(s.text(result), "❌ Nikto scan failed\n\nError: + ERROR: Host maximum execution time reached")
}

func (s *NiktoTestSuite) TestHandlerInvalidPort() {
	_, _, err := s.tool.NiktoHandler(context.Background(), nil, Input{Target: "10.0.0.2", Port: 70000})
	s.Require().Error(err)
	s.Empty(s.exec.Commands())
}

func (s *NiktoTestSuite) TestHandlerInvalidTarget() {
	_, _, err := s.tool.NiktoHandler(context.Background(), nil, Input{Target: "example.com"})
	s.ErrorIs(err, policy.ErrInvalidTarget)
}

func (s *NiktoTestSuite) TestScan() {
	result := s.tool.Scan(context.Background(), s.tool.runner, tools.ScanParams{Target: "10.0.0.2", Port: 8080})

	s.NoError(result.Error)
	s.Equal("- Nikto v2.5.0\n+ Target IP: 10.0.0.2\n+ Server: Apache", result.Output)
	s.Equal("nikto -h http://10.0.0.2:8080 -Format txt", result.Command)
}

func (s *NiktoTestSuite) TestScanFailure() {
	s.exec.Result = executor.Result{ExitCode: -1, TimedOut: true, Stderr: "Command timed out after 300 seconds"}

	result := s.tool.Scan(context.Background(), s.tool.runner, tools.ScanParams{Target: "10.0.0.2"})
	s.EqualError(result.Error, "exit code -1: Command timed out after 300 seconds")
}

func (s *NiktoTestSuite) TestScanRejected() {
	result := s.tool.Scan(context.Background(), s.tool.runner, tools.ScanParams{Target: "1.1.1.1"})
	s.ErrorIs(result.Error, policy.ErrInvalidTarget)
	s.Empty(s.exec.Commands())
}

func (s *NiktoTestSuite) TestName() {
	s.Equal("nikto", s.tool.Name())
}

func TestNiktoTestSuite(t *testing.T) {
	suite.Run(t, new(NiktoTestSuite))
}
