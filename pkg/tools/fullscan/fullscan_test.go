package fullscan

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"github.com/tb0hdan/secscan-mcp/pkg/executor"
	"github.com/tb0hdan/secscan-mcp/pkg/policy"
	"github.com/tb0hdan/secscan-mcp/pkg/privilege"
	"github.com/tb0hdan/secscan-mcp/pkg/scan"
	"github.com/tb0hdan/secscan-mcp/pkg/server"
	"github.com/tb0hdan/secscan-mcp/pkg/storage"
	"github.com/tb0hdan/secscan-mcp/pkg/tools"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/dirb"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/nikto"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/toolstest"
	"github.com/tb0hdan/secscan-mcp/pkg/tools/wpscan"
)

// mockScanner is a mock implementation of tools.Scanner for testing.
type mockScanner struct {
	name       string
	available  bool
	scanOutput string
	scanError  error
	scanDelay  time.Duration
	scanCalled bool
	scanParams tools.ScanParams
}

func (m *mockScanner) Name() string {
	return m.name
}

func (m *mockScanner) IsAvailable() bool {
	return m.available
}

func (m *mockScanner) Scan(_ context.Context, _ *scan.Runner, params tools.ScanParams) tools.ScanResult {
	m.scanCalled = true
	m.scanParams = params

	if m.scanDelay > 0 {
		time.Sleep(m.scanDelay)
	}

	return tools.ScanResult{
		Output:  m.scanOutput,
		Command: m.name + " " + params.Target,
		Error:   m.scanError,
	}
}

func (m *mockScanner) Register(_ *server.Server) error {
	if !m.available {
		return errors.New("scanner not available")
	}
	return nil
}

type FullScanTestSuite struct {
	suite.Suite
	logger zerolog.Logger
	exec   *toolstest.Executor
	runner *scan.Runner
}

func (s *FullScanTestSuite) SetupTest() {
	s.logger = zerolog.Nop()
	s.exec = toolstest.NewExecutor("")
	s.runner = toolstest.NewRunner(s.exec, 1000)
}

func (s *FullScanTestSuite) newTool(scanners ...tools.Scanner) *Tool {
	tool := New(s.logger, scanners...).(*Tool)
	tool.runner = s.runner
	tool.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return tool
}

func (s *FullScanTestSuite) text(result *mcp.CallToolResult) string {
	s.Require().Len(result.Content, 1)
	content, ok := result.Content[0].(*mcp.TextContent)
	s.Require().True(ok)
	return content.Text
}

func (s *FullScanTestSuite) setupTestServer() *server.Server {
	store, err := storage.NewSQLiteStorage(storage.Config{
		DatabasePath: filepath.Join(s.T().TempDir(), "fullscan.db"),
	})
	s.Require().NoError(err)

	srv := server.NewServer(&mcp.Implementation{Name: "test-server", Version: "1.0.0"}, store, s.runner)
	s.T().Cleanup(func() { srv.Shutdown(context.Background()) })

	return srv
}

func (s *FullScanTestSuite) TestRunScannersParallel_KeepsOrder() {
	scanner1 := &mockScanner{name: "mock1", available: true, scanOutput: "output1", scanDelay: 30 * time.Millisecond}
	scanner2 := &mockScanner{name: "mock2", available: true, scanOutput: "output2"}
	tool := s.newTool(scanner1, scanner2)

	results := tool.runScannersParallel(context.Background(), tools.ScanParams{Target: "10.0.0.1", Port: 8080, SSL: true})

	s.Require().Len(results, 2)
	s.Equal("mock1", results[0].Name)
	s.Equal("output1", results[0].Output)
	s.Equal("mock2", results[1].Name)
	s.Equal(tools.ScanParams{Target: "10.0.0.1", Port: 8080, SSL: true}, scanner1.scanParams)
	s.True(scanner2.scanCalled)
}

func (s *FullScanTestSuite) TestRunScannersParallel_Concurrent() {
	scanner1 := &mockScanner{name: "mock1", available: true, scanDelay: 50 * time.Millisecond}
	scanner2 := &mockScanner{name: "mock2", available: true, scanDelay: 50 * time.Millisecond}
	tool := s.newTool(scanner1, scanner2)

	start := time.Now()
	results := tool.runScannersParallel(context.Background(), tools.ScanParams{Target: "localhost"})

	s.Len(results, 2)
	s.Less(time.Since(start), 95*time.Millisecond)
}

func (s *FullScanTestSuite) TestMergeResults() {
	tool := s.newTool()

	report := tool.mergeResults("http://10.0.0.1:80", []scannerResult{
		{Name: "nikto", Output: "  + Server: nginx  ", Command: "nikto -h http://10.0.0.1:80 -Format txt", Duration: 2 * time.Second},
		{Name: "dirb", Output: "partial", Error: errors.New("exit code 255: FATAL"), Duration: 3 * time.Second},
	})

	s.Contains(report, "WEB SECURITY SCAN REPORT")
	s.Contains(report, "Target: http://10.0.0.1:80")
	s.Contains(report, "Date: Fri, 02 Jan 2026 03:04:05 UTC")
	s.Contains(report, "  nikto     : SUCCESS (2.00s)")
	s.Contains(report, "  dirb      : FAILED (3.00s)")
	s.Contains(report, "Total scanners: 2 | Successful: 1 | Failed: 1")
	s.Contains(report, "Total scan time: 3.00s")
	s.Contains(report, "NIKTO RESULTS")
	s.Contains(report, "Command: nikto -h http://10.0.0.1:80 -Format txt\n\n+ Server: nginx\n")
	s.Contains(report, "ERROR: exit code 255: FATAL\n\nOutput:\npartial\n")
	s.True(strings.HasSuffix(report, "END OF REPORT\n"+strings.Repeat("=", reportLineWidth+1)+"\n"))
}

func (s *FullScanTestSuite) TestRegister_NoScannersAvailable() {
	tool := New(s.logger, &mockScanner{name: "mock1"}, &mockScanner{name: "mock2"}).(*Tool)

	err := tool.Register(s.setupTestServer())
	s.Require().Error(err)
	s.Contains(err.Error(), "no scanner binaries available")
}

func (s *FullScanTestSuite) TestRegister_SomeScannersAvailable() {
	tool := New(s.logger,
		&mockScanner{name: "mock1", available: true},
		&mockScanner{name: "mock2"},
		&mockScanner{name: "mock3", available: true},
	).(*Tool)

	srv := s.setupTestServer()
	s.Require().NoError(tool.Register(srv))
	s.Len(tool.scanners, 2)
	s.Same(srv.Runner(), tool.runner)
}

func (s *FullScanTestSuite) TestHandler_ValidationError() {
	tool := s.newTool(&mockScanner{name: "mock1", available: true})

	_, _, err := tool.FullScanHandler(context.Background(), nil, Input{Target: "localhost", Port: -1})
	s.Require().Error(err)
	s.Contains(err.Error(), "validation error")
}

func (s *FullScanTestSuite) TestHandler_RejectedTarget() {
	scanner := &mockScanner{name: "mock1", available: true}
	tool := s.newTool(scanner)

	_, _, err := tool.FullScanHandler(context.Background(), nil, Input{Target: "93.184.216.34"})
	s.ErrorIs(err, policy.ErrInvalidTarget)
	s.False(scanner.scanCalled)
}

func (s *FullScanTestSuite) TestHandler_RefusesRoot() {
	scanner := &mockScanner{name: "mock1", available: true}
	tool := s.newTool(scanner)
	tool.runner = toolstest.NewRunner(s.exec, 0)

	_, _, err := tool.FullScanHandler(context.Background(), nil, Input{Target: "localhost"})
	s.ErrorIs(err, privilege.ErrPrivileged)
	s.False(scanner.scanCalled)
}

func (s *FullScanTestSuite) TestHandler_Success() {
	scanner1 := &mockScanner{name: "scanner1", available: true, scanOutput: "findings from scanner1"}
	scanner2 := &mockScanner{name: "scanner2", available: true, scanOutput: "findings from scanner2"}
	tool := s.newTool(scanner1, scanner2)

	result, _, err := tool.FullScanHandler(context.Background(), nil, Input{Target: " 192.168.1.1 ", Port: 8080})
	s.Require().NoError(err)
	s.False(result.IsError)

	text := s.text(result)
	s.Contains(text, "Target: http://192.168.1.1:8080")
	s.Contains(text, "findings from scanner1")
	s.Contains(text, "findings from scanner2")
	s.Equal("192.168.1.1", scanner1.scanParams.Target)
}

func (s *FullScanTestSuite) TestHandler_AllFailed() {
	scanner := &mockScanner{name: "mock1", available: true, scanError: errors.New("scan failed")}
	tool := s.newTool(scanner)

	result, _, err := tool.FullScanHandler(context.Background(), nil, Input{Target: "localhost"})
	s.Require().NoError(err)
	s.True(result.IsError)
	s.Contains(s.text(result), "FAILED")
	s.Contains(s.text(result), "scan failed")
}

func (s *FullScanTestSuite) TestHandler_Pagination() {
	scanner := &mockScanner{name: "mock1", available: true, scanOutput: strings.Repeat("line\n", 1000)}
	tool := s.newTool(scanner)

	result, _, err := tool.FullScanHandler(context.Background(), nil, Input{Target: "localhost", MaxLines: 50, Offset: 10})
	s.Require().NoError(err)
	s.Contains(s.text(result), "[Showing lines 11-60 of")
}

func (s *FullScanTestSuite) TestHandler_RealScanners() {
	s.exec.ByProgram["nikto"] = executor.Result{Succeeded: true, Stdout: "+ Server: Apache\n\n"}
	s.exec.ByProgram["dirb"] = executor.Result{Succeeded: true, Stdout: "+ http://10.0.0.9:80/admin (CODE:301)"}
	s.exec.ByProgram["wpscan"] = executor.Result{ExitCode: 4, Stderr: "not running WordPress"}

	tool := s.newTool(nikto.New(s.logger), dirb.New(s.logger), wpscan.New(s.logger))

	result, _, err := tool.FullScanHandler(context.Background(), nil, Input{Target: "10.0.0.9"})
	s.Require().NoError(err)

	text := s.text(result)
	s.Contains(text, "Total scanners: 3 | Successful: 2 | Failed: 1")
	s.Contains(text, "+ Server: Apache")
	s.Contains(text, "ERROR: exit code 4: not running WordPress")
	s.Contains(text, "Command: wpscan --url http://10.0.0.9:80 --no-banner")
	s.ElementsMatch([][]string{
		{"nikto", "-h", "http://10.0.0.9:80", "-Format", "txt"},
		{"dirb", "http://10.0.0.9:80"},
		{"wpscan", "--url", "http://10.0.0.9:80", "--no-banner"},
	}, s.exec.Commands())
}

func TestFullScanTestSuite(t *testing.T) {
	suite.Run(t, new(FullScanTestSuite))
}
