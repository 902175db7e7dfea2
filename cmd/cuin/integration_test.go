package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// binaryPath is set by TestMain after building the binary.
var binaryPath string

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	tmp, err := os.MkdirTemp("", "cuin-integration-*")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmp, "cuin")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		os.RemoveAll(tmp)
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

func skipIfNotIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run integration tests")
	}
}

// startMCP launches `cuin mcp` on project and returns an initialized client.
func startMCP(t *testing.T, project string, extraArgs ...string) *client.Client {
	t.Helper()

	args := append([]string{"mcp", "--path", project}, extraArgs...)
	c, err := client.NewStdioMCPClient(binaryPath, nil, args...)
	require.NoError(t, err, "failed to start MCP server")
	t.Cleanup(func() { c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "cuin-integration-test", Version: "1.0.0"}

	result, err := c.Initialize(ctx, initReq)
	require.NoError(t, err, "failed to initialize MCP session")
	assert.Equal(t, "cuin", result.ServerInfo.Name)
	return c
}

func callMCP(t *testing.T, c *client.Client, tool string, args map[string]any) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	if args != nil {
		req.Params.Arguments = args
	}
	result, err := c.CallTool(ctx, req)
	require.NoError(t, err, "CallTool(%s) failed", tool)
	require.False(t, result.IsError, "tool %s returned an error", tool)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return text.Text
}

func TestIntegration_ListTools(t *testing.T) {
	skipIfNotIntegration(t)
	c := startMCP(t, newProject(t))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"analyze_project", "list_components", "get_component_usage"}, names)
}

func TestIntegration_AnalyzeAndQuery(t *testing.T) {
	skipIfNotIntegration(t)
	project := newProject(t)
	logPath := filepath.Join(t.TempDir(), "calls.jsonl")
	c := startMCP(t, project, "--log-file", logPath)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(callMCP(t, c, "analyze_project", nil)), &summary))
	assert.EqualValues(t, 3, summary["components"])
	assert.EqualValues(t, 4, summary["usages"])

	var comps []map[string]any
	require.NoError(t, json.Unmarshal([]byte(callMCP(t, c, "list_components", map[string]any{"type": "internal"})), &comps))
	require.Len(t, comps, 1)
	assert.Equal(t, "Button", comps[0]["name"])

	var usage map[string]any
	require.NoError(t, json.Unmarshal([]byte(callMCP(t, c, "get_component_usage", map[string]any{"component": "Button"})), &usage))
	assert.EqualValues(t, 2, usage["total_usages"])

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		return err == nil && len(data) > 0
	}, 2*time.Second, 50*time.Millisecond)
}

func TestIntegration_AnalyzeExitCode(t *testing.T) {
	skipIfNotIntegration(t)

	cmd := exec.Command(binaryPath, "analyze", "--path", filepath.Join(t.TempDir(), "missing"))
	err := cmd.Run()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
}
