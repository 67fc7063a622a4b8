package lwmcp

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gounthar/lacework-security-scanner-plugin/internal/config"
	"github.com/gounthar/lacework-security-scanner-plugin/internal/pipeline"
	"github.com/gounthar/lacework-security-scanner-plugin/internal/scanner"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, argv scanner.Argv, dir string, out io.Writer) (int, error) {
	args := m.Called(ctx, argv, dir, out)
	return args.Int(0), args.Error(1)
}

func newTools(runner scanner.Runner) *Tools {
	log, _ := test.NewNullLogger()
	return &Tools{
		Pipeline: &pipeline.Pipeline{Runner: runner, Log: log},
		Version:  "v0.0.1-test",
	}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestNewServer(t *testing.T) {
	log, _ := test.NewNullLogger()
	assert.NotNil(t, NewServer("", log))
}

func TestVersionTool(t *testing.T) {
	res, _, err := newTools(new(MockRunner)).VersionTool(context.Background(), nil, Ver{})
	require.NoError(t, err)
	assert.Equal(t, "v0.0.1-test", text(t, res))
}

func TestEvaluateImage_RequiresDirectories(t *testing.T) {
	runner := new(MockRunner)

	res, _, err := newTools(runner).EvaluateImage(context.Background(), nil, EvaluateParams{Image: "alpine", Tag: "3.19"})

	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "buildRoot and workspace")
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluateImage_PublishesReport(t *testing.T) {
	buildRoot, workspace := t.TempDir(), t.TempDir()
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything, buildRoot, mock.Anything).
		Run(func(args mock.Arguments) {
			html := filepath.Join(buildRoot, config.DefaultOutputHTMLName)
			require.NoError(t, os.WriteFile(html, []byte("<!DOCTYPE html><html><head><style>a{}</style></head></html>"), 0o644))
		}).
		Return(0, nil)

	res, _, err := newTools(runner).EvaluateImage(context.Background(), nil, EvaluateParams{
		Image:     "alpine",
		Tag:       "3.19",
		BuildID:   "1",
		BuildPlan: "mcp run",
		BuildRoot: buildRoot,
		Workspace: workspace,
	})

	require.NoError(t, err)
	assert.False(t, res.IsError)
	out := text(t, res)
	assert.Contains(t, out, "Exit code: 0")
	assert.Contains(t, out, filepath.Join(workspace, config.DefaultOutputHTMLName))
	assert.FileExists(t, filepath.Join(workspace, scanner.StylesheetName))
}

func TestEvaluateImage_ScannerFailureIsToolError(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(4, nil)

	res, _, err := newTools(runner).EvaluateImage(context.Background(), nil, EvaluateParams{
		Image:     "alpine",
		Tag:       "3.19",
		BuildRoot: t.TempDir(),
		Workspace: t.TempDir(),
	})

	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "Exit code: 4")
	assert.Contains(t, text(t, res), "No HTML report was produced.")
}

func TestEvaluateParams_ScanOptions(t *testing.T) {
	t.Setenv(config.EnvAccountName, "env-account")
	t.Setenv(config.EnvAccessToken, "")
	require.NoError(t, os.Unsetenv(config.EnvAccessToken))

	opts := EvaluateParams{Image: "alpine", Tag: "1", NoPull: true, OutputHTMLName: "r.html"}.scanOptions()

	assert.True(t, opts.AccountNameOverride)
	assert.False(t, opts.AccessTokenOverride)
	assert.True(t, opts.NoPull)
	assert.Equal(t, "r.html", opts.OutputHTMLName)
}

func TestFormatResult(t *testing.T) {
	assert.Contains(t, formatResult("alpine", "1", scanner.ScanResult{ExitCode: -1}), "could not be run")
	assert.Contains(t, formatResult("alpine", "1", scanner.ScanResult{ExitCode: 0, HTMLPath: "/w/r.html", CSSPath: "/w/s.css"}), "Stylesheet: /w/s.css")
}
