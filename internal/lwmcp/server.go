package lwmcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/gounthar/lacework-security-scanner-plugin/internal/pipeline"
)

// NewServer creates and configures the MCP server with all tools
func NewServer(version string, log logrus.FieldLogger) *mcp.Server {
	if version == "" {
		version = "dev"
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "lw-scanner-step",
		Version: version,
	}, nil)

	tools := &Tools{
		Pipeline: pipeline.New(log),
		Version:  version,
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "version",
		Description: "Report the lw-scanner-step version",
	}, tools.VersionTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "evaluate-image",
		Description: "Evaluate a container image with lw-scanner and publish a CSP-safe HTML report and stylesheet into the workspace. Credentials are taken from LW_ACCOUNT_NAME and LW_ACCESS_TOKEN in the server environment.",
	}, tools.EvaluateImage)

	return server
}

// Run starts the MCP server on stdio. Logs must not go to stdout.
func Run(ctx context.Context, version string, log logrus.FieldLogger) error {
	server := NewServer(version, log)
	return server.Run(ctx, &mcp.StdioTransport{})
}
