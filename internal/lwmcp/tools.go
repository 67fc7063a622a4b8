package lwmcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gounthar/lacework-security-scanner-plugin/internal/config"
	"github.com/gounthar/lacework-security-scanner-plugin/internal/pipeline"
	"github.com/gounthar/lacework-security-scanner-plugin/internal/scanner"
)

type Ver struct{}

// EvaluateParams - parameters for evaluating an image with lw-scanner
type EvaluateParams struct {
	Image               string `json:"image" jsonschema:"the image name to evaluate, without the tag"`
	Tag                 string `json:"tag" jsonschema:"the image tag to evaluate"`
	OutputHTMLName      string `json:"outputHtmlName,omitempty" jsonschema:"file name of the HTML report written to the workspace"`
	CustomFlags         string `json:"customFlags,omitempty" jsonschema:"additional lw-scanner flags, split shell-style"`
	FixableOnly         bool   `json:"fixableOnly,omitempty" jsonschema:"only report vulnerabilities that have a fix"`
	NoPull              bool   `json:"noPull,omitempty" jsonschema:"do not pull the image before scanning"`
	EvaluatePolicies    bool   `json:"evaluatePolicies,omitempty" jsonschema:"evaluate Lacework policies"`
	SaveToLacework      bool   `json:"saveToLacework,omitempty" jsonschema:"save the results to Lacework"`
	ScanLibraryPackages bool   `json:"scanLibraryPackages,omitempty" jsonschema:"scan library packages"`
	Tags                string `json:"tags,omitempty" jsonschema:"comma separated tags attached to the scan"`
	BuildID             string `json:"buildId" jsonschema:"build identifier passed to lw-scanner"`
	BuildPlan           string `json:"buildPlan" jsonschema:"build plan (job) name; whitespace is removed"`
	BuildRoot           string `json:"buildRoot" jsonschema:"directory for scratch and report files; must be unique per concurrent scan"`
	Workspace           string `json:"workspace" jsonschema:"directory that receives the final HTML report and laceworkstyles.css"`
}

// Tools holds the tool handlers.
type Tools struct {
	Pipeline *pipeline.Pipeline
	Version  string
}

func (t *Tools) VersionTool(ctx context.Context, req *mcp.CallToolRequest, args Ver) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: t.Version}},
	}, nil, nil
}

// EvaluateImage runs one scan. A non-zero exit code is a tool error result,
// not a protocol error.
func (t *Tools) EvaluateImage(ctx context.Context, req *mcp.CallToolRequest, args EvaluateParams) (*mcp.CallToolResult, any, error) {
	if args.BuildRoot == "" || args.Workspace == "" {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "buildRoot and workspace parameters are required"}},
			IsError: true,
		}, nil, nil
	}

	result := t.Pipeline.Execute(ctx, pipeline.Request{
		Options:   args.scanOptions(),
		BuildRoot: args.BuildRoot,
		Workspace: args.Workspace,
	})

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatResult(args.Image, args.Tag, result)}},
		IsError: result.ExitCode != 0,
	}, nil, nil
}

func (p EvaluateParams) scanOptions() scanner.ScanOptions {
	_, accountOverride := os.LookupEnv(config.EnvAccountName)
	_, tokenOverride := os.LookupEnv(config.EnvAccessToken)

	name := p.OutputHTMLName
	if name == "" {
		name = config.DefaultOutputHTMLName
	}

	return scanner.ScanOptions{
		ImageName:           p.Image,
		ImageTag:            p.Tag,
		CustomFlags:         p.CustomFlags,
		FixableOnly:         p.FixableOnly,
		NoPull:              p.NoPull,
		EvaluatePolicies:    p.EvaluatePolicies,
		SaveToLacework:      p.SaveToLacework,
		ScanLibraryPackages: p.ScanLibraryPackages,
		Tags:                p.Tags,
		OutputHTMLName:      name,
		BuildID:             p.BuildID,
		BuildPlan:           p.BuildPlan,
		AccountNameOverride: accountOverride,
		AccessTokenOverride: tokenOverride,
	}
}

func formatResult(image, tag string, result scanner.ScanResult) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("lw-scanner evaluation finished for image: %s:%s\n", image, tag))
	msg.WriteString(fmt.Sprintf("Exit code: %d\n", result.ExitCode))
	switch {
	case result.ExitCode == -1:
		msg.WriteString("The scan step could not be run; see the server log for details.\n")
	case result.HTMLPath == "":
		msg.WriteString("No HTML report was produced.\n")
	default:
		msg.WriteString(fmt.Sprintf("HTML report: %s\n", result.HTMLPath))
		msg.WriteString(fmt.Sprintf("Stylesheet: %s\n", result.CSSPath))
	}
	return msg.String()
}
