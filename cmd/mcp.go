package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentic-research/splash/api"
)

const configureToolName = "configure_launch_screen"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve launch screen configuration as an MCP tool over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("Serving MCP on stdio")
		return server.ServeStdio(newMCPServer())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func newMCPServer() *server.MCPServer {
	s := server.NewMCPServer("splash", version, server.WithToolCapabilities(false))
	s.AddTool(mcp.NewTool(configureToolName,
		mcp.WithDescription("Write the native launch screen for a project from its app manifest"),
		mcp.WithString("manifest", mcp.Required(), mcp.Description("Path to app.json or app.yaml")),
		mcp.WithString("project", mcp.Required(), mcp.Description("Workspace (project) root")),
		mcp.WithString("context", mcp.Enum(string(api.KindUser), string(api.KindService)),
			mcp.Description("Build context, defaults to user")),
		mcp.WithString("source", mcp.Description("Shared template source tree, required for the service context")),
	), handleConfigure)
	return s
}

func handleConfigure(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	manifestFile, err := req.RequireString("manifest")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind := req.GetString("context", string(api.KindUser))
	source := req.GetString("source", "")

	res, err := configure(ctx, cfg, manifestFile, kind, project, source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "state: %s\n", res.State)
	fmt.Fprintf(&b, "artifact: %s\n", res.Artifact)
	if !res.Customized {
		b.WriteString("customized: false (manifest has no splash section)\n")
	}
	for _, img := range res.Images {
		fmt.Fprintf(&b, "image: %s\n", img)
	}
	return mcp.NewToolResultText(b.String()), nil
}
