package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	echomcp "github.com/gorewood/echopost/internal/mcp"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run echopost as a Model Context Protocol (MCP) server over stdio.

This exposes drafts, images and publishing as MCP tools, working on the same
drafts as the CLI.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "echopost": {
        "command": "echopost",
        "args": ["serve"]
      }
    }
  }

Available tools: draft_list, draft_show, draft_new, draft_use, draft_delete,
compose_get, compose_set_text, attach_reorder, attach_remove, publish,
publish_status, cancel`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				server := echomcp.NewServer(buildVersion(), a.loop, a.sess)
				a.log.Info().Str("server", a.cfg.Server).Msg("mcp server listening on stdio")
				return server.Run(cmd.Context(), &mcp.StdioTransport{})
			})
		},
	}
}
