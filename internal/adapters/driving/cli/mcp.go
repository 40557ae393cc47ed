package cli

import (
	"github.com/spf13/cobra"

	"github.com/mantis-labs/mantis-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server over stdio. Exposes the
list_connections and create_space tools and the cached spaces as
resources, for use with MCP-compatible assistants.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Dispatcher:   dispatcher,
		Orchestrator: orchestrator,
		Spaces:       spaceStore,
	})
	if err != nil {
		return err
	}
	return server.Run(cmd.Context())
}
