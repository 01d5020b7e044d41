package cmd

import (
	"github.com/huangsam/srcmeasure/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the srcmeasure MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents walk and measure definitions via standard tools.`,
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Progress logs go to stderr so stdout stays reserved for the protocol.
		return sharedSetup(cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
