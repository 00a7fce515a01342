package cmd

import (
	"os"

	"github.com/huangsam/liftwatch/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the liftwatch MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents list jobs and periods
and preview chart tables. The server never publishes charts.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		runner, err := newRunner(false)
		if err != nil {
			return err
		}
		// stdout carries the protocol
		runner.Out = os.Stderr
		return mcp.StartMCPServer(rootCtx, cfg, runner, version)
	},
}
