package cli

import (
	"fmt"
	"os"

	"github.com/mvp-joe/autodocs/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for documentation prompts",
	Long: `Start the Model Context Protocol (MCP) server so that coding assistants
can ask autodocs for documentation prompts and analysis results.

The MCP server provides:
- autodocs_document: the documentation prompt for a file
- autodocs_analyze: the extracted imports, functions and classes of a file
- autodocs_history: recent flushes from the journal (when enabled)

It communicates via stdio (standard MCP transport).

Example:
  autodocs mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	proj, err := openProject(projectDir, cfgFile, true)
	if err != nil {
		return err
	}
	defer proj.Close()

	// stdout carries the protocol; everything else goes to stderr.
	fmt.Fprintf(os.Stderr, "Autodocs MCP Server\n")
	fmt.Fprintf(os.Stderr, "Project: %s\n", proj.root)
	if proj.journal != nil {
		fmt.Fprintf(os.Stderr, "Journal: %s\n", proj.cfg.JournalPath(proj.root))
	}
	fmt.Fprintf(os.Stderr, "\n")

	var history mcp.History
	if proj.journal != nil {
		history = proj.journal
	}
	server := mcp.NewServer(proj.root, Version, proj.newProcessor(), history)

	if err := server.Serve(cmd.Context()); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
