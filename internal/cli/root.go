package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	projectDir string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "autodocs",
	Short: "Autodocs - documentation that keeps up with your edits",
	Long: `Autodocs watches a project for saved source files and keeps its
documentation current. Each batch of saves produces:

  - a prompt scaffold per file (docs/prompts/<file>.prompt.md) for an AI
    assistant to write full documentation from
  - an "Auto-Generated Insights" section in each directory's README.md,
    below any hand-written content
  - a project-wide docs/PROGRESS.md listing every documented component

Saves are batched: a flush runs at most once per cooldown window (15s by
default), so bursts of edits are documented together.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <project>/.autodocs/config.yml)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "project root (default is the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
