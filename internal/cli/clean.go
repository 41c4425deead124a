package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mvp-joe/autodocs/internal/config"
	"github.com/spf13/cobra"
)

var cleanQuietFlag bool
var cleanJournalFlag bool

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated prompts and the progress tracker",
	Long: `Clean removes the generated prompt scaffolds and PROGRESS.md so the next
flush starts from scratch.

README files are never touched because they hold hand-written content; the
auto-generated insight sections in them are rewritten on the next flush.
The configuration file (.autodocs/config.yml) is preserved.

Examples:
  # Remove prompts and PROGRESS.md
  autodocs clean

  # Also delete the flush journal
  autodocs clean --journal
`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanQuietFlag, "quiet", "q", false, "Suppress output messages")
	cleanCmd.Flags().BoolVar(&cleanJournalFlag, "journal", false, "Also delete the flush journal")
}

func runClean(cmd *cobra.Command, args []string) error {
	proj, err := openProject(projectDir, cfgFile, false)
	if err != nil {
		return err
	}
	defer proj.Close()

	return executeClean(cmd.OutOrStdout(), proj, cleanJournalFlag, cleanQuietFlag)
}

func executeClean(out io.Writer, proj *project, withJournal, quiet bool) error {
	layout := proj.writer.Layout()
	if err := proj.writer.RemoveGenerated(); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(out, "✓ Removed %s and %s\n", relOrAbs(proj.root, layout.PromptsDir), relOrAbs(proj.root, layout.ProgressPath))
	}

	if !withJournal {
		return nil
	}

	journalPath := proj.cfg.JournalPath(proj.root)
	info, err := os.Stat(journalPath)
	if os.IsNotExist(err) {
		if !quiet {
			fmt.Fprintln(out, "No journal found for this project")
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to access journal: %w", err)
	}

	// SQLite may leave WAL side files next to the database.
	for _, p := range []string{journalPath, journalPath + "-wal", journalPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove journal: %w", err)
		}
	}
	if !quiet {
		fmt.Fprintf(out, "✓ Removed journal %s (%s)\n", relOrAbs(proj.root, journalPath), humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// journalExists reports whether the project has a journal database on disk.
func journalExists(cfg *config.Config, root string) bool {
	_, err := os.Stat(cfg.JournalPath(root))
	return err == nil
}
