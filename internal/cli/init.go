package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/autodocs/internal/config"
	"github.com/spf13/cobra"
)

var initForceFlag bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up autodocs for a project",
	Long: `Init writes a default configuration to .autodocs/config.yml, creates the
documentation directories and seeds an empty progress tracker.

An existing configuration is kept unless --force is given.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(projectDir)
	if err != nil {
		return err
	}
	return executeInit(cmd.OutOrStdout(), root, initForceFlag)
}

func executeInit(out io.Writer, root string, force bool) error {
	configPath := filepath.Join(root, config.Dir, "config.yml")

	_, statErr := os.Stat(configPath)
	exists := statErr == nil
	if !exists || force {
		if err := config.WriteFile(configPath, config.Default(), force); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote %s\n", relOrAbs(root, configPath))
	} else {
		fmt.Fprintf(out, "Config %s already exists (use --force to overwrite)\n", relOrAbs(root, configPath))
	}

	proj, err := openProject(root, "", false)
	if err != nil {
		return err
	}
	defer proj.Close()

	if err := proj.writer.EnsureLayout(); err != nil {
		return err
	}
	seeded, err := proj.writer.SeedProgress(time.Now())
	if err != nil {
		return err
	}

	layout := proj.writer.Layout()
	fmt.Fprintf(out, "✓ Documentation directory: %s\n", relOrAbs(root, layout.DocsDir))
	if seeded {
		fmt.Fprintf(out, "✓ Created %s\n", relOrAbs(root, layout.ProgressPath))
	}
	fmt.Fprintln(out, "Run 'autodocs watch' to document files as you save them")
	return nil
}

// relOrAbs returns path relative to root when it lies inside it.
func relOrAbs(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
