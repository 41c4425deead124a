package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"github.com/mvp-joe/autodocs/internal/processor"
	"github.com/mvp-joe/autodocs/internal/scheduler"
	"github.com/mvp-joe/autodocs/internal/tracker"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var generateQuietFlag bool

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [paths...]",
	Short: "Document files once, without watching",
	Long: `Generate documents every supported file in the project as one batch, or
only the given files and directories. It ignores the cooldown and exits when
the batch is done.

Examples:
  # Document the whole project
  autodocs generate

  # Document one directory and one file
  autodocs generate src/components lib/util.ts
`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVarP(&generateQuietFlag, "quiet", "q", false, "Suppress progress output")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	proj, err := openProject(projectDir, cfgFile, true)
	if err != nil {
		return err
	}
	defer proj.Close()

	res, err := executeGenerate(cmd.Context(), cmd.OutOrStdout(), proj, args, generateQuietFlag)
	if err != nil {
		return err
	}
	if res != nil && res.Failed() > 0 {
		return fmt.Errorf("%d of %d files could not be documented", res.Failed(), len(res.Files))
	}
	return nil
}

// executeGenerate discovers files and flushes them as one batch.
func executeGenerate(ctx context.Context, out io.Writer, proj *project, args []string, quiet bool) (*processor.FlushResult, error) {
	paths, err := discoverFiles(proj, args)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		if !quiet {
			fmt.Fprintln(out, "No supported files found")
		}
		return nil, nil
	}
	if !quiet {
		log.Printf("Discovered %d files", len(paths))
	}

	session := tracker.NewSession(proj.filter)
	now := time.Now()
	for _, p := range paths {
		session.RecordChange(p, now)
	}

	reporter := NewCLIProgressReporter(out, quiet)
	sched := scheduler.New(session, proj.newProcessor(processor.WithProgressReporter(reporter)),
		scheduler.WithInitializer(proj.writer),
	)
	if err := sched.Start(ctx); err != nil {
		return nil, err
	}
	defer sched.Stop()

	return sched.FlushNow()
}

// discoverFiles returns the accepted files under args (or the whole project).
// Explicit file arguments bypass the directory walk but not the filter.
func discoverFiles(proj *project, args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{proj.root}
	}

	var paths []string
	for _, arg := range args {
		abs, err := proj.resolveFile(arg)
		if err != nil {
			return nil, err
		}
		info, err := proj.fs.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", arg, err)
		}

		if !info.IsDir() {
			if proj.filter.Accept(abs) {
				paths = append(paths, abs)
			} else if verbose {
				log.Printf("Skipping %s: unsupported or excluded", arg)
			}
			continue
		}

		err = afero.Walk(proj.fs, abs, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				if path == abs {
					return err
				}
				log.Printf("Warning: error accessing %s: %v", path, err)
				return nil
			}
			if info.IsDir() {
				if proj.filter.SkipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if info.Mode().IsRegular() && proj.filter.Accept(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}
	return paths, nil
}
