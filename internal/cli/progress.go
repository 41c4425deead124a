package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/mvp-joe/autodocs/internal/processor"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter implements processor.ProgressReporter with a progress bar.
type CLIProgressReporter struct {
	out      io.Writer
	quiet    bool
	fileBar  *progressbar.ProgressBar
	failures []string
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{out: out, quiet: quiet}
}

func (c *CLIProgressReporter) OnFlushStart(totalFiles int) {
	if c.quiet {
		return
	}
	c.failures = nil
	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Documenting files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(path string, err error) {
	if err != nil {
		c.failures = append(c.failures, fmt.Sprintf("%s: %v", path, err))
	}
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnFlushComplete(res *processor.FlushResult) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}

	fmt.Fprintln(c.out)
	documented := len(res.Files) - res.Failed()
	color.New(color.FgGreen).Fprintf(c.out, "✓ Documented %d of %d files in %.1fs\n",
		documented, len(res.Files), res.Duration().Seconds())
	fmt.Fprintf(c.out, "  Components: %d\n", res.Components)

	if len(c.failures) > 0 {
		color.New(color.FgRed).Fprintf(c.out, "✗ %d files failed:\n", len(c.failures))
		for _, f := range c.failures {
			color.New(color.FgRed).Fprintf(c.out, "  - %s\n", f)
		}
	}
	if res.ProgressErr != nil {
		color.New(color.FgYellow).Fprintf(c.out, "! Progress tracker not updated: %v\n", res.ProgressErr)
	}
}
