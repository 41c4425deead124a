package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mvp-joe/autodocs/internal/config"
	"github.com/mvp-joe/autodocs/internal/daemon"
	"github.com/mvp-joe/autodocs/internal/docs"
	"github.com/mvp-joe/autodocs/internal/journal"
	"github.com/spf13/cobra"
)

var (
	statusJSON  bool
	statusLimit int
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show watcher state, documented components and recent flushes",
	Long: `Status shows whether a watcher is running for the project, how many
components have auto-generated insights and the most recent flushes recorded
in the journal.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of recent flushes to show")
}

// projectStatus is the report printed by the status command.
type projectStatus struct {
	Root       string          `json:"root"`
	Watching   bool            `json:"watching"`
	WatcherPID int             `json:"watcher_pid,omitempty"`
	Components int             `json:"components"`
	Documented int             `json:"documented_files"`
	Flushes    []journal.Flush `json:"flushes"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	proj, err := openProject(projectDir, cfgFile, false)
	if err != nil {
		return err
	}
	defer proj.Close()

	// Status never creates a journal that does not exist yet.
	var history *journal.Store
	if proj.cfg.Journal.Enabled && journalExists(proj.cfg, proj.root) {
		history, err = journal.Open(proj.cfg.JournalPath(proj.root))
		if err != nil {
			log.Printf("Warning: journal unavailable: %v", err)
		} else {
			defer history.Close()
		}
	}

	st, err := collectStatus(cmd.Context(), proj, history, statusLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	formatStatus(out, st, time.Now())
	return nil
}

// collectStatus gathers the report. history may be nil.
func collectStatus(ctx context.Context, proj *project, history *journal.Store, limit int) (*projectStatus, error) {
	st := &projectStatus{Root: proj.root, Flushes: []journal.Flush{}}

	held, pid, err := daemon.Status(config.LockPath(proj.root))
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	st.Watching = held
	st.WatcherPID = pid

	readmes, err := docs.ScanReadmes(proj.fs, proj.writer.Layout(), proj.filter)
	if err != nil {
		return nil, err
	}
	for _, r := range readmes {
		if r.Documented > 0 {
			st.Components++
			st.Documented += r.Documented
		}
	}

	if history != nil {
		flushes, err := history.RecentFlushes(ctx, limit)
		if err != nil {
			return nil, err
		}
		st.Flushes = flushes
	}
	return st, nil
}

func formatStatus(out io.Writer, st *projectStatus, now time.Time) {
	fmt.Fprintf(out, "Project: %s\n", st.Root)
	if st.Watching {
		watcher := color.New(color.FgGreen).Sprint("running")
		if st.WatcherPID > 0 {
			watcher += fmt.Sprintf(" (pid %d)", st.WatcherPID)
		}
		fmt.Fprintf(out, "Watcher: %s\n", watcher)
	} else {
		fmt.Fprintf(out, "Watcher: %s\n", color.New(color.FgYellow).Sprint("not running"))
	}
	fmt.Fprintf(out, "Components: %s (%s documented files)\n",
		humanize.Comma(int64(st.Components)), humanize.Comma(int64(st.Documented)))
	fmt.Fprintln(out)

	if len(st.Flushes) == 0 {
		fmt.Fprintln(out, "No flushes recorded")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Files", "Failed", "Components", "Duration"})
	for _, f := range st.Flushes {
		failed := fmt.Sprintf("%d", f.FailureCount)
		if f.FailureCount > 0 {
			failed = color.New(color.FgRed).Sprint(failed)
		}
		t.AppendRow(table.Row{
			humanize.RelTime(f.StartedAt, now, "ago", "from now"),
			f.FileCount,
			failed,
			f.Components,
			f.FinishedAt.Sub(f.StartedAt).Round(time.Millisecond),
		})
	}
	t.Render()
}
