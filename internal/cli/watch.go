package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvp-joe/autodocs/internal/config"
	"github.com/mvp-joe/autodocs/internal/daemon"
	"github.com/mvp-joe/autodocs/internal/processor"
	"github.com/mvp-joe/autodocs/internal/scheduler"
	"github.com/mvp-joe/autodocs/internal/tracker"
	"github.com/mvp-joe/autodocs/internal/watcher"
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the project and document saved files",
	Long: `Watch monitors the project for saved source files and documents them in
batches. A flush starts once the cooldown (watch.cooldown_ms) has passed since
the previous one; saves that arrive during a flush are kept for the next.

Only one watcher may run per project. Stop with Ctrl+C: the watcher stops
accepting saves and waits for a running flush to finish.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	proj, err := openProject(projectDir, cfgFile, true)
	if err != nil {
		return err
	}
	defer proj.Close()

	lock := daemon.NewProjectLock(config.LockPath(proj.root))
	if err := lock.Acquire(); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			_, pid, _ := daemon.Status(lock.Path())
			if pid > 0 {
				return fmt.Errorf("%w (pid %d)", err, pid)
			}
		}
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Printf("Warning: failed to release lock: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return executeWatch(ctx, proj)
}

// executeWatch runs the scheduler and watcher until ctx is cancelled.
func executeWatch(ctx context.Context, proj *project) error {
	sched := scheduler.New(
		tracker.NewSession(proj.filter),
		proj.newProcessor(),
		scheduler.WithCooldown(proj.cfg.Cooldown()),
		scheduler.WithInitializer(proj.writer),
		scheduler.WithFlushHook(func(res *processor.FlushResult) {
			if res.Failed() > 0 {
				log.Printf("Warning: %d of %d files could not be documented", res.Failed(), len(res.Files))
			}
		}),
	)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	fw, err := watcher.NewFileWatcher(proj.root, proj.filter)
	if err != nil {
		sched.Stop()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Start(ctx, sched.OnSave); err != nil {
		sched.Stop()
		fw.Stop()
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	log.Printf("Watching %s (%d directories, cooldown %s)", proj.root, len(fw.WatchedDirs()), proj.cfg.Cooldown())

	<-ctx.Done()
	log.Printf("Stopping watcher...")

	if err := fw.Stop(); err != nil {
		log.Printf("Warning: failed to stop file watcher: %v", err)
	}
	sched.Stop()
	sched.Wait()

	if pending := sched.Session().Pending(); len(pending) > 0 {
		log.Printf("%d saved files were not documented; run 'autodocs generate' to document them", len(pending))
	}
	return nil
}
