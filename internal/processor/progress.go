package processor

// ProgressReporter provides callbacks for reporting flush progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnFlushStart is called before the first file is processed.
	OnFlushStart(totalFiles int)

	// OnFileProcessed is called after each file, with its error if any.
	OnFileProcessed(path string, err error)

	// OnFlushComplete is called after PROGRESS.md has been regenerated.
	OnFlushComplete(res *FlushResult)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used by the watcher, where flushes run in the background.
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnFlushStart(totalFiles int)            {}
func (n *NoOpProgressReporter) OnFileProcessed(path string, err error) {}
func (n *NoOpProgressReporter) OnFlushComplete(res *FlushResult)       {}
