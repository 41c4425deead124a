package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mvp-joe/autodocs/internal/analysis"
	"github.com/mvp-joe/autodocs/internal/config"
	"github.com/mvp-joe/autodocs/internal/docs"
	"github.com/mvp-joe/autodocs/internal/journal"
	"github.com/mvp-joe/autodocs/internal/pathfilter"
	"github.com/mvp-joe/autodocs/internal/processor"
	"github.com/spf13/afero"
)

// project bundles everything a command needs for one project root.
type project struct {
	root     string
	cfg      *config.Config
	fs       afero.Fs
	filter   *pathfilter.Filter
	writer   *docs.Writer
	analyzer *analysis.Analyzer
	journal  *journal.Store // nil when disabled or not opened
}

// resolveRoot returns the absolute project root from --project or the
// working directory.
func resolveRoot(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to access project root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", abs)
	}
	return abs, nil
}

// openProject loads configuration and builds the shared components.
// withJournal opens the journal when it is enabled in the config.
func openProject(dir, configFile string, withJournal bool) (*project, error) {
	root, err := resolveRoot(dir)
	if err != nil {
		return nil, err
	}

	var loader config.Loader
	if configFile != "" {
		loader = config.NewFileLoader(root, configFile)
	} else {
		loader = config.NewLoader(root)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return newProject(root, cfg, afero.NewOsFs(), withJournal)
}

func newProject(root string, cfg *config.Config, fs afero.Fs, withJournal bool) (*project, error) {
	filter, err := cfg.NewFilter(root)
	if err != nil {
		return nil, err
	}

	analyzer, err := analysis.NewAnalyzer(fs, cfg.Analysis.CacheSize)
	if err != nil {
		return nil, err
	}

	p := &project{
		root:     root,
		cfg:      cfg,
		fs:       fs,
		filter:   filter,
		writer:   docs.NewWriter(fs, cfg.Layout(root)),
		analyzer: analyzer,
	}

	if withJournal && cfg.Journal.Enabled {
		store, err := journal.Open(cfg.JournalPath(root), journal.WithRetention(cfg.Journal.Keep))
		if err != nil {
			// The journal is history only; documentation still works without it.
			log.Printf("Warning: journal unavailable: %v", err)
		} else {
			p.journal = store
		}
	}

	return p, nil
}

// newProcessor builds a processor wired to the project's journal.
func (p *project) newProcessor(opts ...processor.Option) *processor.Processor {
	base := []processor.Option{
		processor.WithDirFilter(p.filter),
		processor.WithVerbose(verbose),
	}
	if p.journal != nil {
		base = append(base, processor.WithJournal(p.journal))
	}
	return processor.New(p.analyzer, p.writer, append(base, opts...)...)
}

// resolveFile resolves a file argument against the working directory.
func (p *project) resolveFile(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", arg, err)
	}
	return abs, nil
}

func (p *project) Close() {
	p.analyzer.Close()
	if p.journal != nil {
		if err := p.journal.Close(); err != nil {
			log.Printf("Warning: failed to close journal: %v", err)
		}
	}
}
