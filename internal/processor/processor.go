// Package processor drains a batch of changed files into documentation:
// per-file analysis and prompt scaffolds, per-directory README insights and
// the project-wide PROGRESS.md.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mvp-joe/autodocs/internal/analysis"
	"github.com/mvp-joe/autodocs/internal/docs"
	"github.com/mvp-joe/autodocs/internal/tracker"
)

// ErrUnsupportedFile is returned by Document for files without a language row.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Journal persists flush results.
type Journal interface {
	RecordFlush(ctx context.Context, res *FlushResult) error
}

// FileResult is the outcome for one file of a batch.
type FileResult struct {
	Path       string
	Analysis   *analysis.Result
	PromptPath string
	Err        error
}

// PromptCollision records two batch files that wrote the same prompt path.
// The prompt holds Winner's content.
type PromptCollision struct {
	PromptPath  string
	Overwritten string
	Winner      string
}

// FlushResult summarizes one flush.
type FlushResult struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	Files            []FileResult
	ReadmeErrors     map[string]error
	ProgressErr      error
	Components       int
	PromptCollisions []PromptCollision
}

// Failed returns the number of files that could not be documented.
func (r *FlushResult) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Duration returns how long the flush took.
func (r *FlushResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Processor performs the side effects of a flush.
type Processor struct {
	analyzer *analysis.Analyzer
	writer   *docs.Writer
	filter   docs.DirFilter
	journal  Journal
	reporter ProgressReporter
	now      func() time.Time
	verbose  bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithDirFilter sets the filter used when scanning for README documents.
func WithDirFilter(f docs.DirFilter) Option {
	return func(p *Processor) { p.filter = f }
}

// WithJournal records every flush in j.
func WithJournal(j Journal) Option {
	return func(p *Processor) { p.journal = j }
}

// WithProgressReporter reports per-file progress to r.
func WithProgressReporter(r ProgressReporter) Option {
	return func(p *Processor) { p.reporter = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithVerbose logs every documented file.
func WithVerbose(v bool) Option {
	return func(p *Processor) { p.verbose = v }
}

// New creates a processor.
func New(analyzer *analysis.Analyzer, writer *docs.Writer, opts ...Option) *Processor {
	p := &Processor{
		analyzer: analyzer,
		writer:   writer,
		reporter: &NoOpProgressReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Flush documents every file of batch. It never returns an error: failures
// are logged and recorded per file, and the remaining files still run.
func (p *Processor) Flush(ctx context.Context, batch tracker.Batch) *FlushResult {
	res := &FlushResult{
		ID:           uuid.NewString(),
		StartedAt:    p.now(),
		Files:        make([]FileResult, 0, len(batch)),
		ReadmeErrors: make(map[string]error),
	}
	p.reporter.OnFlushStart(len(batch))

	byDir := make(map[string][]int)
	promptOwners := make(map[string]string)
	for _, rec := range batch {
		fr := p.processFile(rec.Path)
		res.Files = append(res.Files, fr)
		if fr.Err == nil {
			dir := filepath.Dir(rec.Path)
			byDir[dir] = append(byDir[dir], len(res.Files)-1)
			if prev, ok := promptOwners[fr.PromptPath]; ok && prev != rec.Path {
				log.Printf("Warning: %s and %s share prompt %s; keeping %s",
					prev, rec.Path, p.writer.Layout().Rel(fr.PromptPath), rec.Path)
				res.PromptCollisions = append(res.PromptCollisions, PromptCollision{
					PromptPath:  fr.PromptPath,
					Overwritten: prev,
					Winner:      rec.Path,
				})
			}
			promptOwners[fr.PromptPath] = rec.Path
		} else {
			log.Printf("Warning: failed to document %s: %v", rec.Path, fr.Err)
		}
		p.reporter.OnFileProcessed(rec.Path, fr.Err)
	}

	p.updateReadmes(res, byDir)

	recent := make([]docs.Activity, 0, len(res.Files))
	for _, f := range res.Files {
		a := docs.Activity{Path: p.writer.Layout().Rel(f.Path), Err: f.Err}
		if f.Analysis != nil {
			a.Language = f.Analysis.Language.Label
			a.Lines = f.Analysis.LineCount
			a.Completion = string(f.Analysis.Completion.Level)
		}
		recent = append(recent, a)
	}

	components, err := p.writer.WriteProgress(p.filter, recent, p.now())
	if err != nil {
		log.Printf("Warning: failed to regenerate progress tracker: %v", err)
		res.ProgressErr = err
	}
	res.Components = components
	res.FinishedAt = p.now()

	if p.journal != nil {
		if err := p.journal.RecordFlush(ctx, res); err != nil {
			log.Printf("Warning: failed to record flush %s: %v", res.ID, err)
		}
	}

	log.Printf("Documented %d/%d files in %s (%d components)",
		len(res.Files)-res.Failed(), len(res.Files), res.Duration().Round(time.Millisecond), res.Components)
	p.reporter.OnFlushComplete(res)
	return res
}

// processFile runs read, extract and prompt write for one file. A panic in
// any step becomes that file's error.
func (p *Processor) processFile(path string) (fr FileResult) {
	fr.Path = path
	defer func() {
		if r := recover(); r != nil {
			fr.Err = fmt.Errorf("panic while documenting %s: %v", path, r)
		}
	}()

	result, content, err := p.analyzer.AnalyzeFile(path)
	if err != nil {
		fr.Err = err
		return fr
	}
	fr.Analysis = result

	promptPath, err := p.writer.WritePrompt(result, content)
	if err != nil {
		fr.Err = err
		return fr
	}
	fr.PromptPath = promptPath

	if p.verbose {
		log.Printf("Analyzed %s: %d functions, %d classes, %d imports, completion %s",
			path, len(result.Functions), len(result.Classes), len(result.Imports), result.Completion.Level)
	}
	return fr
}

// updateReadmes writes one README per directory. A README failure marks the
// files of that directory as failed but leaves other directories alone.
func (p *Processor) updateReadmes(res *FlushResult, byDir map[string][]int) {
	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		idxs := byDir[dir]
		results := make([]*analysis.Result, 0, len(idxs))
		for _, i := range idxs {
			results = append(results, res.Files[i].Analysis)
		}

		if _, err := p.writer.UpdateReadme(dir, results, p.now()); err != nil {
			log.Printf("Warning: failed to update summary in %s: %v", dir, err)
			res.ReadmeErrors[dir] = err
			for _, i := range idxs {
				res.Files[i].Err = fmt.Errorf("failed to update summary: %w", err)
			}
		}
	}
}

// Document builds the documentation prompt for one file without writing
// anything.
func (p *Processor) Document(path string) (string, *analysis.Result, error) {
	if _, ok := analysis.LanguageFor(path); !ok {
		return "", nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFile)
	}
	result, content, err := p.analyzer.AnalyzeFile(path)
	if err != nil {
		return "", nil, err
	}
	return docs.RenderPrompt(result, content), result, nil
}

// Analyze returns the extraction result for one file without writing.
func (p *Processor) Analyze(path string) (*analysis.Result, error) {
	result, _, err := p.analyzer.AnalyzeFile(path)
	return result, err
}
