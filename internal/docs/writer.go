package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mvp-joe/autodocs/internal/analysis"
	"github.com/spf13/afero"
)

// Writer persists generated artifacts through an afero filesystem.
type Writer struct {
	fs     afero.Fs
	layout Layout
}

// NewWriter creates a writer for the given layout.
func NewWriter(fs afero.Fs, layout Layout) *Writer {
	return &Writer{fs: fs, layout: layout}
}

// Layout returns the writer's layout.
func (w *Writer) Layout() Layout {
	return w.layout
}

// EnsureLayout creates the docs and prompts directories. Idempotent.
func (w *Writer) EnsureLayout() error {
	for _, dir := range []string{w.layout.DocsDir, w.layout.PromptsDir, filepath.Dir(w.layout.ProgressPath)} {
		if err := w.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// SeedProgress writes an empty PROGRESS.md when none exists. Reports whether
// a file was written.
func (w *Writer) SeedProgress(now time.Time) (bool, error) {
	exists, err := afero.Exists(w.fs, w.layout.ProgressPath)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", w.layout.ProgressPath, err)
	}
	if exists {
		return false, nil
	}
	content := RenderProgress(w.layout, nil, nil, now)
	if err := w.write(w.layout.ProgressPath, content); err != nil {
		return false, err
	}
	return true, nil
}

// WritePrompt writes the prompt scaffold for an analyzed file and returns its
// path.
func (w *Writer) WritePrompt(res *analysis.Result, content string) (string, error) {
	path := w.layout.PromptPath(res.Path)
	if err := w.write(path, RenderPrompt(res, content)); err != nil {
		return "", err
	}
	return path, nil
}

// UpdateReadme regenerates the insights section of dir's README with entries
// for results. Hand-written content above the marker is kept verbatim;
// entries for files that no longer exist in dir are dropped.
func (w *Writer) UpdateReadme(dir string, results []*analysis.Result, now time.Time) (string, error) {
	path := w.layout.ReadmePath(dir)

	existing := ""
	data, err := afero.ReadFile(w.fs, path)
	switch {
	case err == nil:
		existing = string(data)
	case os.IsNotExist(err):
		existing = fmt.Sprintf("# %s\n\n", filepath.Base(dir))
	default:
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	head, section, found := SplitAtMarker(existing, w.layout.Marker)

	updated := make(map[string]string, len(results))
	for _, res := range results {
		updated[res.Filename] = RenderEntry(res)
	}
	keep := func(name string) bool {
		ok, err := afero.Exists(w.fs, filepath.Join(dir, name))
		return err == nil && ok
	}

	merged := MergeSection(w.layout.Marker, section, updated, keep, now)
	if err := w.write(path, ComposeReadme(head, merged, found)); err != nil {
		return "", err
	}
	return path, nil
}

// WriteProgress regenerates PROGRESS.md from a scan of the working tree.
func (w *Writer) WriteProgress(filter DirFilter, recent []Activity, now time.Time) (int, error) {
	readmes, err := ScanReadmes(w.fs, w.layout, filter)
	if err != nil {
		return 0, err
	}
	if err := w.write(w.layout.ProgressPath, RenderProgress(w.layout, readmes, recent, now)); err != nil {
		return 0, err
	}
	return len(readmes), nil
}

// RemoveGenerated deletes the prompts directory and PROGRESS.md. READMEs are
// left alone because they carry hand-written content.
func (w *Writer) RemoveGenerated() error {
	if err := w.fs.RemoveAll(w.layout.PromptsDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", w.layout.PromptsDir, err)
	}
	if err := w.fs.Remove(w.layout.ProgressPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", w.layout.ProgressPath, err)
	}
	return nil
}

func (w *Writer) write(path, content string) error {
	if err := w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(w.fs, path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
