package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/maypok86/otter"
	"github.com/spf13/afero"
)

// ErrNotRegularFile is returned when the analyzed path is a directory or
// other non-regular file.
var ErrNotRegularFile = errors.New("not a regular file")

// Result is the full analysis of one file.
type Result struct {
	Path       string     `json:"path"`
	Filename   string     `json:"filename"`
	Language   Language   `json:"language"`
	LineCount  int        `json:"line_count"`
	SizeBytes  int64      `json:"size_bytes"`
	Completion Completion `json:"completion"`
	Extraction
}

// Analyze runs extraction on already-loaded content.
func Analyze(path, content string) *Result {
	lang, _ := LanguageFor(path)
	lines := CountLines(content)
	return &Result{
		Path:       path,
		Filename:   filepath.Base(path),
		Language:   lang,
		LineCount:  lines,
		SizeBytes:  int64(len(content)),
		Completion: EstimateCompletion(lines),
		Extraction: Extract(lang, content),
	}
}

// Analyzer reads files through an afero filesystem and memoizes results by
// content hash, so re-saving an unchanged file skips pattern matching.
type Analyzer struct {
	fs    afero.Fs
	cache *otter.Cache[string, *Result]
}

// NewAnalyzer creates an analyzer. cacheSize <= 0 disables memoization.
func NewAnalyzer(fs afero.Fs, cacheSize int) (*Analyzer, error) {
	a := &Analyzer{fs: fs}
	if cacheSize > 0 {
		cache, err := otter.MustBuilder[string, *Result](cacheSize).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build analysis cache: %w", err)
		}
		a.cache = &cache
	}
	return a, nil
}

// AnalyzeFile reads path and analyzes it. The raw content is returned
// alongside the result because prompt scaffolds embed it.
func (a *Analyzer) AnalyzeFile(path string) (*Result, string, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, "", fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}

	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	content := string(data)

	if a.cache == nil {
		return Analyze(path, content), content, nil
	}

	sum := sha256.Sum256(data)
	key := path + "\x00" + hex.EncodeToString(sum[:])
	if cached, ok := a.cache.Get(key); ok {
		return cached, content, nil
	}

	result := Analyze(path, content)
	a.cache.Set(key, result)
	return result, content, nil
}

// Close releases the memo cache.
func (a *Analyzer) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}
