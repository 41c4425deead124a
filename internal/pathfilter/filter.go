// Package pathfilter decides which saved files qualify for documentation.
//
// A path qualifies when its extension is in the supported set and none of its
// directory segments is an excluded directory name. Optional glob ignore
// patterns (gobwas/glob syntax, '/' separated, relative to the project root)
// exclude additional paths.
package pathfilter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	// rootOnly matches root-level files when the pattern starts with **/
	rootOnly glob.Glob
}

// Filter applies extension, exclusion and ignore rules to file paths.
type Filter struct {
	rootDir    string
	extensions map[string]bool
	exclude    []string
	ignore     []compiledPattern
}

// New creates a filter rooted at rootDir.
// extensions: supported extensions, with or without the leading dot.
// exclude: directory names (or slash-separated directory sequences) to skip.
// ignore: glob patterns relative to rootDir.
func New(rootDir string, extensions, exclude, ignore []string) (*Filter, error) {
	f := &Filter{
		rootDir:    rootDir,
		extensions: make(map[string]bool, len(extensions)),
	}

	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[ext] = true
	}

	for _, ex := range exclude {
		ex = strings.Trim(filepath.ToSlash(strings.TrimSpace(ex)), "/")
		if ex != "" {
			f.exclude = append(f.exclude, ex)
		}
	}

	for _, pattern := range ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if strings.HasPrefix(pattern, "**/") {
			if simplified, err := glob.Compile(strings.TrimPrefix(pattern, "**/"), '/'); err == nil {
				cp.rootOnly = simplified
			}
		}
		f.ignore = append(f.ignore, cp)
	}

	return f, nil
}

// RootDir returns the directory relative paths are computed against.
func (f *Filter) RootDir() string {
	return f.rootDir
}

// Extensions returns the supported extensions in sorted order.
func (f *Filter) Extensions() []string {
	exts := make([]string, 0, len(f.extensions))
	for ext := range f.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether the file extension is in the supported set.
func (f *Filter) Supported(path string) bool {
	return f.extensions[strings.ToLower(filepath.Ext(path))]
}

// Excluded reports whether path lies under an excluded directory or matches
// an ignore pattern.
func (f *Filter) Excluded(path string) bool {
	rel := f.relative(path)
	if rel == "" {
		return false
	}

	wrapped := "/" + rel + "/"
	for _, ex := range f.exclude {
		if strings.Contains(wrapped, "/"+ex+"/") {
			return true
		}
	}

	return f.ignored(rel)
}

// Accept reports whether a saved file should be tracked.
func (f *Filter) Accept(path string) bool {
	return f.Supported(path) && !f.Excluded(path)
}

// SkipDir reports whether a directory walk should not descend into dir.
func (f *Filter) SkipDir(dir string) bool {
	rel := f.relative(dir)
	if rel == "" || rel == "." {
		return false
	}
	return f.Excluded(dir)
}

func (f *Filter) ignored(rel string) bool {
	for _, cp := range f.ignore {
		if cp.glob.Match(rel) || cp.glob.Match(rel+"/**") {
			return true
		}
		if cp.rootOnly != nil && !strings.Contains(rel, "/") && cp.rootOnly.Match(rel) {
			return true
		}
	}
	return false
}

// relative converts path to a slash-separated path relative to the root.
// Paths outside the root are returned unchanged (slash-normalized).
func (f *Filter) relative(path string) string {
	if f.rootDir != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(f.rootDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./")
}
