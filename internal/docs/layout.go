// Package docs writes the generated markdown artifacts: prompt scaffolds,
// per-directory README insight sections and the project-wide PROGRESS.md.
package docs

import (
	"path/filepath"
	"strings"
)

// DefaultMarker is the heading that separates hand-written README content
// from the generated insights section.
const DefaultMarker = "## Auto-Generated Insights"

// Layout locates generated artifacts. All paths are absolute.
type Layout struct {
	ProjectRoot  string
	DocsDir      string
	PromptsDir   string
	ProgressPath string
	ReadmeName   string
	Marker       string
}

// NewLayout builds a layout for projectRoot. docsDir, promptsDir and
// progressFile may be relative; docsDir is resolved against projectRoot and
// the other two against docsDir.
func NewLayout(projectRoot, docsDir, promptsDir, progressFile, readmeName, marker string) Layout {
	if !filepath.IsAbs(docsDir) {
		docsDir = filepath.Join(projectRoot, docsDir)
	}
	if !filepath.IsAbs(promptsDir) {
		promptsDir = filepath.Join(docsDir, promptsDir)
	}
	if !filepath.IsAbs(progressFile) {
		progressFile = filepath.Join(docsDir, progressFile)
	}
	if readmeName == "" {
		readmeName = "README.md"
	}
	if strings.TrimSpace(marker) == "" {
		marker = DefaultMarker
	}
	return Layout{
		ProjectRoot:  projectRoot,
		DocsDir:      docsDir,
		PromptsDir:   promptsDir,
		ProgressPath: progressFile,
		ReadmeName:   readmeName,
		Marker:       strings.TrimSpace(marker),
	}
}

// PromptPath returns <promptsDir>/<filename>.prompt.md for a source file.
func (l Layout) PromptPath(sourcePath string) string {
	return filepath.Join(l.PromptsDir, filepath.Base(sourcePath)+".prompt.md")
}

// ReadmePath returns the summary document for a component directory.
func (l Layout) ReadmePath(dir string) string {
	return filepath.Join(dir, l.ReadmeName)
}

// Rel returns path relative to the project root, slash-separated.
// Paths outside the root are returned unchanged.
func (l Layout) Rel(path string) string {
	rel, err := filepath.Rel(l.ProjectRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// markerTitle is the marker heading without its leading hashes.
func (l Layout) markerTitle() string {
	return strings.TrimSpace(strings.TrimLeft(l.Marker, "#"))
}
