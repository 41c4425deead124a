package docs

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ReadmeEntry describes one component summary found in the working tree.
type ReadmeEntry struct {
	Path       string // absolute
	RelPath    string // relative to project root, slash-separated
	Title      string
	Documented int // number of generated per-file entries
}

// Activity is one row of the "Recent Activity" table.
type Activity struct {
	Path       string
	Language   string
	Lines      int
	Completion string
	Err        error
}

// DirFilter decides whether a directory walk skips a directory.
type DirFilter interface {
	SkipDir(dir string) bool
}

// ScanReadmes walks root for README documents, skipping directories the
// filter excludes. A missing root yields an empty list.
func ScanReadmes(fs afero.Fs, layout Layout, filter DirFilter) ([]ReadmeEntry, error) {
	root := layout.ProjectRoot
	entries := []ReadmeEntry{}

	if ok, err := afero.DirExists(fs, root); err != nil || !ok {
		return entries, nil
	}

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}

		if info.IsDir() {
			if path != root && filter != nil && filter.SkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Name() != layout.ReadmeName {
			return nil
		}

		data, err := afero.ReadFile(fs, path)
		if err != nil {
			log.Printf("Warning: failed to read %s: %v", path, err)
			return nil
		}

		title, documented := summarizeReadme(data, layout.markerTitle())
		if title == "" {
			title = filepath.Base(filepath.Dir(path))
		}
		entries = append(entries, ReadmeEntry{
			Path:       path,
			RelPath:    layout.Rel(path),
			Title:      title,
			Documented: documented,
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []ReadmeEntry{}, nil
		}
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

// summarizeReadme returns the first level-1 heading and the number of
// level-3 headings under the generated section.
func summarizeReadme(source []byte, markerTitle string) (string, int) {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	title := ""
	documented := 0
	inSection := false

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := node.(*ast.Heading)
		if !ok {
			continue
		}
		headingText := strings.TrimSpace(inlineText(heading, source))
		switch {
		case heading.Level == 1 && title == "":
			title = headingText
		case heading.Level <= 2:
			inSection = headingText == markerTitle
		case heading.Level == 3 && inSection:
			documented++
		}
	}
	return title, documented
}

// inlineText concatenates the text segments below n.
func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// RenderProgress renders the project-wide tracker document.
func RenderProgress(layout Layout, readmes []ReadmeEntry, recent []Activity, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Project Progress\n\n")
	fmt.Fprintf(&b, "_Last updated: %s_\n\n", now.UTC().Format(time.RFC3339))

	b.WriteString("## Components\n\n")
	if len(readmes) == 0 {
		b.WriteString("_No documentation generated yet._\n")
	} else {
		b.WriteString("| Component | Title | Documented files |\n")
		b.WriteString("|---|---|---|\n")
		for _, r := range readmes {
			link := r.Path
			if rel, err := filepath.Rel(layout.DocsDir, r.Path); err == nil {
				link = filepath.ToSlash(rel)
			}
			component := filepath.ToSlash(filepath.Dir(r.RelPath))
			if component == "." {
				component = "(root)"
			}
			fmt.Fprintf(&b, "| [%s](%s) | %s | %d |\n", component, link, escapeCell(r.Title), r.Documented)
		}
	}

	if len(recent) > 0 {
		b.WriteString("\n## Recent Activity\n\n")
		b.WriteString("| File | Language | Lines | Completion | Status |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, a := range recent {
			status := "documented"
			if a.Err != nil {
				status = "failed: " + escapeCell(a.Err.Error())
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n", escapeCell(a.Path), a.Language, a.Lines, a.Completion, status)
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
