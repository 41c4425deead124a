package docs

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mvp-joe/autodocs/internal/analysis"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SplitAtMarker splits a README into the hand-written head and the generated
// section. The marker is a top-level heading of the same level whose text
// equals the marker title; lookalike headings and headings inside code blocks,
// lists or quotes do not count. When it is absent, head is the whole content
// and found is false.
func SplitAtMarker(content, marker string) (head, section string, found bool) {
	idx := markerIndex(content, marker)
	if idx < 0 {
		return content, "", false
	}
	return content[:idx], content[idx:], true
}

// markerIndex returns the byte offset of the line that starts the marker
// heading, or -1.
func markerIndex(content, marker string) int {
	marker = strings.TrimSpace(marker)
	title := strings.TrimSpace(strings.TrimLeft(marker, "#"))
	level := len(marker) - len(strings.TrimLeft(marker, "#"))

	source := []byte(content)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := node.(*ast.Heading)
		if !ok || heading.Level != level || heading.Lines().Len() == 0 {
			continue
		}
		if strings.TrimSpace(inlineText(heading, source)) != title {
			continue
		}
		start := heading.Lines().At(0).Start
		return strings.LastIndexByte(content[:start], '\n') + 1
	}
	return -1
}

// parseEntries splits a generated section into per-file entries keyed by the
// "### <filename>" heading. Text between the marker and the first entry is
// dropped since it is regenerated.
func parseEntries(section string) map[string]string {
	entries := make(map[string]string)
	var name string
	var body strings.Builder

	flush := func() {
		if name != "" {
			entries[name] = strings.TrimRight(body.String(), "\n") + "\n"
		}
		body.Reset()
	}

	for _, line := range strings.SplitAfter(section, "\n") {
		if strings.HasPrefix(line, "### ") {
			flush()
			name = strings.TrimSpace(strings.TrimPrefix(line, "### "))
		}
		if name != "" {
			body.WriteString(line)
		}
	}
	flush()
	return entries
}

// RenderEntry renders the insights entry for one analyzed file.
func RenderEntry(res *analysis.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", res.Filename)
	fmt.Fprintf(&b, "- **Type:** %s\n", res.Language.Label)
	fmt.Fprintf(&b, "- **Lines:** %d\n", res.LineCount)
	fmt.Fprintf(&b, "- **Completion:** %s (~%d%%, %s)\n", res.Completion.Level, res.Completion.Percent, res.Completion.Label)
	writeList(&b, "Functions", res.Functions)
	writeList(&b, "Classes", res.Classes)
	writeList(&b, "Imports", res.Imports)
	writeList(&b, "Style classes", res.StyleClasses)
	return b.String()
}

// MergeSection rebuilds the generated section. Existing entries are kept
// when keep reports true for their filename; entries in updated replace
// existing ones.
func MergeSection(marker, existing string, updated map[string]string, keep func(name string) bool, now time.Time) string {
	entries := parseEntries(existing)
	for name := range entries {
		if _, ok := updated[name]; ok {
			continue
		}
		if keep != nil && !keep(name) {
			delete(entries, name)
		}
	}
	for name, body := range updated {
		entries[name] = body
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "_Last updated: %s_\n", now.UTC().Format(time.RFC3339))
	for _, name := range names {
		b.WriteString("\n")
		b.WriteString(entries[name])
	}
	return b.String()
}

// ComposeReadme joins the preserved head with a regenerated section. When the
// README had no marker, the section is appended after a blank line.
func ComposeReadme(head, section string, found bool) string {
	if found || head == "" {
		return head + section
	}
	if !strings.HasSuffix(head, "\n") {
		head += "\n"
	}
	if !strings.HasSuffix(head, "\n\n") {
		head += "\n"
	}
	return head + section
}
