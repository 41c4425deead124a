package docs

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mvp-joe/autodocs/internal/analysis"
)

// RenderPrompt builds the AI documentation request for one analyzed file.
func RenderPrompt(res *analysis.Result, content string) string {
	var b strings.Builder
	label := res.Language.Label

	fmt.Fprintf(&b, "# Documentation Request for: %s\n\n", res.Filename)
	fmt.Fprintf(&b, "**File Type:** %s\n", label)
	fmt.Fprintf(&b, "**Size:** %d lines, %s\n", res.LineCount, humanize.Bytes(uint64(res.SizeBytes)))
	fmt.Fprintf(&b, "**Estimated completion:** %d%% (%s)\n\n", res.Completion.Percent, res.Completion.Label)

	b.WriteString("## Task\n")
	fmt.Fprintf(&b, "Please analyze this %s and create comprehensive documentation including:\n\n", label)
	b.WriteString("1. **Purpose & Overview** - What does this file do?\n")
	b.WriteString("2. **Key Components** - Main functions, classes, or components\n")
	b.WriteString("3. **Props/Parameters** - If applicable (for components/functions)\n")
	b.WriteString("4. **Dependencies** - Important imports and their usage\n")
	b.WriteString("5. **Usage Examples** - How to use this in your project\n")
	b.WriteString("6. **State Management** - If applicable (for components)\n")
	b.WriteString("7. **Styling** - If Tailwind or CSS classes are used\n\n")

	if hasExtraction(res) {
		b.WriteString("## Detected Structure\n\n")
		writeList(&b, "Functions", res.Functions)
		writeList(&b, "Classes", res.Classes)
		writeList(&b, "Imports", res.Imports)
		writeList(&b, "Style classes", res.StyleClasses)
		b.WriteString("\n")
	}

	b.WriteString("## Code to Document\n\n")
	fence := codeFence(content)
	fmt.Fprintf(&b, "%s%s\n", fence, res.Language.Fence)
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s\n\n", fence)
	b.WriteString("Please generate clear, well-structured Markdown documentation.\n")

	return b.String()
}

func hasExtraction(res *analysis.Result) bool {
	return len(res.Functions)+len(res.Classes)+len(res.Imports)+len(res.StyleClasses) > 0
}

func writeList(b *strings.Builder, name string, items []string) {
	if len(items) == 0 {
		return
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "`" + strings.ReplaceAll(item, "`", "'") + "`"
	}
	fmt.Fprintf(b, "- **%s:** %s\n", name, strings.Join(quoted, ", "))
}

// codeFence returns a backtick fence longer than any run inside content.
func codeFence(content string) string {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}
