// Package analysis performs lightweight static text analysis of source files.
//
// Extraction is pattern based: each supported extension maps to a Language,
// each Language to a Category, and each Category to one Rules row. Nothing is
// parsed; the goal is a cheap summary for documentation, not a symbol table.
package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxFunctions    = 10
	MaxClasses      = 5
	MaxImports      = 10
	MaxStyleClasses = 5

	// maxEntryRunes bounds every extracted entry.
	maxEntryRunes = 80
)

// Extraction is the pattern-matched summary of one file's content.
type Extraction struct {
	Functions    []string `json:"functions"`
	Classes      []string `json:"classes"`
	Imports      []string `json:"imports"`
	StyleClasses []string `json:"style_classes"`
}

// Extract runs the rules for lang against content. Unknown categories yield
// empty lists; style classes are extracted for every language.
func Extract(lang Language, content string) Extraction {
	ex := Extraction{
		Functions:    []string{},
		Classes:      []string{},
		Imports:      []string{},
		StyleClasses: matchAll(styleClassPattern, content, MaxStyleClasses),
	}

	r, ok := RulesFor(lang.Category)
	if !ok {
		return ex
	}

	ex.Functions = matchAll(r.Functions, content, MaxFunctions)
	ex.Classes = matchAll(r.Classes, content, MaxClasses)
	ex.Imports = matchAll(r.Imports, content, MaxImports)
	return ex
}

// matchAll collects up to limit distinct matches in first-seen order.
func matchAll(re *regexp.Regexp, content string, limit int) []string {
	out := []string{}
	if re == nil {
		return out
	}

	seen := make(map[string]bool)
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		value := firstGroup(m)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g = normalize(g); g != "" {
			return g
		}
	}
	if len(m) == 1 {
		return normalize(m[0])
	}
	return ""
}

// normalize collapses whitespace and truncates to maxEntryRunes.
func normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxEntryRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxEntryRunes-1]) + "…"
}
