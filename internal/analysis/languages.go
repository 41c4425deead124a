package analysis

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Category groups languages that share one extraction rule set.
type Category string

const (
	CategoryUnknown    Category = ""
	CategoryECMAScript Category = "ecmascript"
	CategoryPython     Category = "python"
	CategoryRust       Category = "rust"
	CategoryGo         Category = "go"
	CategoryJava       Category = "java"
)

// Language describes how a file extension is labelled and analyzed.
type Language struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Fence    string   `json:"fence"`
	Category Category `json:"category"`
}

// Rules holds one pattern per extracted construct. Each pattern reports the
// first non-empty capture group, or the whole match when it has none.
type Rules struct {
	Functions *regexp.Regexp
	Classes   *regexp.Regexp
	Imports   *regexp.Regexp
}

// languages maps a lowercase extension to its language.
// Adding a language means adding one row here and, for a new category, one
// row in rules.
var languages = map[string]Language{
	".svelte": {Name: "svelte", Label: "Svelte component", Fence: "svelte", Category: CategoryECMAScript},
	".ts":     {Name: "typescript", Label: "TypeScript", Fence: "ts", Category: CategoryECMAScript},
	".tsx":    {Name: "typescript", Label: "TypeScript (React)", Fence: "tsx", Category: CategoryECMAScript},
	".js":     {Name: "javascript", Label: "JavaScript", Fence: "js", Category: CategoryECMAScript},
	".jsx":    {Name: "javascript", Label: "JavaScript (React)", Fence: "jsx", Category: CategoryECMAScript},
	".py":     {Name: "python", Label: "Python", Fence: "py", Category: CategoryPython},
	".rs":     {Name: "rust", Label: "Rust", Fence: "rs", Category: CategoryRust},
	".go":     {Name: "go", Label: "Go", Fence: "go", Category: CategoryGo},
	".java":   {Name: "java", Label: "Java", Fence: "java", Category: CategoryJava},
}

var rules = map[Category]Rules{
	CategoryECMAScript: {
		Functions: regexp.MustCompile(`(?m)(?:^|\s)(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)|(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`),
		Classes:   regexp.MustCompile(`(?m)(?:^|\s)(?:export\s+)?(?:default\s+)?(?:abstract\s+)?(?:class|interface)\s+([A-Za-z_$][\w$]*)`),
		Imports:   regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?(?:[^'";]+?\s+from\s+)?['"]([^'"]+)['"]|require\(\s*['"]([^'"]+)['"]\s*\)`),
	},
	CategoryPython: {
		Functions: regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)`),
		Classes:   regexp.MustCompile(`(?m)^\s*class\s+([A-Za-z_]\w*)`),
		Imports:   regexp.MustCompile(`(?m)^\s*(?:from\s+([\w.]+)\s+import\b|import\s+([\w.]+))`),
	},
	CategoryRust: {
		Functions: regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+([A-Za-z_]\w*)`),
		Classes:   regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait|union)\s+([A-Za-z_]\w*)`),
		Imports:   regexp.MustCompile(`(?m)^\s*(?:pub\s+)?use\s+([^;]+);`),
	},
	CategoryGo: {
		Functions: regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)`),
		Classes:   regexp.MustCompile(`(?m)^\s*type\s+([A-Za-z_]\w*)(?:\[[^\]]*\])?\s+(?:struct|interface)\b`),
		Imports:   regexp.MustCompile(`(?m)^\s*(?:import\s+)?(?:[\w.]+\s+)?"([\w./-]+)"\s*$`),
	},
	CategoryJava: {
		Functions: regexp.MustCompile(`(?m)^\s*(?:(?:public|private|protected|static|final|abstract|synchronized|native|default)\s+)+(?:<[^>]+>\s+)?[\w<>\[\]?,. ]+?\s+([A-Za-z_]\w*)\s*\(`),
		Classes:   regexp.MustCompile(`(?m)^\s*(?:(?:public|private|protected|abstract|final|static|sealed)\s+)*(?:class|interface|enum|record)\s+([A-Za-z_]\w*)`),
		Imports:   regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.*]+)\s*;`),
	},
}

// styleClassPattern finds class="..." and className="..." style attributes,
// including JSX expression braces and template literals.
var styleClassPattern = regexp.MustCompile("(?:\\bclass|\\bclassName)\\s*=\\s*\\{?\\s*[\"'`]([^\"'`]+)[\"'`]")

// LanguageFor returns the language for a path. Unknown extensions get a
// generic "code file" language with CategoryUnknown.
func LanguageFor(path string) (Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := languages[ext]; ok {
		return lang, true
	}
	fence := strings.TrimPrefix(ext, ".")
	if fence == "" {
		fence = "txt"
	}
	return Language{Name: "unknown", Label: "code file", Fence: fence, Category: CategoryUnknown}, false
}

// RulesFor returns the extraction rules for a category.
func RulesFor(c Category) (Rules, bool) {
	r, ok := rules[c]
	return r, ok
}

// SupportedExtensions returns every extension with a language row, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(languages))
	for ext := range languages {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
