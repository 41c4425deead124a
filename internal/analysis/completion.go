package analysis

import "strings"

// CompletionLevel is a coarse bucket of how fleshed-out a file looks.
type CompletionLevel string

const (
	CompletionLow  CompletionLevel = "low"
	CompletionHigh CompletionLevel = "high"
)

// lowCompletionMaxLines is the largest line count still classified low.
const lowCompletionMaxLines = 50

// Completion is a step-function estimate derived from line count alone.
type Completion struct {
	Level   CompletionLevel `json:"level"`
	Percent int             `json:"percent"`
	Label   string          `json:"label"`
}

// EstimateCompletion buckets a file by its number of lines.
func EstimateCompletion(lines int) Completion {
	if lines <= lowCompletionMaxLines {
		return Completion{Level: CompletionLow, Percent: 40, Label: "Early stage"}
	}
	return Completion{Level: CompletionHigh, Percent: 80, Label: "Substantial implementation"}
}

// CountLines counts lines the way an editor shows them: a trailing newline
// does not start a new line, and empty content has zero lines.
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
