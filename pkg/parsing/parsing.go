// Package parsing provides utilities for extracting planner integers and
// evaluator selections from LLM responses.
package parsing

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// MinRounds and MaxRounds bound the planner's answer.
	MinRounds = 1
	MaxRounds = 5
)

var (
	// intRe matches the first integer token in a response.
	intRe = regexp.MustCompile(`\d+`)

	// currentRe matches the "current" keep-the-baseline label.
	currentRe = regexp.MustCompile(`(?i)\bcurrent\b`)
)

// ParseRoundCount extracts the planner's round count from response text.
// The first integer token found is used; ok is false when no integer is
// present or the value falls outside [MinRounds, MaxRounds].
func ParseRoundCount(text string) (int, bool) {
	match := intRe.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil || n < MinRounds || n > MaxRounds {
		return 0, false
	}
	return n, true
}

// ParseSelection extracts the evaluator's choice from response text.
// The first line is expected to carry the label: "current" keeps the
// baseline (index 0), a number 1..numAlternatives selects that
// alternative. The remaining lines are the rationale, joined and trimmed.
// ok is false when no recognizable label is found; callers fall back to
// retaining the current-best.
func ParseSelection(text string, numAlternatives int) (index int, rationale string, ok bool) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return 0, "", false
	}

	first := lines[0]
	if len(lines) > 1 {
		rationale = strings.TrimSpace(strings.Join(lines[1:], " "))
	}

	if currentRe.MatchString(first) {
		return 0, rationale, true
	}

	if match := intRe.FindString(first); match != "" {
		n, err := strconv.Atoi(match)
		if err == nil && n >= 1 && n <= numAlternatives {
			return n, rationale, true
		}
	}

	return 0, "", false
}
