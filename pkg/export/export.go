// Package export serializes completed sessions to stable on-disk formats.
// All record bodies are deterministic: exporting the same session twice
// yields identical bytes. Timestamps appear only in file names, never in
// the records themselves.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/XiaoConstantine/cort-go/pkg/core"
)

// Full serializes every round of a session as indented JSON: candidates,
// selection, and rationale included.
func Full(s *core.Session) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return append(data, '\n'), nil
}

// compactSession is the reduced view with only the query and final response.
type compactSession struct {
	ID            string `json:"id"`
	Query         string `json:"query"`
	FinalResponse string `json:"final_response"`
	Truncated     bool   `json:"truncated,omitempty"`
}

// Compact serializes only the query and final response.
func Compact(s *core.Session) ([]byte, error) {
	data, err := json.MarshalIndent(compactSession{
		ID:            s.ID,
		Query:         s.Query,
		FinalResponse: s.FinalResponse,
		Truncated:     s.Truncated,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return append(data, '\n'), nil
}

// Markdown renders the session as a human-readable thinking report: the
// final response followed by every round's candidates with selection
// markers and rationales.
func Markdown(s *core.Session) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Response to: %s\n\n", s.Query)
	b.WriteString("## Final Response\n")
	b.WriteString(s.FinalResponse)
	b.WriteString("\n\n## Thinking Process\n\n")
	fmt.Fprintf(&b, "**Number of thinking rounds:** %d\n", s.PlannedRounds)
	if s.Truncated {
		fmt.Fprintf(&b, "\n**Truncated:** ended early after %d completed round(s)\n", s.CompletedRounds())
	}
	b.WriteString("\n")

	b.WriteString("### Round 0 - INITIAL\n\n")
	b.WriteString(s.Initial.Text)
	b.WriteString("\n\n---\n\n")

	for _, round := range s.Rounds {
		for i, cand := range round.Candidates {
			status := "ALTERNATIVE"
			if i == round.SelectedIndex {
				status = "SELECTED"
			}
			label := "current best"
			if i > 0 {
				label = fmt.Sprintf("alternative %d (temp %.1f)", i, cand.Temperature)
			}
			fmt.Fprintf(&b, "### Round %d - %s - %s\n\n", round.Number, status, label)
			b.WriteString(cand.Text)
			b.WriteString("\n\n")
			if i == round.SelectedIndex {
				fmt.Fprintf(&b, "**Reason for selection:** %s\n\n", round.Rationale)
			}
			b.WriteString("---\n\n")
		}
	}

	return []byte(b.String())
}

// MarkdownFilename builds a file name from a slug of the query plus a
// timestamp. The clock is an argument so callers stay testable.
func MarkdownFilename(query string, now time.Time) string {
	return fmt.Sprintf("%s_%s.md", slug(query, 30), now.Format("20060102_150405"))
}

// slug reduces text to a safe file-name fragment of at most maxLen runes.
func slug(text string, maxLen int) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune('_')
		}
	}
	s := strings.TrimSpace(b.String())
	runes := []rune(s)
	if len(runes) > maxLen {
		s = strings.TrimSpace(string(runes[:maxLen]))
	}
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		s = "response"
	}
	return s
}
