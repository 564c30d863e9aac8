// Package main provides a CLI viewer for cort JSONL log files.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// ANSI color codes (variables so they can be disabled)
var (
	Reset      = "\033[0m"
	Dim        = "\033[2m"
	Cyan       = "\033[36m"
	Green      = "\033[32m"
	Yellow     = "\033[33m"
	Red        = "\033[31m"
	BoldCyan   = "\033[1;36m"
	BoldGreen  = "\033[1;32m"
	BoldYellow = "\033[1;33m"
	BoldRed    = "\033[1;31m"
)

// Metadata represents the metadata entry in JSONL.
type Metadata struct {
	Type            string `json:"type"`
	Timestamp       string `json:"timestamp"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	NumAlternatives int    `json:"num_alternatives"`
}

// SessionStart represents a session_start entry.
type SessionStart struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	Query         string    `json:"query"`
	PlannedRounds int       `json:"planned_rounds"`
	Initial       Candidate `json:"initial"`
}

// Round represents a round entry.
type Round struct {
	Type          string      `json:"type"`
	SessionID     string      `json:"session_id"`
	Round         int         `json:"round"`
	Candidates    []Candidate `json:"candidates"`
	SelectedIndex int         `json:"selected_index"`
	Rationale     string      `json:"rationale"`
}

// Final represents a final entry.
type Final struct {
	Type            string `json:"type"`
	SessionID       string `json:"session_id"`
	FinalResponse   string `json:"final_response"`
	CompletedRounds int    `json:"completed_rounds"`
	Truncated       bool   `json:"truncated"`
}

// Candidate represents one generated response.
type Candidate struct {
	Text        string  `json:"text"`
	Temperature float64 `json:"temperature"`
	Provenance  string  `json:"provenance"`
}

func main() {
	compact := flag.Bool("compact", false, "Compact output (hide full candidate texts)")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cort-viewer [options] <file.jsonl>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	filename := flag.Arg(0)
	if err := viewLog(filename, *compact, *noColor); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func viewLog(filename string, compact, noColor bool) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if noColor {
		disableColors()
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024) // 10MB max line

	var metadata *Metadata
	printedHeader := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var entry struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}

		switch entry.Type {
		case "metadata":
			var m Metadata
			if err := json.Unmarshal([]byte(line), &m); err == nil {
				metadata = &m
			}
		case "session_start":
			if !printedHeader {
				printHeader(filename, metadata)
				printedHeader = true
			}
			var s SessionStart
			if err := json.Unmarshal([]byte(line), &s); err == nil {
				printSessionStart(s, compact)
			}
		case "round":
			var r Round
			if err := json.Unmarshal([]byte(line), &r); err == nil {
				printRound(r, compact)
			}
		case "final":
			var f Final
			if err := json.Unmarshal([]byte(line), &f); err == nil {
				printFinal(f, compact)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan file: %w", err)
	}
	if !printedHeader {
		printHeader(filename, metadata)
	}

	return nil
}

func printHeader(filename string, meta *Metadata) {
	fmt.Printf("\n%s%s cort Log Viewer %s\n", BoldCyan, "═══", Reset)
	fmt.Printf("%sFile:%s %s\n", Dim, Reset, filename)

	if meta != nil {
		fmt.Printf("%sProvider:%s %s\n", Dim, Reset, meta.Provider)
		fmt.Printf("%sModel:%s %s\n", Dim, Reset, meta.Model)
		fmt.Printf("%sAlternatives per round:%s %d\n", Dim, Reset, meta.NumAlternatives)
		if ts, err := time.Parse(time.RFC3339Nano, meta.Timestamp); err == nil {
			fmt.Printf("%sStarted:%s %s\n", Dim, Reset, ts.Format("2006-01-02 15:04:05"))
		}
	}
	fmt.Println()
}

func printSessionStart(s SessionStart, compact bool) {
	fmt.Printf("%s┌─ Session %s%s %s(%d round(s) planned)%s\n",
		BoldYellow, shortID(s.SessionID), Reset, Dim, s.PlannedRounds, Reset)
	fmt.Printf("%s│%s %sQuery:%s %s\n", Yellow, Reset, Dim, Reset, truncate(s.Query, 100))
	if !compact {
		fmt.Printf("%s│%s %sInitial:%s\n", Yellow, Reset, Dim, Reset)
		printIndented(s.Initial.Text, "│   ", 400)
	}
}

func printRound(r Round, compact bool) {
	fmt.Printf("%s├─ Round %d%s\n", BoldYellow, r.Round, Reset)
	for i, cand := range r.Candidates {
		marker := " "
		color := Dim
		if i == r.SelectedIndex {
			marker = "✓"
			color = Green
		}
		label := "current best"
		if i > 0 {
			label = fmt.Sprintf("alt %d (temp %.1f)", i, cand.Temperature)
		}
		fmt.Printf("%s│%s  %s%s %s%s\n", Yellow, Reset, color, marker, label, Reset)
		if !compact {
			printIndented(cand.Text, "│     ", 300)
		}
	}
	fmt.Printf("%s│%s  %sRationale:%s %s\n", Yellow, Reset, Cyan, Reset, truncate(r.Rationale, 120))
}

func printFinal(f Final, compact bool) {
	if f.Truncated {
		fmt.Printf("%s└─ Truncated after %d round(s)%s\n", BoldRed, f.CompletedRounds, Reset)
	} else {
		fmt.Printf("%s└─ Final (%d round(s))%s\n", BoldGreen, f.CompletedRounds, Reset)
	}
	if !compact {
		printIndented(f.FinalResponse, "   ", 500)
	}
	fmt.Println()
}

func printIndented(text, prefix string, maxLen int) {
	text = truncate(text, maxLen)
	for _, line := range strings.Split(text, "\n") {
		fmt.Printf("%s%s%s\n", Yellow, prefix, Reset+line)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

func disableColors() {
	Reset = ""
	Dim = ""
	Cyan = ""
	Green = ""
	Yellow = ""
	Red = ""
	BoldCyan = ""
	BoldGreen = ""
	BoldYellow = ""
	BoldRed = ""
}
