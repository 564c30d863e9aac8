// Package logger provides JSONL logging for recursive-thinking sessions.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/XiaoConstantine/cort-go/pkg/core"
	"github.com/google/uuid"
)

// Logger writes session logs in JSONL format, one entry per line. A single
// log file can span many sessions from the same engine instance.
type Logger struct {
	file *os.File
}

// Config holds logger configuration recorded in the metadata entry.
type Config struct {
	Provider        string
	Model           string
	NumAlternatives int
	MaxTokens       int
}

// MetadataEntry is the first line of a JSONL log file.
type MetadataEntry struct {
	Type            string `json:"type"`
	Timestamp       string `json:"timestamp"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	NumAlternatives int    `json:"num_alternatives"`
	MaxTokens       int    `json:"max_tokens"`
}

// SessionStartEntry records the start of one query's session.
type SessionStartEntry struct {
	Type          string         `json:"type"`
	SessionID     string         `json:"session_id"`
	Timestamp     string         `json:"timestamp"`
	Query         string         `json:"query"`
	PlannedRounds int            `json:"planned_rounds"`
	Initial       core.Candidate `json:"initial"`
}

// RoundEntry records one completed round.
type RoundEntry struct {
	Type          string           `json:"type"`
	SessionID     string           `json:"session_id"`
	Timestamp     string           `json:"timestamp"`
	Round         int              `json:"round"`
	Candidates    []core.Candidate `json:"candidates"`
	SelectedIndex int              `json:"selected_index"`
	Rationale     string           `json:"rationale"`
}

// FinalEntry records a session's outcome.
type FinalEntry struct {
	Type            string `json:"type"`
	SessionID       string `json:"session_id"`
	Timestamp       string `json:"timestamp"`
	FinalResponse   string `json:"final_response"`
	CompletedRounds int    `json:"completed_rounds"`
	Truncated       bool   `json:"truncated"`
}

// New creates a new Logger and writes the metadata entry.
func New(logDir string, cfg Config) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	now := time.Now()
	filename := fmt.Sprintf("cort_%s_%s.jsonl",
		now.Format("2006-01-02_15-04-05"),
		uuid.New().String()[:8],
	)
	path := filepath.Join(logDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	l := &Logger{file: file}

	metadata := MetadataEntry{
		Type:            "metadata",
		Timestamp:       now.Format(time.RFC3339Nano),
		Provider:        cfg.Provider,
		Model:           cfg.Model,
		NumAlternatives: cfg.NumAlternatives,
		MaxTokens:       cfg.MaxTokens,
	}
	if err := l.writeEntry(metadata); err != nil {
		file.Close()
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return l, nil
}

// LogSessionStart logs the beginning of a session: the query, the planned
// round budget, and the initial candidate.
func (l *Logger) LogSessionStart(sessionID, query string, plannedRounds int, initial core.Candidate) error {
	return l.writeEntry(SessionStartEntry{
		Type:          "session_start",
		SessionID:     sessionID,
		Timestamp:     time.Now().Format(time.RFC3339Nano),
		Query:         query,
		PlannedRounds: plannedRounds,
		Initial:       initial,
	})
}

// LogRound logs a single completed round.
func (l *Logger) LogRound(sessionID string, round core.Round) error {
	return l.writeEntry(RoundEntry{
		Type:          "round",
		SessionID:     sessionID,
		Timestamp:     time.Now().Format(time.RFC3339Nano),
		Round:         round.Number,
		Candidates:    round.Candidates,
		SelectedIndex: round.SelectedIndex,
		Rationale:     round.Rationale,
	})
}

// LogFinal logs a session's outcome.
func (l *Logger) LogFinal(sessionID, finalResponse string, completedRounds int, truncated bool) error {
	return l.writeEntry(FinalEntry{
		Type:            "final",
		SessionID:       sessionID,
		Timestamp:       time.Now().Format(time.RFC3339Nano),
		FinalResponse:   finalResponse,
		CompletedRounds: completedRounds,
		Truncated:       truncated,
	})
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Path returns the path to the log file.
func (l *Logger) Path() string {
	if l.file != nil {
		return l.file.Name()
	}
	return ""
}

func (l *Logger) writeEntry(entry any) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = l.file.Write(append(data, '\n'))
	return err
}
