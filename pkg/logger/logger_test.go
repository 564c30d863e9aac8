package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/XiaoConstantine/cort-go/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "each line must be valid JSON")
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, Config{
		Provider:        "anthropic",
		Model:           "claude-test",
		NumAlternatives: 3,
		MaxTokens:       4096,
	})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(l.Path(), dir))
	require.True(t, strings.HasSuffix(l.Path(), ".jsonl"))

	initial := core.Candidate{Text: "first take", Temperature: 0.7, Provenance: core.ProvenanceInitial}
	require.NoError(t, l.LogSessionStart("sess-1", "what is rain", 2, initial))

	round := core.Round{
		Number: 1,
		Candidates: []core.Candidate{
			initial,
			{Text: "second take", Temperature: 0.7, Provenance: core.ProvenanceAlternative},
		},
		SelectedIndex: 1,
		Rationale:     "clearer",
	}
	require.NoError(t, l.LogRound("sess-1", round))
	require.NoError(t, l.LogFinal("sess-1", "second take", 1, false))
	require.NoError(t, l.Close())

	entries := readEntries(t, l.Path())
	require.Len(t, entries, 4)

	assert.Equal(t, "metadata", entries[0]["type"])
	assert.Equal(t, "anthropic", entries[0]["provider"])
	assert.Equal(t, "claude-test", entries[0]["model"])
	assert.EqualValues(t, 3, entries[0]["num_alternatives"])

	assert.Equal(t, "session_start", entries[1]["type"])
	assert.Equal(t, "sess-1", entries[1]["session_id"])
	assert.Equal(t, "what is rain", entries[1]["query"])
	assert.EqualValues(t, 2, entries[1]["planned_rounds"])

	assert.Equal(t, "round", entries[2]["type"])
	assert.EqualValues(t, 1, entries[2]["round"])
	assert.EqualValues(t, 1, entries[2]["selected_index"])
	assert.Equal(t, "clearer", entries[2]["rationale"])

	assert.Equal(t, "final", entries[3]["type"])
	assert.Equal(t, "second take", entries[3]["final_response"])
	assert.EqualValues(t, 1, entries[3]["completed_rounds"])
	assert.Equal(t, false, entries[3]["truncated"])
}

func TestLoggerCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/logs"
	l, err := New(dir, Config{Provider: "openai", Model: "gpt-test"})
	require.NoError(t, err)
	defer l.Close()

	_, err = os.Stat(l.Path())
	assert.NoError(t, err)
}

func TestLoggerUniqueFilenames(t *testing.T) {
	dir := t.TempDir()
	a, err := New(dir, Config{})
	require.NoError(t, err)
	defer a.Close()
	b, err := New(dir, Config{})
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Path(), b.Path())
}

func TestLoggerTruncatedFinal(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, Config{})
	require.NoError(t, err)

	require.NoError(t, l.LogFinal("sess-2", "partial answer", 1, true))
	require.NoError(t, l.Close())

	entries := readEntries(t, l.Path())
	require.Len(t, entries, 2)
	assert.Equal(t, true, entries[1]["truncated"])
}
