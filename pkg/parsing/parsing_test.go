package parsing

import "testing"

func TestParseRoundCount(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   int
		wantOK bool
	}{
		{"bare number", "3", 3, true},
		{"number with prose", "I would suggest 4 rounds.", 4, true},
		{"first integer wins", "2 or 3 rounds", 2, true},
		{"minimum", "1", 1, true},
		{"maximum", "5", 5, true},
		{"zero out of range", "0", 0, false},
		{"too large", "7", 0, false},
		{"multi-digit out of range", "10", 0, false},
		{"no integer", "several rounds should do", 0, false},
		{"empty", "", 0, false},
		{"whitespace and newlines", "\n  3\n", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRoundCount(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParseRoundCount(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseRoundCount(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		numAlts       int
		wantIndex     int
		wantRationale string
		wantOK        bool
	}{
		{
			name:          "keep current",
			text:          "current\nThe existing answer is already complete.",
			numAlts:       3,
			wantIndex:     0,
			wantRationale: "The existing answer is already complete.",
			wantOK:        true,
		},
		{
			name:          "current case insensitive",
			text:          "Current\nStill the best.",
			numAlts:       2,
			wantIndex:     0,
			wantRationale: "Still the best.",
			wantOK:        true,
		},
		{
			name:          "pick alternative",
			text:          "2\nMore accurate and clearer.",
			numAlts:       3,
			wantIndex:     2,
			wantRationale: "More accurate and clearer.",
			wantOK:        true,
		},
		{
			name:          "label with decoration",
			text:          "Option 1.\nBetter structure.",
			numAlts:       3,
			wantIndex:     1,
			wantRationale: "Better structure.",
			wantOK:        true,
		},
		{
			name:          "multi-line rationale joined",
			text:          "3\nIt covers the edge cases\nand reads better.",
			numAlts:       3,
			wantIndex:     3,
			wantRationale: "It covers the edge cases and reads better.",
			wantOK:        true,
		},
		{
			name:    "no label at all",
			text:    "They all seem fine to me.",
			numAlts: 3,
			wantOK:  false,
		},
		{
			name:    "number out of range",
			text:    "5\nWild pick.",
			numAlts: 3,
			wantOK:  false,
		},
		{
			name:    "zero is not a valid alternative",
			text:    "0\nNeither.",
			numAlts: 3,
			wantOK:  false,
		},
		{
			name:    "empty response",
			text:    "",
			numAlts: 3,
			wantOK:  false,
		},
		{
			name:    "only whitespace",
			text:    "  \n\t\n",
			numAlts: 3,
			wantOK:  false,
		},
		{
			name:          "label without rationale",
			text:          "1",
			numAlts:       3,
			wantIndex:     1,
			wantRationale: "",
			wantOK:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, rationale, ok := ParseSelection(tt.text, tt.numAlts)
			if ok != tt.wantOK {
				t.Fatalf("ParseSelection(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if index != tt.wantIndex {
				t.Errorf("index = %d, want %d", index, tt.wantIndex)
			}
			if rationale != tt.wantRationale {
				t.Errorf("rationale = %q, want %q", rationale, tt.wantRationale)
			}
		})
	}
}
