package core

import "testing"

func newTestRound(number, selected int, texts ...string) Round {
	candidates := make([]Candidate, 0, len(texts))
	for i, text := range texts {
		prov := ProvenanceAlternative
		if i == 0 {
			prov = ProvenanceInitial
		}
		candidates = append(candidates, Candidate{Text: text, Provenance: prov})
	}
	return Round{
		Number:        number,
		Candidates:    candidates,
		SelectedIndex: selected,
		Rationale:     "test rationale",
	}
}

func TestNewSession(t *testing.T) {
	initial := Candidate{Text: "scattering of sunlight", Temperature: 0.7, Provenance: ProvenanceInitial}
	s := NewSession("why is the sky blue", initial, 3)

	if s.ID == "" {
		t.Error("session ID should be generated")
	}
	if s.Query != "why is the sky blue" {
		t.Errorf("Query = %q", s.Query)
	}
	if s.PlannedRounds != 3 {
		t.Errorf("PlannedRounds = %d, want 3", s.PlannedRounds)
	}
	if s.Initial.Text != "scattering of sunlight" {
		t.Errorf("Initial.Text = %q", s.Initial.Text)
	}
	if s.Truncated {
		t.Error("new session should not be truncated")
	}
}

func TestSessionIDsUnique(t *testing.T) {
	initial := Candidate{Text: "r"}
	a := NewSession("q", initial, 1)
	b := NewSession("q", initial, 1)
	if a.ID == b.ID {
		t.Errorf("two sessions share ID %q", a.ID)
	}
}

func TestCurrentBestNoRounds(t *testing.T) {
	s := NewSession("q", Candidate{Text: "the initial answer", Provenance: ProvenanceInitial}, 3)

	best := s.CurrentBest()
	if best.Text != "the initial answer" {
		t.Errorf("CurrentBest().Text = %q, want initial", best.Text)
	}
	if best.Provenance != ProvenanceInitial {
		t.Errorf("Provenance = %q, want %q", best.Provenance, ProvenanceInitial)
	}
}

func TestCurrentBestTracksSelection(t *testing.T) {
	s := NewSession("q", Candidate{Text: "initial"}, 2)

	s.AppendRound(newTestRound(1, 2, "initial", "alt one", "alt two"))
	if got := s.CurrentBest().Text; got != "alt two" {
		t.Errorf("after round 1, CurrentBest = %q, want %q", got, "alt two")
	}

	s.AppendRound(newTestRound(2, 0, "alt two", "alt three"))
	if got := s.CurrentBest().Text; got != "alt two" {
		t.Errorf("after round 2, CurrentBest = %q, want %q", got, "alt two")
	}
}

func TestRoundSelected(t *testing.T) {
	r := newTestRound(1, 1, "baseline", "picked", "other")
	if got := r.Selected().Text; got != "picked" {
		t.Errorf("Selected().Text = %q, want %q", got, "picked")
	}
}

func TestCompletedRounds(t *testing.T) {
	s := NewSession("q", Candidate{Text: "initial"}, 3)
	if s.CompletedRounds() != 0 {
		t.Errorf("CompletedRounds = %d, want 0", s.CompletedRounds())
	}
	s.AppendRound(newTestRound(1, 0, "initial", "alt"))
	s.AppendRound(newTestRound(2, 1, "initial", "alt"))
	if s.CompletedRounds() != 2 {
		t.Errorf("CompletedRounds = %d, want 2", s.CompletedRounds())
	}
}
