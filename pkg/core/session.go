package core

import "github.com/google/uuid"

// Round is one completed cycle of alternative generation plus evaluation.
// Candidates holds the round's current-best at index 0 followed by the
// alternatives in generation order. Rounds are immutable once appended
// to a Session.
type Round struct {
	Number        int         `json:"round"`
	Candidates    []Candidate `json:"candidates"`
	SelectedIndex int         `json:"selected_index"`
	Rationale     string      `json:"rationale"`
}

// Selected returns the candidate the evaluator chose for this round.
func (r Round) Selected() Candidate {
	return r.Candidates[r.SelectedIndex]
}

// Session records one full recursive-thinking run: the query, the initial
// candidate, every completed round, and the final selection. It is owned
// by the orchestrator and mutated only by appending completed rounds.
type Session struct {
	ID            string    `json:"id"`
	Query         string    `json:"query"`
	PlannedRounds int       `json:"planned_rounds"`
	Initial       Candidate `json:"initial"`
	Rounds        []Round   `json:"rounds"`
	FinalResponse string    `json:"final_response"`
	Truncated     bool      `json:"truncated"`
}

// NewSession creates a session for a query with its initial candidate and
// the round budget fixed by the planner.
func NewSession(query string, initial Candidate, plannedRounds int) *Session {
	return &Session{
		ID:            uuid.New().String(),
		Query:         query,
		PlannedRounds: plannedRounds,
		Initial:       initial,
	}
}

// AppendRound records a completed round. The round's selection becomes the
// current-best entering the next round.
func (s *Session) AppendRound(r Round) {
	s.Rounds = append(s.Rounds, r)
}

// CurrentBest returns the candidate carried forward as the baseline for
// the next round: the latest round's selection, or the initial candidate
// when no round has completed.
func (s *Session) CurrentBest() Candidate {
	if len(s.Rounds) == 0 {
		return s.Initial
	}
	return s.Rounds[len(s.Rounds)-1].Selected()
}

// CompletedRounds returns the number of fully completed rounds.
func (s *Session) CompletedRounds() int {
	return len(s.Rounds)
}
