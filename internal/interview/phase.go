package interview

import (
	"encoding/json"
	"fmt"
)

// Phase is the single mutable "where are we" value of a session. Setup is the
// initial state, Feedback the terminal one; everything in between is an active
// interview subphase.
type Phase int

const (
	// PhaseSetup: role/tech-stack selection, no session exists yet.
	PhaseSetup Phase = iota
	// PhaseAwaitingAIQuestion: a question-generation request is in flight.
	PhaseAwaitingAIQuestion
	// PhaseUserTurn: the candidate may type an answer or start listening.
	PhaseUserTurn
	// PhaseListening: a one-shot speech capture is outstanding.
	PhaseListening
	// PhaseSubmittingAnswer: the updated transcript is being persisted and the
	// next question requested.
	PhaseSubmittingAnswer
	// PhaseEnding: closing message appended, feedback generation in flight.
	PhaseEnding
	// PhaseFeedback: terminal; only Restart leaves it.
	PhaseFeedback
)

var phaseNames = map[Phase]string{
	PhaseSetup:              "setup",
	PhaseAwaitingAIQuestion: "awaiting_ai_question",
	PhaseUserTurn:           "user_turn",
	PhaseListening:          "listening",
	PhaseSubmittingAnswer:   "submitting_answer",
	PhaseEnding:             "ending",
	PhaseFeedback:           "feedback",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return "unknown"
}

// Active reports whether p is one of the in-interview subphases.
func (p Phase) Active() bool {
	switch p {
	case PhaseAwaitingAIQuestion, PhaseUserTurn, PhaseListening, PhaseSubmittingAnswer, PhaseEnding:
		return true
	}
	return false
}

// MarshalJSON renders the phase by name so API clients never see raw ints.
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON maps a phase name back through phaseNames, the inverse of
// MarshalJSON.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for phase, n := range phaseNames {
		if n == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}
