package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Variant identifies the question style of a round.
type Variant string

const (
	VariantOpenEnded      Variant = "open_ended"
	VariantMultipleChoice Variant = "multiple_choice"
	VariantBinary         Variant = "binary"
	VariantPoolSelection  Variant = "pool_selection"
)

// ValidVariant reports whether v is one of the four supported variants.
func ValidVariant(v Variant) bool {
	switch v {
	case VariantOpenEnded, VariantMultipleChoice, VariantBinary, VariantPoolSelection:
		return true
	}
	return false
}

// RoundStatus is the coarse answering state carried on the wire.
type RoundStatus string

const (
	RoundAnswering RoundStatus = "answering"
	RoundComplete  RoundStatus = "complete"
)

// Answer is a single submission. When the round's AnswerForBoth flag is set,
// Text is itself a JSON-encoded map of subject-name -> answer-text covering
// both members of the submitting team.
type Answer struct {
	Text         string `json:"text"`
	ResponseTime int64  `json:"responseTime"` // milliseconds from roundStarted
}

// DecodeForBoth parses an answer-for-both payload into its subject map.
func (a *Answer) DecodeForBoth() (map[string]string, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(a.Text), &m); err != nil {
		return nil, fmt.Errorf("answer is not a valid subject map: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("answer subject map is empty")
	}
	return m, nil
}

// Round is one question cycle: ask -> answer -> reveal -> score.
type Round struct {
	RoundNumber   int         `json:"roundNumber"`
	RoundID       uuid.UUID   `json:"roundId"`
	Question      string      `json:"question"`
	Variant       Variant     `json:"variant"`
	Options       []string    `json:"options,omitempty"`
	AnswerForBoth bool        `json:"answerForBoth"`
	Status        RoundStatus `json:"status"`

	// Answers is keyed by the submitting player's id. Entries persist across
	// a reopen so a player who does not resubmit keeps their old answer.
	Answers map[uuid.UUID]*Answer `json:"-"`

	// Submitted tracks who has answered in the current answering phase. It
	// is cleared every time the round is (re)opened for answering.
	Submitted map[uuid.UUID]bool `json:"-"`

	// Revealed tracks which players' answers the host has shown.
	Revealed map[uuid.UUID]bool `json:"-"`
}

// NewRound builds a round in the answering state.
func NewRound(number int, question string, variant Variant, options []string, answerForBoth bool) *Round {
	id, _ := uuid.NewRandom()
	return &Round{
		RoundNumber:   number,
		RoundID:       id,
		Question:      question,
		Variant:       variant,
		Options:       options,
		AnswerForBoth: answerForBoth,
		Status:        RoundAnswering,
		Answers:       make(map[uuid.UUID]*Answer),
		Submitted:     make(map[uuid.UUID]bool),
		Revealed:      make(map[uuid.UUID]bool),
	}
}

// Reopen returns the round to the answering state and clears the
// submitted-in-current-phase set. Previously recorded answers are kept.
func (r *Round) Reopen() {
	r.Status = RoundAnswering
	r.Submitted = make(map[uuid.UUID]bool)
	r.Revealed = make(map[uuid.UUID]bool)
}

// Public returns the wire representation broadcast in roundStarted and
// snapshots. Answers are never included here; they travel in their own
// answerSubmitted / answerRevealed events.
func (r *Round) Public() map[string]interface{} {
	m := map[string]interface{}{
		"roundNumber":   r.RoundNumber,
		"roundId":       r.RoundID.String(),
		"question":      r.Question,
		"variant":       string(r.Variant),
		"answerForBoth": r.AnswerForBoth,
		"status":        string(r.Status),
	}
	if len(r.Options) > 0 {
		m["options"] = r.Options
	}
	return m
}
