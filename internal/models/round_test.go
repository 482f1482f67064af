package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidVariant(t *testing.T) {
	for _, v := range []Variant{VariantOpenEnded, VariantMultipleChoice, VariantBinary, VariantPoolSelection} {
		assert.True(t, ValidVariant(v))
	}
	assert.False(t, ValidVariant("freeform"))
	assert.False(t, ValidVariant(""))
}

func TestAnswerDecodeForBoth(t *testing.T) {
	a := &Answer{Text: `{"Alice":"beach","Bob":"mountains"}`}
	m, err := a.DecodeForBoth()
	require.NoError(t, err)
	assert.Equal(t, "beach", m["Alice"])
	assert.Equal(t, "mountains", m["Bob"])

	_, err = (&Answer{Text: "just a string"}).DecodeForBoth()
	assert.Error(t, err)

	_, err = (&Answer{Text: "{}"}).DecodeForBoth()
	assert.Error(t, err, "an empty subject map covers nobody")
}

func TestRoundReopenKeepsAnswers(t *testing.T) {
	r := NewRound(1, "q", VariantOpenEnded, nil, false)
	pid := uuid.New()
	r.Answers[pid] = &Answer{Text: "hello"}
	r.Submitted[pid] = true
	r.Revealed[pid] = true
	r.Status = RoundComplete

	r.Reopen()
	assert.Equal(t, RoundAnswering, r.Status)
	assert.Empty(t, r.Submitted)
	assert.Empty(t, r.Revealed)
	require.Contains(t, r.Answers, pid)
	assert.Equal(t, "hello", r.Answers[pid].Text)
}

func TestRoundPublicOmitsAnswers(t *testing.T) {
	r := NewRound(2, "Pick one", VariantMultipleChoice, []string{"a", "b"}, false)
	r.Answers[uuid.New()] = &Answer{Text: "secret"}

	pub := r.Public()
	assert.Equal(t, 2, pub["roundNumber"])
	assert.Equal(t, "multiple_choice", pub["variant"])
	assert.Equal(t, []string{"a", "b"}, pub["options"])
	assert.NotContains(t, pub, "answers")

	noOpts := NewRound(1, "q", VariantOpenEnded, nil, false).Public()
	assert.NotContains(t, noOpts, "options")
}
