package questions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paircade/couples-tournament/internal/models"
)

func TestDefaultBankIsValid(t *testing.T) {
	b := DefaultBank()
	require.Greater(t, b.Len(), 0)

	for _, variant := range []models.Variant{
		models.VariantOpenEnded,
		models.VariantMultipleChoice,
		models.VariantBinary,
		models.VariantPoolSelection,
	} {
		q, err := b.Draw(variant)
		require.NoError(t, err, "default bank should cover variant %s", variant)
		assert.Equal(t, variant, q.Variant)
		assert.NotEmpty(t, q.Text)
	}
}

func TestDrawPrefersUnusedThenRecycles(t *testing.T) {
	b := NewBank([]Question{
		{Text: "one", Variant: models.VariantOpenEnded},
		{Text: "two", Variant: models.VariantOpenEnded},
	})

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		q, err := b.Draw(models.VariantOpenEnded)
		require.NoError(t, err)
		assert.False(t, seen[q.Text], "question %q repeated before exhaustion", q.Text)
		seen[q.Text] = true
	}

	// Exhausted: further draws recycle instead of failing.
	q, err := b.Draw(models.VariantOpenEnded)
	require.NoError(t, err)
	assert.True(t, seen[q.Text])
}

func TestDrawUnknownVariantFails(t *testing.T) {
	b := NewBank([]Question{{Text: "one", Variant: models.VariantOpenEnded}})
	_, err := b.Draw(models.VariantBinary)
	assert.Error(t, err)
}

func TestLoadBank(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	content := `questions:
  - text: "Who cooks more often?"
    variant: pool_selection
  - text: "Pick your partner's comfort food"
    variant: multiple_choice
    options: ["Pizza", "Ramen", "Ice cream"]
  - text: "What do you each order at a diner?"
    variant: open_ended
    answerForBoth: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	b, err := LoadBank(path)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())

	q, err := b.Draw(models.VariantMultipleChoice)
	require.NoError(t, err)
	assert.Len(t, q.Options, 3)
}

func TestLoadBankValidation(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"empty":        `questions: []`,
		"no text":      "questions:\n  - variant: open_ended\n",
		"bad variant":  "questions:\n  - text: q\n    variant: trivia\n",
		"too few opts": "questions:\n  - text: q\n    variant: multiple_choice\n    options: [\"only\"]\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := LoadBank(path)
		assert.Error(t, err, "case %q should fail validation", name)
	}

	_, err := LoadBank(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
