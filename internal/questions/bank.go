package questions

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paircade/couples-tournament/internal/models"
)

// Question is one entry in the question bank.
type Question struct {
	Text          string         `yaml:"text"`
	Variant       models.Variant `yaml:"variant"`
	Options       []string       `yaml:"options,omitempty"`
	AnswerForBoth bool           `yaml:"answerForBoth,omitempty"`
}

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

// Bank hands out questions for rounds where the host did not write their
// own. Draws avoid repeats until the bank is exhausted, then recycle.
type Bank struct {
	mu        sync.Mutex
	questions []Question
	used      map[int]bool
	rng       *rand.Rand
}

// NewBank builds a bank from an explicit question list.
func NewBank(qs []Question) *Bank {
	return &Bank{
		questions: qs,
		used:      make(map[int]bool),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// LoadBank reads a YAML question file.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse question bank %s: %w", path, err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("question bank %s is empty", path)
	}
	for i, q := range f.Questions {
		if q.Text == "" {
			return nil, fmt.Errorf("question %d in %s has no text", i, path)
		}
		if !models.ValidVariant(q.Variant) {
			return nil, fmt.Errorf("question %d in %s has unknown variant %q", i, path, q.Variant)
		}
		if q.Variant == models.VariantMultipleChoice && len(q.Options) < 2 {
			return nil, fmt.Errorf("question %d in %s: multiple_choice needs at least two options", i, path)
		}
	}
	return NewBank(f.Questions), nil
}

// DefaultBank returns the built-in question set used when no bank file is
// configured.
func DefaultBank() *Bank {
	return NewBank([]Question{
		{Text: "What would your partner say is their dream vacation?", Variant: models.VariantOpenEnded},
		{Text: "What is your partner's most annoying habit?", Variant: models.VariantOpenEnded},
		{Text: "What was the first meal you cooked together?", Variant: models.VariantOpenEnded, AnswerForBoth: true},
		{Text: "Who said 'I love you' first?", Variant: models.VariantPoolSelection},
		{Text: "Who is more likely to forget an anniversary?", Variant: models.VariantPoolSelection},
		{Text: "Would your partner rather stay in or go out on a Friday night?", Variant: models.VariantBinary, Options: []string{"Stay in", "Go out"}},
		{Text: "Does your partner snore?", Variant: models.VariantBinary},
		{
			Text:    "Which of these would your partner grab first in a fire?",
			Variant: models.VariantMultipleChoice,
			Options: []string{"Phone", "Photo album", "Laptop", "The pet"},
		},
		{
			Text:    "What is your partner's go-to karaoke genre?",
			Variant: models.VariantMultipleChoice,
			Options: []string{"Power ballads", "Pop", "Rock", "They would never sing"},
		},
	})
}

// Draw returns a question, preferring ones not yet handed out. With a
// non-empty variant only matching questions are considered.
func (b *Bank) Draw(variant models.Variant) (*Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	candidates := b.candidateIdx(variant, true)
	if len(candidates) == 0 {
		// Everything of this variant has been used; recycle.
		candidates = b.candidateIdx(variant, false)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no questions available for variant %q", variant)
	}
	idx := candidates[b.rng.Intn(len(candidates))]
	b.used[idx] = true
	q := b.questions[idx]
	return &q, nil
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.questions)
}

func (b *Bank) candidateIdx(variant models.Variant, skipUsed bool) []int {
	var out []int
	for i, q := range b.questions {
		if variant != "" && q.Variant != variant {
			continue
		}
		if skipUsed && b.used[i] {
			continue
		}
		out = append(out, i)
	}
	return out
}
