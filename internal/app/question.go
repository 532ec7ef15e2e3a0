package app

import (
	"math/rand"
	"time"

	"composer-quiz/internal/domain"
)

// DefaultMaxChoices is the number of options shown when the catalog is large enough.
const DefaultMaxChoices = 4

// QuestionGenerator builds rounds from the remaining pool and the full catalog.
// It is not safe for concurrent use; each session owns one.
type QuestionGenerator struct {
	catalog    *Catalog
	rnd        *rand.Rand
	maxChoices int
}

// NewQuestionGenerator uses rnd for every random decision. A nil rnd is seeded from the clock.
// A maxChoices outside [domain.MinChoices, DefaultMaxChoices] falls back to DefaultMaxChoices.
func NewQuestionGenerator(catalog *Catalog, rnd *rand.Rand, maxChoices int) *QuestionGenerator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if maxChoices < domain.MinChoices || maxChoices > DefaultMaxChoices {
		maxChoices = DefaultMaxChoices
	}
	return &QuestionGenerator{catalog: catalog, rnd: rnd, maxChoices: maxChoices}
}

// GenerateQuestion picks the correct answer from remaining and distractors from the whole
// catalog, then shuffles them into display order. A round with fewer than two choices is
// returned as-is; callers check Round.Valid.
func (g *QuestionGenerator) GenerateQuestion(remaining []int) (domain.Round, error) {
	if len(remaining) == 0 {
		return domain.Round{}, domain.ErrInsufficientSamples
	}
	correctID := remaining[g.rnd.Intn(len(remaining))]

	candidates := make([]int, 0, g.catalog.Len())
	for _, id := range g.catalog.ids {
		if id != correctID {
			candidates = append(candidates, id)
		}
	}
	distractors := g.maxChoices - 1
	if distractors > len(candidates) {
		distractors = len(candidates)
	}
	// partial Fisher-Yates: the first n candidates become a uniform sample
	for i := 0; i < distractors; i++ {
		j := i + g.rnd.Intn(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	choices := make([]int, 0, distractors+1)
	choices = append(choices, correctID)
	choices = append(choices, candidates[:distractors]...)
	g.rnd.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	return domain.Round{ChoiceIDs: choices, CorrectID: correctID}, nil
}

// CorrectAnswerID returns the round's correct sample regardless of display order.
func CorrectAnswerID(round domain.Round) int {
	return round.CorrectID
}
