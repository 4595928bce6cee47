package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/pkg/models"
)

const (
	// DefaultOptionCount is the number of choices shown per question
	DefaultOptionCount = 4

	maxDistractorAttempts = 100
)

// OptionGenerator builds multiple-choice answer sets
type OptionGenerator struct {
	corpus database.CorpusStore
	rnd    *lockedRand
	log    *slog.Logger
}

// NewOptionGenerator creates a generator. A nil rnd is seeded from the clock.
func NewOptionGenerator(corpus database.CorpusStore, rnd *rand.Rand, log *slog.Logger) *OptionGenerator {
	return newOptionGenerator(corpus, newLockedRand(rnd), log)
}

func newOptionGenerator(corpus database.CorpusStore, rnd *lockedRand, log *slog.Logger) *OptionGenerator {
	if log == nil {
		log = slog.Default()
	}
	return &OptionGenerator{corpus: corpus, rnd: rnd, log: log}
}

// Generate returns up to count shuffled options containing the correct answer exactly once.
// Distractors come from the whole corpus of the item's kind. When the corpus lacks
// enough distinct values the list is shorter than count.
func (g *OptionGenerator) Generate(ctx context.Context, item models.Item, dir models.Direction, count int) ([]string, error) {
	if count <= 0 {
		count = DefaultOptionCount
	}

	kind := item.Kind
	if kind == "" {
		kind = models.KindVocabulary
	}
	all, err := g.corpus.GetAll(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load corpus for options: %w", err)
	}

	correct := item.Answer(dir)
	options := make([]string, 0, count)
	options = append(options, correct)
	seen := map[string]bool{correct: true}

	for attempts := 0; len(options) < count && attempts < maxDistractorAttempts && len(all) > 0; attempts++ {
		candidate := all[g.rnd.Intn(len(all))].Answer(dir)
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		options = append(options, candidate)
	}

	if len(options) < count {
		g.log.Warn("option shortfall",
			"item", item.Key(),
			"wanted", count,
			"got", len(options),
		)
	}

	g.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options, nil
}
