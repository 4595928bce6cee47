package quiz

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/pkg/models"
)

// AllItems requests every item matching the mode's filter
const AllItems = -1

// PoolRequest describes a pool to build
type PoolRequest struct {
	Kind  models.Kind
	Mode  models.DifficultyMode
	Count int
	// Levels is the external level filter applied in custom mode; empty means every level
	Levels []models.Level
}

// StatsLookup returns the stat of an item, or nil if it was never attempted
type StatsLookup func(models.Item) *models.ItemStat

// Selector builds question pools biased toward items and levels the learner struggles with
type Selector struct {
	corpus database.CorpusStore
	stats  database.StatsStore
	rnd    *lockedRand
	now    func() time.Time
}

// NewSelector creates a selector. A nil rnd is seeded from the clock.
func NewSelector(corpus database.CorpusStore, stats database.StatsStore, rnd *rand.Rand) *Selector {
	return newSelector(corpus, stats, newLockedRand(rnd), time.Now)
}

func newSelector(corpus database.CorpusStore, stats database.StatsStore, rnd *lockedRand, now func() time.Time) *Selector {
	return &Selector{corpus: corpus, stats: stats, rnd: rnd, now: now}
}

// SelectPool returns up to req.Count items in random order.
// An empty result means there is nothing to quiz on; it is not an error.
func (s *Selector) SelectPool(ctx context.Context, req PoolRequest) ([]models.Item, error) {
	if req.Count == 0 || req.Count < AllItems {
		return []models.Item{}, nil
	}
	if req.Mode == models.DifficultyAuto {
		return s.autoPool(ctx, req.Kind, req.Count)
	}

	candidates, err := s.filtered(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Count == AllItems || req.Count >= len(candidates) {
		s.shuffle(candidates)
		return candidates, nil
	}

	lookup, err := s.Lookup(ctx, req.Kind)
	if err != nil {
		return nil, err
	}
	picked := s.weightedSample(candidates, lookup, req.Count)
	s.shuffle(picked)
	return picked, nil
}

// PickWeighted draws one item using the per-item weights
func (s *Selector) PickWeighted(items []models.Item, lookup StatsLookup) (models.Item, error) {
	if len(items) == 0 {
		return models.Item{}, ErrEmptyPool
	}
	picked := s.weightedSample(items, lookup, 1)
	return picked[0], nil
}

// Lookup loads the learner's item stats for a kind into a StatsLookup
func (s *Selector) Lookup(ctx context.Context, kind models.Kind) (StatsLookup, error) {
	stats, err := s.stats.ListItemStats(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load item stats: %w", err)
	}
	byKey := make(map[string]*models.ItemStat, len(stats))
	for i := range stats {
		byKey[stats[i].ItemKey] = &stats[i]
	}
	return func(item models.Item) *models.ItemStat {
		return byKey[item.Key()]
	}, nil
}

// filtered applies the static filter of req.Mode
func (s *Selector) filtered(ctx context.Context, req PoolRequest) ([]models.Item, error) {
	if req.Kind == models.KindPhrase {
		if min, max, ok := req.Mode.ScoreBand(); ok {
			items, err := s.corpus.GetByDifficultyRange(ctx, req.Kind, min, max)
			if err != nil {
				return nil, fmt.Errorf("load phrases by difficulty: %w", err)
			}
			return items, nil
		}
	}

	levels := req.Mode.LevelFilter()
	if req.Mode == models.DifficultyCustom {
		levels = req.Levels
	}
	if len(levels) == 0 {
		items, err := s.corpus.GetAll(ctx, req.Kind)
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		return items, nil
	}

	items := []models.Item{}
	for _, level := range levels {
		byLevel, err := s.corpus.GetByLevel(ctx, req.Kind, level)
		if err != nil {
			return nil, fmt.Errorf("load level %s: %w", level, err)
		}
		items = append(items, byLevel...)
	}
	return items, nil
}

// weightedSample draws n items without replacement.
// Each draw takes r in [0, total) and walks the candidates subtracting weights until r <= 0.
func (s *Selector) weightedSample(items []models.Item, lookup StatsLookup, n int) []models.Item {
	now := s.now()
	candidates := make([]models.Item, len(items))
	copy(candidates, items)
	weights := make([]float64, len(candidates))
	for i, item := range candidates {
		var stat *models.ItemStat
		if lookup != nil {
			stat = lookup(item)
		}
		weights[i] = ItemWeight(stat, now)
	}

	if n > len(candidates) {
		n = len(candidates)
	}
	selected := make([]models.Item, 0, n)
	for len(selected) < n {
		total := 0.0
		for _, w := range weights {
			total += w
		}

		r := s.rnd.Float64() * total
		chosen := len(candidates) - 1
		for i, w := range weights {
			r -= w
			if r <= 0 {
				chosen = i
				break
			}
		}

		selected = append(selected, candidates[chosen])
		last := len(candidates) - 1
		candidates[chosen], weights[chosen] = candidates[last], weights[last]
		candidates, weights = candidates[:last], weights[:last]
	}
	return selected
}

// autoPool builds a pool weighted toward what the learner struggles with:
// weaker levels for vocabulary, score bands by average accuracy for phrases
func (s *Selector) autoPool(ctx context.Context, kind models.Kind, count int) ([]models.Item, error) {
	all, err := s.corpus.GetAll(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(all) == 0 {
		return []models.Item{}, nil
	}
	if count == AllItems {
		s.shuffle(all)
		return all, nil
	}
	if kind == models.KindPhrase {
		return s.phraseAutoPool(ctx, all, count)
	}

	levelStats, err := s.stats.ListLevelStats(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load level stats: %w", err)
	}
	if len(levelStats) == 0 {
		s.shuffle(all)
		return truncate(all, count), nil
	}

	accuracy := make(map[models.Level]float64, len(levelStats))
	for _, ls := range levelStats {
		accuracy[ls.Level] = ls.Accuracy
	}
	slots := AllocateLevelSlots(accuracy, count)

	selected := make([]models.Item, 0, count)
	used := make(map[string]bool, count)
	for _, level := range models.Levels {
		pool, err := s.corpus.GetByLevel(ctx, kind, level)
		if err != nil {
			return nil, fmt.Errorf("load level %s: %w", level, err)
		}
		selected = s.take(selected, used, pool, slots[level])
	}
	return s.pad(selected, used, all, count), nil
}

// phraseAutoPool splits the phrase corpus into the beginner, expert and hell score bands
// and fills each with its PhraseBandWeights share
func (s *Selector) phraseAutoPool(ctx context.Context, all []models.Item, count int) ([]models.Item, error) {
	stats, err := s.stats.ListItemStats(ctx, models.KindPhrase)
	if err != nil {
		return nil, fmt.Errorf("load item stats: %w", err)
	}
	if len(stats) == 0 {
		s.shuffle(all)
		return truncate(all, count), nil
	}

	sum := 0.0
	for _, st := range stats {
		sum += st.Accuracy
	}
	weights := PhraseBandWeights(sum / float64(len(stats)))
	easy := int(math.Ceil(float64(count) * weights[0]))
	medium := int(math.Ceil(float64(count) * weights[1]))
	slots := []int{easy, medium, count - easy - medium}

	selected := make([]models.Item, 0, count)
	used := make(map[string]bool, count)
	for i, mode := range phraseBands {
		min, max, _ := mode.ScoreBand()
		pool, err := s.corpus.GetByDifficultyRange(ctx, models.KindPhrase, min, max)
		if err != nil {
			return nil, fmt.Errorf("load phrases by difficulty: %w", err)
		}
		selected = s.take(selected, used, pool, slots[i])
	}
	return s.pad(selected, used, all, count), nil
}

var phraseBands = []models.DifficultyMode{models.DifficultyBeginner, models.DifficultyExpert, models.DifficultyHell}

// take appends up to n random items of pool not yet used
func (s *Selector) take(selected []models.Item, used map[string]bool, pool []models.Item, n int) []models.Item {
	s.shuffle(pool)
	taken := 0
	for _, item := range pool {
		if taken >= n {
			break
		}
		if used[item.Key()] {
			continue
		}
		used[item.Key()] = true
		selected = append(selected, item)
		taken++
	}
	return selected
}

// pad tops selected up to count from the rest of the corpus, then shuffles and truncates
func (s *Selector) pad(selected []models.Item, used map[string]bool, all []models.Item, count int) []models.Item {
	if len(selected) < count {
		remaining := make([]models.Item, 0, len(all))
		for _, item := range all {
			if !used[item.Key()] {
				remaining = append(remaining, item)
			}
		}
		s.shuffle(remaining)
		selected = append(selected, truncate(remaining, count-len(selected))...)
	}
	s.shuffle(selected)
	return truncate(selected, count)
}

// AllocateLevelSlots gives each level ceil(count * normalized LevelWeight) slots.
// Levels missing from accuracy count as accuracy 0.
func AllocateLevelSlots(accuracy map[models.Level]float64, count int) map[models.Level]int {
	weights := make(map[models.Level]float64, len(models.Levels))
	total := 0.0
	for _, level := range models.Levels {
		w := LevelWeight(accuracy[level])
		weights[level] = w
		total += w
	}

	slots := make(map[models.Level]int, len(models.Levels))
	for _, level := range models.Levels {
		slots[level] = int(math.Ceil(float64(count) * weights[level] / total))
	}
	return slots
}

// ReviewItem is an item the learner keeps getting wrong
type ReviewItem struct {
	Item models.Item     `json:"item"`
	Stat models.ItemStat `json:"stat"`
}

// NeedsReview returns items attempted at least twice, lowest accuracy first.
// Items no longer in the corpus are skipped.
func (s *Selector) NeedsReview(ctx context.Context, kind models.Kind, limit int) ([]ReviewItem, error) {
	if limit <= 0 {
		limit = 10
	}
	stats, err := s.stats.ListItemStats(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load item stats: %w", err)
	}
	all, err := s.corpus.GetAll(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	byKey := make(map[string]models.Item, len(all))
	for _, item := range all {
		byKey[item.Key()] = item
	}

	candidates := make([]models.ItemStat, 0, len(stats))
	for _, st := range stats {
		if st.TotalAttempts >= 2 {
			candidates = append(candidates, st)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Accuracy < candidates[j].Accuracy
	})

	out := make([]ReviewItem, 0, limit)
	for _, st := range candidates {
		item, ok := byKey[st.ItemKey]
		if !ok {
			continue
		}
		out = append(out, ReviewItem{Item: item, Stat: st})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Selector) shuffle(items []models.Item) {
	s.rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

func truncate(items []models.Item, n int) []models.Item {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

// ParseCount accepts a positive number, "all" for AllItems, or empty for zero (use the default)
func ParseCount(v string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return 0, nil
	case "all":
		return AllItems, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCount, v)
	}
	return n, nil
}
