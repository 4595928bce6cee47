package quiz

import (
	"context"
	"sort"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/pkg/models"
)

// fakeStats is an in-memory StatsStore. failOn makes the named method return the error.
type fakeStats struct {
	itemStats   map[string]models.ItemStat
	levelStats  map[string]models.LevelStat
	wrong       map[models.Kind][]models.Item
	weak        map[models.Kind][]models.Item
	aggregates  map[models.Kind]models.AggregateStats
	checkpoints map[models.Kind]models.Checkpoint
	results     []models.SessionResult
	failOn      map[string]error
}

var _ database.StatsStore = (*fakeStats)(nil)

func newFakeStats() *fakeStats {
	return &fakeStats{
		itemStats:   map[string]models.ItemStat{},
		levelStats:  map[string]models.LevelStat{},
		wrong:       map[models.Kind][]models.Item{},
		weak:        map[models.Kind][]models.Item{},
		aggregates:  map[models.Kind]models.AggregateStats{},
		checkpoints: map[models.Kind]models.Checkpoint{},
		failOn:      map[string]error{},
	}
}

func (f *fakeStats) fail(op string) error {
	return f.failOn[op]
}

func statKey(kind models.Kind, key string) string {
	return string(kind) + "|" + key
}

func (f *fakeStats) GetItemStat(_ context.Context, kind models.Kind, key string) (*models.ItemStat, error) {
	if err := f.fail("GetItemStat"); err != nil {
		return nil, err
	}
	s, ok := f.itemStats[statKey(kind, key)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeStats) ListItemStats(_ context.Context, kind models.Kind) ([]models.ItemStat, error) {
	out := []models.ItemStat{}
	for _, s := range f.itemStats {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemKey < out[j].ItemKey })
	return out, nil
}

func (f *fakeStats) PutItemStat(_ context.Context, stat models.ItemStat) error {
	if err := f.fail("PutItemStat"); err != nil {
		return err
	}
	f.itemStats[statKey(stat.Kind, stat.ItemKey)] = stat
	return nil
}

func (f *fakeStats) GetLevelStat(_ context.Context, kind models.Kind, level models.Level) (*models.LevelStat, error) {
	s, ok := f.levelStats[statKey(kind, string(level))]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeStats) ListLevelStats(_ context.Context, kind models.Kind) ([]models.LevelStat, error) {
	out := []models.LevelStat{}
	for _, s := range f.levelStats {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (f *fakeStats) PutLevelStat(_ context.Context, stat models.LevelStat) error {
	if err := f.fail("PutLevelStat"); err != nil {
		return err
	}
	f.levelStats[statKey(stat.Kind, string(stat.Level))] = stat
	return nil
}

func (f *fakeStats) GetWrongSet(_ context.Context, kind models.Kind) ([]models.Item, error) {
	return append([]models.Item{}, f.wrong[kind]...), nil
}

func (f *fakeStats) AddWrong(_ context.Context, item models.Item) error {
	if err := f.fail("AddWrong"); err != nil {
		return err
	}
	f.wrong[item.Kind] = addUnique(f.wrong[item.Kind], item)
	return nil
}

func (f *fakeStats) RemoveWrong(_ context.Context, item models.Item) error {
	if err := f.fail("RemoveWrong"); err != nil {
		return err
	}
	kept := []models.Item{}
	for _, w := range f.wrong[item.Kind] {
		if w.Key() != item.Key() {
			kept = append(kept, w)
		}
	}
	f.wrong[item.Kind] = kept
	return nil
}

func (f *fakeStats) GetWeakItems(_ context.Context, kind models.Kind) ([]models.Item, error) {
	return append([]models.Item{}, f.weak[kind]...), nil
}

func (f *fakeStats) AddWeakItems(_ context.Context, items []models.Item) error {
	if err := f.fail("AddWeakItems"); err != nil {
		return err
	}
	for _, item := range items {
		f.weak[item.Kind] = addUnique(f.weak[item.Kind], item)
	}
	return nil
}

func (f *fakeStats) GetAggregateStats(_ context.Context, kind models.Kind) (models.AggregateStats, error) {
	agg, ok := f.aggregates[kind]
	if !ok {
		agg = models.AggregateStats{Kind: kind}
	}
	return agg, nil
}

func (f *fakeStats) PutAggregateStats(_ context.Context, stats models.AggregateStats) error {
	if err := f.fail("PutAggregateStats"); err != nil {
		return err
	}
	f.aggregates[stats.Kind] = stats
	return nil
}

func (f *fakeStats) GetCheckpoint(_ context.Context, kind models.Kind) (*models.Checkpoint, error) {
	cp, ok := f.checkpoints[kind]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

func (f *fakeStats) SaveCheckpoint(_ context.Context, cp models.Checkpoint) error {
	if err := f.fail("SaveCheckpoint"); err != nil {
		return err
	}
	f.checkpoints[cp.Kind] = cp
	return nil
}

func (f *fakeStats) ClearCheckpoint(_ context.Context, kind models.Kind) error {
	delete(f.checkpoints, kind)
	return nil
}

func (f *fakeStats) SaveSessionResult(_ context.Context, result models.SessionResult) error {
	f.results = append(f.results, result)
	return nil
}

func (f *fakeStats) ListSessionResults(_ context.Context, kind models.Kind, limit int) ([]models.SessionResult, error) {
	out := []models.SessionResult{}
	for _, r := range f.results {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStats) ResetKind(_ context.Context, kind models.Kind) error {
	delete(f.wrong, kind)
	delete(f.weak, kind)
	delete(f.aggregates, kind)
	return nil
}

// WithinTx restores a snapshot when fn fails
func (f *fakeStats) WithinTx(_ context.Context, fn func(tx database.StatsStore) error) error {
	snap := f.snapshot()
	if err := fn(f); err != nil {
		*f = *snap
		return err
	}
	return nil
}

func (f *fakeStats) snapshot() *fakeStats {
	c := newFakeStats()
	for k, v := range f.itemStats {
		c.itemStats[k] = v
	}
	for k, v := range f.levelStats {
		c.levelStats[k] = v
	}
	for k, v := range f.wrong {
		c.wrong[k] = append([]models.Item{}, v...)
	}
	for k, v := range f.weak {
		c.weak[k] = append([]models.Item{}, v...)
	}
	for k, v := range f.aggregates {
		c.aggregates[k] = v
	}
	for k, v := range f.checkpoints {
		c.checkpoints[k] = v
	}
	c.results = append([]models.SessionResult{}, f.results...)
	c.failOn = f.failOn
	return c
}

func addUnique(items []models.Item, item models.Item) []models.Item {
	for _, it := range items {
		if it.Key() == item.Key() {
			return items
		}
	}
	return append(items, item)
}
