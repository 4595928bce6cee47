package corpus

import (
	"context"
	"sync"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/pkg/models"
)

// Memory is an in-process corpus. Tests across packages use it in place of the database.
type Memory struct {
	mu    sync.RWMutex
	items map[models.Kind][]models.Item
}

var _ database.CorpusStore = (*Memory)(nil)

// NewMemory creates a corpus holding items
func NewMemory(items ...models.Item) *Memory {
	m := &Memory{items: make(map[models.Kind][]models.Item)}
	m.Add(items...)
	return m
}

// Add appends items to the corpus of their kind
func (m *Memory) Add(items ...models.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		if item.Kind == "" {
			item.Kind = models.KindVocabulary
		}
		m.items[item.Kind] = append(m.items[item.Kind], item)
	}
}

// Reset removes every item of a kind
func (m *Memory) Reset(kind models.Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, kind)
}

func (m *Memory) GetAll(_ context.Context, kind models.Kind) ([]models.Item, error) {
	return m.filter(kind, func(models.Item) bool { return true }), nil
}

func (m *Memory) GetByLevel(_ context.Context, kind models.Kind, level models.Level) ([]models.Item, error) {
	return m.filter(kind, func(i models.Item) bool { return i.Level == level }), nil
}

func (m *Memory) GetByDifficultyRange(_ context.Context, kind models.Kind, min, max float64) ([]models.Item, error) {
	return m.filter(kind, func(i models.Item) bool {
		return i.DifficultyScore >= min && i.DifficultyScore <= max
	}), nil
}

func (m *Memory) filter(kind models.Kind, keep func(models.Item) bool) []models.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Item{}
	for _, item := range m.items[kind] {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
