package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordwise/pkg/models"
)

func TestLoadVocabulary(t *testing.T) {
	input := `{
		"metadata": {"total_words": 4, "levels": ["A1", "B2"], "description": "test"},
		"vocabulary": [
			{"english": "apple", "chinese": "苹果", "pos": "n.", "level": "A1", "difficulty_score": 12},
			{"english": " apple ", "chinese": "重复", "pos": "n.", "level": "A1", "difficulty_score": 12},
			{"english": "abandon", "chinese": "放弃", "pos": "v.", "level": "b2", "difficulty_score": 61.5},
			{"english": "mystery", "chinese": "谜", "pos": "n.", "level": "Z9"},
			{"english": "", "chinese": "空", "level": "A1"}
		]
	}`

	items, err := LoadVocabulary(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.Item{
		Kind: models.KindVocabulary, Source: "apple", Target: "苹果", PartOfSpeech: "n.", Level: models.LevelA1, DifficultyScore: 12,
	}, items[0])
	assert.Equal(t, models.LevelB2, items[1].Level)
	assert.Equal(t, 61.5, items[1].DifficultyScore)
}

func TestLoadVocabularyBareArray(t *testing.T) {
	items, err := LoadVocabulary(strings.NewReader(`[{"english":"cat","chinese":"猫","level":"A1"}]`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "cat", items[0].Source)
}

func TestLoadVocabularyRejectsGarbage(t *testing.T) {
	_, err := LoadVocabulary(strings.NewReader(`{"vocabulary": 3}`))
	assert.Error(t, err)
}

func TestLoadPhrases(t *testing.T) {
	input := `{
		"title": "C1 phrases",
		"source": "book",
		"total_pages": 2,
		"phrases": {
			"page_2": [{"english": "in spite of", "chinese": "尽管"}],
			"page_1": [{"english": "look after", "chinese": "照顾"}, {"english": "look after", "chinese": "重复"}]
		}
	}`

	items, err := LoadPhrases(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "look after", items[0].Source)
	assert.Equal(t, "in spite of", items[1].Source)
	for _, item := range items {
		assert.Equal(t, models.KindPhrase, item.Kind)
		assert.Equal(t, models.LevelC1, item.Level)
		assert.Equal(t, PhraseDifficulty(item.Source), item.DifficultyScore)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"english":"by and large","chinese":"总的来说","difficulty_score":40}]`), 0o644))

	items, err := LoadFile(path, models.KindPhrase)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 40.0, items[0].DifficultyScore)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"), models.KindVocabulary)
	assert.Error(t, err)
}

func TestPhraseDifficulty(t *testing.T) {
	tests := []struct {
		phrase string
		want   float64
	}{
		// 2 words*10 + 10 chars
		{"look after", 30},
		// 3*10 + 11 + "of" 5
		{"in spite of", 46},
		// 2*10 + 12 + "ing" 3
		{"keep running", 35},
		// 2*10 + 9 + "to" 5 + "ed" 3
		{"tended to", 37},
		{strings.Repeat("word ", 20), 100},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			assert.Equal(t, tt.want, PhraseDifficulty(tt.phrase))
		})
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(
		models.Item{Source: "apple", Target: "苹果", Level: models.LevelA1, DifficultyScore: 10},
		models.Item{Kind: models.KindVocabulary, Source: "novel", Target: "小说", Level: models.LevelB1, DifficultyScore: 45},
		models.Item{Kind: models.KindPhrase, Source: "look after", Target: "照顾", Level: models.LevelC1, DifficultyScore: 30},
	)

	all, err := m.GetAll(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	b1, err := m.GetByLevel(ctx, models.KindVocabulary, models.LevelB1)
	require.NoError(t, err)
	require.Len(t, b1, 1)
	assert.Equal(t, "novel", b1[0].Source)

	ranged, err := m.GetByDifficultyRange(ctx, models.KindPhrase, 0, 30)
	require.NoError(t, err)
	assert.Len(t, ranged, 1)

	m.Reset(models.KindPhrase)
	phrases, err := m.GetAll(ctx, models.KindPhrase)
	require.NoError(t, err)
	assert.Empty(t, phrases)
}

type countingStore struct {
	*Memory
	calls int
}

func (s *countingStore) GetAll(ctx context.Context, kind models.Kind) ([]models.Item, error) {
	s.calls++
	return s.Memory.GetAll(ctx, kind)
}

func TestCacheReadsThrough(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: NewMemory(
		models.Item{Source: "apple", Target: "苹果", Level: models.LevelA1},
		models.Item{Source: "bread", Target: "面包", Level: models.LevelA1},
	)}
	c, err := NewCache(store, 100, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	first, err := c.GetAll(ctx, models.KindVocabulary)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// callers may reorder what they get back
	first[0], first[1] = first[1], first[0]

	second, err := c.GetAll(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Equal(t, "apple", second[0].Source)
	assert.Equal(t, 1, store.calls)

	store.Add(models.Item{Source: "cheese", Target: "奶酪", Level: models.LevelA2})
	c.Invalidate()

	third, err := c.GetAll(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Len(t, third, 3)
	assert.Equal(t, 2, store.calls)
}
