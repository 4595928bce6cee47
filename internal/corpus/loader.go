package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/example/wordwise/pkg/models"
)

type rawItem struct {
	English         string   `json:"english"`
	Chinese         string   `json:"chinese"`
	POS             string   `json:"pos"`
	Level           string   `json:"level"`
	DifficultyScore *float64 `json:"difficulty_score"`
}

type vocabularyFile struct {
	Metadata struct {
		TotalWords  int      `json:"total_words"`
		Levels      []string `json:"levels"`
		Description string   `json:"description"`
	} `json:"metadata"`
	Vocabulary []rawItem `json:"vocabulary"`
}

type phraseFile struct {
	Title      string               `json:"title"`
	Source     string               `json:"source"`
	TotalPages int                  `json:"total_pages"`
	Phrases    map[string][]rawItem `json:"phrases"`
}

// LoadFile reads a corpus JSON file of the given kind
func LoadFile(path string, kind models.Kind) ([]models.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer f.Close()

	if kind == models.KindPhrase {
		return LoadPhrases(f)
	}
	return LoadVocabulary(f)
}

// LoadVocabulary parses {metadata, vocabulary:[...]} or a bare array of words.
// Words with an unknown level or missing text are dropped; duplicates keep the first entry.
func LoadVocabulary(r io.Reader) ([]models.Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	var raw []rawItem
	if isArray(data) {
		err = json.Unmarshal(data, &raw)
	} else {
		var file vocabularyFile
		err = json.Unmarshal(data, &file)
		raw = file.Vocabulary
	}
	if err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}

	items := make([]models.Item, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, w := range raw {
		level, err := models.ParseLevel(w.Level)
		if err != nil {
			continue
		}
		item, ok := toItem(w, models.KindVocabulary, level, seen)
		if !ok {
			continue
		}
		if w.DifficultyScore != nil {
			item.DifficultyScore = *w.DifficultyScore
		}
		items = append(items, item)
	}
	return items, nil
}

// LoadPhrases parses the paged phrase file or a bare array of phrases.
// Phrases are level C1 and scored with PhraseDifficulty unless the file carries a score.
func LoadPhrases(r io.Reader) ([]models.Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read phrases: %w", err)
	}

	var raw []rawItem
	if isArray(data) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode phrases: %w", err)
		}
	} else {
		var file phraseFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decode phrases: %w", err)
		}
		pages := make([]string, 0, len(file.Phrases))
		for page := range file.Phrases {
			pages = append(pages, page)
		}
		sort.Strings(pages)
		for _, page := range pages {
			raw = append(raw, file.Phrases[page]...)
		}
	}

	items := make([]models.Item, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, p := range raw {
		level := models.LevelC1
		if l, err := models.ParseLevel(p.Level); err == nil {
			level = l
		}
		item, ok := toItem(p, models.KindPhrase, level, seen)
		if !ok {
			continue
		}
		if p.DifficultyScore != nil {
			item.DifficultyScore = *p.DifficultyScore
		} else {
			item.DifficultyScore = PhraseDifficulty(item.Source)
		}
		items = append(items, item)
	}
	return items, nil
}

func toItem(w rawItem, kind models.Kind, level models.Level, seen map[string]bool) (models.Item, bool) {
	source := strings.TrimSpace(w.English)
	target := strings.TrimSpace(w.Chinese)
	if source == "" || target == "" || seen[source] {
		return models.Item{}, false
	}
	seen[source] = true
	return models.Item{
		Kind:         kind,
		Source:       source,
		Target:       target,
		PartOfSpeech: strings.TrimSpace(w.POS),
		Level:        level,
	}, true
}

func isArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}
