package models

import (
	"fmt"
	"strings"
)

// Kind separates the vocabulary corpus from the phrase corpus
type Kind string

const (
	KindVocabulary Kind = "vocabulary"
	KindPhrase     Kind = "phrase"
)

// Kinds lists every corpus kind
var Kinds = []Kind{KindVocabulary, KindPhrase}

// ParseKind accepts the canonical names plus the plural forms used by the HTTP routes.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vocabulary", "vocab", "word", "words":
		return KindVocabulary, nil
	case "phrase", "phrases":
		return KindPhrase, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Level is a CEFR classification level
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
)

// Levels lists every level from easiest to hardest
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1}

// ParseLevel parses a level name case-insensitively
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}

// Valid reports whether l is one of Levels
func (l Level) Valid() bool {
	for _, v := range Levels {
		if v == l {
			return true
		}
	}
	return false
}

// Item is a vocabulary word or a phrase.
// Source is the English text and identifies the item within its kind.
type Item struct {
	Kind            Kind    `json:"kind,omitempty" db:"kind"`
	Source          string  `json:"source" db:"source_text"`
	Target          string  `json:"target" db:"target_text"`
	PartOfSpeech    string  `json:"pos,omitempty" db:"pos"`
	Level           Level   `json:"level" db:"level"`
	DifficultyScore float64 `json:"difficulty_score" db:"difficulty_score"`
}

// Key returns the item identity
func (i Item) Key() string {
	return i.Source
}

// Answer returns the field a learner must produce for the given direction
func (i Item) Answer(d Direction) string {
	if d == DirectionTargetToSource {
		return i.Source
	}
	return i.Target
}

// Prompt returns the field shown to the learner for the given direction
func (i Item) Prompt(d Direction) string {
	if d == DirectionTargetToSource {
		return i.Target
	}
	return i.Source
}
