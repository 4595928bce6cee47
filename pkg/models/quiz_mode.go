package models

import (
	"fmt"
	"strings"
)

// Direction is the translation direction of a single question
type Direction string

const (
	// DirectionSourceToTarget shows the English text and expects the Chinese text
	DirectionSourceToTarget Direction = "source_to_target"
	// DirectionTargetToSource shows the Chinese text and expects the English text
	DirectionTargetToSource Direction = "target_to_source"
)

// StudyMode is the direction setting of a whole session
type StudyMode string

const (
	StudySourceToTarget StudyMode = "source_to_target"
	StudyTargetToSource StudyMode = "target_to_source"
	StudyMixed          StudyMode = "mixed"
)

// ParseStudyMode parses a study mode, defaulting to source_to_target on empty input
func ParseStudyMode(s string) (StudyMode, error) {
	switch StudyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", StudySourceToTarget, "en-zh", "english-to-chinese":
		return StudySourceToTarget, nil
	case StudyTargetToSource, "zh-en", "chinese-to-english":
		return StudyTargetToSource, nil
	case StudyMixed:
		return StudyMixed, nil
	}
	return "", fmt.Errorf("unknown study mode %q", s)
}

// DifficultyMode controls how the question pool is built
type DifficultyMode string

const (
	DifficultyAuto     DifficultyMode = "auto"
	DifficultyBeginner DifficultyMode = "beginner"
	DifficultyExpert   DifficultyMode = "expert"
	DifficultyHell     DifficultyMode = "hell"
	DifficultyCustom   DifficultyMode = "custom"
)

// ParseDifficultyMode parses a difficulty mode, defaulting to auto on empty input
func ParseDifficultyMode(s string) (DifficultyMode, error) {
	m := DifficultyMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "":
		return DifficultyAuto, nil
	case DifficultyAuto, DifficultyBeginner, DifficultyExpert, DifficultyHell, DifficultyCustom:
		return m, nil
	}
	return "", fmt.Errorf("unknown difficulty mode %q", s)
}

// LevelFilter returns the static level filter of a mode; nil means no filter.
func (m DifficultyMode) LevelFilter() []Level {
	switch m {
	case DifficultyBeginner:
		return []Level{LevelA1, LevelA2}
	case DifficultyExpert:
		return []Level{LevelB1, LevelB2}
	case DifficultyHell:
		return []Level{LevelC1}
	}
	return nil
}

// ScoreBand returns the difficulty score range used for phrases in the static modes.
func (m DifficultyMode) ScoreBand() (min, max float64, ok bool) {
	switch m {
	case DifficultyBeginner:
		return 0, 30, true
	case DifficultyExpert:
		return 30, 60, true
	case DifficultyHell:
		return 60, 100, true
	}
	return 0, 0, false
}
