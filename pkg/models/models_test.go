package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel(" b2 ")
	require.NoError(t, err)
	assert.Equal(t, LevelB2, l)

	_, err = ParseLevel("C2")
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"": KindVocabulary, "words": KindVocabulary, "Phrases": KindPhrase} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("idioms")
	assert.Error(t, err)
}

func TestParseModes(t *testing.T) {
	m, err := ParseStudyMode("zh-en")
	require.NoError(t, err)
	assert.Equal(t, StudyTargetToSource, m)

	d, err := ParseDifficultyMode("")
	require.NoError(t, err)
	assert.Equal(t, DifficultyAuto, d)

	_, err = ParseDifficultyMode("nightmare")
	assert.Error(t, err)
}

func TestDifficultyFilters(t *testing.T) {
	assert.Equal(t, []Level{LevelA1, LevelA2}, DifficultyBeginner.LevelFilter())
	assert.Equal(t, []Level{LevelB1, LevelB2}, DifficultyExpert.LevelFilter())
	assert.Equal(t, []Level{LevelC1}, DifficultyHell.LevelFilter())
	assert.Nil(t, DifficultyCustom.LevelFilter())
	assert.Nil(t, DifficultyAuto.LevelFilter())

	min, max, ok := DifficultyExpert.ScoreBand()
	assert.True(t, ok)
	assert.Equal(t, 30.0, min)
	assert.Equal(t, 60.0, max)
	_, _, ok = DifficultyAuto.ScoreBand()
	assert.False(t, ok)
}

func TestItemDirections(t *testing.T) {
	it := Item{Source: "apple", Target: "苹果"}
	assert.Equal(t, "苹果", it.Answer(DirectionSourceToTarget))
	assert.Equal(t, "apple", it.Prompt(DirectionSourceToTarget))
	assert.Equal(t, "apple", it.Answer(DirectionTargetToSource))
	assert.Equal(t, "苹果", it.Prompt(DirectionTargetToSource))
}

func TestItemStatAccuracyNeverDrifts(t *testing.T) {
	var s ItemStat
	at := time.Now()
	for i := 0; i < 97; i++ {
		s.Record(i%3 != 0, at)
		assert.Equal(t, s.TotalAttempts, s.CorrectAttempts+s.WrongAttempts)
		assert.Equal(t, float64(s.CorrectAttempts)/float64(s.TotalAttempts)*100, s.Accuracy)
	}
	assert.Equal(t, 97, s.TotalAttempts)
	assert.Equal(t, at, s.LastAttempted)
}

func TestLevelStatAndAggregate(t *testing.T) {
	var l LevelStat
	l.Record(true, time.Now())
	l.Record(false, time.Now())
	assert.Equal(t, 50.0, l.Accuracy)

	var a AggregateStats
	a.AddSession(20, 15)
	a.AddSession(10, 3)
	assert.Equal(t, 2, a.TotalSessions)
	assert.Equal(t, 30, a.TotalQuestions)
	assert.Equal(t, 60.0, a.AverageAccuracy)

	assert.Zero(t, Accuracy(0, 0))
}
