package models

import "time"

// ItemStat holds per-item answer counters for one learner
type ItemStat struct {
	LearnerID       string    `json:"-" db:"learner_id"`
	Kind            Kind      `json:"kind" db:"kind"`
	ItemKey         string    `json:"item_key" db:"item_key"`
	TotalAttempts   int       `json:"total_attempts" db:"total_attempts"`
	CorrectAttempts int       `json:"correct_attempts" db:"correct_attempts"`
	WrongAttempts   int       `json:"wrong_attempts" db:"wrong_attempts"`
	Accuracy        float64   `json:"accuracy" db:"accuracy"`
	LastAttempted   time.Time `json:"last_attempted" db:"last_attempted"`
}

// Record counts one answer and recomputes accuracy from the counters
func (s *ItemStat) Record(correct bool, at time.Time) {
	s.TotalAttempts++
	if correct {
		s.CorrectAttempts++
	} else {
		s.WrongAttempts++
	}
	s.Accuracy = Accuracy(s.CorrectAttempts, s.TotalAttempts)
	s.LastAttempted = at
}

// LevelStat holds per-level answer counters for one learner
type LevelStat struct {
	LearnerID      string    `json:"-" db:"learner_id"`
	Kind           Kind      `json:"kind" db:"kind"`
	Level          Level     `json:"level" db:"level"`
	TotalQuestions int       `json:"total_questions" db:"total_questions"`
	CorrectAnswers int       `json:"correct_answers" db:"correct_answers"`
	Accuracy       float64   `json:"accuracy" db:"accuracy"`
	LastUpdated    time.Time `json:"last_updated" db:"last_updated"`
}

// Record counts one answer and recomputes accuracy from the counters
func (s *LevelStat) Record(correct bool, at time.Time) {
	s.TotalQuestions++
	if correct {
		s.CorrectAnswers++
	}
	s.Accuracy = Accuracy(s.CorrectAnswers, s.TotalQuestions)
	s.LastUpdated = at
}

// AggregateStats are the totals over every completed session of a kind
type AggregateStats struct {
	LearnerID       string  `json:"-" db:"learner_id"`
	Kind            Kind    `json:"kind" db:"kind"`
	TotalSessions   int     `json:"total_sessions" db:"total_sessions"`
	TotalQuestions  int     `json:"total_questions" db:"total_questions"`
	CorrectAnswers  int     `json:"correct_answers" db:"correct_answers"`
	AverageAccuracy float64 `json:"average_accuracy" db:"average_accuracy"`
}

// AddSession folds a completed session into the totals
func (a *AggregateStats) AddSession(questions, correct int) {
	a.TotalSessions++
	a.TotalQuestions += questions
	a.CorrectAnswers += correct
	a.AverageAccuracy = Accuracy(a.CorrectAnswers, a.TotalQuestions)
}

// Accuracy returns correct/total*100, or 0 when nothing was answered
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}
