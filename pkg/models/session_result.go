package models

import "time"

// SessionResult is the history row written when a session completes
type SessionResult struct {
	ID             string         `json:"id" db:"id"`
	LearnerID      string         `json:"-" db:"learner_id"`
	Kind           Kind           `json:"kind" db:"kind"`
	Mode           StudyMode      `json:"mode" db:"mode"`
	DifficultyMode DifficultyMode `json:"difficulty_mode" db:"difficulty_mode"`
	Review         bool           `json:"review" db:"review"`
	TotalQuestions int            `json:"total_questions" db:"total_questions"`
	CorrectCount   int            `json:"correct_count" db:"correct_count"`
	Accuracy       float64        `json:"accuracy" db:"accuracy"`
	StartedAt      time.Time      `json:"started_at" db:"started_at"`
	FinishedAt     time.Time      `json:"finished_at" db:"finished_at"`
}

// Duration of the session
func (r SessionResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
