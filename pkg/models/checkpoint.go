package models

import "time"

// Checkpoint is the durable snapshot of the in-progress session of a kind.
// Payload is opaque JSON owned by the session engine.
type Checkpoint struct {
	LearnerID string    `json:"-" db:"learner_id"`
	Kind      Kind      `json:"kind" db:"kind"`
	SessionID string    `json:"session_id" db:"session_id"`
	Payload   string    `json:"payload" db:"payload"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
