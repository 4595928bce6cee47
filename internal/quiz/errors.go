package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPool means nothing matched the selection, so no question can be asked
	ErrEmptyPool = errors.New("no items available for this selection")

	ErrInvalidCount        = errors.New("question count must be positive")
	ErrSessionNotActive    = errors.New("session is not in progress")
	ErrSessionFinished     = errors.New("all questions have been answered")
	ErrSessionIncomplete   = errors.New("session still has unanswered questions")
	ErrSessionNotCompleted = errors.New("session has not completed")
	ErrNoQuestion          = errors.New("no pending question")
	ErrNoCheckpoint        = errors.New("no saved session")
	ErrBlankAnswer         = errors.New("answer is empty")
)

// StatsWriteError reports that the statistics store rejected a write.
// The session is left as it was before the failed step, so the step can be retried.
type StatsWriteError struct {
	Op  string
	Err error
}

func (e *StatsWriteError) Error() string {
	return fmt.Sprintf("statistics write failed (%s): %v", e.Op, e.Err)
}

func (e *StatsWriteError) Unwrap() error {
	return e.Err
}
