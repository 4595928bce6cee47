package quiz

import (
	"strings"
	"time"

	"github.com/example/wordwise/pkg/models"
)

// State of a session
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Question is a drawn question waiting for an answer
type Question struct {
	Index     int              `json:"index"`
	Item      models.Item      `json:"item"`
	Direction models.Direction `json:"direction"`
	Prompt    string           `json:"prompt"`
	Options   []string         `json:"options,omitempty"`
}

// QuestionRecord is the audit record of one answered question
type QuestionRecord struct {
	Item          models.Item      `json:"item"`
	Direction     models.Direction `json:"direction"`
	UserAnswer    string           `json:"user_answer"`
	CorrectAnswer string           `json:"correct_answer"`
	IsCorrect     bool             `json:"is_correct"`
	AnsweredAt    time.Time        `json:"answered_at"`
}

// Session is a single quiz run.
// CorrectCount + len(WrongList) == CurrentIndex after every recorded answer.
type Session struct {
	ID             string                `json:"id"`
	Kind           models.Kind           `json:"kind"`
	Mode           models.StudyMode      `json:"mode"`
	DifficultyMode models.DifficultyMode `json:"difficulty_mode"`
	Levels         []models.Level        `json:"levels,omitempty"`
	FreeText       bool                  `json:"free_text"`
	Review         bool                  `json:"review"`
	State          State                 `json:"state"`
	TotalQuestions int                   `json:"total_questions"`
	CurrentIndex   int                   `json:"current_index"`
	CorrectCount   int                   `json:"correct_count"`
	WrongList      []models.Item         `json:"wrong_list"`
	Records        []QuestionRecord      `json:"records"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at,omitempty"`
	// Pool is drawn strictly in order when set (redo and review runs)
	Pool    []models.Item `json:"pool,omitempty"`
	Pending *Question     `json:"pending,omitempty"`
}

// Remaining returns the number of unanswered questions
func (s *Session) Remaining() int {
	return s.TotalQuestions - s.CurrentIndex
}

// Done reports whether every question has been answered
func (s *Session) Done() bool {
	return s.CurrentIndex >= s.TotalQuestions
}

// Accuracy of the session so far over its total question count
func (s *Session) Accuracy() float64 {
	return models.Accuracy(s.CorrectCount, s.TotalQuestions)
}

// Result converts a completed session into its history row
func (s *Session) Result() models.SessionResult {
	return models.SessionResult{
		ID:             s.ID,
		Kind:           s.Kind,
		Mode:           s.Mode,
		DifficultyMode: s.DifficultyMode,
		Review:         s.Review,
		TotalQuestions: s.TotalQuestions,
		CorrectCount:   s.CorrectCount,
		Accuracy:       s.Accuracy(),
		StartedAt:      s.StartedAt,
		FinishedAt:     s.FinishedAt,
	}
}

// Copy returns a snapshot of the session that later answers do not change
func (s *Session) Copy() *Session {
	return s.clone()
}

// clone copies the session deeply enough that appending to the copy leaves s untouched.
// Pool is shared since it is never modified.
func (s *Session) clone() *Session {
	c := *s
	c.Levels = append([]models.Level(nil), s.Levels...)
	c.WrongList = append([]models.Item{}, s.WrongList...)
	c.Records = append([]QuestionRecord{}, s.Records...)
	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	return &c
}

// Judge compares answers case-insensitively after trimming whitespace
func Judge(userAnswer, correctAnswer string) bool {
	return strings.ToLower(strings.TrimSpace(userAnswer)) == strings.ToLower(strings.TrimSpace(correctAnswer))
}
