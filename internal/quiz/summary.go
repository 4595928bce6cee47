package quiz

import (
	"time"

	"github.com/example/wordwise/pkg/models"
)

// Breakdown is a correct/total pair
type Breakdown struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

func (b *Breakdown) add(correct bool) {
	b.Total++
	if correct {
		b.Correct++
	}
	b.Accuracy = models.Accuracy(b.Correct, b.Total)
}

// Summary is what the learner sees at the end of a run
type Summary struct {
	SessionID      string                         `json:"session_id"`
	Kind           models.Kind                    `json:"kind"`
	State          State                          `json:"state"`
	TotalQuestions int                            `json:"total_questions"`
	Answered       int                            `json:"answered"`
	CorrectCount   int                            `json:"correct_count"`
	WrongCount     int                            `json:"wrong_count"`
	Accuracy       float64                        `json:"accuracy"`
	Duration       time.Duration                  `json:"duration"`
	WrongList      []models.Item                  `json:"wrong_list"`
	ByLevel        map[models.Level]Breakdown     `json:"by_level"`
	ByDirection    map[models.Direction]Breakdown `json:"by_direction"`
}

// Summarize builds the summary of s; now is used for sessions that have not completed
func Summarize(s *Session, now time.Time) Summary {
	end := now
	if s.State == StateCompleted && !s.FinishedAt.IsZero() {
		end = s.FinishedAt
	}

	sum := Summary{
		SessionID:      s.ID,
		Kind:           s.Kind,
		State:          s.State,
		TotalQuestions: s.TotalQuestions,
		Answered:       s.CurrentIndex,
		CorrectCount:   s.CorrectCount,
		WrongCount:     len(s.WrongList),
		Accuracy:       s.Accuracy(),
		Duration:       end.Sub(s.StartedAt),
		WrongList:      append([]models.Item{}, s.WrongList...),
		ByLevel:        make(map[models.Level]Breakdown),
		ByDirection:    make(map[models.Direction]Breakdown),
	}

	for _, rec := range s.Records {
		lb := sum.ByLevel[rec.Item.Level]
		lb.add(rec.IsCorrect)
		sum.ByLevel[rec.Item.Level] = lb

		db := sum.ByDirection[rec.Direction]
		db.add(rec.IsCorrect)
		sum.ByDirection[rec.Direction] = db
	}
	return sum
}
