package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/wordwise/internal/quiz"
	"github.com/example/wordwise/internal/service"
	"github.com/example/wordwise/pkg/models"
)

func (s *Server) listVocabulary(c *gin.Context) {
	if lv := c.Query("level"); lv != "" {
		level, err := models.ParseLevel(lv)
		if err != nil {
			badRequest(c, err)
			return
		}
		items, err := s.svc.Corpus().GetByLevel(c.Request.Context(), models.KindVocabulary, level)
		if err != nil {
			s.fail(c, err)
			return
		}
		ok(c, items)
		return
	}
	s.listKind(c, models.KindVocabulary)
}

func (s *Server) listPhrases(c *gin.Context) {
	s.listKind(c, models.KindPhrase)
}

func (s *Server) listKind(c *gin.Context, kind models.Kind) {
	ctx := c.Request.Context()
	min, max, ranged, err := scoreRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	var items []models.Item
	if ranged {
		items, err = s.svc.Corpus().GetByDifficultyRange(ctx, kind, min, max)
	} else {
		items, err = s.svc.Corpus().GetAll(ctx, kind)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, items)
}

// scoreRange parses minScore and maxScore; a missing bound defaults to 0 or 100
func scoreRange(c *gin.Context) (min, max float64, ranged bool, err error) {
	min, max = 0, 100
	if v := c.Query("minScore"); v != "" {
		if min, err = strconv.ParseFloat(v, 64); err != nil {
			return 0, 0, false, fmt.Errorf("invalid minScore %q", v)
		}
		ranged = true
	}
	if v := c.Query("maxScore"); v != "" {
		if max, err = strconv.ParseFloat(v, 64); err != nil {
			return 0, 0, false, fmt.Errorf("invalid maxScore %q", v)
		}
		ranged = true
	}
	return min, max, ranged, nil
}

func queryKind(c *gin.Context) (models.Kind, error) {
	return models.ParseKind(c.Query("type"))
}

func (s *Server) stats(c *gin.Context) {
	kind, err := queryKind(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	overview, err := s.svc.Overview(c.Request.Context(), s.learnerID(c), kind)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, overview)
}

func (s *Server) review(c *gin.Context) {
	kind, err := queryKind(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid limit %q", c.Query("limit")))
		return
	}

	items, err := s.svc.Engine(s.learnerID(c)).Selector().NeedsReview(c.Request.Context(), kind, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, items)
}

func (s *Server) wrong(c *gin.Context) {
	kind, err := queryKind(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	items, err := s.svc.Stats(s.learnerID(c)).GetWrongSet(c.Request.Context(), kind)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"items": items, "total": len(items)})
}

type startRequest struct {
	Type       string      `json:"type"`
	Mode       string      `json:"mode"`
	Difficulty string      `json:"difficulty"`
	Count      interface{} `json:"count"` // number or "all"
	Levels     []string    `json:"levels"`
	FreeText   bool        `json:"freeText"`
	Review     bool        `json:"review"`
}

func (r startRequest) toService() (service.StartRequest, error) {
	var (
		out service.StartRequest
		err error
	)
	if out.Kind, err = models.ParseKind(r.Type); err != nil {
		return out, err
	}
	if r.Mode != "" {
		if out.Mode, err = models.ParseStudyMode(r.Mode); err != nil {
			return out, err
		}
	}
	if out.DifficultyMode, err = models.ParseDifficultyMode(r.Difficulty); err != nil {
		return out, err
	}
	count := ""
	if r.Count != nil {
		count = fmt.Sprint(r.Count)
	}
	if out.Count, err = quiz.ParseCount(count); err != nil {
		return out, err
	}
	for _, lv := range r.Levels {
		level, err := models.ParseLevel(lv)
		if err != nil {
			return out, err
		}
		out.Levels = append(out.Levels, level)
	}
	out.FreeText = r.FreeText
	out.Review = r.Review
	return out, nil
}

func (s *Server) startSession(c *gin.Context) {
	var body startRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	req, err := body.toService()
	if err != nil {
		badRequest(c, err)
		return
	}

	sess, err := s.svc.Start(c.Request.Context(), s.learnerID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, newSessionView(sess))
}

func (s *Server) resumeSession(c *gin.Context) {
	kind, err := queryKind(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	sess, err := s.svc.Resume(c.Request.Context(), s.learnerID(c), kind)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, newSessionView(sess))
}

func (s *Server) getSession(c *gin.Context) {
	sess, err := s.svc.Session(s.learnerID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, newSessionView(sess))
}

// sessionView is a session without its draw pool or the pending question
type sessionView struct {
	ID             string                `json:"id"`
	Kind           models.Kind           `json:"kind"`
	Mode           models.StudyMode      `json:"mode"`
	DifficultyMode models.DifficultyMode `json:"difficulty_mode"`
	Levels         []models.Level        `json:"levels,omitempty"`
	FreeText       bool                  `json:"free_text"`
	Review         bool                  `json:"review"`
	State          quiz.State            `json:"state"`
	TotalQuestions int                   `json:"total_questions"`
	CurrentIndex   int                   `json:"current_index"`
	CorrectCount   int                   `json:"correct_count"`
	Remaining      int                   `json:"remaining"`
	HasPending     bool                  `json:"has_pending"`
	WrongList      []models.Item         `json:"wrong_list"`
	Records        []quiz.QuestionRecord `json:"records"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at,omitempty"`
}

func newSessionView(s *quiz.Session) sessionView {
	return sessionView{
		ID:             s.ID,
		Kind:           s.Kind,
		Mode:           s.Mode,
		DifficultyMode: s.DifficultyMode,
		Levels:         s.Levels,
		FreeText:       s.FreeText,
		Review:         s.Review,
		State:          s.State,
		TotalQuestions: s.TotalQuestions,
		CurrentIndex:   s.CurrentIndex,
		CorrectCount:   s.CorrectCount,
		Remaining:      s.Remaining(),
		HasPending:     s.Pending != nil,
		WrongList:      s.WrongList,
		Records:        s.Records,
		StartedAt:      s.StartedAt,
		FinishedAt:     s.FinishedAt,
	}
}

// questionView hides the answer of a drawn question
type questionView struct {
	Index     int              `json:"index"`
	Total     int              `json:"total"`
	Direction models.Direction `json:"direction"`
	Prompt    string           `json:"prompt"`
	Options   []string         `json:"options,omitempty"`
	Level     models.Level     `json:"level"`
	POS       string           `json:"pos,omitempty"`
}

func (s *Server) nextQuestion(c *gin.Context) {
	learner, id := s.learnerID(c), c.Param("id")
	q, err := s.svc.Next(c.Request.Context(), learner, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	sess, err := s.svc.Session(learner, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, questionView{
		Index:     q.Index,
		Total:     sess.TotalQuestions,
		Direction: q.Direction,
		Prompt:    q.Prompt,
		Options:   q.Options,
		Level:     q.Item.Level,
		POS:       q.Item.PartOfSpeech,
	})
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) answer(c *gin.Context) {
	var body answerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	rec, sess, err := s.svc.Answer(c.Request.Context(), s.learnerID(c), c.Param("id"), body.Answer)
	if err != nil && rec == nil {
		s.fail(c, err)
		return
	}
	data := gin.H{
		"record":    rec,
		"state":     sess.State,
		"answered":  sess.CurrentIndex,
		"total":     sess.TotalQuestions,
		"correct":   sess.CorrectCount,
		"remaining": sess.Remaining(),
	}
	if err != nil {
		// answer stored, completion failed; the client retries finish
		data["finishError"] = err.Error()
	}
	ok(c, data)
}

func (s *Server) finish(c *gin.Context) {
	sess, err := s.svc.Finish(c.Request.Context(), s.learnerID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, newSessionView(sess))
}

func (s *Server) summary(c *gin.Context) {
	sum, err := s.svc.Summary(s.learnerID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, sum)
}

func (s *Server) redo(c *gin.Context) {
	sess, err := s.svc.Redo(c.Request.Context(), s.learnerID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, newSessionView(sess))
}
