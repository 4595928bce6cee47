// Package service runs quiz sessions for many learners over one corpus and database.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/internal/quiz"
	"github.com/example/wordwise/pkg/models"
)

// ErrSessionNotFound means the session id is unknown or belongs to another learner
var ErrSessionNotFound = errors.New("session not found")

// Config tunes the service
type Config struct {
	DefaultCount int
	OptionCount  int
	Logger       *slog.Logger
}

// Service owns a per-learner engine cache and the in-process session registry
type Service struct {
	corpus       database.CorpusStore
	db           *sqlx.DB
	log          *slog.Logger
	defaultCount int
	optionCount  int

	mu       sync.Mutex
	engines  map[string]*quiz.Engine
	sessions map[string]*entry
}

type entry struct {
	mu        sync.Mutex
	learnerID string
	session   *quiz.Session
	touched   time.Time
}

// New creates a service. corpus is usually a cached view of the items table.
func New(corpus database.CorpusStore, db *sqlx.DB, cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = 20
	}
	return &Service{
		corpus:       corpus,
		db:           db,
		log:          log,
		defaultCount: cfg.DefaultCount,
		optionCount:  cfg.OptionCount,
		engines:      make(map[string]*quiz.Engine),
		sessions:     make(map[string]*entry),
	}
}

// Corpus returns the corpus store the engines draw from
func (s *Service) Corpus() database.CorpusStore {
	return s.corpus
}

// Stats returns the statistics store of a learner
func (s *Service) Stats(learnerID string) *database.StatisticsRepository {
	return database.NewStatisticsRepository(s.db, learnerID)
}

// Engine returns the learner's engine, creating it on first use
func (s *Service) Engine(learnerID string) *quiz.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.engines[learnerID]
	if !ok {
		e = quiz.NewEngine(s.corpus, s.Stats(learnerID), quiz.EngineConfig{
			OptionCount: s.optionCount,
			Logger:      s.log.With("learner", learnerID),
		})
		s.engines[learnerID] = e
	}
	return e
}

// StartRequest starts a normal or a review session
type StartRequest struct {
	Kind           models.Kind           `json:"type"`
	Mode           models.StudyMode      `json:"mode"`
	DifficultyMode models.DifficultyMode `json:"difficulty"`
	Count          int                   `json:"count"`
	Levels         []models.Level        `json:"levels"`
	FreeText       bool                  `json:"freeText"`
	Review         bool                  `json:"review"`
}

// Start begins a session and registers it. A zero count uses the configured default.
func (s *Service) Start(ctx context.Context, learnerID string, req StartRequest) (*quiz.Session, error) {
	if req.Count == 0 {
		req.Count = s.defaultCount
	}
	if req.Kind == "" {
		req.Kind = models.KindVocabulary
	}

	e := s.Engine(learnerID)
	var (
		sess *quiz.Session
		err  error
	)
	if req.Review {
		sess, err = e.StartReview(ctx, req.Kind, req.Mode, req.Count, req.FreeText)
	} else {
		sess, err = e.Start(ctx, quiz.StartRequest{
			Kind:           req.Kind,
			Mode:           req.Mode,
			DifficultyMode: req.DifficultyMode,
			Count:          req.Count,
			Levels:         req.Levels,
			FreeText:       req.FreeText,
		})
	}
	if err != nil {
		return nil, err
	}
	return s.register(learnerID, sess), nil
}

// Resume registers the learner's checkpointed session of kind
func (s *Service) Resume(ctx context.Context, learnerID string, kind models.Kind) (*quiz.Session, error) {
	sess, err := s.Engine(learnerID).Resume(ctx, kind)
	if err != nil {
		return nil, err
	}
	return s.register(learnerID, sess), nil
}

// Session returns a copy of a registered session
func (s *Service) Session(learnerID, id string) (*quiz.Session, error) {
	var out *quiz.Session
	err := s.with(learnerID, id, func(sess *quiz.Session) error {
		out = sess.Copy()
		return nil
	})
	return out, err
}

// Next returns the session's pending question
func (s *Service) Next(ctx context.Context, learnerID, id string) (*quiz.Question, error) {
	var q *quiz.Question
	err := s.with(learnerID, id, func(sess *quiz.Session) error {
		var err error
		q, err = s.Engine(learnerID).Next(ctx, sess)
		return err
	})
	return q, err
}

// Answer records an answer and returns the record with the session after it.
// The record is returned even when only the completion step failed.
func (s *Service) Answer(ctx context.Context, learnerID, id, answer string) (*quiz.QuestionRecord, *quiz.Session, error) {
	var (
		rec  *quiz.QuestionRecord
		snap *quiz.Session
	)
	err := s.with(learnerID, id, func(sess *quiz.Session) error {
		var err error
		rec, err = s.Engine(learnerID).Answer(ctx, sess, answer)
		snap = sess.Copy()
		return err
	})
	return rec, snap, err
}

// Finish retries completion of a fully answered session
func (s *Service) Finish(ctx context.Context, learnerID, id string) (*quiz.Session, error) {
	var snap *quiz.Session
	err := s.with(learnerID, id, func(sess *quiz.Session) error {
		err := s.Engine(learnerID).Finish(ctx, sess)
		snap = sess.Copy()
		return err
	})
	return snap, err
}

// Summary summarizes a registered session
func (s *Service) Summary(learnerID, id string) (quiz.Summary, error) {
	var sum quiz.Summary
	err := s.with(learnerID, id, func(sess *quiz.Session) error {
		sum = quiz.Summarize(sess, time.Now())
		return nil
	})
	return sum, err
}

// Redo starts a session over the wrong answers of a completed one
func (s *Service) Redo(ctx context.Context, learnerID, id string) (*quiz.Session, error) {
	var next *quiz.Session
	err := s.with(learnerID, id, func(sess *quiz.Session) error {
		var err error
		next, err = s.Engine(learnerID).RedoWrong(ctx, sess)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.register(learnerID, next), nil
}

// Forget drops a session from the registry
func (s *Service) Forget(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Prune drops sessions untouched since before and returns how many were removed
func (s *Service) Prune(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		stale := e.touched.Before(before)
		e.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Service) register(learnerID string, sess *quiz.Session) *quiz.Session {
	s.mu.Lock()
	s.sessions[sess.ID] = &entry{learnerID: learnerID, session: sess, touched: time.Now()}
	s.mu.Unlock()
	s.log.Debug("session registered", "learner", learnerID, "session", sess.ID)
	return sess.Copy()
}

// with runs fn on a registered session while holding its lock
func (s *Service) with(learnerID, id string, fn func(*quiz.Session) error) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok || e.learnerID != learnerID {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.touched = time.Now()
	return fn(e.session)
}

// LearnerStats is the overview returned by Overview
type LearnerStats struct {
	Total     int                   `json:"total"`
	Studied   int                   `json:"studied"`
	Correct   int                   `json:"correct"`
	Wrong     int                   `json:"wrong"`
	Aggregate models.AggregateStats `json:"aggregate"`
	Levels    []models.LevelStat    `json:"levels"`
}

// Overview counts the corpus and the learner's progress for kind
func (s *Service) Overview(ctx context.Context, learnerID string, kind models.Kind) (LearnerStats, error) {
	var out LearnerStats
	stats := s.Stats(learnerID)

	items, err := s.corpus.GetAll(ctx, kind)
	if err != nil {
		return out, fmt.Errorf("load corpus: %w", err)
	}
	itemStats, err := stats.ListItemStats(ctx, kind)
	if err != nil {
		return out, err
	}
	wrong, err := stats.GetWrongSet(ctx, kind)
	if err != nil {
		return out, err
	}
	if out.Aggregate, err = stats.GetAggregateStats(ctx, kind); err != nil {
		return out, err
	}
	if out.Levels, err = stats.ListLevelStats(ctx, kind); err != nil {
		return out, err
	}

	out.Total = len(items)
	out.Studied = len(itemStats)
	for _, st := range itemStats {
		out.Correct += st.CorrectAttempts
	}
	out.Wrong = len(wrong)
	out.Aggregate.Kind = kind
	return out, nil
}
