package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/pkg/models"
)

// EngineConfig tunes an Engine; zero values pick defaults
type EngineConfig struct {
	OptionCount int
	Rand        *rand.Rand
	Now         func() time.Time
	Logger      *slog.Logger
}

// Engine drives quiz sessions for one learner
type Engine struct {
	stats       database.StatsStore
	selector    *Selector
	options     *OptionGenerator
	rnd         *lockedRand
	now         func() time.Time
	log         *slog.Logger
	optionCount int
}

// NewEngine creates an engine over a corpus and the learner's statistics store
func NewEngine(corpus database.CorpusStore, stats database.StatsStore, cfg EngineConfig) *Engine {
	rnd := newLockedRand(cfg.Rand)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	optionCount := cfg.OptionCount
	if optionCount <= 0 {
		optionCount = DefaultOptionCount
	}

	return &Engine{
		stats:       stats,
		selector:    newSelector(corpus, stats, rnd, now),
		options:     newOptionGenerator(corpus, rnd, log),
		rnd:         rnd,
		now:         now,
		log:         log,
		optionCount: optionCount,
	}
}

// Selector exposes the engine's item selector
func (e *Engine) Selector() *Selector {
	return e.selector
}

// StartRequest describes a new run
type StartRequest struct {
	Kind           models.Kind
	Mode           models.StudyMode
	DifficultyMode models.DifficultyMode
	// Count is the requested number of questions, or AllItems
	Count    int
	Levels   []models.Level
	FreeText bool
}

// Start builds a pool and begins a session. The question count is clamped to the pool size.
// An empty pool returns ErrEmptyPool and no session.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*Session, error) {
	if req.Count == 0 || req.Count < AllItems {
		return nil, ErrInvalidCount
	}
	if req.Kind == "" {
		req.Kind = models.KindVocabulary
	}
	if req.Mode == "" {
		req.Mode = models.StudySourceToTarget
	}
	if req.DifficultyMode == "" {
		req.DifficultyMode = models.DifficultyAuto
	}

	pool, err := e.selector.SelectPool(ctx, PoolRequest{
		Kind:   req.Kind,
		Mode:   req.DifficultyMode,
		Count:  req.Count,
		Levels: req.Levels,
	})
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	total := req.Count
	if total == AllItems || total > len(pool) {
		total = len(pool)
	}

	s := e.newSession(req.Kind, req.Mode, req.DifficultyMode, total, req.FreeText, false, nil)
	s.Levels = append([]models.Level(nil), req.Levels...)
	return s, e.begin(ctx, s)
}

// StartReview begins a review session over the learner's wrong set, asked in stored order.
// Correct answers in a review session clear the item from the wrong set.
func (e *Engine) StartReview(ctx context.Context, kind models.Kind, mode models.StudyMode, count int, freeText bool) (*Session, error) {
	if count == 0 || count < AllItems {
		return nil, ErrInvalidCount
	}
	if mode == "" {
		mode = models.StudySourceToTarget
	}

	wrong, err := e.stats.GetWrongSet(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load wrong set: %w", err)
	}
	if len(wrong) == 0 {
		return nil, ErrEmptyPool
	}
	total := count
	if total == AllItems || total > len(wrong) {
		total = len(wrong)
	}

	s := e.newSession(kind, mode, models.DifficultyCustom, total, freeText, true, wrong[:total])
	return s, e.begin(ctx, s)
}

// RedoWrong starts a session over the wrong answers of a completed session,
// or over the durable weak-item list when that is larger. Items are asked in order.
func (e *Engine) RedoWrong(ctx context.Context, prev *Session) (*Session, error) {
	if prev.State != StateCompleted {
		return nil, ErrSessionNotCompleted
	}

	pool := append([]models.Item(nil), prev.WrongList...)
	weak, err := e.stats.GetWeakItems(ctx, prev.Kind)
	if err != nil {
		return nil, fmt.Errorf("load weak items: %w", err)
	}
	if len(weak) > len(pool) {
		pool = weak
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	s := e.newSession(prev.Kind, prev.Mode, models.DifficultyCustom, len(pool), prev.FreeText, prev.Review, pool)
	return s, e.begin(ctx, s)
}

// Resume rebuilds the in-progress session of a kind from its checkpoint
func (e *Engine) Resume(ctx context.Context, kind models.Kind) (*Session, error) {
	cp, err := e.stats.GetCheckpoint(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if cp == nil {
		return nil, ErrNoCheckpoint
	}

	var s Session
	if err := json.Unmarshal([]byte(cp.Payload), &s); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if s.State != StateInProgress {
		return nil, ErrNoCheckpoint
	}
	return &s, nil
}

// Next returns the pending question, drawing a new one if none is pending
func (e *Engine) Next(ctx context.Context, s *Session) (*Question, error) {
	if s.State != StateInProgress {
		return nil, ErrSessionNotActive
	}
	if s.Pending != nil {
		return s.Pending, nil
	}
	if s.Done() {
		return nil, ErrSessionFinished
	}

	dir := e.direction(s.Mode)
	item, err := e.draw(ctx, s)
	if err != nil {
		return nil, err
	}

	q := &Question{
		Index:     s.CurrentIndex,
		Item:      item,
		Direction: dir,
		Prompt:    item.Prompt(dir),
	}
	if !s.FreeText {
		q.Options, err = e.options.Generate(ctx, item, dir, e.optionCount)
		if err != nil {
			return nil, err
		}
	}

	s.Pending = q
	return q, nil
}

// Answer judges the answer to the pending question and records it.
// If the store rejects the writes the session is unchanged and a *StatsWriteError is returned.
// After the last answer the session is completed; if only that step fails, the record is
// returned together with the error and Finish can be retried.
func (e *Engine) Answer(ctx context.Context, s *Session, answer string) (*QuestionRecord, error) {
	if s.State != StateInProgress {
		return nil, ErrSessionNotActive
	}
	q := s.Pending
	if q == nil {
		return nil, ErrNoQuestion
	}
	if strings.TrimSpace(answer) == "" {
		return nil, ErrBlankAnswer
	}

	correctAnswer := q.Item.Answer(q.Direction)
	rec := QuestionRecord{
		Item:          q.Item,
		Direction:     q.Direction,
		UserAnswer:    answer,
		CorrectAnswer: correctAnswer,
		IsCorrect:     Judge(answer, correctAnswer),
		AnsweredAt:    e.now(),
	}

	next := s.clone()
	if rec.IsCorrect {
		next.CorrectCount++
	} else {
		next.WrongList = append(next.WrongList, q.Item)
	}
	next.Records = append(next.Records, rec)
	next.CurrentIndex++
	next.Pending = nil

	err := e.stats.WithinTx(ctx, func(tx database.StatsStore) error {
		switch {
		case !rec.IsCorrect:
			if err := tx.AddWrong(ctx, q.Item); err != nil {
				return err
			}
		case s.Review:
			if err := tx.RemoveWrong(ctx, q.Item); err != nil {
				return err
			}
		}
		if err := recordItemStat(ctx, tx, q.Item, rec.IsCorrect, rec.AnsweredAt); err != nil {
			return err
		}
		if err := recordLevelStat(ctx, tx, q.Item, rec.IsCorrect, rec.AnsweredAt); err != nil {
			return err
		}
		return e.saveCheckpoint(ctx, tx, next)
	})
	if err != nil {
		e.log.Error("failed to record answer", "session", s.ID, "item", q.Item.Key(), "error", err)
		return nil, &StatsWriteError{Op: "record answer", Err: err}
	}

	*s = *next
	if s.Done() {
		return &rec, e.Finish(ctx, s)
	}
	return &rec, nil
}

// Finish completes a session whose questions are all answered.
// It folds the run into the aggregate totals, merges wrong items into the weak list,
// stores the session result and clears the checkpoint. Finishing twice is a no-op.
func (e *Engine) Finish(ctx context.Context, s *Session) error {
	if s.State == StateCompleted {
		return nil
	}
	if s.State != StateInProgress {
		return ErrSessionNotActive
	}
	if !s.Done() {
		return ErrSessionIncomplete
	}

	finishedAt := e.now()
	result := s.Result()
	result.FinishedAt = finishedAt

	err := e.stats.WithinTx(ctx, func(tx database.StatsStore) error {
		agg, err := tx.GetAggregateStats(ctx, s.Kind)
		if err != nil {
			return err
		}
		agg.Kind = s.Kind
		agg.AddSession(s.TotalQuestions, s.CorrectCount)
		if err := tx.PutAggregateStats(ctx, agg); err != nil {
			return err
		}
		if len(s.WrongList) > 0 {
			if err := tx.AddWeakItems(ctx, uniqueItems(s.WrongList)); err != nil {
				return err
			}
		}
		if err := tx.SaveSessionResult(ctx, result); err != nil {
			return err
		}
		return tx.ClearCheckpoint(ctx, s.Kind)
	})
	if err != nil {
		e.log.Error("failed to complete session", "session", s.ID, "error", err)
		return &StatsWriteError{Op: "complete session", Err: err}
	}

	s.State = StateCompleted
	s.FinishedAt = finishedAt
	s.Pending = nil
	e.log.Info("session completed",
		"session", s.ID,
		"kind", s.Kind,
		"questions", s.TotalQuestions,
		"correct", s.CorrectCount,
		"accuracy", s.Accuracy(),
	)
	return nil
}

func (e *Engine) newSession(kind models.Kind, mode models.StudyMode, difficulty models.DifficultyMode, total int, freeText, review bool, pool []models.Item) *Session {
	return &Session{
		ID:             uuid.NewString(),
		Kind:           kind,
		Mode:           mode,
		DifficultyMode: difficulty,
		FreeText:       freeText,
		Review:         review,
		State:          StateNotStarted,
		TotalQuestions: total,
		WrongList:      []models.Item{},
		Records:        []QuestionRecord{},
		StartedAt:      e.now(),
		Pool:           pool,
	}
}

// begin moves a new session to InProgress and checkpoints it
func (e *Engine) begin(ctx context.Context, s *Session) error {
	s.State = StateInProgress
	if err := e.saveCheckpoint(ctx, e.stats, s); err != nil {
		s.State = StateNotStarted
		return &StatsWriteError{Op: "save checkpoint", Err: err}
	}
	e.log.Debug("session started",
		"session", s.ID,
		"kind", s.Kind,
		"difficulty", s.DifficultyMode,
		"questions", s.TotalQuestions,
		"review", s.Review,
	)
	return nil
}

// draw picks the next item: strictly in order from a fixed pool, otherwise from a freshly selected pool
func (e *Engine) draw(ctx context.Context, s *Session) (models.Item, error) {
	if s.Pool != nil {
		if s.CurrentIndex >= len(s.Pool) {
			return models.Item{}, ErrEmptyPool
		}
		return s.Pool[s.CurrentIndex], nil
	}

	fresh, err := e.selector.SelectPool(ctx, PoolRequest{
		Kind:   s.Kind,
		Mode:   s.DifficultyMode,
		Count:  s.TotalQuestions,
		Levels: s.Levels,
	})
	if err != nil {
		return models.Item{}, err
	}
	if len(fresh) == 0 {
		return models.Item{}, ErrEmptyPool
	}
	lookup, err := e.selector.Lookup(ctx, s.Kind)
	if err != nil {
		return models.Item{}, err
	}
	return e.selector.PickWeighted(fresh, lookup)
}

func (e *Engine) direction(mode models.StudyMode) models.Direction {
	switch mode {
	case models.StudyTargetToSource:
		return models.DirectionTargetToSource
	case models.StudyMixed:
		if e.rnd.Intn(2) == 0 {
			return models.DirectionSourceToTarget
		}
		return models.DirectionTargetToSource
	}
	return models.DirectionSourceToTarget
}

func (e *Engine) saveCheckpoint(ctx context.Context, store database.StatsStore, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return store.SaveCheckpoint(ctx, models.Checkpoint{
		Kind:      s.Kind,
		SessionID: s.ID,
		Payload:   string(payload),
		UpdatedAt: e.now(),
	})
}

func recordItemStat(ctx context.Context, tx database.StatsStore, item models.Item, correct bool, at time.Time) error {
	stat, err := tx.GetItemStat(ctx, item.Kind, item.Key())
	if err != nil {
		return err
	}
	if stat == nil {
		stat = &models.ItemStat{Kind: item.Kind, ItemKey: item.Key()}
	}
	stat.Record(correct, at)
	return tx.PutItemStat(ctx, *stat)
}

func recordLevelStat(ctx context.Context, tx database.StatsStore, item models.Item, correct bool, at time.Time) error {
	stat, err := tx.GetLevelStat(ctx, item.Kind, item.Level)
	if err != nil {
		return err
	}
	if stat == nil {
		stat = &models.LevelStat{Kind: item.Kind, Level: item.Level}
	}
	stat.Record(correct, at)
	return tx.PutLevelStat(ctx, *stat)
}

func uniqueItems(items []models.Item) []models.Item {
	seen := make(map[string]bool, len(items))
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		if !seen[item.Key()] {
			seen[item.Key()] = true
			out = append(out, item)
		}
	}
	return out
}
