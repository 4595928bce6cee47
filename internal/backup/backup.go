// Package backup exports and restores a learner's statistics as JSON.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/pkg/models"
)

const (
	SystemName = "WordWise"
	Version    = "1.0.0"
)

// ErrMalformed is returned for documents that fail the structural check; nothing is applied
var ErrMalformed = errors.New("malformed backup")

// Document is the backup file
type Document struct {
	SystemName string        `json:"systemName"`
	Version    string        `json:"version"`
	ExportTime time.Time     `json:"exportTime"`
	Kind       models.Kind   `json:"kind"`
	LearnerID  string        `json:"learnerId,omitempty"`
	TotalWrong int           `json:"totalWrong"`
	WrongItems []models.Item `json:"wrongItems"`
	Stats      *Stats        `json:"stats,omitempty"`
}

// Stats is the optional full-statistics section
type Stats struct {
	Aggregate  models.AggregateStats  `json:"aggregate"`
	LevelStats []models.LevelStat     `json:"levelStats"`
	ItemStats  []models.ItemStat      `json:"itemStats"`
	WeakItems  []models.Item          `json:"weakItems"`
	Sessions   []models.SessionResult `json:"sessions,omitempty"`
}

// Mode selects how Restore treats existing data
type Mode int

const (
	// Merge adds wrong and weak items and fills in stats that do not exist yet
	Merge Mode = iota
	// Replace deletes the learner's data for the kind first
	Replace
)

// Result reports what Restore wrote
type Result struct {
	WrongItems int `json:"wrong_items"`
	WeakItems  int `json:"weak_items"`
	ItemStats  int `json:"item_stats"`
	LevelStats int `json:"level_stats"`
}

// Export collects the learner's wrong set and, if withStats, every statistic of kind
func Export(ctx context.Context, store database.StatsStore, kind models.Kind, learnerID string, withStats bool) (*Document, error) {
	wrong, err := store.GetWrongSet(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("export wrong items: %w", err)
	}

	doc := &Document{
		SystemName: SystemName,
		Version:    Version,
		ExportTime: time.Now().UTC(),
		Kind:       kind,
		LearnerID:  learnerID,
		TotalWrong: len(wrong),
		WrongItems: wrong,
	}
	if !withStats {
		return doc, nil
	}

	stats := &Stats{}
	if stats.Aggregate, err = store.GetAggregateStats(ctx, kind); err != nil {
		return nil, fmt.Errorf("export aggregate: %w", err)
	}
	if stats.LevelStats, err = store.ListLevelStats(ctx, kind); err != nil {
		return nil, fmt.Errorf("export level stats: %w", err)
	}
	if stats.ItemStats, err = store.ListItemStats(ctx, kind); err != nil {
		return nil, fmt.Errorf("export item stats: %w", err)
	}
	if stats.WeakItems, err = store.GetWeakItems(ctx, kind); err != nil {
		return nil, fmt.Errorf("export weak items: %w", err)
	}
	if stats.Sessions, err = store.ListSessionResults(ctx, kind, 0); err != nil {
		return nil, fmt.Errorf("export sessions: %w", err)
	}
	doc.Stats = stats
	return doc, nil
}

// Write encodes doc as indented JSON
func Write(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Read decodes and validates a document
func Read(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the whole document. Items without a kind get the document's kind.
func Validate(doc *Document) error {
	if doc.SystemName != SystemName {
		return malformed("unexpected system name %q", doc.SystemName)
	}
	if doc.Version == "" {
		return malformed("missing version")
	}
	if doc.Kind != models.KindVocabulary && doc.Kind != models.KindPhrase {
		return malformed("unknown kind %q", doc.Kind)
	}
	if doc.WrongItems == nil {
		return malformed("wrongItems must be an array")
	}
	if err := validateItems("wrongItems", doc.Kind, doc.WrongItems); err != nil {
		return err
	}

	if doc.Stats == nil {
		return nil
	}
	s := doc.Stats
	if err := validateItems("weakItems", doc.Kind, s.WeakItems); err != nil {
		return err
	}
	for i, st := range s.ItemStats {
		if st.ItemKey == "" {
			return malformed("itemStats[%d]: missing item key", i)
		}
		if st.TotalAttempts < 0 || st.CorrectAttempts < 0 || st.WrongAttempts < 0 ||
			st.CorrectAttempts+st.WrongAttempts != st.TotalAttempts {
			return malformed("itemStats[%d]: inconsistent counters", i)
		}
	}
	for i, ls := range s.LevelStats {
		if !ls.Level.Valid() {
			return malformed("levelStats[%d]: unknown level %q", i, ls.Level)
		}
		if ls.CorrectAnswers < 0 || ls.CorrectAnswers > ls.TotalQuestions {
			return malformed("levelStats[%d]: inconsistent counters", i)
		}
	}
	a := s.Aggregate
	if a.TotalSessions < 0 || a.CorrectAnswers < 0 || a.CorrectAnswers > a.TotalQuestions {
		return malformed("aggregate: inconsistent counters")
	}
	for i, r := range s.Sessions {
		if r.ID == "" || r.CorrectCount < 0 || r.CorrectCount > r.TotalQuestions {
			return malformed("sessions[%d]: invalid session", i)
		}
	}
	return nil
}

func validateItems(field string, kind models.Kind, items []models.Item) error {
	for i := range items {
		it := &items[i]
		if it.Source == "" || it.Target == "" {
			return malformed("%s[%d]: missing text", field, i)
		}
		if !it.Level.Valid() {
			return malformed("%s[%d]: unknown level %q", field, i, it.Level)
		}
		if it.Kind == "" {
			it.Kind = kind
		}
		if it.Kind != kind {
			return malformed("%s[%d]: kind %q does not match %q", field, i, it.Kind, kind)
		}
	}
	return nil
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// Restore validates doc and applies it in one transaction
func Restore(ctx context.Context, store database.StatsStore, doc *Document, mode Mode) (Result, error) {
	if err := Validate(doc); err != nil {
		return Result{}, err
	}

	var res Result
	err := store.WithinTx(ctx, func(tx database.StatsStore) error {
		res = Result{}
		if mode == Replace {
			if err := tx.ResetKind(ctx, doc.Kind); err != nil {
				return err
			}
		}

		for _, it := range doc.WrongItems {
			if err := tx.AddWrong(ctx, it); err != nil {
				return err
			}
			res.WrongItems++
		}
		if doc.Stats == nil {
			return nil
		}
		return restoreStats(ctx, tx, doc.Kind, doc.Stats, &res)
	})
	if err != nil {
		return Result{}, fmt.Errorf("restore backup: %w", err)
	}
	return res, nil
}

func restoreStats(ctx context.Context, tx database.StatsStore, kind models.Kind, s *Stats, res *Result) error {
	if err := tx.AddWeakItems(ctx, s.WeakItems); err != nil {
		return err
	}
	res.WeakItems = len(s.WeakItems)

	for _, st := range s.ItemStats {
		existing, err := tx.GetItemStat(ctx, kind, st.ItemKey)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		st.Kind = kind
		st.Accuracy = models.Accuracy(st.CorrectAttempts, st.TotalAttempts)
		if err := tx.PutItemStat(ctx, st); err != nil {
			return err
		}
		res.ItemStats++
	}

	for _, ls := range s.LevelStats {
		existing, err := tx.GetLevelStat(ctx, kind, ls.Level)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		ls.Kind = kind
		ls.Accuracy = models.Accuracy(ls.CorrectAnswers, ls.TotalQuestions)
		if err := tx.PutLevelStat(ctx, ls); err != nil {
			return err
		}
		res.LevelStats++
	}

	agg, err := tx.GetAggregateStats(ctx, kind)
	if err != nil {
		return err
	}
	if agg.TotalSessions > 0 {
		return nil
	}

	a := s.Aggregate
	a.Kind = kind
	a.AverageAccuracy = models.Accuracy(a.CorrectAnswers, a.TotalQuestions)
	if err := tx.PutAggregateStats(ctx, a); err != nil {
		return err
	}
	for _, r := range s.Sessions {
		r.Kind = kind
		if err := tx.SaveSessionResult(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
