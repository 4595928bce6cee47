package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordwise/pkg/models"
)

const (
	setWrong = "wrong"
	setWeak  = "weak"
)

// GetWrongSet returns the items answered wrong and not yet cleared in review, oldest first
func (r *StatisticsRepository) GetWrongSet(ctx context.Context, kind models.Kind) ([]models.Item, error) {
	return r.listSet(ctx, kind, setWrong)
}

// AddWrong adds an item to the wrong set; adding a member again is a no-op
func (r *StatisticsRepository) AddWrong(ctx context.Context, item models.Item) error {
	return r.addToSet(ctx, setWrong, item)
}

// RemoveWrong removes an item from the wrong set
func (r *StatisticsRepository) RemoveWrong(ctx context.Context, item models.Item) error {
	query := r.ext.Rebind(`
		DELETE FROM item_sets
		WHERE learner_id = ? AND kind = ? AND set_name = ? AND source_text = ?
	`)
	_, err := r.ext.ExecContext(ctx, query, r.learnerID, item.Kind, setWrong, item.Key())
	return errors.Wrap(err, "failed to remove wrong item")
}

// GetWeakItems returns the durable weak-item list
func (r *StatisticsRepository) GetWeakItems(ctx context.Context, kind models.Kind) ([]models.Item, error) {
	return r.listSet(ctx, kind, setWeak)
}

// AddWeakItems merges items into the weak-item list by identity
func (r *StatisticsRepository) AddWeakItems(ctx context.Context, items []models.Item) error {
	for _, item := range items {
		if err := r.addToSet(ctx, setWeak, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *StatisticsRepository) listSet(ctx context.Context, kind models.Kind, set string) ([]models.Item, error) {
	items := []models.Item{}
	query := r.ext.Rebind(`
		SELECT ` + itemColumns + `
		FROM item_sets
		WHERE learner_id = ? AND kind = ? AND set_name = ?
		ORDER BY added_at, source_text
	`)
	if err := sqlx.SelectContext(ctx, r.ext, &items, query, r.learnerID, kind, set); err != nil {
		return nil, errors.Wrapf(err, "failed to list %s items", set)
	}
	return items, nil
}

func (r *StatisticsRepository) addToSet(ctx context.Context, set string, item models.Item) error {
	query := r.ext.Rebind(`
		INSERT INTO item_sets (
			learner_id, kind, set_name, source_text, target_text, pos, level,
			difficulty_score, added_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, kind, set_name, source_text) DO NOTHING
	`)
	_, err := r.ext.ExecContext(ctx, query,
		r.learnerID,
		item.Kind,
		set,
		item.Source,
		item.Target,
		item.PartOfSpeech,
		item.Level,
		item.DifficultyScore,
		time.Now().UTC(),
	)
	return errors.Wrapf(err, "failed to add %s item", set)
}
