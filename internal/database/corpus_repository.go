package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordwise/pkg/models"
)

const itemColumns = `kind, source_text, target_text, pos, level, difficulty_score`

// CorpusRepository handles database operations for vocabulary and phrase items
type CorpusRepository struct {
	db *sqlx.DB
}

// NewCorpusRepository creates a new repository instance
func NewCorpusRepository(db *sqlx.DB) *CorpusRepository {
	return &CorpusRepository{db: db}
}

// GetAll returns every item of a kind
func (r *CorpusRepository) GetAll(ctx context.Context, kind models.Kind) ([]models.Item, error) {
	items := []models.Item{}
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE kind = ? ORDER BY source_text`)
	if err := r.db.SelectContext(ctx, &items, query, kind); err != nil {
		return nil, errors.Wrap(err, "failed to get items")
	}
	return items, nil
}

// GetByLevel returns the items of a kind at one level
func (r *CorpusRepository) GetByLevel(ctx context.Context, kind models.Kind, level models.Level) ([]models.Item, error) {
	items := []models.Item{}
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE kind = ? AND level = ? ORDER BY source_text`)
	if err := r.db.SelectContext(ctx, &items, query, kind, level); err != nil {
		return nil, errors.Wrap(err, "failed to get items by level")
	}
	return items, nil
}

// GetByDifficultyRange returns the items whose score lies in [min, max]
func (r *CorpusRepository) GetByDifficultyRange(ctx context.Context, kind models.Kind, min, max float64) ([]models.Item, error) {
	items := []models.Item{}
	query := r.db.Rebind(`
		SELECT ` + itemColumns + ` FROM items
		WHERE kind = ? AND difficulty_score >= ? AND difficulty_score <= ?
		ORDER BY difficulty_score, source_text
	`)
	if err := r.db.SelectContext(ctx, &items, query, kind, min, max); err != nil {
		return nil, errors.Wrap(err, "failed to get items by difficulty")
	}
	return items, nil
}

// GetByKey returns one item or ErrNotFound
func (r *CorpusRepository) GetByKey(ctx context.Context, kind models.Kind, key string) (*models.Item, error) {
	var item models.Item
	query := r.db.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE kind = ? AND source_text = ?`)
	err := r.db.GetContext(ctx, &item, query, kind, key)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get item")
	}
	return &item, nil
}

// Count returns the number of items of a kind
func (r *CorpusRepository) Count(ctx context.Context, kind models.Kind) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM items WHERE kind = ?`), kind); err != nil {
		return 0, errors.Wrap(err, "failed to count items")
	}
	return n, nil
}

// Upsert inserts an item or updates the existing one with the same key.
// It reports whether a new row was created.
func (r *CorpusRepository) Upsert(ctx context.Context, item models.Item) (bool, error) {
	if item.Source == "" {
		return false, errors.New("item source text is empty")
	}

	_, err := r.GetByKey(ctx, item.Kind, item.Source)
	created := errors.Is(err, ErrNotFound)
	if err != nil && !created {
		return false, err
	}

	query := r.db.Rebind(`
		INSERT INTO items (` + itemColumns + `) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, source_text) DO UPDATE SET
			target_text = excluded.target_text,
			pos = excluded.pos,
			level = excluded.level,
			difficulty_score = excluded.difficulty_score
	`)
	_, err = r.db.ExecContext(ctx, query,
		item.Kind,
		item.Source,
		item.Target,
		item.PartOfSpeech,
		item.Level,
		item.DifficultyScore,
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to upsert item")
	}
	return created, nil
}

// Delete removes an item
func (r *CorpusRepository) Delete(ctx context.Context, kind models.Kind, key string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM items WHERE kind = ? AND source_text = ?`), kind, key)
	if err != nil {
		return errors.Wrap(err, "failed to delete item")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
