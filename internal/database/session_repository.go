package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordwise/pkg/models"
)

// GetCheckpoint returns the in-progress session snapshot of a kind, or nil
func (r *StatisticsRepository) GetCheckpoint(ctx context.Context, kind models.Kind) (*models.Checkpoint, error) {
	var cp models.Checkpoint
	query := r.ext.Rebind(`
		SELECT learner_id, kind, session_id, payload, updated_at
		FROM session_checkpoints
		WHERE learner_id = ? AND kind = ?
	`)
	err := sqlx.GetContext(ctx, r.ext, &cp, query, r.learnerID, kind)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get checkpoint")
	}
	return &cp, nil
}

// SaveCheckpoint stores the snapshot, replacing any previous one of the same kind
func (r *StatisticsRepository) SaveCheckpoint(ctx context.Context, cp models.Checkpoint) error {
	query := r.ext.Rebind(`
		INSERT INTO session_checkpoints (learner_id, kind, session_id, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, kind) DO UPDATE SET
			session_id = excluded.session_id,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`)
	_, err := r.ext.ExecContext(ctx, query, r.learnerID, cp.Kind, cp.SessionID, cp.Payload, utc(cp.UpdatedAt))
	return errors.Wrap(err, "failed to save checkpoint")
}

// ClearCheckpoint deletes the snapshot of a kind
func (r *StatisticsRepository) ClearCheckpoint(ctx context.Context, kind models.Kind) error {
	query := r.ext.Rebind(`DELETE FROM session_checkpoints WHERE learner_id = ? AND kind = ?`)
	_, err := r.ext.ExecContext(ctx, query, r.learnerID, kind)
	return errors.Wrap(err, "failed to clear checkpoint")
}

// SaveSessionResult inserts a completed session; an existing id is left untouched
func (r *StatisticsRepository) SaveSessionResult(ctx context.Context, result models.SessionResult) error {
	query := r.ext.Rebind(`
		INSERT INTO session_results (
			id, learner_id, kind, mode, difficulty_mode, review,
			total_questions, correct_count, accuracy, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`)
	_, err := r.ext.ExecContext(ctx, query,
		result.ID,
		r.learnerID,
		result.Kind,
		result.Mode,
		result.DifficultyMode,
		result.Review,
		result.TotalQuestions,
		result.CorrectCount,
		result.Accuracy,
		utc(result.StartedAt),
		utc(result.FinishedAt),
	)
	return errors.Wrap(err, "failed to save session result")
}

// ListSessionResults returns the most recent completed sessions first; limit <= 0 means all
func (r *StatisticsRepository) ListSessionResults(ctx context.Context, kind models.Kind, limit int) ([]models.SessionResult, error) {
	results := []models.SessionResult{}
	query := `
		SELECT id, learner_id, kind, mode, difficulty_mode, review,
		       total_questions, correct_count, accuracy, started_at, finished_at
		FROM session_results
		WHERE learner_id = ? AND kind = ?
		ORDER BY finished_at DESC
	`
	args := []interface{}{r.learnerID, kind}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	if err := sqlx.SelectContext(ctx, r.ext, &results, r.ext.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to list session results")
	}
	return results, nil
}

// MaintenanceRepository holds queries that span every learner
type MaintenanceRepository struct {
	db *sqlx.DB
}

// NewMaintenanceRepository creates a new repository instance
func NewMaintenanceRepository(db *sqlx.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// PruneCheckpoints deletes checkpoints not updated since before and returns how many were removed
func (r *MaintenanceRepository) PruneCheckpoints(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM session_checkpoints WHERE updated_at < ?`), before.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune checkpoints")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "failed to count pruned checkpoints")
}

// WrongSetSizes returns the wrong-set size of every learner and kind that has one
func (r *MaintenanceRepository) WrongSetSizes(ctx context.Context) ([]WrongSetSize, error) {
	sizes := []WrongSetSize{}
	query := r.db.Rebind(`
		SELECT learner_id, kind, COUNT(*) AS cnt
		FROM item_sets
		WHERE set_name = ?
		GROUP BY learner_id, kind
		ORDER BY learner_id, kind
	`)
	if err := r.db.SelectContext(ctx, &sizes, query, setWrong); err != nil {
		return nil, errors.Wrap(err, "failed to count wrong items")
	}
	return sizes, nil
}
