package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/wordwise/pkg/models"
)

// StatisticsRepository is the SQL StatsStore of a single learner
type StatisticsRepository struct {
	db        *sqlx.DB // nil when bound to a transaction
	ext       sqlx.ExtContext
	learnerID string
}

var _ StatsStore = (*StatisticsRepository)(nil)

// NewStatisticsRepository creates a repository scoped to learnerID
func NewStatisticsRepository(db *sqlx.DB, learnerID string) *StatisticsRepository {
	return &StatisticsRepository{db: db, ext: db, learnerID: learnerID}
}

// LearnerID returns the learner the repository is scoped to
func (r *StatisticsRepository) LearnerID() string {
	return r.learnerID
}

// WithinTx implements StatsStore. Nested calls reuse the open transaction.
func (r *StatisticsRepository) WithinTx(ctx context.Context, fn func(tx StatsStore) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := fn(&StatisticsRepository{ext: tx, learnerID: r.learnerID}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rollback failed: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

// GetItemStat returns the stat of one item, or nil if it was never attempted
func (r *StatisticsRepository) GetItemStat(ctx context.Context, kind models.Kind, key string) (*models.ItemStat, error) {
	var stat models.ItemStat
	query := r.ext.Rebind(`
		SELECT learner_id, kind, item_key, total_attempts, correct_attempts,
		       wrong_attempts, accuracy, last_attempted
		FROM item_stats
		WHERE learner_id = ? AND kind = ? AND item_key = ?
	`)
	err := sqlx.GetContext(ctx, r.ext, &stat, query, r.learnerID, kind, key)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get item stat")
	}
	return &stat, nil
}

// ListItemStats returns every item stat of a kind
func (r *StatisticsRepository) ListItemStats(ctx context.Context, kind models.Kind) ([]models.ItemStat, error) {
	stats := []models.ItemStat{}
	query := r.ext.Rebind(`
		SELECT learner_id, kind, item_key, total_attempts, correct_attempts,
		       wrong_attempts, accuracy, last_attempted
		FROM item_stats
		WHERE learner_id = ? AND kind = ?
		ORDER BY item_key
	`)
	if err := sqlx.SelectContext(ctx, r.ext, &stats, query, r.learnerID, kind); err != nil {
		return nil, errors.Wrap(err, "failed to list item stats")
	}
	return stats, nil
}

// PutItemStat inserts or replaces an item stat
func (r *StatisticsRepository) PutItemStat(ctx context.Context, stat models.ItemStat) error {
	query := r.ext.Rebind(`
		INSERT INTO item_stats (
			learner_id, kind, item_key, total_attempts, correct_attempts,
			wrong_attempts, accuracy, last_attempted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, kind, item_key) DO UPDATE SET
			total_attempts = excluded.total_attempts,
			correct_attempts = excluded.correct_attempts,
			wrong_attempts = excluded.wrong_attempts,
			accuracy = excluded.accuracy,
			last_attempted = excluded.last_attempted
	`)
	_, err := r.ext.ExecContext(ctx, query,
		r.learnerID,
		stat.Kind,
		stat.ItemKey,
		stat.TotalAttempts,
		stat.CorrectAttempts,
		stat.WrongAttempts,
		stat.Accuracy,
		utc(stat.LastAttempted),
	)
	return errors.Wrap(err, "failed to put item stat")
}

// GetLevelStat returns the stat of one level, or nil if the level was never answered
func (r *StatisticsRepository) GetLevelStat(ctx context.Context, kind models.Kind, level models.Level) (*models.LevelStat, error) {
	var stat models.LevelStat
	query := r.ext.Rebind(`
		SELECT learner_id, kind, level, total_questions, correct_answers, accuracy, last_updated
		FROM level_stats
		WHERE learner_id = ? AND kind = ? AND level = ?
	`)
	err := sqlx.GetContext(ctx, r.ext, &stat, query, r.learnerID, kind, level)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get level stat")
	}
	return &stat, nil
}

// ListLevelStats returns every level stat of a kind
func (r *StatisticsRepository) ListLevelStats(ctx context.Context, kind models.Kind) ([]models.LevelStat, error) {
	stats := []models.LevelStat{}
	query := r.ext.Rebind(`
		SELECT learner_id, kind, level, total_questions, correct_answers, accuracy, last_updated
		FROM level_stats
		WHERE learner_id = ? AND kind = ?
		ORDER BY level
	`)
	if err := sqlx.SelectContext(ctx, r.ext, &stats, query, r.learnerID, kind); err != nil {
		return nil, errors.Wrap(err, "failed to list level stats")
	}
	return stats, nil
}

// PutLevelStat inserts or replaces a level stat
func (r *StatisticsRepository) PutLevelStat(ctx context.Context, stat models.LevelStat) error {
	query := r.ext.Rebind(`
		INSERT INTO level_stats (
			learner_id, kind, level, total_questions, correct_answers, accuracy, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, kind, level) DO UPDATE SET
			total_questions = excluded.total_questions,
			correct_answers = excluded.correct_answers,
			accuracy = excluded.accuracy,
			last_updated = excluded.last_updated
	`)
	_, err := r.ext.ExecContext(ctx, query,
		r.learnerID,
		stat.Kind,
		stat.Level,
		stat.TotalQuestions,
		stat.CorrectAnswers,
		stat.Accuracy,
		utc(stat.LastUpdated),
	)
	return errors.Wrap(err, "failed to put level stat")
}

// GetAggregateStats returns the session totals of a kind; zero values when none exist
func (r *StatisticsRepository) GetAggregateStats(ctx context.Context, kind models.Kind) (models.AggregateStats, error) {
	stats := models.AggregateStats{LearnerID: r.learnerID, Kind: kind}
	query := r.ext.Rebind(`
		SELECT learner_id, kind, total_sessions, total_questions, correct_answers, average_accuracy
		FROM aggregate_stats
		WHERE learner_id = ? AND kind = ?
	`)
	err := sqlx.GetContext(ctx, r.ext, &stats, query, r.learnerID, kind)
	if err != nil && !isNoRows(err) {
		return stats, errors.Wrap(err, "failed to get aggregate stats")
	}
	return stats, nil
}

// PutAggregateStats inserts or replaces the session totals of a kind
func (r *StatisticsRepository) PutAggregateStats(ctx context.Context, stats models.AggregateStats) error {
	query := r.ext.Rebind(`
		INSERT INTO aggregate_stats (
			learner_id, kind, total_sessions, total_questions, correct_answers, average_accuracy
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, kind) DO UPDATE SET
			total_sessions = excluded.total_sessions,
			total_questions = excluded.total_questions,
			correct_answers = excluded.correct_answers,
			average_accuracy = excluded.average_accuracy
	`)
	_, err := r.ext.ExecContext(ctx, query,
		r.learnerID,
		stats.Kind,
		stats.TotalSessions,
		stats.TotalQuestions,
		stats.CorrectAnswers,
		stats.AverageAccuracy,
	)
	return errors.Wrap(err, "failed to put aggregate stats")
}

// ResetKind deletes every statistics row the learner has for a kind
func (r *StatisticsRepository) ResetKind(ctx context.Context, kind models.Kind) error {
	for _, table := range []string{"item_stats", "level_stats", "aggregate_stats", "item_sets", "session_checkpoints", "session_results"} {
		query := r.ext.Rebind(`DELETE FROM ` + table + ` WHERE learner_id = ? AND kind = ?`)
		if _, err := r.ext.ExecContext(ctx, query, r.learnerID, kind); err != nil {
			return errors.Wrapf(err, "failed to reset %s", table)
		}
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
