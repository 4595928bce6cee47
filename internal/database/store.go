package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/example/wordwise/pkg/models"
)

// ErrNotFound is returned when a single-row lookup has no match
var ErrNotFound = errors.New("not found")

// CorpusStore is read-only access to the item corpus
type CorpusStore interface {
	GetAll(ctx context.Context, kind models.Kind) ([]models.Item, error)
	GetByLevel(ctx context.Context, kind models.Kind, level models.Level) ([]models.Item, error)
	GetByDifficultyRange(ctx context.Context, kind models.Kind, min, max float64) ([]models.Item, error)
}

// StatsStore is the durable statistics of one learner.
// Get methods return (nil, nil) when a row does not exist yet.
type StatsStore interface {
	GetItemStat(ctx context.Context, kind models.Kind, key string) (*models.ItemStat, error)
	ListItemStats(ctx context.Context, kind models.Kind) ([]models.ItemStat, error)
	PutItemStat(ctx context.Context, stat models.ItemStat) error

	GetLevelStat(ctx context.Context, kind models.Kind, level models.Level) (*models.LevelStat, error)
	ListLevelStats(ctx context.Context, kind models.Kind) ([]models.LevelStat, error)
	PutLevelStat(ctx context.Context, stat models.LevelStat) error

	GetWrongSet(ctx context.Context, kind models.Kind) ([]models.Item, error)
	AddWrong(ctx context.Context, item models.Item) error
	RemoveWrong(ctx context.Context, item models.Item) error

	GetWeakItems(ctx context.Context, kind models.Kind) ([]models.Item, error)
	AddWeakItems(ctx context.Context, items []models.Item) error

	GetAggregateStats(ctx context.Context, kind models.Kind) (models.AggregateStats, error)
	PutAggregateStats(ctx context.Context, stats models.AggregateStats) error

	GetCheckpoint(ctx context.Context, kind models.Kind) (*models.Checkpoint, error)
	SaveCheckpoint(ctx context.Context, cp models.Checkpoint) error
	ClearCheckpoint(ctx context.Context, kind models.Kind) error

	SaveSessionResult(ctx context.Context, result models.SessionResult) error
	ListSessionResults(ctx context.Context, kind models.Kind, limit int) ([]models.SessionResult, error)

	// ResetKind deletes every statistics row of the kind
	ResetKind(ctx context.Context, kind models.Kind) error

	// WithinTx runs fn against a store bound to one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx StatsStore) error) error
}

// WrongSetSize is the number of wrong items a learner has for a kind
type WrongSetSize struct {
	LearnerID string      `db:"learner_id"`
	Kind      models.Kind `db:"kind"`
	Count     int         `db:"cnt"`
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
