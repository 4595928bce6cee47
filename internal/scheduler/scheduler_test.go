package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/pkg/models"
)

type fakeMaintenance struct {
	before time.Time
	pruned int64
	sizes  []database.WrongSetSize
}

func (f *fakeMaintenance) PruneCheckpoints(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.pruned, nil
}

func (f *fakeMaintenance) WrongSetSizes(context.Context) ([]database.WrongSetSize, error) {
	return f.sizes, nil
}

type reminder struct {
	learner string
	kind    models.Kind
	count   int
}

type fakeNotifier struct {
	sent    []reminder
	failFor string
}

func (f *fakeNotifier) SendReminder(learnerID string, kind models.Kind, count int) error {
	if learnerID == f.failFor {
		return errors.New("chat not found")
	}
	f.sent = append(f.sent, reminder{learnerID, kind, count})
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPruneCheckpoints(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeMaintenance{pruned: 3}
	s := New(store, nil, Config{CheckpointTTL: 24 * time.Hour}, quietLogger())
	s.now = func() time.Time { return now }

	n, err := s.PruneCheckpoints(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, now.Add(-24*time.Hour), store.before)
}

func TestPruneCheckpointsDisabled(t *testing.T) {
	store := &fakeMaintenance{pruned: 3}
	s := New(store, nil, Config{}, quietLogger())

	n, err := s.PruneCheckpoints(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, store.before.IsZero())
}

func TestSendReminders(t *testing.T) {
	store := &fakeMaintenance{sizes: []database.WrongSetSize{
		{LearnerID: "100", Kind: models.KindVocabulary, Count: 4},
		{LearnerID: "200", Kind: models.KindPhrase, Count: 2},
		{LearnerID: "300", Kind: models.KindVocabulary, Count: 0},
		{LearnerID: "400", Kind: models.KindPhrase, Count: 7},
	}}
	notifier := &fakeNotifier{failFor: "200"}
	s := New(store, notifier, Config{ReminderHour: 9}, quietLogger())

	sent, err := s.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []reminder{
		{"100", models.KindVocabulary, 4},
		{"400", models.KindPhrase, 7},
	}, notifier.sent)
}

func TestSendRemindersAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	for _, learner := range []string{"a", "b"} {
		stats := database.NewStatisticsRepository(db, learner)
		require.NoError(t, stats.AddWrong(ctx, models.Item{Kind: models.KindVocabulary, Source: "apple", Target: "苹果", Level: models.LevelA1}))
	}

	notifier := &fakeNotifier{}
	s := New(database.NewMaintenanceRepository(db), notifier, Config{}, quietLogger())
	sent, err := s.SendReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, "a", notifier.sent[0].learner)
}

func TestEveryRejectsInvalidInterval(t *testing.T) {
	s := New(&fakeMaintenance{}, nil, Config{}, quietLogger())
	assert.NoError(t, s.Every(time.Minute, "registry", func() {}))
	assert.Error(t, s.Every(0, "broken", func() {}))
}
