package database

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordwise/pkg/models"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func vocab(source, target string, level models.Level, score float64) models.Item {
	return models.Item{
		Kind:            models.KindVocabulary,
		Source:          source,
		Target:          target,
		PartOfSpeech:    "n.",
		Level:           level,
		DifficultyScore: score,
	}
}

func TestCorpusRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCorpusRepository(openTestDB(t))

	for _, item := range []models.Item{
		vocab("apple", "苹果", models.LevelA1, 10),
		vocab("bridge", "桥", models.LevelA2, 25),
		vocab("candid", "坦率的", models.LevelC1, 80),
		{Kind: models.KindPhrase, Source: "look after", Target: "照顾", Level: models.LevelC1, DifficultyScore: 35},
	} {
		created, err := repo.Upsert(ctx, item)
		require.NoError(t, err)
		assert.True(t, created)
	}

	all, err := repo.GetAll(ctx, models.KindVocabulary)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "apple", all[0].Source)

	a1, err := repo.GetByLevel(ctx, models.KindVocabulary, models.LevelA1)
	require.NoError(t, err)
	require.Len(t, a1, 1)
	assert.Equal(t, "苹果", a1[0].Target)

	ranged, err := repo.GetByDifficultyRange(ctx, models.KindVocabulary, 10, 25)
	require.NoError(t, err)
	require.Len(t, ranged, 2)

	phrases, err := repo.GetAll(ctx, models.KindPhrase)
	require.NoError(t, err)
	require.Len(t, phrases, 1)

	created, err := repo.Upsert(ctx, vocab("apple", "苹果树", models.LevelA2, 12))
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.GetByKey(ctx, models.KindVocabulary, "apple")
	require.NoError(t, err)
	assert.Equal(t, "苹果树", got.Target)
	assert.Equal(t, models.LevelA2, got.Level)

	n, err := repo.Count(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, repo.Delete(ctx, models.KindVocabulary, "apple"))
	_, err = repo.GetByKey(ctx, models.KindVocabulary, "apple")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, models.KindVocabulary, "apple"), ErrNotFound)
}

func TestStatisticsRepositoryItemAndLevelStats(t *testing.T) {
	ctx := context.Background()
	repo := NewStatisticsRepository(openTestDB(t), "default")

	stat, err := repo.GetItemStat(ctx, models.KindVocabulary, "apple")
	require.NoError(t, err)
	assert.Nil(t, stat)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := models.ItemStat{Kind: models.KindVocabulary, ItemKey: "apple"}
	s.Record(true, now)
	s.Record(false, now)
	s.Record(true, now)
	require.NoError(t, repo.PutItemStat(ctx, s))

	stat, err = repo.GetItemStat(ctx, models.KindVocabulary, "apple")
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, 3, stat.TotalAttempts)
	assert.Equal(t, 2, stat.CorrectAttempts)
	assert.Equal(t, 1, stat.WrongAttempts)
	assert.Equal(t, float64(2)/float64(3)*100, stat.Accuracy)
	assert.True(t, now.Equal(stat.LastAttempted))

	stats, err := repo.ListItemStats(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Len(t, stats, 1)

	ls := models.LevelStat{Kind: models.KindVocabulary, Level: models.LevelB2}
	ls.Record(false, now)
	require.NoError(t, repo.PutLevelStat(ctx, ls))
	ls.Record(true, now)
	require.NoError(t, repo.PutLevelStat(ctx, ls))

	level, err := repo.GetLevelStat(ctx, models.KindVocabulary, models.LevelB2)
	require.NoError(t, err)
	require.NotNil(t, level)
	assert.Equal(t, 2, level.TotalQuestions)
	assert.Equal(t, 50.0, level.Accuracy)

	missing, err := repo.GetLevelStat(ctx, models.KindVocabulary, models.LevelA1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	other := NewStatisticsRepository(repo.db, "someone-else")
	levels, err := other.ListLevelStats(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Empty(t, levels)
}

func TestStatisticsRepositorySets(t *testing.T) {
	ctx := context.Background()
	repo := NewStatisticsRepository(openTestDB(t), "default")

	apple := vocab("apple", "苹果", models.LevelA1, 10)
	bridge := vocab("bridge", "桥", models.LevelA2, 25)

	require.NoError(t, repo.AddWrong(ctx, apple))
	require.NoError(t, repo.AddWrong(ctx, apple))
	require.NoError(t, repo.AddWrong(ctx, bridge))

	wrong, err := repo.GetWrongSet(ctx, models.KindVocabulary)
	require.NoError(t, err)
	require.Len(t, wrong, 2)

	require.NoError(t, repo.RemoveWrong(ctx, apple))
	wrong, err = repo.GetWrongSet(ctx, models.KindVocabulary)
	require.NoError(t, err)
	require.Len(t, wrong, 1)
	assert.Equal(t, bridge, wrong[0])

	require.NoError(t, repo.AddWeakItems(ctx, []models.Item{apple, bridge, apple}))
	weak, err := repo.GetWeakItems(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Len(t, weak, 2)

	sizes, err := NewMaintenanceRepository(repo.db).WrongSetSizes(ctx)
	require.NoError(t, err)
	require.Len(t, sizes, 1)
	assert.Equal(t, WrongSetSize{LearnerID: "default", Kind: models.KindVocabulary, Count: 1}, sizes[0])
}

func TestStatisticsRepositoryAggregateAndSessions(t *testing.T) {
	ctx := context.Background()
	repo := NewStatisticsRepository(openTestDB(t), "default")

	agg, err := repo.GetAggregateStats(ctx, models.KindPhrase)
	require.NoError(t, err)
	assert.Zero(t, agg.TotalSessions)

	agg.AddSession(10, 7)
	agg.AddSession(10, 9)
	require.NoError(t, repo.PutAggregateStats(ctx, agg))

	agg, err = repo.GetAggregateStats(ctx, models.KindPhrase)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.TotalSessions)
	assert.Equal(t, 20, agg.TotalQuestions)
	assert.Equal(t, 16, agg.CorrectAnswers)
	assert.Equal(t, 80.0, agg.AverageAccuracy)

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2"} {
		require.NoError(t, repo.SaveSessionResult(ctx, models.SessionResult{
			ID:             id,
			Kind:           models.KindPhrase,
			Mode:           models.StudyMixed,
			DifficultyMode: models.DifficultyAuto,
			Review:         i == 1,
			TotalQuestions: 10,
			CorrectCount:   7 + i,
			Accuracy:       70 + float64(i*10),
			StartedAt:      start.Add(time.Duration(i) * time.Hour),
			FinishedAt:     start.Add(time.Duration(i)*time.Hour + 5*time.Minute),
		}))
	}

	results, err := repo.ListSessionResults(ctx, models.KindPhrase, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s2", results[0].ID)
	assert.True(t, results[0].Review)
	assert.Equal(t, 5*time.Minute, results[0].Duration())
}

func TestCheckpointsAndPruning(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewStatisticsRepository(db, "default")

	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, repo.SaveCheckpoint(ctx, models.Checkpoint{
		Kind: models.KindVocabulary, SessionID: "a", Payload: `{"id":"a"}`, UpdatedAt: old,
	}))
	require.NoError(t, repo.SaveCheckpoint(ctx, models.Checkpoint{
		Kind: models.KindPhrase, SessionID: "b", Payload: `{"id":"b"}`,
	}))

	cp, err := repo.GetCheckpoint(ctx, models.KindVocabulary)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, `{"id":"a"}`, cp.Payload)

	n, err := NewMaintenanceRepository(db).PruneCheckpoints(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	cp, err = repo.GetCheckpoint(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Nil(t, cp)

	require.NoError(t, repo.ClearCheckpoint(ctx, models.KindPhrase))
	cp, err = repo.GetCheckpoint(ctx, models.KindPhrase)
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewStatisticsRepository(openTestDB(t), "default")
	apple := vocab("apple", "苹果", models.LevelA1, 10)
	boom := errors.New("boom")

	err := repo.WithinTx(ctx, func(tx StatsStore) error {
		require.NoError(t, tx.AddWrong(ctx, apple))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	wrong, err := repo.GetWrongSet(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Empty(t, wrong)

	err = repo.WithinTx(ctx, func(tx StatsStore) error {
		if err := tx.AddWrong(ctx, apple); err != nil {
			return err
		}
		return tx.WithinTx(ctx, func(inner StatsStore) error {
			return inner.PutItemStat(ctx, models.ItemStat{Kind: models.KindVocabulary, ItemKey: "apple", TotalAttempts: 1, WrongAttempts: 1})
		})
	})
	require.NoError(t, err)

	wrong, err = repo.GetWrongSet(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Len(t, wrong, 1)
}

func TestResetKind(t *testing.T) {
	ctx := context.Background()
	repo := NewStatisticsRepository(openTestDB(t), "default")

	require.NoError(t, repo.AddWrong(ctx, vocab("apple", "苹果", models.LevelA1, 10)))
	require.NoError(t, repo.PutItemStat(ctx, models.ItemStat{Kind: models.KindVocabulary, ItemKey: "apple", TotalAttempts: 1}))
	require.NoError(t, repo.ResetKind(ctx, models.KindVocabulary))

	wrong, err := repo.GetWrongSet(ctx, models.KindVocabulary)
	require.NoError(t, err)
	assert.Empty(t, wrong)
	stat, err := repo.GetItemStat(ctx, models.KindVocabulary, "apple")
	require.NoError(t, err)
	assert.Nil(t, stat)
}
