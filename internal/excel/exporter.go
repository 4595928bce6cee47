package excel

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/pkg/models"
)

// Sheet names written by ExportStats
const (
	SheetItems    = "Items"
	SheetLevels   = "Levels"
	SheetWrong    = "Wrong"
	SheetSessions = "Sessions"
)

// ExportStats writes a workbook with the learner's statistics for kind
func ExportStats(ctx context.Context, store database.StatsStore, kind models.Kind, w io.Writer) error {
	items, err := store.ListItemStats(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list item stats: %w", err)
	}
	levels, err := store.ListLevelStats(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list level stats: %w", err)
	}
	wrong, err := store.GetWrongSet(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to get wrong items: %w", err)
	}
	sessions, err := store.ListSessionResults(ctx, kind, 0)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	// The new workbook starts with a single Sheet1
	f.SetSheetName("Sheet1", SheetItems)
	for _, name := range []string{SheetLevels, SheetWrong, SheetSessions} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	itemRows := make([][]interface{}, 0, len(items))
	for _, s := range items {
		itemRows = append(itemRows, []interface{}{s.ItemKey, s.TotalAttempts, s.CorrectAttempts, s.WrongAttempts, s.Accuracy, formatTime(s.LastAttempted)})
	}
	levelRows := make([][]interface{}, 0, len(levels))
	for _, s := range levels {
		levelRows = append(levelRows, []interface{}{string(s.Level), s.TotalQuestions, s.CorrectAnswers, s.Accuracy, formatTime(s.LastUpdated)})
	}
	wrongRows := make([][]interface{}, 0, len(wrong))
	for _, it := range wrong {
		wrongRows = append(wrongRows, []interface{}{it.Source, it.Target, it.PartOfSpeech, string(it.Level)})
	}
	sessionRows := make([][]interface{}, 0, len(sessions))
	for _, r := range sessions {
		sessionRows = append(sessionRows, []interface{}{r.ID, string(r.Mode), string(r.DifficultyMode), r.Review, r.TotalQuestions, r.CorrectCount, r.Accuracy, formatTime(r.StartedAt), formatTime(r.FinishedAt)})
	}

	sheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
	}{
		{SheetItems, []interface{}{"Item", "Attempts", "Correct", "Wrong", "Accuracy", "Last attempted"}, itemRows},
		{SheetLevels, []interface{}{"Level", "Questions", "Correct", "Accuracy", "Last updated"}, levelRows},
		{SheetWrong, []interface{}{"Source", "Target", "POS", "Level"}, wrongRows},
		{SheetSessions, []interface{}{"ID", "Mode", "Difficulty", "Review", "Questions", "Correct", "Accuracy", "Started", "Finished"}, sessionRows},
	}
	for _, s := range sheets {
		if err := writeRows(f, s.name, s.header, s.rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	for i, row := range append([][]interface{}{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
