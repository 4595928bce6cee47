package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/wordwise/internal/corpus"
	"github.com/example/wordwise/pkg/models"
)

// Upserter stores imported items; created reports a new row
type Upserter interface {
	Upsert(ctx context.Context, item models.Item) (created bool, err error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	Kind         models.Kind
	SourceColumn string // Column with the source text
	TargetColumn string // Column with the translation
	POSColumn    string // Column with the part of speech, optional
	LevelColumn  string // Column with the CEFR level, optional
	ScoreColumn  string // Column with the difficulty score, optional
	SheetName    string // Sheet to import, empty means the first sheet
	StartRow     int    // The row to start importing from (1-based index)
	DefaultLevel models.Level
}

// DefaultImportConfig returns the default import configuration for kind
func DefaultImportConfig(kind models.Kind) ImportConfig {
	cfg := ImportConfig{
		Kind:         kind,
		SourceColumn: "A",
		TargetColumn: "B",
		POSColumn:    "C",
		LevelColumn:  "D",
		ScoreColumn:  "E",
		StartRow:     2, // skip header
		DefaultLevel: models.LevelB1,
	}
	if kind == models.KindPhrase {
		cfg.DefaultLevel = models.LevelC1
	}
	return cfg
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int      `json:"total_processed"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors"`
}

// ImportFile imports items from an .xlsx or .csv file
func ImportFile(ctx context.Context, store Upserter, path string, config ImportConfig) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return ImportCSV(ctx, store, f, config)
	}
	return ImportXLSX(ctx, store, f, config)
}

// ImportXLSX imports items from an Excel workbook
func ImportXLSX(ctx context.Context, store Upserter, r io.Reader, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		if err := importRow(ctx, store, row, config, result, i+1); err != nil {
			return result, err
		}
	}
	return result, nil
}

// ImportCSV imports items from a CSV stream
func ImportCSV(ctx context.Context, store Upserter, r io.Reader, config ImportConfig) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("error reading CSV: %w", err)
		}

		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		if err := importRow(ctx, store, row, config, result, rowNum); err != nil {
			return result, err
		}
	}
	return result, nil
}

// importRow converts one row and stores it. Bad rows are recorded in result;
// only a store failure is returned.
func importRow(ctx context.Context, store Upserter, row []string, config ImportConfig, result *ImportResult, rowNum int) error {
	if isBlank(row) {
		return nil
	}
	result.TotalProcessed++

	item, err := rowToItem(row, config)
	if err != nil {
		result.Skipped++
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		return nil
	}

	created, err := store.Upsert(ctx, item)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}
	return nil
}

func rowToItem(row []string, config ImportConfig) (models.Item, error) {
	item := models.Item{
		Kind:         config.Kind,
		Source:       cleanWord(cell(row, config.SourceColumn)),
		Target:       strings.TrimSpace(cell(row, config.TargetColumn)),
		PartOfSpeech: strings.TrimSpace(cell(row, config.POSColumn)),
		Level:        config.DefaultLevel,
	}
	if item.Source == "" {
		return item, fmt.Errorf("source text cannot be empty")
	}
	if item.Target == "" {
		return item, fmt.Errorf("translation cannot be empty")
	}

	if raw := strings.TrimSpace(cell(row, config.LevelColumn)); raw != "" {
		level, err := models.ParseLevel(raw)
		if err != nil {
			return item, err
		}
		item.Level = level
	}

	if raw := strings.TrimSpace(cell(row, config.ScoreColumn)); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil || score < 0 || score > 100 {
			return item, fmt.Errorf("invalid difficulty score %q", raw)
		}
		item.DifficultyScore = score
	} else if item.Kind == models.KindPhrase {
		item.DifficultyScore = corpus.PhraseDifficulty(item.Source)
	}
	return item, nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// cleanWord drops a trailing parenthesised note, "go (went, gone)" -> "go"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
