package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/wordwise/internal/backup"
	"github.com/example/wordwise/internal/corpus"
	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/internal/excel"
	"github.com/example/wordwise/pkg/models"
)

func kindFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "kind", "vocabulary", "vocabulary or phrase")
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var kindName, format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load corpus items from a JSON, xlsx or csv file",
		Args:  cobra.ExactArgs(1),
	}
	kindFlag(cmd, &kindName)
	cmd.Flags().StringVar(&format, "format", "", "json, xlsx or csv (default from the file extension)")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
		kind, err := models.ParseKind(kindName)
		if err != nil {
			return err
		}
		path := args[0]
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		}

		var res *excel.ImportResult
		switch format {
		case "json":
			res, err = importJSON(cmd, a, path, kind)
		case "xlsx", "csv":
			res, err = excel.ImportFile(cmd.Context(), a.items, path, excel.DefaultImportConfig(kind))
		default:
			return fmt.Errorf("unsupported format %q", format)
		}
		if err != nil {
			return err
		}

		a.cache.Invalidate()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Processed %d: %d created, %d updated, %d skipped\n", res.TotalProcessed, res.Created, res.Updated, res.Skipped)
		for _, e := range res.Errors {
			fmt.Fprintln(out, "  "+e)
		}
		total, err := a.items.Count(cmd.Context(), kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Corpus now holds %d %s items\n", total, kind)
		return nil
	})
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	var kindName string
	cmd := &cobra.Command{
		Use:   "remove <text>...",
		Short: "Delete corpus items by their source text",
		Args:  cobra.MinimumNArgs(1),
	}
	kindFlag(cmd, &kindName)

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
		kind, err := models.ParseKind(kindName)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		removed := 0
		for _, key := range args {
			err := a.items.Delete(cmd.Context(), kind, key)
			if errors.Is(err, database.ErrNotFound) {
				fmt.Fprintf(out, "  not found: %s\n", key)
				continue
			}
			if err != nil {
				return err
			}
			removed++
		}
		a.cache.Invalidate()
		fmt.Fprintf(out, "Removed %d of %d\n", removed, len(args))
		return nil
	})
	return cmd
}

func importJSON(cmd *cobra.Command, a *app, path string, kind models.Kind) (*excel.ImportResult, error) {
	items, err := corpus.LoadFile(path, kind)
	if err != nil {
		return nil, err
	}
	res := &excel.ImportResult{Errors: make([]string, 0)}
	for _, it := range items {
		res.TotalProcessed++
		created, err := a.items.Upsert(cmd.Context(), it)
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var kindName string
	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write the learner's statistics to a spreadsheet",
		Args:  cobra.ExactArgs(1),
	}
	kindFlag(cmd, &kindName)

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
		kind, err := models.ParseKind(kindName)
		if err != nil {
			return err
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := excel.ExportStats(cmd.Context(), a.stats(), kind, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s statistics of %s to %s\n", kind, a.learner, args[0])
		return nil
	})
	return cmd
}

func newBackupCmd(opts *rootOptions) *cobra.Command {
	var (
		kindName  string
		withStats bool
	)
	cmd := &cobra.Command{
		Use:   "backup <file.json>",
		Short: "Export the wrong-item set and statistics as JSON",
		Args:  cobra.ExactArgs(1),
	}
	kindFlag(cmd, &kindName)
	cmd.Flags().BoolVar(&withStats, "stats", true, "include full statistics")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
		kind, err := models.ParseKind(kindName)
		if err != nil {
			return err
		}
		doc, err := backup.Export(cmd.Context(), a.stats(), kind, a.learner, withStats)
		if err != nil {
			return err
		}
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := backup.Write(f, doc); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d wrong item(s) to %s\n", doc.TotalWrong, args[0])
		return nil
	})
	return cmd
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "restore <file.json>",
		Short: "Import a backup; nothing is written if the file is malformed",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "delete existing data of the backup's kind first")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		doc, err := backup.Read(f)
		if err != nil {
			return err
		}
		mode := backup.Merge
		if replace {
			mode = backup.Replace
		}
		res, err := backup.Restore(cmd.Context(), a.stats(), doc, mode)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d wrong item(s), %d weak item(s), %d item stat(s), %d level stat(s)\n",
			res.WrongItems, res.WeakItems, res.ItemStats, res.LevelStats)
		return nil
	})
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the learner's progress",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
		svc := a.service()
		out := cmd.OutOrStdout()
		for _, kind := range models.Kinds {
			o, err := svc.Overview(cmd.Context(), a.learner, kind)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d items, %d studied, %d correct answers, %d to review\n",
				kind, o.Total, o.Studied, o.Correct, o.Wrong)
			fmt.Fprintf(out, "  sessions %d, average accuracy %.1f%%\n", o.Aggregate.TotalSessions, o.Aggregate.AverageAccuracy)
			for _, ls := range o.Levels {
				fmt.Fprintf(out, "  %s: %d/%d (%.1f%%)\n", ls.Level, ls.CorrectAnswers, ls.TotalQuestions, ls.Accuracy)
			}
		}
		return nil
	})
	return cmd
}
