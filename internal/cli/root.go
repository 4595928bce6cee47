// Package cli wires the wordwise command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/example/wordwise/internal/config"
	"github.com/example/wordwise/internal/corpus"
	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/internal/service"
)

type rootOptions struct {
	envFile string
	learner string
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "wordwise",
		Short:         "Vocabulary and phrase drilling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env", "", "path to a .env file")
	cmd.PersistentFlags().StringVar(&opts.learner, "learner", "", "learner id (default from LEARNER_ID)")

	cmd.AddCommand(
		newServeCmd(opts),
		newImportCmd(opts),
		newRemoveCmd(opts),
		newExportCmd(opts),
		newBackupCmd(opts),
		newRestoreCmd(opts),
		newQuizCmd(opts),
		newStatsCmd(opts),
	)
	return cmd
}

// app is the wiring shared by every command
type app struct {
	cfg     config.Config
	log     *slog.Logger
	db      *sqlx.DB
	items   *database.CorpusRepository
	cache   *corpus.Cache
	learner string
}

func (o *rootOptions) open() (*app, error) {
	var files []string
	if o.envFile != "" {
		files = append(files, o.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	items := database.NewCorpusRepository(db)
	cache, err := corpus.NewCache(items, cfg.Cache.MaxKeys, cfg.Cache.TTL)
	if err != nil {
		db.Close()
		return nil, err
	}

	learner := o.learner
	if learner == "" {
		learner = cfg.LearnerID
	}
	return &app{cfg: cfg, log: log, db: db, items: items, cache: cache, learner: learner}, nil
}

func (a *app) Close() {
	a.cache.Close()
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database", "error", err)
	}
}

func (a *app) service() *service.Service {
	return service.New(a.cache, a.db, service.Config{
		DefaultCount: a.cfg.Quiz.DefaultCount,
		OptionCount:  a.cfg.Quiz.OptionCount,
		Logger:       a.log,
	})
}

func (a *app) stats() *database.StatisticsRepository {
	return database.NewStatisticsRepository(a.db, a.learner)
}

// withApp opens the app for the duration of run
func withApp(opts *rootOptions, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := opts.open()
		if err != nil {
			return fmt.Errorf("startup: %w", err)
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}
