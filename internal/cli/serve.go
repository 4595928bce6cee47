package cli

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/wordwise/internal/api"
	"github.com/example/wordwise/internal/bot"
	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/internal/scheduler"
)

// sessionIdle is how long an untouched session stays in the registry
const sessionIdle = 6 * time.Hour

func newServeCmd(opts *rootOptions) *cobra.Command {
	var noBot bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the scheduler",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&noBot, "no-bot", false, "do not start the Telegram bot")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := a.service()
		server := api.New(svc, api.Config{
			Addr:             a.cfg.HTTP.Addr,
			CORSOrigins:      a.cfg.HTTP.CORSOrigins,
			DefaultLearnerID: a.cfg.LearnerID,
		}, a.log)

		var (
			wg       sync.WaitGroup
			notifier scheduler.Notifier
		)
		if a.cfg.Bot.Token != "" && !noBot {
			cfg := bot.DefaultConfig(a.cfg.Bot.Token)
			cfg.DefaultCount = a.cfg.Quiz.DefaultCount
			b, err := bot.New(svc, cfg, a.log)
			if err != nil {
				return err
			}
			notifier = b

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := b.Start(ctx); err != nil {
					a.log.Error("bot error", "error", err)
				}
			}()
		}

		if a.cfg.Scheduler.Enabled {
			sched := scheduler.New(database.NewMaintenanceRepository(a.db), notifier, scheduler.Config{
				CheckpointTTL: a.cfg.Scheduler.CheckpointTTL,
				ReminderHour:  a.cfg.Scheduler.ReminderHour,
			}, a.log)
			err := sched.Every(time.Hour, "session registry", func() {
				if n := svc.Prune(time.Now().Add(-sessionIdle)); n > 0 {
					a.log.Info("dropped idle sessions", "count", n)
				}
			})
			if err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}

		err := server.Run(ctx)
		stop()
		wg.Wait()
		return err
	})
	return cmd
}
