package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/bot"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/channels/discord"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/config"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/database"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/scheduler"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/timezone"
)

// newServeCmd creates the `remindclaw serve` command that runs the bot.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot and the reminder scheduler",
		Long: `Connect to Discord, answer remindme/time/timeto commands and deliver
due reminders by direct message until interrupted.

The bot token is taken from the OS keyring, then REMINDCLAW_DISCORD_TOKEN,
then the config file.

Examples:
  remindclaw serve
  remindclaw serve --config ./remindclaw.yaml -v`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	if config.ResolveDiscordToken(cfg, logger) == "" {
		return fmt.Errorf("no Discord bot token: run 'remindclaw token set' or set REMINDCLAW_DISCORD_TOKEN")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer backend.Close()

	store := database.NewReminderStore(backend, logger)
	svc := bot.New(store, timezone.NewResolver(nil, time.Now()), cfg.Prefix, logger)

	dc := discord.New(cfg.Discord, logger)
	if err := dc.Connect(ctx); err != nil {
		return err
	}
	defer dc.Disconnect()

	sched := scheduler.New(store, dc, cfg.Scheduler, logger)

	logger.Info("remindclaw running, press Ctrl+C to stop",
		"name", cfg.Name,
		"prefix", cfg.Prefix,
		"backend", backend.Type,
		"interval", sched.Config().Interval,
	)

	err = runBot(ctx, logger, sched, func(ctx context.Context) error {
		return svc.Serve(ctx, dc)
	})
	logger.Info("shutdown complete")
	return err
}
