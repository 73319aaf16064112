package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/bot"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/channels/console"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/database"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/reminder"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/scheduler"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/timezone"
)

// newConsoleCmd creates `remindclaw console`, a local REPL over the same
// commands the bot answers on Discord.
func newConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive prompt for the reminder commands",
		Long: `Type the same commands the bot understands (!remindme, !time, !timeto).
Reminders for --user that fall due are printed while the prompt is open.

Examples:
  remindclaw console --user 123456789
  remindclaw console --memory`,
		RunE: runConsole,
	}

	cmd.Flags().String("user", "", "user id the commands run as (default: console.user_id)")
	cmd.Flags().Bool("memory", false, "keep reminders in memory instead of the configured database")
	return cmd
}

func runConsole(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	if user, _ := cmd.Flags().GetString("user"); user != "" {
		cfg.Console.UserID = user
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store reminder.Store
	if memory, _ := cmd.Flags().GetBool("memory"); memory {
		store = reminder.NewMemoryStore()
	} else {
		backend, err := database.Open(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer backend.Close()
		store = database.NewReminderStore(backend, logger)
	}

	ch := console.New(cfg.Console, logger)
	if err := ch.Connect(ctx); err != nil {
		return err
	}
	defer ch.Disconnect()

	svc := bot.New(store, timezone.NewResolver(nil, time.Now()), cfg.Prefix, logger)
	sched := scheduler.New(userStore{Store: store, user: cfg.Console.UserID}, ch, cfg.Scheduler, logger)

	fmt.Fprintf(os.Stderr, "remindclaw console as %q. Type %sremindme for help, exit to quit.\n",
		cfg.Console.UserID, svc.Prefix())

	// Leaving the prompt ends the session.
	return runBot(ctx, logger, sched, func(ctx context.Context) error {
		return svc.Serve(ctx, ch)
	})
}

// userStore narrows the scheduler's scan to one user, so a console session
// sharing the bot's database never consumes other users' reminders.
type userStore struct {
	reminder.Store
	user string
}

func (s userStore) AllReminders(ctx context.Context) (map[string][]reminder.Reminder, error) {
	list, err := s.Store.Reminders(ctx, s.user)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return map[string][]reminder.Reminder{}, nil
	}
	return map[string][]reminder.Reminder{s.user: list}, nil
}

// quietLogger discards everything below warn, for one-shot commands.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
