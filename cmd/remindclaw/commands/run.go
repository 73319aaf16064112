package commands

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// loop is a long-running component such as the reminder scheduler.
type loop interface {
	Run(ctx context.Context) error
}

// runBot runs the delivery loop beside the command loop until ctx ends or
// serve returns. A halted delivery loop is logged and stays down until
// restart; commands keep being answered.
func runBot(ctx context.Context, logger *slog.Logger, deliveries loop, serve func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := deliveries.Run(gctx); err != nil {
			logger.Error("reminder delivery halted, commands remain available until restart", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		// The command loop owns the session; its end stops deliveries.
		defer cancel()
		return serve(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}
