package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lkarlslund/gatherbot/internal/bot"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the mount, navigate, gather loop against the game window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			logger := a.logger.With(zap.String("session", uuid.NewString()))

			initial, err := bot.ParseState(cfg.Bot.InitialPhase)
			if err != nil {
				return err
			}

			r, err := newRig(logger, cfg)
			if err != nil {
				return err
			}
			defer r.Close()

			inj, err := r.injector()
			if err != nil {
				return err
			}
			phases, err := r.phases(inj)
			if err != nil {
				return err
			}

			watcher := bot.NewWatcher(logger, r.triggers()...)
			opts := []bot.ControllerOption{bot.WithWatcher(watcher)}
			if cfg.Bot.Threaded {
				opts = append(opts, bot.WithRunner(bot.NewBackgroundRunner(logger, cfg.Bot.Tick/4)))
			}
			controller, err := bot.NewController(logger, bot.Config{Tick: cfg.Bot.Tick, Initial: initial}, r.source, phases, opts...)
			if err != nil {
				return err
			}

			logger.Info("Starting bot",
				zap.Stringer("phase", initial),
				zap.Bool("dry_run", cfg.Bot.DryRun),
				zap.Bool("threaded", cfg.Bot.Threaded),
				zap.String("stop_key", cfg.Watcher.Key))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return watcher.Run(gctx) })
			g.Go(func() error {
				defer watcher.Stop()
				return controller.Run(gctx)
			})
			if err := g.Wait(); err != nil {
				return err
			}
			logger.Info("Bot stopped")
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "log input instead of sending it")
	cmd.Flags().Bool("threaded", false, "run every unit on its own goroutine")
	cmd.Flags().String("replay", "", "read frames from this directory instead of the game window")
	cmd.Flags().String("phase", "", "phase to start in: mounting, navigating or gathering")
	return cmd
}
