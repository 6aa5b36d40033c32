package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lkarlslund/gatherbot/internal/config"
	"github.com/lkarlslund/gatherbot/internal/observability"
)

// app is what every subcommand gets once the root pre-run loaded the
// configuration.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	logger  *zap.Logger
	// flag name -> config key, bound after the config file is read
	bindings map[string]string
}

func (a *app) bind(flags *pflag.FlagSet) error {
	for flag, key := range a.bindings {
		if f := flags.Lookup(flag); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	a := &app{bindings: map[string]string{
		"dry-run":  "bot.dry_run",
		"threaded": "bot.threaded",
		"replay":   "screen.replay",
		"phase":    "bot.initial_phase",
	}}

	root := &cobra.Command{
		Use:           "gatherbot",
		Short:         "Minimap localizing gathering bot",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading .env: %w", err)
			}
			v, err := config.NewViper(a.cfgFile)
			if err != nil {
				return err
			}
			a.v = v
			if err := a.bind(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "gatherbot"})
				return err
			}
			a.cfg = cfg
			a.logger = observability.InitializeLogger(cfg.Logger)
			a.logger.Debug("Configuration loaded", zap.String("file", v.ConfigFileUsed()))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newRunCmd(a), newLocateCmd(a), newVersionCmd())
	return root
}

// Execute runs the command line with ctx, logging any failure.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command failed", zap.Error(err))
	}
	return err
}
