package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/shopchat-server/internal/app"
	"github.com/vovakirdan/shopchat-server/internal/config"
	applog "github.com/vovakirdan/shopchat-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions holds values parsed from command-line flags.
type rootOptions struct {
	configPath string
	overrides  config.Config
}

func (o *rootOptions) bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.configPath, "config", "c", "", "path to config file")
	flags.StringVar(&o.overrides.Addr, "addr", "", "HTTP listen address")
	flags.DurationVar(&o.overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&o.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.StringVar(&o.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&o.overrides.LogFormat, "log-format", "", "log format (console, json)")
	flags.IntVar(&o.overrides.HistoryLimit, "history-limit", 0, "messages kept per chat, 0 keeps all")
}

// apply layers flag values over cfg. Zero is a meaningful history limit, so
// that flag is applied whenever it was given.
func (o *rootOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	cfg.UpdateFrom(o.overrides)
	if cmd.Flags().Changed("history-limit") {
		cfg.HistoryLimit = o.overrides.HistoryLimit
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "shopchat-server",
		Short:         "Relay server for customer and shop chats",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLog := applog.New(opts.overrides.LogLevel, opts.overrides.LogFormat)

			cfg, path, err := config.Load(bootLog, opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts.apply(cmd, &cfg)

			logger := applog.New(cfg.LogLevel, cfg.LogFormat)
			logger.Info().
				Str("config", path).
				Str("addr", cfg.Addr).
				Int("history_limit", cfg.HistoryLimit).
				Msg("starting shopchat server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.New(cfg, logger).Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	opts.bindFlags(cmd)
	return cmd
}
