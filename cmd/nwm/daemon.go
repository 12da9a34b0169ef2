package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/1broseidon/nwm/internal/config"
	"github.com/1broseidon/nwm/internal/layout"
	"github.com/1broseidon/nwm/internal/wm"
)

func newDaemonCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Start the window manager (foreground)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := flags.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg := res.Config

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			logger.Info("configuration loaded", "files", res.Files, "default_layout", cfg.DefaultLayout)

			socket, err := flags.socketPath()
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg, socket, logger)
		},
	}
}

// managerOptions converts the config into manager options. Both colors are
// checked so a bad config reports every problem at once.
func managerOptions(cfg *config.Config) (wm.Options, error) {
	opts := wm.DefaultOptions()
	opts.CommandTitle = cfg.Titles.Command
	opts.ControlTitle = cfg.Titles.Control
	opts.MainScale = cfg.MainScale
	opts.DefaultLayout = cfg.DefaultLayout

	var result *multierror.Error
	active, err := config.ParseColor(cfg.Colors.Active)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("colors.active: %w", err))
	}
	normal, err := config.ParseColor(cfg.Colors.Normal)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("colors.normal: %w", err))
	}
	opts.ActiveColor = active
	opts.NormalColor = normal
	return opts, result.ErrorOrNil()
}

func leverConfig(cfg *config.Config) layout.LeverConfig {
	lc := layout.DefaultLeverConfig()
	lc.Geometry = layout.Geometry{
		Margin:        cfg.Margin,
		ControlHeight: cfg.ControlHeight,
		CommandHeight: cfg.CommandHeight,
	}
	if cfg.Lever.SwipeIntervalMS > 0 {
		lc.SwipeInterval = time.Duration(cfg.Lever.SwipeIntervalMS) * time.Millisecond
	}
	if cfg.Lever.CommitDivisor > 0 {
		lc.CommitDivisor = cfg.Lever.CommitDivisor
	}
	lc.AnimateLeftSwipe = cfg.Lever.AnimateLeftSwipe
	lc.CreateChrome = cfg.Lever.CreateChrome
	lc.ControlTitle = cfg.Titles.Control
	lc.CommandTitle = cfg.Titles.Command
	return lc
}

func reconcileInterval(cfg *config.Config) time.Duration {
	if cfg.ReconcileIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.ReconcileIntervalSeconds) * time.Second
}
