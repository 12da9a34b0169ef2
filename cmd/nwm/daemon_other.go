//go:build !linux

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/1broseidon/nwm/internal/config"
)

func runDaemon(context.Context, *config.Config, string, *slog.Logger) error {
	return errors.New("the nwm daemon requires Linux with an X11 display")
}
