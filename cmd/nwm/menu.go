package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/nwm/internal/config"
	"github.com/1broseidon/nwm/internal/mcp"
	"github.com/1broseidon/nwm/internal/palette"
)

func newMenuCmd(flags *globalFlags) *cobra.Command {
	var backendName string
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Pick a window, layout or action from a launcher (rofi, fuzzel, wofi, dmenu)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			backend, err := palette.NewBackend(backendName)
			if err != nil {
				return err
			}
			client, err := flags.client()
			if err != nil {
				return err
			}
			err = runMenu(backend, client)
			if errors.Is(err, palette.ErrCancelled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&backendName, "backend", "auto", "Launcher: auto, rofi, fuzzel, wofi, dmenu")
	return cmd
}

// runMenu shows the launcher and applies the choice through the daemon.
func runMenu(backend palette.Backend, daemon mcp.Daemon) error {
	windows, err := daemon.Windows()
	if err != nil {
		return err
	}
	layouts, err := daemon.Layouts()
	if err != nil {
		return err
	}

	item, err := backend.Show("nwm", palette.MenuItems(windows, layouts, config.KeyActions()))
	if err != nil {
		return err
	}
	kind, arg, err := palette.ParseChoice(item.Value)
	if err != nil {
		return err
	}

	switch kind {
	case palette.ChoiceFocus:
		return daemon.Focus(arg)
	case palette.ChoiceLayout:
		return daemon.SetLayout(arg)
	case palette.ChoiceAction:
		return daemon.RunAction(arg)
	default:
		return fmt.Errorf("unsupported menu choice %q", item.Value)
	}
}
