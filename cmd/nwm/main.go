package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/nwm/internal/config"
	"github.com/1broseidon/nwm/internal/ipc"
	"github.com/1broseidon/nwm/internal/runtimepath"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	socket     string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "nwm",
		Short:         "A tiling window manager for X11",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file path (default: ~/.config/nwm/config.yaml)")
	root.PersistentFlags().StringVar(&flags.socket, "socket", "", "IPC socket path (default: config socket or $XDG_RUNTIME_DIR/nwm.sock)")

	root.AddCommand(
		newDaemonCmd(flags),
		newWindowsCmd(flags),
		newWindowCmd(flags),
		newLayoutCmd(flags),
		newStatusCmd(flags),
		newActionCmd(flags),
		newMenuCmd(flags),
		newConfigCmd(flags),
		newMCPCmd(flags),
	)
	return root
}

// path returns the config file selected by --config.
func (f *globalFlags) path() (string, error) {
	if f.configPath != "" {
		return f.configPath, nil
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the selected config file. A missing file yields the
// defaults.
func (f *globalFlags) loadConfig() (*config.LoadResult, error) {
	path, err := f.path()
	if err != nil {
		return nil, err
	}
	return config.LoadFromPath(path)
}

// socketPath resolves the IPC socket: --socket, then the config socket key,
// then the runtime directory.
func (f *globalFlags) socketPath() (string, error) {
	if f.socket != "" {
		return runtimepath.SocketPath(f.socket)
	}
	override := ""
	if res, err := f.loadConfig(); err == nil {
		override = res.Config.Socket
	}
	return runtimepath.SocketPath(override)
}

func (f *globalFlags) client() (*ipc.Client, error) {
	path, err := f.socketPath()
	if err != nil {
		return nil, err
	}
	return ipc.NewClient(path), nil
}
