package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLayoutCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect or change the current workspace layout",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered layouts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := flags.client()
				if err != nil {
					return err
				}
				info, err := client.Layouts()
				if err != nil {
					return err
				}
				for _, name := range info.Layouts {
					marker := " "
					if name == info.Current {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <name>",
			Short: "Switch the current workspace to a layout",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				client, err := flags.client()
				if err != nil {
					return err
				}
				return client.SetLayout(args[0])
			},
		},
		&cobra.Command{
			Use:       "rotate <f|b>",
			Short:     "Promote the next (f) or previous (b) window to main",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"f", "b"},
			RunE: func(_ *cobra.Command, args []string) error {
				client, err := flags.client()
				if err != nil {
					return err
				}
				return client.Rotate(args[0])
			},
		},
		&cobra.Command{
			Use:       "lever-mode <1|2>",
			Short:     "Show one or two windows at a time in the lever layout",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"1", "2"},
			RunE: func(_ *cobra.Command, args []string) error {
				client, err := flags.client()
				if err != nil {
					return err
				}
				return client.SetLeverMode(args[0])
			},
		},
	)
	return cmd
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			st, err := client.Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "uptime:   %s\n", time.Duration(st.UptimeSeconds)*time.Second)
			fmt.Fprintf(out, "layout:   %s\n", st.Layout)
			fmt.Fprintf(out, "windows:  %d (%d floating)\n", st.Windows, st.Floaters)
			for _, m := range st.Monitors {
				current := ""
				if m.Current {
					current = " (current)"
				}
				fmt.Fprintf(out, "monitor %d%s: %dx%d+%d+%d workspace %d layout %s\n",
					m.ID, current, m.Width, m.Height, m.X, m.Y, m.Workspace, m.Layout)
			}
			return nil
		},
	}
}

func newActionCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "action <name>",
		Short: "Run a key-binding action as if its key had been pressed",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			return client.RunAction(args[0])
		},
	}
}
