package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/nwm/internal/control"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var windowHeaders = []string{"ID", "TITLE", "CLASS", "GEOMETRY", "MON", "WS", "FLAGS"}

func newWindowsCmd(flags *globalFlags) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List managed windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			windows, err := client.Windows()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if plain || !isTerminal(out) {
				renderWindowsPlain(out, windows)
				return nil
			}
			fmt.Fprintln(out, renderWindowsTable(windows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Tab-separated output without styling")
	return cmd
}

func newWindowCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Inspect or act on a single window",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "id",
			Short: "Print the focused window id",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := flags.client()
				if err != nil {
					return err
				}
				id, err := client.FocusedID()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "info [window]",
			Short: "Describe a window (default: focused)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := flags.client()
				if err != nil {
					return err
				}
				info, err := client.Window(refArg(args))
				if err != nil {
					return err
				}
				renderWindowInfo(cmd.OutOrStdout(), info)
				return nil
			},
		},
		&cobra.Command{
			Use:   "focus <window>",
			Short: "Focus a window",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				client, err := flags.client()
				if err != nil {
					return err
				}
				return client.Focus(args[0])
			},
		},
		&cobra.Command{
			Use:   "close [window]",
			Short: "Close a window (default: focused)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				client, err := flags.client()
				if err != nil {
					return err
				}
				return client.Close(refArg(args))
			},
		},
		&cobra.Command{
			Use:   "title <window> <title>",
			Short: "Rename a window",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				client, err := flags.client()
				if err != nil {
					return err
				}
				return client.SetTitle(args[0], strings.Join(args[1:], " "))
			},
		},
	)
	return cmd
}

func refArg(args []string) string {
	if len(args) == 0 {
		return "current"
	}
	return args[0]
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func windowRow(w control.WindowInfo) []string {
	var flags []string
	if w.Focused {
		flags = append(flags, "focused")
	}
	if w.Main {
		flags = append(flags, "main")
	}
	if !w.Visible {
		flags = append(flags, "hidden")
	}
	return []string{
		fmt.Sprintf("0x%x", w.ID),
		w.Title,
		w.Class,
		fmt.Sprintf("%dx%d+%d+%d", w.Width, w.Height, w.X, w.Y),
		strconv.Itoa(w.Monitor),
		strconv.Itoa(w.Workspace),
		strings.Join(flags, ","),
	}
}

func renderWindowsPlain(w io.Writer, windows []control.WindowInfo) {
	fmt.Fprintln(w, strings.Join(windowHeaders, "\t"))
	for _, win := range windows {
		fmt.Fprintln(w, strings.Join(windowRow(win), "\t"))
	}
}

func renderWindowsTable(windows []control.WindowInfo) string {
	rows := make([][]string, 0, len(windows))
	for _, win := range windows {
		rows = append(rows, windowRow(win))
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(windowHeaders...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(windows) && windows[row].Focused:
				return focusedStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}

func renderWindowInfo(w io.Writer, info control.WindowInfo) {
	row := windowRow(info)
	for i, h := range windowHeaders {
		fmt.Fprintf(w, "%-9s %s\n", strings.ToLower(h)+":", row[i])
	}
}
