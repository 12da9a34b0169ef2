package palette

import (
	"fmt"
	"strings"

	"github.com/1broseidon/nwm/internal/control"
)

// Choice kinds carried in Item.Value.
const (
	ChoiceFocus  = "focus"
	ChoiceLayout = "layout"
	ChoiceAction = "action"
)

// MenuItems builds the nwm launcher: every window (selecting focuses it),
// every layout and every key-binding action.
func MenuItems(windows []control.WindowInfo, layouts control.LayoutsInfo, actions []string) []Item {
	items := []Item{{Label: "Windows", Header: true}}
	for _, w := range windows {
		title := w.Title
		if title == "" {
			title = w.Class
		}
		items = append(items, Item{
			Label:  fmt.Sprintf("%s  [ws %d] 0x%x", title, w.Workspace, w.ID),
			Value:  fmt.Sprintf("%s:%d", ChoiceFocus, w.ID),
			Active: w.Focused,
		})
	}

	items = append(items, Item{Label: "Layouts", Header: true})
	for _, name := range layouts.Layouts {
		items = append(items, Item{
			Label:  "layout: " + name,
			Value:  ChoiceLayout + ":" + name,
			Active: name == layouts.Current,
		})
	}

	items = append(items, Item{Label: "Actions", Header: true})
	for _, action := range actions {
		items = append(items, Item{
			Label: strings.ReplaceAll(action, "_", " "),
			Value: ChoiceAction + ":" + action,
		})
	}
	return items
}

// ParseChoice splits an item value into its kind and argument.
func ParseChoice(value string) (kind, arg string, err error) {
	kind, arg, ok := strings.Cut(value, ":")
	if !ok || arg == "" {
		return "", "", fmt.Errorf("palette: malformed choice %q", value)
	}
	switch kind {
	case ChoiceFocus, ChoiceLayout, ChoiceAction:
		return kind, arg, nil
	default:
		return "", "", fmt.Errorf("palette: unknown choice kind %q", kind)
	}
}
