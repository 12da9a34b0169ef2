// Package palette shows pick lists through an external dmenu-style
// launcher (rofi, fuzzel, wofi or dmenu).
package palette

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the palette without selecting an item.
var ErrCancelled = errors.New("palette cancelled")

// Item is a single row of a palette.
type Item struct {
	Label  string // Display text
	Value  string // Returned on selection
	Header bool   // Non-selectable section header
	Active bool   // Highlighted as current
}

// Backend shows a palette and returns the selected item.
type Backend interface {
	Show(prompt string, items []Item) (Item, error)
}

var backendOrder = []string{"rofi", "fuzzel", "wofi", "dmenu"}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// DetectBackend returns the first launcher found in PATH, in priority
// order: rofi, fuzzel, wofi, dmenu.
func DetectBackend() (string, error) {
	for _, name := range backendOrder {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(backendOrder, ", "))
}

// NewBackend creates a backend by name. Supported names: auto, rofi,
// fuzzel, wofi, dmenu.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}

	var kind backendKind
	switch name {
	case "rofi":
		kind = kindRofi
	case "fuzzel":
		kind = kindFuzzel
	case "wofi":
		kind = kindWofi
	case "dmenu":
		kind = kindDmenu
	default:
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(backendOrder, ", "))
	}
	if _, err := lookPath(name); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", name)
	}
	return &dmenuBackend{command: name, kind: kind, run: runCommand}, nil
}
