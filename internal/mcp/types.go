package mcp

import "github.com/1broseidon/nwm/internal/control"

// WindowInput names a window by id, title tag or "current".
type WindowInput struct {
	Window string `json:"window,omitempty" jsonschema:"Window id (decimal or 0x hex), title, or current (default: the focused window)"`
}

// SetTitleInput is the input for the set_title tool.
type SetTitleInput struct {
	Window string `json:"window,omitempty" jsonschema:"Window id, title, or current (default: the focused window)"`
	Title  string `json:"title" jsonschema:"New title for the window"`
}

// SetLayoutInput is the input for the set_layout tool.
type SetLayoutInput struct {
	Layout string `json:"layout" jsonschema:"Layout name (tile, monocle, lever)"`
}

// RotateInput is the input for the rotate tool.
type RotateInput struct {
	Direction string `json:"direction" jsonschema:"f to promote the next window, b to promote the previous one"`
}

// LeverModeInput is the input for the set_lever_mode tool.
type LeverModeInput struct {
	Mode string `json:"mode" jsonschema:"1 for a single full-width window, 2 for two side by side"`
}

// RunActionInput is the input for the run_action tool.
type RunActionInput struct {
	Action string `json:"action" jsonschema:"Key-binding action name, e.g. next_layout or focus_next"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []control.WindowInfo `json:"windows"`
	Focused uint32               `json:"focused,omitempty"`
}

// ActionOutput reports the outcome of a mutating tool.
type ActionOutput struct {
	OK     bool   `json:"ok"`
	Window string `json:"window,omitempty"`
}
