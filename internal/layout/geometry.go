// Package layout implements the tile, monocle and lever arrangement policies.
package layout

import (
	"math"

	"github.com/1broseidon/nwm/internal/platform"
)

// Layout names registered with the manager.
const (
	Tile    = "tile"
	Monocle = "monocle"
	Lever   = "lever"
)

// Geometry holds the spacing shared by the layouts.
type Geometry struct {
	// Margin is the gap kept around every window.
	Margin int
	// ControlHeight is the lever control strip height.
	ControlHeight int
	// CommandHeight is the lever command window height.
	CommandHeight int
}

// DefaultGeometry returns the stock spacing.
func DefaultGeometry() Geometry {
	return Geometry{Margin: 10, ControlHeight: 20, CommandHeight: 40}
}

// inset shrinks a cell by the margin on every side.
func inset(r platform.Rect, margin int) platform.Rect {
	return platform.Rect{
		X:      r.X + margin,
		Y:      r.Y + margin,
		Width:  r.Width - 2*margin,
		Height: r.Height - 2*margin,
	}
}

// TilePositions computes the tile arrangement for n windows: the first rect
// is the main window's column, sized scale of the area width, and the rest
// evenly divide the remaining column top to bottom. The last stack cell
// absorbs rounding so the stack covers the full height.
func TilePositions(n int, area platform.Rect, scale float64, margin int) []platform.Rect {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []platform.Rect{inset(area, margin)}
	}

	mainWidth := int(math.Round(float64(area.Width) * scale))
	positions := make([]platform.Rect, n)
	positions[0] = inset(platform.Rect{X: area.X, Y: area.Y, Width: mainWidth, Height: area.Height}, margin)

	stack := n - 1
	cellHeight := area.Height / stack
	for i := 0; i < stack; i++ {
		h := cellHeight
		if i == stack-1 {
			h = area.Height - cellHeight*(stack-1)
		}
		cell := platform.Rect{
			X:      area.X + mainWidth,
			Y:      area.Y + i*cellHeight,
			Width:  area.Width - mainWidth,
			Height: h,
		}
		positions[i+1] = inset(cell, margin)
	}
	return positions
}

// MonoclePosition computes the single visible window's rect.
func MonoclePosition(area platform.Rect, margin int) platform.Rect {
	return inset(area, margin)
}

// LeverPositions computes the side by side work windows of the lever
// layout, above the control strip and command window.
func LeverPositions(visible int, area platform.Rect, g Geometry) []platform.Rect {
	if visible <= 0 {
		return nil
	}
	width := (area.Width - 2*g.Margin) / visible
	height := area.Height - 2*g.Margin - g.ControlHeight - g.CommandHeight
	positions := make([]platform.Rect, visible)
	x := area.X + g.Margin
	for i := range positions {
		positions[i] = platform.Rect{X: x, Y: area.Y + g.Margin, Width: width, Height: height}
		x += width
	}
	return positions
}

// ControlStripRect is where the lever control strip lives.
func ControlStripRect(area platform.Rect, g Geometry) platform.Rect {
	return platform.Rect{
		X:      area.X + g.Margin,
		Y:      area.Y + area.Height - g.ControlHeight - g.CommandHeight,
		Width:  area.Width - 2*g.Margin,
		Height: g.ControlHeight,
	}
}

// CommandWindowRect is where the lever command window lives.
func CommandWindowRect(area platform.Rect, g Geometry) platform.Rect {
	return platform.Rect{
		X:      area.X + g.Margin,
		Y:      area.Y + area.Height - g.CommandHeight,
		Width:  area.Width - 2*g.Margin,
		Height: g.CommandHeight,
	}
}
