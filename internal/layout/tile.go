package layout

import "github.com/1broseidon/nwm/internal/wm"

// TileLayout places the main window in a left column and stacks the others
// on the right.
func TileLayout(g Geometry) wm.LayoutFunc {
	return func(ws *wm.Workspace) {
		windows := ws.Windows()
		if len(windows) == 0 {
			return
		}
		mainID := ws.MainWindow()
		ordered := make([]*wm.Window, 0, len(windows))
		for _, w := range windows {
			if w.ID == mainID {
				ordered = append(ordered, w)
			}
		}
		for _, w := range windows {
			if w.ID != mainID {
				ordered = append(ordered, w)
			}
		}

		positions := TilePositions(len(ordered), ws.Area(), ws.MainScale, g.Margin)
		for i, w := range ordered {
			r := positions[i]
			w.Move(r.X, r.Y)
			w.Resize(r.Width, r.Height)
			w.Show()
		}
	}
}

// MonocleLayout shows only the main window, covering the work area.
func MonocleLayout(g Geometry) wm.LayoutFunc {
	return func(ws *wm.Workspace) {
		mainID := ws.MainWindow()
		r := MonoclePosition(ws.Area(), g.Margin)
		for _, w := range ws.Windows() {
			if w.ID == mainID {
				w.Move(r.X, r.Y)
				w.Resize(r.Width, r.Height)
				w.Show()
				continue
			}
			w.Hide()
			w.Resize(r.Width, r.Height)
		}
	}
}
