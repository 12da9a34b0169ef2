package wm

import (
	"fmt"

	"github.com/1broseidon/nwm/internal/platform"
)

const (
	MinMainScale = 0.05
	MaxMainScale = 0.95
)

// Workspace is an arrangement context on a monitor.
type Workspace struct {
	monitor *Monitor

	ID     int
	Layout string
	// MainScale is the fraction of the work area given to the main window.
	MainScale float64
	// NUp is the lever layout's side-by-side count, 1 or 2.
	NUp int

	mainWindow platform.WindowID
}

func newWorkspace(m *Monitor, id int) *Workspace {
	return &Workspace{
		monitor:   m,
		ID:        id,
		Layout:    m.mgr.defaultLayout(),
		MainScale: clampScale(m.mgr.opts.MainScale),
		NUp:       1,
	}
}

// Monitor returns the owning monitor.
func (ws *Workspace) Monitor() *Monitor { return ws.monitor }

// Manager returns the dispatcher owning the model.
func (ws *Workspace) Manager() *Manager { return ws.monitor.mgr }

// IsCurrent reports whether the workspace is shown on its monitor.
func (ws *Workspace) IsCurrent() bool { return ws.monitor.current == ws.ID }

// Area returns the monitor geometry the layouts divide.
func (ws *Workspace) Area() platform.Rect { return ws.monitor.Bounds() }

// Windows returns the layout-managed windows of this workspace in registry
// order. Command and control windows are excluded. The list is computed on
// every call.
func (ws *Workspace) Windows() []*Window {
	mgr := ws.monitor.mgr
	var out []*Window
	for _, w := range mgr.Windows.Items() {
		if w.Monitor() != ws.monitor.ID || w.Workspace != ws.ID {
			continue
		}
		if mgr.IsSpecial(w.ID) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// MainWindow returns the designated main window, falling back to the last
// window of the workspace. Zero means the workspace is empty.
func (ws *Workspace) MainWindow() platform.WindowID {
	windows := ws.Windows()
	if len(windows) == 0 {
		return 0
	}
	for _, w := range windows {
		if w.ID == ws.mainWindow {
			return w.ID
		}
	}
	return windows[len(windows)-1].ID
}

// SetMainWindow designates id as the main window.
func (ws *Workspace) SetMainWindow(id platform.WindowID) {
	ws.mainWindow = id
}

// SetMainScale stores the scale clamped to [MinMainScale, MaxMainScale].
func (ws *Workspace) SetMainScale(scale float64) {
	ws.MainScale = clampScale(scale)
}

// SetLayout switches to a registered layout, clears any drag handler and
// rearranges.
func (ws *Workspace) SetLayout(name string) error {
	mgr := ws.monitor.mgr
	if _, ok := mgr.layouts[name]; !ok {
		return fmt.Errorf("layout %q: %w", name, ErrInvalidArgument)
	}
	from := ws.Layout
	ws.Layout = name
	mgr.SetDragHandler(nil)
	if from != name {
		mgr.bus.Publish(TopicLayoutChanged, LayoutChange{Workspace: ws, From: from, To: name})
	}
	ws.Rearrange()
	return nil
}

// Rearrange recomputes geometry with the workspace's layout. Workspaces not
// shown on their monitor are left alone.
func (ws *Workspace) Rearrange() {
	if !ws.IsCurrent() {
		return
	}
	mgr := ws.monitor.mgr
	fn, ok := mgr.layouts[ws.Layout]
	if !ok {
		mgr.log.Warn("unknown layout", "layout", ws.Layout, "monitor", ws.monitor.ID, "workspace", ws.ID)
		return
	}
	fn(ws)
}

func clampScale(scale float64) float64 {
	if scale < MinMainScale {
		return MinMainScale
	}
	if scale > MaxMainScale {
		return MaxMainScale
	}
	return scale
}
