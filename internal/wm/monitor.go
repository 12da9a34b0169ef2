package wm

import (
	"fmt"
	"strconv"

	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/registry"
)

// FirstWorkspace is the workspace a monitor starts on.
const FirstWorkspace = 1

// Monitor is a physical display with its own set of workspaces.
type Monitor struct {
	mgr *Manager

	ID     platform.MonitorID
	Name   string
	X      int
	Y      int
	Width  int
	Height int

	// Workspaces are created on first lookup.
	Workspaces *registry.Registry[int, *Workspace]

	// FocusedWindow is zero when nothing is focused. When set it belongs to
	// the current workspace.
	FocusedWindow platform.WindowID

	current  int
	previous int
}

func newMonitor(mgr *Manager, info platform.MonitorInfo) *Monitor {
	m := &Monitor{
		mgr:      mgr,
		ID:       info.ID,
		Name:     info.Name,
		X:        info.X,
		Y:        info.Y,
		Width:    info.Width,
		Height:   info.Height,
		current:  FirstWorkspace,
		previous: FirstWorkspace,
	}
	m.Workspaces = registry.New(mgr.bus, "workspace "+strconv.Itoa(int(info.ID)), func(ws *Workspace) int { return ws.ID })
	m.Workspaces.Factory = func(id int) *Workspace { return newWorkspace(m, id) }
	return m
}

// Bounds returns the monitor geometry.
func (m *Monitor) Bounds() platform.Rect {
	return platform.Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// Inside reports whether the screen point lies on this monitor.
func (m *Monitor) Inside(x, y int) bool {
	return m.Bounds().Contains(x, y)
}

// CurrentID returns the current workspace identifier.
func (m *Monitor) CurrentID() int { return m.current }

// PreviousID returns the workspace shown before the current one.
func (m *Monitor) PreviousID() int { return m.previous }

// CurrentWorkspace returns the current workspace, creating it if needed.
func (m *Monitor) CurrentWorkspace() *Workspace {
	ws, _ := m.Workspaces.Get(m.current)
	return ws
}

// Workspace returns the workspace with the given id, creating it if needed.
func (m *Monitor) Workspace(id int) *Workspace {
	ws, _ := m.Workspaces.Get(id)
	return ws
}

// Go switches to workspace id: the old workspace's windows are hidden, focus
// is moved to the new workspace and it is rearranged.
func (m *Monitor) Go(id int) {
	if id == m.current {
		return
	}
	for _, w := range m.CurrentWorkspace().Windows() {
		w.Hide()
	}
	from := m.current
	m.previous = from
	m.current = id
	m.FocusedWindow = 0

	ws := m.CurrentWorkspace()
	m.mgr.bus.Publish(TopicWorkspaceChanged, WorkspaceChange{Monitor: m.ID, From: from, To: id})
	ws.Rearrange()
	if main := ws.MainWindow(); main != 0 {
		m.mgr.focus(m, main)
	}
}

// GoBack returns to the previously shown workspace.
func (m *Monitor) GoBack() {
	m.Go(m.previous)
}

// WindowTo moves a window of this monitor to another of its workspaces.
func (m *Monitor) WindowTo(id platform.WindowID, workspace int) error {
	w, ok := m.mgr.Windows.Lookup(id)
	if !ok {
		return fmt.Errorf("window %d: %w", id, ErrNotFound)
	}
	if w.Monitor() != m.ID {
		return fmt.Errorf("window %d is on monitor %d, not %d: %w", id, w.Monitor(), m.ID, ErrInconsistentState)
	}
	if w.Workspace == workspace {
		return nil
	}
	w.Workspace = workspace
	target := m.Workspace(workspace)
	if target.mainWindow == 0 {
		target.mainWindow = id
	}
	if workspace != m.current {
		w.Hide()
	}
	if m.FocusedWindow == id {
		m.FocusedWindow = m.CurrentWorkspace().MainWindow()
	}
	m.CurrentWorkspace().Rearrange()
	return nil
}

// Windows returns the managed windows on this monitor in registry order.
func (m *Monitor) Windows() []*Window {
	var out []*Window
	for _, w := range m.mgr.Windows.Items() {
		if w.Monitor() == m.ID && !m.mgr.IsSpecial(w.ID) {
			out = append(out, w)
		}
	}
	return out
}

func (m *Monitor) update(info platform.MonitorInfo) {
	m.X = info.X
	m.Y = info.Y
	m.Width = info.Width
	m.Height = info.Height
	if info.Name != "" {
		m.Name = info.Name
	}
}
