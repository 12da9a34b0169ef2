package wm

import (
	"github.com/1broseidon/nwm/internal/platform"
)

// MonitorAdded registers a monitor. The first monitor becomes current.
func (m *Manager) MonitorAdded(info platform.MonitorInfo) {
	if !m.Monitors.Add(newMonitor(m, info)) {
		m.log.Debug("monitor already known", "monitor", info.ID)
		return
	}
	m.log.Info("monitor added", "monitor", info.ID, "name", info.Name, "width", info.Width, "height", info.Height)
	if !m.hasCurrent {
		m.currentMonitor = info.ID
		m.hasCurrent = true
	}
}

// MonitorUpdated applies new geometry and rearranges the monitor.
func (m *Manager) MonitorUpdated(info platform.MonitorInfo) {
	ok := m.Monitors.Update(info.ID, func(mon *Monitor) *Monitor {
		mon.update(info)
		return mon
	})
	if !ok {
		m.log.Debug("update for unknown monitor", "monitor", info.ID)
		return
	}
	mon, _ := m.Monitors.Lookup(info.ID)
	mon.CurrentWorkspace().Rearrange()
}

// MonitorRemoved moves the monitor's windows to the first remaining monitor
// and removes it.
func (m *Manager) MonitorRemoved(id platform.MonitorID) {
	mon, ok := m.Monitors.Lookup(id)
	if !ok {
		m.log.Debug("remove for unknown monitor", "monitor", id)
		return
	}
	var target *Monitor
	for _, other := range m.Monitors.Items() {
		if other.ID != id {
			target = other
			break
		}
	}

	if target != nil {
		for _, w := range mon.Windows() {
			w.SetMonitor(target.ID)
		}
	}
	m.Monitors.RemoveKey(id)
	m.log.Info("monitor removed", "monitor", id)

	if m.currentMonitor == id {
		m.hasCurrent = target != nil
		if target != nil {
			m.currentMonitor = target.ID
		}
	}
	m.Rearrange()
}

// WindowAdded places a new window on the current workspace of the current
// monitor. Floating windows are tracked but never laid out.
func (m *Manager) WindowAdded(info platform.WindowInfo) {
	if info.ID == 0 {
		return
	}
	if m.Windows.Exists(info.ID) || m.IsFloater(info.ID) {
		m.log.Debug("window already managed", "window", info.ID)
		return
	}
	mon, ok := m.CurrentMonitor()
	if !ok {
		m.log.Warn("window added without a monitor", "window", info.ID)
		return
	}
	ws := mon.CurrentWorkspace()
	info.Monitor = mon.ID
	info.Workspace = ws.ID

	m.recordSpecial(info.ID, info.Title)

	if info.Floating {
		m.log.Debug("ignoring floating window", "window", info.ID, "title", info.Title)
		m.floaters[info.ID] = info
		return
	}
	if mon.FocusedWindow == 0 && !m.IsSpecial(info.ID) {
		mon.FocusedWindow = info.ID
	}

	w := newWindow(m, info)
	// Windows can be left off-screen by a previous session.
	if w.X > mon.X+mon.Width || w.Y > mon.Y+mon.Height {
		w.Move(mon.X+1, mon.Y+1)
	}
	if !m.IsSpecial(info.ID) {
		if cur := ws.mainWindow; cur == 0 || !m.Windows.Exists(cur) {
			ws.mainWindow = info.ID
		}
	}
	m.log.Debug("window added", "window", info.ID, "title", info.Title, "monitor", mon.ID, "workspace", ws.ID)
	m.Windows.Add(w)
}

// WindowRemoved forgets a destroyed window and rearranges its workspace.
func (m *Manager) WindowRemoved(id platform.WindowID) {
	if _, ok := m.floaters[id]; ok {
		delete(m.floaters, id)
		return
	}
	w, ok := m.Windows.Lookup(id)
	if !ok {
		m.log.Debug("remove for unknown window", "window", id)
		return
	}
	ws, hasWorkspace := m.WorkspaceOf(w)
	m.Windows.RemoveKey(id)
	if hasWorkspace {
		ws.Rearrange()
	}
}

// WindowUpdated merges title and class changes. Empty values keep the
// previous ones.
func (m *Manager) WindowUpdated(info platform.WindowInfo) {
	if fl, ok := m.floaters[info.ID]; ok {
		if info.Title != "" {
			fl.Title = info.Title
		}
		if info.Class != "" {
			fl.Class = info.Class
		}
		m.floaters[info.ID] = fl
		return
	}
	if !m.Windows.Exists(info.ID) {
		m.log.Debug("update for unknown window", "window", info.ID)
		return
	}
	wasSpecial := m.IsSpecial(info.ID)
	m.recordSpecial(info.ID, info.Title)
	m.Windows.Update(info.ID, func(w *Window) *Window {
		if info.Title != "" {
			w.Title = info.Title
		}
		if info.Class != "" {
			w.Class = info.Class
		}
		return w
	})
	if wasSpecial != m.IsSpecial(info.ID) {
		m.Rearrange()
		return
	}
	m.rearrangeWindow(info.ID)
}

func (m *Manager) recordSpecial(id platform.WindowID, title string) {
	switch title {
	case "":
	case m.opts.CommandTitle:
		m.cmdWindow = id
	case m.opts.ControlTitle:
		m.ctlWindow = id
	}
}

// Fullscreen covers the window's monitor with it, or restores the layout.
func (m *Manager) Fullscreen(id platform.WindowID, on bool) {
	w, ok := m.Windows.Lookup(id)
	if !ok {
		m.log.Debug("fullscreen for unknown window", "window", id)
		return
	}
	mon, ok := m.Monitors.Lookup(w.Monitor())
	if !ok {
		m.log.Warn("fullscreen for window on removed monitor", "window", id, "monitor", w.Monitor())
		return
	}
	ws := mon.Workspace(w.Workspace)
	if !on {
		ws.Rearrange()
		return
	}
	w.Move(mon.X, mon.Y)
	w.Resize(mon.Width, mon.Height)
	if m.HasLayout("monocle") && ws.Layout != "monocle" {
		from := ws.Layout
		ws.Layout = "monocle"
		ws.SetMainWindow(id)
		m.SetDragHandler(nil)
		m.bus.Publish(TopicLayoutChanged, LayoutChange{Workspace: ws, From: from, To: ws.Layout})
	}
}

// ConfigureRequest answers managed windows with their stored geometry,
// keeps floaters on the current monitor and passes anything else through.
// Hidden windows are answered with their displaced position.
func (m *Manager) ConfigureRequest(req platform.ConfigureRequest) {
	if w, ok := m.Windows.Lookup(req.ID); ok && !m.IsSpecial(req.ID) {
		req.X, req.Y = w.Position()
		req.Width, req.Height = w.Width, w.Height
	} else if m.IsFloater(req.ID) {
		if mon, ok := m.CurrentMonitor(); ok {
			if req.X+req.Width > mon.X+mon.Width {
				req.X = mon.X + (mon.Width-req.Width)/2
			}
			if req.Y+req.Height > mon.Y+mon.Height {
				req.Y = mon.Y + (mon.Height-req.Height)/2
			}
		}
	}
	if err := m.backend.ConfigureWindow(req); err != nil {
		m.log.Debug("configure window failed", "window", req.ID, "error", err)
	}
}

// MouseDown focuses the clicked window.
func (m *Manager) MouseDown(ev platform.ButtonEvent) {
	if err := m.backend.FocusWindow(ev.ID); err != nil {
		m.log.Debug("focus window failed", "window", ev.ID, "error", err)
	}
}

// MouseDrag routes the drag to the installed handler.
func (m *Manager) MouseDrag(ev platform.DragEvent) {
	if m.dragHandler == nil {
		return
	}
	ws, ok := m.CurrentWorkspace()
	if !ok {
		return
	}
	m.dragHandler(ws, ev.MoveX-ev.X, ev.MoveY-ev.Y, ev.Done)
}

// EnterNotify focuses the entered window and selects the monitor under the
// pointer.
func (m *Manager) EnterNotify(ev platform.CrossingEvent) {
	if w, ok := m.Windows.Lookup(ev.ID); ok {
		if mon, ok := m.Monitors.Lookup(w.Monitor()); ok && w.Workspace == mon.current {
			m.focus(mon, ev.ID)
		}
		m.highlight(ev.ID, m.opts.ActiveColor)
	} else {
		m.log.Debug("enter notify for unknown window", "window", ev.ID)
	}

	x, y := ev.RootX, ev.RootY
	if x == 0 && y == 0 {
		x, y = ev.X, ev.Y
	}
	for _, mon := range m.Monitors.Items() {
		if !mon.Inside(x, y) {
			continue
		}
		if !m.hasCurrent || m.currentMonitor != mon.ID {
			m.log.Debug("current monitor changed", "monitor", mon.ID)
		}
		m.currentMonitor = mon.ID
		m.hasCurrent = true
		return
	}
}

// FocusIn records the focused window and highlights it.
func (m *Manager) FocusIn(ev platform.FocusEvent) {
	w, ok := m.Windows.Lookup(ev.ID)
	if !ok {
		m.log.Debug("focus in for unknown window", "window", ev.ID)
		return
	}
	if mon, ok := m.Monitors.Lookup(w.Monitor()); ok && w.Workspace == mon.current {
		mon.FocusedWindow = ev.ID
	}
	m.highlight(ev.ID, m.opts.ActiveColor)
}

// FocusOut clears the focus record and restores the normal border.
func (m *Manager) FocusOut(ev platform.FocusEvent) {
	w, ok := m.Windows.Lookup(ev.ID)
	if !ok {
		m.log.Debug("focus out for unknown window", "window", ev.ID)
		return
	}
	if mon, ok := m.Monitors.Lookup(w.Monitor()); ok && mon.FocusedWindow == ev.ID {
		mon.FocusedWindow = 0
	}
	m.highlight(ev.ID, m.opts.NormalColor)
}

// KeyPress fires every shortcut matching the key, in registration order.
func (m *Manager) KeyPress(ev platform.KeyEvent) {
	for _, s := range m.Shortcuts() {
		if s.Combo.Keysym == ev.Keysym && s.Combo.Modifier == ev.Modifier {
			s.Callback(ev)
		}
	}
}

// Rearrange rearranges the current workspace of every monitor.
func (m *Manager) Rearrange() {
	for _, mon := range m.Monitors.Items() {
		mon.CurrentWorkspace().Rearrange()
	}
}

// ControlAction publishes an action triggered from the lever chrome.
func (m *Manager) ControlAction(action string) {
	m.bus.Publish(TopicControlAction, action)
}
