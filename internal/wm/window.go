package wm

import "github.com/1broseidon/nwm/internal/platform"

// Window is a managed top-level window. Geometry fields mirror what was last
// sent to the backend.
type Window struct {
	mgr *Manager

	ID        platform.WindowID
	X         int
	Y         int
	Width     int
	Height    int
	Title     string
	Class     string
	Instance  string
	Floating  bool
	Workspace int
	Visible   bool

	monitor platform.MonitorID
}

func newWindow(mgr *Manager, info platform.WindowInfo) *Window {
	return &Window{
		mgr:       mgr,
		ID:        info.ID,
		X:         info.X,
		Y:         info.Y,
		Width:     info.Width,
		Height:    info.Height,
		Title:     info.Title,
		Class:     info.Class,
		Instance:  info.Instance,
		Floating:  info.Floating,
		Workspace: info.Workspace,
		Visible:   true,
		monitor:   info.Monitor,
	}
}

// Monitor returns the owning monitor.
func (w *Window) Monitor() platform.MonitorID { return w.monitor }

// SetMonitor reassigns the window. A change is published on
// TopicWindowMonitorChanged; assigning the current value does nothing.
func (w *Window) SetMonitor(id platform.MonitorID) {
	if w.monitor == id {
		return
	}
	from := w.monitor
	w.monitor = id
	w.mgr.log.Debug("window monitor changed", "window", w.ID, "from", from, "to", id)
	w.mgr.bus.Publish(TopicWindowMonitorChanged, MonitorChange{Window: w.ID, From: from, To: id})
}

// Move records the position and always issues a backend move. A hidden
// window stays displaced at the backend until Show.
func (w *Window) Move(x, y int) {
	w.X = x
	w.Y = y
	x, y = w.Position()
	if err := w.mgr.backend.MoveWindow(w.ID, x, y); err != nil {
		w.mgr.log.Debug("move window failed", "window", w.ID, "error", err)
	}
}

// Resize records the size and always issues a backend resize.
func (w *Window) Resize(width, height int) {
	w.Width = width
	w.Height = height
	if err := w.mgr.backend.ResizeWindow(w.ID, width, height); err != nil {
		w.mgr.log.Debug("resize window failed", "window", w.ID, "error", err)
	}
}

// Hide displaces the window off every monitor (see Position). The stored
// position is kept so Show can restore it.
func (w *Window) Hide() {
	if !w.Visible {
		return
	}
	w.Visible = false
	x, y := w.Position()
	if err := w.mgr.backend.MoveWindow(w.ID, x, y); err != nil {
		w.mgr.log.Debug("hide window failed", "window", w.ID, "error", err)
	}
}

// Position returns where the window is at the backend: the stored position,
// or for a hidden window that position displaced by twice the combined width
// of all monitors.
func (w *Window) Position() (x, y int) {
	if w.Visible {
		return w.X, w.Y
	}
	total := 0
	for _, m := range w.mgr.Monitors.Items() {
		total += m.Width
	}
	return w.X + 2*total, w.Y
}

// Show moves the window back to its stored position.
func (w *Window) Show() {
	if w.Visible {
		return
	}
	w.Visible = true
	if err := w.mgr.backend.MoveWindow(w.ID, w.X, w.Y); err != nil {
		w.mgr.log.Debug("show window failed", "window", w.ID, "error", err)
	}
}

// Info returns a snapshot suitable for the control surface.
func (w *Window) Info() platform.WindowInfo {
	return platform.WindowInfo{
		ID:        w.ID,
		X:         w.X,
		Y:         w.Y,
		Width:     w.Width,
		Height:    w.Height,
		Title:     w.Title,
		Class:     w.Class,
		Instance:  w.Instance,
		Floating:  w.Floating,
		Monitor:   w.monitor,
		Workspace: w.Workspace,
	}
}
