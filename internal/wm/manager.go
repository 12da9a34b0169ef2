package wm

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/1broseidon/nwm/internal/eventbus"
	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/registry"
)

// LayoutFunc arranges the windows of a workspace through Window side effects.
type LayoutFunc func(ws *Workspace)

// DragHandler receives pointer drags routed by the manager. dx and dy are
// the motion since the previous call.
type DragHandler func(ws *Workspace, dx, dy int, done bool)

// Shortcut binds a key combination to a callback.
type Shortcut struct {
	Combo    platform.KeyCombo
	Callback func(ev platform.KeyEvent)
}

// Options configures a Manager.
type Options struct {
	Logger        *slog.Logger
	Scheduler     Scheduler
	CommandTitle  string
	ControlTitle  string
	ActiveColor   uint32
	NormalColor   uint32
	MainScale     float64
	DefaultLayout string
}

// DefaultOptions returns the stock titles, colors and scale.
func DefaultOptions() Options {
	return Options{
		CommandTitle:  "NWM Command Window",
		ControlTitle:  "NWM Control Window",
		ActiveColor:   0x606060,
		NormalColor:   0x666666,
		MainScale:     0.5,
		DefaultLayout: "tile",
	}
}

// Manager owns the monitor and window registries and applies backend
// notifications to them. It is not safe for concurrent use: every call must
// run on the Loop.
type Manager struct {
	backend platform.Backend
	bus     *eventbus.Bus
	log     *slog.Logger
	opts    Options

	Monitors *registry.Registry[platform.MonitorID, *Monitor]
	Windows  *registry.Registry[platform.WindowID, *Window]

	floaters       map[platform.WindowID]platform.WindowInfo
	currentMonitor platform.MonitorID
	hasCurrent     bool

	layouts     map[string]LayoutFunc
	shortcuts   []Shortcut
	dragHandler DragHandler

	cmdWindow platform.WindowID
	ctlWindow platform.WindowID

	started time.Time
}

var _ platform.EventSink = (*Manager)(nil)

// New creates a manager issuing commands to backend.
func New(backend platform.Backend, opts Options) *Manager {
	def := DefaultOptions()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.CommandTitle == "" {
		opts.CommandTitle = def.CommandTitle
	}
	if opts.ControlTitle == "" {
		opts.ControlTitle = def.ControlTitle
	}
	if opts.MainScale == 0 {
		opts.MainScale = def.MainScale
	}

	m := &Manager{
		backend:  backend,
		bus:      eventbus.New(),
		log:      opts.Logger,
		opts:     opts,
		floaters: make(map[platform.WindowID]platform.WindowInfo),
		layouts:  make(map[string]LayoutFunc),
		started:  time.Now(),
	}
	m.Monitors = registry.New(m.bus, "monitor", func(mon *Monitor) platform.MonitorID { return mon.ID })
	m.Windows = registry.New(m.bus, "window", func(w *Window) platform.WindowID { return w.ID })

	eventbus.On(m.bus, m.Windows.TopicAdded(), m.onWindowAdded)
	eventbus.On(m.bus, m.Windows.TopicBeforeRemove(), m.onWindowBeforeRemove)
	eventbus.On(m.bus, TopicWindowMonitorChanged, m.onWindowMonitorChanged)
	return m
}

// Bus returns the notification bus shared by the model.
func (m *Manager) Bus() *eventbus.Bus { return m.bus }

// Logger returns the manager's logger.
func (m *Manager) Logger() *slog.Logger { return m.log }

// Backend returns the backend commands are issued to.
func (m *Manager) Backend() platform.Backend { return m.backend }

// Scheduler returns the timer source for animations. It may be nil.
func (m *Manager) Scheduler() Scheduler { return m.opts.Scheduler }

// Options returns the options the manager was created with.
func (m *Manager) Options() Options { return m.opts }

// Started returns the time the manager was created.
func (m *Manager) Started() time.Time { return m.started }

// AddLayout registers a layout under name, replacing any previous one.
func (m *Manager) AddLayout(name string, fn LayoutFunc) {
	m.layouts[name] = fn
}

// HasLayout reports whether name is registered.
func (m *Manager) HasLayout(name string) bool {
	_, ok := m.layouts[name]
	return ok
}

// Layouts returns the registered layout names in lexical order.
func (m *Manager) Layouts() []string {
	names := make([]string, 0, len(m.layouts))
	for name := range m.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextLayout returns the registered layout following name in lexical order,
// wrapping to the first. An unknown name yields the first layout.
func (m *Manager) NextLayout(name string) string {
	names := m.Layouts()
	if len(names) == 0 {
		return ""
	}
	for i, n := range names {
		if n == name && i+1 < len(names) {
			return names[i+1]
		}
	}
	return names[0]
}

func (m *Manager) defaultLayout() string {
	if _, ok := m.layouts[m.opts.DefaultLayout]; ok {
		return m.opts.DefaultLayout
	}
	if _, ok := m.layouts["tile"]; ok {
		return "tile"
	}
	if names := m.Layouts(); len(names) > 0 {
		return names[0]
	}
	return m.opts.DefaultLayout
}

// AddKey registers a shortcut. Shortcuts are grabbed by Start.
func (m *Manager) AddKey(combo platform.KeyCombo, callback func(ev platform.KeyEvent)) {
	m.shortcuts = append(m.shortcuts, Shortcut{Combo: combo, Callback: callback})
}

// Shortcuts returns the registered shortcuts in registration order.
func (m *Manager) Shortcuts() []Shortcut {
	return append([]Shortcut(nil), m.shortcuts...)
}

// Start asks the backend to deliver every registered key combination.
func (m *Manager) Start() error {
	combos := make([]platform.KeyCombo, 0, len(m.shortcuts))
	seen := make(map[platform.KeyCombo]bool)
	for _, s := range m.shortcuts {
		if seen[s.Combo] {
			continue
		}
		seen[s.Combo] = true
		combos = append(combos, s.Combo)
	}
	if err := m.backend.GrabKeys(combos); err != nil {
		return fmt.Errorf("grab keys: %w", err)
	}
	m.log.Info("window manager started", "shortcuts", len(m.shortcuts), "layouts", m.Layouts())
	return nil
}

// SetDragHandler installs the handler pointer drags are routed to. Passing
// nil clears it.
func (m *Manager) SetDragHandler(h DragHandler) {
	m.dragHandler = h
}

// DragHandler returns the installed drag handler, or nil.
func (m *Manager) DragHandler() DragHandler { return m.dragHandler }

// CommandWindow returns the lever command window id, or zero.
func (m *Manager) CommandWindow() platform.WindowID { return m.cmdWindow }

// ControlWindow returns the lever control strip id, or zero.
func (m *Manager) ControlWindow() platform.WindowID { return m.ctlWindow }

// SetCommandWindow records the command window id.
func (m *Manager) SetCommandWindow(id platform.WindowID) { m.cmdWindow = id }

// SetControlWindow records the control strip id.
func (m *Manager) SetControlWindow(id platform.WindowID) { m.ctlWindow = id }

// IsSpecial reports whether id is the command or control window.
func (m *Manager) IsSpecial(id platform.WindowID) bool {
	return id != 0 && (id == m.cmdWindow || id == m.ctlWindow)
}

// Floaters returns the ids of windows excluded from layout.
func (m *Manager) Floaters() []platform.WindowID {
	ids := make([]platform.WindowID, 0, len(m.floaters))
	for id := range m.floaters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsFloater reports whether id is tracked as a floating window.
func (m *Manager) IsFloater(id platform.WindowID) bool {
	_, ok := m.floaters[id]
	return ok
}

// CurrentMonitor returns the monitor that has the pointer.
func (m *Manager) CurrentMonitor() (*Monitor, bool) {
	if !m.hasCurrent {
		return nil, false
	}
	return m.Monitors.Lookup(m.currentMonitor)
}

// SetCurrentMonitor selects the current monitor.
func (m *Manager) SetCurrentMonitor(id platform.MonitorID) error {
	if !m.Monitors.Exists(id) {
		return fmt.Errorf("monitor %d: %w", id, ErrNotFound)
	}
	m.currentMonitor = id
	m.hasCurrent = true
	return nil
}

// CurrentWorkspace returns the current workspace of the current monitor.
func (m *Manager) CurrentWorkspace() (*Workspace, bool) {
	mon, ok := m.CurrentMonitor()
	if !ok {
		return nil, false
	}
	return mon.CurrentWorkspace(), true
}

// FocusedWindow returns the focused window of the current monitor.
func (m *Manager) FocusedWindow() (*Window, bool) {
	mon, ok := m.CurrentMonitor()
	if !ok || mon.FocusedWindow == 0 {
		return nil, false
	}
	return m.Windows.Lookup(mon.FocusedWindow)
}

// WorkspaceOf returns the workspace a window belongs to.
func (m *Manager) WorkspaceOf(w *Window) (*Workspace, bool) {
	mon, ok := m.Monitors.Lookup(w.Monitor())
	if !ok {
		return nil, false
	}
	return mon.Workspace(w.Workspace), true
}

// Focus makes id the focused and main window of its workspace, switching
// the workspace into view when needed.
func (m *Manager) Focus(id platform.WindowID) error {
	w, ok := m.Windows.Lookup(id)
	if !ok {
		return fmt.Errorf("window %d: %w", id, ErrNotFound)
	}
	mon, ok := m.Monitors.Lookup(w.Monitor())
	if !ok {
		return fmt.Errorf("monitor %d of window %d: %w", w.Monitor(), id, ErrInconsistentState)
	}
	mon.Go(w.Workspace)
	ws := mon.CurrentWorkspace()
	ws.SetMainWindow(id)
	ws.Rearrange()
	m.focus(mon, id)
	return nil
}

// SetFocus gives a window of its monitor's current workspace the input
// focus without changing the main window.
func (m *Manager) SetFocus(id platform.WindowID) error {
	w, ok := m.Windows.Lookup(id)
	if !ok {
		return fmt.Errorf("window %d: %w", id, ErrNotFound)
	}
	mon, ok := m.Monitors.Lookup(w.Monitor())
	if !ok {
		return fmt.Errorf("monitor %d of window %d: %w", w.Monitor(), id, ErrInconsistentState)
	}
	if w.Workspace != mon.current {
		return fmt.Errorf("window %d is not on the current workspace: %w", id, ErrInvalidArgument)
	}
	m.focus(mon, id)
	return nil
}

// Kill asks the backend to close a window.
func (m *Manager) Kill(id platform.WindowID) error {
	if !m.Windows.Exists(id) && !m.IsFloater(id) {
		return fmt.Errorf("window %d: %w", id, ErrNotFound)
	}
	if err := m.backend.KillWindow(id); err != nil {
		return fmt.Errorf("kill window %d: %w", id, err)
	}
	return nil
}

// SetTitle renames a managed window locally and rearranges its workspace.
func (m *Manager) SetTitle(id platform.WindowID, title string) error {
	if !m.Windows.Exists(id) {
		return fmt.Errorf("window %d: %w", id, ErrNotFound)
	}
	m.Windows.Update(id, func(w *Window) *Window {
		w.Title = title
		return w
	})
	m.rearrangeWindow(id)
	return nil
}

// MoveToMonitor reassigns a window to another monitor's current workspace.
func (m *Manager) MoveToMonitor(id platform.WindowID, target platform.MonitorID) error {
	w, ok := m.Windows.Lookup(id)
	if !ok {
		return fmt.Errorf("window %d: %w", id, ErrNotFound)
	}
	if !m.Monitors.Exists(target) {
		return fmt.Errorf("monitor %d: %w", target, ErrNotFound)
	}
	w.SetMonitor(target)
	return nil
}

// CheckInvariants reports every violation of the model's consistency rules.
func (m *Manager) CheckInvariants() error {
	var result *multierror.Error
	for _, w := range m.Windows.Items() {
		if !m.Monitors.Exists(w.Monitor()) {
			result = multierror.Append(result, fmt.Errorf("window %d references monitor %d: %w", w.ID, w.Monitor(), ErrInconsistentState))
		}
	}
	for _, mon := range m.Monitors.Items() {
		if mon.FocusedWindow == 0 {
			continue
		}
		w, ok := m.Windows.Lookup(mon.FocusedWindow)
		if !ok {
			result = multierror.Append(result, fmt.Errorf("monitor %d focuses missing window %d: %w", mon.ID, mon.FocusedWindow, ErrInconsistentState))
			continue
		}
		if w.Monitor() != mon.ID || w.Workspace != mon.current {
			result = multierror.Append(result, fmt.Errorf("monitor %d focuses window %d outside workspace %d: %w", mon.ID, w.ID, mon.current, ErrInconsistentState))
		}
	}
	return result.ErrorOrNil()
}

// Publish forwards a notification on the model bus.
func (m *Manager) Publish(topic eventbus.Topic, payload any) {
	m.bus.Publish(topic, payload)
}

func (m *Manager) focus(mon *Monitor, id platform.WindowID) {
	mon.FocusedWindow = id
	if err := m.backend.FocusWindow(id); err != nil {
		m.log.Debug("focus window failed", "window", id, "error", err)
	}
}

func (m *Manager) highlight(id platform.WindowID, color uint32) {
	if err := m.backend.SetWindowAttr(id, color); err != nil {
		m.log.Debug("set window attr failed", "window", id, "error", err)
	}
}

func (m *Manager) rearrangeWindow(id platform.WindowID) {
	w, ok := m.Windows.Lookup(id)
	if !ok {
		return
	}
	if ws, ok := m.WorkspaceOf(w); ok {
		ws.Rearrange()
	}
}

func (m *Manager) onWindowAdded(w *Window) {
	if m.IsSpecial(w.ID) {
		m.Rearrange()
		return
	}
	m.rearrangeWindow(w.ID)
}

// Focus and main-window references are repaired while the window still
// exists; the caller rearranges after the removal.
func (m *Manager) onWindowBeforeRemove(id platform.WindowID) {
	w, ok := m.Windows.Lookup(id)
	if !ok {
		return
	}
	if id == m.cmdWindow {
		m.cmdWindow = 0
	}
	if id == m.ctlWindow {
		m.ctlWindow = 0
	}
	mon, ok := m.Monitors.Lookup(w.Monitor())
	if !ok || mon.FocusedWindow != id {
		return
	}
	mon.FocusedWindow = 0
	for _, other := range mon.CurrentWorkspace().Windows() {
		if other.ID != id {
			mon.FocusedWindow = other.ID
		}
	}
}

func (m *Manager) onWindowMonitorChanged(ev MonitorChange) {
	w, ok := m.Windows.Lookup(ev.Window)
	if !ok {
		return
	}
	to, ok := m.Monitors.Lookup(ev.To)
	if !ok {
		m.log.Warn("window moved to unknown monitor", "window", ev.Window, "monitor", ev.To)
		return
	}
	w.Workspace = to.CurrentID()
	if from, ok := m.Monitors.Lookup(ev.From); ok {
		if from.FocusedWindow == ev.Window {
			from.FocusedWindow = from.CurrentWorkspace().MainWindow()
		}
		from.CurrentWorkspace().Rearrange()
	}
	to.CurrentWorkspace().Rearrange()
}
