//go:build linux

package platform

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/nwm/internal/x11"
)

// LinuxOptions configures a LinuxBackend.
type LinuxOptions struct {
	Logger *slog.Logger
	// Name is advertised through _NET_SUPPORTING_WM_CHECK.
	Name string
	// DragButton starts layout drags, for example "Mod1-1".
	DragButton string
	// BorderWidth is applied to every managed window.
	BorderWidth int
	// SpawnEmbedded starts the terminal embedded in the command window.
	// The arguments name the target window and its geometry.
	SpawnEmbedded func(args ...string) error
}

// LinuxBackend manages an X11 display.
type LinuxBackend struct {
	conn   *x11.Connection
	chrome *x11.Chrome
	log    *slog.Logger
	opts   LinuxOptions

	mu         sync.Mutex
	sink       EventSink
	managed    map[xproto.Window]bool
	fullscreen map[xproto.Window]bool
	monitors   map[MonitorID]MonitorInfo
}

var (
	_ Backend        = (*LinuxBackend)(nil)
	_ KeyParser      = (*LinuxBackend)(nil)
	_ ChromeProvider = (*LinuxBackend)(nil)
	_ WindowLister   = (*LinuxBackend)(nil)
)

// NewLinuxBackend connects to the display named by $DISPLAY.
func NewLinuxBackend(opts LinuxOptions) (*LinuxBackend, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Name == "" {
		opts.Name = "nwm"
	}
	if opts.DragButton == "" {
		opts.DragButton = "Mod1-1"
	}
	if opts.BorderWidth == 0 {
		opts.BorderWidth = 1
	}
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{
		conn:       conn,
		log:        opts.Logger,
		opts:       opts,
		managed:    make(map[xproto.Window]bool),
		fullscreen: make(map[xproto.Window]bool),
		monitors:   make(map[MonitorID]MonitorInfo),
	}, nil
}

// Start takes over the display and reports its monitors and existing
// windows to sink. Notifications are delivered from the event loop
// goroutine, so sink must be safe to call from there.
func (b *LinuxBackend) Start(sink EventSink) error {
	b.mu.Lock()
	b.sink = sink
	b.mu.Unlock()

	if err := b.conn.BecomeWM(); err != nil {
		return err
	}
	if err := b.conn.SetSupportingWM(b.opts.Name); err != nil {
		b.log.Warn("failed to advertise EWMH support", "error", err)
	}

	chrome, err := x11.NewChrome(sink.ControlAction)
	if err != nil {
		b.log.Warn("lever chrome unavailable", "error", err)
	} else {
		b.chrome = chrome
	}

	b.refreshMonitors()
	if err := b.conn.WatchMonitors(b.refreshMonitors); err != nil {
		b.log.Warn("monitor hotplug disabled", "error", err)
	}

	root := b.conn.Root
	xu := b.conn.XUtil
	xevent.MapRequestFun(func(_ *xgbutil.XUtil, ev xevent.MapRequestEvent) {
		b.manage(ev.Window)
	}).Connect(xu, root)
	xevent.ConfigureRequestFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureRequestEvent) {
		sink.ConfigureRequest(ConfigureRequest{
			ID:          WindowID(ev.Window),
			X:           int(ev.X),
			Y:           int(ev.Y),
			Width:       int(ev.Width),
			Height:      int(ev.Height),
			BorderWidth: int(ev.BorderWidth),
			Above:       WindowID(ev.Sibling),
			Detail:      ev.StackMode,
			ValueMask:   ev.ValueMask,
		})
	}).Connect(xu, root)
	b.conn.OnKeyPress(func(k x11.Key) {
		sink.KeyPress(KeyEvent{Keysym: k.Keysym, Modifier: k.Mods})
	})
	b.conn.OnDrag(b.opts.DragButton, func(prevX, prevY, x, y int, done bool) {
		sink.MouseDrag(DragEvent{X: prevX, Y: prevY, MoveX: x, MoveY: y, Done: done})
	})

	existing, err := b.conn.ViewableChildren()
	if err != nil {
		return fmt.Errorf("list existing windows: %w", err)
	}
	for _, win := range existing {
		b.manage(win)
	}
	b.log.Info("managing display", "windows", len(existing), "monitors", len(b.monitorSnapshot()))
	return nil
}

// Run processes X events until Stop.
func (b *LinuxBackend) Run() {
	if b.chrome != nil {
		go b.chrome.Run()
	}
	b.conn.EventLoop()
}

// Stop ends Run and disconnects from the display.
func (b *LinuxBackend) Stop() {
	if b.chrome != nil {
		b.chrome.Close()
	}
	b.conn.Close()
}

// MoveWindow implements Backend.
func (b *LinuxBackend) MoveWindow(id WindowID, x, y int) error {
	b.conn.MoveWindow(xproto.Window(id), x, y)
	return nil
}

// ResizeWindow implements Backend.
func (b *LinuxBackend) ResizeWindow(id WindowID, width, height int) error {
	b.conn.ResizeWindow(xproto.Window(id), width, height)
	return nil
}

// FocusWindow implements Backend.
func (b *LinuxBackend) FocusWindow(id WindowID) error {
	return b.conn.FocusWindow(xproto.Window(id))
}

// KillWindow implements Backend.
func (b *LinuxBackend) KillWindow(id WindowID) error {
	return b.conn.CloseWindow(xproto.Window(id))
}

// SetWindowAttr implements Backend by setting the border color.
func (b *LinuxBackend) SetWindowAttr(id WindowID, color uint32) error {
	return b.conn.SetBorderColor(xproto.Window(id), color)
}

// ConfigureWindow implements Backend. Managed windows are also sent a
// synthetic ConfigureNotify since the request may have been rewritten.
func (b *LinuxBackend) ConfigureWindow(req ConfigureRequest) error {
	win := xproto.Window(req.ID)
	g := x11.Geometry{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height}
	b.conn.Configure(win, req.ValueMask, g, req.BorderWidth, xproto.Window(req.Above), req.Detail)
	if !b.isManaged(win) {
		return nil
	}
	return b.conn.SendStructureNotify(win, g, b.opts.BorderWidth)
}

// GrabKeys implements Backend.
func (b *LinuxBackend) GrabKeys(keys []KeyCombo) error {
	grabs := make([]x11.Key, 0, len(keys))
	for _, k := range keys {
		grabs = append(grabs, x11.Key{Keysym: k.Keysym, Mods: k.Modifier})
	}
	b.conn.GrabKeys(grabs)
	return nil
}

// ParseKey implements KeyParser.
func (b *LinuxBackend) ParseKey(sequence string) ([]KeyCombo, error) {
	keys, err := b.conn.ParseKey(sequence)
	if err != nil {
		return nil, err
	}
	combos := make([]KeyCombo, 0, len(keys))
	for _, k := range keys {
		combos = append(combos, KeyCombo{Keysym: k.Keysym, Modifier: k.Mods})
	}
	return combos, nil
}

// CreateControlStrip implements ChromeProvider.
func (b *LinuxBackend) CreateControlStrip(title string, bounds Rect) (WindowID, error) {
	if b.chrome == nil {
		return 0, fmt.Errorf("chrome connection unavailable")
	}
	win, err := b.chrome.CreateControlStrip(title, geometry(bounds))
	return WindowID(win), err
}

// CreateCommandWindow implements ChromeProvider. A terminal is embedded
// into the window when SpawnEmbedded is set.
func (b *LinuxBackend) CreateCommandWindow(title string, bounds Rect) (WindowID, error) {
	if b.chrome == nil {
		return 0, fmt.Errorf("chrome connection unavailable")
	}
	win, err := b.chrome.CreateCommandWindow(title, geometry(bounds))
	if err != nil {
		return 0, err
	}
	if b.opts.SpawnEmbedded != nil {
		if err := b.opts.SpawnEmbedded(EmbedArgs(WindowID(win), bounds)...); err != nil {
			b.log.Warn("failed to start command terminal", "window", win, "error", err)
		}
	}
	return WindowID(win), nil
}

// EmbedArgs returns the xterm arguments embedding a terminal into win,
// sized in 6x13 character cells.
func EmbedArgs(win WindowID, bounds Rect) []string {
	cols := max(bounds.Width/6, 1)
	rows := max(bounds.Height/13, 1)
	return []string{
		"-into", strconv.FormatUint(uint64(win), 10),
		"-geometry", fmt.Sprintf("%dx%d+0+0", cols, rows),
	}
}

// ListWindows implements WindowLister with the mapped top-level windows.
func (b *LinuxBackend) ListWindows() ([]WindowID, error) {
	wins, err := b.conn.ViewableChildren()
	if err != nil {
		return nil, err
	}
	ids := make([]WindowID, 0, len(wins))
	for _, w := range wins {
		ids = append(ids, WindowID(w))
	}
	return ids, nil
}

func (b *LinuxBackend) manage(win xproto.Window) {
	sink := b.currentSink()
	if b.isManaged(win) {
		// A withdrawn window mapping again is reported once more; the
		// manager ignores windows it still knows.
		b.conn.MapWindow(win)
		sink.WindowAdded(b.windowInfo(win))
		return
	}
	if b.conn.IsOverrideRedirect(win) {
		return
	}
	if !b.conn.IsNormalWindow(win) {
		b.conn.MapWindow(win)
		return
	}

	if err := b.conn.Listen(win, x11.ClientEventMask); err != nil {
		b.log.Debug("failed to select window events", "window", win, "error", err)
		return
	}
	b.conn.SetBorderWidth(win, b.opts.BorderWidth)
	b.connectWindow(win, sink)

	b.mu.Lock()
	b.managed[win] = true
	b.mu.Unlock()

	info := b.windowInfo(win)
	b.conn.MapWindow(win)
	sink.WindowAdded(info)
	if b.conn.IsFullscreen(win) {
		b.setFullscreen(win, true)
	}
	b.publishClientList()
}

func (b *LinuxBackend) unmanage(win xproto.Window) {
	b.mu.Lock()
	known := b.managed[win]
	delete(b.managed, win)
	delete(b.fullscreen, win)
	b.mu.Unlock()
	if !known {
		return
	}
	b.conn.Detach(win)
	b.currentSink().WindowRemoved(WindowID(win))
	b.publishClientList()
}

func (b *LinuxBackend) connectWindow(win xproto.Window, sink EventSink) {
	xu := b.conn.XUtil
	id := WindowID(win)

	xevent.DestroyNotifyFun(func(_ *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		if ev.Window == win {
			b.unmanage(win)
		}
	}).Connect(xu, win)
	xevent.EnterNotifyFun(func(_ *xgbutil.XUtil, ev xevent.EnterNotifyEvent) {
		sink.EnterNotify(CrossingEvent{
			ID:    id,
			X:     int(ev.EventX),
			Y:     int(ev.EventY),
			RootX: int(ev.RootX),
			RootY: int(ev.RootY),
		})
	}).Connect(xu, win)
	xevent.FocusInFun(func(_ *xgbutil.XUtil, ev xevent.FocusInEvent) {
		if ignoreFocus(ev.Mode, ev.Detail) {
			return
		}
		sink.FocusIn(FocusEvent{ID: id})
	}).Connect(xu, win)
	xevent.FocusOutFun(func(_ *xgbutil.XUtil, ev xevent.FocusOutEvent) {
		if ignoreFocus(ev.Mode, ev.Detail) {
			return
		}
		sink.FocusOut(FocusEvent{ID: id})
	}).Connect(xu, win)
	xevent.PropertyNotifyFun(func(_ *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		switch b.conn.AtomName(ev.Atom) {
		case "WM_NAME", "_NET_WM_NAME":
			sink.WindowUpdated(WindowInfo{ID: id, Title: b.conn.WindowTitle(win)})
		case "WM_CLASS":
			instance, class := b.conn.WindowClass(win)
			sink.WindowUpdated(WindowInfo{ID: id, Class: class, Instance: instance})
		}
	}).Connect(xu, win)
	xevent.ClientMessageFun(func(_ *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		b.clientMessage(win, ev)
	}).Connect(xu, win)

	if err := b.conn.ClickToFocus(win, func() { sink.MouseDown(ButtonEvent{ID: id}) }); err != nil {
		b.log.Debug("failed to grab focus click", "window", win, "error", err)
	}
}

// clientMessage handles _NET_WM_STATE fullscreen requests. The first data
// word is 0 to remove, 1 to add and 2 to toggle.
func (b *LinuxBackend) clientMessage(win xproto.Window, ev xevent.ClientMessageEvent) {
	if b.conn.AtomName(ev.Type) != "_NET_WM_STATE" {
		return
	}
	data := ev.Data.Data32
	if len(data) < 3 {
		return
	}
	if b.conn.AtomName(xproto.Atom(data[1])) != "_NET_WM_STATE_FULLSCREEN" &&
		b.conn.AtomName(xproto.Atom(data[2])) != "_NET_WM_STATE_FULLSCREEN" {
		return
	}
	b.mu.Lock()
	on := b.fullscreen[win]
	b.mu.Unlock()
	switch data[0] {
	case 0:
		on = false
	case 1:
		on = true
	case 2:
		on = !on
	default:
		return
	}
	b.setFullscreen(win, on)
}

func (b *LinuxBackend) setFullscreen(win xproto.Window, on bool) {
	b.mu.Lock()
	b.fullscreen[win] = on
	b.mu.Unlock()
	if err := b.conn.SetFullscreen(win, on); err != nil {
		b.log.Debug("failed to record fullscreen state", "window", win, "error", err)
	}
	b.currentSink().Fullscreen(WindowID(win), on)
}

func (b *LinuxBackend) windowInfo(win xproto.Window) WindowInfo {
	info := WindowInfo{
		ID:       WindowID(win),
		Title:    b.conn.WindowTitle(win),
		Floating: b.conn.IsFloating(win),
	}
	info.Instance, info.Class = b.conn.WindowClass(win)
	if g, err := b.conn.WindowGeometry(win); err == nil {
		info.X, info.Y, info.Width, info.Height = g.X, g.Y, g.Width, g.Height
	}
	return info
}

// refreshMonitors reports monitors that appeared, changed or disappeared
// since the previous call.
func (b *LinuxBackend) refreshMonitors() {
	found, err := b.conn.GetMonitors()
	if err != nil {
		b.log.Warn("failed to read monitors", "error", err)
		return
	}
	sink := b.currentSink()

	seen := make(map[MonitorID]bool, len(found))
	for _, m := range found {
		info := MonitorInfo{ID: MonitorID(m.ID), Name: m.Name, X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
		seen[info.ID] = true

		b.mu.Lock()
		prev, known := b.monitors[info.ID]
		b.monitors[info.ID] = info
		b.mu.Unlock()

		switch {
		case !known:
			sink.MonitorAdded(info)
		case prev != info:
			sink.MonitorUpdated(info)
		}
	}

	for _, id := range b.monitorSnapshot() {
		if seen[id] {
			continue
		}
		b.mu.Lock()
		delete(b.monitors, id)
		b.mu.Unlock()
		sink.MonitorRemoved(id)
	}
}

func (b *LinuxBackend) monitorSnapshot() []MonitorID {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]MonitorID, 0, len(b.monitors))
	for id := range b.monitors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (b *LinuxBackend) publishClientList() {
	b.mu.Lock()
	wins := make([]xproto.Window, 0, len(b.managed))
	for w := range b.managed {
		wins = append(wins, w)
	}
	b.mu.Unlock()
	slices.Sort(wins)
	if err := b.conn.SetClientList(wins); err != nil {
		b.log.Debug("failed to publish client list", "error", err)
	}
}

func (b *LinuxBackend) isManaged(win xproto.Window) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.managed[win]
}

func (b *LinuxBackend) currentSink() EventSink {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sink
}

// ignoreFocus filters focus changes caused by grabs and pointer crossings.
func ignoreFocus(mode, detail byte) bool {
	return mode == xproto.NotifyModeGrab ||
		mode == xproto.NotifyModeUngrab ||
		detail == xproto.NotifyDetailPointer
}

func geometry(r Rect) x11.Geometry {
	return x11.Geometry{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}
