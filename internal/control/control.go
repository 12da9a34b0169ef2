// Package control implements the operations offered to external clients:
// window listing and inspection, focus, close, retitle and layout changes.
package control

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/wm"
)

// Lever 1-up/2-up modes.
const (
	LeverOneUp = "1"
	LeverTwoUp = "2"
)

// Runner serializes a call with every other model mutation.
type Runner interface {
	Call(ctx context.Context, fn func() error) error
}

// Direct runs calls on the caller's goroutine.
type Direct struct{}

func (Direct) Call(_ context.Context, fn func() error) error { return fn() }

// WindowInfo describes one managed window.
type WindowInfo struct {
	ID        uint32 `json:"id"`
	Title     string `json:"title"`
	Class     string `json:"class,omitempty"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Monitor   int    `json:"monitor"`
	Workspace int    `json:"workspace"`
	Visible   bool   `json:"visible"`
	Focused   bool   `json:"focused"`
	Main      bool   `json:"main"`
}

// LayoutsInfo lists the registered layouts and the current one.
type LayoutsInfo struct {
	Layouts []string `json:"layouts"`
	Current string   `json:"current"`
}

// MonitorStatus summarizes one monitor.
type MonitorStatus struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Workspace int    `json:"workspace"`
	Layout    string `json:"layout"`
	Focused   uint32 `json:"focused,omitempty"`
	Current   bool   `json:"current"`
}

// Status is a snapshot of the manager.
type Status struct {
	Monitors      []MonitorStatus `json:"monitors"`
	Windows       int             `json:"windows"`
	Floaters      int             `json:"floaters"`
	Layout        string          `json:"layout"`
	UptimeSeconds int64           `json:"uptime_seconds"`
}

// Service runs control operations against a manager.
type Service struct {
	mgr *wm.Manager
	run Runner
}

// New creates a service. A nil runner runs calls directly.
func New(mgr *wm.Manager, run Runner) *Service {
	if run == nil {
		run = Direct{}
	}
	return &Service{mgr: mgr, run: run}
}

// WindowIDs lists every managed window starting at the focused window and
// following registry order around to it.
func (s *Service) WindowIDs(ctx context.Context) ([]uint32, error) {
	var out []uint32
	err := s.run.Call(ctx, func() error {
		windows := s.mgr.Windows
		if windows.Len() == 0 {
			return nil
		}
		start := windows.Keys()[0]
		if w, ok := s.mgr.FocusedWindow(); ok {
			start = w.ID
		}
		id := start
		for {
			out = append(out, uint32(id))
			next, _ := windows.Next(id)
			if next == start {
				return nil
			}
			id = next
		}
	})
	return out, err
}

// Windows describes every managed window in registry order.
func (s *Service) Windows(ctx context.Context) ([]WindowInfo, error) {
	var out []WindowInfo
	err := s.run.Call(ctx, func() error {
		for _, w := range s.mgr.Windows.Items() {
			out = append(out, s.info(w))
		}
		return nil
	})
	return out, err
}

// FocusedID returns the focused window of the current monitor.
func (s *Service) FocusedID(ctx context.Context) (uint32, error) {
	var id uint32
	err := s.run.Call(ctx, func() error {
		w, ok := s.mgr.FocusedWindow()
		if !ok {
			return fmt.Errorf("focused window: %w", wm.ErrNotFound)
		}
		id = uint32(w.ID)
		return nil
	})
	return id, err
}

// Window describes one window. ref is a window id, or empty or "current"
// for the focused window.
func (s *Service) Window(ctx context.Context, ref string) (WindowInfo, error) {
	var info WindowInfo
	err := s.run.Call(ctx, func() error {
		w, err := s.resolve(ref)
		if err != nil {
			return err
		}
		info = s.info(w)
		return nil
	})
	return info, err
}

// Focus switches to the window's workspace and focuses it.
func (s *Service) Focus(ctx context.Context, ref string) error {
	return s.run.Call(ctx, func() error {
		w, err := s.resolve(ref)
		if err != nil {
			return err
		}
		return s.mgr.Focus(w.ID)
	})
}

// Close asks the backend to close a window.
func (s *Service) Close(ctx context.Context, ref string) error {
	return s.run.Call(ctx, func() error {
		w, err := s.resolve(ref)
		if err != nil {
			return err
		}
		return s.mgr.Kill(w.ID)
	})
}

// SetTitle renames a window.
func (s *Service) SetTitle(ctx context.Context, ref, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title must not be empty: %w", wm.ErrInvalidArgument)
	}
	return s.run.Call(ctx, func() error {
		w, err := s.resolve(ref)
		if err != nil {
			return err
		}
		return s.mgr.SetTitle(w.ID, title)
	})
}

// SetLayout switches the current workspace to a registered layout. Hidden
// windows of the workspace are shown first; lever starts in 1-up mode.
func (s *Service) SetLayout(ctx context.Context, name string) error {
	return s.run.Call(ctx, func() error {
		if !s.mgr.HasLayout(name) {
			return unknownLayout(name, s.mgr.Layouts())
		}
		ws, ok := s.mgr.CurrentWorkspace()
		if !ok {
			return fmt.Errorf("current workspace: %w", wm.ErrNotFound)
		}
		for _, w := range ws.Windows() {
			w.Show()
		}
		if name == "lever" {
			ws.NUp = 1
		}
		return ws.SetLayout(name)
	})
}

// Rotate makes the next ("f") or previous ("b") window of the current
// workspace the main window.
func (s *Service) Rotate(ctx context.Context, dir string) error {
	step := 0
	switch dir {
	case "f":
		step = 1
	case "b":
		step = -1
	default:
		return fmt.Errorf("rotate direction %q must be f or b: %w", dir, wm.ErrInvalidArgument)
	}
	return s.run.Call(ctx, func() error {
		ws, ok := s.mgr.CurrentWorkspace()
		if !ok {
			return fmt.Errorf("current workspace: %w", wm.ErrNotFound)
		}
		windows := ws.Windows()
		main := ws.MainWindow()
		idx := -1
		for i, w := range windows {
			if w.ID == main {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("main window of workspace %d: %w", ws.ID, wm.ErrNotFound)
		}
		next := windows[(idx+step+len(windows))%len(windows)]
		ws.SetMainWindow(next.ID)
		ws.Rearrange()
		return nil
	})
}

// SetLeverMode sets the lever layout to 1-up or 2-up. The current layout
// must be lever.
func (s *Service) SetLeverMode(ctx context.Context, mode string) error {
	return s.run.Call(ctx, func() error {
		ws, ok := s.mgr.CurrentWorkspace()
		if !ok {
			return fmt.Errorf("current workspace: %w", wm.ErrNotFound)
		}
		if ws.Layout != "lever" {
			return fmt.Errorf("current layout is %q, not lever: %w", ws.Layout, wm.ErrInvalidArgument)
		}
		switch mode {
		case LeverOneUp:
			ws.NUp = 1
		case LeverTwoUp:
			ws.NUp = 2
		default:
			return fmt.Errorf("lever mode %q must be 1 or 2: %w", mode, wm.ErrInvalidArgument)
		}
		ws.Rearrange()
		return nil
	})
}

// Layouts lists the registered layouts.
func (s *Service) Layouts(ctx context.Context) (LayoutsInfo, error) {
	var info LayoutsInfo
	err := s.run.Call(ctx, func() error {
		info.Layouts = s.mgr.Layouts()
		if ws, ok := s.mgr.CurrentWorkspace(); ok {
			info.Current = ws.Layout
		}
		return nil
	})
	return info, err
}

// Status summarizes monitors, windows and uptime.
func (s *Service) Status(ctx context.Context) (Status, error) {
	var st Status
	err := s.run.Call(ctx, func() error {
		cur, hasCur := s.mgr.CurrentMonitor()
		for _, mon := range s.mgr.Monitors.Items() {
			ws := mon.CurrentWorkspace()
			st.Monitors = append(st.Monitors, MonitorStatus{
				ID:        int(mon.ID),
				Name:      mon.Name,
				X:         mon.X,
				Y:         mon.Y,
				Width:     mon.Width,
				Height:    mon.Height,
				Workspace: ws.ID,
				Layout:    ws.Layout,
				Focused:   uint32(mon.FocusedWindow),
				Current:   hasCur && cur.ID == mon.ID,
			})
		}
		st.Windows = s.mgr.Windows.Len()
		st.Floaters = len(s.mgr.Floaters())
		if hasCur {
			st.Layout = cur.CurrentWorkspace().Layout
		}
		st.UptimeSeconds = int64(time.Since(s.mgr.Started()).Seconds())
		return nil
	})
	return st, err
}

func (s *Service) resolve(ref string) (*wm.Window, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "current" {
		w, ok := s.mgr.FocusedWindow()
		if !ok {
			return nil, fmt.Errorf("focused window: %w", wm.ErrNotFound)
		}
		return w, nil
	}
	if id, ok := s.mgr.Windows.Resolve(ref); ok {
		w, _ := s.mgr.Windows.Lookup(id)
		return w, nil
	}
	if id, err := ParseWindowID(ref); err == nil {
		if w, ok := s.mgr.Windows.Lookup(id); ok {
			return w, nil
		}
	}
	return nil, fmt.Errorf("window %s: %w", ref, wm.ErrNotFound)
}

func (s *Service) info(w *wm.Window) WindowInfo {
	info := WindowInfo{
		ID:        uint32(w.ID),
		Title:     w.Title,
		Class:     w.Class,
		X:         w.X,
		Y:         w.Y,
		Width:     w.Width,
		Height:    w.Height,
		Monitor:   int(w.Monitor()),
		Workspace: w.Workspace,
		Visible:   w.Visible,
	}
	if mon, ok := s.mgr.Monitors.Lookup(w.Monitor()); ok {
		info.Focused = mon.FocusedWindow == w.ID
		info.Main = mon.Workspace(w.Workspace).MainWindow() == w.ID
	}
	return info
}

// ParseWindowID parses a decimal or 0x-prefixed window id.
func ParseWindowID(s string) (platform.WindowID, error) {
	var id uint32
	if _, err := fmt.Sscan(strings.TrimSpace(s), &id); err != nil {
		return 0, fmt.Errorf("window id %q: %w", s, wm.ErrInvalidArgument)
	}
	return platform.WindowID(id), nil
}

func unknownLayout(name string, known []string) error {
	if hint := Suggest(name, known); hint != "" {
		return fmt.Errorf("unknown layout %q (did you mean %q?): %w", name, hint, wm.ErrInvalidArgument)
	}
	return fmt.Errorf("unknown layout %q (valid: %s): %w", name, strings.Join(known, ", "), wm.ErrInvalidArgument)
}

// Suggest returns the candidate closest to name by edit distance, or ""
// when none is within half of name's length.
func Suggest(name string, candidates []string) string {
	best := ""
	bestDist := len(name)/2 + 1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(name), c)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
