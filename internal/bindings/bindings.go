// Package bindings maps configured key sequences to window manager actions.
package bindings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/1broseidon/nwm/internal/config"
	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/wm"
)

// Deps supplies the actions that reach outside the model.
type Deps struct {
	// Spawn starts a terminal.
	Spawn func() error
	// Quit stops the window manager.
	Quit func()
}

// Handler runs key actions against a manager.
type Handler struct {
	mgr       *wm.Manager
	deps      Deps
	scaleStep float64
	actions   map[string]func()
}

// NewHandler creates the action table.
func NewHandler(mgr *wm.Manager, cfg *config.Config, deps Deps) *Handler {
	h := &Handler{mgr: mgr, deps: deps, scaleStep: cfg.ScaleStep}
	h.actions = map[string]func(){
		"spawn_terminal": h.spawnTerminal,
		"close_window":   h.closeFocused,
		"swipe_right":    func() { h.swipe(3) },
		"swipe_left":     func() { h.swipe(-3) },
		"next_layout":    h.nextLayout,
		"shrink_main":    func() { h.scaleMain(-h.scaleStep) },
		"grow_main":      func() { h.scaleMain(h.scaleStep) },
		"promote_main":   h.promoteFocused,
		"monitor_next":   func() { h.moveToMonitor(true) },
		"monitor_prev":   func() { h.moveToMonitor(false) },
		"focus_prev":     func() { h.focusStep(-1) },
		"focus_next":     func() { h.focusStep(1) },
		"quit":           h.quit,
		"go_back":        h.goBack,
	}
	for i := wm.FirstWorkspace; i <= 9; i++ {
		n := i
		h.actions["workspace_"+strconv.Itoa(n)] = func() { h.gotoWorkspace(n) }
		h.actions["move_to_workspace_"+strconv.Itoa(n)] = func() { h.moveFocusedTo(n) }
	}
	return h
}

// Run executes one action by name.
func (h *Handler) Run(action string) error {
	fn, ok := h.actions[action]
	if !ok {
		return fmt.Errorf("action %q: %w", action, wm.ErrNotFound)
	}
	h.mgr.Logger().Debug("key action", "action", action)
	fn()
	return nil
}

// Register binds every configured key sequence to its action. Sequences the
// parser rejects are reported together; the rest stay bound.
func (h *Handler) Register(parser platform.KeyParser, cfg *config.Config) error {
	var result *multierror.Error
	for _, action := range config.KeyActions() {
		if _, ok := h.actions[action]; !ok {
			continue
		}
		action := action
		for _, seq := range cfg.KeySequences(action) {
			combos, err := parser.ParseKey(seq)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("keys.%s: %q: %w", action, seq, err))
				continue
			}
			for _, combo := range combos {
				h.mgr.AddKey(combo, func(platform.KeyEvent) {
					_ = h.Run(action)
				})
			}
		}
	}
	return result.ErrorOrNil()
}

func (h *Handler) gotoWorkspace(id int) {
	if mon, ok := h.mgr.CurrentMonitor(); ok {
		mon.Go(id)
	}
}

func (h *Handler) goBack() {
	if mon, ok := h.mgr.CurrentMonitor(); ok {
		mon.GoBack()
	}
}

func (h *Handler) moveFocusedTo(id int) {
	mon, ok := h.mgr.CurrentMonitor()
	if !ok || mon.FocusedWindow == 0 {
		return
	}
	if err := mon.WindowTo(mon.FocusedWindow, id); err != nil {
		h.mgr.Logger().Debug("move window to workspace failed", "window", mon.FocusedWindow, "workspace", id, "error", err)
	}
}

func (h *Handler) spawnTerminal() {
	if h.deps.Spawn == nil {
		return
	}
	if err := h.deps.Spawn(); err != nil {
		h.mgr.Logger().Warn("spawn terminal failed", "error", err)
	}
}

func (h *Handler) closeFocused() {
	w, ok := h.mgr.FocusedWindow()
	if !ok {
		return
	}
	if err := h.mgr.Kill(w.ID); err != nil {
		h.mgr.Logger().Debug("close window failed", "window", w.ID, "error", err)
	}
}

// swipe sends a completed drag of quarters*width/4 to the drag handler.
func (h *Handler) swipe(quarters int) {
	drag := h.mgr.DragHandler()
	ws, ok := h.mgr.CurrentWorkspace()
	if drag == nil || !ok {
		return
	}
	drag(ws, quarters*ws.Area().Width/4, 0, true)
}

func (h *Handler) nextLayout() {
	ws, ok := h.mgr.CurrentWorkspace()
	if !ok {
		return
	}
	for _, w := range ws.Windows() {
		w.Show()
	}
	next := h.mgr.NextLayout(ws.Layout)
	if err := ws.SetLayout(next); err != nil {
		h.mgr.Logger().Warn("switch layout failed", "layout", next, "error", err)
	}
}

func (h *Handler) scaleMain(delta float64) {
	ws, ok := h.mgr.CurrentWorkspace()
	if !ok {
		return
	}
	ws.SetMainScale(ws.MainScale + delta)
	ws.Rearrange()
}

func (h *Handler) promoteFocused() {
	w, ok := h.mgr.FocusedWindow()
	if !ok {
		return
	}
	ws, ok := h.mgr.WorkspaceOf(w)
	if !ok {
		return
	}
	ws.SetMainWindow(w.ID)
	ws.Rearrange()
}

func (h *Handler) moveToMonitor(forward bool) {
	mon, ok := h.mgr.CurrentMonitor()
	if !ok || mon.FocusedWindow == 0 {
		return
	}
	step := h.mgr.Monitors.Next
	if !forward {
		step = h.mgr.Monitors.Prev
	}
	target, ok := step(mon.ID)
	if !ok || target == mon.ID {
		return
	}
	if err := h.mgr.MoveToMonitor(mon.FocusedWindow, target); err != nil {
		h.mgr.Logger().Debug("move window to monitor failed", "window", mon.FocusedWindow, "monitor", target, "error", err)
	}
}

// focusStep focuses the window dir positions away from the focused one in
// the current workspace, wrapping at either end. The main window is kept
// unless the target is hidden by the layout, in which case it is brought
// forward as the main window.
func (h *Handler) focusStep(dir int) {
	mon, ok := h.mgr.CurrentMonitor()
	if !ok {
		return
	}
	windows := mon.CurrentWorkspace().Windows()
	if len(windows) == 0 {
		return
	}
	idx := -1
	for i, w := range windows {
		if w.ID == mon.FocusedWindow {
			idx = i
			break
		}
	}
	var next int
	switch {
	case idx < 0 && dir > 0:
		next = 0
	case idx < 0:
		next = len(windows) - 1
	default:
		next = (idx + dir + len(windows)) % len(windows)
	}
	target := windows[next]
	focus := h.mgr.SetFocus
	if !target.Visible {
		focus = h.mgr.Focus
	}
	if err := focus(target.ID); err != nil {
		h.mgr.Logger().Debug("focus window failed", "window", target.ID, "error", err)
	}
}

func (h *Handler) quit() {
	if h.deps.Quit != nil {
		h.deps.Quit()
	}
}

// Describe lists action names with their configured sequences.
func Describe(cfg *config.Config) []string {
	var out []string
	for _, action := range config.KeyActions() {
		out = append(out, fmt.Sprintf("%s: %s", action, strings.Join(cfg.KeySequences(action), ", ")))
	}
	return out
}
