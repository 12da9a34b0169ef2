package layout

import (
	"math"
	"time"

	"github.com/1broseidon/nwm/internal/eventbus"
	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/wm"
)

// ActionClose is the control action sent by the lever strip's close button.
const ActionClose = "close"

// Phase is the state of a workspace's lever gesture.
type Phase int

const (
	// PhaseIdle means no gesture is in progress.
	PhaseIdle Phase = iota
	// PhaseDragging means the pointer is moving the main window.
	PhaseDragging
	// PhaseSnapping means a swipe animation is running.
	PhaseSnapping
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseSnapping:
		return "snapping"
	default:
		return "unknown"
	}
}

// LeverConfig tunes the lever layout.
type LeverConfig struct {
	Geometry Geometry
	// SwipeInterval is the delay between animation ticks.
	SwipeInterval time.Duration
	// CommitDivisor sets the commit threshold to width/CommitDivisor.
	CommitDivisor int
	// AnimateLeftSwipe animates leftward commits instead of snapping.
	AnimateLeftSwipe bool
	// CreateChrome creates the control strip and command window on the
	// first arrangement when the backend supports it.
	CreateChrome bool
	ControlTitle string
	CommandTitle string
}

// DefaultLeverConfig returns the stock lever tuning.
func DefaultLeverConfig() LeverConfig {
	return LeverConfig{
		Geometry:      DefaultGeometry(),
		SwipeInterval: 100 * time.Millisecond,
		CommitDivisor: 8,
		CreateChrome:  true,
	}
}

type gesture struct {
	phase Phase
	// gen invalidates scheduled ticks of an older gesture.
	gen   uint64
	timer wm.Timer
}

// LeverLayout shows one or two work windows at full height above the
// control strip and command window. Pointer drags move the main window
// sideways and a release past the commit threshold swipes the neighbour in.
type LeverLayout struct {
	mgr *wm.Manager
	cfg LeverConfig

	gestures      map[*wm.Workspace]*gesture
	chromeCreated bool
	unsubscribe   []func()
}

// NewLever creates the lever layout and subscribes it to the manager's bus.
func NewLever(mgr *wm.Manager, cfg LeverConfig) *LeverLayout {
	if cfg.CommitDivisor <= 0 {
		cfg.CommitDivisor = 8
	}
	if cfg.ControlTitle == "" {
		cfg.ControlTitle = mgr.Options().ControlTitle
	}
	if cfg.CommandTitle == "" {
		cfg.CommandTitle = mgr.Options().CommandTitle
	}
	l := &LeverLayout{
		mgr:      mgr,
		cfg:      cfg,
		gestures: make(map[*wm.Workspace]*gesture),
	}
	bus := mgr.Bus()
	l.unsubscribe = append(l.unsubscribe,
		eventbus.On(bus, wm.TopicLayoutChanged, l.onLayoutChanged),
		eventbus.On(bus, wm.TopicWorkspaceChanged, l.onWorkspaceChanged),
		eventbus.On(bus, wm.TopicControlAction, l.onControlAction),
	)
	return l
}

// Close detaches the layout from the bus and stops pending animations.
func (l *LeverLayout) Close() {
	for _, fn := range l.unsubscribe {
		fn()
	}
	l.unsubscribe = nil
	for _, g := range l.gestures {
		l.cancel(g)
	}
}

// Phase returns the gesture phase of ws.
func (l *LeverLayout) Phase(ws *wm.Workspace) Phase {
	if g, ok := l.gestures[ws]; ok {
		return g.phase
	}
	return PhaseIdle
}

type leverSet struct {
	main    *wm.Window
	visible []*wm.Window
	hidden  []*wm.Window
	left    *wm.Window
	right   *wm.Window
}

// neighbours splits the workspace's windows around the main window using
// the workspace's registry order.
func (l *LeverLayout) neighbours(ws *wm.Workspace) (leverSet, bool) {
	windows := ws.Windows()
	mainID := ws.MainWindow()
	mainIdx := -1
	for i, w := range windows {
		if w.ID == mainID {
			mainIdx = i
			break
		}
	}
	if mainIdx < 0 {
		return leverSet{}, false
	}
	n := len(windows)
	set := leverSet{
		main:    windows[mainIdx],
		visible: []*wm.Window{windows[mainIdx]},
		left:    windows[(mainIdx-1+n)%n],
	}
	last := mainIdx
	if ws.NUp == 2 && n > 1 {
		last = (mainIdx + 1) % n
		set.visible = append(set.visible, windows[last])
	}
	set.right = windows[(last+1)%n]
	for _, w := range windows {
		shown := false
		for _, v := range set.visible {
			if v == w {
				shown = true
				break
			}
		}
		if !shown {
			set.hidden = append(set.hidden, w)
		}
	}
	return set, true
}

// Arrange is the lever wm.LayoutFunc.
func (l *LeverLayout) Arrange(ws *wm.Workspace) {
	l.mgr.SetDragHandler(l.Drag)
	area := ws.Area()
	g := l.cfg.Geometry
	if !l.chromeCreated && l.cfg.CreateChrome {
		l.createChrome(area)
	}

	if set, ok := l.neighbours(ws); ok {
		positions := LeverPositions(len(set.visible), area, g)
		for i, w := range set.visible {
			r := positions[i]
			w.Move(r.X, r.Y)
			w.Resize(r.Width, r.Height)
			w.Show()
		}
		for _, w := range set.hidden {
			w.Hide()
			w.Resize(positions[0].Width, positions[0].Height)
		}
	}

	if w, ok := l.mgr.Windows.Lookup(l.mgr.ControlWindow()); ok {
		r := ControlStripRect(area, g)
		w.Move(r.X, r.Y)
		w.Resize(r.Width, r.Height)
		w.Show()
	}
	if w, ok := l.mgr.Windows.Lookup(l.mgr.CommandWindow()); ok {
		r := CommandWindowRect(area, g)
		w.Move(r.X, r.Y)
		w.Resize(r.Width, r.Height)
		w.Show()
	}
}

func (l *LeverLayout) createChrome(area platform.Rect) {
	chrome, ok := l.mgr.Backend().(platform.ChromeProvider)
	if !ok {
		return
	}
	l.chromeCreated = true
	log := l.mgr.Logger()
	g := l.cfg.Geometry
	if id, err := chrome.CreateControlStrip(l.cfg.ControlTitle, ControlStripRect(area, g)); err != nil {
		log.Warn("create lever control strip failed", "error", err)
	} else {
		l.mgr.SetControlWindow(id)
	}
	if id, err := chrome.CreateCommandWindow(l.cfg.CommandTitle, CommandWindowRect(area, g)); err != nil {
		log.Warn("create lever command window failed", "error", err)
	} else {
		l.mgr.SetCommandWindow(id)
	}
}

// Drag handles pointer motion and releases. A drag arriving while a swipe
// animation runs cancels the animation.
func (l *LeverLayout) Drag(ws *wm.Workspace, dx, dy int, done bool) {
	g := l.gesture(ws)
	if g.phase == PhaseSnapping {
		l.cancel(g)
	}
	g.phase = PhaseDragging

	set, ok := l.neighbours(ws)
	if !ok || len(set.hidden) == 0 {
		g.phase = PhaseIdle
		return
	}
	offset, rightward := l.step(ws, set, dx)
	if !done {
		return
	}

	width := set.main.Width
	threshold := float64(width) / float64(l.cfg.CommitDivisor)
	switch {
	case rightward && float64(offset) >= threshold:
		delta := float64(width-offset)/2 + 1
		l.startSwipe(ws, g, set.left.ID, delta, true)
	case !rightward && float64(offset) <= -threshold:
		if !l.cfg.AnimateLeftSwipe {
			l.snap(ws, g, set.right.ID)
			return
		}
		delta := -float64(width+offset)/2 - 1
		l.startSwipe(ws, g, set.right.ID, delta, false)
	default:
		l.snap(ws, g, set.main.ID)
	}
}

// step shifts the visible windows by dx and reveals the neighbour on the
// side being uncovered. Vertical motion is ignored. It returns the main
// window's offset from its anchor and the drag direction.
func (l *LeverLayout) step(ws *wm.Workspace, set leverSet, dx int) (offset int, rightward bool) {
	margin := l.cfg.Geometry.Margin
	main := set.main
	x := main.X + dx
	y := main.Y
	width := main.Width
	for _, w := range set.visible {
		w.Move(x, y)
		x += width
	}

	offset = main.X - l.anchor(ws)
	rightward = offset > 0 || (offset == 0 && dx > 0)
	neighbour := set.right
	x = main.X + (width+margin)*len(set.visible)
	if rightward {
		neighbour = set.left
		x = main.X - (set.left.Width + margin)
	}
	neighbour.Move(x, main.Y)
	// Mark it shown so the next arrangement hides it again.
	neighbour.Show()
	return offset, rightward
}

func (l *LeverLayout) anchor(ws *wm.Workspace) int {
	return ws.Area().X + l.cfg.Geometry.Margin
}

func (l *LeverLayout) startSwipe(ws *wm.Workspace, g *gesture, target platform.WindowID, delta float64, rightward bool) {
	l.cancel(g)
	g.phase = PhaseSnapping
	l.tick(ws, g, g.gen, target, delta, rightward)
}

// tick advances a swipe by delta and schedules the next tick with half of
// it. The model is re-read every tick.
func (l *LeverLayout) tick(ws *wm.Workspace, g *gesture, gen uint64, target platform.WindowID, delta float64, rightward bool) {
	if g.gen != gen {
		return
	}
	if !ws.IsCurrent() || ws.Layout != Lever {
		l.cancel(g)
		return
	}
	sched := l.mgr.Scheduler()
	if swipeFinished(delta, rightward) || sched == nil {
		l.snap(ws, g, target)
		return
	}
	set, ok := l.neighbours(ws)
	if !ok || len(set.hidden) == 0 {
		l.snap(ws, g, target)
		return
	}
	l.step(ws, set, int(math.Floor(delta)))
	g.timer = sched.AfterFunc(l.cfg.SwipeInterval, func() {
		l.tick(ws, g, gen, target, delta/2, rightward)
	})
}

// snap ends the gesture: target becomes the main window at the anchor and
// the workspace is rearranged.
func (l *LeverLayout) snap(ws *wm.Workspace, g *gesture, target platform.WindowID) {
	l.cancel(g)
	w, ok := l.mgr.Windows.Lookup(target)
	if ok && w.Monitor() == ws.Monitor().ID && w.Workspace == ws.ID {
		ws.SetMainWindow(target)
		w.Move(l.anchor(ws), w.Y)
		w.Show()
	} else {
		l.mgr.Logger().Debug("lever swipe target vanished", "window", target)
	}
	ws.Rearrange()
}

func (l *LeverLayout) cancel(g *gesture) {
	g.gen++
	g.phase = PhaseIdle
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (l *LeverLayout) gesture(ws *wm.Workspace) *gesture {
	g, ok := l.gestures[ws]
	if !ok {
		g = &gesture{}
		l.gestures[ws] = g
	}
	return g
}

func (l *LeverLayout) onLayoutChanged(ev wm.LayoutChange) {
	if ev.From != Lever {
		return
	}
	if g, ok := l.gestures[ev.Workspace]; ok {
		l.cancel(g)
	}
}

func (l *LeverLayout) onWorkspaceChanged(ev wm.WorkspaceChange) {
	mon, ok := l.mgr.Monitors.Lookup(ev.Monitor)
	if !ok {
		return
	}
	ws, ok := mon.Workspaces.Lookup(ev.From)
	if !ok {
		return
	}
	if g, ok := l.gestures[ws]; ok {
		l.cancel(g)
	}
}

// onControlAction handles the control strip's close button: the main window
// is swiped away and closed.
func (l *LeverLayout) onControlAction(action string) {
	if action != ActionClose {
		return
	}
	ws, ok := l.mgr.CurrentWorkspace()
	if !ok || ws.Layout != Lever {
		return
	}
	prev := ws.MainWindow()
	if prev == 0 {
		return
	}
	l.Drag(ws, -3*ws.Area().Width/4, 0, true)
	if err := l.mgr.Kill(prev); err != nil {
		l.mgr.Logger().Debug("close main window failed", "window", prev, "error", err)
	}
}

func swipeFinished(delta float64, rightward bool) bool {
	if rightward {
		return delta <= 1
	}
	return delta >= -1
}

// SwipeSteps returns the whole-pixel displacement applied on each tick of a
// swipe that starts at delta and halves until its magnitude is at most 1.
func SwipeSteps(delta float64) []int {
	rightward := delta > 0
	var steps []int
	for !swipeFinished(delta, rightward) {
		steps = append(steps, int(math.Floor(delta)))
		delta /= 2
	}
	return steps
}
