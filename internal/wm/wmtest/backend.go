// Package wmtest provides test doubles for the window manager core.
package wmtest

import (
	"sync"
	"time"

	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/wm"
)

// Call is one recorded backend command.
type Call struct {
	Op     string
	ID     platform.WindowID
	X      int
	Y      int
	Width  int
	Height int
	Color  uint32
}

// Backend records every command it receives.
type Backend struct {
	mu    sync.Mutex
	calls []Call
	grabs []platform.KeyCombo

	// Live is returned by ListWindows.
	Live []platform.WindowID
	// Err is returned by every command when set.
	Err error
}

var (
	_ platform.Backend      = (*Backend)(nil)
	_ platform.WindowLister = (*Backend)(nil)
)

// NewBackend creates an empty recording backend.
func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) record(c Call) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, c)
	return b.Err
}

func (b *Backend) MoveWindow(id platform.WindowID, x, y int) error {
	return b.record(Call{Op: "move", ID: id, X: x, Y: y})
}

func (b *Backend) ResizeWindow(id platform.WindowID, width, height int) error {
	return b.record(Call{Op: "resize", ID: id, Width: width, Height: height})
}

func (b *Backend) FocusWindow(id platform.WindowID) error {
	return b.record(Call{Op: "focus", ID: id})
}

func (b *Backend) KillWindow(id platform.WindowID) error {
	return b.record(Call{Op: "kill", ID: id})
}

func (b *Backend) SetWindowAttr(id platform.WindowID, color uint32) error {
	return b.record(Call{Op: "attr", ID: id, Color: color})
}

func (b *Backend) ConfigureWindow(req platform.ConfigureRequest) error {
	return b.record(Call{Op: "configure", ID: req.ID, X: req.X, Y: req.Y, Width: req.Width, Height: req.Height})
}

func (b *Backend) GrabKeys(keys []platform.KeyCombo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.grabs = append(b.grabs, keys...)
	return b.Err
}

func (b *Backend) ListWindows() ([]platform.WindowID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]platform.WindowID(nil), b.Live...), b.Err
}

// Calls returns the recorded commands.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsFor returns the recorded commands for one window and operation.
// An empty op matches every operation.
func (b *Backend) CallsFor(id platform.WindowID, op string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.ID == id && (op == "" || c.Op == op) {
			out = append(out, c)
		}
	}
	return out
}

// LastMove returns the most recent move for id.
func (b *Backend) LastMove(id platform.WindowID) (Call, bool) {
	moves := b.CallsFor(id, "move")
	if len(moves) == 0 {
		return Call{}, false
	}
	return moves[len(moves)-1], true
}

// Grabs returns the key combinations passed to GrabKeys.
func (b *Backend) Grabs() []platform.KeyCombo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]platform.KeyCombo(nil), b.grabs...)
}

// Reset forgets the recorded commands.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// ChromeBackend is a Backend that also creates lever chrome windows.
type ChromeBackend struct {
	*Backend
	NextID  platform.WindowID
	Created []platform.WindowID
}

var _ platform.ChromeProvider = (*ChromeBackend)(nil)

// NewChromeBackend creates a chrome-capable backend allocating ids from next.
func NewChromeBackend(next platform.WindowID) *ChromeBackend {
	return &ChromeBackend{Backend: NewBackend(), NextID: next}
}

func (b *ChromeBackend) CreateControlStrip(title string, bounds platform.Rect) (platform.WindowID, error) {
	return b.create()
}

func (b *ChromeBackend) CreateCommandWindow(title string, bounds platform.Rect) (platform.WindowID, error) {
	return b.create()
}

func (b *ChromeBackend) create() (platform.WindowID, error) {
	id := b.NextID
	b.NextID++
	b.Created = append(b.Created, id)
	return id, nil
}

// Scheduler is a manual wm.Scheduler. Timers fire only when Tick is called.
type Scheduler struct {
	timers []*timer
	// Delays records every requested delay.
	Delays []time.Duration
}

var _ wm.Scheduler = (*Scheduler)(nil)

type timer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// AfterFunc records fn for a later Tick.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) wm.Timer {
	t := &timer{fn: fn}
	s.timers = append(s.timers, t)
	s.Delays = append(s.Delays, d)
	return t
}

// Pending returns the number of timers neither fired nor stopped.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Tick fires the oldest pending timer. It reports false when none is left.
func (s *Scheduler) Tick() bool {
	for _, t := range s.timers {
		if t.stopped || t.fired {
			continue
		}
		t.fired = true
		t.fn()
		return true
	}
	return false
}

// FireStopped runs the callbacks of stopped timers, as a real timer that
// raced with Stop would.
func (s *Scheduler) FireStopped() int {
	n := 0
	for _, t := range s.timers {
		if t.stopped && !t.fired {
			t.fired = true
			t.fn()
			n++
		}
	}
	return n
}

// Drain ticks until no timer is pending or limit ticks have run, returning
// the number of ticks.
func (s *Scheduler) Drain(limit int) int {
	n := 0
	for n < limit && s.Tick() {
		n++
	}
	return n
}
