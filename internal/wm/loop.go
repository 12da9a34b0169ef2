package wm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/1broseidon/nwm/internal/platform"
)

// ErrLoopStopped is returned by Call once the loop has exited.
var ErrLoopStopped = errors.New("event loop stopped")

const loopQueueSize = 256

// Loop runs posted tasks one at a time on a single goroutine. Every model
// mutation goes through it, so each task runs to completion before the
// next one starts.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	logger *slog.Logger
}

// NewLoop creates a loop. Run must be called to start processing.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		tasks:  make(chan func(), loopQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues fn. It reports false when the loop has stopped.
// Tasks running on the loop must not Post into a full queue.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for its result.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("task panicked: %v", r)
				panic(r)
			}
		}()
		result <- fn()
	}
	if !l.Post(task) {
		return ErrLoopStopped
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Run processes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			l.run(fn)
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// LoopScheduler fires timers on a Loop so callbacks are serialized with
// every other event.
type LoopScheduler struct {
	Loop *Loop
}

// AfterFunc schedules fn to be posted to the loop after d.
func (s LoopScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() { s.Loop.Post(fn) })
}

// Serialize returns an EventSink that posts every event to loop before
// handing it to sink.
func Serialize(loop *Loop, sink platform.EventSink) platform.EventSink {
	return &serialSink{loop: loop, sink: sink}
}

type serialSink struct {
	loop *Loop
	sink platform.EventSink
}

func (s *serialSink) MonitorAdded(m platform.MonitorInfo) {
	s.loop.Post(func() { s.sink.MonitorAdded(m) })
}

func (s *serialSink) MonitorUpdated(m platform.MonitorInfo) {
	s.loop.Post(func() { s.sink.MonitorUpdated(m) })
}

func (s *serialSink) MonitorRemoved(id platform.MonitorID) {
	s.loop.Post(func() { s.sink.MonitorRemoved(id) })
}

func (s *serialSink) WindowAdded(w platform.WindowInfo) {
	s.loop.Post(func() { s.sink.WindowAdded(w) })
}

func (s *serialSink) WindowUpdated(w platform.WindowInfo) {
	s.loop.Post(func() { s.sink.WindowUpdated(w) })
}

func (s *serialSink) WindowRemoved(id platform.WindowID) {
	s.loop.Post(func() { s.sink.WindowRemoved(id) })
}

func (s *serialSink) Fullscreen(id platform.WindowID, on bool) {
	s.loop.Post(func() { s.sink.Fullscreen(id, on) })
}

func (s *serialSink) ConfigureRequest(req platform.ConfigureRequest) {
	s.loop.Post(func() { s.sink.ConfigureRequest(req) })
}

func (s *serialSink) MouseDown(ev platform.ButtonEvent) {
	s.loop.Post(func() { s.sink.MouseDown(ev) })
}

func (s *serialSink) MouseDrag(ev platform.DragEvent) {
	s.loop.Post(func() { s.sink.MouseDrag(ev) })
}

func (s *serialSink) EnterNotify(ev platform.CrossingEvent) {
	s.loop.Post(func() { s.sink.EnterNotify(ev) })
}

func (s *serialSink) FocusIn(ev platform.FocusEvent) {
	s.loop.Post(func() { s.sink.FocusIn(ev) })
}

func (s *serialSink) FocusOut(ev platform.FocusEvent) {
	s.loop.Post(func() { s.sink.FocusOut(ev) })
}

func (s *serialSink) KeyPress(ev platform.KeyEvent) {
	s.loop.Post(func() { s.sink.KeyPress(ev) })
}

func (s *serialSink) Rearrange() {
	s.loop.Post(s.sink.Rearrange)
}

func (s *serialSink) ControlAction(action string) {
	s.loop.Post(func() { s.sink.ControlAction(action) })
}
