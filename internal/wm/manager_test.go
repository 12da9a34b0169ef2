package wm_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/nwm/internal/eventbus"
	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/wm"
	"github.com/1broseidon/nwm/internal/wm/wmtest"
)

type harness struct {
	mgr       *wm.Manager
	backend   *wmtest.Backend
	arranged  []int
	arrangeOn map[string]int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{backend: wmtest.NewBackend(), arrangeOn: make(map[string]int)}
	h.mgr = wm.New(h.backend, wm.Options{})
	for _, name := range []string{"tile", "monocle", "lever"} {
		name := name
		h.mgr.AddLayout(name, func(ws *wm.Workspace) {
			h.arranged = append(h.arranged, ws.ID)
			h.arrangeOn[name]++
		})
	}
	return h
}

func (h *harness) addMonitor(id platform.MonitorID, x, y, w, ht int) {
	h.mgr.MonitorAdded(platform.MonitorInfo{ID: id, X: x, Y: y, Width: w, Height: ht})
}

func (h *harness) addWindow(id platform.WindowID) *wm.Window {
	h.mgr.WindowAdded(platform.WindowInfo{ID: id, X: 5, Y: 5, Width: 100, Height: 100, Title: "term"})
	w, _ := h.mgr.Windows.Lookup(id)
	return w
}

func ids(windows []*wm.Window) []platform.WindowID {
	out := make([]platform.WindowID, 0, len(windows))
	for _, w := range windows {
		out = append(out, w.ID)
	}
	return out
}

func TestHideShowRestoresPosition(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addMonitor(1, 1000, 0, 800, 600)
	w := h.addWindow(1)
	h.backend.Reset()

	w.Hide()
	w.Hide()
	require.False(t, w.Visible)
	w.Show()
	w.Show()

	want := []wmtest.Call{
		{Op: "move", ID: 1, X: 5 + 2*1800, Y: 5},
		{Op: "move", ID: 1, X: 5, Y: 5},
	}
	if diff := cmp.Diff(want, h.backend.Calls()); diff != "" {
		t.Fatalf("backend calls mismatch (-want +got):\n%s", diff)
	}
	require.True(t, w.Visible)
	require.Equal(t, 5, w.X)
	require.Equal(t, 5, w.Y)
}

func TestMoveAlwaysReachesBackend(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	w := h.addWindow(1)
	h.backend.Reset()

	w.Move(5, 5)
	w.Move(5, 5)
	w.Resize(100, 100)

	require.Len(t, h.backend.CallsFor(1, "move"), 2)
	require.Len(t, h.backend.CallsFor(1, "resize"), 1)
}

func TestSetMonitorPublishesOnlyOnChange(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addMonitor(1, 1000, 0, 1000, 800)
	w := h.addWindow(1)

	var changes []wm.MonitorChange
	eventbus.On(h.mgr.Bus(), wm.TopicWindowMonitorChanged, func(c wm.MonitorChange) {
		changes = append(changes, c)
	})

	w.SetMonitor(0)
	w.SetMonitor(1)
	w.SetMonitor(1)

	require.Equal(t, []wm.MonitorChange{{Window: 1, From: 0, To: 1}}, changes)
	mon1, _ := h.mgr.Monitors.Lookup(1)
	require.Equal(t, mon1.CurrentID(), w.Workspace)
	require.Equal(t, []platform.WindowID{1}, ids(mon1.CurrentWorkspace().Windows()))
}

func TestWindowAddedUsesCurrentMonitor(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addMonitor(1, 1000, 0, 1000, 800)

	h.mgr.WindowAdded(platform.WindowInfo{ID: 1, X: 5000, Y: 10, Width: 100, Height: 100, Monitor: 1, Workspace: 7})
	w, ok := h.mgr.Windows.Lookup(1)
	require.True(t, ok)

	require.Equal(t, platform.MonitorID(0), w.Monitor())
	require.Equal(t, wm.FirstWorkspace, w.Workspace)
	require.Equal(t, 1, w.X, "off-screen windows are pulled back")
	require.Equal(t, 1, w.Y)

	mon, _ := h.mgr.CurrentMonitor()
	require.Equal(t, platform.WindowID(1), mon.FocusedWindow)
	require.Equal(t, platform.WindowID(1), mon.CurrentWorkspace().MainWindow())
	require.NotEmpty(t, h.arranged, "adding a window rearranges its workspace")
}

func TestFloatingWindowsAreNotLaidOut(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)

	h.mgr.WindowAdded(platform.WindowInfo{ID: 9, Floating: true, Title: "dialog"})

	require.False(t, h.mgr.Windows.Exists(9))
	require.True(t, h.mgr.IsFloater(9))
	mon, _ := h.mgr.CurrentMonitor()
	require.Zero(t, mon.FocusedWindow)

	h.mgr.WindowRemoved(9)
	require.False(t, h.mgr.IsFloater(9))
}

func TestMainWindowOnlyAssignedWhenMissing(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addWindow(1)
	h.addWindow(2)
	h.addWindow(3)

	ws, _ := h.mgr.CurrentWorkspace()
	require.Equal(t, platform.WindowID(1), ws.MainWindow())

	h.mgr.WindowRemoved(1)
	require.Equal(t, platform.WindowID(3), ws.MainWindow(), "falls back to the last window")
}

func TestSpecialWindowsExcludedFromWorkspace(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addWindow(1)
	h.mgr.WindowAdded(platform.WindowInfo{ID: 50, Title: "NWM Command Window"})
	h.addWindow(2)
	h.mgr.WindowUpdated(platform.WindowInfo{ID: 2, Title: "NWM Control Window"})

	require.Equal(t, platform.WindowID(50), h.mgr.CommandWindow())
	require.Equal(t, platform.WindowID(2), h.mgr.ControlWindow())
	ws, _ := h.mgr.CurrentWorkspace()
	require.Equal(t, []platform.WindowID{1}, ids(ws.Windows()))

	h.mgr.WindowRemoved(50)
	require.Zero(t, h.mgr.CommandWindow())
}

func TestWindowUpdatedMergesTitleAndClass(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.mgr.WindowAdded(platform.WindowInfo{ID: 1, Title: "old", Class: "XTerm"})

	var updates int
	h.mgr.Bus().Subscribe(h.mgr.Windows.TopicUpdated(), func(any) { updates++ })

	h.mgr.WindowUpdated(platform.WindowInfo{ID: 1, Title: "new"})
	h.mgr.WindowUpdated(platform.WindowInfo{ID: 77, Title: "ghost"})

	w, _ := h.mgr.Windows.Lookup(1)
	require.Equal(t, "new", w.Title)
	require.Equal(t, "XTerm", w.Class)
	require.Equal(t, 1, updates)
}

func TestGoSwitchesWorkspaceAndClearsFocus(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	a := h.addWindow(1)
	mon, _ := h.mgr.CurrentMonitor()
	require.Equal(t, platform.WindowID(1), mon.FocusedWindow)

	mon.Go(2)
	require.Equal(t, 2, mon.CurrentID())
	require.Zero(t, mon.FocusedWindow)
	require.False(t, a.Visible)

	b := h.addWindow(2)
	require.Equal(t, 2, b.Workspace)
	require.Equal(t, platform.WindowID(2), mon.FocusedWindow)

	mon.GoBack()
	require.Equal(t, wm.FirstWorkspace, mon.CurrentID())
	require.Equal(t, platform.WindowID(1), mon.FocusedWindow, "focus moves to the main window")
	require.False(t, b.Visible)
	require.NoError(t, h.mgr.CheckInvariants())
}

func TestWindowToMovesBetweenWorkspaces(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addWindow(1)
	w := h.addWindow(2)
	mon, _ := h.mgr.CurrentMonitor()
	mon.FocusedWindow = 2

	require.NoError(t, mon.WindowTo(2, 4))
	require.Equal(t, 4, w.Workspace)
	require.False(t, w.Visible)
	require.Equal(t, platform.WindowID(1), mon.FocusedWindow)
	require.Equal(t, platform.WindowID(2), mon.Workspace(4).MainWindow())

	err := mon.WindowTo(99, 3)
	require.True(t, errors.Is(err, wm.ErrNotFound))
	require.NoError(t, h.mgr.CheckInvariants())
}

func TestKeyPressFiresEveryMatch(t *testing.T) {
	h := newHarness(t)
	var fired []string
	combo := platform.KeyCombo{Keysym: 0x31, Modifier: 8}
	h.mgr.AddKey(combo, func(platform.KeyEvent) { fired = append(fired, "first") })
	h.mgr.AddKey(platform.KeyCombo{Keysym: 0x31, Modifier: 9}, func(platform.KeyEvent) { fired = append(fired, "shifted") })
	h.mgr.AddKey(combo, func(platform.KeyEvent) { fired = append(fired, "second") })

	h.mgr.KeyPress(platform.KeyEvent{Keysym: 0x31, Modifier: 8})
	require.Equal(t, []string{"first", "second"}, fired)

	require.NoError(t, h.mgr.Start())
	require.Equal(t, []platform.KeyCombo{combo, {Keysym: 0x31, Modifier: 9}}, h.backend.Grabs())
}

func TestNextLayoutWrapsInLexicalOrder(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		from string
		want string
	}{
		{"lever", "monocle"},
		{"monocle", "tile"},
		{"tile", "lever"},
		{"unknown", "lever"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, h.mgr.NextLayout(tt.from), "from %q", tt.from)
	}
}

func TestSetLayoutRejectsUnknownNames(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	ws, _ := h.mgr.CurrentWorkspace()
	h.mgr.SetDragHandler(func(*wm.Workspace, int, int, bool) {})

	err := ws.SetLayout("spiral")
	require.ErrorIs(t, err, wm.ErrInvalidArgument)
	require.Equal(t, "tile", ws.Layout)
	require.NotNil(t, h.mgr.DragHandler())

	require.NoError(t, ws.SetLayout("monocle"))
	require.Equal(t, "monocle", ws.Layout)
	require.Nil(t, h.mgr.DragHandler())
	require.Equal(t, 1, h.arrangeOn["monocle"])
}

func TestSetMainScaleClamps(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	ws, _ := h.mgr.CurrentWorkspace()
	require.InDelta(t, 0.5, ws.MainScale, 1e-9)

	ws.SetMainScale(2)
	require.InDelta(t, wm.MaxMainScale, ws.MainScale, 1e-9)
	ws.SetMainScale(-1)
	require.InDelta(t, wm.MinMainScale, ws.MainScale, 1e-9)
}

func TestMonitorRemovalReassignsWindows(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addMonitor(1, 1000, 0, 1000, 800)
	h.addWindow(1)
	h.addWindow(2)

	h.mgr.MonitorRemoved(0)

	require.False(t, h.mgr.Monitors.Exists(0))
	mon, ok := h.mgr.CurrentMonitor()
	require.True(t, ok)
	require.Equal(t, platform.MonitorID(1), mon.ID)
	require.Equal(t, []platform.WindowID{1, 2}, ids(mon.CurrentWorkspace().Windows()))
	require.NoError(t, h.mgr.CheckInvariants())
}

func TestFullscreenCoversMonitor(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	w := h.addWindow(1)

	h.mgr.Fullscreen(1, true)
	require.Equal(t, 0, w.X)
	require.Equal(t, 1000, w.Width)
	require.Equal(t, 800, w.Height)
	ws, _ := h.mgr.CurrentWorkspace()
	require.Equal(t, "monocle", ws.Layout)

	// A window whose monitor disappeared is skipped.
	w.SetMonitor(42)
	h.backend.Reset()
	h.mgr.Fullscreen(1, true)
	require.Empty(t, h.backend.Calls())
}

func TestConfigureRequestKeepsManagedGeometry(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addWindow(1)
	h.mgr.WindowAdded(platform.WindowInfo{ID: 2, Floating: true})
	h.backend.Reset()

	h.mgr.ConfigureRequest(platform.ConfigureRequest{ID: 1, X: 300, Y: 300, Width: 50, Height: 50})
	h.mgr.ConfigureRequest(platform.ConfigureRequest{ID: 2, X: 900, Y: 100, Width: 400, Height: 200})
	h.mgr.ConfigureRequest(platform.ConfigureRequest{ID: 3, X: 1, Y: 2, Width: 3, Height: 4})

	want := []wmtest.Call{
		{Op: "configure", ID: 1, X: 5, Y: 5, Width: 100, Height: 100},
		{Op: "configure", ID: 2, X: 300, Y: 100, Width: 400, Height: 200},
		{Op: "configure", ID: 3, X: 1, Y: 2, Width: 3, Height: 4},
	}
	if diff := cmp.Diff(want, h.backend.Calls()); diff != "" {
		t.Fatalf("configure calls mismatch (-want +got):\n%s", diff)
	}
}

func TestHiddenWindowStaysOffscreen(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addWindow(1)
	w := h.addWindow(2)
	w.Move(510, 10)
	w.Resize(980, 780)
	w.Hide()
	h.backend.Reset()

	h.mgr.ConfigureRequest(platform.ConfigureRequest{ID: 2, X: 0, Y: 0, Width: 300, Height: 200})
	w.Move(20, 30)

	want := []wmtest.Call{
		{Op: "configure", ID: 2, X: 510 + 2000, Y: 10, Width: 980, Height: 780},
		{Op: "move", ID: 2, X: 20 + 2000, Y: 30},
	}
	if diff := cmp.Diff(want, h.backend.Calls()); diff != "" {
		t.Fatalf("hidden window calls mismatch (-want +got):\n%s", diff)
	}
	require.False(t, w.Visible)

	h.mgr.Fullscreen(2, true)
	last, ok := h.backend.LastMove(2)
	require.True(t, ok)
	require.Equal(t, 2000, last.X)
	require.False(t, w.Visible)

	w.Show()
	last, _ = h.backend.LastMove(2)
	require.Equal(t, 0, last.X)
	require.Equal(t, 0, last.Y)
	x, y := w.Position()
	require.Equal(t, [2]int{0, 0}, [2]int{x, y})
}

func TestSetFocusKeepsMainWindow(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addWindow(1)
	h.addWindow(2)
	ws, _ := h.mgr.CurrentWorkspace()
	mon, _ := h.mgr.CurrentMonitor()
	main := ws.MainWindow()
	h.arranged = nil
	h.backend.Reset()

	require.NoError(t, h.mgr.SetFocus(2))

	require.Equal(t, platform.WindowID(2), mon.FocusedWindow)
	require.Equal(t, main, ws.MainWindow())
	require.Empty(t, h.arranged)
	require.Len(t, h.backend.CallsFor(2, "focus"), 1)

	require.ErrorIs(t, h.mgr.SetFocus(404), wm.ErrNotFound)
	require.NoError(t, mon.WindowTo(1, 3))
	require.ErrorIs(t, h.mgr.SetFocus(1), wm.ErrInvalidArgument)
}

func TestRearrangeCoversEveryMonitor(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addMonitor(1, 1000, 0, 1000, 800)
	h.arranged = nil

	h.mgr.Rearrange()

	require.Len(t, h.arranged, 2)
}

func TestEnterNotifySelectsMonitorAndFocus(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addMonitor(1, 1000, 0, 1000, 800)
	h.addWindow(1)
	h.backend.Reset()

	h.mgr.EnterNotify(platform.CrossingEvent{ID: 1, RootX: 1500, RootY: 10})
	mon, _ := h.mgr.CurrentMonitor()
	require.Equal(t, platform.MonitorID(1), mon.ID)
	require.Len(t, h.backend.CallsFor(1, "focus"), 1)
	require.Len(t, h.backend.CallsFor(1, "attr"), 1)

	h.mgr.EnterNotify(platform.CrossingEvent{ID: 99, X: 20, Y: 20})
	mon, _ = h.mgr.CurrentMonitor()
	require.Equal(t, platform.MonitorID(0), mon.ID)
}

func TestFocusEventsHighlight(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addWindow(1)
	h.backend.Reset()
	opts := wm.DefaultOptions()

	h.mgr.FocusOut(platform.FocusEvent{ID: 1})
	mon, _ := h.mgr.CurrentMonitor()
	require.Zero(t, mon.FocusedWindow)
	h.mgr.FocusIn(platform.FocusEvent{ID: 1})
	require.Equal(t, platform.WindowID(1), mon.FocusedWindow)
	h.mgr.FocusIn(platform.FocusEvent{ID: 404})

	want := []wmtest.Call{
		{Op: "attr", ID: 1, Color: opts.NormalColor},
		{Op: "attr", ID: 1, Color: opts.ActiveColor},
	}
	if diff := cmp.Diff(want, h.backend.Calls()); diff != "" {
		t.Fatalf("highlight calls mismatch (-want +got):\n%s", diff)
	}
}

func TestMouseDragRoutesDelta(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.mgr.MouseDrag(platform.DragEvent{X: 1, MoveX: 5})

	var got []int
	var done bool
	h.mgr.SetDragHandler(func(_ *wm.Workspace, dx, dy int, d bool) {
		got = append(got, dx, dy)
		done = d
	})
	h.mgr.MouseDrag(platform.DragEvent{X: 100, Y: 50, MoveX: 130, MoveY: 40, Done: true})

	require.Equal(t, []int{30, -10}, got)
	require.True(t, done)
}

func TestFocusInvariantHoldsUnderRandomEvents(t *testing.T) {
	h := newHarness(t)
	h.addMonitor(0, 0, 0, 1000, 800)
	h.addMonitor(1, 1000, 0, 1000, 800)
	rng := rand.New(rand.NewSource(7))

	next := platform.WindowID(1)
	for i := 0; i < 500; i++ {
		switch rng.Intn(7) {
		case 0, 1:
			h.addWindow(next)
			next++
		case 2:
			h.mgr.WindowRemoved(platform.WindowID(rng.Intn(int(next)) + 1))
		case 3:
			h.mgr.FocusIn(platform.FocusEvent{ID: platform.WindowID(rng.Intn(int(next)) + 1)})
		case 4:
			h.mgr.FocusOut(platform.FocusEvent{ID: platform.WindowID(rng.Intn(int(next)) + 1)})
		case 5:
			mon, _ := h.mgr.CurrentMonitor()
			mon.Go(rng.Intn(3) + 1)
		case 6:
			h.mgr.EnterNotify(platform.CrossingEvent{
				ID:    platform.WindowID(rng.Intn(int(next)) + 1),
				RootX: rng.Intn(2000),
				RootY: rng.Intn(800),
			})
		}
		require.NoError(t, h.mgr.CheckInvariants(), "step %d", i)
	}
}
