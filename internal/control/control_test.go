package control

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/nwm/internal/layout"
	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/wm"
	"github.com/1broseidon/nwm/internal/wm/wmtest"
)

type fixture struct {
	mgr     *wm.Manager
	backend *wmtest.Backend
	svc     *Service
}

func newFixture(t *testing.T, ids ...platform.WindowID) *fixture {
	t.Helper()
	f := &fixture{backend: wmtest.NewBackend()}
	f.mgr = wm.New(f.backend, wm.Options{})
	cfg := layout.DefaultLeverConfig()
	cfg.CreateChrome = false
	layout.Register(f.mgr, cfg)
	f.mgr.MonitorAdded(platform.MonitorInfo{ID: 0, Width: 1000, Height: 800})
	for _, id := range ids {
		f.mgr.WindowAdded(platform.WindowInfo{ID: id, Width: 100, Height: 100, Title: "w"})
	}
	f.svc = New(f.mgr, nil)
	return f
}

func TestWindowIDsStartAtFocused(t *testing.T) {
	f := newFixture(t, 10, 20, 30)
	mon, _ := f.mgr.CurrentMonitor()
	mon.FocusedWindow = 20

	got, err := f.svc.WindowIDs(context.Background())

	require.NoError(t, err)
	require.Equal(t, []uint32{20, 30, 10}, got)
}

func TestFocusedFlagFollowsMonitorFocus(t *testing.T) {
	f := newFixture(t, 10, 20)
	ctx := context.Background()

	require.NoError(t, f.svc.Focus(ctx, "20"))
	focused, err := f.svc.Window(ctx, "20")
	require.NoError(t, err)
	require.True(t, focused.Focused)
	previous, err := f.svc.Window(ctx, "10")
	require.NoError(t, err)
	require.False(t, previous.Focused)
}

func TestWindowIDsEmpty(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.WindowIDs(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestWindowInfo(t *testing.T) {
	f := newFixture(t, 10, 20)
	ctx := context.Background()

	info, err := f.svc.Window(ctx, "20")
	require.NoError(t, err)
	require.Equal(t, uint32(20), info.ID)
	require.False(t, info.Focused)

	current, err := f.svc.Window(ctx, "current")
	require.NoError(t, err)
	require.Equal(t, uint32(10), current.ID)
	require.True(t, current.Main)

	hex, err := f.svc.Window(ctx, "0x14")
	require.NoError(t, err)
	require.Equal(t, uint32(20), hex.ID)

	_, err = f.svc.Window(ctx, "99")
	require.ErrorIs(t, err, wm.ErrNotFound)
}

func TestFocusedIDWithoutWindows(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.FocusedID(context.Background())
	require.ErrorIs(t, err, wm.ErrNotFound)
}

func TestFocusMakesWindowMain(t *testing.T) {
	f := newFixture(t, 10, 20)
	ctx := context.Background()

	require.NoError(t, f.svc.Focus(ctx, "20"))

	id, err := f.svc.FocusedID(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(20), id)
	ws, _ := f.mgr.CurrentWorkspace()
	require.Equal(t, platform.WindowID(20), ws.MainWindow())
	require.ErrorIs(t, f.svc.Focus(ctx, "5"), wm.ErrNotFound)
}

func TestCloseKillsWindow(t *testing.T) {
	f := newFixture(t, 10, 20)
	ctx := context.Background()

	require.NoError(t, f.svc.Close(ctx, ""))
	require.NoError(t, f.svc.Close(ctx, "20"))
	require.ErrorIs(t, f.svc.Close(ctx, "30"), wm.ErrNotFound)

	var killed []platform.WindowID
	for _, c := range f.backend.Calls() {
		if c.Op == "kill" {
			killed = append(killed, c.ID)
		}
	}
	require.Equal(t, []platform.WindowID{10, 20}, killed)
}

func TestSetTitle(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	require.NoError(t, f.svc.SetTitle(ctx, "10", "editor"))
	w, _ := f.mgr.Windows.Lookup(10)
	require.Equal(t, "editor", w.Title)

	require.ErrorIs(t, f.svc.SetTitle(ctx, "10", " "), wm.ErrInvalidArgument)
	require.ErrorIs(t, f.svc.SetTitle(ctx, "11", "x"), wm.ErrNotFound)
}

func TestSetLayout(t *testing.T) {
	f := newFixture(t, 10, 20)
	ctx := context.Background()
	ws, _ := f.mgr.CurrentWorkspace()
	ws.NUp = 2

	require.NoError(t, f.svc.SetLayout(ctx, "monocle"))
	require.Equal(t, "monocle", ws.Layout)

	require.NoError(t, f.svc.SetLayout(ctx, "lever"))
	require.Equal(t, 1, ws.NUp)
	require.NotNil(t, f.mgr.DragHandler())

	err := f.svc.SetLayout(ctx, "tiel")
	require.ErrorIs(t, err, wm.ErrInvalidArgument)
	require.Contains(t, err.Error(), `did you mean "tile"`)
	require.Equal(t, "lever", ws.Layout)
}

func TestRotate(t *testing.T) {
	f := newFixture(t, 10, 20, 30)
	ctx := context.Background()
	ws, _ := f.mgr.CurrentWorkspace()

	require.NoError(t, f.svc.Rotate(ctx, "f"))
	require.Equal(t, platform.WindowID(20), ws.MainWindow())
	require.NoError(t, f.svc.Rotate(ctx, "b"))
	require.NoError(t, f.svc.Rotate(ctx, "b"))
	require.Equal(t, platform.WindowID(30), ws.MainWindow())

	require.ErrorIs(t, f.svc.Rotate(ctx, "up"), wm.ErrInvalidArgument)
}

func TestRotateEmptyWorkspace(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.svc.Rotate(context.Background(), "f"), wm.ErrNotFound)
}

func TestSetLeverMode(t *testing.T) {
	f := newFixture(t, 10, 20, 30)
	ctx := context.Background()
	ws, _ := f.mgr.CurrentWorkspace()

	require.ErrorIs(t, f.svc.SetLeverMode(ctx, "2"), wm.ErrInvalidArgument)
	require.Equal(t, 1, ws.NUp)

	require.NoError(t, f.svc.SetLayout(ctx, "lever"))
	require.NoError(t, f.svc.SetLeverMode(ctx, "2"))
	require.Equal(t, 2, ws.NUp)

	w10, _ := f.mgr.Windows.Lookup(10)
	w20, _ := f.mgr.Windows.Lookup(20)
	require.True(t, w10.Visible)
	require.True(t, w20.Visible)
	require.Equal(t, 490, w10.Width)

	require.ErrorIs(t, f.svc.SetLeverMode(ctx, "3"), wm.ErrInvalidArgument)
	require.Equal(t, 2, ws.NUp)
}

func TestLayoutsAndStatus(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	layouts, err := f.svc.Layouts(ctx)
	require.NoError(t, err)
	want := LayoutsInfo{Layouts: []string{"lever", "monocle", "tile"}, Current: "tile"}
	if diff := cmp.Diff(want, layouts); diff != "" {
		t.Fatalf("layouts mismatch (-want +got):\n%s", diff)
	}

	st, err := f.svc.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, st.Windows)
	require.Equal(t, "tile", st.Layout)
	require.Len(t, st.Monitors, 1)
	require.True(t, st.Monitors[0].Current)
	require.Equal(t, uint32(10), st.Monitors[0].Focused)
}

func TestServiceRunsOnLoop(t *testing.T) {
	f := newFixture(t, 10)
	loop := wm.NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	svc := New(f.mgr, loop)
	callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
	defer callCancel()

	ids, err := svc.WindowIDs(callCtx)
	require.NoError(t, err)
	require.Equal(t, []uint32{10}, ids)

	cancel()
	<-loop.Done()
	_, err = svc.WindowIDs(context.Background())
	require.ErrorIs(t, err, wm.ErrLoopStopped)
}

func TestSuggest(t *testing.T) {
	known := []string{"lever", "monocle", "tile"}
	require.Equal(t, "monocle", Suggest("monocel", known))
	require.Equal(t, "lever", Suggest("LEVER", known))
	require.Equal(t, "", Suggest("spiral", known))
}
