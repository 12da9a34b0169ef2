package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/1broseidon/nwm/internal/layout"
	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/wm"
	"github.com/1broseidon/nwm/internal/wm/wmtest"
)

type direct struct{}

func (direct) Call(_ context.Context, fn func() error) error { return fn() }

func newManager(t *testing.T, ids ...platform.WindowID) (*wm.Manager, *wmtest.Backend) {
	t.Helper()
	backend := wmtest.NewBackend()
	mgr := wm.New(backend, wm.Options{})
	cfg := layout.DefaultLeverConfig()
	cfg.CreateChrome = false
	layout.Register(mgr, cfg)
	mgr.MonitorAdded(platform.MonitorInfo{ID: 0, Width: 1000, Height: 800})
	for _, id := range ids {
		mgr.WindowAdded(platform.WindowInfo{ID: id, Width: 100, Height: 100})
	}
	return mgr, backend
}

func TestReconcilePrunesDeadWindows(t *testing.T) {
	mgr, backend := newManager(t, 10, 20, 30)
	mgr.WindowAdded(platform.WindowInfo{ID: 40, Floating: true})
	backend.Live = []platform.WindowID{20, 99}

	r := NewReconciler(ReconcilerConfig{}, mgr, direct{}, backend)
	pruned, err := r.Reconcile(context.Background())

	require.NoError(t, err)
	require.Equal(t, 3, pruned)
	require.Equal(t, []platform.WindowID{20}, mgr.Windows.Keys())
	require.Empty(t, mgr.Floaters())
	require.NoError(t, mgr.CheckInvariants())

	mon, _ := mgr.CurrentMonitor()
	require.Equal(t, platform.WindowID(20), mon.CurrentWorkspace().MainWindow())
}

func TestReconcileKeepsEverythingWhenAllAlive(t *testing.T) {
	mgr, backend := newManager(t, 10, 20)
	backend.Live = []platform.WindowID{10, 20}

	r := NewReconciler(ReconcilerConfig{}, mgr, direct{}, backend)
	pruned, err := r.Reconcile(context.Background())

	require.NoError(t, err)
	require.Zero(t, pruned)
	require.Equal(t, 2, mgr.Windows.Len())
}

func TestReconcileReportsListingErrors(t *testing.T) {
	mgr, backend := newManager(t, 10)
	backend.Err = errors.New("display gone")

	r := NewReconciler(ReconcilerConfig{}, mgr, direct{}, backend)
	_, err := r.Reconcile(context.Background())

	require.ErrorContains(t, err, "display gone")
	require.Equal(t, 1, mgr.Windows.Len())
}

func TestReconcileWithoutListerOnlyChecks(t *testing.T) {
	mgr, _ := newManager(t, 10)

	r := NewReconciler(ReconcilerConfig{}, mgr, direct{}, nil)
	pruned, err := r.Reconcile(context.Background())

	require.NoError(t, err)
	require.Zero(t, pruned)
	require.Equal(t, 1, mgr.Windows.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	mgr, backend := newManager(t, 10)
	backend.Live = nil

	loop := wm.NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	r := NewReconciler(ReconcilerConfig{Interval: 5 * time.Millisecond}, mgr, loop, backend)
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		var n int
		err := loop.Call(ctx, func() error {
			n = mgr.Windows.Len()
			return nil
		})
		return err == nil && n == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
