package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/wm"
)

// Runner serializes a call with every other model mutation.
type Runner interface {
	Call(ctx context.Context, fn func() error) error
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically drops windows whose destroy notification was
// lost and reports model inconsistencies.
type Reconciler struct {
	interval time.Duration
	mgr      *wm.Manager
	run      Runner
	lister   platform.WindowLister
	logger   *slog.Logger
}

// NewReconciler creates a reconciler. lister may be nil, in which case
// passes only check invariants.
func NewReconciler(cfg ReconcilerConfig, mgr *wm.Manager, run Runner, lister platform.WindowLister) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Reconciler{
		interval: interval,
		mgr:      mgr,
		run:      run,
		lister:   lister,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile(ctx context.Context) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	pruned, err := r.Reconcile(ctx)
	if err != nil {
		r.logger.Warn("reconciler pass failed", "error", err)
		return
	}
	if pruned > 0 {
		r.logger.Info("reconciler pruned stale windows", "count", pruned)
	}
}

// Reconcile runs one pass and returns the number of windows removed.
//
// Known windows are snapshotted before the backend is asked for the live
// ones, so a window added in between is never mistaken for a stale one.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	var known []platform.WindowID
	err := r.run.Call(ctx, func() error {
		known = append(r.mgr.Windows.Keys(), r.mgr.Floaters()...)
		return nil
	})
	if err != nil {
		return 0, err
	}

	var live map[platform.WindowID]bool
	if r.lister != nil && len(known) > 0 {
		ids, err := r.lister.ListWindows()
		if err != nil {
			return 0, fmt.Errorf("list windows: %w", err)
		}
		live = make(map[platform.WindowID]bool, len(ids))
		for _, id := range ids {
			live[id] = true
		}
	}

	pruned := 0
	err = r.run.Call(ctx, func() error {
		if live != nil {
			for _, id := range known {
				if live[id] || !(r.mgr.Windows.Exists(id) || r.mgr.IsFloater(id)) {
					continue
				}
				r.logger.Debug("reconciler: window no longer exists", "window", id)
				r.mgr.WindowRemoved(id)
				pruned++
			}
		}
		if err := r.mgr.CheckInvariants(); err != nil {
			r.logger.Warn("reconciler: model inconsistent", "error", err)
		}
		return nil
	})
	return pruned, err
}
