package layout

import "github.com/1broseidon/nwm/internal/wm"

// Register adds the tile, monocle and lever layouts to mgr and returns the
// lever layout so callers can inspect gesture state.
func Register(mgr *wm.Manager, cfg LeverConfig) *LeverLayout {
	mgr.AddLayout(Tile, TileLayout(cfg.Geometry))
	mgr.AddLayout(Monocle, MonocleLayout(cfg.Geometry))
	lever := NewLever(mgr, cfg)
	mgr.AddLayout(Lever, lever.Arrange)
	return lever
}
