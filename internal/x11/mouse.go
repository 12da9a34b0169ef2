package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// DragFunc receives the previous and current root pointer position of a
// drag. done is set on button release.
type DragFunc func(prevX, prevY, x, y int, done bool)

// OnDrag grabs button (for example "Mod1-1") on the root window and reports
// every step of the resulting drags.
func (c *Connection) OnDrag(button string, fn DragFunc) {
	var lastX, lastY int
	begin := func(_ *xgbutil.XUtil, rootX, rootY, _, _ int) (bool, xproto.Cursor) {
		lastX, lastY = rootX, rootY
		return true, 0
	}
	step := func(_ *xgbutil.XUtil, rootX, rootY, _, _ int) {
		fn(lastX, lastY, rootX, rootY, false)
		lastX, lastY = rootX, rootY
	}
	end := func(_ *xgbutil.XUtil, rootX, rootY, _, _ int) {
		fn(lastX, lastY, rootX, rootY, true)
	}
	mousebind.Drag(c.XUtil, c.Root, c.Root, button, true, begin, step, end)
}

// ClickToFocus grabs the first button on win synchronously, calls fn on
// every press and then replays the press to the client.
func (c *Connection) ClickToFocus(win xproto.Window, fn func()) error {
	return mousebind.ButtonPressFun(func(xu *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		fn()
		xproto.AllowEvents(xu.Conn(), xproto.AllowReplayPointer, ev.Time)
	}).Connect(c.XUtil, win, "1", true, true)
}
