package x11

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// ClientEventMask is selected on every managed window.
const ClientEventMask = xproto.EventMaskEnterWindow |
	xproto.EventMaskFocusChange |
	xproto.EventMaskPropertyChange |
	xproto.EventMaskStructureNotify

// Geometry is a window position and size in root coordinates.
type Geometry struct {
	X, Y, Width, Height int
}

// MoveWindow moves a window without resizing it.
func (c *Connection) MoveWindow(win xproto.Window, x, y int) {
	xproto.ConfigureWindow(c.XUtil.Conn(), win,
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{coord(x), coord(y)})
}

// ResizeWindow resizes a window without moving it. Sizes below one pixel
// are raised to one.
func (c *Connection) ResizeWindow(win xproto.Window, width, height int) {
	xproto.ConfigureWindow(c.XUtil.Conn(), win,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{size(width), size(height)})
}

// SetBorderWidth sets the border width of a window.
func (c *Connection) SetBorderWidth(win xproto.Window, width int) {
	xproto.ConfigureWindow(c.XUtil.Conn(), win,
		xproto.ConfigWindowBorderWidth, []uint32{uint32(width)})
}

// Configure issues a ConfigureWindow carrying exactly the fields selected
// by mask, in the order the protocol requires.
func (c *Connection) Configure(win xproto.Window, mask uint16, g Geometry, border int, sibling xproto.Window, stackMode byte) {
	var vals []uint32
	if mask&xproto.ConfigWindowX != 0 {
		vals = append(vals, coord(g.X))
	}
	if mask&xproto.ConfigWindowY != 0 {
		vals = append(vals, coord(g.Y))
	}
	if mask&xproto.ConfigWindowWidth != 0 {
		vals = append(vals, size(g.Width))
	}
	if mask&xproto.ConfigWindowHeight != 0 {
		vals = append(vals, size(g.Height))
	}
	if mask&xproto.ConfigWindowBorderWidth != 0 {
		vals = append(vals, uint32(border))
	}
	if mask&xproto.ConfigWindowSibling != 0 {
		vals = append(vals, uint32(sibling))
	}
	if mask&xproto.ConfigWindowStackMode != 0 {
		vals = append(vals, uint32(stackMode))
	}
	xproto.ConfigureWindow(c.XUtil.Conn(), win, mask, vals)
}

// SendStructureNotify tells a client its current geometry, as required
// when a configure request is answered without changing anything.
func (c *Connection) SendStructureNotify(win xproto.Window, g Geometry, border int) error {
	ev := xproto.ConfigureNotifyEvent{
		Event:       win,
		Window:      win,
		X:           int16(g.X),
		Y:           int16(g.Y),
		Width:       uint16(size(g.Width)),
		Height:      uint16(size(g.Height)),
		BorderWidth: uint16(border),
	}
	return xproto.SendEventChecked(c.XUtil.Conn(), false, win,
		xproto.EventMaskStructureNotify, string(ev.Bytes())).Check()
}

// MapWindow maps a window.
func (c *Connection) MapWindow(win xproto.Window) {
	xproto.MapWindow(c.XUtil.Conn(), win)
}

// FocusWindow gives a window the input focus and publishes it as the
// active window.
func (c *Connection) FocusWindow(win xproto.Window) error {
	err := xproto.SetInputFocusChecked(c.XUtil.Conn(), xproto.InputFocusPointerRoot,
		win, xproto.TimeCurrentTime).Check()
	if err != nil {
		return fmt.Errorf("set input focus: %w", err)
	}
	return ewmh.ActiveWindowSet(c.XUtil, win)
}

// CloseWindow asks a window to close via WM_DELETE_WINDOW and kills its
// client when it does not take part in that protocol.
func (c *Connection) CloseWindow(win xproto.Window) error {
	protocols, err := icccm.WmProtocolsGet(c.XUtil, win)
	if err != nil || !slices.Contains(protocols, "WM_DELETE_WINDOW") {
		return xproto.KillClientChecked(c.XUtil.Conn(), uint32(win)).Check()
	}

	deleteAtom, err := c.Atom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	protocolsAtom, err := c.Atom("WM_PROTOCOLS")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   protocolsAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		win,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

// SetBorderColor sets the border pixel of a window.
func (c *Connection) SetBorderColor(win xproto.Window, color uint32) error {
	return xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), win,
		xproto.CwBorderPixel, []uint32{color}).Check()
}

// WindowGeometry returns the geometry of a window relative to its parent.
func (c *Connection) WindowGeometry(win xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{
		X:      int(geom.X),
		Y:      int(geom.Y),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// WindowTitle returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) WindowTitle(win xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, win)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, win)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// WindowClass returns the WM_CLASS instance and class names.
func (c *Connection) WindowClass(win xproto.Window) (instance, class string) {
	wmClass, err := icccm.WmClassGet(c.XUtil, win)
	if err != nil {
		return "", ""
	}
	return strings.TrimSpace(wmClass.Instance), strings.TrimSpace(wmClass.Class)
}

// IsFloating reports whether a window should be kept out of layouts:
// transients, dialogs and other auxiliary types, and windows whose size
// hints pin them to a single size.
func (c *Connection) IsFloating(win xproto.Window) bool {
	if parent, err := icccm.WmTransientForGet(c.XUtil, win); err == nil && parent != 0 {
		return true
	}
	if types, err := ewmh.WmWindowTypeGet(c.XUtil, win); err == nil {
		for _, t := range types {
			switch t {
			case "_NET_WM_WINDOW_TYPE_DIALOG",
				"_NET_WM_WINDOW_TYPE_UTILITY",
				"_NET_WM_WINDOW_TYPE_TOOLBAR",
				"_NET_WM_WINDOW_TYPE_MENU",
				"_NET_WM_WINDOW_TYPE_SPLASH":
				return true
			}
		}
	}
	hints, err := icccm.WmNormalHintsGet(c.XUtil, win)
	if err != nil {
		return false
	}
	fixed := icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize
	return hints.Flags&uint(fixed) == uint(fixed) &&
		hints.MinWidth > 0 && hints.MinHeight > 0 &&
		hints.MinWidth == hints.MaxWidth && hints.MinHeight == hints.MaxHeight
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		// Desktops, docks and popups are mapped but never managed.
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	return true
}

// IsOverrideRedirect reports whether a window bypasses the window manager.
// Windows that no longer exist report true.
func (c *Connection) IsOverrideRedirect(win xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	if err != nil {
		return true
	}
	return attrs.OverrideRedirect
}

// ViewableChildren returns the mapped top-level windows that do not bypass
// the window manager, in stacking order.
func (c *Connection) ViewableChildren() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("query tree: %w", err)
	}
	var out []xproto.Window
	for _, win := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
		if err != nil || attrs.OverrideRedirect || attrs.MapState != xproto.MapStateViewable {
			continue
		}
		out = append(out, win)
	}
	return out, nil
}

// IsFullscreen reports whether _NET_WM_STATE carries the fullscreen atom.
func (c *Connection) IsFullscreen(win xproto.Window) bool {
	states, err := ewmh.WmStateGet(c.XUtil, win)
	if err != nil {
		return false
	}
	return slices.Contains(states, "_NET_WM_STATE_FULLSCREEN")
}

// SetFullscreen records the fullscreen state in _NET_WM_STATE.
func (c *Connection) SetFullscreen(win xproto.Window, on bool) error {
	states, _ := ewmh.WmStateGet(c.XUtil, win)
	states = slices.DeleteFunc(states, func(s string) bool { return s == "_NET_WM_STATE_FULLSCREEN" })
	if on {
		states = append(states, "_NET_WM_STATE_FULLSCREEN")
	}
	return ewmh.WmStateSet(c.XUtil, win, states)
}

// coord encodes a signed coordinate as a ConfigureWindow value.
func coord(v int) uint32 {
	return uint32(int32(v))
}

func size(v int) uint32 {
	if v < 1 {
		return 1
	}
	return uint32(v)
}
