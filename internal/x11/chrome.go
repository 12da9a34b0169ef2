package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	stripBackground = 0x303030
	closeButtonFill = 0xb04040
	// CloseButtonSize is the side of the control strip's close button.
	CloseButtonSize = 20
)

// Chrome owns a second connection to the display. Windows created on it
// are mapped through the window manager like any other client's.
type Chrome struct {
	conn     *Connection
	onAction func(action string)
}

// NewChrome connects to the display. onAction receives "close" when the
// control strip's close button is clicked.
func NewChrome(onAction func(action string)) (*Chrome, error) {
	conn, err := NewConnection()
	if err != nil {
		return nil, fmt.Errorf("chrome connection: %w", err)
	}
	return &Chrome{conn: conn, onAction: onAction}, nil
}

// Run processes the chrome connection's events until Close.
func (ch *Chrome) Run() {
	ch.conn.EventLoop()
}

// Close stops Run and disconnects.
func (ch *Chrome) Close() {
	ch.conn.Close()
}

// CloseButtonRect returns the close button's rectangle for a strip of the
// given width, relative to the strip.
func CloseButtonRect(width int) xproto.Rectangle {
	return xproto.Rectangle{
		X:      int16(width/2 - CloseButtonSize/2),
		Y:      0,
		Width:  CloseButtonSize,
		Height: CloseButtonSize,
	}
}

// CreateControlStrip creates and maps the strip holding the close button.
func (ch *Chrome) CreateControlStrip(title string, g Geometry) (xproto.Window, error) {
	xu := ch.conn.XUtil
	win, err := ch.create(title, g, xproto.EventMaskExposure|xproto.EventMaskButtonPress)
	if err != nil {
		return 0, err
	}

	gc, err := xproto.NewGcontextId(xu.Conn())
	if err != nil {
		return 0, fmt.Errorf("allocate gc: %w", err)
	}
	xproto.CreateGC(xu.Conn(), gc, xproto.Drawable(win.Id), xproto.GcForeground, []uint32{closeButtonFill})

	xevent.ExposeFun(func(xu *xgbutil.XUtil, ev xevent.ExposeEvent) {
		if ev.Count != 0 {
			return
		}
		geom, err := win.Geometry()
		if err != nil {
			return
		}
		xproto.PolyFillRectangle(xu.Conn(), xproto.Drawable(win.Id), gc,
			[]xproto.Rectangle{CloseButtonRect(geom.Width())})
	}).Connect(xu, win.Id)

	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		geom, err := win.Geometry()
		if err != nil {
			return
		}
		r := CloseButtonRect(geom.Width())
		x, y := int(ev.EventX), int(ev.EventY)
		if x >= int(r.X) && x < int(r.X)+int(r.Width) && y >= int(r.Y) && y < int(r.Y)+int(r.Height) {
			ch.onAction("close")
		}
	}).Connect(xu, win.Id)

	win.Map()
	return win.Id, nil
}

// CreateCommandWindow creates and maps an empty window a terminal can be
// embedded into.
func (ch *Chrome) CreateCommandWindow(title string, g Geometry) (xproto.Window, error) {
	win, err := ch.create(title, g, xproto.EventMaskStructureNotify)
	if err != nil {
		return 0, err
	}
	win.Map()
	return win.Id, nil
}

func (ch *Chrome) create(title string, g Geometry, events int) (*xwindow.Window, error) {
	xu := ch.conn.XUtil
	win, err := xwindow.Generate(xu)
	if err != nil {
		return nil, fmt.Errorf("allocate window: %w", err)
	}
	err = win.CreateChecked(xu.RootWin(), g.X, g.Y, int(size(g.Width)), int(size(g.Height)),
		xproto.CwBackPixel|xproto.CwEventMask, stripBackground, uint32(events))
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", title, err)
	}
	if err := icccm.WmNameSet(xu, win.Id, title); err != nil {
		return nil, fmt.Errorf("set WM_NAME: %w", err)
	}
	if err := ewmh.WmNameSet(xu, win.Id, title); err != nil {
		return nil, fmt.Errorf("set _NET_WM_NAME: %w", err)
	}
	return win, nil
}
