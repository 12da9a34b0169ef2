package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// ErrAnotherWM is returned by BecomeWM when the root window is already
// redirected by another client.
var ErrAnotherWM = errors.New("another window manager is running")

// rootEventMask is what a window manager selects on the root window.
const rootEventMask = xproto.EventMaskSubstructureRedirect |
	xproto.EventMaskSubstructureNotify |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskFocusChange |
	xproto.EventMaskPropertyChange

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	running chan struct{}
	stopped chan struct{}
}

// NewConnection connects to the display named by $DISPLAY and initializes
// the key and mouse binding state.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	keybind.Initialize(xu)
	mousebind.Initialize(xu)
	configureIgnoreMods(xu)

	return &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		running: make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// BecomeWM selects substructure redirection on the root window. Only one
// client may hold it, so failure means another window manager owns the
// display.
func (c *Connection) BecomeWM() error {
	err := xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), c.Root,
		xproto.CwEventMask, []uint32{rootEventMask}).Check()
	if err != nil {
		if _, ok := err.(xproto.AccessError); ok {
			return ErrAnotherWM
		}
		return fmt.Errorf("select root events: %w", err)
	}
	return nil
}

// Atom interns name.
func (c *Connection) Atom(name string) (xproto.Atom, error) {
	return xprop.Atm(c.XUtil, name)
}

// AtomName returns the name of atom, or "" when it cannot be resolved.
func (c *Connection) AtomName(atom xproto.Atom) string {
	name, err := xprop.AtomName(c.XUtil, atom)
	if err != nil {
		return ""
	}
	return name
}

// Listen selects the given events on win.
func (c *Connection) Listen(win xproto.Window, masks ...int) error {
	return xwindow.New(c.XUtil, win).Listen(masks...)
}

// Detach drops every event callback registered for win.
func (c *Connection) Detach(win xproto.Window) {
	xevent.Detach(c.XUtil, win)
	mousebind.Detach(c.XUtil, win)
}

// EventLoop starts the main X11 event loop (blocking). It must be called at
// most once.
func (c *Connection) EventLoop() {
	close(c.running)
	defer close(c.stopped)
	xevent.Main(c.XUtil)
}

// Quit stops EventLoop after the event being processed. An event is sent to
// the connection's own dummy window so a loop blocked in a read wakes up.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: c.XUtil.Dummy(),
		Data:   xproto.ClientMessageDataUnionData32New(make([]uint32, 5)),
	}
	xproto.SendEvent(c.XUtil.Conn(), false, c.XUtil.Dummy(), xproto.EventMaskNoEvent, string(ev.Bytes()))
	c.XUtil.Sync()
}

// Close cleanly disconnects from the X11 server. When EventLoop is running
// it is stopped first, since reading from a closed connection is fatal.
func (c *Connection) Close() {
	select {
	case <-c.running:
		c.Quit()
		<-c.stopped
	default:
	}
	c.XUtil.Conn().Close()
}
