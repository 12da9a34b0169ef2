package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// MonitorID identifies a physical display.
type MonitorID int

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// MonitorInfo is the payload of monitor notifications.
type MonitorInfo struct {
	ID     MonitorID
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// Bounds returns the monitor geometry.
func (m MonitorInfo) Bounds() Rect {
	return Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// WindowInfo is the payload of window notifications.
type WindowInfo struct {
	ID        WindowID
	X         int
	Y         int
	Width     int
	Height    int
	Title     string
	Class     string
	Instance  string
	Floating  bool
	Monitor   MonitorID
	Workspace int
}

// ConfigureRequest mirrors an X ConfigureRequest sent by a client.
type ConfigureRequest struct {
	ID          WindowID
	X           int
	Y           int
	Width       int
	Height      int
	BorderWidth int
	Above       WindowID
	Detail      uint8
	ValueMask   uint16
}

// ButtonEvent reports a pointer click on a window.
type ButtonEvent struct {
	ID WindowID
}

// DragEvent reports pointer motion while a drag is in progress. MoveX and
// MoveY are the current pointer position, X and Y the previous one, so
// MoveX-X is the motion since the last event.
type DragEvent struct {
	ID    WindowID
	X     int
	Y     int
	MoveX int
	MoveY int
	Done  bool
}

// CrossingEvent reports the pointer entering a window.
type CrossingEvent struct {
	ID    WindowID
	X     int
	Y     int
	RootX int
	RootY int
}

// FocusEvent reports input focus moving to or from a window.
type FocusEvent struct {
	ID WindowID
}

// KeyCombo is a key symbol plus modifier mask.
type KeyCombo struct {
	Keysym   uint32
	Modifier uint16
}

// KeyEvent reports a grabbed key press.
type KeyEvent struct {
	Keysym   uint32
	Modifier uint16
}

// Backend abstracts the window-system commands the manager issues.
// Commands are fire-and-forget; errors are reported but never retried.
type Backend interface {
	MoveWindow(id WindowID, x, y int) error
	ResizeWindow(id WindowID, width, height int) error
	FocusWindow(id WindowID) error
	KillWindow(id WindowID) error
	SetWindowAttr(id WindowID, color uint32) error
	ConfigureWindow(req ConfigureRequest) error
	GrabKeys(keys []KeyCombo) error
}

// EventSink receives window-system notifications, one method per kind.
type EventSink interface {
	MonitorAdded(m MonitorInfo)
	MonitorUpdated(m MonitorInfo)
	MonitorRemoved(id MonitorID)
	WindowAdded(w WindowInfo)
	WindowUpdated(w WindowInfo)
	WindowRemoved(id WindowID)
	Fullscreen(id WindowID, on bool)
	ConfigureRequest(req ConfigureRequest)
	MouseDown(ev ButtonEvent)
	MouseDrag(ev DragEvent)
	EnterNotify(ev CrossingEvent)
	FocusIn(ev FocusEvent)
	FocusOut(ev FocusEvent)
	KeyPress(ev KeyEvent)
	Rearrange()
	ControlAction(action string)
}

// KeyParser is implemented by backends that can translate key sequences
// such as "Mod1-Shift-Return" into key combinations.
type KeyParser interface {
	ParseKey(sequence string) ([]KeyCombo, error)
}

// ChromeProvider is implemented by backends that can create the lever
// layout's control strip and command window.
type ChromeProvider interface {
	CreateControlStrip(title string, bounds Rect) (WindowID, error)
	CreateCommandWindow(title string, bounds Rect) (WindowID, error)
}

// WindowLister is implemented by backends that can enumerate the live
// top-level windows.
type WindowLister interface {
	ListWindows() ([]WindowID, error)
}
