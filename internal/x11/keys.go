package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// modifierMask keeps only the keyboard modifier bits of an event state.
const modifierMask = xproto.ModMaskShift | xproto.ModMaskLock | xproto.ModMaskControl |
	xproto.ModMask1 | xproto.ModMask2 | xproto.ModMask3 | xproto.ModMask4 | xproto.ModMask5

// Key is a keysym plus modifier mask.
type Key struct {
	Keysym uint32
	Mods   uint16
}

// ParseKey translates a sequence such as "Mod1-Shift-Return" into one Key
// per keysym the named key produces.
func (c *Connection) ParseKey(sequence string) ([]Key, error) {
	mods, codes, err := keybind.ParseString(c.XUtil, sequence)
	if err != nil {
		return nil, err
	}
	var keys []Key
	seen := make(map[uint32]bool)
	for _, code := range codes {
		sym := uint32(keybind.KeysymGet(c.XUtil, code, 0))
		if sym == 0 || seen[sym] {
			continue
		}
		seen[sym] = true
		keys = append(keys, Key{Keysym: sym, Mods: mods})
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no keysym for %q", sequence)
	}
	return keys, nil
}

// GrabKeys replaces the root key grabs with one grab per keycode producing
// each key. Lock modifiers listed in xevent.IgnoreMods are grabbed too.
func (c *Connection) GrabKeys(keys []Key) {
	xproto.UngrabKey(c.XUtil.Conn(), xproto.GrabAny, c.Root, xproto.ModMaskAny)
	for _, k := range keys {
		for _, code := range c.keycodesFor(k.Keysym) {
			keybind.Grab(c.XUtil, c.Root, k.Mods, code)
		}
	}
}

// OnKeyPress calls fn with the keysym and cleaned modifiers of every key
// press delivered to the root window.
func (c *Connection) OnKeyPress(fn func(k Key)) {
	xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		sym := uint32(keybind.KeysymGet(xu, ev.Detail, 0))
		fn(Key{Keysym: sym, Mods: CleanMods(ev.State)})
	}).Connect(c.XUtil, c.Root)
}

// CleanMods strips pointer buttons and the ignored lock modifiers from an
// event state.
func CleanMods(state uint16) uint16 {
	mods := state & modifierMask
	for _, m := range xevent.IgnoreMods {
		mods &^= m
	}
	return mods
}

func (c *Connection) keycodesFor(sym uint32) []xproto.Keycode {
	setup := c.XUtil.Setup()
	var codes []xproto.Keycode
	for code := int(setup.MinKeycode); code <= int(setup.MaxKeycode); code++ {
		kc := xproto.Keycode(code)
		if uint32(keybind.KeysymGet(c.XUtil, kc, 0)) == sym {
			codes = append(codes, kc)
		}
	}
	return codes
}

// configureIgnoreMods grabs every combination of CapsLock, NumLock and
// ScrollLock so bindings fire regardless of lock state.
func configureIgnoreMods(xu *xgbutil.XUtil) {
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	ignore := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
