package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/stretchr/testify/require"
)

func TestCleanModsDropsLocksAndButtons(t *testing.T) {
	saved := xevent.IgnoreMods
	t.Cleanup(func() { xevent.IgnoreMods = saved })
	numLock := uint16(xproto.ModMask2)
	xevent.IgnoreMods = []uint16{0, xproto.ModMaskLock, numLock, xproto.ModMaskLock | numLock}

	state := uint16(xproto.ModMask1|xproto.ModMaskShift|xproto.ModMaskLock) | numLock | xproto.KeyButMaskButton1

	require.Equal(t, uint16(xproto.ModMask1|xproto.ModMaskShift), CleanMods(state))
	require.Equal(t, uint16(0), CleanMods(xproto.ModMaskLock))
}

func TestCloseButtonIsCenteredAtTheTop(t *testing.T) {
	r := CloseButtonRect(1000)
	require.Equal(t, xproto.Rectangle{X: 490, Y: 0, Width: 20, Height: 20}, r)
}

func TestConfigureValueEncoding(t *testing.T) {
	require.Equal(t, uint32(0xfffffff6), coord(-10))
	require.Equal(t, uint32(25), coord(25))
	require.Equal(t, uint32(1), size(0))
	require.Equal(t, uint32(1), size(-4))
	require.Equal(t, uint32(640), size(640))
}
