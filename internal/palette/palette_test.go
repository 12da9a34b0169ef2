package palette

import (
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1broseidon/nwm/internal/control"
)

type recorder struct {
	name  string
	args  []string
	stdin string
	reply string
	err   error
}

func (r *recorder) run(name string, args []string, stdin string) (string, error) {
	r.name, r.args, r.stdin = name, args, stdin
	return r.reply, r.err
}

func newTestBackend(kind backendKind, rec *recorder) *dmenuBackend {
	names := map[backendKind]string{kindRofi: "rofi", kindFuzzel: "fuzzel", kindWofi: "wofi", kindDmenu: "dmenu"}
	return &dmenuBackend{command: names[kind], kind: kind, run: rec.run}
}

var sample = []Item{
	{Label: "Windows", Header: true},
	{Label: "term", Value: "focus:10", Active: true},
	{Label: "term", Value: "focus:20"},
}

func TestRofiSelectsByIndex(t *testing.T) {
	rec := &recorder{reply: "2"}
	b := newTestBackend(kindRofi, rec)

	item, err := b.Show("nwm", sample)
	require.NoError(t, err)
	require.Equal(t, "focus:20", item.Value)

	require.Equal(t, "rofi", rec.name)
	require.Equal(t, []string{
		"-dmenu", "-i", "-format", "i", "-no-custom",
		"-p", "nwm", "-a", "1", "-selected-row", "1",
	}, rec.args)
	require.Equal(t, "── Windows ──\nterm\nterm", rec.stdin)
}

func TestDmenuDisambiguatesLabels(t *testing.T) {
	rec := &recorder{reply: "term (2)"}
	b := newTestBackend(kindDmenu, rec)

	item, err := b.Show("nwm", sample)
	require.NoError(t, err)
	require.Equal(t, "focus:20", item.Value)
	require.Equal(t, []string{"-i", "-p", "nwm"}, rec.args)
	require.Equal(t, "── Windows ──\nterm\nterm (2)", rec.stdin)
}

func TestFuzzelAndWofiArgs(t *testing.T) {
	rec := &recorder{reply: "1"}
	_, err := newTestBackend(kindFuzzel, rec).Show("go", sample)
	require.NoError(t, err)
	require.Equal(t, []string{"--dmenu", "--index", "--prompt", "go"}, rec.args)

	rec = &recorder{reply: "term"}
	_, err = newTestBackend(kindWofi, rec).Show("go", sample)
	require.NoError(t, err)
	require.Equal(t, []string{"--dmenu", "--prompt", "go"}, rec.args)
}

func TestShowCancellation(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{name: "empty output", reply: ""},
		{name: "launcher cancelled", err: ErrCancelled},
		{name: "header selected", reply: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBackend(kindRofi, &recorder{reply: tt.reply, err: tt.err})
			_, err := b.Show("nwm", sample)
			require.ErrorIs(t, err, ErrCancelled)
		})
	}
}

func TestShowErrors(t *testing.T) {
	b := newTestBackend(kindRofi, &recorder{reply: "7"})
	_, err := b.Show("nwm", sample)
	require.ErrorContains(t, err, "out of range")

	b = newTestBackend(kindDmenu, &recorder{reply: "typed"})
	_, err = b.Show("nwm", sample)
	require.ErrorContains(t, err, `unknown selection "typed"`)

	b = newTestBackend(kindDmenu, &recorder{err: errors.New("boom")})
	_, err = b.Show("nwm", sample)
	require.ErrorContains(t, err, "boom")

	_, err = b.Show("nwm", nil)
	require.ErrorContains(t, err, "no items")
}

func TestNewBackend(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(name string) (string, error) {
		if name == "wofi" || name == "dmenu" {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}

	name, err := DetectBackend()
	require.NoError(t, err)
	require.Equal(t, "wofi", name)

	b, err := NewBackend("auto")
	require.NoError(t, err)
	require.Equal(t, "wofi", b.(*dmenuBackend).command)

	b, err = NewBackend(" DMENU ")
	require.NoError(t, err)
	require.Equal(t, kindDmenu, b.(*dmenuBackend).kind)

	_, err = NewBackend("rofi")
	require.ErrorContains(t, err, "not found in PATH")

	_, err = NewBackend("bemenu")
	require.ErrorContains(t, err, "unknown palette backend")

	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	_, err = DetectBackend()
	require.ErrorContains(t, err, "no palette backend found")
}

func TestMenuItems(t *testing.T) {
	items := MenuItems(
		[]control.WindowInfo{
			{ID: 0x1a, Title: "term", Workspace: 1, Focused: true},
			{ID: 0x2b, Class: "Firefox", Workspace: 2},
		},
		control.LayoutsInfo{Layouts: []string{"lever", "tile"}, Current: "tile"},
		[]string{"next_layout"},
	)

	var labels, values []string
	for _, it := range items {
		labels = append(labels, it.Label)
		values = append(values, it.Value)
	}
	require.Equal(t, []string{
		"Windows", "term  [ws 1] 0x1a", "Firefox  [ws 2] 0x2b",
		"Layouts", "layout: lever", "layout: tile",
		"Actions", "next layout",
	}, labels)
	require.Equal(t, "focus:26,focus:43,layout:lever,layout:tile,action:next_layout",
		strings.Join(nonEmpty(values), ","))
	require.True(t, items[1].Active)
	require.True(t, items[5].Active)
	require.False(t, items[4].Active)
}

func TestParseChoice(t *testing.T) {
	kind, arg, err := ParseChoice("focus:26")
	require.NoError(t, err)
	require.Equal(t, ChoiceFocus, kind)
	require.Equal(t, "26", arg)

	kind, arg, err = ParseChoice("action:workspace_2")
	require.NoError(t, err)
	require.Equal(t, ChoiceAction, kind)
	require.Equal(t, "workspace_2", arg)

	for _, bad := range []string{"", "focus", "focus:", "reboot:now"} {
		_, _, err := ParseChoice(bad)
		require.Error(t, err, bad)
	}
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
