package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1broseidon/nwm/internal/control"
	"github.com/1broseidon/nwm/internal/layout"
	"github.com/1broseidon/nwm/internal/platform"
	"github.com/1broseidon/nwm/internal/wm"
	"github.com/1broseidon/nwm/internal/wm/wmtest"
)

type fixture struct {
	mgr     *wm.Manager
	backend *wmtest.Backend
	client  *Client
	socket  string
	actions []string
}

func newFixture(t *testing.T, ids ...platform.WindowID) *fixture {
	t.Helper()
	f := &fixture{backend: wmtest.NewBackend()}
	f.mgr = wm.New(f.backend, wm.Options{})
	cfg := layout.DefaultLeverConfig()
	cfg.CreateChrome = false
	layout.Register(f.mgr, cfg)
	f.mgr.MonitorAdded(platform.MonitorInfo{ID: 0, Width: 1000, Height: 800})
	for _, id := range ids {
		f.mgr.WindowAdded(platform.WindowInfo{ID: id, Width: 100, Height: 100, Title: "term"})
	}

	loop := wm.NewLoop(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	actions := func(ctx context.Context, action string) error {
		return loop.Call(ctx, func() error {
			if action != "next_layout" {
				return wm.ErrNotFound
			}
			f.actions = append(f.actions, action)
			return nil
		})
	}

	f.socket = filepath.Join(t.TempDir(), "nwm.sock")
	srv := NewServer(f.socket, control.New(f.mgr, loop), actions, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		srv.Stop()
		cancel()
		<-loop.Done()
	})
	f.client = NewClient(f.socket)
	return f
}

func TestClientListsWindows(t *testing.T) {
	f := newFixture(t, 10, 20)

	ids, err := f.client.WindowIDs()
	require.NoError(t, err)
	require.Equal(t, []uint32{10, 20}, ids)

	windows, err := f.client.Windows()
	require.NoError(t, err)
	require.Len(t, windows, 2)
	require.Equal(t, "term", windows[1].Title)

	id, err := f.client.FocusedID()
	require.NoError(t, err)
	require.Equal(t, uint32(10), id)

	info, err := f.client.Window("20")
	require.NoError(t, err)
	require.Equal(t, uint32(20), info.ID)
}

func TestClientMapsErrorCodesToSentinels(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.client.Window("99")
	require.ErrorIs(t, err, wm.ErrNotFound)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, CodeNotFound, remote.Code)

	err = f.client.SetLayout("tiel")
	require.ErrorIs(t, err, wm.ErrInvalidArgument)
	require.Contains(t, err.Error(), `did you mean "tile"`)

	err = f.client.Rotate("sideways")
	require.ErrorIs(t, err, wm.ErrInvalidArgument)

	err = f.client.SetLeverMode("2")
	require.ErrorIs(t, err, wm.ErrInvalidArgument)
}

func TestClientMutations(t *testing.T) {
	f := newFixture(t, 10, 20)

	require.NoError(t, f.client.SetTitle("20", "editor"))
	info, err := f.client.Window("20")
	require.NoError(t, err)
	require.Equal(t, "editor", info.Title)

	require.NoError(t, f.client.SetLayout("lever"))
	require.NoError(t, f.client.SetLeverMode("2"))
	layouts, err := f.client.Layouts()
	require.NoError(t, err)
	require.Equal(t, "lever", layouts.Current)
	require.ElementsMatch(t, []string{"lever", "monocle", "tile"}, layouts.Layouts)

	require.NoError(t, f.client.Rotate("f"))
	main, err := f.client.Window("20")
	require.NoError(t, err)
	require.True(t, main.Main)

	require.NoError(t, f.client.Close("10"))
	require.Len(t, f.backend.CallsFor(10, "kill"), 1)

	st, err := f.client.Status()
	require.NoError(t, err)
	require.Equal(t, 2, st.Windows)
	require.Equal(t, "lever", st.Layout)
}

func TestRunAction(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.client.RunAction("next_layout"))
	require.ErrorIs(t, f.client.RunAction("nope"), wm.ErrNotFound)
	require.Equal(t, []string{"next_layout"}, f.actions)
}

func TestServerRejectsMalformedRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		line string
		code string
	}{
		{name: "not json", line: "hello\n", code: CodeInvalidArgument},
		{name: "unknown command", line: `{"command":"REBOOT"}` + "\n", code: CodeInvalidArgument},
		{name: "bad payload", line: `{"command":"FOCUS","payload":[1]}` + "\n", code: CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := net.Dial("unix", f.socket)
			require.NoError(t, err)
			defer conn.Close()

			_, err = conn.Write([]byte(tt.line))
			require.NoError(t, err)
			line, err := bufio.NewReader(conn).ReadBytes('\n')
			require.NoError(t, err)

			var resp Response
			require.NoError(t, json.Unmarshal(line, &resp))
			require.Equal(t, StatusError, resp.Status)
			require.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, CodeNotFound, CodeOf(wm.ErrNotFound))
	require.Equal(t, CodeInconsistentState, CodeOf(wm.ErrInconsistentState))
	require.Equal(t, CodeInternal, CodeOf(context.DeadlineExceeded))
	require.Nil(t, (&RemoteError{Code: CodeInternal}).Unwrap())
}

func TestClientWithoutDaemon(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	_, err := c.Status()
	require.ErrorContains(t, err, "is the daemon running?")
}
