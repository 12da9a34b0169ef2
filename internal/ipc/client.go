package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/nwm/internal/control"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the daemon listening on socketPath.
func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response. Daemon errors are
// returned as *RemoteError.
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == StatusError {
		return nil, &RemoteError{Code: resp.Code, Message: resp.Error}
	}

	return &resp, nil
}

// call sends cmd with payload and decodes the response data into out when
// out is not nil.
func (c *Client) call(cmd CommandType, payload, out interface{}) error {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return err
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// WindowIDs lists the managed windows starting at the focused one.
func (c *Client) WindowIDs() ([]uint32, error) {
	var ids []uint32
	err := c.call(CommandWindowIDs, nil, &ids)
	return ids, err
}

// Windows describes every managed window.
func (c *Client) Windows() ([]control.WindowInfo, error) {
	var windows []control.WindowInfo
	err := c.call(CommandWindows, nil, &windows)
	return windows, err
}

// FocusedID returns the focused window of the current monitor.
func (c *Client) FocusedID() (uint32, error) {
	var data WindowIDData
	err := c.call(CommandWindowID, nil, &data)
	return data.ID, err
}

// Window describes one window.
func (c *Client) Window(ref string) (control.WindowInfo, error) {
	var info control.WindowInfo
	err := c.call(CommandWindowInfo, WindowPayload{Window: ref}, &info)
	return info, err
}

// Focus focuses a window.
func (c *Client) Focus(ref string) error {
	return c.call(CommandFocus, WindowPayload{Window: ref}, nil)
}

// Close asks a window to close.
func (c *Client) Close(ref string) error {
	return c.call(CommandClose, WindowPayload{Window: ref}, nil)
}

// SetTitle renames a window.
func (c *Client) SetTitle(ref, title string) error {
	return c.call(CommandSetTitle, SetTitlePayload{Window: ref, Title: title}, nil)
}

// SetLayout switches the current workspace's layout.
func (c *Client) SetLayout(name string) error {
	return c.call(CommandSetLayout, LayoutPayload{Layout: name}, nil)
}

// Rotate moves the main window forward ("f") or back ("b").
func (c *Client) Rotate(dir string) error {
	return c.call(CommandRotate, RotatePayload{Direction: dir}, nil)
}

// SetLeverMode selects lever 1-up ("1") or 2-up ("2").
func (c *Client) SetLeverMode(mode string) error {
	return c.call(CommandSetLeverMode, LeverModePayload{Mode: mode}, nil)
}

// Layouts lists the registered layouts and the current one.
func (c *Client) Layouts() (control.LayoutsInfo, error) {
	var info control.LayoutsInfo
	err := c.call(CommandListLayouts, nil, &info)
	return info, err
}

// Status retrieves a daemon snapshot.
func (c *Client) Status() (control.Status, error) {
	var st control.Status
	err := c.call(CommandGetStatus, nil, &st)
	return st, err
}

// RunAction runs a key-binding action by name.
func (c *Client) RunAction(action string) error {
	return c.call(CommandRunAction, ActionPayload{Action: action}, nil)
}
