package ipc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/1broseidon/nwm/internal/wm"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandWindowIDs    CommandType = "WINDOW_IDS"
	CommandWindows      CommandType = "WINDOWS"
	CommandWindowID     CommandType = "WINDOW_ID"
	CommandWindowInfo   CommandType = "WINDOW_INFO"
	CommandFocus        CommandType = "FOCUS"
	CommandClose        CommandType = "CLOSE"
	CommandSetTitle     CommandType = "SET_TITLE"
	CommandSetLayout    CommandType = "SET_LAYOUT"
	CommandRotate       CommandType = "ROTATE"
	CommandSetLeverMode CommandType = "SET_LEVER_MODE"
	CommandListLayouts  CommandType = "LIST_LAYOUTS"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandRunAction    CommandType = "RUN_ACTION"
)

// Response status values.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Machine-readable error codes.
const (
	CodeNotFound          = "not_found"
	CodeInvalidArgument   = "invalid_argument"
	CodeInconsistentState = "inconsistent_state"
	CodeInternal          = "internal"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

// WindowPayload names a window: an id, or empty or "current" for the
// focused window.
type WindowPayload struct {
	Window string `json:"window,omitempty"`
}

// SetTitlePayload is the payload of SET_TITLE.
type SetTitlePayload struct {
	Window string `json:"window,omitempty"`
	Title  string `json:"title"`
}

// LayoutPayload is the payload of SET_LAYOUT.
type LayoutPayload struct {
	Layout string `json:"layout"`
}

// RotatePayload is the payload of ROTATE: "f" or "b".
type RotatePayload struct {
	Direction string `json:"direction"`
}

// LeverModePayload is the payload of SET_LEVER_MODE: "1" or "2".
type LeverModePayload struct {
	Mode string `json:"mode"`
}

// ActionPayload is the payload of RUN_ACTION.
type ActionPayload struct {
	Action string `json:"action"`
}

// WindowIDData is the data of WINDOW_ID.
type WindowIDData struct {
	ID uint32 `json:"id"`
}

// NewRequest builds a request, marshalling payload when it is not nil.
func NewRequest(cmd CommandType, payload interface{}) (*Request, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}
	return req, nil
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response carrying the code matching
// err's sentinel.
func NewErrorResponse(err error) *Response {
	return &Response{
		Status: StatusError,
		Error:  err.Error(),
		Code:   CodeOf(err),
	}
}

// CodeOf maps an error to its wire code.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, wm.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, wm.ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, wm.ErrInconsistentState):
		return CodeInconsistentState
	default:
		return CodeInternal
	}
}

// RemoteError is an error reported by the daemon. It unwraps to the
// sentinel matching its code.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeNotFound:
		return wm.ErrNotFound
	case CodeInvalidArgument:
		return wm.ErrInvalidArgument
	case CodeInconsistentState:
		return wm.ErrInconsistentState
	default:
		return nil
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func decodePayload(req *Request, v interface{}) error {
	if len(req.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", req.Command, err, wm.ErrInvalidArgument)
	}
	return nil
}
