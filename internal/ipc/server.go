package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/nwm/internal/control"
	"github.com/1broseidon/nwm/internal/wm"
)

// ActionFunc runs a named key-binding action.
type ActionFunc func(ctx context.Context, action string) error

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	svc        *control.Service
	actions    ActionFunc
	log        *slog.Logger
	timeout    time.Duration

	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a server answering on socketPath. actions may be nil.
func NewServer(socketPath string, svc *control.Service, actions ActionFunc, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		socketPath: socketPath,
		svc:        svc,
		actions:    actions,
		log:        log,
		timeout:    5 * time.Second,
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections. A stale socket file is
// removed first.
func (s *Server) Start() error {
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection answers one newline-terminated JSON request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(s.timeout))

	reader := bufio.NewReader(conn)

	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Debug("IPC read error", "error", err)
		return
	}

	var resp *Response
	req, err := ParseRequest(data)
	if err != nil {
		resp = NewErrorResponse(fmt.Errorf("invalid request: %v: %w", err, wm.ErrInvalidArgument))
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		resp = s.handleCommand(ctx, req)
		cancel()
	}

	respData, err := resp.Marshal()
	if err != nil {
		s.log.Warn("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.log.Debug("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	data, err := s.dispatch(ctx, req)
	if err != nil {
		s.log.Debug("IPC command failed", "command", req.Command, "error", err)
		return NewErrorResponse(err)
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err)
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *Request) (interface{}, error) {
	switch req.Command {
	case CommandWindowIDs:
		return s.svc.WindowIDs(ctx)
	case CommandWindows:
		return s.svc.Windows(ctx)
	case CommandWindowID:
		id, err := s.svc.FocusedID(ctx)
		if err != nil {
			return nil, err
		}
		return WindowIDData{ID: id}, nil
	case CommandWindowInfo:
		var p WindowPayload
		if err := decodePayload(req, &p); err != nil {
			return nil, err
		}
		return s.svc.Window(ctx, p.Window)
	case CommandFocus:
		var p WindowPayload
		if err := decodePayload(req, &p); err != nil {
			return nil, err
		}
		return nil, s.svc.Focus(ctx, p.Window)
	case CommandClose:
		var p WindowPayload
		if err := decodePayload(req, &p); err != nil {
			return nil, err
		}
		return nil, s.svc.Close(ctx, p.Window)
	case CommandSetTitle:
		var p SetTitlePayload
		if err := decodePayload(req, &p); err != nil {
			return nil, err
		}
		return nil, s.svc.SetTitle(ctx, p.Window, p.Title)
	case CommandSetLayout:
		var p LayoutPayload
		if err := decodePayload(req, &p); err != nil {
			return nil, err
		}
		return nil, s.svc.SetLayout(ctx, p.Layout)
	case CommandRotate:
		var p RotatePayload
		if err := decodePayload(req, &p); err != nil {
			return nil, err
		}
		return nil, s.svc.Rotate(ctx, p.Direction)
	case CommandSetLeverMode:
		var p LeverModePayload
		if err := decodePayload(req, &p); err != nil {
			return nil, err
		}
		return nil, s.svc.SetLeverMode(ctx, p.Mode)
	case CommandListLayouts:
		return s.svc.Layouts(ctx)
	case CommandGetStatus:
		return s.svc.Status(ctx)
	case CommandRunAction:
		if s.actions == nil {
			return nil, fmt.Errorf("actions: %w", wm.ErrNotFound)
		}
		var p ActionPayload
		if err := decodePayload(req, &p); err != nil {
			return nil, err
		}
		return nil, s.actions(ctx, p.Action)
	default:
		return nil, fmt.Errorf("unknown command %q: %w", req.Command, wm.ErrInvalidArgument)
	}
}

// Stop closes the listener, waits for in-flight requests and removes the
// socket file.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
