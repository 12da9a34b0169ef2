package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/nwm/internal/control"
	"github.com/1broseidon/nwm/internal/wm"
)

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ any) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.daemon.Windows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{Windows: windows}
	if out.Windows == nil {
		out.Windows = []control.WindowInfo{}
	}

	focused, err := s.daemon.FocusedID()
	switch {
	case err == nil:
		out.Focused = focused
	case errors.Is(err, wm.ErrNotFound):
	default:
		return nil, ListWindowsOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleGetWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, control.WindowInfo, error) {
	info, err := s.daemon.Window(windowRef(args.Window))
	if err != nil {
		return nil, control.WindowInfo{}, err
	}
	return nil, info, nil
}

func (s *Server) handleFocusWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	ref := windowRef(args.Window)
	if err := s.daemon.Focus(ref); err != nil {
		return nil, ActionOutput{}, err
	}
	s.log.Debug("mcp: focused window", "window", ref)
	return nil, ActionOutput{OK: true, Window: ref}, nil
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	ref := windowRef(args.Window)
	if err := s.daemon.Close(ref); err != nil {
		return nil, ActionOutput{}, err
	}
	s.log.Debug("mcp: closed window", "window", ref)
	return nil, ActionOutput{OK: true, Window: ref}, nil
}

func (s *Server) handleSetTitle(_ context.Context, _ *mcpsdk.CallToolRequest, args SetTitleInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	title := strings.TrimSpace(args.Title)
	if title == "" {
		return nil, ActionOutput{}, fmt.Errorf("title is required")
	}
	ref := windowRef(args.Window)
	if err := s.daemon.SetTitle(ref, title); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true, Window: ref}, nil
}

func (s *Server) handleSetLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args SetLayoutInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.daemon.SetLayout(strings.TrimSpace(args.Layout)); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleRotate(_ context.Context, _ *mcpsdk.CallToolRequest, args RotateInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.daemon.Rotate(strings.TrimSpace(args.Direction)); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleSetLeverMode(_ context.Context, _ *mcpsdk.CallToolRequest, args LeverModeInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.daemon.SetLeverMode(strings.TrimSpace(args.Mode)); err != nil {
		return nil, ActionOutput{}, err
	}
	return nil, ActionOutput{OK: true}, nil
}

func (s *Server) handleListLayouts(_ context.Context, _ *mcpsdk.CallToolRequest, _ any) (*mcpsdk.CallToolResult, control.LayoutsInfo, error) {
	info, err := s.daemon.Layouts()
	if err != nil {
		return nil, control.LayoutsInfo{}, err
	}
	if info.Layouts == nil {
		info.Layouts = []string{}
	}
	return nil, info, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ any) (*mcpsdk.CallToolResult, control.Status, error) {
	st, err := s.daemon.Status()
	if err != nil {
		return nil, control.Status{}, err
	}
	if st.Monitors == nil {
		st.Monitors = []control.MonitorStatus{}
	}
	return nil, st, nil
}

func (s *Server) handleRunAction(_ context.Context, _ *mcpsdk.CallToolRequest, args RunActionInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	action := strings.TrimSpace(args.Action)
	if action == "" {
		return nil, ActionOutput{}, fmt.Errorf("action is required")
	}
	if err := s.daemon.RunAction(action); err != nil {
		return nil, ActionOutput{}, err
	}
	s.log.Debug("mcp: ran action", "action", action)
	return nil, ActionOutput{OK: true}, nil
}

func windowRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "current"
	}
	return ref
}
