package mcp

import (
	"context"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/nwm/internal/control"
)

const (
	ServerName    = "nwm"
	ServerVersion = "0.1.0"
)

// Daemon is the control surface the tools drive. *ipc.Client implements it.
type Daemon interface {
	Windows() ([]control.WindowInfo, error)
	FocusedID() (uint32, error)
	Window(ref string) (control.WindowInfo, error)
	Focus(ref string) error
	Close(ref string) error
	SetTitle(ref, title string) error
	SetLayout(name string) error
	Rotate(dir string) error
	SetLeverMode(mode string) error
	Layouts() (control.LayoutsInfo, error)
	Status() (control.Status, error)
	RunAction(action string) error
}

// Server exposes the window manager to MCP clients.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	log       *slog.Logger
}

// NewServer creates an MCP server forwarding tool calls to daemon.
func NewServer(daemon Daemon, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{daemon: daemon, log: log}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List every managed window with its geometry, monitor, workspace and whether it is focused or the main window.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_window",
		Description: "Describe one window. Defaults to the focused window.",
	}, s.handleGetWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Give input focus to a window and make it the focused window of its monitor.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Ask a window to close. Clients that support WM_DELETE_WINDOW get a polite request; others are killed.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_title",
		Description: "Rename a window inside the window manager. The name can then be used to address the window.",
	}, s.handleSetTitle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_layout",
		Description: "Switch the layout of the current workspace. Unknown names are rejected with the closest valid name.",
	}, s.handleSetLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "rotate",
		Description: "Rotate the windows of the current workspace so the next (f) or previous (b) window becomes the main window.",
	}, s.handleRotate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_lever_mode",
		Description: "Show one (1) or two (2) windows at a time when the current workspace uses the lever layout.",
	}, s.handleSetLeverMode)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_layouts",
		Description: "List the registered layouts and the layout of the current workspace.",
	}, s.handleListLayouts)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Summarize monitors, window counts, the current layout and daemon uptime.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "run_action",
		Description: "Run a key-binding action by name, exactly as if its key had been pressed.",
	}, s.handleRunAction)
}
