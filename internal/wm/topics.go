package wm

import (
	"github.com/1broseidon/nwm/internal/eventbus"
	"github.com/1broseidon/nwm/internal/platform"
)

// Topics published by the manager in addition to the registry topics
// ("add window", "before remove monitor", ...).
const (
	TopicWindowMonitorChanged eventbus.Topic = "change window monitor"
	TopicWorkspaceChanged     eventbus.Topic = "change workspace"
	TopicLayoutChanged        eventbus.Topic = "change layout"
	TopicControlAction        eventbus.Topic = "control action"
)

// MonitorChange is published when a window is reassigned to another monitor.
type MonitorChange struct {
	Window platform.WindowID
	From   platform.MonitorID
	To     platform.MonitorID
}

// WorkspaceChange is published when a monitor switches workspace.
type WorkspaceChange struct {
	Monitor platform.MonitorID
	From    int
	To      int
}

// LayoutChange is published when a workspace switches layout.
type LayoutChange struct {
	Workspace *Workspace
	From      string
	To        string
}
