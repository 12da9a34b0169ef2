package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Colors are the window border colors, as "#rrggbb".
type Colors struct {
	Active string `yaml:"active"`
	Normal string `yaml:"normal"`
}

// Titles identify the lever chrome windows.
type Titles struct {
	Command string `yaml:"command"`
	Control string `yaml:"control"`
}

// Lever tunes the lever layout's gestures.
type Lever struct {
	SwipeIntervalMS  int  `yaml:"swipe_interval_ms"`
	CommitDivisor    int  `yaml:"commit_divisor"`
	AnimateLeftSwipe bool `yaml:"animate_left_swipe"`
	CreateChrome     bool `yaml:"create_chrome"`
}

// Config is the window manager configuration.
type Config struct {
	LogLevel      string   `yaml:"log_level"`
	Margin        int      `yaml:"margin"`
	ControlHeight int      `yaml:"control_height"`
	CommandHeight int      `yaml:"command_height"`
	MainScale     float64  `yaml:"main_scale"`
	ScaleStep     float64  `yaml:"scale_step"`
	DefaultLayout string   `yaml:"default_layout"`
	Terminal      string   `yaml:"terminal"`
	TerminalArgs  []string `yaml:"terminal_args"`
	Colors        Colors   `yaml:"colors"`
	Titles        Titles   `yaml:"titles"`
	Lever         Lever    `yaml:"lever"`

	// Modifier is prepended to every key sequence.
	Modifier string `yaml:"modifier"`
	// Keys maps an action to the key sequences that trigger it. Actions
	// missing here keep their default keys.
	Keys map[string][]string `yaml:"keys,omitempty"`

	ReconcileIntervalSeconds int    `yaml:"reconcile_interval_seconds"`
	Socket                   string `yaml:"socket,omitempty"`
}

// Layout names accepted by default_layout.
var LayoutNames = []string{"lever", "monocle", "tile"}

// Key actions and their default sequences, without the base modifier.
var DefaultKeys = map[string][]string{
	"spawn_terminal": {"Shift-Return"},
	"close_window":   {"Shift-c"},
	"swipe_right":    {"Shift-Right"},
	"swipe_left":     {"Shift-Left"},
	"next_layout":    {"space"},
	"shrink_main":    {"h", "F10"},
	"grow_main":      {"l", "F11"},
	"promote_main":   {"Tab"},
	"monitor_next":   {"Shift-comma"},
	"monitor_prev":   {"Shift-period"},
	"focus_prev":     {"j"},
	"focus_next":     {"k"},
	"quit":           {"Shift-q"},
	"go_back":        {"BackSpace"},
}

func init() {
	for i := 1; i <= 9; i++ {
		n := strconv.Itoa(i)
		DefaultKeys["workspace_"+n] = []string{n}
		DefaultKeys["move_to_workspace_"+n] = []string{"Shift-" + n}
	}
}

// KeyActions returns every bindable action in lexical order.
func KeyActions() []string {
	actions := make([]string, 0, len(DefaultKeys))
	for action := range DefaultKeys {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		Margin:        10,
		ControlHeight: 20,
		CommandHeight: 40,
		MainScale:     0.5,
		ScaleStep:     0.05,
		DefaultLayout: "tile",
		Terminal:      "xterm",
		TerminalArgs:  []string{"-lc"},
		Colors: Colors{
			Active: "#606060",
			Normal: "#666666",
		},
		Titles: Titles{
			Command: "NWM Command Window",
			Control: "NWM Control Window",
		},
		Lever: Lever{
			SwipeIntervalMS: 100,
			CommitDivisor:   8,
			CreateChrome:    true,
		},
		Modifier:                 "Mod1",
		ReconcileIntervalSeconds: 10,
	}
}

// KeySequences returns the full key sequences bound to action, base
// modifier included.
func (c *Config) KeySequences(action string) []string {
	seqs, ok := c.Keys[action]
	if !ok {
		seqs = DefaultKeys[action]
	}
	out := make([]string, 0, len(seqs))
	for _, seq := range seqs {
		if c.Modifier != "" {
			seq = c.Modifier + "-" + seq
		}
		out = append(out, seq)
	}
	return out
}

// SlogLevel converts log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseColor parses "#rrggbb" into a pixel value.
func ParseColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("color %q must have the form #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return uint32(v), nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var result *multierror.Error
	fail := func(path, format string, args ...any) {
		result = multierror.Append(result, &ValidationError{Path: path, Err: fmt.Errorf(format, args...)})
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		fail("log_level", "must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	if c.Margin < 0 {
		fail("margin", "must be >= 0 (got %d)", c.Margin)
	}
	if c.ControlHeight < 0 {
		fail("control_height", "must be >= 0 (got %d)", c.ControlHeight)
	}
	if c.CommandHeight < 0 {
		fail("command_height", "must be >= 0 (got %d)", c.CommandHeight)
	}
	if c.MainScale < 0.05 || c.MainScale > 0.95 {
		fail("main_scale", "must be between 0.05 and 0.95 (got %v)", c.MainScale)
	}
	if c.ScaleStep <= 0 || c.ScaleStep >= 1 {
		fail("scale_step", "must be between 0 and 1 (got %v)", c.ScaleStep)
	}
	if !validLayout(c.DefaultLayout) {
		fail("default_layout", "unknown layout %q (valid: %s)", c.DefaultLayout, strings.Join(LayoutNames, ", "))
	}
	if strings.TrimSpace(c.Terminal) == "" {
		fail("terminal", "must not be empty")
	}
	if _, err := ParseColor(c.Colors.Active); err != nil {
		fail("colors.active", "%v", err)
	}
	if _, err := ParseColor(c.Colors.Normal); err != nil {
		fail("colors.normal", "%v", err)
	}
	if c.Titles.Command == "" || c.Titles.Control == "" {
		fail("titles", "command and control titles must not be empty")
	} else if c.Titles.Command == c.Titles.Control {
		fail("titles", "command and control titles must differ")
	}
	if c.Lever.SwipeIntervalMS <= 0 {
		fail("lever.swipe_interval_ms", "must be > 0 (got %d)", c.Lever.SwipeIntervalMS)
	}
	if c.Lever.CommitDivisor < 2 {
		fail("lever.commit_divisor", "must be >= 2 (got %d)", c.Lever.CommitDivisor)
	}
	for _, action := range sortedKeys(c.Keys) {
		if _, ok := DefaultKeys[action]; !ok {
			fail("keys."+action, "unknown action %q", action)
			continue
		}
		for _, seq := range c.Keys[action] {
			if strings.TrimSpace(seq) == "" {
				fail("keys."+action, "empty key sequence")
			}
		}
	}
	if c.ReconcileIntervalSeconds < 0 {
		fail("reconcile_interval_seconds", "must be >= 0 (got %d)", c.ReconcileIntervalSeconds)
	}
	return result.ErrorOrNil()
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveToPath(path)
}

// SaveToPath validates and writes the configuration to path.
func (c *Config) SaveToPath(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func validLayout(name string) bool {
	for _, n := range LayoutNames {
		if n == name {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
