// Package spawn starts long-lived child processes such as terminals.
package spawn

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Spawner starts a fixed command without waiting for it.
type Spawner struct {
	Command string
	Args    []string
	// Dir is the working directory. Empty means the home directory.
	Dir string
	// Env is appended to the current environment.
	Env []string
	Log *slog.Logger

	// exited receives the Wait result; used by tests.
	exited func(error)
}

// New creates a spawner for command with args.
func New(command string, args []string, log *slog.Logger) *Spawner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Spawner{Command: command, Args: args, Log: log}
}

// Spawn starts the command. The child is reaped in the background.
func (s *Spawner) Spawn() error {
	return s.SpawnWith()
}

// SpawnWith starts the command with extra arguments appended.
func (s *Spawner) SpawnWith(extra ...string) error {
	if strings.TrimSpace(s.Command) == "" {
		return fmt.Errorf("no command configured")
	}
	args := append(append([]string(nil), s.Args...), extra...)
	cmd := exec.Command(s.Command, args...)
	cmd.Dir = s.Dir
	if cmd.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cmd.Dir = home
		}
	}
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to spawn %q: %w", s.Command, err)
	}
	s.Log.Debug("spawned process", "command", s.Command, "pid", cmd.Process.Pid)

	go func() {
		err := cmd.Wait()
		if err != nil {
			s.Log.Debug("spawned process exited", "command", s.Command, "error", err)
		}
		if s.exited != nil {
			s.exited(err)
		}
	}()
	return nil
}
