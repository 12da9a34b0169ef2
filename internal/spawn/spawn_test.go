package spawn

import (
	"os/exec"
	"testing"
	"time"
)

func TestSpawnReapsChild(t *testing.T) {
	path, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	s := New(path, []string{"-c"}, nil)
	s.Dir = t.TempDir()
	done := make(chan error, 1)
	s.exited = func(err error) { done <- err }

	if err := s.SpawnWith("exit 3"); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	select {
	case err := <-done:
		exitErr, ok := err.(*exec.ExitError)
		if !ok || exitErr.ExitCode() != 3 {
			t.Fatalf("expected exit code 3, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("child was not reaped")
	}
}

func TestSpawnMissingCommand(t *testing.T) {
	s := New("/nonexistent/terminal-binary", nil, nil)
	if err := s.Spawn(); err == nil {
		t.Fatalf("expected error for missing binary")
	}
}

func TestSpawnEmptyCommand(t *testing.T) {
	if err := New(" ", nil, nil).Spawn(); err == nil {
		t.Fatalf("expected error for empty command")
	}
}
