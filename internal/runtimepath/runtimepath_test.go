package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got == "" {
		t.Fatal("Dir() returned empty path")
	}

	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := fmt.Sprintf("/tmp/nwm-runtime-%d", os.Getuid())
	if got != wantRun && got != wantTmp {
		t.Fatalf("Dir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestSocketPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name     string
		override string
		want     string
	}{
		{name: "default", override: "", want: filepath.Join(td, "nwm.sock")},
		{name: "blank", override: "  ", want: filepath.Join(td, "nwm.sock")},
		{name: "absolute", override: "/var/run/wm.sock", want: "/var/run/wm.sock"},
		{name: "home", override: "~/.nwm.sock", want: filepath.Join(home, ".nwm.sock")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SocketPath(tt.override)
			if err != nil {
				t.Fatalf("SocketPath(%q) error: %v", tt.override, err)
			}
			if got != tt.want {
				t.Fatalf("SocketPath(%q) = %q, want %q", tt.override, got, tt.want)
			}
			if !strings.HasSuffix(got, ".sock") {
				t.Fatalf("SocketPath(%q) = %q, missing suffix", tt.override, got)
			}
		})
	}
}
