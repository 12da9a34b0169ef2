package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.DefaultLayout != "tile" {
		t.Fatalf("expected default layout tile, got %q", cfg.DefaultLayout)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Margin != 10 || len(res.Files) != 0 {
		t.Fatalf("expected defaults with no files, got margin=%d files=%v", res.Config.Margin, res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.MainScale != 0.5 {
		t.Fatalf("expected main_scale 0.5, got %v", res.Config.MainScale)
	}
}

func TestLoadFromPath_OverridesKeepOtherDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.Join([]string{
		"margin: 4",
		"default_layout: lever",
		"lever:",
		"  commit_divisor: 4",
		"keys:",
		"  quit: [Shift-x]",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Margin != 4 || cfg.DefaultLayout != "lever" {
		t.Fatalf("overrides not applied: margin=%d layout=%q", cfg.Margin, cfg.DefaultLayout)
	}
	if cfg.Lever.CommitDivisor != 4 || cfg.Lever.SwipeIntervalMS != 100 {
		t.Fatalf("expected lever commit 4 and default interval, got %+v", cfg.Lever)
	}
	if got := cfg.KeySequences("quit"); len(got) != 1 || got[0] != "Mod1-Shift-x" {
		t.Fatalf("expected quit override, got %v", got)
	}
	if got := cfg.KeySequences("shrink_main"); len(got) != 2 || got[1] != "Mod1-F10" {
		t.Fatalf("expected default shrink_main keys, got %v", got)
	}
}

func TestLoadFromPath_StrictUnknownKey(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "marginz: 3\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected unknown key error")
	}
	if !strings.Contains(err.Error(), "marginz") || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error naming key and file, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourcePosition(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "margin: 2\nmain_scale: 2\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), ":2:13: main_scale:") {
		t.Fatalf("expected line/column context, got %v", err)
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Margin = -1
	cfg.DefaultLayout = "spiral"
	cfg.Colors.Active = "red"
	cfg.Keys = map[string][]string{"fly": {"f"}}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected errors")
	}
	for _, want := range []string{"margin", "default_layout", "colors.active", "keys.fly"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestLoadFromPath_IncludesApplyBeforeFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "margin: 6\nterminal: urxvt\n")
	path := writeConfig(t, dir, "config.yaml", "include: base.yaml\nmargin: 8\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Margin != 8 || res.Config.Terminal != "urxvt" {
		t.Fatalf("unexpected merge: margin=%d terminal=%q", res.Config.Margin, res.Config.Terminal)
	}
	if len(res.Files) != 2 || filepath.Base(res.Files[1]) != "config.yaml" {
		t.Fatalf("unexpected load order %v", res.Files)
	}
}

func TestLoadFromPath_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(filepath.Join(dir, "a.yaml"))
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestSaveToPath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Margin = 12

	if err := cfg.SaveToPath(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Margin != 12 {
		t.Fatalf("expected margin 12, got %d", res.Config.Margin)
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("#606060")
	if err != nil || got != 0x606060 {
		t.Fatalf("ParseColor = %#x, %v", got, err)
	}
	if _, err := ParseColor("#12345"); err == nil {
		t.Fatalf("expected error for short color")
	}
}

func TestDefaultKeysCoverWorkspaces(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.KeySequences("move_to_workspace_3"); len(got) != 1 || got[0] != "Mod1-Shift-3" {
		t.Fatalf("unexpected workspace key %v", got)
	}
	if len(KeyActions()) != len(DefaultKeys) {
		t.Fatalf("KeyActions length mismatch")
	}
}
