package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/revert/internal/logging"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "revert.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.History.MaxSteps != 100 {
		t.Errorf("MaxSteps = %d, want 100", cfg.History.MaxSteps)
	}
	if cfg.Editor.Debounce() != 300*time.Millisecond {
		t.Errorf("Debounce() = %v, want 300ms", cfg.Editor.Debounce())
	}
	if cfg.LogLevel() != logging.LevelInfo {
		t.Errorf("LogLevel() = %v, want INFO", cfg.LogLevel())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.toml"), noEnv)
	if err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadWithEnv("", noEnv)
	if err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[history]
max_steps = 25
redo = false

[editor]
debounce_ms = 0

[log]
level = "debug"
`)

	cfg, err := LoadWithEnv(path, noEnv)
	if err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}
	if cfg.History.MaxSteps != 25 || cfg.History.Redo {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.Editor.DebounceMS != 0 {
		t.Errorf("DebounceMS = %d, want 0", cfg.Editor.DebounceMS)
	}
	if cfg.Editor.FontSize != DefaultFontSize {
		t.Errorf("unset FontSize = %d, want default %d", cfg.Editor.FontSize, DefaultFontSize)
	}
	if cfg.LogLevel() != logging.LevelDebug {
		t.Errorf("LogLevel() = %v, want DEBUG", cfg.LogLevel())
	}
}

func TestLoadRejectsNonPositiveMaxSteps(t *testing.T) {
	for _, v := range []string{"0", "-3"} {
		path := writeConfig(t, t.TempDir(), "[history]\nmax_steps = "+v+"\n")

		_, err := LoadWithEnv(path, noEnv)
		if !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("max_steps=%s: error = %v, want ErrInvalidValue", v, err)
		}

		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Setting != "history.max_steps" {
			t.Errorf("max_steps=%s: ValidationError = %+v", v, verr)
		}
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[history]\nmax_step = 10\n")

	_, err := LoadWithEnv(path, noEnv)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if !strings.Contains(pe.Message, "history.max_step") {
		t.Errorf("Message = %q, want unknown key named", pe.Message)
	}
}

func TestLoadReportsSyntaxPosition(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[history]\nmax_steps = = 3\n")

	_, err := LoadWithEnv(path, noEnv)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Line != 2 {
		t.Errorf("Line = %d, want 2", pe.Line)
	}
	if pe.Unwrap() == nil {
		t.Error("ParseError should wrap the decoder error")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[history]\nmax_steps = 25\n")

	cfg, err := LoadWithEnv(path, envMap(map[string]string{
		"REVERT_HISTORY_MAX_STEPS":  "7",
		"REVERT_HISTORY_REDO":       "false",
		"REVERT_EDITOR_DEBOUNCE_MS": "50",
		"REVERT_LOG_LEVEL":          " warn ",
	}))
	if err != nil {
		t.Fatalf("LoadWithEnv failed: %v", err)
	}
	if cfg.History.MaxSteps != 7 {
		t.Errorf("MaxSteps = %d, want 7", cfg.History.MaxSteps)
	}
	if cfg.History.Redo {
		t.Error("Redo should be false")
	}
	if cfg.Editor.DebounceMS != 50 {
		t.Errorf("DebounceMS = %d, want 50", cfg.Editor.DebounceMS)
	}
	if cfg.LogLevel() != logging.LevelWarn {
		t.Errorf("LogLevel() = %v, want WARN", cfg.LogLevel())
	}
}

func TestEnvOverrideMalformed(t *testing.T) {
	_, err := LoadWithEnv("", envMap(map[string]string{"REVERT_HISTORY_MAX_STEPS": "lots"}))
	if err == nil || !strings.Contains(err.Error(), "REVERT_HISTORY_MAX_STEPS") {
		t.Errorf("error = %v, want mention of variable", err)
	}
}

func TestLoadUsesProcessEnvironment(t *testing.T) {
	t.Setenv("REVERT_HISTORY_MAX_STEPS", "12")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.History.MaxSteps != 12 {
		t.Errorf("MaxSteps = %d, want 12", cfg.History.MaxSteps)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := Default()
	cfg.History.MaxSteps = 0
	cfg.Editor.FontSize = 40
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	for _, setting := range []string{"history.max_steps", "editor.font_size", "log.level"} {
		if !strings.Contains(err.Error(), setting) {
			t.Errorf("error %q does not mention %s", err, setting)
		}
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader("[canvas]\nwidth = 1024\nheight = 768\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Canvas.Width != 1024 || cfg.Canvas.Height != 768 {
		t.Errorf("Canvas = %+v", cfg.Canvas)
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[history]\nmax_steps = 10\n")

	w, err := NewWatcher(path, WithDebounce(10*time.Millisecond), WithLookup(noEnv))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	reloaded := make(chan Config, 4)
	w.OnReload(func(cfg Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeConfig(t, dir, "[history]\nmax_steps = 42\n")

	select {
	case cfg := <-reloaded:
		if cfg.History.MaxSteps != 42 {
			t.Errorf("MaxSteps = %d, want 42", cfg.History.MaxSteps)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherReportsInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[history]\nmax_steps = 0\n")

	w, err := NewWatcher(path, WithLookup(noEnv))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	var got error
	w.OnReload(func(_ Config, err error) { got = err })
	w.Reload()

	if !errors.Is(got, ErrInvalidValue) {
		t.Errorf("reload error = %v, want ErrInvalidValue", got)
	}
}

func TestWatcherClose(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
	if err := w.Run(context.Background()); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Run after Close = %v, want ErrWatcherClosed", err)
	}
}
