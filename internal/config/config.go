package config

import (
	"errors"
	"time"

	"github.com/dshills/revert/internal/logging"
)

// Default configuration values.
const (
	DefaultMaxSteps    = 100
	DefaultDebounceMS  = 300
	DefaultFontSize    = 14
	MinFontSize        = 12
	MaxFontSize        = 24
	DefaultCanvasW     = 800
	DefaultCanvasH     = 600
	MinCanvasSize      = 100
	DefaultInitialSize = 1.0
	DefaultLogLevel    = "info"
)

// Config is the complete configuration.
type Config struct {
	History HistoryConfig `toml:"history"`
	Editor  EditorConfig  `toml:"editor"`
	Canvas  CanvasConfig  `toml:"canvas"`
	Scene   SceneConfig   `toml:"scene"`
	Log     LogConfig     `toml:"log"`
}

// HistoryConfig bounds the undo history of every widget.
type HistoryConfig struct {
	MaxSteps int  `toml:"max_steps"`
	Redo     bool `toml:"redo"`
}

// EditorConfig configures the text editor widget.
type EditorConfig struct {
	// DebounceMS delays commits of typed input; 0 commits every keystroke.
	DebounceMS int `toml:"debounce_ms"`
	FontSize   int `toml:"font_size"`
}

// Debounce returns the debounce interval as a duration.
func (c EditorConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// CanvasConfig configures the drawing widget.
type CanvasConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// SceneConfig configures the 3D scene widget.
type SceneConfig struct {
	InitialSize float64 `toml:"initial_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{MaxSteps: DefaultMaxSteps, Redo: true},
		Editor:  EditorConfig{DebounceMS: DefaultDebounceMS, FontSize: DefaultFontSize},
		Canvas:  CanvasConfig{Width: DefaultCanvasW, Height: DefaultCanvasH},
		Scene:   SceneConfig{InitialSize: DefaultInitialSize},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// Validate checks every setting and returns all violations joined.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, setting string, value any, reason string) {
		if !ok {
			errs = append(errs, &ValidationError{Setting: setting, Value: value, Reason: reason})
		}
	}

	check(c.History.MaxSteps > 0, "history.max_steps", c.History.MaxSteps, "must be positive")
	check(c.Editor.DebounceMS >= 0, "editor.debounce_ms", c.Editor.DebounceMS, "must not be negative")
	check(c.Editor.FontSize >= MinFontSize && c.Editor.FontSize <= MaxFontSize,
		"editor.font_size", c.Editor.FontSize, "must be between 12 and 24")
	check(c.Canvas.Width > 0, "canvas.width", c.Canvas.Width, "must be positive")
	check(c.Canvas.Height > 0, "canvas.height", c.Canvas.Height, "must be positive")
	check(c.Scene.InitialSize > 0, "scene.initial_size", c.Scene.InitialSize, "must be positive")

	_, ok := logging.ParseLevel(c.Log.Level)
	check(ok, "log.level", c.Log.Level, "must be debug, info, warn or error")

	return errors.Join(errs...)
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}
