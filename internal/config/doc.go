// Package config loads the widget and history settings.
//
// Settings come from three sources, lowest precedence first:
//
//  1. Built-in defaults (Default)
//  2. A TOML file
//  3. REVERT_* environment variables
//
// A minimal file:
//
//	[history]
//	max_steps = 200
//	redo = true
//
//	[editor]
//	debounce_ms = 300
//
// A missing file is not an error; the defaults apply. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
//
// Watcher reloads the file when it changes on disk and hands the new
// Config to registered handlers. Invalid reloads are reported and the
// previous configuration stays in effect.
package config
