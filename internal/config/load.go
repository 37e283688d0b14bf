package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REVERT_"

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// envSetters maps environment variables to the settings they override.
var envSetters = map[string]func(c *Config, v string) error{
	"REVERT_HISTORY_MAX_STEPS": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.History.MaxSteps = n
		return err
	},
	"REVERT_HISTORY_REDO": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.History.Redo = b
		return err
	},
	"REVERT_EDITOR_DEBOUNCE_MS": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Editor.DebounceMS = n
		return err
	},
	"REVERT_LOG_LEVEL": func(c *Config, v string) error {
		c.Log.Level = strings.TrimSpace(v)
		return nil
	},
}

// Load reads path (if non-empty and present), applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with a custom environment lookup.
func LoadWithEnv(path string, lookup LookupFunc) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults apply.
		case err != nil:
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := decode(path, bytes.NewReader(data), &cfg); err != nil {
				return Config{}, err
			}
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", displayPath(path), err)
	}
	return cfg, nil
}

// Parse decodes TOML from r on top of the defaults and validates it.
// Environment variables are not consulted.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decode("<reader>", r, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode parses TOML into cfg, rejecting unknown keys.
func decode(source string, r io.Reader, cfg *Config) error {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()

	err := dec.Decode(cfg)
	if err == nil {
		return nil
	}

	pe := &ParseError{Path: source, Message: err.Error(), Err: err}

	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		pe.Line, pe.Column = decodeErr.Position()
	}

	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		keys := make([]string, 0, len(strictErr.Errors))
		for _, e := range strictErr.Errors {
			keys = append(keys, strings.Join(e.Key(), "."))
		}
		pe.Message = "unknown setting(s): " + strings.Join(keys, ", ")
	}

	return pe
}

// applyEnv overrides settings from REVERT_* variables.
func applyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}
	for key, set := range envSetters {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		if err := set(cfg, v); err != nil {
			return fmt.Errorf("environment %s=%q: %w", key, v, err)
		}
	}
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "<defaults>"
	}
	return path
}
