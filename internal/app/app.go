// Package app wires configuration, logging, the event bus and the three
// editing widgets together, and hosts the script runner and terminal
// front end.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/revert/internal/config"
	"github.com/dshills/revert/internal/event"
	"github.com/dshills/revert/internal/logging"
	"github.com/dshills/revert/internal/script"
	"github.com/dshills/revert/internal/tui"
	"github.com/dshills/revert/internal/widget"
)

// Application owns the widgets and the services around them.
type Application struct {
	mu sync.Mutex

	// Core infrastructure
	cfg     config.Config
	logger  *logging.Logger
	bus     *event.Bus
	metrics *Metrics
	msub    *event.Subscription
	watcher *config.Watcher

	// Widgets
	text   *widget.TextEditor
	scene  *widget.SceneEditor
	canvas *widget.Canvas

	runner *script.Runner

	closed bool
	opts   Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML configuration file. Empty uses defaults and
	// environment overrides only.
	ConfigPath string

	// File is loaded into the text editor. A missing file starts empty.
	File string

	// LogLevel overrides the configured level when non-empty.
	LogLevel string

	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer

	// ScriptOutput receives script print output. Defaults to stdout.
	ScriptOutput io.Writer

	// Lookup reads environment overrides. Defaults to os.LookupEnv.
	Lookup config.LookupFunc

	// Watch reloads ConfigPath when it changes.
	Watch bool
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.ScriptOutput == nil {
		opts.ScriptOutput = os.Stdout
	}
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}

	app := &Application{opts: opts}
	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the active configuration.
func (app *Application) Config() config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger { return app.logger }

// Bus returns the event bus.
func (app *Application) Bus() *event.Bus { return app.bus }

// Metrics returns the history metrics.
func (app *Application) Metrics() *Metrics { return app.metrics }

// Text returns the markdown editor.
func (app *Application) Text() *widget.TextEditor { return app.text }

// Scene returns the 3D scene editor.
func (app *Application) Scene() *widget.SceneEditor { return app.scene }

// Canvas returns the drawing canvas.
func (app *Application) Canvas() *widget.Canvas { return app.canvas }

// RunScript runs the Lua script at path against the text editor.
func (app *Application) RunScript(ctx context.Context, path string) error {
	if app.isClosed() {
		return ErrClosed
	}
	if err := app.runner.RunFile(ctx, path); err != nil {
		return NewOperationError("run script", path, err)
	}
	app.text.Commit()
	return nil
}

// RunEditor runs the terminal editor until the user quits. A nil screen
// uses the process terminal.
func (app *Application) RunEditor(ctx context.Context, screen tcell.Screen) error {
	if app.isClosed() {
		return ErrClosed
	}

	opts := []tui.Option{tui.WithBus(app.bus), tui.WithLogger(app.logger)}

	var ed *tui.Editor
	if screen == nil {
		var err error
		if ed, err = tui.NewTerminal(app.text, opts...); err != nil {
			return NewOperationError("open", "terminal", err)
		}
	} else {
		ed = tui.New(screen, app.text, opts...)
	}
	return ed.Run(ctx)
}

// Watch reloads the config file on change until ctx is cancelled.
func (app *Application) Watch(ctx context.Context) error {
	if app.watcher == nil {
		return ErrNoConfigFile
	}
	err := app.watcher.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, config.ErrWatcherClosed) {
		return nil
	}
	return err
}

// ApplyConfig makes cfg the active configuration. History limits and the
// log level change immediately; debounce, redo and sizes apply to widgets
// created later.
func (app *Application) ApplyConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return ErrClosed
	}
	app.cfg = cfg
	app.mu.Unlock()

	if app.opts.LogLevel == "" {
		app.logger.SetLevel(cfg.LogLevel())
	}

	n := cfg.History.MaxSteps
	err := errors.Join(
		app.text.Pipeline().SetMaxSteps(n),
		app.scene.Pipeline().SetMaxSteps(n),
		app.canvas.Pipeline().SetMaxSteps(n),
	)
	if err != nil {
		return NewOperationError("apply", "config", err)
	}

	app.logger.Info("config applied: max_steps=%d", n)
	payload := event.ConfigReloaded{Path: app.opts.ConfigPath, MaxSteps: n}
	if err := app.bus.Publish(context.Background(), event.TopicConfigReloaded, payload); err != nil {
		app.logger.Warn("publishing config reload: %v", err)
	}
	return nil
}

func (app *Application) handleReload(cfg config.Config, err error) {
	if err != nil {
		app.logger.Warn("config reload rejected: %v", err)
		return
	}
	if err := app.ApplyConfig(cfg); err != nil {
		app.logger.Warn("config reload failed: %v", err)
	}
}

// Close flushes pending edits and releases all resources. It is safe to
// call more than once.
func (app *Application) Close() error {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return nil
	}
	app.closed = true
	app.mu.Unlock()

	app.text.Commit()
	app.scene.Commit()

	var errs []error
	if app.watcher != nil {
		errs = append(errs, app.watcher.Close())
	}
	app.runner.Close()
	app.text.Close()
	app.scene.Close()
	app.canvas.Close()
	if app.msub != nil {
		errs = append(errs, app.bus.Unsubscribe(app.msub))
	}

	app.logger.Debug("session metrics: %s", app.metrics.Snapshot())
	return errors.Join(errs...)
}

func (app *Application) isClosed() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.closed
}
