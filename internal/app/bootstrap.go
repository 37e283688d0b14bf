package app

import (
	"errors"
	"os"

	"github.com/dshills/revert/internal/config"
	"github.com/dshills/revert/internal/event"
	"github.com/dshills/revert/internal/logging"
	"github.com/dshills/revert/internal/script"
	"github.com/dshills/revert/internal/widget"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogger,
		b.initEventBus,
		b.initMetrics,
		b.initWidgets,
		b.initScript,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

func (b *bootstrapper) initConfig() error {
	cfg, err := config.LoadWithEnv(b.opts.ConfigPath, b.opts.Lookup)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	b.app.cfg = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

func (b *bootstrapper) initLogger() error {
	level := b.app.cfg.LogLevel()
	if b.opts.LogLevel != "" {
		l, ok := logging.ParseLevel(b.opts.LogLevel)
		if !ok {
			return &InitError{Component: "logger", Err: errors.New("unknown log level " + b.opts.LogLevel)}
		}
		level = l
	}

	b.app.logger = logging.New(logging.Config{
		Level:  level,
		Output: b.opts.LogOutput,
		Prefix: "revert",
	})
	b.initOrder = append(b.initOrder, "logger")
	return nil
}

func (b *bootstrapper) initEventBus() error {
	logger := b.app.logger.WithComponent("bus")
	b.app.bus = event.NewBus(
		event.WithSource("revert"),
		event.WithPanicHandler(func(ev event.Event, r any) {
			logger.Error("handler panic on %s: %v", ev.Topic, r)
		}),
	)
	b.initOrder = append(b.initOrder, "eventBus")
	return nil
}

func (b *bootstrapper) initMetrics() error {
	b.app.metrics = NewMetrics()
	sub, err := b.app.metrics.Subscribe(b.app.bus)
	if err != nil {
		return &InitError{Component: "metrics", Err: err}
	}
	b.app.msub = sub
	b.initOrder = append(b.initOrder, "metrics")
	return nil
}

func (b *bootstrapper) initWidgets() error {
	initial, err := readInitialFile(b.opts.File)
	if err != nil {
		return &InitError{Component: "widgets", Err: err}
	}

	opts := []widget.Option{
		widget.WithConfig(b.app.cfg),
		widget.WithBus(b.app.bus),
		widget.WithLogger(b.app.logger),
	}

	if b.app.text, err = widget.NewTextEditor(initial, opts...); err != nil {
		return &InitError{Component: "text editor", Err: err}
	}
	b.initOrder = append(b.initOrder, "text")

	if b.app.scene, err = widget.NewSceneEditor(opts...); err != nil {
		return &InitError{Component: "scene editor", Err: err}
	}
	b.initOrder = append(b.initOrder, "scene")

	if b.app.canvas, err = widget.NewCanvas(opts...); err != nil {
		return &InitError{Component: "canvas", Err: err}
	}
	b.initOrder = append(b.initOrder, "canvas")
	return nil
}

func (b *bootstrapper) initScript() error {
	b.app.runner = script.NewRunner(b.app.text,
		script.WithOutput(b.opts.ScriptOutput),
		script.WithLogger(b.app.logger),
	)
	b.initOrder = append(b.initOrder, "script")
	return nil
}

func (b *bootstrapper) initWatcher() error {
	if !b.opts.Watch || b.opts.ConfigPath == "" {
		return nil
	}

	w, err := config.NewWatcher(b.opts.ConfigPath, config.WithLookup(b.opts.Lookup))
	if err != nil {
		return &InitError{Component: "config watcher", Err: err}
	}
	w.OnReload(b.app.handleReload)
	b.app.watcher = w
	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

// cleanup performs cleanup in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(b.initOrder[i])
	}
}

// cleanupComponent cleans up a single component.
func (b *bootstrapper) cleanupComponent(component string) {
	switch component {
	case "watcher":
		_ = b.app.watcher.Close()
		b.app.watcher = nil
	case "script":
		b.app.runner.Close()
		b.app.runner = nil
	case "canvas":
		b.app.canvas.Close()
		b.app.canvas = nil
	case "scene":
		b.app.scene.Close()
		b.app.scene = nil
	case "text":
		b.app.text.Close()
		b.app.text = nil
	case "metrics":
		_ = b.app.bus.Unsubscribe(b.app.msub)
		b.app.msub = nil
	case "eventBus":
		b.app.bus = nil
	}
}

// readInitialFile returns the contents of path, or "" when path is empty
// or does not exist yet.
func readInitialFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", NewOperationError("open", path, err)
	}
	return string(data), nil
}
