package widget

import (
	"math/rand/v2"
	"time"

	"github.com/dshills/revert/internal/commit"
	"github.com/dshills/revert/internal/config"
	"github.com/dshills/revert/internal/event"
	"github.com/dshills/revert/internal/history"
	"github.com/dshills/revert/internal/logging"
)

// Option configures a widget during creation.
type Option func(*options)

type options struct {
	maxSteps    int
	redo        bool
	debounce    time.Duration
	bus         *event.Bus
	logger      *logging.Logger
	rng         *rand.Rand
	fontSize    int
	canvasW     int
	canvasH     int
	initialSize float64
}

func defaultOptions() options {
	return options{
		maxSteps:    history.DefaultMaxSteps,
		redo:        true,
		debounce:    commit.DefaultDebounce,
		logger:      logging.Discard(),
		fontSize:    config.DefaultFontSize,
		canvasW:     config.DefaultCanvasW,
		canvasH:     config.DefaultCanvasH,
		initialSize: config.DefaultInitialSize,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return o
}

// WithConfig applies history, editor, canvas and scene settings.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.maxSteps = cfg.History.MaxSteps
		o.redo = cfg.History.Redo
		o.debounce = cfg.Editor.Debounce()
		o.fontSize = cfg.Editor.FontSize
		o.canvasW = clampCanvasSize(cfg.Canvas.Width)
		o.canvasH = clampCanvasSize(cfg.Canvas.Height)
		o.initialSize = cfg.Scene.InitialSize
	}
}

// WithMaxSteps bounds the undo history. Non-positive values are rejected
// at construction.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		o.maxSteps = n
	}
}

// WithoutRedo disables redo.
func WithoutRedo() Option {
	return func(o *options) {
		o.redo = false
	}
}

// WithDebounce sets the delay for continuous input commits.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithBus publishes history events on bus.
func WithBus(bus *event.Bus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRand sets the random source used for new scene objects.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithCanvasSize sets the drawing canvas size.
func WithCanvasSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.canvasW, o.canvasH = clampCanvasSize(width), clampCanvasSize(height)
		}
	}
}

// WithInitialSize sets the edge length of new scene shapes.
func WithInitialSize(size float64) Option {
	return func(o *options) {
		if size > 0 {
			o.initialSize = size
		}
	}
}

// newPipeline builds the history and pipeline shared by all widgets.
func newPipeline[S any](name string, o options, equal func(a, b S) bool, clone func(S) S, capture func() S, apply func(S)) (*commit.Pipeline[S], error) {
	hopts := []history.Option[S]{history.WithEqual(equal), history.WithClone(clone)}
	if !o.redo {
		hopts = append(hopts, history.WithoutRedo[S]())
	}

	h, err := history.New(o.maxSteps, hopts...)
	if err != nil {
		return nil, err
	}

	return commit.New(name, h, capture, apply,
		commit.WithDebounce(o.debounce),
		commit.WithBus(o.bus),
		commit.WithLogger(o.logger),
	), nil
}
