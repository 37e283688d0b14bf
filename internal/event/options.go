package event

// PanicHandler is called when a handler panics.
type PanicHandler func(ev Event, recovered any)

// BusOption configures an event Bus.
type BusOption func(*Bus)

// WithPanicHandler sets the panic handler for the bus.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(b *Bus) {
		if h != nil {
			b.panicHandler = h
		}
	}
}

// WithSource sets the default Source for events published without one.
func WithSource(source string) BusOption {
	return func(b *Bus) {
		b.source = source
	}
}
