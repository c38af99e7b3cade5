package internal

import "github.com/kielbrand/blinkcopy/internal/picker"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	selector picker.Selector
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSelector replaces the interactive flat-date selector. Tests inject
// scripted selectors here.
func WithSelector(sel picker.Selector) Option {
	return func(a *application) {
		a.selector = sel
	}
}
