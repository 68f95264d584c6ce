package logging

import (
	"fmt"
	"io"
)

// Options selects and configures a Logger implementation.
type Options struct {
	Backend string // slog (default) or zap
	Level   string // debug, info, warn, error
	Format  string // json (default) or text
}

// New returns the Logger described by opts. Slog output goes to w; zap
// writes to stderr as configured by its presets.
func New(w io.Writer, opts Options) (Logger, error) {
	switch opts.Backend {
	case "", "slog":
		return NewSlogFromOptions(w, opts.Level, opts.Format), nil
	case "zap":
		return NewZapFromOptions(opts.Level, opts.Format)
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}
