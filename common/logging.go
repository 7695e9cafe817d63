package common

import (
	"log/slog"
	"os"
)

// LoggingOpts configures the process-wide structured logger.
type LoggingOpts struct {
	// Debug enables debug-level log messages.
	Debug bool

	// JSON switches the output format from text to JSON.
	JSON bool

	// Service is added as a 'service' tag to all log messages.
	Service string

	// Version is added as a 'version' tag to all log messages.
	Version string
}

// SetupLogger creates a slog.Logger writing to stderr according to opts.
func SetupLogger(opts *LoggingOpts) (log *slog.Logger) {
	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}

	if opts.JSON {
		log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	} else {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	}

	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	return log
}
