// Package logging sets up bdx's structured run logger: a slog logger
// fanned out to stderr and, optionally, a log file, following the
// teacher-adjacent enrichment repo's cobra+viper CLI conventions.
package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Options configures New.
type Options struct {
	Verbose bool
	LogFile string // optional; "" disables the file sink
}

// New builds the run logger. Per-file FileErrors are logged at Warn,
// run summaries at Info, verbose per-symbol detail (if ever needed)
// at Debug (spec §7 "logged per-file, does not abort the run").
func New(opts Options) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}

	closeFn := func() error { return nil }
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		closeFn = f.Close
	}

	return slog.New(slogmulti.Fanout(handlers...)), closeFn, nil
}

// Discard is a logger that drops everything, used by callers (tests,
// library consumers) that don't want bdx's run logging.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
