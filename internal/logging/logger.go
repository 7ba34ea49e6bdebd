package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"assetlib/internal/config"
)

const logFileName = "assetlib.log"

// Options describes logger construction parameters.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

type handlerFactory func(w io.Writer, level slog.Leveler, source bool) slog.Handler

var formats = map[string]handlerFactory{
	"console": newConsoleHandler,
	"json":    newJSONHandler,
}

// New builds a logger writing to every distinct sink named in opts.
// Source locations are attached at debug level or in development mode.
func New(opts Options) (*slog.Logger, error) {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	factory, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))

	sinks := opts.OutputPaths
	if len(sinks) == 0 {
		sinks = []string{"stdout"}
	}
	errSinks := opts.ErrorOutputPaths
	if len(errSinks) == 0 {
		errSinks = []string{"stderr"}
	}
	w, err := openSinks(append(append([]string(nil), sinks...), errSinks...))
	if err != nil {
		return nil, err
	}

	source := opts.Development || level.Level() <= slog.LevelDebug
	return slog.New(factory(w, level, source)), nil
}

// NewFromConfig logs to stderr, keeping stdout free for command output,
// and mirrors every record into paths.log_dir/assetlib.log when set.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	opts := Options{Level: "info", Format: "console", OutputPaths: []string{"stderr"}}
	if cfg == nil {
		opts.ErrorOutputPaths = opts.OutputPaths
		return New(opts)
	}
	opts.Level = cfg.Logging.Level
	opts.Format = cfg.Logging.Format
	if dir := cfg.Paths.LogDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		opts.OutputPaths = append(opts.OutputPaths, filepath.Join(dir, logFileName))
	}
	opts.ErrorOutputPaths = opts.OutputPaths
	return New(opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// openSinks resolves sink names to writers. "stdout" and "stderr" map to
// the process streams; anything else is appended to as a file.
func openSinks(names []string) (io.Writer, error) {
	var writers []io.Writer
	opened := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || opened[name] {
			continue
		}
		opened[name] = true

		var w io.Writer
		switch name {
		case "stdout":
			w = os.Stdout
		case "stderr":
			w = os.Stderr
		default:
			f, err := appendFile(name)
			if err != nil {
				return nil, err
			}
			w = f
		}
		writers = append(writers, w)
	}

	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func appendFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

func newJSONHandler(w io.Writer, level slog.Leveler, source bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   source,
		ReplaceAttr: jsonAttr,
	})
}

// jsonAttr renames time to ts in RFC3339 UTC, lowercases levels and
// shortens source locations to file:line.
func jsonAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
		if a.Value.Kind() == slog.KindTime {
			a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
		}
	case slog.LevelKey:
		a.Value = slog.StringValue(strings.ToLower(a.Value.String()))
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			a.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return a
}
