package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coverharvest/internal/config"
)

// LogFileName is the file written inside the configured log directory.
const LogFileName = "coverharvest.log"

// Options describes logger construction parameters. OutputPaths accepts the
// special names "stdout" and "stderr" next to file paths; an empty list logs
// to stderr.
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
	Development bool
}

// New constructs a logger from opts. Caller locations are attached in
// development mode and whenever debug output is enabled.
func New(opts Options) (*slog.Logger, error) {
	level := levelFromString(opts.Level)
	out, err := resolveOutputs(opts.OutputPaths)
	if err != nil {
		return nil, err
	}
	withSource := opts.Development || level <= slog.LevelDebug

	switch f := strings.ToLower(strings.TrimSpace(opts.Format)); f {
	case "", "console", "text":
		return slog.New(newLineHandler(out, level, withSource)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:       level,
			AddSource:   withSource,
			ReplaceAttr: shortenJSON,
		})), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig logs to stderr and, when cfg names a log directory, appends
// to LogFileName inside it as well.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info"})
	}
	outputs := []string{"stderr"}
	if dir := cfg.Paths.LogDir; dir != "" {
		outputs = append(outputs, filepath.Join(dir, LogFileName))
	}
	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
}

func levelFromString(level string) slog.Level {
	var l slog.Level
	switch v := strings.ToLower(strings.TrimSpace(level)); v {
	case "warning":
		return slog.LevelWarn
	case "":
		return slog.LevelInfo
	default:
		if err := l.UnmarshalText([]byte(v)); err != nil {
			return slog.LevelInfo
		}
		return l
	}
}

var stdStreams = map[string]io.Writer{
	"stdout": os.Stdout,
	"stderr": os.Stderr,
}

func resolveOutputs(paths []string) (io.Writer, error) {
	var writers []io.Writer
	used := make(map[string]bool, len(paths))
	for _, raw := range paths {
		p := strings.TrimSpace(raw)
		if p == "" || used[p] {
			continue
		}
		used[p] = true
		if w, ok := stdStreams[p]; ok {
			writers = append(writers, w)
			continue
		}
		f, err := openLogFile(p)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
	}
	if len(writers) == 0 {
		return os.Stderr, nil
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

// shortenJSON renames time to ts in UTC, lowercases the level and trims the
// source down to file:line.
func shortenJSON(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		if a.Value.Kind() == slog.KindTime {
			return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339))
		}
		a.Key = "ts"
	case slog.LevelKey:
		a.Value = slog.StringValue(strings.ToLower(a.Value.String()))
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			a.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return a
}
