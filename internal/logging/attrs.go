package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr aliases slog.Attr so callers only import this package.
type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Error keys err under "error". A nil error is logged explicitly rather than
// dropped so a missing failure cause is visible.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attributes into the variadic form slog.Logger methods accept.
func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i := range attrs {
		args[i] = attrs[i]
	}
	return args
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(discardHandler{})
}

// NewComponentLogger tags logger with the component name. A nil logger yields
// a no-op logger so optional dependencies can be left unset.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop().With(FieldComponent, component)
	}
	return logger.With(FieldComponent, component)
}

var warnDefaults = [...]struct{ key, value string }{
	{FieldErrorHint, "check logs for details"},
	{FieldImpact, "harvest continues"},
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Values the caller supplies win over the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	present := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		present[a.Key] = true
	}
	if !present[FieldEventType] {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	for _, d := range warnDefaults {
		if !present[d.key] {
			attrs = append(attrs, String(d.key, d.value))
		}
	}
	logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}

// DecisionAttrs describes a release group filter outcome, for example
// ("genre", "skip", "no allowed genre").
func DecisionAttrs(filter, result, reason string) []Attr {
	return []Attr{
		String(FieldDecisionType, filter),
		String(FieldDecisionResult, result),
		String(FieldDecisionReason, reason),
	}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool { return false }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }

func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h discardHandler) WithGroup(string) slog.Handler { return h }
