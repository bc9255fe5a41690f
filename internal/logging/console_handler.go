package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// lineHandler writes one human-readable line per record:
//
//	2026-01-02T15:04:05Z INFO  [harvest] release persisted title="OK Computer" year=1997
//
// Attributes attached with WithAttrs are rendered once and reused, so child
// loggers built per artist or release group stay cheap.
type lineHandler struct {
	out       *syncWriter
	level     slog.Leveler
	addSource bool

	component string
	prefix    string // group path applied to later keys, dot-terminated
	preset    []byte // pre-rendered " key=value" pairs
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(p)
	return err
}

func newLineHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return &lineHandler{out: &syncWriter{w: w}, level: level, addSource: addSource}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	buf := make([]byte, 0, 160+len(h.preset))
	buf = ts.UTC().AppendFormat(buf, time.RFC3339)
	buf = append(buf, ' ')
	buf = append(buf, levelTag(r.Level)...)

	component := h.component
	var body []byte
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == FieldComponent && h.prefix == "" {
			if component == "" {
				component = plainValue(a.Value)
			}
			return true
		}
		body = appendAttr(body, h.prefix, a)
		return true
	})

	if component != "" {
		buf = append(buf, " ["...)
		buf = append(buf, component...)
		buf = append(buf, ']')
	}
	buf = append(buf, ' ')
	if msg := strings.TrimSpace(r.Message); msg != "" {
		buf = append(buf, msg...)
	} else {
		buf = append(buf, "(no message)"...)
	}

	if h.addSource && r.PC != 0 {
		if src := r.Source(); src != nil && src.File != "" {
			buf = append(buf, " ("...)
			buf = append(buf, filepath.Base(src.File)...)
			buf = append(buf, ':')
			buf = strconv.AppendInt(buf, int64(src.Line), 10)
			buf = append(buf, ')')
		}
	}

	buf = append(buf, h.preset...)
	buf = append(buf, body...)
	buf = append(buf, '\n')
	return h.out.write(buf)
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.preset = append([]byte(nil), h.preset...)
	for _, a := range attrs {
		if a.Key == FieldComponent && h.prefix == "" {
			next.component = plainValue(a.Value)
			continue
		}
		next.preset = appendAttr(next.preset, h.prefix, a)
	}
	return &next
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	v := a.Value.Resolve()
	if a.Key == "" && v.Kind() != slog.KindGroup {
		return buf
	}
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			buf = appendAttr(buf, inner, ga)
		}
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return appendValue(buf, v)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().UTC().AppendFormat(buf, time.RFC3339)
	default:
		return appendText(buf, plainValue(v))
	}
}

// appendText quotes s when it would otherwise break key=value parsing. Artist
// names and titles routinely contain spaces and non-ASCII letters; only the
// former forces quoting.
func appendText(buf []byte, s string) []byte {
	if s == "" || !utf8.ValidString(s) || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"' || r == utf8.RuneError
	}) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func plainValue(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() != slog.KindAny {
		return v.String()
	}
	switch x := v.Any().(type) {
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN "
	case level >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}
