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
)

// consoleHandler writes one human-readable line per record:
//
//	2026-01-02T03:04:05Z INFO packager[AB12CD34EF5AA001/packaging]: copied file path=/lib/a.exr
//
// The component, asset_id and stage fields are lifted into the header and
// never repeated in the trailing key=value list.
type consoleHandler struct {
	out    *syncWriter
	level  slog.Leveler
	fields []field
	groups []string
	source bool
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

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, level slog.Leveler, source bool) slog.Handler {
	return &consoleHandler{out: &syncWriter{w: w}, level: level, source: source}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	fields := append(make([]field, 0, len(h.fields)+record.NumAttrs()), h.fields...)
	record.Attrs(func(a slog.Attr) bool {
		fields = collect(fields, h.groups, a)
		return true
	})

	var hdr header
	rest := fields[:0]
	for _, f := range fields {
		if !hdr.absorb(f) {
			rest = append(rest, f)
		}
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(levelName(record.Level))
	b.WriteByte(' ')
	hdr.writeTo(&b)

	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)

	if h.source && record.PC != 0 {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}

	for _, f := range rest {
		if f.key == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(render(f.value))
	}
	b.WriteByte('\n')

	return h.out.write([]byte(b.String()))
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.derive()
	for _, a := range attrs {
		next.fields = collect(next.fields, next.groups, a)
	}
	return next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.derive()
	next.groups = append(next.groups, name)
	return next
}

func (h *consoleHandler) derive() *consoleHandler {
	return &consoleHandler{
		out:    h.out,
		level:  h.level,
		source: h.source,
		fields: append([]field(nil), h.fields...),
		groups: append([]string(nil), h.groups...),
	}
}

// header holds the fields promoted in front of the message.
type header struct {
	component string
	assetID   string
	stage     string
}

func (hd *header) absorb(f field) bool {
	var slot *string
	switch f.key {
	case FieldComponent:
		slot = &hd.component
	case FieldAssetID:
		slot = &hd.assetID
	case FieldStage:
		slot = &hd.stage
	default:
		return false
	}
	// Innermost value wins: later fields come from narrower scopes.
	*slot = plain(f.value)
	return true
}

func (hd header) writeTo(b *strings.Builder) {
	scope := hd.assetID
	if hd.stage != "" {
		if scope != "" {
			scope += "/"
		}
		scope += hd.stage
	}
	if hd.component == "" && scope == "" {
		return
	}
	b.WriteString(hd.component)
	if scope != "" {
		b.WriteByte('[')
		b.WriteString(scope)
		b.WriteByte(']')
	}
	b.WriteString(": ")
}

// collect flattens a into dst, joining group names with dots.
func collect(dst []field, groups []string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := groups
		if a.Key != "" {
			inner = append(append([]string(nil), groups...), a.Key)
		}
		for _, member := range v.Group() {
			dst = collect(dst, inner, member)
		}
		return dst
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(append(append([]string(nil), groups...), key), ".")
		key = strings.TrimSuffix(key, ".")
	}
	return append(dst, field{key: key, value: v})
}

func plain(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return render(v)
}

func render(v slog.Value) string {
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		return quote(plain(v))
	default:
		return quote(v.String())
	}
}

// quote wraps s when it would otherwise break key=value parsing.
func quote(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
