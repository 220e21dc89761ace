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

// Level colours for terminals.
var levelColors = map[string]string{
	"DEBUG": "\x1b[2m",
	"INFO":  "\x1b[36m",
	"WARN":  "\x1b[33m",
	"ERROR": "\x1b[31m",
}

const (
	colorReset = "\x1b[0m"
	colorDim   = "\x1b[2m"
)

// field is a flattened attribute; nested groups are joined with dots.
type field struct {
	key   string
	value slog.Value
}

// consoleHandler writes one human readable line per record:
//
//	2026-01-02T15:04:05Z INFO [proj_12/voice] workflow: stage completed key=value
type consoleHandler struct {
	out        *lockedWriter
	level      slog.Leveler
	withSource bool
	color      bool
	prefix     string
	preset     []field
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(p)
	return err
}

func newConsoleHandler(w io.Writer, level slog.Leveler, withSource, color bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, withSource: withSource, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	fields := append([]field(nil), h.preset...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.prefix, a)
		return true
	})

	// project, step and component move into the line header.
	var project, step, component string
	rest := fields[:0]
	for _, f := range fields {
		var target *string
		switch f.key {
		case FieldProjectID:
			target = &project
		case FieldStep:
			target = &step
		case FieldComponent:
			target = &component
		default:
			rest = append(rest, f)
			continue
		}
		if *target == "" {
			*target = plainText(f.value)
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	h.paint(&b, levelName(r.Level), levelColors[levelName(r.Level)])
	if subject := strings.Trim(project+"/"+step, "/"); subject != "" {
		b.WriteString(" [" + subject + "]")
	}
	b.WriteByte(' ')
	if component != "" {
		b.WriteString(component + ": ")
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)
	if h.withSource {
		if src := recordSource(r); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range rest {
		b.WriteByte(' ')
		h.paint(&b, f.key+"=", colorDim)
		b.WriteString(quoteIfNeeded(maskedText(f.key, f.value)))
	}
	b.WriteByte('\n')
	return h.out.write([]byte(b.String()))
}

func (h *consoleHandler) paint(b *strings.Builder, text, color string) {
	if !h.color || color == "" {
		b.WriteString(text)
		return
	}
	b.WriteString(color + text + colorReset)
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, a := range attrs {
		next.preset = appendField(next.preset, h.prefix, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

func appendField(dst []field, prefix string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		return append(dst, field{key: joinKey(prefix, a.Key), value: v})
	}
	inner := prefix
	if a.Key != "" {
		inner = joinKey(prefix, a.Key)
	}
	for _, child := range v.Group() {
		dst = appendField(dst, inner, child)
	}
	return dst
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// plainText renders v without quoting.
func plainText(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// maskedText is plainText with credential values replaced.
func maskedText(key string, v slog.Value) string {
	text := plainText(v)
	if text != "" && isSecretKey(key) {
		return redacted
	}
	return text
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " =\"\t\n\r") || strings.IndexFunc(s, func(r rune) bool { return r < ' ' }) >= 0 {
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
