package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Line is a log record addressed to one project.
type Line struct {
	Time      time.Time         `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	Step      string            `json:"step,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Sink receives log lines tagged with a project id.
type Sink interface {
	AppendLog(projectID string, line Line)
}

// sinkHandler forwards records carrying project_id to a Sink. Records
// without a project id are dropped.
type sinkHandler struct {
	sink  Sink
	level slog.Level
	attrs []slog.Attr
	group string
}

// NewSinkHandler returns a handler that forwards project-tagged records at or
// above level to sink.
func NewSinkHandler(sink Sink, level slog.Level) slog.Handler {
	if sink == nil {
		return NoopHandler{}
	}
	return &sinkHandler{sink: sink, level: level}
}

func (h *sinkHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *sinkHandler) Handle(_ context.Context, record slog.Record) error {
	line := Line{
		Time:    record.Time.UTC(),
		Level:   strings.ToLower(record.Level.String()),
		Message: strings.TrimSpace(record.Message),
	}
	var projectID string
	collect := func(attr slog.Attr) {
		key := attr.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		switch key {
		case "":
			return
		case FieldProjectID:
			projectID = plainText(attr.Value)
		case FieldComponent:
			line.Component = plainText(attr.Value)
		case FieldStep:
			line.Step = plainText(attr.Value)
		default:
			if line.Fields == nil {
				line.Fields = make(map[string]string)
			}
			line.Fields[key] = maskedText(key, attr.Value)
		}
	}
	for _, attr := range h.attrs {
		collect(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		collect(attr)
		return true
	})
	if projectID == "" {
		return nil
	}
	h.sink.AppendLog(projectID, line)
	return nil
}

func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *sinkHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		name = clone.group + "." + name
	}
	clone.group = name
	return &clone
}

type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range t {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(teeHandler, len(t))
	for i, h := range t {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	next := make(teeHandler, len(t))
	for i, h := range t {
		next[i] = h.WithGroup(name)
	}
	return next
}

// Tee returns a logger writing to base and to every extra handler.
func Tee(base *slog.Logger, extra ...slog.Handler) *slog.Logger {
	handlers := make(teeHandler, 0, len(extra)+1)
	if base != nil {
		handlers = append(handlers, base.Handler())
	}
	for _, h := range extra {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	switch len(handlers) {
	case 0:
		return NewNop()
	case 1:
		return slog.New(handlers[0])
	}
	return slog.New(handlers)
}
