package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

func newJSONHandler(w io.Writer, level slog.Leveler, withSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   withSource,
		ReplaceAttr: jsonAttr,
	})
}

// jsonAttr shortens the built-in keys to ts/level/msg/src and masks secrets.
func jsonAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey:
			if a.Value.Kind() == slog.KindTime {
				return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
		case slog.LevelKey:
			return slog.String("level", strings.ToLower(a.Value.String()))
		case slog.MessageKey:
			return slog.Attr{Key: "msg", Value: a.Value}
		case slog.SourceKey:
			if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
				return slog.String("src", filepath.Base(src.File)+":"+strconv.Itoa(src.Line))
			}
		}
	}
	if isSecretKey(a.Key) && a.Value.Kind() == slog.KindString && a.Value.String() != "" {
		a.Value = slog.StringValue(redacted)
	}
	return a
}

const redacted = "[redacted]"

// isSecretKey matches attribute keys that carry provider credentials.
func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	if k == "authorization" || k == "password" {
		return true
	}
	for _, suffix := range []string{"api_key", "_token", "_secret", "secret_key", "access_key"} {
		if strings.HasSuffix(k, suffix) {
			return true
		}
	}
	return false
}
