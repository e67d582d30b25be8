package logging

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// FileTimeLayout is the timestamp layout of session log lines.
const FileTimeLayout = "2006-01-02 15:04:05.000"

// FileHandler writes records as "[2006-01-02 15:04:05.000 - INFO] message key=value".
// The module attribute is left out so lines match the session log format.
type FileHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	scope attrScope
}

// NewFileHandler creates a handler writing session log lines to w.
func NewFileHandler(w io.Writer, level slog.Leveler) *FileHandler {
	return &FileHandler{mu: &sync.Mutex{}, w: w, level: level}
}

// Enabled implements slog.Handler.
func (h *FileHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *FileHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(r.Time.Format(FileTimeLayout))
	sb.WriteString(" - ")
	sb.WriteString(strings.ToUpper(levelName(r.Level)))
	sb.WriteString("] ")
	sb.WriteString(r.Message)
	h.scope.walk(r, func(path []string, a slog.Attr) {
		if isModule(path, a) {
			return
		}
		value := valueText(a.Value)
		if value == "" || strings.ContainsAny(value, " =\"\t\n") {
			value = strconv.Quote(value)
		}
		sb.WriteByte(' ')
		sb.WriteString(joinKey(path, a.Key, "."))
		sb.WriteByte('=')
		sb.WriteString(value)
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *FileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.scope = h.scope.withAttrs(attrs)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *FileHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.scope = h.scope.withGroup(name)
	return &clone
}
