package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

const journalIdentifier = "camnode"

// journal.Send adds MESSAGE and PRIORITY itself; attributes become extra fields.
var journalPriorities = []struct {
	level    slog.Level
	priority journal.Priority
}{
	{slog.LevelError, journal.PriErr},
	{slog.LevelWarn, journal.PriWarning},
	{slog.LevelInfo, journal.PriInfo},
}

// JournalHandler sends records to the systemd journal. Attribute keys become
// upper-case fields with group paths joined by underscores, so
// journalctl MODULE=persist works.
type JournalHandler struct {
	level slog.Leveler
	scope attrScope
}

// NewJournalHandler creates a handler for the local journal socket.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level}
}

// Enabled implements slog.Handler.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := map[string]string{"SYSLOG_IDENTIFIER": journalIdentifier}
	h.scope.walk(r, func(path []string, a slog.Attr) {
		if name := journalField(joinKey(path, a.Key, "_")); name != "" {
			fields[name] = valueText(a.Value)
		}
	})
	if err := journal.Send(r.Message, journalPriority(r.Level), fields); err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &JournalHandler{level: h.level, scope: h.scope.withAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	return &JournalHandler{level: h.level, scope: h.scope.withGroup(name)}
}

func journalPriority(level slog.Level) journal.Priority {
	for _, p := range journalPriorities {
		if level >= p.level {
			return p.priority
		}
	}
	return journal.PriDebug
}

// journalField maps key onto the journal's field alphabet: upper-case letters,
// digits and underscores, not starting with an underscore.
func journalField(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	return strings.TrimLeft(name, "_")
}

// IsJournalAvailable reports whether the journal socket can be reached.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
