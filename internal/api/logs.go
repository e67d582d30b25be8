package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/camnode/internal/api/models"
	"github.com/smazurov/camnode/internal/events"
	"github.com/smazurov/camnode/internal/logging"
)

// NewLogEvent converts a buffered log entry to its event form.
func NewLogEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Seq:        entry.Seq,
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

func levelRank(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return slog.LevelDebug
	}
	return l
}

// recentLogs filters the ring buffer, keeping the newest limit entries.
func recentLogs(entries []logging.LogEntry, module, level string, limit int) []events.LogEntryEvent {
	minLevel := slog.LevelDebug
	if level != "" {
		minLevel = levelRank(level)
	}

	out := make([]events.LogEntryEvent, 0, len(entries))
	for _, entry := range entries {
		if module != "" && entry.Module != module {
			continue
		}
		if levelRank(entry.Level) < minLevel {
			continue
		}
		out = append(out, NewLogEvent(entry))
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// registerLogRoutes registers the recent log and log streaming endpoints.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Most recent entries from the in-memory log buffer",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *models.LogsInput) (*models.LogsResponse, error) {
		var entries []logging.LogEntry
		if buffer := logging.GetBuffer(); buffer != nil {
			entries = buffer.ReadAll()
		}
		logs := recentLogs(entries, input.Module, input.Level, input.Limit)
		return &models.LogsResponse{
			Body: models.LogsData{
				Entries: logs,
				Count:   len(logs),
			},
		}, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Buffered log entries followed by new ones as they are written",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Subscribe first so nothing logged during the replay is missed.
		eventCh := make(chan any, 100)
		defer events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)()

		var replayed uint64
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.ReadAll() {
				if err := send.Data(NewLogEvent(entry)); err != nil {
					return
				}
				replayed = entry.Seq
			}
		}

		forward(ctx, eventCh, send, func(ev any) bool {
			e, ok := ev.(events.LogEntryEvent)
			return ok && (e.Seq == 0 || e.Seq > replayed)
		})
	})
}
