package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/camnode/internal/logging"
)

// quietPaths are polled often enough that they only log at debug.
var quietPaths = map[string]bool{
	"/api/health": true,
	"/api/status": true,
}

// requestLevel picks the log level of a finished request.
func requestLevel(method, path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case method == http.MethodOptions, quietPaths[path]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// HTTPLoggingMiddleware logs one line per request once the handler returns.
// SSE requests therefore log when the client disconnects.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	u := ctx.URL()
	attrs := []slog.Attr{
		slog.String("method", ctx.Method()),
		slog.String("path", u.Path),
		slog.Int("status", ctx.Status()),
		slog.Duration("duration", time.Since(start)),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if op := ctx.Operation(); op != nil && op.OperationID != "" {
		attrs = append(attrs, slog.String("operation", op.OperationID))
	}
	if q := u.Query(); len(q) > 0 {
		if q.Has("auth") {
			q.Set("auth", "redacted")
		}
		attrs = append(attrs, slog.String("query", q.Encode()))
	}
	if ua := ctx.Header("User-Agent"); ua != "" {
		attrs = append(attrs, slog.String("user_agent", ua))
	}

	level := requestLevel(ctx.Method(), u.Path, ctx.Status())
	logging.GetLogger("http").LogAttrs(ctx.Context(), level, "HTTP request", attrs...)
}
