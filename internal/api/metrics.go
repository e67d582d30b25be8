package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/camnode/internal/events"
	"github.com/smazurov/camnode/internal/metrics/exporters"
)

// registerMetricsRoutes exposes the once-per-second pipeline summary as SSE.
// Prometheus scrapes /metrics separately.
func (s *Server) registerMetricsRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "metrics-stream",
		Method:      http.MethodGet,
		Path:        "/api/metrics",
		Summary:     "Pipeline Metrics Stream",
		Description: "Pipeline counters and observed frame rate, published once per second while a session runs",
		Tags:        []string{"metrics"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, exporters.GetEventTypes(), func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 8)
		defer events.SubscribeToChannel[events.PipelineMetricsEvent](s.eventBus, eventCh)()
		forward(ctx, eventCh, send, nil)
	})
}
