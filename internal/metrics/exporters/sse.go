package exporters

import (
	"context"
	"strconv"
	"time"

	"github.com/smazurov/camnode/internal/events"
	"github.com/smazurov/camnode/internal/metrics"
)

// EventPublisher is the part of the event bus the exporter needs.
type EventPublisher interface {
	Publish(ev events.Event)
}

// sample is the delivered count seen for a camera at a tick.
type sample struct {
	delivered uint64
	at        time.Time
}

// SSEExporter publishes a PipelineMetricsEvent per camera on every tick and
// derives the delivery rate from consecutive ticks. The rate is 0 until a
// camera has been seen twice.
type SSEExporter struct {
	bus      EventPublisher
	interval time.Duration
	samples  map[string]sample

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSSEExporter creates an exporter ticking once per second.
func NewSSEExporter(bus EventPublisher) *SSEExporter {
	return &SSEExporter{
		bus:      bus,
		interval: time.Second,
		samples:  make(map[string]sample),
	}
}

// Start runs the export loop until ctx ends or Stop is called.
func (s *SSEExporter) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.publish(now)
			}
		}
	}()
}

// Stop ends the loop and waits for it. It may be called more than once, or
// without Start.
func (s *SSEExporter) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *SSEExporter) publish(now time.Time) {
	for cameraID, m := range metrics.GetAllPipelineMetrics() {
		if prev, ok := s.samples[cameraID]; ok {
			if elapsed := now.Sub(prev.at).Seconds(); elapsed > 0 && m.Delivered >= prev.delivered {
				m.FPS = float64(m.Delivered-prev.delivered) / elapsed
				metrics.SetCaptureFPS(cameraID, m.FPS)
			}
		}
		s.samples[cameraID] = sample{delivered: m.Delivered, at: now}
		s.bus.Publish(pipelineEvent(cameraID, m))
	}
}

func pipelineEvent(cameraID string, m *metrics.PipelineMetrics) events.PipelineMetricsEvent {
	u := func(n uint64) string { return strconv.FormatUint(n, 10) }
	return events.PipelineMetricsEvent{
		EventType:      "pipeline_metrics",
		CameraID:       cameraID,
		FPS:            strconv.FormatFloat(m.FPS, 'f', 2, 64),
		Delivered:      u(m.Delivered),
		Saved:          u(m.Saved),
		Dropped:        u(m.Dropped),
		WriteFailures:  u(m.WriteFailures),
		QueueDepth:     strconv.Itoa(m.QueueDepth),
		QueueHighWater: strconv.Itoa(m.QueueHighWater),
	}
}

// GetEventTypes names the SSE events this exporter produces.
func GetEventTypes() map[string]any {
	return map[string]any{
		"pipeline-metrics": events.PipelineMetricsEvent{},
	}
}
