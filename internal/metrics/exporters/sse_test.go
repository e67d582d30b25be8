package exporters

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/camnode/internal/events"
	"github.com/smazurov/camnode/internal/metrics"
)

// recorder collects published events for one camera.
type recorder struct {
	mu       sync.Mutex
	cameraID string
	got      []events.PipelineMetricsEvent
	notify   chan struct{}
}

func newRecorder(cameraID string) *recorder {
	return &recorder{cameraID: cameraID, notify: make(chan struct{}, 1)}
}

func (r *recorder) Publish(ev events.Event) {
	pm, ok := ev.(events.PipelineMetricsEvent)
	if !ok || pm.CameraID != r.cameraID {
		return
	}
	r.mu.Lock()
	r.got = append(r.got, pm)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *recorder) events() []events.PipelineMetricsEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.PipelineMetricsEvent(nil), r.got...)
}

func cleanCamera(t *testing.T, cameraID string) {
	t.Helper()
	metrics.DeletePipelineMetrics(cameraID)
	t.Cleanup(func() { metrics.DeletePipelineMetrics(cameraID) })
}

func TestSSEExporterPublishesCounters(t *testing.T) {
	const cameraID = "DEV_SSE_COUNTERS"
	cleanCamera(t, cameraID)

	for range 3 {
		metrics.RecordDelivered(cameraID)
	}
	metrics.RecordDropped(cameraID, "incomplete")
	metrics.RecordSaved(cameraID, "png", 2*time.Millisecond)
	metrics.SetQueueDepth(cameraID, 1, 4)

	rec := newRecorder(cameraID)
	exporter := NewSSEExporter(rec)
	exporter.interval = 20 * time.Millisecond
	exporter.Start(context.Background())
	defer exporter.Stop()

	select {
	case <-rec.notify:
	case <-time.After(time.Second):
		t.Fatal("no metrics published")
	}

	ev := rec.events()[0]
	want := events.PipelineMetricsEvent{
		EventType:      "pipeline_metrics",
		CameraID:       cameraID,
		FPS:            "0.00",
		Delivered:      "3",
		Saved:          "1",
		Dropped:        "1",
		WriteFailures:  "0",
		QueueDepth:     "1",
		QueueHighWater: "4",
	}
	if ev != want {
		t.Errorf("event = %+v\nwant    %+v", ev, want)
	}
}

func TestSSEExporterDerivesRate(t *testing.T) {
	const cameraID = "DEV_SSE_RATE"
	cleanCamera(t, cameraID)

	rec := newRecorder(cameraID)
	exporter := NewSSEExporter(rec)
	start := time.Now()

	metrics.RecordDelivered(cameraID)
	exporter.publish(start)
	for range 10 {
		metrics.RecordDelivered(cameraID)
	}
	exporter.publish(start.Add(2 * time.Second))

	got := rec.events()
	if len(got) != 2 || got[0].FPS != "0.00" || got[1].FPS != "5.00" {
		t.Fatalf("events = %+v", got)
	}
	if m := metrics.GetPipelineMetrics(cameraID); m == nil || m.FPS != 5 {
		t.Errorf("cached FPS = %+v, want 5", m)
	}
}

func TestSSEExporterStop(t *testing.T) {
	const cameraID = "DEV_SSE_STOP"
	cleanCamera(t, cameraID)
	metrics.RecordDelivered(cameraID)

	NewSSEExporter(newRecorder(cameraID)).Stop()

	rec := newRecorder(cameraID)
	exporter := NewSSEExporter(rec)
	exporter.interval = 5 * time.Millisecond
	exporter.Start(context.Background())
	<-rec.notify

	exporter.Stop()
	exporter.Stop()
	n := len(rec.events())
	time.Sleep(30 * time.Millisecond)
	if after := len(rec.events()); after != n {
		t.Errorf("%d events published after Stop", after-n)
	}
}

func TestSSEExporterStopsWithContext(t *testing.T) {
	exporter := NewSSEExporter(newRecorder("none"))
	exporter.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	exporter.Start(ctx)
	cancel()

	select {
	case <-exporter.done:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on context cancel")
	}
}
