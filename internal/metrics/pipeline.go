// Package metrics provides Prometheus metrics for the acquisition pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "camnode"

var (
	framesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "acquisition",
		Name:      "frames_delivered_total",
		Help:      "Frames delivered by the camera",
	}, []string{"camera_id"})

	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "acquisition",
		Name:      "frames_dropped_total",
		Help:      "Delivered frames recycled without a snapshot",
	}, []string{"camera_id", "reason"})

	framesSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "persist",
		Name:      "frames_saved_total",
		Help:      "Artifacts written to storage",
	}, []string{"camera_id", "format"})

	writeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "persist",
		Name:      "write_failures_total",
		Help:      "Frames that could not be persisted",
	}, []string{"camera_id"})

	writeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "persist",
		Name:      "write_duration_seconds",
		Help:      "Time spent converting and writing one artifact",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"camera_id", "format"})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Snapshots waiting to be persisted",
	}, []string{"camera_id"})

	queueHighWater = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "queue",
		Name:      "high_water",
		Help:      "Largest queue depth seen this session",
	}, []string{"camera_id"})

	triggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "acquisition",
		Name:      "triggers_total",
		Help:      "Software trigger commands issued",
	}, []string{"camera_id", "source", "result"})

	captureFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "acquisition",
		Name:      "fps",
		Help:      "Observed delivery rate",
	}, []string{"camera_id"})

	sessionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "state",
		Help:      "Lifecycle state (0 created, 1 configured, 2 running, 3 stopped)",
	}, []string{"camera_id"})

	// Local cache for SSE exporter and status access.
	pipelineCache   = make(map[string]*PipelineMetrics)
	pipelineCacheMu sync.RWMutex
)

// PipelineMetrics holds current counter values for one camera.
type PipelineMetrics struct {
	Delivered      uint64
	Dropped        uint64
	Saved          uint64
	WriteFailures  uint64
	Triggers       uint64
	QueueDepth     int
	QueueHighWater int
	FPS            float64
}

// RecordDelivered counts a frame handed over by the device.
func RecordDelivered(cameraID string) {
	framesDelivered.WithLabelValues(cameraID).Inc()
	updateCache(cameraID, func(m *PipelineMetrics) { m.Delivered++ })
}

// RecordDropped counts a frame that produced no snapshot.
func RecordDropped(cameraID, reason string) {
	framesDropped.WithLabelValues(cameraID, reason).Inc()
	updateCache(cameraID, func(m *PipelineMetrics) { m.Dropped++ })
}

// RecordSaved counts a written artifact and its write duration.
func RecordSaved(cameraID, format string, d time.Duration) {
	framesSaved.WithLabelValues(cameraID, format).Inc()
	writeDuration.WithLabelValues(cameraID, format).Observe(d.Seconds())
	updateCache(cameraID, func(m *PipelineMetrics) { m.Saved++ })
}

// RecordWriteFailure counts a frame that could not be written.
func RecordWriteFailure(cameraID string) {
	writeFailures.WithLabelValues(cameraID).Inc()
	updateCache(cameraID, func(m *PipelineMetrics) { m.WriteFailures++ })
}

// RecordTrigger counts a software trigger attempt.
func RecordTrigger(cameraID, source string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	triggers.WithLabelValues(cameraID, source, result).Inc()
	updateCache(cameraID, func(m *PipelineMetrics) { m.Triggers++ })
}

// SetQueueDepth records the current and peak queue depth.
func SetQueueDepth(cameraID string, depth, highWater int) {
	queueDepth.WithLabelValues(cameraID).Set(float64(depth))
	queueHighWater.WithLabelValues(cameraID).Set(float64(highWater))
	updateCache(cameraID, func(m *PipelineMetrics) {
		m.QueueDepth = depth
		m.QueueHighWater = highWater
	})
}

// SetCaptureFPS sets the observed delivery rate.
func SetCaptureFPS(cameraID string, fps float64) {
	captureFPS.WithLabelValues(cameraID).Set(fps)
	updateCache(cameraID, func(m *PipelineMetrics) { m.FPS = fps })
}

// SetSessionState records the numeric lifecycle state.
func SetSessionState(cameraID string, state int) {
	sessionState.WithLabelValues(cameraID).Set(float64(state))
}

// DeletePipelineMetrics removes all metrics for a camera.
func DeletePipelineMetrics(cameraID string) {
	framesDelivered.DeleteLabelValues(cameraID)
	framesDropped.DeletePartialMatch(prometheus.Labels{"camera_id": cameraID})
	framesSaved.DeletePartialMatch(prometheus.Labels{"camera_id": cameraID})
	writeFailures.DeleteLabelValues(cameraID)
	writeDuration.DeletePartialMatch(prometheus.Labels{"camera_id": cameraID})
	queueDepth.DeleteLabelValues(cameraID)
	queueHighWater.DeleteLabelValues(cameraID)
	triggers.DeletePartialMatch(prometheus.Labels{"camera_id": cameraID})
	captureFPS.DeleteLabelValues(cameraID)
	sessionState.DeleteLabelValues(cameraID)

	pipelineCacheMu.Lock()
	delete(pipelineCache, cameraID)
	pipelineCacheMu.Unlock()
}

// GetPipelineMetrics returns current values for a camera, or nil if none were recorded.
func GetPipelineMetrics(cameraID string) *PipelineMetrics {
	pipelineCacheMu.RLock()
	defer pipelineCacheMu.RUnlock()
	if m, ok := pipelineCache[cameraID]; ok {
		dup := *m
		return &dup
	}
	return nil
}

// GetAllPipelineMetrics returns metrics for all cameras seen this process.
func GetAllPipelineMetrics() map[string]*PipelineMetrics {
	pipelineCacheMu.RLock()
	defer pipelineCacheMu.RUnlock()
	result := make(map[string]*PipelineMetrics, len(pipelineCache))
	for id, m := range pipelineCache {
		dup := *m
		result[id] = &dup
	}
	return result
}

func updateCache(cameraID string, update func(*PipelineMetrics)) {
	pipelineCacheMu.Lock()
	defer pipelineCacheMu.Unlock()
	m, ok := pipelineCache[cameraID]
	if !ok {
		m = &PipelineMetrics{}
		pipelineCache[cameraID] = m
	}
	update(m)
}
