package acquisition

import (
	"sync/atomic"
	"time"

	"github.com/smazurov/camnode/internal/events"
	"github.com/smazurov/camnode/internal/logging"
	"github.com/smazurov/camnode/internal/metrics"
	"github.com/smazurov/camnode/internal/persist"
)

// Saver persists one frame. *persist.Store implements it.
type Saver interface {
	Save(f persist.Frame) (persist.Artifact, error)
	Format() persist.Format
}

// WorkerStats are the consumer's counters.
type WorkerStats struct {
	Saved        uint64 `json:"saved"`
	Failed       uint64 `json:"failed"`
	LastSequence uint64 `json:"last_sequence"`
}

// Worker drains a Queue on its own goroutine.
type Worker struct {
	queue    *Queue
	saver    Saver
	cameraID string
	bus      *events.Bus
	logger   logging.Logger

	saved   atomic.Uint64
	failed  atomic.Uint64
	lastSeq atomic.Uint64

	started atomic.Bool
	done    chan struct{}
}

// NewWorker creates a consumer for queue.
func NewWorker(queue *Queue, saver Saver, cameraID string, bus *events.Bus, logger logging.Logger) *Worker {
	if logger == nil {
		logger = logging.GetLogger("acquisition")
	}
	return &Worker{
		queue:    queue,
		saver:    saver,
		cameraID: cameraID,
		bus:      bus,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutine. Subsequent calls do nothing.
func (w *Worker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run()
}

// Wait blocks until the queue is closed and drained. It returns immediately
// if the worker was never started.
func (w *Worker) Wait() {
	if !w.started.Load() {
		return
	}
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		snap, ok := w.queue.Pop()
		if !ok {
			return
		}
		metrics.SetQueueDepth(w.cameraID, w.queue.Len(), w.queue.HighWater())
		w.persist(snap)
	}
}

// persist writes one snapshot. Failures are reported and never stop the loop.
func (w *Worker) persist(snap *Snapshot) {
	format := string(w.saver.Format())
	a, err := w.saver.Save(snap.persistFrame())
	w.lastSeq.Store(snap.Sequence)

	if err != nil {
		w.failed.Add(1)
		metrics.RecordWriteFailure(w.cameraID)
		w.logger.Error("Failed to save frame", "seq", snap.Sequence, "path", a.Path, "error", err)
		w.bus.Publish(events.FrameWriteFailedEvent{
			Sequence:  snap.Sequence,
			Path:      a.Path,
			Error:     err.Error(),
			Timestamp: time.Now().Format(time.RFC3339Nano),
		})
		return
	}

	w.saved.Add(1)
	metrics.RecordSaved(w.cameraID, format, a.Duration)
	w.logger.Info("Frame saved", "seq", snap.Sequence, "path", a.Path)
	w.bus.Publish(events.FrameSavedEvent{
		Sequence:   snap.Sequence,
		Path:       a.Path,
		Bytes:      a.Bytes,
		DurationMS: float64(a.Duration.Microseconds()) / 1000,
		Timestamp:  time.Now().Format(time.RFC3339Nano),
	})
}

// Stats returns the current counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Saved:        w.saved.Load(),
		Failed:       w.failed.Load(),
		LastSequence: w.lastSeq.Load(),
	}
}
