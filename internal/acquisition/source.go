package acquisition

import (
	"sync/atomic"
	"time"

	"github.com/smazurov/camnode/internal/camera"
	"github.com/smazurov/camnode/internal/events"
	"github.com/smazurov/camnode/internal/logging"
	"github.com/smazurov/camnode/internal/metrics"
)

// Drop reasons reported in events and metrics.
const (
	DropIncomplete = "incomplete"
	DropInvalid    = "invalid"
	DropStopped    = "stopped"
)

// SourceStats are the producer's counters.
type SourceStats struct {
	Delivered uint64 `json:"delivered"`
	Accepted  uint64 `json:"accepted"`
	Rejected  uint64 `json:"rejected"`
	Dropped   uint64 `json:"dropped_after_stop"`
}

// Source is the delivery callback. OnFrame runs on the camera's goroutine.
type Source struct {
	link     camera.Link
	queue    *Queue
	cameraID string
	bus      *events.Bus
	logger   logging.Logger
	frames   logging.Logger

	// seq is written only by the delivery goroutine; atomic for Stats readers.
	seq       atomic.Uint64
	delivered atomic.Uint64
	rejected  atomic.Uint64
	dropped   atomic.Uint64
}

// NewSource creates a producer pushing into queue and recycling through link.
// frames receives one info line per accepted frame; nil loggers select the
// "acquisition" and "frames" modules.
func NewSource(link camera.Link, queue *Queue, bus *events.Bus, logger, frames logging.Logger) *Source {
	if logger == nil {
		logger = logging.GetLogger("acquisition")
	}
	if frames == nil {
		frames = logging.GetLogger("frames")
	}
	return &Source{
		link:     link,
		queue:    queue,
		cameraID: link.ID(),
		bus:      bus,
		logger:   logger,
		frames:   frames,
	}
}

// OnFrame handles one delivery. The device buffer is handed back only after
// its payload has been copied into a snapshot.
func (s *Source) OnFrame(f *camera.Frame) {
	s.delivered.Add(1)
	metrics.RecordDelivered(s.cameraID)

	if f.Status != camera.FrameComplete {
		s.reject(f, DropIncomplete, "status", f.Status.String())
		return
	}

	seq := s.seq.Load() + 1
	snap, err := NewSnapshot(seq, f)
	if err != nil {
		s.reject(f, DropInvalid, "error", err)
		return
	}

	if !s.queue.Push(snap) {
		s.dropped.Add(1)
		s.drop(f.ID, DropStopped)
		s.requeue(f)
		return
	}
	s.seq.Store(seq)
	s.requeue(f)

	s.frames.Info("Frame captured", "seq", seq, "frame_id", f.ID)
}

func (s *Source) reject(f *camera.Frame, reason string, args ...any) {
	s.rejected.Add(1)
	s.logger.Warn("Frame dropped", append([]any{"frame_id", f.ID, "reason", reason}, args...)...)
	s.drop(f.ID, reason)
	s.requeue(f)
}

func (s *Source) drop(frameID uint64, reason string) {
	metrics.RecordDropped(s.cameraID, reason)
	s.bus.Publish(events.FrameDroppedEvent{
		FrameID:   frameID,
		Reason:    reason,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
}

func (s *Source) requeue(f *camera.Frame) {
	if err := s.link.QueueFrame(f); err != nil {
		s.logger.Error("Failed to return frame to camera", "frame_id", f.ID, "error", err)
	}
}

// Stats returns the current counters. Accepted is also the last sequence number issued.
func (s *Source) Stats() SourceStats {
	return SourceStats{
		Delivered: s.delivered.Load(),
		Accepted:  s.seq.Load(),
		Rejected:  s.rejected.Load(),
		Dropped:   s.dropped.Load(),
	}
}
