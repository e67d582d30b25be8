package events

// Event type constants for kelindar/event.
const (
	TypeSessionStateChanged uint32 = iota + 1
	TypeFrameSaved
	TypeFrameDropped
	TypeFrameWriteFailed
	TypeTriggerIssued
	TypeLogEntry
	TypePipelineMetrics
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionStateChangedEvent is published on every acquisition lifecycle transition.
type SessionStateChangedEvent struct {
	CameraID  string `json:"camera_id" example:"DEV_1AB22C00041B" doc:"Camera identifier"`
	From      string `json:"from" example:"configured" doc:"Previous state"`
	To        string `json:"to" example:"running" doc:"New state"`
	Mode      string `json:"mode" example:"fixed" doc:"Acquisition mode"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// FrameSavedEvent is published after an artifact has been written.
type FrameSavedEvent struct {
	Sequence   uint64  `json:"sequence" example:"42" doc:"Frame sequence number"`
	Path       string  `json:"path" example:"captures/2025-01-27_103000/frame_000042.png" doc:"Artifact path"`
	Bytes      int64   `json:"bytes" example:"1048576" doc:"Artifact size in bytes"`
	DurationMS float64 `json:"duration_ms" example:"12.5" doc:"Write duration in milliseconds"`
	Timestamp  string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrameSavedEvent.
func (e FrameSavedEvent) Type() uint32 { return TypeFrameSaved }

// FrameDroppedEvent is published when a delivered frame is recycled without a snapshot.
type FrameDroppedEvent struct {
	FrameID   uint64 `json:"frame_id" example:"17" doc:"Device frame identifier"`
	Reason    string `json:"reason" example:"incomplete" doc:"Why the frame was dropped"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrameDroppedEvent.
func (e FrameDroppedEvent) Type() uint32 { return TypeFrameDropped }

// FrameWriteFailedEvent is published when persisting a single frame fails.
type FrameWriteFailedEvent struct {
	Sequence  uint64 `json:"sequence" example:"42" doc:"Frame sequence number"`
	Path      string `json:"path" doc:"Artifact path"`
	Error     string `json:"error" doc:"Failure description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrameWriteFailedEvent.
func (e FrameWriteFailedEvent) Type() uint32 { return TypeFrameWriteFailed }

// TriggerIssuedEvent is published for every software trigger attempt.
type TriggerIssuedEvent struct {
	Source    string `json:"source" example:"keyboard" doc:"Who issued the trigger: keyboard, timer or api"`
	Success   bool   `json:"success" doc:"Whether the device accepted the trigger"`
	Error     string `json:"error,omitempty" doc:"Device error when rejected"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for TriggerIssuedEvent.
func (e TriggerIssuedEvent) Type() uint32 { return TypeTriggerIssued }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"118" doc:"Position in the log buffer, increasing by one per entry"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"acquisition" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// PipelineMetricsEvent is a periodic summary of acquisition counters.
type PipelineMetricsEvent struct {
	EventType      string `json:"type"`
	CameraID       string `json:"camera_id"`
	FPS            string `json:"fps"`
	Delivered      string `json:"delivered"`
	Saved          string `json:"saved"`
	Dropped        string `json:"dropped"`
	WriteFailures  string `json:"write_failures"`
	QueueDepth     string `json:"queue_depth"`
	QueueHighWater string `json:"queue_high_water"`
}

// Type returns the event type identifier for PipelineMetricsEvent.
func (e PipelineMetricsEvent) Type() uint32 { return TypePipelineMetrics }
