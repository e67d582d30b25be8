package models

import (
	"time"

	"github.com/smazurov/camnode/internal/events"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"3f2a9c1d0b7e" doc:"Git commit the binary was built from"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target OS and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// Session status models
type ROIData struct {
	Width   int `json:"width" example:"2064" doc:"Region width in pixels"`
	Height  int `json:"height" example:"1504" doc:"Region height in pixels"`
	OffsetX int `json:"offset_x" example:"1032" doc:"Horizontal offset in pixels"`
	OffsetY int `json:"offset_y" example:"752" doc:"Vertical offset in pixels"`
}

type ExposureData struct {
	RequestedUS float64 `json:"requested_us" example:"100000" doc:"Requested exposure in microseconds"`
	AppliedUS   float64 `json:"applied_us" example:"100000" doc:"Exposure read back from the camera"`
	MinUS       float64 `json:"min_us" example:"64" doc:"Camera minimum exposure"`
	MaxUS       float64 `json:"max_us" example:"10000000" doc:"Camera maximum exposure"`
	Accepted    bool    `json:"accepted" doc:"Whether the requested value was within range"`
}

type CounterData struct {
	Delivered        uint64 `json:"delivered" example:"120" doc:"Frames delivered by the camera"`
	Accepted         uint64 `json:"accepted" example:"118" doc:"Complete frames snapshotted for saving"`
	Rejected         uint64 `json:"rejected" example:"2" doc:"Frames dropped for a bad receive status"`
	DroppedAfterStop uint64 `json:"dropped_after_stop" example:"0" doc:"Frames that arrived after the queue closed"`
	Saved            uint64 `json:"saved" example:"117" doc:"Artifacts written"`
	WriteFailures    uint64 `json:"write_failures" example:"0" doc:"Artifacts that failed to write"`
	LastSequence     uint64 `json:"last_sequence" example:"117" doc:"Sequence number of the last processed snapshot"`
	Triggers         uint64 `json:"triggers" example:"120" doc:"Software triggers accepted by the camera"`
	TriggerErrors    uint64 `json:"trigger_errors" example:"0" doc:"Software triggers the camera rejected"`
}

type StatusData struct {
	CameraID       string        `json:"camera_id" example:"DEV_1AB22C00041B" doc:"Camera identifier"`
	State          string        `json:"state" example:"running" enum:"created,configured,running,stopped" doc:"Session lifecycle state"`
	Mode           string        `json:"mode" example:"fixed" enum:"fixed,trigger,trigger_keyboard,exposure" doc:"Acquisition mode"`
	ROI            ROIData       `json:"roi" doc:"Applied region of interest"`
	FrameRate      float64       `json:"frame_rate,omitempty" example:"5" doc:"Applied frame rate in fixed mode"`
	Exposure       *ExposureData `json:"exposure,omitempty" doc:"Exposure configuration in exposure mode"`
	Counters       CounterData   `json:"counters" doc:"Pipeline counters"`
	QueueDepth     int           `json:"queue_depth" example:"1" doc:"Snapshots waiting to be saved"`
	QueueHighWater int           `json:"queue_high_water" example:"4" doc:"Largest queue depth seen"`
	StartedAt      *time.Time    `json:"started_at,omitempty" doc:"When acquisition started"`
	StoppedAt      *time.Time    `json:"stopped_at,omitempty" doc:"When acquisition stopped"`
}

type StatusResponse struct {
	Body StatusData
}

// Trigger models
type TriggerData struct {
	Source    string `json:"source" example:"api" doc:"Trigger source recorded for this request"`
	Triggers  uint64 `json:"triggers" example:"12" doc:"Accepted triggers after this request"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"When the trigger was issued"`
}

type TriggerResponse struct {
	Body TriggerData
}

// Log models
type LogsInput struct {
	Module string `query:"module" example:"acquisition" doc:"Only return entries from this module"`
	Level  string `query:"level" enum:"debug,info,warn,error" doc:"Minimum level to return"`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Maximum number of most recent entries"`
}

type LogsData struct {
	Entries []events.LogEntryEvent `json:"entries" doc:"Log entries, oldest first"`
	Count   int                    `json:"count" example:"100" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
