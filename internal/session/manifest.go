// Package session records what a capture session did in a TOML manifest
// stored next to its frames.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/camnode/internal/acquisition"
)

// FileName is the manifest file inside the output directory.
const FileName = "session.toml"

// Camera identifies the device used.
type Camera struct {
	ID    string `toml:"id"`
	Model string `toml:"model"`
}

// Settings are the effective acquisition settings.
type Settings struct {
	Mode       string          `toml:"mode"`
	FrameRate  float64         `toml:"frame_rate,omitempty"`
	ExposureUS float64         `toml:"exposure_us,omitempty"`
	Format     string          `toml:"format"`
	Buffers    int             `toml:"buffers"`
	Core       int             `toml:"core"`
	ROI        acquisition.ROI `toml:"roi"`
}

// Results are the counters collected when the session ends.
type Results struct {
	StopReason     string `toml:"stop_reason"`
	Delivered      uint64 `toml:"delivered"`
	Accepted       uint64 `toml:"accepted"`
	Rejected       uint64 `toml:"rejected"`
	Dropped        uint64 `toml:"dropped"`
	Saved          uint64 `toml:"saved"`
	WriteFailures  uint64 `toml:"write_failures"`
	QueueHighWater int    `toml:"queue_high_water"`
	Triggers       uint64 `toml:"triggers"`
	TriggerErrors  uint64 `toml:"trigger_errors"`

	// ExposureApplied is set in exposure mode when the request was accepted.
	ExposureApplied float64 `toml:"exposure_applied_us,omitempty"`
}

// Manifest is the session.toml document.
type Manifest struct {
	SessionID string    `toml:"session_id"`
	Version   string    `toml:"version"`
	StartedAt time.Time `toml:"started_at"`
	// StoppedAt is zero while the session runs.
	StoppedAt time.Time `toml:"stopped_at"`
	Camera    Camera    `toml:"camera"`
	Settings  Settings  `toml:"settings"`
	Results   *Results  `toml:"results,omitempty"`
}

// Running reports whether the session has not been finished yet.
func (m *Manifest) Running() bool {
	return m.StoppedAt.IsZero()
}

// New starts a manifest with a fresh session id.
func New(version string, camera Camera, settings Settings, now time.Time) *Manifest {
	return &Manifest{
		SessionID: uuid.NewString(),
		Version:   version,
		StartedAt: now,
		Camera:    camera,
		Settings:  settings,
	}
}

// Finish records the final controller counters.
func (m *Manifest) Finish(st acquisition.Stats, reason string, now time.Time) {
	res := &Results{
		StopReason:     reason,
		Delivered:      st.Source.Delivered,
		Accepted:       st.Source.Accepted,
		Rejected:       st.Source.Rejected,
		Dropped:        st.Source.Dropped,
		Saved:          st.Worker.Saved,
		WriteFailures:  st.Worker.Failed,
		QueueHighWater: st.QueueHighWater,
		Triggers:       st.Triggers,
		TriggerErrors:  st.TriggerErrors,
	}
	if st.Exposure != nil && st.Exposure.Accepted {
		res.ExposureApplied = st.Exposure.Applied
	}
	m.Results = res
	m.StoppedAt = now
}

// Write stores the manifest in dir, replacing any previous version atomically.
func (m *Manifest) Write(dir string) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode session manifest: %w", err)
	}
	path := filepath.Join(dir, FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write session manifest: %w", err)
	}
	return nil
}

// Load reads the manifest stored in dir.
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse session manifest: %w", err)
	}
	return &m, nil
}
