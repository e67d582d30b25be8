package acquisition

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/camnode/internal/affinity"
	"github.com/smazurov/camnode/internal/camera"
	"github.com/smazurov/camnode/internal/events"
	"github.com/smazurov/camnode/internal/logging"
	"github.com/smazurov/camnode/internal/metrics"
)

// NoCore disables CPU pinning.
const NoCore = -1

// DefaultBuffers is the number of device buffers requested at start.
const DefaultBuffers = 5

// State is the session lifecycle state.
type State int

// Lifecycle states. Transitions only move forward.
const (
	StateCreated State = iota
	StateConfigured
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Settings are fixed for the lifetime of a session.
type Settings struct {
	Mode       Mode
	FrameRate  float64
	ExposureUS float64
	Sensor     Sensor
	Buffers    int

	// ROI defaults to the full sensor when zero.
	ROI ROI

	// Core is the CPU to pin to; NoCore disables pinning.
	Core int
}

// Options configure a Controller.
type Options struct {
	Link     camera.Link
	Saver    Saver
	Settings Settings
	Bus      *events.Bus
	Logger   logging.Logger

	// FrameLogger receives the per-frame capture lines.
	FrameLogger logging.Logger

	// Pin overrides affinity.Pin.
	Pin func(core int) error
}

// Stats is a point-in-time view of the session.
type Stats struct {
	CameraID       string          `json:"camera_id"`
	State          string          `json:"state"`
	Mode           string          `json:"mode"`
	ROI            ROI             `json:"roi"`
	FrameRate      float64         `json:"frame_rate,omitempty"`
	Exposure       *ExposureResult `json:"exposure,omitempty"`
	Source         SourceStats     `json:"source"`
	Worker         WorkerStats     `json:"worker"`
	QueueDepth     int             `json:"queue_depth"`
	QueueHighWater int             `json:"queue_high_water"`
	Triggers       uint64          `json:"triggers"`
	TriggerErrors  uint64          `json:"trigger_errors"`
	StartedAt      time.Time       `json:"started_at,omitzero"`
	StoppedAt      time.Time       `json:"stopped_at,omitzero"`
}

// Controller sequences configuration, streaming and teardown for one camera.
type Controller struct {
	link     camera.Link
	saver    Saver
	settings Settings
	bus      *events.Bus
	logger   logging.Logger
	frames   logging.Logger
	pin      func(int) error

	configurator *Configurator

	mu        sync.Mutex
	state     State
	closed    bool
	queue     *Queue
	source    *Source
	worker    *Worker
	frameRate float64
	exposure  *ExposureResult
	startedAt time.Time
	stoppedAt time.Time

	running       atomic.Bool
	triggers      atomic.Uint64
	triggerErrors atomic.Uint64
}

// New validates settings and returns a controller in StateCreated.
// Parameter errors are reported here, before the device is touched.
func New(opts Options) (*Controller, error) {
	if opts.Link == nil {
		return nil, errors.New("acquisition: camera link is required")
	}
	if opts.Saver == nil {
		return nil, errors.New("acquisition: saver is required")
	}

	s := opts.Settings
	if s.Sensor == (Sensor{}) {
		s.Sensor = DefaultSensor
	}
	if s.ROI.IsZero() {
		s.ROI = s.Sensor.Full()
	}
	if s.Buffers <= 0 {
		s.Buffers = DefaultBuffers
	}
	if _, ok := modeNames[s.Mode]; !ok {
		return nil, configError("new", fmt.Errorf("unknown mode %d", s.Mode))
	}
	if err := s.ROI.Validate(s.Sensor); err != nil {
		return nil, configError("new", err)
	}
	if s.Mode == ModeSoftwareTriggerPolled && !(s.FrameRate > 0 && s.FrameRate <= MaxFrameRate) {
		return nil, configError("new", fmt.Errorf("%w: trigger rate %g not in (0, %g]", ErrFrameRate, s.FrameRate, MaxFrameRate))
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("acquisition")
	}
	pin := opts.Pin
	if pin == nil {
		pin = affinity.Pin
	}

	c := &Controller{
		link:         opts.Link,
		saver:        opts.Saver,
		settings:     s,
		bus:          opts.Bus,
		logger:       logger,
		frames:       opts.FrameLogger,
		pin:          pin,
		configurator: NewConfigurator(opts.Link, logger),
	}
	metrics.SetSessionState(c.link.ID(), int(StateCreated))
	return c, nil
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Settings returns the effective session settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// setState must be called with c.mu held.
func (c *Controller) setState(to State) {
	from := c.state
	c.state = to
	metrics.SetSessionState(c.link.ID(), int(to))
	c.logger.Debug("Session state changed", "from", from.String(), "to", to.String())
	c.bus.Publish(events.SessionStateChangedEvent{
		CameraID:  c.link.ID(),
		From:      from.String(),
		To:        to.String(),
		Mode:      c.settings.Mode.String(),
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
}

// Configure pins the process, programs the mode and applies the ROI.
// It is all-or-nothing: on error the controller stays in StateCreated.
func (c *Controller) Configure() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCreated {
		return configError("configure", fmt.Errorf("%w: %s", ErrInvalidState, c.state))
	}
	s := c.settings

	if s.Core != NoCore {
		if err := c.pin(s.Core); err != nil {
			c.logger.Error("Core locking failed", "core", s.Core, "error", err)
			return configError("pin core", err)
		}
		c.logger.Info("Pinned to CPU core", "core", s.Core)
	}

	c.configurator.AdjustPacketSize()

	switch s.Mode {
	case ModeFixedRate:
		rate, err := c.configurator.ConfigureFixedRate(s.FrameRate)
		if err != nil {
			return err
		}
		c.frameRate = rate
	case ModeSoftwareTriggerPolled, ModeSoftwareTriggerKeyboard:
		if err := c.configurator.ConfigureTrigger(); err != nil {
			return err
		}
		if s.Mode == ModeSoftwareTriggerPolled {
			c.frameRate = s.FrameRate
		}
	case ModeExposure:
		res, err := c.configurator.ConfigureExposure(s.ExposureUS)
		if err != nil {
			return err
		}
		c.exposure = &res
	}

	if err := c.configurator.ApplyROI(s.ROI, s.Sensor); err != nil {
		return err
	}

	c.setState(StateConfigured)
	return nil
}

// Start launches the worker and begins streaming. It is valid only from
// StateConfigured. If the device refuses to stream the session moves to
// StateStopped and the worker is joined before returning.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConfigured {
		return lifecycleError("start", fmt.Errorf("%w: %s", ErrInvalidState, c.state))
	}

	c.queue = NewQueue()
	c.source = NewSource(c.link, c.queue, c.bus, c.logger, c.frames)
	c.worker = NewWorker(c.queue, c.saver, c.link.ID(), c.bus, c.logger)
	c.worker.Start()

	c.running.Store(true)
	if err := c.link.StartContinuous(c.settings.Buffers, c.source.OnFrame); err != nil {
		c.running.Store(false)
		c.queue.Close()
		c.worker.Wait()
		c.stoppedAt = time.Now()
		c.setState(StateStopped)
		c.logger.Error("Could not start acquisition", "error", err)
		return lifecycleError("start", err)
	}

	c.startedAt = time.Now()
	c.setState(StateRunning)
	c.logger.Info("Started image acquisition", "camera", c.link.ID(), "mode", c.settings.Mode.String(),
		"buffers", c.settings.Buffers, "format", string(c.saver.Format()))
	return nil
}

// TriggerFrame issues one software trigger. A device failure is logged and
// returned; it never changes the session state.
func (c *Controller) TriggerFrame(source string) error {
	if !c.settings.Mode.IsTrigger() {
		return fmt.Errorf("trigger: %w (%s)", ErrNotTriggerMode, c.settings.Mode)
	}
	if !c.running.Load() {
		return fmt.Errorf("trigger: %w: session is not running", ErrInvalidState)
	}

	err := c.link.RunCommand(camera.FeatureTriggerSoftware)
	metrics.RecordTrigger(c.link.ID(), source, err == nil)
	ev := events.TriggerIssuedEvent{
		Source:    source,
		Success:   err == nil,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}
	if err != nil {
		c.triggerErrors.Add(1)
		ev.Error = err.Error()
		c.logger.Error("Software trigger failed", "source", source, "error", err)
	} else {
		c.triggers.Add(1)
		c.logger.Debug("Triggered image acquisition", "source", source)
	}
	c.bus.Publish(ev)
	return err
}

// Stop ends the session. Device delivery is halted before the worker is
// joined, not after: no frame can arrive once the queue is closed, and the
// worker still drains every queued snapshot. Stop is idempotent and safe in
// any state.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateStopped:
		return nil
	case StateCreated, StateConfigured:
		c.stoppedAt = time.Now()
		c.setState(StateStopped)
		return nil
	}

	c.running.Store(false)
	stopErr := c.link.StopContinuous()
	if stopErr != nil {
		c.logger.Error("Could not stop acquisition", "error", stopErr)
	}

	pending := c.queue.Len()
	c.queue.Close()
	c.worker.Wait()

	c.stoppedAt = time.Now()
	c.setState(StateStopped)
	metrics.SetQueueDepth(c.link.ID(), 0, c.queue.HighWater())

	src, wrk := c.source.Stats(), c.worker.Stats()
	c.logger.Info("Stopped image acquisition",
		"delivered", src.Delivered,
		"saved", wrk.Saved,
		"write_failures", wrk.Failed,
		"rejected", src.Rejected,
		"drained", pending,
		"queue_high_water", c.queue.HighWater())

	if stopErr != nil {
		return lifecycleError("stop", stopErr)
	}
	return nil
}

// Close stops the session and releases the camera. Calling it more than once is safe.
func (c *Controller) Close() error {
	stopErr := c.Stop()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return stopErr
	}
	c.closed = true
	c.mu.Unlock()

	var closeErr error
	if err := c.link.Close(); err != nil {
		closeErr = fmt.Errorf("close camera: %w", err)
	}
	c.logger.Info("Closed camera", "camera", c.link.ID())
	return errors.Join(stopErr, closeErr)
}

// Stats returns a snapshot of the session counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Stats{
		CameraID:      c.link.ID(),
		State:         c.state.String(),
		Mode:          c.settings.Mode.String(),
		ROI:           c.settings.ROI,
		FrameRate:     c.frameRate,
		Exposure:      c.exposure,
		Triggers:      c.triggers.Load(),
		TriggerErrors: c.triggerErrors.Load(),
		StartedAt:     c.startedAt,
		StoppedAt:     c.stoppedAt,
	}
	if c.source != nil {
		st.Source = c.source.Stats()
	}
	if c.worker != nil {
		st.Worker = c.worker.Stats()
	}
	if c.queue != nil {
		st.QueueDepth = c.queue.Len()
		st.QueueHighWater = c.queue.HighWater()
	}
	return st
}
