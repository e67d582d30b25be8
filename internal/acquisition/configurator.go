package acquisition

import (
	"errors"
	"fmt"
	"math"

	"github.com/smazurov/camnode/internal/camera"
	"github.com/smazurov/camnode/internal/logging"
)

// MaxFrameRate is the highest fixed frame rate the node accepts.
const MaxFrameRate = 30.0

// ConfigState is the configurator's one-shot state.
type ConfigState int

// Configurator states.
const (
	Unconfigured ConfigState = iota
	FixedRateConfigured
	TriggerConfigured
	ExposureConfigured
)

func (s ConfigState) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case FixedRateConfigured:
		return "fixed_rate"
	case TriggerConfigured:
		return "trigger"
	case ExposureConfigured:
		return "exposure"
	default:
		return "unknown"
	}
}

// ExposureResult reports what happened to an exposure request.
type ExposureResult struct {
	Requested float64 `json:"requested_us"`
	Applied   float64 `json:"applied_us"`
	Min       float64 `json:"min_us"`
	Max       float64 `json:"max_us"`
	Increment float64 `json:"increment_us"`
	Accepted  bool    `json:"accepted"`
}

// Configurator programs camera features for one acquisition mode.
type Configurator struct {
	link   camera.Link
	logger logging.Logger
	state  ConfigState
}

// NewConfigurator returns an unconfigured configurator for link.
func NewConfigurator(link camera.Link, logger logging.Logger) *Configurator {
	if logger == nil {
		logger = logging.GetLogger("acquisition")
	}
	return &Configurator{link: link, logger: logger}
}

// State returns the current configuration state.
func (c *Configurator) State() ConfigState {
	return c.state
}

func (c *Configurator) begin(op string) error {
	if c.state != Unconfigured {
		return configError(op, fmt.Errorf("%w as %s", ErrAlreadyConfigured, c.state))
	}
	return nil
}

// ConfigureFixedRate sets free-running acquisition at rate frames per second.
// Every feature write is required. It returns the rate read back from the device.
func (c *Configurator) ConfigureFixedRate(rate float64) (float64, error) {
	const op = "configure fixed rate"
	if err := c.begin(op); err != nil {
		return 0, err
	}
	if !(rate > 0 && rate <= MaxFrameRate) {
		return 0, configError(op, fmt.Errorf("%w: %g not in (0, %g]", ErrFrameRate, rate, MaxFrameRate))
	}

	steps := []struct {
		feature string
		set     func() error
	}{
		{camera.FeatureTriggerMode, func() error { return c.link.SetEnum(camera.FeatureTriggerMode, camera.TriggerModeOff) }},
		{camera.FeatureAcquisitionMode, func() error {
			return c.link.SetEnum(camera.FeatureAcquisitionMode, camera.AcquisitionModeContinuous)
		}},
		{camera.FeatureAcquisitionFrameRateEnable, func() error {
			return c.link.SetBool(camera.FeatureAcquisitionFrameRateEnable, true)
		}},
		{camera.FeatureAcquisitionFrameRate, func() error { return c.link.SetFloat(camera.FeatureAcquisitionFrameRate, rate) }},
	}
	for _, step := range steps {
		if err := step.set(); err != nil {
			return 0, configError(op, fmt.Errorf("set %s: %w", step.feature, err))
		}
	}

	readback, err := c.link.Float(camera.FeatureAcquisitionFrameRate)
	if err != nil {
		return 0, configError(op, fmt.Errorf("read back %s: %w", camera.FeatureAcquisitionFrameRate, err))
	}

	c.state = FixedRateConfigured
	c.logger.Info("Frame rate set", "fps", readback)
	return readback, nil
}

// ConfigureTrigger arms frame-start on software trigger. Disabling the frame
// rate limit is best effort; the trigger features are required.
func (c *Configurator) ConfigureTrigger() error {
	const op = "configure trigger"
	if err := c.begin(op); err != nil {
		return err
	}

	if err := c.link.SetBool(camera.FeatureAcquisitionFrameRateEnable, false); err != nil {
		c.optionalFailed(camera.FeatureAcquisitionFrameRateEnable, err)
	}

	required := []struct{ feature, value string }{
		{camera.FeatureTriggerSelector, camera.TriggerSelectorFrameStart},
		{camera.FeatureTriggerMode, camera.TriggerModeOn},
		{camera.FeatureTriggerSource, camera.TriggerSourceSoftware},
	}
	for _, r := range required {
		if err := c.link.SetEnum(r.feature, r.value); err != nil {
			return configError(op, fmt.Errorf("set %s=%s: %w", r.feature, r.value, err))
		}
	}

	c.state = TriggerConfigured
	c.logger.Info("Camera configured for software trigger")
	return nil
}

// ConfigureExposure switches to manual exposure and applies exposureUS.
// Nothing here is fatal: failed sub-steps are logged, and a request outside
// the device range is logged and not applied.
func (c *Configurator) ConfigureExposure(exposureUS float64) (ExposureResult, error) {
	res := ExposureResult{Requested: exposureUS}
	if err := c.begin("configure exposure"); err != nil {
		return res, err
	}
	c.state = ExposureConfigured

	c.optionalEnum(camera.FeatureTriggerMode, camera.TriggerModeOff)
	if err := c.link.SetBool(camera.FeatureAcquisitionFrameRateEnable, false); err != nil {
		c.optionalFailed(camera.FeatureAcquisitionFrameRateEnable, err)
	}
	c.optionalEnum(camera.FeatureExposureMode, camera.ExposureModeTimed)
	c.optionalEnum(camera.FeatureExposureAuto, camera.AutoOff)
	c.optionalEnum(camera.FeatureGainAuto, camera.AutoOff)
	if err := c.link.SetBool(camera.FeatureGammaEnable, false); err != nil {
		c.optionalFailed(camera.FeatureGammaEnable, err)
	}
	if err := c.link.SetFloat(camera.FeatureGain, 0); err != nil {
		c.optionalFailed(camera.FeatureGain, err)
	}

	minimum, maximum, err := c.link.FloatRange(camera.FeatureExposureTime)
	if err != nil {
		c.logger.Error("Failed to read exposure time range", "error", err)
		return res, nil
	}
	res.Min, res.Max = minimum, maximum
	c.logger.Debug("Exposure time limits", "min_us", minimum, "max_us", maximum)

	if inc, err := c.link.FloatIncrement(camera.FeatureExposureTime); err == nil {
		res.Increment = inc
		c.logger.Debug("Exposure time increment", "increment_us", inc)
	} else if !errors.Is(err, camera.ErrNotAvailable) {
		c.optionalFailed(camera.FeatureExposureTime+" increment", err)
	}

	if exposureUS < minimum || exposureUS > maximum {
		c.logger.Error("Exposure time out of range, not applied",
			"requested_us", exposureUS, "min_us", minimum, "max_us", maximum)
		return res, nil
	}

	target := SnapExposure(exposureUS, minimum, maximum, res.Increment)
	if err := c.link.SetFloat(camera.FeatureExposureTime, target); err != nil {
		c.logger.Error("Failed to set exposure time", "requested_us", exposureUS, "error", err)
		return res, nil
	}
	res.Accepted = true
	res.Applied = target

	if readback, err := c.link.Float(camera.FeatureExposureTime); err == nil {
		res.Applied = readback
	} else {
		c.optionalFailed(camera.FeatureExposureTime+" readback", err)
	}
	c.logger.Info("Exposure time set", "exposure_us", res.Applied)
	return res, nil
}

// SnapExposure rounds requested onto the device grid min + k*increment and
// clamps the result to [min, max]. A non-positive increment only clamps.
func SnapExposure(requested, minimum, maximum, increment float64) float64 {
	v := requested
	if increment > 0 {
		v = math.Round((requested-minimum)/increment)*increment + minimum
	}
	return math.Min(math.Max(v, minimum), maximum)
}

// ApplyROI programs the region after validating it against s. Offsets are
// zeroed first so the new size is always accepted. Any failure is fatal.
func (c *Configurator) ApplyROI(r ROI, s Sensor) error {
	const op = "apply roi"
	if err := r.Validate(s); err != nil {
		return configError(op, err)
	}

	steps := []struct {
		feature string
		value   int
	}{
		{camera.FeatureOffsetX, 0},
		{camera.FeatureOffsetY, 0},
		{camera.FeatureWidth, r.Width},
		{camera.FeatureHeight, r.Height},
		{camera.FeatureOffsetX, r.OffsetX},
		{camera.FeatureOffsetY, r.OffsetY},
	}
	for _, step := range steps {
		if err := c.link.SetInt(step.feature, int64(step.value)); err != nil {
			return configError(op, fmt.Errorf("set %s=%d: %w", step.feature, step.value, err))
		}
	}

	c.logger.Info("ROI applied", "width", r.Width, "height", r.Height, "offset_x", r.OffsetX, "offset_y", r.OffsetY)
	return nil
}

// AdjustPacketSize runs the GigE packet size negotiation when the device
// supports it. Devices without the command are left alone.
func (c *Configurator) AdjustPacketSize() {
	err := c.link.RunCommand(camera.FeatureGVSPAdjustPacketSize)
	switch {
	case err == nil:
		c.logger.Debug("GVSP packet size adjusted")
	case errors.Is(err, camera.ErrNotFound):
	default:
		c.logger.Error("Error while executing GVSPAdjustPacketSize", "error", err)
	}
}

func (c *Configurator) optionalEnum(feature, value string) {
	if err := c.link.SetEnum(feature, value); err != nil {
		c.optionalFailed(feature, err)
	}
}

func (c *Configurator) optionalFailed(feature string, err error) {
	if errors.Is(err, camera.ErrNotFound) {
		c.logger.Debug("Optional feature not present", "feature", feature)
		return
	}
	c.logger.Warn("Optional feature write failed", "feature", feature, "error", err)
}
