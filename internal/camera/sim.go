package camera

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/camnode/internal/logging"
)

// Operation keys accepted by Simulated.Fail in addition to feature names.
const (
	OpStartContinuous = "StartContinuous"
	OpStopContinuous  = "StopContinuous"
)

const minSimPeriod = time.Millisecond

// SimConfig configures a simulated camera. Zero values select the defaults.
type SimConfig struct {
	ID           string
	Model        string
	SensorWidth  int
	SensorHeight int
	PixelFormat  PixelFormat

	// IncompleteEvery marks every Nth delivered frame as incomplete (0 disables).
	IncompleteEvery uint64

	// GigE exposes the GVSPAdjustPacketSize command like a GigE Vision device.
	GigE bool

	Logger logging.Logger
}

type featureKind int

const (
	kindEnum featureKind = iota
	kindBool
	kindInt
	kindFloat
	kindCommand
)

func (k featureKind) String() string {
	return [...]string{"enum", "bool", "int", "float", "command"}[k]
}

type simFeature struct {
	kind     featureKind
	readOnly bool
	// streamLocked features reject writes while acquisition is running.
	streamLocked bool

	enumValue string
	entries   []string

	boolValue bool

	intValue, intMin, intMax int64

	floatValue, floatMin, floatMax, floatInc float64

	command func() error
}

// Simulated is an in-process Link with its own buffer pool and delivery goroutine.
type Simulated struct {
	cfg    SimConfig
	logger logging.Logger

	mu        sync.Mutex
	features  map[string]*simFeature
	failures  map[string]error
	closed    bool
	streaming bool
	pool      []*Frame
	free      chan *Frame
	trigger   chan struct{}
	stop      chan struct{}
	done      chan struct{}
	nextID    uint64

	delivered atomic.Uint64
	triggers  atomic.Uint64
}

// NewSimulated creates an open simulated camera.
func NewSimulated(cfg SimConfig) *Simulated {
	if cfg.ID == "" {
		cfg.ID = "DEV_SIM_0"
	}
	if cfg.Model == "" {
		cfg.Model = "Simulated Alvium 1242"
	}
	if cfg.SensorWidth <= 0 {
		cfg.SensorWidth = DefaultSensorWidth
	}
	if cfg.SensorHeight <= 0 {
		cfg.SensorHeight = DefaultSensorHeight
	}
	if cfg.PixelFormat == "" {
		cfg.PixelFormat = PixelFormatBayerRG8
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetLogger("camera")
	}

	s := &Simulated{
		cfg:      cfg,
		logger:   logger,
		failures: make(map[string]error),
	}
	s.features = s.defaultFeatures()
	return s
}

func (s *Simulated) defaultFeatures() map[string]*simFeature {
	sw, sh := int64(s.cfg.SensorWidth), int64(s.cfg.SensorHeight)
	formats := make([]string, len(PixelFormats))
	for i, pf := range PixelFormats {
		formats[i] = string(pf)
	}
	autos := []string{AutoOff, AutoOnce, AutoContinuous}

	f := map[string]*simFeature{
		FeatureAcquisitionMode: {kind: kindEnum, enumValue: AcquisitionModeContinuous,
			entries: []string{AcquisitionModeContinuous, AcquisitionModeSingle, "MultiFrame"}, streamLocked: true},
		FeatureAcquisitionFrameRateEnable: {kind: kindBool},
		FeatureAcquisitionFrameRate:       {kind: kindFloat, floatValue: 10, floatMin: 0.1, floatMax: 30, floatInc: 0},
		FeatureTriggerSelector: {kind: kindEnum, enumValue: TriggerSelectorFrameStart,
			entries: []string{TriggerSelectorFrameStart, TriggerSelectorAcquisitionStart}},
		FeatureTriggerMode: {kind: kindEnum, enumValue: TriggerModeOff, entries: []string{TriggerModeOff, TriggerModeOn}},
		FeatureTriggerSource: {kind: kindEnum, enumValue: TriggerSourceSoftware,
			entries: []string{TriggerSourceSoftware, TriggerSourceLine0, "Line1", "Line2", "Line3"}},
		FeatureExposureMode: {kind: kindEnum, enumValue: ExposureModeTimed, entries: []string{ExposureModeTimed, "TriggerWidth"}},
		FeatureExposureAuto: {kind: kindEnum, enumValue: AutoContinuous, entries: autos},
		FeatureExposureTime: {kind: kindFloat, floatValue: 20000, floatMin: 64, floatMax: 10000000, floatInc: 1},
		FeatureGainAuto:     {kind: kindEnum, enumValue: AutoContinuous, entries: autos},
		FeatureGain:         {kind: kindFloat, floatValue: 6, floatMin: 0, floatMax: 48, floatInc: 0},
		FeatureGammaEnable:  {kind: kindBool, boolValue: true},
		FeatureWidth:        {kind: kindInt, intValue: sw, intMin: 8, intMax: sw, streamLocked: true},
		FeatureHeight:       {kind: kindInt, intValue: sh, intMin: 8, intMax: sh, streamLocked: true},
		FeatureOffsetX:      {kind: kindInt, intValue: 0, intMin: 0, intMax: sw - 8, streamLocked: true},
		FeatureOffsetY:      {kind: kindInt, intValue: 0, intMin: 0, intMax: sh - 8, streamLocked: true},
		FeatureSensorWidth:  {kind: kindInt, intValue: sw, intMin: sw, intMax: sw, readOnly: true},
		FeatureSensorHeight: {kind: kindInt, intValue: sh, intMin: sh, intMax: sh, readOnly: true},
		FeaturePixelFormat: {kind: kindEnum, enumValue: string(s.cfg.PixelFormat), entries: formats,
			streamLocked: true},
		FeatureTriggerSoftware: {kind: kindCommand, command: s.fireTrigger},
	}
	if s.cfg.GigE {
		f[FeatureGVSPAdjustPacketSize] = &simFeature{kind: kindCommand, command: func() error { return nil }}
	}
	return f
}

// ID returns the device identifier.
func (s *Simulated) ID() string { return s.cfg.ID }

// Model returns the device model name.
func (s *Simulated) Model() string { return s.cfg.Model }

// Delivered returns the number of frames handed to the callback so far.
func (s *Simulated) Delivered() uint64 { return s.delivered.Load() }

// Triggers returns the number of accepted software triggers.
func (s *Simulated) Triggers() uint64 { return s.triggers.Load() }

// Fail makes every subsequent write or run of name return err. A nil err clears it.
// name is a feature name or one of the Op* keys.
func (s *Simulated) Fail(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, name)
		return
	}
	s.failures[name] = err
}

// SetFloatLimits overrides the range and increment reported for a float feature.
func (s *Simulated) SetFloatLimits(name string, minimum, maximum, increment float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.features[name]; ok && f.kind == kindFloat {
		f.floatMin, f.floatMax, f.floatInc = minimum, maximum, increment
	}
}

// lookup must be called with s.mu held.
func (s *Simulated) lookup(op, name string, kind featureKind) (*simFeature, error) {
	if s.closed {
		return nil, newError(CodeDeviceClosed, op, name, "")
	}
	f, ok := s.features[name]
	if !ok {
		return nil, newError(CodeNotFound, op, name, "")
	}
	if f.kind != kind {
		return nil, newError(CodeWrongType, op, name, "feature is %s, not %s", f.kind, kind)
	}
	return f, nil
}

// writable must be called with s.mu held.
func (s *Simulated) writable(op, name string, f *simFeature) error {
	if err, ok := s.failures[name]; ok {
		return err
	}
	if f.readOnly {
		return newError(CodeInvalidAccess, op, name, "feature is read-only")
	}
	if f.streamLocked && s.streaming {
		return newError(CodeInvalidAccess, op, name, "feature is locked while acquisition is running")
	}
	return nil
}

// Enum implements Link.
func (s *Simulated) Enum(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.lookup("get", name, kindEnum)
	if err != nil {
		return "", err
	}
	return f.enumValue, nil
}

// SetEnum implements Link.
func (s *Simulated) SetEnum(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.lookup("set", name, kindEnum)
	if err != nil {
		return err
	}
	if err := s.writable("set", name, f); err != nil {
		return err
	}
	for _, entry := range f.entries {
		if entry == value {
			f.enumValue = value
			return nil
		}
	}
	return newError(CodeInvalidValue, "set", name, "%q is not an entry", value)
}

// Bool implements Link.
func (s *Simulated) Bool(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.lookup("get", name, kindBool)
	if err != nil {
		return false, err
	}
	return f.boolValue, nil
}

// SetBool implements Link.
func (s *Simulated) SetBool(name string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.lookup("set", name, kindBool)
	if err != nil {
		return err
	}
	if err := s.writable("set", name, f); err != nil {
		return err
	}
	f.boolValue = value
	return nil
}

// Int implements Link.
func (s *Simulated) Int(name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.lookup("get", name, kindInt)
	if err != nil {
		return 0, err
	}
	return f.intValue, nil
}

// SetInt implements Link.
func (s *Simulated) SetInt(name string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.lookup("set", name, kindInt)
	if err != nil {
		return err
	}
	if err := s.writable("set", name, f); err != nil {
		return err
	}
	if value < f.intMin || value > f.intMax {
		return newError(CodeInvalidValue, "set", name, "%d outside [%d, %d]", value, f.intMin, f.intMax)
	}
	if err := s.checkGeometry(name, value); err != nil {
		return err
	}
	f.intValue = value
	return nil
}

// checkGeometry keeps the ROI inside the sensor. Must be called with s.mu held.
func (s *Simulated) checkGeometry(name string, value int64) error {
	var size, offset, limit int64
	switch name {
	case FeatureWidth:
		size, offset, limit = value, s.features[FeatureOffsetX].intValue, int64(s.cfg.SensorWidth)
	case FeatureOffsetX:
		size, offset, limit = s.features[FeatureWidth].intValue, value, int64(s.cfg.SensorWidth)
	case FeatureHeight:
		size, offset, limit = value, s.features[FeatureOffsetY].intValue, int64(s.cfg.SensorHeight)
	case FeatureOffsetY:
		size, offset, limit = s.features[FeatureHeight].intValue, value, int64(s.cfg.SensorHeight)
	default:
		return nil
	}
	if size+offset > limit {
		return newError(CodeInvalidValue, "set", name, "region %d+%d exceeds sensor size %d", size, offset, limit)
	}
	return nil
}

// Float implements Link.
func (s *Simulated) Float(name string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.lookup("get", name, kindFloat)
	if err != nil {
		return 0, err
	}
	return f.floatValue, nil
}

// SetFloat implements Link.
func (s *Simulated) SetFloat(name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.lookup("set", name, kindFloat)
	if err != nil {
		return err
	}
	if err := s.writable("set", name, f); err != nil {
		return err
	}
	if value < f.floatMin || value > f.floatMax {
		return newError(CodeInvalidValue, "set", name, "%g outside [%g, %g]", value, f.floatMin, f.floatMax)
	}
	f.floatValue = value
	return nil
}

// FloatRange implements Link.
func (s *Simulated) FloatRange(name string) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.lookup("range", name, kindFloat)
	if err != nil {
		return 0, 0, err
	}
	return f.floatMin, f.floatMax, nil
}

// FloatIncrement implements Link. Features without an increment report 0.
func (s *Simulated) FloatIncrement(name string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.lookup("increment", name, kindFloat)
	if err != nil {
		return 0, err
	}
	return f.floatInc, nil
}

// RunCommand implements Link.
func (s *Simulated) RunCommand(name string) error {
	s.mu.Lock()
	f, err := s.lookup("run", name, kindCommand)
	if err == nil {
		if injected, ok := s.failures[name]; ok {
			err = injected
		}
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return f.command()
}

func (s *Simulated) fireTrigger() error {
	s.mu.Lock()
	streaming := s.streaming
	ch := s.trigger
	armed := s.features[FeatureTriggerMode].enumValue == TriggerModeOn &&
		s.features[FeatureTriggerSource].enumValue == TriggerSourceSoftware
	s.mu.Unlock()

	if !streaming {
		return newError(CodeInvalidCall, "run", FeatureTriggerSoftware, "acquisition is not running")
	}
	if !armed {
		// The device ignores software triggers outside software trigger mode.
		return nil
	}
	select {
	case ch <- struct{}{}:
		s.triggers.Add(1)
		return nil
	default:
		return newError(CodeBusy, "run", FeatureTriggerSoftware, "trigger overrun")
	}
}

// StartContinuous implements Link.
func (s *Simulated) StartContinuous(bufferCount int, cb FrameCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return newError(CodeDeviceClosed, "start", "", "")
	}
	if s.streaming {
		return newError(CodeBusy, "start", "", "acquisition already running")
	}
	if bufferCount <= 0 || cb == nil {
		return newError(CodeInvalidValue, "start", "", "need a callback and at least one buffer")
	}
	if err, ok := s.failures[OpStartContinuous]; ok {
		return err
	}

	pf := PixelFormat(s.features[FeaturePixelFormat].enumValue)
	size := pf.PayloadSize(s.cfg.SensorWidth, s.cfg.SensorHeight)

	s.pool = make([]*Frame, bufferCount)
	s.free = make(chan *Frame, bufferCount)
	for i := range s.pool {
		f := &Frame{buffer: make([]byte, size), slot: i, queued: true}
		s.pool[i] = f
		s.free <- f
	}
	s.trigger = make(chan struct{}, bufferCount)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.streaming = true

	go s.deliver(cb, s.free, s.trigger, s.stop, s.done)

	s.logger.Debug("Simulated acquisition started", "buffers", bufferCount, "payload_size", size)
	return nil
}

// StopContinuous implements Link. Stopping an idle device succeeds.
func (s *Simulated) StopContinuous() error {
	s.mu.Lock()
	if err, ok := s.failures[OpStopContinuous]; ok {
		s.mu.Unlock()
		return err
	}
	if !s.streaming {
		s.mu.Unlock()
		return nil
	}
	stop, done := s.stop, s.done
	s.streaming = false
	s.mu.Unlock()

	close(stop)
	<-done

	s.logger.Debug("Simulated acquisition stopped", "delivered", s.delivered.Load())
	return nil
}

// QueueFrame implements Link.
func (s *Simulated) QueueFrame(f *Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f == nil || f.slot < 0 || f.slot >= len(s.pool) || s.pool[f.slot] != f {
		return newError(CodeInvalidValue, "queue", "", "frame does not belong to this device")
	}
	if f.queued {
		return newError(CodeInvalidCall, "queue", "", "frame %d is already queued", f.ID)
	}
	f.queued = true
	s.free <- f
	return nil
}

// Close stops acquisition and invalidates the handle. Closing twice is a no-op.
func (s *Simulated) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	// Close always tears delivery down, even with an injected stop failure.
	delete(s.failures, OpStopContinuous)
	s.mu.Unlock()

	err := s.StopContinuous()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

func (s *Simulated) deliver(cb FrameCallback, free chan *Frame, trigger, stop, done chan struct{}) {
	defer close(done)
	for {
		if !s.awaitFrameStart(trigger, stop) {
			return
		}

		var f *Frame
		select {
		case f = <-free:
		case <-stop:
			return
		}

		s.fill(f)
		s.delivered.Add(1)
		cb(f)
	}
}

// awaitFrameStart blocks until the next exposure should start or stop is closed.
func (s *Simulated) awaitFrameStart(trigger, stop chan struct{}) bool {
	s.mu.Lock()
	mode := s.features[FeatureTriggerMode].enumValue
	source := s.features[FeatureTriggerSource].enumValue
	period := s.framePeriod()
	s.mu.Unlock()

	if mode == TriggerModeOn {
		if source != TriggerSourceSoftware {
			// No hardware lines are simulated.
			<-stop
			return false
		}
		select {
		case <-trigger:
			return true
		case <-stop:
			return false
		}
	}

	timer := time.NewTimer(period)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	}
}

// framePeriod must be called with s.mu held.
func (s *Simulated) framePeriod() time.Duration {
	var period time.Duration
	if s.features[FeatureAcquisitionFrameRateEnable].boolValue {
		period = time.Duration(float64(time.Second) / s.features[FeatureAcquisitionFrameRate].floatValue)
	} else {
		period = time.Duration(s.features[FeatureExposureTime].floatValue * float64(time.Microsecond))
	}
	return max(period, minSimPeriod)
}

func (s *Simulated) fill(f *Frame) {
	s.mu.Lock()
	width := int(s.features[FeatureWidth].intValue)
	height := int(s.features[FeatureHeight].intValue)
	pf := PixelFormat(s.features[FeaturePixelFormat].enumValue)
	s.nextID++
	id := s.nextID
	f.queued = false
	s.mu.Unlock()

	f.buffer = f.buffer[:pf.PayloadSize(width, height)]
	FillPattern(f.buffer, id)

	f.ID = id
	f.Width = width
	f.Height = height
	f.PixelFormat = pf
	f.Timestamp = time.Now()
	f.Status = FrameComplete
	if s.cfg.IncompleteEvery > 0 && id%s.cfg.IncompleteEvery == 0 {
		f.Status = FrameIncomplete
	}
}

// FillPattern writes the simulator test pattern for frame id: every byte is byte(id)
// and, when the buffer is large enough, the first eight bytes hold id little-endian.
func FillPattern(buf []byte, id uint64) {
	v := byte(id)
	for i := range buf {
		buf[i] = v
	}
	if len(buf) >= 8 {
		binary.LittleEndian.PutUint64(buf, id)
	}
}

// PatternID recovers the frame id written by FillPattern, or 0 for short buffers.
func PatternID(buf []byte) uint64 {
	if len(buf) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(buf)
}
