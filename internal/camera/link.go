package camera

import "time"

// FrameStatus is the receive status reported by the device for a delivered frame.
type FrameStatus int

// Receive statuses.
const (
	FrameComplete FrameStatus = iota
	FrameIncomplete
	FrameTooSmall
	FrameInvalid
)

func (s FrameStatus) String() string {
	switch s {
	case FrameComplete:
		return "complete"
	case FrameIncomplete:
		return "incomplete"
	case FrameTooSmall:
		return "too_small"
	case FrameInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Frame is a device-owned buffer handed to the delivery callback.
// Its memory is only valid until the frame is returned with Link.QueueFrame.
type Frame struct {
	ID          uint64
	Status      FrameStatus
	Width       int
	Height      int
	PixelFormat PixelFormat
	Timestamp   time.Time

	buffer []byte
	slot   int
	queued bool
}

// Buffer returns the device memory holding the pixel payload.
func (f *Frame) Buffer() []byte {
	return f.buffer
}

// FrameCallback is invoked on the device's delivery goroutine for every frame.
type FrameCallback func(f *Frame)

// Link is an open camera handle.
//
// Feature accessors are not safe to call concurrently with each other; all
// configuration is expected to happen before streaming starts. QueueFrame and
// RunCommand may be called while streaming.
type Link interface {
	ID() string
	Model() string

	Enum(name string) (string, error)
	SetEnum(name, value string) error
	Bool(name string) (bool, error)
	SetBool(name string, value bool) error
	Int(name string) (int64, error)
	SetInt(name string, value int64) error
	Float(name string) (float64, error)
	SetFloat(name string, value float64) error
	FloatRange(name string) (minimum, maximum float64, err error)
	FloatIncrement(name string) (float64, error)
	RunCommand(name string) error

	// StartContinuous allocates bufferCount frames and begins delivering them to cb.
	StartContinuous(bufferCount int, cb FrameCallback) error
	// StopContinuous stops delivery. No callback runs after it returns.
	StopContinuous() error
	// QueueFrame hands a delivered frame back to the device for reuse.
	QueueFrame(f *Frame) error

	Close() error
}
