package acquisition

import (
	"fmt"
	"time"

	"github.com/smazurov/camnode/internal/camera"
	"github.com/smazurov/camnode/internal/persist"
)

// Snapshot is an owned copy of a delivered frame. Its payload never shares
// memory with a device buffer and is not modified after creation.
type Snapshot struct {
	Sequence    uint64
	FrameID     uint64
	Width       int
	Height      int
	PixelFormat camera.PixelFormat
	Status      camera.FrameStatus
	Timestamp   time.Time

	payload []byte
}

// NewSnapshot copies width*height*bytesPerPixel bytes out of f.
func NewSnapshot(seq uint64, f *camera.Frame) (*Snapshot, error) {
	size := f.PixelFormat.PayloadSize(f.Width, f.Height)
	if size == 0 {
		return nil, fmt.Errorf("frame %d: unsupported geometry %dx%d %s", f.ID, f.Width, f.Height, f.PixelFormat)
	}
	buf := f.Buffer()
	if len(buf) < size {
		return nil, fmt.Errorf("frame %d: buffer holds %d bytes, need %d", f.ID, len(buf), size)
	}

	payload := make([]byte, size)
	copy(payload, buf[:size])

	return &Snapshot{
		Sequence:    seq,
		FrameID:     f.ID,
		Width:       f.Width,
		Height:      f.Height,
		PixelFormat: f.PixelFormat,
		Status:      f.Status,
		Timestamp:   f.Timestamp,
		payload:     payload,
	}, nil
}

// Payload returns the snapshot's pixel data. Callers must not modify it.
func (s *Snapshot) Payload() []byte {
	return s.payload
}

func (s *Snapshot) persistFrame() persist.Frame {
	return persist.Frame{
		Sequence:    s.Sequence,
		Width:       s.Width,
		Height:      s.Height,
		PixelFormat: s.PixelFormat,
		Payload:     s.payload,
	}
}
