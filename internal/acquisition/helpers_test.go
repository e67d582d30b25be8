package acquisition

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smazurov/camnode/internal/camera"
	"github.com/smazurov/camnode/internal/persist"
)

var testSensor = Sensor{Width: 64, Height: 48}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSim(t *testing.T, cfg camera.SimConfig) *camera.Simulated {
	t.Helper()
	if cfg.SensorWidth == 0 {
		cfg.SensorWidth, cfg.SensorHeight = testSensor.Width, testSensor.Height
	}
	if cfg.PixelFormat == "" {
		cfg.PixelFormat = camera.PixelFormatMono8
	}
	cfg.Logger = discardLogger()
	sim := camera.NewSimulated(cfg)
	t.Cleanup(func() { _ = sim.Close() })
	return sim
}

// savedFrame is what memSaver saw at write time.
type savedFrame struct {
	seq     uint64
	payload []byte
}

// memSaver records frames in memory. gate, when set, blocks every Save until
// a value is received; failOn makes matching sequences fail.
type memSaver struct {
	mu     sync.Mutex
	frames []savedFrame
	gate   chan struct{}
	failOn map[uint64]bool
	calls  atomic.Int64
	saved  chan uint64
}

func newMemSaver() *memSaver {
	return &memSaver{saved: make(chan uint64, 1024)}
}

func (m *memSaver) Format() persist.Format { return persist.FormatRaw }

func (m *memSaver) Save(f persist.Frame) (persist.Artifact, error) {
	m.calls.Add(1)
	if m.gate != nil {
		<-m.gate
	}
	path := persist.ArtifactName(f.Sequence, persist.FormatRaw)
	if m.failOn[f.Sequence] {
		return persist.Artifact{Path: path}, errors.New("disk full")
	}

	m.mu.Lock()
	m.frames = append(m.frames, savedFrame{seq: f.Sequence, payload: append([]byte(nil), f.Payload...)})
	m.mu.Unlock()
	m.saved <- f.Sequence
	return persist.Artifact{Path: path, Bytes: int64(len(f.Payload))}, nil
}

func (m *memSaver) sequences() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	seqs := make([]uint64, len(m.frames))
	for i, f := range m.frames {
		seqs[i] = f.seq
	}
	return seqs
}

func (m *memSaver) snapshot() []savedFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]savedFrame(nil), m.frames...)
}

func (m *memSaver) waitSaved(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-m.saved:
		case <-deadline:
			t.Fatalf("timed out after %d of %d saved frames", i, n)
		}
	}
}

// checkPattern verifies a payload still holds the simulator pattern of frameID.
func checkPattern(t *testing.T, payload []byte, frameID uint64) {
	t.Helper()
	if got := camera.PatternID(payload); got != frameID {
		t.Errorf("payload header holds frame %d, want %d", got, frameID)
		return
	}
	for i := 8; i < len(payload); i++ {
		if payload[i] != byte(frameID) {
			t.Errorf("payload byte %d = %d, want %d", i, payload[i], byte(frameID))
			return
		}
	}
}

// countingLink counts lifecycle calls reaching the wrapped device.
type countingLink struct {
	camera.Link
	starts atomic.Int32
	stops  atomic.Int32
}

func (l *countingLink) StartContinuous(n int, cb camera.FrameCallback) error {
	l.starts.Add(1)
	return l.Link.StartContinuous(n, cb)
}

func (l *countingLink) StopContinuous() error {
	l.stops.Add(1)
	return l.Link.StopContinuous()
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
