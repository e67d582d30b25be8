package acquisition

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/camnode/internal/camera"
	"github.com/smazurov/camnode/internal/events"
)

func armTrigger(t *testing.T, sim *camera.Simulated) {
	t.Helper()
	if err := sim.SetEnum(camera.FeatureTriggerMode, camera.TriggerModeOn); err != nil {
		t.Fatalf("arm trigger: %v", err)
	}
}

func TestNewSnapshotCopiesBuffer(t *testing.T) {
	sim := newSim(t, camera.SimConfig{})
	armTrigger(t, sim)

	frames := make(chan *camera.Frame, 1)
	if err := sim.StartContinuous(1, func(f *camera.Frame) { frames <- f }); err != nil {
		t.Fatalf("StartContinuous: %v", err)
	}
	_ = sim.RunCommand(camera.FeatureTriggerSoftware)
	f := <-frames

	s, err := NewSnapshot(1, f)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	before := append([]byte(nil), s.Payload()...)

	// Scribble over the device buffer as a recycled buffer would be.
	camera.FillPattern(f.Buffer(), 0xAB)
	_ = sim.QueueFrame(f)

	if !bytes.Equal(s.Payload(), before) {
		t.Fatal("snapshot payload changed when the device buffer was overwritten")
	}
	if len(s.Payload()) != 64*48 {
		t.Errorf("payload size = %d, want %d", len(s.Payload()), 64*48)
	}
	if s.Width != 64 || s.Height != 48 || s.PixelFormat != camera.PixelFormatMono8 {
		t.Errorf("metadata = %dx%d %s", s.Width, s.Height, s.PixelFormat)
	}
}

func TestSourceSequencesAndRecycles(t *testing.T) {
	sim := newSim(t, camera.SimConfig{IncompleteEvery: 3})
	armTrigger(t, sim)

	q := NewQueue()
	bus := events.New()
	dropped := make(chan events.FrameDroppedEvent, 8)
	defer bus.Subscribe(func(e events.FrameDroppedEvent) { dropped <- e })()

	src := NewSource(sim, q, bus, discardLogger(), discardLogger())
	// A single device buffer: every trigger reuses the same memory.
	if err := sim.StartContinuous(1, src.OnFrame); err != nil {
		t.Fatalf("StartContinuous: %v", err)
	}

	for range 6 {
		if err := sim.RunCommand(camera.FeatureTriggerSoftware); err != nil {
			t.Fatalf("trigger: %v", err)
		}
		before := sim.Delivered()
		eventually(t, "frame delivery", func() bool { return sim.Delivered() > before })
	}
	eventually(t, "producer counters", func() bool { return src.Stats().Delivered == 6 })

	st := src.Stats()
	if st.Accepted != 4 || st.Rejected != 2 {
		t.Errorf("accepted/rejected = %d/%d, want 4/2", st.Accepted, st.Rejected)
	}

	q.Close()
	var wantSeq uint64 = 1
	for {
		s, ok := q.Pop()
		if !ok {
			break
		}
		if s.Sequence != wantSeq {
			t.Errorf("sequence %d, want %d", s.Sequence, wantSeq)
		}
		if s.FrameID%3 == 0 {
			t.Errorf("incomplete frame %d was queued", s.FrameID)
		}
		checkPattern(t, s.Payload(), s.FrameID)
		wantSeq++
	}
	if wantSeq != 5 {
		t.Errorf("popped %d snapshots, want 4", wantSeq-1)
	}

	select {
	case e := <-dropped:
		if e.Reason != DropIncomplete {
			t.Errorf("drop reason = %q, want %q", e.Reason, DropIncomplete)
		}
	case <-time.After(time.Second):
		t.Error("no FrameDroppedEvent published")
	}
}

func TestSourceDropsAfterQueueClosed(t *testing.T) {
	sim := newSim(t, camera.SimConfig{})
	armTrigger(t, sim)

	q := NewQueue()
	q.Close()
	src := NewSource(sim, q, nil, discardLogger(), discardLogger())
	_ = sim.StartContinuous(1, src.OnFrame)

	for range 2 {
		before := sim.Delivered()
		_ = sim.RunCommand(camera.FeatureTriggerSoftware)
		eventually(t, "frame delivery", func() bool { return sim.Delivered() > before })
	}
	eventually(t, "drop counter", func() bool { return src.Stats().Dropped == 2 })

	// The second delivery proves the single buffer went back to the device.
	if st := src.Stats(); st.Accepted != 0 {
		t.Errorf("accepted = %d, want 0", st.Accepted)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSourceLogsCapturedFrames(t *testing.T) {
	sim := newSim(t, camera.SimConfig{})
	armTrigger(t, sim)

	var out lockedBuffer
	frames := slog.New(slog.NewTextHandler(&out, nil))
	src := NewSource(sim, NewQueue(), nil, discardLogger(), frames)
	_ = sim.StartContinuous(1, src.OnFrame)

	for range 2 {
		before := sim.Delivered()
		_ = sim.RunCommand(camera.FeatureTriggerSoftware)
		eventually(t, "frame delivery", func() bool { return sim.Delivered() > before })
	}
	eventually(t, "capture lines", func() bool { return strings.Count(out.String(), "Frame captured") == 2 })

	for _, want := range []string{"seq=1 frame_id=1", "seq=2 frame_id=2"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("capture log missing %q:\n%s", want, out.String())
		}
	}
}
