package acquisition

import (
	"slices"
	"testing"
	"time"

	"github.com/smazurov/camnode/internal/events"
)

func payloadSnap(seq uint64) *Snapshot {
	return &Snapshot{Sequence: seq, Width: 1, Height: 1, payload: []byte{byte(seq)}}
}

func TestWorkerPersistsInOrder(t *testing.T) {
	q := NewQueue()
	saver := newMemSaver()
	w := NewWorker(q, saver, "worker-order", nil, discardLogger())
	w.Start()

	for i := uint64(1); i <= 20; i++ {
		q.Push(payloadSnap(i))
	}
	q.Close()
	w.Wait()

	want := make([]uint64, 20)
	for i := range want {
		want[i] = uint64(i + 1)
	}
	if got := saver.sequences(); !slices.Equal(got, want) {
		t.Errorf("saved %v, want %v", got, want)
	}
	if st := w.Stats(); st.Saved != 20 || st.LastSequence != 20 {
		t.Errorf("stats = %+v", st)
	}
}

func TestWorkerContinuesAfterWriteFailure(t *testing.T) {
	q := NewQueue()
	saver := newMemSaver()
	saver.failOn = map[uint64]bool{2: true}

	bus := events.New()
	failures := make(chan events.FrameWriteFailedEvent, 1)
	defer bus.Subscribe(func(e events.FrameWriteFailedEvent) { failures <- e })()

	w := NewWorker(q, saver, "worker-failure", bus, discardLogger())
	w.Start()
	for i := uint64(1); i <= 3; i++ {
		q.Push(payloadSnap(i))
	}
	q.Close()
	w.Wait()

	if got := saver.sequences(); !slices.Equal(got, []uint64{1, 3}) {
		t.Errorf("saved %v, want [1 3]", got)
	}
	if st := w.Stats(); st.Failed != 1 || st.Saved != 2 {
		t.Errorf("stats = %+v, want 2 saved 1 failed", st)
	}

	select {
	case e := <-failures:
		if e.Sequence != 2 || e.Error == "" {
			t.Errorf("failure event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Error("no FrameWriteFailedEvent published")
	}
}

func TestWorkerDrainsQueuedSnapshotsOnClose(t *testing.T) {
	q := NewQueue()
	const k = 7
	for i := uint64(1); i <= k; i++ {
		q.Push(payloadSnap(i))
	}
	q.Close()

	saver := newMemSaver()
	w := NewWorker(q, saver, "worker-drain", nil, discardLogger())
	w.Start()
	w.Wait()

	if got := len(saver.sequences()); got != k {
		t.Errorf("persisted %d snapshots, want %d", got, k)
	}
}

func TestWorkerWaitWithoutStart(t *testing.T) {
	w := NewWorker(NewQueue(), newMemSaver(), "worker-idle", nil, discardLogger())
	waited := make(chan struct{})
	go func() {
		w.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on a worker that was never started")
	}
}
