package logging

import (
	"sync"
	"time"
)

// LogEntry is one record kept in the ring buffer.
// Seq increases by one per buffered record, starting at 1; zero means the
// entry never went through a buffer.
type LogEntry struct {
	Seq        uint64         `json:"seq"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer keeps the most recent entries. Slot i holds the entry whose
// Seq-1 is congruent to i modulo the capacity.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    uint64
}

// NewRingBuffer creates a buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{entries: make([]LogEntry, max(size, 1)), next: 1}
}

// Write stores entry, evicting the oldest one when full, and returns it with
// its assigned Seq.
func (rb *RingBuffer) Write(entry LogEntry) LogEntry {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	entry.Seq = rb.next
	rb.entries[rb.slot(entry.Seq)] = entry
	rb.next++
	return entry
}

// Tail returns up to n of the newest entries, oldest first. n <= 0 returns
// everything held.
func (rb *RingBuffer) Tail(n int) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	held := rb.held()
	if n <= 0 || n > held {
		n = held
	}
	if n == 0 {
		return nil
	}
	out := make([]LogEntry, n)
	first := rb.next - uint64(n)
	for i := range out {
		out[i] = rb.entries[rb.slot(first+uint64(i))]
	}
	return out
}

// ReadAll returns every held entry, oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	return rb.Tail(0)
}

// Count returns the number of held entries.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.held()
}

// LastSeq returns the Seq of the newest entry, or 0 when nothing was written.
func (rb *RingBuffer) LastSeq() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.next - 1
}

func (rb *RingBuffer) held() int {
	return int(min(rb.next-1, uint64(len(rb.entries))))
}

func (rb *RingBuffer) slot(seq uint64) int {
	return int((seq - 1) % uint64(len(rb.entries)))
}
