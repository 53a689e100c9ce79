package ops

import (
	"sync"

	audit "taxfile/pkg/platform/audit"
)

const defaultBufferSize = 10000

// RingBuffer holds ops events awaiting a flush. A full buffer evicts its
// oldest event, so a stalled store costs history rather than memory.
type RingBuffer struct {
	mu      sync.Mutex
	slots   []audit.OpsEvent
	start   int
	size    int
	evicted int64
}

// NewRingBuffer sizes the buffer; non-positive sizes use the default.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &RingBuffer{slots: make([]audit.OpsEvent, size)}
}

// Push appends event and returns the event it evicted, if any.
func (b *RingBuffer) Push(event audit.OpsEvent) (audit.OpsEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size < len(b.slots) {
		b.slots[(b.start+b.size)%len(b.slots)] = event
		b.size++
		return audit.OpsEvent{}, false
	}
	old := b.slots[b.start]
	b.slots[b.start] = event
	b.start = (b.start + 1) % len(b.slots)
	b.evicted++
	return old, true
}

// Drain removes and returns up to n of the oldest events.
func (b *RingBuffer) Drain(n int) []audit.OpsEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	n = min(n, b.size)
	if n <= 0 {
		return nil
	}
	out := make([]audit.OpsEvent, 0, n)
	for range n {
		out = append(out, b.slots[b.start])
		b.slots[b.start] = audit.OpsEvent{}
		b.start = (b.start + 1) % len(b.slots)
	}
	b.size -= n
	return out
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Evicted counts events pushed out before they were flushed.
func (b *RingBuffer) Evicted() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.evicted
}
