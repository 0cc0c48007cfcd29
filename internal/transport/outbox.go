package transport

import (
	"sync"
)

// outbox is an unbounded FIFO of replies. It doubles its ring when 70%
// full, so Push never blocks a handler.
type outbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []OutboundEnvelope
	head   int // read position
	tail   int // write position
	count  int
	bytes  int
	closed bool

	// Stats
	pushed  int64
	popped  int64
	resizes int
	peak    int
}

// OutboxStats reports outbox occupancy.
type OutboxStats struct {
	Queued      int
	QueuedBytes int
	Capacity    int
	Peak        int
	Pushed      int64
	Popped      int64
	Resizes     int
}

func newOutbox(initialCapacity int) *outbox {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	b := &outbox{
		buf: make([]OutboundEnvelope, initialCapacity),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// push appends env. It returns false once the outbox is closed.
func (b *outbox) push(env OutboundEnvelope) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	threshold := (len(b.buf) * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.count+1 >= threshold {
		b.grow()
	}

	b.buf[b.tail] = env
	b.tail = (b.tail + 1) % len(b.buf)
	b.count++
	b.bytes += env.size()
	b.pushed++
	if b.count > b.peak {
		b.peak = b.count
	}

	b.cond.Signal()
	return true
}

// pop blocks until an envelope is queued or the outbox is closed and
// empty. Queued envelopes are still returned after close.
func (b *outbox) pop() (OutboundEnvelope, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.count == 0 {
		return OutboundEnvelope{}, false
	}

	env := b.buf[b.head]
	b.buf[b.head] = OutboundEnvelope{} // release payload
	b.head = (b.head + 1) % len(b.buf)
	b.count--
	b.bytes -= env.size()
	b.popped++

	return env, true
}

// close stops new pushes and wakes the reader.
func (b *outbox) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.cond.Broadcast()
}

// discard drops everything still queued and returns how many were dropped.
func (b *outbox) discard() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.count
	for i := range b.buf {
		b.buf[i] = OutboundEnvelope{}
	}
	b.head, b.tail, b.count, b.bytes = 0, 0, 0, 0
	return n
}

func (b *outbox) stats() OutboxStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return OutboxStats{
		Queued:      b.count,
		QueuedBytes: b.bytes,
		Capacity:    len(b.buf),
		Peak:        b.peak,
		Pushed:      b.pushed,
		Popped:      b.popped,
		Resizes:     b.resizes,
	}
}

// grow doubles the ring. Must be called with lock held.
func (b *outbox) grow() {
	next := make([]OutboundEnvelope, len(b.buf)*2)

	if b.count > 0 {
		if b.head < b.tail {
			copy(next, b.buf[b.head:b.tail])
		} else {
			n := copy(next, b.buf[b.head:])
			copy(next[n:], b.buf[:b.tail])
		}
	}

	b.buf = next
	b.head = 0
	b.tail = b.count
	b.resizes++
}
