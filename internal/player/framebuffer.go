package player

import "sync"

// FrameBuffer is the single-slot hand-off between the producer loop and
// the consumer. Publish replaces the held frame unconditionally
// (drop-oldest): a slow consumer silently misses intermediate frames and
// the producer never blocks. Frames are immutable once published, so
// Latest can return the held pointer directly.
type FrameBuffer struct {
	mu     sync.Mutex
	frame  *Frame
	unread bool

	// Stats
	published uint64
	dropped   uint64
	reads     uint64
}

// NewFrameBuffer creates an empty frame buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Publish stores f as the latest frame, discarding any unread predecessor.
func (b *FrameBuffer) Publish(f *Frame) {
	b.mu.Lock()
	if b.unread {
		b.dropped++
	}
	b.frame = f
	b.unread = true
	b.published++
	b.mu.Unlock()
}

// Latest returns the most recently published frame, or nil if nothing has
// been published yet. The frame is shared, not copied; it is never mutated
// after publication.
func (b *FrameBuffer) Latest() *Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil {
		return nil
	}
	b.unread = false
	b.reads++
	return b.frame
}

// Clear drops the held frame, typically on session stop so a stale image
// is not served after restart.
func (b *FrameBuffer) Clear() {
	b.mu.Lock()
	b.frame = nil
	b.unread = false
	b.mu.Unlock()
}

// Stats returns publish/drop/read counters.
func (b *FrameBuffer) Stats() (published, dropped, reads uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published, b.dropped, b.reads
}
