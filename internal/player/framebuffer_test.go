package player

import (
	"testing"
)

func testFrame(seq uint64) *Frame {
	return &Frame{
		Pix:    make([]byte, 4*4*4),
		Width:  4,
		Height: 4,
		Seq:    seq,
	}
}

// TestFrameBufferEmpty tests reading before any publish
func TestFrameBufferEmpty(t *testing.T) {
	b := NewFrameBuffer()

	if f := b.Latest(); f != nil {
		t.Errorf("Expected nil from empty buffer, got seq %d", f.Seq)
	}
}

// TestFrameBufferDropOldest tests that a newer frame replaces an unread one
func TestFrameBufferDropOldest(t *testing.T) {
	b := NewFrameBuffer()

	b.Publish(testFrame(1))
	b.Publish(testFrame(2))

	f := b.Latest()
	if f == nil {
		t.Fatal("Expected a frame after publish")
	}
	if f.Seq != 2 {
		t.Errorf("Expected newest frame (seq 2), got seq %d", f.Seq)
	}

	published, dropped, reads := b.Stats()
	if published != 2 {
		t.Errorf("Expected 2 published, got %d", published)
	}
	if dropped != 1 {
		t.Errorf("Expected 1 dropped, got %d", dropped)
	}
	if reads != 1 {
		t.Errorf("Expected 1 read, got %d", reads)
	}
}

// TestFrameBufferReadThenPublish tests that a read frame does not count as
// dropped when replaced
func TestFrameBufferReadThenPublish(t *testing.T) {
	b := NewFrameBuffer()

	b.Publish(testFrame(1))
	b.Latest()
	b.Publish(testFrame(2))

	_, dropped, _ := b.Stats()
	if dropped != 0 {
		t.Errorf("Expected 0 dropped after read, got %d", dropped)
	}
}

// TestFrameBufferLatestIsRepeatable tests that Latest keeps returning the
// current frame
func TestFrameBufferLatestIsRepeatable(t *testing.T) {
	b := NewFrameBuffer()
	b.Publish(testFrame(7))

	f1 := b.Latest()
	f2 := b.Latest()
	if f1 == nil || f2 == nil {
		t.Fatal("Expected frames from repeated reads")
	}
	if f1.Seq != f2.Seq {
		t.Errorf("Expected same frame on repeated reads, got %d and %d", f1.Seq, f2.Seq)
	}
}

// TestFrameBufferClear tests emptying the buffer
func TestFrameBufferClear(t *testing.T) {
	b := NewFrameBuffer()
	b.Publish(testFrame(1))
	b.Clear()

	if f := b.Latest(); f != nil {
		t.Errorf("Expected nil after Clear, got seq %d", f.Seq)
	}
}
