// Package camera abstracts the video source behind small interfaces so the
// player core can be driven by a real RTSP camera, a synthetic test
// pattern, or a stub in tests.
package camera

import (
	"errors"
	"image"
)

// ErrReadFailed is returned when a previously-open source stops yielding
// frames.
var ErrReadFailed = errors.New("failed to read frame from source")

// Source is an open camera connection. Implementations are not safe for
// concurrent use; the session's producer loop is the only reader, and
// Close is only called after that loop has exited.
type Source interface {
	// Read blocks until the next frame is decoded.
	Read() (image.Image, error)
	// Resolution reports the source's native frame size, captured at open.
	Resolution() (width, height int)
	// Close releases the underlying capture handle.
	Close() error
}

// Opener opens a camera URI. Open may block indefinitely on unreachable
// hosts - callers are expected to invoke it from a goroutine they can
// abandon, and Open implementations must leave a usable Source (or an
// error) even when the caller has stopped waiting.
type Opener interface {
	Open(uri string) (Source, error)
}
