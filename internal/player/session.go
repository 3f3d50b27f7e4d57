package player

import (
	"image"
	"log"
	"sync"
	"time"

	"camplayer/internal/camera"
	"camplayer/internal/config"
)

const (
	// DefaultConnectTimeout bounds how long a Start waits on the blocking
	// camera open call before abandoning it.
	DefaultConnectTimeout = 20 * time.Second
	// stopJoinTimeout bounds how long Stop waits for the producer loop to
	// exit before giving up on the join.
	stopJoinTimeout = 5 * time.Second
	// pausePollInterval paces the producer loop while paused so it idles
	// without busy-spinning or touching the source.
	pausePollInterval = 10 * time.Millisecond
)

// Error messages surfaced through the error callback. The wording is part
// of the external contract - the control surface displays these verbatim.
const (
	ErrMsgOpenFailed  = "Failed to open camera stream"
	ErrMsgOpenTimeout = "Failed to open camera stream: Operation timed out."
	ErrMsgReadFailed  = "Error reading frame. Stopping the video stream."
)

// Status messages surfaced through the status callback.
const (
	StatusStarting = "Starting streaming"
	StatusStarted  = "Streaming started"
	StatusPaused   = "Streaming paused"
	StatusPlaying  = "Streaming playing"
	StatusStopping = "Stopping streaming"
	StatusStopped  = "Streaming has stopped"
)

type openResult struct {
	src camera.Source
	err error
}

// StreamSession owns the camera connection lifecycle and the producer
// loop. At most one producer goroutine exists per session; all state
// transitions are serialized under the mutex. Frames flow into the
// FrameBuffer, everything else reaches subscribers through the callbacks,
// which are invoked from the producer goroutine.
type StreamSession struct {
	opener  camera.Opener
	frames  *FrameBuffer
	timeout time.Duration

	mu     sync.Mutex
	state  StreamState
	epoch  uint64 // bumped per Start; invalidates stale connect completions
	source camera.Source
	stop   chan struct{}
	done   chan struct{}

	resize    bool
	nativeW   int
	nativeH   int
	targetW   int
	targetH   int
	seq       uint64
	firstSent bool

	onFrame      func(*Frame)
	onFirstFrame func()
	onError      func(string)
	onStatus     func(string)
}

// NewStreamSession creates an idle session publishing into frames.
// A zero connectTimeout selects DefaultConnectTimeout.
func NewStreamSession(opener camera.Opener, frames *FrameBuffer, connectTimeout time.Duration) *StreamSession {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	return &StreamSession{
		opener:  opener,
		frames:  frames,
		timeout: connectTimeout,
		state:   StateIdle,
	}
}

// OnFrame registers the per-frame callback. Set callbacks before Start.
func (s *StreamSession) OnFrame(fn func(*Frame)) {
	s.mu.Lock()
	s.onFrame = fn
	s.mu.Unlock()
}

// OnFirstFrame registers the one-time first-frame callback. It fires once
// per successful Start cycle.
func (s *StreamSession) OnFirstFrame(fn func()) {
	s.mu.Lock()
	s.onFirstFrame = fn
	s.mu.Unlock()
}

// OnError registers the error callback.
func (s *StreamSession) OnError(fn func(string)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// OnStatus registers the status callback.
func (s *StreamSession) OnStatus(fn func(string)) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

// State returns the current lifecycle state.
func (s *StreamSession) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NativeResolution reports the source resolution captured at connect time.
// Zero before the first successful connect.
func (s *StreamSession) NativeResolution() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nativeW, s.nativeH
}

// ResizeNeeded reports the per-session resize decision: true iff the
// native resolution differed from the requested one at connect time.
func (s *StreamSession) ResizeNeeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resize
}

// Start begins a connection attempt. Guard: the host must be configured
// and the session must be Idle or Failed; Start while already
// connecting/streaming is a no-op. The connect attempt itself runs on a
// detached goroutine bounded by the connect timeout (see connect).
func (s *StreamSession) Start(cfg config.ConnectionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != StateIdle && s.state != StateFailed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.epoch++
	epoch := s.epoch
	s.firstSent = false
	s.seq = 0
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop = stop
	s.done = done
	s.mu.Unlock()

	s.emitStatus(StatusStarting)
	go s.run(cfg, epoch, stop, done)
	return nil
}

// Stop terminates the session: it signals the producer loop, joins it with
// a bound, releases the source handle and returns to Idle. Stop on an
// Idle or Failed session is a no-op and emits nothing.
func (s *StreamSession) Stop() {
	s.mu.Lock()
	if !s.state.active() {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	stop := s.stop
	done := s.done
	s.mu.Unlock()

	s.emitStatus(StatusStopping)
	close(stop)

	// Bounded join so a wedged native read cannot hang the caller. The
	// handle is only released after the loop exits (or the bound trips),
	// never while the producer may still be using it.
	select {
	case <-done:
	case <-time.After(stopJoinTimeout):
		log.Println("stream: producer loop did not exit in time")
	}

	s.mu.Lock()
	if s.source != nil {
		s.source.Close()
		s.source = nil
	}
	s.state = StateIdle
	s.mu.Unlock()

	s.frames.Clear()
	s.emitStatus(StatusStopped)
}

// Pause toggles the paused flag. Valid only while streaming or already
// paused; a no-op otherwise.
func (s *StreamSession) Pause(pause bool) {
	s.mu.Lock()
	switch {
	case pause && s.state == StateStreaming:
		s.state = StatePaused
		s.mu.Unlock()
		s.emitStatus(StatusPaused)
	case !pause && s.state == StatePaused:
		s.state = StateStreaming
		s.mu.Unlock()
		s.emitStatus(StatusPlaying)
	default:
		s.mu.Unlock()
	}
}

// run is the producer goroutine: connect, decide resize policy, then pump
// frames until stopped or the source fails.
func (s *StreamSession) run(cfg config.ConnectionConfig, epoch uint64, stop, done chan struct{}) {
	defer close(done)

	src, ok := s.connect(cfg, epoch, stop)
	if !ok {
		return
	}

	nativeW, nativeH := src.Resolution()

	s.mu.Lock()
	if s.state != StateConnecting || s.epoch != epoch {
		// Stop raced the connect; Stop owns the handle release.
		s.mu.Unlock()
		return
	}
	s.nativeW, s.nativeH = nativeW, nativeH
	s.targetW, s.targetH = cfg.Width, cfg.Height
	// The resize decision is fixed for the whole session.
	s.resize = cfg.Width > 0 && cfg.Height > 0 &&
		(nativeW != cfg.Width || nativeH != cfg.Height)
	resize := s.resize
	s.state = StateStreaming
	s.mu.Unlock()

	log.Printf("stream: connected, native %dx%d, requested %dx%d, resize=%v",
		nativeW, nativeH, cfg.Width, cfg.Height, resize)

	s.produce(src, stop)
}

// connect runs the blocking open on a detached goroutine and waits for it
// with a timeout. A late result - after timeout, Stop, or a newer Start -
// is abandoned: the detached goroutine itself closes the handle, so the
// session never touches an abandoned attempt and the handle is not leaked.
func (s *StreamSession) connect(cfg config.ConnectionConfig, epoch uint64, stop chan struct{}) (camera.Source, bool) {
	uri := cfg.URI()
	results := make(chan openResult, 1)

	go func() {
		src, err := s.opener.Open(uri)
		results <- openResult{src: src, err: err}
	}()

	var res openResult
	select {
	case res = <-results:
	case <-time.After(s.timeout):
		go discardOpenResult(results)
		s.fail(ErrMsgOpenTimeout)
		return nil, false
	case <-stop:
		go discardOpenResult(results)
		return nil, false
	}

	if res.err != nil || res.src == nil {
		s.fail(ErrMsgOpenFailed)
		return nil, false
	}

	s.mu.Lock()
	if s.state != StateConnecting || s.epoch != epoch {
		s.mu.Unlock()
		res.src.Close()
		return nil, false
	}
	s.source = res.src
	s.mu.Unlock()
	return res.src, true
}

// discardOpenResult drains an abandoned connect attempt and releases
// whatever it eventually produced.
func discardOpenResult(results chan openResult) {
	res := <-results
	if res.src != nil {
		res.src.Close()
	}
}

// produce is the frame loop. While paused it idles on a bounded sleep and
// never reads the source. A read failure auto-stops the session with a
// single error event; there is no automatic retry.
func (s *StreamSession) produce(src camera.Source, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		if s.State() == StatePaused {
			time.Sleep(pausePollInterval)
			continue
		}

		img, err := src.Read()
		if err != nil {
			// A read error while stopping is just the handle going away.
			select {
			case <-stop:
				return
			default:
			}
			s.fail(ErrMsgReadFailed)
			return
		}

		s.publish(img)
	}
}

// publish resizes (when the session decided to at connect), stores the
// frame in the buffer and notifies subscribers. The very first published
// frame additionally emits the one-time stream-started events.
func (s *StreamSession) publish(img image.Image) {
	s.mu.Lock()
	width, height := s.nativeW, s.nativeH
	if s.resize {
		width, height = s.targetW, s.targetH
	}
	s.seq++
	seq := s.seq
	onFrame := s.onFrame
	onFirst := s.onFirstFrame
	first := !s.firstSent
	s.firstSent = true
	s.mu.Unlock()

	f := frameFromImage(img, width, height, seq)
	s.frames.Publish(f)

	if onFrame != nil {
		onFrame(f)
	}
	if first {
		s.emitStatus(StatusStarted)
		if onFirst != nil {
			onFirst()
		}
	}
}

// fail releases the source, moves to Failed and surfaces exactly one error
// event. The operator restarts explicitly; Start accepts Failed.
func (s *StreamSession) fail(msg string) {
	s.mu.Lock()
	if s.source != nil {
		s.source.Close()
		s.source = nil
	}
	s.state = StateFailed
	onError := s.onError
	s.mu.Unlock()

	log.Printf("stream: %s", msg)
	if onError != nil {
		onError(msg)
	}
}

func (s *StreamSession) emitStatus(msg string) {
	s.mu.Lock()
	onStatus := s.onStatus
	s.mu.Unlock()
	if onStatus != nil {
		onStatus(msg)
	}
}
