package camera

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GoCVOpener opens camera URIs through OpenCV's VideoCapture, which speaks
// RTSP (and anything else the local FFmpeg/GStreamer backends support).
type GoCVOpener struct{}

// Open connects to the camera. This call can block for a long time on
// unreachable hosts; the session bounds it with its connect timeout.
func (GoCVOpener) Open(uri string) (Source, error) {
	cap, err := gocv.OpenVideoCapture(uri)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("capture did not open")
	}

	// Keep the driver-side queue at one frame for low latency; we drop
	// stale frames ourselves.
	cap.Set(gocv.VideoCaptureBufferSize, 1)

	return &gocvSource{
		cap:    cap,
		mat:    gocv.NewMat(),
		width:  int(cap.Get(gocv.VideoCaptureFrameWidth)),
		height: int(cap.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

// gocvSource wraps an open VideoCapture. The Mat is reused across reads to
// avoid a per-frame native allocation.
type gocvSource struct {
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	width  int
	height int
}

func (s *gocvSource) Read() (image.Image, error) {
	if ok := s.cap.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, ErrReadFailed
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

func (s *gocvSource) Resolution() (int, int) {
	return s.width, s.height
}

func (s *gocvSource) Close() error {
	s.mat.Close()
	return s.cap.Close()
}
