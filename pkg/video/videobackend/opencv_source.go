package videobackend

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tauraamui/dragonvideo/pkg/log"
	"github.com/tauraamui/dragonvideo/pkg/videoformat"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

var openVideoCapture = func(target interface{}, api gocv.VideoCaptureAPI) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCaptureWithAPI(target, api)
}

var readFromVideoCapture = func(vc *gocv.VideoCapture, m *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(m)
	}
	return false
}

type openCVConfig struct {
	api    gocv.VideoCaptureAPI
	props  map[gocv.VideoCaptureProperties]float64
	pixfmt videoformat.VideoPixelFormat
	// realtime paces frame delivery to the source's own frame rate,
	// file sources otherwise deliver as fast as they are consumed
	realtime bool
}

// openCVSource drives any capture target OpenCV can open, movie
// files, image sequences and camera devices alike. Frames come out in
// whatever layout the underlying decoder hands over, BGR24 for colour
// targets.
type openCVSource struct {
	id       string
	vc       *gocv.VideoCapture
	width    int
	height   int
	pixfmt   videoformat.VideoPixelFormat
	interval time.Duration
	pump     *framePump

	mu     sync.Mutex
	primed []byte
}

func connectOpenCV(target interface{}, cfg openCVConfig) (*openCVSource, error) {
	vc, err := openVideoCapture(target, cfg.api)
	if err != nil {
		return nil, xerror.Errorf("%w: %v: %v", ErrVideoOpen, target, err)
	}

	for prop, value := range cfg.props {
		vc.Set(prop, value)
	}

	src := openCVSource{
		id:     uuid.NewString(),
		vc:     vc,
		pixfmt: cfg.pixfmt,
		width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
		pump:   newFramePump(),
	}

	// some targets (image sequences in particular) only report their
	// dimensions once the first frame has been decoded
	if src.width <= 0 || src.height <= 0 {
		if err := src.probe(); err != nil {
			vc.Close()
			return nil, err
		}
	}

	if cfg.realtime {
		if fps := vc.Get(gocv.VideoCaptureFPS); fps > 0 {
			src.interval = time.Duration(float64(time.Second) / fps)
		}
	}

	log.Debug("opened capture target [%v] as %dx%d %s", target, src.width, src.height, src.pixfmt.Format)
	return &src, nil
}

func (s *openCVSource) probe() error {
	mat := gocv.NewMat()
	defer mat.Close()
	if !readFromVideoCapture(s.vc, &mat) || mat.Empty() {
		return xerror.Errorf("%w: target produced no readable frame", ErrVideoOpen)
	}
	s.width = mat.Cols()
	s.height = mat.Rows()
	s.mu.Lock()
	s.primed = mat.ToBytes()
	s.mu.Unlock()
	return nil
}

func (s *openCVSource) UUID() string { return s.id }

func (s *openCVSource) Width() int  { return s.width }
func (s *openCVSource) Height() int { return s.height }

func (s *openCVSource) SizeBytes() int {
	return videoformat.ImageSizeBytes(s.pixfmt, s.width, s.height)
}

func (s *openCVSource) PixFormat() videoformat.VideoPixelFormat { return s.pixfmt }

func (s *openCVSource) Start() error {
	s.pump.start(s.read)
	return nil
}

func (s *openCVSource) Stop() error {
	s.pump.halt()
	return nil
}

func (s *openCVSource) read() ([]byte, bool) {
	if s.interval > 0 {
		time.Sleep(s.interval)
	}

	s.mu.Lock()
	primed := s.primed
	s.primed = nil
	s.mu.Unlock()
	if primed != nil {
		return primed, true
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if !readFromVideoCapture(s.vc, &mat) || mat.Empty() {
		return nil, false
	}
	return mat.ToBytes(), true
}

func (s *openCVSource) GrabNext(image []byte, wait bool) bool {
	return s.pump.grabNext(image, wait)
}

func (s *openCVSource) GrabNewest(image []byte, wait bool) bool {
	return s.pump.grabNewest(image, wait)
}

func (s *openCVSource) Close() error {
	s.pump.halt()
	return s.vc.Close()
}

func bgr24() videoformat.VideoPixelFormat {
	f, err := videoformat.FromString("BGR24")
	if err != nil {
		panic(err)
	}
	return f
}
