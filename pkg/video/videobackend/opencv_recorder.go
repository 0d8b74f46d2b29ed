package videobackend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tauraamui/dragonvideo/pkg/log"
	"github.com/tauraamui/dragonvideo/pkg/videoformat"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

const defaultCodec = "avc1.4d001e"

var openVideoWriter = func(filename, codec string, fps float64, width, height int, isColor bool) (*gocv.VideoWriter, error) {
	return gocv.VideoWriterFile(filename, codec, fps, width, height, isColor)
}

// openCVRecorder persists streams as encoded movie containers through
// OpenCV's VideoWriter, e.g.
//
//	video:[fps=25,codec=mp4v]///clips/front-door.mp4
//
// Each added stream gets its own container file, streams past the
// first carry a -N suffix before the extension.
type openCVRecorder struct {
	id    string
	path  string
	codec string
	fps   float64

	mu      sync.Mutex
	streams []*openCVRecorderStream
}

func NewVideoRecorder(uri videouri.Uri) (Recorder, error) {
	if len(uri.Resource) == 0 {
		return nil, xerror.Errorf("%w: video recorder requires an output path", ErrVideoOpen)
	}

	fps, err := uri.Float("fps", 30)
	if err != nil {
		return nil, err
	}
	if fps <= 0 {
		return nil, xerror.Errorf("%w: video recorder fps must be positive", ErrVideoOpen)
	}

	if err := ensureDirectoryPathExists(filepath.Dir(uri.Resource)); err != nil {
		return nil, xerror.Errorf("%w: %v", ErrVideoOpen, err)
	}

	return &openCVRecorder{
		id:    uuid.NewString(),
		path:  uri.Resource,
		codec: uri.Param("codec", defaultCodec),
		fps:   fps,
	}, nil
}

func ensureDirectoryPathExists(path string) error {
	err := fs.MkdirAll(path, os.ModePerm|os.ModeDir)
	if err == nil || os.IsExist(err) {
		return nil
	}
	return err
}

func (r *openCVRecorder) UUID() string { return r.id }

func (r *openCVRecorder) AddStream(w, h int, encoderFmt string) (int, error) {
	format, err := videoformat.FromString(encoderFmt)
	if err != nil {
		return 0, xerror.Errorf("add stream: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	filename := streamFilename(r.path, len(r.streams))
	isColor := format.Channels >= 3
	vw, err := openVideoWriter(filename, r.codec, r.fps, w, h, isColor)
	if err != nil {
		return 0, xerror.Errorf("%w: writer for %s: %v", ErrVideoOpen, filename, err)
	}

	log.Info("recording %dx%d %s stream to %s", w, h, format.Format, filename) //nolint
	r.streams = append(r.streams, &openCVRecorderStream{
		width:  w,
		height: h,
		format: format,
		vw:     vw,
		fps:    r.fps,
	})
	return len(r.streams) - 1, nil
}

// streamFilename suffixes stream indices past the first before the
// extension: /a/b.mp4 -> /a/b-1.mp4.
func streamFilename(path string, idx int) string {
	if idx == 0 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), idx, ext)
}

func (r *openCVRecorder) Stream(i int) (RecorderStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.streams) {
		return nil, xerror.Errorf("%w: stream %d of %d", ErrOutOfRange, i, len(r.streams))
	}
	return r.streams[i], nil
}

func (r *openCVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, s := range r.streams {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openCVRecorderStream writes to a fixed rate container so its base
// clock advances one frame interval per written frame rather than
// tracking the wall clock.
type openCVRecorderStream struct {
	mu     sync.Mutex
	width  int
	height int
	format videoformat.VideoPixelFormat
	vw     *gocv.VideoWriter
	fps    float64
	frames int64
}

func (s *openCVRecorderStream) WriteImage(img []byte, w, h int, format string, timeS float64) error {
	if err := s.checkShape(img, w, h, format); err != nil {
		return err
	}

	if timeS < 0 {
		timeS = s.BaseFrameTime()
	}
	_ = timeS // fixed rate container, timestamps are implied by frame position

	mat, err := s.encodableMat(img, w, h)
	if err != nil {
		return err
	}
	defer mat.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.vw.Write(mat); err != nil {
		return xerror.Errorf("write frame: %w", err)
	}
	s.frames++
	return nil
}

func (s *openCVRecorderStream) checkShape(img []byte, w, h int, format string) error {
	if w != s.width || h != s.height || !strings.EqualFold(format, s.format.Format) {
		return xerror.Errorf(
			"%w: got %dx%d %s, stream is %dx%d %s",
			ErrFormatMismatch, w, h, format, s.width, s.height, s.format.Format,
		)
	}
	if len(img) < videoformat.ImageSizeBytes(s.format, w, h) {
		return xerror.Errorf("%w: image buffer shorter than one %s frame", ErrFormatMismatch, s.format.Format)
	}
	return nil
}

// encodableMat wraps the raw image bytes in a matrix in the BGR
// channel order the writer expects.
func (s *openCVRecorderStream) encodableMat(img []byte, w, h int) (gocv.Mat, error) {
	matType, err := matTypeFor(s.format)
	if err != nil {
		return gocv.Mat{}, xerror.Errorf("%w: cannot encode %s frames", ErrFormatMismatch, s.format.Format)
	}

	mat, err := gocv.NewMatFromBytes(h, w, matType, img[:videoformat.ImageSizeBytes(s.format, w, h)])
	if err != nil {
		return gocv.Mat{}, xerror.Errorf("frame matrix: %w", err)
	}

	var code gocv.ColorConversionCode
	switch s.format.Format {
	case "BGR24", "GRAY8":
		return mat, nil
	case "RGB24":
		code = gocv.ColorBGRToRGB
	case "RGBA":
		code = gocv.ColorRGBAToBGR
	case "BGRA":
		code = gocv.ColorBGRAToBGR
	default:
		mat.Close()
		return gocv.Mat{}, xerror.Errorf("%w: cannot encode %s frames", ErrFormatMismatch, s.format.Format)
	}

	converted := gocv.NewMat()
	gocv.CvtColor(mat, &converted, code)
	mat.Close()
	return converted, nil
}

func (s *openCVRecorderStream) BaseFrameTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.frames) / s.fps
}

func (s *openCVRecorderStream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vw.Close()
}
