package videobackend

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/tauraamui/dragonvideo/pkg/videoformat"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
	"github.com/tauraamui/xerror"
)

// raw container layout, all integers little endian:
//
//	header: magic "DGNV", u16 version, u32 width, u32 height,
//	        u8 format token length, format token bytes
//	frame:  f64 timestamp seconds, u32 payload length, payload
var rawMagic = []byte("DGNV")

const rawVersion uint16 = 1

// rawRecorder persists unencoded frames to the native container
// format, one file per stream, e.g.
//
//	raw:///captures/rig-left.dgnv
//
// Unlike the encoded recorder its stream clock tracks the wall clock
// since the stream was added, raw captures usually want real arrival
// times rather than an implied fixed rate.
type rawRecorder struct {
	id   string
	path string

	mu      sync.Mutex
	streams []*rawRecorderStream
}

func NewRawRecorder(uri videouri.Uri) (Recorder, error) {
	if len(uri.Resource) == 0 {
		return nil, xerror.Errorf("%w: raw recorder requires an output path", ErrVideoOpen)
	}
	if err := ensureDirectoryPathExists(filepath.Dir(uri.Resource)); err != nil {
		return nil, xerror.Errorf("%w: %v", ErrVideoOpen, err)
	}
	return &rawRecorder{
		id:   uuid.NewString(),
		path: uri.Resource,
	}, nil
}

func (r *rawRecorder) UUID() string { return r.id }

func (r *rawRecorder) AddStream(w, h int, encoderFmt string) (int, error) {
	format, err := videoformat.FromString(encoderFmt)
	if err != nil {
		return 0, xerror.Errorf("add stream: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	filename := streamFilename(r.path, len(r.streams))
	file, err := fs.Create(filename)
	if err != nil {
		return 0, xerror.Errorf("%w: create %s: %v", ErrVideoOpen, filename, err)
	}

	stream := &rawRecorderStream{
		width:  w,
		height: h,
		format: format,
		file:   file,
		base:   time.Now(),
	}
	if err := stream.writeHeader(); err != nil {
		file.Close()
		return 0, err
	}

	r.streams = append(r.streams, stream)
	return len(r.streams) - 1, nil
}

func (r *rawRecorder) Stream(i int) (RecorderStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.streams) {
		return nil, xerror.Errorf("%w: stream %d of %d", ErrOutOfRange, i, len(r.streams))
	}
	return r.streams[i], nil
}

func (r *rawRecorder) Close() error {
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

type rawRecorderStream struct {
	mu     sync.Mutex
	width  int
	height int
	format videoformat.VideoPixelFormat
	file   afero.File
	base   time.Time
}

func (s *rawRecorderStream) writeHeader() error {
	header := make([]byte, 0, len(rawMagic)+11+len(s.format.Format))
	header = append(header, rawMagic...)
	header = binary.LittleEndian.AppendUint16(header, rawVersion)
	header = binary.LittleEndian.AppendUint32(header, uint32(s.width))
	header = binary.LittleEndian.AppendUint32(header, uint32(s.height))
	header = append(header, byte(len(s.format.Format)))
	header = append(header, s.format.Format...)
	if _, err := s.file.Write(header); err != nil {
		return xerror.Errorf("write container header: %w", err)
	}
	return nil
}

func (s *rawRecorderStream) WriteImage(img []byte, w, h int, format string, timeS float64) error {
	if w != s.width || h != s.height || !strings.EqualFold(format, s.format.Format) {
		return xerror.Errorf(
			"%w: got %dx%d %s, stream is %dx%d %s",
			ErrFormatMismatch, w, h, format, s.width, s.height, s.format.Format,
		)
	}
	size := videoformat.ImageSizeBytes(s.format, w, h)
	if len(img) < size {
		return xerror.Errorf("%w: image buffer shorter than one %s frame", ErrFormatMismatch, s.format.Format)
	}

	if timeS < 0 {
		timeS = s.BaseFrameTime()
	}

	framing := make([]byte, 0, 12)
	framing = binary.LittleEndian.AppendUint64(framing, math.Float64bits(timeS))
	framing = binary.LittleEndian.AppendUint32(framing, uint32(size))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(framing); err != nil {
		return xerror.Errorf("write frame header: %w", err)
	}
	if _, err := s.file.Write(img[:size]); err != nil {
		return xerror.Errorf("write frame payload: %w", err)
	}
	return nil
}

func (s *rawRecorderStream) BaseFrameTime() float64 {
	return time.Since(s.base).Seconds()
}

func (s *rawRecorderStream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
