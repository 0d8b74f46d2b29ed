package videobackend

import (
	"errors"

	"github.com/spf13/afero"
	"github.com/tauraamui/dragonvideo/pkg/videoformat"
)

var fs = afero.NewOsFs()

var (
	ErrVideoOpen      = errors.New("unable to open video backend")
	ErrOutOfRange     = errors.New("stream index out of range")
	ErrFormatMismatch = errors.New("image does not match stream format")
)

// Source is the contract every concrete capture backend implements.
// Dimensions and pixel format are fixed once the backend is
// constructed. Frame retrieval is only valid between Start and Stop.
// Instances are single owner and not safe for unsynchronised use from
// multiple goroutines.
type Source interface {
	// UUID identifies this backend instance in log output.
	UUID() string

	Width() int
	Height() int
	// SizeBytes is the byte size of a single full frame, grab buffers
	// must be at least this large.
	SizeBytes() int
	PixFormat() videoformat.VideoPixelFormat

	// Start and Stop are idempotent, calling either while already in
	// the requested state is a no-op. Stop unblocks any in-flight
	// waiting grab call.
	Start() error
	Stop() error

	// GrabNext copies the next frame in capture order into image.
	// When wait is set the call blocks until a frame arrives or the
	// source is stopped. Reports whether a copy happened, steady
	// state capture faults surface as false rather than errors.
	GrabNext(image []byte, wait bool) bool

	// GrabNewest discards any buffered older frames and copies only
	// the most recently captured one, trading completeness for
	// latency.
	GrabNewest(image []byte, wait bool) bool

	// Close releases the underlying device or file handle. Valid
	// from any state.
	Close() error
}

// RecorderStream is one independently addressable write target within
// a recording backend.
type RecorderStream interface {
	// WriteImage encodes and persists a single frame. The buffer
	// shape must match what AddStream declared. A negative timeS
	// means derive the timestamp from the stream's own base clock.
	WriteImage(img []byte, w, h int, format string, timeS float64) error
	// BaseFrameTime is the stream clock value, in seconds since the
	// stream's reference epoch, that a sentinel write would be
	// stamped with.
	BaseFrameTime() float64
}

// Recorder is the contract every concrete sink backend implements.
// Streams are append-only for the life of the backend.
type Recorder interface {
	UUID() string
	AddStream(w, h int, encoderFmt string) (int, error)
	Stream(i int) (RecorderStream, error)
	Close() error
}
