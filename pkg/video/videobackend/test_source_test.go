package videobackend_test

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/tauraamui/dragonvideo/pkg/video/videobackend"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
)

func TestTestSourceReportsConfiguredGeometry(t *testing.T) {
	is := is.New(t)

	uri, err := videouri.Parse("test:[size=320x240,fps=0]//")
	is.NoErr(err)

	src, err := videobackend.NewTestSource(uri)
	is.NoErr(err)
	defer src.Close()

	is.Equal(src.Width(), 320)
	is.Equal(src.Height(), 240)
	is.Equal(src.PixFormat().Format, "RGB24")
	is.Equal(src.SizeBytes(), 320*240*3)
	is.True(len(src.UUID()) > 0)
}

func TestTestSourceGrabsFramesAfterStart(t *testing.T) {
	is := is.New(t)

	uri, err := videouri.Parse("test:[size=64x48,fps=0,title=unit]//")
	is.NoErr(err)

	src, err := videobackend.NewTestSource(uri)
	is.NoErr(err)
	defer src.Close()

	is.NoErr(src.Start())

	frame := make([]byte, src.SizeBytes())
	is.True(src.GrabNext(frame, true))

	// pattern frames are never fully black
	var sum int
	for _, b := range frame {
		sum += int(b)
	}
	is.True(sum > 0)

	is.True(src.GrabNewest(frame, true))
	is.NoErr(src.Stop())
}

func TestTestSourceGrabsReturnFalseBeforeStart(t *testing.T) {
	is := is.New(t)

	uri, err := videouri.Parse("test:[size=64x48]//")
	is.NoErr(err)

	src, err := videobackend.NewTestSource(uri)
	is.NoErr(err)
	defer src.Close()

	frame := make([]byte, src.SizeBytes())
	is.Equal(src.GrabNext(frame, false), false)
	is.Equal(src.GrabNewest(frame, false), false)
}

func TestTestSourceStopUnblocksWaitingGrab(t *testing.T) {
	is := is.New(t)

	uri, err := videouri.Parse("test:[size=64x48,fps=1]//")
	is.NoErr(err)

	src, err := videobackend.NewTestSource(uri)
	is.NoErr(err)
	defer src.Close()

	is.NoErr(src.Start())

	grabbed := make(chan struct{})
	go func() {
		defer close(grabbed)
		frame := make([]byte, src.SizeBytes())
		for src.GrabNext(frame, true) {
		}
	}()

	time.Sleep(10 * time.Millisecond)
	is.NoErr(src.Stop())

	select {
	case <-grabbed:
	case <-time.After(time.Second):
		t.Fatal("grab still blocked after source stop")
	}
}

func TestTestSourceStartAndStopAreIdempotent(t *testing.T) {
	is := is.New(t)

	uri, err := videouri.Parse("test:[size=64x48,fps=0]//")
	is.NoErr(err)

	src, err := videobackend.NewTestSource(uri)
	is.NoErr(err)
	defer src.Close()

	is.NoErr(src.Start())
	is.NoErr(src.Start())

	frame := make([]byte, src.SizeBytes())
	is.True(src.GrabNext(frame, true))

	is.NoErr(src.Stop())
	is.NoErr(src.Stop())
}

func TestTestSourceRejectsNonPositiveSize(t *testing.T) {
	is := is.New(t)

	uri, err := videouri.Parse("test:[size=0x480]//")
	is.NoErr(err)

	_, err = videobackend.NewTestSource(uri)
	is.True(errors.Is(err, videobackend.ErrVideoOpen))
}

func TestTestSourceRejectsUnconvertibleParams(t *testing.T) {
	is := is.New(t)

	uri, err := videouri.Parse("test:[size=huge]//")
	is.NoErr(err)
	_, err = videobackend.NewTestSource(uri)
	is.True(errors.Is(err, videouri.ErrParamConversion))

	uri, err = videouri.Parse("test:[fps=fast]//")
	is.NoErr(err)
	_, err = videobackend.NewTestSource(uri)
	is.True(errors.Is(err, videouri.ErrParamConversion))
}
