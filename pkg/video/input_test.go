package video_test

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/tauraamui/dragonvideo/pkg/video"
	"github.com/tauraamui/dragonvideo/pkg/videoformat"
	"github.com/tauraamui/xerror"
)

type fakeSource struct {
	id      string
	started bool
	closes  int
}

func (f *fakeSource) UUID() string   { return f.id }
func (f *fakeSource) Width() int     { return 64 }
func (f *fakeSource) Height() int    { return 48 }
func (f *fakeSource) SizeBytes() int { return 64 * 48 * 3 }

func (f *fakeSource) PixFormat() videoformat.VideoPixelFormat {
	pixfmt, _ := videoformat.FromString("RGB24")
	return pixfmt
}

func (f *fakeSource) Start() error { f.started = true; return nil }
func (f *fakeSource) Stop() error  { f.started = false; return nil }

func (f *fakeSource) GrabNext(image []byte, wait bool) bool   { return f.started }
func (f *fakeSource) GrabNewest(image []byte, wait bool) bool { return f.started }

func (f *fakeSource) Close() error { f.closes++; return nil }

func TestVideoInputDrivesGeneratedSourceEndToEnd(t *testing.T) {
	is := is.New(t)

	input, err := video.OpenVideoInput("test:[size=64x48,fps=0,title=e2e]//")
	is.NoErr(err)
	defer input.Close()

	is.True(input.IsOpen())
	is.True(len(input.UUID()) > 0)
	is.Equal(input.Width(), 64)
	is.Equal(input.Height(), 48)
	is.Equal(input.PixFormat().Format, "RGB24")
	is.Equal(input.SizeBytes(), 64*48*3)

	is.NoErr(input.Start())
	frame := make([]byte, input.SizeBytes())
	is.True(input.GrabNext(frame, true))
	is.True(input.GrabNewest(frame, true))
	is.NoErr(input.Stop())

	is.NoErr(input.Close())
	is.True(!input.IsOpen())
}

func TestVideoInputBeforeOpenReportsNotOpen(t *testing.T) {
	is := is.New(t)

	input := video.NewVideoInput()
	is.True(!input.IsOpen())
	is.Equal(input.UUID(), "")
	is.Equal(input.Width(), 0)
	is.Equal(input.Height(), 0)
	is.Equal(input.SizeBytes(), 0)
	is.Equal(input.PixFormat(), videoformat.VideoPixelFormat{})

	is.True(errors.Is(input.Start(), video.ErrNotOpen))
	is.True(errors.Is(input.Stop(), video.ErrNotOpen))
	is.True(errors.Is(input.Reset(), video.ErrNotOpen))

	frame := make([]byte, 16)
	is.Equal(input.GrabNext(frame, false), false)
	is.Equal(input.GrabNewest(frame, false), false)

	is.NoErr(input.Close())
}

func TestVideoInputOpenReleasesPreviouslyHeldBackend(t *testing.T) {
	is := is.New(t)

	sources := map[string]*fakeSource{}
	restore := video.OverrideOpenVideo(func(uri string) (video.Source, error) {
		src := &fakeSource{id: uri}
		sources[uri] = src
		return src, nil
	})
	defer restore()

	input := video.NewVideoInput()
	is.NoErr(input.Open("fake://one"))
	is.NoErr(input.Open("fake://two"))

	is.Equal(sources["fake://one"].closes, 1)
	is.Equal(sources["fake://two"].closes, 0)
	is.Equal(input.UUID(), "fake://two")

	is.NoErr(input.Close())
	is.Equal(sources["fake://two"].closes, 1)
}

func TestVideoInputFailedOpenLeavesFacadeClosed(t *testing.T) {
	is := is.New(t)

	first := &fakeSource{id: "first"}
	restore := video.OverrideOpenVideo(func(uri string) (video.Source, error) {
		if uri == "fake://good" {
			return first, nil
		}
		return nil, xerror.Errorf("%w: no device", video.ErrVideoOpen)
	})
	defer restore()

	input := video.NewVideoInput()
	is.NoErr(input.Open("fake://good"))
	is.True(input.IsOpen())

	err := input.Open("fake://bad")
	is.True(errors.Is(err, video.ErrVideoOpen))
	is.True(!input.IsOpen())
	is.Equal(first.closes, 1)
}

func TestVideoInputResetReopensLastURI(t *testing.T) {
	is := is.New(t)

	opens := []string{}
	restore := video.OverrideOpenVideo(func(uri string) (video.Source, error) {
		opens = append(opens, uri)
		return &fakeSource{id: uri}, nil
	})
	defer restore()

	input := video.NewVideoInput()
	is.NoErr(input.Open("fake://cam"))
	is.NoErr(input.Reset())

	is.Equal(opens, []string{"fake://cam", "fake://cam"})
	is.True(input.IsOpen())
}

func TestVideoInputCanReopenAfterClose(t *testing.T) {
	is := is.New(t)

	input, err := video.OpenVideoInput("test:[size=64x48,fps=0]//")
	is.NoErr(err)
	is.NoErr(input.Close())

	is.NoErr(input.Open("test:[size=32x24,fps=0]//"))
	defer input.Close()
	is.Equal(input.Width(), 32)
	is.Equal(input.Height(), 24)
}
