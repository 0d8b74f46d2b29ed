package video_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/tauraamui/dragonvideo/pkg/video"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
)

func TestOpenVideoResolvesTestScheme(t *testing.T) {
	is := is.New(t)

	src, err := video.OpenVideo("test:[size=64x48,fps=0]//")
	is.NoErr(err)
	defer src.Close()

	is.Equal(src.Width(), 64)
	is.Equal(src.Height(), 48)
	is.Equal(src.PixFormat().Format, "RGB24")
}

func TestOpenVideoRejectsUnsupportedScheme(t *testing.T) {
	is := is.New(t)

	_, err := video.OpenVideo("carrierpigeon:///dev/bird0")
	is.True(errors.Is(err, video.ErrUnsupportedScheme))
}

func TestOpenVideoRejectsMalformedURI(t *testing.T) {
	is := is.New(t)

	_, err := video.OpenVideo("/dev/video0")
	is.True(errors.Is(err, videouri.ErrMalformedURI))
}

func TestOpenVideoResolvesConvertOverNestedURI(t *testing.T) {
	is := is.New(t)

	src, err := video.OpenVideo("convert:[fmt=GRAY8]//test:[size=64x48,fps=0]//")
	is.NoErr(err)
	defer src.Close()

	is.Equal(src.Width(), 64)
	is.Equal(src.Height(), 48)
	is.Equal(src.PixFormat().Format, "GRAY8")
	is.Equal(src.SizeBytes(), 64*48)
}

func nestedConvertURI(levels int) string {
	uri := "test:[size=64x48,fps=0]//"
	for i := 0; i < levels; i++ {
		uri = "convert:[fmt=GRAY8]//" + uri
	}
	return uri
}

func TestOpenVideoFollowsNestingUpToTheDepthBound(t *testing.T) {
	is := is.New(t)

	src, err := video.OpenVideo(nestedConvertURI(video.MaxNestedURIDepth - 1))
	is.NoErr(err)
	is.NoErr(src.Close())
}

func TestOpenVideoRejectsNestingPastTheDepthBound(t *testing.T) {
	is := is.New(t)

	_, err := video.OpenVideo(nestedConvertURI(video.MaxNestedURIDepth))
	is.True(errors.Is(err, video.ErrVideoOpen))
	is.True(strings.Contains(err.Error(), "depth"))
}

func TestOpenVideoConvertPropagatesInnerResolutionFailure(t *testing.T) {
	is := is.New(t)

	_, err := video.OpenVideo("convert:[fmt=GRAY8]//carrierpigeon:///dev/bird0")
	is.True(errors.Is(err, video.ErrUnsupportedScheme))
}

func TestOpenRecorderResolvesRawScheme(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "capture.dgnv")
	recorder, err := video.OpenRecorder("raw://" + path)
	is.NoErr(err)
	is.NoErr(recorder.Close())
}

func TestOpenRecorderRejectsUnsupportedScheme(t *testing.T) {
	is := is.New(t)

	_, err := video.OpenRecorder("chisel:///slab/1")
	is.True(errors.Is(err, video.ErrUnsupportedScheme))
}

func TestOpenRecorderRejectsMalformedURI(t *testing.T) {
	is := is.New(t)

	_, err := video.OpenRecorder("not a uri")
	is.True(errors.Is(err, videouri.ErrMalformedURI))
}
