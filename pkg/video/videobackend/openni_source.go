package videobackend

import (
	"strings"

	"github.com/tauraamui/dragonvideo/pkg/videoformat"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

// NewOpenNISource opens an OpenNI2 streaming device (Kinect, Xtion
// and friends), e.g.
//
//	openni://
//	openni:[img1=depth]//
//
// img1 selects the primary retrieved channel: rgb comes through as
// BGR24, depth as GRAY16LE, ir as GRAY8. Dimensions are probed from
// the first delivered frame since the driver only reports them once
// streaming.
func NewOpenNISource(uri videouri.Uri) (Source, error) {
	pixfmt, err := openNIChannelFormat(uri.Param("img1", "rgb"))
	if err != nil {
		return nil, err
	}

	target := uri.Resource
	if len(target) == 0 {
		target = "0"
	}

	return connectOpenCV(deviceTarget(target), openCVConfig{
		api:    gocv.VideoCaptureOpenNI2,
		pixfmt: pixfmt,
	})
}

func openNIChannelFormat(channel string) (videoformat.VideoPixelFormat, error) {
	var token string
	switch strings.ToLower(channel) {
	case "rgb":
		token = "BGR24"
	case "depth":
		token = "GRAY16LE"
	case "ir":
		token = "GRAY8"
	default:
		return videoformat.VideoPixelFormat{}, xerror.Errorf(
			"%w: openni has no %q channel, want rgb, depth or ir", ErrVideoOpen, channel,
		)
	}
	return videoformat.FromString(token)
}
