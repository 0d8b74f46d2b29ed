package videobackend

import (
	"github.com/tauraamui/dragonvideo/pkg/videouri"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

// NewFileSource opens movie files and printf style image sequences
// through OpenCV's FFMPEG integration, e.g.
//
//	file:[realtime=1]///home/user/video/movie.mp4
//	files:///home/user/sequence/foo%03d.jpeg
//
// File sources deliver frames as fast as they are consumed unless
// realtime=1 paces delivery to the container's frame rate.
func NewFileSource(uri videouri.Uri) (Source, error) {
	if len(uri.Resource) == 0 {
		return nil, xerror.Errorf("%w: file source requires a path", ErrVideoOpen)
	}

	realtime, err := uri.Bool("realtime", false)
	if err != nil {
		return nil, err
	}

	api := gocv.VideoCaptureFFmpeg
	if uri.Scheme == "files" {
		api = gocv.VideoCaptureImages
	}

	return connectOpenCV(uri.Resource, openCVConfig{
		api:      api,
		pixfmt:   bgr24(),
		realtime: realtime,
	})
}
