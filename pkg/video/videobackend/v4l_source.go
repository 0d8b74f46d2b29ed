package videobackend

import (
	"strconv"

	"github.com/tauraamui/dragonvideo/pkg/videouri"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

// NewV4LSource opens a Video4Linux (USB) camera by device path or
// numeric index, e.g.
//
//	v4l:///dev/video0
//	v4l:[size=640x480,fps=30]//0
func NewV4LSource(uri videouri.Uri) (Source, error) {
	if len(uri.Resource) == 0 {
		return nil, xerror.Errorf("%w: v4l source requires a device path or index", ErrVideoOpen)
	}

	props, err := cameraProps(uri)
	if err != nil {
		return nil, err
	}

	return connectOpenCV(deviceTarget(uri.Resource), openCVConfig{
		api:    gocv.VideoCaptureV4L2,
		props:  props,
		pixfmt: bgr24(),
	})
}

// deviceTarget passes purely numeric resources through as capture
// indices, anything else is treated as a device path.
func deviceTarget(resource string) interface{} {
	if idx, err := strconv.Atoi(resource); err == nil {
		return idx
	}
	return resource
}

func cameraProps(uri videouri.Uri) (map[gocv.VideoCaptureProperties]float64, error) {
	props := map[gocv.VideoCaptureProperties]float64{}

	size, err := uri.Dims("size", videouri.Dimensions{})
	if err != nil {
		return nil, err
	}
	if size.W > 0 && size.H > 0 {
		props[gocv.VideoCaptureFrameWidth] = float64(size.W)
		props[gocv.VideoCaptureFrameHeight] = float64(size.H)
	}

	fps, err := uri.Int("fps", 0)
	if err != nil {
		return nil, err
	}
	if fps > 0 {
		props[gocv.VideoCaptureFPS] = float64(fps)
	}

	return props, nil
}
