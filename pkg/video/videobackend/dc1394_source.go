package videobackend

import (
	"github.com/tauraamui/dragonvideo/pkg/videoformat"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

// NewDC1394Source opens a firewire camera through the IEEE-1394
// capture API, e.g.
//
//	dc1394:[fmt=RGB24,size=640x480,fps=30,iso=400,dma=10]//0
//
// The fmt param names the format the camera is asked to run in, the
// capture layer still hands frames over as BGR24. Format7 ROI offsets
// (pos=X+Y) are validated but the capture API offers no property to
// apply them through.
func NewDC1394Source(uri videouri.Uri) (Source, error) {
	if len(uri.Resource) == 0 {
		return nil, xerror.Errorf("%w: dc1394 source requires a camera index", ErrVideoOpen)
	}

	if uri.Contains("fmt") {
		if _, err := videoformat.FromString(uri.Param("fmt", "")); err != nil {
			return nil, xerror.Errorf("%w: dc1394: %v", ErrVideoOpen, err)
		}
	}
	if _, err := uri.Pos("pos", videouri.Position{}); err != nil {
		return nil, err
	}

	props, err := cameraProps(uri)
	if err != nil {
		return nil, err
	}

	iso, err := uri.Int("iso", 0)
	if err != nil {
		return nil, err
	}
	if iso > 0 {
		props[gocv.VideoCaptureISOSpeed] = float64(iso)
	}

	dma, err := uri.Int("dma", 0)
	if err != nil {
		return nil, err
	}
	if dma > 0 {
		props[gocv.VideoCaptureBufferSize] = float64(dma)
	}

	return connectOpenCV(deviceTarget(uri.Resource), openCVConfig{
		api:    gocv.VideoCaptureFirewire,
		props:  props,
		pixfmt: bgr24(),
	})
}
