package videobackend

import (
	"github.com/google/uuid"
	"github.com/tauraamui/dragonvideo/pkg/videoformat"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

// conversionTable maps inner format -> target format -> OpenCV colour
// conversion. Pairs outside this table are rejected at construction
// so an unconvertible composition never fails at grab time.
var conversionTable = map[string]map[string]gocv.ColorConversionCode{
	"BGR24": {
		"RGB24": gocv.ColorBGRToRGB,
		"GRAY8": gocv.ColorBGRToGray,
		"BGRA":  gocv.ColorBGRToBGRA,
		"RGBA":  gocv.ColorBGRToRGBA,
	},
	"RGB24": {
		// the three byte swap is symmetric
		"BGR24": gocv.ColorBGRToRGB,
		"GRAY8": gocv.ColorRGBToGray,
	},
	"GRAY8": {
		"BGR24": gocv.ColorGrayToBGR,
		"RGB24": gocv.ColorGrayToBGR,
		"BGRA":  gocv.ColorGrayToBGRA,
	},
	"YUYV422": {
		"RGB24": gocv.ColorYUVToRGBYUY2,
		"BGR24": gocv.ColorYUVToBGRYUY2,
		"GRAY8": gocv.ColorYUVToGRAYYUY2,
	},
	"UYVY422": {
		"RGB24": gocv.ColorYUVToRGBUYVY,
		"BGR24": gocv.ColorYUVToBGRUYVY,
		"GRAY8": gocv.ColorYUVToGRAYUYVY,
	},
}

// convertSource is the composing backend, it owns exactly one inner
// source resolved from the nested URI and republishes its frames in a
// different pixel format, e.g.
//
//	convert:[fmt=GRAY8]//v4l:///dev/video0
type convertSource struct {
	id      string
	inner   Source
	out     videoformat.VideoPixelFormat
	code    gocv.ColorConversionCode
	matType gocv.MatType
	// passthrough set when inner and target formats already match
	passthrough bool
	buf         []byte
}

// NewConvertSource wraps an already resolved inner source. Ownership
// of inner transfers on success only, the resolver closes it when
// construction fails.
func NewConvertSource(uri videouri.Uri, inner Source) (Source, error) {
	token := uri.Param("fmt", "")
	if len(token) == 0 {
		return nil, xerror.Errorf("%w: convert requires a fmt param", ErrVideoOpen)
	}

	out, err := videoformat.FromString(token)
	if err != nil {
		return nil, xerror.Errorf("%w: convert: %v", ErrVideoOpen, err)
	}

	src := convertSource{
		id:    uuid.NewString(),
		inner: inner,
		out:   out,
		buf:   make([]byte, inner.SizeBytes()),
	}

	from := inner.PixFormat().Format
	if from == out.Format {
		src.passthrough = true
		return &src, nil
	}

	code, ok := conversionTable[from][out.Format]
	if !ok {
		return nil, xerror.Errorf("%w: no conversion from %s to %s", ErrVideoOpen, from, out.Format)
	}
	src.code = code

	src.matType, err = matTypeFor(inner.PixFormat())
	if err != nil {
		return nil, err
	}

	return &src, nil
}

func matTypeFor(f videoformat.VideoPixelFormat) (gocv.MatType, error) {
	switch {
	case f.Channels == 1 && f.BPP == 1:
		return gocv.MatTypeCV8UC1, nil
	case f.Channels == 1 && f.BPP == 2:
		return gocv.MatTypeCV16UC1, nil
	case f.BPP == 2:
		// packed YUV pairs, two bytes per pixel
		return gocv.MatTypeCV8UC2, nil
	case f.Channels == 3 && f.BPP == 3:
		return gocv.MatTypeCV8UC3, nil
	case f.Channels == 4 && f.BPP == 4:
		return gocv.MatTypeCV8UC4, nil
	}
	return 0, xerror.Errorf("%w: no matrix layout for %s", ErrVideoOpen, f.Format)
}

func (s *convertSource) UUID() string { return s.id }

func (s *convertSource) Width() int  { return s.inner.Width() }
func (s *convertSource) Height() int { return s.inner.Height() }

func (s *convertSource) SizeBytes() int {
	return videoformat.ImageSizeBytes(s.out, s.inner.Width(), s.inner.Height())
}

func (s *convertSource) PixFormat() videoformat.VideoPixelFormat { return s.out }

func (s *convertSource) Start() error { return s.inner.Start() }
func (s *convertSource) Stop() error  { return s.inner.Stop() }

func (s *convertSource) GrabNext(image []byte, wait bool) bool {
	if s.passthrough {
		return s.inner.GrabNext(image, wait)
	}
	if !s.inner.GrabNext(s.buf, wait) {
		return false
	}
	return s.convert(image)
}

func (s *convertSource) GrabNewest(image []byte, wait bool) bool {
	if s.passthrough {
		return s.inner.GrabNewest(image, wait)
	}
	if !s.inner.GrabNewest(s.buf, wait) {
		return false
	}
	return s.convert(image)
}

func (s *convertSource) convert(image []byte) bool {
	src, err := gocv.NewMatFromBytes(s.inner.Height(), s.inner.Width(), s.matType, s.buf)
	if err != nil {
		return false
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.CvtColor(src, &dst, s.code)

	return copyFrame(image, dst.ToBytes())
}

func (s *convertSource) Close() error {
	return s.inner.Close()
}
