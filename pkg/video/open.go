package video

import (
	"github.com/tauraamui/dragonvideo/pkg/video/videobackend"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
	"github.com/tauraamui/xerror"
)

// MaxNestedURIDepth bounds how far composing schemes may recurse into
// their resource URI. Anything legitimately composed sits well under
// this, so deeper nesting is treated as a malformed or malicious
// address rather than followed.
const MaxNestedURIDepth = 8

// OpenVideo resolves a capture URI to a concrete backend. Supported
// schemes:
//
//	file/files - movie files and printf style image sequences
//	v4l        - Video4Linux (USB) cameras
//	dc1394     - firewire cameras
//	openni     - OpenNI2 depth devices
//	mjpeg      - motion JPEG over HTTP
//	convert    - pixel format conversion wrapping a nested URI
//	test       - generated test pattern
//
// Adding a backend means adding one scheme case here, the facades and
// interfaces stay untouched.
func OpenVideo(uri string) (Source, error) {
	parsed, err := videouri.Parse(uri)
	if err != nil {
		return nil, err
	}
	return openVideoURI(parsed, 0)
}

func openVideoURI(uri videouri.Uri, depth int) (Source, error) {
	if depth >= MaxNestedURIDepth {
		return nil, xerror.Errorf("%w: nested uri depth exceeds %d", ErrVideoOpen, MaxNestedURIDepth)
	}

	switch uri.Scheme {
	case "file", "files":
		return videobackend.NewFileSource(uri)
	case "v4l":
		return videobackend.NewV4LSource(uri)
	case "dc1394":
		return videobackend.NewDC1394Source(uri)
	case "openni", "openni2":
		return videobackend.NewOpenNISource(uri)
	case "mjpeg":
		return videobackend.NewMJPEGSource(uri)
	case "test":
		return videobackend.NewTestSource(uri)
	case "convert":
		return openConvert(uri, depth)
	}
	return nil, xerror.Errorf("%w: %q", ErrUnsupportedScheme, uri.Scheme)
}

// openConvert resolves the nested URI first, the converter takes
// exclusive ownership of the inner backend only once its own
// construction has succeeded.
func openConvert(uri videouri.Uri, depth int) (Source, error) {
	innerURI, err := videouri.Parse(uri.Resource)
	if err != nil {
		return nil, err
	}

	inner, err := openVideoURI(innerURI, depth+1)
	if err != nil {
		return nil, err
	}

	converted, err := videobackend.NewConvertSource(uri, inner)
	if err != nil {
		inner.Close()
		return nil, err
	}
	return converted, nil
}

// OpenRecorder resolves a record URI to a concrete sink backend.
// Supported schemes:
//
//	video - encoded movie containers (one per stream)
//	raw   - the native unencoded container format
func OpenRecorder(uri string) (Recorder, error) {
	parsed, err := videouri.Parse(uri)
	if err != nil {
		return nil, err
	}

	switch parsed.Scheme {
	case "video":
		return videobackend.NewVideoRecorder(parsed)
	case "raw":
		return videobackend.NewRawRecorder(parsed)
	}
	return nil, xerror.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
}
