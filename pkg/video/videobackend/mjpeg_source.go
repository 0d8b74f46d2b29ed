package videobackend

import (
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tauraamui/dragonvideo/pkg/log"
	"github.com/tauraamui/dragonvideo/pkg/videoformat"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
	"github.com/tauraamui/xerror"
)

var httpGet = func(client *http.Client, url string) (*http.Response, error) {
	return client.Get(url)
}

// mjpegSource captures from a (possibly networked) motion JPEG
// stream, e.g.
//
//	mjpeg://http://127.0.0.1/?action=stream
//
// This path is pure Go, multipart parts are decoded to RGB24 without
// going through the OpenCV layer. The first part is fetched during
// construction to learn the stream's dimensions and is delivered as
// the first grabbed frame.
type mjpegSource struct {
	id        string
	streamURL string
	client    *http.Client
	width     int
	height    int
	pixfmt    videoformat.VideoPixelFormat
	pump      *framePump

	mu     sync.Mutex
	body   io.ReadCloser
	parts  *multipart.Reader
	primed []byte
}

func NewMJPEGSource(uri videouri.Uri) (Source, error) {
	if len(uri.Resource) == 0 {
		return nil, xerror.Errorf("%w: mjpeg source requires a stream url", ErrVideoOpen)
	}

	pixfmt, err := videoformat.FromString("RGB24")
	if err != nil {
		return nil, err
	}

	src := mjpegSource{
		id:        uuid.NewString(),
		streamURL: uri.Resource,
		client:    &http.Client{},
		pixfmt:    pixfmt,
		pump:      newFramePump(),
	}

	if err := src.connect(); err != nil {
		return nil, err
	}

	frame, ok := src.readFrame()
	if !ok {
		src.disconnect()
		return nil, xerror.Errorf("%w: mjpeg stream %s produced no decodable part", ErrVideoOpen, src.streamURL)
	}
	src.mu.Lock()
	src.primed = frame
	src.mu.Unlock()

	return &src, nil
}

func (s *mjpegSource) connect() error {
	resp, err := httpGet(s.client, s.streamURL)
	if err != nil {
		return xerror.Errorf("%w: mjpeg stream %s: %v", ErrVideoOpen, s.streamURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return xerror.Errorf("%w: mjpeg stream %s: status %s", ErrVideoOpen, s.streamURL, resp.Status)
	}

	mediatype, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediatype, "multipart/") {
		resp.Body.Close()
		return xerror.Errorf("%w: mjpeg stream %s is not a multipart stream", ErrVideoOpen, s.streamURL)
	}
	boundary, ok := params["boundary"]
	if !ok {
		resp.Body.Close()
		return xerror.Errorf("%w: mjpeg stream %s multipart missing boundary", ErrVideoOpen, s.streamURL)
	}

	s.mu.Lock()
	s.body = resp.Body
	s.parts = multipart.NewReader(resp.Body, boundary)
	s.mu.Unlock()
	return nil
}

// disconnect closes the response body which also wakes a pump
// goroutine blocked mid part read.
func (s *mjpegSource) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.body != nil {
		if err := s.body.Close(); err != nil {
			log.Debug("mjpeg [%s] body close: %v", s.id, err)
		}
		s.body = nil
		s.parts = nil
	}
}

func (s *mjpegSource) readFrame() ([]byte, bool) {
	s.mu.Lock()
	primed := s.primed
	s.primed = nil
	parts := s.parts
	s.mu.Unlock()

	if primed != nil {
		return primed, true
	}
	if parts == nil {
		return nil, false
	}

	part, err := parts.NextPart()
	if err != nil {
		return nil, false
	}
	defer part.Close()

	img, err := jpeg.Decode(part)
	if err != nil {
		return nil, false
	}

	if s.width == 0 {
		s.width = img.Bounds().Dx()
		s.height = img.Bounds().Dy()
	}
	return rgb24Bytes(img), true
}

func (s *mjpegSource) UUID() string { return s.id }

func (s *mjpegSource) Width() int  { return s.width }
func (s *mjpegSource) Height() int { return s.height }

func (s *mjpegSource) SizeBytes() int {
	return videoformat.ImageSizeBytes(s.pixfmt, s.width, s.height)
}

func (s *mjpegSource) PixFormat() videoformat.VideoPixelFormat { return s.pixfmt }

func (s *mjpegSource) Start() error {
	s.mu.Lock()
	connected := s.body != nil
	s.mu.Unlock()
	if !connected {
		if err := s.connect(); err != nil {
			return err
		}
	}
	s.pump.start(s.readFrame)
	return nil
}

func (s *mjpegSource) Stop() error {
	s.disconnect()
	s.pump.halt()
	return nil
}

func (s *mjpegSource) GrabNext(image []byte, wait bool) bool {
	return s.pump.grabNext(image, wait)
}

func (s *mjpegSource) GrabNewest(image []byte, wait bool) bool {
	return s.pump.grabNewest(image, wait)
}

func (s *mjpegSource) Close() error {
	return s.Stop()
}
