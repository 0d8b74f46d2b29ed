package videobackend_test

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/tauraamui/dragonvideo/pkg/video/videobackend"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
)

func solidJPEGFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func serveMJPEGStream(t *testing.T, frames int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mp := multipart.NewWriter(w)
		defer mp.Close()
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mp.Boundary())

		img := solidJPEGFrame(32, 24, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		for i := 0; i < frames; i++ {
			part, err := mp.CreatePart(textproto.MIMEHeader{"Content-Type": {"image/jpeg"}})
			if err != nil {
				return
			}
			if err := jpeg.Encode(part, img, nil); err != nil {
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
		// hold the stream open until the client disconnects
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)
	return server
}

func TestMJPEGSourceLearnsDimensionsFromFirstPart(t *testing.T) {
	is := is.New(t)

	server := serveMJPEGStream(t, 3)
	uri, err := videouri.Parse("mjpeg://" + server.URL)
	is.NoErr(err)

	src, err := videobackend.NewMJPEGSource(uri)
	is.NoErr(err)
	defer src.Close()

	is.Equal(src.Width(), 32)
	is.Equal(src.Height(), 24)
	is.Equal(src.PixFormat().Format, "RGB24")
	is.Equal(src.SizeBytes(), 32*24*3)
}

func TestMJPEGSourceGrabsDecodedFrames(t *testing.T) {
	is := is.New(t)

	server := serveMJPEGStream(t, 3)
	uri, err := videouri.Parse("mjpeg://" + server.URL)
	is.NoErr(err)

	src, err := videobackend.NewMJPEGSource(uri)
	is.NoErr(err)
	defer src.Close()

	is.NoErr(src.Start())

	frame := make([]byte, src.SizeBytes())
	is.True(src.GrabNext(frame, true))

	// decoded pixels should sit near the served solid colour
	r, g, b := int(frame[0]), int(frame[1]), int(frame[2])
	is.True(r > g && g > b)
}

func TestMJPEGSourceStopUnblocksWaitingGrab(t *testing.T) {
	is := is.New(t)

	server := serveMJPEGStream(t, 1)
	uri, err := videouri.Parse("mjpeg://" + server.URL)
	is.NoErr(err)

	src, err := videobackend.NewMJPEGSource(uri)
	is.NoErr(err)
	defer src.Close()

	is.NoErr(src.Start())

	frame := make([]byte, src.SizeBytes())
	is.True(src.GrabNext(frame, true))

	grabbed := make(chan struct{})
	go func() {
		defer close(grabbed)
		for src.GrabNext(frame, true) {
		}
	}()

	time.Sleep(10 * time.Millisecond)
	is.NoErr(src.Stop())

	select {
	case <-grabbed:
	case <-time.After(2 * time.Second):
		t.Fatal("grab still blocked after source stop")
	}
}

func TestMJPEGSourceRequiresStreamURL(t *testing.T) {
	is := is.New(t)

	uri, err := videouri.Parse("mjpeg://")
	is.NoErr(err)

	_, err = videobackend.NewMJPEGSource(uri)
	is.True(errors.Is(err, videobackend.ErrVideoOpen))
}

func TestMJPEGSourceRejectsNonMultipartResponse(t *testing.T) {
	is := is.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not a stream</html>"))
	}))
	defer server.Close()

	uri, err := videouri.Parse("mjpeg://" + server.URL)
	is.NoErr(err)

	_, err = videobackend.NewMJPEGSource(uri)
	is.True(errors.Is(err, videobackend.ErrVideoOpen))
}

func TestMJPEGSourceRejectsErrorStatus(t *testing.T) {
	is := is.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such stream", http.StatusNotFound)
	}))
	defer server.Close()

	uri, err := videouri.Parse("mjpeg://" + server.URL)
	is.NoErr(err)

	_, err = videobackend.NewMJPEGSource(uri)
	is.True(errors.Is(err, videobackend.ErrVideoOpen))
}
