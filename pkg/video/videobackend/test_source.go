package videobackend

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/tauraamui/dragonvideo/pkg/log"
	"github.com/tauraamui/dragonvideo/pkg/videoformat"
	"github.com/tauraamui/dragonvideo/pkg/videouri"
	"github.com/tauraamui/xerror"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const defaultTestTitle = "DRAGONVIDEO_TEST_STREAM"

// testSource generates an RGB circle pattern with a text overlay
// carrying the title and current timestamp, e.g.
//
//	test:[size=640x480,fps=25,title=cam-sim]//
//
// It needs no hardware or decoder support, so it stands in for real
// devices in tests and doubles as an offline placeholder stream.
type testSource struct {
	id       string
	title    string
	width    int
	height   int
	interval time.Duration
	pixfmt   videoformat.VideoPixelFormat
	base     image.Image
	pump     *framePump
}

func NewTestSource(uri videouri.Uri) (Source, error) {
	size, err := uri.Dims("size", videouri.Dimensions{W: 640, H: 480})
	if err != nil {
		return nil, err
	}
	if size.W <= 0 || size.H <= 0 {
		return nil, xerror.Errorf("%w: test source size must be positive, got %dx%d", ErrVideoOpen, size.W, size.H)
	}

	fps, err := uri.Int("fps", 30)
	if err != nil {
		return nil, err
	}

	pixfmt, err := videoformat.FromString("RGB24")
	if err != nil {
		return nil, err
	}

	src := testSource{
		id:     uuid.NewString(),
		title:  uri.Param("title", defaultTestTitle),
		width:  size.W,
		height: size.H,
		pixfmt: pixfmt,
		base:   renderBaseFrameCanvas(size.W, size.H),
		pump:   newFramePump(),
	}
	if fps > 0 {
		src.interval = time.Second / time.Duration(fps)
	}

	return &src, nil
}

func (s *testSource) UUID() string { return s.id }

func (s *testSource) Width() int  { return s.width }
func (s *testSource) Height() int { return s.height }

func (s *testSource) SizeBytes() int {
	return videoformat.ImageSizeBytes(s.pixfmt, s.width, s.height)
}

func (s *testSource) PixFormat() videoformat.VideoPixelFormat { return s.pixfmt }

func (s *testSource) Start() error {
	s.pump.start(s.read)
	return nil
}

func (s *testSource) Stop() error {
	s.pump.halt()
	return nil
}

func (s *testSource) read() ([]byte, bool) {
	if s.interval > 0 {
		time.Sleep(s.interval)
	}

	frame := cloneImage(s.base)
	if err := drawText(frame, 5, 50, s.title); err != nil {
		log.Error("unable to draw title onto generated frame: %v", err) //nolint
	}
	if err := drawText(frame, 5, 180, time.Now().Format("2006-01-02 15:04:05.999999999")); err != nil {
		log.Error("unable to draw timestamp onto generated frame: %v", err) //nolint
	}
	return rgb24Bytes(frame), true
}

func (s *testSource) GrabNext(image []byte, wait bool) bool {
	return s.pump.grabNext(image, wait)
}

func (s *testSource) GrabNewest(image []byte, wait bool) bool {
	return s.pump.grabNewest(image, wait)
}

func (s *testSource) Close() error {
	s.pump.halt()
	return nil
}

func renderBaseFrameCanvas(w, h int) image.Image {
	var hw, hh float64 = float64(w / 2), float64(h / 2)
	r := math.Min(hw, hh) * 0.8
	θ := 2 * math.Pi / 3
	cr := &circle{hw - r*math.Sin(0), hh - r*math.Cos(0), r * 1.5}
	cg := &circle{hw - r*math.Sin(θ), hh - r*math.Cos(θ), r * 1.5}
	cb := &circle{hw - r*math.Sin(-θ), hh - r*math.Cos(-θ), r * 1.5}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			c := color.RGBA{
				cr.Brightness(float64(x), float64(y)),
				cg.Brightness(float64(x), float64(y)),
				cb.Brightness(float64(x), float64(y)),
				255,
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

func drawText(canvas *image.RGBA, x, y int, text string) error {
	fontFace, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return err
	}
	fontDrawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(fontFace, &truetype.Options{
			Size:    32,
			Hinting: font.HintingFull,
		}),
	}
	textBounds, _ := fontDrawer.BoundString(text)
	textHeight := textBounds.Max.Y - textBounds.Min.Y
	fontDrawer.Dot = fixed.Point26_6{
		X: fixed.I(x),
		Y: fixed.I(y-textHeight.Ceil())/2 + fixed.I(textHeight.Ceil()),
	}
	fontDrawer.DrawString(text)
	return nil
}

type circle struct {
	X, Y, R float64
}

func (c *circle) Brightness(x, y float64) uint8 {
	var dx, dy float64 = c.X - x, c.Y - y
	d := math.Sqrt(dx*dx+dy*dy) / c.R
	if d > 1 {
		return 0
	}
	return 255
}
