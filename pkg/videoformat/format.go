package videoformat

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownFormat = errors.New("unknown pixel format")

// VideoPixelFormat describes the memory layout of one pixel format
// token. Tokens follow FFMPEG notation. Value type, copied freely.
type VideoPixelFormat struct {
	Format      string
	Channels    int
	ChannelBits [4]int
	BPP         int
	Planar      bool
}

var formats = []VideoPixelFormat{
	{"GRAY8", 1, [4]int{8, 0, 0, 0}, 1, false},
	{"GRAY16LE", 1, [4]int{16, 0, 0, 0}, 2, false},
	{"Y400A", 2, [4]int{8, 8, 0, 0}, 2, false},
	{"RGB24", 3, [4]int{8, 8, 8, 0}, 3, false},
	{"BGR24", 3, [4]int{8, 8, 8, 0}, 3, false},
	{"RGB48", 3, [4]int{16, 16, 16, 0}, 6, false},
	{"BGR48", 3, [4]int{16, 16, 16, 0}, 6, false},
	{"RGBA", 4, [4]int{8, 8, 8, 8}, 4, false},
	{"BGRA", 4, [4]int{8, 8, 8, 8}, 4, false},
	// packed YUV, chroma shared between horizontal pixel pairs
	{"YUYV422", 3, [4]int{8, 4, 4, 0}, 2, false},
	{"UYVY422", 3, [4]int{4, 8, 4, 0}, 2, false},
	// planar YUV, bits given as per-pixel averages
	{"YUV420P", 3, [4]int{8, 2, 2, 0}, 2, true},
	{"YUV422P", 3, [4]int{8, 4, 4, 0}, 2, true},
	{"YUV444P", 3, [4]int{8, 8, 8, 0}, 3, true},
	{"NV12", 3, [4]int{8, 2, 2, 0}, 2, true},
	{"NV21", 3, [4]int{8, 2, 2, 0}, 2, true},
	// raw bayer mosaics
	{"BGGR8", 1, [4]int{8, 0, 0, 0}, 1, false},
	{"GBRG8", 1, [4]int{8, 0, 0, 0}, 1, false},
	{"GRBG8", 1, [4]int{8, 0, 0, 0}, 1, false},
	{"RGGB8", 1, [4]int{8, 0, 0, 0}, 1, false},
}

var aliases = map[string]string{
	"RGBA32": "RGBA",
	"BGRA32": "BGRA",
	"YUY422": "YUYV422",
	"YUYV":   "YUYV422",
	"UYVY":   "UYVY422",
	"GRAY16": "GRAY16LE",
	"MONO8":  "GRAY8",
	"MONO16": "GRAY16LE",
}

// FromString resolves a pixel format token to its layout description.
// Lookup is case insensitive and deterministic, the same token always
// yields a structurally equal result.
func FromString(token string) (VideoPixelFormat, error) {
	name := strings.ToUpper(strings.TrimSpace(token))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	for _, f := range formats {
		if f.Format == name {
			return f, nil
		}
	}
	return VideoPixelFormat{}, fmt.Errorf("%w: %q", ErrUnknownFormat, token)
}

// ImageSizeBytes returns the byte size of a single full frame of the
// given format and dimensions. Planar subsampled formats round up to
// the bpp the format description declares.
func ImageSizeBytes(f VideoPixelFormat, w, h int) int {
	return w * h * f.BPP
}
