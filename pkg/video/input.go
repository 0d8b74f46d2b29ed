package video

import (
	"github.com/tauraamui/dragonvideo/pkg/log"
	"github.com/tauraamui/dragonvideo/pkg/videoformat"
	"github.com/tauraamui/xerror"
)

// seams for substituting backend resolution in tests
var (
	openVideo    = OpenVideo
	openRecorder = OpenRecorder
)

// VideoInput is the generic capture facade. It holds exactly one
// resolved backend and forwards every interface call to it, so a
// caller works against one concrete type regardless of which scheme
// was opened. The held backend is exclusively owned, re-opening or
// closing the facade always releases it.
type VideoInput struct {
	uri    string
	source Source
}

func NewVideoInput() *VideoInput {
	return &VideoInput{}
}

// OpenVideoInput is shorthand for NewVideoInput followed by Open.
func OpenVideoInput(uri string) (*VideoInput, error) {
	v := NewVideoInput()
	if err := v.Open(uri); err != nil {
		return nil, err
	}
	return v, nil
}

// Open resolves uri and replaces the held backend. Any previously
// held backend is closed first, a failed open leaves the facade
// closed rather than holding onto the old backend.
func (v *VideoInput) Open(uri string) error {
	v.release()

	source, err := openVideo(uri)
	if err != nil {
		return err
	}

	v.uri = uri
	v.source = source
	return nil
}

// Reset re-opens the last successfully opened URI, used to recover a
// dead device without losing its configuration.
func (v *VideoInput) Reset() error {
	if len(v.uri) == 0 {
		return xerror.Errorf("%w: nothing opened to reset to", ErrNotOpen)
	}
	return v.Open(v.uri)
}

func (v *VideoInput) IsOpen() bool {
	return v.source != nil
}

func (v *VideoInput) UUID() string {
	if v.source == nil {
		return ""
	}
	return v.source.UUID()
}

func (v *VideoInput) Width() int {
	if v.source == nil {
		return 0
	}
	return v.source.Width()
}

func (v *VideoInput) Height() int {
	if v.source == nil {
		return 0
	}
	return v.source.Height()
}

func (v *VideoInput) SizeBytes() int {
	if v.source == nil {
		return 0
	}
	return v.source.SizeBytes()
}

func (v *VideoInput) PixFormat() videoformat.VideoPixelFormat {
	if v.source == nil {
		return videoformat.VideoPixelFormat{}
	}
	return v.source.PixFormat()
}

func (v *VideoInput) Start() error {
	if v.source == nil {
		return xerror.Errorf("%w: cannot start", ErrNotOpen)
	}
	return v.source.Start()
}

func (v *VideoInput) Stop() error {
	if v.source == nil {
		return xerror.Errorf("%w: cannot stop", ErrNotOpen)
	}
	return v.source.Stop()
}

// GrabNext forwards to the held backend. Grabbing from an unopened
// facade is a miss, not a fault, matching the steady state contract.
func (v *VideoInput) GrabNext(image []byte, wait bool) bool {
	if v.source == nil {
		return false
	}
	return v.source.GrabNext(image, wait)
}

func (v *VideoInput) GrabNewest(image []byte, wait bool) bool {
	if v.source == nil {
		return false
	}
	return v.source.GrabNewest(image, wait)
}

// Close releases the held backend. The facade can be re-opened
// afterwards.
func (v *VideoInput) Close() error {
	if v.source == nil {
		return nil
	}
	err := v.source.Close()
	v.source = nil
	return err
}

func (v *VideoInput) release() {
	if v.source == nil {
		return
	}
	if err := v.source.Close(); err != nil {
		log.Error("closing previously held video backend [%s]: %v", v.source.UUID(), err) //nolint
	}
	v.source = nil
}
