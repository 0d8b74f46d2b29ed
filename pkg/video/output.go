package video

import (
	"github.com/tauraamui/dragonvideo/pkg/log"
	"github.com/tauraamui/xerror"
)

// VideoOutput is the generic record facade, the sink counterpart to
// VideoInput with the same exclusive ownership discipline over its
// resolved backend.
type VideoOutput struct {
	uri      string
	recorder Recorder
}

func NewVideoOutput() *VideoOutput {
	return &VideoOutput{}
}

// OpenVideoOutput is shorthand for NewVideoOutput followed by Open.
func OpenVideoOutput(uri string) (*VideoOutput, error) {
	v := NewVideoOutput()
	if err := v.Open(uri); err != nil {
		return nil, err
	}
	return v, nil
}

// Open resolves uri and replaces the held backend, closing any
// previously held one first.
func (v *VideoOutput) Open(uri string) error {
	v.release()

	recorder, err := openRecorder(uri)
	if err != nil {
		return err
	}

	v.uri = uri
	v.recorder = recorder
	return nil
}

// Reset re-opens the last successfully opened URI. Streams do not
// carry over, the new backend starts empty.
func (v *VideoOutput) Reset() error {
	if len(v.uri) == 0 {
		return xerror.Errorf("%w: nothing opened to reset to", ErrNotOpen)
	}
	return v.Open(v.uri)
}

func (v *VideoOutput) IsOpen() bool {
	return v.recorder != nil
}

func (v *VideoOutput) UUID() string {
	if v.recorder == nil {
		return ""
	}
	return v.recorder.UUID()
}

func (v *VideoOutput) AddStream(w, h int, encoderFmt string) (int, error) {
	if v.recorder == nil {
		return 0, xerror.Errorf("%w: cannot add stream", ErrNotOpen)
	}
	return v.recorder.AddStream(w, h, encoderFmt)
}

func (v *VideoOutput) Stream(i int) (RecorderStream, error) {
	if v.recorder == nil {
		return nil, xerror.Errorf("%w: no streams", ErrNotOpen)
	}
	return v.recorder.Stream(i)
}

// Close finalizes and releases the held backend. The facade can be
// re-opened afterwards.
func (v *VideoOutput) Close() error {
	if v.recorder == nil {
		return nil
	}
	err := v.recorder.Close()
	v.recorder = nil
	return err
}

func (v *VideoOutput) release() {
	if v.recorder == nil {
		return
	}
	if err := v.recorder.Close(); err != nil {
		log.Error("closing previously held record backend [%s]: %v", v.recorder.UUID(), err) //nolint
	}
	v.recorder = nil
}
