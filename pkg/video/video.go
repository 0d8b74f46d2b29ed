// Package video resolves video URIs to concrete capture and record
// backends and provides the generic VideoInput/VideoOutput facades
// callers drive without knowing which backend is active.
package video

import (
	"errors"

	"github.com/tauraamui/dragonvideo/pkg/video/videobackend"
)

type Source = videobackend.Source
type Recorder = videobackend.Recorder
type RecorderStream = videobackend.RecorderStream

var (
	ErrUnsupportedScheme = errors.New("unsupported video uri scheme")
	ErrNotOpen           = errors.New("video interface is not open")

	// backend construction faults, surfaced here so callers only need
	// this package to match against the whole taxonomy
	ErrVideoOpen      = videobackend.ErrVideoOpen
	ErrOutOfRange     = videobackend.ErrOutOfRange
	ErrFormatMismatch = videobackend.ErrFormatMismatch
)
