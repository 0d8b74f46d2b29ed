package video

// test seams for substituting backend resolution

func OverrideOpenVideo(fn func(uri string) (Source, error)) func() {
	existing := openVideo
	openVideo = fn
	return func() { openVideo = existing }
}

func OverrideOpenRecorder(fn func(uri string) (Recorder, error)) func() {
	existing := openRecorder
	openRecorder = fn
	return func() { openRecorder = existing }
}
