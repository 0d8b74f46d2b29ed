package configdef

import (
	"errors"
	"fmt"

	"gopkg.in/dealancer/validate.v2"
)

// Source is one configured capture to record pipeline. URI and Output
// use the video URI scheme, e.g. "v4l:///dev/video0" feeding
// "video:[fps=30]///captures/front-door.mp4".
type Source struct {
	Title    string `json:"title" validate:"empty=false"`
	URI      string `json:"uri" validate:"empty=false"`
	Output   string `json:"output"`
	Disabled bool   `json:"disabled"`
}

type Values struct {
	Debug   bool     `json:"debug"`
	Sources []Source `json:"sources"`
}

func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return err
	}
	return v.Validate()
}

func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %w"
	if hasDupSourceTitles(v.Sources) {
		return fmt.Errorf(validationErrorHeader, errors.New("source titles must be unique"))
	}
	return nil
}

func hasDupSourceTitles(sources []Source) bool {
	seen := map[string]struct{}{}
	for _, s := range sources {
		if _, ok := seen[s.Title]; ok {
			return true
		}
		seen[s.Title] = struct{}{}
	}
	return false
}
