package config

import (
	"fmt"
	"path/filepath"

	"github.com/tauraamui/dragonvideo/pkg/configdef"
)

type defaultSettingKey uint

const (
	SOURCES       defaultSettingKey = 0x0
	OUTPUTDIR     defaultSettingKey = 0x1
	OUTPUTFPS     defaultSettingKey = 0x2
	OUTPUTPATTERN defaultSettingKey = 0x3
)

var defaultSettings = map[defaultSettingKey]interface{}{
	SOURCES:       []configdef.Source{},
	OUTPUTDIR:     "captures",
	OUTPUTFPS:     30,
	OUTPUTPATTERN: "video:[fps=%d]//%s",
}

func defaultOutputURI(title string) string {
	target := filepath.Join(
		defaultSettings[OUTPUTDIR].(string),
		fmt.Sprintf("%s.mp4", title),
	)
	return fmt.Sprintf(
		defaultSettings[OUTPUTPATTERN].(string),
		defaultSettings[OUTPUTFPS].(int),
		target,
	)
}
