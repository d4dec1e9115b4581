package dmenu

import (
	"errors"
	"os/exec"
)

// Supported dmenu-compatible programs in order of preference.
var supportedPrograms = []string{
	"choose",
	"rofi",
	"wofi",
	"fuzzel",
	"bemenu",
	"dmenu",
}

// Detect finds the first available dmenu-compatible program.
// Returns the program name or an error if none are found.
func Detect() (string, error) {
	for _, prog := range supportedPrograms {
		if path, err := exec.LookPath(prog); err == nil && path != "" {
			return prog, nil
		}
	}
	return "", errors.New("no dmenu-compatible program found (tried: choose, rofi, wofi, fuzzel, bemenu, dmenu)")
}

// Supported returns the list of supported dmenu programs.
func Supported() []string {
	return supportedPrograms
}
