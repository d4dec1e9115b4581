// Package links classifies meeting URLs found in calendar events.
package links

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Service identifies a known video-conferencing provider.
type Service int

const (
	Slack Service = iota
	Zoom
	GoogleMeet
	MicrosoftTeams
	Generic
)

// Name returns the display name of the service.
func (s Service) Name() string {
	switch s {
	case Slack:
		return "Slack"
	case Zoom:
		return "Zoom"
	case GoogleMeet:
		return "Google Meet"
	case MicrosoftTeams:
		return "Teams"
	default:
		return "Video Call"
	}
}

// Icon returns the icon key used by the UI backends.
func (s Service) Icon() string {
	switch s {
	case Slack:
		return "slack"
	case Zoom:
		return "zoom"
	case GoogleMeet:
		return "google"
	case MicrosoftTeams:
		return "teams"
	default:
		return "video"
	}
}

// Extract returns the location string if it is an HTTP(S) URL.
// The prefix check is on the whole string, not after trimming.
func Extract(location string) (string, bool) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location, true
	}
	return "", false
}

// Detect classifies a meeting URL by provider. First matching domain
// fragment wins; unknown hosts fall back to Generic.
func Detect(url string) Service {
	switch {
	case strings.Contains(url, "slack.com"):
		return Slack
	case strings.Contains(url, "zoom.us"):
		return Zoom
	case strings.Contains(url, "meet.google"):
		return GoogleMeet
	case strings.Contains(url, "teams.microsoft.com"), strings.Contains(url, "teams.live.com"):
		return MicrosoftTeams
	default:
		return Generic
	}
}

// Open opens a URL with the platform opener.
func Open(url string) error {
	return exec.Command(opener(), url).Start()
}

// EventURL returns the calendar URL for an event. Instances of a
// recurring series share one identifier, so for those we can only point
// at the calendar itself.
func EventURL(uid string, hasRecurrence bool) string {
	if hasRecurrence || uid == "" {
		return "ical://"
	}
	return fmt.Sprintf("ical://ekevent/%s", uid)
}

// OpenEvent opens an event in the system calendar app.
func OpenEvent(uid string, hasRecurrence bool) error {
	return Open(EventURL(uid, hasRecurrence))
}

func opener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}
