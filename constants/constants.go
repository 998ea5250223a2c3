package constants

import (
	"os"
	"time"
)

func GetAddr() string {
	addr := os.Getenv("CHORDSCROLL_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

func GetConfigPath() string {
	path := os.Getenv("CHORDSCROLL_CONFIG")
	if path != "" {
		return path
	}
	return ""
}

const DefaultBPM = 120

const DefaultTime = "4/4"

// DefaultContextRatio keeps the active line about a third of the way down
// the viewport during autoscroll.
const DefaultContextRatio = 0.33

const DefaultScrollSeconds = 0.6

// DefaultDebounce is how long edits settle before the timeline recomputes.
const DefaultDebounce = 250 * time.Millisecond
