package automation

import "errors"

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrAlreadyPlaying   = errors.New("a playback session is already active")
	ErrEmptyMacro       = errors.New("macro has no events")
	ErrInvalidMacro     = errors.New("invalid macro")
	ErrInvalidInterval  = errors.New("interval out of range")
	ErrInvalidWindow    = errors.New("window handle does not name a live window")
	ErrTargetWindowLost = errors.New("target window was closed")
	ErrInvalidColor     = errors.New("invalid colour, expected #rrggbb")
	ErrNoTriggerColor   = errors.New("no trigger colour captured")

	// errPlaybackStopped is the cancel cause used by Stop
	errPlaybackStopped = errors.New("playback stopped")
)
