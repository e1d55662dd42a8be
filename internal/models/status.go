package models

// PlaybackMode names what currently holds the playback slot
type PlaybackMode string

const (
	ModeIdle              PlaybackMode = ""
	ModeMacro             PlaybackMode = "macro"
	ModeBackgroundClicker PlaybackMode = "background_clicker"
)

// AutomationStatus is the snapshot polled by the UI
type AutomationStatus struct {
	Recording   bool         `json:"recording"`
	Playing     bool         `json:"playing"`
	MacroLength int          `json:"macro_length"`
	Mode        PlaybackMode `json:"mode"`
	SessionID   string       `json:"session_id,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
}
