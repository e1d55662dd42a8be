package models

import "time"

// SessionKind is the component that ran a session
type SessionKind string

const (
	SessionRecording         SessionKind = "recording"
	SessionPlayback          SessionKind = "playback"
	SessionBackgroundClicker SessionKind = "background_clicker"
)

// SessionOutcome is how a session ended
type SessionOutcome string

const (
	OutcomeRunning    SessionOutcome = "running"
	OutcomeCompleted  SessionOutcome = "completed"
	OutcomeStopped    SessionOutcome = "stopped"
	OutcomeWindowLost SessionOutcome = "window_lost"
	OutcomeFailed     SessionOutcome = "failed"
)

// Session is one recording, playback or clicker run
type Session struct {
	ID         string         `json:"id"`
	Kind       SessionKind    `json:"kind"`
	Background bool           `json:"background"`
	Hwnd       WindowHandle   `json:"hwnd,omitempty"`
	Loop       bool           `json:"loop"`
	IntervalMs int64          `json:"interval_ms"`
	Events     int            `json:"events"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    *time.Time     `json:"ended_at,omitempty"`
	Outcome    SessionOutcome `json:"outcome"`
	Error      string         `json:"error,omitempty"`
}
