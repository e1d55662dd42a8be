package models

import (
	"fmt"
	"time"
)

// Macro is an ordered sequence of input events; slice order is playback order
type Macro []InputEvent

// Validate checks every event and the non-decreasing time invariant
func (m Macro) Validate() error {
	prev := 0.0
	for i, ev := range m {
		if err := ev.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if ev.Time < prev {
			return fmt.Errorf("event %d: time %.3f goes backwards (previous %.3f)", i, ev.Time, prev)
		}
		prev = ev.Time
	}
	return nil
}

// Clone returns a copy that shares no backing array with m
func (m Macro) Clone() Macro {
	if m == nil {
		return nil
	}
	out := make(Macro, len(m))
	copy(out, m)
	return out
}

// Duration is the offset of the last event
func (m Macro) Duration() time.Duration {
	if len(m) == 0 {
		return 0
	}
	return time.Duration(m[len(m)-1].Time * float64(time.Second))
}

// SavedMacro is a named macro stored in the local library
type SavedMacro struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Events     Macro     `json:"events"`
	EventCount int       `json:"event_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SaveMacroRequest is the body of POST /macros
type SaveMacroRequest struct {
	Name  string `json:"name"`
	Macro Macro  `json:"macro"`
}

// PlayMacroRequest is the body of POST /play-macro.
// A missing macro plays the current one; an explicit empty array is rejected.
type PlayMacroRequest struct {
	Macro    Macro        `json:"macro"`
	Loop     bool         `json:"loop"`
	Interval int64        `json:"interval"` // milliseconds, 0 keeps recorded pacing
	Hwnd     WindowHandle `json:"hwnd,omitempty"`
}

// BackgroundClickerRequest is the body of POST /start-background-clicker
type BackgroundClickerRequest struct {
	Hwnd     WindowHandle `json:"hwnd"`
	Interval int64        `json:"interval"` // milliseconds
}
