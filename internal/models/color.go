package models

import "time"

// CursorInfo is the cursor position and the pixel colour under it
type CursorInfo struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"` // #rrggbb
}

// TriggerColor is a colour captured for conditional automation
type TriggerColor struct {
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Color      string    `json:"color"`
	CapturedAt time.Time `json:"captured_at"`
}

// CheckColorRequest is the body of POST /check-color; every field is optional
type CheckColorRequest struct {
	X     *int   `json:"x"`
	Y     *int   `json:"y"`
	Color string `json:"color"`
}

// CheckColorResult reports the sampled colour and whether it matched
type CheckColorResult struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Color   string `json:"color"`
	Target  string `json:"target,omitempty"`
	Matches bool   `json:"matches"`
}
