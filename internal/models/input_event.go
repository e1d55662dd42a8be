package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// EventType discriminates the payload of an InputEvent
type EventType string

const (
	EventMouseMove EventType = "mouse_move"
	EventMouseDown EventType = "mouse_down"
	EventMouseUp   EventType = "mouse_up"
	EventKeyDown   EventType = "key_down"
	EventKeyUp     EventType = "key_up"
	// EventClick is a press and release at a point, emitted as one step
	EventClick EventType = "click"
)

// Mouse buttons
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "middle"
)

// IsMouse reports whether the event carries screen coordinates
func (t EventType) IsMouse() bool {
	switch t {
	case EventMouseMove, EventMouseDown, EventMouseUp, EventClick:
		return true
	}
	return false
}

// IsKey reports whether the event carries a key name
func (t EventType) IsKey() bool {
	return t == EventKeyDown || t == EventKeyUp
}

// InputEvent is a single recorded input with its offset from recording start
type InputEvent struct {
	Type   EventType `json:"type"`
	Time   float64   `json:"time"` // seconds since recording start
	X      int       `json:"x,omitempty"`
	Y      int       `json:"y,omitempty"`
	Button string    `json:"button,omitempty"`
	Key    string    `json:"key,omitempty"`
}

// wireInputEvent is the encoded layout. Nil coordinates are left out.
type wireInputEvent struct {
	Type   EventType `json:"type"`
	Time   float64   `json:"time"`
	X      *int      `json:"x,omitempty"`
	Y      *int      `json:"y,omitempty"`
	Button string    `json:"button,omitempty"`
	Key    string    `json:"key,omitempty"`
}

// MarshalJSON writes x and y for every mouse event, including the origin,
// and leaves them out for key events.
func (e InputEvent) MarshalJSON() ([]byte, error) {
	out := wireInputEvent{
		Type:   e.Type,
		Time:   e.Time,
		Button: e.Button,
		Key:    e.Key,
	}
	if e.Type.IsMouse() || (!e.Type.IsKey() && (e.X != 0 || e.Y != 0)) {
		x, y := e.X, e.Y
		out.X, out.Y = &x, &y
	}
	return json.Marshal(out)
}

// legacyInputEvent accepts the shapes written by the older automation server
// ("move", "click" + "pressed", "Button.left", "Key.space", "'a'").
type legacyInputEvent struct {
	Type    string   `json:"type"`
	Time    *float64 `json:"time"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Button  string   `json:"button"`
	Key     string   `json:"key"`
	Pressed *bool    `json:"pressed"`
}

// UnmarshalJSON decodes both the current and the legacy event layout
func (e *InputEvent) UnmarshalJSON(data []byte) error {
	var raw legacyInputEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Time == nil {
		return fmt.Errorf("event %q has no time", raw.Type)
	}

	ev := InputEvent{
		Time:   *raw.Time,
		Button: normalizeButton(raw.Button),
		Key:    normalizeKey(raw.Key),
	}
	if raw.X != nil {
		ev.X = int(math.Round(*raw.X))
	}
	if raw.Y != nil {
		ev.Y = int(math.Round(*raw.Y))
	}

	switch strings.ToLower(strings.TrimSpace(raw.Type)) {
	case "move", string(EventMouseMove):
		ev.Type = EventMouseMove
	case "click":
		switch {
		case raw.Pressed == nil:
			ev.Type = EventClick
		case *raw.Pressed:
			ev.Type = EventMouseDown
		default:
			ev.Type = EventMouseUp
		}
	default:
		ev.Type = EventType(strings.ToLower(strings.TrimSpace(raw.Type)))
	}

	if ev.Type == EventMouseDown || ev.Type == EventMouseUp || ev.Type == EventClick {
		if ev.Button == "" {
			ev.Button = ButtonLeft
		}
	}

	*e = ev
	return nil
}

// Validate checks a single event in isolation
func (e InputEvent) Validate() error {
	switch e.Type {
	case EventMouseMove, EventMouseDown, EventMouseUp, EventClick, EventKeyDown, EventKeyUp:
	case "":
		return fmt.Errorf("missing event type")
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}

	if math.IsNaN(e.Time) || math.IsInf(e.Time, 0) || e.Time < 0 {
		return fmt.Errorf("invalid time %v for %s event", e.Time, e.Type)
	}

	if e.Type.IsKey() && e.Key == "" {
		return fmt.Errorf("%s event without key", e.Type)
	}

	switch e.Button {
	case "", ButtonLeft, ButtonRight, ButtonMiddle:
	default:
		return fmt.Errorf("unknown mouse button %q", e.Button)
	}

	return nil
}

func normalizeButton(button string) string {
	button = strings.ToLower(strings.TrimSpace(button))
	button = strings.TrimPrefix(button, "button.")
	return button
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) >= 3 && key[0] == '\'' && key[len(key)-1] == '\'' {
		key = key[1 : len(key)-1]
	}
	return strings.TrimPrefix(key, "Key.")
}
