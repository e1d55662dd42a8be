//go:build windows || linux || darwin
// +build windows linux darwin

package platform

import (
	"fmt"

	"gamehub/automation-agent/internal/models"

	"github.com/go-vgo/robotgo"
)

// emitGlobal synthesizes an event through the OS input queue. The cursor
// is moved to the event point before any button action.
func emitGlobal(ev models.InputEvent) error {
	switch ev.Type {
	case models.EventMouseMove:
		robotgo.Move(ev.X, ev.Y)
	case models.EventMouseDown:
		robotgo.Move(ev.X, ev.Y)
		if err := robotgo.Toggle(buttonName(ev.Button)); err != nil {
			return fmt.Errorf("failed to press %s button: %w", buttonName(ev.Button), err)
		}
	case models.EventMouseUp:
		robotgo.Move(ev.X, ev.Y)
		if err := robotgo.Toggle(buttonName(ev.Button), "up"); err != nil {
			return fmt.Errorf("failed to release %s button: %w", buttonName(ev.Button), err)
		}
	case models.EventClick:
		robotgo.Move(ev.X, ev.Y)
		robotgo.Click(buttonName(ev.Button), false)
	case models.EventKeyDown, models.EventKeyUp:
		key, err := SynthKey(ev.Key)
		if err != nil {
			return err
		}
		dir := "down"
		if ev.Type == models.EventKeyUp {
			dir = "up"
		}
		if err := robotgo.KeyToggle(key, dir); err != nil {
			return fmt.Errorf("failed to toggle key %q %s: %w", key, dir, err)
		}
	default:
		return fmt.Errorf("cannot synthesize %q event", ev.Type)
	}
	return nil
}

func cursorPosition() (int, int) {
	return robotgo.Location()
}

func buttonName(button string) string {
	if button == "" {
		return models.ButtonLeft
	}
	return button
}
