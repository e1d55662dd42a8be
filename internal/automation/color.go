package automation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/platform"

	"go.uber.org/zap"
)

// ColorPicker samples screen colours and keeps the captured trigger colour
type ColorPicker struct {
	sampler platform.ScreenSampler
	delay   time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	trigger *models.TriggerColor
}

// NewColorPicker creates a picker that waits delay before capturing
func NewColorPicker(sampler platform.ScreenSampler, delay time.Duration, logger *zap.Logger) *ColorPicker {
	return &ColorPicker{sampler: sampler, delay: delay, logger: logger}
}

// CursorInfo returns the cursor position and the colour under it
func (cp *ColorPicker) CursorInfo() (models.CursorInfo, error) {
	x, y, err := cp.sampler.CursorPosition()
	if err != nil {
		return models.CursorInfo{}, fmt.Errorf("failed to read cursor position: %w", err)
	}
	color, err := cp.sampler.PixelColor(x, y)
	if err != nil {
		return models.CursorInfo{}, err
	}
	return models.CursorInfo{X: x, Y: y, Color: color}, nil
}

// PickColor waits for the pick delay so the user can position the cursor,
// then captures the colour under it as the trigger colour.
func (cp *ColorPicker) PickColor(ctx context.Context) (models.TriggerColor, error) {
	if err := sleepUntil(ctx, time.Now().Add(cp.delay)); err != nil {
		return models.TriggerColor{}, err
	}

	info, err := cp.CursorInfo()
	if err != nil {
		return models.TriggerColor{}, err
	}

	trigger := models.TriggerColor{
		X:          info.X,
		Y:          info.Y,
		Color:      info.Color,
		CapturedAt: time.Now().UTC(),
	}

	cp.mu.Lock()
	cp.trigger = &trigger
	cp.mu.Unlock()

	cp.logger.Info("Trigger colour captured",
		zap.Int("x", trigger.X),
		zap.Int("y", trigger.Y),
		zap.String("color", trigger.Color),
	)
	return trigger, nil
}

// TriggerColor returns the last captured trigger colour
func (cp *ColorPicker) TriggerColor() (models.TriggerColor, bool) {
	cp.mu.RLock()
	defer cp.mu.RUnlock()
	if cp.trigger == nil {
		return models.TriggerColor{}, false
	}
	return *cp.trigger, true
}

// CheckColor samples a point and compares it with a colour. Missing
// coordinates fall back to the cursor; a missing colour falls back to the
// trigger colour. Without any target colour the result never matches.
func (cp *ColorPicker) CheckColor(req models.CheckColorRequest) (models.CheckColorResult, error) {
	target := ""
	if req.Color != "" {
		normalized, err := NormalizeColor(req.Color)
		if err != nil {
			return models.CheckColorResult{}, err
		}
		target = normalized
	} else if trigger, ok := cp.TriggerColor(); ok {
		target = trigger.Color
	}

	var x, y int
	if req.X == nil || req.Y == nil {
		cx, cy, err := cp.sampler.CursorPosition()
		if err != nil {
			return models.CheckColorResult{}, fmt.Errorf("failed to read cursor position: %w", err)
		}
		x, y = cx, cy
	}
	if req.X != nil {
		x = *req.X
	}
	if req.Y != nil {
		y = *req.Y
	}

	color, err := cp.sampler.PixelColor(x, y)
	if err != nil {
		return models.CheckColorResult{}, err
	}
	color, err = NormalizeColor(color)
	if err != nil {
		return models.CheckColorResult{}, err
	}

	return models.CheckColorResult{
		X:       x,
		Y:       y,
		Color:   color,
		Target:  target,
		Matches: target != "" && color == target,
	}, nil
}

// NormalizeColor accepts "#rrggbb" or "rrggbb" in any case and returns
// lower-case "#rrggbb".
func NormalizeColor(color string) (string, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(hex) != 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	for _, c := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return "", fmt.Errorf("%w: %q", ErrInvalidColor, color)
		}
	}
	return "#" + strings.ToLower(hex), nil
}
