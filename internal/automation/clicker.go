package automation

import (
	"context"
	"time"

	"gamehub/automation-agent/internal/models"

	"go.uber.org/zap"
)

// ClickerConfig tunes the background clicker
type ClickerConfig struct {
	MinInterval time.Duration
	// ClickX, ClickY is the click point in window client coordinates
	ClickX, ClickY int
}

// BackgroundClicker clicks one point of a window at a fixed rate without
// touching the real cursor.
type BackgroundClicker struct {
	playback

	target PlayerTarget
	cfg    ClickerConfig
}

func newBackgroundClicker(
	target PlayerTarget,
	arb *arbiter,
	status *StatusRegistry,
	observer SessionObserver,
	cfg ClickerConfig,
	stopTimeout time.Duration,
	logger *zap.Logger,
) *BackgroundClicker {
	if observer == nil {
		observer = nopObserver{}
	}
	return &BackgroundClicker{
		playback: playback{
			arb:         arb,
			status:      status,
			observer:    observer,
			logger:      logger,
			stopTimeout: stopTimeout,
		},
		target: target,
		cfg:    cfg,
	}
}

// Start begins clicking hwnd every interval, the first click immediately.
// Intervals below the configured floor are raised to it.
func (c *BackgroundClicker) Start(hwnd models.WindowHandle, interval time.Duration) (string, error) {
	if hwnd == 0 || !c.target.IsWindow(hwnd) {
		return "", ErrInvalidWindow
	}
	if interval < c.cfg.MinInterval {
		interval = c.cfg.MinInterval
	}

	record := newSession(models.SessionBackgroundClicker)
	record.Background = true
	record.Hwnd = hwnd
	record.Loop = true
	record.IntervalMs = interval.Milliseconds()

	sess, ctx, err := c.begin(models.ModeBackgroundClicker, record)
	if err != nil {
		return "", err
	}

	c.logger.Info("Background clicker started",
		zap.String("session_id", record.ID),
		zap.Uint64("hwnd", uint64(hwnd)),
		zap.Duration("interval", interval),
	)

	go func() {
		clicks, err := c.run(ctx, hwnd, interval)
		c.end(sess, clicks, err)
	}()

	return record.ID, nil
}

// run fires tick n at anchor + n*interval. When it falls more than one
// interval behind, the overdue tick and any missed ones are dropped and the
// schedule restarts one interval from now.
func (c *BackgroundClicker) run(ctx context.Context, hwnd models.WindowHandle, interval time.Duration) (int, error) {
	click := models.InputEvent{
		Type:   models.EventClick,
		X:      c.cfg.ClickX,
		Y:      c.cfg.ClickY,
		Button: models.ButtonLeft,
	}

	anchor := time.Now()
	clicks := 0
	for tick := 0; ; tick++ {
		due := anchor.Add(time.Duration(tick) * interval)
		if err := sleepUntil(ctx, due); err != nil {
			return clicks, err
		}

		if now := time.Now(); now.Sub(due) > interval {
			c.logger.Debug("Background clicker fell behind, re-anchoring",
				zap.Duration("lag", now.Sub(due)),
			)
			// the next click lands one interval after now
			anchor, tick = now, 0
			continue
		}

		if !c.target.IsWindow(hwnd) {
			return clicks, ErrTargetWindowLost
		}
		if ctx.Err() != nil {
			return clicks, context.Cause(ctx)
		}
		if err := c.target.EmitToWindow(hwnd, click); err != nil {
			return clicks, windowError(err)
		}
		clicks++
	}
}
