package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/platform"
	"gamehub/automation-agent/internal/tracker"

	"go.uber.org/zap"
)

// PlayRequest describes one playback session
type PlayRequest struct {
	Macro models.Macro
	Loop  bool
	// Interval replaces recorded pacing with a fixed delay between events
	Interval time.Duration
	// Hwnd targets a single window; zero plays into the global input stream
	Hwnd models.WindowHandle
}

// PlayerTarget is what the player needs from the platform
type PlayerTarget interface {
	platform.InputSink
	platform.WindowEnumerator
}

// Player replays macros globally or into a background window
type Player struct {
	playback

	target             PlayerTarget
	windowPollInterval time.Duration
}

// newPlayer creates a player sharing arb with the recorder and clicker
func newPlayer(
	target PlayerTarget,
	arb *arbiter,
	status *StatusRegistry,
	observer SessionObserver,
	windowPollInterval time.Duration,
	stopTimeout time.Duration,
	logger *zap.Logger,
) *Player {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Player{
		playback: playback{
			arb:         arb,
			status:      status,
			observer:    observer,
			logger:      logger,
			stopTimeout: stopTimeout,
		},
		target:             target,
		windowPollInterval: windowPollInterval,
	}
}

// Play validates req and starts playback in the background, returning the
// session id.
func (p *Player) Play(req PlayRequest) (string, error) {
	if err := p.arb.check(); err != nil {
		return "", err
	}
	if len(req.Macro) == 0 {
		return "", ErrEmptyMacro
	}
	if err := req.Macro.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMacro, err)
	}
	if req.Interval < 0 {
		return "", fmt.Errorf("%w: negative interval", ErrInvalidInterval)
	}
	background := req.Hwnd != 0
	if background && !p.target.IsWindow(req.Hwnd) {
		return "", ErrInvalidWindow
	}

	record := newSession(models.SessionPlayback)
	record.Background = background
	record.Hwnd = req.Hwnd
	record.Loop = req.Loop
	record.IntervalMs = req.Interval.Milliseconds()

	sess, ctx, err := p.begin(models.ModeMacro, record)
	if err != nil {
		return "", err
	}

	macro := req.Macro.Clone()

	var watcher *tracker.WindowWatcher
	if background {
		watcher = tracker.NewWindowWatcher(p.target, req.Hwnd, p.windowPollInterval, p.logger)
		watcher.Start(func(models.WindowHandle) {
			sess.cancel(ErrTargetWindowLost)
		})
	}

	p.logger.Info("Playback started",
		zap.String("session_id", record.ID),
		zap.Int("events", len(macro)),
		zap.Duration("duration", macro.Duration()),
		zap.Bool("loop", req.Loop),
		zap.Duration("interval", req.Interval),
		zap.Uint64("hwnd", uint64(req.Hwnd)),
	)

	go func() {
		emitted, err := p.run(ctx, macro, req)
		if watcher != nil {
			watcher.Stop()
		}
		p.end(sess, emitted, err)
	}()

	return record.ID, nil
}

// run emits the macro until it completes, is cancelled or fails.
// With an interval, event n+1 follows event n by exactly that delay, across
// loop passes too, and the first event goes out at once. Without one, each
// event fires at pass start plus its recorded offset, and the next pass
// starts when the previous pass emitted its last event.
func (p *Player) run(ctx context.Context, macro models.Macro, req PlayRequest) (int, error) {
	emitted := 0
	passStart := time.Now()
	var lastEmit time.Time

	for {
		for _, ev := range macro {
			var due time.Time
			switch {
			case req.Interval > 0 && emitted == 0:
				due = passStart
			case req.Interval > 0:
				due = lastEmit.Add(req.Interval)
			default:
				due = passStart.Add(time.Duration(ev.Time * float64(time.Second)))
			}

			if err := sleepUntil(ctx, due); err != nil {
				return emitted, err
			}
			if err := p.emit(ctx, ev, req.Hwnd); err != nil {
				return emitted, err
			}
			emitted++
			lastEmit = time.Now()
		}

		if !req.Loop {
			return emitted, nil
		}
		passStart = lastEmit
	}
}

func (p *Player) emit(ctx context.Context, ev models.InputEvent, hwnd models.WindowHandle) error {
	if hwnd == 0 {
		if err := p.target.Emit(ev); err != nil {
			return fmt.Errorf("failed to synthesize %s: %w", ev.Type, err)
		}
		return nil
	}

	// the watcher polls on its own cadence, check right before sending too
	if !p.target.IsWindow(hwnd) {
		return ErrTargetWindowLost
	}
	if err := ctx.Err(); err != nil {
		return context.Cause(ctx)
	}

	if ev.Type.IsMouse() {
		x, y, err := p.target.ScreenToClient(hwnd, ev.X, ev.Y)
		if err != nil {
			return windowError(err)
		}
		ev.X, ev.Y = x, y
	}

	if err := p.target.EmitToWindow(hwnd, ev); err != nil {
		return windowError(fmt.Errorf("failed to post %s: %w", ev.Type, err))
	}
	return nil
}

// windowError maps a vanished window onto ErrTargetWindowLost
func windowError(err error) error {
	if errors.Is(err, platform.ErrWindowGone) {
		return fmt.Errorf("%w: %v", ErrTargetWindowLost, err)
	}
	return err
}
