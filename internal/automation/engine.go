package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamehub/automation-agent/internal/collector"
	"gamehub/automation-agent/internal/macrofile"
	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/platform"

	"go.uber.org/zap"
)

// Config holds engine tunables
type Config struct {
	MinClickInterval     time.Duration
	DefaultClickInterval time.Duration
	ClickX, ClickY       int
	ColorPickDelay       time.Duration
	WindowPollInterval   time.Duration
	CaptureBufferSize    int
	StopTimeout          time.Duration
}

// Engine owns the recorder, player and clicker around one platform and
// one arbiter, plus the current macro and the status registry.
type Engine struct {
	platform platform.Platform
	status   *StatusRegistry
	store    *MacroStore
	recorder *Recorder
	player   *Player
	clicker  *BackgroundClicker
	colors   *ColorPicker
	cfg      Config
	logger   *zap.Logger
}

// NewEngine wires the automation components. observer may be nil.
func NewEngine(p platform.Platform, cfg Config, observer SessionObserver, logger *zap.Logger) *Engine {
	arb := &arbiter{}
	status := NewStatusRegistry()
	store := NewMacroStore(status)

	return &Engine{
		platform: p,
		status:   status,
		store:    store,
		recorder: newRecorder(
			p,
			collector.NewInputCollector(cfg.CaptureBufferSize, logger),
			arb, status, store, observer, logger,
		),
		player: newPlayer(p, arb, status, observer, cfg.WindowPollInterval, cfg.StopTimeout, logger),
		clicker: newBackgroundClicker(p, arb, status, observer, ClickerConfig{
			MinInterval: cfg.MinClickInterval,
			ClickX:      cfg.ClickX,
			ClickY:      cfg.ClickY,
		}, cfg.StopTimeout, logger),
		colors: NewColorPicker(p, cfg.ColorPickDelay, logger),
		cfg:    cfg,
		logger: logger,
	}
}

// Status returns the current snapshot without blocking
func (e *Engine) Status() models.AutomationStatus {
	return e.status.Snapshot()
}

// OnStatusChange adds a callback for every status change
func (e *Engine) OnStatusChange(fn func(models.AutomationStatus)) {
	e.status.OnChange(fn)
}

func (e *Engine) StartRecording() (string, error) {
	return e.recorder.Start()
}

func (e *Engine) StopRecording() (models.Macro, error) {
	return e.recorder.Stop()
}

// MaxIntervalMs bounds request intervals so the millisecond conversion
// cannot overflow time.Duration.
const MaxIntervalMs = int64(24 * time.Hour / time.Millisecond)

// Play starts a playback session. A nil macro plays the current macro.
func (e *Engine) Play(req models.PlayMacroRequest) (string, error) {
	macro := req.Macro
	if macro == nil {
		macro = e.store.Get()
	}
	if req.Interval < 0 || req.Interval > MaxIntervalMs {
		return "", fmt.Errorf("%w: %d ms", ErrInvalidInterval, req.Interval)
	}

	return e.player.Play(PlayRequest{
		Macro:    macro,
		Loop:     req.Loop,
		Interval: time.Duration(req.Interval) * time.Millisecond,
		Hwnd:     req.Hwnd,
	})
}

// StopPlayback stops whichever of player and clicker is running
func (e *Engine) StopPlayback() error {
	return errors.Join(e.player.Stop(), e.clicker.Stop())
}

// StartBackgroundClicker starts clicking a window. A zero interval uses
// the configured default.
func (e *Engine) StartBackgroundClicker(req models.BackgroundClickerRequest) (string, error) {
	if req.Interval > MaxIntervalMs {
		return "", fmt.Errorf("%w: %d ms", ErrInvalidInterval, req.Interval)
	}
	interval := time.Duration(req.Interval) * time.Millisecond
	if req.Interval <= 0 {
		interval = e.cfg.DefaultClickInterval
	}
	return e.clicker.Start(req.Hwnd, interval)
}

// WaitPlayback blocks until the current playback session ends
func (e *Engine) WaitPlayback() {
	e.player.Wait()
	e.clicker.Wait()
}

// CurrentMacro returns a copy of the current macro
func (e *Engine) CurrentMacro() models.Macro {
	return e.store.Get()
}

// LoadMacro parses a macro file and makes it current. On error the current
// macro is left untouched.
func (e *Engine) LoadMacro(data []byte) (models.Macro, error) {
	macro, err := macrofile.Parse(data)
	if err != nil {
		return nil, err
	}
	e.store.Set(macro, nil)
	return macro, nil
}

// SetMacro validates macro and makes it current
func (e *Engine) SetMacro(macro models.Macro) error {
	if err := macro.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMacro, err)
	}
	e.store.Set(macro, nil)
	return nil
}

// ListWindows is best effort: enumeration failures yield an empty list
func (e *Engine) ListWindows() []models.WindowInfo {
	windows, err := e.platform.ListWindows()
	if err != nil {
		e.logger.Warn("Window enumeration failed", zap.Error(err))
		return []models.WindowInfo{}
	}

	out := make([]models.WindowInfo, 0, len(windows))
	for _, w := range windows {
		if w.Handle == 0 || w.Title == "" {
			continue
		}
		out = append(out, w)
	}
	return out
}

func (e *Engine) CursorInfo() (models.CursorInfo, error) {
	return e.colors.CursorInfo()
}

func (e *Engine) PickColor(ctx context.Context) (models.TriggerColor, error) {
	return e.colors.PickColor(ctx)
}

func (e *Engine) TriggerColor() (models.TriggerColor, bool) {
	return e.colors.TriggerColor()
}

func (e *Engine) CheckColor(req models.CheckColorRequest) (models.CheckColorResult, error) {
	return e.colors.CheckColor(req)
}

// Shutdown stops any playback and disarms the recorder
func (e *Engine) Shutdown() {
	if err := e.StopPlayback(); err != nil {
		e.logger.Warn("Playback did not stop cleanly", zap.Error(err))
	}
	if e.recorder.Recording() {
		if _, err := e.recorder.Stop(); err != nil && !errors.Is(err, ErrNotRecording) {
			e.logger.Warn("Failed to stop recording", zap.Error(err))
		}
	}
}
