package tracker

import (
	"sync"
	"time"

	"gamehub/automation-agent/internal/models"

	"go.uber.org/zap"
)

// LivenessProber reports whether a window handle is still alive
type LivenessProber interface {
	IsWindow(hwnd models.WindowHandle) bool
}

// WindowWatcher polls a target window and reports once when it disappears.
// A watcher is single use: Start it once, Stop it when the session ends.
type WindowWatcher struct {
	prober       LivenessProber
	hwnd         models.WindowHandle
	pollInterval time.Duration
	onLost       func(models.WindowHandle)
	logger       *zap.Logger
	lost         bool
	stopChan     chan struct{}
	wg           sync.WaitGroup
	mu           sync.RWMutex
}

// NewWindowWatcher creates a watcher for hwnd
func NewWindowWatcher(prober LivenessProber, hwnd models.WindowHandle, pollInterval time.Duration, logger *zap.Logger) *WindowWatcher {
	return &WindowWatcher{
		prober:       prober,
		hwnd:         hwnd,
		pollInterval: pollInterval,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start begins polling. onLost runs on the watcher goroutine at most once.
func (ww *WindowWatcher) Start(onLost func(models.WindowHandle)) {
	ww.onLost = onLost

	ww.wg.Add(1)
	go ww.pollLoop()

	ww.logger.Debug("Window watcher started",
		zap.Uint64("hwnd", uint64(ww.hwnd)),
		zap.Duration("poll_interval", ww.pollInterval),
	)
}

// Stop stops polling and waits for the poll goroutine. Safe to call twice
// and from inside onLost.
func (ww *WindowWatcher) Stop() {
	ww.mu.Lock()
	select {
	case <-ww.stopChan:
		// Already closed
		ww.mu.Unlock()
		return
	default:
		close(ww.stopChan)
	}
	ww.mu.Unlock()

	ww.wg.Wait()
}

// Lost reports whether the window was seen to disappear
func (ww *WindowWatcher) Lost() bool {
	ww.mu.RLock()
	defer ww.mu.RUnlock()
	return ww.lost
}

func (ww *WindowWatcher) pollLoop() {
	lost := ww.poll()
	// Done before onLost so the callback may call Stop
	ww.wg.Done()

	if lost && ww.onLost != nil {
		ww.onLost(ww.hwnd)
	}
}

// poll returns true when the window disappeared, false when stopped
func (ww *WindowWatcher) poll() bool {
	ticker := time.NewTicker(ww.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if ww.checkWindow() {
				return true
			}
		case <-ww.stopChan:
			return false
		}
	}
}

func (ww *WindowWatcher) checkWindow() bool {
	if ww.prober.IsWindow(ww.hwnd) {
		return false
	}

	// Check again after potentially slow operation
	select {
	case <-ww.stopChan:
		return false
	default:
	}

	ww.mu.Lock()
	ww.lost = true
	ww.mu.Unlock()

	ww.logger.Info("Target window disappeared", zap.Uint64("hwnd", uint64(ww.hwnd)))
	return true
}
