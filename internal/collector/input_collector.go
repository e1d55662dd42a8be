package collector

import (
	"sync"
	"sync/atomic"
	"time"

	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/platform"

	"go.uber.org/zap"
)

// InputCollector sits between the OS input hook and the recorder. Offer
// never blocks; a drain goroutine stamps offsets and appends to the macro.
type InputCollector struct {
	bufferSize int
	logger     *zap.Logger

	// mu guards running and inbox. Offer holds the read lock while it
	// sends, so Stop cannot race a late send.
	mu      sync.RWMutex
	running bool
	inbox   chan platform.CapturedInput

	eventsMu   sync.Mutex
	events     models.Macro
	origin     time.Time
	lastOffset float64

	dropped  atomic.Int64
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewInputCollector creates a collector whose inbox holds bufferSize inputs
func NewInputCollector(bufferSize int, logger *zap.Logger) *InputCollector {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &InputCollector{
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Start discards any previous capture and measures offsets from origin
func (ic *InputCollector) Start(origin time.Time) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.running {
		return
	}

	ic.eventsMu.Lock()
	ic.events = models.Macro{}
	ic.origin = origin
	ic.lastOffset = 0
	ic.eventsMu.Unlock()

	ic.dropped.Store(0)
	ic.inbox = make(chan platform.CapturedInput, ic.bufferSize)
	ic.stopChan = make(chan struct{})
	ic.running = true

	ic.wg.Add(1)
	go ic.drainLoop(ic.inbox, ic.stopChan)

	ic.logger.Debug("Input collector started", zap.Int("buffer_size", ic.bufferSize))
}

// Offer enqueues a captured input without blocking. It returns false when
// the collector is stopped or the buffer is full; the latter counts as a drop.
func (ic *InputCollector) Offer(in platform.CapturedInput) bool {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	if !ic.running {
		return false
	}

	select {
	case ic.inbox <- in:
		return true
	default:
		ic.dropped.Add(1)
		return false
	}
}

// Stop ends the capture and returns everything collected, in arrival order.
// The result is never nil.
func (ic *InputCollector) Stop() models.Macro {
	ic.mu.Lock()
	if !ic.running {
		ic.mu.Unlock()
		return models.Macro{}
	}
	ic.running = false
	inbox := ic.inbox
	close(ic.stopChan)
	ic.mu.Unlock()

	ic.wg.Wait()

	// nothing can send anymore, take what is left
	for drained := false; !drained; {
		select {
		case in := <-inbox:
			ic.stamp(in)
		default:
			drained = true
		}
	}

	ic.eventsMu.Lock()
	events := ic.events
	ic.events = models.Macro{}
	ic.eventsMu.Unlock()

	if dropped := ic.dropped.Load(); dropped > 0 {
		ic.logger.Warn("Input collector dropped events, buffer was full",
			zap.Int64("dropped", dropped),
			zap.Int("buffer_size", ic.bufferSize),
		)
	}
	ic.logger.Debug("Input collector stopped", zap.Int("events", len(events)))

	return events
}

// Dropped returns how many inputs were lost to a full buffer since Start
func (ic *InputCollector) Dropped() int64 {
	return ic.dropped.Load()
}

func (ic *InputCollector) drainLoop(inbox <-chan platform.CapturedInput, stopChan <-chan struct{}) {
	defer ic.wg.Done()

	for {
		select {
		case in := <-inbox:
			ic.stamp(in)
		case <-stopChan:
			return
		}
	}
}

// stamp converts the capture time to an offset. Offsets never go backwards
// even when the OS delivers timestamps out of order.
func (ic *InputCollector) stamp(in platform.CapturedInput) {
	ic.eventsMu.Lock()
	defer ic.eventsMu.Unlock()

	offset := in.At.Sub(ic.origin).Seconds()
	if offset < ic.lastOffset {
		offset = ic.lastOffset
	}
	ic.lastOffset = offset

	ev := in.Event
	ev.Time = offset
	ic.events = append(ic.events, ev)
}
