package automation

import (
	"fmt"
	"sync"
	"time"

	"gamehub/automation-agent/internal/collector"
	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/platform"

	"go.uber.org/zap"
)

// Recorder captures global input into a macro while armed
type Recorder struct {
	source    platform.InputSource
	collector *collector.InputCollector
	arb       *arbiter
	status    *StatusRegistry
	store     *MacroStore
	observer  SessionObserver
	logger    *zap.Logger

	mu      sync.Mutex
	armed   bool
	gen     uint64
	session models.Session
}

func newRecorder(
	source platform.InputSource,
	inputCollector *collector.InputCollector,
	arb *arbiter,
	status *StatusRegistry,
	store *MacroStore,
	observer SessionObserver,
	logger *zap.Logger,
) *Recorder {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Recorder{
		source:    source,
		collector: inputCollector,
		arb:       arb,
		status:    status,
		store:     store,
		observer:  observer,
		logger:    logger,
	}
}

// Start arms the recorder. Time zero is the moment the hook goes in.
func (r *Recorder) Start() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.armed {
		return "", ErrAlreadyRecording
	}
	gen, err := r.arb.acquire(activityRecording, nil)
	if err != nil {
		return "", err
	}

	r.collector.Start(time.Now())
	if err := r.source.StartInputCapture(r.onInput); err != nil {
		r.collector.Stop()
		r.arb.release(gen, nil)
		return "", fmt.Errorf("failed to install input hook: %w", err)
	}

	r.armed = true
	r.gen = gen
	r.session = newSession(models.SessionRecording)

	r.status.Update(func(st *models.AutomationStatus) {
		st.Recording = true
		st.SessionID = r.session.ID
		st.LastError = ""
	})
	r.observer.SessionStarted(r.session)

	r.logger.Info("Recording started", zap.String("session_id", r.session.ID))
	return r.session.ID, nil
}

// onInput runs on the OS hook thread
func (r *Recorder) onInput(in platform.CapturedInput) {
	r.collector.Offer(in)
}

// Stop disarms the recorder and returns the captured macro, which also
// becomes the current macro.
func (r *Recorder) Stop() (models.Macro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.armed {
		return nil, ErrNotRecording
	}

	if err := r.source.StopInputCapture(); err != nil {
		r.logger.Warn("Failed to remove input hook", zap.Error(err))
	}
	macro := r.collector.Stop()

	r.armed = false
	r.arb.release(r.gen, func() {
		r.store.Set(macro, func(st *models.AutomationStatus) {
			st.Recording = false
			st.SessionID = ""
		})
	})

	session := finishSession(r.session, len(macro), nil)
	r.observer.SessionFinished(session)

	r.logger.Info("Recording stopped",
		zap.String("session_id", session.ID),
		zap.Int("events", len(macro)),
		zap.Int64("dropped", r.collector.Dropped()),
	)

	return macro.Clone(), nil
}

// Recording reports whether the recorder is armed
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.armed
}
