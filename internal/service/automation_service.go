package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gamehub/automation-agent/internal/automation"
	"gamehub/automation-agent/internal/config"
	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/platform"
	"gamehub/automation-agent/internal/repository"

	"go.uber.org/zap"
)

// ErrHistoryDisabled is returned by history lookups when history is off
var ErrHistoryDisabled = errors.New("session history is disabled")

const (
	sessionBuffer   = 64
	cleanupInterval = time.Hour
)

// StatusPublisher receives every status change. Publish must not block.
type StatusPublisher interface {
	Publish(status models.AutomationStatus)
}

type sessionWrite struct {
	session  models.Session
	finished bool
}

// AutomationService wraps the automation engine with persistence and
// status fan-out.
type AutomationService struct {
	engine   *automation.Engine
	macros   *repository.MacroRepository
	sessions *repository.SessionRepository
	history  config.HistoryConfig
	logger   *zap.Logger

	writes   chan sessionWrite
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	stopped  bool
}

// NewAutomationService builds the engine around p with the service as its
// session observer.
func NewAutomationService(
	p platform.Platform,
	engineCfg automation.Config,
	macros *repository.MacroRepository,
	sessions *repository.SessionRepository,
	history config.HistoryConfig,
	logger *zap.Logger,
) *AutomationService {
	s := &AutomationService{
		macros:   macros,
		sessions: sessions,
		history:  history,
		logger:   logger,
		writes:   make(chan sessionWrite, sessionBuffer),
		stopChan: make(chan struct{}),
	}
	s.engine = automation.NewEngine(p, engineCfg, s, logger)
	return s
}

// EngineConfig maps the automation config section onto the engine tunables
func EngineConfig(cfg config.AutomationConfig) automation.Config {
	return automation.Config{
		MinClickInterval:     cfg.MinClickInterval,
		DefaultClickInterval: cfg.DefaultClickInterval,
		ClickX:               cfg.ClickPointX,
		ClickY:               cfg.ClickPointY,
		ColorPickDelay:       cfg.ColorPickDelay,
		WindowPollInterval:   cfg.WindowPollInterval,
		CaptureBufferSize:    cfg.CaptureBufferSize,
		StopTimeout:          cfg.StopTimeout,
	}
}

// Start repairs history left by a previous run and starts the history writer
func (s *AutomationService) Start() error {
	s.logger.Info("Starting automation service", zap.Bool("history", s.historyEnabled()))

	if s.historyEnabled() {
		if n, err := s.sessions.MarkInterrupted(time.Now()); err != nil {
			s.logger.Warn("Failed to close interrupted sessions", zap.Error(err))
		} else if n > 0 {
			s.logger.Info("Closed sessions interrupted by restart", zap.Int64("count", n))
		}
		s.cleanupHistory()
	}

	s.wg.Add(1)
	go s.historyWriter()

	s.logger.Info("Automation service started")
	return nil
}

// Stop halts all automation and flushes pending history writes
func (s *AutomationService) Stop() {
	s.logger.Info("Stopping automation service")

	s.engine.Shutdown()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopChan)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.logger.Warn("History writer did not stop within timeout")
	}

	s.logger.Info("Automation service stopped")
}

// AddStatusPublisher forwards every status change to pub
func (s *AutomationService) AddStatusPublisher(pub StatusPublisher) {
	pub.Publish(s.engine.Status())
	s.engine.OnStatusChange(pub.Publish)
}

// SessionStarted implements automation.SessionObserver
func (s *AutomationService) SessionStarted(session models.Session) {
	s.enqueue(sessionWrite{session: session})
}

// SessionFinished implements automation.SessionObserver
func (s *AutomationService) SessionFinished(session models.Session) {
	s.enqueue(sessionWrite{session: session, finished: true})
}

// enqueue never blocks: observers run on hook and playback goroutines
func (s *AutomationService) enqueue(w sessionWrite) {
	if !s.historyEnabled() {
		return
	}
	select {
	case s.writes <- w:
	default:
		s.logger.Warn("History buffer full, dropping session update",
			zap.String("session_id", w.session.ID),
			zap.Bool("finished", w.finished),
		)
	}
}

func (s *AutomationService) historyWriter() {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case w := <-s.writes:
			s.persist(w)
		case <-ticker.C:
			if s.historyEnabled() {
				s.cleanupHistory()
			}
		case <-s.stopChan:
			for {
				select {
				case w := <-s.writes:
					s.persist(w)
				default:
					return
				}
			}
		}
	}
}

func (s *AutomationService) persist(w sessionWrite) {
	var err error
	if w.finished {
		err = s.sessions.Finish(&w.session)
	} else {
		err = s.sessions.Create(&w.session)
	}
	if err != nil {
		s.logger.Error("Failed to persist session",
			zap.String("session_id", w.session.ID),
			zap.Error(err),
		)
	}
}

func (s *AutomationService) cleanupHistory() {
	if s.history.Retention <= 0 {
		return
	}
	deleted, err := s.sessions.DeleteOlderThan(s.history.Retention)
	if err != nil {
		s.logger.Error("Failed to clean up session history", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("Cleaned up old sessions", zap.Int64("deleted", deleted))
	}
}

func (s *AutomationService) historyEnabled() bool {
	return !s.history.Disabled && s.sessions != nil
}

func (s *AutomationService) Status() models.AutomationStatus {
	return s.engine.Status()
}

func (s *AutomationService) StartRecording() (string, error) {
	return s.engine.StartRecording()
}

func (s *AutomationService) StopRecording() (models.Macro, error) {
	return s.engine.StopRecording()
}

func (s *AutomationService) PlayMacro(req models.PlayMacroRequest) (string, error) {
	return s.engine.Play(req)
}

func (s *AutomationService) StopPlayback() error {
	return s.engine.StopPlayback()
}

func (s *AutomationService) StartBackgroundClicker(req models.BackgroundClickerRequest) (string, error) {
	return s.engine.StartBackgroundClicker(req)
}

func (s *AutomationService) ListWindows() []models.WindowInfo {
	return s.engine.ListWindows()
}

func (s *AutomationService) CursorInfo() (models.CursorInfo, error) {
	return s.engine.CursorInfo()
}

func (s *AutomationService) PickColor(ctx context.Context) (models.TriggerColor, error) {
	return s.engine.PickColor(ctx)
}

func (s *AutomationService) TriggerColor() (models.TriggerColor, bool) {
	return s.engine.TriggerColor()
}

func (s *AutomationService) CheckColor(req models.CheckColorRequest) (models.CheckColorResult, error) {
	return s.engine.CheckColor(req)
}

func (s *AutomationService) LoadMacro(data []byte) (models.Macro, error) {
	return s.engine.LoadMacro(data)
}

func (s *AutomationService) CurrentMacro() models.Macro {
	return s.engine.CurrentMacro()
}

// SaveMacro stores a named macro. A request without events saves the
// current macro.
func (s *AutomationService) SaveMacro(req models.SaveMacroRequest) (*models.SavedMacro, error) {
	if req.Macro == nil {
		req.Macro = s.engine.CurrentMacro()
	}
	if err := req.Macro.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", automation.ErrInvalidMacro, err)
	}
	return s.macros.Create(&req)
}

func (s *AutomationService) ListMacros() ([]*models.SavedMacro, error) {
	return s.macros.List()
}

func (s *AutomationService) GetMacro(id string) (*models.SavedMacro, error) {
	return s.macros.GetByID(id)
}

func (s *AutomationService) DeleteMacro(id string) error {
	return s.macros.Delete(id)
}

// ActivateMacro makes a saved macro the current one
func (s *AutomationService) ActivateMacro(id string) (*models.SavedMacro, error) {
	saved, err := s.macros.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.SetMacro(saved.Events); err != nil {
		return nil, err
	}
	return saved, nil
}

// ListSessions returns recent sessions, capped at the configured limit
func (s *AutomationService) ListSessions(limit int) ([]*models.Session, error) {
	if !s.historyEnabled() {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 || limit > s.history.ListLimit {
		limit = s.history.ListLimit
	}
	return s.sessions.ListRecent(limit)
}

func (s *AutomationService) GetSession(id string) (*models.Session, error) {
	if !s.historyEnabled() {
		return nil, ErrHistoryDisabled
	}
	return s.sessions.GetByID(id)
}

// WaitPlayback blocks until the running playback session ends
func (s *AutomationService) WaitPlayback() {
	s.engine.WaitPlayback()
}
