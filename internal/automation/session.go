package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gamehub/automation-agent/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionObserver is told when recording and playback sessions begin and
// end. Calls happen on the session's goroutine and should return quickly.
type SessionObserver interface {
	SessionStarted(session models.Session)
	SessionFinished(session models.Session)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(models.Session)  {}
func (nopObserver) SessionFinished(models.Session) {}

func newSession(kind models.SessionKind) models.Session {
	return models.Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartedAt: time.Now().UTC(),
		Outcome:   models.OutcomeRunning,
	}
}

// finishSession stamps the end of a session and classifies err
func finishSession(session models.Session, events int, err error) models.Session {
	ended := time.Now().UTC()
	session.EndedAt = &ended
	session.Events = events

	switch {
	case err == nil:
		session.Outcome = models.OutcomeCompleted
	case errors.Is(err, errPlaybackStopped):
		session.Outcome = models.OutcomeStopped
	case errors.Is(err, ErrTargetWindowLost):
		session.Outcome = models.OutcomeWindowLost
		session.Error = err.Error()
	default:
		session.Outcome = models.OutcomeFailed
		session.Error = err.Error()
	}
	return session
}

type runningSession struct {
	record models.Session
	gen    uint64
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// playback is the lifecycle shared by Player and BackgroundClicker. Both
// compete for the same arbiter grant, so at most one runs at a time.
type playback struct {
	arb         *arbiter
	status      *StatusRegistry
	observer    SessionObserver
	logger      *zap.Logger
	stopTimeout time.Duration

	mu      sync.Mutex
	current *runningSession
}

// begin takes the playback grant and publishes playing=true while still
// holding the arbiter, so a finishing session cannot overwrite it.
func (pb *playback) begin(mode models.PlaybackMode, record models.Session) (*runningSession, context.Context, error) {
	ctx, cancel := context.WithCancelCause(context.Background())
	sess := &runningSession{
		record: record,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	_, err := pb.arb.acquire(activityPlaying, func(gen uint64) {
		sess.gen = gen

		pb.mu.Lock()
		pb.current = sess
		pb.mu.Unlock()

		pb.status.Update(func(st *models.AutomationStatus) {
			st.Playing = true
			st.Mode = mode
			st.SessionID = record.ID
			st.LastError = ""
		})
	})
	if err != nil {
		cancel(nil)
		return nil, nil, err
	}

	pb.observer.SessionStarted(record)
	return sess, ctx, nil
}

// end releases the grant and publishes playing=false in one step, then
// forgets the session. It runs on the session goroutine before done is
// closed, so Stop and Wait return only once the grant is free.
func (pb *playback) end(sess *runningSession, events int, err error) {
	sess.cancel(nil)

	record := finishSession(sess.record, events, err)

	pb.arb.release(sess.gen, func() {
		pb.status.Update(func(st *models.AutomationStatus) {
			st.Playing = false
			st.Mode = models.ModeIdle
			st.SessionID = ""
			st.LastError = record.Error
		})
	})

	pb.mu.Lock()
	if pb.current == sess {
		pb.current = nil
	}
	pb.mu.Unlock()

	fields := []zap.Field{
		zap.String("session_id", record.ID),
		zap.String("kind", string(record.Kind)),
		zap.String("outcome", string(record.Outcome)),
		zap.Int("events", events),
	}
	switch record.Outcome {
	case models.OutcomeFailed, models.OutcomeWindowLost:
		pb.logger.Warn("Playback session ended", append(fields, zap.Error(err))...)
	default:
		pb.logger.Info("Playback session ended", fields...)
	}

	pb.observer.SessionFinished(record)
	close(sess.done)
}

// Stop cancels the running session and waits for it to wind down. It is a
// no-op when nothing is running.
func (pb *playback) Stop() error {
	pb.mu.Lock()
	sess := pb.current
	pb.mu.Unlock()

	if sess == nil {
		return nil
	}

	sess.cancel(errPlaybackStopped)

	select {
	case <-sess.done:
		return nil
	case <-time.After(pb.stopTimeout):
		return fmt.Errorf("playback session %s did not stop within %s", sess.record.ID, pb.stopTimeout)
	}
}

// Wait blocks until the running session, if any, has ended
func (pb *playback) Wait() {
	pb.mu.Lock()
	sess := pb.current
	pb.mu.Unlock()

	if sess != nil {
		<-sess.done
	}
}

// Active reports whether a session is running
func (pb *playback) Active() bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.current != nil
}

// sleepUntil waits for deadline or cancellation, returning the cancel cause
func sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}
