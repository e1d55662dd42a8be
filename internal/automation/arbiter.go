package automation

import "sync"

type activity int

const (
	activityIdle activity = iota
	activityRecording
	activityPlaying
)

// arbiter grants the input channel to one recording or one playback at a
// time. Each grant gets a new generation so a stale holder cannot release
// a later grant.
type arbiter struct {
	mu         sync.Mutex
	held       activity
	generation uint64
}

func (a *arbiter) conflict() error {
	switch a.held {
	case activityRecording:
		return ErrAlreadyRecording
	case activityPlaying:
		return ErrAlreadyPlaying
	}
	return nil
}

// check reports the error acquire would return right now
func (a *arbiter) check() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conflict()
}

// acquire takes the grant. onGrant, if set, runs before the lock is
// dropped so whatever it publishes precedes any later release.
func (a *arbiter) acquire(want activity, onGrant func(gen uint64)) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.conflict(); err != nil {
		return 0, err
	}
	a.generation++
	a.held = want
	if onGrant != nil {
		onGrant(a.generation)
	}
	return a.generation, nil
}

// release frees the grant if gen still holds it. onRelease runs under the
// lock, so no new grant can publish ahead of it.
func (a *arbiter) release(gen uint64, onRelease func()) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.held == activityIdle || a.generation != gen {
		return false
	}
	a.held = activityIdle
	if onRelease != nil {
		onRelease()
	}
	return true
}
