package repository

import (
	"path/filepath"
	"testing"
	"time"

	"gamehub/automation-agent/internal/database"
	"gamehub/automation-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMacroRepositoryLifecycle(t *testing.T) {
	repo := NewMacroRepository(newTestDB(t).DB)

	macro := models.Macro{
		{Type: models.EventMouseMove, Time: 0, X: 10, Y: 20},
		{Type: models.EventKeyDown, Time: 0.5, Key: "a"},
		{Type: models.EventKeyUp, Time: 0.6, Key: "a"},
	}

	saved, err := repo.Create(&models.SaveMacroRequest{Name: "  farm loop ", Macro: macro})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "farm loop", saved.Name)
	assert.Equal(t, 3, saved.EventCount)

	got, err := repo.GetByID(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, macro, got.Events)
	assert.Equal(t, "farm loop", got.Name)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)

	require.NoError(t, repo.Delete(saved.ID))
	_, err = repo.GetByID(saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(saved.ID), ErrNotFound)
}

func TestMacroRepositoryRejectsBlankName(t *testing.T) {
	repo := NewMacroRepository(newTestDB(t).DB)

	_, err := repo.Create(&models.SaveMacroRequest{Name: "   "})
	assert.Error(t, err)
}

func TestMacroRepositoryEmptyMacro(t *testing.T) {
	repo := NewMacroRepository(newTestDB(t).DB)

	saved, err := repo.Create(&models.SaveMacroRequest{Name: "empty"})
	require.NoError(t, err)

	got, err := repo.GetByID(saved.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Events)
	assert.Empty(t, got.Events)
}

func TestSessionRepositoryCreateAndFinish(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t).DB)

	started := time.Now().UTC().Truncate(time.Millisecond)
	s := &models.Session{
		ID:         "s1",
		Kind:       models.SessionPlayback,
		Background: true,
		Hwnd:       4242,
		Loop:       true,
		IntervalMs: 50,
		StartedAt:  started,
		Outcome:    models.OutcomeRunning,
	}
	require.NoError(t, repo.Create(s))

	ended := started.Add(2 * time.Second)
	s.EndedAt = &ended
	s.Events = 12
	s.Outcome = models.OutcomeWindowLost
	s.Error = "target window lost"
	require.NoError(t, repo.Finish(s))

	got, err := repo.GetByID("s1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionPlayback, got.Kind)
	assert.True(t, got.Background)
	assert.Equal(t, models.WindowHandle(4242), got.Hwnd)
	assert.True(t, got.Loop)
	assert.Equal(t, int64(50), got.IntervalMs)
	assert.Equal(t, 12, got.Events)
	assert.Equal(t, models.OutcomeWindowLost, got.Outcome)
	assert.Equal(t, "target window lost", got.Error)
	require.NotNil(t, got.EndedAt)
	assert.WithinDuration(t, ended, *got.EndedAt, time.Millisecond)
}

func TestSessionRepositoryFinishUnknownInserts(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t).DB)

	ended := time.Now().UTC()
	s := &models.Session{
		ID:        "late",
		Kind:      models.SessionRecording,
		StartedAt: ended.Add(-time.Second),
		EndedAt:   &ended,
		Outcome:   models.OutcomeCompleted,
	}
	require.NoError(t, repo.Finish(s))

	got, err := repo.GetByID("late")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCompleted, got.Outcome)

	_, err = repo.GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepositoryListRecentAndRetention(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t).DB)

	now := time.Now().UTC()
	for i, age := range []time.Duration{48 * time.Hour, time.Hour, time.Minute} {
		ended := now.Add(-age).Add(time.Second)
		require.NoError(t, repo.Create(&models.Session{
			ID:        string(rune('a' + i)),
			Kind:      models.SessionPlayback,
			StartedAt: now.Add(-age),
			EndedAt:   &ended,
			Outcome:   models.OutcomeCompleted,
		}))
	}
	require.NoError(t, repo.Create(&models.Session{
		ID:        "running",
		Kind:      models.SessionBackgroundClicker,
		StartedAt: now.Add(-72 * time.Hour),
		Outcome:   models.OutcomeRunning,
	}))

	list, err := repo.ListRecent(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	deleted, err := repo.DeleteOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	marked, err := repo.MarkInterrupted(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	got, err := repo.GetByID("running")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFailed, got.Outcome)
	assert.NotNil(t, got.EndedAt)

	list, err = repo.ListRecent(10)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
