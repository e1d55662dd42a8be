package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gamehub/automation-agent/internal/models"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session as it starts
func (r *SessionRepository) Create(s *models.Session) error {
	query := `
		INSERT INTO sessions (id, kind, background, hwnd, loop, interval_ms, events, started_at, ended_at, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		s.ID,
		string(s.Kind),
		s.Background,
		int64(s.Hwnd),
		s.Loop,
		s.IntervalMs,
		s.Events,
		s.StartedAt.UTC(),
		nullTime(s.EndedAt),
		string(s.Outcome),
		s.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Finish records how a session ended. A session never seen by Create is
// inserted whole.
func (r *SessionRepository) Finish(s *models.Session) error {
	result, err := r.db.Exec(`
		UPDATE sessions
		SET events = ?, ended_at = ?, outcome = ?, error = ?
		WHERE id = ?
	`, s.Events, nullTime(s.EndedAt), string(s.Outcome), s.Error, s.ID)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return r.Create(s)
	}
	return nil
}

func (r *SessionRepository) GetByID(id string) (*models.Session, error) {
	query := `
		SELECT id, kind, background, hwnd, loop, interval_ms, events, started_at, ended_at, outcome, error
		FROM sessions
		WHERE id = ?
	`

	s, err := scanSession(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListRecent returns up to limit sessions, newest first
func (r *SessionRepository) ListRecent(limit int) ([]*models.Session, error) {
	query := `
		SELECT id, kind, background, hwnd, loop, interval_ms, events, started_at, ended_at, outcome, error
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sessions, nil
}

// MarkInterrupted closes sessions left running by a previous process
func (r *SessionRepository) MarkInterrupted(now time.Time) (int64, error) {
	result, err := r.db.Exec(`
		UPDATE sessions
		SET outcome = ?, error = ?, ended_at = ?
		WHERE outcome = ?
	`, string(models.OutcomeFailed), "interrupted by agent restart", now.UTC(), string(models.OutcomeRunning))
	if err != nil {
		return 0, fmt.Errorf("failed to mark interrupted sessions: %w", err)
	}
	return result.RowsAffected()
}

// DeleteOlderThan removes finished sessions that started before now-olderThan
func (r *SessionRepository) DeleteOlderThan(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	result, err := r.db.Exec(`
		DELETE FROM sessions
		WHERE started_at < ? AND outcome != ?
	`, cutoff, string(models.OutcomeRunning))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return result.RowsAffected()
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	var kind, outcome string
	var hwnd int64
	var endedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&kind,
		&s.Background,
		&hwnd,
		&s.Loop,
		&s.IntervalMs,
		&s.Events,
		&s.StartedAt,
		&endedAt,
		&outcome,
		&s.Error,
	)
	if err != nil {
		return nil, err
	}

	s.Kind = models.SessionKind(kind)
	s.Outcome = models.SessionOutcome(outcome)
	s.Hwnd = models.WindowHandle(hwnd)
	if endedAt.Valid {
		ended := endedAt.Time
		s.EndedAt = &ended
	}
	return &s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
