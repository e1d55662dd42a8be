package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamehub/automation-agent/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

type MacroRepository struct {
	db *sql.DB
}

func NewMacroRepository(db *sql.DB) *MacroRepository {
	return &MacroRepository{db: db}
}

func (r *MacroRepository) Create(req *models.SaveMacroRequest) (*models.SavedMacro, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("macro name is required")
	}

	events := req.Macro
	if events == nil {
		events = models.Macro{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("failed to encode macro: %w", err)
	}

	now := time.Now().UTC()
	saved := &models.SavedMacro{
		ID:         uuid.NewString(),
		Name:       name,
		Events:     events.Clone(),
		EventCount: len(events),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query := `
		INSERT INTO macros (id, name, events, event_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, saved.ID, saved.Name, string(data), saved.EventCount, saved.CreatedAt, saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create macro: %w", err)
	}

	return saved, nil
}

func (r *MacroRepository) GetByID(id string) (*models.SavedMacro, error) {
	query := `
		SELECT id, name, events, event_count, created_at, updated_at
		FROM macros
		WHERE id = ?
	`

	saved, err := scanMacro(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("macro %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get macro: %w", err)
	}

	return saved, nil
}

// List returns saved macros, most recently updated first
func (r *MacroRepository) List() ([]*models.SavedMacro, error) {
	query := `
		SELECT id, name, events, event_count, created_at, updated_at
		FROM macros
		ORDER BY updated_at DESC, name ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query macros: %w", err)
	}
	defer rows.Close()

	macros := []*models.SavedMacro{}
	for rows.Next() {
		saved, err := scanMacro(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan macro: %w", err)
		}
		macros = append(macros, saved)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return macros, nil
}

func (r *MacroRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM macros WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete macro: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("macro %s: %w", id, ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMacro(row rowScanner) (*models.SavedMacro, error) {
	var saved models.SavedMacro
	var events string
	err := row.Scan(
		&saved.ID,
		&saved.Name,
		&events,
		&saved.EventCount,
		&saved.CreatedAt,
		&saved.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(events), &saved.Events); err != nil {
		return nil, fmt.Errorf("stored macro %s is corrupt: %w", saved.ID, err)
	}
	if saved.Events == nil {
		saved.Events = models.Macro{}
	}

	return &saved, nil
}
