package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Binding maps one detector event to one action.
type Binding struct {
	ID           string
	TriggerType  string
	TriggerEvent string
	ActionID     string
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// Create inserts a new binding. An empty ID is replaced with a fresh UUID.
// Trigger fields are stored lowercased so lookups are case-insensitive.
func (r *BindingRepository) Create(b *Binding) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.TriggerType = strings.ToLower(b.TriggerType)
	b.TriggerEvent = strings.ToLower(b.TriggerEvent)

	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO bindings (id, trigger_type, trigger_event, action_id, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.TriggerType, b.TriggerEvent, b.ActionID, b.Enabled, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	b := &Binding{}
	err := r.db.QueryRow(
		`SELECT id, trigger_type, trigger_event, action_id, enabled, created_at, updated_at
		 FROM bindings WHERE id = ?`,
		id,
	).Scan(&b.ID, &b.TriggerType, &b.TriggerEvent, &b.ActionID, &b.Enabled, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return b, nil
}

// List retrieves all bindings, newest first.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(
		`SELECT id, trigger_type, trigger_event, action_id, enabled, created_at, updated_at
		 FROM bindings ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b := &Binding{}
		err := rows.Scan(&b.ID, &b.TriggerType, &b.TriggerEvent, &b.ActionID, &b.Enabled, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// ListEnabled retrieves only the bindings the engine should load.
func (r *BindingRepository) ListEnabled() ([]*Binding, error) {
	rows, err := r.db.Query(
		`SELECT id, trigger_type, trigger_event, action_id, enabled, created_at, updated_at
		 FROM bindings WHERE enabled = 1 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b := &Binding{}
		err := rows.Scan(&b.ID, &b.TriggerType, &b.TriggerEvent, &b.ActionID, &b.Enabled, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Update updates an existing binding.
func (r *BindingRepository) Update(b *Binding) error {
	b.TriggerType = strings.ToLower(b.TriggerType)
	b.TriggerEvent = strings.ToLower(b.TriggerEvent)
	b.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE bindings SET trigger_type = ?, trigger_event = ?, action_id = ?, enabled = ?, updated_at = ?
		 WHERE id = ?`,
		b.TriggerType, b.TriggerEvent, b.ActionID, b.Enabled, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a binding by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
