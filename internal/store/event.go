package store

import (
	"database/sql"
	"time"
)

// DispatchRecord is one row of the dispatch history.
type DispatchRecord struct {
	ID         int64
	Modality   string
	Event      string
	ActionID   string
	OccurredAt time.Time
}

// EventRepository records dispatched actions so the UI can show a recent
// activity feed.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record appends one dispatch to the history.
func (r *EventRepository) Record(modality, event, actionID string) error {
	_, err := r.db.Exec(
		`INSERT INTO events (modality, event, action_id) VALUES (?, ?, ?)`,
		modality, event, actionID,
	)
	return err
}

// Recent returns the newest records, at most limit of them.
func (r *EventRepository) Recent(limit int) ([]*DispatchRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, modality, event, action_id, occurred_at
		 FROM events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*DispatchRecord
	for rows.Next() {
		rec := &DispatchRecord{}
		err := rows.Scan(&rec.ID, &rec.Modality, &rec.Event, &rec.ActionID, &rec.OccurredAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Prune deletes all but the newest keep records. The history is append-only
// otherwise, so this bounds the table size.
func (r *EventRepository) Prune(keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := r.db.Exec(
		`DELETE FROM events WHERE id NOT IN (
			SELECT id FROM events ORDER BY id DESC LIMIT ?
		)`,
		keep,
	)
	return err
}
