package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Bindings table - maps detector events to actions
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			trigger_type TEXT NOT NULL CHECK(trigger_type IN ('voice', 'face', 'hand')),
			trigger_event TEXT NOT NULL,
			action_id TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(trigger_type, trigger_event)
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Events table - recent dispatch history for the UI
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			modality TEXT NOT NULL,
			event TEXT NOT NULL,
			action_id TEXT NOT NULL,
			occurred_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bindings_trigger ON bindings(trigger_type, trigger_event)`,
		`CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events(occurred_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
