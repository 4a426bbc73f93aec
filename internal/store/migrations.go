package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per tracker run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		)`,

		// Selections table - one row per accepted region selection
		`CREATE TABLE IF NOT EXISTS selections (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			x0 INTEGER NOT NULL,
			y0 INTEGER NOT NULL,
			x1 INTEGER NOT NULL,
			y1 INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Track points table - one row per tracked frame
		`CREATE TABLE IF NOT EXISTS track_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			selection_id TEXT NOT NULL REFERENCES selections(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL,
			cx REAL NOT NULL,
			cy REAL NOT NULL,
			width REAL NOT NULL,
			height REAL NOT NULL,
			angle REAL NOT NULL,
			recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_selections_session_id ON selections(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_track_points_selection_id ON track_points(selection_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
