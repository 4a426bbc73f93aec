package store

import (
	"database/sql"
	"errors"
	"image"
	"time"
)

// Selection represents an accepted region selection within a session.
type Selection struct {
	ID        string
	SessionID string
	Box       image.Rectangle
	CreatedAt time.Time
}

// SelectionRepository provides operations on recorded selections.
type SelectionRepository struct {
	db *sql.DB
}

// Selections returns the selection repository for this store.
func (s *Store) Selections() *SelectionRepository {
	return &SelectionRepository{db: s.db}
}

// Create inserts a new selection into the database.
func (r *SelectionRepository) Create(sel *Selection) error {
	if sel.CreatedAt.IsZero() {
		sel.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO selections (id, session_id, x0, y0, x1, y1, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sel.ID, sel.SessionID,
		sel.Box.Min.X, sel.Box.Min.Y, sel.Box.Max.X, sel.Box.Max.Y,
		sel.CreatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a selection by its ID.
func (r *SelectionRepository) GetByID(id string) (*Selection, error) {
	sel := &Selection{}
	var x0, y0, x1, y1 int

	err := r.db.QueryRow(
		`SELECT id, session_id, x0, y0, x1, y1, created_at
		 FROM selections WHERE id = ?`,
		id,
	).Scan(&sel.ID, &sel.SessionID, &x0, &y0, &x1, &y1, &sel.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sel.Box = image.Rect(x0, y0, x1, y1)
	return sel, nil
}

// ListBySession retrieves all selections for a session in creation order.
func (r *SelectionRepository) ListBySession(sessionID string) ([]*Selection, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, x0, y0, x1, y1, created_at
		 FROM selections WHERE session_id = ? ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var selections []*Selection
	for rows.Next() {
		sel := &Selection{}
		var x0, y0, x1, y1 int

		if err := rows.Scan(&sel.ID, &sel.SessionID, &x0, &y0, &x1, &y1, &sel.CreatedAt); err != nil {
			return nil, err
		}

		sel.Box = image.Rect(x0, y0, x1, y1)
		selections = append(selections, sel)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return selections, nil
}
