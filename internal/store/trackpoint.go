package store

import (
	"database/sql"
	"time"
)

// TrackPoint records the tracked region for one frame of a selection.
type TrackPoint struct {
	ID          int64
	SelectionID string
	FrameIndex  int
	CX          float64
	CY          float64
	Width       float64
	Height      float64
	Angle       float64
	RecordedAt  time.Time
}

// TrackPointRepository provides operations on recorded track points.
type TrackPointRepository struct {
	db *sql.DB
}

// TrackPoints returns the track point repository for this store.
func (s *Store) TrackPoints() *TrackPointRepository {
	return &TrackPointRepository{db: s.db}
}

// Add appends a track point for a selection.
func (r *TrackPointRepository) Add(p *TrackPoint) error {
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO track_points (selection_id, frame_index, cx, cy, width, height, angle, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SelectionID, p.FrameIndex, p.CX, p.CY, p.Width, p.Height, p.Angle, p.RecordedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	p.ID = id
	return nil
}

// ListBySelection retrieves all track points for a selection in frame order.
func (r *TrackPointRepository) ListBySelection(selectionID string) ([]*TrackPoint, error) {
	rows, err := r.db.Query(
		`SELECT id, selection_id, frame_index, cx, cy, width, height, angle, recorded_at
		 FROM track_points WHERE selection_id = ? ORDER BY frame_index ASC`,
		selectionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []*TrackPoint
	for rows.Next() {
		p := &TrackPoint{}
		if err := rows.Scan(&p.ID, &p.SelectionID, &p.FrameIndex,
			&p.CX, &p.CY, &p.Width, &p.Height, &p.Angle, &p.RecordedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return points, nil
}

// CountBySelection returns the number of track points for a selection.
func (r *TrackPointRepository) CountBySelection(selectionID string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM track_points WHERE selection_id = ?`,
		selectionID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
