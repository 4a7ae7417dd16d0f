package sqlite

import (
	"database/sql"
	"time"

	"github.com/vertextoedge/plots-begone/internal/port"
)

// RecordReclaim appends a deleted plot to the journal
func (s *Store) RecordReclaim(rec *port.ReclaimRecord) error {
	query := `
		INSERT INTO reclamations (run_id, directory, path, size, plot_time, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if rec.DeletedAt.IsZero() {
		rec.DeletedAt = time.Now()
	}

	result, err := s.db.Exec(query,
		rec.RunID, rec.Directory, rec.Path, rec.Size, nullTime(rec.PlotTime), rec.DeletedAt.UTC(),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// RecordRotation appends an index rotation to the journal
func (s *Store) RecordRotation(rec *port.RotationRecord) error {
	query := `
		INSERT INTO rotations (run_id, demoted, promoted, rotated_at)
		VALUES (?, ?, ?, ?)
	`

	if rec.RotatedAt.IsZero() {
		rec.RotatedAt = time.Now()
	}

	result, err := s.db.Exec(query, rec.RunID, rec.Demoted, rec.Promoted, rec.RotatedAt.UTC())
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// RecentReclaims returns the latest deletions, newest first
func (s *Store) RecentReclaims(limit int) ([]*port.ReclaimRecord, error) {
	query := `
		SELECT id, run_id, directory, path, size, plot_time, deleted_at
		FROM reclamations
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*port.ReclaimRecord
	for rows.Next() {
		rec := &port.ReclaimRecord{}
		var plotTime sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Directory, &rec.Path, &rec.Size, &plotTime, &rec.DeletedAt); err != nil {
			return nil, err
		}
		if plotTime.Valid {
			rec.PlotTime = plotTime.Time
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// RecentRotations returns the latest rotations, newest first
func (s *Store) RecentRotations(limit int) ([]*port.RotationRecord, error) {
	query := `
		SELECT id, run_id, demoted, promoted, rotated_at
		FROM rotations
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*port.RotationRecord
	for rows.Next() {
		rec := &port.RotationRecord{}
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Demoted, &rec.Promoted, &rec.RotatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ReclaimedTotals returns how many plots and bytes the journal recorded as deleted
func (s *Store) ReclaimedTotals() (count int64, bytes int64, err error) {
	var total sql.NullInt64
	err = s.db.QueryRow("SELECT COUNT(*), SUM(size) FROM reclamations").Scan(&count, &total)
	return count, total.Int64, err
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
