package port

import (
	"time"
)

// ReclaimRecord is one journaled deletion
type ReclaimRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Directory string    `json:"directory"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	PlotTime  time.Time `json:"plot_time"`
	DeletedAt time.Time `json:"deleted_at"`
}

// RotationRecord is one journaled index rotation
type RotationRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Demoted   string    `json:"demoted"`
	Promoted  string    `json:"promoted"`
	RotatedAt time.Time `json:"rotated_at"`
}

// Journal is an append-only audit trail of what the keeper deleted and rotated.
// It is never read back to rebuild the index.
type Journal interface {
	RecordReclaim(rec *ReclaimRecord) error
	RecordRotation(rec *RotationRecord) error
	RecentReclaims(limit int) ([]*ReclaimRecord, error)
	RecentRotations(limit int) ([]*RotationRecord, error)
	Ping() error
	Close() error
}
