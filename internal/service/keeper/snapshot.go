package keeper

import (
	"time"

	"github.com/vertextoedge/plots-begone/internal/domain"
)

// DirectoryStatus is a read-only view of one managed directory
type DirectoryStatus struct {
	Path       string `json:"path"`
	Role       string `json:"role"`
	Capacity   int64  `json:"capacity_bytes"`
	Free       int64  `json:"free_bytes"`
	OldPlots   int    `json:"old_plots"`
	OldBytes   int64  `json:"old_plot_bytes"`
	NewPlots   int    `json:"new_plots"`
	OtherFiles int    `json:"other_files"`
}

// Snapshot is an immutable copy of the keeper state, safe to share
// with other goroutines
type Snapshot struct {
	RunID           string            `json:"run_id"`
	Reserve         int               `json:"required_drives"`
	RequiredBytes   int64             `json:"required_bytes"`
	Indexed         []DirectoryStatus `json:"indexed"`
	Candidates      []DirectoryStatus `json:"candidates"`
	Spent           []DirectoryStatus `json:"spent"`
	EventsProcessed uint64            `json:"events_processed"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func newSnapshot(runID string, state *State, required int64, processed uint64) *Snapshot {
	return &Snapshot{
		RunID:           runID,
		Reserve:         state.Reserve(),
		RequiredBytes:   required,
		Indexed:         statuses(state.Index(), RoleIndexed),
		Candidates:      statuses(state.Candidates(), RoleCandidate),
		Spent:           statuses(state.Spent(), RoleSpent),
		EventsProcessed: processed,
		UpdatedAt:       time.Now(),
	}
}

func statuses(dirs []*domain.Directory, role Role) []DirectoryStatus {
	out := make([]DirectoryStatus, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, DirectoryStatus{
			Path:       d.Path,
			Role:       role.String(),
			Capacity:   d.Capacity,
			Free:       d.Free,
			OldPlots:   d.OldPlotCount(),
			OldBytes:   d.OldPlotBytes(),
			NewPlots:   d.NewPlots,
			OtherFiles: d.OtherFiles,
		})
	}
	return out
}
