package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/domain/vo"
	"github.com/vertextoedge/plots-begone/internal/port"
	"github.com/vertextoedge/plots-begone/internal/service/keeper"
)

// StatusHandler serves the keeper snapshot and the deletion journal
type StatusHandler struct {
	snapshots SnapshotSource
	journal   port.Journal
	limit     int
	logger    *zap.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(snapshots SnapshotSource, journal port.Journal, limit int, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		snapshots: snapshots,
		journal:   journal,
		limit:     limit,
		logger:    logger,
	}
}

type statusResponse struct {
	*keeper.Snapshot
	Required string `json:"required"`
}

// HandleStatus returns the latest snapshot of the index, pool and spent set
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := h.snapshots.Snapshot()
	if snap == nil {
		http.Error(w, "Index not built yet", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, statusResponse{Snapshot: snap, Required: vo.HumanBytes(snap.RequiredBytes)})
}

type reclaimEntry struct {
	*port.ReclaimRecord
	Freed string `json:"freed"`
}

type historyResponse struct {
	Reclaims  []reclaimEntry         `json:"reclaims"`
	Rotations []*port.RotationRecord `json:"rotations"`
}

// HandleHistory returns the most recent journaled deletions and rotations.
// An optional ?limit= caps both lists.
func (h *StatusHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.journal == nil {
		http.Error(w, "Journal disabled", http.StatusNotFound)
		return
	}

	limit := h.limit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	reclaims, err := h.journal.RecentReclaims(limit)
	if err != nil {
		h.logger.Error("failed to read reclaim history", zap.Error(err))
		http.Error(w, "Failed to read history", http.StatusInternalServerError)
		return
	}

	rotations, err := h.journal.RecentRotations(limit)
	if err != nil {
		h.logger.Error("failed to read rotation history", zap.Error(err))
		http.Error(w, "Failed to read history", http.StatusInternalServerError)
		return
	}

	resp := historyResponse{
		Reclaims:  make([]reclaimEntry, 0, len(reclaims)),
		Rotations: rotations,
	}
	if resp.Rotations == nil {
		resp.Rotations = []*port.RotationRecord{}
	}
	for _, rec := range reclaims {
		resp.Reclaims = append(resp.Reclaims, reclaimEntry{ReclaimRecord: rec, Freed: vo.HumanBytes(rec.Size)})
	}

	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
