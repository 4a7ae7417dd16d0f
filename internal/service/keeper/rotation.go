package keeper

import (
	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/domain"
	"github.com/vertextoedge/plots-begone/internal/domain/event"
)

// Rotator replaces indexed directories that ran out of old plots
type Rotator struct {
	state     *State
	reclaimer *Reclaimer
	estimator *SizeEstimator
	events    event.EventDispatcher
	logger    *zap.Logger
}

// NewRotator creates a new Rotator
func NewRotator(state *State, reclaimer *Reclaimer, estimator *SizeEstimator, events event.EventDispatcher, logger *zap.Logger) *Rotator {
	if events == nil {
		events = event.NewNullDispatcher()
	}
	return &Rotator{
		state:     state,
		reclaimer: reclaimer,
		estimator: estimator,
		events:    events,
		logger:    logger,
	}
}

// Check demotes d when it is indexed and has no old plots left, then
// promotes the front of the candidate pool in its place. The candidate is
// reclaimed before it joins the index and is promoted whatever the outcome;
// if that drained it, its own next Check demotes it. With an empty pool the
// index shrinks.
//
// Returns true when d was demoted.
func (r *Rotator) Check(d *domain.Directory) bool {
	if !r.state.IsIndexed(d.Path) || d.HasOldPlots() {
		return false
	}

	r.state.demote(d.Path)

	var promoted string
	if c, ok := r.state.popCandidate(); ok {
		res := r.reclaimer.EnsureSpace(c, r.estimator.Required())
		if err := r.state.promote(c); err != nil {
			// Only reachable if the index is already full, which demote rules out.
			r.logger.Error("failed to promote plot dir", zap.String("directory", c.Path), zap.Error(err))
			r.state.retire(c)
		} else {
			promoted = c.Path
			if !c.HasOldPlots() {
				r.logger.Info("promoted plot dir has no old plots left",
					zap.String("directory", c.Path),
					zap.String("outcome", res.Outcome.String()))
			}
		}
	}

	r.events.Dispatch(event.NewDirectoryRotated(d.Path, promoted, r.state.Membership()))
	return true
}
