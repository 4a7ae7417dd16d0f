package keeper

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/domain"
)

// Select builds the initial State from the scanned directories.
//
// Directories without old plots have nothing to reclaim and go straight to
// the spent set. The rest are shuffled with rng: the first reserve become the
// index and the remainder form the candidate pool in shuffled order.
func Select(dirs []*domain.Directory, reserve int, rng *rand.Rand, logger *zap.Logger) (*State, error) {
	if reserve <= 0 {
		return nil, domain.NewConfigError("required_drives", domain.ErrInvalidReserve)
	}

	state := NewState(reserve)

	var eligible []*domain.Directory
	for _, d := range dirs {
		if d.HasOldPlots() {
			eligible = append(eligible, d)
			continue
		}
		if err := state.addSpent(d); err != nil {
			return nil, err
		}
		logger.Info("plot dir has no old plots, leaving it alone",
			zap.String("directory", d.Path),
			zap.Int("new_plots", d.NewPlots))
	}

	if len(eligible) < reserve {
		logger.Warn("fewer plot dirs with old plots than required drives, indexing all of them",
			zap.Int("required_drives", reserve),
			zap.Int("eligible", len(eligible)))
	}

	rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	for i, d := range eligible {
		var err error
		if i < reserve {
			err = state.addIndexed(d)
		} else {
			err = state.addCandidate(d)
		}
		if err != nil {
			return nil, err
		}
	}

	return state, nil
}
