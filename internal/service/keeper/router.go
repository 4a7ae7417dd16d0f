package keeper

import (
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/domain"
	"github.com/vertextoedge/plots-begone/internal/domain/event"
	"github.com/vertextoedge/plots-begone/internal/port"
)

// Classifier tags files as old plots, new plots or anything else
type Classifier interface {
	IsPlot(path string) bool
	Classify(path string, createdAt time.Time) domain.Classification
}

const (
	reasonNotIndexed = "not indexed"
	reasonUnmanaged  = "unmanaged directory"
)

// Router turns file events into reclaim passes on indexed directories
type Router struct {
	state      *State
	classifier Classifier
	fs         port.FileSystem
	reclaimer  *Reclaimer
	rotator    *Rotator
	estimator  *SizeEstimator
	events     event.EventDispatcher
	logger     *zap.Logger

	seen map[string]struct{}
	now  func() time.Time
}

// NewRouter creates a new Router
func NewRouter(state *State, classifier Classifier, fs port.FileSystem, reclaimer *Reclaimer, rotator *Rotator,
	estimator *SizeEstimator, events event.EventDispatcher, logger *zap.Logger) *Router {
	if events == nil {
		events = event.NewNullDispatcher()
	}
	return &Router{
		state:      state,
		classifier: classifier,
		fs:         fs,
		reclaimer:  reclaimer,
		rotator:    rotator,
		estimator:  estimator,
		events:     events,
		logger:     logger,
		seen:       make(map[string]struct{}),
		now:        time.Now,
	}
}

// Handle processes one file event. Only new plots in indexed directories
// trigger a reclaim; everything else is logged and dropped.
func (r *Router) Handle(ev port.FileEvent) {
	if !r.classifier.IsPlot(ev.Path) {
		return
	}

	dir := ev.Dir
	if dir == "" {
		dir = filepath.Dir(ev.Path)
	}
	dir = filepath.Clean(dir)

	// A plot that vanished before it could be stat'ed still counts as new.
	created := r.now()
	var size int64
	if info, err := r.fs.StatFile(ev.Path); err == nil {
		created = info.CreatedAt
		size = info.Size
	} else {
		r.logger.Debug("failed to stat created plot", zap.String("path", ev.Path), zap.Error(err))
	}

	if class := r.classifier.Classify(ev.Path, created); class != domain.ClassNew {
		r.logger.Debug("ignoring non-new plot", zap.String("path", ev.Path), zap.String("class", class.String()))
		return
	}

	d, ok := r.state.Directory(dir)
	if !ok {
		r.events.Dispatch(event.NewEventIgnored(dir, ev.Path, reasonUnmanaged))
		return
	}
	if !r.state.IsIndexed(dir) {
		r.events.Dispatch(event.NewEventIgnored(dir, ev.Path, reasonNotIndexed))
		return
	}

	if _, dup := r.seen[ev.Path]; !dup {
		r.seen[ev.Path] = struct{}{}
		d.RecordNewPlot(size)
		r.estimator.Observe(size)
		r.events.Dispatch(event.NewNewPlotDetected(dir, ev.Path, size))
	}

	r.reclaimer.EnsureSpace(d, r.estimator.Required())
	r.rotator.Check(d)
}

// Recheck runs a reclaim pass and a rotation check over every indexed directory
func (r *Router) Recheck() {
	for _, d := range r.state.Index() {
		r.reclaimer.EnsureSpace(d, r.estimator.Required())
		r.rotator.Check(d)
	}
}
