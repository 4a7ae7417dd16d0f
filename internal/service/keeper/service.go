package keeper

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/domain"
	"github.com/vertextoedge/plots-begone/internal/domain/event"
	"github.com/vertextoedge/plots-begone/internal/domain/vo"
	"github.com/vertextoedge/plots-begone/internal/port"
	"github.com/vertextoedge/plots-begone/internal/service/inventory"
	"github.com/vertextoedge/plots-begone/internal/util/ratelimiter"
)

// Config contains keeper configuration
type Config struct {
	// Reserve is the number of directories kept open for new plots
	Reserve int

	// NewPlotSize is the expected size of a new plot in bytes; 0 means estimate
	NewPlotSize int64

	// EventBuffer is the capacity of the channel between watcher and keeper
	EventBuffer int

	// RecheckInterval re-runs the reclaim pass over the index; 0 disables it
	RecheckInterval time.Duration

	// StatusLogInterval is the minimum gap between two index status log lines
	StatusLogInterval time.Duration

	// Seed drives the index selection; 0 picks a random seed
	Seed uint64

	// RunID tags this process in snapshots and the journal
	RunID string
}

// DefaultConfig returns default keeper configuration
func DefaultConfig() *Config {
	return &Config{
		Reserve:           1,
		EventBuffer:       1024,
		StatusLogInterval: 15 * time.Minute,
	}
}

// Inventory scans plot directories and classifies files
type Inventory interface {
	Classifier
	ExpandRoots(roots []string) ([]string, error)
	ScanAll(ctx context.Context, dirs []string) (*inventory.ScanResult, error)
}

// Service keeps a fixed number of plot directories ready for new plots.
// All state changes happen on the goroutine running Bootstrap and Run.
type Service struct {
	config    *Config
	inventory Inventory
	fs        port.FileSystem
	watcher   port.Watcher
	events    event.EventDispatcher
	logger    *zap.Logger
	rng       *rand.Rand

	state     *State
	estimator *SizeEstimator
	reclaimer *Reclaimer
	rotator   *Rotator
	router    *Router

	processed uint64
	snapshot  atomic.Pointer[Snapshot]
	statusLog *ratelimiter.Limiter

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates a new keeper Service
func New(cfg *Config, inv Inventory, fs port.FileSystem, watcher port.Watcher, events event.EventDispatcher, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 1024
	}
	if cfg.StatusLogInterval <= 0 {
		cfg.StatusLogInterval = 15 * time.Minute
	}
	if events == nil {
		events = event.NewNullDispatcher()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Service{
		config:    cfg,
		inventory: inv,
		fs:        fs,
		watcher:   watcher,
		events:    events,
		logger:    logger,
		rng:       rand.New(rand.NewPCG(seed, seed>>1|1)),
		estimator: NewSizeEstimator(cfg.NewPlotSize),
		statusLog: ratelimiter.New(cfg.StatusLogInterval),
	}
}

// Bootstrap scans the roots, picks the index, subscribes to file events and
// runs the startup reclaim pass over every indexed directory.
func (s *Service) Bootstrap(ctx context.Context, roots []string) error {
	if s.config.Reserve <= 0 {
		return domain.NewConfigError("required_drives", domain.ErrInvalidReserve)
	}

	dirs, err := s.inventory.ExpandRoots(roots)
	if err != nil {
		return err
	}

	scan, err := s.inventory.ScanAll(ctx, dirs)
	if err != nil {
		return fmt.Errorf("failed to scan plot directories: %w", err)
	}

	for _, d := range scan.Directories {
		s.estimator.Observe(d.LargestNewPlot)
	}
	if s.estimator.Required() <= 0 {
		return domain.NewConfigError("new_plot_size", domain.ErrUnknownNewPlotSize)
	}
	s.logger.Info("new plot size",
		zap.String("size", vo.HumanBytes(s.estimator.Required())),
		zap.Bool("configured", s.estimator.Configured()))

	state, err := Select(scan.Directories, s.config.Reserve, s.rng, s.logger)
	if err != nil {
		return err
	}

	s.state = state
	s.reclaimer = NewReclaimer(s.fs, s.events, s.logger)
	s.rotator = NewRotator(state, s.reclaimer, s.estimator, s.events, s.logger)
	s.router = NewRouter(state, s.inventory, s.fs, s.reclaimer, s.rotator, s.estimator, s.events, s.logger)

	if s.watcher != nil {
		var watched []string
		for _, d := range state.Index() {
			watched = append(watched, d.Path)
		}
		for _, d := range state.Candidates() {
			watched = append(watched, d.Path)
		}
		// Spent directories are watched only so their new plots get an ignored record.
		for _, d := range state.Spent() {
			watched = append(watched, d.Path)
		}
		for _, err := range s.watcher.Watch(watched) {
			s.logger.Warn("plot dir will not be monitored", zap.Error(err))
		}
	}

	s.router.Recheck()

	indexed := make([]string, 0, state.Reserve())
	for _, d := range state.Index() {
		indexed = append(indexed, d.Path)
	}
	s.events.Dispatch(event.NewIndexBuilt(indexed, state.Membership(), s.estimator.Required(), state.Reserve()))
	s.publish()
	// IndexBuilt already reported the state; the next status line waits a full interval.
	s.statusLog.Allow()

	return nil
}

// Run consumes watcher events until ctx is cancelled or Stop is called
func (s *Service) Run(ctx context.Context) error {
	if s.state == nil {
		return errors.New("keeper not bootstrapped")
	}
	if s.watcher == nil {
		return errors.New("keeper has no watcher")
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("keeper already running")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	events := make(chan port.FileEvent, s.config.EventBuffer)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- s.watcher.Run(ctx, events)
	}()

	var recheck <-chan time.Time
	if s.config.RecheckInterval > 0 {
		ticker := time.NewTicker(s.config.RecheckInterval)
		defer ticker.Stop()
		recheck = ticker.C
	}

	s.logger.Info("keeper started",
		zap.Int("event_buffer", s.config.EventBuffer),
		zap.Duration("recheck_interval", s.config.RecheckInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("keeper stopped", zap.Uint64("events_processed", s.processed))
			return nil
		case ev := <-events:
			s.Process(ev)
		case <-recheck:
			s.router.Recheck()
			s.publish()
			s.logStatus()
		case err := <-watchErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("watcher stopped: %w", err)
			}
			s.logger.Info("watcher closed, keeper stopping")
			return nil
		}
	}
}

// Stop stops the keeper
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
}

// Process handles a single file event on the calling goroutine
func (s *Service) Process(ev port.FileEvent) {
	s.router.Handle(ev)
	s.processed++
	s.publish()
	s.logStatus()
}

// logStatus writes a summary of the index at most once per StatusLogInterval
func (s *Service) logStatus() {
	ok, suppressed := s.statusLog.Allow()
	if !ok {
		return
	}

	m := s.state.Membership()
	var free int64
	for _, d := range s.state.Index() {
		free += d.Free
	}
	s.logger.Info("index status",
		zap.Int("indexed", m.Indexed),
		zap.Int("candidates", m.Candidates),
		zap.Int("spent", m.Spent),
		zap.String("indexed_free", vo.HumanBytes(free)),
		zap.Uint64("events_processed", s.processed),
		zap.Int("updates_since_last_status", suppressed+1))
}

// State returns the live state. Only safe on the keeper goroutine.
func (s *Service) State() *State {
	return s.state
}

// Snapshot returns the latest published snapshot, or nil before Bootstrap
func (s *Service) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *Service) publish() {
	s.snapshot.Store(newSnapshot(s.config.RunID, s.state, s.estimator.Required(), s.processed))
}
