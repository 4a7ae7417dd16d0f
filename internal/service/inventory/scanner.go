package inventory

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/domain"
	"github.com/vertextoedge/plots-begone/internal/port"
)

// Config holds inventory configuration
type Config struct {
	Extension      string    // Plot file extension, e.g. ".plot"
	Cutoff         time.Time // Plots created before this are old
	RequireMount   bool      // Skip roots that are not mount points
	MaxConcurrency int       // Directories scanned in parallel
}

// DefaultConfig returns default inventory configuration
func DefaultConfig() *Config {
	return &Config{
		Extension:      ".plot",
		RequireMount:   true,
		MaxConcurrency: 4,
	}
}

// ScanResult holds the result of scanning every root
type ScanResult struct {
	Directories []*domain.Directory
	OldPlots    int
	NewPlots    int
	Unreadable  int
	Duration    time.Duration
}

// Scanner builds directory records from the filesystem
type Scanner struct {
	config *Config
	fs     port.FileSystem
	logger *zap.Logger
	sem    chan struct{}

	unreadable atomic.Int64
}

// New creates a new Scanner
func New(cfg *Config, fs port.FileSystem, logger *zap.Logger) *Scanner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.Extension == "" {
		cfg.Extension = ".plot"
	}

	return &Scanner{
		config: cfg,
		fs:     fs,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrency),
	}
}

// Classify tags a file by extension and creation time
func (s *Scanner) Classify(path string, createdAt time.Time) domain.Classification {
	if !s.IsPlot(path) {
		return domain.ClassOther
	}
	if createdAt.Before(s.config.Cutoff) {
		return domain.ClassOld
	}
	return domain.ClassNew
}

// IsPlot reports whether path carries the plot extension
func (s *Scanner) IsPlot(path string) bool {
	return strings.HasSuffix(filepath.Base(path), s.config.Extension)
}

// ExpandRoots resolves the configured roots into plot directories.
// A root ending in "*" expands to every child directory of its parent.
// Invalid roots are logged and skipped; duplicates are dropped.
func (s *Scanner) ExpandRoots(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string

	add := func(dir string) {
		dir = filepath.Clean(dir)
		if seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	for _, root := range roots {
		if filepath.Base(root) != "*" {
			if err := s.validate(root, s.config.RequireMount); err != nil {
				s.logger.Warn("skipping plot directory", zap.String("path", root), zap.Error(err))
				continue
			}
			add(root)
			continue
		}

		parent := filepath.Dir(root)
		if err := s.validate(parent, false); err != nil {
			s.logger.Warn("skipping plot directory glob", zap.String("path", root), zap.Error(err))
			continue
		}

		children, err := s.fs.ListSubdirs(parent)
		if err != nil {
			s.logger.Warn("skipping plot directory glob", zap.String("path", root), zap.Error(err))
			continue
		}
		for _, child := range children {
			if err := s.validate(child, s.config.RequireMount); err != nil {
				s.logger.Debug("skipping child directory", zap.String("path", child), zap.Error(err))
				continue
			}
			add(child)
		}
	}

	if len(dirs) == 0 {
		return nil, domain.NewConfigError("directories", domain.ErrNoDirectories)
	}
	return dirs, nil
}

func (s *Scanner) validate(dir string, checkMount bool) error {
	if !s.fs.IsDir(dir) {
		return domain.ErrDirectoryUnusable
	}
	if !checkMount {
		return nil
	}
	mounted, err := s.fs.IsMountPoint(dir)
	if err != nil {
		return err
	}
	if !mounted {
		return domain.ErrNotMounted
	}
	return nil
}

// ScanAll scans every directory, preserving the input order in the result
func (s *Scanner) ScanAll(ctx context.Context, dirs []string) (*ScanResult, error) {
	start := time.Now()
	s.unreadable.Store(0)

	s.logger.Info("starting inventory scan",
		zap.Int("directories", len(dirs)),
		zap.String("extension", s.config.Extension),
		zap.Time("cutoff", s.config.Cutoff))

	records := make([]*domain.Directory, len(dirs))
	var wg sync.WaitGroup

	for i, dir := range dirs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case s.sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, dir string) {
			defer wg.Done()
			defer func() { <-s.sem }()
			records[i] = s.Scan(dir)
		}(i, dir)
	}
	wg.Wait()

	result := &ScanResult{
		Directories: records,
		Unreadable:  int(s.unreadable.Load()),
	}
	for _, d := range records {
		result.OldPlots += d.OldPlotCount()
		result.NewPlots += d.NewPlots
	}
	result.Duration = time.Since(start)

	s.logger.Info("inventory scan completed",
		zap.Duration("duration", result.Duration),
		zap.Int("directories", len(records)),
		zap.Int("old_plots", result.OldPlots),
		zap.Int("new_plots", result.NewPlots),
		zap.Int("unreadable", result.Unreadable))

	return result, nil
}

// Scan builds the record for one directory.
// An unreadable directory is reported empty with zero capacity.
func (s *Scanner) Scan(dir string) *domain.Directory {
	usage, err := s.fs.GetDiskUsage(dir)
	if err != nil {
		s.unreadable.Add(1)
		s.logger.Warn("directory unreadable, treating as empty",
			zap.String("directory", dir),
			zap.Error(domain.NewTransientError(dir, err)))
		return domain.NewDirectory(dir, 0, 0, nil)
	}

	files, err := s.fs.ListFiles(dir)
	if err != nil {
		s.unreadable.Add(1)
		s.logger.Warn("directory unreadable, treating as empty",
			zap.String("directory", dir),
			zap.Error(domain.NewTransientError(dir, err)))
		return domain.NewDirectory(dir, 0, 0, nil)
	}

	var old []domain.PlotFile
	record := domain.NewDirectory(dir, int64(usage.Total), int64(usage.Free), nil)
	for _, f := range files {
		class := s.Classify(f.Path, f.CreatedAt)
		switch class {
		case domain.ClassOld:
			old = append(old, domain.PlotFile{Path: f.Path, Size: f.Size, CreatedAt: f.CreatedAt, Class: class})
		case domain.ClassNew:
			record.RecordNewPlot(f.Size)
		default:
			record.OtherFiles++
		}
	}
	record.OldPlots = old
	record.SortOldPlots()

	s.logger.Debug("directory scanned",
		zap.String("directory", dir),
		zap.Int64("free", record.Free),
		zap.Int64("capacity", record.Capacity),
		zap.Int("old_plots", record.OldPlotCount()),
		zap.Int("new_plots", record.NewPlots))

	return record
}
