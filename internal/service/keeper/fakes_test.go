package keeper

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vertextoedge/plots-begone/internal/domain"
	"github.com/vertextoedge/plots-begone/internal/domain/event"
	"github.com/vertextoedge/plots-begone/internal/port"
	"github.com/vertextoedge/plots-begone/internal/service/inventory"
)

const gib = int64(1 << 30)

var (
	cutoff  = time.Date(2023, 5, 5, 0, 0, 0, 0, time.UTC)
	oldTime = cutoff.Add(-30 * 24 * time.Hour)
	newTime = cutoff.Add(24 * time.Hour)
)

type fakeVolume struct {
	total int64
	free  int64
	files map[string]port.FileInfo
}

// fakeFS is an in-memory port.FileSystem where each directory is its own volume
type fakeFS struct {
	mu        sync.Mutex
	vols      map[string]*fakeVolume
	deleteErr map[string]error
	attempts  map[string]int
	deleted   []string
}

var _ port.FileSystem = (*fakeFS)(nil)

func newFakeFS() *fakeFS {
	return &fakeFS{
		vols:      make(map[string]*fakeVolume),
		deleteErr: make(map[string]error),
		attempts:  make(map[string]int),
	}
}

func (f *fakeFS) addDir(dir string, total, free int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vols[dir] = &fakeVolume{total: total, free: free, files: make(map[string]port.FileInfo)}
}

// addFile writes a file, consuming free space on its volume
func (f *fakeFS) addFile(path string, size int64, created time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vols[filepath.Dir(path)]
	v.files[path] = port.FileInfo{Path: path, Size: size, CreatedAt: created}
	v.free -= size
}

// removeExternally deletes a file behind the keeper's back
func (f *fakeFS) removeExternally(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.vols[filepath.Dir(path)]
	v.free += v.files[path].Size
	delete(v.files, path)
}

func (f *fakeFS) free(dir string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vols[dir].free
}

func (f *fakeFS) exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vols[filepath.Dir(path)]
	if !ok {
		return false
	}
	_, ok = v.files[path]
	return ok
}

func (f *fakeFS) deletedFiles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeFS) GetDiskUsage(dir string) (*port.DiskUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vols[dir]
	if !ok {
		return nil, fmt.Errorf("statfs %s: %w", dir, fs.ErrNotExist)
	}
	return &port.DiskUsage{
		Total: uint64(v.total),
		Used:  uint64(v.total - v.free),
		Free:  uint64(v.free),
	}, nil
}

func (f *fakeFS) ListFiles(dir string) ([]port.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vols[dir]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", dir, fs.ErrNotExist)
	}
	out := make([]port.FileInfo, 0, len(v.files))
	for _, fi := range v.files {
		out = append(out, fi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (f *fakeFS) StatFile(path string) (*port.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.vols[filepath.Dir(path)]; ok {
		if fi, ok := v.files[path]; ok {
			return &fi, nil
		}
	}
	return nil, fmt.Errorf("stat %s: %w", path, fs.ErrNotExist)
}

func (f *fakeFS) DeleteFile(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[path]++
	if err, ok := f.deleteErr[path]; ok {
		return err
	}
	v, ok := f.vols[filepath.Dir(path)]
	if !ok {
		return fmt.Errorf("remove %s: %w", path, fs.ErrNotExist)
	}
	fi, ok := v.files[path]
	if !ok {
		return fmt.Errorf("remove %s: %w", path, fs.ErrNotExist)
	}
	delete(v.files, path)
	v.free += fi.Size
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeFS) IsDir(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vols[path]; ok {
		return true
	}
	for dir := range f.vols {
		if filepath.Dir(dir) == path {
			return true
		}
	}
	return false
}

func (f *fakeFS) IsMountPoint(dir string) (bool, error) {
	return true, nil
}

func (f *fakeFS) ListSubdirs(parent string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for dir := range f.vols {
		if filepath.Dir(dir) == parent {
			out = append(out, dir)
		}
	}
	sort.Strings(out)
	return out, nil
}

// fakeWatcher forwards events pushed through in
type fakeWatcher struct {
	in      chan port.FileEvent
	watched []string
	failing map[string]bool
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{in: make(chan port.FileEvent, 16), failing: map[string]bool{}}
}

func (w *fakeWatcher) Watch(dirs []string) []error {
	var errs []error
	for _, d := range dirs {
		if w.failing[d] {
			errs = append(errs, domain.NewWatchError(d, fs.ErrPermission))
			continue
		}
		w.watched = append(w.watched, d)
	}
	return errs
}

func (w *fakeWatcher) Run(ctx context.Context, out chan<- port.FileEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.in:
			if !ok {
				return nil
			}
			out <- ev
		}
	}
}

func (w *fakeWatcher) Close() error {
	return nil
}

// recorder captures every dispatched event
type recorder struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (r *recorder) Handle(e event.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) HandledEvents() []string {
	return []string{"*"}
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventName())
	}
	return out
}

func eventsOf[T event.DomainEvent](r *recorder) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, e := range r.events {
		if t, ok := e.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

func newScanner(f *fakeFS) *inventory.Scanner {
	return inventory.New(&inventory.Config{Extension: ".plot", Cutoff: cutoff, MaxConcurrency: 2}, f, zap.NewNop())
}

func newDispatcher() (*event.InMemoryDispatcher, *recorder) {
	rec := &recorder{}
	d := event.NewInMemoryDispatcher(zap.NewNop())
	d.Subscribe(rec)
	return d, rec
}

// harness wires the keeper components by hand over a fakeFS
type harness struct {
	fs        *fakeFS
	scanner   *inventory.Scanner
	events    *event.InMemoryDispatcher
	rec       *recorder
	state     *State
	estimator *SizeEstimator
	reclaimer *Reclaimer
	rotator   *Rotator
	router    *Router
}

func newHarness(t *testing.T, f *fakeFS, reserve int, required int64) *harness {
	t.Helper()
	h := &harness{fs: f, scanner: newScanner(f)}
	h.events, h.rec = newDispatcher()
	h.state = NewState(reserve)
	h.estimator = NewSizeEstimator(required)
	h.reclaimer = NewReclaimer(f, h.events, zap.NewNop())
	h.rotator = NewRotator(h.state, h.reclaimer, h.estimator, h.events, zap.NewNop())
	h.router = NewRouter(h.state, h.scanner, f, h.reclaimer, h.rotator, h.estimator, h.events, zap.NewNop())
	return h
}

func (h *harness) index(t *testing.T, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, h.state.addIndexed(h.scanner.Scan(d)))
	}
}

func (h *harness) candidates(t *testing.T, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, h.state.addCandidate(h.scanner.Scan(d)))
	}
}

func paths(dirs []*domain.Directory) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, d.Path)
	}
	return out
}
