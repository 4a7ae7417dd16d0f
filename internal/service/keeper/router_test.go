package keeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/plots-begone/internal/domain/event"
	"github.com/vertextoedge/plots-begone/internal/port"
)

func routerFixture(t *testing.T, required int64) *harness {
	t.Helper()
	f := newFakeFS()
	f.addDir("/mnt/a", 10*gib, 3*gib+gib/2)
	f.addFile("/mnt/a/old1.plot", gib, oldTime)
	f.addFile("/mnt/a/old2.plot", gib, oldTime.Add(1))
	f.addDir("/mnt/b", 10*gib, 2*gib)
	f.addFile("/mnt/b/old.plot", gib, oldTime)

	h := newHarness(t, f, 1, required)
	h.index(t, "/mnt/a")
	h.candidates(t, "/mnt/b")
	return h
}

func TestRouter_NewPlotTriggersReclaim(t *testing.T) {
	h := routerFixture(t, gib)

	h.fs.addFile("/mnt/a/new.plot", gib, newTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/a/new.plot", Dir: "/mnt/a"})

	assert.Equal(t, []string{"/mnt/a/old1.plot"}, h.fs.deletedFiles())

	a, _ := h.state.Directory("/mnt/a")
	assert.Equal(t, 1, a.NewPlots)
	assert.Equal(t, 1, a.OldPlotCount())

	detected := eventsOf[event.NewPlotDetected](h.rec)
	require.Len(t, detected, 1)
	assert.Equal(t, gib, detected[0].Size)
}

func TestRouter_CandidateEventIgnored(t *testing.T) {
	h := routerFixture(t, gib)

	h.fs.addFile("/mnt/b/new.plot", gib/2, newTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/b/new.plot", Dir: "/mnt/b"})

	assert.Empty(t, h.fs.deletedFiles(), "candidates are never cleaned")

	ignored := eventsOf[event.EventIgnored](h.rec)
	require.Len(t, ignored, 1)
	assert.Equal(t, "/mnt/b", ignored[0].Directory)
	assert.Equal(t, reasonNotIndexed, ignored[0].Reason)
}

func TestRouter_UnmanagedDirectoryIgnored(t *testing.T) {
	h := routerFixture(t, gib)

	h.router.Handle(port.FileEvent{Path: "/srv/other/new.plot", Dir: "/srv/other"})

	ignored := eventsOf[event.EventIgnored](h.rec)
	require.Len(t, ignored, 1)
	assert.Equal(t, reasonUnmanaged, ignored[0].Reason)
}

func TestRouter_IgnoresNonNewFiles(t *testing.T) {
	h := routerFixture(t, gib)

	h.fs.addFile("/mnt/a/plot.plot.tmp", gib/8, newTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/a/plot.plot.tmp", Dir: "/mnt/a"})

	h.fs.addFile("/mnt/a/moved-in.plot", gib/8, oldTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/a/moved-in.plot", Dir: "/mnt/a"})

	assert.Empty(t, h.fs.deletedFiles())
	assert.Empty(t, h.rec.names())
}

func TestRouter_DuplicateEventIsIdempotent(t *testing.T) {
	h := routerFixture(t, gib)

	h.fs.addFile("/mnt/a/new.plot", gib, newTime)
	ev := port.FileEvent{Path: "/mnt/a/new.plot", Dir: "/mnt/a"}
	h.router.Handle(ev)
	h.router.Handle(ev)

	assert.Len(t, h.fs.deletedFiles(), 1)
	assert.Len(t, eventsOf[event.NewPlotDetected](h.rec), 1)

	a, _ := h.state.Directory("/mnt/a")
	assert.Equal(t, 1, a.NewPlots)
}

func TestRouter_VanishedPlotCountsAsNew(t *testing.T) {
	h := routerFixture(t, gib)
	// The plotter filled the disk and the file is already gone by the time we look.
	h.fs.vols["/mnt/a"].free = 0

	h.router.Handle(port.FileEvent{Path: "/mnt/a/ghost.plot"})

	require.Len(t, eventsOf[event.NewPlotDetected](h.rec), 1)
	assert.Equal(t, []string{"/mnt/a/old1.plot"}, h.fs.deletedFiles())
}

func TestRouter_EstimatesFromObservedPlots(t *testing.T) {
	h := routerFixture(t, 0)

	h.fs.addFile("/mnt/a/new.plot", gib+gib/2, newTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/a/new.plot", Dir: "/mnt/a"})

	assert.Equal(t, gib+gib/2, h.estimator.Required())
	// a needs both old plots gone, which drains it; b is reclaimed on promotion
	// and takes a's place even though it has no old plots left.
	assert.Equal(t, []string{"/mnt/a/old1.plot", "/mnt/a/old2.plot", "/mnt/b/old.plot"}, h.fs.deletedFiles())
	assert.Equal(t, []string{"/mnt/b"}, paths(h.state.Index()))
}

func TestRouter_Recheck(t *testing.T) {
	h := routerFixture(t, 2*gib)

	h.router.Recheck()

	assert.Equal(t, []string{"/mnt/a/old1.plot"}, h.fs.deletedFiles())
	assert.Equal(t, []string{"/mnt/a"}, paths(h.state.Index()))
}
