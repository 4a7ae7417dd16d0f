package keeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/plots-begone/internal/domain/event"
	"github.com/vertextoedge/plots-begone/internal/port"
)

func TestRotator_DemotesAndPromotes(t *testing.T) {
	f := newFakeFS()
	f.addDir("/mnt/a", 10*gib, 2*gib+gib/2)
	f.addFile("/mnt/a/old.plot", gib, oldTime)
	f.addDir("/mnt/b", 10*gib, 2*gib+gib/5)
	f.addFile("/mnt/b/old1.plot", gib, oldTime)
	f.addFile("/mnt/b/old2.plot", gib, oldTime.Add(1))
	f.addDir("/mnt/c", 10*gib, 2*gib)
	f.addFile("/mnt/c/old.plot", gib, oldTime)

	h := newHarness(t, f, 1, gib)
	h.index(t, "/mnt/a")
	h.candidates(t, "/mnt/b", "/mnt/c")

	f.addFile("/mnt/a/new.plot", gib, newTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/a/new.plot", Dir: "/mnt/a"})

	require.NoError(t, h.state.Verify())
	assert.Equal(t, []string{"/mnt/b"}, paths(h.state.Index()))
	assert.Equal(t, []string{"/mnt/c"}, paths(h.state.Candidates()))
	assert.Equal(t, []string{"/mnt/a"}, paths(h.state.Spent()))

	// b was reclaimed before joining the index
	assert.Equal(t, []string{"/mnt/a/old.plot", "/mnt/b/old1.plot"}, f.deletedFiles())
	b, _ := h.state.Directory("/mnt/b")
	assert.True(t, b.HasSpaceFor(gib))

	rotated := eventsOf[event.DirectoryRotated](h.rec)
	require.Len(t, rotated, 1)
	assert.Equal(t, "/mnt/a", rotated[0].Demoted)
	assert.Equal(t, "/mnt/b", rotated[0].Promoted)
	assert.Equal(t, event.Membership{Indexed: 1, Candidates: 1, Spent: 1}, rotated[0].Membership)

	// c is untouched while it waits in the pool
	assert.True(t, f.exists("/mnt/c/old.plot"))
}

func TestRotator_EmptyPoolShrinksIndex(t *testing.T) {
	f := newFakeFS()
	f.addDir("/mnt/a", 10*gib, 2*gib+gib/2)
	f.addFile("/mnt/a/old.plot", gib, oldTime)

	h := newHarness(t, f, 1, gib)
	h.index(t, "/mnt/a")

	f.addFile("/mnt/a/new.plot", gib, newTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/a/new.plot", Dir: "/mnt/a"})

	require.NoError(t, h.state.Verify())
	assert.Empty(t, h.state.Index())
	assert.Equal(t, []string{"/mnt/a"}, paths(h.state.Spent()))

	rotated := eventsOf[event.DirectoryRotated](h.rec)
	require.Len(t, rotated, 1)
	assert.Empty(t, rotated[0].Promoted)
}

func TestRotator_PromotesOneCandidatePerDemotion(t *testing.T) {
	f := newFakeFS()
	f.addDir("/mnt/a", 10*gib, 2*gib+gib/2)
	f.addFile("/mnt/a/old.plot", gib, oldTime)
	f.addDir("/mnt/b", 10*gib, gib+gib/2)
	f.addFile("/mnt/b/old.plot", gib, oldTime)
	f.addDir("/mnt/c", 10*gib, gib+gib/2)
	f.addFile("/mnt/c/old.plot", gib, oldTime)

	h := newHarness(t, f, 1, gib)
	h.index(t, "/mnt/a")
	h.candidates(t, "/mnt/b", "/mnt/c")

	f.addFile("/mnt/a/new.plot", gib, newTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/a/new.plot", Dir: "/mnt/a"})

	// b is drained by its pre-promotion reclaim but has room, so it is
	// indexed and c stays untouched in the pool.
	require.NoError(t, h.state.Verify())
	assert.Equal(t, []string{"/mnt/a/old.plot", "/mnt/b/old.plot"}, f.deletedFiles())
	assert.Equal(t, []string{"/mnt/b"}, paths(h.state.Index()))
	assert.Equal(t, []string{"/mnt/c"}, paths(h.state.Candidates()))
	assert.Equal(t, []string{"/mnt/a"}, paths(h.state.Spent()))
	assert.True(t, f.exists("/mnt/c/old.plot"))

	b, _ := h.state.Directory("/mnt/b")
	assert.True(t, b.HasSpaceFor(gib))
	assert.False(t, b.HasOldPlots())

	rotated := eventsOf[event.DirectoryRotated](h.rec)
	require.Len(t, rotated, 1)
	assert.Equal(t, "/mnt/b", rotated[0].Promoted)

	// The next plot in b finds it without old plots, so only now does c get reclaimed.
	f.addFile("/mnt/b/new.plot", gib, newTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/b/new.plot", Dir: "/mnt/b"})

	require.NoError(t, h.state.Verify())
	assert.Equal(t, []string{"/mnt/a/old.plot", "/mnt/b/old.plot", "/mnt/c/old.plot"}, f.deletedFiles())
	assert.Equal(t, []string{"/mnt/c"}, paths(h.state.Index()))
	assert.Empty(t, h.state.Candidates())
	assert.Equal(t, []string{"/mnt/a", "/mnt/b"}, paths(h.state.Spent()))
	assert.Len(t, eventsOf[event.DirectoryRotated](h.rec), 2)
}

func TestRotator_ShrunkIndexKeepsServingOthers(t *testing.T) {
	f := newFakeFS()
	f.addDir("/mnt/a", 10*gib, 2*gib+gib/2)
	f.addFile("/mnt/a/old.plot", gib, oldTime)
	f.addDir("/mnt/b", 10*gib, 3*gib+gib/2)
	f.addFile("/mnt/b/old1.plot", gib, oldTime)
	f.addFile("/mnt/b/old2.plot", gib, oldTime.Add(1))

	h := newHarness(t, f, 2, gib)
	h.index(t, "/mnt/a", "/mnt/b")

	f.addFile("/mnt/a/new.plot", gib, newTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/a/new.plot", Dir: "/mnt/a"})

	require.NoError(t, h.state.Verify())
	assert.Equal(t, []string{"/mnt/b"}, paths(h.state.Index()))
	assert.Equal(t, []string{"/mnt/a"}, paths(h.state.Spent()))

	f.addFile("/mnt/b/new.plot", gib, newTime)
	h.router.Handle(port.FileEvent{Path: "/mnt/b/new.plot", Dir: "/mnt/b"})

	require.NoError(t, h.state.Verify())
	assert.Equal(t, []string{"/mnt/a/old.plot", "/mnt/b/old1.plot"}, f.deletedFiles())
	assert.Len(t, h.state.Index(), 1)
	assert.Equal(t, []string{"/mnt/b"}, paths(h.state.Index()))
	assert.Equal(t, gib+gib/2, f.free("/mnt/b"))

	b, _ := h.state.Directory("/mnt/b")
	assert.Equal(t, 1, b.OldPlotCount())
	assert.Equal(t, 1, b.NewPlots)

	rotated := eventsOf[event.DirectoryRotated](h.rec)
	require.Len(t, rotated, 1)
	assert.Empty(t, rotated[0].Promoted)
	assert.Len(t, eventsOf[event.PlotReclaimed](h.rec), 2)
}

func TestRotator_CheckLeavesHealthyDirectories(t *testing.T) {
	f := newFakeFS()
	f.addDir("/mnt/a", 10*gib, 2*gib)
	f.addFile("/mnt/a/old.plot", gib, oldTime)
	f.addDir("/mnt/b", 10*gib, 2*gib)

	h := newHarness(t, f, 1, gib)
	h.index(t, "/mnt/a")
	h.candidates(t, "/mnt/b")

	a, _ := h.state.Directory("/mnt/a")
	assert.False(t, h.rotator.Check(a), "indexed with old plots left")

	b, _ := h.state.Directory("/mnt/b")
	assert.False(t, h.rotator.Check(b), "candidates are never demoted")
	assert.Empty(t, eventsOf[event.DirectoryRotated](h.rec))
}
