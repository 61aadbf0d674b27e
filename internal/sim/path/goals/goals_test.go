package goals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathtest"
)

func TestNearBoundaryIsExclusive(t *testing.T) {
	g := NewNear(0, 0, 0, 3)
	require.False(t, g.IsEnd(geom.Pos{X: 3}), "a cell exactly r away is outside")
	require.True(t, g.IsEnd(geom.Pos{X: 2, Y: 2}), "8 < 9")
	require.False(t, g.IsEnd(geom.Pos{X: 2, Y: 2, Z: 1}), "9 is not < 9")
	require.Zero(t, g.Heuristic(geom.Pos{}))

	// A slightly larger range admits the boundary cell.
	inner := Near{Target: geom.Pos{}, RangeSq: 3.0001 * 3.0001}
	require.True(t, inner.IsEnd(geom.Pos{X: 3}))
}

func TestHeuristicsAgreeWithEndAtTarget(t *testing.T) {
	p := geom.Pos{X: 4, Y: 7, Z: -2}
	cases := []struct {
		name string
		goal Goal
	}{
		{"block", NewBlock(4, 7, -2)},
		{"near", NewNear(4, 7, -2, 1)},
		{"xz", NewXZ(4, -2)},
		{"y", NewY(7)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.True(t, tc.goal.IsEnd(p))
			require.InDelta(t, 0, tc.goal.Heuristic(p), 1e-9)
			require.False(t, tc.goal.HasChanged())
		})
	}
}

func TestBlockHeuristicIsOctilePlusVertical(t *testing.T) {
	g := NewBlock(0, 0, 0)
	require.InDelta(t, 2+math.Sqrt2+2, g.Heuristic(geom.Pos{X: 3, Y: 2, Z: 1}), 1e-9)
	require.InDelta(t, math.Sqrt2, g.Heuristic(geom.Pos{X: -1, Z: 1}), 1e-9)
	require.False(t, g.IsEnd(geom.Pos{X: 1}))
}

func TestXZAndYIgnoreFreeAxes(t *testing.T) {
	xz := NewXZ(1, 1)
	require.True(t, xz.IsEnd(geom.Pos{X: 1, Y: 90, Z: 1}))
	require.InDelta(t, 1, xz.Heuristic(geom.Pos{X: 0, Y: -40, Z: 1}), 1e-9)

	y := NewY(5)
	require.True(t, y.IsEnd(geom.Pos{X: 100, Y: 5, Z: -100}))
	require.InDelta(t, 3, y.Heuristic(geom.Pos{X: 9, Y: 2}), 1e-9)
}

func TestGetToBlockAdjacency(t *testing.T) {
	g := NewGetToBlock(0, 1, 0)
	require.False(t, g.IsEnd(geom.Pos{Y: 1}), "inside the target")
	require.True(t, g.IsEnd(geom.Pos{X: 1, Y: 1}))
	require.True(t, g.IsEnd(geom.Pos{Z: -1, Y: 1}))
	require.True(t, g.IsEnd(geom.Pos{X: 1, Y: 2}), "on top of a neighbor")
	require.False(t, g.IsEnd(geom.Pos{X: 1, Y: 1, Z: 1}), "diagonal")
	require.False(t, g.IsEnd(geom.Pos{X: 2, Y: 1}))
	require.InDelta(t, 1, g.Heuristic(geom.Pos{X: 1, Y: 1}), 1e-9)
}

func TestCompositeTruthTables(t *testing.T) {
	a := NewBlock(0, 0, 0)
	b := NewBlock(1, 0, 0)
	anyOf := NewCompositeAny(a, b)
	allOf := NewCompositeAll(a, NewY(0))
	for _, p := range []geom.Pos{{}, {X: 1}, {X: 2}, {Y: 1}} {
		require.Equal(t, a.IsEnd(p) || b.IsEnd(p), anyOf.IsEnd(p), "any at %s", p)
		require.Equal(t, a.IsEnd(p) && NewY(0).IsEnd(p), allOf.IsEnd(p), "all at %s", p)
	}
	require.False(t, NewCompositeAll(a, b).IsEnd(geom.Pos{}))

	p := geom.Pos{X: 3}
	require.InDelta(t, math.Min(a.Heuristic(p), b.Heuristic(p)), anyOf.Heuristic(p), 1e-9)
	require.InDelta(t, math.Max(a.Heuristic(p), NewY(0).Heuristic(p)), allOf.Heuristic(p), 1e-9)
}

func TestInvertNegates(t *testing.T) {
	g := NewInvert(NewNear(0, 0, 0, 4))
	require.False(t, g.IsEnd(geom.Pos{X: 1}))
	require.True(t, g.IsEnd(geom.Pos{X: 10}))
	require.InDelta(t, -10, g.Heuristic(geom.Pos{X: 10}), 1e-9)
}

type fakeTracker struct {
	pos   geom.Vec3
	valid bool
}

func (f *fakeTracker) Position() geom.Vec3 { return f.pos }
func (f *fakeTracker) Valid() bool         { return f.valid }

func TestFollowRefreshesOnlyOutsideChangedRange(t *testing.T) {
	tr := &fakeTracker{pos: geom.Vec3{X: 0.5, Y: 1, Z: 0.5}, valid: true}
	g := NewFollow(tr, 2)
	require.Equal(t, geom.Pos{Y: 1}, g.Target())

	tr.pos = geom.Vec3{X: 1.9, Y: 1, Z: 0.5}
	require.False(t, g.HasChanged(), "moved one cell, inside range")
	require.Equal(t, geom.Pos{Y: 1}, g.Target())

	tr.pos = geom.Vec3{X: 5.2, Y: 1, Z: 0.5}
	require.True(t, g.HasChanged())
	require.Equal(t, geom.Pos{X: 5, Y: 1}, g.Target())
	require.False(t, g.HasChanged(), "reports a move exactly once")

	require.True(t, g.IsEnd(geom.Pos{X: 3, Y: 1}))
	require.False(t, g.IsEnd(geom.Pos{X: 2, Y: 1}))
}

func TestFollowRangesAreIndependent(t *testing.T) {
	tr := &fakeTracker{pos: geom.Vec3{X: 0.5, Y: 0, Z: 0.5}, valid: true}
	g := NewFollow(tr, 1).WithChangedRange(5)
	require.InDelta(t, 1, g.RangeSq(), 1e-9)

	tr.pos = geom.Vec3{X: 3.5}
	require.False(t, g.HasChanged())
	require.False(t, g.IsEnd(geom.Pos{X: 2}), "accept range still measured from the cached cell")

	tr.valid = false
	require.False(t, g.HasChanged())
	require.True(t, g.IsEnd(geom.Pos{X: 50}), "a vanished reference ends the goal")
}

func TestPlaceBlock(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	target := geom.Pos{X: 2, Y: 1}

	g := NewPlaceBlock(target, w, 5, false)
	require.True(t, g.IsEnd(geom.Pos{Y: 1}))
	require.False(t, g.IsEnd(target), "standing in the target")
	require.False(t, g.IsEnd(geom.Pos{X: 2}), "head in the target")
	require.False(t, g.IsEnd(geom.Pos{X: 8, Y: 1}), "out of range")

	los := NewPlaceBlock(target, w, 5, true)
	require.True(t, los.IsEnd(geom.Pos{Y: 1}))

	floating := NewPlaceBlock(geom.Pos{X: 2, Y: 4}, w, 5, false)
	require.False(t, floating.IsEnd(geom.Pos{Y: 1}), "no solid face to click")
}

func TestLookAtBlockNeedsLineOfSight(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	g := NewBreakBlock(geom.Pos{X: 3}, w)
	require.False(t, g.IsEnd(geom.Pos{Y: 1}), "the floor in between hides the target")
	require.True(t, g.IsEnd(geom.Pos{X: 2, Y: 1}))

	w.Set(geom.Pos{X: 3, Y: 1}, "stone")
	require.False(t, g.IsEnd(geom.Pos{X: 2, Y: 1}))
	require.False(t, g.IsEnd(geom.Pos{X: -5, Y: 1}), "beyond reach")
}
