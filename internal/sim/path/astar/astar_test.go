package astar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/goals"
	"voxelpath.ai/internal/sim/path/move"
	"voxelpath.ai/internal/sim/path/movements"
	"voxelpath.ai/internal/sim/path/pathtest"
)

var unlimited = Options{Timeout: time.Hour, TickTimeout: time.Hour}

// stepClock advances by step on every reading.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

// recorder remembers every expanded position.
type recorder struct {
	inner    Provider
	expanded []geom.Pos
}

func (r *recorder) Neighbors(m move.Move) []move.Move {
	r.expanded = append(r.expanded, m.Pos())
	return r.inner.Neighbors(m)
}

func provider(w *pathtest.World, pol movements.Policy) *movements.Provider {
	return movements.NewProvider(movements.Env{World: w, Tools: pathtest.Tools{}}, pol)
}

func TestFlatGoalBlock(t *testing.T) {
	pv := provider(pathtest.Flat(0, 16, "bedrock"), movements.Defaults())
	start := geom.Pos{Y: 1}
	s := New(pv.Start(start), pv, goals.NewBlock(2, 1, 0), unlimited)
	res := s.Compute()

	require.Equal(t, Success, res.Status)
	require.Len(t, res.Path, 2)
	require.InDelta(t, 2, res.Cost, 1e-9)
	require.Equal(t, geom.Pos{X: 2, Y: 1}, res.Path[len(res.Path)-1].Pos())

	sum := 0.0
	for _, m := range res.Path {
		require.Less(t, m.Cost, float64(movements.Impassable))
		sum += m.Cost
	}
	require.InDelta(t, res.Cost, sum, 1e-9)
	require.GreaterOrEqual(t, res.Generated, res.Visited)
}

func TestPathAroundWallSumsEdgeCosts(t *testing.T) {
	w := pathtest.Flat(0, 16, "bedrock")
	w.Fill(geom.Pos{X: 3, Y: 1, Z: -4}, geom.Pos{X: 3, Y: 2, Z: 4}, "bedrock")
	pv := provider(w, movements.Defaults())
	res := New(pv.Start(geom.Pos{Y: 1}), pv, goals.NewBlock(6, 1, 0), unlimited).Compute()

	require.Equal(t, Success, res.Status)
	sum := 0.0
	for _, m := range res.Path {
		require.Less(t, m.Cost, float64(movements.Impassable))
		if m.Z >= -4 && m.Z <= 4 {
			require.NotEqual(t, 3, m.X, "walked through the wall at %s", m.Pos())
		}
		sum += m.Cost
	}
	require.InDelta(t, res.Cost, sum, 1e-9)
	require.Equal(t, geom.Pos{X: 6, Y: 1}, res.Path[len(res.Path)-1].Pos())
}

func TestExcludedTargetHasNoPath(t *testing.T) {
	target := geom.Pos{X: 10, Y: 1}
	pol := movements.Defaults().WithExclusionStep(movements.Sphere(target, 5, 100))
	pv := provider(pathtest.Flat(0, 16, "bedrock"), pol)
	res := New(pv.Start(geom.Pos{Y: 1}), pv, goals.NewBlock(target.X, target.Y, target.Z), unlimited).Compute()

	require.Equal(t, NoPath, res.Status)
	require.NotEmpty(t, res.Path, "best effort path toward the goal")
	last := res.Path[len(res.Path)-1].Pos()
	d := last.Sub(target)
	require.Greater(t, d.X*d.X+d.Y*d.Y+d.Z*d.Z, 25)
}

func TestPartialResumeMatchesSingleRun(t *testing.T) {
	w := pathtest.Flat(0, 16, "bedrock")
	w.Fill(geom.Pos{X: 4, Y: 1, Z: -6}, geom.Pos{X: 4, Y: 2, Z: 6}, "bedrock")
	goal := goals.NewBlock(9, 1, 3)
	start := geom.Pos{Y: 1}

	pv := provider(w, movements.Defaults())
	frozen := &stepClock{t: time.Unix(0, 0)}
	once := New(pv.Start(start), pv, goal, Options{Timeout: time.Second, TickTimeout: time.Millisecond, Now: frozen.Now}).Compute()
	require.Equal(t, Success, once.Status)

	rec := &recorder{inner: provider(w, movements.Defaults())}
	ticking := &stepClock{t: time.Unix(0, 0), step: time.Millisecond}
	s := New(pv.Start(start), rec, goal, Options{Timeout: time.Hour, TickTimeout: 10 * time.Millisecond, Now: ticking.Now})

	partials := 0
	res := s.Compute()
	for res.Status == Partial {
		partials++
		require.Less(t, partials, 10000)
		res = s.Compute()
	}
	require.Greater(t, partials, 1)
	require.Equal(t, Success, res.Status)

	seen := map[geom.Pos]bool{}
	for _, p := range rec.expanded {
		require.False(t, seen[p], "expanded %s twice", p)
		seen[p] = true
	}

	require.InDelta(t, once.Cost, res.Cost, 1e-9)
	require.Equal(t, len(once.Path), len(res.Path))
	for i := range once.Path {
		require.Equal(t, once.Path[i].Hash(), res.Path[i].Hash())
	}
}

func TestTimeoutIsTerminal(t *testing.T) {
	pv := provider(pathtest.Flat(0, 16, "bedrock"), movements.Defaults())
	clock := &stepClock{t: time.Unix(0, 0), step: time.Millisecond}
	s := New(pv.Start(geom.Pos{Y: 1}), pv, goals.NewBlock(14, 1, 14), Options{Timeout: 5 * time.Millisecond, TickTimeout: time.Hour, Now: clock.Now})

	res := s.Compute()
	require.Equal(t, Timeout, res.Status)
	require.Greater(t, res.Elapsed, 5*time.Millisecond)
	again := s.Compute()
	require.Equal(t, Timeout, again.Status)
	require.Equal(t, res.Visited, again.Visited)
}

func TestSearchRadiusPrunesDetours(t *testing.T) {
	pv := provider(pathtest.Flat(0, 16, "bedrock"), movements.Defaults())
	opts := unlimited
	opts.SearchRadius = 3
	s := New(pv.Start(geom.Pos{Y: 1}), pv, goals.NewBlock(100, 1, 0), opts)
	res := s.Compute()

	require.Equal(t, NoPath, res.Status)
	require.True(t, s.Closed(geom.Pos{X: 5, Y: 1}))
	require.False(t, s.Closed(geom.Pos{Y: 1, Z: 3}), "f exceeds the root heuristic plus radius")
	require.Equal(t, geom.Pos{X: 16, Y: 1}, res.Path[len(res.Path)-1].Pos())
}

func TestSearchRadiusBoundsInvertedGoal(t *testing.T) {
	pv := provider(pathtest.Flat(0, 16, "bedrock"), movements.Defaults())
	opts := unlimited
	opts.SearchRadius = 3
	// The root heuristic is -6, so the bound is negative.
	s := New(pv.Start(geom.Pos{Y: 1}), pv, goals.NewInvert(goals.NewNear(6, 1, 0, 30)), opts)
	res := s.Compute()

	require.Equal(t, NoPath, res.Status)
	require.True(t, s.Closed(geom.Pos{X: -12, Y: 1}))
	require.True(t, s.Closed(geom.Pos{X: 1, Y: 1}))
	require.False(t, s.Closed(geom.Pos{X: 2, Y: 1}), "f exceeds the root heuristic plus radius")
}

func TestVisitedChunks(t *testing.T) {
	pv := provider(pathtest.Flat(0, 16, "bedrock"), movements.Defaults())
	s := New(pv.Start(geom.Pos{Y: 1}), pv, goals.NewBlock(2, 1, 0), unlimited)
	s.Compute()

	require.Equal(t, []geom.ChunkKey{{}}, s.VisitedChunks())
	require.True(t, s.TouchesChunk(geom.ChunkKey{}))
	require.True(t, s.TouchesChunk(geom.ChunkKey{CX: 1}))
	require.False(t, s.TouchesChunk(geom.ChunkKey{CX: 1, CZ: 1}), "diagonal neighbors do not count")
	require.False(t, s.TouchesChunk(geom.ChunkKey{CX: 5, CZ: -3}))
}
