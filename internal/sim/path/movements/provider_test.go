package movements

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/move"
	"voxelpath.ai/internal/sim/path/pathenv"
	"voxelpath.ai/internal/sim/path/pathtest"
)

var origin = geom.Pos{Y: 1}

func newProvider(w *pathtest.World, inv pathtest.Inventory, pol Policy) *Provider {
	return NewProvider(Env{World: w, Inventory: inv, Tools: pathtest.Tools{}}, pol)
}

func movesTo(ms []move.Move, p geom.Pos) []move.Move {
	var out []move.Move
	for _, m := range ms {
		if m.Pos() == p {
			out = append(out, m)
		}
	}
	return out
}

func touches(m move.Move, p geom.Pos) bool {
	if m.Pos() == p {
		return true
	}
	for _, b := range m.ToBreak {
		if b.Pos == p {
			return true
		}
	}
	for _, pl := range m.ToPlace {
		if pl.Target() == p {
			return true
		}
	}
	return false
}

func TestFlatGroundOffersWalksAndDiagonals(t *testing.T) {
	pv := newProvider(pathtest.Flat(0, 8, "stone"), nil, Defaults())
	ms := pv.Neighbors(pv.Start(origin))
	require.Len(t, ms, 8)
	for _, m := range ms {
		require.Equal(t, 1, m.Y)
		require.False(t, m.HasEdits())
		if m.X != 0 && m.Z != 0 {
			require.InDelta(t, math.Sqrt2, m.Cost, 1e-9)
		} else {
			require.InDelta(t, 1, m.Cost, 1e-9)
		}
	}
}

func TestUnbreakableBlocksAreNeverBroken(t *testing.T) {
	w := pathtest.Flat(0, 8, "bedrock")
	w.Set(geom.Pos{X: 1, Y: 1}, "bedrock")
	w.Set(geom.Pos{X: 1, Y: 2}, "bedrock")
	pv := newProvider(w, pathtest.Inventory{{Type: "dirt", Count: 64}}, Defaults())

	ms := pv.Neighbors(pv.Start(origin))
	require.NotEmpty(t, ms)
	for _, m := range ms {
		for _, b := range m.ToBreak {
			blk, _ := w.BlockAt(b.Pos)
			require.NotEqual(t, "bedrock", blk.Type, "move to %s breaks %s", m.Pos(), b.Pos)
		}
		require.Less(t, m.Cost, float64(Impassable))
	}
	require.Empty(t, movesTo(ms, geom.Pos{X: 1, Y: 1}))
	require.Empty(t, movesTo(ms, geom.Pos{X: 1, Y: 1, Z: 1}), "corner clipping")
}

func TestBreakCostUsesBestTool(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	w.Set(geom.Pos{X: 1, Y: 1}, "stone")
	target := geom.Pos{X: 1, Y: 1}

	bare := newProvider(w, nil, Defaults())
	fwd := movesTo(bare.Neighbors(bare.Start(origin)), target)
	require.Len(t, fwd, 1)
	require.Equal(t, []move.BlockEdit{{Pos: target}}, fwd[0].ToBreak)
	// 1.5 hardness without a pickaxe: 7500ms.
	require.InDelta(t, 1+(1+3*7.5), fwd[0].Cost, 1e-9)

	inv := pathtest.Inventory{{Type: "dirt", Count: 1}, {Type: "stone_pickaxe", Count: 1}}
	tooled := newProvider(w, inv, Defaults())
	fwd = movesTo(tooled.Neighbors(tooled.Start(origin)), target)
	require.Len(t, fwd, 1)
	require.InDelta(t, 1+(1+3*0.5625), fwd[0].Cost, 1e-9)

	tool, ms := BestHarvestTool(inv, pathtest.Tools{}, pathenv.Effects{}, pathtest.Def("stone"))
	require.NotNil(t, tool)
	require.Equal(t, "stone_pickaxe", tool.Type)
	require.InDelta(t, 562.5, ms, 1e-9)
}

func TestCanDigOffRejectsBreaking(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	w.Set(geom.Pos{X: 1, Y: 1}, "stone")
	pol := Defaults()
	pol.CanDig = false
	pv := newProvider(w, nil, pol)
	for _, m := range pv.Neighbors(pv.Start(origin)) {
		require.Empty(t, m.ToBreak)
	}
}

func TestExclusionAreas(t *testing.T) {
	cell := geom.Pos{X: 1, Y: 1}

	t.Run("forbidding weight removes every move through the cell", func(t *testing.T) {
		pv := newProvider(pathtest.Flat(0, 8, "stone"), nil, Defaults().WithExclusionStep(Cell(cell, 100)))
		ms := pv.Neighbors(pv.Start(origin))
		require.Len(t, ms, 5)
		for _, m := range ms {
			require.False(t, touches(m, cell), "move to %s", m.Pos())
			require.NotEqual(t, 1, m.X, "move to %s crosses the excluded column", m.Pos())
		}
	})

	t.Run("soft weight adds exactly its value", func(t *testing.T) {
		plain := newProvider(pathtest.Flat(0, 8, "stone"), nil, Defaults())
		soft := newProvider(pathtest.Flat(0, 8, "stone"), nil, Defaults().WithExclusionStep(Cell(cell, 10)))
		before := movesTo(plain.Neighbors(plain.Start(origin)), cell)
		after := movesTo(soft.Neighbors(soft.Start(origin)), cell)
		require.Len(t, before, 1)
		require.Len(t, after, 1)
		require.InDelta(t, before[0].Cost+10, after[0].Cost, 1e-9)
	})

	t.Run("break exclusion forbids mining only", func(t *testing.T) {
		w := pathtest.Flat(0, 8, "stone")
		w.Set(cell, "stone")
		pv := newProvider(w, nil, Defaults().WithExclusionBreak(Cell(cell, 100)))
		require.Empty(t, movesTo(pv.Neighbors(pv.Start(origin)), cell))
	})

	t.Run("policy copies do not share areas", func(t *testing.T) {
		base := Defaults()
		a := base.WithExclusionStep(Cell(cell, 1))
		_ = base.WithExclusionStep(Cell(cell, 2), Cell(cell, 3))
		require.Empty(t, base.ExclusionStep)
		require.Len(t, a.ExclusionStep, 1)
	})
}

func TestBridgingPlacesScaffold(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	w.Set(geom.Pos{X: 1}, "air")
	target := geom.Pos{X: 1, Y: 1}

	pv := newProvider(w, pathtest.Inventory{{Type: "dirt", Count: 3}}, Defaults())
	require.Equal(t, 3, pv.Start(origin).RemainingScaffold)
	var walk *move.Move
	for _, m := range movesTo(pv.Neighbors(pv.Start(origin)), target) {
		if !m.Parkour {
			walk = &m
		}
	}
	require.NotNil(t, walk)
	require.Len(t, walk.ToPlace, 1)
	require.Equal(t, geom.Pos{X: 1}, walk.ToPlace[0].Target())
	require.Equal(t, 2, walk.RemainingScaffold)
	require.InDelta(t, 2, walk.Cost, 1e-9)
}

func TestParkourJumpsOneGap(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	w.Set(geom.Pos{X: 1}, "air")
	pv := newProvider(w, nil, Defaults())
	ms := pv.Neighbors(pv.Start(origin))

	require.Empty(t, movesTo(ms, geom.Pos{X: 1, Y: 1}), "no scaffold to bridge")
	jump := movesTo(ms, geom.Pos{X: 2, Y: 1})
	require.Len(t, jump, 1)
	require.True(t, jump[0].Parkour)
	require.False(t, jump[0].HasEdits())

	pol := Defaults()
	pol.AllowParkour = false
	pv = newProvider(w, nil, pol)
	require.Empty(t, movesTo(pv.Neighbors(pv.Start(origin)), geom.Pos{X: 2, Y: 1}))
}

func TestLongParkourNeedsSprint(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	w.Set(geom.Pos{X: 1}, "air")
	w.Set(geom.Pos{X: 2}, "air")
	landing := geom.Pos{X: 3, Y: 1}

	pv := newProvider(w, nil, Defaults())
	require.Len(t, movesTo(pv.Neighbors(pv.Start(origin)), landing), 1)

	pol := Defaults()
	pol.AllowSprinting = false
	pv = newProvider(w, nil, pol)
	require.Empty(t, movesTo(pv.Neighbors(pv.Start(origin)), landing))
}

func TestTowerAndJumpUp(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	w.Set(geom.Pos{X: 1, Y: 1}, "stone")
	inv := pathtest.Inventory{{Type: "cobblestone", Count: 1}}
	pv := newProvider(w, inv, Defaults())
	ms := pv.Neighbors(pv.Start(origin))

	step := movesTo(ms, geom.Pos{X: 1, Y: 2})
	require.Len(t, step, 1)
	require.InDelta(t, 2, step[0].Cost, 1e-9)
	require.False(t, step[0].HasEdits())

	tower := movesTo(ms, geom.Pos{Y: 2})
	require.Len(t, tower, 1)
	require.Len(t, tower[0].ToPlace, 1)
	require.True(t, tower[0].ToPlace[0].Jump)
	require.Equal(t, origin, tower[0].ToPlace[0].Target())
	require.Equal(t, 0, tower[0].RemainingScaffold)

	pol := Defaults()
	pol.Allow1by1Towers = false
	pv = newProvider(w, inv, pol)
	require.Empty(t, movesTo(pv.Neighbors(pv.Start(origin)), geom.Pos{Y: 2}))
}

func TestJumpUpRejectsTwoBlockSteps(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	w.Set(geom.Pos{X: 1, Y: 1}, "stone")
	w.Set(geom.Pos{X: 1, Y: 2}, "bedrock")
	pv := newProvider(w, nil, Defaults())
	ms := pv.Neighbors(pv.Start(origin))
	require.Empty(t, movesTo(ms, geom.Pos{X: 1, Y: 2}), "head blocked by bedrock")
	require.Empty(t, movesTo(ms, geom.Pos{X: 1, Y: 3}))
}

func TestDropDownFindsLanding(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	w.Set(geom.Pos{X: 1}, "air")
	w.Set(geom.Pos{X: 1, Y: -2}, "stone")
	pv := newProvider(w, nil, Defaults())
	drop := movesTo(pv.Neighbors(pv.Start(origin)), geom.Pos{X: 1, Y: -1})
	require.Len(t, drop, 1)
	require.InDelta(t, 1, drop[0].Cost, 1e-9)

	deep := pathtest.Flat(0, 8, "stone")
	deep.Set(geom.Pos{X: 1}, "air")
	deep.Set(geom.Pos{X: 1, Y: -6}, "stone")
	pv = newProvider(deep, nil, Defaults())
	require.Empty(t, movesTo(pv.Neighbors(pv.Start(origin)), geom.Pos{X: 1, Y: -5}), "beyond MaxDropDown")
}

func TestDontCreateFlow(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	w.Set(geom.Pos{X: 1, Y: 1}, "stone")
	w.Set(geom.Pos{X: 2, Y: 1}, "water")
	target := geom.Pos{X: 1, Y: 1}

	pv := newProvider(w, nil, Defaults())
	require.Empty(t, movesTo(pv.Neighbors(pv.Start(origin)), target))

	pol := Defaults()
	pol.DontCreateFlow = false
	pv = newProvider(w, nil, pol)
	require.Len(t, movesTo(pv.Neighbors(pv.Start(origin)), target), 1)
}

func TestDontMineUnderFallingBlock(t *testing.T) {
	w := pathtest.Flat(0, 8, "stone")
	w.Set(geom.Pos{X: 1, Y: 1}, "stone")
	w.Set(geom.Pos{X: 1, Y: 2}, "stone")
	w.Set(geom.Pos{X: 1, Y: 3}, "sand")
	pv := newProvider(w, nil, Defaults())
	require.Empty(t, movesTo(pv.Neighbors(pv.Start(origin)), geom.Pos{X: 1, Y: 1}))
}

func TestScaffoldSelection(t *testing.T) {
	items := []pathenv.Item{{Type: "stick", Count: 4}, {Type: "cobblestone", Count: 5}, {Type: "dirt", Count: 2}}
	scaffold := Defaults().ScaffoldItems
	require.Equal(t, 7, CountScaffold(items, scaffold))
	it, ok := ScaffoldItem(items, scaffold)
	require.True(t, ok)
	require.Equal(t, "dirt", it.Type)

	_, ok = ScaffoldItem(items[:1], scaffold)
	require.False(t, ok)
}
