package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathtest"
)

func standing(p geom.Pos) State {
	return State{Pos: p.Center(), OnGround: true}
}

func walk(s *Sim, st State, target geom.Vec3, sprint bool, ticks int) State {
	ctl := Toward(target, false, sprint)
	for i := 0; i < ticks; i++ {
		ctl(&st)
		s.Step(&st)
	}
	return st
}

func TestStandingStaysPut(t *testing.T) {
	s := New(pathtest.Flat(0, 8, "bedrock"))
	st := standing(geom.Pos{Y: 1})
	for i := 0; i < 20; i++ {
		s.Step(&st)
	}
	require.Equal(t, geom.Vec3{X: 0.5, Y: 1, Z: 0.5}, st.Pos)
	require.True(t, st.OnGround)
}

func TestRestingBodyIsGrounded(t *testing.T) {
	s := New(pathtest.Flat(0, 8, "bedrock"))
	st := standing(geom.Pos{Y: 1})
	s.Step(&st)
	require.True(t, st.OnGround)

	st = State{Pos: geom.Vec3{X: 0.5, Y: 1.5, Z: 0.5}}
	s.Step(&st)
	require.False(t, st.OnGround)
}

func TestFallingLandsOnFloor(t *testing.T) {
	s := New(pathtest.Flat(0, 8, "bedrock"))
	st := State{Pos: geom.Vec3{X: 0.5, Y: 5, Z: 0.5}}
	for i := 0; i < 40 && !st.OnGround; i++ {
		s.Step(&st)
	}
	require.True(t, st.OnGround)
	require.InDelta(t, 1.0, st.Pos.Y, 1e-9)
}

func TestWalkAndSprintSpeeds(t *testing.T) {
	s := New(pathtest.Flat(0, 16, "bedrock"))
	far := geom.Vec3{X: 100, Y: 1, Z: 0.5}

	walked := walk(s, standing(geom.Pos{Y: 1}), far, false, 20)
	dist := walked.Pos.X - 0.5
	require.Greater(t, dist, 3.5)
	require.Less(t, dist, 4.5)
	require.InDelta(t, 0.5, walked.Pos.Z, 1e-9)

	sprinted := walk(s, standing(geom.Pos{Y: 1}), far, true, 20)
	require.Greater(t, sprinted.Pos.X, walked.Pos.X)
}

func TestJumpPeak(t *testing.T) {
	s := New(pathtest.Flat(0, 8, "bedrock"))
	st := standing(geom.Pos{Y: 1})
	st.Control.Jump = true
	peak := st.Pos.Y
	for i := 0; i < 12; i++ {
		s.Step(&st)
		if st.Pos.Y > peak {
			peak = st.Pos.Y
		}
	}
	require.Greater(t, peak-1, 1.2)
	require.Less(t, peak-1, 1.3)
}

func TestStepsUpSlab(t *testing.T) {
	w := pathtest.Flat(0, 8, "bedrock")
	w.Fill(geom.Pos{X: 1, Y: 1, Z: -1}, geom.Pos{X: 3, Y: 1, Z: 1}, "slab")
	s := New(w)

	st := walk(s, standing(geom.Pos{Y: 1}), geom.Vec3{X: 100, Y: 1, Z: 0.5}, false, 12)
	require.InDelta(t, 1.5, st.Pos.Y, 1e-9)
	require.Greater(t, st.Pos.X, 1.5)
}

func TestWallStopsBody(t *testing.T) {
	w := pathtest.Flat(0, 8, "bedrock")
	w.Fill(geom.Pos{X: 2, Y: 1, Z: -1}, geom.Pos{X: 2, Y: 2, Z: 1}, "stone")
	s := New(w)

	st := walk(s, standing(geom.Pos{Y: 1}), geom.Vec3{X: 100, Y: 1, Z: 0.5}, false, 20)
	require.InDelta(t, 2-HalfWidth, st.Pos.X, 1e-6)
	require.True(t, st.CollidedH)
	require.InDelta(t, 1.0, st.Pos.Y, 1e-9)
}

func TestJumpOntoStep(t *testing.T) {
	w := pathtest.Flat(0, 8, "bedrock")
	w.Set(geom.Pos{X: 1, Y: 1, Z: 0}, "stone")
	s := New(w)
	o := NewOracle(s, pathtest.AgentAt(geom.Pos{Y: 1}), nil)

	landed := func(st State) bool { return st.OnGround && st.Pos.Y > 1.5 }
	st := o.SimulateUntil(landed, Toward(geom.Vec3{X: 1.5, Y: 2, Z: 0.5}, true, false), Lookahead, o.State())
	require.True(t, st.OnGround)
	require.InDelta(t, 2.0, st.Pos.Y, 1e-9)
}

func TestSwimUp(t *testing.T) {
	w := pathtest.Flat(0, 8, "bedrock")
	w.Fill(geom.Pos{X: -2, Y: 1, Z: -2}, geom.Pos{X: 2, Y: 6, Z: 2}, "water")
	s := New(w)
	st := State{Pos: geom.Vec3{X: 0.5, Y: 1, Z: 0.5}, InWater: true}
	st.Control.Jump = true
	for i := 0; i < 20; i++ {
		s.Step(&st)
	}
	require.True(t, st.InWater)
	require.Greater(t, st.Pos.Y, 1.5)
}

func TestOracleStraightLine(t *testing.T) {
	w := pathtest.Flat(0, 8, "bedrock")
	w.Fill(geom.Pos{X: 2, Y: 1, Z: -1}, geom.Pos{X: 2, Y: 2, Z: 1}, "stone")
	o := NewOracle(New(w), pathtest.AgentAt(geom.Pos{Y: 1}), nil)

	require.True(t, o.CanStraightLine(geom.Pos{X: 1, Y: 1}.Center(), false))
	require.False(t, o.CanStraightLine(geom.Pos{X: 3, Y: 1}.Center(), false))
	require.False(t, o.CanStraightLine(geom.Pos{X: 3, Y: 1}.Center(), true))
	require.True(t, o.CanStraightPathTo(geom.Vec3{X: 1.5, Y: 1, Z: 0.5}, 1))
	require.True(t, o.WillBeGrounded())
}

func TestOracleLeavesAgentAlone(t *testing.T) {
	agent := pathtest.AgentAt(geom.Pos{Y: 1})
	o := NewOracle(New(pathtest.Flat(0, 8, "bedrock")), agent, func() Controls { return Controls{Forward: true} })

	st := o.State()
	require.True(t, st.Control.Forward)
	o.CanStraightLine(geom.Pos{X: 1, Y: 1}.Center(), true)
	require.Equal(t, geom.Vec3{X: 0.5, Y: 1, Z: 0.5}, agent.Pos)
}

func TestUnloadedCellsCollide(t *testing.T) {
	w := pathtest.Flat(0, 40, "bedrock")
	w.Unload(geom.ChunkKey{CX: 1, CZ: 0})
	s := New(w)

	start := standing(geom.Pos{X: 14, Y: 1})
	st := walk(s, start, geom.Vec3{X: 100, Y: 1, Z: 0.5}, false, 30)
	require.InDelta(t, 16-HalfWidth, st.Pos.X, 1e-6)
}

func TestSettle(t *testing.T) {
	w := pathtest.Flat(0, 8, "bedrock")
	w.Set(geom.Pos{X: 1, Y: 1, Z: 0}, "slab")
	s := New(w)

	require.Equal(t, 1.0, s.Settle(geom.Pos{Y: 1}.Center()).Y)
	require.InDelta(t, 1.5, s.Settle(geom.Pos{X: 1, Y: 2}.Center()).Y, 1e-9)
	require.InDelta(t, 1.0, s.Settle(geom.Pos{Y: 2}.Center()).Y, 1e-9)
}

func TestWillBeGroundedAtLedge(t *testing.T) {
	w := pathtest.NewWorld()
	w.Fill(geom.Pos{X: -3}, geom.Pos{}, "bedrock")
	agent := &pathtest.Agent{Pos: geom.Vec3{X: 1.25, Y: 1, Z: 0.5}, Vel: geom.Vec3{X: 0.2}, Ground: true, Heading: -math.Pi / 2}
	o := NewOracle(New(w), agent, func() Controls { return Controls{Forward: true} })
	require.False(t, o.WillBeGrounded())

	agent.Pos.X, agent.Vel = 0.5, geom.Vec3{}
	require.True(t, o.WillBeGrounded())
}
