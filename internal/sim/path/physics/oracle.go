package physics

import (
	"math"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
)

// Lookahead caps every oracle query, in ticks.
const Lookahead = 20

// reachRadius is the horizontal tolerance for "standing on" a waypoint.
const reachRadius = 0.15

// Oracle answers "what happens if I hold these controls" from the agent's
// current state. It never touches the live body.
type Oracle struct {
	Sim   *Sim
	Agent pathenv.Agent
	// Controls reports the controls currently held; nil means none.
	Controls func() Controls
}

func NewOracle(s *Sim, agent pathenv.Agent, controls func() Controls) *Oracle {
	return &Oracle{Sim: s, Agent: agent, Controls: controls}
}

// State snapshots the live agent.
func (o *Oracle) State() State {
	st := State{
		Pos:      o.Agent.Position(),
		Vel:      o.Agent.Velocity(),
		Yaw:      o.Agent.Yaw(),
		OnGround: o.Agent.OnGround(),
		InWater:  o.Agent.InWater(),
	}
	st.OnClimbable = o.Sim.onClimbable(st.Pos)
	if o.Controls != nil {
		st.Control = o.Controls()
	}
	return st
}

// SimulateUntil steps st up to ticks times, running ctl before each step,
// and stops early once done holds.
func (o *Oracle) SimulateUntil(done func(State) bool, ctl func(*State), ticks int, st State) State {
	for i := 0; i < ticks; i++ {
		if ctl != nil {
			ctl(&st)
		}
		o.Sim.Step(&st)
		if done != nil && done(st) {
			return st
		}
	}
	return st
}

// Reached is true when a state stands on target: within 0.15 horizontally,
// at its exact height, and grounded or swimming.
func Reached(target geom.Vec3) func(State) bool {
	return func(st State) bool {
		dx, dy, dz := target.X-st.Pos.X, target.Y-st.Pos.Y, target.Z-st.Pos.Z
		return dx*dx+dz*dz <= reachRadius*reachRadius && math.Abs(dy) < 0.001 && (st.OnGround || st.InWater)
	}
}

// Toward faces target each tick and holds forward plus the given jump and
// sprint controls.
func Toward(target geom.Vec3, jump, sprint bool) func(*State) {
	return func(st *State) {
		st.Yaw = YawToward(st.Pos, target)
		st.Control.Forward = true
		st.Control.Jump = jump
		st.Control.Sprint = sprint
	}
}

func (o *Oracle) try(target geom.Vec3, jump, sprint bool) bool {
	reached := Reached(target)
	st := o.SimulateUntil(reached, Toward(target, jump, sprint), Lookahead, o.State())
	return reached(st)
}

func (o *Oracle) CanStraightLine(target geom.Vec3, sprint bool) bool {
	return o.try(target, false, sprint)
}

func (o *Oracle) CanSprintJump(target geom.Vec3) bool {
	return o.try(target, true, true)
}

func (o *Oracle) CanWalkJump(target geom.Vec3) bool {
	return o.try(target, true, false)
}

// CanStraightPathTo reports whether walking straight at target brings the
// body within sqrt(rangeSq) of it without leaving the ground or bumping into
// anything on the way.
func (o *Oracle) CanStraightPathTo(target geom.Vec3, rangeSq float64) bool {
	st := o.State()
	st.Control = Controls{}
	ctl := Toward(target, false, false)
	for i := 0; i < Lookahead; i++ {
		ctl(&st)
		o.Sim.Step(&st)
		if st.Pos.Sub(target).Len() <= math.Sqrt(rangeSq) {
			return true
		}
		if !st.OnGround || st.CollidedH {
			return false
		}
	}
	return false
}

// WillBeGrounded reports whether the body is on the ground after one more
// tick with the current controls.
func (o *Oracle) WillBeGrounded() bool {
	st := o.SimulateUntil(nil, nil, 1, o.State())
	return st.OnGround
}
