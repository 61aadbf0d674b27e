package runtime

import (
	"math"
	"time"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/goals"
	"voxelpath.ai/internal/sim/path/pathenv"
	"voxelpath.ai/internal/sim/path/physics"
)

// freeMotionRangeSq is how close a straight walk has to bring the agent to a
// followed entity before the path is skipped.
const freeMotionRangeSq = 4

// steer walks toward the head of the path and pops it on arrival.
func (s *Supervisor) steer(now time.Time) {
	agent := s.env.Agent
	pos := agent.Position()
	target := s.standPoint(0)
	dx, dz := target.X-pos.X, target.Z-pos.Z
	if dx*dx+dz*dz <= reachRadius*reachRadius && (agent.OnGround() || agent.InWater()) {
		s.arrive(now)
		return
	}
	if s.checkStall(now) {
		return
	}

	s.shortcut()
	target = s.standPoint(0)
	dx, dy, dz := target.X-pos.X, target.Y-pos.Y, target.Z-pos.Z

	s.env.Actuator.Look(math.Atan2(-dx, -dz), 0)
	s.setControl(pathenv.ControlForward, true)
	s.setControl(pathenv.ControlBack, false)

	var jump, sprint bool
	switch {
	case s.policy.AllowSprinting && s.oracle.CanStraightLine(target, true):
		sprint = true
	case s.policy.AllowSprinting && s.oracle.CanSprintJump(target):
		jump, sprint = true, true
	case s.oracle.CanStraightLine(target, false):
	case s.oracle.CanWalkJump(target):
		jump = true
	default:
		// Nothing in the look-ahead lands on the node; fall back to jumping
		// when the node is above or across a gap.
		h := math.Sqrt(dx*dx + dz*dz)
		switch {
		case dy > 0.6:
			jump = h < 1.75
		case dy > -0.1 && s.path[0].Parkour:
			jump = h > 1.5 && h < 2.5
		}
	}
	s.setControl(pathenv.ControlJump, jump || agent.InWater())
	s.setControl(pathenv.ControlSprint, sprint)

	// Holding forward would walk off a ledge the head node does not drop to.
	if agent.OnGround() && !jump && !s.path[0].Parkour && dy > -0.1 && !s.oracle.WillBeGrounded() {
		s.setControl(pathenv.ControlForward, false)
	}
}

func (s *Supervisor) arrive(now time.Time) {
	s.lastProgress = now
	s.path = s.path[1:]
	if len(s.path) == 0 {
		if !s.dynamic && s.goalSatisfied() {
			s.reached()
			return
		}
		s.fullStop()
		return
	}
	if s.path[0].HasEdits() {
		s.fullStop()
	}
}

// standPoint is where the body stands on path node i.
func (s *Supervisor) standPoint(i int) geom.Vec3 {
	return s.sim.Settle(s.path[i].Pos().Center())
}

// shortcut drops head nodes while the agent, the head and the node after it
// lie on one edit-free straight line the body can walk.
func (s *Supervisor) shortcut() {
	cur := s.nodeAt()
	for len(s.path) > 1 {
		a, b := s.path[0], s.path[1]
		if a.HasEdits() || b.HasEdits() || a.Parkour || b.Parkour || a.Y != b.Y || a.Y != cur.Y {
			return
		}
		if !colinear(a.Pos().Sub(cur), b.Pos().Sub(a.Pos())) {
			return
		}
		if !s.oracle.CanStraightLine(s.standPoint(1), false) {
			return
		}
		s.path = s.path[1:]
	}
}

// colinear reports whether d is a positive multiple of the unit step u.
func colinear(d, u geom.Pos) bool {
	if u.Y != 0 || d.Y != 0 || geom.Abs(u.X) > 1 || geom.Abs(u.Z) > 1 || (u.X == 0 && u.Z == 0) {
		return false
	}
	k := geom.Abs(d.X)
	if u.X == 0 {
		k = geom.Abs(d.Z)
	}
	return k > 0 && d.X == u.X*k && d.Z == u.Z*k
}

// walkBack heads for the middle of p and reports whether the agent is there.
func (s *Supervisor) walkBack(p geom.Pos) bool {
	pos := s.env.Agent.Position()
	target := p.Center()
	if pos.DistanceTo(target) > 0.2 {
		s.env.Actuator.Look(physics.YawToward(pos, target), 0)
		s.setControl(pathenv.ControlForward, true)
		return false
	}
	s.setControl(pathenv.ControlForward, false)
	return true
}

// freeMotion walks straight at a followed entity when nothing is in the way,
// without planning.
func (s *Supervisor) freeMotion() bool {
	if !s.policy.AllowFreeMotion {
		return false
	}
	f, ok := s.goal.(*goals.Follow)
	if !ok || !f.Tracker.Valid() {
		return false
	}
	target := f.Tracker.Position()
	if !s.oracle.CanStraightPathTo(target, freeMotionRangeSq) {
		return false
	}
	pos := s.env.Agent.Position()
	s.env.Actuator.Look(physics.YawToward(pos, target), 0)
	if pos.DistanceTo(target) > math.Sqrt(f.RangeSq()) {
		s.setControl(pathenv.ControlForward, true)
	} else {
		s.clearControls()
	}
	return true
}
