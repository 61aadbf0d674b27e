// Package physics steps a player-sized body through the block world. The
// same Step drives the simulated agent and the look-ahead queries the
// supervisor uses to pick between walking, sprinting and jumping.
package physics

import (
	"math"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
)

// Per-tick constants, in blocks and blocks/tick.
const (
	Gravity          = 0.08
	AirDrag          = 0.98
	JumpSpeed        = 0.42
	SprintJumpBoost  = 0.2
	StepHeight       = 0.6
	HalfWidth        = 0.3
	Height           = 1.8
	Slipperiness     = 0.6
	AirborneInertia  = 0.91
	AirborneAccel    = 0.02
	SprintMultiplier = 1.3
	SneakMultiplier  = 0.3
	WaterInertia     = 0.8
	WaterGravity     = 0.02
	WaterAccel       = 0.02
	WaterJump        = 0.04
	ClimbSpeed       = 0.2
	ClimbMaxSpeed    = 0.15
	Negligible       = 0.003
	groundProbe      = 0.001
	// JumpCooldown is how many ticks a held jump waits before jumping again.
	JumpCooldown = 10
)

type Controls struct {
	Forward bool
	Back    bool
	Left    bool
	Right   bool
	Jump    bool
	Sprint  bool
	Sneak   bool
}

// Set maps a named control onto the struct.
func (c *Controls) Set(name pathenv.Control, on bool) {
	switch name {
	case pathenv.ControlForward:
		c.Forward = on
	case pathenv.ControlBack:
		c.Back = on
	case pathenv.ControlLeft:
		c.Left = on
	case pathenv.ControlRight:
		c.Right = on
	case pathenv.ControlJump:
		c.Jump = on
	case pathenv.ControlSprint:
		c.Sprint = on
	case pathenv.ControlSneak:
		c.Sneak = on
	}
}

// State is everything Step reads and writes. Copies are independent.
type State struct {
	Pos         geom.Vec3
	Vel         geom.Vec3
	Yaw         float64
	OnGround    bool
	InWater     bool
	OnClimbable bool
	CollidedH   bool
	JumpTicks   int
	Control     Controls
}

// BoundingBox is the body's box at its current position.
func (st *State) BoundingBox() geom.AABB {
	return bodyAt(st.Pos)
}

func bodyAt(p geom.Vec3) geom.AABB {
	return geom.AABB{
		Min: geom.Vec3{X: p.X - HalfWidth, Y: p.Y, Z: p.Z - HalfWidth},
		Max: geom.Vec3{X: p.X + HalfWidth, Y: p.Y + Height, Z: p.Z + HalfWidth},
	}
}

// ForwardDir is the horizontal unit vector for a yaw; yaw 0 faces -Z.
func ForwardDir(yaw float64) (x, z float64) {
	return -math.Sin(yaw), -math.Cos(yaw)
}

// YawToward faces from one point toward another on the horizontal plane.
func YawToward(from, to geom.Vec3) float64 {
	return math.Atan2(-(to.X - from.X), -(to.Z - from.Z))
}

type Sim struct {
	World pathenv.World
	// IsWater and IsClimbable classify blocks; defaults match by type name.
	IsWater     func(b pathenv.Block) bool
	IsClimbable func(b pathenv.Block) bool
}

func New(w pathenv.World) *Sim {
	return &Sim{
		World:       w,
		IsWater:     func(b pathenv.Block) bool { return b.Type == "water" },
		IsClimbable: func(b pathenv.Block) bool { return b.Type == "ladder" || b.Type == "vine" },
	}
}

// Step advances st by one tick.
func (s *Sim) Step(st *State) {
	vel := st.Vel
	if math.Abs(vel.X) < Negligible {
		vel.X = 0
	}
	if math.Abs(vel.Y) < Negligible {
		vel.Y = 0
	}
	if math.Abs(vel.Z) < Negligible {
		vel.Z = 0
	}

	ctl := st.Control
	if ctl.Jump {
		if st.JumpTicks > 0 {
			st.JumpTicks--
		}
		switch {
		case st.InWater:
			vel.Y += WaterJump
		case st.OnGround && st.JumpTicks == 0:
			vel.Y = JumpSpeed
			if ctl.Sprint {
				fx, fz := ForwardDir(st.Yaw)
				vel.X += fx * SprintJumpBoost
				vel.Z += fz * SprintJumpBoost
			}
			st.JumpTicks = JumpCooldown
		}
	} else {
		st.JumpTicks = 0
	}

	forward := axis(ctl.Forward, ctl.Back) * 0.98
	strafe := axis(ctl.Right, ctl.Left) * 0.98
	if ctl.Sneak {
		forward *= SneakMultiplier
		strafe *= SneakMultiplier
	}

	if st.InWater {
		vel = applyHeading(vel, st.Yaw, strafe, forward, WaterAccel)
		vel = s.move(st, vel)
		vel.X *= WaterInertia
		vel.Y *= WaterInertia
		vel.Z *= WaterInertia
		vel.Y -= WaterGravity
	} else {
		inertia, accel := AirborneInertia, AirborneAccel
		if st.OnGround {
			inertia = Slipperiness * 0.91
			accel = 0.1 * (0.1627714 / (inertia * inertia * inertia))
		}
		if ctl.Sprint {
			accel *= SprintMultiplier
		}
		vel = applyHeading(vel, st.Yaw, strafe, forward, accel)
		if st.OnClimbable {
			vel.X = clamp(vel.X, -ClimbMaxSpeed, ClimbMaxSpeed)
			vel.Z = clamp(vel.Z, -ClimbMaxSpeed, ClimbMaxSpeed)
			vel.Y = math.Max(vel.Y, -ClimbMaxSpeed)
		}
		vel = s.move(st, vel)
		if st.OnClimbable && (st.CollidedH || ctl.Jump) {
			vel.Y = ClimbSpeed
		}
		vel.Y -= Gravity
		vel.Y *= AirDrag
		vel.X *= inertia
		vel.Z *= inertia
	}
	st.Vel = vel
	st.InWater = s.inWater(st.Pos)
	st.OnClimbable = s.onClimbable(st.Pos)
}

func axis(pos, neg bool) float64 {
	v := 0.0
	if pos {
		v++
	}
	if neg {
		v--
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func applyHeading(vel geom.Vec3, yaw, strafe, forward, accel float64) geom.Vec3 {
	speed := math.Sqrt(strafe*strafe + forward*forward)
	if speed < 0.01 {
		return vel
	}
	k := accel / math.Max(speed, 1)
	strafe *= k
	forward *= k
	fx, fz := ForwardDir(yaw)
	// Right is forward rotated a quarter turn clockwise seen from above.
	rx, rz := -fz, fx
	vel.X += forward*fx + strafe*rx
	vel.Z += forward*fz + strafe*rz
	return vel
}

// move displaces the body by vel, resolving collisions, and returns the
// velocity with blocked components zeroed.
func (s *Sim) move(st *State, vel geom.Vec3) geom.Vec3 {
	dx, dy, dz := vel.X, vel.Y, vel.Z
	bb := bodyAt(st.Pos)

	if st.Control.Sneak && st.OnGround {
		dx, dz = s.guardEdge(bb, dx, dz)
	}
	wantX, wantZ := dx, dz

	shapes := s.collisions(bb.Extend(geom.Vec3{X: dx, Y: dy, Z: dz}))
	moved, ry, rx, rz := slide(bb, shapes, dx, dy, dz)

	grounded := st.OnGround || (dy != ry && dy < 0)
	if grounded && (rx != wantX || rz != wantZ) {
		up := s.collisions(bb.Extend(geom.Vec3{X: wantX, Y: StepHeight, Z: wantZ}))
		stepped, sy, sx, sz := slide(bb, up, wantX, StepHeight, wantZ)
		// Settle back down onto whatever we stepped onto.
		down := -sy
		for _, sh := range s.collisions(stepped.Extend(geom.Vec3{Y: down})) {
			down = sh.ClipY(stepped, down)
		}
		stepped = stepped.Offset(geom.Vec3{Y: down})
		if sx*sx+sz*sz > rx*rx+rz*rz {
			moved, rx, rz = stepped, sx, sz
			ry = sy + down
		}
	}

	st.Pos = geom.Vec3{X: (moved.Min.X + moved.Max.X) / 2, Y: moved.Min.Y, Z: (moved.Min.Z + moved.Max.Z) / 2}
	st.CollidedH = rx != wantX || rz != wantZ
	st.OnGround = dy != ry && dy < 0
	if dy == 0 {
		// At rest: grounded when something is right under the feet.
		st.OnGround = s.collides(moved.Offset(geom.Vec3{Y: -groundProbe}))
	}
	if rx != wantX {
		vel.X = 0
	}
	if rz != wantZ {
		vel.Z = 0
	}
	if ry != dy {
		vel.Y = 0
	}
	return vel
}

// slide clips y, then x, then z against shapes.
func slide(bb geom.AABB, shapes []geom.AABB, dx, dy, dz float64) (geom.AABB, float64, float64, float64) {
	for _, sh := range shapes {
		dy = sh.ClipY(bb, dy)
	}
	bb = bb.Offset(geom.Vec3{Y: dy})
	for _, sh := range shapes {
		dx = sh.ClipX(bb, dx)
	}
	bb = bb.Offset(geom.Vec3{X: dx})
	for _, sh := range shapes {
		dz = sh.ClipZ(bb, dz)
	}
	bb = bb.Offset(geom.Vec3{Z: dz})
	return bb, dy, dx, dz
}

// guardEdge shortens horizontal motion so a sneaking body keeps something
// under its feet.
func (s *Sim) guardEdge(bb geom.AABB, dx, dz float64) (float64, float64) {
	const step = 0.05
	shrink := func(v float64) float64 {
		switch {
		case v < step && v >= -step:
			return 0
		case v > 0:
			return v - step
		default:
			return v + step
		}
	}
	for dx != 0 && !s.collides(bb.Offset(geom.Vec3{X: dx, Y: -1})) {
		dx = shrink(dx)
	}
	for dz != 0 && !s.collides(bb.Offset(geom.Vec3{Y: -1, Z: dz})) {
		dz = shrink(dz)
	}
	for dx != 0 && dz != 0 && !s.collides(bb.Offset(geom.Vec3{X: dx, Y: -1, Z: dz})) {
		dx = shrink(dx)
		dz = shrink(dz)
	}
	return dx, dz
}

func (s *Sim) collides(bb geom.AABB) bool {
	for _, sh := range s.collisions(bb) {
		if sh.Intersects(bb) {
			return true
		}
	}
	return false
}

// collisions returns world-space shapes of every solid cell overlapping area.
// Cells that are not loaded collide as full cubes.
func (s *Sim) collisions(area geom.AABB) []geom.AABB {
	var out []geom.AABB
	lo := area.Min.Floored()
	hi := area.Max.Floored()
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y - 1; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				p := geom.Pos{X: x, Y: y, Z: z}
				b, ok := s.World.BlockAt(p)
				if !ok {
					out = append(out, geom.FullCube.Offset(p.Vec()))
					continue
				}
				if b.BoundingBox != pathenv.BoundingBoxBlock {
					continue
				}
				for _, sh := range b.Shapes {
					out = append(out, sh.Offset(p.Vec()))
				}
			}
		}
	}
	return out
}

func (s *Sim) inWater(pos geom.Vec3) bool {
	bb := bodyAt(pos)
	bb.Min = bb.Min.Offset(0.001, 0.401, 0.001)
	bb.Max = bb.Max.Offset(-0.001, -0.001, -0.001)
	lo, hi := bb.Min.Floored(), bb.Max.Floored()
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				if b, ok := s.World.BlockAt(geom.Pos{X: x, Y: y, Z: z}); ok && s.IsWater(b) {
					return true
				}
			}
		}
	}
	return false
}

func (s *Sim) onClimbable(pos geom.Vec3) bool {
	b, ok := s.World.BlockAt(pos.Floored())
	return ok && s.IsClimbable(b)
}

// Settle lowers a standing point onto the first surface at most one block
// below it, so a node above a slab resolves to the slab's top.
func (s *Sim) Settle(p geom.Vec3) geom.Vec3 {
	bb := bodyAt(p)
	dy := -1.0
	for _, sh := range s.collisions(bb.Extend(geom.Vec3{Y: dy})) {
		dy = sh.ClipY(bb, dy)
	}
	return p.Offset(0, dy, 0)
}
