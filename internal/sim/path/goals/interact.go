package goals

import (
	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
)

const (
	EyeHeight    = 1.62
	DefaultReach = 4.5
)

var faceDirs = []geom.Pos{
	{Y: -1}, {Y: 1}, {Z: -1}, {Z: 1}, {X: -1}, {X: 1},
}

func eyeAt(p geom.Pos) geom.Vec3 {
	return p.Center().Offset(0, EyeHeight, 0)
}

func blockCenter(p geom.Pos) geom.Vec3 {
	return p.Vec().Offset(0.5, 0.5, 0.5)
}

// PlaceBlock ends at a cell from which a block can be placed into Target: the
// agent does not occupy Target, is within Range, and some solid neighbor of
// Target exposes a clickable face (visible when LOS is set).
type PlaceBlock struct {
	static
	Target geom.Pos
	World  pathenv.World
	Range  float64
	Faces  []geom.Pos
	LOS    bool
}

func NewPlaceBlock(target geom.Pos, w pathenv.World, rng float64, los bool) PlaceBlock {
	if rng <= 0 {
		rng = 5
	}
	return PlaceBlock{Target: target, World: w, Range: rng, Faces: faceDirs, LOS: los}
}

func (g PlaceBlock) Heuristic(p geom.Pos) float64 {
	return distance(g.Target.X-p.X, g.Target.Y-p.Y, g.Target.Z-p.Z)
}

func (g PlaceBlock) IsEnd(p geom.Pos) bool {
	if p == g.Target || p.Offset(0, 1, 0) == g.Target {
		return false
	}
	eye := eyeAt(p)
	center := blockCenter(g.Target)
	if eye.DistanceTo(center) > g.Range {
		return false
	}
	for _, f := range g.Faces {
		ref := g.Target.Add(f)
		b, ok := g.World.BlockAt(ref)
		if !ok || b.BoundingBox != pathenv.BoundingBoxBlock {
			continue
		}
		if !g.LOS {
			return true
		}
		aim := center.Add(f.Vec().Scale(0.55))
		hit, ok := g.World.Raycast(eye, aim.Sub(eye).Normalize(), g.Range)
		if ok && hit.Pos == ref && hit.Face == (geom.Pos{X: -f.X, Y: -f.Y, Z: -f.Z}) {
			return true
		}
	}
	return false
}

// LookAtBlock ends where the eye can see Target within Reach. It is also the
// goal used before breaking a block.
type LookAtBlock struct {
	static
	Target geom.Pos
	World  pathenv.World
	Reach  float64
}

func NewLookAtBlock(target geom.Pos, w pathenv.World, reach float64) LookAtBlock {
	if reach <= 0 {
		reach = DefaultReach
	}
	return LookAtBlock{Target: target, World: w, Reach: reach}
}

// NewBreakBlock is the goal for standing where Target can be mined.
func NewBreakBlock(target geom.Pos, w pathenv.World) LookAtBlock {
	return NewLookAtBlock(target, w, DefaultReach)
}

func (g LookAtBlock) Heuristic(p geom.Pos) float64 {
	return distance(g.Target.X-p.X, g.Target.Y-p.Y, g.Target.Z-p.Z)
}

func (g LookAtBlock) IsEnd(p geom.Pos) bool {
	eye := eyeAt(p)
	center := blockCenter(g.Target)
	if eye.DistanceTo(center) > g.Reach {
		return false
	}
	hit, ok := g.World.Raycast(eye, center.Sub(eye).Normalize(), g.Reach)
	return ok && hit.Pos == g.Target
}
