package goals

import (
	"voxelpath.ai/internal/sim/path/geom"
)

// Tracker is a moving reference, usually an entity.
type Tracker interface {
	Position() geom.Vec3
	// Valid is false once the reference is gone.
	Valid() bool
}

// Follow tracks a moving reference. Heuristic and IsEnd only read the cached cell;
// the cache is updated by Refresh (called through HasChanged once per tick).
type Follow struct {
	Tracker   Tracker
	target    geom.Pos
	rangeSq   float64
	changedSq float64
}

// NewFollow uses rng both as the acceptance range and as the replan threshold.
func NewFollow(t Tracker, rng float64) *Follow {
	return &Follow{
		Tracker:   t,
		target:    t.Position().Floored(),
		rangeSq:   rng * rng,
		changedSq: rng * rng,
	}
}

// WithChangedRange sets how far the reference must move before a replan.
func (g *Follow) WithChangedRange(rng float64) *Follow {
	g.changedSq = rng * rng
	return g
}

func (g *Follow) Target() geom.Pos { return g.target }

func (g *Follow) RangeSq() float64 { return g.rangeSq }

func (g *Follow) Heuristic(p geom.Pos) float64 {
	return distance(g.target.X-p.X, g.target.Y-p.Y, g.target.Z-p.Z)
}

func (g *Follow) IsEnd(p geom.Pos) bool {
	if !g.Tracker.Valid() {
		return true
	}
	return distSq(g.target, p) <= g.rangeSq
}

// Refresh re-floors the live position and moves the cached target when it
// drifted outside the changed range. It reports whether the cache moved.
func (g *Follow) Refresh(live geom.Vec3) bool {
	p := live.Floored()
	if distSq(g.target, p) > g.changedSq {
		g.target = p
		return true
	}
	return false
}

func (g *Follow) HasChanged() bool {
	if !g.Tracker.Valid() {
		return false
	}
	return g.Refresh(g.Tracker.Position())
}
