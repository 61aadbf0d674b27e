// Package goals defines what the search is trying to reach. Every goal exposes an
// admissible-ish heuristic, an end predicate and a change signal for dynamic targets.
//
// Horizontal distance is octile (straight steps cost 1, diagonal steps sqrt(2)) and
// vertical distance is added linearly, matching the movement cost structure.
package goals

import (
	"math"

	"voxelpath.ai/internal/sim/path/geom"
)

type Goal interface {
	Heuristic(p geom.Pos) float64
	IsEnd(p geom.Pos) bool
	// HasChanged is polled once per tick by the supervisor; true forces a replan.
	HasChanged() bool
}

type static struct{}

func (static) HasChanged() bool { return false }

func distance(dx, dy, dz int) float64 {
	return geom.OctileXZ(dx, dz) + math.Abs(float64(dy))
}

// Block is reached by standing in one exact cell.
type Block struct {
	static
	Target geom.Pos
}

func NewBlock(x, y, z int) Block {
	return Block{Target: geom.Pos{X: x, Y: y, Z: z}}
}

func (g Block) Heuristic(p geom.Pos) float64 {
	return distance(g.Target.X-p.X, g.Target.Y-p.Y, g.Target.Z-p.Z)
}

func (g Block) IsEnd(p geom.Pos) bool { return p == g.Target }

// Near is reached strictly inside a sphere: a cell exactly Range away does not count.
type Near struct {
	static
	Target  geom.Pos
	RangeSq float64
}

func NewNear(x, y, z int, rng float64) Near {
	return Near{Target: geom.Pos{X: x, Y: y, Z: z}, RangeSq: rng * rng}
}

func (g Near) Heuristic(p geom.Pos) float64 {
	return distance(g.Target.X-p.X, g.Target.Y-p.Y, g.Target.Z-p.Z)
}

func (g Near) IsEnd(p geom.Pos) bool {
	return distSq(g.Target, p) < g.RangeSq
}

// XZ ignores height.
type XZ struct {
	static
	X int
	Z int
}

func NewXZ(x, z int) XZ { return XZ{X: x, Z: z} }

func (g XZ) Heuristic(p geom.Pos) float64 { return geom.OctileXZ(g.X-p.X, g.Z-p.Z) }

func (g XZ) IsEnd(p geom.Pos) bool { return p.X == g.X && p.Z == g.Z }

// Y is any cell at a given height.
type Y struct {
	static
	Y int
}

func NewY(y int) Y { return Y{Y: y} }

func (g Y) Heuristic(p geom.Pos) float64 { return math.Abs(float64(g.Y - p.Y)) }

func (g Y) IsEnd(p geom.Pos) bool { return p.Y == g.Y }

// GetToBlock ends next to the target cell rather than inside it. Stepping down
// onto a neighbor of the target counts as adjacent.
type GetToBlock struct {
	static
	Target geom.Pos
}

func NewGetToBlock(x, y, z int) GetToBlock {
	return GetToBlock{Target: geom.Pos{X: x, Y: y, Z: z}}
}

func (g GetToBlock) Heuristic(p geom.Pos) float64 {
	dx, dy, dz := p.X-g.Target.X, p.Y-g.Target.Y, p.Z-g.Target.Z
	return geom.OctileXZ(dx, dz) + math.Abs(float64(adjustDY(dy)))
}

// IsEnd measures dy from the agent's feet up to the target, so a target at
// head height is adjacent and the cell on top of a neighbor is too.
func (g GetToBlock) IsEnd(p geom.Pos) bool {
	dx, dy, dz := g.Target.X-p.X, g.Target.Y-p.Y, g.Target.Z-p.Z
	return geom.Abs(dx)+geom.Abs(adjustDY(dy))+geom.Abs(dz) == 1
}

func adjustDY(dy int) int {
	if dy < 0 {
		return dy + 1
	}
	return dy
}

func distSq(a, b geom.Pos) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	dz := float64(a.Z - b.Z)
	return dx*dx + dy*dy + dz*dz
}
