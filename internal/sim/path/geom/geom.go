package geom

import (
	"fmt"
	"math"
)

// Pos is an integer cell coordinate.
type Pos struct {
	X int
	Y int
	Z int
}

func (p Pos) Offset(dx, dy, dz int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func (p Pos) Add(o Pos) Pos {
	return Pos{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

func (p Pos) Sub(o Pos) Pos {
	return Pos{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// Hash is the canonical "x,y,z" key for the cell.
func (p Pos) Hash() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

func (p Pos) String() string {
	return "(" + p.Hash() + ")"
}

// Center returns the float position at the middle of the cell's floor.
func (p Pos) Center() Vec3 {
	return Vec3{X: float64(p.X) + 0.5, Y: float64(p.Y), Z: float64(p.Z) + 0.5}
}

// Vec returns the float position of the cell's minimum corner.
func (p Pos) Vec() Vec3 {
	return Vec3{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

// ChunkKey returns the 16x16 column the cell belongs to.
func (p Pos) ChunkKey() ChunkKey {
	return ChunkKey{CX: p.X >> 4, CZ: p.Z >> 4}
}

type ChunkKey struct {
	CX int
	CZ int
}

// Adjacent reports whether two chunk columns touch (including diagonally) or coincide.
func (k ChunkKey) Adjacent(o ChunkKey) bool {
	return abs(k.CX-o.CX) <= 1 && abs(k.CZ-o.CZ) <= 1
}

// Vec3 is a float position or direction.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}
func (v Vec3) Offset(dx, dy, dz float64) Vec3 {
	return Vec3{X: v.X + dx, Y: v.Y + dy, Z: v.Z + dz}
}

func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

func (v Vec3) DistanceTo(o Vec3) float64 { return v.Sub(o).Len() }

func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Floored returns the cell containing v.
func (v Vec3) Floored() Pos {
	return Pos{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y)), Z: int(math.Floor(v.Z))}
}

// AABB is an axis-aligned box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// FullCube is the shape of a full block in cell-local coordinates.
var FullCube = AABB{Min: Vec3{}, Max: Vec3{X: 1, Y: 1, Z: 1}}

func (b AABB) Offset(v Vec3) AABB {
	return AABB{Min: b.Min.Add(v), Max: b.Max.Add(v)}
}

func (b AABB) Intersects(o AABB) bool {
	return b.Min.X < o.Max.X && b.Max.X > o.Min.X &&
		b.Min.Y < o.Max.Y && b.Max.Y > o.Min.Y &&
		b.Min.Z < o.Max.Z && b.Max.Z > o.Min.Z
}

// Extend grows the box along a motion vector so it covers the swept volume.
func (b AABB) Extend(d Vec3) AABB {
	out := b
	if d.X < 0 {
		out.Min.X += d.X
	} else {
		out.Max.X += d.X
	}
	if d.Y < 0 {
		out.Min.Y += d.Y
	} else {
		out.Max.Y += d.Y
	}
	if d.Z < 0 {
		out.Min.Z += d.Z
	} else {
		out.Max.Z += d.Z
	}
	return out
}

// clipEps absorbs rounding so a box resting exactly on a face stays on it.
const clipEps = 1e-7

// ClipX returns how far o can move along X by dx before hitting b.
func (b AABB) ClipX(o AABB, dx float64) float64 {
	if o.Max.Y <= b.Min.Y+clipEps || o.Min.Y >= b.Max.Y-clipEps || o.Max.Z <= b.Min.Z+clipEps || o.Min.Z >= b.Max.Z-clipEps {
		return dx
	}
	if dx > 0 && o.Max.X <= b.Min.X+clipEps {
		if d := b.Min.X - o.Max.X; d < dx {
			return d
		}
	} else if dx < 0 && o.Min.X >= b.Max.X-clipEps {
		if d := b.Max.X - o.Min.X; d > dx {
			return d
		}
	}
	return dx
}

func (b AABB) ClipY(o AABB, dy float64) float64 {
	if o.Max.X <= b.Min.X+clipEps || o.Min.X >= b.Max.X-clipEps || o.Max.Z <= b.Min.Z+clipEps || o.Min.Z >= b.Max.Z-clipEps {
		return dy
	}
	if dy > 0 && o.Max.Y <= b.Min.Y+clipEps {
		if d := b.Min.Y - o.Max.Y; d < dy {
			return d
		}
	} else if dy < 0 && o.Min.Y >= b.Max.Y-clipEps {
		if d := b.Max.Y - o.Min.Y; d > dy {
			return d
		}
	}
	return dy
}

func (b AABB) ClipZ(o AABB, dz float64) float64 {
	if o.Max.X <= b.Min.X+clipEps || o.Min.X >= b.Max.X-clipEps || o.Max.Y <= b.Min.Y+clipEps || o.Min.Y >= b.Max.Y-clipEps {
		return dz
	}
	if dz > 0 && o.Max.Z <= b.Min.Z+clipEps {
		if d := b.Min.Z - o.Max.Z; d < dz {
			return d
		}
	} else if dz < 0 && o.Min.Z >= b.Max.Z-clipEps {
		if d := b.Max.Z - o.Min.Z; d > dz {
			return d
		}
	}
	return dz
}

// OctileXZ is the horizontal distance when straight steps cost 1 and diagonal steps cost sqrt(2).
func OctileXZ(dx, dz int) float64 {
	ax := float64(abs(dx))
	az := float64(abs(dz))
	return math.Abs(ax-az) + math.Min(ax, az)*math.Sqrt2
}

func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func Abs(v int) int { return abs(v) }
