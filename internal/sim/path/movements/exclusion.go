package movements

import (
	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
)

// ExclusionArea returns an additive cost for touching a block. Zero leaves the
// block alone; 100 or more forbids it.
type ExclusionArea func(b pathenv.Block) float64

// Sphere weights every cell within radius of center (inclusive).
func Sphere(center geom.Pos, radius, weight float64) ExclusionArea {
	r2 := radius * radius
	return func(b pathenv.Block) float64 {
		dx := float64(b.Pos.X - center.X)
		dy := float64(b.Pos.Y - center.Y)
		dz := float64(b.Pos.Z - center.Z)
		if dx*dx+dy*dy+dz*dz <= r2 {
			return weight
		}
		return 0
	}
}

// Box weights every cell of the inclusive box.
func Box(min, max geom.Pos, weight float64) ExclusionArea {
	return func(b pathenv.Block) float64 {
		p := b.Pos
		if p.X >= min.X && p.X <= max.X && p.Y >= min.Y && p.Y <= max.Y && p.Z >= min.Z && p.Z <= max.Z {
			return weight
		}
		return 0
	}
}

func Cell(at geom.Pos, weight float64) ExclusionArea {
	return Box(at, at, weight)
}

// Types weights blocks by type name, wherever they are.
func Types(weight float64, names ...string) ExclusionArea {
	set := NewBlockSet(names...)
	return func(b pathenv.Block) float64 {
		if set.Has(b.Type) {
			return weight
		}
		return 0
	}
}

func sumAreas(areas []ExclusionArea, b pathenv.Block) float64 {
	w := 0.0
	for _, a := range areas {
		w += a(b)
	}
	return w
}
