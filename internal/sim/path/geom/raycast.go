package geom

import "math"

type RayHit struct {
	Pos   Pos
	Face  Pos
	Point Vec3
	Dist  float64
}

// Raycast walks the cells crossed by the ray (voxel DDA) and intersects the
// collision boxes returned by shapes for each cell. Boxes are cell-local.
func Raycast(origin, dir Vec3, maxDist float64, shapes func(Pos) []AABB) (RayHit, bool) {
	dir = dir.Normalize()
	if dir == (Vec3{}) || maxDist <= 0 {
		return RayHit{}, false
	}
	cell := origin.Floored()
	stepX, tMaxX, tDeltaX := ddaAxis(origin.X, dir.X, cell.X)
	stepY, tMaxY, tDeltaY := ddaAxis(origin.Y, dir.Y, cell.Y)
	stepZ, tMaxZ, tDeltaZ := ddaAxis(origin.Z, dir.Z, cell.Z)

	t := 0.0
	for t <= maxDist {
		if boxes := shapes(cell); len(boxes) > 0 {
			best := math.Inf(1)
			var face Pos
			for _, b := range boxes {
				if d, f, ok := intersectRay(origin, dir, b.Offset(cell.Vec())); ok && d < best {
					best, face = d, f
				}
			}
			if best <= maxDist {
				return RayHit{Pos: cell, Face: face, Point: origin.Add(dir.Scale(best)), Dist: best}, true
			}
		}
		switch {
		case tMaxX < tMaxY && tMaxX < tMaxZ:
			t = tMaxX
			tMaxX += tDeltaX
			cell.X += stepX
		case tMaxY < tMaxZ:
			t = tMaxY
			tMaxY += tDeltaY
			cell.Y += stepY
		default:
			t = tMaxZ
			tMaxZ += tDeltaZ
			cell.Z += stepZ
		}
	}
	return RayHit{}, false
}

func ddaAxis(o, d float64, c int) (step int, tMax, tDelta float64) {
	switch {
	case d > 0:
		return 1, (float64(c+1) - o) / d, 1 / d
	case d < 0:
		return -1, (o - float64(c)) / -d, -1 / d
	default:
		return 0, math.Inf(1), math.Inf(1)
	}
}

// intersectRay is a slab test returning the entry distance and the entry face normal.
func intersectRay(o, d Vec3, b AABB) (float64, Pos, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	var face Pos
	axes := [3]struct {
		o, d, lo, hi float64
		n           Pos
	}{
		{o.X, d.X, b.Min.X, b.Max.X, Pos{X: 1}},
		{o.Y, d.Y, b.Min.Y, b.Max.Y, Pos{Y: 1}},
		{o.Z, d.Z, b.Min.Z, b.Max.Z, Pos{Z: 1}},
	}
	for _, a := range axes {
		if a.d == 0 {
			if a.o < a.lo || a.o > a.hi {
				return 0, Pos{}, false
			}
			continue
		}
		t1 := (a.lo - a.o) / a.d
		t2 := (a.hi - a.o) / a.d
		n := Pos{X: -a.n.X, Y: -a.n.Y, Z: -a.n.Z}
		if t1 > t2 {
			t1, t2 = t2, t1
			n = a.n
		}
		if t1 > tmin {
			tmin, face = t1, n
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, Pos{}, false
		}
	}
	if tmax < 0 {
		return 0, Pos{}, false
	}
	if tmin < 0 {
		tmin = 0
	}
	return tmin, face, true
}
