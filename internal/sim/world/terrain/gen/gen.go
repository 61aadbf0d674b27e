package gen

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

// Hash2 is a deterministic splitmix-style hash of a seed and a column.
func Hash2(seed int64, x, z int) uint64 {
	return mix(uint64(seed) ^ uint64(int64(x))*0x9E3779B97F4A7C15 ^ uint64(int64(z))*0xC2B2AE3D27D4EB4F)
}

func Hash3(seed int64, x, y, z int) uint64 {
	return mix(Hash2(seed, x, z) ^ uint64(int64(y))*0x165667B19E3779F9)
}

func mix(v uint64) uint64 {
	v ^= v >> 30
	v *= 0xBF58476D1CE4E5B9
	v ^= v >> 27
	v *= 0x94D049BB133111EB
	v ^= v >> 31
	return v
}

func BiomeFrom(noise uint64) string {
	switch noise % 3 {
	case 0:
		return "PLAINS"
	case 1:
		return "FOREST"
	default:
		return "DESERT"
	}
}

func BiomeAt(seed int64, x, z, regionSize int) string {
	if regionSize <= 0 {
		regionSize = 1
	}
	rx := FloorDiv(x, regionSize)
	rz := FloorDiv(z, regionSize)
	return BiomeFrom(Hash2(seed, rx, rz))
}

func WithinSpawnClear(x, z, radius int) bool {
	if radius <= 0 {
		return false
	}
	r := int64(radius)
	dx := int64(x)
	dz := int64(z)
	return dx*dx+dz*dz <= r*r
}

func ClampPermille(v int) int {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return v
}

// TerraceHeight is the surface height of a stepped world: square terraces
// of size cells, each raised 0..relief blocks above floor.
func TerraceHeight(seed int64, x, z, floor, relief, size int) int {
	if relief <= 0 {
		return floor
	}
	if size <= 0 {
		size = 8
	}
	h := Hash2(seed, FloorDiv(x, size), FloorDiv(z, size))
	return floor + int(h%uint64(relief+1))
}
