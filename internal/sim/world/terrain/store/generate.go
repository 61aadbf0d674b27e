package store

import genpkg "voxelpath.ai/internal/sim/world/terrain/gen"

func (s *ChunkStore) GenerateChunk(ch *Chunk) {
	g := s.Gen
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx := ch.CX*ChunkSize + x
			wz := ch.CZ*ChunkSize + z
			if g.BoundaryR > 0 && (wx < -g.BoundaryR || wx > g.BoundaryR || wz < -g.BoundaryR || wz > g.BoundaryR) {
				continue
			}
			s.generateColumn(ch, x, z, wx, wz)
		}
	}
}

func (s *ChunkStore) generateColumn(ch *Chunk, x, z, wx, wz int) {
	g := s.Gen
	top := g.FloorY
	biome := "PLAINS"
	spawn := genpkg.WithinSpawnClear(wx, wz, g.SpawnClearRadius)
	if g.Kind == "stepped" && !spawn {
		top = genpkg.TerraceHeight(g.Seed, wx, wz, g.FloorY, g.Relief, g.TerraceSize)
		biome = genpkg.BiomeAt(g.Seed, wx, wz, g.BiomeRegionSize)
	}
	top = min(top, ch.Height-1)

	surface, under := g.Grass, g.Dirt
	if biome == "DESERT" {
		surface, under = g.Sand, g.Sand
	}
	for y := 0; y <= top; y++ {
		b := g.Stone
		switch {
		case y == 0:
			b = g.Bedrock
		case y == top:
			b = surface
		case y >= top-3:
			b = under
		case g.Kind == "stepped" && genpkg.Hash3(g.Seed+101, wx, y, wz)%1000 < uint64(genpkg.ClampPermille(g.OrePermille)):
			b = g.IronOre
		}
		ch.Blocks[ch.index(x, y, z)] = b
	}
	for y := top + 1; y <= g.WaterY && y < ch.Height; y++ {
		ch.Blocks[ch.index(x, y, z)] = g.Water
	}

	if biome == "FOREST" && top >= g.WaterY && genpkg.Hash2(g.Seed+201, wx, wz)%1000 < uint64(genpkg.ClampPermille(g.TreePermille)) {
		for y := top + 1; y <= top+4 && y < ch.Height; y++ {
			ch.Blocks[ch.index(x, y, z)] = g.Log
		}
	}
}
