package store

import (
	"fmt"
	"sort"

	genpkg "voxelpath.ai/internal/sim/world/terrain/gen"
)

func (s *ChunkStore) InBounds(x, y, z int) bool {
	if y < 0 || y >= s.Gen.Height {
		return false
	}
	if s.Gen.BoundaryR > 0 {
		if x < -s.Gen.BoundaryR || x > s.Gen.BoundaryR || z < -s.Gen.BoundaryR || z > s.Gen.BoundaryR {
			return false
		}
	}
	return true
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func KeyOf(x, z int) ChunkKey {
	return ChunkKey{CX: genpkg.FloorDiv(x, ChunkSize), CZ: genpkg.FloorDiv(z, ChunkSize)}
}

func (s *ChunkStore) Loaded(k ChunkKey) bool {
	_, ok := s.Chunks[k]
	return ok
}

// Lookup reads a cell without generating anything. Cells outside the
// vertical range or the boundary read as air; cells in chunks that are not
// loaded report false.
func (s *ChunkStore) Lookup(x, y, z int) (uint16, bool) {
	ch, ok := s.Chunks[KeyOf(x, z)]
	if !ok {
		return s.Gen.Air, false
	}
	if !s.InBounds(x, y, z) {
		return s.Gen.Air, true
	}
	return ch.Get(genpkg.Mod(x, ChunkSize), y, genpkg.Mod(z, ChunkSize)), true
}

func (s *ChunkStore) GetBlock(x, y, z int) uint16 {
	if !s.InBounds(x, y, z) {
		return s.Gen.Air
	}
	ch := s.GetOrGenChunk(genpkg.FloorDiv(x, ChunkSize), genpkg.FloorDiv(z, ChunkSize))
	return ch.Get(genpkg.Mod(x, ChunkSize), y, genpkg.Mod(z, ChunkSize))
}

// SetBlock reports whether the cell changed.
func (s *ChunkStore) SetBlock(x, y, z int, b uint16) bool {
	if !s.InBounds(x, y, z) {
		return false
	}
	ch := s.GetOrGenChunk(genpkg.FloorDiv(x, ChunkSize), genpkg.FloorDiv(z, ChunkSize))
	return ch.Set(genpkg.Mod(x, ChunkSize), y, genpkg.Mod(z, ChunkSize), b)
}

func (s *ChunkStore) GetOrGenChunk(cx, cz int) *Chunk {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := NewChunk(cx, cz, s.Gen.Height)
	s.GenerateChunk(ch)
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	return ch
}

func (s *ChunkStore) Unload(k ChunkKey) {
	delete(s.Chunks, k)
}

// Remap rewrites every loaded block id through table.
func (s *ChunkStore) Remap(table []uint16) error {
	for _, ch := range s.Chunks {
		for i, v := range ch.Blocks {
			if int(v) >= len(table) {
				return fmt.Errorf("chunk %d,%d: block id %d outside palette", ch.CX, ch.CZ, v)
			}
			ch.Blocks[i] = table[v]
		}
		ch.dirty = true
	}
	return nil
}
