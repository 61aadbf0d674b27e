package store

import (
	"testing"

	snapv1 "voxelpath.ai/internal/persistence/snapshot"
	"voxelpath.ai/internal/sim/encoding"
)

func testGen() WorldGen {
	return WorldGen{Seed: 7, Height: 8, Kind: "flat", FloorY: 2, Air: 0, Bedrock: 1, Stone: 2, Dirt: 3, Grass: 4}
}

func TestExportAndImportChunksRoundTrip(t *testing.T) {
	gen := testGen()
	s := NewChunkStore(gen)
	ch := NewChunk(1, -2, gen.Height)
	ch.Blocks[0] = 3
	ch.Blocks[17] = 9
	ch.Blocks[ch.index(15, 7, 15)] = 5
	s.Chunks[ChunkKey{CX: ch.CX, CZ: ch.CZ}] = ch

	keys := []ChunkKey{{CX: 1, CZ: -2}}
	exported := ExportLoadedChunks(s.Chunks, keys)
	if len(exported) != 1 {
		t.Fatalf("expected 1 exported chunk, got %d", len(exported))
	}
	if exported[0].Height != 8 {
		t.Fatalf("exported height=%d", exported[0].Height)
	}

	imported, err := ImportChunks(gen, exported)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	got := imported.Chunks[ChunkKey{CX: 1, CZ: -2}]
	if got == nil {
		t.Fatalf("missing imported chunk")
	}
	if got.Blocks[0] != 3 || got.Blocks[17] != 9 || got.Get(15, 7, 15) != 5 {
		t.Fatalf("unexpected imported blocks: got %d,%d,%d", got.Blocks[0], got.Blocks[17], got.Get(15, 7, 15))
	}
	if got.Digest() != ch.Digest() {
		t.Fatalf("digest changed across round trip")
	}
}

func TestImportChunksRejectsInvalidShape(t *testing.T) {
	gen := testGen()
	_, err := ImportChunks(gen, []snapv1.ChunkV1{{
		CX:     0,
		CZ:     0,
		Height: 9,
		RLE:    encoding.EncodeRLE(make([]uint16, 16*16*9)),
	}})
	if err == nil {
		t.Fatalf("expected error for height mismatch")
	}
	_, err = ImportChunks(gen, []snapv1.ChunkV1{{
		CX:     0,
		CZ:     0,
		Height: 8,
		RLE:    encoding.EncodeRLE(make([]uint16, 16)),
	}})
	if err == nil {
		t.Fatalf("expected error for short chunk")
	}
}

func TestLookupDoesNotGenerate(t *testing.T) {
	s := NewChunkStore(testGen())
	if _, ok := s.Lookup(3, 2, 3); ok {
		t.Fatalf("Lookup reported an ungenerated chunk as loaded")
	}
	if got := s.GetBlock(3, 2, 3); got != 4 {
		t.Fatalf("GetBlock(3,2,3)=%d want grass", got)
	}
	if got, ok := s.Lookup(3, 0, 3); !ok || got != 1 {
		t.Fatalf("Lookup(3,0,3)=%d,%v want bedrock", got, ok)
	}
	if got, ok := s.Lookup(3, 1, 3); !ok || got != 3 {
		t.Fatalf("Lookup(3,1,3)=%d,%v want dirt", got, ok)
	}
	if got, ok := s.Lookup(3, 3, 3); !ok || got != 0 {
		t.Fatalf("Lookup(3,3,3)=%d,%v want air", got, ok)
	}
	if got, ok := s.Lookup(-1, 2, 3); ok {
		t.Fatalf("Lookup(-1,2,3)=%d in unloaded chunk", got)
	}
}

func TestSetBlockAndBounds(t *testing.T) {
	gen := testGen()
	gen.BoundaryR = 20
	s := NewChunkStore(gen)
	if !s.SetBlock(-5, 3, 7, 2) {
		t.Fatalf("SetBlock did not change the cell")
	}
	if s.SetBlock(-5, 3, 7, 2) {
		t.Fatalf("SetBlock reported a no-op as a change")
	}
	if got := s.GetBlock(-5, 3, 7); got != 2 {
		t.Fatalf("GetBlock=%d", got)
	}
	if s.SetBlock(0, 8, 0, 2) || s.SetBlock(21, 3, 0, 2) || s.SetBlock(0, -1, 0, 2) {
		t.Fatalf("SetBlock outside bounds succeeded")
	}
	keys := s.LoadedChunkKeys()
	if len(keys) != 1 || keys[0] != (ChunkKey{CX: -1, CZ: 0}) {
		t.Fatalf("LoadedChunkKeys=%v", keys)
	}
}

func TestSteppedWorldIsDeterministic(t *testing.T) {
	gen := WorldGen{Seed: 42, Height: 32, Kind: "stepped", FloorY: 8, Relief: 3, TerraceSize: 4, BiomeRegionSize: 32,
		SpawnClearRadius: 4, OrePermille: 50, TreePermille: 20, Bedrock: 1, Stone: 2, Dirt: 3, Grass: 4, Sand: 5, Water: 6, Log: 7, IronOre: 8}
	a := NewChunkStore(gen).GetOrGenChunk(2, -3)
	b := NewChunkStore(gen).GetOrGenChunk(2, -3)
	if a.Digest() != b.Digest() {
		t.Fatalf("same seed produced different chunks")
	}
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			if a.Get(x, 0, z) != 1 {
				t.Fatalf("no bedrock at %d,%d", x, z)
			}
			if a.Get(x, 8, z) == 0 {
				t.Fatalf("terrain below FloorY at %d,%d", x, z)
			}
		}
	}
	spawn := NewChunkStore(gen)
	if got := spawn.GetBlock(0, 8, 0); got != 4 {
		t.Fatalf("spawn surface=%d want grass", got)
	}
	if got := spawn.GetBlock(0, 9, 0); got != 0 {
		t.Fatalf("spawn above surface=%d want air", got)
	}
}
