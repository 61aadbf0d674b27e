package store

import (
	"fmt"

	snapv1 "voxelpath.ai/internal/persistence/snapshot"
	"voxelpath.ai/internal/sim/encoding"
)

// ExportLoadedChunks converts loaded chunk data into snapshot chunks.
func ExportLoadedChunks(chunks map[ChunkKey]*Chunk, keys []ChunkKey) []snapv1.ChunkV1 {
	out := make([]snapv1.ChunkV1, 0, len(keys))
	for _, k := range keys {
		ch := chunks[k]
		if ch == nil {
			continue
		}
		out = append(out, snapv1.ChunkV1{
			CX:     k.CX,
			CZ:     k.CZ,
			Height: ch.Height,
			RLE:    encoding.EncodeRLE(ch.Blocks),
		})
	}
	return out
}

// ImportChunks rebuilds a chunk store from snapshot chunks.
func ImportChunks(gen WorldGen, chunks []snapv1.ChunkV1) (*ChunkStore, error) {
	store := NewChunkStore(gen)
	height := store.Gen.Height
	for _, ch := range chunks {
		if ch.Height != height {
			return nil, fmt.Errorf("snapshot chunk height mismatch: got %d want %d", ch.Height, height)
		}
		blocks, err := encoding.DecodeRLE(ch.RLE)
		if err != nil {
			return nil, fmt.Errorf("snapshot chunk %d,%d: %w", ch.CX, ch.CZ, err)
		}
		if len(blocks) != ChunkSize*ChunkSize*height {
			return nil, fmt.Errorf("snapshot chunk blocks length mismatch: got %d want %d", len(blocks), ChunkSize*ChunkSize*height)
		}
		k := ChunkKey{CX: ch.CX, CZ: ch.CZ}
		c := &Chunk{
			CX:     ch.CX,
			CZ:     ch.CZ,
			Height: height,
			Blocks: blocks,
		}
		_ = c.Digest()
		store.Chunks[k] = c
	}
	return store, nil
}
