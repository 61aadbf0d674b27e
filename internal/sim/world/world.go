// Package world is the block world the agent walks in: a chunk store of
// catalog block ids exposed to the pathfinder as pathenv.World. Edits and
// chunk loads are reported to listeners so a supervisor can replan.
//
// A World is not safe for concurrent use; the tick loop owns it.
package world

import (
	"fmt"

	snapv1 "voxelpath.ai/internal/persistence/snapshot"
	"voxelpath.ai/internal/sim/catalogs"
	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
	storepkg "voxelpath.ai/internal/sim/world/terrain/store"
)

type Config struct {
	ID        string
	Seed      int64
	Height    int
	BoundaryR int

	// Kind is "flat" or "stepped".
	Kind             string
	FloorY           int
	Relief           int
	TerraceSize      int
	BiomeRegionSize  int
	SpawnClearRadius int
	OrePermille      int
	TreePermille     int
	WaterY           int
}

type BlockListener func(old, nu pathenv.Block)
type ChunkListener func(k geom.ChunkKey)

type World struct {
	cfg      Config
	catalogs *catalogs.Catalogs
	chunks   *storepkg.ChunkStore

	blockListeners []BlockListener
	chunkListeners []ChunkListener
}

func New(cfg Config, cats *catalogs.Catalogs) (*World, error) {
	gen, err := worldGen(cfg, cats)
	if err != nil {
		return nil, err
	}
	w := &World{cfg: cfg, catalogs: cats, chunks: storepkg.NewChunkStore(gen)}
	w.cfg.Height = w.chunks.Gen.Height
	return w, nil
}

func worldGen(cfg Config, cats *catalogs.Catalogs) (storepkg.WorldGen, error) {
	var missing error
	b := func(id string) uint16 {
		v, ok := cats.Blocks.Index[id]
		if !ok && missing == nil {
			missing = fmt.Errorf("missing block id in palette: %s", id)
		}
		return v
	}
	kind := cfg.Kind
	if kind == "" {
		kind = "flat"
	}
	if kind != "flat" && kind != "stepped" {
		return storepkg.WorldGen{}, fmt.Errorf("unknown world kind %q", cfg.Kind)
	}
	gen := storepkg.WorldGen{
		Seed:             cfg.Seed,
		BoundaryR:        cfg.BoundaryR,
		Height:           cfg.Height,
		Kind:             kind,
		FloorY:           cfg.FloorY,
		Relief:           cfg.Relief,
		TerraceSize:      cfg.TerraceSize,
		BiomeRegionSize:  cfg.BiomeRegionSize,
		SpawnClearRadius: cfg.SpawnClearRadius,
		OrePermille:      cfg.OrePermille,
		TreePermille:     cfg.TreePermille,
		WaterY:           cfg.WaterY,

		Air:     b("air"),
		Bedrock: b("bedrock"),
		Stone:   b("stone"),
		Dirt:    b("dirt"),
		Grass:   b("grass_block"),
		Sand:    b("sand"),
		Water:   b("water"),
		Log:     b("oak_log"),
		IronOre: b("iron_ore"),
	}
	return gen, missing
}

func (w *World) ID() string                   { return w.cfg.ID }
func (w *World) Config() Config               { return w.cfg }
func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }

// OnBlockChange registers a listener for every cell whose block type changes.
func (w *World) OnBlockChange(fn BlockListener) {
	w.blockListeners = append(w.blockListeners, fn)
}

// OnChunkLoad registers a listener for every chunk that becomes loaded.
func (w *World) OnChunkLoad(fn ChunkListener) {
	w.chunkListeners = append(w.chunkListeners, fn)
}

func (w *World) blockOf(id uint16, p geom.Pos) pathenv.Block {
	pal := w.catalogs.Blocks.Palette
	if int(id) >= len(pal) {
		return w.catalogs.Blocks.Block(fmt.Sprintf("#%d", id), p)
	}
	return w.catalogs.Blocks.Block(pal[id], p)
}

// BlockAt implements pathenv.World.
func (w *World) BlockAt(p geom.Pos) (pathenv.Block, bool) {
	id, ok := w.chunks.Lookup(p.X, p.Y, p.Z)
	if !ok {
		return pathenv.Block{}, false
	}
	return w.blockOf(id, p), true
}

// Raycast implements pathenv.World. Unloaded cells do not stop the ray.
func (w *World) Raycast(origin, dir geom.Vec3, maxDist float64) (pathenv.Hit, bool) {
	hit, ok := geom.Raycast(origin, dir, maxDist, func(p geom.Pos) []geom.AABB {
		b, ok := w.BlockAt(p)
		if !ok || b.BoundingBox != pathenv.BoundingBoxBlock {
			return nil
		}
		return b.Shapes
	})
	if !ok {
		return pathenv.Hit{}, false
	}
	b, _ := w.BlockAt(hit.Pos)
	return pathenv.Hit{Pos: hit.Pos, Face: hit.Face, Point: hit.Point, Block: b}, true
}

// SetBlock writes a block by name into a loaded cell and notifies listeners
// when the type changed.
func (w *World) SetBlock(p geom.Pos, typ string) error {
	id, ok := w.catalogs.Blocks.Index[typ]
	if !ok {
		return fmt.Errorf("set %s: unknown block %q", p, typ)
	}
	old, loaded := w.BlockAt(p)
	if !loaded {
		return fmt.Errorf("set %s: chunk not loaded", p)
	}
	if !w.chunks.InBounds(p.X, p.Y, p.Z) {
		return fmt.Errorf("set %s: out of bounds", p)
	}
	if !w.chunks.SetBlock(p.X, p.Y, p.Z, id) {
		return nil
	}
	nu := w.blockOf(id, p)
	for _, fn := range w.blockListeners {
		fn(old, nu)
	}
	return nil
}

// LoadAround makes every chunk within radius chunks of center resident and
// returns the ones that were newly loaded, in load order.
func (w *World) LoadAround(center geom.Pos, radius int) []geom.ChunkKey {
	c := center.ChunkKey()
	var loaded []geom.ChunkKey
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			k := storepkg.ChunkKey{CX: c.CX + dx, CZ: c.CZ + dz}
			if w.chunks.Loaded(k) {
				continue
			}
			w.chunks.GetOrGenChunk(k.CX, k.CZ)
			loaded = append(loaded, geom.ChunkKey(k))
		}
	}
	for _, k := range loaded {
		for _, fn := range w.chunkListeners {
			fn(k)
		}
	}
	return loaded
}

// UnloadBeyond drops chunks farther than radius chunks from center.
// Dropped chunks regenerate from the seed, so edits in them are lost.
func (w *World) UnloadBeyond(center geom.Pos, radius int) int {
	c := center.ChunkKey()
	n := 0
	for _, k := range w.chunks.LoadedChunkKeys() {
		if geom.Abs(k.CX-c.CX) > radius || geom.Abs(k.CZ-c.CZ) > radius {
			w.chunks.Unload(k)
			n++
		}
	}
	return n
}

func (w *World) LoadedChunkKeys() []geom.ChunkKey {
	keys := w.chunks.LoadedChunkKeys()
	out := make([]geom.ChunkKey, len(keys))
	for i, k := range keys {
		out[i] = geom.ChunkKey(k)
	}
	return out
}

// SurfaceY is the first cell above the highest solid block in column x,z,
// loading the column's chunk if needed.
func (w *World) SurfaceY(x, z int) int {
	for y := w.cfg.Height - 1; y >= 0; y-- {
		id := w.chunks.GetBlock(x, y, z)
		if b := w.blockOf(id, geom.Pos{X: x, Y: y, Z: z}); b.BoundingBox == pathenv.BoundingBoxBlock {
			return y + 1
		}
	}
	return 0
}

// Snapshot captures the world's loaded chunks and generator settings.
func (w *World) Snapshot(tick uint64, agent *snapv1.AgentV1) snapv1.SnapshotV1 {
	g := w.chunks.Gen
	return snapv1.SnapshotV1{
		Header:           snapv1.Header{Version: snapv1.Version, WorldID: w.cfg.ID, Tick: tick},
		Seed:             g.Seed,
		Height:           g.Height,
		BoundaryR:        g.BoundaryR,
		Kind:             g.Kind,
		FloorY:           g.FloorY,
		Relief:           g.Relief,
		TerraceSize:      g.TerraceSize,
		BiomeRegionSize:  g.BiomeRegionSize,
		SpawnClearRadius: g.SpawnClearRadius,
		OrePermille:      g.OrePermille,
		TreePermille:     g.TreePermille,
		WaterY:           g.WaterY,
		Palette:          append([]string(nil), w.catalogs.Blocks.Palette...),
		PaletteDigest:    w.catalogs.Blocks.PaletteDigest,
		Chunks:           storepkg.ExportLoadedChunks(w.chunks.Chunks, w.chunks.LoadedChunkKeys()),
		Agent:            agent,
	}
}

// FromSnapshot rebuilds a world. Snapshots taken with a different palette
// are remapped by block name.
func FromSnapshot(snap snapv1.SnapshotV1, cats *catalogs.Catalogs) (*World, error) {
	cfg := Config{
		ID:               snap.Header.WorldID,
		Seed:             snap.Seed,
		Height:           snap.Height,
		BoundaryR:        snap.BoundaryR,
		Kind:             snap.Kind,
		FloorY:           snap.FloorY,
		Relief:           snap.Relief,
		TerraceSize:      snap.TerraceSize,
		BiomeRegionSize:  snap.BiomeRegionSize,
		SpawnClearRadius: snap.SpawnClearRadius,
		OrePermille:      snap.OrePermille,
		TreePermille:     snap.TreePermille,
		WaterY:           snap.WaterY,
	}
	gen, err := worldGen(cfg, cats)
	if err != nil {
		return nil, err
	}
	store, err := storepkg.ImportChunks(gen, snap.Chunks)
	if err != nil {
		return nil, err
	}
	if snap.PaletteDigest != cats.Blocks.PaletteDigest {
		if err := remap(store, snap.Palette, cats); err != nil {
			return nil, err
		}
	}
	w := &World{cfg: cfg, catalogs: cats, chunks: store}
	w.cfg.Height = store.Gen.Height
	return w, nil
}

func remap(store *storepkg.ChunkStore, palette []string, cats *catalogs.Catalogs) error {
	table := make([]uint16, len(palette))
	for i, name := range palette {
		id, ok := cats.Blocks.Index[name]
		if !ok {
			return fmt.Errorf("snapshot block %q not in catalog", name)
		}
		table[i] = id
	}
	return store.Remap(table)
}
