// Package pathtest provides in-memory collaborators for pathfinder tests: a
// sparse block world, an inventory, a tool table, an agent body and an
// actuator that records what it was asked to do.
package pathtest

import (
	"math"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
)

var fullCube = []geom.AABB{geom.FullCube}

var defs = map[string]pathenv.Block{
	"air":         {Type: "air"},
	"bedrock":     {Type: "bedrock", BoundingBox: pathenv.BoundingBoxBlock, Shapes: fullCube, Material: "rock", Hardness: -1},
	"stone":       {Type: "stone", BoundingBox: pathenv.BoundingBoxBlock, Shapes: fullCube, Diggable: true, Material: "rock", Hardness: 1.5, HarvestTools: []string{"wooden_pickaxe", "stone_pickaxe", "iron_pickaxe", "diamond_pickaxe"}},
	"cobblestone": {Type: "cobblestone", BoundingBox: pathenv.BoundingBoxBlock, Shapes: fullCube, Diggable: true, Material: "rock", Hardness: 2, HarvestTools: []string{"wooden_pickaxe", "stone_pickaxe", "iron_pickaxe", "diamond_pickaxe"}},
	"dirt":        {Type: "dirt", BoundingBox: pathenv.BoundingBoxBlock, Shapes: fullCube, Diggable: true, Material: "dirt", Hardness: 0.5},
	"sand":        {Type: "sand", BoundingBox: pathenv.BoundingBoxBlock, Shapes: fullCube, Diggable: true, Material: "dirt", Hardness: 0.5},
	"planks":      {Type: "planks", BoundingBox: pathenv.BoundingBoxBlock, Shapes: fullCube, Diggable: true, Material: "wood", Hardness: 2},
	"chest":       {Type: "chest", BoundingBox: pathenv.BoundingBoxBlock, Shapes: fullCube, Diggable: true, Material: "wood", Hardness: 2.5},
	"slab":        {Type: "slab", BoundingBox: pathenv.BoundingBoxBlock, Shapes: []geom.AABB{{Max: geom.Vec3{X: 1, Y: 0.5, Z: 1}}}, Diggable: true, Material: "rock", Hardness: 2},
	"water":       {Type: "water", Material: "water", Hardness: 100},
	"lava":        {Type: "lava", Material: "lava", Hardness: 100},
	"ladder":      {Type: "ladder", Diggable: true, Material: "wood", Hardness: 0.4},
	"oak_door":    {Type: "oak_door", BoundingBox: pathenv.BoundingBoxBlock, Shapes: []geom.AABB{{Max: geom.Vec3{X: 1, Y: 1, Z: 0.1875}}}, Diggable: true, Material: "wood", Hardness: 3},
	"tall_grass":  {Type: "tall_grass", Diggable: true, Material: "plant"},
	"fire":        {Type: "fire", Material: "plant"},
}

// Def returns the test definition for a block type. Unknown types are solid stone-like cubes.
func Def(typ string) pathenv.Block {
	if b, ok := defs[typ]; ok {
		return b
	}
	return pathenv.Block{Type: typ, BoundingBox: pathenv.BoundingBoxBlock, Shapes: fullCube, Diggable: true, Material: "rock", Hardness: 1}
}

// World is a sparse map of cells. Missing cells are air; cells in unloaded
// chunks report not loaded.
type World struct {
	blocks   map[geom.Pos]pathenv.Block
	unloaded map[geom.ChunkKey]bool
}

func NewWorld() *World {
	return &World{
		blocks:   map[geom.Pos]pathenv.Block{},
		unloaded: map[geom.ChunkKey]bool{},
	}
}

// Flat builds a square floor of typ at height y spanning [-r, r] on x and z.
func Flat(y, r int, typ string) *World {
	w := NewWorld()
	w.Fill(geom.Pos{X: -r, Y: y, Z: -r}, geom.Pos{X: r, Y: y, Z: r}, typ)
	return w
}

func (w *World) Set(p geom.Pos, typ string) {
	if typ == "air" {
		delete(w.blocks, p)
		return
	}
	b := Def(typ)
	b.Pos = p
	w.blocks[p] = b
}

// Fill sets every cell of the inclusive box.
func (w *World) Fill(min, max geom.Pos, typ string) {
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			for z := min.Z; z <= max.Z; z++ {
				w.Set(geom.Pos{X: x, Y: y, Z: z}, typ)
			}
		}
	}
}

func (w *World) Unload(k geom.ChunkKey) { w.unloaded[k] = true }

func (w *World) Load(k geom.ChunkKey) { delete(w.unloaded, k) }

func (w *World) BlockAt(p geom.Pos) (pathenv.Block, bool) {
	if w.unloaded[p.ChunkKey()] {
		return pathenv.Block{}, false
	}
	if b, ok := w.blocks[p]; ok {
		return b, true
	}
	b := defs["air"]
	b.Pos = p
	return b, true
}

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

// Inventory is a fixed item list.
type Inventory []pathenv.Item

func (inv Inventory) Items() []pathenv.Item {
	return append([]pathenv.Item(nil), inv...)
}

// Tools is a simplified dig-time table: hardness*1500ms by hand, five times
// slower without a required harvest tool, and faster with a listed tool.
type Tools struct{}

func (Tools) DigTimeMs(b pathenv.Block, tool *pathenv.Item, fx pathenv.Effects) float64 {
	if !b.Diggable || b.Hardness < 0 {
		return math.Inf(1)
	}
	ms := b.Hardness * 1500
	canHarvest := len(b.HarvestTools) == 0
	if tool != nil {
		for _, t := range b.HarvestTools {
			if t == tool.Type {
				canHarvest = true
				ms /= float64(4 + tool.Efficiency)
			}
		}
	}
	if !canHarvest {
		ms = b.Hardness * 5000
	}
	if fx.Haste > 0 {
		ms /= 1 + 0.2*float64(fx.Haste)
	}
	return ms
}

// SetBlock is Set for callers that edit through an error-returning interface.
func (w *World) SetBlock(p geom.Pos, typ string) error {
	w.Set(p, typ)
	return nil
}
