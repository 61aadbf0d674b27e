package catalogs

import (
	"math"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
)

// materialTool is the tool kind that mines each material at full speed.
var materialTool = map[string]string{
	"rock":  "pickaxe",
	"metal": "pickaxe",
	"dirt":  "shovel",
	"sand":  "shovel",
	"wood":  "axe",
	"plant": "sword",
	"web":   "sword",
}

const tickMs = 50

// Block builds the pathfinder's view of block id at p. Unknown ids are
// treated as unbreakable full cubes.
func (bc BlockCatalog) Block(id string, p geom.Pos) pathenv.Block {
	d, ok := bc.Defs[id]
	if !ok {
		return pathenv.Block{Type: id, Pos: p, BoundingBox: pathenv.BoundingBoxBlock, Shapes: []geom.AABB{geom.FullCube}, Hardness: -1}
	}
	b := pathenv.Block{
		Type:         d.ID,
		Pos:          p,
		Diggable:     d.Breakable && d.Hardness >= 0,
		Material:     d.Material,
		Hardness:     d.Hardness,
		HarvestTools: d.HarvestTools,
	}
	if d.Solid {
		b.BoundingBox = pathenv.BoundingBoxBlock
		b.Shapes = d.shapes()
	}
	return b
}

func (d BlockDef) shapes() []geom.AABB {
	if len(d.Shapes) == 0 {
		return []geom.AABB{geom.FullCube}
	}
	out := make([]geom.AABB, len(d.Shapes))
	for i, s := range d.Shapes {
		out[i] = geom.AABB{
			Min: geom.Vec3{X: s[0], Y: s[1], Z: s[2]},
			Max: geom.Vec3{X: s[3], Y: s[4], Z: s[5]},
		}
	}
	return out
}

// DigTimeMs implements pathenv.ToolTable. Mining progresses by
// speed/hardness per tick, divided by 30 when the block can be harvested
// with the held tool and by 100 otherwise; the result is rounded up to whole
// ticks and a block that breaks within one tick is instant.
func (c *Catalogs) DigTimeMs(b pathenv.Block, tool *pathenv.Item, fx pathenv.Effects) float64 {
	if !b.Diggable || b.Hardness < 0 {
		return math.Inf(1)
	}
	if b.Hardness == 0 {
		return 0
	}
	speed := 1.0
	canHarvest := len(b.HarvestTools) == 0
	if tool != nil {
		for _, t := range b.HarvestTools {
			if t == tool.Type {
				canHarvest = true
			}
		}
		if d, ok := c.Items.Defs[tool.Type]; ok && d.Kind == "TOOL" && materialTool[b.Material] == d.ToolKind {
			speed = d.Speed
			if tool.Efficiency > 0 {
				speed += float64(tool.Efficiency*tool.Efficiency + 1)
			}
		}
	}
	if fx.Haste > 0 {
		speed *= 1 + 0.2*float64(fx.Haste)
	}
	if fx.MiningFatigue > 0 {
		speed *= math.Pow(0.3, float64(min(fx.MiningFatigue, 4)))
	}

	div := 100.0
	if canHarvest {
		div = 30
	}
	ticks := b.Hardness * div / speed
	if ticks < 1 {
		return 0
	}
	return math.Ceil(ticks) * tickMs
}

// PlaceAs is the block an item places, or "" when it places nothing.
func (c *Catalogs) PlaceAs(item string) string {
	return c.Items.Defs[item].PlaceAs
}
