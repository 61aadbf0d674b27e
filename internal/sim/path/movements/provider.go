// Package movements expands a search node into the moves an agent can make
// from it, pricing each one under a Policy.
//
// Offsets used by the move shapes, for one horizontal direction (+ is the
// agent's feet, . its head, # the floor it stands on):
//
//	+2  a h o
//	+1  . b i
//	 0  + c j
//	-1  # d k
//	-2    e l
package movements

import (
	"math"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/move"
	"voxelpath.ai/internal/sim/path/pathenv"
)

// Impassable is the running cost at which a move is dropped.
const Impassable = 100

// maxLiquidScan bounds the downward scan for a liquid landing when drops into
// liquid are unbounded.
const maxLiquidScan = 256

var (
	cardinals = []geom.Pos{{X: -1}, {X: 1}, {Z: -1}, {Z: 1}}
	diagonals = []geom.Pos{{X: -1, Z: -1}, {X: -1, Z: 1}, {X: 1, Z: -1}, {X: 1, Z: 1}}
	flowSides = []geom.Pos{{Y: 1}, {X: -1}, {X: 1}, {Z: -1}, {Z: 1}}
)

// Env is what a Provider reads. Agent and EntityCount are optional.
type Env struct {
	World     pathenv.World
	Inventory pathenv.Inventory
	Tools     pathenv.ToolTable
	Agent     pathenv.Agent
	// EntityCount reports how many other entities overlap a cell.
	EntityCount func(p geom.Pos) int
}

// Provider is created per search. It snapshots the inventory and effects at
// construction and caches dig estimates per block type.
type Provider struct {
	env     Env
	policy  Policy
	items   []pathenv.Item
	effects pathenv.Effects
	digs    map[string]float64
}

func NewProvider(env Env, policy Policy) *Provider {
	pv := &Provider{env: env, policy: policy, digs: map[string]float64{}}
	if env.Inventory != nil {
		pv.items = env.Inventory.Items()
	}
	if env.Agent != nil {
		pv.effects = env.Agent.Effects()
	}
	return pv
}

func (pv *Provider) Policy() Policy { return pv.policy }

func (pv *Provider) World() pathenv.World { return pv.env.World }

// Start is the root move at p carrying the scaffold the agent holds now.
func (pv *Provider) Start(p geom.Pos) move.Move {
	return move.Start(p, CountScaffold(pv.items, pv.policy.ScaffoldItems))
}

// Neighbors lists every feasible move out of m.
func (pv *Provider) Neighbors(m move.Move) []move.Move {
	var out []move.Move
	for _, dir := range cardinals {
		pv.forward(m, dir, &out)
		pv.jumpUp(m, dir, &out)
		pv.dropDown(m, dir, &out)
		if pv.policy.AllowParkour {
			pv.parkour(m, dir, &out)
		}
	}
	for _, dir := range diagonals {
		pv.diagonal(m, dir, &out)
	}
	pv.down(m, &out)
	pv.up(m, &out)
	return out
}

type cell struct {
	block       pathenv.Block
	pos         geom.Pos
	loaded      bool
	safe        bool
	physical    bool
	liquid      bool
	climbable   bool
	replaceable bool
	gravity     bool
	// height is the absolute top of the cell's collision shapes.
	height float64
}

func (pv *Provider) cellAt(p geom.Pos) cell {
	c := cell{pos: p, height: float64(p.Y)}
	c.block.Pos = p
	b, ok := pv.env.World.BlockAt(p)
	if !ok {
		return c
	}
	pol := &pv.policy
	b.Pos = p
	c.block = b
	c.loaded = true
	c.liquid = pol.Liquids.Has(b.Type)
	c.climbable = pol.Climbable.Has(b.Type)
	c.gravity = pol.Gravity.Has(b.Type)
	c.replaceable = pol.Replaceable.Has(b.Type) || pol.EmptyBlocks.Has(b.Type)
	open := pol.CanOpenDoors && pol.Openable.Has(b.Type)
	empty := b.BoundingBox == pathenv.BoundingBoxEmpty || pol.EmptyBlocks.Has(b.Type)
	c.physical = !empty && !open && !c.climbable
	c.safe = (empty || open || c.climbable) && !pol.Avoid.Has(b.Type)
	if c.physical && len(b.Shapes) == 0 {
		c.height = float64(p.Y) + 1
	}
	for _, s := range b.Shapes {
		c.height = math.Max(c.height, float64(p.Y)+s.Max.Y)
	}
	return c
}

func (pv *Provider) at(m move.Move, dx, dy, dz int) cell {
	return pv.cellAt(geom.Pos{X: m.X + dx, Y: m.Y + dy, Z: m.Z + dz})
}

func (pv *Provider) entities(p geom.Pos) float64 {
	if pv.env.EntityCount == nil {
		return 0
	}
	return float64(pv.env.EntityCount(p))
}

func (pv *Provider) stepCost(c cell) float64 {
	return sumAreas(pv.policy.ExclusionStep, c.block)
}

// clear is safe to pass through and not excluded.
func (pv *Provider) clear(c cell) bool {
	return c.safe && pv.stepCost(c) < Impassable
}

func (pv *Provider) safeToBreak(c cell) bool {
	pol := &pv.policy
	if !pol.CanDig || !c.loaded || c.block.Type == "" || !c.block.Diggable {
		return false
	}
	if pol.CantBreak.Has(c.block.Type) {
		return false
	}
	if pol.DontCreateFlow {
		for _, s := range flowSides {
			if pv.cellAt(c.pos.Add(s)).liquid {
				return false
			}
		}
	}
	if pol.DontMineUnderFallingBlock && pv.cellAt(c.pos.Offset(0, 1, 0)).gravity {
		return false
	}
	return sumAreas(pol.ExclusionBreak, c.block) < Impassable
}

// safeOrBreak prices passing through c: free when it is already safe,
// otherwise the cost of mining it (recorded in toBreak), or Impassable.
func (pv *Provider) safeOrBreak(c cell, toBreak *[]move.BlockEdit) float64 {
	pol := &pv.policy
	cost := pv.stepCost(c) + pv.entities(c.pos)*pol.EntityCost
	if c.safe {
		return cost
	}
	if !pv.safeToBreak(c) {
		return Impassable
	}
	*toBreak = append(*toBreak, move.BlockEdit{Pos: c.pos})
	if c.physical {
		cost += pv.entities(c.pos.Offset(0, 1, 0)) * pol.EntityCost
	}
	cost += sumAreas(pol.ExclusionBreak, c.block)
	cost += (1 + 3*pv.digTimeMs(c.block)/1000) * pol.DigCost
	return cost
}

func (pv *Provider) digTimeMs(b pathenv.Block) float64 {
	if ms, ok := pv.digs[b.Type]; ok {
		return ms
	}
	_, ms := BestHarvestTool(pv.items, pv.env.Tools, pv.effects, b)
	pv.digs[b.Type] = ms
	return ms
}

// placeCost is the price of filling c with scaffold, breaking it first when it
// holds something that cannot be replaced. ok is false when that is not allowed.
func (pv *Provider) placeCost(c cell, toBreak *[]move.BlockEdit) (float64, bool) {
	pol := &pv.policy
	if !c.loaded || pv.entities(c.pos) > 0 {
		return 0, false
	}
	cost := 0.0
	if !c.replaceable {
		if !pv.safeToBreak(c) {
			return 0, false
		}
		cost += sumAreas(pol.ExclusionBreak, c.block)
		*toBreak = append(*toBreak, move.BlockEdit{Pos: c.pos})
	}
	cost += sumAreas(pol.ExclusionPlace, c.block) + pol.PlaceCost
	return cost, cost < Impassable
}

// landing scans down the column next to from (offset by dir) for the first
// cell the agent can land on: something physical within MaxDropDown, or a
// safe liquid.
func (pv *Provider) landing(from, dir geom.Pos) (cell, bool) {
	pol := &pv.policy
	limit := pol.MaxDropDown
	if pol.InfiniteLiquidDropdownDistance {
		limit = maxLiquidScan
	}
	for y := from.Y - 2; from.Y-y <= limit; y-- {
		l := pv.cellAt(geom.Pos{X: from.X + dir.X, Y: y, Z: from.Z + dir.Z})
		if l.liquid && l.safe {
			return l, true
		}
		if l.physical {
			return l, from.Y-y <= pol.MaxDropDown
		}
		if !l.safe {
			return cell{}, false
		}
	}
	return cell{}, false
}

// BestHarvestTool picks the item that mines b fastest. A nil tool means bare
// hands are at least as fast as anything carried.
func BestHarvestTool(items []pathenv.Item, tools pathenv.ToolTable, fx pathenv.Effects, b pathenv.Block) (*pathenv.Item, float64) {
	if tools == nil {
		return nil, 0
	}
	best := tools.DigTimeMs(b, nil, fx)
	var tool *pathenv.Item
	for i := range items {
		if ms := tools.DigTimeMs(b, &items[i], fx); ms < best {
			best, tool = ms, &items[i]
		}
	}
	return tool, best
}

// CountScaffold sums the stacks of every item usable as scaffold.
func CountScaffold(items []pathenv.Item, scaffold []string) int {
	n := 0
	for _, name := range scaffold {
		for _, it := range items {
			if it.Type == name {
				n += it.Count
			}
		}
	}
	return n
}

// ScaffoldItem returns the first carried scaffold item in preference order.
func ScaffoldItem(items []pathenv.Item, scaffold []string) (pathenv.Item, bool) {
	for _, name := range scaffold {
		for _, it := range items {
			if it.Type == name && it.Count > 0 {
				return it, true
			}
		}
	}
	return pathenv.Item{}, false
}
