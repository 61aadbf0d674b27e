package catalogs

import (
	"voxelpath.ai/internal/sim/path/movements"
	"voxelpath.ai/internal/sim/tuning"
)

// PolicyFromTuning builds a movement policy from the tuning toggles and the
// block classes flagged in the catalog. Tuning lists extend the catalog
// classes; unbreakable blocks always join CantBreak.
func PolicyFromTuning(t tuning.MovementTuning, c *Catalogs) movements.Policy {
	bc := c.Blocks
	var cantBreak []string
	for _, id := range bc.Palette {
		if d := bc.Defs[id]; !d.Has(FlagEmpty) && (!d.Breakable || d.Hardness < 0) {
			cantBreak = append(cantBreak, id)
		}
	}
	return movements.Policy{
		CanDig:                         t.CanDig,
		Allow1by1Towers:                t.Allow1by1Towers,
		AllowFreeMotion:                t.AllowFreeMotion,
		AllowParkour:                   t.AllowParkour,
		AllowSprinting:                 t.AllowSprinting,
		DontCreateFlow:                 t.DontCreateFlow,
		DontMineUnderFallingBlock:      t.DontMineUnderFallingBlock,
		InfiniteLiquidDropdownDistance: t.InfiniteLiquidDropdownDistance,
		CanOpenDoors:                   t.CanOpenDoors,

		DigCost:    t.DigCost,
		PlaceCost:  t.PlaceCost,
		LiquidCost: t.LiquidCost,
		EntityCost: t.EntityCost,

		CantBreak:   movements.NewBlockSet(append(cantBreak, t.CantBreak...)...),
		Avoid:       movements.NewBlockSet(append(bc.IDs(FlagAvoid), t.Avoid...)...),
		Liquids:     movements.NewBlockSet(bc.IDs(FlagLiquid)...),
		Climbable:   movements.NewBlockSet(bc.IDs(FlagClimbable)...),
		Gravity:     movements.NewBlockSet(bc.IDs(FlagGravity)...),
		Replaceable: movements.NewBlockSet(bc.IDs(FlagReplaceable)...),
		Openable:    movements.NewBlockSet(bc.IDs(FlagOpenable)...),
		EmptyBlocks: movements.NewBlockSet(bc.IDs(FlagEmpty)...),

		ScaffoldItems: append([]string(nil), t.ScaffoldItems...),
		MaxDropDown:   t.MaxDropDown,
	}
}
