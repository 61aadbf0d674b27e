package movements

import (
	"math"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/move"
)

// maxJumpHeight is how much higher than the current floor a jump can land.
const maxJumpHeight = 1.2

func (pv *Provider) forward(m move.Move, dir geom.Pos, out *[]move.Move) {
	pol := &pv.policy
	b := pv.at(m, dir.X, 1, dir.Z)
	c := pv.at(m, dir.X, 0, dir.Z)
	d := pv.at(m, dir.X, -1, dir.Z)

	cost := 1.0
	var toBreak []move.BlockEdit
	var toPlace []move.BlockPlacement

	// Something standing on b would fall into our way once b is mined.
	if b.physical && pv.entities(b.pos.Offset(0, 1, 0)) > 0 {
		return
	}
	if !d.physical && !c.liquid {
		if m.RemainingScaffold == 0 || !pv.at(m, 0, -1, 0).physical {
			return
		}
		pc, ok := pv.placeCost(d, &toBreak)
		if !ok {
			return
		}
		cost += pc
		toPlace = append(toPlace, move.BlockPlacement{Pos: m.Pos().Offset(0, -1, 0), Face: dir})
	}

	cost += pv.safeOrBreak(b, &toBreak)
	if cost >= Impassable {
		return
	}
	cost += pv.safeOrBreak(c, &toBreak)
	if cost >= Impassable {
		return
	}
	if c.liquid {
		cost += pol.LiquidCost
	}
	*out = append(*out, move.New(c.pos, m.RemainingScaffold-len(toPlace), cost, toBreak, toPlace, false))
}

func (pv *Provider) jumpUp(m move.Move, dir geom.Pos, out *[]move.Move) {
	a := pv.at(m, 0, 2, 0)
	h := pv.at(m, dir.X, 2, dir.Z)
	b := pv.at(m, dir.X, 1, dir.Z)
	c := pv.at(m, dir.X, 0, dir.Z)

	cost := 2.0
	var toBreak []move.BlockEdit
	var toPlace []move.BlockPlacement

	if a.physical && pv.entities(a.pos.Offset(0, 1, 0)) > 0 {
		return
	}
	if h.physical && pv.entities(h.pos.Offset(0, 1, 0)) > 0 {
		return
	}

	landing := c.height
	if !c.physical {
		if m.RemainingScaffold == 0 {
			return
		}
		d := pv.at(m, dir.X, -1, dir.Z)
		if !d.physical {
			if m.RemainingScaffold == 1 || !pv.at(m, 0, -1, 0).physical {
				return
			}
			pc, ok := pv.placeCost(d, &toBreak)
			if !ok {
				return
			}
			cost += pc
			back := m.Pos()
			toPlace = append(toPlace, move.BlockPlacement{Pos: m.Pos().Offset(0, -1, 0), Face: dir, ReturnPos: &back})
		}
		pc, ok := pv.placeCost(c, &toBreak)
		if !ok {
			return
		}
		cost += pc
		toPlace = append(toPlace, move.BlockPlacement{Pos: d.pos, Face: geom.Pos{Y: 1}})
		landing = float64(c.pos.Y) + 1
	}

	floor := pv.at(m, 0, -1, 0)
	if landing-floor.height > maxJumpHeight {
		return
	}

	for _, cl := range []cell{a, h, b} {
		cost += pv.safeOrBreak(cl, &toBreak)
		if cost >= Impassable {
			return
		}
	}
	*out = append(*out, move.New(b.pos, m.RemainingScaffold-len(toPlace), cost, toBreak, toPlace, false))
}

// diagonal never bridges. Both flanking columns have to be passable at foot
// and head height; the cheaper one is cleared.
func (pv *Provider) diagonal(m move.Move, dir geom.Pos, out *[]move.Move) {
	pol := &pv.policy
	c := pv.at(m, dir.X, 0, dir.Z)
	d := pv.at(m, dir.X, -1, dir.Z)
	if !d.physical && !c.liquid {
		return
	}

	var break1, break2 []move.BlockEdit
	cost1 := pv.safeOrBreak(pv.at(m, 0, 1, dir.Z), &break1) + pv.safeOrBreak(pv.at(m, 0, 0, dir.Z), &break1)
	cost2 := pv.safeOrBreak(pv.at(m, dir.X, 1, 0), &break2) + pv.safeOrBreak(pv.at(m, dir.X, 0, 0), &break2)
	if cost1 >= Impassable || cost2 >= Impassable {
		return
	}

	cost := math.Sqrt2
	toBreak := break2
	if cost1 <= cost2 {
		cost += cost1
		toBreak = break1
	} else {
		cost += cost2
	}

	cost += pv.safeOrBreak(c, &toBreak)
	if cost >= Impassable {
		return
	}
	cost += pv.safeOrBreak(pv.at(m, dir.X, 1, dir.Z), &toBreak)
	if cost >= Impassable {
		return
	}
	if c.liquid {
		cost += pol.LiquidCost
	}
	*out = append(*out, move.New(c.pos, m.RemainingScaffold, cost, toBreak, nil, false))
}

func (pv *Provider) dropDown(m move.Move, dir geom.Pos, out *[]move.Move) {
	pol := &pv.policy
	b := pv.at(m, dir.X, 1, dir.Z)
	c := pv.at(m, dir.X, 0, dir.Z)
	d := pv.at(m, dir.X, -1, dir.Z)

	land, ok := pv.landing(m.Pos(), dir)
	if !ok {
		return
	}
	if !pol.InfiniteLiquidDropdownDistance && m.Y-land.pos.Y > pol.MaxDropDown {
		return
	}

	cost := 1 + pv.entities(d.pos)*pol.EntityCost
	var toBreak []move.BlockEdit
	for _, cl := range []cell{b, c, d} {
		cost += pv.safeOrBreak(cl, &toBreak)
		if cost >= Impassable {
			return
		}
	}
	if c.liquid {
		cost += pol.LiquidCost
	}
	*out = append(*out, move.New(land.pos.Offset(0, 1, 0), m.RemainingScaffold, cost, toBreak, nil, false))
}

func (pv *Provider) down(m move.Move, out *[]move.Move) {
	pol := &pv.policy
	floor := pv.at(m, 0, -1, 0)

	land, ok := pv.landing(m.Pos(), geom.Pos{})
	if !ok {
		return
	}
	if !pol.InfiniteLiquidDropdownDistance && m.Y-land.pos.Y > pol.MaxDropDown {
		return
	}

	cost := 1 + pv.entities(land.pos.Offset(0, 1, 0))*pol.EntityCost
	var toBreak []move.BlockEdit
	cost += pv.safeOrBreak(floor, &toBreak)
	if cost >= Impassable {
		return
	}
	if pv.at(m, 0, 0, 0).liquid {
		cost += pol.LiquidCost
	}
	*out = append(*out, move.New(land.pos.Offset(0, 1, 0), m.RemainingScaffold, cost, toBreak, nil, false))
}

// up climbs a ladder-like block or, failing that, towers by jumping and
// placing scaffold underneath.
func (pv *Provider) up(m move.Move, out *[]move.Move) {
	pol := &pv.policy
	feet := pv.at(m, 0, 0, 0)
	if feet.liquid {
		return
	}

	cost := 1.0
	var toBreak []move.BlockEdit
	var toPlace []move.BlockPlacement

	cost += pv.safeOrBreak(pv.at(m, 0, 2, 0), &toBreak)
	if cost >= Impassable {
		return
	}

	if !feet.climbable {
		if !pol.Allow1by1Towers || m.RemainingScaffold == 0 {
			return
		}
		floor := pv.at(m, 0, -1, 0)
		// Jump-placing needs a full-height floor to push off.
		if !floor.physical || floor.height < float64(m.Y)-0.2 {
			return
		}
		pc, ok := pv.placeCost(feet, &toBreak)
		if !ok {
			return
		}
		cost += pc
		toPlace = append(toPlace, move.BlockPlacement{Pos: floor.pos, Face: geom.Pos{Y: 1}, Jump: true})
	}
	if cost >= Impassable {
		return
	}
	*out = append(*out, move.New(m.Pos().Offset(0, 1, 0), m.RemainingScaffold-len(toPlace), cost, toBreak, toPlace, false))
}

// parkour jumps over a gap in front of the agent. Without sprinting only a
// one-cell gap is attempted; with it, up to three. Variants land level,
// one higher, or one lower.
func (pv *Provider) parkour(m move.Move, dir geom.Pos, out *[]move.Move) {
	pol := &pv.policy
	floor := pv.at(m, 0, -1, 0)
	gap := pv.at(m, dir.X, -1, dir.Z)
	if gap.physical && gap.height >= floor.height {
		return
	}
	if !pv.clear(pv.at(m, dir.X, 0, dir.Z)) || !pv.clear(pv.at(m, dir.X, 1, dir.Z)) {
		return
	}
	if pv.at(m, 0, 0, 0).liquid {
		return
	}

	base := 1 + pv.entities(m.Pos().Add(dir))*pol.EntityCost
	ceiling := pv.clear(pv.at(m, 0, 2, 0)) && pv.clear(pv.at(m, dir.X, 2, dir.Z))
	floorClear := !pv.at(m, dir.X, -2, dir.Z).physical

	maxD := 2
	if pol.AllowSprinting {
		maxD = 4
	}
	emit := func(p geom.Pos, cost float64) {
		if cost < Impassable {
			*out = append(*out, move.New(p, m.RemainingScaffold, cost, nil, nil, true))
		}
	}
	for dist := 2; dist <= maxD; dist++ {
		dx, dz := dir.X*dist, dir.Z*dist
		a := pv.at(m, dx, 2, dz)
		b := pv.at(m, dx, 1, dz)
		c := pv.at(m, dx, 0, dz)
		d := pv.at(m, dx, -1, dz)

		switch {
		case ceiling && pv.clear(b) && pv.clear(c) && d.physical:
			emit(c.pos, base+pv.stepCost(b)+pv.stepCost(c))
			return
		case ceiling && pv.clear(b) && c.physical:
			// Four out and one up fails too often to offer.
			if pv.clear(a) && dist != 4 {
				if c.height-floor.height > maxJumpHeight {
					return
				}
				emit(b.pos, base+pv.stepCost(a)+pv.stepCost(b)+pv.entities(b.pos)*pol.EntityCost)
				return
			}
		case (ceiling || dist == 2) && pv.clear(b) && pv.clear(c) && pv.clear(d) && floorClear:
			e := pv.at(m, dx, -2, dz)
			if e.physical {
				emit(d.pos, base+pv.stepCost(d)+pv.entities(d.pos)*pol.EntityCost)
			}
			floorClear = floorClear && !e.physical
		case !pv.clear(b) || !pv.clear(c):
			return
		}
		ceiling = ceiling && pv.clear(a)
	}
}
