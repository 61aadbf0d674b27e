package goals

import (
	"math"

	"voxelpath.ai/internal/sim/path/geom"
)

// CompositeAny is satisfied by any of its goals; the search heads for the cheapest.
type CompositeAny struct {
	Goals []Goal
}

func NewCompositeAny(gs ...Goal) *CompositeAny { return &CompositeAny{Goals: gs} }

func (g *CompositeAny) Push(goal Goal) { g.Goals = append(g.Goals, goal) }

func (g *CompositeAny) Heuristic(p geom.Pos) float64 {
	h := math.MaxFloat64
	for _, sub := range g.Goals {
		h = math.Min(h, sub.Heuristic(p))
	}
	return h
}

func (g *CompositeAny) IsEnd(p geom.Pos) bool {
	for _, sub := range g.Goals {
		if sub.IsEnd(p) {
			return true
		}
	}
	return false
}

func (g *CompositeAny) HasChanged() bool { return anyChanged(g.Goals) }

// CompositeAll needs every goal satisfied at once.
type CompositeAll struct {
	Goals []Goal
}

func NewCompositeAll(gs ...Goal) *CompositeAll { return &CompositeAll{Goals: gs} }

func (g *CompositeAll) Push(goal Goal) { g.Goals = append(g.Goals, goal) }

func (g *CompositeAll) Heuristic(p geom.Pos) float64 {
	h := math.SmallestNonzeroFloat64
	for _, sub := range g.Goals {
		h = math.Max(h, sub.Heuristic(p))
	}
	return h
}

func (g *CompositeAll) IsEnd(p geom.Pos) bool {
	for _, sub := range g.Goals {
		if !sub.IsEnd(p) {
			return false
		}
	}
	return true
}

func (g *CompositeAll) HasChanged() bool { return anyChanged(g.Goals) }

// anyChanged polls every goal so each dynamic member refreshes its cache this tick.
func anyChanged(gs []Goal) bool {
	changed := false
	for _, sub := range gs {
		if sub.HasChanged() {
			changed = true
		}
	}
	return changed
}

// Invert flips a goal: used to run away from something.
type Invert struct {
	Goal Goal
}

func NewInvert(g Goal) Invert { return Invert{Goal: g} }

func (g Invert) Heuristic(p geom.Pos) float64 { return -g.Goal.Heuristic(p) }

func (g Invert) IsEnd(p geom.Pos) bool { return !g.Goal.IsEnd(p) }

func (g Invert) HasChanged() bool { return g.Goal.HasChanged() }
