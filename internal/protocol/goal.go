package protocol

import (
	"fmt"
	"math"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/goals"
	"voxelpath.ai/internal/sim/path/pathenv"
)

// Goal kinds.
const (
	GoalBlock      = "BLOCK"
	GoalNear       = "NEAR"
	GoalXZ         = "XZ"
	GoalY          = "Y"
	GoalGetToBlock = "GET_TO_BLOCK"
	GoalLookAt     = "LOOK_AT_BLOCK"
	GoalPlaceBlock = "PLACE_BLOCK"
	GoalAny        = "ANY"
	GoalAll        = "ALL"
	GoalInvert     = "INVERT"
	// GoalOther describes goals that have no wire form, such as Follow.
	GoalOther = "OTHER"
)

// GoalSpec is the wire form of a goal. Pos is [x,y,z]; XZ ignores y and Y
// ignores x and z.
type GoalSpec struct {
	Kind  string     `json:"kind"`
	Pos   [3]int     `json:"pos,omitempty"`
	Range float64    `json:"range,omitempty"`
	LOS   bool       `json:"los,omitempty"`
	Goals []GoalSpec `json:"goals,omitempty"`
}

func pos(p [3]int) geom.Pos { return geom.Pos{X: p[0], Y: p[1], Z: p[2]} }

// Goal builds the goal described by g. World is needed by the interaction
// kinds that test line of sight.
func (g GoalSpec) Goal(w pathenv.World) (goals.Goal, error) {
	p := g.Pos
	switch g.Kind {
	case GoalBlock:
		return goals.NewBlock(p[0], p[1], p[2]), nil
	case GoalNear:
		if g.Range <= 0 || math.IsNaN(g.Range) || math.IsInf(g.Range, 0) {
			return nil, fmt.Errorf("near goal: bad range %v", g.Range)
		}
		return goals.NewNear(p[0], p[1], p[2], g.Range), nil
	case GoalXZ:
		return goals.NewXZ(p[0], p[2]), nil
	case GoalY:
		return goals.NewY(p[1]), nil
	case GoalGetToBlock:
		return goals.NewGetToBlock(p[0], p[1], p[2]), nil
	case GoalLookAt, GoalPlaceBlock:
		if w == nil {
			return nil, fmt.Errorf("%s goal: no world", g.Kind)
		}
		if g.Kind == GoalLookAt {
			return goals.NewLookAtBlock(pos(p), w, g.Range), nil
		}
		return goals.NewPlaceBlock(pos(p), w, g.Range, g.LOS), nil
	case GoalAny, GoalAll:
		if len(g.Goals) == 0 {
			return nil, fmt.Errorf("%s goal: no members", g.Kind)
		}
		subs := make([]goals.Goal, 0, len(g.Goals))
		for i, s := range g.Goals {
			sub, err := s.Goal(w)
			if err != nil {
				return nil, fmt.Errorf("%s goal member %d: %w", g.Kind, i, err)
			}
			subs = append(subs, sub)
		}
		if g.Kind == GoalAny {
			return goals.NewCompositeAny(subs...), nil
		}
		return goals.NewCompositeAll(subs...), nil
	case GoalInvert:
		if len(g.Goals) != 1 {
			return nil, fmt.Errorf("invert goal: want 1 member, got %d", len(g.Goals))
		}
		sub, err := g.Goals[0].Goal(w)
		if err != nil {
			return nil, fmt.Errorf("invert goal: %w", err)
		}
		return goals.NewInvert(sub), nil
	default:
		return nil, fmt.Errorf("unknown goal kind %q", g.Kind)
	}
}

// DescribeGoal returns the wire form of g, or nil for a nil goal.
func DescribeGoal(g goals.Goal) *GoalSpec {
	if g == nil {
		return nil
	}
	at := func(p geom.Pos) [3]int { return [3]int{p.X, p.Y, p.Z} }
	members := func(gs []goals.Goal) []GoalSpec {
		out := make([]GoalSpec, 0, len(gs))
		for _, sub := range gs {
			out = append(out, *DescribeGoal(sub))
		}
		return out
	}
	switch g := g.(type) {
	case goals.Block:
		return &GoalSpec{Kind: GoalBlock, Pos: at(g.Target)}
	case goals.Near:
		return &GoalSpec{Kind: GoalNear, Pos: at(g.Target), Range: math.Sqrt(g.RangeSq)}
	case goals.XZ:
		return &GoalSpec{Kind: GoalXZ, Pos: [3]int{g.X, 0, g.Z}}
	case goals.Y:
		return &GoalSpec{Kind: GoalY, Pos: [3]int{0, g.Y, 0}}
	case goals.GetToBlock:
		return &GoalSpec{Kind: GoalGetToBlock, Pos: at(g.Target)}
	case goals.LookAtBlock:
		return &GoalSpec{Kind: GoalLookAt, Pos: at(g.Target), Range: g.Reach}
	case goals.PlaceBlock:
		return &GoalSpec{Kind: GoalPlaceBlock, Pos: at(g.Target), Range: g.Range, LOS: g.LOS}
	case *goals.CompositeAny:
		return &GoalSpec{Kind: GoalAny, Goals: members(g.Goals)}
	case *goals.CompositeAll:
		return &GoalSpec{Kind: GoalAll, Goals: members(g.Goals)}
	case goals.Invert:
		return &GoalSpec{Kind: GoalInvert, Goals: members([]goals.Goal{g.Goal})}
	case *goals.Follow:
		return &GoalSpec{Kind: GoalOther, Pos: at(g.Target()), Range: math.Sqrt(g.RangeSq())}
	default:
		return &GoalSpec{Kind: GoalOther}
	}
}
