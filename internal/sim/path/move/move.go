package move

import "voxelpath.ai/internal/sim/path/geom"

// BlockEdit is a cell that has to be mined before the move can be walked.
type BlockEdit struct {
	Pos geom.Pos
}

// BlockPlacement places a scaffold block against the reference cell Pos on face Face.
type BlockPlacement struct {
	Pos  geom.Pos
	Face geom.Pos
	// Jump means the agent has to jump before placing (towering).
	Jump bool
	// ReturnPos, when set, is where the agent should stand after placing.
	ReturnPos *geom.Pos
}

// Target is the cell the placed block will occupy.
func (p BlockPlacement) Target() geom.Pos {
	return p.Pos.Add(p.Face)
}

// Move is one discretized agent position plus what it takes to get there from
// its predecessor. Moves are not modified after construction.
type Move struct {
	X int
	Y int
	Z int
	// Cost is the edge cost from the predecessor.
	Cost              float64
	RemainingScaffold int
	ToBreak           []BlockEdit
	ToPlace           []BlockPlacement
	Parkour           bool

	hash string
}

func New(p geom.Pos, remaining int, cost float64, toBreak []BlockEdit, toPlace []BlockPlacement, parkour bool) Move {
	return Move{
		X:                 p.X,
		Y:                 p.Y,
		Z:                 p.Z,
		Cost:              cost,
		RemainingScaffold: remaining,
		ToBreak:           toBreak,
		ToPlace:           toPlace,
		Parkour:           parkour,
		hash:              p.Hash(),
	}
}

// Start is the zero-cost root move at the agent's cell.
func Start(p geom.Pos, scaffold int) Move {
	return New(p, scaffold, 0, nil, nil, false)
}

func (m Move) Pos() geom.Pos {
	return geom.Pos{X: m.X, Y: m.Y, Z: m.Z}
}

// Hash is equal for every move ending in the same cell.
func (m Move) Hash() string {
	if m.hash == "" {
		return m.Pos().Hash()
	}
	return m.hash
}

// HasEdits reports whether the move still needs blocks broken or placed.
func (m Move) HasEdits() bool {
	return len(m.ToBreak) > 0 || len(m.ToPlace) > 0
}
