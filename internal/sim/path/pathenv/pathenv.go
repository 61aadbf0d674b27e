// Package pathenv holds the narrow collaborator interfaces the pathfinder consumes:
// world queries, inventory, tool data, the agent body and its actuation.
package pathenv

import "voxelpath.ai/internal/sim/path/geom"

type BoundingBox uint8

const (
	BoundingBoxEmpty BoundingBox = iota
	BoundingBoxBlock
)

type Block struct {
	Type        string
	Pos         geom.Pos
	BoundingBox BoundingBox
	// Shapes are collision boxes in cell-local coordinates.
	Shapes   []geom.AABB
	Diggable bool
	Material string
	Hardness float64
	// HarvestTools lists item types that can harvest the block; empty means any.
	HarvestTools []string
}

// Height is the top of the block's tallest collision shape, relative to its cell.
func (b Block) Height() float64 {
	h := 0.0
	for _, s := range b.Shapes {
		if s.Max.Y > h {
			h = s.Max.Y
		}
	}
	return h
}

type Item struct {
	Type       string
	Count      int
	Efficiency int
}

type Effects struct {
	Haste         int
	MiningFatigue int
}

type Hit struct {
	Pos   geom.Pos
	Face  geom.Pos
	Point geom.Vec3
	Block Block
}

type World interface {
	// BlockAt reports false when the cell is not loaded.
	BlockAt(p geom.Pos) (Block, bool)
	Raycast(origin, dir geom.Vec3, maxDist float64) (Hit, bool)
}

type Inventory interface {
	Items() []Item
}

type ToolTable interface {
	DigTimeMs(b Block, tool *Item, fx Effects) float64
}

type Agent interface {
	Position() geom.Vec3
	Velocity() geom.Vec3
	OnGround() bool
	InWater() bool
	Yaw() float64
	Effects() Effects
}

type Control string

const (
	ControlForward Control = "forward"
	ControlBack    Control = "back"
	ControlLeft    Control = "left"
	ControlRight   Control = "right"
	ControlJump    Control = "jump"
	ControlSprint  Control = "sprint"
	ControlSneak   Control = "sneak"
)

// Actuator issues world-interaction requests. Each request returns a future that
// receives exactly one value (nil on success) when the host confirms it.
type Actuator interface {
	Equip(it Item) <-chan error
	Dig(b Block) <-chan error
	StopDigging()
	PlaceBlock(ref Block, face geom.Pos) <-chan error
	Look(yaw, pitch float64)
	SetControlState(c Control, on bool)
	ClearControlStates()
}

// Recenterer is optionally implemented by hosts that can snap the agent to the
// middle of its cell and zero horizontal velocity.
type Recenterer interface {
	Recenter()
}

// Done returns an already-resolved future.
func Done(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}
