// Package agentsim is a headless agent body for driving the pathfinder
// without a game host. Each Step advances physics one tick from the held
// controls and confirms actuation requests once their delay has elapsed.
//
// A Body is not safe for concurrent use. Drive it from the goroutine that
// calls the supervisor's Tick.
package agentsim

import (
	"errors"
	"fmt"
	"math"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
	"voxelpath.ai/internal/sim/path/physics"
)

// TickMs is the length of one Step in milliseconds.
const TickMs = 50

// Reach is the farthest block centre the body can dig or place against,
// measured from the eyes.
const Reach = 5.0

const eyeHeight = 1.62

var (
	ErrNotCarried  = errors.New("item not carried")
	ErrOutOfReach  = errors.New("out of reach")
	ErrNotSolid    = errors.New("nothing to dig")
	ErrOccupied    = errors.New("target occupied")
	ErrNoItem      = errors.New("no placeable item held")
	ErrDigAborted  = errors.New("digging aborted")
	ErrUnbreakable = errors.New("unbreakable")
)

// World is a block world the body can edit.
type World interface {
	pathenv.World
	SetBlock(p geom.Pos, typ string) error
}

// job is a request confirmed after a number of ticks.
type job struct {
	left  int
	ch    chan error
	apply func() error
}

type Body struct {
	world World
	tools pathenv.ToolTable
	sim   *physics.Sim
	st    physics.State
	fx    pathenv.Effects
	items []pathenv.Item
	held  int // index into items, -1 for an empty hand
	pitch float64
	ticks uint64

	jobs []*job
	dig  *job
}

// Option configures a Body.
type Option func(*Body)

func WithItems(items ...pathenv.Item) Option {
	return func(b *Body) { b.items = append(b.items, items...) }
}

func WithEffects(fx pathenv.Effects) Option {
	return func(b *Body) { b.fx = fx }
}

// WithClimbable overrides which blocks the body can climb.
func WithClimbable(fn func(pathenv.Block) bool) Option {
	return func(b *Body) { b.sim.IsClimbable = fn }
}

// New stands a body at pos and lets it settle onto whatever is below.
func New(w World, tools pathenv.ToolTable, pos geom.Vec3, opts ...Option) *Body {
	b := &Body{world: w, tools: tools, sim: physics.New(w), held: -1}
	for _, o := range opts {
		o(b)
	}
	b.st.Pos = b.sim.Settle(pos)
	b.st.OnGround = true
	return b
}

// Step runs one tick: due confirmations first, then physics.
func (b *Body) Step() {
	b.ticks++
	live := b.jobs[:0]
	for _, j := range b.jobs {
		j.left--
		if j.left > 0 {
			live = append(live, j)
			continue
		}
		if j == b.dig {
			b.dig = nil
		}
		j.ch <- j.apply()
	}
	b.jobs = live
	b.sim.Step(&b.st)
}

// Ticks is how many times Step has run.
func (b *Body) Ticks() uint64 { return b.ticks }

func (b *Body) State() physics.State { return b.st }

func (b *Body) Position() geom.Vec3        { return b.st.Pos }
func (b *Body) Velocity() geom.Vec3        { return b.st.Vel }
func (b *Body) OnGround() bool             { return b.st.OnGround }
func (b *Body) InWater() bool              { return b.st.InWater }
func (b *Body) Yaw() float64               { return b.st.Yaw }
func (b *Body) Pitch() float64             { return b.pitch }
func (b *Body) Effects() pathenv.Effects   { return b.fx }
func (b *Body) Controls() physics.Controls { return b.st.Control }

// Items is a copy of the carried stacks.
func (b *Body) Items() []pathenv.Item {
	return append([]pathenv.Item(nil), b.items...)
}

// Held is the item in hand, if any.
func (b *Body) Held() (pathenv.Item, bool) {
	if b.held < 0 || b.held >= len(b.items) {
		return pathenv.Item{}, false
	}
	return b.items[b.held], true
}

func (b *Body) schedule(ticks int, apply func() error) <-chan error {
	j := &job{left: max(ticks, 1), ch: make(chan error, 1), apply: apply}
	b.jobs = append(b.jobs, j)
	return j.ch
}

func (b *Body) Equip(it pathenv.Item) <-chan error {
	return b.schedule(1, func() error {
		for i := range b.items {
			if b.items[i].Type == it.Type && b.items[i].Count > 0 {
				b.held = i
				return nil
			}
		}
		return fmt.Errorf("equip %s: %w", it.Type, ErrNotCarried)
	})
}

func (b *Body) Dig(blk pathenv.Block) <-chan error {
	if b.dig != nil {
		b.StopDigging()
	}
	cur, ok := b.world.BlockAt(blk.Pos)
	switch {
	case !ok || !cur.Diggable && len(cur.Shapes) == 0:
		return pathenv.Done(fmt.Errorf("dig %s: %w", blk.Pos, ErrNotSolid))
	case !b.inReach(blk.Pos):
		return pathenv.Done(fmt.Errorf("dig %s: %w", blk.Pos, ErrOutOfReach))
	}
	var tool *pathenv.Item
	if it, ok := b.Held(); ok {
		tool = &it
	}
	ms := b.tools.DigTimeMs(cur, tool, b.fx)
	if math.IsInf(ms, 1) {
		return pathenv.Done(fmt.Errorf("dig %s: %w", blk.Pos, ErrUnbreakable))
	}
	p := blk.Pos
	ch := b.schedule(int(math.Ceil(ms/TickMs)), func() error {
		return b.world.SetBlock(p, "air")
	})
	b.dig = b.jobs[len(b.jobs)-1]
	return ch
}

// StopDigging aborts the dig in progress; its future receives ErrDigAborted.
func (b *Body) StopDigging() {
	d := b.dig
	if d == nil {
		return
	}
	b.dig = nil
	for i, j := range b.jobs {
		if j == d {
			b.jobs = append(b.jobs[:i], b.jobs[i+1:]...)
			break
		}
	}
	d.ch <- ErrDigAborted
}

func (b *Body) PlaceBlock(ref pathenv.Block, face geom.Pos) <-chan error {
	target := ref.Pos.Add(face)
	if !b.inReach(ref.Pos) {
		return pathenv.Done(fmt.Errorf("place %s: %w", target, ErrOutOfReach))
	}
	return b.schedule(1, func() error {
		it, ok := b.Held()
		if !ok || it.Count <= 0 {
			return fmt.Errorf("place %s: %w", target, ErrNoItem)
		}
		cur, loaded := b.world.BlockAt(target)
		if !loaded || len(cur.Shapes) > 0 {
			return fmt.Errorf("place %s: %w", target, ErrOccupied)
		}
		cell := geom.AABB{Min: target.Vec(), Max: target.Vec().Offset(1, 1, 1)}
		if cell.Intersects(b.st.BoundingBox()) {
			return fmt.Errorf("place %s: %w by agent", target, ErrOccupied)
		}
		if err := b.world.SetBlock(target, it.Type); err != nil {
			return fmt.Errorf("place %s: %w", target, err)
		}
		b.items[b.held].Count--
		if b.items[b.held].Count == 0 {
			b.items = append(b.items[:b.held], b.items[b.held+1:]...)
			b.held = -1
		}
		return nil
	})
}

func (b *Body) Look(yaw, pitch float64) {
	b.st.Yaw, b.pitch = yaw, pitch
}

func (b *Body) SetControlState(c pathenv.Control, on bool) {
	b.st.Control.Set(c, on)
}

func (b *Body) ClearControlStates() {
	b.st.Control = physics.Controls{}
}

// Recenter snaps the body to the middle of its cell and stops it.
func (b *Body) Recenter() {
	c := b.st.Pos.Floored().Center()
	b.st.Pos.X, b.st.Pos.Z = c.X, c.Z
	b.st.Vel.X, b.st.Vel.Z = 0, 0
}

func (b *Body) inReach(p geom.Pos) bool {
	eye := b.st.Pos.Offset(0, eyeHeight, 0)
	return eye.DistanceTo(p.Center()) <= Reach
}
