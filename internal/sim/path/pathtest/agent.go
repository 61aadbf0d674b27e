package pathtest

import (
	"fmt"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
)

// Agent is a body that only moves when a test moves it.
type Agent struct {
	Pos     geom.Vec3
	Vel     geom.Vec3
	Ground  bool
	Water   bool
	Heading float64
	Fx      pathenv.Effects
}

// AgentAt stands a grounded agent in the middle of cell p.
func AgentAt(p geom.Pos) *Agent {
	return &Agent{Pos: p.Center(), Ground: true}
}

func (a *Agent) Position() geom.Vec3      { return a.Pos }
func (a *Agent) Velocity() geom.Vec3      { return a.Vel }
func (a *Agent) OnGround() bool           { return a.Ground }
func (a *Agent) InWater() bool            { return a.Water }
func (a *Agent) Yaw() float64             { return a.Heading }
func (a *Agent) Effects() pathenv.Effects { return a.Fx }

func (a *Agent) Recenter() {
	c := a.Pos.Floored().Center()
	a.Pos = geom.Vec3{X: c.X, Y: a.Pos.Y, Z: c.Z}
	a.Vel = geom.Vec3{}
}

// Actuator records every request. With Manual unset, futures resolve
// immediately (and dig/place edits are applied to World when it is set);
// otherwise they stay pending until Resolve.
type Actuator struct {
	World    *World
	Manual   bool
	EquipErr error
	DigErr   error
	PlaceErr error

	Calls    []string
	Controls map[pathenv.Control]bool
	Held     *pathenv.Item
	LookYaw  float64
	LookPit  float64

	pending []pendingReq
}

type pendingReq struct {
	ch    chan error
	err   error
	apply func()
}

func (a *Actuator) future(err error, apply func()) <-chan error {
	ch := make(chan error, 1)
	if a.Manual {
		a.pending = append(a.pending, pendingReq{ch: ch, err: err, apply: apply})
		return ch
	}
	if err == nil && apply != nil {
		apply()
	}
	ch <- err
	return ch
}

// Pending is the number of unresolved futures.
func (a *Actuator) Pending() int { return len(a.pending) }

// Resolve completes every pending future with its configured outcome.
func (a *Actuator) Resolve() {
	for _, p := range a.pending {
		if p.err == nil && p.apply != nil {
			p.apply()
		}
		p.ch <- p.err
	}
	a.pending = nil
}

func (a *Actuator) Equip(it pathenv.Item) <-chan error {
	a.Calls = append(a.Calls, "equip "+it.Type)
	item := it
	return a.future(a.EquipErr, func() { a.Held = &item })
}

func (a *Actuator) Dig(b pathenv.Block) <-chan error {
	a.Calls = append(a.Calls, "dig "+b.Pos.String())
	return a.future(a.DigErr, func() {
		if a.World != nil {
			a.World.Set(b.Pos, "air")
		}
	})
}

func (a *Actuator) StopDigging() {
	a.Calls = append(a.Calls, "stop_digging")
}

func (a *Actuator) PlaceBlock(ref pathenv.Block, face geom.Pos) <-chan error {
	target := ref.Pos.Add(face)
	a.Calls = append(a.Calls, fmt.Sprintf("place %s", target))
	return a.future(a.PlaceErr, func() {
		if a.World == nil {
			return
		}
		typ := "dirt"
		if a.Held != nil {
			typ = a.Held.Type
		}
		a.World.Set(target, typ)
	})
}

func (a *Actuator) Look(yaw, pitch float64) {
	a.LookYaw, a.LookPit = yaw, pitch
}

func (a *Actuator) SetControlState(c pathenv.Control, on bool) {
	if a.Controls == nil {
		a.Controls = map[pathenv.Control]bool{}
	}
	a.Controls[c] = on
}

func (a *Actuator) ClearControlStates() {
	a.Controls = map[pathenv.Control]bool{}
}
