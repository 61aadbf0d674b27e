package pathenv

import "voxelpath.ai/internal/sim/path/geom"

// Funcs implements every collaborator interface with optional function fields.
// Missing functions behave like an empty, unloaded world and an idle agent.
type Funcs struct {
	BlockAtFn   func(p geom.Pos) (Block, bool)
	RaycastFn   func(origin, dir geom.Vec3, maxDist float64) (Hit, bool)
	ItemsFn     func() []Item
	DigTimeMsFn func(b Block, tool *Item, fx Effects) float64

	PositionFn func() geom.Vec3
	VelocityFn func() geom.Vec3
	OnGroundFn func() bool
	InWaterFn  func() bool
	YawFn      func() float64
	EffectsFn  func() Effects

	EquipFn              func(it Item) <-chan error
	DigFn                func(b Block) <-chan error
	StopDiggingFn        func()
	PlaceBlockFn         func(ref Block, face geom.Pos) <-chan error
	LookFn               func(yaw, pitch float64)
	SetControlStateFn    func(c Control, on bool)
	ClearControlStatesFn func()
}

func (f Funcs) BlockAt(p geom.Pos) (Block, bool) {
	if f.BlockAtFn == nil {
		return Block{}, false
	}
	return f.BlockAtFn(p)
}

func (f Funcs) Raycast(origin, dir geom.Vec3, maxDist float64) (Hit, bool) {
	if f.RaycastFn == nil {
		return Hit{}, false
	}
	return f.RaycastFn(origin, dir, maxDist)
}

func (f Funcs) Items() []Item {
	if f.ItemsFn == nil {
		return nil
	}
	return f.ItemsFn()
}

func (f Funcs) DigTimeMs(b Block, tool *Item, fx Effects) float64 {
	if f.DigTimeMsFn == nil {
		return 0
	}
	return f.DigTimeMsFn(b, tool, fx)
}

func (f Funcs) Position() geom.Vec3 {
	if f.PositionFn == nil {
		return geom.Vec3{}
	}
	return f.PositionFn()
}

func (f Funcs) Velocity() geom.Vec3 {
	if f.VelocityFn == nil {
		return geom.Vec3{}
	}
	return f.VelocityFn()
}

func (f Funcs) OnGround() bool {
	if f.OnGroundFn == nil {
		return true
	}
	return f.OnGroundFn()
}

func (f Funcs) InWater() bool {
	if f.InWaterFn == nil {
		return false
	}
	return f.InWaterFn()
}

func (f Funcs) Yaw() float64 {
	if f.YawFn == nil {
		return 0
	}
	return f.YawFn()
}

func (f Funcs) Effects() Effects {
	if f.EffectsFn == nil {
		return Effects{}
	}
	return f.EffectsFn()
}

func (f Funcs) Equip(it Item) <-chan error {
	if f.EquipFn == nil {
		return Done(nil)
	}
	return f.EquipFn(it)
}

func (f Funcs) Dig(b Block) <-chan error {
	if f.DigFn == nil {
		return Done(nil)
	}
	return f.DigFn(b)
}

func (f Funcs) StopDigging() {
	if f.StopDiggingFn != nil {
		f.StopDiggingFn()
	}
}

func (f Funcs) PlaceBlock(ref Block, face geom.Pos) <-chan error {
	if f.PlaceBlockFn == nil {
		return Done(nil)
	}
	return f.PlaceBlockFn(ref, face)
}

func (f Funcs) Look(yaw, pitch float64) {
	if f.LookFn != nil {
		f.LookFn(yaw, pitch)
	}
}

func (f Funcs) SetControlState(c Control, on bool) {
	if f.SetControlStateFn != nil {
		f.SetControlStateFn(c, on)
	}
}

func (f Funcs) ClearControlStates() {
	if f.ClearControlStatesFn != nil {
		f.ClearControlStatesFn()
	}
}
