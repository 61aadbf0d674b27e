package runtime

import (
	"fmt"
	"time"

	"voxelpath.ai/internal/sim/path/move"
	"voxelpath.ai/internal/sim/path/movements"
	"voxelpath.ai/internal/sim/path/pathenv"
	"voxelpath.ai/internal/sim/path/physics"
)

// edgePitch looks almost straight down while backing onto an edge.
const edgePitch = -1.421

func (s *Supervisor) dig(now time.Time, next *move.Move) {
	s.state = Digging
	if !s.env.Agent.OnGround() && !s.env.Agent.InWater() {
		s.checkStall(now)
		return
	}
	p := next.ToBreak[0].Pos
	b, ok := s.env.World.BlockAt(p)
	if !ok {
		s.resetPath(ReasonDigError, fmt.Errorf("dig %s: %w: not loaded", p, ErrDig))
		return
	}
	if s.policy.EmptyBlocks.Has(b.Type) {
		next.ToBreak = next.ToBreak[1:]
		return
	}
	s.fullStop()
	e := &edit{dig: true, block: b, since: now}
	tool, ms := movements.BestHarvestTool(s.items(), s.env.Tools, s.env.Agent.Effects(), b)
	if tool != nil {
		e.equip = s.env.Actuator.Equip(*tool)
	} else {
		s.issue(e)
	}
	s.edit = e
	s.debugf("dig %s %s (%.0fms)", b.Type, p, ms)
}

func (s *Supervisor) place(now time.Time, next *move.Move) {
	s.state = Placing
	if s.placing == nil {
		pl := next.ToPlace[0]
		s.placing = &pl
		s.placeSince = now
		s.fullStop()
	}
	if now.Sub(s.placeSince) > s.cfg.EditStallTimeout {
		s.resetPath(ReasonStuck, ErrStuck)
		return
	}
	item, ok := movements.ScaffoldItem(s.items(), s.policy.ScaffoldItems)
	if !ok {
		s.resetPath(ReasonNoScaffolding, ErrNoScaffolding)
		return
	}
	pl := *s.placing
	if s.cfg.LOSWhenPlacing && pl.Face.Y == 0 && pl.Pos.Y == s.env.Agent.Position().Floored().Y-1 {
		if !s.alignToEdge(pl) {
			return
		}
	}
	if pl.Jump {
		s.setControl(pathenv.ControlJump, true)
		if float64(pl.Pos.Y)+1 >= s.env.Agent.Position().Y {
			return
		}
	}
	ref, ok := s.env.World.BlockAt(pl.Pos)
	if !ok {
		s.resetPath(ReasonPlaceError, fmt.Errorf("place %s: %w: reference not loaded", pl.Target(), ErrPlace))
		return
	}
	s.edit = &edit{block: ref, place: pl, since: now, equip: s.env.Actuator.Equip(item)}
	s.debugf("place %s on %s", item.Type, pl.Target())
}

// alignToEdge backs the agent, sneaking, toward the cell it is about to
// bridge into until it stands on the edge of its block.
func (s *Supervisor) alignToEdge(pl move.BlockPlacement) bool {
	pos := s.env.Agent.Position()
	edge := pl.Target().Vec().Offset(0.5, 1, 0.5)
	if pos.DistanceTo(edge) > 0.4 {
		s.env.Actuator.Look(physics.YawToward(edge, pos), edgePitch)
		s.setControl(pathenv.ControlSneak, true)
		s.setControl(pathenv.ControlBack, true)
		return false
	}
	s.setControl(pathenv.ControlBack, false)
	return true
}

// issue sends the dig or placement itself once the right item is held.
func (s *Supervisor) issue(e *edit) {
	if e.dig {
		e.done = s.env.Actuator.Dig(e.block)
		return
	}
	if s.policy.Openable.Has(e.block.Type) {
		s.setControl(pathenv.ControlSneak, true)
	}
	e.done = s.env.Actuator.PlaceBlock(e.block, e.place.Face)
}

// pollEdit checks the in-flight edit's futures without blocking. A stalled
// dig is aborted; a failed one has already ended.
func (s *Supervisor) pollEdit(now time.Time) {
	e := s.edit
	if e == nil {
		return
	}
	if now.Sub(e.since) > s.cfg.EditStallTimeout {
		s.failEdit(ReasonStuck, ErrStuck)
		return
	}
	if e.equip != nil {
		select {
		case err := <-e.equip:
			e.equip = nil
			if err != nil {
				s.edit = nil
				s.failEdit(s.editReason(e), fmt.Errorf("equip: %w: %w", s.editErr(e), err))
				return
			}
			s.issue(e)
		default:
			return
		}
	}
	select {
	case err := <-e.done:
		if err != nil {
			s.edit = nil
			s.failEdit(s.editReason(e), fmt.Errorf("%s: %w: %w", e.target(), s.editErr(e), err))
			return
		}
		s.finishEdit(e, now)
	default:
	}
}

func (s *Supervisor) editReason(e *edit) string {
	if e.dig {
		return ReasonDigError
	}
	return ReasonPlaceError
}

func (s *Supervisor) editErr(e *edit) error {
	if e.dig {
		return ErrDig
	}
	return ErrPlace
}

func (s *Supervisor) failEdit(reason string, err error) {
	s.debugf("edit failed: %v", err)
	s.resetPath(reason, err)
}

// finishEdit clears the confirmed edit from the head of the path.
func (s *Supervisor) finishEdit(e *edit, now time.Time) {
	s.edit = nil
	s.lastProgress = now
	s.state = Moving
	if len(s.path) == 0 {
		return
	}
	next := &s.path[0]
	if e.dig {
		if len(next.ToBreak) > 0 {
			next.ToBreak = next.ToBreak[1:]
		}
		return
	}
	if len(next.ToPlace) > 0 {
		next.ToPlace = next.ToPlace[1:]
	}
	s.placing = nil
	s.setControl(pathenv.ControlSneak, false)
	s.setControl(pathenv.ControlJump, false)
	if s.cfg.LOSWhenPlacing && e.place.ReturnPos != nil {
		back := *e.place.ReturnPos
		s.returning = &back
	}
}
