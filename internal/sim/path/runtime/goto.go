package runtime

import (
	"context"
	"fmt"

	"voxelpath.ai/internal/sim/path/astar"
	"voxelpath.ai/internal/sim/path/goals"
)

type GotoOptions struct {
	// Dynamic is passed to SetGoal.
	Dynamic bool
	// AllowPartial keeps waiting after a search ends without reaching the goal.
	AllowPartial bool
	// SilentPathCancel resolves with nil instead of an error when the goal is
	// replaced or the path is stopped.
	SilentPathCancel bool
}

// Goto sets g as the goal and waits until it is reached. Something else must
// keep calling Tick. Cancelling ctx stops the agent if g is still the goal.
func (s *Supervisor) Goto(ctx context.Context, g goals.Goal, opts GotoOptions) error {
	done := make(chan error, 1)
	resolve := func(err error) {
		select {
		case done <- err:
		default:
		}
	}
	cancelled := func(err error) {
		if opts.SilentPathCancel {
			resolve(nil)
			return
		}
		resolve(err)
	}

	var id uint64
	var unsubscribe func()
	s.do(func() {
		unsubscribe = s.subscribe(func(ev Event) {
			switch ev.Type {
			case EventGoalUpdated:
				if ev.GoalID != id {
					cancelled(ErrGoalChanged)
				}
			case EventPathStop:
				cancelled(ErrPathStopped)
			case EventGoalReached:
				if ev.GoalID == id {
					resolve(nil)
				}
			case EventGoalUnreachable:
				if ev.GoalID == id {
					resolve(ErrNoPath)
				}
			case EventPathUpdate:
				if ev.GoalID != id || opts.AllowPartial {
					return
				}
				switch ev.Result.Status {
				case astar.NoPath:
					resolve(fmt.Errorf("search %s: %w", ev.RunID, ErrNoPath))
				case astar.Timeout:
					resolve(fmt.Errorf("search %s: %w", ev.RunID, ErrTimeout))
				}
			}
		})
		id = s.setGoal(g, opts.Dynamic)
	})
	defer unsubscribe()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.do(func() {
			if s.goalID == id && s.goal != nil {
				s.requestStop()
			}
		})
		return ctx.Err()
	}
}
