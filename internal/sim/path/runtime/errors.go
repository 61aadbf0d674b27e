package runtime

import "errors"

var (
	ErrNoPath        = errors.New("no path to the goal")
	ErrTimeout       = errors.New("took too long to decide a path to the goal")
	ErrGoalChanged   = errors.New("goal changed before it was reached")
	ErrPathStopped   = errors.New("path stopped before the goal was reached")
	ErrDig           = errors.New("dig failed")
	ErrPlace         = errors.New("place failed")
	ErrStuck         = errors.New("no progress toward the next node")
	ErrNoScaffolding = errors.New("no scaffolding item in inventory")
)
