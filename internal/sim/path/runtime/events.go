package runtime

import (
	"time"

	"voxelpath.ai/internal/sim/path/astar"
	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/goals"
)

type EventType string

const (
	EventGoalUpdated     EventType = "goal_updated"
	EventPathUpdate      EventType = "path_update"
	EventPathReset       EventType = "path_reset"
	EventGoalReached     EventType = "goal_reached"
	EventPathStop        EventType = "path_stop"
	EventGoalUnreachable EventType = "goal_unreachable"
)

// Reset reasons carried by path_reset events.
const (
	ReasonGoalUpdated      = "goal_updated"
	ReasonMovementsUpdated = "movements_updated"
	ReasonBlockUpdated     = "block_updated"
	ReasonChunkLoaded      = "chunk_loaded"
	ReasonGoalMoved        = "goal_moved"
	ReasonDigError         = "dig_error"
	ReasonPlaceError       = "place_error"
	ReasonNoScaffolding    = "no_scaffolding"
	ReasonStuck            = "stuck"
)

// Event is one lifecycle notification. Only the fields relevant to Type are set.
type Event struct {
	Type EventType
	At   time.Time
	// GoalID increases with every SetGoal call.
	GoalID  uint64
	Goal    goals.Goal
	Dynamic bool

	// RunID and Result describe a finished search (path_update).
	RunID  string
	Result *astar.Result
	// Chunks are the chunk columns the search expanded nodes in.
	Chunks []geom.ChunkKey

	// Reason and Err explain a path_reset.
	Reason string
	Err    error
}

type Observer func(Event)

type observerEntry struct {
	id uint64
	fn Observer
}
