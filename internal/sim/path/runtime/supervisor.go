// Package runtime drives an agent along planned paths one tick at a time.
//
// A Supervisor owns the goal, the movement policy and the current path. Every
// Tick it polls outstanding actuation futures, checks whether the plan is
// still valid, advances a resumable search when one is running, and otherwise
// steers, digs or places toward the head of the path. Lifecycle events are
// queued while the state is locked and delivered to observers afterwards, so
// an observer may call back into the Supervisor.
package runtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"voxelpath.ai/internal/sim/path/astar"
	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/goals"
	"voxelpath.ai/internal/sim/path/move"
	"voxelpath.ai/internal/sim/path/movements"
	"voxelpath.ai/internal/sim/path/pathenv"
	"voxelpath.ai/internal/sim/path/physics"
)

type State uint8

const (
	Idle State = iota
	Thinking
	Moving
	Digging
	Placing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Thinking:
		return "thinking"
	case Moving:
		return "moving"
	case Digging:
		return "digging"
	case Placing:
		return "placing"
	default:
		return "unknown"
	}
}

const (
	DefaultStallTimeout     = 1500 * time.Millisecond
	DefaultEditStallTimeout = 30 * time.Second
	DefaultMaxNoPathRetries = 3

	// nearPath is the per-axis distance within which a block change
	// invalidates the remaining path.
	nearPath    = 3
	reachRadius = 0.15
)

type Config struct {
	// Timeout bounds a whole search; TickTimeout bounds the search work done
	// in one Tick.
	Timeout      time.Duration
	TickTimeout  time.Duration
	SearchRadius float64

	// StallTimeout is how long walking may go without reaching a node;
	// EditStallTimeout is the same for one dig or placement.
	StallTimeout     time.Duration
	EditStallTimeout time.Duration
	MaxNoPathRetries int

	// LOSWhenPlacing backs the agent onto the edge of its block before
	// bridging so the placement face is in view, and walks it back afterwards.
	LOSWhenPlacing bool

	Now    func() time.Time
	Debugf func(format string, args ...any)
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = astar.DefaultTimeout
	}
	if c.TickTimeout <= 0 {
		c.TickTimeout = astar.DefaultTickTimeout
	}
	if c.StallTimeout <= 0 {
		c.StallTimeout = DefaultStallTimeout
	}
	if c.EditStallTimeout <= 0 {
		c.EditStallTimeout = DefaultEditStallTimeout
	}
	if c.MaxNoPathRetries <= 0 {
		c.MaxNoPathRetries = DefaultMaxNoPathRetries
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Env is the agent the Supervisor drives. Inventory, Tools and EntityCount
// are optional.
type Env struct {
	World       pathenv.World
	Inventory   pathenv.Inventory
	Tools       pathenv.ToolTable
	Agent       pathenv.Agent
	Actuator    pathenv.Actuator
	EntityCount func(p geom.Pos) int
}

// edit is one dig or placement waiting for its futures.
type edit struct {
	dig   bool
	block pathenv.Block
	place move.BlockPlacement
	equip <-chan error
	done  <-chan error
	since time.Time
}

func (e *edit) target() geom.Pos {
	if e.dig {
		return e.block.Pos
	}
	return e.place.Target()
}

type Supervisor struct {
	mu     sync.Mutex
	env    Env
	cfg    Config
	sim    *physics.Sim
	oracle *physics.Oracle

	policy  movements.Policy
	goal    goals.Goal
	goalID  uint64
	dynamic bool

	state      State
	search     *astar.Search
	lastSearch *astar.Search
	runID      string
	path       []move.Move
	noPaths    int

	edit         *edit
	placing      *move.BlockPlacement
	placeSince   time.Time
	returning    *geom.Pos
	stopPending  bool
	lastProgress time.Time

	ctl       physics.Controls
	observers []observerEntry
	nextObs   uint64
	queued    []Event
}

func New(env Env, policy movements.Policy, cfg Config) *Supervisor {
	s := &Supervisor{env: env, cfg: cfg.withDefaults(), policy: policy}
	s.sim = physics.New(env.World)
	s.sim.IsClimbable = func(b pathenv.Block) bool { return s.policy.Climbable.Has(b.Type) }
	s.oracle = physics.NewOracle(s.sim, env.Agent, func() physics.Controls { return s.ctl })
	s.lastProgress = s.cfg.Now()
	return s
}

// Subscribe registers an observer and returns a function removing it.
func (s *Supervisor) Subscribe(o Observer) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribe(o)
}

func (s *Supervisor) subscribe(o Observer) func() {
	s.nextObs++
	id := s.nextObs
	s.observers = append(s.observers, observerEntry{id: id, fn: o})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.observers {
			if e.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// do runs fn with the state locked, then delivers whatever it emitted.
func (s *Supervisor) do(fn func()) {
	s.mu.Lock()
	fn()
	evs := s.queued
	s.queued = nil
	obs := append([]observerEntry(nil), s.observers...)
	s.mu.Unlock()
	for _, ev := range evs {
		for _, o := range obs {
			o.fn(ev)
		}
	}
}

func (s *Supervisor) emit(ev Event) {
	ev.At = s.cfg.Now()
	ev.GoalID = s.goalID
	if ev.Goal == nil {
		ev.Goal = s.goal
		ev.Dynamic = s.dynamic
	}
	s.queued = append(s.queued, ev)
}

func (s *Supervisor) debugf(format string, args ...any) {
	if s.cfg.Debugf != nil {
		s.cfg.Debugf(format, args...)
	}
}

// SetGoal replaces the goal. A dynamic goal is kept after it is reached and
// replanned whenever it moves. A nil goal stops the agent.
func (s *Supervisor) SetGoal(g goals.Goal, dynamic bool) {
	s.do(func() { s.setGoal(g, dynamic) })
}

func (s *Supervisor) setGoal(g goals.Goal, dynamic bool) uint64 {
	s.goalID++
	s.goal, s.dynamic = g, dynamic
	s.noPaths = 0
	s.queued = append(s.queued, Event{Type: EventGoalUpdated, At: s.cfg.Now(), GoalID: s.goalID, Goal: g, Dynamic: dynamic})
	if g == nil {
		s.requestStop()
		return s.goalID
	}
	// A stop still waiting on an edit belonged to the previous goal.
	s.stopPending = false
	s.resetPath(ReasonGoalUpdated, nil)
	return s.goalID
}

// SetPolicy replaces the movement policy and drops the current plan.
func (s *Supervisor) SetPolicy(p movements.Policy) {
	s.do(func() {
		s.policy = p
		s.resetPath(ReasonMovementsUpdated, nil)
		if s.stopPending {
			s.stop()
		}
	})
}

// Stop clears the goal and the path. A dig or placement that is already in
// flight keeps running until it is confirmed; only then is path_stop
// emitted and the body halted.
func (s *Supervisor) Stop() {
	s.do(s.requestStop)
}

func (s *Supervisor) requestStop() {
	s.goal = nil
	if s.edit == nil {
		s.stop()
		return
	}
	s.path = nil
	s.search = nil
	s.lastSearch = nil
	s.placing = nil
	s.returning = nil
	s.stopPending = true
}

func (s *Supervisor) stop() {
	s.stopPending = false
	s.goal = nil
	s.clearPath()
	s.emit(Event{Type: EventPathStop})
	s.fullStop()
}

func (s *Supervisor) IsMoving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.path) > 0 || s.search != nil
}

func (s *Supervisor) IsMining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Digging
}

func (s *Supervisor) IsBuilding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Placing
}

func (s *Supervisor) IsThinking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search != nil
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) Goal() goals.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goal
}

func (s *Supervisor) Policy() movements.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// Path returns a copy of the moves still ahead.
func (s *Supervisor) Path() []move.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]move.Move(nil), s.path...)
}

// OnBlockUpdate replans when a cell near the remaining path changes type.
// Changes made by the Supervisor's own dig or placement are ignored.
func (s *Supervisor) OnBlockUpdate(old, nu pathenv.Block) {
	s.do(func() {
		if old.Type == nu.Type || !s.nearPath(old.Pos) {
			return
		}
		if s.edit != nil && s.edit.target() == old.Pos {
			return
		}
		s.resetPath(ReasonBlockUpdated, nil)
	})
}

// OnChunkLoad replans when a chunk borders what the last search explored.
func (s *Supervisor) OnChunkLoad(k geom.ChunkKey) {
	s.do(func() {
		src := s.search
		if src == nil {
			src = s.lastSearch
		}
		if src == nil || !src.TouchesChunk(k) {
			return
		}
		s.resetPath(ReasonChunkLoaded, nil)
	})
}

func (s *Supervisor) nearPath(p geom.Pos) bool {
	for _, m := range s.path {
		d := m.Pos().Sub(p)
		if geom.Abs(d.X) <= nearPath && geom.Abs(d.Y) <= nearPath && geom.Abs(d.Z) <= nearPath {
			return true
		}
	}
	return false
}

// resetPath drops the plan so the next Tick searches again.
func (s *Supervisor) resetPath(reason string, err error) {
	if len(s.path) > 0 || s.search != nil {
		s.emit(Event{Type: EventPathReset, Reason: reason, Err: err})
		s.debugf("path reset: %s", reason)
	}
	s.clearPath()
	s.clearControls()
}

func (s *Supervisor) clearPath() {
	if s.edit != nil && s.edit.dig {
		s.env.Actuator.StopDigging()
	}
	s.path = nil
	s.search = nil
	s.lastSearch = nil
	s.edit = nil
	s.placing = nil
	s.returning = nil
	s.state = Idle
	s.lastProgress = s.cfg.Now()
}

func (s *Supervisor) setControl(c pathenv.Control, on bool) {
	s.ctl.Set(c, on)
	s.env.Actuator.SetControlState(c, on)
}

func (s *Supervisor) clearControls() {
	s.ctl = physics.Controls{}
	s.env.Actuator.ClearControlStates()
}

// fullStop releases every control and, when the host supports it, snaps the
// body to the middle of its cell so inertia does not carry it off.
func (s *Supervisor) fullStop() {
	s.clearControls()
	if r, ok := s.env.Agent.(pathenv.Recenterer); ok {
		r.Recenter()
	}
}

func (s *Supervisor) items() []pathenv.Item {
	if s.env.Inventory == nil {
		return nil
	}
	return s.env.Inventory.Items()
}

// nodeAt is the search cell the agent occupies. Standing on top of a partial
// block puts the feet inside that block's cell, so the node is one above it.
func (s *Supervisor) nodeAt() geom.Pos {
	pos := s.env.Agent.Position()
	p := pos.Floored()
	if pos.Y-float64(p.Y) > 0.001 && s.env.Agent.OnGround() {
		b, ok := s.env.World.BlockAt(p)
		if ok && b.BoundingBox == pathenv.BoundingBoxBlock && !s.policy.EmptyBlocks.Has(b.Type) {
			return p.Offset(0, 1, 0)
		}
	}
	return p
}

func (s *Supervisor) goalSatisfied() bool {
	return s.goal != nil && s.goal.IsEnd(s.nodeAt())
}

func (s *Supervisor) newSearch(g goals.Goal, timeout, tickTimeout time.Duration) *astar.Search {
	pv := movements.NewProvider(movements.Env{
		World:       s.env.World,
		Inventory:   s.env.Inventory,
		Tools:       s.env.Tools,
		Agent:       s.env.Agent,
		EntityCount: s.env.EntityCount,
	}, s.policy)
	return astar.New(pv.Start(s.nodeAt()), pv, g, astar.Options{
		Timeout:      timeout,
		TickTimeout:  tickTimeout,
		SearchRadius: s.cfg.SearchRadius,
		Now:          s.cfg.Now,
	})
}

// GetPathTo runs one blocking search from the agent's cell without touching
// the current plan. A non-positive timeout uses the configured one.
func (s *Supervisor) GetPathTo(g goals.Goal, timeout time.Duration) astar.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timeout <= 0 {
		timeout = s.cfg.Timeout
	}
	search := s.newSearch(g, timeout, timeout)
	for {
		if r := search.Compute(); r.Status != astar.Partial {
			return r
		}
	}
}

// Tick advances the Supervisor by one step.
func (s *Supervisor) Tick() {
	s.do(s.tick)
}

func (s *Supervisor) tick() {
	now := s.cfg.Now()
	s.pollEdit(now)
	if s.stopPending {
		if s.edit == nil {
			s.stop()
		}
		return
	}
	if s.freeMotion() {
		return
	}
	if s.goal != nil && s.goal.HasChanged() {
		s.resetPath(ReasonGoalMoved, nil)
	}
	if s.search != nil {
		s.think(now)
		return
	}
	if len(s.path) == 0 {
		s.lastProgress = now
		s.state = Idle
		if s.goal == nil {
			return
		}
		if s.goalSatisfied() {
			if !s.dynamic {
				s.reached()
			}
			return
		}
		s.search = s.newSearch(s.goal, s.cfg.Timeout, s.cfg.TickTimeout)
		s.runID = uuid.NewString()
		s.debugf("search %s from %s", s.runID, s.nodeAt())
		s.think(now)
		return
	}
	s.execute(now)
}

func (s *Supervisor) think(now time.Time) {
	s.state = Thinking
	r := s.search.Compute()
	if r.Status == astar.Partial {
		return
	}
	s.lastSearch, s.search = s.search, nil
	chunks := s.lastSearch.VisitedChunks()
	s.emit(Event{Type: EventPathUpdate, RunID: s.runID, Result: &r, Chunks: chunks})
	s.debugf("search %s: %s, %d moves, cost %.2f, %d nodes in %d chunks", s.runID, r.Status, len(r.Path), r.Cost, r.Visited, len(chunks))

	switch {
	case r.Status == astar.Success:
		s.noPaths = 0
	case r.Status == astar.NoPath || len(r.Path) == 0:
		s.noPaths++
	}
	if s.noPaths >= s.cfg.MaxNoPathRetries {
		s.giveUp()
		return
	}
	s.path = r.Path
	s.lastProgress = now
	if len(s.path) == 0 {
		s.state = Idle
		if r.Status == astar.Success && !s.dynamic {
			s.reached()
		}
		return
	}
	s.state = Moving
}

func (s *Supervisor) reached() {
	s.emit(Event{Type: EventGoalReached})
	s.goal = nil
	s.state = Idle
	s.fullStop()
}

func (s *Supervisor) giveUp() {
	s.emit(Event{Type: EventGoalUnreachable})
	s.debugf("giving up after %d failed searches", s.noPaths)
	s.goal = nil
	s.noPaths = 0
	s.clearPath()
	s.fullStop()
}

func (s *Supervisor) execute(now time.Time) {
	if s.edit != nil {
		return
	}
	if s.returning != nil {
		if !s.walkBack(*s.returning) {
			s.checkStall(now)
			return
		}
		s.returning = nil
	}
	next := &s.path[0]
	switch {
	case len(next.ToBreak) > 0:
		s.dig(now, next)
	case len(next.ToPlace) > 0:
		s.place(now, next)
	default:
		s.state = Moving
		s.steer(now)
	}
}

func (s *Supervisor) checkStall(now time.Time) bool {
	if now.Sub(s.lastProgress) > s.cfg.StallTimeout {
		s.resetPath(ReasonStuck, ErrStuck)
		return true
	}
	return false
}
