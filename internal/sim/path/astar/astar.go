// Package astar is a resumable best-first search over moves.
//
// A Search is created once per plan and driven by Compute. Each Compute call
// runs until it finds the goal, exhausts the open set, or uses up its per-call
// budget. In the last case it returns Partial and keeps every node, so the next
// Compute continues exactly where the previous one stopped.
package astar

import (
	"container/heap"
	"time"

	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/goals"
	"voxelpath.ai/internal/sim/path/move"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultTickTimeout = 40 * time.Millisecond
)

type Status string

const (
	Success Status = "success"
	NoPath  Status = "no_path"
	Timeout Status = "timeout"
	Partial Status = "partial"
)

// Provider expands a move into its neighbors.
type Provider interface {
	Neighbors(m move.Move) []move.Move
}

type Options struct {
	// Timeout bounds the whole search across Compute calls.
	Timeout time.Duration
	// TickTimeout bounds a single Compute call.
	TickTimeout time.Duration
	// SearchRadius, when positive, drops nodes whose f exceeds the root's h by more.
	SearchRadius float64
	// Now defaults to time.Now.
	Now func() time.Time
}

type Result struct {
	Status    Status
	Cost      float64
	Elapsed   time.Duration
	Visited   int
	Generated int
	// Path excludes the start move.
	Path []move.Move
}

type node struct {
	move   move.Move
	g      float64
	h      float64
	f      float64
	parent int32
	// index is the node's position in the open heap, -1 once it left it.
	index  int
	closed bool
}

// Search holds one search's node arena. Nodes refer to their parent by index.
type Search struct {
	goal     goals.Goal
	provider Provider
	opts     Options
	now      func() time.Time
	started  time.Time

	nodes   []node
	open    openQueue
	byPos   map[geom.Pos]int32
	best    int32
	bounded bool
	maxCost float64
	closed  int
	chunks  map[geom.ChunkKey]struct{}

	final *Result
}

func New(start move.Move, provider Provider, goal goals.Goal, opts Options) *Search {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TickTimeout <= 0 {
		opts.TickTimeout = DefaultTickTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Search{
		goal:     goal,
		provider: provider,
		opts:     opts,
		now:      now,
		started:  now(),
		byPos:    map[geom.Pos]int32{},
		chunks:   map[geom.ChunkKey]struct{}{},
	}
	s.open.s = s
	h := goal.Heuristic(start.Pos())
	s.nodes = append(s.nodes, node{move: start, h: h, f: h, parent: -1, index: -1})
	s.byPos[start.Pos()] = 0
	heap.Push(&s.open, int32(0))
	if opts.SearchRadius > 0 {
		// Inverted goals have negative heuristics, so the bound may be too.
		s.bounded = true
		s.maxCost = h + opts.SearchRadius
	}
	return s
}

// Compute advances the search. After a terminal status further calls return
// the same result.
func (s *Search) Compute() Result {
	if s.final != nil {
		return *s.final
	}
	tickStart := s.now()
	for s.open.Len() > 0 {
		now := s.now()
		if now.Sub(tickStart) > s.opts.TickTimeout {
			return s.result(Partial, s.best, now)
		}
		if now.Sub(s.started) > s.opts.Timeout {
			return s.finish(Timeout, s.best, now)
		}

		cur := heap.Pop(&s.open).(int32)
		n := &s.nodes[cur]
		if s.goal.IsEnd(n.move.Pos()) {
			return s.finish(Success, cur, now)
		}
		n.closed = true
		s.closed++
		s.chunks[n.move.Pos().ChunkKey()] = struct{}{}

		parentG := n.g
		for _, nb := range s.provider.Neighbors(n.move) {
			s.relax(cur, parentG, nb)
		}
	}
	return s.finish(NoPath, s.best, s.now())
}

func (s *Search) relax(parent int32, parentG float64, nb move.Move) {
	p := nb.Pos()
	idx, seen := s.byPos[p]
	if seen && s.nodes[idx].closed {
		return
	}
	g := parentG + nb.Cost
	h := s.goal.Heuristic(p)
	if s.bounded && g+h > s.maxCost {
		return
	}
	if seen {
		n := &s.nodes[idx]
		if n.g <= g {
			return
		}
		n.move, n.g, n.h, n.f, n.parent = nb, g, h, g+h, parent
		heap.Fix(&s.open, n.index)
	} else {
		idx = int32(len(s.nodes))
		s.nodes = append(s.nodes, node{move: nb, g: g, h: h, f: g + h, parent: parent, index: -1})
		s.byPos[p] = idx
		heap.Push(&s.open, idx)
	}
	if h < s.nodes[s.best].h {
		s.best = idx
	}
}

func (s *Search) finish(st Status, end int32, now time.Time) Result {
	r := s.result(st, end, now)
	s.final = &r
	return r
}

func (s *Search) result(st Status, end int32, now time.Time) Result {
	return Result{
		Status:    st,
		Cost:      s.nodes[end].g,
		Elapsed:   now.Sub(s.started),
		Visited:   s.closed,
		Generated: s.closed + s.open.Len(),
		Path:      s.reconstruct(end),
	}
}

func (s *Search) reconstruct(end int32) []move.Move {
	var path []move.Move
	for i := end; s.nodes[i].parent >= 0; i = s.nodes[i].parent {
		path = append(path, s.nodes[i].move)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Closed reports whether the search already expanded p.
func (s *Search) Closed(p geom.Pos) bool {
	idx, ok := s.byPos[p]
	return ok && s.nodes[idx].closed
}

// TouchesChunk reports whether k or one of its four side neighbors holds an
// expanded node, i.e. whether newly loaded terrain in k could change the answer.
func (s *Search) TouchesChunk(k geom.ChunkKey) bool {
	for _, d := range [...]geom.ChunkKey{{}, {CX: -1}, {CX: 1}, {CZ: -1}, {CZ: 1}} {
		if _, ok := s.chunks[geom.ChunkKey{CX: k.CX + d.CX, CZ: k.CZ + d.CZ}]; ok {
			return true
		}
	}
	return false
}

// VisitedChunks lists every chunk column that holds an expanded node.
func (s *Search) VisitedChunks() []geom.ChunkKey {
	out := make([]geom.ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		out = append(out, k)
	}
	return out
}

// openQueue orders arena indices by f.
type openQueue struct {
	s     *Search
	items []int32
}

func (q openQueue) Len() int { return len(q.items) }

func (q openQueue) Less(i, j int) bool {
	return q.s.nodes[q.items[i]].f < q.s.nodes[q.items[j]].f
}

func (q openQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.s.nodes[q.items[i]].index = i
	q.s.nodes[q.items[j]].index = j
}

func (q *openQueue) Push(x any) {
	idx := x.(int32)
	q.s.nodes[idx].index = len(q.items)
	q.items = append(q.items, idx)
}

func (q *openQueue) Pop() any {
	n := len(q.items)
	idx := q.items[n-1]
	q.items = q.items[:n-1]
	q.s.nodes[idx].index = -1
	return idx
}
