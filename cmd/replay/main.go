package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	persistlog "voxelpath.ai/internal/persistence/log"
	"voxelpath.ai/internal/persistence/snapshot"
	"voxelpath.ai/internal/protocol"
	"voxelpath.ai/internal/sim/path/runtime"
)

func main() {
	var (
		dataDir  = flag.String("data", "./data/worlds/world_1", "world data dir containing events/ and snapshots/")
		snapPath = flag.String("snapshot", "", "path to .snap.zst (optional)")
		fromTick = flag.Uint64("from_tick", 0, "first tick to include (inclusive, optional)")
		toTick   = flag.Uint64("to_tick", 0, "last tick to include (inclusive, optional)")
		verbose  = flag.Bool("v", false, "print every goal")
	)
	flag.Parse()

	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		agent := "none"
		if snap.Agent != nil {
			agent = fmt.Sprintf("pos=%.2f,%.2f,%.2f items=%d", snap.Agent.Pos[0], snap.Agent.Pos[1], snap.Agent.Pos[2], len(snap.Agent.Inventory))
		}
		fmt.Printf("snapshot v%d world=%s tick=%d seed=%d kind=%s height=%d chunks=%d agent=%s\n",
			snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, snap.Seed, snap.Kind, snap.Height, len(snap.Chunks), agent)
	}

	files, err := persistlog.ListFiles(filepath.Join(*dataDir, "events"), "events")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *dataDir)
		os.Exit(1)
	}

	r := newReport(*fromTick, *toTick)
	for _, path := range files {
		if err := persistlog.ReadJSONL(path, r.line); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}
	r.print(os.Stdout, *verbose)
}

type goalSummary struct {
	ID        uint64
	Kind      string
	Dynamic   bool
	FirstTick uint64
	LastTick  uint64
	Searches  int
	Visited   int
	Resets    int
	Outcome   string
	Code      string
}

type report struct {
	from, to uint64

	lastTick uint64
	events   int
	byType   map[string]int
	resets   map[string]int
	statuses map[string]int
	goals    map[uint64]*goalSummary
}

func newReport(from, to uint64) *report {
	return &report{
		from:     from,
		to:       to,
		byType:   map[string]int{},
		resets:   map[string]int{},
		statuses: map[string]int{},
		goals:    map[uint64]*goalSummary{},
	}
}

// line folds one logged PATH_EVENT into the report. Ticks must not go
// backwards across the log.
func (r *report) line(b []byte) error {
	var m protocol.PathEventMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if m.Tick < r.lastTick {
		return fmt.Errorf("tick went backwards: %d after %d", m.Tick, r.lastTick)
	}
	r.lastTick = m.Tick
	if m.Tick < r.from || (r.to != 0 && m.Tick > r.to) {
		return nil
	}
	r.events++
	r.byType[m.Event]++

	g := r.goals[m.GoalID]
	if g == nil {
		g = &goalSummary{ID: m.GoalID, FirstTick: m.Tick}
		r.goals[m.GoalID] = g
	}
	g.LastTick = m.Tick

	switch runtime.EventType(m.Event) {
	case runtime.EventGoalUpdated:
		g.Dynamic = m.Dynamic
		if m.Goal != nil {
			g.Kind = m.Goal.Kind
		}
	case runtime.EventPathUpdate:
		g.Searches++
		if m.Result != nil {
			g.Visited += m.Result.Visited
			r.statuses[m.Result.Status]++
		}
	case runtime.EventPathReset:
		g.Resets++
		r.resets[m.Reason]++
	case runtime.EventGoalReached, runtime.EventGoalUnreachable, runtime.EventPathStop:
		if g.Outcome == "" {
			g.Outcome = m.Event
			g.Code = m.Code
		}
	default:
		return fmt.Errorf("tick %d: unknown event %q", m.Tick, m.Event)
	}
	return nil
}

func (r *report) sortedGoals() []*goalSummary {
	out := make([]*goalSummary, 0, len(r.goals))
	for _, g := range r.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *report) print(w io.Writer, verbose bool) {
	goals := r.sortedGoals()
	fmt.Fprintf(w, "events=%d goals=%d last_tick=%d\n", r.events, len(goals), r.lastTick)
	printCounts(w, "event", r.byType)
	printCounts(w, "status", r.statuses)
	printCounts(w, "reset", r.resets)

	outcomes := map[string]int{}
	for _, g := range goals {
		o := g.Outcome
		if o == "" {
			o = "open"
		}
		outcomes[o]++
		if verbose {
			fmt.Fprintf(w, "goal %d kind=%s dynamic=%t ticks=%d..%d searches=%d visited=%d resets=%d outcome=%s %s\n",
				g.ID, g.Kind, g.Dynamic, g.FirstTick, g.LastTick, g.Searches, g.Visited, g.Resets, o, g.Code)
		}
	}
	printCounts(w, "outcome", outcomes)
}

func printCounts(w io.Writer, label string, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s %-20s %d\n", label, k, m[k])
	}
}
