package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"voxelpath.ai/internal/persistence/snapshot"
	"voxelpath.ai/internal/protocol"
	"voxelpath.ai/internal/sim/catalogs"
	"voxelpath.ai/internal/sim/tuning"
)

func pathEvent(ev string, goalID, tick uint64) protocol.PathEventMsg {
	return protocol.PathEventMsg{Type: protocol.TypePathEvent, Event: ev, GoalID: goalID, Tick: tick}
}

func TestSQLiteIndex_RecordEvents(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()

	g := pathEvent("goal_updated", 1, 0)
	g.Goal = &protocol.GoalSpec{Kind: protocol.GoalBlock, Pos: [3]int{4, 5, 0}}
	idx.RecordEvent(g)

	for i, st := range []string{"partial", "success", "success"} {
		u := pathEvent("path_update", 1, uint64(i+1))
		u.Result = &protocol.ResultMsg{Status: st, Visited: 10 * (i + 1), PathLen: 4}
		if i == 0 {
			u.RunID = "run-a"
		}
		idx.RecordEvent(u)
	}
	r := pathEvent("path_reset", 1, 5)
	r.Reason, r.Code = "stuck", protocol.ErrStuck
	idx.RecordEvent(r)
	idx.RecordEvent(pathEvent("goal_reached", 1, 9))
	// A second outcome for a closed goal is ignored.
	idx.RecordEvent(pathEvent("path_stop", 1, 10))
	// Events with nothing to index are skipped.
	idx.RecordEvent(pathEvent("path_update", 1, 11))

	if err := idx.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	sum, err := idx.SearchSummary(ctx)
	if err != nil {
		t.Fatalf("SearchSummary: %v", err)
	}
	if len(sum) != 2 || sum[0].Status != "partial" || sum[1].Status != "success" || sum[1].Runs != 2 || sum[1].AvgVisited != 25 {
		t.Fatalf("summary=%+v", sum)
	}
	resets, err := idx.ResetCounts(ctx)
	if err != nil || resets["stuck"] != 1 {
		t.Fatalf("ResetCounts=%v,%v", resets, err)
	}
	outcome, err := idx.GoalOutcome(ctx, 1)
	if err != nil || outcome != "goal_reached" {
		t.Fatalf("GoalOutcome=%q,%v", outcome, err)
	}
	if st := idx.Stats(); st.DropTotal != 0 {
		t.Fatalf("DropTotal=%d", st.DropTotal)
	}
}

func TestSQLiteIndex_SnapshotsAndCatalogs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	if err := idx.UpsertCatalogs(filepath.Join("..", "..", "..", "configs"), cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{Version: snapshot.Version, WorldID: "w", Tick: 120},
		Seed:   42,
		Height: 64,
		Chunks: make([]snapshot.ChunkV1, 9),
		Agent:  &snapshot.AgentV1{Pos: [3]float64{0.5, 5, 0.5}},
	}
	idx.RecordSnapshot("/abs/120.snap.zst", snap)
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		tick   int64
		seed   int64
		chunks int
		p      string
	)
	if err := db.QueryRow(`SELECT tick,seed,chunks,path FROM snapshots`).Scan(&tick, &seed, &chunks, &p); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if tick != 120 || seed != 42 || chunks != 9 || p != "/abs/120.snap.zst" {
		t.Fatalf("row mismatch: tick=%d seed=%d chunks=%d path=%q", tick, seed, chunks, p)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n); err != nil || n != 5 {
		t.Fatalf("catalog rows=%d,%v", n, err)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.RecordEvent(pathEvent("goal_updated", 1, 0))
	s.RecordEvent(pathEvent("goal_reached", 1, 1))
	s.RecordSnapshot("/tmp/2.snap.zst", snapshot.SnapshotV1{})

	st := s.Stats()
	if st.DropTotal != 2 {
		t.Fatalf("DropTotal=%d want=2", st.DropTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}
