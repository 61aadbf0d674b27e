// Command bench measures how long the pathfinder takes to plan a long walk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"voxelpath.ai/internal/bot"
	"voxelpath.ai/internal/persistence/indexdb"
	"voxelpath.ai/internal/protocol"
	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/goals"
	"voxelpath.ai/internal/sim/path/runtime"
	"voxelpath.ai/internal/sim/world"
)

func main() {
	var (
		configDir = flag.String("configs", "./configs", "config directory")
		snapPath  = flag.String("snapshot", "", "snapshot to bench on (default: generate a world)")
		seed      = flag.Int64("seed", 1337, "world seed")
		kind      = flag.String("kind", "stepped", "terrain kind: flat or stepped")
		dx        = flag.Int("dx", 100, "goal offset along x")
		dz        = flag.Int("dz", 0, "extra z offset added per run")
		runs      = flag.Int("runs", 5, "number of searches")
		timeout   = flag.Duration("timeout", 10*time.Second, "search timeout")
		dbPath    = flag.String("db", "", "sqlite index to record runs in (optional)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bench] ", log.LstdFlags|log.Lmicroseconds)

	span := *dx + *runs*geom.Abs(*dz)
	created := time.Now()
	b, err := bot.New(bot.Config{
		ConfigDir:    *configDir,
		SnapshotPath: *snapPath,
		World: world.Config{
			ID:               "bench",
			Seed:             *seed,
			Height:           64,
			BoundaryR:        4000,
			Kind:             *kind,
			FloorY:           16,
			Relief:           6,
			TerraceSize:      8,
			BiomeRegionSize:  128,
			SpawnClearRadius: 6,
			TreePermille:     6,
		},
		LoadRadius: span/16 + 2,
	})
	if err != nil {
		logger.Fatalf("bot: %v", err)
	}
	fmt.Printf("Spawning took %.2f ms.\n", float64(time.Since(created).Microseconds())/1000)

	var idx *indexdb.SQLiteIndex
	if *dbPath != "" {
		if idx, err = indexdb.OpenSQLite(*dbPath); err != nil {
			logger.Fatalf("index: %v", err)
		}
		defer idx.Close()
	}

	start := b.Body().Position().Floored()
	tickBudget := b.Tuning().TickTimeout()
	var totalMs float64
	for i := 0; i < *runs; i++ {
		g := goals.NewXZ(start.X+*dx, start.Z+i**dz)
		r := b.Supervisor().GetPathTo(g, *timeout)
		ms := float64(r.Elapsed.Microseconds()) / 1000
		totalMs += ms
		ticks := max(1, int(r.Elapsed/tickBudget)+1)
		fmt.Printf("I can get there in %d moves. Computation took %.2f ms (%s, %d nodes, %d nodes/tick).\n",
			len(r.Path), ms, r.Status, r.Visited, r.Visited/ticks)
		idx.RecordEvent(protocol.FromEvent(runtime.Event{
			Type:   runtime.EventPathUpdate,
			GoalID: uint64(i + 1),
			Goal:   g,
			Result: &r,
		}, 0, false))
	}
	if *runs > 0 {
		fmt.Printf("mean %.2f ms over %d runs\n", totalMs/float64(*runs), *runs)
	}

	if idx == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := idx.Sync(ctx); err != nil {
		logger.Fatalf("index sync: %v", err)
	}
	sum, err := idx.SearchSummary(ctx)
	if err != nil {
		logger.Fatalf("index summary: %v", err)
	}
	for _, s := range sum {
		fmt.Printf("%-8s runs=%d avg_visited=%.0f avg_ms=%.1f avg_moves=%.1f\n", s.Status, s.Runs, s.AvgVisited, s.AvgTimeMs, s.AvgPathLen)
	}
}
