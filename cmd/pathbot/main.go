package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"voxelpath.ai/internal/bot"
	"voxelpath.ai/internal/persistence/archive"
	"voxelpath.ai/internal/persistence/snapshot"
	"voxelpath.ai/internal/protocol"
	"voxelpath.ai/internal/sim/path/pathenv"
	"voxelpath.ai/internal/sim/path/runtime"
	"voxelpath.ai/internal/sim/world"
	"voxelpath.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8090", "http listen address (empty to disable)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")
		debug      = flag.Bool("debug", false, "log supervisor trace output")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", false, "load latest snapshot from data dir if present (when -snapshot is empty)")
		snapEvery  = flag.Uint64("snapshot_every", 0, "write a snapshot every N ticks (0: only on exit)")
		snapKeep   = flag.Int("keep_snapshots", 0, "keep only the newest N snapshots (0: keep all)")
		archEvery  = flag.Uint64("archive_every", 0, "copy snapshots at multiples of N ticks into archives/ (0: off)")

		worldID = flag.String("world", "world_1", "world id")
		seed    = flag.Int64("seed", 1337, "world seed (fresh worlds only)")
		kind    = flag.String("kind", "stepped", "terrain kind: flat or stepped")
		height  = flag.Int("height", 64, "world height")
		radius  = flag.Int("load_radius", 2, "chunks kept loaded around the agent")
		items   = flag.String("items", "dirt:64,cobblestone:64,wooden_pickaxe:1,wooden_shovel:1", "starting inventory name:count list")

		goalKind  = flag.String("goal_kind", "", "initial goal kind (BLOCK, NEAR, XZ, Y, GET_TO_BLOCK); empty waits for GOTO")
		goalPos   = flag.String("goal", "", "initial goal position x,y,z")
		goalRange = flag.Float64("goal_range", 0, "range for NEAR goals")
		exitOnEnd = flag.Bool("exit_on_goal", false, "exit once the goal is reached or unreachable")
		maxTicks  = flag.Uint64("max_ticks", 0, "stop after N ticks (0: run until signalled)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[pathbot] ", log.LstdFlags|log.Lmicroseconds)

	inv, err := parseItems(*items)
	if err != nil {
		logger.Fatalf("items: %v", err)
	}
	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = archive.Latest(worldDir)
	}

	cfg := bot.Config{
		ConfigDir:    *configDir,
		TuningPath:   strings.TrimSpace(*tuningPath),
		SnapshotPath: snapshotToLoad,
		World: world.Config{
			ID:               *worldID,
			Seed:             *seed,
			Height:           *height,
			BoundaryR:        4000,
			Kind:             *kind,
			FloorY:           *height / 4,
			Relief:           6,
			TerraceSize:      8,
			BiomeRegionSize:  128,
			SpawnClearRadius: 6,
			OrePermille:      8,
			TreePermille:     6,
		},
		LoadRadius: *radius,
		Items:      inv,
	}
	if *debug {
		cfg.Debugf = logger.Printf
	}
	b, err := bot.New(cfg)
	if err != nil {
		logger.Fatalf("bot: %v", err)
	}
	if snapshotToLoad != "" {
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), b.CurrentTick())
	}
	logger.Printf("agent at %v in world %s", b.Body().Position(), b.World().ID())

	sinks, err := openSinks(worldDir, *configDir, b, *disableDB, logger)
	if err != nil {
		logger.Fatalf("sinks: %v", err)
	}
	defer sinks.Close()
	snaps := &snapshotter{worldDir: worldDir, archiveEvery: *archEvery, keep: *snapKeep, b: b, sinks: sinks, logger: logger}

	done := make(chan struct{}, 1)
	b.Subscribe(func(ev runtime.Event) {
		sinks.Observe(ev, b.CurrentTick())
		if *exitOnEnd && (ev.Type == runtime.EventGoalReached || ev.Type == runtime.EventGoalUnreachable) {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})

	if *goalKind != "" {
		spec, err := goalSpec(*goalKind, *goalPos, *goalRange)
		if err != nil {
			logger.Fatalf("goal: %v", err)
		}
		if err := b.SetGoal(spec, false); err != nil {
			logger.Fatalf("goal: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(b.Tuning().TickInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return snaps.write()
			case <-done:
				logger.Printf("goal finished at tick %d, agent at %v", b.CurrentTick(), b.Body().Position())
				if err := snaps.write(); err != nil {
					return err
				}
				return errStop
			case <-ticker.C:
			}
			start := time.Now()
			tick := b.Tick()
			sinks.ObserveTick(time.Since(start))
			if *snapEvery > 0 && tick%*snapEvery == 0 {
				if err := snaps.write(); err != nil {
					logger.Printf("snapshot: %v", err)
				}
			}
			if *maxTicks > 0 && tick >= *maxTicks {
				logger.Printf("max ticks reached")
				if err := snaps.write(); err != nil {
					return err
				}
				return errStop
			}
		}
	})

	if *addr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(http.StatusOK)
			_, _ = rw.Write([]byte("ok"))
		})
		mux.Handle("/metrics", sinks.metrics.Handler())
		mux.Handle("/v1/ws", sinks.hub.Handler())
		mux.Handle("/v1/status", sinks.hub.StatusHandler())
		srv := &http.Server{
			Addr:              *addr,
			Handler:           ws.LoopbackOnly(mux),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Printf("listening on %s", *addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errStop) {
		logger.Fatalf("pathbot: %v", err)
	}
}

var errStop = errors.New("stop")

type snapshotter struct {
	worldDir     string
	archiveEvery uint64
	keep         int

	b      *bot.Bot
	sinks  *fanout
	logger *log.Logger
}

func (s *snapshotter) write() error {
	snap := s.b.Snapshot()
	path := archive.SnapshotPath(s.worldDir, snap.Header.Tick)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return fmt.Errorf("snapshot write: %w", err)
	}
	s.sinks.index.RecordSnapshot(path, snap)
	s.logger.Printf("snapshot %s (%d chunks)", path, len(snap.Chunks))

	if dst, ok, err := archive.ArchiveSnapshot(s.worldDir, path, snap, s.archiveEvery); err != nil {
		s.logger.Printf("archive: %v", err)
	} else if ok {
		s.logger.Printf("archived %s", dst)
	}
	if removed, err := archive.Prune(s.worldDir, s.keep); err != nil {
		s.logger.Printf("prune snapshots: %v", err)
	} else if len(removed) > 0 {
		s.logger.Printf("pruned %d snapshots", len(removed))
	}
	return nil
}

func parseItems(s string) ([]pathenv.Item, error) {
	var out []pathenv.Item
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, count, ok := strings.Cut(part, ":")
		n := 1
		if ok {
			v, err := strconv.Atoi(count)
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("bad count in %q", part)
			}
			n = v
		}
		out = append(out, pathenv.Item{Type: name, Count: n})
	}
	return out, nil
}

func goalSpec(kind, pos string, rng float64) (protocol.GoalSpec, error) {
	spec := protocol.GoalSpec{Kind: strings.ToUpper(kind), Range: rng}
	parts := strings.Split(pos, ",")
	if len(parts) != 3 {
		return spec, fmt.Errorf("want x,y,z, got %q", pos)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return spec, fmt.Errorf("bad coordinate %q", p)
		}
		spec.Pos[i] = v
	}
	return spec, nil
}
