// Package bot assembles a simulated agent: the catalog world, a body stepped
// by the physics simulator and the supervisor driving it. A Bot is owned by
// one tick loop; other goroutines reach it through Submit and the
// ws.Backend methods.
package bot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync/atomic"

	"voxelpath.ai/internal/persistence/snapshot"
	"voxelpath.ai/internal/protocol"
	"voxelpath.ai/internal/sim/agentsim"
	"voxelpath.ai/internal/sim/catalogs"
	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
	"voxelpath.ai/internal/sim/path/runtime"
	"voxelpath.ai/internal/sim/tuning"
	"voxelpath.ai/internal/sim/world"
	"voxelpath.ai/internal/sim/world/terrain/store"
)

var ErrBusy = errors.New("command queue full")

type Config struct {
	ConfigDir string
	// TuningPath defaults to ConfigDir/tuning.yaml.
	TuningPath string
	// SnapshotPath, when set, restores the world and the agent instead of
	// generating from World.
	SnapshotPath string
	World        world.Config
	// LoadRadius is in chunks around the agent.
	LoadRadius int
	// Items seeds the inventory of a fresh agent.
	Items  []pathenv.Item
	Debugf func(format string, args ...any)
}

type Bot struct {
	cats       *catalogs.Catalogs
	tune       tuning.Tuning
	tuneDigest string
	world      *world.World
	body       *agentsim.Body
	sup        *runtime.Supervisor
	loadRadius int

	tick atomic.Uint64
	cmds chan func()
}

func New(cfg Config) (*Bot, error) {
	cats, err := catalogs.Load(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("catalogs: %w", err)
	}
	tunePath := cfg.TuningPath
	if tunePath == "" {
		tunePath = filepath.Join(cfg.ConfigDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tunePath)
	if err != nil {
		return nil, err
	}

	var (
		w     *world.World
		agent *snapshot.AgentV1
		tick  uint64
	)
	if cfg.SnapshotPath != "" {
		snap, err := snapshot.ReadSnapshot(cfg.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		if w, err = world.FromSnapshot(snap, cats); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		agent, tick = snap.Agent, snap.Header.Tick
	} else if w, err = world.New(cfg.World, cats); err != nil {
		return nil, err
	}

	radius := cfg.LoadRadius
	if radius <= 0 {
		radius = 2
	}
	w.LoadAround(geom.Pos{}, radius)

	items := cfg.Items
	pos := geom.Vec3{X: 0.5, Y: float64(w.SurfaceY(0, 0)), Z: 0.5}
	if agent != nil {
		pos = geom.Vec3{X: agent.Pos[0], Y: agent.Pos[1], Z: agent.Pos[2]}
		items = inventoryItems(agent.Inventory)
		w.LoadAround(pos.Floored(), radius)
	}
	body := agentsim.New(w, cats, pos, agentsim.WithItems(items...))
	if agent != nil {
		body.Look(agent.Yaw, 0)
	}

	sup := runtime.New(runtime.Env{
		World:     w,
		Inventory: body,
		Tools:     cats,
		Agent:     body,
		Actuator:  body,
	}, catalogs.PolicyFromTuning(tune.Movement, cats), SupervisorConfig(tune, cfg.Debugf))
	w.OnBlockChange(sup.OnBlockUpdate)
	w.OnChunkLoad(sup.OnChunkLoad)

	raw, _ := json.Marshal(tune)
	sum := sha256.Sum256(raw)
	b := &Bot{
		cats:       cats,
		tune:       tune,
		tuneDigest: hex.EncodeToString(sum[:]),
		world:      w,
		body:       body,
		sup:        sup,
		loadRadius: radius,
		cmds:       make(chan func(), 64),
	}
	b.tick.Store(tick)
	return b, nil
}

// SupervisorConfig maps tuning onto the supervisor's settings.
func SupervisorConfig(t tuning.Tuning, debugf func(string, ...any)) runtime.Config {
	return runtime.Config{
		Timeout:          t.ThinkTimeout(),
		TickTimeout:      t.TickTimeout(),
		SearchRadius:     t.SearchRadius,
		StallTimeout:     t.StallTimeout(),
		EditStallTimeout: t.EditStallTimeout(),
		MaxNoPathRetries: t.MaxNoPathRetries,
		LOSWhenPlacing:   t.LOSWhenPlacing,
		Debugf:           debugf,
	}
}

func inventoryItems(inv map[string]int) []pathenv.Item {
	names := make([]string, 0, len(inv))
	for name := range inv {
		names = append(names, name)
	}
	sort.Strings(names)
	items := make([]pathenv.Item, 0, len(names))
	for _, name := range names {
		if n := inv[name]; n > 0 {
			items = append(items, pathenv.Item{Type: name, Count: n})
		}
	}
	return items
}

func (b *Bot) Catalogs() *catalogs.Catalogs        { return b.cats }
func (b *Bot) Tuning() tuning.Tuning               { return b.tune }
func (b *Bot) World() *world.World                 { return b.world }
func (b *Bot) Body() *agentsim.Body                { return b.body }
func (b *Bot) Supervisor() *runtime.Supervisor     { return b.sup }
func (b *Bot) CurrentTick() uint64                 { return b.tick.Load() }
func (b *Bot) Subscribe(o runtime.Observer) func() { return b.sup.Subscribe(o) }

// Submit queues fn to run on the tick loop before the next step.
func (b *Bot) Submit(fn func()) error {
	select {
	case b.cmds <- fn:
		return nil
	default:
		return ErrBusy
	}
}

// Tick runs queued commands, keeps the chunks around the agent loaded, then
// advances the supervisor and the body by one tick. It returns the tick
// number the events of this step carry.
func (b *Bot) Tick() uint64 {
	n := b.tick.Add(1)
drain:
	for {
		select {
		case fn := <-b.cmds:
			fn()
		default:
			break drain
		}
	}
	b.world.LoadAround(b.body.Position().Floored(), b.loadRadius)
	b.world.UnloadBeyond(b.body.Position().Floored(), b.loadRadius+2)
	b.sup.Tick()
	b.body.Step()
	return n
}

// Welcome describes the bot for a new websocket session.
func (b *Bot) Welcome() protocol.WelcomeMsg {
	cfg := b.world.Config()
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		WorldID:         cfg.ID,
		WorldParams: protocol.WorldParams{
			TickRateHz: b.tune.TickRateHz,
			ChunkSize:  [3]int{store.ChunkSize, store.ChunkSize, cfg.Height},
			Height:     cfg.Height,
			Seed:       cfg.Seed,
		},
		Catalogs: protocol.CatalogDigests{
			BlockPalette: protocol.DigestRef{Digest: b.cats.Blocks.PaletteDigest, Count: len(b.cats.Blocks.Palette)},
			ItemPalette:  protocol.DigestRef{Digest: b.cats.Items.PaletteDigest, Count: len(b.cats.Items.Palette)},
			TuningDigest: b.tuneDigest,
		},
		Goal: protocol.DescribeGoal(b.sup.Goal()),
	}
}

// SetGoal queues a goal change for the next tick.
func (b *Bot) SetGoal(spec protocol.GoalSpec, dynamic bool) error {
	g, err := spec.Goal(b.world)
	if err != nil {
		return err
	}
	return b.Submit(func() { b.sup.SetGoal(g, dynamic) })
}

// Stop queues a stop for the next tick.
func (b *Bot) Stop() {
	_ = b.Submit(b.sup.Stop)
}

// Snapshot captures the world and the agent. Call it from the tick loop.
func (b *Bot) Snapshot() snapshot.SnapshotV1 {
	pos := b.body.Position()
	inv := map[string]int{}
	for _, it := range b.body.Items() {
		inv[it.Type] += it.Count
	}
	return b.world.Snapshot(b.CurrentTick(), &snapshot.AgentV1{
		Pos:       [3]float64{pos.X, pos.Y, pos.Z},
		Yaw:       b.body.Yaw(),
		Inventory: inv,
	})
}
