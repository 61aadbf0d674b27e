package bot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"voxelpath.ai/internal/persistence/snapshot"
	"voxelpath.ai/internal/protocol"
	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/pathenv"
	"voxelpath.ai/internal/sim/path/runtime"
	"voxelpath.ai/internal/sim/world"
)

func newBot(t *testing.T) *Bot {
	t.Helper()
	b, err := New(Config{
		ConfigDir:  filepath.Join("..", "..", "configs"),
		World:      world.Config{ID: "test", Seed: 7, Height: 16, BoundaryR: 128, Kind: "flat", FloorY: 4},
		LoadRadius: 1,
		Items:      []pathenv.Item{{Type: "dirt", Count: 16}},
	})
	require.NoError(t, err)
	return b
}

func TestBotWalksToQueuedGoal(t *testing.T) {
	b := newBot(t)
	require.Equal(t, geom.Pos{Y: 5}, b.Body().Position().Floored())

	var events []protocol.PathEventMsg
	b.Subscribe(func(ev runtime.Event) {
		events = append(events, protocol.FromEvent(ev, b.CurrentTick(), false))
	})

	require.NoError(t, b.SetGoal(protocol.GoalSpec{Kind: protocol.GoalBlock, Pos: [3]int{6, 5, 0}}, false))
	require.Nil(t, b.Welcome().Goal, "goal applies on the next tick")

	reached := false
	for i := 0; i < 600 && !reached; i++ {
		b.Tick()
		if i == 0 {
			require.Equal(t, protocol.GoalBlock, b.Welcome().Goal.Kind)
		}
		for _, ev := range events {
			reached = reached || ev.Event == "goal_reached"
		}
	}
	require.True(t, reached, "agent at %v", b.Body().Position())
	require.Equal(t, geom.Pos{X: 6, Y: 5}, b.Body().Position().Floored())
	require.Equal(t, "goal_updated", events[0].Event)
	require.EqualValues(t, 1, events[0].Tick)
}

func TestBotRejectsBadGoals(t *testing.T) {
	b := newBot(t)
	require.Error(t, b.SetGoal(protocol.GoalSpec{Kind: "TELEPORT"}, false))

	for i := 0; i < cap(b.cmds); i++ {
		require.NoError(t, b.Submit(func() {}))
	}
	require.ErrorIs(t, b.SetGoal(protocol.GoalSpec{Kind: protocol.GoalY, Pos: [3]int{0, 5, 0}}, false), ErrBusy)
	b.Tick()
	require.NoError(t, b.Submit(func() {}))
}

func TestBotSnapshotRestore(t *testing.T) {
	b := newBot(t)
	require.NoError(t, b.World().SetBlock(geom.Pos{X: 2, Y: 5, Z: 2}, "cobblestone"))
	for i := 0; i < 3; i++ {
		b.Tick()
	}

	path := filepath.Join(t.TempDir(), "bot.snap.zst")
	require.NoError(t, snapshot.WriteSnapshot(path, b.Snapshot()))

	restored, err := New(Config{ConfigDir: filepath.Join("..", "..", "configs"), SnapshotPath: path, LoadRadius: 1})
	require.NoError(t, err)
	require.EqualValues(t, 3, restored.CurrentTick())
	require.Equal(t, b.Body().Position().Floored(), restored.Body().Position().Floored())
	require.Equal(t, []pathenv.Item{{Type: "dirt", Count: 16}}, restored.Body().Items())

	blk, ok := restored.World().BlockAt(geom.Pos{X: 2, Y: 5, Z: 2})
	require.True(t, ok)
	require.Equal(t, "cobblestone", blk.Type)
	require.Equal(t, b.Welcome().Catalogs, restored.Welcome().Catalogs)
}
