package protocol

import (
	"fmt"
	"testing"

	"voxelpath.ai/internal/sim/path/astar"
	"voxelpath.ai/internal/sim/path/geom"
	"voxelpath.ai/internal/sim/path/goals"
	"voxelpath.ai/internal/sim/path/move"
	"voxelpath.ai/internal/sim/path/pathtest"
	"voxelpath.ai/internal/sim/path/runtime"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{runtime.ErrNoPath, ErrNoPath},
		{runtime.ErrStuck, ErrStuck},
		{fmt.Errorf("run r1: %w", runtime.ErrGoalChanged), ErrGoalChanged},
		{fmt.Errorf("boom"), ErrInternal},
	}
	for _, c := range cases {
		if got := CodeOf(c.err); got != c.want {
			t.Fatalf("CodeOf(%v)=%q want %q", c.err, got, c.want)
		}
	}
}

func TestFromEvent(t *testing.T) {
	ev := runtime.Event{
		Type:   runtime.EventPathUpdate,
		GoalID: 3,
		Goal:   goals.NewXZ(4, -2),
		RunID:  "r",
		Result: &astar.Result{Status: astar.Partial, Path: []move.Move{{X: 1}, {X: 2, Z: -1}}},
		Chunks: []geom.ChunkKey{{}, {CX: -1}},
	}
	m := FromEvent(ev, 9, false)
	if m.Type != TypePathEvent || m.Event != "path_update" || m.Tick != 9 || m.GoalID != 3 {
		t.Fatalf("FromEvent=%+v", m)
	}
	if m.Goal == nil || m.Goal.Kind != GoalXZ || m.Goal.Pos != [3]int{4, 0, -2} {
		t.Fatalf("goal=%+v", m.Goal)
	}
	if m.Result.PathLen != 2 || m.Result.Path != nil || m.Result.Status != "partial" || m.Result.Chunks != 2 {
		t.Fatalf("result=%+v", m.Result)
	}
	if m = FromEvent(ev, 9, true); len(m.Result.Path) != 2 || m.Result.Path[1] != [3]int{2, 0, -1} {
		t.Fatalf("path=%v", m.Result.Path)
	}
}

func TestGoalSpecRoundTrip(t *testing.T) {
	w := pathtest.NewWorld()
	specs := []GoalSpec{
		{Kind: GoalBlock, Pos: [3]int{1, 2, 3}},
		{Kind: GoalNear, Pos: [3]int{1, 2, 3}, Range: 2},
		{Kind: GoalXZ, Pos: [3]int{5, 0, 6}},
		{Kind: GoalY, Pos: [3]int{0, 7, 0}},
		{Kind: GoalGetToBlock, Pos: [3]int{1, 1, 1}},
		{Kind: GoalLookAt, Pos: [3]int{1, 0, 1}, Range: 4},
		{Kind: GoalPlaceBlock, Pos: [3]int{1, 1, 1}, Range: 5, LOS: true},
		{Kind: GoalAny, Goals: []GoalSpec{{Kind: GoalBlock, Pos: [3]int{1, 1, 1}}, {Kind: GoalY, Pos: [3]int{0, 3, 0}}}},
		{Kind: GoalAll, Goals: []GoalSpec{{Kind: GoalXZ, Pos: [3]int{1, 0, 1}}, {Kind: GoalY, Pos: [3]int{0, 3, 0}}}},
		{Kind: GoalInvert, Goals: []GoalSpec{{Kind: GoalNear, Pos: [3]int{0, 1, 0}, Range: 3}}},
	}
	for _, s := range specs {
		g, err := s.Goal(w)
		if err != nil {
			t.Fatalf("Goal(%s): %v", s.Kind, err)
		}
		got := DescribeGoal(g)
		if fmt.Sprint(*got) != fmt.Sprint(s) {
			t.Fatalf("DescribeGoal(%s)=%+v want %+v", s.Kind, *got, s)
		}
	}
	if g, _ := specs[1].Goal(w); !g.IsEnd(geom.Pos{X: 1, Y: 2, Z: 4}) {
		t.Fatalf("near goal lost its range")
	}
}

func TestGoalSpecRejects(t *testing.T) {
	bad := []GoalSpec{
		{Kind: "TELEPORT"},
		{Kind: GoalNear, Range: 0},
		{Kind: GoalAny},
		{Kind: GoalInvert, Goals: []GoalSpec{{Kind: GoalY}, {Kind: GoalY}}},
		{Kind: GoalAll, Goals: []GoalSpec{{Kind: "?"}}},
	}
	for _, s := range bad {
		if _, err := s.Goal(nil); err == nil {
			t.Fatalf("Goal(%+v) accepted", s)
		}
	}
	if _, err := (GoalSpec{Kind: GoalLookAt}).Goal(nil); err == nil {
		t.Fatalf("look-at goal without a world accepted")
	}
}
