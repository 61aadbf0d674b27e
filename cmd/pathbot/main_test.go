package main

import (
	"testing"

	"voxelpath.ai/internal/sim/path/pathenv"
)

func TestParseItems(t *testing.T) {
	got, err := parseItems("dirt:64, wooden_pickaxe ,,stone:2")
	if err != nil {
		t.Fatalf("parseItems: %v", err)
	}
	want := []pathenv.Item{{Type: "dirt", Count: 64}, {Type: "wooden_pickaxe", Count: 1}, {Type: "stone", Count: 2}}
	if len(got) != len(want) {
		t.Fatalf("parseItems=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("parseItems[%d]=%v want %v", i, got[i], want[i])
		}
	}
	if _, err := parseItems("dirt:-1"); err == nil {
		t.Fatalf("expected negative count rejected")
	}
}

func TestGoalSpec(t *testing.T) {
	spec, err := goalSpec("near", "4, 5,-6", 2)
	if err != nil {
		t.Fatalf("goalSpec: %v", err)
	}
	if spec.Kind != "NEAR" || spec.Pos != [3]int{4, 5, -6} || spec.Range != 2 {
		t.Fatalf("goalSpec=%+v", spec)
	}
	if _, err := goalSpec("block", "1,2", 0); err == nil {
		t.Fatalf("expected short position rejected")
	}
}
