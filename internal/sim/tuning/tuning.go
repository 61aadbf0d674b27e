package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz         int     `yaml:"tick_rate_hz"`
	ThinkTimeoutMs     int     `yaml:"think_timeout_ms"`
	TickTimeoutMs      int     `yaml:"tick_timeout_ms"`
	SearchRadius       float64 `yaml:"search_radius"`
	StallTimeoutMs     int     `yaml:"stall_timeout_ms"`
	EditStallTimeoutMs int     `yaml:"edit_stall_timeout_ms"`
	MaxNoPathRetries   int     `yaml:"max_no_path_retries"`
	LOSWhenPlacing     bool    `yaml:"los_when_placing"`

	Movement MovementTuning `yaml:"movement"`
}

// MovementTuning holds the movement toggles and weights. Block classes
// (liquids, climbables, falling blocks...) come from the block catalog; the
// lists here only add to them.
type MovementTuning struct {
	CanDig                         bool `yaml:"can_dig"`
	Allow1by1Towers                bool `yaml:"allow_1by1_towers"`
	AllowFreeMotion                bool `yaml:"allow_free_motion"`
	AllowParkour                   bool `yaml:"allow_parkour"`
	AllowSprinting                 bool `yaml:"allow_sprinting"`
	DontCreateFlow                 bool `yaml:"dont_create_flow"`
	DontMineUnderFallingBlock      bool `yaml:"dont_mine_under_falling_block"`
	InfiniteLiquidDropdownDistance bool `yaml:"infinite_liquid_dropdown_distance"`
	CanOpenDoors                   bool `yaml:"can_open_doors"`

	DigCost    float64 `yaml:"dig_cost"`
	PlaceCost  float64 `yaml:"place_cost"`
	LiquidCost float64 `yaml:"liquid_cost"`
	EntityCost float64 `yaml:"entity_cost"`

	MaxDropDown   int      `yaml:"max_drop_down"`
	ScaffoldItems []string `yaml:"scaffold_items"`
	CantBreak     []string `yaml:"cant_break"`
	Avoid         []string `yaml:"avoid"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:         20,
		ThinkTimeoutMs:     5000,
		TickTimeoutMs:      40,
		StallTimeoutMs:     1500,
		EditStallTimeoutMs: 30000,
		MaxNoPathRetries:   3,
		Movement: MovementTuning{
			CanDig:                    true,
			Allow1by1Towers:           true,
			AllowParkour:              true,
			AllowSprinting:            true,
			DontCreateFlow:            true,
			DontMineUnderFallingBlock: true,
			DigCost:                   1,
			PlaceCost:                 1,
			LiquidCost:                1,
			EntityCost:                1,
			MaxDropDown:               4,
			ScaffoldItems:             []string{"dirt", "cobblestone"},
		},
	}
}

// Load reads a tuning file over Defaults; keys the file leaves out keep
// their default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Tuning{}, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be > 0")
	case t.ThinkTimeoutMs < 0 || t.TickTimeoutMs < 0:
		return fmt.Errorf("timeouts must be >= 0")
	case t.Movement.MaxDropDown < 0:
		return fmt.Errorf("movement.max_drop_down must be >= 0")
	case t.Movement.DigCost < 0 || t.Movement.PlaceCost < 0 || t.Movement.LiquidCost < 0 || t.Movement.EntityCost < 0:
		return fmt.Errorf("movement costs must be >= 0")
	}
	return nil
}

func (t Tuning) TickInterval() time.Duration {
	return time.Second / time.Duration(t.TickRateHz)
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (t Tuning) ThinkTimeout() time.Duration     { return ms(t.ThinkTimeoutMs) }
func (t Tuning) TickTimeout() time.Duration      { return ms(t.TickTimeoutMs) }
func (t Tuning) StallTimeout() time.Duration     { return ms(t.StallTimeoutMs) }
func (t Tuning) EditStallTimeout() time.Duration { return ms(t.EditStallTimeoutMs) }
