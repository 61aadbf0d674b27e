package movements

// BlockSet is a read-only set of block type names.
type BlockSet struct {
	m map[string]struct{}
}

func NewBlockSet(names ...string) BlockSet {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return BlockSet{m: m}
}

func (s BlockSet) Has(name string) bool {
	_, ok := s.m[name]
	return ok
}

func (s BlockSet) Len() int { return len(s.m) }

// Union returns a new set; neither input is modified.
func (s BlockSet) Union(names ...string) BlockSet {
	out := make([]string, 0, len(s.m)+len(names))
	for n := range s.m {
		out = append(out, n)
	}
	return NewBlockSet(append(out, names...)...)
}

// Policy configures what the provider may do and what it costs. A Policy is a
// value: callers derive a modified copy with the With* helpers and hand it to
// the supervisor as a whole.
type Policy struct {
	CanDig                         bool
	Allow1by1Towers                bool
	AllowFreeMotion                bool
	AllowParkour                   bool
	AllowSprinting                 bool
	DontCreateFlow                 bool
	DontMineUnderFallingBlock      bool
	InfiniteLiquidDropdownDistance bool
	CanOpenDoors                   bool

	DigCost    float64
	PlaceCost  float64
	LiquidCost float64
	EntityCost float64

	CantBreak   BlockSet
	Avoid       BlockSet
	Liquids     BlockSet
	Climbable   BlockSet
	Gravity     BlockSet
	Replaceable BlockSet
	Openable    BlockSet
	EmptyBlocks BlockSet

	// ScaffoldItems is in preference order.
	ScaffoldItems []string
	MaxDropDown   int

	ExclusionStep  []ExclusionArea
	ExclusionBreak []ExclusionArea
	ExclusionPlace []ExclusionArea
}

// Defaults mirrors a vanilla survival agent.
func Defaults() Policy {
	return Policy{
		CanDig:                    true,
		Allow1by1Towers:           true,
		AllowParkour:              true,
		AllowSprinting:            true,
		DontCreateFlow:            true,
		DontMineUnderFallingBlock: true,
		CanOpenDoors:              false,

		DigCost:    1,
		PlaceCost:  1,
		LiquidCost: 1,
		EntityCost: 1,

		CantBreak:   NewBlockSet("bedrock", "chest", "barrier"),
		Avoid:       NewBlockSet("fire", "lava", "wheat", "cobweb", "magma_block"),
		Liquids:     NewBlockSet("water", "lava"),
		Climbable:   NewBlockSet("ladder", "vine"),
		Gravity:     NewBlockSet("sand", "gravel", "red_sand"),
		Replaceable: NewBlockSet("air", "cave_air", "void_air", "water", "lava", "tall_grass", "short_grass", "snow"),
		Openable:    NewBlockSet("oak_door", "spruce_door", "oak_fence_gate"),
		EmptyBlocks: NewBlockSet("air", "cave_air", "void_air"),

		ScaffoldItems: []string{"dirt", "cobblestone"},
		MaxDropDown:   4,
	}
}

func (p Policy) WithExclusionStep(areas ...ExclusionArea) Policy {
	p.ExclusionStep = appendAreas(p.ExclusionStep, areas)
	return p
}

func (p Policy) WithExclusionBreak(areas ...ExclusionArea) Policy {
	p.ExclusionBreak = appendAreas(p.ExclusionBreak, areas)
	return p
}

func (p Policy) WithExclusionPlace(areas ...ExclusionArea) Policy {
	p.ExclusionPlace = appendAreas(p.ExclusionPlace, areas)
	return p
}

func (p Policy) WithScaffold(items ...string) Policy {
	p.ScaffoldItems = append([]string(nil), items...)
	return p
}

// appendAreas never writes into the backing array of the source policy.
func appendAreas(dst, src []ExclusionArea) []ExclusionArea {
	out := make([]ExclusionArea, 0, len(dst)+len(src))
	out = append(out, dst...)
	return append(out, src...)
}
