package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Blocks BlockCatalog
	Items  ItemCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

// Block flags.
const (
	FlagEmpty       = "empty"
	FlagReplaceable = "replaceable"
	FlagLiquid      = "liquid"
	FlagClimbable   = "climbable"
	FlagGravity     = "gravity"
	FlagOpenable    = "openable"
	FlagAvoid       = "avoid"
)

type BlockDef struct {
	ID        string `json:"id"`
	Solid     bool   `json:"solid"`
	Breakable bool   `json:"breakable"`
	// Hardness < 0 never breaks.
	Hardness     float64  `json:"hardness"`
	Material     string   `json:"material,omitempty"`
	HarvestTools []string `json:"harvest_tools,omitempty"`
	// Shapes are [minX,minY,minZ,maxX,maxY,maxZ] boxes in the cell; a solid
	// block without shapes is a full cube.
	Shapes    [][6]float64 `json:"shapes,omitempty"`
	Flags     []string     `json:"flags,omitempty"`
	DropsItem string       `json:"drops_item,omitempty"`
}

func (d BlockDef) Has(flag string) bool {
	for _, f := range d.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"` // "BLOCK","TOOL","MATERIAL"
	PlaceAs string `json:"place_as,omitempty"`
	// ToolKind is "pickaxe", "shovel", "axe" or "sword" for tools.
	ToolKind string  `json:"tool_kind,omitempty"`
	Tier     int     `json:"tier,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	for id, d := range c.Items.Defs {
		if d.PlaceAs == "" {
			continue
		}
		if _, ok := c.Blocks.Defs[d.PlaceAs]; !ok {
			return nil, fmt.Errorf("items.json: %s places unknown block %s", id, d.PlaceAs)
		}
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("blocks.json: empty id")
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("blocks.json: duplicate id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}

	// air is always palette id 0 so a zeroed chunk is empty.
	if _, ok := out.Defs["air"]; !ok {
		return fmt.Errorf("blocks.json: missing air")
	}
	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		if id != "air" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	ids = append([]string{"air"}, ids...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if d.Kind == "TOOL" && (d.ToolKind == "" || d.Speed <= 0) {
			return fmt.Errorf("items.json: tool %s needs tool_kind and speed", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

// IDs lists the block ids carrying flag, sorted.
func (bc BlockCatalog) IDs(flag string) []string {
	var out []string
	for _, id := range bc.Palette {
		if bc.Defs[id].Has(flag) {
			out = append(out, id)
		}
	}
	return out
}
