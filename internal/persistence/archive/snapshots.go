// Package archive manages the snapshot files under a world data dir: it
// lists them by tick, copies milestone snapshots into archives/ next to a
// meta.json, and prunes old ones.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"voxelpath.ai/internal/persistence/snapshot"
)

const snapSuffix = ".snap.zst"

type Meta struct {
	WorldID       string `json:"world_id"`
	Tick          uint64 `json:"tick"`
	Seed          int64  `json:"seed"`
	Kind          string `json:"kind"`
	PaletteDigest string `json:"palette_digest"`
	Chunks        int    `json:"chunks"`
	Snapshot      string `json:"snapshot"`
	CreatedAt     string `json:"created_at"`
}

type Entry struct {
	Tick uint64
	Path string
}

// SnapshotPath is where the snapshot for tick lives under worldDir.
func SnapshotPath(worldDir string, tick uint64) string {
	return filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d%s", tick, snapSuffix))
}

// List returns the snapshots in worldDir/snapshots ordered by tick. Files
// not named <tick>.snap.zst are ignored; a missing dir lists nothing.
func List(worldDir string) ([]Entry, error) {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Entry
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapSuffix) {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(e.Name(), snapSuffix), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Entry{Tick: tick, Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out, nil
}

// Latest is the newest snapshot path, or "" when there is none.
func Latest(worldDir string) string {
	ents, err := List(worldDir)
	if err != nil || len(ents) == 0 {
		return ""
	}
	return ents[len(ents)-1].Path
}

// ArchiveSnapshot copies a snapshot whose tick is a non-zero multiple of
// every into worldDir/archives/tick_<N>/. every==0 disables archiving.
func ArchiveSnapshot(worldDir, snapshotPath string, snap snapshot.SnapshotV1, every uint64) (archivedPath string, archived bool, err error) {
	tick := snap.Header.Tick
	if every == 0 || tick == 0 || tick%every != 0 {
		return "", false, nil
	}

	dir := filepath.Join(worldDir, "archives", fmt.Sprintf("tick_%010d", tick))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, err
	}
	dst := filepath.Join(dir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, fmt.Errorf("archive %s: %w", snapshotPath, err)
	}

	meta := Meta{
		WorldID:       snap.Header.WorldID,
		Tick:          tick,
		Seed:          snap.Seed,
		Kind:          snap.Kind,
		PaletteDigest: snap.PaletteDigest,
		Chunks:        len(snap.Chunks),
		Snapshot:      filepath.Base(dst),
		CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644); err != nil {
		return "", false, err
	}
	return dst, true, nil
}

// ReadMeta loads the meta.json written next to an archived snapshot.
func ReadMeta(archivedPath string) (Meta, error) {
	var m Meta
	b, err := os.ReadFile(filepath.Join(filepath.Dir(archivedPath), "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

// Prune deletes all but the newest keep snapshots and returns the removed
// paths. keep<=0 keeps everything.
func Prune(worldDir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	ents, err := List(worldDir)
	if err != nil || len(ents) <= keep {
		return nil, err
	}
	var removed []string
	for _, e := range ents[:len(ents)-keep] {
		if err := os.Remove(e.Path); err != nil {
			return removed, err
		}
		removed = append(removed, e.Path)
	}
	return removed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
