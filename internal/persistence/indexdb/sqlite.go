// Package indexdb keeps a queryable SQLite index of goals, searches and path
// resets. The compressed JSONL logs stay the source of truth; the index is
// written by a single goroutine and drops requests when it falls behind.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"voxelpath.ai/internal/persistence/snapshot"
	"voxelpath.ai/internal/protocol"
	"voxelpath.ai/internal/sim/catalogs"
	"voxelpath.ai/internal/sim/tuning"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqGoal reqKind = iota + 1
	reqOutcome
	reqSearch
	reqReset
	reqSnapshot
	reqSync
)

type req struct {
	kind reqKind

	ev       protocol.PathEventMsg
	snapshot snapshotRow
	at       string
	done     chan struct{}
}

type snapshotRow struct {
	Tick   uint64
	Path   string
	Seed   int64
	Height int
	Chunks int
	Agent  string
}

// Stats reports the writer queue.
type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropTotal     uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS goals (
			goal_id INTEGER PRIMARY KEY,
			goal_json TEXT NOT NULL,
			dynamic INTEGER NOT NULL,
			set_tick INTEGER NOT NULL,
			outcome TEXT,
			outcome_tick INTEGER,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS searches (
			run_id TEXT PRIMARY KEY,
			goal_id INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			status TEXT NOT NULL,
			cost REAL NOT NULL,
			time_ms INTEGER NOT NULL,
			visited INTEGER NOT NULL,
			generated INTEGER NOT NULL,
			path_len INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_searches_goal ON searches(goal_id, tick);`,
		`CREATE TABLE IF NOT EXISTS resets (
			id TEXT PRIMARY KEY,
			goal_id INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			reason TEXT NOT NULL,
			code TEXT,
			message TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_resets_reason ON resets(reason, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			height INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			agent_json TEXT
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTotal:     s.dropped.Load(),
	}
}

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

// Sync waits until every request queued so far is committed.
func (s *SQLiteIndex) Sync(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqSync, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordEvent indexes one supervisor event.
func (s *SQLiteIndex) RecordEvent(m protocol.PathEventMsg) {
	r := req{ev: m, at: time.Now().UTC().Format(time.RFC3339Nano)}
	switch m.Event {
	case "goal_updated":
		r.kind = reqGoal
	case "goal_reached", "goal_unreachable", "path_stop":
		r.kind = reqOutcome
	case "path_update":
		if m.Result == nil {
			return
		}
		r.kind = reqSearch
		if r.ev.RunID == "" {
			r.ev.RunID = uuid.NewString()
		}
	case "path_reset":
		r.kind = reqReset
	default:
		return
	}
	s.enqueue(r)
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	row := snapshotRow{
		Tick:   snap.Header.Tick,
		Path:   path,
		Seed:   snap.Seed,
		Height: snap.Height,
		Chunks: len(snap.Chunks),
	}
	if snap.Agent != nil {
		b, _ := json.Marshal(snap.Agent)
		row.Agent = string(b)
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: row})
}

// UpsertCatalogs stores the catalogs and tuning the run actually uses.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "blocks.json")); err == nil {
			rows = append(rows, kv{name: "blocks_defs", digest: cats.Blocks.DefsDigest, json: b})
		}
		if b, err := os.ReadFile(filepath.Join(configDir, "items.json")); err == nil {
			rows = append(rows, kv{name: "items_defs", digest: cats.Items.DefsDigest, json: b})
		}
	}
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "items_palette", digest: cats.Items.PaletteDigest, json: b})
	}
	if b, err := json.Marshal(tune); err == nil {
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertGoal, _ := s.db.Prepare(`INSERT OR REPLACE INTO goals(goal_id,goal_json,dynamic,set_tick,recorded_at) VALUES(?,?,?,?,?)`)
	updateOutcome, _ := s.db.Prepare(`UPDATE goals SET outcome=?, outcome_tick=? WHERE goal_id=? AND outcome IS NULL`)
	insertSearch, _ := s.db.Prepare(`INSERT OR REPLACE INTO searches(run_id,goal_id,tick,status,cost,time_ms,visited,generated,path_len) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertReset, _ := s.db.Prepare(`INSERT INTO resets(id,goal_id,tick,reason,code,message) VALUES(?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,seed,height,chunks,agent_json) VALUES(?,?,?,?,?,?)`)
	stmts := []*sql.Stmt{insertGoal, updateOutcome, insertSearch, insertReset, insertSnapshot}
	defer func() {
		for _, st := range stmts {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		commitEvery = 500
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		if r.kind == reqSync {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			s.dropped.Add(1)
			continue
		}
		ev := r.ev
		switch r.kind {
		case reqGoal:
			goalJSON, _ := json.Marshal(ev.Goal)
			exec(insertGoal, int64(ev.GoalID), string(goalJSON), ev.Dynamic, int64(ev.Tick), r.at)
		case reqOutcome:
			exec(updateOutcome, ev.Event, int64(ev.Tick), int64(ev.GoalID))
		case reqSearch:
			res := ev.Result
			exec(insertSearch, ev.RunID, int64(ev.GoalID), int64(ev.Tick), res.Status, res.Cost, res.TimeMs, res.Visited, res.Generated, res.PathLen)
		case reqReset:
			exec(insertReset, uuid.NewString(), int64(ev.GoalID), int64(ev.Tick), ev.Reason, ev.Code, ev.Message)
		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, int64(sn.Tick), sn.Path, sn.Seed, sn.Height, sn.Chunks, sn.Agent)
		}
		// Commit once the burst is drained so no transaction sits open
		// holding the only connection.
		if opCount >= commitEvery || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}
