package main

import (
	"log"
	"path/filepath"
	"time"

	"voxelpath.ai/internal/bot"
	"voxelpath.ai/internal/metrics"
	"voxelpath.ai/internal/persistence/indexdb"
	persistlog "voxelpath.ai/internal/persistence/log"
	"voxelpath.ai/internal/protocol"
	"voxelpath.ai/internal/sim/path/runtime"
	"voxelpath.ai/internal/transport/ws"
)

// fanout forwards every supervisor event to each output. Observe runs on
// the tick loop.
type fanout struct {
	events   *persistlog.EventLogger
	searches *persistlog.SearchLogger
	index    *indexdb.SQLiteIndex
	metrics  *metrics.Collector
	hub      *ws.Server
	log      *log.Logger

	writeErrs int
}

func openSinks(worldDir, configDir string, b *bot.Bot, disableDB bool, logger *log.Logger) (*fanout, error) {
	s := &fanout{
		events:   persistlog.NewEventLogger(worldDir),
		searches: persistlog.NewSearchLogger(worldDir),
		metrics:  metrics.New(nil),
		hub:      ws.NewServer(b, logger),
		log:      logger,
	}
	if !disableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(worldDir, "index", "pathbot.sqlite"))
		if err != nil {
			return nil, err
		}
		if err := idx.UpsertCatalogs(configDir, b.Catalogs(), b.Tuning()); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
		s.index = idx
		s.metrics.Gauge("index_queue_depth", "Pending sqlite index writes", func() float64 {
			return float64(idx.Stats().QueueDepth)
		})
		s.metrics.Gauge("index_dropped_total", "Index writes dropped under load", func() float64 {
			return float64(idx.Stats().DropTotal)
		})
	}
	s.metrics.Gauge("ws_clients", "Connected websocket clients", func() float64 { return float64(s.hub.Clients()) })
	s.metrics.Gauge("ws_dropped_total", "Events not delivered to slow clients", func() float64 { return float64(s.hub.Dropped()) })
	return s, nil
}

func (s *fanout) Observe(ev runtime.Event, tick uint64) {
	m := protocol.FromEvent(ev, tick, true)
	s.check(s.events.WriteEvent(m))
	if m.Result != nil {
		s.check(s.searches.WriteSearch(persistlog.SearchRecord{
			RunID:     m.RunID,
			GoalID:    m.GoalID,
			Tick:      m.Tick,
			Goal:      goalKind(m.Goal),
			Status:    m.Result.Status,
			Cost:      m.Result.Cost,
			TimeMs:    m.Result.TimeMs,
			Visited:   m.Result.Visited,
			Generated: m.Result.Generated,
			PathLen:   m.Result.PathLen,
			Chunks:    m.Result.Chunks,
		}))
	}
	s.index.RecordEvent(m)
	s.metrics.Observe(ev)
	s.hub.Publish(m)

	switch ev.Type {
	case runtime.EventPathReset:
		if m.Code != "" {
			s.log.Printf("tick %d: path reset (%s): %s", tick, m.Reason, m.Message)
		}
	case runtime.EventGoalReached, runtime.EventGoalUnreachable:
		s.log.Printf("tick %d: goal %d %s", tick, m.GoalID, m.Event)
	}
}

func (s *fanout) ObserveTick(d time.Duration) { s.metrics.ObserveTick(d) }

// check logs the first few write errors; the logs are best effort.
func (s *fanout) check(err error) {
	if err == nil {
		return
	}
	s.writeErrs++
	if s.writeErrs <= 3 {
		s.log.Printf("event log: %v", err)
	}
}

func (s *fanout) Close() {
	_ = s.events.Close()
	_ = s.searches.Close()
	if s.index != nil {
		_ = s.index.Close()
	}
}

func goalKind(g *protocol.GoalSpec) string {
	if g == nil {
		return ""
	}
	return g.Kind
}
