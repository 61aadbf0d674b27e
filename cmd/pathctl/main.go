package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"voxelpath.ai/internal/protocol"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name    = flag.String("name", "pathctl", "client name")
		replay  = flag.Bool("replay", true, "ask for buffered events on connect")
		goal    = flag.String("goal", "", `goal JSON to send, e.g. {"kind":"BLOCK","pos":[10,5,0]}`)
		dynamic = flag.Bool("dynamic", false, "keep pathing after the goal is reached")
		stop    = flag.Bool("stop", false, "send STOP after connecting")
		wander  = flag.Int("wander", 0, "if >0, send a random XZ goal within this range after each outcome")
		exit    = flag.Bool("exit_on_done", false, "exit after the sent goal resolves")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[pathctl] ", log.LstdFlags|log.Lmicroseconds)

	var first *protocol.GoalSpec
	if *goal != "" {
		var g protocol.GoalSpec
		if err := json.Unmarshal([]byte(*goal), &g); err != nil {
			logger.Fatalf("bad -goal: %v", err)
		}
		first = &g
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Replay:          *replay,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	c := &client{
		conn:    conn,
		logger:  logger,
		dynamic: *dynamic,
		wander:  *wander,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s world=%s tick_rate=%d seed=%d blocks=%d",
				w.SessionID, w.WorldID, w.WorldParams.TickRateHz, w.WorldParams.Seed, w.Catalogs.BlockPalette.Count)
			if w.Goal != nil {
				c.last = *w.Goal
			}
			if *stop {
				c.sendStop()
			}
			if first != nil {
				c.sendGoto(*first)
			} else if c.wander > 0 {
				c.sendGoto(c.nextWander())
			}

		case protocol.TypeAck:
			var a protocol.AckMsg
			if err := json.Unmarshal(msg, &a); err != nil {
				continue
			}
			c.ack(a)
			if a.Accepted {
				logger.Printf("ACK %s ok", a.AckFor)
			} else {
				logger.Printf("ACK %s rejected %s: %s", a.AckFor, a.Code, a.Message)
			}

		case protocol.TypePathEvent:
			var ev protocol.PathEventMsg
			if err := json.Unmarshal(msg, &ev); err != nil {
				continue
			}
			logger.Print(describe(ev))
			if !c.resolves(ev) {
				continue
			}
			if *exit && c.wander == 0 {
				return
			}
			if c.wander > 0 {
				c.sendGoto(c.nextWander())
			}
		}
	}
}

type client struct {
	conn    *websocket.Conn
	logger  *log.Logger
	dynamic bool
	wander  int
	rng     *rand.Rand

	seq     int
	pending string
	acked   bool
	goalID  uint64
	last    protocol.GoalSpec
}

func (c *client) sendGoto(g protocol.GoalSpec) {
	c.seq++
	req := protocol.GotoMsg{
		Type:            protocol.TypeGoto,
		ProtocolVersion: protocol.Version,
		ReqID:           fmt.Sprintf("G%d", c.seq),
		Goal:            g,
		Dynamic:         c.dynamic,
	}
	if err := c.conn.WriteJSON(req); err != nil {
		c.logger.Printf("send GOTO: %v", err)
		return
	}
	c.pending = req.ReqID
	c.acked = false
	c.goalID = 0
	c.last = g
	c.logger.Printf("GOTO %s %s %v", req.ReqID, g.Kind, g.Pos)
}

func (c *client) sendStop() {
	c.seq++
	req := protocol.StopMsg{Type: protocol.TypeStop, ProtocolVersion: protocol.Version, ReqID: fmt.Sprintf("S%d", c.seq)}
	if err := c.conn.WriteJSON(req); err != nil {
		c.logger.Printf("send STOP: %v", err)
	}
}

func (c *client) ack(a protocol.AckMsg) {
	if a.AckFor != c.pending {
		return
	}
	if !a.Accepted {
		c.pending = ""
		return
	}
	c.acked = true
}

// resolves reports whether ev ends the goal this client last sent. The
// goal id is learned from the first goal_updated after the GOTO is acked,
// so replayed events never match.
func (c *client) resolves(ev protocol.PathEventMsg) bool {
	if c.pending == "" || !c.acked {
		return false
	}
	switch ev.Event {
	case "goal_updated":
		if c.goalID == 0 {
			c.goalID = ev.GoalID
		}
		return false
	case "goal_reached", "goal_unreachable", "path_stop":
		if c.goalID == 0 || ev.GoalID != c.goalID {
			return false
		}
		c.pending = ""
		return true
	}
	return false
}

func (c *client) nextWander() protocol.GoalSpec {
	x := c.last.Pos[0] + c.rng.Intn(2*c.wander+1) - c.wander
	z := c.last.Pos[2] + c.rng.Intn(2*c.wander+1) - c.wander
	return protocol.GoalSpec{Kind: protocol.GoalXZ, Pos: [3]int{x, 0, z}}
}

func describe(ev protocol.PathEventMsg) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tick=%d goal=%d %s", ev.Tick, ev.GoalID, ev.Event)
	if ev.Goal != nil {
		fmt.Fprintf(&b, " %s %v", ev.Goal.Kind, ev.Goal.Pos)
	}
	if r := ev.Result; r != nil {
		fmt.Fprintf(&b, " status=%s moves=%d cost=%.2f visited=%d time=%dms", r.Status, r.PathLen, r.Cost, r.Visited, r.TimeMs)
	}
	if ev.Reason != "" {
		fmt.Fprintf(&b, " reason=%s", ev.Reason)
	}
	if ev.Code != "" {
		fmt.Fprintf(&b, " code=%s %s", ev.Code, ev.Message)
	}
	return b.String()
}
