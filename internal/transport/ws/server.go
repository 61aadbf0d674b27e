// Package ws streams supervisor events to websocket clients and accepts goal
// requests from them.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voxelpath.ai/internal/protocol"
)

// Backend is the agent the server controls. SetGoal and Stop are called from
// connection goroutines.
type Backend interface {
	Welcome() protocol.WelcomeMsg
	SetGoal(spec protocol.GoalSpec, dynamic bool) error
	Stop()
}

type Server struct {
	backend Backend
	log     *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	dropped  atomic.Uint64

	mu      sync.Mutex
	clients map[string]chan []byte
	recent  [][]byte
	keep    int
}

func NewServer(b Backend, logger *log.Logger) *Server {
	return &Server{
		backend: b,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[string]chan []byte{},
		keep:    256,
	}
}

// Publish sends m to every client. Slow clients miss messages rather than
// stall the tick loop.
func (s *Server) Publish(m protocol.PathEventMsg) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, b)
	if len(s.recent) > s.keep {
		s.recent = s.recent[len(s.recent)-s.keep:]
	}
	for _, out := range s.clients {
		select {
		case out <- b:
		default:
			s.dropped.Add(1)
		}
	}
}

// Clients is the number of connected sessions.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dropped counts messages not delivered to slow clients.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

// StatusHandler serves the current WELCOME document over plain HTTP.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.backend.Welcome())
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sid, out := s.handshake(conn)
		if sid == "" {
			return
		}
		defer s.detach(sid)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine; it owns all writes after the handshake.
		writeDone := make(chan struct{})
		go func() {
			defer close(writeDone)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			ack, ok := s.handle(msg)
			if !ok {
				continue
			}
			b, _ := json.Marshal(ack)
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}

		cancel()
		<-writeDone
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
	}
}

// handle applies one client request and returns its ACK. Messages that are
// not requests get no reply.
func (s *Server) handle(msg []byte) (protocol.AckMsg, bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.Ack("", protocol.ErrProtoBadRequest, "bad json"), true
	}
	switch base.Type {
	case protocol.TypeGoto:
		var req protocol.GotoMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			return protocol.Ack("", protocol.ErrProtoBadRequest, err.Error()), true
		}
		if req.ProtocolVersion != protocol.Version {
			return protocol.Ack(req.ReqID, protocol.ErrProtoBadRequest, "bad protocol_version"), true
		}
		if err := s.backend.SetGoal(req.Goal, req.Dynamic); err != nil {
			return protocol.Ack(req.ReqID, protocol.ErrBadRequest, err.Error()), true
		}
		s.logf("goto %s from req %s", req.Goal.Kind, req.ReqID)
		return protocol.Ack(req.ReqID, "", ""), true
	case protocol.TypeStop:
		var req protocol.StopMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			return protocol.Ack("", protocol.ErrProtoBadRequest, err.Error()), true
		}
		if req.ProtocolVersion != protocol.Version {
			return protocol.Ack(req.ReqID, protocol.ErrProtoBadRequest, "bad protocol_version"), true
		}
		s.backend.Stop()
		return protocol.Ack(req.ReqID, "", ""), true
	default:
		return protocol.AckMsg{}, false
	}
}

func (s *Server) handshake(conn *websocket.Conn) (string, chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	sid := fmt.Sprintf("S%d", s.nextID.Add(1))
	welcome := s.backend.Welcome()
	welcome.Type = protocol.TypeWelcome
	welcome.ProtocolVersion = protocol.Version
	welcome.SessionID = sid
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}

	// Register under the lock so no event lands between the replay and the
	// live stream.
	out := make(chan []byte, 64)
	s.mu.Lock()
	var replay [][]byte
	if hello.Replay {
		replay = append(replay, s.recent...)
	}
	s.clients[sid] = out
	s.mu.Unlock()

	for _, b := range replay {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			s.detach(sid)
			return "", nil
		}
	}
	s.logf("session %s: %s connected", sid, hello.ClientName)
	return sid, out
}

func (s *Server) detach(sid string) {
	s.mu.Lock()
	delete(s.clients, sid)
	s.mu.Unlock()
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// LoopbackOnly rejects requests that do not come from the local host.
func LoopbackOnly(h http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h.ServeHTTP(rw, r)
	})
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
