package observer

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

	"galaxytrade/internal/protocol"
	"galaxytrade/internal/sim/economy"
)

// Server is a read-only websocket feed of completed ticks. It implements
// economy.TickLogger; WriteTick and Publish must be called from the goroutine
// that drives the engine, since status is read through the engine.
type Server struct {
	from, to string
	status   func() protocol.Status
	log      *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu   sync.Mutex
	last protocol.Status
	subs map[string]chan []byte
}

func NewServer(e *economy.Engine, logger *log.Logger) *Server {
	p := e.Params()
	s := &Server{
		from:   p.Route.From,
		to:     p.Route.To,
		status: func() protocol.Status { return e.Snapshot().Status() },
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only, see WSHandler
		},
		subs: map[string]chan []byte{},
	}
	s.last = s.status()
	return s
}

// Publish refreshes the cached status after an out-of-tick command.
func (s *Server) Publish() {
	st := s.status()
	s.mu.Lock()
	s.last = st
	s.mu.Unlock()
}

func (s *Server) WriteTick(entry economy.TickLogEntry) error {
	st := s.status()
	msg := protocol.TickMsg{
		Type:            protocol.TypeTick,
		ProtocolVersion: protocol.Version,
		Tick:            entry.Tick,
		Events:          entry.Events,
		Actions:         entry.Actions,
		Digest:          entry.Digest,
		Status:          st,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.last = st
	for _, ch := range s.subs {
		sendLatest(ch, b)
	}
	s.mu.Unlock()
	return nil
}

// Subscribers reports how many observers are attached.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub protocol.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil || sub.Type != protocol.TypeSubscribe || sub.ProtocolVersion != protocol.Version {
			s.writeError(conn, protocol.ErrProtoBadRequest, "expected SUBSCRIBE")
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		out := make(chan []byte, 64)

		s.mu.Lock()
		hello := protocol.HelloMsg{
			Type:            protocol.TypeHello,
			ProtocolVersion: protocol.Version,
			From:            s.from,
			To:              s.to,
			Status:          s.last,
		}
		s.subs[sid] = out
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.subs, sid)
			s.mu.Unlock()
		}()

		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(hello); err != nil {
			return
		}
		if s.log != nil {
			s.log.Printf("observer %s attached from %s", sid, r.RemoteAddr)
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: the feed is read-only, so every client frame is refused.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
			if b, err := errorFrame(protocol.ErrBadRequest, "observer feed is read-only"); err == nil {
				s.mu.Lock()
				sendLatest(out, b)
				s.mu.Unlock()
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		if s.log != nil {
			s.log.Printf("observer %s detached", sid)
		}
	}
}

func (s *Server) writeError(conn *websocket.Conn, code, message string) {
	b, err := errorFrame(code, message)
	if err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

// errorFrame encodes an ERROR message. Unknown codes are reported as internal.
func errorFrame(code, message string) ([]byte, error) {
	if code == "" || !protocol.IsKnownCode(code) {
		code = protocol.ErrInternal
	}
	return json.Marshal(protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
}

// sendLatest never blocks the engine: when a slow observer's buffer is full,
// its oldest queued tick is dropped.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
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
