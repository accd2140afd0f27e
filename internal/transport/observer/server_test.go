package observer

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"galaxytrade/internal/protocol"
	"galaxytrade/internal/sim/economy"
)

func newFeed(t *testing.T) (*economy.Engine, *Server, string) {
	t.Helper()
	e, err := economy.NewEngine(economy.DefaultParams(), economy.NewScripted())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	s := NewServer(e, nil)
	e.AddTickLogger(s)
	ts := httptest.NewServer(s.WSHandler())
	t.Cleanup(ts.Close)
	return e, s, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestObserver_HelloThenTicks(t *testing.T) {
	e, s, url := newFeed(t)
	e.Produce()
	s.Publish()

	conn := dial(t, url)
	if err := conn.WriteJSON(protocol.SubscribeMsg{Type: protocol.TypeSubscribe, ProtocolVersion: protocol.Version}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	var hello protocol.HelloMsg
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != protocol.TypeHello || hello.From != "Forge" || hello.To != "Haven" {
		t.Fatalf("unexpected hello: %+v", hello)
	}
	if hello.Status.Inventory != 10 || hello.Status.Credits != 90 {
		t.Fatalf("hello should reflect published status: %+v", hello.Status)
	}
	if s.Subscribers() != 1 {
		t.Fatalf("subscribers=%d want 1", s.Subscribers())
	}

	if _, err := e.Advance(2); err != nil {
		t.Fatalf("advance: %v", err)
	}
	for want := uint64(1); want <= 2; want++ {
		var msg protocol.TickMsg
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read tick: %v", err)
		}
		if msg.Type != protocol.TypeTick || msg.Tick != want || msg.Digest == "" || len(msg.Events) == 0 {
			t.Fatalf("unexpected tick msg: %+v", msg)
		}
		if msg.Status.Tick != want {
			t.Fatalf("status tick=%d want %d", msg.Status.Tick, want)
		}
	}
}

func TestObserver_RejectsBadSubscribe(t *testing.T) {
	_, s, url := newFeed(t)
	conn := dial(t, url)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ACT"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg protocol.ErrorMsg
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != protocol.TypeError || msg.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("unexpected error msg: %+v", msg)
	}
	if s.Subscribers() != 0 {
		t.Fatalf("rejected observer must not be registered")
	}
}

func TestSendLatestDropsOldest(t *testing.T) {
	ch := make(chan []byte, 1)
	sendLatest(ch, []byte("a"))
	sendLatest(ch, []byte("b"))
	if got := string(<-ch); got != "b" {
		t.Fatalf("got %q want b", got)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5555": true,
		"[::1]:80":       true,
		"10.0.0.4:80":    false,
		"garbage":        false,
	}
	for addr, want := range cases {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("isLoopbackRemote(%q)=%v want %v", addr, got, want)
		}
	}
}

func TestObserver_RefusesClientFrames(t *testing.T) {
	e, s, url := newFeed(t)
	conn := dial(t, url)
	if err := conn.WriteJSON(protocol.SubscribeMsg{Type: protocol.TypeSubscribe, ProtocolVersion: protocol.Version}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	var hello protocol.HelloMsg
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"SHIP","amount":5}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var refusal protocol.ErrorMsg
	if err := conn.ReadJSON(&refusal); err != nil {
		t.Fatalf("read error: %v", err)
	}
	if refusal.Type != protocol.TypeError || refusal.Code != protocol.ErrBadRequest {
		t.Fatalf("unexpected refusal: %+v", refusal)
	}
	if e.Snapshot().Inventory != 0 || s.Subscribers() != 1 {
		t.Fatalf("refused frame must not change the world or drop the observer")
	}

	if _, err := e.Advance(1); err != nil {
		t.Fatalf("advance: %v", err)
	}
	var msg protocol.TickMsg
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read tick: %v", err)
	}
	if msg.Type != protocol.TypeTick || msg.Tick != 1 {
		t.Fatalf("unexpected tick msg: %+v", msg)
	}
}

func TestErrorFrame_UnknownCodeIsInternal(t *testing.T) {
	b, err := errorFrame("E_NOPE", "x")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(b), protocol.ErrInternal) {
		t.Fatalf("unknown code not mapped: %s", b)
	}
}
