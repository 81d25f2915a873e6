package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type wsMessage struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	State   GameState `json:"state"`
}

func newWSServer(t *testing.T) (*httptest.Server, *Engine) {
	t.Helper()

	engine := newTestEngine(t, "")
	hub := newHub(engine.cfg, engine)
	engine.notify = hub.BroadcastState

	mux := httprouter.New()
	registerFeudGame(engine.cfg, hub, mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, engine
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading message: %v", err)
	}
	return msg
}

func TestWSSnapshotOnConnect(t *testing.T) {
	srv, _ := newWSServer(t)
	conn := dialWS(t, srv)

	msg := readMessage(t, conn)
	if msg.Type != "state_update" {
		t.Fatalf("first message type = %q, want state_update", msg.Type)
	}
	if msg.State.Prompt != "Name something you take on vacation" {
		t.Errorf("snapshot prompt = %q, want default question", msg.State.Prompt)
	}
	if len(msg.State.Answers) != 5 {
		t.Errorf("snapshot has %d answers, want 5", len(msg.State.Answers))
	}
}

func TestWSBroadcastOnMutation(t *testing.T) {
	srv, engine := newWSServer(t)
	conn := dialWS(t, srv)
	readMessage(t, conn) // connect snapshot

	engine.AddStrike()

	msg := readMessage(t, conn)
	if msg.Type != "state_update" || msg.State.Strikes != 1 {
		t.Errorf("after AddStrike: type = %q, strikes = %d; want state_update, 1", msg.Type, msg.State.Strikes)
	}
}

func TestWSAllClientsObserveMutation(t *testing.T) {
	srv, engine := newWSServer(t)

	first := dialWS(t, srv)
	second := dialWS(t, srv)
	readMessage(t, first)
	readMessage(t, second)

	if _, _, _, err := engine.SelectAnswer(1); err != nil {
		t.Fatal(err)
	}

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		if msg.State.RoundScore != 30 {
			t.Errorf("subscriber saw pot %d, want 30", msg.State.RoundScore)
		}
	}
}

func TestWSCommands(t *testing.T) {
	srv, engine := newWSServer(t)
	conn := dialWS(t, srv)
	readMessage(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": "strike"}); err != nil {
		t.Fatal(err)
	}

	msg := readMessage(t, conn)
	if msg.State.Strikes != 1 {
		t.Errorf("strikes = %d after ws strike command, want 1", msg.State.Strikes)
	}

	if err := conn.WriteJSON(map[string]any{"type": "select", "id": 1}); err != nil {
		t.Fatal(err)
	}

	msg = readMessage(t, conn)
	if msg.State.RoundScore != 30 {
		t.Errorf("pot = %d after ws select command, want 30", msg.State.RoundScore)
	}
	if engine.CurrentState().RoundScore != 30 {
		t.Error("engine state does not reflect ws command")
	}
}

func TestWSCommandErrorGoesToSenderOnly(t *testing.T) {
	srv, engine := newWSServer(t)

	sender := dialWS(t, srv)
	observer := dialWS(t, srv)
	readMessage(t, sender)
	readMessage(t, observer)

	before := engine.CurrentState()

	if err := sender.WriteJSON(map[string]any{"type": "select", "id": 99}); err != nil {
		t.Fatal(err)
	}

	msg := readMessage(t, sender)
	if msg.Type != "error" {
		t.Fatalf("sender got %q, want error", msg.Type)
	}

	if engine.CurrentState().RoundScore != before.RoundScore {
		t.Error("failed command mutated state")
	}

	// The observer sees nothing for the failed command; the next thing it
	// reads is the snapshot from a following successful mutation.
	engine.AddStrike()
	msg = readMessage(t, observer)
	if msg.Type != "state_update" || msg.State.Strikes != 1 {
		t.Errorf("observer got %q (strikes %d), want clean state_update", msg.Type, msg.State.Strikes)
	}
}

func TestWSUnknownCommandIgnored(t *testing.T) {
	srv, engine := newWSServer(t)
	conn := dialWS(t, srv)
	readMessage(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": "dance"}); err != nil {
		t.Fatal(err)
	}

	engine.AddStrike()
	msg := readMessage(t, conn)
	if msg.Type != "state_update" || msg.State.Strikes != 1 {
		t.Errorf("got %q (strikes %d); unknown command should produce no reply", msg.Type, msg.State.Strikes)
	}
}

func TestSendToPrunedClientIsNoOp(t *testing.T) {
	engine := newTestEngine(t, "")
	hub := newHub(engine.cfg, engine)

	c := &Client{send: make(chan any, 1), id: "stuck"}
	hub.clients[c] = true

	// Fill the buffer so the broadcast prunes (and closes) the client.
	c.send <- struct{}{}
	hub.BroadcastState(engine.CurrentState())

	if hub.clients[c] {
		t.Fatal("client with a full buffer was not pruned")
	}

	// The on-connect snapshot path relies on this being a no-op rather
	// than a send on the closed channel.
	hub.sendTo(c, stateMessage{Type: "state_update"})
}

func TestQRHandler(t *testing.T) {
	srv, _ := newWSServer(t)

	resp, err := http.Get(srv.URL + "/qr")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
}
