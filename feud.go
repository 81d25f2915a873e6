// Feudboard survey game
//
// A presenter (judge) runs the board from /judge while players watch /.
// All mutations flow through one Engine; every successful mutation pushes a
// full state_update snapshot to every connected websocket client, and each
// new client receives the current snapshot immediately on connect.
//
// Features:
// - Single authoritative in-memory board, mutex-serialized commands
// - Judge commands accepted over both REST (/api/...) and the websocket
// - Question bank loaded from a JSON file, re-read per command so live
//   edits are picked up; built-in fallback question when the bank is unusable
// - Saturating three-strike counter, round pot with award/steal banking
// - Cyclic question advancement by catalog position
// - In-browser QR button to hand the board to a TV or phone, backed by go-qrcode

package main

import (
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// stateMessage is the only message type pushed to clients.
type stateMessage struct {
	Type  string    `json:"type"` // "state_update"
	State GameState `json:"state"`
}

// errorMessage goes only to the client whose command failed.
type errorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// clientCommand covers every judge action accepted over the websocket.
// Pointer fields distinguish absent from zero.
type clientCommand struct {
	Type       string `json:"type"` // "select", "reset", "strike", "clear_strikes", "award", "award_steal", "next_round", "new_question", "active", "set_score"
	ID         *int   `json:"id,omitempty"`          // select
	QuestionID *int   `json:"question_id,omitempty"` // new_question
	Team       *int   `json:"team,omitempty"`        // active / set_score
	Score      *int   `json:"score,omitempty"`       // set_score
}

type Client struct {
	conn *websocket.Conn
	send chan any
	id   string
}

// Hub is the subscriber registry. Its run loop handles connection lifecycle;
// BroadcastState fans snapshots out with per-client isolation, pruning any
// subscriber whose send buffer is full.
type Hub struct {
	clients  map[*Client]bool
	register chan *Client
	unreg    chan *Client

	mu sync.Mutex

	cfg    *Config
	engine *Engine
}

func newHub(cfg *Config, engine *Engine) *Hub {
	return &Hub{
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		cfg:      cfg,
		engine:   engine,
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()

			logf(h.cfg, "FEUD: Client %s connected (%d total)", c.id, count)

			// New subscribers get the current board immediately. sendTo
			// rechecks membership under the lock, so a client pruned by a
			// concurrent broadcast is skipped instead of written to after
			// close.
			h.sendTo(c, stateMessage{
				Type:  "state_update",
				State: h.engine.CurrentState(),
			})

		case c := <-h.unreg:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				logf(h.cfg, "FEUD: Client %s disconnected (%d total)", c.id, len(h.clients))
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastState pushes a snapshot to every connected client. A client whose
// buffer is full is dropped on the spot; nothing here can fail the mutation
// that triggered the push.
func (h *Hub) BroadcastState(state GameState) {
	msg := stateMessage{
		Type:  "state_update",
		State: state,
	}

	h.mu.Lock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
			logf(h.cfg, "FEUD: Client %s dropped (send buffer full)", client.id)
		}
	}
	h.mu.Unlock()
}

// sendTo delivers a message to one client only, pruning it on a full buffer.
func (h *Hub) sendTo(c *Client, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// handleCommand applies one judge command from the websocket. Results arrive
// at every client as the broadcast snapshot; failures go back to the sender
// alone and mutate nothing.
func (h *Hub) handleCommand(c *Client, cmd clientCommand) {
	var err error

	switch cmd.Type {
	case "select":
		if cmd.ID == nil {
			err = errNotFound
			break
		}
		_, _, _, err = h.engine.SelectAnswer(*cmd.ID)
	case "reset":
		h.engine.ResetBoard()
	case "strike":
		h.engine.AddStrike()
	case "clear_strikes":
		h.engine.ClearStrikes()
	case "award":
		h.engine.Award()
	case "award_steal":
		h.engine.AwardSteal()
	case "next_round":
		_, _, _, _, err = h.engine.NextRound()
	case "new_question":
		_, err = h.engine.NewQuestion(cmd.QuestionID)
	case "active":
		if cmd.Team == nil {
			err = errInvalidTeam
			break
		}
		_, err = h.engine.SetActiveTeam(*cmd.Team)
	case "set_score":
		if cmd.Team == nil || cmd.Score == nil {
			err = errInvalidTeam
			break
		}
		_, _, err = h.engine.SetTeamScore(*cmd.Team, *cmd.Score)
	default:
		// ignore unknown types
		return
	}

	if err != nil {
		logf(h.cfg, "FEUD: Client %s command %q failed: %v", c.id, cmd.Type, err)
		h.sendTo(c, errorMessage{
			Type:    "error",
			Message: err.Error(),
		})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "FEUD: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
			id:   uuid.NewString(),
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var cmd clientCommand
		if err := c.conn.ReadJSON(&cmd); err != nil {
			return
		}

		h.handleCommand(c, cmd)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// qrHandler generates a PNG QR code pointing at the player board, so the
// judge can hand the view to a TV or a phone.
func qrHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../qr; strip the trailing "/qr" to get the board URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")
	if path == "" {
		path = "/"
	}

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerFeudGame sets up the realtime surface:
//   - $prefix/ws → websocket push channel (plus judge commands)
//   - $prefix/qr → PNG QR code for the board URL
func registerFeudGame(cfg *Config, hub *Hub, mux *httprouter.Router) {
	go hub.run()

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, hub))
	mux.GET(cfg.prefix+"/qr", qrHandler)
}
