// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/scoring"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Viewers only send pings, keep the limit small.
	maxMessageSize = 4 * 1024

	// Outbound queue per viewer. A viewer that falls this far behind is dropped.
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Message types for the scoreboard feed.
const (
	MsgTypeHello      = "HELLO"
	MsgTypeScoreboard = "SCOREBOARD"
	MsgTypePing       = "PING"
	MsgTypePong       = "PONG"
	MsgTypeError      = "ERROR"
)

// Message is a frame of the scoreboard feed.
type Message struct {
	Type       string              `json:"type"`
	ClientID   string              `json:"clientId,omitempty"`
	Scoreboard *scoring.Scoreboard `json:"scoreboard,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Hub fans the live scoreboard out to websocket viewers. Registration and
// broadcast happen on the run goroutine only.
type Hub struct {
	logger *zap.Logger

	// Registered clients.
	clients map[*wsClient]bool

	// Scoreboards to broadcast.
	updates chan scoring.Scoreboard

	// Register requests from the clients.
	register chan *wsClient

	// Unregister requests from clients.
	unregister chan *wsClient

	// Replies to viewer frames. Only run writes to client.send.
	replies chan reply

	// count requests, answered on the run goroutine.
	count chan chan int

	done      chan struct{}
	closeOnce sync.Once

	// last is owned by run and replayed to new viewers.
	last *scoring.Scoreboard
}

// NewHub starts a hub. Stop it with Close.
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		logger:     logger,
		clients:    make(map[*wsClient]bool),
		updates:    make(chan scoring.Scoreboard, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		replies:    make(chan reply, 16),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			client.sendJSON(Message{Type: MsgTypeHello, ClientID: client.id})
			if h.last != nil {
				sb := *h.last
				client.sendJSON(Message{Type: MsgTypeScoreboard, Scoreboard: &sb})
			}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case sb := <-h.updates:
			h.last = &sb
			h.broadcast(Message{Type: MsgTypeScoreboard, Scoreboard: &sb})
		case rp := <-h.replies:
			if h.clients[rp.client] {
				rp.client.sendJSON(rp.msg)
			}
		case out := <-h.count:
			out <- len(h.clients)
		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Publish queues a scoreboard for broadcast without blocking the caller.
func (h *Hub) Publish(sb scoring.Scoreboard) {
	select {
	case h.updates <- sb:
	case <-h.done:
	default:
		h.logger.Warn("hub queue full, dropping scoreboard", zap.Int64("match", sb.MatchID))
	}
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	out := make(chan int, 1)
	select {
	case h.count <- out:
		return <-out
	case <-h.done:
		return 0
	}
}

// Close disconnects all viewers and stops the hub.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) broadcast(msg Message) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			h.logger.Info("dropping slow viewer", zap.String("client", client.id))
			close(client.send)
			delete(h.clients, client)
		}
	}
}

type reply struct {
	client *wsClient
	msg    Message
}

// wsClient is a middleman between the websocket connection and the hub.
type wsClient struct {
	id  string
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan Message
}

// readPump keeps the read deadline moving and forwards application pings.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("viewer read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		out := Message{Type: MsgTypePong}
		if msg.Type != MsgTypePing {
			out = Message{Type: MsgTypeError, Error: "Unknown message type"}
		}
		select {
		case c.hub.replies <- reply{client: c, msg: out}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendJSON queues msg without blocking. Called from the hub goroutine only.
func (c *wsClient) sendJSON(msg Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// ServeWS upgrades the request and registers a viewer.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Info("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &wsClient{id: uuid.NewString(), hub: h, conn: conn, send: make(chan Message, sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
