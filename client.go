package main

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ronthekiehn/gandalf/pkg/stroke"
)

const (
	writeWait      = 10 * time.Second
	readWait       = 90 * time.Second
	sendBufferSize = 256

	// Application-level close codes. 1008 (policy violation) is used for
	// refused joins; these distinguish server-initiated evictions.
	closeSuperseded  = 4000
	closeIdleTimeout = 4001
)

var pingMessage = []byte(`{"type":"ping"}`)

// inboundMessage is the lenient shape parsed off the wire. Only a handful
// of types are meaningful to the server (pong, the document operations);
// everything else is sync traffic relayed opaquely.
type inboundMessage struct {
	Type   string         `json:"type"`
	Stroke *stroke.Stroke `json:"stroke,omitempty"`
	ID     string         `json:"id,omitempty"`
}

// Participant is one connected socket in a room.
type Participant struct {
	hub       *Hub
	conn      *websocket.Conn
	roomCode  string
	id        string
	name      string
	color     string
	addr      string
	awareness bool // roster-tracked connection

	connectedAt time.Time
	lastActive  atomic.Int64 // unix nano
	send        chan []byte

	closeOnce sync.Once
}

func NewParticipant(hub *Hub, conn *websocket.Conn, roomCode, name, color, addr string, awareness bool) *Participant {
	p := &Participant{
		hub:         hub,
		conn:        conn,
		roomCode:    roomCode,
		id:          uuid.NewString(),
		name:        name,
		color:       color,
		addr:        addr,
		awareness:   awareness,
		connectedAt: time.Now(),
		send:        make(chan []byte, sendBufferSize),
	}
	p.Touch()
	return p
}

// Touch refreshes the liveness timestamp. Called on every inbound message.
func (p *Participant) Touch() {
	p.lastActive.Store(time.Now().UnixNano())
}

// IdleFor reports how long the participant has been silent as of now.
func (p *Participant) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, p.lastActive.Load()))
}

// Enqueue hands data to the write pump without blocking; a full buffer
// drops the message.
func (p *Participant) Enqueue(data []byte) {
	select {
	case p.send <- data:
	default:
	}
}

func (p *Participant) EnqueueJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	p.Enqueue(data)
}

func (p *Participant) ReadPump() {
	defer func() {
		p.hub.Unregister(p)
		p.conn.Close()
	}()

	p.conn.SetReadLimit(p.hub.cfg.MaxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(readWait))

	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, closeSuperseded, closeIdleTimeout) {
				log.Printf("read error participant=%s room=%s: %v", p.id, p.roomCode, err)
			}
			return
		}

		p.Touch()
		_ = p.conn.SetReadDeadline(time.Now().Add(readWait))

		// Malformed or unrecognized messages must never tear down the
		// session; anything we can't interpret is relayed as opaque sync
		// traffic.
		var msg inboundMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			switch msg.Type {
			case "pong":
				continue // liveness only, not relayed
			case "stroke-add", "stroke-delete", "clear":
				p.hub.ApplyDocOp(p.roomCode, &msg)
			}
		}

		p.hub.Relay(&RelayMsg{
			RoomCode: p.roomCode,
			SenderID: p.id,
			Data:     message,
		})
	}
}

func (p *Participant) WritePump() {
	ticker := time.NewTicker(p.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case message, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, pingMessage); err != nil {
				return
			}
		}
	}
}

// CloseWithReason sends a close frame with the given code and tears the
// connection down. Safe to call from any goroutine and more than once.
func (p *Participant) CloseWithReason(code int, reason string) {
	p.closeOnce.Do(func() {
		if p.conn == nil {
			return
		}
		msg := websocket.FormatCloseMessage(code, reason)
		_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = p.conn.Close()
	})
}
