package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ronthekiehn/gandalf/pkg/stroke"
)

// roomCodeAlphabet avoids ambiguous characters (0/O, 1/I).
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var errTooManyRooms = errors.New("could not allocate a unique room code")

// Hub owns every room and participant. All membership changes flow through
// the single-consumer Run loop, so room lifecycle transitions never race;
// HTTP handlers reach room state through the mutex-guarded accessors.
type Hub struct {
	cfg *Config

	mu    sync.RWMutex
	rooms map[string]*Room

	registerCh   chan *Participant
	unregisterCh chan *Participant
	relayCh      chan *RelayMsg
}

// RelayMsg is opaque sync traffic forwarded to the rest of a room.
type RelayMsg struct {
	RoomCode string
	SenderID string
	Data     []byte
}

func NewHub(cfg *Config) *Hub {
	return &Hub{
		cfg:          cfg,
		rooms:        make(map[string]*Room),
		registerCh:   make(chan *Participant, 64),
		unregisterCh: make(chan *Participant, 64),
		relayCh:      make(chan *RelayMsg, 2048),
	}
}

func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case p := <-h.registerCh:
			h.addParticipant(p)

		case p := <-h.unregisterCh:
			h.removeParticipant(p)

		case msg := <-h.relayCh:
			h.relay(msg)

		case <-ticker.C:
			now := time.Now()
			h.sweepParticipants(now)
			h.sweepRooms(now)
		}
	}
}

func (h *Hub) Register(p *Participant)   { h.registerCh <- p }
func (h *Hub) Unregister(p *Participant) { h.unregisterCh <- p }
func (h *Hub) Relay(msg *RelayMsg)       { h.relayCh <- msg }

// CreateRoom allocates a collision-checked short code and eagerly
// instantiates the backing document. The new room starts with its drain
// deadline armed so codes that are never joined get reclaimed.
func (h *Hub) CreateRoom() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for attempt := 0; attempt < 100; attempt++ {
		code := randomCode(h.cfg.RoomCodeLength)
		if _, taken := h.rooms[code]; taken {
			continue
		}
		room := NewRoom(code)
		room.ArmDrain(time.Now().Add(h.cfg.RoomDrainGrace))
		h.rooms[code] = room
		log.Printf("room %s created", code)
		return code, nil
	}
	return "", errTooManyRooms
}

// RoomExists is a read-only existence probe with no lifecycle side effects.
func (h *Hub) RoomExists(code string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[code]
	return ok
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) ParticipantCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, room := range h.rooms {
		total += room.Count()
	}
	return total
}

// RoomSnapshot returns the room's document log, if the room exists.
func (h *Hub) RoomSnapshot(code string) ([]stroke.Stroke, bool) {
	h.mu.RLock()
	room, ok := h.rooms[code]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return room.doc.Snapshot(), true
}

// ApplyDocOp applies a recognized document operation to a room's log.
// Invalid operations (empty strokes, unknown ids) are dropped; a bad
// message never disturbs the session.
func (h *Hub) ApplyDocOp(code string, msg *inboundMessage) {
	h.mu.RLock()
	room, ok := h.rooms[code]
	h.mu.RUnlock()
	if !ok {
		return
	}

	switch msg.Type {
	case "stroke-add":
		if msg.Stroke == nil {
			return
		}
		if err := room.doc.Push(*msg.Stroke); err != nil {
			log.Printf("room %s rejected stroke: %v", code, err)
		}
	case "stroke-delete":
		room.doc.Delete(msg.ID)
	case "clear":
		room.doc.Clear()
	}
}

// getOrCreateRoom backs open joining: connecting to an unseen code creates
// the room on the spot.
func (h *Hub) getOrCreateRoom(code string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[code]
	if !ok {
		room = NewRoom(code)
		h.rooms[code] = room
		log.Printf("room %s created on join", code)
	}
	return room
}

func (h *Hub) addParticipant(p *Participant) {
	h.register(p)
	go p.ReadPump()
	go p.WritePump()
}

// register performs the membership bookkeeping for a join; pump startup is
// kept separate so the lifecycle is exercisable without live sockets.
func (h *Hub) register(p *Participant) {
	room := h.getOrCreateRoom(p.roomCode)

	// A refresh leaves an orphaned socket behind; the newer connection
	// from the same address wins.
	if stale := room.ByAddress(p.addr); stale != nil {
		log.Printf("participant %s superseded by new connection from %s (room %s)", stale.id, p.addr, p.roomCode)
		stale.CloseWithReason(closeSuperseded, "superseded by newer connection")
		room.Remove(stale)
	}

	room.Add(p)
	log.Printf("participant %s (%s) joined room %s (awareness=%v)", p.id, p.name, p.roomCode, p.awareness)

	// New joiners receive the current document before any live traffic.
	p.EnqueueJSON(docSyncMessage{Type: "doc-sync", Strokes: room.doc.Snapshot()})
	room.BroadcastRoster()
}

func (h *Hub) removeParticipant(p *Participant) {
	h.mu.RLock()
	room, ok := h.rooms[p.roomCode]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.Remove(p)
	log.Printf("participant %s left room %s", p.id, p.roomCode)

	if room.Count() == 0 {
		room.ArmDrain(time.Now().Add(h.cfg.RoomDrainGrace))
		log.Printf("room %s draining", p.roomCode)
	} else {
		room.BroadcastRoster()
	}
}

func (h *Hub) relay(msg *RelayMsg) {
	h.mu.RLock()
	room, ok := h.rooms[msg.RoomCode]
	h.mu.RUnlock()
	if !ok {
		return
	}
	room.Broadcast(msg.SenderID, msg.Data)
}

// sweepParticipants force-disconnects participants whose last activity is
// older than the idle threshold.
func (h *Hub) sweepParticipants(now time.Time) {
	for _, room := range h.snapshotRooms() {
		removed := false
		for _, p := range room.Participants() {
			if p.IdleFor(now) > h.cfg.IdleTimeout {
				log.Printf("participant %s evicted from room %s (idle)", p.id, room.code)
				p.CloseWithReason(closeIdleTimeout, "idle timeout")
				room.Remove(p)
				removed = true
			}
		}
		if !removed {
			continue
		}
		if room.Count() == 0 {
			room.ArmDrain(now.Add(h.cfg.RoomDrainGrace))
		} else {
			room.BroadcastRoster()
		}
	}
}

// sweepRooms destroys rooms that stayed empty past their drain deadline,
// disposing the backing document.
func (h *Hub) sweepRooms(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for code, room := range h.rooms {
		if room.DrainExpired(now) {
			room.doc.Clear()
			delete(h.rooms, code)
			log.Printf("room %s destroyed (drain expired)", code)
		}
	}
}

func (h *Hub) snapshotRooms() []*Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		out = append(out, room)
	}
	return out
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		room.CloseAll(websocket.CloseGoingAway, "server shutting down")
	}
	h.rooms = make(map[string]*Room)
}

func randomCode(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	for i := range b {
		b[i] = roomCodeAlphabet[int(b[i])%len(roomCodeAlphabet)]
	}
	return string(b)
}

type docSyncMessage struct {
	Type    string          `json:"type"`
	Strokes []stroke.Stroke `json:"strokes"`
}
