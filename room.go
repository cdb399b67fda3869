package main

import (
	"sync"
	"time"
)

// Room owns one collaboration session: the shared document log and the set
// of connected participants. Lifecycle: Active while participants are
// present; when the last one leaves (or right after creation, before anyone
// joins) a drain deadline is armed and the hub sweep destroys the room if it
// is still empty when the deadline passes. Rejoining clears the deadline.
type Room struct {
	code string
	doc  *DocLog

	mu           sync.RWMutex
	participants map[string]*Participant // by participant ID
	drainAt      time.Time               // zero while active
}

func NewRoom(code string) *Room {
	return &Room{
		code:         code,
		doc:          NewDocLog(),
		participants: make(map[string]*Participant),
	}
}

func (r *Room) Add(p *Participant) {
	r.mu.Lock()
	r.participants[p.id] = p
	r.drainAt = time.Time{}
	r.mu.Unlock()
}

func (r *Room) Remove(p *Participant) {
	r.mu.Lock()
	if r.participants[p.id] == p {
		delete(r.participants, p.id)
	}
	r.mu.Unlock()
}

func (r *Room) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// ByAddress returns the participant connected from addr, if any. At most
// one participant per source address exists in a room; the hub evicts the
// older connection before registering a new one.
func (r *Room) ByAddress(addr string) *Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if p.addr == addr {
			return p
		}
	}
	return nil
}

// Participants returns a snapshot of the current membership.
func (r *Room) Participants() []*Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	return out
}

// ArmDrain schedules destruction at the given deadline, replacing any
// pending one. There is never more than one pending drain per room.
func (r *Room) ArmDrain(at time.Time) {
	r.mu.Lock()
	r.drainAt = at
	r.mu.Unlock()
}

// DrainExpired reports whether the room is empty with a passed deadline.
func (r *Room) DrainExpired(now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants) == 0 && !r.drainAt.IsZero() && now.After(r.drainAt)
}

// Draining reports whether a drain deadline is pending.
func (r *Room) Draining() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.drainAt.IsZero()
}

// Broadcast enqueues data to every participant except the sender. Slow
// consumers are skipped rather than blocking the room.
func (r *Room) Broadcast(senderID string, data []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if p.id == senderID {
			continue
		}
		p.Enqueue(data)
	}
}

// BroadcastRoster pushes the active-users message to every socket in the
// room. Only awareness-type connections appear in the roster itself.
func (r *Room) BroadcastRoster() {
	r.mu.RLock()
	users := make([]rosterUser, 0, len(r.participants))
	for _, p := range r.participants {
		if !p.awareness {
			continue
		}
		users = append(users, rosterUser{
			ClientID: p.id,
			UserName: p.name,
			Color:    p.color,
			RoomCode: r.code,
		})
	}
	targets := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		targets = append(targets, p)
	}
	r.mu.RUnlock()

	msg := activeUsersMessage{Type: "active-users", Users: users}
	for _, p := range targets {
		p.EnqueueJSON(msg)
	}
}

// CloseAll force-closes every participant with the given close code.
func (r *Room) CloseAll(code int, reason string) {
	for _, p := range r.Participants() {
		p.CloseWithReason(code, reason)
	}
}

type rosterUser struct {
	ClientID string `json:"clientID"`
	UserName string `json:"userName"`
	Color    string `json:"color"`
	RoomCode string `json:"roomCode"`
}

type activeUsersMessage struct {
	Type  string       `json:"type"`
	Users []rosterUser `json:"users"`
}
