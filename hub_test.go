package main

import (
	"context"
	"testing"
	"time"
)

func testConfig() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           "0",
		RoomCodeLength: 4,
		PingInterval:   30 * time.Second,
		IdleTimeout:    5 * time.Minute,
		RoomDrainGrace: time.Minute,
		SweepInterval:  10 * time.Second,
		MaxMessageSize: 1048576,
		WSRateWindow:   time.Minute,
		WSRateMax:      20,
		HTTPRateWindow: time.Minute,
		HTTPRateMax:    100,
		GenRateWindow:  5 * time.Second,
		GenRateMax:     1,
	}
}

func TestHub_CreateRoom(t *testing.T) {
	hub := NewHub(testConfig())

	code, err := hub.CreateRoom()
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if len(code) != 4 {
		t.Errorf("expected a 4-character code, got %q", code)
	}
	if !hub.RoomExists(code) {
		t.Error("created room should exist")
	}
	if hub.RoomExists("????") {
		t.Error("unknown code should not exist")
	}
}

func TestHub_UnjoinedRoomIsReclaimed(t *testing.T) {
	hub := NewHub(testConfig())

	code, _ := hub.CreateRoom()

	// Before the grace period the room survives.
	hub.sweepRooms(time.Now())
	if !hub.RoomExists(code) {
		t.Fatal("room reclaimed before its grace period")
	}

	hub.sweepRooms(time.Now().Add(2 * time.Minute))
	if hub.RoomExists(code) {
		t.Error("never-joined room should be reclaimed after the grace period")
	}
}

func TestHub_RoomLifecycle(t *testing.T) {
	hub := NewHub(testConfig())

	code, _ := hub.CreateRoom()
	p := testParticipant("p1", "1.2.3.4", true)
	p.roomCode = code
	hub.register(p)

	// Occupied rooms are immune to sweeps.
	hub.sweepRooms(time.Now().Add(time.Hour))
	if !hub.RoomExists(code) {
		t.Fatal("occupied room must not be destroyed")
	}

	hub.removeParticipant(p)
	if !hub.RoomExists(code) {
		t.Fatal("empty room should drain, not vanish immediately")
	}

	// Rejoining before the grace period cancels the pending destruction.
	p2 := testParticipant("p2", "1.2.3.4", true)
	p2.roomCode = code
	hub.register(p2)
	hub.sweepRooms(time.Now().Add(2 * time.Minute))
	if !hub.RoomExists(code) {
		t.Fatal("rejoin should have canceled the drain")
	}

	// Leaving again re-arms; past the grace period the room goes away.
	hub.removeParticipant(p2)
	hub.sweepRooms(time.Now().Add(2 * time.Minute))
	if hub.RoomExists(code) {
		t.Error("drained room should be destroyed after the grace period")
	}
}

func TestHub_JoinUnseenCodeCreatesRoom(t *testing.T) {
	hub := NewHub(testConfig())

	p := testParticipant("p1", "1.2.3.4", true)
	p.roomCode = "ZZZZ"
	hub.register(p)

	if !hub.RoomExists("ZZZZ") {
		t.Error("joining an unseen code should create the room")
	}
	if hub.ParticipantCount() != 1 {
		t.Errorf("expected 1 participant, got %d", hub.ParticipantCount())
	}
}

func TestHub_SameAddressEviction(t *testing.T) {
	hub := NewHub(testConfig())

	code, _ := hub.CreateRoom()

	first := testParticipant("p1", "5.5.5.5", true)
	first.roomCode = code
	hub.register(first)

	second := testParticipant("p2", "5.5.5.5", true)
	second.roomCode = code
	hub.register(second)

	if got := hub.ParticipantCount(); got != 1 {
		t.Fatalf("expected exactly 1 participant per (room, address), got %d", got)
	}

	room := hub.getOrCreateRoom(code)
	if room.ByAddress("5.5.5.5") != second {
		t.Error("the newer connection should have won")
	}

	// A different address coexists.
	third := testParticipant("p3", "6.6.6.6", true)
	third.roomCode = code
	hub.register(third)
	if got := hub.ParticipantCount(); got != 2 {
		t.Errorf("distinct addresses should coexist, got %d participants", got)
	}
}

func TestHub_IdleParticipantSweep(t *testing.T) {
	hub := NewHub(testConfig())

	code, _ := hub.CreateRoom()
	p := testParticipant("p1", "1.2.3.4", true)
	p.roomCode = code
	hub.register(p)

	// Fresh participants survive the sweep.
	hub.sweepParticipants(time.Now())
	if hub.ParticipantCount() != 1 {
		t.Fatal("active participant should not be evicted")
	}

	hub.sweepParticipants(time.Now().Add(10 * time.Minute))
	if hub.ParticipantCount() != 0 {
		t.Error("idle participant should be evicted")
	}

	room := hub.getOrCreateRoom(code)
	if !room.Draining() {
		t.Error("room emptied by the sweep should be draining")
	}
}

func TestHub_ApplyDocOp(t *testing.T) {
	hub := NewHub(testConfig())
	code, _ := hub.CreateRoom()

	hub.ApplyDocOp(code, &inboundMessage{Type: "stroke-add", Stroke: &testStroke})
	snapshot, ok := hub.RoomSnapshot(code)
	if !ok || len(snapshot) != 1 {
		t.Fatalf("expected 1 stroke in the doc, got %d (ok=%v)", len(snapshot), ok)
	}

	hub.ApplyDocOp(code, &inboundMessage{Type: "stroke-delete", ID: testStroke.ID})
	if snapshot, _ := hub.RoomSnapshot(code); len(snapshot) != 0 {
		t.Error("stroke-delete should remove the entry")
	}

	// Unknown rooms and malformed ops are ignored.
	hub.ApplyDocOp("NOPE", &inboundMessage{Type: "clear"})
	hub.ApplyDocOp(code, &inboundMessage{Type: "stroke-add"})
	if snapshot, _ := hub.RoomSnapshot(code); len(snapshot) != 0 {
		t.Error("stroke-add without a stroke must be dropped")
	}
}

func TestHub_RunAndShutdown(t *testing.T) {
	hub := NewHub(testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub.Run did not return after cancel")
	}
}
