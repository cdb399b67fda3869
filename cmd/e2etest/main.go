// E2E test: drives two WebSocket clients through a live gandalf server.
// Usage: go run ./cmd/e2etest -server http://localhost:1234
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var serverURL = flag.String("server", "http://localhost:1234", "gandalf server base URL")

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	// --- Create a room over HTTP ---
	log.Println(">> Creating room...")
	roomCode := createRoom()
	log.Printf("   Room %s created ✓", roomCode)

	if !checkRoom(roomCode) {
		log.Fatal("check-room says the created room does not exist")
	}
	if checkRoom("ZZZZ") {
		log.Fatal("check-room says ZZZZ exists")
	}
	log.Println("   check-room probes ✓")

	// --- Connect both clients ---
	log.Println(">> Connecting alice...")
	alice := dial(roomCode, "alice", "#ff0000")
	defer alice.Close()
	log.Println("   alice connected ✓")

	log.Println(">> Connecting bob...")
	bob := dial(roomCode, "bob", "#0000ff")
	defer bob.Close()
	log.Println("   bob connected ✓")

	// --- Both should see a roster of {alice, bob} ---
	for _, c := range []*websocket.Conn{alice, bob} {
		users := awaitRoster(c, 2)
		log.Printf("   roster: %v ✓", users)
	}

	// --- Relay a stroke from alice to bob ---
	log.Println(">> Sending stroke from alice...")
	strokeMsg := `{"type":"stroke-add","stroke":{"id":"e2e-1","points":[{"x":0,"y":0},{"x":50,"y":50}],"color":"black","width":3}}`
	if err := alice.WriteMessage(websocket.TextMessage, []byte(strokeMsg)); err != nil {
		log.Fatal("write stroke:", err)
	}
	data := awaitType(bob, "stroke-add")
	log.Printf("   bob received stroke (%d bytes) ✓", len(data))

	log.Println("E2E test PASSED")
	os.Exit(0)
}

func createRoom() string {
	resp, err := http.Get(*serverURL + "/create-room")
	if err != nil {
		log.Fatal("create-room:", err)
	}
	defer resp.Body.Close()
	var out struct {
		RoomCode string `json:"roomCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.RoomCode == "" {
		log.Fatalf("create-room bad response: %v", err)
	}
	return out.RoomCode
}

func checkRoom(code string) bool {
	resp, err := http.Get(*serverURL + "/check-room?roomCode=" + code)
	if err != nil {
		log.Fatal("check-room:", err)
	}
	defer resp.Body.Close()
	var out struct {
		Exists bool `json:"exists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("check-room bad response: %v", err)
	}
	return out.Exists
}

func dial(roomCode, username, color string) *websocket.Conn {
	wsBase := "ws" + strings.TrimPrefix(*serverURL, "http")
	params := url.Values{
		"room":     {roomCode},
		"type":     {"awareness"},
		"username": {username},
		"color":    {color},
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws?"+params.Encode(), nil)
	if err != nil {
		log.Fatalf("%s connect: %v", username, err)
	}
	return conn
}

func awaitType(conn *websocket.Conn, msgType string) []byte {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("waiting for %s: %v", msgType, err)
		}
		var env struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(data, &env) != nil {
			continue
		}
		if env.Type == "ping" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pong"}`))
			continue
		}
		if env.Type == msgType {
			return data
		}
	}
}

func awaitRoster(conn *websocket.Conn, want int) []string {
	for {
		data := awaitType(conn, "active-users")
		var msg struct {
			Users []struct {
				UserName string `json:"userName"`
			} `json:"users"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if len(msg.Users) == want {
			names := make([]string, 0, want)
			for _, u := range msg.Users {
				names = append(names, u.UserName)
			}
			return names
		}
	}
}
