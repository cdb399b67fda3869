package main

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	cfg *Config
	hub *Hub
	srv *http.Server
	gen *genClient

	wsLimiter   *RateLimiter
	httpLimiter *RateLimiter
	genLimiter  *RateLimiter
}

func NewServer(cfg *Config, hub *Hub) *Server {
	s := &Server{
		cfg:         cfg,
		hub:         hub,
		gen:         newGenClient(cfg.GoogleAPIKey),
		wsLimiter:   NewRateLimiter(cfg.WSRateWindow, cfg.WSRateMax),
		httpLimiter: NewRateLimiter(cfg.HTTPRateWindow, cfg.HTTPRateMax),
		genLimiter:  NewRateLimiter(cfg.GenRateWindow, cfg.GenRateMax),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	// WebSocket joins have their own limiter; everything else shares the
	// generic per-address HTTP ceiling.
	r.Get("/ws", s.handleWS)

	r.Group(func(r chi.Router) {
		r.Use(s.limitHTTP)
		r.Get("/", s.handleIndex)
		r.Get("/health", s.handleHealth)
		r.Get("/create-room", s.handleCreateRoom)
		r.Get("/check-room", s.handleCheckRoom)
		r.Get("/export.pdf", s.handleExportPDF)
		r.Post("/generate", s.handleGenerate)
		r.Post("/generate-strokes", s.handleGenerateStrokes)
	})

	s.srv = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       120 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limitHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.httpLimiter.IsLimited(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"timestamp":         time.Now().UnixMilli(),
		"activeConnections": s.hub.ParticipantCount(),
		"activeRooms":       s.hub.RoomCount(),
	})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	code, err := s.hub.CreateRoom()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"roomCode": code})
}

func (s *Server) handleCheckRoom(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("roomCode")
	if code == "" {
		writeError(w, http.StatusBadRequest, "roomCode is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": s.hub.RoomExists(code)})
}

// handleWS upgrades and joins a room. Refusals happen over the socket with
// a policy-violation close code, before any room or participant state is
// touched.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	q := r.URL.Query()
	roomCode := q.Get("room")
	username := q.Get("username")
	color := q.Get("color")
	awareness := q.Get("type") == "awareness"

	if username == "" {
		username = "anonymous"
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade error: %v", err)
		return
	}

	if roomCode == "" {
		refuse(conn, "room code required")
		return
	}
	if s.wsLimiter.IsLimited(ip) {
		refuse(conn, "rate limit exceeded")
		return
	}

	s.hub.Register(NewParticipant(s.hub, conn, roomCode, username, color, ip, awareness))
}

func refuse(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
