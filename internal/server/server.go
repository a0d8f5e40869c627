package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"stellar-server/internal/game"
	"stellar-server/internal/ids"
	"stellar-server/internal/palette"
	"stellar-server/internal/protocol"
	"stellar-server/internal/session"
	"stellar-server/internal/stats"
)

const (
	DefaultPostLimit = 10000
	playerIDLen      = 6
	inviteSize       = 256
)

// Options configures the HTTP surface
type Options struct {
	WebDir    string
	PostLimit int64
	PublicURL string // invite QR target; derived from the request when empty
	Tokens    *Tokens
	Stats     *stats.Recorder
	Log       *zap.Logger

	// Colour and NewID default to the palette and a 6-char hex id
	Colour func() palette.Colour
	NewID  func() string
}

// Server wires HTTP routes, the websocket hub and sessions to the engine
type Server struct {
	engine *game.Engine
	hub    *Hub
	opts   Options
	log    *zap.Logger

	upgrader websocket.Upgrader
}

// New creates a Server; Run must be called for the hub to process clients
func New(engine *game.Engine, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.PostLimit <= 0 {
		opts.PostLimit = DefaultPostLimit
	}
	if opts.Colour == nil {
		opts.Colour = palette.Random
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return ids.Hex(playerIDLen) }
	}
	if opts.Tokens == nil {
		opts.Tokens = NewTokens(ids.Hex(64))
	}
	s := &Server{
		engine: engine,
		hub:    NewHub(opts.Stats.SetOnline),
		opts:   opts,
		log:    opts.Log.Named("server"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     sameOrigin,
	}
	return s
}

// Run processes hub events until ctx is done
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// Hub exposes the connection hub
func (s *Server) Hub() *Hub { return s.hub }

// Routes configures HTTP routes. Websocket connections are torn down when ctx
// is done.
func (s *Server) Routes(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	files := http.FileServer(http.Dir(s.opts.WebDir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/":
			s.handleIdentity(w, r)
		case r.Method == http.MethodGet || r.Method == http.MethodHead:
			w.Header().Set("Cache-Control", "no-cache")
			if r.URL.Path == "/" {
				http.ServeFile(w, r, filepath.Join(s.opts.WebDir, "index.html"))
				return
			}
			files.ServeHTTP(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(ctx, w, r)
	})
	mux.HandleFunc("/invite.png", s.handleInvite)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// ErrBodyTooLarge is returned by readName when the body exceeds the limit
var ErrBodyTooLarge = errors.New("request body too large")

// readName reads at most limit bytes of plaintext name
func readName(r io.Reader, limit int64) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read name: %w", err)
	}
	if int64(len(body)) > limit {
		return "", ErrBodyTooLarge
	}
	return string(body), nil
}

// handleIdentity reads a plaintext name and replies with a fresh identity.
// Bodies over the limit get the connection closed without a reply.
func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	name, err := readName(r.Body, s.opts.PostLimit)
	if errors.Is(err, ErrBodyTooLarge) {
		s.log.Warn("post body over limit, closing connection", zap.String("ip", extractIP(r)))
		dropConnection(w)
		return
	}
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	id := protocol.Identity{
		Colour: s.opts.Colour(),
		Name:   session.CleanName(name),
		ID:     s.opts.NewID(),
	}
	token, err := s.opts.Tokens.Issue(id.ID, id.Name)
	if err != nil {
		s.log.Error("issue token", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	id.Token = token

	s.log.Info("identity issued", zap.String("id", id.ID), zap.String("name", id.Name))
	writeJSON(w, id)
}

func (s *Server) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	ip := extractIP(r)
	if !s.hub.Acquire(ip) {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	upgraded := false
	defer func() {
		if !upgraded {
			s.hub.Release(ip)
		}
	}()

	var subject string
	if tok := r.URL.Query().Get("token"); tok != "" {
		sub, err := s.opts.Tokens.Verify(tok)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		subject = sub
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	upgraded = true

	connID := ids.Connection()
	log := s.log.With(zap.String("conn", connID))
	client := NewClient(s.hub, conn, ip, r.URL.Query().Get("enc") == "msgpack", log)
	client.session = session.New(s.engine, client, session.Options{
		ConnID:  connID,
		Subject: subject,
		Log:     s.opts.Log,
	})
	s.hub.joins <- client
	log.Debug("client connected", zap.String("ip", ip), zap.Bool("binary", client.binary))

	go client.WritePump()
	go client.ReadPump(ctx)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	target := s.opts.PublicURL
	if target == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		target = scheme + "://" + r.Host + "/"
	}
	png, err := qrcode.Encode(target, qrcode.Medium, inviteSize)
	if err != nil {
		s.log.Error("encode invite", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// statsReply is the body of GET /stats
type statsReply struct {
	Online      int                 `json:"online"`
	Players     int                 `json:"players"`
	Objects     int                 `json:"objects"`
	Leaderboard []protocol.Standing `json:"leaderboard"`
	Events      map[string]int      `json:"events,omitempty"`
	TopKillers  []stats.PlayerCount `json:"top_killers,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var reply statsReply
	reply.Online = s.hub.ClientCount()
	s.engine.Exec(func() {
		reply.Players = s.engine.Players.Len()
		reply.Objects = s.engine.World.Len()
		reply.Leaderboard = s.engine.Leaderboard()
	})

	var err error
	if reply.Events, err = s.opts.Stats.EventCounts(1); err != nil {
		s.log.Warn("event counts", zap.Error(err))
	}
	if reply.TopKillers, err = s.opts.Stats.TopPlayers(game.EvtKill, 10); err != nil {
		s.log.Warn("top killers", zap.Error(err))
	}
	writeJSON(w, reply)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// dropConnection closes the underlying connection without a response
func dropConnection(w http.ResponseWriter) {
	if hj, ok := w.(http.Hijacker); ok {
		if conn, _, err := hj.Hijack(); err == nil {
			conn.Close()
			return
		}
	}
	http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser clients don't send Origin
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
