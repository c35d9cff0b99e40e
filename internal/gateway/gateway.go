// Package gateway is the network boundary of the arena server: a websocket
// channel for joins, inputs and snapshots, and an HTTP API for the
// transactional requests. It owns the client registry and forwards
// everything else to the session coordinator.
package gateway

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/coop-arena/internal/multiplayer"
)

// Config holds gateway settings.
type Config struct {
	WriteWait      time.Duration // Deadline for a single websocket write
	PongWait       time.Duration // How long a connection may stay silent
	PingPeriod     time.Duration // Must be shorter than PongWait
	MaxMessageSize int64         // Inbound frame limit in bytes
	SendBuffer     int           // Per-client outbound queue, oldest dropped when full
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     50 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     64,
	}
}

// Gateway serves clients of one coordinator.
type Gateway struct {
	cfg      Config
	coord    *multiplayer.Coordinator
	clients  *multiplayer.ClientRegistry
	auth     TokenValidator
	logger   *log.Logger
	upgrader websocket.Upgrader

	// bindMu orders joins against disconnects so a closing socket never
	// marks a player offline that another socket has just joined.
	bindMu sync.Mutex
}

// New creates a gateway and registers its client registry as the
// coordinator's snapshot publisher.
func New(coord *multiplayer.Coordinator, auth TokenValidator, cfg Config, logger *log.Logger) *Gateway {
	def := DefaultConfig()
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	g := &Gateway{
		cfg:     cfg,
		coord:   coord,
		clients: multiplayer.NewClientRegistry(),
		auth:    auth,
		logger:  logger.WithPrefix("gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
	coord.SetPublisher(g.clients)
	return g
}

// Clients returns the gateway's client registry.
func (g *Gateway) Clients() *multiplayer.ClientRegistry {
	return g.clients
}

// Run routes coordinator events to the clients of their session until ctx
// is cancelled.
func (g *Gateway) Run(ctx context.Context) {
	events := g.coord.Events()
	for {
		select {
		case evt := <-events:
			g.clients.Dispatch(evt)
		case <-ctx.Done():
			return
		}
	}
}

// Handler returns the HTTP handler serving the websocket endpoint, the API
// and the health check.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", g.handleWS)
	mux.HandleFunc("GET /healthz", g.handleHealth)

	mux.HandleFunc("GET /api/sessions", g.handleListSessions)
	mux.HandleFunc("POST /api/sessions", g.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}/snapshot", g.handleSnapshot)
	mux.HandleFunc("POST /api/sessions/{id}/damage", g.handleDamage)
	mux.HandleFunc("POST /api/sessions/{id}/enemy-damage", g.handleEnemyDamage)
	mux.HandleFunc("POST /api/sessions/{id}/kill", g.handleKill)
	mux.HandleFunc("POST /api/sessions/{id}/respawn", g.handleRespawn)
	mux.HandleFunc("POST /api/sessions/{id}/buff", g.handleBuff)
	mux.HandleFunc("GET /api/players/{id}/skills", g.handleSkills)
	mux.HandleFunc("POST /api/players/{id}/skills/{skill}/upgrade", g.handleUpgradeSkill)
	return mux
}
