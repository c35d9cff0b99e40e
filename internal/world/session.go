package world

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/vovakirdan/coop-arena/internal/config"
	"github.com/vovakirdan/coop-arena/internal/core"
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusInProgress Status = iota
	StatusCompleted
	StatusFailed
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Session is one simulation instance. All fields are guarded by the
// coordinator's per-session lock.
type Session struct {
	ID        string
	Version   uint64
	Status    Status
	Tick      uint64
	CreatedAt time.Time

	CurrentSectionID  string
	SectionStartTick  uint64
	CompletedSections []string
	BossID            string
	BossAlive         bool
	Cache             *SectionCache

	Players     map[string]*Player
	Enemies     map[string]*Enemy
	Projectiles map[string]*Projectile

	// AllDeadSince is the tick at which every player was last observed dead.
	// Zero while at least one player is alive.
	AllDeadSince uint64

	World   *config.WorldConfig
	Runtime core.RuntimeConfig
	Bounds  core.Bounds
	Rand    *rand.Rand

	nextID uint64
}

// NewSession creates an empty in-progress session. The first section is
// entered by the progression controller.
func NewSession(id string, wc *config.WorldConfig, rc core.RuntimeConfig) *Session {
	seed := rc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	bounds := rc.Bounds()
	if wc.World.Width > 0 && wc.World.Height > 0 {
		bounds = core.NewBounds(wc.World.Width, wc.World.Height)
	}
	return &Session{
		ID:          id,
		Status:      StatusInProgress,
		CreatedAt:   time.Now(),
		Players:     make(map[string]*Player),
		Enemies:     make(map[string]*Enemy),
		Projectiles: make(map[string]*Projectile),
		World:       wc,
		Runtime:     rc,
		Bounds:      bounds,
		Rand:        rand.New(rand.NewSource(seed)),
	}
}

// NextID returns a session-unique id with the given prefix. Ids are never
// reused within a session.
func (s *Session) NextID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

// BumpVersion advances the state version.
func (s *Session) BumpVersion() uint64 {
	s.Version++
	return s.Version
}

// DT returns the seconds simulated per tick.
func (s *Session) DT() float64 {
	return s.Runtime.DT()
}

// PlayerIDs returns player ids in ascending order.
func (s *Session) PlayerIDs() []string {
	return sortedKeys(s.Players)
}

// EnemyIDs returns enemy ids in ascending order.
func (s *Session) EnemyIDs() []string {
	return sortedKeys(s.Enemies)
}

// ProjectileIDs returns projectile ids in ascending order.
func (s *Session) ProjectileIDs() []string {
	return sortedKeys(s.Projectiles)
}

// LivingPlayers returns the players that are alive, ordered by id.
func (s *Session) LivingPlayers() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for _, id := range s.PlayerIDs() {
		if p := s.Players[id]; !p.Dead {
			out = append(out, p)
		}
	}
	return out
}

// ConnectedCount returns the number of connected players.
func (s *Session) ConnectedCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// LiveEnemies returns the number of living enemies.
func (s *Session) LiveEnemies() int {
	n := 0
	for _, e := range s.Enemies {
		if e.Alive() {
			n++
		}
	}
	return n
}

// SpawnPoint returns the current section's player spawn point, clamped to
// the world bounds.
func (s *Session) SpawnPoint() core.Vec2 {
	if s.Cache == nil {
		return s.Bounds.Clamp(core.V(s.Bounds.Width()/2, s.Bounds.Height()/2))
	}
	return s.Bounds.Clamp(s.Cache.SpawnPoint())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
