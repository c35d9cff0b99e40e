// Package multiplayer runs arena sessions: it owns the session table, one
// tick loop per session, the lock-free input slots, and the transactional
// operations that mutate session state between ticks.
package multiplayer

import (
	"time"
)

// ClientID uniquely identifies one client connection (websocket, SSH console).
type ClientID string

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	TickRate        int           // Simulation tick rate (Hz)
	EmptySessionTTL time.Duration // How long a session may have no connected players
	CleanupPeriod   time.Duration // How often to look for idle sessions
	FlushPeriod     time.Duration // How often dirty player progress is saved
	EventBuffer     int           // Capacity of the outbound event channel
	Seed            int64         // Session RNG seed, 0 derives from time
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		TickRate:        20,
		EmptySessionTTL: 2 * time.Minute,
		CleanupPeriod:   15 * time.Second,
		FlushPeriod:     30 * time.Second,
		EventBuffer:     256,
	}
}

// ProfileData is the persistent progression of one player.
type ProfileData struct {
	PlayerID string
	Name     string
	Level    int
	Exp      int
	Gold     int
	Skills   map[string]int
}

// ProfileStore loads and saves player progression.
// This allows the coordinator to persist players without depending on the storage package.
type ProfileStore interface {
	// LoadProfile returns the stored profile; ok is false for unknown players.
	LoadProfile(playerID string) (ProfileData, bool, error)
	SaveProfile(p ProfileData) error
}

// SessionResultData contains session outcome data for persistence.
type SessionResultData struct {
	SessionID         string
	Status            string
	SectionsCleared   int
	CompletedSections []string
	Players           []string
	Ticks             uint64
	DurationSecs      int
}

// ResultSaver is an interface for saving finished session results.
type ResultSaver interface {
	SaveSessionResult(result SessionResultData) error
}

// Publisher receives every snapshot produced by a tick.
// Implementations must not block.
type Publisher interface {
	PublishSnapshot(sessionID string, snap SnapshotEvent)
}

// SessionSummary describes a live session for listings.
type SessionSummary struct {
	ID        string
	Status    string
	SectionID string
	Players   int
	Connected int
	Enemies   int // living
	Version   uint64
	Tick      uint64
	CreatedAt time.Time
}

// DamageResult is returned by ReportDamage.
type DamageResult struct {
	Accepted  bool `json:"accepted"`
	CurrentHP int  `json:"currentHp"`
	MaxHP     int  `json:"maxHp"`
}

// EnemyDamageResult is returned by ReportEnemyDamage.
type EnemyDamageResult struct {
	Accepted  bool `json:"accepted"`
	CurrentHP int  `json:"currentHp"`
	MaxHP     int  `json:"maxHp"`
	IsDead    bool `json:"isDead"`
}

// KillResult is returned by ReportKill.
type KillResult struct {
	Granted bool `json:"granted"`
	Level   int  `json:"level"`
	Exp     int  `json:"exp"`
	Gold    int  `json:"gold"`
}

// RespawnResult is returned by Respawn.
type RespawnResult struct {
	Accepted  bool    `json:"accepted"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	CurrentHP int     `json:"currentHp"`
	MaxHP     int     `json:"maxHp"`
}

// SkillUpgradeResult is returned by UpgradeSkill.
type SkillUpgradeResult struct {
	Success bool   `json:"success"`
	SkillID string `json:"skillId"`
	Level   int    `json:"level"`
	Message string `json:"message"`
}

// SkillLevel is one entry of SkillsResult.
type SkillLevel struct {
	SkillID string `json:"skillId"`
	Level   int    `json:"level"`
}

// SkillsResult is returned by GetSkills.
type SkillsResult struct {
	Skills []SkillLevel `json:"skills"`
}

// BuffResult is returned by UseItemBuff.
type BuffResult struct {
	Accepted      bool    `json:"accepted"`
	Stat          string  `json:"stat,omitempty"`
	Value         float64 `json:"value,omitempty"`
	ExpiresAtTick uint64  `json:"expiresAtTick,omitempty"`
	Message       string  `json:"message,omitempty"`
}
