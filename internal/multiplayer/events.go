package multiplayer

import "github.com/vovakirdan/coop-arena/internal/world"

// Event represents an event sent from the coordinator to clients.
type Event interface {
	event()
}

// SessionEvent is an event scoped to one session. Client registries route
// it to every client bound to that session.
type SessionEvent interface {
	Event
	Session() string
}

// SnapshotEvent carries a state snapshot. When delivered to a client,
// ConfirmedInputSequence is already set for that client's player.
type SnapshotEvent struct {
	Snapshot world.Snapshot
}

func (SnapshotEvent) event() {}

// Session returns the session the snapshot belongs to.
func (e SnapshotEvent) Session() string { return e.Snapshot.SessionID }

// PlayerJoinedEvent is sent when a player joins or rejoins a session.
type PlayerJoinedEvent struct {
	SessionID string
	PlayerID  string
	Name      string
}

func (PlayerJoinedEvent) event() {}

// Session returns the session id.
func (e PlayerJoinedEvent) Session() string { return e.SessionID }

// PlayerLeftEvent is sent when a player leaves or disconnects.
type PlayerLeftEvent struct {
	SessionID    string
	PlayerID     string
	Disconnected bool // true when the entity is kept for rejoin
}

func (PlayerLeftEvent) event() {}

// Session returns the session id.
func (e PlayerLeftEvent) Session() string { return e.SessionID }

// LevelUpEvent is sent when a player gains a level.
type LevelUpEvent struct {
	SessionID string
	PlayerID  string
	Level     int
}

func (LevelUpEvent) event() {}

// Session returns the session id.
func (e LevelUpEvent) Session() string { return e.SessionID }

// SkillUnlockedEvent is sent when a player reaches a skill's required level.
type SkillUnlockedEvent struct {
	SessionID string
	PlayerID  string
	SkillID   string
}

func (SkillUnlockedEvent) event() {}

// Session returns the session id.
func (e SkillUnlockedEvent) Session() string { return e.SessionID }

// SectionCompletedEvent is sent when a section is cleared.
type SectionCompletedEvent struct {
	SessionID string
	SectionID string
	Next      string // empty when the session completed
}

func (SectionCompletedEvent) event() {}

// Session returns the session id.
func (e SectionCompletedEvent) Session() string { return e.SessionID }

// SessionEndedEvent is sent once when a session completes or fails.
type SessionEndedEvent struct {
	SessionID         string
	Status            string
	CompletedSections []string
	Ticks             uint64
}

func (SessionEndedEvent) event() {}

// Session returns the session id.
func (e SessionEndedEvent) Session() string { return e.SessionID }

// ErrorEvent is sent to a single client when a request fails.
type ErrorEvent struct {
	Code    string
	Message string
}

func (ErrorEvent) event() {}
