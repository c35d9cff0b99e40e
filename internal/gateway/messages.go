package gateway

import (
	"errors"

	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/multiplayer"
	"github.com/vovakirdan/coop-arena/internal/world"
)

// Inbound message types.
const (
	MsgJoin  = "join"
	MsgLeave = "leave"
	MsgInput = "input"
	MsgState = "state"
)

// Outbound message types. MsgState is shared with inbound.
const (
	MsgPlayerJoined   = "playerJoined"
	MsgPlayerLeft     = "playerLeft"
	MsgLevelUp        = "levelUp"
	MsgSkillUnlocked  = "skillUnlocked"
	MsgSectionCleared = "sectionCompleted"
	MsgSessionEnded   = "sessionEnded"
	MsgError          = "error"
)

// Error codes carried by MsgError.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeInvalidInput = "invalid_input"
	CodeStale        = "stale"
	CodeEnded        = "session_ended"
	CodeInternal     = "internal"
)

// ClientMessage is a message sent by a client over the websocket.
type ClientMessage struct {
	Type      string `json:"type" msgpack:"type"`
	SessionID string `json:"sessionId,omitempty" msgpack:"sessionId,omitempty"`
	PlayerID  string `json:"playerId,omitempty" msgpack:"playerId,omitempty"`
	Name      string `json:"name,omitempty" msgpack:"name,omitempty"`

	Seq    uint64  `json:"seq,omitempty" msgpack:"seq,omitempty"` // input frames count from 1
	MoveX  float64 `json:"moveX,omitempty" msgpack:"moveX,omitempty"`
	MoveY  float64 `json:"moveY,omitempty" msgpack:"moveY,omitempty"`
	AimX   float64 `json:"aimX,omitempty" msgpack:"aimX,omitempty"`
	AimY   float64 `json:"aimY,omitempty" msgpack:"aimY,omitempty"`
	Attack bool    `json:"attack,omitempty" msgpack:"attack,omitempty"`
	Shoot  bool    `json:"shoot,omitempty" msgpack:"shoot,omitempty"`
}

// Frame converts an input message into an input frame.
func (m ClientMessage) Frame() core.InputFrame {
	return core.NewInputFrame(m.Seq, m.MoveX, m.MoveY, m.AimX, m.AimY, m.Attack, m.Shoot)
}

// ServerMessage is a message sent to a client over the websocket.
type ServerMessage struct {
	Type     string          `json:"type" msgpack:"type"`
	Snapshot *world.Snapshot `json:"snapshot,omitempty" msgpack:"snapshot,omitempty"`

	SessionID string `json:"sessionId,omitempty" msgpack:"sessionId,omitempty"`
	PlayerID  string `json:"playerId,omitempty" msgpack:"playerId,omitempty"`
	Name      string `json:"name,omitempty" msgpack:"name,omitempty"`

	Level             int      `json:"level,omitempty" msgpack:"level,omitempty"`
	SkillID           string   `json:"skillId,omitempty" msgpack:"skillId,omitempty"`
	SectionID         string   `json:"sectionId,omitempty" msgpack:"sectionId,omitempty"`
	NextSectionID     string   `json:"nextSectionId,omitempty" msgpack:"nextSectionId,omitempty"`
	Status            string   `json:"status,omitempty" msgpack:"status,omitempty"`
	CompletedSections []string `json:"completedSections,omitempty" msgpack:"completedSections,omitempty"`
	Disconnected      bool     `json:"disconnected,omitempty" msgpack:"disconnected,omitempty"`

	Code    string `json:"code,omitempty" msgpack:"code,omitempty"`
	Message string `json:"message,omitempty" msgpack:"message,omitempty"`
}

// serverMessage converts a coordinator event to its wire form.
func serverMessage(evt multiplayer.Event) (ServerMessage, bool) {
	switch e := evt.(type) {
	case multiplayer.SnapshotEvent:
		snap := e.Snapshot
		return ServerMessage{Type: MsgState, Snapshot: &snap}, true
	case multiplayer.PlayerJoinedEvent:
		return ServerMessage{Type: MsgPlayerJoined, SessionID: e.SessionID, PlayerID: e.PlayerID, Name: e.Name}, true
	case multiplayer.PlayerLeftEvent:
		return ServerMessage{Type: MsgPlayerLeft, SessionID: e.SessionID, PlayerID: e.PlayerID, Disconnected: e.Disconnected}, true
	case multiplayer.LevelUpEvent:
		return ServerMessage{Type: MsgLevelUp, SessionID: e.SessionID, PlayerID: e.PlayerID, Level: e.Level}, true
	case multiplayer.SkillUnlockedEvent:
		return ServerMessage{Type: MsgSkillUnlocked, SessionID: e.SessionID, PlayerID: e.PlayerID, SkillID: e.SkillID}, true
	case multiplayer.SectionCompletedEvent:
		return ServerMessage{Type: MsgSectionCleared, SessionID: e.SessionID, SectionID: e.SectionID, NextSectionID: e.Next}, true
	case multiplayer.SessionEndedEvent:
		return ServerMessage{Type: MsgSessionEnded, SessionID: e.SessionID, Status: e.Status, CompletedSections: e.CompletedSections}, true
	case multiplayer.ErrorEvent:
		return ServerMessage{Type: MsgError, Code: e.Code, Message: e.Message}, true
	default:
		return ServerMessage{}, false
	}
}

// errorCode maps a coordinator error to a wire error code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, world.ErrSessionNotFound), errors.Is(err, world.ErrPlayerNotFound), errors.Is(err, world.ErrEnemyNotFound):
		return CodeNotFound
	case errors.Is(err, world.ErrInvalidToken):
		return CodeUnauthorized
	case errors.Is(err, world.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, world.ErrStaleRequest):
		return CodeStale
	case errors.Is(err, world.ErrSessionEnded):
		return CodeEnded
	default:
		return CodeInternal
	}
}
