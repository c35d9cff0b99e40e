package world

import "time"

// PlayerState is the wire view of a player.
type PlayerState struct {
	ID                string  `json:"id" msgpack:"id"`
	Name              string  `json:"name" msgpack:"name"`
	CharacterType     string  `json:"characterType" msgpack:"characterType"`
	X                 float64 `json:"x" msgpack:"x"`
	Y                 float64 `json:"y" msgpack:"y"`
	HP                int     `json:"hp" msgpack:"hp"`
	MaxHP             int     `json:"maxHp" msgpack:"maxHp"`
	Level             int     `json:"level" msgpack:"level"`
	Exp               int     `json:"exp" msgpack:"exp"`
	Gold              int     `json:"gold" msgpack:"gold"`
	Status            string  `json:"status" msgpack:"status"`
	LastInputSequence uint64  `json:"lastInputSequence" msgpack:"lastInputSequence"`
	Connected         bool    `json:"connected" msgpack:"connected"`
}

// EnemyState is the wire view of an enemy.
type EnemyState struct {
	ID     string  `json:"id" msgpack:"id"`
	Type   string  `json:"type" msgpack:"type"`
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	HP     int     `json:"hp" msgpack:"hp"`
	MaxHP  int     `json:"maxHp" msgpack:"maxHp"`
	Level  int     `json:"level" msgpack:"level"`
	Status string  `json:"status" msgpack:"status"`
	Boss   bool    `json:"boss,omitempty" msgpack:"boss,omitempty"`
}

// ProjectileState is the wire view of a projectile.
type ProjectileState struct {
	ID        string  `json:"id" msgpack:"id"`
	OwnerID   string  `json:"ownerId" msgpack:"ownerId"`
	OwnerKind string  `json:"ownerKind" msgpack:"ownerKind"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	DirX      float64 `json:"dirX" msgpack:"dirX"`
	DirY      float64 `json:"dirY" msgpack:"dirY"`
}

// Snapshot is an immutable copy of a session's observable state.
// ConfirmedInputSequence is per recipient; see ForPlayer.
type Snapshot struct {
	SessionID              string            `json:"sessionId" msgpack:"sessionId"`
	Sequence               uint64            `json:"sequence" msgpack:"sequence"`
	ServerTime             int64             `json:"serverTime" msgpack:"serverTime"` // unix milliseconds
	Tick                   uint64            `json:"tick" msgpack:"tick"`
	ConfirmedInputSequence uint64            `json:"confirmedInputSequence" msgpack:"confirmedInputSequence"`
	Status                 string            `json:"status" msgpack:"status"`
	SectionID              string            `json:"sectionId" msgpack:"sectionId"`
	CompletedSections      []string          `json:"completedSections" msgpack:"completedSections"`
	Players                []PlayerState     `json:"players" msgpack:"players"`
	Enemies                []EnemyState      `json:"enemies" msgpack:"enemies"`
	Projectiles            []ProjectileState `json:"projectiles" msgpack:"projectiles"`
}

// Snapshot captures the session state. Entities are ordered by id.
func (s *Session) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		SessionID:         s.ID,
		Sequence:          s.Version,
		ServerTime:        now.UnixMilli(),
		Tick:              s.Tick,
		Status:            s.Status.String(),
		SectionID:         s.CurrentSectionID,
		CompletedSections: append([]string{}, s.CompletedSections...),
		Players:           make([]PlayerState, 0, len(s.Players)),
		Enemies:           make([]EnemyState, 0, len(s.Enemies)),
		Projectiles:       make([]ProjectileState, 0, len(s.Projectiles)),
	}
	for _, id := range s.PlayerIDs() {
		p := s.Players[id]
		status := "alive"
		if p.Dead {
			status = "dead"
		}
		snap.Players = append(snap.Players, PlayerState{
			ID:                p.ID,
			Name:              p.Name,
			CharacterType:     p.CharacterType,
			X:                 p.Pos.X,
			Y:                 p.Pos.Y,
			HP:                p.HP,
			MaxHP:             p.MaxHP,
			Level:             p.Level,
			Exp:               p.Exp,
			Gold:              p.Gold,
			Status:            status,
			LastInputSequence: p.LastInputSeq,
			Connected:         p.Connected,
		})
	}
	for _, id := range s.EnemyIDs() {
		e := s.Enemies[id]
		snap.Enemies = append(snap.Enemies, EnemyState{
			ID:     e.ID,
			Type:   e.TypeID,
			X:      e.Pos.X,
			Y:      e.Pos.Y,
			HP:     e.HP,
			MaxHP:  e.MaxHP,
			Level:  e.Level,
			Status: e.Status.String(),
			Boss:   e.IsBoss,
		})
	}
	for _, id := range s.ProjectileIDs() {
		pr := s.Projectiles[id]
		snap.Projectiles = append(snap.Projectiles, ProjectileState{
			ID:        pr.ID,
			OwnerID:   pr.OwnerID,
			OwnerKind: pr.OwnerKind.String(),
			X:         pr.Pos.X,
			Y:         pr.Pos.Y,
			DirX:      pr.Dir.X,
			DirY:      pr.Dir.Y,
		})
	}
	return snap
}

// ForPlayer returns a copy of the snapshot addressed to one player, with
// ConfirmedInputSequence set to that player's last applied input.
// The entity slices are shared and must not be modified.
func (sn Snapshot) ForPlayer(playerID string) Snapshot {
	out := sn
	out.ConfirmedInputSequence = 0
	for _, p := range sn.Players {
		if p.ID == playerID {
			out.ConfirmedInputSequence = p.LastInputSequence
			break
		}
	}
	return out
}

// Player returns the entry for playerID.
func (sn Snapshot) Player(playerID string) (PlayerState, bool) {
	for _, p := range sn.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return PlayerState{}, false
}

// Enemy returns the entry for enemyID.
func (sn Snapshot) Enemy(enemyID string) (EnemyState, bool) {
	for _, e := range sn.Enemies {
		if e.ID == enemyID {
			return e, true
		}
	}
	return EnemyState{}, false
}
