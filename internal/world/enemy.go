package world

import (
	"github.com/vovakirdan/coop-arena/internal/config"
	"github.com/vovakirdan/coop-arena/internal/core"
)

// EnemyStatus is the AI state of an enemy.
type EnemyStatus int

const (
	EnemyIdle EnemyStatus = iota
	EnemyChasing
	EnemyAttacking
	EnemyKnockback
	EnemyDead
)

// String returns the wire name of the status.
func (s EnemyStatus) String() string {
	switch s {
	case EnemyIdle:
		return "idle"
	case EnemyChasing:
		return "chasing"
	case EnemyAttacking:
		return "attacking"
	case EnemyKnockback:
		return "knockback"
	case EnemyDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Enemy is a checkpoint-owned hostile. Dead enemies stay in the session as
// respawn slots until their section stops being current.
type Enemy struct {
	ID           string
	TypeID       string
	Behavior     string
	CheckpointID string
	SectionID    string
	Level        int
	IsBoss       bool

	Pos      core.Vec2
	SpawnPos core.Vec2
	Facing   core.Vec2
	Radius   float64

	HP    int
	MaxHP int

	DetectRange float64
	AttackRange float64
	Speed       float64
	Damage      float64

	Status         EnemyStatus
	AttackCooldown float64 // configured seconds between attacks
	AttackTimer    float64 // seconds until the next attack
	KnockbackTimer float64
	StunTimer      float64

	RespawnDelay float64 // seconds, already divided by the section spawn rate
	RespawnTimer float64

	ExpReward  int
	GoldReward int

	TargetID  string
	LastHitBy string
}

// NewEnemy builds a full-health enemy of type t at pos, scaled to level.
func NewEnemy(id string, t config.EnemyType, level int, scaling config.ScalingConfig, pos core.Vec2) *Enemy {
	e := &Enemy{
		ID:             id,
		TypeID:         t.ID,
		Behavior:       t.Behavior,
		SpawnPos:       pos,
		Radius:         t.Radius,
		DetectRange:    t.DetectRange,
		AttackRange:    t.AttackRange,
		Speed:          t.Speed,
		AttackCooldown: t.AttackCooldown,
	}
	if e.Behavior == "" {
		e.Behavior = "melee"
	}
	e.Rescale(t, level, scaling)
	e.Reset()
	return e
}

// Rescale applies level scaling to hp, damage and rewards.
func (e *Enemy) Rescale(t config.EnemyType, level int, scaling config.ScalingConfig) {
	st := scaling.ScaleEnemy(t, level)
	e.Level = max(level, 1)
	e.MaxHP = st.MaxHP
	e.Damage = st.Damage
	e.ExpReward = st.ExpReward
	e.GoldReward = st.GoldReward
}

// Reset restores the enemy to a fresh, idle state at its spawn position.
func (e *Enemy) Reset() {
	e.Pos = e.SpawnPos
	e.Facing = core.V(-1, 0)
	e.HP = e.MaxHP
	e.Status = EnemyIdle
	e.AttackTimer = 0
	e.KnockbackTimer = 0
	e.StunTimer = 0
	e.RespawnTimer = 0
	e.TargetID = ""
	e.LastHitBy = ""
}

// Alive reports whether the enemy is not dead.
func (e *Enemy) Alive() bool {
	return e.Status != EnemyDead
}

// CanAct reports whether the enemy may move or attack this tick.
func (e *Enemy) CanAct() bool {
	return e.Alive() && e.KnockbackTimer <= 0 && e.StunTimer <= 0
}

// TakeDamage removes already-reduced hp. It returns the hp removed and
// whether this hit killed the enemy. Dead enemies take no damage.
func (e *Enemy) TakeDamage(dealt int, attackerID string) (int, bool) {
	if !e.Alive() || dealt <= 0 {
		return 0, false
	}
	before := e.HP
	e.HP = core.Clamp(e.HP-dealt, 0, e.MaxHP)
	if attackerID != "" {
		e.LastHitBy = attackerID
	}
	if e.HP == 0 {
		e.Status = EnemyDead
		e.RespawnTimer = e.RespawnDelay
		e.TargetID = ""
		return before, true
	}
	return before - e.HP, false
}

// OwnerKind tells which side fired a projectile.
type OwnerKind int

const (
	OwnerPlayer OwnerKind = iota
	OwnerEnemy
)

// String returns the wire name of the owner kind.
func (k OwnerKind) String() string {
	if k == OwnerEnemy {
		return "enemy"
	}
	return "player"
}

// Projectile is a moving damage source removed on first hit or TTL expiry.
type Projectile struct {
	ID        string
	OwnerID   string
	OwnerKind OwnerKind
	Pos       core.Vec2
	Dir       core.Vec2 // unit vector
	Speed     float64
	Damage    float64
	Radius    float64
	TTL       float64 // seconds remaining
}
