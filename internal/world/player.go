package world

import (
	"math"

	"github.com/vovakirdan/coop-arena/internal/config"
	"github.com/vovakirdan/coop-arena/internal/core"
)

// Stats are the combat stats of a player. Fractions are stored as 0.1 = 10%.
type Stats struct {
	Damage          float64
	WeaponRange     float64
	Speed           float64
	KnockbackForce  float64
	KnockbackTime   float64
	StunTime        float64
	BonusDamage     float64
	DamageReduction float64
}

// StatsFromConfig returns the starting stats for a fresh player.
func StatsFromConfig(pc config.PlayerConfig) Stats {
	return Stats{
		Damage:          pc.Damage,
		WeaponRange:     pc.WeaponRange,
		Speed:           pc.Speed,
		KnockbackForce:  pc.KnockbackForce,
		KnockbackTime:   pc.KnockbackTime,
		StunTime:        pc.StunTime,
		BonusDamage:     pc.BonusDamage,
		DamageReduction: pc.DamageReduction,
	}
}

// Buff is a temporary stat delta that is reverted at ExpiresAtTick.
type Buff struct {
	Source        string
	Stat          config.Stat
	Value         float64
	Applied       float64 // change actually made to the stat, undone on expiry
	ExpiresAtTick uint64
}

// Player is one participant of a session. Death is a flag, never a removal.
type Player struct {
	ID            string
	Name          string
	CharacterType string

	Pos    core.Vec2
	Facing core.Vec2
	Radius float64

	HP    int
	MaxHP int
	Dead  bool

	Connected    bool
	LastInputSeq uint64

	Level      int
	Exp        int
	ExpToLevel int
	Gold       int

	Stats          Stats
	AttackCooldown float64 // seconds until the next attack is allowed

	Skills      map[string]int
	Buffs       []Buff
	KillCredits map[string]int // enemy type -> unclaimed kills

	// Dirty marks progression changes not yet flushed to the profile store.
	Dirty bool
}

// NewPlayer creates a player with full health at pos.
func NewPlayer(id, name string, pc config.PlayerConfig, pos core.Vec2) *Player {
	return &Player{
		ID:            id,
		Name:          name,
		CharacterType: "default",
		Pos:           pos,
		Facing:        core.V(1, 0),
		Radius:        pc.Radius,
		HP:            pc.MaxHP,
		MaxHP:         pc.MaxHP,
		Level:         1,
		Stats:         StatsFromConfig(pc),
		Skills:        make(map[string]int),
		KillCredits:   make(map[string]int),
	}
}

// SetHP assigns hp clamped to [0, MaxHP] and keeps Dead in sync.
func (p *Player) SetHP(hp int) {
	p.HP = core.Clamp(hp, 0, p.MaxHP)
	p.Dead = p.HP == 0
}

// TakeDamage applies incoming damage reduced by the player's damage
// reduction and returns the hp actually removed. Dead players take none.
func (p *Player) TakeDamage(amount float64) int {
	if p.Dead {
		return 0
	}
	dealt := ReducedDamage(amount, p.Stats.DamageReduction)
	before := p.HP
	p.SetHP(p.HP - dealt)
	return before - p.HP
}

// Revive restores full health at pos.
func (p *Player) Revive(pos core.Vec2) {
	p.Pos = pos
	p.Dead = false
	p.HP = p.MaxHP
	p.AttackCooldown = 0
}

// ApplyStat adds delta to the named stat. It reports false for unknown stats.
func (p *Player) ApplyStat(stat config.Stat, delta float64) bool {
	_, ok := p.applyStat(stat, delta)
	return ok
}

// applyStat returns the change actually made, which differs from delta
// when max hp hits its floor of 1.
func (p *Player) applyStat(stat config.Stat, delta float64) (float64, bool) {
	switch stat {
	case config.StatDamage:
		p.Stats.Damage += delta
	case config.StatSpeed:
		p.Stats.Speed += delta
	case config.StatWeaponRange:
		p.Stats.WeaponRange += delta
	case config.StatBonusDamage:
		p.Stats.BonusDamage += delta
	case config.StatDamageReduction:
		p.Stats.DamageReduction += delta
	case config.StatKnockbackForce:
		p.Stats.KnockbackForce += delta
	case config.StatMaxHP:
		prev := p.MaxHP
		p.MaxHP = max(1, p.MaxHP+int(math.Round(delta)))
		if !p.Dead {
			p.SetHP(p.HP)
		}
		return float64(p.MaxHP - prev), true
	default:
		return 0, false
	}
	return delta, true
}

// AddBuff applies a temporary stat delta.
func (p *Player) AddBuff(b Buff) bool {
	applied, ok := p.applyStat(b.Stat, b.Value)
	if !ok {
		return false
	}
	b.Applied = applied
	p.Buffs = append(p.Buffs, b)
	return true
}

// ExpireBuffs removes buffs that expired at or before tick and reverts them.
// It returns the expired buffs.
func (p *Player) ExpireBuffs(tick uint64) []Buff {
	if len(p.Buffs) == 0 {
		return nil
	}
	var expired []Buff
	kept := p.Buffs[:0]
	for _, b := range p.Buffs {
		if b.ExpiresAtTick <= tick {
			p.applyStat(b.Stat, -b.Applied)
			expired = append(expired, b)
			continue
		}
		kept = append(kept, b)
	}
	p.Buffs = kept
	return expired
}

// ReducedDamage applies a damage-reduction fraction to amount, rounding to
// whole hit points and never going below zero.
func ReducedDamage(amount, reduction float64) int {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0
	}
	r := core.ClampF(reduction, 0, 1)
	return int(math.Round(math.Min(amount*(1-r), math.MaxInt32)))
}
