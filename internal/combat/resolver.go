// Package combat resolves one tick of movement, melee, projectiles and enemy
// AI for a session. It never locks: callers hold the session lock.
package combat

import (
	"fmt"

	"github.com/vovakirdan/coop-arena/internal/config"
	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/registry"
	"github.com/vovakirdan/coop-arena/internal/world"
)

// timerEpsilon absorbs float drift when counting seconds down by tick length.
const timerEpsilon = 1e-9

// Kill records an enemy killed during a tick or request.
type Kill struct {
	EnemyID  string
	TypeID   string
	PlayerID string // empty when the killer is unknown or gone
	IsBoss   bool
}

// Result collects what happened while resolving. Per-entity problems are
// reported in Errors and never abort resolution.
type Result struct {
	Kills        []Kill
	PlayerDeaths []string
	Errors       []error
}

// Hit describes one damage application against an enemy.
type Hit struct {
	AttackerID    string
	Amount        float64 // before receiving-side reduction
	Dir           core.Vec2
	Knockback     float64
	KnockbackTime float64
	StunTime      float64
}

// Resolver applies combat rules using the static world configuration.
type Resolver struct {
	player    config.PlayerConfig
	combat    config.CombatConfig
	halfArc   float64
	behaviors *registry.Registry[Behavior]
}

// NewResolver creates a resolver. A nil behaviors registry uses DefaultBehaviors.
func NewResolver(wc *config.WorldConfig, behaviors *registry.Registry[Behavior]) *Resolver {
	if behaviors == nil {
		behaviors = DefaultBehaviors()
	}
	return &Resolver{
		player:    wc.Player,
		combat:    wc.Combat,
		halfArc:   wc.Combat.MeleeHalfArc(),
		behaviors: behaviors,
	}
}

// AcceptInput checks a frame against the player's last applied sequence and
// records it. Frames at or below the last sequence are stale.
func AcceptInput(p *world.Player, in core.InputFrame) error {
	if !in.Valid() {
		return fmt.Errorf("player %s seq %d: %w", p.ID, in.Seq, world.ErrInvalidInput)
	}
	if in.Seq <= p.LastInputSeq {
		return fmt.Errorf("player %s seq %d <= %d: %w", p.ID, in.Seq, p.LastInputSeq, world.ErrStaleRequest)
	}
	p.LastInputSeq = in.Seq
	return nil
}

// StepPlayer applies one accepted input frame: movement first, then a melee
// swing or a shot if the attack cooldown allows it.
func (r *Resolver) StepPlayer(s *world.Session, p *world.Player, in core.InputFrame, res *Result) {
	if p.Dead {
		return
	}

	if move := in.Move.Normalize(); !move.IsZero() {
		p.Pos = s.Bounds.Clamp(p.Pos.Add(move.Scale(p.Stats.Speed * s.DT())))
		p.Facing = move
	}
	dir := in.Aim.Normalize()
	if dir.IsZero() {
		dir = p.Facing
	} else {
		p.Facing = dir
	}

	if p.AttackCooldown > 0 {
		return
	}
	switch {
	case in.Has(core.ActionAttack):
		r.Melee(s, p, dir, res)
		p.AttackCooldown = r.player.AttackCooldown
	case in.Has(core.ActionShoot):
		r.Shoot(s, p, dir)
		p.AttackCooldown = r.player.AttackCooldown
	}
}

// Melee damages every living enemy within weapon range and the forward arc
// around dir. It returns the number of enemies hit.
func (r *Resolver) Melee(s *world.Session, p *world.Player, dir core.Vec2, res *Result) int {
	hits := 0
	for _, id := range s.EnemyIDs() {
		e := s.Enemies[id]
		if !e.Alive() {
			continue
		}
		if p.Pos.Dist(e.Pos) > p.Stats.WeaponRange+e.Radius {
			continue
		}
		if !core.InArc(p.Pos, dir, e.Pos, r.halfArc) {
			continue
		}
		push := e.Pos.Sub(p.Pos).Normalize()
		if push.IsZero() {
			push = dir
		}
		h := HitFrom(p)
		h.Dir = push
		r.HitEnemy(s, e, h, res)
		hits++
	}
	return hits
}

// Shoot spawns a player-owned projectile travelling along dir.
func (r *Resolver) Shoot(s *world.Session, p *world.Player, dir core.Vec2) *world.Projectile {
	if dir.IsZero() {
		dir = core.V(1, 0)
	}
	pr := &world.Projectile{
		ID:        s.NextID("proj"),
		OwnerID:   p.ID,
		OwnerKind: world.OwnerPlayer,
		Pos:       p.Pos.Add(dir.Scale(p.Radius)),
		Dir:       dir,
		Speed:     r.combat.ProjectileSpeed,
		Damage:    OutgoingDamage(p),
		Radius:    r.combat.ProjectileRadius,
		TTL:       r.combat.ProjectileTTL,
	}
	s.Projectiles[pr.ID] = pr
	return pr
}

// OutgoingDamage returns base damage × (1 + bonus).
func OutgoingDamage(p *world.Player) float64 {
	return p.Stats.Damage * (1 + p.Stats.BonusDamage)
}

// HitFrom builds a hit carrying the player's damage and knockback stats.
func HitFrom(p *world.Player) Hit {
	return Hit{
		AttackerID:    p.ID,
		Amount:        OutgoingDamage(p),
		Dir:           p.Facing,
		Knockback:     p.Stats.KnockbackForce,
		KnockbackTime: p.Stats.KnockbackTime,
		StunTime:      p.Stats.StunTime,
	}
}

// HitEnemy applies a hit to an enemy. A surviving enemy is pushed along the
// hit direction and locked in Knockback. A killing hit grants the attacker
// a kill credit for the enemy type.
func (r *Resolver) HitEnemy(s *world.Session, e *world.Enemy, h Hit, res *Result) (int, bool) {
	dealt, killed := e.TakeDamage(world.ReducedDamage(h.Amount, 0), h.AttackerID)
	if killed {
		k := Kill{EnemyID: e.ID, TypeID: e.TypeID, IsBoss: e.IsBoss}
		if p, ok := s.Players[h.AttackerID]; ok {
			p.KillCredits[e.TypeID]++
			k.PlayerID = p.ID
		}
		if res != nil {
			res.Kills = append(res.Kills, k)
		}
		return dealt, true
	}
	if dealt > 0 && (h.Knockback > 0 || h.KnockbackTime > 0 || h.StunTime > 0) {
		if dir := h.Dir.Normalize(); !dir.IsZero() {
			e.Pos = s.Bounds.Clamp(e.Pos.Add(dir.Scale(h.Knockback)))
		}
		e.Status = world.EnemyKnockback
		e.KnockbackTimer = max(e.KnockbackTimer, h.KnockbackTime)
		e.StunTimer = max(e.StunTimer, h.StunTime)
	}
	return dealt, false
}

// DamagePlayer applies incoming damage to a player after its damage
// reduction. It returns the hp removed and whether the player died.
func (r *Resolver) DamagePlayer(p *world.Player, amount float64, res *Result) (int, bool) {
	wasDead := p.Dead
	dealt := p.TakeDamage(amount)
	died := !wasDead && p.Dead
	if died && res != nil {
		res.PlayerDeaths = append(res.PlayerDeaths, p.ID)
	}
	return dealt, died
}

// AdvanceTimers counts down attack cooldowns, knockback, stun and enemy
// respawn timers by one tick.
func (r *Resolver) AdvanceTimers(s *world.Session) {
	dt := s.DT()
	for _, p := range s.Players {
		countDown(&p.AttackCooldown, dt)
	}
	for _, e := range s.Enemies {
		if !e.Alive() {
			countDown(&e.RespawnTimer, dt)
			continue
		}
		countDown(&e.AttackTimer, dt)
		countDown(&e.StunTimer, dt)
		if countDown(&e.KnockbackTimer, dt) && e.Status == world.EnemyKnockback {
			e.Status = world.EnemyIdle
		}
	}
}

// countDown subtracts dt from a timer, snapping to zero. It reports whether
// the timer is now expired.
func countDown(t *float64, dt float64) bool {
	if *t <= 0 {
		*t = 0
		return true
	}
	*t -= dt
	if *t <= timerEpsilon {
		*t = 0
		return true
	}
	return false
}
