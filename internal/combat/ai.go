package combat

import (
	"fmt"

	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/registry"
	"github.com/vovakirdan/coop-arena/internal/world"
)

// Behavior drives one enemy that can act and has a target in detect range.
type Behavior interface {
	Act(r *Resolver, s *world.Session, e *world.Enemy, target *world.Player, res *Result)
}

// BehaviorFunc adapts a function to the Behavior interface.
type BehaviorFunc func(r *Resolver, s *world.Session, e *world.Enemy, target *world.Player, res *Result)

// Act calls f.
func (f BehaviorFunc) Act(r *Resolver, s *world.Session, e *world.Enemy, target *world.Player, res *Result) {
	f(r, s, e, target, res)
}

// Behavior names used in the world configuration.
const (
	BehaviorMelee  = "melee"
	BehaviorRanged = "ranged"
)

// DefaultBehaviors returns a registry with the built-in melee and ranged AI.
func DefaultBehaviors() *registry.Registry[Behavior] {
	r := registry.New[Behavior]("behavior")
	r.Register(BehaviorMelee, BehaviorFunc(meleeAct))
	r.Register(BehaviorRanged, BehaviorFunc(rangedAct))
	return r
}

// StepEnemies runs AI for every enemy able to act.
func (r *Resolver) StepEnemies(s *world.Session, res *Result) {
	dt := s.DT()
	for _, id := range s.EnemyIDs() {
		e := s.Enemies[id]
		if !e.CanAct() {
			continue
		}
		target := nearestLiving(s, e.Pos, e.DetectRange)
		if target == nil {
			e.TargetID = ""
			e.Status = world.EnemyIdle
			moveToward(s, e, e.SpawnPos, e.Speed*dt, 0)
			continue
		}
		b, err := r.behaviors.Get(e.Behavior)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("enemy %s: %w", e.ID, err))
			continue
		}
		e.TargetID = target.ID
		b.Act(r, s, e, target, res)
	}
}

func meleeAct(r *Resolver, s *world.Session, e *world.Enemy, target *world.Player, res *Result) {
	if !inAttackRange(e, target) {
		e.Status = world.EnemyChasing
		moveToward(s, e, target.Pos, e.Speed*s.DT(), e.AttackRange+target.Radius)
		return
	}
	e.Facing = target.Pos.Sub(e.Pos).Normalize()
	if e.AttackTimer > 0 {
		return
	}
	e.Status = world.EnemyAttacking
	r.DamagePlayer(target, e.Damage, res)
	e.AttackTimer = e.AttackCooldown
}

func rangedAct(r *Resolver, s *world.Session, e *world.Enemy, target *world.Player, res *Result) {
	if !inAttackRange(e, target) {
		e.Status = world.EnemyChasing
		moveToward(s, e, target.Pos, e.Speed*s.DT(), e.AttackRange+target.Radius)
		return
	}
	dir := target.Pos.Sub(e.Pos).Normalize()
	if !dir.IsZero() {
		e.Facing = dir
	}
	if e.AttackTimer > 0 {
		return
	}
	e.Status = world.EnemyAttacking
	pr := &world.Projectile{
		ID:        s.NextID("proj"),
		OwnerID:   e.ID,
		OwnerKind: world.OwnerEnemy,
		Pos:       e.Pos.Add(e.Facing.Scale(e.Radius)),
		Dir:       e.Facing,
		Speed:     r.combat.ProjectileSpeed,
		Damage:    e.Damage,
		Radius:    r.combat.ProjectileRadius,
		TTL:       r.combat.ProjectileTTL,
	}
	s.Projectiles[pr.ID] = pr
	e.AttackTimer = e.AttackCooldown
}

func inAttackRange(e *world.Enemy, p *world.Player) bool {
	return e.Pos.Dist(p.Pos) <= e.AttackRange+p.Radius
}

// nearestLiving returns the closest living player within rng of pos.
// Ties go to the lower player id.
func nearestLiving(s *world.Session, pos core.Vec2, rng float64) *world.Player {
	var best *world.Player
	bestDist := 0.0
	for _, id := range s.PlayerIDs() {
		p := s.Players[id]
		if p.Dead {
			continue
		}
		d := pos.Dist(p.Pos)
		if d > rng {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// moveToward steps an enemy toward dest by at most step, stopping once it is
// within stopAt of dest.
func moveToward(s *world.Session, e *world.Enemy, dest core.Vec2, step, stopAt float64) {
	to := dest.Sub(e.Pos)
	dist := to.Len()
	if dist <= stopAt || dist == 0 {
		return
	}
	step = min(step, dist-stopAt)
	dir := to.Normalize()
	e.Facing = dir
	e.Pos = s.Bounds.Clamp(e.Pos.Add(dir.Scale(step)))
}

// StepProjectiles advances projectiles and resolves their first collision.
// Player projectiles hit enemies and enemy projectiles hit players, so a
// projectile can never hit its owner.
func (r *Resolver) StepProjectiles(s *world.Session, res *Result) {
	dt := s.DT()
	for _, id := range s.ProjectileIDs() {
		pr := s.Projectiles[id]
		pr.Pos = pr.Pos.Add(pr.Dir.Scale(pr.Speed * dt))
		pr.TTL -= dt

		hit := false
		switch pr.OwnerKind {
		case world.OwnerPlayer:
			for _, eid := range s.EnemyIDs() {
				e := s.Enemies[eid]
				if !e.Alive() || !core.CirclesOverlap(pr.Pos, pr.Radius, e.Pos, e.Radius) {
					continue
				}
				h := Hit{AttackerID: pr.OwnerID, Amount: pr.Damage, Dir: pr.Dir}
				if owner, ok := s.Players[pr.OwnerID]; ok {
					h.Knockback = owner.Stats.KnockbackForce
					h.KnockbackTime = owner.Stats.KnockbackTime
					h.StunTime = owner.Stats.StunTime
				}
				r.HitEnemy(s, e, h, res)
				hit = true
				break
			}
		case world.OwnerEnemy:
			for _, pid := range s.PlayerIDs() {
				p := s.Players[pid]
				if p.Dead || p.ID == pr.OwnerID || !core.CirclesOverlap(pr.Pos, pr.Radius, p.Pos, p.Radius) {
					continue
				}
				r.DamagePlayer(p, pr.Damage, res)
				hit = true
				break
			}
		}

		if hit || pr.TTL <= timerEpsilon || !s.Bounds.Contains(pr.Pos) {
			delete(s.Projectiles, id)
		}
	}
}
