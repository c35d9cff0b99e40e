package multiplayer

import (
	"errors"
	"fmt"
	"math"

	"github.com/vovakirdan/coop-arena/internal/combat"
	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/progression"
	"github.com/vovakirdan/coop-arena/internal/world"
)

// withPlayer runs fn under the session lock. Events returned by fn are
// emitted after the lock is released.
func (c *Coordinator) withPlayer(sessionID, playerID string, fn func(s *world.Session, p *world.Player) ([]Event, error)) error {
	r, err := c.runner(sessionID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	p, ok := r.state.Players[playerID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("player %s in session %s: %w", playerID, sessionID, world.ErrPlayerNotFound)
	}
	events, err := fn(r.state, p)
	r.mu.Unlock()

	for _, evt := range events {
		c.emit(evt)
	}
	return err
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// ReportDamage applies damage to a player, reduced by its damage
// reduction. Dead players and finished sessions are not damaged.
func (c *Coordinator) ReportDamage(sessionID, playerID string, amount float64) (DamageResult, error) {
	if !validAmount(amount) {
		return DamageResult{}, fmt.Errorf("damage %v: %w", amount, world.ErrInvalidInput)
	}
	var out DamageResult
	err := c.withPlayer(sessionID, playerID, func(s *world.Session, p *world.Player) ([]Event, error) {
		out = DamageResult{CurrentHP: p.HP, MaxHP: p.MaxHP}
		if s.Status.Terminal() || p.Dead {
			return nil, nil
		}
		c.resolver.DamagePlayer(p, amount, nil)
		s.BumpVersion()
		out = DamageResult{Accepted: true, CurrentHP: p.HP, MaxHP: p.MaxHP}
		return nil, nil
	})
	return out, err
}

// ReportEnemyDamage applies a player's hit to an enemy. The hit carries the
// player's knockback and stun, and a killing blow records a kill credit.
func (c *Coordinator) ReportEnemyDamage(sessionID, playerID, enemyID string, amount float64) (EnemyDamageResult, error) {
	if !validAmount(amount) {
		return EnemyDamageResult{}, fmt.Errorf("damage %v: %w", amount, world.ErrInvalidInput)
	}
	var out EnemyDamageResult
	err := c.withPlayer(sessionID, playerID, func(s *world.Session, p *world.Player) ([]Event, error) {
		e, ok := s.Enemies[enemyID]
		if !ok {
			return nil, fmt.Errorf("enemy %s: %w", enemyID, world.ErrEnemyNotFound)
		}
		out = EnemyDamageResult{CurrentHP: e.HP, MaxHP: e.MaxHP, IsDead: !e.Alive()}
		if s.Status.Terminal() || p.Dead || !e.Alive() {
			return nil, nil
		}
		h := combat.HitFrom(p)
		h.Amount = amount
		h.Dir = e.Pos.Sub(p.Pos)
		c.resolver.HitEnemy(s, e, h, nil)
		s.BumpVersion()
		out = EnemyDamageResult{Accepted: true, CurrentHP: e.HP, MaxHP: e.MaxHP, IsDead: !e.Alive()}
		return nil, nil
	})
	return out, err
}

// ReportKill claims the reward of a kill the server recorded for this
// player. Claims without a matching kill credit are not granted.
func (c *Coordinator) ReportKill(sessionID, playerID, enemyTypeID string) (KillResult, error) {
	var out KillResult
	err := c.withPlayer(sessionID, playerID, func(s *world.Session, p *world.Player) ([]Event, error) {
		g := c.progress.GrantKill(s, p, enemyTypeID)
		out = KillResult{Granted: g.Granted, Level: g.Level, Exp: g.Exp, Gold: g.Gold}
		if !g.Granted {
			return nil, nil
		}
		s.BumpVersion()
		var events []Event
		for _, lu := range g.LevelUps {
			events = append(events, LevelUpEvent{SessionID: s.ID, PlayerID: lu.PlayerID, Level: lu.Level})
		}
		for _, su := range g.Unlocked {
			events = append(events, SkillUnlockedEvent{SessionID: s.ID, PlayerID: su.PlayerID, SkillID: su.SkillID})
		}
		return events, nil
	})
	return out, err
}

// Respawn revives a dead player at the section spawn point.
func (c *Coordinator) Respawn(sessionID, playerID string) (RespawnResult, error) {
	var out RespawnResult
	err := c.withPlayer(sessionID, playerID, func(s *world.Session, p *world.Player) ([]Event, error) {
		accepted := c.progress.Respawn(s, p)
		if accepted {
			s.BumpVersion()
		}
		out = RespawnResult{Accepted: accepted, X: p.Pos.X, Y: p.Pos.Y, CurrentHP: p.HP, MaxHP: p.MaxHP}
		return nil, nil
	})
	return out, err
}

// UseItemBuff applies an item's temporary buff to a player.
func (c *Coordinator) UseItemBuff(sessionID, playerID, itemID string) (BuffResult, error) {
	var out BuffResult
	err := c.withPlayer(sessionID, playerID, func(s *world.Session, p *world.Player) ([]Event, error) {
		if s.Status.Terminal() {
			out.Message = "session has ended"
			return nil, nil
		}
		b, err := c.progress.UseItem(s, p, itemID)
		if err != nil {
			if errors.Is(err, world.ErrInvalidInput) {
				out.Message = err.Error()
				return nil, nil
			}
			return nil, err
		}
		s.BumpVersion()
		out = BuffResult{Accepted: true, Stat: string(b.Stat), Value: b.Value, ExpiresAtTick: b.ExpiresAtTick}
		return nil, nil
	})
	return out, err
}

// UpgradeSkill spends gold on a skill level. Players in a session are
// upgraded in place; others are upgraded in the profile store.
func (c *Coordinator) UpgradeSkill(playerID, skillID string) (SkillUpgradeResult, error) {
	if sessionID, ok := c.PlayerSession(playerID); ok {
		var (
			out  SkillUpgradeResult
			save []ProfileData
		)
		err := c.withPlayer(sessionID, playerID, func(s *world.Session, p *world.Player) ([]Event, error) {
			u := c.progress.UpgradeSkill(p, skillID)
			out = SkillUpgradeResult(u)
			if u.Success {
				s.BumpVersion()
				save = append(save, profileOf(p))
				p.Dirty = false
			}
			return nil, nil
		})
		switch {
		case err == nil:
			c.saveProfiles(save...)
			return out, nil
		case !errors.Is(err, world.ErrSessionNotFound) && !errors.Is(err, world.ErrPlayerNotFound):
			return SkillUpgradeResult{}, err
		}
	}

	p, err := c.offlinePlayer(playerID)
	if err != nil {
		return SkillUpgradeResult{}, err
	}
	u := c.progress.UpgradeSkill(p, skillID)
	if u.Success {
		if err := c.profiles.SaveProfile(profileOf(p)); err != nil {
			return SkillUpgradeResult{}, fmt.Errorf("save profile %s: %w", playerID, err)
		}
	}
	return SkillUpgradeResult(u), nil
}

// GetSkills lists every configured skill with the player's level in it.
func (c *Coordinator) GetSkills(playerID string) (SkillsResult, error) {
	var levels map[string]int
	if sessionID, ok := c.PlayerSession(playerID); ok {
		err := c.withPlayer(sessionID, playerID, func(_ *world.Session, p *world.Player) ([]Event, error) {
			levels = progression.SnapshotProgress(p).Skills
			return nil, nil
		})
		if err != nil && !errors.Is(err, world.ErrSessionNotFound) && !errors.Is(err, world.ErrPlayerNotFound) {
			return SkillsResult{}, err
		}
	}
	if levels == nil {
		prof, err := c.storedProfile(playerID)
		if err != nil {
			return SkillsResult{}, err
		}
		levels = prof.Skills
	}

	out := SkillsResult{Skills: make([]SkillLevel, 0, len(c.world.Skills))}
	for _, sk := range c.world.Skills {
		out.Skills = append(out.Skills, SkillLevel{SkillID: sk.ID, Level: levels[sk.ID]})
	}
	return out, nil
}

func (c *Coordinator) storedProfile(playerID string) (ProfileData, error) {
	if c.profiles == nil {
		return ProfileData{}, fmt.Errorf("player %s: %w", playerID, world.ErrPlayerNotFound)
	}
	prof, ok, err := c.profiles.LoadProfile(playerID)
	if err != nil {
		return ProfileData{}, fmt.Errorf("load profile %s: %w", playerID, err)
	}
	if !ok {
		return ProfileData{}, fmt.Errorf("player %s: %w", playerID, world.ErrPlayerNotFound)
	}
	return prof, nil
}

// offlinePlayer rebuilds a player from its stored profile.
func (c *Coordinator) offlinePlayer(playerID string) (*world.Player, error) {
	prof, err := c.storedProfile(playerID)
	if err != nil {
		return nil, err
	}
	p := world.NewPlayer(prof.PlayerID, prof.Name, c.world.Player, core.Vec2{})
	c.progress.ApplyProgress(p, progression.Progress{
		Level:  prof.Level,
		Exp:    prof.Exp,
		Gold:   prof.Gold,
		Skills: prof.Skills,
	})
	return p, nil
}
