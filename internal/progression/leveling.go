package progression

import (
	"fmt"

	"github.com/vovakirdan/coop-arena/internal/world"
)

// LevelUp is emitted for each level a player gains.
type LevelUp struct {
	PlayerID string
	Level    int
}

// SkillUnlocked is emitted when a level-up reaches a skill's required level.
type SkillUnlocked struct {
	PlayerID string
	SkillID  string
}

// KillGrant is the outcome of claiming a kill.
type KillGrant struct {
	Granted  bool
	Level    int
	Exp      int
	Gold     int
	LevelUps []LevelUp
	Unlocked []SkillUnlocked
}

// GrantKill consumes one server-recorded kill credit for enemyTypeID and
// awards its exp and gold, scaled to the current section's enemy level.
// Without a credit, or once the session has ended, nothing is granted.
func (c *Controller) GrantKill(s *world.Session, p *world.Player, enemyTypeID string) KillGrant {
	g := KillGrant{Level: p.Level, Exp: p.Exp, Gold: p.Gold}
	if s != nil && s.Status.Terminal() {
		return g
	}
	if p.KillCredits[enemyTypeID] <= 0 {
		return g
	}
	t, ok := c.world.EnemyType(enemyTypeID)
	if !ok {
		return g
	}
	p.KillCredits[enemyTypeID]--
	if p.KillCredits[enemyTypeID] == 0 {
		delete(p.KillCredits, enemyTypeID)
	}

	level := 1
	if s != nil && s.Cache != nil {
		level = s.Cache.Section.EnemyLevel
	}
	st := c.world.Scaling.ScaleEnemy(t, level)
	p.Gold += st.GoldReward
	g.LevelUps, g.Unlocked = c.AddExp(p, st.ExpReward)
	p.Dirty = true

	g.Granted = true
	g.Level, g.Exp, g.Gold = p.Level, p.Exp, p.Gold
	return g
}

// AddExp adds experience and applies every level-up it pays for.
func (c *Controller) AddExp(p *world.Player, exp int) ([]LevelUp, []SkillUnlocked) {
	if exp <= 0 {
		return nil, nil
	}
	lv := c.world.Leveling
	if p.ExpToLevel <= 0 {
		p.ExpToLevel = lv.ExpToLevel(p.Level)
	}
	p.Exp += exp

	var ups []LevelUp
	var unlocked []SkillUnlocked
	for p.Exp >= p.ExpToLevel && (lv.MaxLevel <= 0 || p.Level < lv.MaxLevel) {
		p.Exp -= p.ExpToLevel
		p.Level++
		p.ExpToLevel = lv.ExpToLevel(p.Level)
		c.growLevel(p, 1)
		ups = append(ups, LevelUp{PlayerID: p.ID, Level: p.Level})
		for _, sk := range c.world.Skills {
			if sk.RequiredLevel == p.Level {
				unlocked = append(unlocked, SkillUnlocked{PlayerID: p.ID, SkillID: sk.ID})
			}
		}
	}
	return ups, unlocked
}

func (c *Controller) growLevel(p *world.Player, levels int) {
	lv := c.world.Leveling
	p.MaxHP += lv.HPPerLevel * levels
	p.Stats.Damage += lv.DamagePerLevel * float64(levels)
	if !p.Dead {
		p.SetHP(p.HP + lv.HPPerLevel*levels)
	}
}

// Progress is the persistent part of a player's state.
type Progress struct {
	Level  int
	Exp    int
	Gold   int
	Skills map[string]int
}

// ApplyProgress loads stored progress into a freshly created player,
// applying per-level growth and skill bonuses on top of base stats.
func (c *Controller) ApplyProgress(p *world.Player, pr Progress) {
	level := max(pr.Level, 1)
	if c.world.Leveling.MaxLevel > 0 {
		level = min(level, c.world.Leveling.MaxLevel)
	}
	p.Level = level
	p.Exp = max(pr.Exp, 0)
	p.Gold = max(pr.Gold, 0)
	p.ExpToLevel = c.world.Leveling.ExpToLevel(level)
	c.growLevel(p, level-1)

	for id, n := range pr.Skills {
		sk, ok := c.world.Skill(id)
		if !ok || n <= 0 {
			continue
		}
		n = min(n, sk.MaxLevel)
		p.Skills[id] = n
		p.ApplyStat(sk.Stat, sk.ValuePerLevel*float64(n))
	}
	p.SetHP(p.MaxHP)
}

// SnapshotProgress returns the persistent part of a player's state.
func SnapshotProgress(p *world.Player) Progress {
	skills := make(map[string]int, len(p.Skills))
	for id, n := range p.Skills {
		skills[id] = n
	}
	return Progress{Level: p.Level, Exp: p.Exp, Gold: p.Gold, Skills: skills}
}

// SkillUpgrade is the outcome of an upgrade attempt.
type SkillUpgrade struct {
	Success bool
	SkillID string
	Level   int
	Message string
}

// UpgradeSkill spends gold to raise a skill by one level and applies its
// stat bonus.
func (c *Controller) UpgradeSkill(p *world.Player, skillID string) SkillUpgrade {
	res := SkillUpgrade{SkillID: skillID, Level: p.Skills[skillID]}
	sk, ok := c.world.Skill(skillID)
	switch {
	case !ok:
		res.Message = "unknown skill"
	case p.Level < sk.RequiredLevel:
		res.Message = fmt.Sprintf("requires level %d", sk.RequiredLevel)
	case res.Level >= sk.MaxLevel:
		res.Message = "skill is at max level"
	case p.Gold < sk.Cost:
		res.Message = fmt.Sprintf("not enough gold: need %d", sk.Cost)
	default:
		p.Gold -= sk.Cost
		p.Skills[skillID]++
		p.ApplyStat(sk.Stat, sk.ValuePerLevel)
		p.Dirty = true
		res.Success = true
		res.Level = p.Skills[skillID]
		res.Message = "upgraded"
	}
	return res
}

// UseItem applies an item's temporary buff. It expires after the item's
// duration in ticks.
func (c *Controller) UseItem(s *world.Session, p *world.Player, itemID string) (world.Buff, error) {
	it, ok := c.world.Item(itemID)
	if !ok {
		return world.Buff{}, fmt.Errorf("unknown item %q: %w", itemID, world.ErrInvalidInput)
	}
	if p.Dead {
		return world.Buff{}, fmt.Errorf("player %s is dead: %w", p.ID, world.ErrInvalidInput)
	}
	b := world.Buff{
		Source:        it.ID,
		Stat:          it.Stat,
		Value:         it.Value,
		ExpiresAtTick: s.Tick + max(s.Runtime.TicksFor(it.Duration), 1),
	}
	if !p.AddBuff(b) {
		return world.Buff{}, fmt.Errorf("item %q has unknown stat %q: %w", itemID, it.Stat, world.ErrInvalidInput)
	}
	return b, nil
}

// ExpireBuffs reverts buffs that expired at the current tick.
func (c *Controller) ExpireBuffs(s *world.Session) int {
	n := 0
	for _, id := range s.PlayerIDs() {
		n += len(s.Players[id].ExpireBuffs(s.Tick))
	}
	return n
}

// Respawn revives a dead player at the section spawn point with full hp.
// Living players are not respawned.
func (c *Controller) Respawn(s *world.Session, p *world.Player) bool {
	if !p.Dead || s.Status.Terminal() {
		return false
	}
	p.Revive(s.SpawnPoint())
	return true
}

// NewPlayer creates a player at the session spawn point with base stats
// from the world configuration.
func (c *Controller) NewPlayer(s *world.Session, id, name string) *world.Player {
	p := world.NewPlayer(id, name, c.world.Player, s.SpawnPoint())
	p.ExpToLevel = c.world.Leveling.ExpToLevel(p.Level)
	return p
}
