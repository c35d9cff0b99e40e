package config

import "math"

// EnemyStats are the level-adjusted stats of an enemy instance.
type EnemyStats struct {
	MaxHP      int
	Damage     float64
	ExpReward  int
	GoldReward int
}

// ScaleEnemy returns the stats of an enemy of type t at the given level.
// Level 1 (or below) yields the base stats.
func (s ScalingConfig) ScaleEnemy(t EnemyType, level int) EnemyStats {
	steps := float64(max(level, 1) - 1)
	hp := int(math.Round(float64(t.MaxHP) * (1 + steps*s.HPPerLevel)))
	return EnemyStats{
		MaxHP:      max(hp, 1),
		Damage:     t.Damage * (1 + steps*s.DamagePerLevel),
		ExpReward:  int(math.Round(float64(t.ExpReward) * (1 + steps*s.RewardPerLevel))),
		GoldReward: int(math.Round(float64(t.GoldReward) * (1 + steps*s.RewardPerLevel))),
	}
}

// ExpToLevel returns the experience needed to advance from level to level+1.
func (l LevelingConfig) ExpToLevel(level int) int {
	base := l.BaseExpToLevel
	if base <= 0 {
		base = 100
	}
	growth := l.ExpGrowth
	if growth < 1 {
		growth = 1
	}
	need := float64(base) * math.Pow(growth, float64(max(level, 1)-1))
	return int(math.Round(need))
}

// RespawnSeconds returns an enemy type's respawn delay within a section,
// dividing by the section spawn rate. A zero spawn rate is treated as 1.
func RespawnSeconds(t EnemyType, s Section) float64 {
	rate := s.SpawnRate
	if rate <= 0 {
		rate = 1
	}
	return t.RespawnDelay / rate
}

// MeleeHalfArc returns half the melee arc in radians.
func (c CombatConfig) MeleeHalfArc() float64 {
	deg := clampF(c.MeleeArcDegrees, 1, 360)
	return deg / 2 * math.Pi / 180
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}
