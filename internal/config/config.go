// Package config provides YAML-based world configuration loading: enemy
// types, sections and their checkpoints, skills, items, and the tuning used
// to scale enemies and players by level.
package config

// WorldConfig is the full static content definition for arena sessions.
type WorldConfig struct {
	World      WorldBounds    `yaml:"world"`
	Player     PlayerConfig   `yaml:"player"`
	Combat     CombatConfig   `yaml:"combat"`
	Leveling   LevelingConfig `yaml:"leveling"`
	Scaling    ScalingConfig  `yaml:"scaling"`
	EnemyTypes []EnemyType    `yaml:"enemy_types"`
	Sections   []Section      `yaml:"sections"`
	Skills     []Skill        `yaml:"skills"`
	Items      []Item         `yaml:"items"`
}

// WorldBounds defines the playable rectangle.
type WorldBounds struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Point is a position in world units.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// PlayerConfig holds the starting stats of a fresh player.
type PlayerConfig struct {
	MaxHP           int     `yaml:"max_hp"`
	Speed           float64 `yaml:"speed"` // units per second
	Damage          float64 `yaml:"damage"`
	WeaponRange     float64 `yaml:"weapon_range"`
	KnockbackForce  float64 `yaml:"knockback_force"` // units pushed per hit
	KnockbackTime   float64 `yaml:"knockback_time"`  // seconds
	StunTime        float64 `yaml:"stun_time"`       // seconds
	BonusDamage     float64 `yaml:"bonus_damage"`    // fraction, 0.1 = +10%
	DamageReduction float64 `yaml:"damage_reduction"`
	AttackCooldown  float64 `yaml:"attack_cooldown"` // seconds
	Radius          float64 `yaml:"radius"`
}

// CombatConfig holds session-wide combat tuning.
type CombatConfig struct {
	MeleeArcDegrees  float64 `yaml:"melee_arc_degrees"` // full arc width
	ProjectileSpeed  float64 `yaml:"projectile_speed"`
	ProjectileRadius float64 `yaml:"projectile_radius"`
	ProjectileTTL    float64 `yaml:"projectile_ttl"`    // seconds
	FailureGrace     float64 `yaml:"failure_grace"`     // seconds all players must stay dead
	EmptySessionTTL  float64 `yaml:"empty_session_ttl"` // seconds before an empty session is destroyed
}

// LevelingConfig defines the experience curve and per-level player growth.
type LevelingConfig struct {
	BaseExpToLevel int     `yaml:"base_exp_to_level"`
	ExpGrowth      float64 `yaml:"exp_growth"` // multiplier per level
	HPPerLevel     int     `yaml:"hp_per_level"`
	DamagePerLevel float64 `yaml:"damage_per_level"`
	MaxLevel       int     `yaml:"max_level"`
}

// ScalingConfig defines how enemy stats grow with the section enemy level.
// Each value is the fractional increase per level above 1.
type ScalingConfig struct {
	HPPerLevel     float64 `yaml:"hp_per_level"`
	DamagePerLevel float64 `yaml:"damage_per_level"`
	RewardPerLevel float64 `yaml:"reward_per_level"`
}

// EnemyType describes the base stats of one kind of enemy.
type EnemyType struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	Behavior       string  `yaml:"behavior"` // "melee" or "ranged"
	MaxHP          int     `yaml:"max_hp"`
	Damage         float64 `yaml:"damage"`
	Speed          float64 `yaml:"speed"`
	DetectRange    float64 `yaml:"detect_range"`
	AttackRange    float64 `yaml:"attack_range"`
	AttackCooldown float64 `yaml:"attack_cooldown"` // seconds
	RespawnDelay   float64 `yaml:"respawn_delay"`   // seconds, divided by section spawn rate
	ExpReward      int     `yaml:"exp_reward"`
	GoldReward     int     `yaml:"gold_reward"`
	Radius         float64 `yaml:"radius"`
}

// Section is one stage of a session, cleared when all its enemies are defeated.
type Section struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	EnemyLevel  int          `yaml:"enemy_level"`
	SpawnRate   float64      `yaml:"spawn_rate"`
	SpawnPoint  Point        `yaml:"spawn_point"` // player spawn/respawn point
	Checkpoints []Checkpoint `yaml:"checkpoints"`
	Boss        *Boss        `yaml:"boss,omitempty"`
}

// Checkpoint is a spawn location with an enemy pool and caps.
type Checkpoint struct {
	ID           string   `yaml:"id"`
	Position     Point    `yaml:"position"`
	EnemyTypes   []string `yaml:"enemy_types"`
	MaxEnemies   int      `yaml:"max_enemies"`   // alive at once
	TotalEnemies int      `yaml:"total_enemies"` // spawns to defeat before the checkpoint is cleared
}

// Boss spawns once every checkpoint of its section is cleared.
type Boss struct {
	TypeID   string `yaml:"type_id"`
	Position Point  `yaml:"position"`
	Level    int    `yaml:"level"` // 0 means section enemy level
}

// Stat names a player stat that skills and items can modify.
type Stat string

const (
	StatDamage          Stat = "damage"
	StatSpeed           Stat = "speed"
	StatWeaponRange     Stat = "weapon_range"
	StatBonusDamage     Stat = "bonus_damage"
	StatDamageReduction Stat = "damage_reduction"
	StatKnockbackForce  Stat = "knockback_force"
	StatMaxHP           Stat = "max_hp"
)

// Valid reports whether s is a known stat.
func (s Stat) Valid() bool {
	switch s {
	case StatDamage, StatSpeed, StatWeaponRange, StatBonusDamage,
		StatDamageReduction, StatKnockbackForce, StatMaxHP:
		return true
	}
	return false
}

// Skill is a permanent, upgradeable stat bonus bought with gold.
type Skill struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	Stat          Stat    `yaml:"stat"`
	ValuePerLevel float64 `yaml:"value_per_level"`
	MaxLevel      int     `yaml:"max_level"`
	RequiredLevel int     `yaml:"required_level"`
	Cost          int     `yaml:"cost"` // gold per upgrade
}

// Item is a consumable granting a temporary stat buff.
type Item struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Stat     Stat    `yaml:"stat"`
	Value    float64 `yaml:"value"`
	Duration float64 `yaml:"duration"` // seconds
}

// EnemyType returns the enemy type with the given id.
func (c *WorldConfig) EnemyType(id string) (EnemyType, bool) {
	for _, t := range c.EnemyTypes {
		if t.ID == id {
			return t, true
		}
	}
	return EnemyType{}, false
}

// Section returns the section with the given id.
func (c *WorldConfig) Section(id string) (Section, bool) {
	for _, s := range c.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// FirstSection returns the id of the first configured section.
func (c *WorldConfig) FirstSection() string {
	if len(c.Sections) == 0 {
		return ""
	}
	return c.Sections[0].ID
}

// NextSection returns the id of the section following id, if any.
func (c *WorldConfig) NextSection(id string) (string, bool) {
	for i, s := range c.Sections {
		if s.ID == id && i+1 < len(c.Sections) {
			return c.Sections[i+1].ID, true
		}
	}
	return "", false
}

// Skill returns the skill with the given id.
func (c *WorldConfig) Skill(id string) (Skill, bool) {
	for _, s := range c.Skills {
		if s.ID == id {
			return s, true
		}
	}
	return Skill{}, false
}

// Item returns the item with the given id.
func (c *WorldConfig) Item(id string) (Item, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
