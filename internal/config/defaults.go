package config

import (
	_ "embed"
)

//go:embed defaults/world.yaml
var defaultWorldYAML []byte

// DefaultWorldConfig returns the hardcoded world configuration used when no
// YAML source can be read.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		World: WorldBounds{Width: 1600, Height: 900},
		Player: PlayerConfig{
			MaxHP:           100,
			Speed:           200,
			Damage:          10,
			WeaponRange:     60,
			KnockbackForce:  30,
			KnockbackTime:   0.3,
			StunTime:        0.2,
			BonusDamage:     0,
			DamageReduction: 0,
			AttackCooldown:  0.4,
			Radius:          16,
		},
		Combat: CombatConfig{
			MeleeArcDegrees:  120,
			ProjectileSpeed:  500,
			ProjectileRadius: 6,
			ProjectileTTL:    1.5,
			FailureGrace:     5,
			EmptySessionTTL:  120,
		},
		Leveling: LevelingConfig{
			BaseExpToLevel: 100,
			ExpGrowth:      1.25,
			HPPerLevel:     10,
			DamagePerLevel: 2,
			MaxLevel:       50,
		},
		Scaling: ScalingConfig{
			HPPerLevel:     0.15,
			DamagePerLevel: 0.10,
			RewardPerLevel: 0.20,
		},
		EnemyTypes: []EnemyType{
			{
				ID: "slime", Name: "Slime", Behavior: "melee",
				MaxHP: 30, Damage: 5, Speed: 80,
				DetectRange: 250, AttackRange: 30, AttackCooldown: 1.0,
				RespawnDelay: 6, ExpReward: 20, GoldReward: 5, Radius: 14,
			},
			{
				ID: "archer", Name: "Goblin Archer", Behavior: "ranged",
				MaxHP: 25, Damage: 6, Speed: 70,
				DetectRange: 350, AttackRange: 220, AttackCooldown: 1.6,
				RespawnDelay: 8, ExpReward: 30, GoldReward: 8, Radius: 14,
			},
			{
				ID: "ogre", Name: "Ogre Warlord", Behavior: "melee",
				MaxHP: 400, Damage: 18, Speed: 60,
				DetectRange: 500, AttackRange: 45, AttackCooldown: 1.8,
				RespawnDelay: 0, ExpReward: 300, GoldReward: 120, Radius: 30,
			},
		},
		Sections: []Section{
			{
				ID: "meadow", Name: "Meadow", EnemyLevel: 1, SpawnRate: 1,
				SpawnPoint: Point{X: 100, Y: 450},
				Checkpoints: []Checkpoint{
					{ID: "meadow-a", Position: Point{X: 500, Y: 300}, EnemyTypes: []string{"slime"}, MaxEnemies: 3, TotalEnemies: 6},
					{ID: "meadow-b", Position: Point{X: 700, Y: 600}, EnemyTypes: []string{"slime", "archer"}, MaxEnemies: 2, TotalEnemies: 4},
				},
			},
			{
				ID: "keep", Name: "Ogre Keep", EnemyLevel: 3, SpawnRate: 1.5,
				SpawnPoint: Point{X: 200, Y: 450},
				Checkpoints: []Checkpoint{
					{ID: "keep-gate", Position: Point{X: 900, Y: 450}, EnemyTypes: []string{"archer", "slime"}, MaxEnemies: 4, TotalEnemies: 8},
				},
				Boss: &Boss{TypeID: "ogre", Position: Point{X: 1400, Y: 450}},
			},
		},
		Skills: []Skill{
			{ID: "power", Name: "Power Strike", Stat: StatDamage, ValuePerLevel: 2, MaxLevel: 5, RequiredLevel: 1, Cost: 50},
			{ID: "swift", Name: "Swiftness", Stat: StatSpeed, ValuePerLevel: 15, MaxLevel: 3, RequiredLevel: 2, Cost: 80},
			{ID: "guard", Name: "Iron Skin", Stat: StatDamageReduction, ValuePerLevel: 0.05, MaxLevel: 4, RequiredLevel: 3, Cost: 100},
		},
		Items: []Item{
			{ID: "rage-potion", Name: "Rage Potion", Stat: StatBonusDamage, Value: 0.5, Duration: 10},
			{ID: "haste-potion", Name: "Haste Potion", Stat: StatSpeed, Value: 80, Duration: 8},
		},
	}
}
