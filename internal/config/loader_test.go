package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaultIsValid(t *testing.T) {
	cfg, err := ParseWorld(defaultWorldYAML)
	if err != nil {
		t.Fatalf("ParseWorld(default) failed: %v", err)
	}
	if len(cfg.Sections) != 2 {
		t.Errorf("expected 2 sections, got %d", len(cfg.Sections))
	}
	if _, ok := cfg.EnemyType("slime"); !ok {
		t.Error("expected enemy type slime")
	}
}

func TestHardcodedDefaultIsValid(t *testing.T) {
	cfg := DefaultWorldConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultWorldConfig().Validate() failed: %v", err)
	}
}

func TestLoadWorldCustomPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")
	data := `
world: {width: 400, height: 300}
player: {max_hp: 50, speed: 100}
enemy_types:
  - {id: bat, max_hp: 10, respawn_delay: 2}
sections:
  - id: cave
    spawn_point: {x: 10, y: 10}
    checkpoints:
      - {id: cave-1, position: {x: 200, y: 200}, enemy_types: [bat], max_enemies: 1, total_enemies: 2}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := LoadWorld(path)
	if err != nil {
		t.Fatalf("LoadWorld() failed: %v", err)
	}
	if cfg.World.Width != 400 {
		t.Errorf("World.Width = %v, expected 400", cfg.World.Width)
	}
	if cfg.FirstSection() != "cave" {
		t.Errorf("FirstSection() = %q, expected cave", cfg.FirstSection())
	}
	if _, ok := cfg.NextSection("cave"); ok {
		t.Error("NextSection(cave) should not exist")
	}
}

func TestLoadWorldMissingCustomPath(t *testing.T) {
	if _, err := LoadWorld(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadWorld() should fail for a missing custom path")
	}
}

func TestValidateReportsProblems(t *testing.T) {
	cfg := DefaultWorldConfig()
	cfg.Sections[0].Checkpoints[0].EnemyTypes = []string{"dragon"}
	cfg.Skills = append(cfg.Skills, Skill{ID: "bogus", Stat: "charisma"})

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	msg := err.Error()
	if !strings.Contains(msg, `unknown enemy type "dragon"`) {
		t.Errorf("missing enemy type error in %q", msg)
	}
	if !strings.Contains(msg, `unknown stat "charisma"`) {
		t.Errorf("missing stat error in %q", msg)
	}
}

func TestValidateRejectsUnspawnableCheckpoint(t *testing.T) {
	cfg := DefaultWorldConfig()
	cp := &cfg.Sections[0].Checkpoints[0]
	cp.MaxEnemies = 0
	cp.TotalEnemies = 3

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail for a checkpoint that can never spawn")
	}
	if !strings.Contains(err.Error(), "max_enemies must be positive") {
		t.Errorf("unexpected error %q", err)
	}

	// An empty checkpoint is allowed.
	cp.TotalEnemies = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v for an empty checkpoint", err)
	}
}

func TestScaleEnemy(t *testing.T) {
	s := ScalingConfig{HPPerLevel: 0.5, DamagePerLevel: 0.1, RewardPerLevel: 1}
	base := EnemyType{MaxHP: 20, Damage: 10, ExpReward: 10, GoldReward: 3}

	tests := []struct {
		name   string
		level  int
		hp     int
		damage float64
		exp    int
	}{
		{"level zero uses base", 0, 20, 10, 10},
		{"level one uses base", 1, 20, 10, 10},
		{"level three", 3, 40, 12, 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.ScaleEnemy(base, tc.level)
			if got.MaxHP != tc.hp {
				t.Errorf("MaxHP = %d, expected %d", got.MaxHP, tc.hp)
			}
			if got.Damage < tc.damage-1e-9 || got.Damage > tc.damage+1e-9 {
				t.Errorf("Damage = %v, expected %v", got.Damage, tc.damage)
			}
			if got.ExpReward != tc.exp {
				t.Errorf("ExpReward = %d, expected %d", got.ExpReward, tc.exp)
			}
		})
	}
}

func TestExpToLevel(t *testing.T) {
	l := LevelingConfig{BaseExpToLevel: 100, ExpGrowth: 1.5}
	if got := l.ExpToLevel(1); got != 100 {
		t.Errorf("ExpToLevel(1) = %d, expected 100", got)
	}
	if got := l.ExpToLevel(3); got != 225 {
		t.Errorf("ExpToLevel(3) = %d, expected 225", got)
	}
}

func TestRespawnSeconds(t *testing.T) {
	et := EnemyType{RespawnDelay: 6}
	if got := RespawnSeconds(et, Section{SpawnRate: 2}); got != 3 {
		t.Errorf("RespawnSeconds() = %v, expected 3", got)
	}
	if got := RespawnSeconds(et, Section{}); got != 6 {
		t.Errorf("RespawnSeconds() with zero rate = %v, expected 6", got)
	}
}
