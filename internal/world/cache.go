package world

import (
	"fmt"

	"github.com/vovakirdan/coop-arena/internal/config"
	"github.com/vovakirdan/coop-arena/internal/core"
)

// CheckpointState is the runtime spawn bookkeeping of one checkpoint.
type CheckpointState struct {
	Config config.Checkpoint
	// Spawned counts every spawn and respawn, bounded by Config.TotalEnemies.
	Spawned int
	// Slots lists the enemies this checkpoint owns, alive or dead.
	Slots []string

	nextType int
}

// NextType returns the next enemy type of the pool in round-robin order.
func (c *CheckpointState) NextType() string {
	if len(c.Config.EnemyTypes) == 0 {
		return ""
	}
	id := c.Config.EnemyTypes[c.nextType%len(c.Config.EnemyTypes)]
	c.nextType++
	return id
}

// Exhausted reports whether the checkpoint may not spawn anything more.
func (c *CheckpointState) Exhausted() bool {
	return c.Spawned >= c.Config.TotalEnemies
}

// SectionCache is the per-session copy of the current section's config.
// It is built once when a section begins and is read-only during ticks
// except for the spawn bookkeeping in Checkpoints.
type SectionCache struct {
	Section     config.Section
	Order       []string // checkpoint ids in configuration order
	Checkpoints map[string]*CheckpointState
	EnemyTypes  map[string]config.EnemyType
	Scaling     config.ScalingConfig
	BossSpawned bool
}

// NewSectionCache copies the section and every enemy type it references.
func NewSectionCache(cfg *config.WorldConfig, sectionID string) (*SectionCache, error) {
	sec, ok := cfg.Section(sectionID)
	if !ok {
		return nil, fmt.Errorf("unknown section %q", sectionID)
	}
	c := &SectionCache{
		Section:     sec,
		Order:       make([]string, 0, len(sec.Checkpoints)),
		Checkpoints: make(map[string]*CheckpointState, len(sec.Checkpoints)),
		EnemyTypes:  make(map[string]config.EnemyType),
		Scaling:     cfg.Scaling,
	}
	addType := func(id string) error {
		if _, done := c.EnemyTypes[id]; done {
			return nil
		}
		t, ok := cfg.EnemyType(id)
		if !ok {
			return fmt.Errorf("section %q references unknown enemy type %q", sectionID, id)
		}
		c.EnemyTypes[id] = t
		return nil
	}
	for _, cp := range sec.Checkpoints {
		cp.EnemyTypes = append([]string(nil), cp.EnemyTypes...)
		c.Order = append(c.Order, cp.ID)
		c.Checkpoints[cp.ID] = &CheckpointState{Config: cp}
		for _, id := range cp.EnemyTypes {
			if err := addType(id); err != nil {
				return nil, err
			}
		}
	}
	if sec.Boss != nil {
		boss := *sec.Boss
		c.Section.Boss = &boss
		if err := addType(boss.TypeID); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SpawnPoint returns the player spawn point of the section.
func (c *SectionCache) SpawnPoint() core.Vec2 {
	return core.V(c.Section.SpawnPoint.X, c.Section.SpawnPoint.Y)
}

// RespawnDelay returns the spawn-rate adjusted respawn delay for an enemy type.
func (c *SectionCache) RespawnDelay(typeID string) float64 {
	t, ok := c.EnemyTypes[typeID]
	if !ok {
		return 0
	}
	return config.RespawnSeconds(t, c.Section)
}
