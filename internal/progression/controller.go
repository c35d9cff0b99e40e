// Package progression owns checkpoint spawning, enemy respawn, boss and
// section advancement, session failure, and player leveling.
// Callers hold the session lock.
package progression

import (
	"fmt"

	"github.com/vovakirdan/coop-arena/internal/config"
	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/world"
)

// spawnSpread is the half-width of the square around a checkpoint in which
// new enemy slots are placed.
const spawnSpread = 40.0

// Report summarises what one Step changed.
type Report struct {
	Spawned          []string
	Respawned        []string
	BossSpawned      string
	SectionCompleted string
	SectionStarted   string
	Ended            bool // status became Completed or Failed this step
}

// Controller applies the progression rules of a world configuration.
type Controller struct {
	world *config.WorldConfig
}

// NewController creates a controller for the given world configuration.
func NewController(wc *config.WorldConfig) *Controller {
	return &Controller{world: wc}
}

// Start enters the first configured section.
func (c *Controller) Start(s *world.Session) error {
	first := c.world.FirstSection()
	if first == "" {
		return fmt.Errorf("progression: world has no sections")
	}
	_, err := c.BeginSection(s, first)
	return err
}

// BeginSection makes sectionID current: the cache is rebuilt, enemies of the
// previous section are despawned, players are moved to the new spawn point,
// and the first wave is spawned.
func (c *Controller) BeginSection(s *world.Session, sectionID string) (Report, error) {
	cache, err := world.NewSectionCache(c.world, sectionID)
	if err != nil {
		return Report{}, fmt.Errorf("progression: %w", err)
	}

	clear(s.Enemies)
	s.Cache = cache
	s.CurrentSectionID = sectionID
	s.SectionStartTick = s.Tick
	s.BossID = ""
	s.BossAlive = false

	spawn := s.SpawnPoint()
	for _, p := range s.Players {
		p.Pos = spawn
	}

	rep := Report{SectionStarted: sectionID}
	for _, id := range cache.Order {
		c.fillCheckpoint(s, cache.Checkpoints[id], &rep)
	}
	return rep, nil
}

// Step runs once per tick after combat and timers.
func (c *Controller) Step(s *world.Session) Report {
	var rep Report
	if s.Status.Terminal() || s.Cache == nil {
		return rep
	}

	if s.BossID != "" {
		boss, ok := s.Enemies[s.BossID]
		s.BossAlive = ok && boss.Alive()
	}

	cleared := true
	for _, id := range s.Cache.Order {
		cp := s.Cache.Checkpoints[id]
		c.fillCheckpoint(s, cp, &rep)
		if !checkpointCleared(s, cp) {
			cleared = false
		}
	}

	if cleared {
		boss := s.Cache.Section.Boss
		switch {
		case boss != nil && !s.Cache.BossSpawned:
			rep.BossSpawned = c.spawnBoss(s, *boss)
		case boss == nil || !s.BossAlive:
			c.completeSection(s, &rep)
			return rep
		}
	}

	c.checkFailure(s, &rep)
	return rep
}

// CheckpointCleared reports whether a checkpoint has spawned its full total
// and none of its enemies are alive.
func CheckpointCleared(s *world.Session, checkpointID string) bool {
	if s.Cache == nil {
		return false
	}
	cp, ok := s.Cache.Checkpoints[checkpointID]
	return ok && checkpointCleared(s, cp)
}

func checkpointCleared(s *world.Session, cp *world.CheckpointState) bool {
	return cp.Exhausted() && liveInCheckpoint(s, cp) == 0
}

func liveInCheckpoint(s *world.Session, cp *world.CheckpointState) int {
	n := 0
	for _, id := range cp.Slots {
		if e, ok := s.Enemies[id]; ok && e.Alive() {
			n++
		}
	}
	return n
}

// fillCheckpoint brings a checkpoint up to its live cap. Dead slots whose
// respawn timer elapsed are reset in place first, then new slots are
// created. Both are bounded by the checkpoint's total spawn count.
func (c *Controller) fillCheckpoint(s *world.Session, cp *world.CheckpointState, rep *Report) {
	live := liveInCheckpoint(s, cp)
	limit := cp.Config.MaxEnemies

	for _, id := range cp.Slots {
		if admit(cp, live) != nil {
			return
		}
		e, ok := s.Enemies[id]
		if !ok || e.Alive() || e.RespawnTimer > 0 {
			continue
		}
		e.Reset()
		cp.Spawned++
		live++
		rep.Respawned = append(rep.Respawned, e.ID)
	}

	for len(cp.Slots) < limit && admit(cp, live) == nil {
		typeID := cp.NextType()
		t, ok := s.Cache.EnemyTypes[typeID]
		if !ok {
			return
		}
		pos := s.Bounds.Clamp(core.V(
			cp.Config.Position.X+(s.Rand.Float64()*2-1)*spawnSpread,
			cp.Config.Position.Y+(s.Rand.Float64()*2-1)*spawnSpread,
		))
		e := world.NewEnemy(s.NextID("enemy"), t, s.Cache.Section.EnemyLevel, s.Cache.Scaling, pos)
		e.CheckpointID = cp.Config.ID
		e.SectionID = s.CurrentSectionID
		e.RespawnDelay = s.Cache.RespawnDelay(typeID)
		s.Enemies[e.ID] = e
		cp.Slots = append(cp.Slots, e.ID)
		cp.Spawned++
		live++
		rep.Spawned = append(rep.Spawned, e.ID)
	}
}

// admit reports whether cp may hold one more living enemy.
func admit(cp *world.CheckpointState, live int) error {
	if live >= cp.Config.MaxEnemies || cp.Exhausted() {
		return world.ErrCapacityExceeded
	}
	return nil
}

func (c *Controller) spawnBoss(s *world.Session, boss config.Boss) string {
	s.Cache.BossSpawned = true
	t, ok := s.Cache.EnemyTypes[boss.TypeID]
	if !ok {
		return ""
	}
	level := boss.Level
	if level <= 0 {
		level = s.Cache.Section.EnemyLevel
	}
	pos := s.Bounds.Clamp(core.V(boss.Position.X, boss.Position.Y))
	e := world.NewEnemy(s.NextID("boss"), t, level, s.Cache.Scaling, pos)
	e.IsBoss = true
	e.SectionID = s.CurrentSectionID
	s.Enemies[e.ID] = e
	s.BossID = e.ID
	s.BossAlive = true
	return e.ID
}

func (c *Controller) completeSection(s *world.Session, rep *Report) {
	done := s.CurrentSectionID
	s.CompletedSections = append(s.CompletedSections, done)
	rep.SectionCompleted = done

	next, ok := c.world.NextSection(done)
	if !ok {
		s.Status = world.StatusCompleted
		rep.Ended = true
		return
	}
	started, err := c.BeginSection(s, next)
	if err != nil {
		// Validated configs always resolve their sections.
		s.Status = world.StatusFailed
		rep.Ended = true
		return
	}
	rep.SectionStarted = started.SectionStarted
	rep.Spawned = append(rep.Spawned, started.Spawned...)
}

// checkFailure fails the session once every player has been dead for the
// configured grace period.
func (c *Controller) checkFailure(s *world.Session, rep *Report) {
	if len(s.Players) == 0 || len(s.LivingPlayers()) > 0 {
		s.AllDeadSince = 0
		return
	}
	if s.AllDeadSince == 0 {
		s.AllDeadSince = max(s.Tick, 1)
	}
	grace := s.Runtime.TicksFor(c.world.Combat.FailureGrace)
	if s.Tick >= s.AllDeadSince && s.Tick-s.AllDeadSince >= grace {
		s.Status = world.StatusFailed
		rep.Ended = true
	}
}
