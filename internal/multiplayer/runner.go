package multiplayer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vovakirdan/coop-arena/internal/combat"
	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/progression"
	"github.com/vovakirdan/coop-arena/internal/world"
)

// sessionRunner owns one session's state and its tick loop.
type sessionRunner struct {
	id string

	mu         sync.Mutex
	state      *world.Session
	emptySince time.Time // zero while a player is connected

	// Input slots: playerID -> *inputSlot. Written by QueueInput without
	// taking mu, drained by the tick.
	inputs sync.Map

	stop     chan struct{}
	stopOnce sync.Once
	endOnce  sync.Once
}

func newSessionRunner(s *world.Session) *sessionRunner {
	return &sessionRunner{
		id:         s.ID,
		state:      s,
		emptySince: time.Now(),
		stop:       make(chan struct{}),
	}
}

// inputSlot holds the latest pending frame of one player.
type inputSlot struct {
	frame atomic.Pointer[core.InputFrame]
}

// offer stores f unless a frame with the same or a higher sequence is
// already pending. Last write wins among increasing sequences.
func (s *inputSlot) offer(f core.InputFrame) bool {
	for {
		cur := s.frame.Load()
		if cur != nil && cur.Seq >= f.Seq {
			return false
		}
		if s.frame.CompareAndSwap(cur, &f) {
			return true
		}
	}
}

// take removes and returns the pending frame.
func (s *inputSlot) take() *core.InputFrame {
	return s.frame.Swap(nil)
}

func (r *sessionRunner) slot(playerID string) (*inputSlot, bool) {
	v, ok := r.inputs.Load(playerID)
	if !ok {
		return nil, false
	}
	return v.(*inputSlot), true
}

func (r *sessionRunner) addSlot(playerID string) {
	r.inputs.LoadOrStore(playerID, &inputSlot{})
}

func (r *sessionRunner) removeSlot(playerID string) {
	r.inputs.Delete(playerID)
}

func (r *sessionRunner) stopLoop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

// tickOutcome is everything a tick produced that must be handled after the
// session lock is released.
type tickOutcome struct {
	snapshot  world.Snapshot
	produced  bool
	events    []Event
	ended     bool
	result    SessionResultData
	profiles  []ProfileData
	inputErrs []error
	errs      []error
}

// step advances the session by one tick. The lock is released by defer so a
// panic inside the simulation cannot leave the session locked.
func (c *Coordinator) step(r *sessionRunner, now time.Time) (out tickOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state
	if s.Status.Terminal() {
		out.ended = true
		return out
	}
	s.Tick++

	res := &combat.Result{}
	for _, id := range s.PlayerIDs() {
		slot, ok := r.slot(id)
		if !ok {
			continue
		}
		f := slot.take()
		if f == nil {
			continue
		}
		p := s.Players[id]
		if err := combat.AcceptInput(p, *f); err != nil {
			out.inputErrs = append(out.inputErrs, err)
			continue
		}
		c.resolver.StepPlayer(s, p, *f, res)
	}
	c.resolver.StepEnemies(s, res)
	c.resolver.StepProjectiles(s, res)
	c.resolver.AdvanceTimers(s)
	c.progress.ExpireBuffs(s)
	rep := c.progress.Step(s)
	s.BumpVersion()

	out.snapshot = s.Snapshot(now)
	out.produced = true
	out.errs = res.Errors

	if rep.SectionCompleted != "" {
		next := ""
		if !s.Status.Terminal() {
			next = rep.SectionStarted
		}
		out.events = append(out.events, SectionCompletedEvent{SessionID: s.ID, SectionID: rep.SectionCompleted, Next: next})
	}
	if rep.Ended {
		out.ended = true
		out.events = append(out.events, SessionEndedEvent{
			SessionID:         s.ID,
			Status:            s.Status.String(),
			CompletedSections: append([]string(nil), s.CompletedSections...),
			Ticks:             s.Tick,
		})
		out.result = resultOf(s, c.runtime.TickRate)
		out.profiles = collectProfiles(s, true)
	}
	return out
}

// afterStep publishes and persists a tick's outcome outside the lock.
func (c *Coordinator) afterStep(r *sessionRunner, out tickOutcome) {
	for _, err := range out.inputErrs {
		c.logger.Debug("input dropped", "session", r.id, "error", err)
	}
	for _, err := range out.errs {
		c.logger.Warn("entity update failed", "session", r.id, "error", err)
	}
	if out.produced && c.publisher != nil {
		c.publisher.PublishSnapshot(r.id, SnapshotEvent{Snapshot: out.snapshot})
	}
	for _, evt := range out.events {
		c.emit(evt)
	}
	if out.ended && out.produced {
		r.endOnce.Do(func() {
			c.logger.Info("session ended", "session", r.id, "status", out.result.Status, "sections", out.result.SectionsCleared)
			c.saveResult(out.result)
			c.saveProfiles(out.profiles...)
		})
	}
}

// runSession is the authoritative loop of one session.
func (c *Coordinator) runSession(r *sessionRunner) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.runtime.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if c.safeTick(r) {
				return
			}
		case <-r.stop:
			return
		case <-c.done:
			return
		}
	}
}

// safeTick runs one tick and recovers from a panic so that a single broken
// session never takes down the scheduler.
func (c *Coordinator) safeTick(r *sessionRunner) (ended bool) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("session tick panicked", "session", r.id, "panic", rec)
			ended = false
		}
	}()
	out := c.step(r, time.Now())
	c.afterStep(r, out)
	return out.ended
}

func resultOf(s *world.Session, tickRate int) SessionResultData {
	return SessionResultData{
		SessionID:         s.ID,
		Status:            s.Status.String(),
		SectionsCleared:   len(s.CompletedSections),
		CompletedSections: append([]string(nil), s.CompletedSections...),
		Players:           s.PlayerIDs(),
		Ticks:             s.Tick,
		DurationSecs:      int(s.Tick / uint64(max(1, tickRate))), //nolint:gosec // tick rate is clamped positive
	}
}

// collectProfiles returns the progress of dirty players (or all players)
// and clears their dirty flag.
func collectProfiles(s *world.Session, all bool) []ProfileData {
	var out []ProfileData
	for _, id := range s.PlayerIDs() {
		p := s.Players[id]
		if !all && !p.Dirty {
			continue
		}
		out = append(out, profileOf(p))
		p.Dirty = false
	}
	return out
}

func profileOf(p *world.Player) ProfileData {
	pr := progression.SnapshotProgress(p)
	return ProfileData{
		PlayerID: p.ID,
		Name:     p.Name,
		Level:    pr.Level,
		Exp:      pr.Exp,
		Gold:     pr.Gold,
		Skills:   pr.Skills,
	}
}
