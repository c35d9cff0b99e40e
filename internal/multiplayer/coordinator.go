package multiplayer

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/coop-arena/internal/combat"
	"github.com/vovakirdan/coop-arena/internal/config"
	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/progression"
	"github.com/vovakirdan/coop-arena/internal/world"
)

// Coordinator manages sessions and their tick loops.
type Coordinator struct {
	config   CoordinatorConfig
	world    *config.WorldConfig
	runtime  core.RuntimeConfig
	resolver *combat.Resolver
	progress *progression.Controller
	logger   *log.Logger

	profiles  ProfileStore // Optional, can be nil
	results   ResultSaver  // Optional, can be nil
	publisher Publisher    // Optional, can be nil

	mu            sync.RWMutex
	sessions      map[string]*sessionRunner
	playerSession map[string]string // playerID -> sessionID
	running       bool

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCoordinator creates a new coordinator. A nil logger discards output.
func NewCoordinator(cfg CoordinatorConfig, wc *config.WorldConfig, logger *log.Logger) *Coordinator {
	def := DefaultCoordinatorConfig()
	if cfg.TickRate <= 0 {
		cfg.TickRate = def.TickRate
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = def.CleanupPeriod
	}
	if cfg.FlushPeriod <= 0 {
		cfg.FlushPeriod = def.FlushPeriod
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}
	if cfg.EmptySessionTTL < 0 {
		cfg.EmptySessionTTL = 0
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Coordinator{
		config: cfg,
		world:  wc,
		runtime: core.RuntimeConfig{
			TickRate: cfg.TickRate,
			WorldW:   wc.World.Width,
			WorldH:   wc.World.Height,
			Seed:     cfg.Seed,
		},
		resolver:      combat.NewResolver(wc, nil),
		progress:      progression.NewController(wc),
		logger:        logger.WithPrefix("coordinator"),
		sessions:      make(map[string]*sessionRunner),
		playerSession: make(map[string]string),
		events:        make(chan Event, cfg.EventBuffer),
		done:          make(chan struct{}),
	}
}

// SetProfileStore sets the optional player progression store.
func (c *Coordinator) SetProfileStore(store ProfileStore) {
	c.profiles = store
}

// SetResultSaver sets the optional session result saver.
func (c *Coordinator) SetResultSaver(saver ResultSaver) {
	c.results = saver
}

// SetPublisher sets the receiver of per-tick snapshots.
func (c *Coordinator) SetPublisher(p Publisher) {
	c.publisher = p
}

// World returns the world configuration sessions are built from.
func (c *Coordinator) World() *config.WorldConfig {
	return c.world
}

// Events returns discrete session events (joins, level-ups, section and
// session ends). Events are dropped when nobody reads them.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Start launches the tick loop of every session and the background
// cleanup and flush loops.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	for _, r := range c.sessions {
		c.wg.Add(1)
		go c.runSession(r)
	}
	c.mu.Unlock()

	c.wg.Add(2)
	go c.cleanupLoop()
	go c.flushLoop()
	c.logger.Info("started", "tick_rate", c.config.TickRate)
}

// Stop shuts down every loop and flushes player progress.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.wg.Wait()
		c.flushAll()
		c.logger.Info("stopped")
	})
}

// CreateSession creates a session in its first section and returns its id.
func (c *Coordinator) CreateSession() (string, error) {
	id := uuid.NewString()
	s := world.NewSession(id, c.world, c.runtime)
	if err := c.progress.Start(s); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	r := newSessionRunner(s)

	c.mu.Lock()
	c.sessions[id] = r
	if c.running {
		c.wg.Add(1)
		go c.runSession(r)
	}
	c.mu.Unlock()

	c.logger.Info("session created", "session", id, "section", s.CurrentSectionID)
	return id, nil
}

func (c *Coordinator) runner(sessionID string) (*sessionRunner, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, world.ErrSessionNotFound)
	}
	return r, nil
}

// PlayerSession returns the session a player currently belongs to.
func (c *Coordinator) PlayerSession(playerID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.playerSession[playerID]
	return id, ok
}

// JoinSession adds a player to a session, or reconnects a player that is
// already in it. A player can be in one session at a time; joining another
// leaves the previous one. Stored progress is applied to new players.
func (c *Coordinator) JoinSession(sessionID, playerID, name string) (world.Snapshot, error) {
	if playerID == "" {
		return world.Snapshot{}, fmt.Errorf("empty player id: %w", world.ErrInvalidInput)
	}
	r, err := c.runner(sessionID)
	if err != nil {
		return world.Snapshot{}, err
	}

	if prev, ok := c.PlayerSession(playerID); ok && prev != sessionID {
		if err := c.LeaveSession(prev, playerID); err != nil &&
			!errors.Is(err, world.ErrSessionNotFound) && !errors.Is(err, world.ErrPlayerNotFound) {
			c.logger.Warn("leave previous session failed", "session", prev, "player", playerID, "error", err)
		}
	}

	profile, found := c.loadProfile(playerID)

	r.mu.Lock()
	s := r.state
	if s.Status.Terminal() {
		r.mu.Unlock()
		return world.Snapshot{}, fmt.Errorf("session %s is %s: %w", sessionID, s.Status, world.ErrSessionEnded)
	}
	p, rejoin := s.Players[playerID]
	if !rejoin {
		p = c.progress.NewPlayer(s, playerID, name)
		if found {
			c.progress.ApplyProgress(p, progression.Progress{
				Level:  profile.Level,
				Exp:    profile.Exp,
				Gold:   profile.Gold,
				Skills: profile.Skills,
			})
			if name == "" {
				p.Name = profile.Name
			}
		}
		s.Players[playerID] = p
		r.addSlot(playerID)
	}
	if name != "" {
		p.Name = name
	}
	if p.Name == "" {
		p.Name = playerID
	}
	p.Connected = true
	r.emptySince = time.Time{}
	s.BumpVersion()
	snap := s.Snapshot(time.Now()).ForPlayer(playerID)
	var fresh []ProfileData
	if !rejoin && !found {
		fresh = append(fresh, profileOf(p))
	}
	pname := p.Name
	r.mu.Unlock()

	c.mu.Lock()
	c.playerSession[playerID] = sessionID
	c.mu.Unlock()

	c.saveProfiles(fresh...)
	c.logger.Info("player joined", "session", sessionID, "player", playerID, "rejoin", rejoin)
	c.emit(PlayerJoinedEvent{SessionID: sessionID, PlayerID: playerID, Name: pname})
	return snap, nil
}

// LeaveSession removes a player from a session and saves its progress.
func (c *Coordinator) LeaveSession(sessionID, playerID string) error {
	r, err := c.runner(sessionID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	s := r.state
	p, ok := s.Players[playerID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("player %s in session %s: %w", playerID, sessionID, world.ErrPlayerNotFound)
	}
	data := profileOf(p)
	delete(s.Players, playerID)
	r.removeSlot(playerID)
	s.BumpVersion()
	r.mu.Unlock()

	c.mu.Lock()
	if c.playerSession[playerID] == sessionID {
		delete(c.playerSession, playerID)
	}
	c.mu.Unlock()

	c.saveProfiles(data)
	c.logger.Info("player left", "session", sessionID, "player", playerID)
	c.emit(PlayerLeftEvent{SessionID: sessionID, PlayerID: playerID})
	return nil
}

// Disconnect marks a player as disconnected. The entity stays in the world
// so the player can rejoin with the same id.
func (c *Coordinator) Disconnect(sessionID, playerID string) error {
	r, err := c.runner(sessionID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	s := r.state
	p, ok := s.Players[playerID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("player %s in session %s: %w", playerID, sessionID, world.ErrPlayerNotFound)
	}
	p.Connected = false
	var dirty []ProfileData
	if p.Dirty {
		dirty = append(dirty, profileOf(p))
		p.Dirty = false
	}
	s.BumpVersion()
	r.mu.Unlock()

	c.saveProfiles(dirty...)
	c.logger.Info("player disconnected", "session", sessionID, "player", playerID)
	c.emit(PlayerLeftEvent{SessionID: sessionID, PlayerID: playerID, Disconnected: true})
	return nil
}

// DestroySession stops a session's loop, saves its players and forgets it.
func (c *Coordinator) DestroySession(sessionID string) error {
	c.mu.Lock()
	r, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("session %s: %w", sessionID, world.ErrSessionNotFound)
	}
	delete(c.sessions, sessionID)
	for pid, sid := range c.playerSession {
		if sid == sessionID {
			delete(c.playerSession, pid)
		}
	}
	c.mu.Unlock()

	r.stopLoop()

	r.mu.Lock()
	data := collectProfiles(r.state, true)
	r.mu.Unlock()

	c.saveProfiles(data...)
	c.logger.Info("session destroyed", "session", sessionID)
	return nil
}

// QueueInput stores a player's latest input frame for the next tick.
// It never blocks on the session lock. A frame whose sequence is not newer
// than the pending one is rejected with ErrStaleRequest.
func (c *Coordinator) QueueInput(sessionID, playerID string, frame core.InputFrame) error {
	if !frame.Valid() {
		return fmt.Errorf("input from %s: %w", playerID, world.ErrInvalidInput)
	}
	r, err := c.runner(sessionID)
	if err != nil {
		return err
	}
	slot, ok := r.slot(playerID)
	if !ok {
		return fmt.Errorf("player %s in session %s: %w", playerID, sessionID, world.ErrPlayerNotFound)
	}
	if !slot.offer(frame) {
		return fmt.Errorf("input seq %d from %s: %w", frame.Seq, playerID, world.ErrStaleRequest)
	}
	return nil
}

// Tick advances one session by a single tick outside its loop.
func (c *Coordinator) Tick(sessionID string) error {
	r, err := c.runner(sessionID)
	if err != nil {
		return err
	}
	out := c.step(r, time.Now())
	c.afterStep(r, out)
	return nil
}

// GetSessionSnapshot returns the current state of a session.
func (c *Coordinator) GetSessionSnapshot(sessionID string) (world.Snapshot, error) {
	r, err := c.runner(sessionID)
	if err != nil {
		return world.Snapshot{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Snapshot(time.Now()), nil
}

// Sessions lists live sessions ordered by creation time.
func (c *Coordinator) Sessions() []SessionSummary {
	c.mu.RLock()
	runners := make([]*sessionRunner, 0, len(c.sessions))
	for _, r := range c.sessions {
		runners = append(runners, r)
	}
	c.mu.RUnlock()

	out := make([]SessionSummary, 0, len(runners))
	for _, r := range runners {
		r.mu.Lock()
		s := r.state
		out = append(out, SessionSummary{
			ID:        s.ID,
			Status:    s.Status.String(),
			SectionID: s.CurrentSectionID,
			Players:   len(s.Players),
			Connected: s.ConnectedCount(),
			Enemies:   s.LiveEnemies(),
			Version:   s.Version,
			Tick:      s.Tick,
			CreatedAt: s.CreatedAt,
		})
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SessionCount returns the number of live sessions.
func (c *Coordinator) SessionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

func (c *Coordinator) emit(evt Event) {
	select {
	case c.events <- evt:
	default:
		c.logger.Debug("event dropped", "type", fmt.Sprintf("%T", evt))
	}
}

func (c *Coordinator) cleanupLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			c.cleanupIdle(now)
		case <-c.done:
			return
		}
	}
}

// cleanupIdle destroys sessions that have had no connected player, or have
// ended, for longer than EmptySessionTTL.
func (c *Coordinator) cleanupIdle(now time.Time) {
	c.mu.RLock()
	runners := make([]*sessionRunner, 0, len(c.sessions))
	for _, r := range c.sessions {
		runners = append(runners, r)
	}
	c.mu.RUnlock()

	for _, r := range runners {
		r.mu.Lock()
		idle := r.state.Status.Terminal() || r.state.ConnectedCount() == 0
		switch {
		case !idle:
			r.emptySince = time.Time{}
		case r.emptySince.IsZero():
			r.emptySince = now
		}
		expired := idle && now.Sub(r.emptySince) >= c.config.EmptySessionTTL
		r.mu.Unlock()

		if expired {
			if err := c.DestroySession(r.id); err != nil && !errors.Is(err, world.ErrSessionNotFound) {
				c.logger.Warn("destroy idle session failed", "session", r.id, "error", err)
			}
		}
	}
}

func (c *Coordinator) flushLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.config.FlushPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flushAll()
		case <-c.done:
			return
		}
	}
}

// flushAll saves the progress of every dirty player.
func (c *Coordinator) flushAll() {
	if c.profiles == nil {
		return
	}
	c.mu.RLock()
	runners := make([]*sessionRunner, 0, len(c.sessions))
	for _, r := range c.sessions {
		runners = append(runners, r)
	}
	c.mu.RUnlock()

	for _, r := range runners {
		r.mu.Lock()
		data := collectProfiles(r.state, false)
		r.mu.Unlock()
		c.saveProfiles(data...)
	}
}

func (c *Coordinator) loadProfile(playerID string) (ProfileData, bool) {
	if c.profiles == nil {
		return ProfileData{}, false
	}
	p, ok, err := c.profiles.LoadProfile(playerID)
	if err != nil {
		c.logger.Warn("load profile failed", "player", playerID, "error", err)
		return ProfileData{}, false
	}
	return p, ok
}

func (c *Coordinator) saveProfiles(data ...ProfileData) {
	if c.profiles == nil {
		return
	}
	for _, d := range data {
		if err := c.profiles.SaveProfile(d); err != nil {
			c.logger.Error("save profile failed", "player", d.PlayerID, "error", err)
		}
	}
}

func (c *Coordinator) saveResult(res SessionResultData) {
	if c.results == nil {
		return
	}
	if err := c.results.SaveSessionResult(res); err != nil {
		c.logger.Error("save session result failed", "session", res.SessionID, "error", err)
	}
}
