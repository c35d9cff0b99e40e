package combat

import (
	"errors"
	"math"
	"testing"

	"github.com/vovakirdan/coop-arena/internal/config"
	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/world"
)

type fixture struct {
	cfg config.WorldConfig
	s   *world.Session
	r   *Resolver
}

func newFixture() *fixture {
	cfg := config.DefaultWorldConfig()
	s := world.NewSession("s1", &cfg, core.RuntimeConfig{TickRate: 20, Seed: 1})
	return &fixture{cfg: cfg, s: s, r: NewResolver(&cfg, nil)}
}

func (f *fixture) addPlayer(id string, pos core.Vec2) *world.Player {
	p := world.NewPlayer(id, id, f.cfg.Player, pos)
	f.s.Players[id] = p
	return p
}

func (f *fixture) addEnemy(typeID string, pos core.Vec2) *world.Enemy {
	t, ok := f.cfg.EnemyType(typeID)
	if !ok {
		panic("unknown enemy type " + typeID)
	}
	e := world.NewEnemy(f.s.NextID("enemy"), t, 1, f.cfg.Scaling, pos)
	f.s.Enemies[e.ID] = e
	return e
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAcceptInput(t *testing.T) {
	f := newFixture()
	p := f.addPlayer("p1", core.V(100, 100))

	if err := AcceptInput(p, core.InputFrame{}); !errors.Is(err, world.ErrInvalidInput) {
		t.Errorf("seq 0: err = %v, expected ErrInvalidInput", err)
	}
	if err := AcceptInput(p, core.InputFrame{Seq: 1}); err != nil {
		t.Fatalf("AcceptInput(seq 1) failed: %v", err)
	}
	if err := AcceptInput(p, core.InputFrame{Seq: 1}); !errors.Is(err, world.ErrStaleRequest) {
		t.Errorf("duplicate seq: err = %v, expected ErrStaleRequest", err)
	}
	bad := core.InputFrame{Seq: 2, Move: core.V(math.NaN(), 0)}
	if err := AcceptInput(p, bad); !errors.Is(err, world.ErrInvalidInput) {
		t.Errorf("NaN move: err = %v, expected ErrInvalidInput", err)
	}
	if p.LastInputSeq != 1 {
		t.Errorf("LastInputSeq = %d, expected 1", p.LastInputSeq)
	}
}

func TestStepPlayerMovement(t *testing.T) {
	tests := []struct {
		name  string
		start core.Vec2
		move  core.Vec2
		want  core.Vec2
	}{
		{"normalized", core.V(100, 100), core.V(3, 4), core.V(106, 108)},
		{"long vector same speed", core.V(100, 100), core.V(300, 400), core.V(106, 108)},
		{"clamped right edge", core.V(1595, 450), core.V(1, 0), core.V(1600, 450)},
		{"clamped top edge", core.V(500, 2), core.V(0, -1), core.V(500, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			p := f.addPlayer("p1", tc.start)
			f.r.StepPlayer(f.s, p, core.InputFrame{Seq: 1, Move: tc.move}, &Result{})
			if !near(p.Pos.X, tc.want.X) || !near(p.Pos.Y, tc.want.Y) {
				t.Errorf("Pos = %+v, expected %+v", p.Pos, tc.want)
			}
		})
	}
}

func TestDeadPlayerDoesNotMove(t *testing.T) {
	f := newFixture()
	p := f.addPlayer("p1", core.V(100, 100))
	p.SetHP(0)
	f.r.StepPlayer(f.s, p, core.InputFrame{Seq: 1, Move: core.V(1, 0), Actions: core.ActionShoot}, &Result{})
	if p.Pos != core.V(100, 100) || len(f.s.Projectiles) != 0 {
		t.Error("dead player should neither move nor shoot")
	}
}

func TestMeleeArcRangeAndKnockback(t *testing.T) {
	f := newFixture()
	p := f.addPlayer("p1", core.V(100, 100))
	front := f.addEnemy("slime", core.V(140, 100))
	behind := f.addEnemy("slime", core.V(60, 100))
	far := f.addEnemy("slime", core.V(300, 100))

	in := core.InputFrame{Seq: 1, Aim: core.V(1, 0), Actions: core.ActionAttack}
	f.r.StepPlayer(f.s, p, in, &Result{})

	if front.HP != 20 {
		t.Errorf("front HP = %d, expected 20", front.HP)
	}
	if behind.HP != behind.MaxHP || far.HP != far.MaxHP {
		t.Error("enemies outside arc or range should be untouched")
	}
	if !near(front.Pos.X, 170) {
		t.Errorf("front pushed to x=%v, expected 170", front.Pos.X)
	}
	if front.Status != world.EnemyKnockback || front.CanAct() {
		t.Errorf("front status = %v, expected knockback and unable to act", front.Status)
	}

	// Cooldown blocks an immediate second swing.
	f.r.StepPlayer(f.s, p, core.InputFrame{Seq: 2, Aim: core.V(1, 0), Actions: core.ActionAttack}, &Result{})
	if front.HP != 20 {
		t.Errorf("second swing during cooldown dealt damage, HP = %d", front.HP)
	}

	for range 6 {
		f.r.AdvanceTimers(f.s)
	}
	if front.Status != world.EnemyIdle || !front.CanAct() {
		t.Errorf("after knockback time status = %v, CanAct = %v", front.Status, front.CanAct())
	}
	if p.AttackCooldown > 0.1+1e-9 {
		t.Errorf("AttackCooldown = %v, expected about 0.1", p.AttackCooldown)
	}
}

func TestMeleeBonusDamageAndKillCredit(t *testing.T) {
	f := newFixture()
	p := f.addPlayer("p1", core.V(100, 100))
	p.Stats.BonusDamage = 2 // 10 * 3 = 30
	e := f.addEnemy("slime", core.V(130, 100))

	res := &Result{}
	f.r.Melee(f.s, p, core.V(1, 0), res)

	if e.Alive() {
		t.Fatalf("enemy should be dead, HP = %d", e.HP)
	}
	if len(res.Kills) != 1 || res.Kills[0].PlayerID != "p1" || res.Kills[0].TypeID != "slime" {
		t.Errorf("Kills = %+v", res.Kills)
	}
	if p.KillCredits["slime"] != 1 {
		t.Errorf("KillCredits[slime] = %d, expected 1", p.KillCredits["slime"])
	}
}

func TestProjectileHitsOnceAndIsRemoved(t *testing.T) {
	f := newFixture()
	p := f.addPlayer("p1", core.V(100, 100))
	e := f.addEnemy("slime", core.V(200, 100))
	e.DetectRange = 0

	f.r.StepPlayer(f.s, p, core.InputFrame{Seq: 1, Aim: core.V(1, 0), Actions: core.ActionShoot}, &Result{})
	if len(f.s.Projectiles) != 1 {
		t.Fatalf("expected 1 projectile, got %d", len(f.s.Projectiles))
	}

	for range 5 {
		f.r.StepProjectiles(f.s, &Result{})
	}
	if len(f.s.Projectiles) != 0 {
		t.Errorf("projectile should be removed after hit, %d left", len(f.s.Projectiles))
	}
	if e.HP != 20 {
		t.Errorf("enemy HP = %d, expected 20 (exactly one hit)", e.HP)
	}
}

func TestEnemyProjectileIgnoresEnemies(t *testing.T) {
	f := newFixture()
	e := f.addEnemy("archer", core.V(200, 100))
	f.s.Projectiles["proj-x"] = &world.Projectile{
		ID: "proj-x", OwnerID: e.ID, OwnerKind: world.OwnerEnemy,
		Pos: e.Pos, Dir: core.V(0, 1), Speed: 10, Damage: 50, Radius: 6, TTL: 1,
	}
	f.r.StepProjectiles(f.s, &Result{})
	if e.HP != e.MaxHP {
		t.Error("enemy projectile damaged an enemy")
	}
	if len(f.s.Projectiles) != 1 {
		t.Error("projectile should keep flying")
	}
}

func TestProjectileExpires(t *testing.T) {
	f := newFixture()
	f.s.Projectiles["proj-x"] = &world.Projectile{
		ID: "proj-x", OwnerID: "p1", Pos: core.V(800, 450), Dir: core.V(1, 0), Speed: 1, Radius: 1, TTL: 0.1,
	}
	f.r.StepProjectiles(f.s, &Result{})
	if len(f.s.Projectiles) != 1 {
		t.Fatal("projectile removed too early")
	}
	f.r.StepProjectiles(f.s, &Result{})
	if len(f.s.Projectiles) != 0 {
		t.Error("projectile should expire after its TTL")
	}
}

func TestEnemyAI(t *testing.T) {
	t.Run("attacks in range with reduction and cooldown", func(t *testing.T) {
		f := newFixture()
		p := f.addPlayer("p1", core.V(100, 100))
		p.Stats.DamageReduction = 0.2
		e := f.addEnemy("slime", core.V(130, 100))

		f.r.StepEnemies(f.s, &Result{})
		if p.HP != 96 {
			t.Errorf("player HP = %d, expected 96", p.HP)
		}
		if e.Status != world.EnemyAttacking {
			t.Errorf("status = %v, expected attacking", e.Status)
		}
		f.r.StepEnemies(f.s, &Result{})
		if p.HP != 96 {
			t.Errorf("attack during cooldown, HP = %d", p.HP)
		}
	})

	t.Run("chases detected player", func(t *testing.T) {
		f := newFixture()
		f.addPlayer("p1", core.V(100, 100))
		e := f.addEnemy("slime", core.V(300, 100))

		f.r.StepEnemies(f.s, &Result{})
		if e.Status != world.EnemyChasing || !near(e.Pos.X, 296) {
			t.Errorf("status = %v pos = %+v, expected chasing at x=296", e.Status, e.Pos)
		}
	})

	t.Run("idle without target", func(t *testing.T) {
		f := newFixture()
		f.addPlayer("p1", core.V(1500, 800))
		e := f.addEnemy("slime", core.V(300, 100))
		e.Status = world.EnemyChasing

		f.r.StepEnemies(f.s, &Result{})
		if e.Status != world.EnemyIdle || e.TargetID != "" {
			t.Errorf("status = %v target = %q, expected idle", e.Status, e.TargetID)
		}
	})

	t.Run("ranged fires projectile", func(t *testing.T) {
		f := newFixture()
		f.addPlayer("p1", core.V(100, 100))
		f.addEnemy("archer", core.V(250, 100))

		f.r.StepEnemies(f.s, &Result{})
		if len(f.s.Projectiles) != 1 {
			t.Fatalf("expected 1 projectile, got %d", len(f.s.Projectiles))
		}
		for _, pr := range f.s.Projectiles {
			if pr.OwnerKind != world.OwnerEnemy || pr.Dir.X >= 0 {
				t.Errorf("projectile = %+v, expected enemy-owned heading left", pr)
			}
		}
	})

	t.Run("unknown behavior is reported", func(t *testing.T) {
		f := newFixture()
		f.addPlayer("p1", core.V(100, 100))
		e := f.addEnemy("slime", core.V(130, 100))
		e.Behavior = "teleport"

		res := &Result{}
		f.r.StepEnemies(f.s, res)
		if len(res.Errors) != 1 {
			t.Errorf("Errors = %v, expected one", res.Errors)
		}
	})
}

func TestPlayerHPNeverNegativeOverTicks(t *testing.T) {
	f := newFixture()
	p := f.addPlayer("p1", core.V(100, 100))
	p.SetHP(3)
	for i := range 5 {
		f.addEnemy("slime", core.V(110+float64(i), 100))
	}

	res := &Result{}
	for range 40 {
		f.r.StepEnemies(f.s, res)
		f.r.AdvanceTimers(f.s)
		if p.HP < 0 || p.HP > p.MaxHP {
			t.Fatalf("HP = %d out of range", p.HP)
		}
	}
	if !p.Dead || p.HP != 0 {
		t.Errorf("expected dead player at 0 hp, got %d", p.HP)
	}
	if len(res.PlayerDeaths) != 1 {
		t.Errorf("PlayerDeaths = %v, expected exactly one", res.PlayerDeaths)
	}
}
