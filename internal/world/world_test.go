package world

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/vovakirdan/coop-arena/internal/config"
	"github.com/vovakirdan/coop-arena/internal/core"
)

func newTestPlayer() *Player {
	cfg := config.DefaultWorldConfig()
	return NewPlayer("p1", "alice", cfg.Player, core.V(10, 10))
}

func TestPlayerSetHPClamps(t *testing.T) {
	tests := []struct {
		name string
		hp   int
		want int
		dead bool
	}{
		{"negative", -50, 0, true},
		{"zero", 0, 0, true},
		{"middle", 40, 40, false},
		{"overflow", 1000, 100, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPlayer()
			p.SetHP(tc.hp)
			if p.HP != tc.want {
				t.Errorf("HP = %d, expected %d", p.HP, tc.want)
			}
			if p.Dead != tc.dead {
				t.Errorf("Dead = %v, expected %v", p.Dead, tc.dead)
			}
		})
	}
}

func TestPlayerTakeDamageReduction(t *testing.T) {
	p := newTestPlayer()
	p.Stats.DamageReduction = 0.25

	if got := p.TakeDamage(40); got != 30 {
		t.Errorf("TakeDamage(40) removed %d, expected 30", got)
	}
	if p.HP != 70 {
		t.Errorf("HP = %d, expected 70", p.HP)
	}

	p.TakeDamage(1e12)
	if p.HP != 0 || !p.Dead {
		t.Errorf("expected dead at 0 hp, got hp=%d dead=%v", p.HP, p.Dead)
	}
	if got := p.TakeDamage(10); got != 0 {
		t.Errorf("dead player took %d damage", got)
	}
}

func TestReducedDamage(t *testing.T) {
	tests := []struct {
		amount, reduction float64
		want              int
	}{
		{10, 0, 10},
		{10, 0.5, 5},
		{10, 1.5, 0},
		{10, -1, 10},
		{-5, 0, 0},
	}
	for _, tc := range tests {
		if got := ReducedDamage(tc.amount, tc.reduction); got != tc.want {
			t.Errorf("ReducedDamage(%v, %v) = %d, expected %d", tc.amount, tc.reduction, got, tc.want)
		}
	}
}

func TestBuffExpiryRevertsStat(t *testing.T) {
	p := newTestPlayer()
	base := p.Stats.Damage

	if !p.AddBuff(Buff{Source: "rage", Stat: config.StatDamage, Value: 5, ExpiresAtTick: 10}) {
		t.Fatal("AddBuff() rejected a valid stat")
	}
	if p.Stats.Damage != base+5 {
		t.Errorf("Damage = %v, expected %v", p.Stats.Damage, base+5)
	}
	if expired := p.ExpireBuffs(9); len(expired) != 0 {
		t.Errorf("expected no expiry at tick 9, got %d", len(expired))
	}
	if expired := p.ExpireBuffs(10); len(expired) != 1 {
		t.Errorf("expected one expiry at tick 10, got %d", len(expired))
	}
	if p.Stats.Damage != base {
		t.Errorf("Damage = %v after expiry, expected %v", p.Stats.Damage, base)
	}
	if p.AddBuff(Buff{Stat: "charisma", Value: 1}) {
		t.Error("AddBuff() accepted an unknown stat")
	}
}

func TestMaxHPBuffKeepsInvariant(t *testing.T) {
	p := newTestPlayer()
	p.AddBuff(Buff{Stat: config.StatMaxHP, Value: 50, ExpiresAtTick: 5})
	p.SetHP(150)
	p.ExpireBuffs(5)
	if p.MaxHP != 100 || p.HP != 100 {
		t.Errorf("hp=%d max=%d, expected 100/100", p.HP, p.MaxHP)
	}
}

func TestNegativeMaxHPBuffRevertsExactly(t *testing.T) {
	p := newTestPlayer()
	p.AddBuff(Buff{Stat: config.StatMaxHP, Value: -500, ExpiresAtTick: 5})
	if p.MaxHP != 1 || p.HP != 1 {
		t.Fatalf("during buff hp=%d max=%d, expected 1/1", p.HP, p.MaxHP)
	}
	if got := p.Buffs[0].Applied; got != -99 {
		t.Errorf("Applied = %v, expected -99", got)
	}
	p.ExpireBuffs(5)
	if p.MaxHP != 100 {
		t.Errorf("MaxHP after expiry = %d, expected 100", p.MaxHP)
	}
	if p.HP != 1 {
		t.Errorf("HP after expiry = %d, expected 1", p.HP)
	}
}

func TestEnemyTakeDamage(t *testing.T) {
	cfg := config.DefaultWorldConfig()
	slime, _ := cfg.EnemyType("slime")
	e := NewEnemy("enemy-1", slime, 1, cfg.Scaling, core.V(0, 0))
	e.RespawnDelay = 6

	if dealt, killed := e.TakeDamage(10, "p1"); dealt != 10 || killed {
		t.Errorf("TakeDamage(10) = %d, %v", dealt, killed)
	}
	if dealt, killed := e.TakeDamage(500, "p2"); dealt != 20 || !killed {
		t.Errorf("killing blow = %d, %v; expected 20, true", dealt, killed)
	}
	if e.LastHitBy != "p2" || e.RespawnTimer != 6 {
		t.Errorf("LastHitBy=%q RespawnTimer=%v", e.LastHitBy, e.RespawnTimer)
	}
	if dealt, _ := e.TakeDamage(5, "p1"); dealt != 0 {
		t.Error("dead enemy should not take damage")
	}

	e.Reset()
	if !e.Alive() || e.HP != e.MaxHP || e.LastHitBy != "" {
		t.Error("Reset() should restore a fresh enemy")
	}
}

func TestNextIDNeverRepeats(t *testing.T) {
	cfg := config.DefaultWorldConfig()
	s := NewSession("s1", &cfg, core.DefaultConfig())
	seen := make(map[string]bool)
	for range 100 {
		id := s.NextID("enemy")
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestSectionCacheCopiesConfig(t *testing.T) {
	cfg := config.DefaultWorldConfig()
	c, err := NewSectionCache(&cfg, "keep")
	if err != nil {
		t.Fatalf("NewSectionCache() failed: %v", err)
	}
	cfg.Sections[1].Checkpoints[0].EnemyTypes[0] = "changed"
	cp := c.Checkpoints[c.Order[0]]
	if cp.Config.EnemyTypes[0] == "changed" {
		t.Error("cache should not alias configuration slices")
	}
	if _, ok := c.EnemyTypes["ogre"]; !ok {
		t.Error("boss type should be cached")
	}
	if _, err := NewSectionCache(&cfg, "nowhere"); err == nil {
		t.Error("expected error for unknown section")
	}
}

func sampleSnapshot() Snapshot {
	cfg := config.DefaultWorldConfig()
	s := NewSession("s1", &cfg, core.DefaultConfig())
	s.Version = 42
	s.Tick = 40
	s.CurrentSectionID = "keep"
	s.CompletedSections = []string{"meadow"}

	p := NewPlayer("p1", "alice", cfg.Player, core.V(12.5, 20))
	p.LastInputSeq = 7
	p.Connected = true
	s.Players[p.ID] = p

	slime, _ := cfg.EnemyType("slime")
	e := NewEnemy("enemy-1", slime, 3, cfg.Scaling, core.V(300, 200))
	s.Enemies[e.ID] = e

	s.Projectiles["proj-2"] = &Projectile{ID: "proj-2", OwnerID: "p1", Pos: core.V(1, 2), Dir: core.V(1, 0)}
	return s.Snapshot(time.UnixMilli(1700000000000))
}

func TestSnapshotForPlayer(t *testing.T) {
	snap := sampleSnapshot()
	if got := snap.ForPlayer("p1").ConfirmedInputSequence; got != 7 {
		t.Errorf("ConfirmedInputSequence = %d, expected 7", got)
	}
	if got := snap.ForPlayer("ghost").ConfirmedInputSequence; got != 0 {
		t.Errorf("unknown player ConfirmedInputSequence = %d, expected 0", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := sampleSnapshot().ForPlayer("p1")

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(snap)
		if err != nil {
			t.Fatalf("Marshal() failed: %v", err)
		}
		var got Snapshot
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal() failed: %v", err)
		}
		if !reflect.DeepEqual(got, snap) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, snap)
		}
	})

	t.Run("msgpack", func(t *testing.T) {
		data, err := msgpack.Marshal(snap)
		if err != nil {
			t.Fatalf("Marshal() failed: %v", err)
		}
		var got Snapshot
		if err := msgpack.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal() failed: %v", err)
		}
		if !reflect.DeepEqual(got, snap) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, snap)
		}
	})
}
