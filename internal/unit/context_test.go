package unit

import (
	"testing"

	"lanefall/internal/world"
	"lanefall/unitdefs"
)

func testArchetype() unitdefs.Archetype {
	return unitdefs.Archetype{
		ID:              "test-footman",
		Name:            "Test Footman",
		Strategy:        unitdefs.StrategyMelee,
		AgentRadius:     0.5,
		AttackRange:     unitdefs.Stat{Base: 2},
		AttackCooldownS: unitdefs.Stat{Base: 1.2},
		Accuracy:        unitdefs.Stat{Base: 0.8, PerLevel: 0.05},
		Damage:          unitdefs.Stat{Base: 10, PerLevel: 0.25},
		MaxHealth:       unitdefs.Stat{Base: 100, PerLevel: 0.5},
		MoveSpeed:       unitdefs.Stat{Base: 3.5},
		Vulnerability:   unitdefs.Stat{Base: 0.2},
	}
}

func newTestUnit(t *testing.T, level int) *Context {
	t.Helper()
	return NewContext("unit-1", 1, 0, level, testArchetype(), nil, nil)
}

func TestNewContextStartsAtFullHealth(t *testing.T) {
	u := newTestUnit(t, 1)
	if u.Health != u.Stats.MaxHealth {
		t.Fatalf("health = %v, max = %v", u.Health, u.Stats.MaxHealth)
	}
	if !u.Alive() {
		t.Fatal("fresh unit not alive")
	}
	if u.SavedStoppingDistance != StoppingDistanceNotSaved {
		t.Fatalf("SavedStoppingDistance = %v, want sentinel", u.SavedStoppingDistance)
	}
	if u.Scope().Err() != nil {
		t.Fatal("fresh scope already canceled")
	}
}

func TestSetLevelRecomputesStats(t *testing.T) {
	u := newTestUnit(t, 1)
	base := u.Stats
	u.SetLevel(3)
	if u.Level != 3 {
		t.Fatalf("level = %d", u.Level)
	}
	if u.Stats.Damage <= base.Damage {
		t.Fatalf("damage did not scale: %v -> %v", base.Damage, u.Stats.Damage)
	}
	if u.Stats.MaxHealth <= base.MaxHealth {
		t.Fatalf("max health did not scale: %v -> %v", base.MaxHealth, u.Stats.MaxHealth)
	}
	// Stats without growth stay flat.
	if u.Stats.AttackRange != base.AttackRange {
		t.Fatalf("flat stat changed: %v -> %v", base.AttackRange, u.Stats.AttackRange)
	}
}

func TestSetLevelClampsToBand(t *testing.T) {
	u := newTestUnit(t, 99)
	if u.Level != unitdefs.MaxLevel {
		t.Fatalf("level = %d, want %d", u.Level, unitdefs.MaxLevel)
	}
	u.SetLevel(-4)
	if u.Level != unitdefs.MinLevel {
		t.Fatalf("level = %d, want %d", u.Level, unitdefs.MinLevel)
	}
}

func TestSetLevelPreservesHealthUpToNewMax(t *testing.T) {
	u := newTestUnit(t, 3)
	u.Health = u.Stats.MaxHealth // 200 at level 3
	u.SetLevel(1)
	if u.Health != u.Stats.MaxHealth {
		t.Fatalf("health %v should clamp to new max %v", u.Health, u.Stats.MaxHealth)
	}

	u = newTestUnit(t, 1)
	u.Health = 40
	u.SetLevel(2)
	if u.Health != 40 {
		t.Fatalf("partial health changed on level-up: %v", u.Health)
	}
}

func TestApplyDamageClampsAtZero(t *testing.T) {
	u := newTestUnit(t, 1)
	u.ApplyDamage(30)
	if u.Health != 70 {
		t.Fatalf("health = %v, want 70", u.Health)
	}
	u.ApplyDamage(500)
	if u.Health != 0 {
		t.Fatalf("health = %v, want 0", u.Health)
	}
	if u.Alive() {
		t.Fatal("unit with zero health reported alive")
	}
}

func TestApplyDamageIgnoresNonPositive(t *testing.T) {
	u := newTestUnit(t, 1)
	u.ApplyDamage(0)
	u.ApplyDamage(-5)
	if u.Health != u.Stats.MaxHealth {
		t.Fatalf("health = %v after zero/negative damage", u.Health)
	}
}

func TestMarkDeadIdempotentAndCancelsScope(t *testing.T) {
	u := newTestUnit(t, 1)
	u.MarkDead()
	if u.Alive() {
		t.Fatal("dead unit reported alive")
	}
	if u.Scope().Err() == nil {
		t.Fatal("scope not canceled on death")
	}
	u.ApplyDamage(10)
	if u.Health != 0 {
		t.Fatalf("dead unit took damage: health = %v", u.Health)
	}
	u.MarkDead() // must not panic or double-cancel
}

func TestEffectiveVulnerabilityWithCover(t *testing.T) {
	u := newTestUnit(t, 1)
	if got := u.EffectiveVulnerability(); got != 0.2 {
		t.Fatalf("base effective vulnerability = %v", got)
	}

	cover := &world.Cover{ID: "c1", Protection: 0.5}
	u.CurrentCover = cover
	// Cover only counts once the unit actually occupies it.
	if got := u.EffectiveVulnerability(); got != 0.2 {
		t.Fatalf("unoccupied cover counted: %v", got)
	}
	cover.Occupant = u.ID
	if got := u.EffectiveVulnerability(); got != 0.7 {
		t.Fatalf("effective vulnerability with cover = %v, want 0.7", got)
	}

	cover.Protection = 0.95
	if got := u.EffectiveVulnerability(); got != 1 {
		t.Fatalf("effective vulnerability should clamp at 1, got %v", got)
	}
}

func TestNilReceiversAreSafe(t *testing.T) {
	var u *Context
	if u.Alive() {
		t.Fatal("nil unit reported alive")
	}
	if u.Position() != (world.Vec3{}) {
		t.Fatal("nil unit position not zero")
	}
	u.ApplyDamage(5)
	u.MarkDead()
	u.Destroy()
}

func TestDeriveStatsClampsRates(t *testing.T) {
	archetype := testArchetype()
	archetype.Accuracy = unitdefs.Stat{Base: 0.9, PerLevel: 0.5}
	stats := DeriveStats(archetype, 3)
	if stats.Accuracy != 1 {
		t.Fatalf("accuracy = %v, want clamped to 1", stats.Accuracy)
	}
}
