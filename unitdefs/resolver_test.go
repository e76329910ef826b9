package unitdefs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	catalog, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"archer", "footman", "vanguard"}
	got := catalog.IDs()
	if len(got) != len(want) {
		t.Fatalf("IDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("IDs = %v, want %v", got, want)
		}
	}
	archer, ok := catalog.Get("archer")
	if !ok {
		t.Fatal("archer missing from embedded defaults")
	}
	if archer.Strategy != StrategyRanged {
		t.Fatalf("archer strategy = %q", archer.Strategy)
	}
	if _, ok := catalog.Get("nonexistent"); ok {
		t.Fatal("lookup of unknown archetype succeeded")
	}
}

func TestLoadFileOverridesEmbeddedByID(t *testing.T) {
	path := writeCatalog(t, `{
  "archetypes": [
    {
      "id": "footman",
      "name": "Heavy Footman",
      "strategy": "melee",
      "agentRadius": 0.5,
      "attackRange": { "base": 2.5 },
      "attackCooldownSeconds": { "base": 1.0 },
      "accuracy": { "base": 0.9 },
      "damage": { "base": 20 },
      "maxHealth": { "base": 150 },
      "moveSpeed": { "base": 3.0 },
      "vulnerability": { "base": 0.15 }
    }
  ]
}`)
	catalog, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if catalog.Len() != 3 {
		t.Fatalf("Len = %d, want 3 (override replaces, not appends)", catalog.Len())
	}
	footman, ok := catalog.Get("footman")
	if !ok {
		t.Fatal("footman missing")
	}
	if footman.Name != "Heavy Footman" {
		t.Fatalf("footman not overridden: name = %q", footman.Name)
	}
	if footman.Damage.Base != 20 {
		t.Fatalf("footman damage = %v", footman.Damage.Base)
	}
	if _, ok := catalog.Get("archer"); !ok {
		t.Fatal("untouched embedded archetypes should survive an override file")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeCatalog(t, `{
  "archetypes": [],
  "extraField": true
}`)
	if _, err := Load(path); err == nil {
		t.Fatal("unknown field accepted")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing catalog file accepted")
	}
}

func TestLoadRejectsDuplicateIDsInOneFile(t *testing.T) {
	single := `{
      "id": "twin",
      "name": "Twin",
      "strategy": "melee",
      "agentRadius": 0.5,
      "attackRange": { "base": 2 },
      "attackCooldownSeconds": { "base": 1 },
      "accuracy": { "base": 0.8 },
      "damage": { "base": 10 },
      "maxHealth": { "base": 100 },
      "moveSpeed": { "base": 3 },
      "vulnerability": { "base": 0.1 }
    }`
	path := writeCatalog(t, `{"archetypes": [`+single+`, `+single+`]}`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err = %v, want duplicate archetype error", err)
	}
}

func TestValidateRejectsBadArchetypes(t *testing.T) {
	valid := func() Archetype {
		return Archetype{
			ID:              "scout",
			Name:            "Scout",
			Strategy:        StrategyRanged,
			AgentRadius:     0.4,
			AttackRange:     Stat{Base: 7},
			AttackCooldownS: Stat{Base: 1.4},
			Accuracy:        Stat{Base: 0.7},
			Damage:          Stat{Base: 8},
			MaxHealth:       Stat{Base: 60},
			MoveSpeed:       Stat{Base: 4.2},
			Vulnerability:   Stat{Base: 0.1},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Archetype)
	}{
		{"missing id", func(a *Archetype) { a.ID = "" }},
		{"uppercase id", func(a *Archetype) { a.ID = "Scout" }},
		{"missing name", func(a *Archetype) { a.Name = "" }},
		{"unknown strategy", func(a *Archetype) { a.Strategy = "siege" }},
		{"zero radius", func(a *Archetype) { a.AgentRadius = 0 }},
		{"zero range", func(a *Archetype) { a.AttackRange = Stat{} }},
		{"cooldown hits zero at max level", func(a *Archetype) { a.AttackCooldownS = Stat{Base: 1, PerLevel: -0.5} }},
		{"accuracy exceeds one at max level", func(a *Archetype) { a.Accuracy = Stat{Base: 0.9, PerLevel: 0.2} }},
		{"negative damage", func(a *Archetype) { a.Damage = Stat{Base: -3} }},
		{"vulnerability out of range", func(a *Archetype) { a.Vulnerability = Stat{Base: 1.2} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			archetype := valid()
			tc.mutate(&archetype)
			if err := archetype.Validate(); err == nil {
				t.Fatal("invalid archetype accepted")
			}
		})
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid archetype rejected: %v", err)
	}
}

func TestStatAtClampsLevel(t *testing.T) {
	stat := Stat{Base: 10, PerLevel: 0.5}
	if got := stat.At(1); got != 10 {
		t.Fatalf("At(1) = %v", got)
	}
	if got := stat.At(2); got != 15 {
		t.Fatalf("At(2) = %v", got)
	}
	if stat.At(0) != stat.At(MinLevel) {
		t.Fatal("below-band level not clamped")
	}
	if stat.At(99) != stat.At(MaxLevel) {
		t.Fatal("above-band level not clamped")
	}
}
