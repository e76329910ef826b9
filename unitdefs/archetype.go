package unitdefs

import (
	"fmt"
	"regexp"
)

// StrategyID selects the combat strategy a unit archetype fights with.
type StrategyID string

const (
	StrategyMelee  StrategyID = "melee"
	StrategyRanged StrategyID = "ranged"
)

const (
	MinLevel = 1
	MaxLevel = 3
)

var idPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Stat is a base value plus a per-level growth factor. The value at level n
// is Base * (1 + PerLevel*(n-1)), so level 1 always equals Base.
type Stat struct {
	Base     float64 `json:"base" jsonschema:"title=Base Value,required"`
	PerLevel float64 `json:"perLevel,omitempty" jsonschema:"title=Per-Level Growth Factor"`
}

// At returns the stat scaled to the given level.
func (s Stat) At(level int) float64 {
	if level < MinLevel {
		level = MinLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return s.Base * (1 + s.PerLevel*float64(level-1))
}

// Archetype is one designer-authored unit definition as it appears in the
// catalog document.
type Archetype struct {
	ID          string     `json:"id" jsonschema:"title=Archetype ID,description=Lowercase-kebab identifier referenced by rosters.,pattern=^[a-z0-9-]+$,minLength=1,required"`
	Name        string     `json:"name" jsonschema:"title=Display Name,required"`
	Strategy    StrategyID `json:"strategy" jsonschema:"title=Combat Strategy,enum=melee,enum=ranged,required"`
	AgentRadius float64    `json:"agentRadius" jsonschema:"title=Agent Radius,required"`

	AttackRange     Stat `json:"attackRange" jsonschema:"title=Attack Range,required"`
	AttackCooldownS Stat `json:"attackCooldownSeconds" jsonschema:"title=Attack Cooldown Seconds,required"`
	Accuracy        Stat `json:"accuracy" jsonschema:"title=Accuracy,required"`
	Damage          Stat `json:"damage" jsonschema:"title=Damage,required"`
	MaxHealth       Stat `json:"maxHealth" jsonschema:"title=Max Health,required"`
	MoveSpeed       Stat `json:"moveSpeed" jsonschema:"title=Move Speed,required"`
	Vulnerability   Stat `json:"vulnerability" jsonschema:"title=Vulnerability,description=Higher means harder to hit.,required"`
}

// Document is the on-disk shape of the archetype catalog. Exported so the
// schema generator can reflect over it.
type Document struct {
	Archetypes []Archetype `json:"archetypes" jsonschema:"title=Unit Archetypes,required"`
}

// Validate checks one archetype for structural problems. Every level in the
// supported band must resolve to sane stat values.
func (a Archetype) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("archetype is missing an id")
	}
	if !idPattern.MatchString(a.ID) {
		return fmt.Errorf("archetype %q: id must be lowercase-kebab", a.ID)
	}
	if a.Name == "" {
		return fmt.Errorf("archetype %q: missing name", a.ID)
	}
	switch a.Strategy {
	case StrategyMelee, StrategyRanged:
	default:
		return fmt.Errorf("archetype %q: unknown strategy %q", a.ID, a.Strategy)
	}
	if a.AgentRadius <= 0 {
		return fmt.Errorf("archetype %q: agentRadius must be positive", a.ID)
	}
	for level := MinLevel; level <= MaxLevel; level++ {
		if a.AttackRange.At(level) <= 0 {
			return fmt.Errorf("archetype %q: attackRange must stay positive at level %d", a.ID, level)
		}
		if a.AttackCooldownS.At(level) <= 0 {
			return fmt.Errorf("archetype %q: attackCooldownSeconds must stay positive at level %d", a.ID, level)
		}
		if acc := a.Accuracy.At(level); acc < 0 || acc > 1 {
			return fmt.Errorf("archetype %q: accuracy out of [0,1] at level %d", a.ID, level)
		}
		if a.Damage.At(level) <= 0 {
			return fmt.Errorf("archetype %q: damage must stay positive at level %d", a.ID, level)
		}
		if a.MaxHealth.At(level) <= 0 {
			return fmt.Errorf("archetype %q: maxHealth must stay positive at level %d", a.ID, level)
		}
		if a.MoveSpeed.At(level) <= 0 {
			return fmt.Errorf("archetype %q: moveSpeed must stay positive at level %d", a.ID, level)
		}
		if vuln := a.Vulnerability.At(level); vuln < 0 || vuln > 1 {
			return fmt.Errorf("archetype %q: vulnerability out of [0,1] at level %d", a.ID, level)
		}
	}
	return nil
}
