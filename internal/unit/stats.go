package unit

import (
	"time"

	"lanefall/internal/world"
	"lanefall/unitdefs"
)

// Stats holds the derived runtime numbers for one unit at its current
// level. Recomputed from the archetype whenever the level changes.
type Stats struct {
	AttackRange    float64
	AttackCooldown time.Duration
	Accuracy       float64
	Damage         float64
	MaxHealth      float64
	MoveSpeed      float64
	Vulnerability  float64
}

// DeriveStats scales archetype stats to the given level.
func DeriveStats(archetype unitdefs.Archetype, level int) Stats {
	return Stats{
		AttackRange:    archetype.AttackRange.At(level),
		AttackCooldown: time.Duration(archetype.AttackCooldownS.At(level) * float64(time.Second)),
		Accuracy:       world.Clamp01(archetype.Accuracy.At(level)),
		Damage:         archetype.Damage.At(level),
		MaxHealth:      archetype.MaxHealth.At(level),
		MoveSpeed:      archetype.MoveSpeed.At(level),
		Vulnerability:  world.Clamp01(archetype.Vulnerability.At(level)),
	}
}
