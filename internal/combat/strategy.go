package combat

import (
	"lanefall/internal/unit"
	"lanefall/unitdefs"
)

// EffectPlayer is a fire-and-forget visual effect. Play restarts the effect
// when already running; the sim never consumes a completion signal.
type EffectPlayer interface {
	Play()
}

// Strategy is the swappable combat specialization a unit fights with. The
// service calls PreAttack just before an attack resolution lands, giving
// specializations a hook for unit-specific visuals.
type Strategy interface {
	PreAttack(u *unit.Context)
}

// MeleeStrategy is the default specialization: no pre-attack effect.
type MeleeStrategy struct{}

func (MeleeStrategy) PreAttack(*unit.Context) {}

// RangedStrategy plays a muzzle effect before each resolution.
type RangedStrategy struct {
	Effect EffectPlayer
}

func (s RangedStrategy) PreAttack(*unit.Context) {
	if s.Effect != nil {
		s.Effect.Play()
	}
}

// StrategyFor maps an archetype's strategy ID to its implementation.
// Unknown IDs fall back to melee.
func StrategyFor(id unitdefs.StrategyID, effect EffectPlayer) Strategy {
	switch id {
	case unitdefs.StrategyRanged:
		return RangedStrategy{Effect: effect}
	default:
		return MeleeStrategy{}
	}
}
