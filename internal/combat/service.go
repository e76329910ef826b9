package combat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"lanefall/internal/telemetry"
	"lanefall/internal/unit"
	"lanefall/internal/world"
)

// DeferFunc schedules fn to run one scheduling step later, owned by the
// given cancellation scope. A canceled owner's fn never runs.
type DeferFunc func(owner context.Context, fn func())

// FloatSource draws uniform samples in [0,1). *rand.Rand satisfies it;
// tests substitute fixed sequences.
type FloatSource interface {
	Float64() float64
}

// Service resolves attack attempts for every unit on a stage. It enforces
// the per-unit cooldown synchronously and defers the damage roll one
// scheduling step so animation and effect triggers register first.
type Service struct {
	deferTask DeferFunc
	rng       FloatSource
	log       zerolog.Logger
	metrics   *telemetry.Instruments

	strategies map[string]Strategy
}

// NewService builds the combat service. rng must be dedicated to combat so
// attack rolls stay deterministic under a fixed seed.
func NewService(deferTask DeferFunc, rng FloatSource, log zerolog.Logger, metrics *telemetry.Instruments) *Service {
	return &Service{
		deferTask:  deferTask,
		rng:        rng,
		log:        log,
		metrics:    metrics,
		strategies: make(map[string]Strategy),
	}
}

// SetStrategy registers the specialization used for a unit's attacks.
// Units without a registered strategy fight melee.
func (s *Service) SetStrategy(unitID string, strategy Strategy) {
	if s == nil || unitID == "" || strategy == nil {
		return
	}
	s.strategies[unitID] = strategy
}

// DropStrategy forgets a destroyed unit's strategy.
func (s *Service) DropStrategy(unitID string) {
	if s == nil {
		return
	}
	delete(s.strategies, unitID)
}

func (s *Service) strategyFor(unitID string) Strategy {
	if strategy, ok := s.strategies[unitID]; ok {
		return strategy
	}
	return MeleeStrategy{}
}

// TryAttack requests one attack attempt at simulation time now. It is a
// no-op while the cooldown has not elapsed or a resolution is already
// pending; otherwise it stamps the attack time, fires the shoot trigger and
// dispatches the deferred resolution.
func (s *Service) TryAttack(u *unit.Context, now time.Time) {
	if s == nil || u == nil || !u.Alive() {
		return
	}
	if !u.LastAttackAt.IsZero() && now.Sub(u.LastAttackAt) < u.Stats.AttackCooldown {
		return
	}
	if u.AttackPending {
		return
	}

	u.LastAttackAt = now
	u.AttackPending = true
	u.Anim.Trigger(unit.TriggerShoot)
	s.strategyFor(u.ID).PreAttack(u)

	target := u.Target
	s.deferTask(u.Scope(), func() {
		s.resolve(u, target)
	})
}

// resolve runs one scheduling step after TryAttack. The target may have
// died, moved or released cover in the meantime, so everything is
// re-validated here.
func (s *Service) resolve(attacker, target *unit.Context) {
	attacker.AttackPending = false
	if !attacker.Alive() {
		return
	}
	if target == nil || !target.Alive() {
		return
	}

	chance := attacker.Stats.Accuracy * (1 - world.Clamp01(target.EffectiveVulnerability()))
	sample := s.rng.Float64()
	hit := sample <= chance
	s.metrics.AttackResolved(hit)

	if attacker.Tunables.Debug {
		s.log.Debug().
			Str("attacker", attacker.ID).
			Str("target", target.ID).
			Float64("chance", chance).
			Float64("sample", sample).
			Bool("hit", hit).
			Msg("attack resolved")
	}
	if !hit {
		return
	}
	target.ApplyDamage(attacker.Stats.Damage)
}
