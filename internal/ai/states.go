package ai

import (
	"time"

	"lanefall/internal/unit"
)

const (
	// coverApproachStop is the temporary stopping distance applied while
	// traveling to a cover point, small enough that the agent actually
	// reaches the point instead of halting short of it.
	coverApproachStop = 0.1
	// interruptCloseRange aborts a cover run outright when the sensed
	// enemy is already this close.
	interruptCloseRange = 2.0
	// rangeHysteresis keeps a unit attacking slightly beyond its nominal
	// range so it does not oscillate on the range edge.
	rangeHysteresis = 1.05
)

// AdvanceState pushes toward the enemy objective until a hostile shows up
// in attack range, then decides between seeking cover first and engaging
// directly.
type AdvanceState struct {
	u   *unit.Context
	svc *Services
	m   *Machine
}

func NewAdvanceState(u *unit.Context, svc *Services, m *Machine) AdvanceState {
	return AdvanceState{u: u, svc: svc, m: m}
}

func (s AdvanceState) Kind() StateKind { return KindAdvance }

func (s AdvanceState) Enter() {
	s.svc.Movement.AdvanceTowardsBase()
}

func (s AdvanceState) Tick(now time.Time) {
	s.svc.Movement.SyncWalkingAnim(s.svc.Movement.Moving())

	enemy := s.svc.Sensor.FindNearestEnemy(s.u, s.u.Stats.AttackRange)
	if enemy == nil {
		return
	}
	s.u.Target = enemy

	dist := s.u.Position().DistanceTo(enemy.Position())
	if dist <= s.u.Tunables.CoverSeekDistance {
		candidate, ok := s.svc.Cover.FindBest(s.u, s.u.Position(), enemy.Position(), s.u.Tunables.CoverSearchRadius)
		if ok {
			s.u.DesiredCover = candidate.Cover
			s.u.MoveTarget = candidate.Pos
			s.svc.Movement.OverrideStoppingDistance(coverApproachStop)
			s.u.CoverSearchStartedAt = now
			s.m.SetState(NewMoveToPosState(s.u, s.svc, s.m))
			return
		}
	}
	s.m.SetState(NewAttackState(s.u, s.svc, s.m))
}

func (s AdvanceState) Exit() {}

// MoveToPosState travels to the stored move target, usually a cover stand
// point. The trip is abandoned for a straight fight the moment the sensed
// enemy opens fire after the cover search began or closes to point-blank.
type MoveToPosState struct {
	u   *unit.Context
	svc *Services
	m   *Machine
}

func NewMoveToPosState(u *unit.Context, svc *Services, m *Machine) MoveToPosState {
	return MoveToPosState{u: u, svc: svc, m: m}
}

func (s MoveToPosState) Kind() StateKind { return KindMoveToPos }

func (s MoveToPosState) Enter() {
	s.svc.Movement.GoTo(s.u.MoveTarget)
}

func (s MoveToPosState) Tick(now time.Time) {
	s.svc.Movement.SyncWalkingAnim(s.svc.Movement.Moving())

	enemy := s.svc.Sensor.FindNearestEnemy(s.u, s.u.Stats.AttackRange)
	if enemy != nil {
		s.u.Target = enemy
	}

	if s.interrupted(enemy) {
		s.u.DesiredCover = nil
		s.svc.Movement.RestoreStoppingDistance()
		s.m.SetState(NewAttackState(s.u, s.svc, s.m))
		return
	}

	if !s.svc.Movement.Arrived(s.u.MoveTarget) {
		return
	}
	s.svc.Movement.RestoreStoppingDistance()
	s.resolveDesiredCover()
}

func (s MoveToPosState) interrupted(enemy *unit.Context) bool {
	if s.u.DesiredCover == nil {
		return true
	}
	if enemy == nil {
		return false
	}
	if enemy.LastAttackAt.After(s.u.CoverSearchStartedAt) {
		return true
	}
	return s.u.Position().DistanceTo(enemy.Position()) < interruptCloseRange
}

// resolveDesiredCover settles the pending cover claim on arrival. The
// desired reference is cleared exactly once regardless of the outcome;
// losing the claim to a faster unit is an expected race, not an error.
func (s MoveToPosState) resolveDesiredCover() {
	desired := s.u.DesiredCover
	s.u.DesiredCover = nil

	if desired != nil && !desired.OccupiedByOther(s.u.ID) {
		s.svc.Cover.Occupy(s.u, desired)
	}

	if s.u.Target != nil && s.u.Target.Alive() {
		s.m.SetState(NewAttackState(s.u, s.svc, s.m))
		return
	}
	s.m.SetState(NewAdvanceState(s.u, s.svc, s.m))
}

func (s MoveToPosState) Exit() {}

// AttackState engages the current target: chases it when it slips out of
// range, otherwise stands, faces it and requests attack attempts.
type AttackState struct {
	u   *unit.Context
	svc *Services
	m   *Machine
}

func NewAttackState(u *unit.Context, svc *Services, m *Machine) AttackState {
	return AttackState{u: u, svc: svc, m: m}
}

func (s AttackState) Kind() StateKind { return KindAttack }

func (s AttackState) Enter() {
	if s.u.SavedStoppingDistance == unit.StoppingDistanceNotSaved {
		s.u.Agent.SetStoppingDistance(s.u.Stats.AttackRange)
	}
}

func (s AttackState) Tick(now time.Time) {
	target := s.u.Target
	if target == nil || !target.Alive() {
		s.u.Target = nil
		s.svc.Cover.Release(s.u)
		s.m.SetState(NewAdvanceState(s.u, s.svc, s.m))
		return
	}

	dist := s.u.Position().DistanceTo(target.Position())
	if dist > s.u.Stats.AttackRange*rangeHysteresis {
		s.svc.Cover.Release(s.u)
		s.u.MoveTarget = target.Position()
		s.svc.Movement.GoTo(s.u.MoveTarget)
		s.m.SetState(NewMoveToPosState(s.u, s.svc, s.m))
		return
	}

	s.svc.Movement.ResetPath()
	s.u.Agent.Face(target.Position())
	s.svc.Movement.SyncWalkingAnim(false)
	s.svc.Combat.TryAttack(s.u, now)
}

func (s AttackState) Exit() {}

// DeadState is terminal; everything is a no-op. Reached only through the
// stage's death handling, never from inside another state.
type DeadState struct{}

func NewDeadState() DeadState { return DeadState{} }

func (DeadState) Kind() StateKind { return KindDead }

func (DeadState) Enter() {}

func (DeadState) Tick(time.Time) {}

func (DeadState) Exit() {}
