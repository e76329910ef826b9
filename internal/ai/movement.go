package ai

import (
	"math"

	"lanefall/internal/unit"
	"lanefall/internal/world"
)

// Arrival thresholds for the navigation provider's three ways of being
// "there": close enough along the path, physically on the point, or parked
// next to an unreachable target the provider never built a path to.
const (
	arriveRemainingFloor = 0.25
	arriveRemainingSlack = 0.05
	arriveOnPoint        = 0.35
	arriveNoPath         = 1.0
)

// Movement wraps one unit's nav agent and its walking-animation signal.
// The enemy objective is injected at construction; the service never
// consults any global for it.
type Movement struct {
	u         *unit.Context
	objective world.Vec3

	wasWalking bool
}

func NewMovement(u *unit.Context, enemyObjective world.Vec3) *Movement {
	return &Movement{u: u, objective: enemyObjective}
}

// AdvanceTowardsBase paths the unit toward the enemy objective.
func (m *Movement) AdvanceTowardsBase() {
	m.u.Agent.SetDestination(m.objective)
}

// GoTo paths the unit toward pos.
func (m *Movement) GoTo(pos world.Vec3) {
	m.u.Agent.SetDestination(pos)
}

// ResetPath cancels the current path; the unit stays put.
func (m *Movement) ResetPath() {
	m.u.Agent.ResetPath()
}

// SyncWalkingAnim forwards the walking flag to the animation sink, but only
// on change so the sink is not spammed every tick.
func (m *Movement) SyncWalkingAnim(walking bool) {
	if walking == m.wasWalking {
		return
	}
	m.wasWalking = walking
	m.u.Anim.SetWalking(walking)
}

// Moving reports whether the agent made progress this step.
func (m *Movement) Moving() bool {
	return m.u.Agent.Velocity().Length() > 1e-6
}

// Arrived reports whether the unit has reached pos under any of the three
// provider conditions.
func (m *Movement) Arrived(pos world.Vec3) bool {
	agent := m.u.Agent
	if !agent.PathPending() && agent.HasPath() {
		threshold := math.Max(arriveRemainingFloor, agent.StoppingDistance()+arriveRemainingSlack)
		if agent.RemainingDistance() <= threshold {
			return true
		}
	}
	straight := agent.Position().DistanceTo(pos)
	if straight <= arriveOnPoint {
		return true
	}
	if !agent.HasPath() && !agent.PathPending() && straight <= arriveNoPath {
		return true
	}
	return false
}

// OverrideStoppingDistance saves the current stopping distance once and
// applies the temporary value. Idempotent while an override is in effect:
// repeated calls keep the originally saved value.
func (m *Movement) OverrideStoppingDistance(value float64) {
	if m.u.SavedStoppingDistance == unit.StoppingDistanceNotSaved {
		m.u.SavedStoppingDistance = m.u.Agent.StoppingDistance()
	}
	m.u.Agent.SetStoppingDistance(value)
}

// RestoreStoppingDistance reapplies the saved stopping distance and clears
// the saved slot. No-op when nothing is saved.
func (m *Movement) RestoreStoppingDistance() {
	if m.u.SavedStoppingDistance == unit.StoppingDistanceNotSaved {
		return
	}
	m.u.Agent.SetStoppingDistance(m.u.SavedStoppingDistance)
	m.u.SavedStoppingDistance = unit.StoppingDistanceNotSaved
}
