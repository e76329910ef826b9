package unit

import (
	"context"
	"time"

	"lanefall/internal/world"
	"lanefall/unitdefs"
)

// Animation trigger names consumed by the animation sink.
const (
	TriggerShoot = "shoot"
	TriggerDie   = "die"
)

// AnimSink receives fire-and-forget animation signals for one unit. The sim
// never reads anything back from it.
type AnimSink interface {
	SetWalking(walking bool)
	Trigger(name string)
}

// NopAnimSink discards all animation signals.
type NopAnimSink struct{}

func (NopAnimSink) SetWalking(bool) {}
func (NopAnimSink) Trigger(string)  {}

// StoppingDistanceNotSaved is the sentinel for "no override in effect".
const StoppingDistanceNotSaved = -1.0

// Tunables are the per-unit behavior knobs, normally shared across a roster.
type Tunables struct {
	CoverSearchRadius    float64
	CoverSeekDistance    float64
	CoverExcludeAngleDeg float64
	Debug                bool
}

// DefaultTunables returns the stock behavior knobs.
func DefaultTunables() Tunables {
	return Tunables{
		CoverSearchRadius:    12,
		CoverSeekDistance:    9,
		CoverExcludeAngleDeg: 110,
	}
}

// Context is the mutable record shared by every state and service working
// on one unit. It is exclusively owned by that unit's controller and only
// ever mutated on the simulation goroutine.
type Context struct {
	ID        string
	Seq       uint64
	Team      int
	Level     int
	Archetype unitdefs.Archetype

	Stats  Stats
	Health float64

	// Target may point at a dead or destroyed unit after any suspension
	// point; always re-validate with Alive before use.
	Target       *Context
	MoveTarget   world.Vec3
	LastAttackAt time.Time

	// AttackPending guards against more than one in-flight attack
	// resolution per unit.
	AttackPending bool

	CurrentCover          *world.Cover
	DesiredCover          *world.Cover
	SavedStoppingDistance float64
	CoverSearchStartedAt  time.Time

	Tunables Tunables

	Agent *world.Agent
	Anim  AnimSink

	scope  context.Context
	cancel context.CancelFunc
	dead   bool
}

// NewContext builds a unit context at the given level with freshly derived
// stats and its own cancellation scope.
func NewContext(id string, seq uint64, team, level int, archetype unitdefs.Archetype, agent *world.Agent, anim AnimSink) *Context {
	if anim == nil {
		anim = NopAnimSink{}
	}
	scope, cancel := context.WithCancel(context.Background())
	u := &Context{
		ID:                    id,
		Seq:                   seq,
		Team:                  team,
		Archetype:             archetype,
		SavedStoppingDistance: StoppingDistanceNotSaved,
		Tunables:              DefaultTunables(),
		Agent:                 agent,
		Anim:                  anim,
		scope:                 scope,
		cancel:                cancel,
	}
	u.SetLevel(level)
	u.Health = u.Stats.MaxHealth
	return u
}

// Scope is the unit's cancellation scope, signaled on death or destruction.
// In-flight continuations check it before mutating shared state.
func (u *Context) Scope() context.Context {
	return u.scope
}

// SetLevel clamps level into the supported band and recomputes derived
// stats. Current health is preserved up to the new maximum.
func (u *Context) SetLevel(level int) {
	if level < unitdefs.MinLevel {
		level = unitdefs.MinLevel
	}
	if level > unitdefs.MaxLevel {
		level = unitdefs.MaxLevel
	}
	u.Level = level
	u.Stats = DeriveStats(u.Archetype, level)
	if u.Health > u.Stats.MaxHealth {
		u.Health = u.Stats.MaxHealth
	}
	if u.Agent != nil {
		u.Agent.SetSpeed(u.Stats.MoveSpeed)
	}
}

// Alive reports whether the unit still participates in the simulation.
func (u *Context) Alive() bool {
	return u != nil && !u.dead && u.Health > 0
}

// Position is a convenience accessor for the agent position.
func (u *Context) Position() world.Vec3 {
	if u == nil || u.Agent == nil {
		return world.Vec3{}
	}
	return u.Agent.Position()
}

// ApplyDamage reduces health, clamping at zero. Dead units accept no
// further damage.
func (u *Context) ApplyDamage(amount float64) {
	if u == nil || u.dead || amount <= 0 {
		return
	}
	u.Health -= amount
	if u.Health < 0 {
		u.Health = 0
	}
}

// EffectiveVulnerability is the base vulnerability plus the protection of
// the occupied cover, clamped to [0,1]. Higher means harder to hit.
func (u *Context) EffectiveVulnerability() float64 {
	vulnerability := u.Stats.Vulnerability
	if u.CurrentCover != nil && u.CurrentCover.Occupant == u.ID {
		vulnerability += u.CurrentCover.Protection
	}
	return world.Clamp01(vulnerability)
}

// MarkDead flips the unit into its terminal condition and cancels the
// scope, aborting in-flight continuations. Idempotent.
func (u *Context) MarkDead() {
	if u == nil || u.dead {
		return
	}
	u.dead = true
	u.Health = 0
	u.cancel()
}

// Destroy cancels the scope without the death bookkeeping, used when a unit
// is removed from the stage outright.
func (u *Context) Destroy() {
	if u == nil {
		return
	}
	u.dead = true
	u.cancel()
}
