package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"lanefall/internal/combat"
)

// StateKind identifies a state for equality checks, logging and snapshots.
type StateKind int

const (
	KindNone StateKind = iota
	KindAdvance
	KindMoveToPos
	KindAttack
	KindDead
)

func (k StateKind) String() string {
	switch k {
	case KindAdvance:
		return "advance"
	case KindMoveToPos:
		return "move-to-pos"
	case KindAttack:
		return "attack"
	case KindDead:
		return "dead"
	default:
		return "none"
	}
}

// State is one node of the per-unit decision machine. States are immutable
// value objects built over the unit context and its services; a transition
// constructs a fresh instance rather than mutating flags.
type State interface {
	Kind() StateKind
	Enter()
	Tick(now time.Time)
	Exit()
}

// Services bundles the collaborators every state works with.
type Services struct {
	Movement *Movement
	Sensor   *Sensor
	Cover    *CoverService
	Combat   *combat.Service
}

// Machine holds one unit's active state and drives its per-frame Tick.
// Entry hooks run one scheduling step after the swap; ticks proceed
// independently of entry completion.
type Machine struct {
	current   State
	owner     context.Context
	deferTask DeferFunc
	log       zerolog.Logger
	terminal  bool
}

func NewMachine(owner context.Context, deferTask DeferFunc, log zerolog.Logger) *Machine {
	return &Machine{owner: owner, deferTask: deferTask, log: log}
}

// Kind reports the active state's kind, KindNone when unset.
func (m *Machine) Kind() StateKind {
	if m == nil || m.current == nil {
		return KindNone
	}
	return m.current.Kind()
}

// SetState transitions to next: no-op when next matches the current state's
// kind or the machine is terminal. The outgoing exit hook runs
// synchronously; the incoming enter hook is deferred one scheduling step
// and re-checks that the state is still current before running.
func (m *Machine) SetState(next State) {
	if m == nil || next == nil || m.terminal {
		return
	}
	if m.current != nil && m.current.Kind() == next.Kind() {
		return
	}
	if m.current != nil {
		m.current.Exit()
	}
	m.log.Debug().
		Stringer("from", m.Kind()).
		Stringer("to", next.Kind()).
		Msg("state transition")
	m.current = next
	if next.Kind() == KindDead {
		m.terminal = true
		next.Enter()
		return
	}
	m.deferTask(m.owner, func() {
		if m.current == next {
			next.Enter()
		}
	})
}

// Tick delegates to the current state, or does nothing when none is set.
func (m *Machine) Tick(now time.Time) {
	if m == nil || m.current == nil {
		return
	}
	m.current.Tick(now)
}
