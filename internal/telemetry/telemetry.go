// Package telemetry owns the OpenTelemetry instruments for the simulation.
// All instruments come from the global meter provider, so everything here
// degrades to no-ops when no provider is installed.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "lanefall/internal/telemetry"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Instruments bundles the counters and gauges recorded by the stage and
// the combat service.
type Instruments struct {
	unitsSpawned    metric.Int64Counter
	unitsDied       metric.Int64Counter
	attacksResolved metric.Int64Counter
	attacksHit      metric.Int64Counter
	coversClaimed   metric.Int64Counter
	coverContention metric.Int64Counter
	tickDuration    metric.Float64Histogram

	aliveUnits   metric.Int64ObservableGauge
	registration metric.Registration
}

// AliveCountFunc reports the current alive-unit count per team. Called from
// the metrics SDK's collection goroutine, so implementations must be safe
// to call off the simulation goroutine.
type AliveCountFunc func() map[int]int64

// New creates the instrument set. Instrument creation failures are
// swallowed: the zero instrument value records nothing, which matches how
// a missing provider behaves.
func New(alive AliveCountFunc) *Instruments {
	m := meter()
	inst := &Instruments{}
	inst.unitsSpawned, _ = m.Int64Counter("lanefall.units.spawned",
		metric.WithDescription("Total units spawned"))
	inst.unitsDied, _ = m.Int64Counter("lanefall.units.died",
		metric.WithDescription("Total units that reached the terminal state"))
	inst.attacksResolved, _ = m.Int64Counter("lanefall.attacks.resolved",
		metric.WithDescription("Total attack resolutions that ran to completion"))
	inst.attacksHit, _ = m.Int64Counter("lanefall.attacks.hit",
		metric.WithDescription("Total attack resolutions that landed damage"))
	inst.coversClaimed, _ = m.Int64Counter("lanefall.covers.claimed",
		metric.WithDescription("Total successful cover occupancy claims"))
	inst.coverContention, _ = m.Int64Counter("lanefall.covers.contention_lost",
		metric.WithDescription("Total cover claims lost to another unit"))
	inst.tickDuration, _ = m.Float64Histogram("lanefall.tick.duration_seconds",
		metric.WithDescription("Wall time spent inside one simulation step"))

	if alive != nil {
		var err error
		inst.aliveUnits, err = m.Int64ObservableGauge("lanefall.units.alive",
			metric.WithDescription("Units currently alive, per team"))
		if err == nil {
			inst.registration, _ = m.RegisterCallback(
				func(_ context.Context, o metric.Observer) error {
					for team, count := range alive() {
						o.ObserveInt64(inst.aliveUnits, count,
							metric.WithAttributes(attribute.Int("team", team)))
					}
					return nil
				},
				inst.aliveUnits,
			)
		}
	}
	return inst
}

// Close unregisters the observable-gauge callback.
func (i *Instruments) Close() {
	if i == nil || i.registration == nil {
		return
	}
	_ = i.registration.Unregister()
}

func (i *Instruments) UnitSpawned(team int) {
	if i == nil {
		return
	}
	i.unitsSpawned.Add(context.Background(), 1, metric.WithAttributes(attribute.Int("team", team)))
}

func (i *Instruments) UnitDied(team int) {
	if i == nil {
		return
	}
	i.unitsDied.Add(context.Background(), 1, metric.WithAttributes(attribute.Int("team", team)))
}

func (i *Instruments) AttackResolved(hit bool) {
	if i == nil {
		return
	}
	i.attacksResolved.Add(context.Background(), 1)
	if hit {
		i.attacksHit.Add(context.Background(), 1)
	}
}

func (i *Instruments) CoverClaimed() {
	if i == nil {
		return
	}
	i.coversClaimed.Add(context.Background(), 1)
}

func (i *Instruments) CoverContentionLost() {
	if i == nil {
		return
	}
	i.coverContention.Add(context.Background(), 1)
}

func (i *Instruments) TickObserved(seconds float64) {
	if i == nil {
		return
	}
	i.tickDuration.Record(context.Background(), seconds)
}
