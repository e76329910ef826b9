package sim

import (
	"time"
)

// LoopConfig tunes the fixed-timestep runner.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
}

// StepResult is handed to the AfterStep hook once per tick.
type StepResult struct {
	Tick     uint64
	Now      time.Time
	Delta    float64
	Duration time.Duration
	Snapshot Snapshot
}

// LoopHooks lets the caller observe ticks without the loop knowing about
// broadcasting or metrics sinks.
type LoopHooks struct {
	AfterStep func(StepResult)
}

// Loop drives a stage at a fixed tick rate until the stop channel closes.
type Loop struct {
	stage  *Stage
	config LoopConfig
	hooks  LoopHooks
}

func NewLoop(stage *Stage, cfg LoopConfig, hooks LoopHooks) *Loop {
	if stage == nil {
		return nil
	}
	return &Loop{stage: stage, config: cfg, hooks: hooks}
}

// Advance executes a single step with an explicit clock, used by Run and by
// tests that drive time manually.
func (l *Loop) Advance(now time.Time, dt float64) StepResult {
	if l == nil {
		return StepResult{}
	}
	start := time.Now()
	l.stage.Step(now, dt)
	duration := time.Since(start)
	l.stage.deps.Metrics.TickObserved(duration.Seconds())
	return StepResult{
		Tick:     l.stage.Tick(),
		Now:      now,
		Delta:    dt,
		Duration: duration,
		Snapshot: l.stage.Snapshot(),
	}
}

// Run blocks, ticking the stage until stop closes. Delta time is measured
// between ticks and clamped to the catch-up budget so a stalled host does
// not teleport units.
func (l *Loop) Run(stop <-chan struct{}) {
	if l == nil {
		return
	}
	tickRate := l.config.TickRate
	if tickRate <= 0 {
		tickRate = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	budget := 1.0 / float64(tickRate)
	maxDt := budget
	if l.config.CatchupMaxTicks > 1 {
		maxDt = budget * float64(l.config.CatchupMaxTicks)
	}

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = budget
			} else if dt > maxDt {
				dt = maxDt
			}
			last = now

			result := l.Advance(now, dt)
			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
		}
	}
}
