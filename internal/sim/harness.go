package sim

import (
	"time"

	"github.com/rs/zerolog"

	"lanefall/internal/unit"
	"lanefall/internal/world"
	"lanefall/unitdefs"
)

// Harness is a headless battle driver used by tests and the headless demo.
// It steps the stage with a fixed dt against a synthetic monotonic clock,
// so every run with the same seed and options is identical.
type Harness struct {
	Stage *Stage
	Now   time.Time
	Dt    float64

	Anims map[string]*RecordingAnim
}

// RecordingAnim captures every animation signal sent to one unit so tests
// can assert on walk toggles and triggers.
type RecordingAnim struct {
	Walking  bool
	Walks    []bool
	Triggers []string
}

func (r *RecordingAnim) SetWalking(walking bool) {
	r.Walking = walking
	r.Walks = append(r.Walks, walking)
}

func (r *RecordingAnim) Trigger(name string) {
	r.Triggers = append(r.Triggers, name)
}

// harnessOptionKind orders option application: infrastructure first, then
// units once the arena exists.
type harnessOptionKind int

const (
	harnessOptInfra harnessOptionKind = iota
	harnessOptUnit
)

// HarnessOption is a builder function applied during construction.
type HarnessOption struct {
	kind harnessOptionKind
	fn   func(*harnessBuilder)
}

type harnessBuilder struct {
	cfg    StageConfig
	deps   Deps
	covers []*world.Cover
	spawns []func(*Harness)
}

// WithSeed pins the deterministic RNG root.
func WithSeed(seed string) HarnessOption {
	return HarnessOption{harnessOptInfra, func(b *harnessBuilder) {
		b.cfg.Seed = seed
	}}
}

// WithArena overrides the generated arena settings. Tests usually want an
// empty field: zero obstacle and cover counts with explicit covers added
// via WithCover.
func WithArena(cfg world.ArenaConfig) HarnessOption {
	return HarnessOption{harnessOptInfra, func(b *harnessBuilder) {
		b.cfg.Arena = cfg
	}}
}

// WithTunables overrides the roster-wide behavior knobs.
func WithTunables(t unit.Tunables) HarnessOption {
	return HarnessOption{harnessOptInfra, func(b *harnessBuilder) {
		b.cfg.Tunables = t
	}}
}

// WithCover places an explicit cover marker.
func WithCover(id string, pos world.Vec3, protection float64) HarnessOption {
	return HarnessOption{harnessOptInfra, func(b *harnessBuilder) {
		b.covers = append(b.covers, &world.Cover{ID: id, Pos: pos, Protection: protection})
	}}
}

// WithUnit spawns a unit of the given archetype once the stage exists.
func WithUnit(archetypeID string, team, level int, pos world.Vec3) HarnessOption {
	return HarnessOption{harnessOptUnit, func(b *harnessBuilder) {
		b.spawns = append(b.spawns, func(h *Harness) {
			_, _ = h.Stage.Spawn(archetypeID, team, level, pos)
		})
	}}
}

// NewHarness builds a stage from the options. The embedded archetype
// catalog backs all spawns; animation sinks record into Harness.Anims.
func NewHarness(opts ...HarnessOption) (*Harness, error) {
	catalog, err := unitdefs.Load()
	if err != nil {
		return nil, err
	}

	builder := &harnessBuilder{
		cfg: StageConfig{
			Seed: "harness",
			Arena: world.ArenaConfig{
				Width:         60,
				Height:        30,
				ObstacleCount: 0,
				CoverCount:    0,
			},
		},
		deps: Deps{
			Log:     zerolog.Nop(),
			Catalog: catalog,
		},
	}
	for _, opt := range opts {
		if opt.kind == harnessOptInfra {
			opt.fn(builder)
		}
	}

	h := &Harness{
		// An arbitrary fixed epoch: simulation clocks are monotonic
		// within a run, never wall-clock dependent.
		Now:   time.Unix(1_700_000_000, 0),
		Dt:    0.05,
		Anims: make(map[string]*RecordingAnim),
	}
	builder.deps.Anim = func(unitID string) unit.AnimSink {
		rec := &RecordingAnim{}
		h.Anims[unitID] = rec
		return rec
	}

	h.Stage = NewStage(builder.cfg, builder.deps)
	for _, cover := range builder.covers {
		h.Stage.Arena().AddCover(cover)
	}
	for _, opt := range opts {
		if opt.kind == harnessOptUnit {
			opt.fn(builder)
		}
	}
	for _, spawn := range builder.spawns {
		spawn(h)
	}
	return h, nil
}

// TickOnce advances the simulation a single step.
func (h *Harness) TickOnce() {
	h.Now = h.Now.Add(time.Duration(h.Dt * float64(time.Second)))
	h.Stage.Step(h.Now, h.Dt)
}

// Tick advances n steps.
func (h *Harness) Tick(n int) {
	for i := 0; i < n; i++ {
		h.TickOnce()
	}
}

// RunUntil ticks until pred holds or maxTicks elapse, reporting whether
// pred was satisfied.
func (h *Harness) RunUntil(pred func() bool, maxTicks int) bool {
	for i := 0; i < maxTicks; i++ {
		if pred() {
			return true
		}
		h.TickOnce()
	}
	return pred()
}
