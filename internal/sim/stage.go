package sim

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lanefall/internal/ai"
	"lanefall/internal/combat"
	"lanefall/internal/telemetry"
	"lanefall/internal/unit"
	"lanefall/internal/world"
	"lanefall/unitdefs"
)

// objectiveReachRadius is how close a unit must get to the enemy objective
// before the stage reports the objective reached.
const objectiveReachRadius = 2.0

// Deps bundles the runtime dependencies a Stage needs. Nil fields fall
// back to inert defaults so tests can construct stages with only what they
// exercise.
type Deps struct {
	Log     zerolog.Logger
	Metrics *telemetry.Instruments
	RNG     world.RNGFactory
	Catalog *unitdefs.Catalog

	// Anim builds the animation sink for a freshly spawned unit. Nil
	// means every unit gets a no-op sink.
	Anim func(unitID string) unit.AnimSink
	// Effect builds the pre-attack effect player for ranged units. Nil
	// means no effect.
	Effect func(unitID string) combat.EffectPlayer
}

// StageConfig captures the per-match settings.
type StageConfig struct {
	Seed     string
	Arena    world.ArenaConfig
	Tunables unit.Tunables
}

func (c StageConfig) normalized() StageConfig {
	if c.Seed == "" {
		c.Seed = world.DefaultSeed
	}
	if c.Arena.Seed == "" {
		c.Arena.Seed = c.Seed
	}
	defaults := unit.DefaultTunables()
	if c.Tunables.CoverSearchRadius <= 0 {
		c.Tunables.CoverSearchRadius = defaults.CoverSearchRadius
	}
	if c.Tunables.CoverSeekDistance <= 0 {
		c.Tunables.CoverSeekDistance = defaults.CoverSeekDistance
	}
	if c.Tunables.CoverExcludeAngleDeg <= 0 {
		c.Tunables.CoverExcludeAngleDeg = defaults.CoverExcludeAngleDeg
	}
	return c
}

// member is one unit's controller entry: the shared context, its machine
// and its per-unit movement service.
type member struct {
	u        *unit.Context
	machine  *ai.Machine
	movement *ai.Movement

	dead             bool
	reachedObjective bool
}

// Stage owns the arena, every unit controller, the frame scheduler and the
// shared services. All mutation runs on the goroutine calling Step.
type Stage struct {
	config StageConfig
	deps   Deps

	arena     *world.Arena
	scheduler *Scheduler
	sensor    *ai.Sensor
	covers    *ai.CoverService
	combat    *combat.Service

	members []*member
	byID    map[string]*member
	nextSeq uint64
	tick    uint64

	// aliveMu guards the alive-count copy read by the metrics callback
	// goroutine; everything else is simulation-goroutine only.
	aliveMu     sync.Mutex
	aliveByTeam map[int]int64
}

// NewStage builds an empty stage over a freshly generated arena.
func NewStage(cfg StageConfig, deps Deps) *Stage {
	normalized := cfg.normalized()
	if deps.RNG == nil {
		deps.RNG = world.NewDeterministicRNG
	}
	s := &Stage{
		config:      normalized,
		deps:        deps,
		arena:       world.NewArena(normalized.Arena, deps.RNG),
		scheduler:   NewScheduler(),
		byID:        make(map[string]*member),
		aliveByTeam: map[int]int64{0: 0, 1: 0},
	}
	s.sensor = ai.NewSensor(s)
	s.covers = ai.NewCoverService(s, s.arena, deps.Log, deps.Metrics)
	s.combat = combat.NewService(s.scheduler.Defer, deps.RNG(normalized.Seed, "combat"), deps.Log, deps.Metrics)
	return s
}

// Arena exposes the battlefield, mainly for tests and snapshots.
func (s *Stage) Arena() *world.Arena { return s.arena }

// Scheduler exposes the frame scheduler for collaborators wired in main.
func (s *Stage) Scheduler() *Scheduler { return s.scheduler }

// Combat exposes the combat service.
func (s *Stage) Combat() *combat.Service { return s.combat }

// Covers exposes the cover service.
func (s *Stage) Covers() *ai.CoverService { return s.covers }

// Tick reports the number of completed steps.
func (s *Stage) Tick() uint64 { return s.tick }

// OverlapSphere implements the spatial query contract: every unit and
// cover within radius of center, resolved to tagged contacts at query
// time.
func (s *Stage) OverlapSphere(center world.Vec3, radius float64) []ai.Contact {
	contacts := make([]ai.Contact, 0, len(s.members))
	for _, m := range s.members {
		pos := m.u.Position()
		if center.DistanceTo(pos) <= radius {
			contacts = append(contacts, ai.Contact{Unit: m.u, Pos: pos})
		}
	}
	for _, cover := range s.arena.Covers() {
		if center.DistanceTo(cover.Pos) <= radius {
			contacts = append(contacts, ai.Contact{Cover: cover, Pos: cover.Pos})
		}
	}
	return contacts
}

// Spawn creates a unit of the given archetype at pos and starts it
// advancing. Missing archetypes are a configuration problem: the unit is
// not spawned, the process continues.
func (s *Stage) Spawn(archetypeID string, team, level int, pos world.Vec3) (*unit.Context, error) {
	archetype, ok := s.deps.Catalog.Get(archetypeID)
	if !ok {
		s.deps.Log.Error().Str("archetype", archetypeID).Msg("unknown archetype, unit not spawned")
		return nil, fmt.Errorf("unknown archetype %q", archetypeID)
	}
	if team != 0 && team != 1 {
		return nil, fmt.Errorf("invalid team %d", team)
	}

	s.nextSeq++
	id := fmt.Sprintf("unit-%d", s.nextSeq)

	towardEnemy := s.arena.EnemyObjective(team).Sub(pos)
	stats := unit.DeriveStats(archetype, level)
	agent := s.arena.NewAgentAt(pos, towardEnemy, stats.MoveSpeed, archetype.AgentRadius)

	var anim unit.AnimSink
	if s.deps.Anim != nil {
		anim = s.deps.Anim(id)
	}
	u := unit.NewContext(id, s.nextSeq, team, level, archetype, agent, anim)
	u.Tunables = s.config.Tunables

	var effect combat.EffectPlayer
	if s.deps.Effect != nil {
		effect = s.deps.Effect(id)
	}
	s.combat.SetStrategy(id, combat.StrategyFor(archetype.Strategy, effect))

	machine := ai.NewMachine(u.Scope(), s.scheduler.Defer, s.deps.Log.With().Str("unit", id).Logger())
	movement := ai.NewMovement(u, s.arena.EnemyObjective(team))
	services := &ai.Services{
		Movement: movement,
		Sensor:   s.sensor,
		Cover:    s.covers,
		Combat:   s.combat,
	}
	machine.SetState(ai.NewAdvanceState(u, services, machine))

	m := &member{u: u, machine: machine, movement: movement}
	s.members = append(s.members, m)
	s.byID[id] = m
	s.deps.Metrics.UnitSpawned(team)
	s.deps.Log.Info().Str("unit", id).Int("team", team).Str("archetype", archetypeID).Msg("unit spawned")
	s.refreshAliveCounts()
	return u, nil
}

// Unit returns the context for id, nil when unknown.
func (s *Stage) Unit(id string) *unit.Context {
	if m, ok := s.byID[id]; ok {
		return m.u
	}
	return nil
}

// UnitState reports the FSM state kind for id.
func (s *Stage) UnitState(id string) ai.StateKind {
	if m, ok := s.byID[id]; ok {
		return m.machine.Kind()
	}
	return ai.KindNone
}

// AliveCount reports the number of living units on team.
func (s *Stage) AliveCount(team int) int {
	count := 0
	for _, m := range s.members {
		if m.u.Team == team && m.u.Alive() {
			count++
		}
	}
	return count
}

// AliveByTeam is the metrics-callback view of alive counts. Safe to call
// off the simulation goroutine.
func (s *Stage) AliveByTeam() map[int]int64 {
	s.aliveMu.Lock()
	defer s.aliveMu.Unlock()
	out := make(map[int]int64, len(s.aliveByTeam))
	for team, count := range s.aliveByTeam {
		out[team] = count
	}
	return out
}

func (s *Stage) refreshAliveCounts() {
	counts := map[int]int64{0: 0, 1: 0}
	for _, m := range s.members {
		if m.u.Alive() {
			counts[m.u.Team]++
		}
	}
	s.aliveMu.Lock()
	s.aliveByTeam = counts
	s.aliveMu.Unlock()
}

// Step runs one simulation tick: drain deferred work, advance locomotion,
// tick every machine in spawn order, then settle deaths and bookkeeping.
func (s *Stage) Step(now time.Time, dt float64) {
	s.scheduler.Drain()

	for _, m := range s.members {
		if m.u.Alive() {
			m.u.Agent.Step(dt)
		}
	}

	for _, m := range s.members {
		if s.settleDeath(m) {
			continue
		}
		m.machine.Tick(now)
		s.checkObjective(m)
	}

	// Deferred resolutions drained this tick may have killed units after
	// their own machine already ticked.
	for _, m := range s.members {
		s.settleDeath(m)
	}

	s.tick++
	s.refreshAliveCounts()
}

// settleDeath handles the health ≤ 0 transition exactly once, outside the
// FSM: cancel the unit's scope, fire the die trigger, free its cover and
// pin the machine in its terminal state.
func (s *Stage) settleDeath(m *member) bool {
	if m.dead {
		return true
	}
	if m.u.Alive() {
		return false
	}
	m.dead = true
	m.u.MarkDead()
	m.u.Anim.Trigger(unit.TriggerDie)
	s.covers.Release(m.u)
	s.combat.DropStrategy(m.u.ID)
	m.machine.SetState(ai.NewDeadState())
	s.deps.Metrics.UnitDied(m.u.Team)
	s.deps.Log.Info().Str("unit", m.u.ID).Int("team", m.u.Team).Msg("unit died")
	return true
}

func (s *Stage) checkObjective(m *member) {
	if m.reachedObjective || !m.u.Alive() {
		return
	}
	objective := s.arena.EnemyObjective(m.u.Team)
	if m.u.Position().DistanceTo(objective) <= objectiveReachRadius {
		m.reachedObjective = true
		s.deps.Log.Info().Str("unit", m.u.ID).Int("team", m.u.Team).Msg("objective reached")
	}
}

// Remove destroys a unit outright, canceling its scope and freeing its
// cover. Used for despawns rather than combat deaths.
func (s *Stage) Remove(id string) {
	m, ok := s.byID[id]
	if !ok {
		return
	}
	s.covers.Release(m.u)
	s.combat.DropStrategy(id)
	m.u.Destroy()
	m.dead = true
	delete(s.byID, id)
	for i, candidate := range s.members {
		if candidate == m {
			s.members = append(s.members[:i], s.members[i+1:]...)
			break
		}
	}
	s.refreshAliveCounts()
}

// Snapshot copies the observable stage state for broadcasting.
func (s *Stage) Snapshot() Snapshot {
	units := make([]UnitSnapshot, 0, len(s.members))
	for _, m := range s.members {
		snap := UnitSnapshot{
			ID:        m.u.ID,
			Team:      m.u.Team,
			Archetype: m.u.Archetype.ID,
			Level:     m.u.Level,
			Pos:       m.u.Position(),
			Health:    m.u.Health,
			MaxHealth: m.u.Stats.MaxHealth,
			State:     m.machine.Kind().String(),
		}
		if m.u.CurrentCover != nil {
			snap.Cover = m.u.CurrentCover.ID
		}
		units = append(units, snap)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })

	covers := make([]CoverSnapshot, 0, len(s.arena.Covers()))
	for _, cover := range s.arena.Covers() {
		covers = append(covers, CoverSnapshot{
			ID:         cover.ID,
			Pos:        cover.Pos,
			Protection: cover.Protection,
			Occupant:   cover.Occupant,
		})
	}
	return Snapshot{Tick: s.tick, Units: units, Covers: covers}
}
