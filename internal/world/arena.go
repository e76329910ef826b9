package world

import (
	"fmt"
	"math/rand"
)

// Obstacle is an axis-aligned blocking rectangle on the ground plane.
type Obstacle struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ArenaConfig controls generated arena content. Zero values fall back to
// the defaults applied by normalized().
type ArenaConfig struct {
	Width         float64
	Height        float64
	CellSize      float64
	AgentRadius   float64
	ObstacleCount int
	CoverCount    int
	CoverMinProt  float64
	CoverMaxProt  float64
	Seed          string
}

const (
	defaultArenaWidth    = 120.0
	defaultArenaHeight   = 60.0
	defaultCellSize      = 1.0
	defaultAgentRadius   = 0.5
	defaultObstacleCount = 8
	defaultCoverCount    = 14
	defaultCoverMinProt  = 0.2
	defaultCoverMaxProt  = 0.6
)

func (c ArenaConfig) normalized() ArenaConfig {
	if c.Width <= 0 {
		c.Width = defaultArenaWidth
	}
	if c.Height <= 0 {
		c.Height = defaultArenaHeight
	}
	if c.CellSize <= 0 {
		c.CellSize = defaultCellSize
	}
	if c.AgentRadius <= 0 {
		c.AgentRadius = defaultAgentRadius
	}
	if c.ObstacleCount < 0 {
		c.ObstacleCount = defaultObstacleCount
	}
	if c.CoverCount < 0 {
		c.CoverCount = defaultCoverCount
	}
	if c.CoverMinProt <= 0 {
		c.CoverMinProt = defaultCoverMinProt
	}
	if c.CoverMaxProt <= 0 || c.CoverMaxProt < c.CoverMinProt {
		c.CoverMaxProt = defaultCoverMaxProt
	}
	if c.Seed == "" {
		c.Seed = DefaultSeed
	}
	return c
}

// Arena is the static battlefield: bounds, obstacles, covers, the nav grid
// rasterized from the obstacles, and one objective per team.
type Arena struct {
	config    ArenaConfig
	obstacles []Obstacle
	covers    []*Cover
	grid      *NavGrid

	// Objectives[team] is the point that team defends; the opposing team
	// advances toward it.
	Objectives [2]Vec3
}

// NewArena builds an arena from normalized config, generating obstacles and
// covers with a deterministic RNG derived from the seed.
func NewArena(cfg ArenaConfig, rngFactory RNGFactory) *Arena {
	normalized := cfg.normalized()
	if rngFactory == nil {
		rngFactory = NewDeterministicRNG
	}
	rng := rngFactory(normalized.Seed, "arena")

	arena := &Arena{config: normalized}
	arena.Objectives[0] = Vec3{X: normalized.Width * 0.05, Y: normalized.Height / 2}
	arena.Objectives[1] = Vec3{X: normalized.Width * 0.95, Y: normalized.Height / 2}
	arena.obstacles = generateObstacles(normalized, rng)
	arena.covers = generateCovers(normalized, arena.obstacles, rng)
	arena.grid = NewNavGrid(arena.obstacles, normalized.Width, normalized.Height, normalized.CellSize, normalized.AgentRadius)
	return arena
}

// generateObstacles scatters blocking rectangles across the middle band of
// the arena, keeping the lanes near both objectives open.
func generateObstacles(cfg ArenaConfig, rng *rand.Rand) []Obstacle {
	obstacles := make([]Obstacle, 0, cfg.ObstacleCount)
	minX := cfg.Width * 0.2
	maxX := cfg.Width * 0.8
	for i := 0; i < cfg.ObstacleCount; i++ {
		w := 2 + rng.Float64()*4
		h := 2 + rng.Float64()*4
		x := minX + rng.Float64()*(maxX-minX-w)
		y := rng.Float64() * (cfg.Height - h)
		obstacles = append(obstacles, Obstacle{
			ID:     fmt.Sprintf("obstacle-%d", i+1),
			X:      x,
			Y:      y,
			Width:  w,
			Height: h,
		})
	}
	return obstacles
}

// generateCovers places free-standing cover markers on open ground. Markers
// that would land inside an obstacle are re-rolled a few times and then
// skipped; cover density is best-effort, not exact.
func generateCovers(cfg ArenaConfig, obstacles []Obstacle, rng *rand.Rand) []*Cover {
	covers := make([]*Cover, 0, cfg.CoverCount)
	margin := cfg.AgentRadius * 4
	for i := 0; i < cfg.CoverCount; i++ {
		var pos Vec3
		placed := false
		for attempt := 0; attempt < 6; attempt++ {
			pos = Vec3{
				X: margin + rng.Float64()*(cfg.Width-2*margin),
				Y: margin + rng.Float64()*(cfg.Height-2*margin),
			}
			clear := true
			for _, obs := range obstacles {
				if circleRectOverlap(pos.X, pos.Y, margin, obs) {
					clear = false
					break
				}
			}
			if clear {
				placed = true
				break
			}
		}
		if !placed {
			continue
		}
		protection := cfg.CoverMinProt + rng.Float64()*(cfg.CoverMaxProt-cfg.CoverMinProt)
		covers = append(covers, &Cover{
			ID:         fmt.Sprintf("cover-%d", i+1),
			Pos:        pos,
			Protection: protection,
		})
	}
	return covers
}

func (a *Arena) Config() ArenaConfig { return a.config }

func (a *Arena) Obstacles() []Obstacle { return a.obstacles }

// Covers returns the live cover records. Callers share these pointers with
// the cover service; they are never copied.
func (a *Arena) Covers() []*Cover { return a.covers }

func (a *Arena) Grid() *NavGrid { return a.grid }

// Objective returns the point team defends.
func (a *Arena) Objective(team int) Vec3 {
	if team < 0 || team >= len(a.Objectives) {
		return Vec3{}
	}
	return a.Objectives[team]
}

// EnemyObjective returns the point team advances toward.
func (a *Arena) EnemyObjective(team int) Vec3 {
	return a.Objective(1 - team)
}

// AddCover registers an extra cover marker, used by tests and scripted
// layouts.
func (a *Arena) AddCover(cover *Cover) {
	if cover == nil {
		return
	}
	a.covers = append(a.covers, cover)
}

// NewAgentAt spawns a nav agent on this arena's grid.
func (a *Arena) NewAgentAt(pos Vec3, facing Vec3, speed, radius float64) *Agent {
	return NewAgent(a.grid, pos, facing, speed, radius)
}
