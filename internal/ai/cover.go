package ai

import (
	"math"

	"github.com/rs/zerolog"

	"lanefall/internal/telemetry"
	"lanefall/internal/unit"
	"lanefall/internal/world"
)

const (
	// standMargin is added to the agent radius when computing how far from
	// the cover marker the unit should stand.
	standMargin = 0.35
	// standProbeSteps is the number of angular fallbacks tried around a
	// cover whose primary stand point is not walkable.
	standProbeSteps = 8
)

// CoverCandidate is a selected cover plus the point the unit should move to
// in order to use it.
type CoverCandidate struct {
	Pos   world.Vec3
	Cover *world.Cover
}

// CoverService selects covers and arbitrates their occupancy. Shared by all
// units on a stage; claims are safe because all ticks run on one goroutine
// and Occupy never suspends between check and set.
type CoverService struct {
	query   SpatialQuery
	arena   *world.Arena
	log     zerolog.Logger
	metrics *telemetry.Instruments
}

func NewCoverService(query SpatialQuery, arena *world.Arena, log zerolog.Logger, metrics *telemetry.Instruments) *CoverService {
	return &CoverService{query: query, arena: arena, log: log, metrics: metrics}
}

// FindBest picks the best reachable, unoccupied, frontal cover within
// radius of fromPos, given an enemy at enemyPos. Candidates are ranked by
// actual path length, not straight-line distance. Returns false when no
// cover qualifies.
func (s *CoverService) FindBest(u *unit.Context, fromPos, enemyPos world.Vec3, radius float64) (CoverCandidate, bool) {
	if s == nil || u == nil || radius <= 0 {
		return CoverCandidate{}, false
	}

	candidates := s.gatherCovers(fromPos, radius)
	if len(candidates) == 0 {
		return CoverCandidate{}, false
	}

	facing := u.Agent.Facing()
	cosExclude := math.Cos(u.Tunables.CoverExcludeAngleDeg * math.Pi / 180)

	best := CoverCandidate{}
	bestLength := math.Inf(1)
	for _, cover := range candidates {
		if fromPos.DistanceTo(cover.Pos) > radius {
			continue
		}
		// Keep only frontal and lateral covers; retreating sharply
		// backward to reach cover reads as cowardice and loses lane
		// progress.
		dir := cover.Pos.Sub(fromPos).Normalized()
		if dir.Length() > 0 && dir.Dot(facing) < cosExclude {
			continue
		}
		if cover.OccupiedByOther(u.ID) {
			continue
		}
		standPoint, ok := s.standPoint(u, cover, enemyPos)
		if !ok {
			continue
		}
		path := u.Agent.CalculatePath(standPoint)
		if path.Status != world.PathComplete {
			continue
		}
		if length := path.Length(); length < bestLength {
			bestLength = length
			best = CoverCandidate{Pos: standPoint, Cover: cover}
		}
	}
	if best.Cover == nil {
		return CoverCandidate{}, false
	}
	return best, true
}

// gatherCovers queries covers near pos, falling back to the arena's full
// cover list when the spatial query returns none (colliderless markers are
// invisible to overlap queries).
func (s *CoverService) gatherCovers(pos world.Vec3, radius float64) []*world.Cover {
	covers := make([]*world.Cover, 0, 8)
	if s.query != nil {
		for _, contact := range s.query.OverlapSphere(pos, radius) {
			if contact.Cover != nil {
				covers = append(covers, contact.Cover)
			}
		}
	}
	if len(covers) == 0 && s.arena != nil {
		covers = append(covers, s.arena.Covers()...)
	}
	return covers
}

// standPoint computes where the unit should stand to be shielded: offset
// from the cover along the enemy-to-cover direction, so the cover sits
// between the unit and the threat. When that point is not walkable, eight
// evenly spaced angular offsets around the cover are probed before the
// candidate is given up on.
func (s *CoverService) standPoint(u *unit.Context, cover *world.Cover, enemyPos world.Vec3) (world.Vec3, bool) {
	offset := u.Agent.Radius() + standMargin
	away := cover.Pos.Sub(enemyPos).Normalized()
	if away.Length() == 0 {
		away = world.Vec3{X: 1}
	}
	primary := cover.Pos.Add(away.Scale(offset))
	if u.Agent.Walkable(primary) {
		return primary, true
	}
	baseAngle := math.Atan2(away.Y, away.X)
	for step := 1; step < standProbeSteps; step++ {
		angle := baseAngle + float64(step)*(2*math.Pi/standProbeSteps)
		probe := cover.Pos.Add(world.Vec3{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(offset))
		if u.Agent.Walkable(probe) {
			return probe, true
		}
	}
	return world.Vec3{}, false
}

// Occupy claims cover for u: true when u already owns it, false when a
// different unit holds it, otherwise the claim is recorded atomically
// within the current tick.
func (s *CoverService) Occupy(u *unit.Context, cover *world.Cover) bool {
	if s == nil || u == nil || cover == nil {
		return false
	}
	if cover.Occupant == u.ID {
		u.CurrentCover = cover
		return true
	}
	if cover.Occupant != "" {
		s.metrics.CoverContentionLost()
		return false
	}
	cover.Occupant = u.ID
	u.CurrentCover = cover
	s.metrics.CoverClaimed()
	s.log.Debug().Str("unit", u.ID).Str("cover", cover.ID).Msg("cover claimed")
	return true
}

// Release clears u's occupancy. Only the current occupant is cleared, so
// releasing a cover someone else holds is a no-op for them.
func (s *CoverService) Release(u *unit.Context) {
	if s == nil || u == nil || u.CurrentCover == nil {
		return
	}
	cover := u.CurrentCover
	if cover.Occupant == u.ID {
		cover.Occupant = ""
		s.log.Debug().Str("unit", u.ID).Str("cover", cover.ID).Msg("cover released")
	}
	u.CurrentCover = nil
}
