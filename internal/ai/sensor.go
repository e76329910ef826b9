package ai

import (
	"lanefall/internal/unit"
)

// Sensor finds hostile units through the stage's spatial query.
type Sensor struct {
	query SpatialQuery
}

func NewSensor(query SpatialQuery) *Sensor {
	return &Sensor{query: query}
}

// FindNearestEnemy returns the closest living hostile within radius of u,
// or nil when none qualifies. Distance is full 3D Euclidean and is checked
// again here because the underlying query may over-approximate.
func (s *Sensor) FindNearestEnemy(u *unit.Context, radius float64) *unit.Context {
	if s == nil || s.query == nil || u == nil || radius <= 0 {
		return nil
	}
	origin := u.Position()
	var nearest *unit.Context
	nearestDist := 0.0
	for _, contact := range s.query.OverlapSphere(origin, radius) {
		other := contact.Unit
		if other == nil || other == u || other.Team == u.Team || !other.Alive() {
			continue
		}
		dist := origin.DistanceTo(other.Position())
		if dist > radius {
			continue
		}
		if nearest == nil || dist < nearestDist {
			nearest = other
			nearestDist = dist
		}
	}
	return nearest
}
