package ai

import (
	"context"

	"lanefall/internal/unit"
	"lanefall/internal/world"
)

// Contact is one spatial query result, resolved to its owning record at
// query time. Exactly one of Unit and Cover is set.
type Contact struct {
	Unit  *unit.Context
	Cover *world.Cover
	Pos   world.Vec3
}

// SpatialQuery is the proximity provider the services consume. Results may
// over-approximate the radius; callers re-filter by true distance.
type SpatialQuery interface {
	OverlapSphere(center world.Vec3, radius float64) []Contact
}

// DeferFunc schedules fn to run one scheduling step later, owned by the
// given cancellation scope.
type DeferFunc func(owner context.Context, fn func())
