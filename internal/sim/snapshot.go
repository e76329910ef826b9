package sim

import "lanefall/internal/world"

// UnitSnapshot is the observable view of one unit at a tick boundary.
type UnitSnapshot struct {
	ID        string     `json:"id"`
	Team      int        `json:"team"`
	Archetype string     `json:"archetype"`
	Level     int        `json:"level"`
	Pos       world.Vec3 `json:"pos"`
	Health    float64    `json:"health"`
	MaxHealth float64    `json:"maxHealth"`
	State     string     `json:"state"`
	Cover     string     `json:"cover,omitempty"`
}

// CoverSnapshot is the observable view of one cover marker.
type CoverSnapshot struct {
	ID         string     `json:"id"`
	Pos        world.Vec3 `json:"pos"`
	Protection float64    `json:"protection"`
	Occupant   string     `json:"occupant,omitempty"`
}

// Snapshot is the full observable state broadcast to subscribers after a
// step.
type Snapshot struct {
	Tick   uint64          `json:"t"`
	Units  []UnitSnapshot  `json:"units"`
	Covers []CoverSnapshot `json:"covers"`
}
