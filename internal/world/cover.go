package world

// Cover is a placed battlefield marker granting a protection bonus to the
// unit standing behind it. Covers live as long as the arena; occupancy is
// arbitrated by the cover service, never by the cover itself.
type Cover struct {
	ID         string  `json:"id"`
	Pos        Vec3    `json:"pos"`
	Protection float64 `json:"protection"`

	// Occupant is the ID of the unit currently holding this cover, empty
	// when free. Written only on the simulation goroutine.
	Occupant string `json:"occupant,omitempty"`
}

// Occupied reports whether any unit holds this cover.
func (c *Cover) Occupied() bool {
	return c != nil && c.Occupant != ""
}

// OccupiedByOther reports whether a unit other than unitID holds this cover.
func (c *Cover) OccupiedByOther(unitID string) bool {
	return c != nil && c.Occupant != "" && c.Occupant != unitID
}
