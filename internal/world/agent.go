package world

import "math"

const (
	// defaultStoppingDistance halts agents slightly short of their goal so
	// they do not jitter on the exact destination point.
	defaultStoppingDistance = 0.5
)

// Agent is the navigation provider for one unit. SetDestination is
// asynchronous in the provider sense: the path request stays pending until
// the next locomotion step resolves it against the grid, which is when
// HasPath and RemainingDistance become meaningful.
type Agent struct {
	grid *NavGrid

	pos    Vec3
	facing Vec3
	speed  float64
	radius float64

	stoppingDistance float64

	pathPending bool
	pendingDest Vec3
	hasPath     bool
	corners     []Vec3
	cornerIndex int
	velocity    Vec3
}

// NewAgent places an agent on the grid at pos, facing initialFacing.
func NewAgent(grid *NavGrid, pos Vec3, initialFacing Vec3, speed, radius float64) *Agent {
	facing := initialFacing.Normalized()
	if facing.Length() == 0 {
		facing = Vec3{X: 1}
	}
	return &Agent{
		grid:             grid,
		pos:              pos,
		facing:           facing,
		speed:            speed,
		radius:           radius,
		stoppingDistance: defaultStoppingDistance,
	}
}

func (a *Agent) Position() Vec3 { return a.pos }

func (a *Agent) Facing() Vec3 { return a.facing }

func (a *Agent) Velocity() Vec3 { return a.velocity }

func (a *Agent) Radius() float64 { return a.radius }

func (a *Agent) Speed() float64 { return a.speed }

// SetSpeed adjusts locomotion speed, e.g. after a level change.
func (a *Agent) SetSpeed(speed float64) { a.speed = speed }

// Warp teleports the agent, dropping any current path.
func (a *Agent) Warp(pos Vec3) {
	a.pos = pos
	a.ResetPath()
}

// Face turns the agent toward point without moving it.
func (a *Agent) Face(point Vec3) {
	dir := point.Sub(a.pos)
	dir.Z = 0
	if normalized := dir.Normalized(); normalized.Length() > 0 {
		a.facing = normalized
	}
}

func (a *Agent) StoppingDistance() float64 { return a.stoppingDistance }

func (a *Agent) SetStoppingDistance(value float64) {
	if value < 0 {
		value = 0
	}
	a.stoppingDistance = value
}

// SetDestination requests a path toward dest. The computation resolves on
// the next Step; until then PathPending reports true and HasPath false.
func (a *Agent) SetDestination(dest Vec3) {
	a.pathPending = true
	a.pendingDest = dest
	a.hasPath = false
	a.corners = nil
	a.cornerIndex = 0
}

// ResetPath cancels the current path and any pending request. The agent
// stays where it is.
func (a *Agent) ResetPath() {
	a.pathPending = false
	a.hasPath = false
	a.corners = nil
	a.cornerIndex = 0
	a.velocity = Vec3{}
}

func (a *Agent) PathPending() bool { return a.pathPending }

func (a *Agent) HasPath() bool { return a.hasPath }

// Destination returns the end point of the current or pending path.
func (a *Agent) Destination() Vec3 {
	if a.pathPending {
		return a.pendingDest
	}
	if a.hasPath && len(a.corners) > 0 {
		return a.corners[len(a.corners)-1]
	}
	return a.pos
}

// RemainingDistance sums the distance along the unconsumed part of the
// path. Infinite while a path computation is pending, zero without a path.
func (a *Agent) RemainingDistance() float64 {
	if a.pathPending {
		return math.Inf(1)
	}
	if !a.hasPath || a.cornerIndex >= len(a.corners) {
		return 0
	}
	total := a.pos.DistanceTo(a.corners[a.cornerIndex])
	for i := a.cornerIndex + 1; i < len(a.corners); i++ {
		total += a.corners[i].DistanceTo(a.corners[i-1])
	}
	return total
}

// CalculatePath computes a path from the agent's position to point without
// adopting it as the active path.
func (a *Agent) CalculatePath(point Vec3) Path {
	if a.grid == nil {
		return Path{Status: PathInvalid}
	}
	return a.grid.FindPath(a.pos, point)
}

// Walkable reports whether point is on traversable ground.
func (a *Agent) Walkable(point Vec3) bool {
	return a.grid != nil && a.grid.Walkable(point)
}

// Step advances the agent by dt seconds: resolves a pending path request,
// then walks the corner list at the agent's speed, halting within
// stoppingDistance of the destination.
func (a *Agent) Step(dt float64) {
	if a.pathPending {
		a.resolvePending()
	}
	a.velocity = Vec3{}
	if !a.hasPath || dt <= 0 || a.speed <= 0 {
		return
	}
	if a.RemainingDistance() <= a.stoppingDistance {
		return
	}

	budget := a.speed * dt
	for budget > 0 && a.cornerIndex < len(a.corners) {
		corner := a.corners[a.cornerIndex]
		toCorner := corner.Sub(a.pos)
		dist := toCorner.Length()
		if dist <= budget {
			a.pos = corner
			budget -= dist
			a.cornerIndex++
			continue
		}
		dir := toCorner.Scale(1 / dist)
		a.pos = a.pos.Add(dir.Scale(budget))
		a.facing = Vec3{X: dir.X, Y: dir.Y}.Normalized()
		budget = 0
	}
	if dt > 0 {
		// Velocity over this step, not an instantaneous reading.
		a.velocity = a.facing.Scale(a.speed)
	}
	if a.cornerIndex >= len(a.corners) {
		a.hasPath = false
		a.corners = nil
		a.cornerIndex = 0
		a.velocity = Vec3{}
	}
}

func (a *Agent) resolvePending() {
	dest := a.pendingDest
	a.pathPending = false
	path := a.CalculatePath(dest)
	if path.Status == PathInvalid || len(path.Corners) == 0 {
		a.hasPath = false
		a.corners = nil
		a.cornerIndex = 0
		return
	}
	a.hasPath = true
	a.corners = path.Corners
	a.cornerIndex = 0
	// The first corner is the agent's own position.
	if len(a.corners) > 1 && a.pos.DistanceTo(a.corners[0]) < 1e-9 {
		a.cornerIndex = 1
	}
}
