package ai

import (
	"testing"

	"github.com/rs/zerolog"

	"lanefall/internal/world"
)

func newCoverService(arena *world.Arena) *CoverService {
	return NewCoverService(nil, arena, zerolog.Nop(), nil)
}

func TestFindBestPicksShortestPath(t *testing.T) {
	arena := openArena(t)
	near := &world.Cover{ID: "near", Pos: world.Vec3{X: 14, Y: 12}, Protection: 0.3}
	far := &world.Cover{ID: "far", Pos: world.Vec3{X: 18, Y: 16}, Protection: 0.6}
	arena.AddCover(near)
	arena.AddCover(far)

	u := spawnAI(t, arena, "unit-1", 0, world.Vec3{X: 10, Y: 10}, nil)
	service := newCoverService(arena)
	enemy := world.Vec3{X: 30, Y: 10}

	candidate, ok := service.FindBest(u, u.Position(), enemy, 15)
	if !ok {
		t.Fatal("no candidate found")
	}
	if candidate.Cover != near {
		t.Fatalf("picked %q, want the closer cover", candidate.Cover.ID)
	}
	// The stand point keeps the cover between the unit and the enemy.
	toEnemy := enemy.Sub(candidate.Cover.Pos).Normalized()
	toStand := candidate.Pos.Sub(candidate.Cover.Pos).Normalized()
	if toEnemy.Dot(toStand) > -0.9 {
		t.Fatalf("stand point %v not opposite the enemy", candidate.Pos)
	}
	if !u.Agent.Walkable(candidate.Pos) {
		t.Fatal("stand point on blocked ground")
	}
}

func TestFindBestSkipsOccupiedCovers(t *testing.T) {
	arena := openArena(t)
	taken := &world.Cover{ID: "taken", Pos: world.Vec3{X: 13, Y: 10}, Protection: 0.5, Occupant: "unit-9"}
	free := &world.Cover{ID: "free", Pos: world.Vec3{X: 16, Y: 13}, Protection: 0.3}
	arena.AddCover(taken)
	arena.AddCover(free)

	u := spawnAI(t, arena, "unit-1", 0, world.Vec3{X: 10, Y: 10}, nil)
	service := newCoverService(arena)

	candidate, ok := service.FindBest(u, u.Position(), world.Vec3{X: 30, Y: 10}, 15)
	if !ok {
		t.Fatal("no candidate found")
	}
	if candidate.Cover != free {
		t.Fatalf("picked %q, want the unoccupied cover", candidate.Cover.ID)
	}
}

func TestFindBestAcceptsOwnCover(t *testing.T) {
	arena := openArena(t)
	own := &world.Cover{ID: "own", Pos: world.Vec3{X: 13, Y: 10}, Protection: 0.5, Occupant: "unit-1"}
	arena.AddCover(own)

	u := spawnAI(t, arena, "unit-1", 0, world.Vec3{X: 10, Y: 10}, nil)
	service := newCoverService(arena)

	candidate, ok := service.FindBest(u, u.Position(), world.Vec3{X: 30, Y: 10}, 15)
	if !ok || candidate.Cover != own {
		t.Fatal("cover held by the unit itself should stay eligible")
	}
}

func TestFindBestExcludesRearCovers(t *testing.T) {
	arena := openArena(t)
	// Unit faces +X; a cover straight behind it falls outside the exclusion
	// cone and must be skipped.
	behind := &world.Cover{ID: "behind", Pos: world.Vec3{X: 5, Y: 10}, Protection: 0.6}
	arena.AddCover(behind)

	u := spawnAI(t, arena, "unit-1", 0, world.Vec3{X: 10, Y: 10}, nil)
	service := newCoverService(arena)

	if _, ok := service.FindBest(u, u.Position(), world.Vec3{X: 30, Y: 10}, 15); ok {
		t.Fatal("rear cover selected")
	}

	// Widening the exclusion angle to a full circle admits it again.
	u.Tunables.CoverExcludeAngleDeg = 180
	if _, ok := service.FindBest(u, u.Position(), world.Vec3{X: 30, Y: 10}, 15); !ok {
		t.Fatal("rear cover still skipped with a 180 degree cone")
	}
}

func TestFindBestEnforcesSearchRadius(t *testing.T) {
	arena := openArena(t)
	distant := &world.Cover{ID: "distant", Pos: world.Vec3{X: 35, Y: 10}, Protection: 0.4}
	arena.AddCover(distant)

	u := spawnAI(t, arena, "unit-1", 0, world.Vec3{X: 10, Y: 10}, nil)
	service := newCoverService(arena)

	if _, ok := service.FindBest(u, u.Position(), world.Vec3{X: 38, Y: 10}, 10); ok {
		t.Fatal("cover beyond the search radius selected")
	}
}

func TestStandPointOffsetFromCover(t *testing.T) {
	arena := openArena(t)
	cover := &world.Cover{ID: "c1", Pos: world.Vec3{X: 12, Y: 10}, Protection: 0.5}
	arena.AddCover(cover)

	u := spawnAI(t, arena, "unit-1", 0, world.Vec3{X: 8, Y: 10}, nil)
	service := newCoverService(arena)

	candidate, ok := service.FindBest(u, u.Position(), world.Vec3{X: 30, Y: 10}, 15)
	if !ok {
		t.Fatal("no candidate found")
	}
	offset := candidate.Pos.DistanceTo(cover.Pos)
	want := u.Agent.Radius() + 0.35
	if diff := offset - want; diff < -1e-6 || diff > 1e-6 {
		t.Fatalf("stand offset = %v, want %v", offset, want)
	}
}

func TestOccupyArbitratesSingleOccupant(t *testing.T) {
	arena := openArena(t)
	cover := &world.Cover{ID: "c1", Pos: world.Vec3{X: 15, Y: 10}, Protection: 0.5}
	arena.AddCover(cover)

	a := spawnAI(t, arena, "unit-1", 0, world.Vec3{X: 14, Y: 10}, nil)
	b := spawnAI(t, arena, "unit-2", 0, world.Vec3{X: 16, Y: 10}, nil)
	service := newCoverService(arena)

	if !service.Occupy(a, cover) {
		t.Fatal("first claim rejected")
	}
	if service.Occupy(b, cover) {
		t.Fatal("second claim succeeded on an occupied cover")
	}
	if cover.Occupant != a.ID {
		t.Fatalf("occupant = %q", cover.Occupant)
	}
	if b.CurrentCover != nil {
		t.Fatal("losing claimant recorded the cover as current")
	}
	// Re-claiming one's own cover stays true.
	if !service.Occupy(a, cover) {
		t.Fatal("re-claim by the occupant rejected")
	}
}

func TestReleaseOnlyClearsOwnOccupancy(t *testing.T) {
	arena := openArena(t)
	cover := &world.Cover{ID: "c1", Pos: world.Vec3{X: 15, Y: 10}, Protection: 0.5}
	arena.AddCover(cover)

	a := spawnAI(t, arena, "unit-1", 0, world.Vec3{X: 14, Y: 10}, nil)
	b := spawnAI(t, arena, "unit-2", 0, world.Vec3{X: 16, Y: 10}, nil)
	service := newCoverService(arena)

	service.Occupy(a, cover)
	// b somehow still references the cover; releasing must not evict a.
	b.CurrentCover = cover
	service.Release(b)
	if cover.Occupant != a.ID {
		t.Fatal("release by a non-occupant evicted the owner")
	}
	if b.CurrentCover != nil {
		t.Fatal("release did not clear the unit's own reference")
	}

	service.Release(a)
	if cover.Occupant != "" {
		t.Fatal("owner release left the cover claimed")
	}
	if a.CurrentCover != nil {
		t.Fatal("owner release left the unit's reference")
	}
	// Releasing again is a no-op.
	service.Release(a)
}
