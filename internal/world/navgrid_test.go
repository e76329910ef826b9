package world

import (
	"math"
	"testing"
)

func TestFindPathOpenGround(t *testing.T) {
	grid := NewNavGrid(nil, 20, 20, 1.0, 0.5)
	start := Vec3{X: 2, Y: 2}
	target := Vec3{X: 17, Y: 17}

	path := grid.FindPath(start, target)
	if path.Status != PathComplete {
		t.Fatalf("status = %v, want PathComplete", path.Status)
	}
	if len(path.Corners) < 2 {
		t.Fatalf("corners = %v", path.Corners)
	}
	if got := path.Corners[len(path.Corners)-1]; got.DistanceTo(target) > 1e-9 {
		t.Fatalf("final corner %v, want exact target %v", got, target)
	}
	straight := start.DistanceTo(target)
	if length := path.Length(); length < straight-1e-6 {
		t.Fatalf("path length %v shorter than straight-line %v", length, straight)
	}
}

func TestFindPathRoutesAroundWall(t *testing.T) {
	// Vertical wall with a gap at the bottom.
	wall := Obstacle{X: 9, Y: 4, Width: 2, Height: 16}
	grid := NewNavGrid([]Obstacle{wall}, 20, 20, 1.0, 0.5)
	start := Vec3{X: 4, Y: 10}
	target := Vec3{X: 16, Y: 10}

	path := grid.FindPath(start, target)
	if path.Status != PathComplete {
		t.Fatalf("status = %v, want PathComplete", path.Status)
	}
	straight := start.DistanceTo(target)
	if length := path.Length(); length <= straight {
		t.Fatalf("detour length %v should exceed straight-line %v", length, straight)
	}
	for _, corner := range path.Corners[1 : len(path.Corners)-1] {
		if !grid.Walkable(corner) {
			t.Fatalf("corner %v lands on blocked ground", corner)
		}
	}
}

func TestFindPathBlockedTargetIsPartial(t *testing.T) {
	block := Obstacle{X: 12, Y: 8, Width: 4, Height: 4}
	grid := NewNavGrid([]Obstacle{block}, 20, 20, 1.0, 0.5)
	start := Vec3{X: 3, Y: 10}
	target := Vec3{X: 14, Y: 10} // inside the obstacle

	path := grid.FindPath(start, target)
	if path.Status != PathPartial {
		t.Fatalf("status = %v, want PathPartial", path.Status)
	}
	end := path.Corners[len(path.Corners)-1]
	if !grid.Walkable(end) {
		t.Fatalf("partial path ends on blocked cell %v", end)
	}
	if end.DistanceTo(target) > 5 {
		t.Fatalf("partial endpoint %v too far from target %v", end, target)
	}
}

func TestFindPathUnreachableIsInvalid(t *testing.T) {
	// Seal off the right half completely: the wall spans the full height
	// including the border margin the agent radius already blocks.
	wall := Obstacle{X: 9, Y: 0, Width: 2, Height: 20}
	grid := NewNavGrid([]Obstacle{wall}, 20, 20, 1.0, 0.5)

	path := grid.FindPath(Vec3{X: 4, Y: 10}, Vec3{X: 16, Y: 10})
	if path.Status != PathInvalid {
		t.Fatalf("status = %v, want PathInvalid", path.Status)
	}
	if len(path.Corners) != 0 {
		t.Fatalf("invalid path carries corners %v", path.Corners)
	}
}

func TestFindPathOutsideBoundsIsInvalid(t *testing.T) {
	grid := NewNavGrid(nil, 20, 20, 1.0, 0.5)
	if path := grid.FindPath(Vec3{X: -5, Y: 10}, Vec3{X: 10, Y: 10}); path.Status != PathInvalid {
		t.Fatalf("start out of bounds: status = %v", path.Status)
	}
	if path := grid.FindPath(Vec3{X: 10, Y: 10}, Vec3{X: 25, Y: 10}); path.Status != PathInvalid {
		t.Fatalf("target out of bounds: status = %v", path.Status)
	}
}

func TestWalkableRespectsAgentRadius(t *testing.T) {
	obs := Obstacle{X: 8, Y: 8, Width: 4, Height: 4}
	grid := NewNavGrid([]Obstacle{obs}, 20, 20, 1.0, 0.5)

	if grid.Walkable(Vec3{X: 10, Y: 10}) {
		t.Fatal("obstacle interior reported walkable")
	}
	// Cell centers within agentRadius of the obstacle edge are blocked too.
	if grid.Walkable(Vec3{X: 7.5, Y: 10}) {
		t.Fatal("cell hugging the obstacle should be blocked by the radius margin")
	}
	if !grid.Walkable(Vec3{X: 5.5, Y: 10}) {
		t.Fatal("open ground reported blocked")
	}
	// Cells whose disc would poke outside the arena are blocked.
	wide := NewNavGrid(nil, 20, 20, 1.0, 0.8)
	if wide.Walkable(Vec3{X: 0.2, Y: 10}) {
		t.Fatal("border strip should be blocked for a wide agent")
	}
}

func TestPathLengthEmpty(t *testing.T) {
	if got := (Path{}).Length(); got != 0 {
		t.Fatalf("empty path length = %v", got)
	}
}

func TestCompressCornersDropsCollinear(t *testing.T) {
	corners := []Vec3{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 2, Y: 0},
		{X: 3, Y: 0},
		{X: 3, Y: 1},
	}
	out := compressCorners(corners)
	if len(out) != 3 {
		t.Fatalf("compressed to %d corners: %v", len(out), out)
	}
	if out[0] != corners[0] || out[len(out)-1] != corners[len(corners)-1] {
		t.Fatalf("endpoints changed: %v", out)
	}
}

func TestHeuristicAdmissible(t *testing.T) {
	grid := NewNavGrid(nil, 20, 20, 1.0, 0.5)
	a := navPoint{col: 2, row: 3}
	b := navPoint{col: 9, row: 14}
	h := grid.heuristic(a, b)
	// Octile distance never exceeds the true shortest grid path cost.
	dx := math.Abs(float64(a.col - b.col))
	dy := math.Abs(float64(a.row - b.row))
	euclid := math.Hypot(dx, dy)
	if h < euclid-1e-9 {
		t.Fatalf("heuristic %v below euclidean %v", h, euclid)
	}
	if h > dx+dy {
		t.Fatalf("heuristic %v above manhattan %v", h, dx+dy)
	}
}
