package world

import (
	"container/heap"
	"math"
)

type navNeighbor struct {
	col      int
	row      int
	cost     float64
	diagonal bool
}

var navNeighborOffsets = [...]navNeighbor{
	{col: 0, row: -1, cost: 1, diagonal: false},
	{col: 1, row: 0, cost: 1, diagonal: false},
	{col: 0, row: 1, cost: 1, diagonal: false},
	{col: -1, row: 0, cost: 1, diagonal: false},
	{col: 1, row: -1, cost: math.Sqrt2, diagonal: true},
	{col: 1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: -1, cost: math.Sqrt2, diagonal: true},
}

const defaultNavCellSize = 1.0

// PathStatus mirrors the navigation provider contract: Complete paths reach
// the requested point, Partial paths stop at the closest reachable cell,
// Invalid paths could not be computed at all.
type PathStatus int

const (
	PathInvalid PathStatus = iota
	PathPartial
	PathComplete
)

// Path is a corner list in world space plus its completion status.
type Path struct {
	Corners []Vec3
	Status  PathStatus
}

// Length sums the corner-to-corner distances of the path.
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p.Corners); i++ {
		total += p.Corners[i].DistanceTo(p.Corners[i-1])
	}
	return total
}

// NavGrid is a uniform-cell walkability grid with an A* search over it.
type NavGrid struct {
	cols, rows int
	cellSize   float64
	walkable   []bool
	width      float64
	height     float64
}

// NewNavGrid rasterizes the arena obstacles into a walkability grid. A cell
// is blocked when a disc of agentRadius at its center overlaps any obstacle
// or pokes outside the arena bounds.
func NewNavGrid(obstacles []Obstacle, width, height, cellSize, agentRadius float64) *NavGrid {
	if cellSize <= 0 {
		cellSize = defaultNavCellSize
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	grid := &NavGrid{
		cols:     cols,
		rows:     rows,
		cellSize: cellSize,
		walkable: make([]bool, cols*rows),
		width:    width,
		height:   height,
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cx := (float64(col) + 0.5) * cellSize
			cy := (float64(row) + 0.5) * cellSize
			if cx < agentRadius || cx > width-agentRadius || cy < agentRadius || cy > height-agentRadius {
				continue
			}
			blocked := false
			for _, obs := range obstacles {
				if circleRectOverlap(cx, cy, agentRadius, obs) {
					blocked = true
					break
				}
			}
			if !blocked {
				grid.walkable[row*cols+col] = true
			}
		}
	}

	return grid
}

func circleRectOverlap(cx, cy, radius float64, obs Obstacle) bool {
	nearestX := clamp(cx, obs.X, obs.X+obs.Width)
	nearestY := clamp(cy, obs.Y, obs.Y+obs.Height)
	dx := cx - nearestX
	dy := cy - nearestY
	return dx*dx+dy*dy <= radius*radius
}

func (g *NavGrid) inBounds(col, row int) bool {
	return g != nil && col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func (g *NavGrid) index(col, row int) int {
	return row*g.cols + col
}

func (g *NavGrid) isWalkable(col, row int) bool {
	if !g.inBounds(col, row) {
		return false
	}
	return g.walkable[g.index(col, row)]
}

func (g *NavGrid) worldPos(col, row int) Vec3 {
	return Vec3{
		X: (float64(col) + 0.5) * g.cellSize,
		Y: (float64(row) + 0.5) * g.cellSize,
	}
}

// Walkable reports whether the cell containing point is traversable. Used by
// the cover service to probe candidate stand points.
func (g *NavGrid) Walkable(point Vec3) bool {
	col, row, ok := g.locate(point.X, point.Y)
	if !ok {
		return false
	}
	return g.isWalkable(col, row)
}

func (g *NavGrid) canTraverseDiagonal(current navPoint, delta navNeighbor) bool {
	if g == nil || !delta.diagonal {
		return true
	}
	if !g.isWalkable(current.col+delta.col, current.row) {
		return false
	}
	if !g.isWalkable(current.col, current.row+delta.row) {
		return false
	}
	return true
}

func (g *NavGrid) locate(x, y float64) (int, int, bool) {
	if g == nil || g.cols == 0 || g.rows == 0 {
		return 0, 0, false
	}
	maxX := math.Max(g.width-1e-9, 0)
	maxY := math.Max(g.height-1e-9, 0)
	col := int(clamp(x, 0, maxX) / g.cellSize)
	row := int(clamp(y, 0, maxY) / g.cellSize)
	if !g.inBounds(col, row) {
		return 0, 0, false
	}
	return col, row, true
}

// closestWalkable breadth-first searches outward from (col,row) for the
// nearest traversable cell.
func (g *NavGrid) closestWalkable(col, row int) (int, int, bool) {
	if !g.inBounds(col, row) {
		return 0, 0, false
	}
	type node struct {
		col int
		row int
	}
	visited := make(map[int]struct{})
	queue := []node{{col: col, row: row}}
	visited[g.index(col, row)] = struct{}{}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if g.isWalkable(current.col, current.row) {
			return current.col, current.row, true
		}
		for _, delta := range navNeighborOffsets {
			nc := current.col + delta.col
			nr := current.row + delta.row
			if !g.inBounds(nc, nr) {
				continue
			}
			idx := g.index(nc, nr)
			if _, seen := visited[idx]; seen {
				continue
			}
			visited[idx] = struct{}{}
			queue = append(queue, node{col: nc, row: nr})
		}
	}
	return 0, 0, false
}

type navPoint struct {
	col int
	row int
}

func (g *NavGrid) heuristic(a, b navPoint) float64 {
	dx := math.Abs(float64(a.col - b.col))
	dy := math.Abs(float64(a.row - b.row))
	if dx > dy {
		return dx + (math.Sqrt2-1)*dy
	}
	return dy + (math.Sqrt2-1)*dx
}

type pathNode struct {
	point  navPoint
	g      float64
	f      float64
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

func (g *NavGrid) astar(start, goal navPoint) ([]navPoint, bool) {
	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{point: start, g: 0, f: g.heuristic(start, goal)})
	gScore := map[int]float64{g.index(start.col, start.row): 0}
	closed := make(map[int]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		currIdx := g.index(current.point.col, current.point.row)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		if current.point == goal {
			return reconstructPath(current), true
		}

		for _, delta := range navNeighborOffsets {
			if delta.diagonal && !g.canTraverseDiagonal(current.point, delta) {
				continue
			}
			nc := current.point.col + delta.col
			nr := current.point.row + delta.row
			if !g.isWalkable(nc, nr) {
				continue
			}
			idx := g.index(nc, nr)
			if _, seen := closed[idx]; seen {
				continue
			}
			tentativeG := current.g + delta.cost
			if prev, ok := gScore[idx]; ok && tentativeG >= prev {
				continue
			}
			gScore[idx] = tentativeG
			next := navPoint{col: nc, row: nr}
			heap.Push(open, &pathNode{
				point:  next,
				g:      tentativeG,
				f:      tentativeG + g.heuristic(next, goal),
				parent: current,
			})
		}
	}
	return nil, false
}

func reconstructPath(end *pathNode) []navPoint {
	if end == nil {
		return nil
	}
	path := make([]navPoint, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, node.point)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FindPath computes a corner path from start to target. When the target cell
// is blocked the search retargets the closest walkable cell and reports the
// path as Partial. The final corner of a Complete path is snapped onto the
// exact target point.
func (g *NavGrid) FindPath(start, target Vec3) Path {
	if g == nil {
		return Path{Status: PathInvalid}
	}
	startCol, startRow, ok := g.locate(start.X, start.Y)
	if !ok {
		return Path{Status: PathInvalid}
	}
	goalCol, goalRow, ok := g.locate(target.X, target.Y)
	if !ok {
		return Path{Status: PathInvalid}
	}
	if !g.isWalkable(startCol, startRow) {
		sc, sr, ok := g.closestWalkable(startCol, startRow)
		if !ok {
			return Path{Status: PathInvalid}
		}
		startCol, startRow = sc, sr
	}
	status := PathComplete
	if !g.isWalkable(goalCol, goalRow) {
		gc, gr, ok := g.closestWalkable(goalCol, goalRow)
		if !ok {
			return Path{Status: PathInvalid}
		}
		goalCol, goalRow = gc, gr
		status = PathPartial
	}

	nodes, ok := g.astar(navPoint{col: startCol, row: startRow}, navPoint{col: goalCol, row: goalRow})
	if !ok || len(nodes) == 0 {
		return Path{Status: PathInvalid}
	}

	corners := make([]Vec3, 0, len(nodes)+1)
	corners = append(corners, start)
	for i := 1; i < len(nodes); i++ {
		corners = append(corners, g.worldPos(nodes[i].col, nodes[i].row))
	}
	end := target
	if status != PathComplete {
		end = g.worldPos(goalCol, goalRow)
	}
	last := corners[len(corners)-1]
	if last.DistanceTo(end) > g.cellSize*0.05 {
		corners = append(corners, end)
	} else {
		corners[len(corners)-1] = end
	}
	return Path{Corners: compressCorners(corners), Status: status}
}

// compressCorners drops interior corners that continue in the same direction
// so agents steer along straight runs instead of cell centers.
func compressCorners(corners []Vec3) []Vec3 {
	if len(corners) <= 2 {
		return corners
	}
	out := make([]Vec3, 0, len(corners))
	out = append(out, corners[0])
	for i := 1; i < len(corners)-1; i++ {
		prev := out[len(out)-1]
		next := corners[i+1]
		dir1 := corners[i].Sub(prev).Normalized()
		dir2 := next.Sub(corners[i]).Normalized()
		if dir1.Dot(dir2) > 0.9999 {
			continue
		}
		out = append(out, corners[i])
	}
	out = append(out, corners[len(corners)-1])
	return out
}
