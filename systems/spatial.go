// Package systems provides the simulation systems: spatial hashing,
// locomotion, collision resolution, bot AI and food management.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/serpent/components"
)

// FoodEntry is a food reference stored in a grid cell.
type FoodEntry struct {
	E    ecs.Entity
	X, Y float64
}

// gridCell holds per-tick references. Its contents are only valid while
// stamp equals the grid generation.
type gridCell struct {
	stamp  uint32
	agents []*components.Snake
	food   []FoodEntry
}

// SpatialGrid is a uniform hash grid over the world bounds with lazy clearing.
type SpatialGrid struct {
	cellSize   float64
	cols       int
	rows       int
	width      float64
	height     float64
	cells      []gridCell
	generation uint32
	queryStamp uint64
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	if !(cellSize > 0) {
		cellSize = 100
	}
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([]gridCell, cols*rows)
	for i := range cells {
		cells[i].agents = make([]*components.Snake, 0, 4)
		cells[i].food = make([]FoodEntry, 0, 4)
	}

	return &SpatialGrid{
		cellSize:   cellSize,
		cols:       cols,
		rows:       rows,
		width:      width,
		height:     height,
		cells:      cells,
		generation: 1,
	}
}

// Clear invalidates every cell in O(1) by advancing the generation.
// When the counter wraps, all stamps are reset so no stale cell can match.
func (g *SpatialGrid) Clear() {
	g.generation++
	if g.generation == 0 {
		for i := range g.cells {
			c := &g.cells[i]
			c.stamp = 0
			c.agents = c.agents[:0]
			c.food = c.food[:0]
		}
		g.generation = 1
	}
}

// touch returns the cell at idx, resetting it on first use this generation.
func (g *SpatialGrid) touch(idx int) *gridCell {
	c := &g.cells[idx]
	if c.stamp != g.generation {
		c.agents = c.agents[:0]
		c.food = c.food[:0]
		c.stamp = g.generation
	}
	return c
}

// RegisterSnake inserts an agent into the cell of its head and of every
// segmentStep-th body segment. Consecutive duplicates are skipped.
func (g *SpatialGrid) RegisterSnake(s *components.Snake, segmentStep int) {
	if len(s.Segments) == 0 {
		return
	}
	if segmentStep < 1 {
		segmentStep = 1
	}
	head := s.Segments[0]
	prev := g.cellIndex(head.X, head.Y)
	c := g.touch(prev)
	c.agents = append(c.agents, s)

	for i := segmentStep; i < len(s.Segments); i += segmentStep {
		seg := s.Segments[i]
		idx := g.cellIndex(seg.X, seg.Y)
		if idx == prev {
			continue
		}
		c := g.touch(idx)
		c.agents = append(c.agents, s)
		prev = idx
	}
}

// RegisterFood inserts a food entity at the given position.
func (g *SpatialGrid) RegisterFood(e ecs.Entity, x, y float64) {
	c := g.touch(g.cellIndex(x, y))
	c.food = append(c.food, FoodEntry{E: e, X: x, Y: y})
}

// RadiusCells converts a world-space radius into a cell radius for queries.
func (g *SpatialGrid) RadiusCells(radius float64) int {
	if !(radius > 0) {
		return 0
	}
	if radius > g.width+g.height {
		radius = g.width + g.height
	}
	return int(math.Ceil(radius / g.cellSize))
}

// QueryNearbyAgents appends every agent registered in the square of cells
// around (x, y) to dst, each at most once. Reuse dst across calls.
func (g *SpatialGrid) QueryNearbyAgents(dst []*components.Snake, x, y float64, radiusCells int) []*components.Snake {
	g.queryStamp++
	stamp := g.queryStamp
	minCol, minRow, maxCol, maxRow := g.cellRange(x, y, radiusCells)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			c := &g.cells[row*g.cols+col]
			if c.stamp != g.generation {
				continue
			}
			for _, a := range c.agents {
				if a.QueryStamp == stamp {
					continue
				}
				a.QueryStamp = stamp
				dst = append(dst, a)
			}
		}
	}
	return dst
}

// QueryNearbyFood appends every food entry in the square of cells around (x, y).
func (g *SpatialGrid) QueryNearbyFood(dst []FoodEntry, x, y float64, radiusCells int) []FoodEntry {
	minCol, minRow, maxCol, maxRow := g.cellRange(x, y, radiusCells)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			c := &g.cells[row*g.cols+col]
			if c.stamp != g.generation {
				continue
			}
			dst = append(dst, c.food...)
		}
	}
	return dst
}

// FoodLookup resolves a grid food entry to its live component.
// It reports false for entities removed since the grid was built.
type FoodLookup interface {
	Food(e ecs.Entity) (*components.Food, bool)
}

// QueryAABB appends unconsumed food inside the world-space rectangle.
func (g *SpatialGrid) QueryAABB(dst []FoodEntry, minX, minY, maxX, maxY float64, foods FoodLookup) []FoodEntry {
	if !(minX <= maxX) || !(minY <= maxY) {
		return dst
	}
	c0, r0 := g.cellCoords(minX, minY)
	c1, r1 := g.cellCoords(maxX, maxY)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			c := &g.cells[row*g.cols+col]
			if c.stamp != g.generation {
				continue
			}
			for _, f := range c.food {
				if f.X < minX || f.X > maxX || f.Y < minY || f.Y > maxY {
					continue
				}
				if foods != nil {
					if food, ok := foods.Food(f.E); !ok || food.Consumed {
						continue
					}
				}
				dst = append(dst, f)
			}
		}
	}
	return dst
}

// cellRange returns the clamped cell rectangle radiusCells around (x, y).
func (g *SpatialGrid) cellRange(x, y float64, radiusCells int) (minCol, minRow, maxCol, maxRow int) {
	if radiusCells < 0 {
		radiusCells = 0
	}
	col, row := g.cellCoords(x, y)
	minCol = max(col-radiusCells, 0)
	maxCol = min(col+radiusCells, g.cols-1)
	minRow = max(row-radiusCells, 0)
	maxRow = min(row+radiusCells, g.rows-1)
	return
}

// cellCoords returns the clamped column and row for a world position.
func (g *SpatialGrid) cellCoords(x, y float64) (int, int) {
	if !finite(x) {
		x = 0
	}
	if !finite(y) {
		y = 0
	}
	col := int(clampFloat(x/g.cellSize, 0, float64(g.cols-1)))
	row := int(clampFloat(y/g.cellSize, 0, float64(g.rows-1)))
	return col, row
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col, row := g.cellCoords(x, y)
	return row*g.cols + col
}

// Cols returns the number of grid columns.
func (g *SpatialGrid) Cols() int { return g.cols }

// Rows returns the number of grid rows.
func (g *SpatialGrid) Rows() int { return g.rows }
