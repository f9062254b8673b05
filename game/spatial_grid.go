package game

import "math"

// cellKey uniquely identifies a grid cell
type cellKey struct {
	cx, cy int
}

// SpatialGrid is a hash grid of food items for fast proximity queries.
// Unlike a per-tick rebuild, items are inserted and removed as the field changes.
type SpatialGrid struct {
	cells    map[cellKey][]*Food
	cellSize float64
}

// NewSpatialGrid creates an empty spatial grid
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	return &SpatialGrid{
		cells:    make(map[cellKey][]*Food),
		cellSize: cellSize,
	}
}

func (g *SpatialGrid) keyFor(x, y float64) cellKey {
	return cellKey{
		cx: int(math.Floor(x / g.cellSize)),
		cy: int(math.Floor(y / g.cellSize)),
	}
}

// Insert adds a food item to the cell under its position
func (g *SpatialGrid) Insert(f *Food) {
	k := g.keyFor(f.X, f.Y)
	g.cells[k] = append(g.cells[k], f)
}

// Remove drops a food item from the cell under its current position
func (g *SpatialGrid) Remove(f *Food) {
	k := g.keyFor(f.X, f.Y)
	cell := g.cells[k]
	for i, e := range cell {
		if e == f {
			cell[i] = cell[len(cell)-1]
			cell[len(cell)-1] = nil
			cell = cell[:len(cell)-1]
			break
		}
	}
	if len(cell) == 0 {
		delete(g.cells, k)
		return
	}
	g.cells[k] = cell
}

// Nearby returns food within radius of (x,y)
func (g *SpatialGrid) Nearby(x, y, radius float64) []*Food {
	results := []*Food{}
	minCX := int(math.Floor((x - radius) / g.cellSize))
	maxCX := int(math.Floor((x + radius) / g.cellSize))
	minCY := int(math.Floor((y - radius) / g.cellSize))
	maxCY := int(math.Floor((y + radius) / g.cellSize))

	r2 := radius * radius
	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			for _, f := range g.cells[cellKey{cx, cy}] {
				dx := f.X - x
				dy := f.Y - y
				if dx*dx+dy*dy <= r2 {
					results = append(results, f)
				}
			}
		}
	}
	return results
}
