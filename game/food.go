package game

import (
	"fmt"
	"math/rand"
)

// Food is a consumable point. Value is 1 (common) or 2 (death drop near a head).
type Food struct {
	ID     string
	X      float64
	Y      float64
	Value  int
	Radius float64
	Color  string
}

// foodRadius maps a value to its render radius
func foodRadius(value int) float64 {
	if value >= 2 {
		return FoodRadiusLarge
	}
	return FoodRadiusSmall
}

var foodColors = []string{
	"#ff6b6b", "#ffd93d", "#6bcb77", "#4d96ff", "#ff922b",
	"#cc5de8", "#20c997", "#f06595", "#74c0fc", "#a9e34b",
}

// FoodField owns every food item of one arena and keeps a spatial grid in sync with it.
type FoodField struct {
	items  map[string]*Food
	grid   *SpatialGrid
	target int
	width  float64
	height float64
	margin float64
	rng    *rand.Rand
	nextID int
}

// NewFoodField creates an empty field. Call EnsurePopulation to fill it.
func NewFoodField(width, height float64, target int, rng *rand.Rand) *FoodField {
	return &FoodField{
		items:  make(map[string]*Food),
		grid:   NewSpatialGrid(GridCellSize),
		target: target,
		width:  width,
		height: height,
		margin: FoodMargin,
		rng:    rng,
	}
}

// Len returns the number of items in the field
func (f *FoodField) Len() int {
	return len(f.items)
}

// Target returns the population the field replenishes toward
func (f *FoodField) Target() int {
	return f.target
}

// EnsurePopulation spawns random items until the field reaches its target.
func (f *FoodField) EnsurePopulation() {
	f.Replenish(f.target)
}

// Replenish spawns at most max items toward the target and returns how many it added.
func (f *FoodField) Replenish(max int) int {
	deficit := f.target - len(f.items)
	if deficit > max {
		deficit = max
	}
	for i := 0; i < deficit; i++ {
		f.insert(f.randomFood())
	}
	if deficit < 0 {
		return 0
	}
	return deficit
}

// randomFood makes a value-1 item at a random spot inside the margins
func (f *FoodField) randomFood() *Food {
	x := f.margin + f.rng.Float64()*(f.width-2*f.margin)
	y := f.margin + f.rng.Float64()*(f.height-2*f.margin)
	return &Food{
		X:      x,
		Y:      y,
		Value:  1,
		Radius: foodRadius(1),
		Color:  foodColors[f.rng.Intn(len(foodColors))],
	}
}

// AbsorbBurst bulk-inserts externally generated items such as a death drop.
// Items keep a precomputed radius; missing ids and radii are filled in.
// Positions are clamped into the arena so nothing lands outside the walls.
func (f *FoodField) AbsorbBurst(items []*Food) {
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Value <= 0 {
			it.Value = 1
		}
		if it.Radius == 0 {
			it.Radius = foodRadius(it.Value)
		}
		it.X = clamp(it.X, 0, f.width)
		it.Y = clamp(it.Y, 0, f.height)
		f.insert(it)
	}
}

func (f *FoodField) insert(it *Food) {
	if it.ID == "" || f.items[it.ID] != nil {
		f.nextID++
		it.ID = fmt.Sprintf("f%d", f.nextID)
	}
	f.items[it.ID] = it
	f.grid.Insert(it)
}

// Get returns an item by id
func (f *FoodField) Get(id string) (*Food, bool) {
	it, ok := f.items[id]
	return it, ok
}

// Remove deletes an item by id; unknown ids are ignored.
func (f *FoodField) Remove(id string) {
	it, ok := f.items[id]
	if !ok {
		return
	}
	f.grid.Remove(it)
	delete(f.items, id)
}

// Move relocates an item and keeps the grid consistent.
func (f *FoodField) Move(it *Food, x, y float64) {
	f.grid.Remove(it)
	it.X, it.Y = x, y
	f.grid.Insert(it)
}

// Nearby returns every item within radius of (x, y)
func (f *FoodField) Nearby(x, y, radius float64) []*Food {
	return f.grid.Nearby(x, y, radius)
}

// All returns every item in the field
func (f *FoodField) All() []*Food {
	out := make([]*Food, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	return out
}
