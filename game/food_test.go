package game

import (
	"math/rand"
	"testing"
)

func newTestField(target int) *FoodField {
	return NewFoodField(ArenaWidth, ArenaHeight, target, rand.New(rand.NewSource(1)))
}

func TestEnsurePopulationFillsInsideMargins(t *testing.T) {
	f := newTestField(500)
	f.EnsurePopulation()
	if f.Len() != 500 {
		t.Fatalf("len = %d, want 500", f.Len())
	}
	seen := make(map[string]bool)
	for _, it := range f.All() {
		if it.X < FoodMargin || it.X > ArenaWidth-FoodMargin || it.Y < FoodMargin || it.Y > ArenaHeight-FoodMargin {
			t.Fatalf("item %s at %v,%v outside margins", it.ID, it.X, it.Y)
		}
		if it.Value != 1 || it.Radius != FoodRadiusSmall {
			t.Fatalf("random item value %d radius %v", it.Value, it.Radius)
		}
		if seen[it.ID] {
			t.Fatalf("duplicate id %s", it.ID)
		}
		seen[it.ID] = true
	}
}

func TestReplenishIsCappedAndConverges(t *testing.T) {
	f := newTestField(500)
	f.EnsurePopulation()
	for i, it := range f.All() {
		if i == 100 {
			break
		}
		f.Remove(it.ID)
	}
	if f.Len() != 400 {
		t.Fatalf("len after removals = %d", f.Len())
	}
	if n := f.Replenish(40); n != 40 {
		t.Fatalf("replenished %d, want 40", n)
	}
	for i := 0; i < 10; i++ {
		f.Replenish(40)
		if f.Len() > 500 {
			t.Fatalf("overshot target: %d", f.Len())
		}
	}
	if f.Len() != 500 {
		t.Fatalf("len = %d, want 500", f.Len())
	}
}

func TestReplenishAfterBurstAddsNothing(t *testing.T) {
	f := newTestField(500)
	f.EnsurePopulation()
	f.AbsorbBurst([]*Food{{X: 10, Y: 10}, {X: 20, Y: 20}})
	if f.Len() != 502 {
		t.Fatalf("len = %d, want 502", f.Len())
	}
	if n := f.Replenish(40); n != 0 {
		t.Fatalf("replenished %d above target", n)
	}
}

func TestAbsorbBurstFillsDefaults(t *testing.T) {
	f := newTestField(0)
	big := &Food{X: 100, Y: 100, Value: 2}
	zero := &Food{X: -10, Y: 5000}
	f.AbsorbBurst([]*Food{big, nil, zero})

	if f.Len() != 2 {
		t.Fatalf("len = %d, want 2", f.Len())
	}
	if big.ID == "" || zero.ID == "" || big.ID == zero.ID {
		t.Fatalf("ids not assigned: %q %q", big.ID, zero.ID)
	}
	if big.Radius != FoodRadiusLarge {
		t.Fatalf("value-2 radius = %v", big.Radius)
	}
	if zero.Value != 1 || zero.Radius != FoodRadiusSmall {
		t.Fatalf("defaulted item value %d radius %v", zero.Value, zero.Radius)
	}
	if zero.X != 0 || zero.Y != ArenaHeight {
		t.Fatalf("position not clamped: %v,%v", zero.X, zero.Y)
	}
}

func TestAbsorbBurstKeepsPrecomputedRadius(t *testing.T) {
	f := newTestField(0)
	it := &Food{X: 100, Y: 100, Value: 1, Radius: 9}
	f.AbsorbBurst([]*Food{it})
	if it.Radius != 9 {
		t.Fatalf("radius overwritten: %v", it.Radius)
	}
}

func TestNearbyAndMove(t *testing.T) {
	f := newTestField(0)
	a := &Food{X: 100, Y: 100}
	b := &Food{X: 150, Y: 100}
	c := &Food{X: 500, Y: 500}
	f.AbsorbBurst([]*Food{a, b, c})

	if got := f.Nearby(100, 100, 60); len(got) != 2 {
		t.Fatalf("nearby = %d items, want 2", len(got))
	}

	f.Move(c, 110, 100)
	if got := f.Nearby(100, 100, 60); len(got) != 3 {
		t.Fatalf("after move nearby = %d items, want 3", len(got))
	}
	if got := f.Nearby(500, 500, 60); len(got) != 0 {
		t.Fatalf("moved item still found at old position")
	}

	f.Remove(a.ID)
	f.Remove("missing")
	if _, ok := f.Get(a.ID); ok {
		t.Fatalf("removed item still present")
	}
	if got := f.Nearby(100, 100, 60); len(got) != 2 {
		t.Fatalf("after remove nearby = %d items, want 2", len(got))
	}
}

func TestSpatialGridAcrossCells(t *testing.T) {
	g := NewSpatialGrid(GridCellSize)
	items := []*Food{
		{ID: "1", X: GridCellSize - 1, Y: 10},
		{ID: "2", X: GridCellSize + 1, Y: 10},
		{ID: "3", X: 3 * GridCellSize, Y: 10},
	}
	for _, it := range items {
		g.Insert(it)
	}
	if got := g.Nearby(GridCellSize, 10, 5); len(got) != 2 {
		t.Fatalf("nearby across cell border = %d, want 2", len(got))
	}
	g.Remove(items[0])
	g.Remove(items[0])
	if got := g.Nearby(GridCellSize, 10, 5); len(got) != 1 {
		t.Fatalf("after remove = %d, want 1", len(got))
	}
}
