package game

import (
	"math"
	"math/rand"
)

// Point is a 2D coordinate
type Point struct {
	X float64
	Y float64
}

// Entity is one controllable organism, human or bot driven.
// Body holds the trailing segments in head-to-tail order; the head itself is X,Y.
type Entity struct {
	ID    string
	Name  string
	Color string
	IsBot bool

	X, Y        float64
	Angle       float64 // radians, current heading
	TargetAngle float64 // radians, desired heading
	Boosting    bool

	Body      []Point
	MaxLength int // longest the body has ever been

	Value float64 // money carried; transferred to the killer on death
	Kills int

	Alive bool
}

// NewEntity creates an entity at (x, y) facing angle, with InitialLength segments
// laid out straight behind the head.
func NewEntity(id, name, color string, x, y, angle float64) *Entity {
	body := make([]Point, InitialLength)
	for i := range body {
		d := float64(i+1) * SegmentSpacing
		body[i] = Point{
			X: x - d*math.Cos(angle),
			Y: y - d*math.Sin(angle),
		}
	}
	return &Entity{
		ID:          id,
		Name:        name,
		Color:       color,
		X:           x,
		Y:           y,
		Angle:       angle,
		TargetAngle: angle,
		Body:        body,
		MaxLength:   InitialLength,
		Alive:       true,
	}
}

// Head returns the head position
func (e *Entity) Head() Point {
	return Point{X: e.X, Y: e.Y}
}

// Length is the number of body segments
func (e *Entity) Length() int {
	return len(e.Body)
}

// HeadRadius grows with length up to MaxHeadRadius.
func (e *Entity) HeadRadius() float64 {
	return math.Min(BaseHeadRadius+float64(e.Length())*HeadRadiusPerSegment, MaxHeadRadius)
}

// SegmentRadius is the collision radius of every body segment.
func (e *Entity) SegmentRadius() float64 {
	return e.HeadRadius() * SegmentRadiusRatio
}

// TurnRate is the max radians per tick; longer bodies turn slower, never below MinTurnRate.
func (e *Entity) TurnRate() float64 {
	return math.Max(BaseTurnRate-float64(e.Length())*TurnRatePerSegment, MinTurnRate)
}

// Speed is px per tick without boost; longer bodies are slower, never below MinSpeed.
func (e *Entity) Speed() float64 {
	return math.Max(BaseSpeed-float64(e.Length())*SpeedPerSegment, MinSpeed)
}

// SetTargetHeading aims at a world-space point. Coordinates are not validated.
func (e *Entity) SetTargetHeading(x, y float64) {
	dx := x - e.X
	dy := y - e.Y
	if dx == 0 && dy == 0 {
		return
	}
	e.TargetAngle = math.Atan2(dy, dx)
}

// SetBoost turns boost on only while the body is longer than MinLength.
func (e *Entity) SetBoost(active bool) {
	e.Boosting = active && e.Length() > MinLength
}

// canBoost reports whether boost is honored this tick
func (e *Entity) canBoost() bool {
	return e.Boosting && e.Length() > MinLength
}

// Advance moves the entity one tick inside a width x height arena.
// It returns whether the head was clamped against a wall and the segment shed
// by boosting, if any. Dead entities do not move.
func (e *Entity) Advance(width, height float64) (clamped bool, shed *Point) {
	if !e.Alive {
		return false, nil
	}

	// Shortest signed turn toward the target, limited by turn rate
	diff := normalizeAngle(e.TargetAngle - e.Angle)
	maxTurn := e.TurnRate()
	if math.Abs(diff) <= maxTurn {
		e.Angle = normalizeAngle(e.TargetAngle)
	} else if diff > 0 {
		e.Angle = normalizeAngle(e.Angle + maxTurn)
	} else {
		e.Angle = normalizeAngle(e.Angle - maxTurn)
	}

	speed := e.Speed()
	boosting := e.canBoost()
	if boosting {
		speed *= BoostMultiplier
	}
	e.X += speed * math.Cos(e.Angle)
	e.Y += speed * math.Sin(e.Angle)

	// Hard wall: clamp the head inside the arena minus its radius
	r := e.HeadRadius()
	x := clamp(e.X, r, width-r)
	y := clamp(e.Y, r, height-r)
	clamped = x != e.X || y != e.Y
	e.X, e.Y = x, y

	e.rethread()

	if boosting {
		tail := e.Body[len(e.Body)-1]
		e.Body = e.Body[:len(e.Body)-1]
		shed = &tail
		if e.Length() <= MinLength {
			e.Boosting = false
		}
	} else if e.Boosting {
		e.Boosting = false
	}
	return clamped, shed
}

// rethread pulls each segment toward the one ahead of it so no gap exceeds SegmentSpacing.
func (e *Entity) rethread() {
	leader := e.Head()
	for i := range e.Body {
		seg := e.Body[i]
		dx := leader.X - seg.X
		dy := leader.Y - seg.Y
		d := math.Sqrt(dx*dx + dy*dy)
		if d > SegmentSpacing && d > 0 {
			k := SegmentSpacing / d
			seg.X = leader.X - dx*k
			seg.Y = leader.Y - dy*k
			e.Body[i] = seg
		}
		leader = seg
	}
}

// Grow appends amount segments at the tail position; they spread out as the tail moves.
func (e *Entity) Grow(amount int) {
	if amount <= 0 {
		return
	}
	tail := e.Head()
	if len(e.Body) > 0 {
		tail = e.Body[len(e.Body)-1]
	}
	for i := 0; i < amount; i++ {
		e.Body = append(e.Body, tail)
	}
	if e.Length() > e.MaxLength {
		e.MaxLength = e.Length()
	}
}

// Shrink removes up to amount tail segments, never going below MinLength.
func (e *Entity) Shrink(amount int) {
	n := e.Length() - amount
	if n < MinLength {
		n = MinLength
	}
	if n < e.Length() {
		e.Body = e.Body[:n]
	}
}

// Die marks the entity dead
func (e *Entity) Die() {
	e.Alive = false
	e.Boosting = false
}

// DropAsFood converts the body into a burst of food: a few value-2 items around the
// head and DeathFoodPerSegment value-1 items jittered around every segment.
// Returned items have no id yet; the food field assigns one when absorbing them.
func (e *Entity) DropAsFood(rng *rand.Rand) []*Food {
	items := make([]*Food, 0, DeathHeadFood+len(e.Body)*DeathFoodPerSegment)
	for i := 0; i < DeathHeadFood; i++ {
		x, y := jitter(rng, e.X, e.Y, DeathHeadScatter)
		items = append(items, &Food{X: x, Y: y, Value: 2, Color: e.Color, Radius: foodRadius(2)})
	}
	for _, seg := range e.Body {
		for i := 0; i < DeathFoodPerSegment; i++ {
			x, y := jitter(rng, seg.X, seg.Y, DeathBodyScatter)
			items = append(items, &Food{X: x, Y: y, Value: 1, Color: e.Color})
		}
	}
	return items
}

// jitter returns a point uniformly inside a square of half-width scatter around (x, y)
func jitter(rng *rand.Rand, x, y, scatter float64) (float64, float64) {
	return x + (rng.Float64()*2-1)*scatter, y + (rng.Float64()*2-1)*scatter
}

// normalizeAngle wraps an angle into (-π, π]
func normalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func distance(ax, ay, bx, by float64) float64 {
	dx := ax - bx
	dy := ay - by
	return math.Sqrt(dx*dx + dy*dy)
}
