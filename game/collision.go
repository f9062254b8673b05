package game

import "math"

// CollisionRules are the tunable knobs of lethal contact detection.
type CollisionRules struct {
	// GraceSegments behind each head that cannot kill anyone.
	GraceSegments int
	// HeadOnFactor scales the summed head radii for head-to-head contact.
	HeadOnFactor float64
	// MutualMargin is the length gap below which a head-on kills both.
	MutualMargin int
}

// DefaultCollisionRules returns the standard balance values
func DefaultCollisionRules() CollisionRules {
	return CollisionRules{
		GraceSegments: GraceSegments,
		HeadOnFactor:  HeadOnFactor,
		MutualMargin:  HeadOnMutualMargin,
	}
}

// Contact is one lethal outcome of a tick. KillerID is empty when nobody is credited.
type Contact struct {
	VictimID string
	KillerID string
}

// DetectCollisions finds body and head-to-head kills among entities.
// Entities must be in a stable order (ascending id); dead entries are skipped.
// Every entity appears at most once as a victim. Victims found earlier in the
// scan still have lethal bodies for the rest of it.
func DetectCollisions(entities []*Entity, rules CollisionRules) []Contact {
	var contacts []Contact
	dead := make(map[string]bool)

	for _, e := range entities {
		if !e.Alive {
			continue
		}
		if killer := BodyCollision(e, entities, rules.GraceSegments); killer != nil {
			contacts = append(contacts, Contact{VictimID: e.ID, KillerID: killer.ID})
			dead[e.ID] = true
		}
	}

	for i := 0; i < len(entities); i++ {
		a := entities[i]
		if !a.Alive || dead[a.ID] {
			continue
		}
		for j := i + 1; j < len(entities); j++ {
			b := entities[j]
			if !b.Alive || dead[b.ID] {
				continue
			}
			victims, killer, hit := HeadOnCollision(a, b, rules)
			if !hit {
				continue
			}
			for _, v := range victims {
				contacts = append(contacts, Contact{VictimID: v.ID, KillerID: idOf(killer)})
				dead[v.ID] = true
			}
			if dead[a.ID] {
				break
			}
		}
	}
	return contacts
}

// BodyCollision returns the first competitor whose body (past the grace window)
// touches e's head, or nil.
func BodyCollision(e *Entity, others []*Entity, grace int) *Entity {
	if grace < 0 {
		grace = 0
	}
	headR := e.HeadRadius()
	for _, o := range others {
		if o == e || o.ID == e.ID || !o.Alive {
			continue
		}
		segR := o.SegmentRadius()
		for i := grace; i < len(o.Body); i++ {
			seg := o.Body[i]
			if distance(e.X, e.Y, seg.X, seg.Y) < headR+segR {
				return o
			}
		}
	}
	return nil
}

// HeadOnCollision tests two heads against each other. On a hit with a length
// gap under the mutual margin both die and killer is nil; otherwise the shorter
// dies and the longer is the killer.
func HeadOnCollision(a, b *Entity, rules CollisionRules) (victims []*Entity, killer *Entity, hit bool) {
	threshold := rules.HeadOnFactor * (a.HeadRadius() + b.HeadRadius())
	if distance(a.X, a.Y, b.X, b.Y) >= threshold {
		return nil, nil, false
	}
	gap := a.Length() - b.Length()
	if gap < 0 {
		gap = -gap
	}
	if gap < rules.MutualMargin {
		return []*Entity{a, b}, nil, true
	}
	if a.Length() < b.Length() {
		return []*Entity{a}, b, true
	}
	return []*Entity{b}, a, true
}

// FoodContacts returns every item the head of e is touching this tick.
func FoodContacts(e *Entity, field *FoodField) []*Food {
	if !e.Alive {
		return nil
	}
	headR := e.HeadRadius()
	var eaten []*Food
	for _, f := range field.Nearby(e.X, e.Y, headR+FoodQueryMargin) {
		if distance(e.X, e.Y, f.X, f.Y) <= headR+f.Radius {
			eaten = append(eaten, f)
		}
	}
	return eaten
}

// Bounty is what the killer receives for victim under the given platform fee.
// An unset value falls back to a small length-based estimate.
func Bounty(victim *Entity, fee float64) float64 {
	value := victim.Value
	if value <= 0 {
		value = float64(victim.Length()) * FallbackValuePerSegment
	}
	fee = math.Min(math.Max(fee, 0), 1)
	return value * (1 - fee)
}

func idOf(e *Entity) string {
	if e == nil {
		return ""
	}
	return e.ID
}
