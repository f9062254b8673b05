package game

import (
	"math"
	"math/rand"
)

// botNames is the pool of names for AI bots
var botNames = []string{
	"Rắn Thần", "Sấm Sét", "Bão Tố", "Tia Chớp", "Ma Tốc Độ",
	"Rồng Lửa", "Bóng Đêm", "Sát Thủ", "Độc Xà", "Vua Rắn",
	"Hắc Mamba", "Kim Xà", "Thanh Xà", "Bạch Xà", "Viper",
	"Cobra", "Mamba", "Python", "Anaconda", "Sidewinder",
	"Thần Xà", "Hỏa Long", "Băng Xà", "Quỷ Xà", "Điện Xà",
}

// Bot tracks per-bot AI state. All timers count ticks.
type Bot struct {
	ID  string
	Seq int // spawn order within the room

	Aggressiveness float64 // 0..1, hunts smaller entities above BotAggressionMin
	FoodPreference float64 // scales the food seek radius

	thinkTimer    int     // ticks until the next decision
	heading       float64 // last decided heading
	boostTicks    int     // remaining ticks of boost
	boostCooldown int     // ticks before a wander boost is allowed again
	respawnIn     int     // countdown after death (0 = alive or not scheduled)
}

// NewBot creates AI state with a random personality and a staggered first decision.
func NewBot(id string, heading float64, rng *rand.Rand) *Bot {
	return &Bot{
		ID:             id,
		Aggressiveness: rng.Float64(),
		FoodPreference: 0.5 + rng.Float64(),
		thinkTimer:     1 + rng.Intn(BotThinkInterval),
		heading:        heading,
	}
}

// BotWorld is the read-only view a bot decides against.
type BotWorld struct {
	Width    float64
	Height   float64
	Entities []*Entity
	Food     *FoodField
}

// Think advances the bot's timers and, every BotThinkInterval ticks, re-evaluates
// its heading. A missing or dead entity is skipped.
func (b *Bot) Think(self *Entity, world BotWorld, rng *rand.Rand) (heading float64, boost bool) {
	if self == nil || !self.Alive {
		return b.heading, false
	}
	if b.boostTicks > 0 {
		b.boostTicks--
	}
	if b.boostCooldown > 0 {
		b.boostCooldown--
	}
	b.thinkTimer--
	if b.thinkTimer <= 0 {
		b.thinkTimer = BotThinkInterval
		b.decide(self, world, rng)
	}
	return b.heading, b.boostTicks > 0
}

// decide applies the priority rules; the first one that fires wins.
func (b *Bot) decide(self *Entity, world BotWorld, rng *rand.Rand) {
	if b.avoidWalls(self, world) {
		return
	}
	if b.avoidThreats(self, world) {
		return
	}
	if b.seekFood(self, world) {
		return
	}
	if b.pursuePrey(self, world) {
		return
	}
	b.wander(self, rng)
}

// --- Priority 1: wall avoidance ---
func (b *Bot) avoidWalls(self *Entity, world BotWorld) bool {
	dx, dy := 0.0, 0.0
	if self.X < BotWallMargin {
		dx = 1
	} else if self.X > world.Width-BotWallMargin {
		dx = -1
	}
	if self.Y < BotWallMargin {
		dy = 1
	} else if self.Y > world.Height-BotWallMargin {
		dy = -1
	}
	if dx == 0 && dy == 0 {
		return false
	}
	b.heading = math.Atan2(dy, dx)
	b.boostTicks = 0
	return true
}

// --- Priority 2: threat avoidance ---
func (b *Bot) avoidThreats(self *Entity, world BotWorld) bool {
	var threat *Point
	best := BotDangerRadius
	for _, o := range world.Entities {
		if o.ID == self.ID || !o.Alive {
			continue
		}
		if float64(o.Length()) < BotThreatRatio*float64(self.Length()) {
			continue
		}
		if d := distance(self.X, self.Y, o.X, o.Y); d < best {
			best = d
			p := o.Head()
			threat = &p
		}
		n := BotNearHeadSegments
		if n > len(o.Body) {
			n = len(o.Body)
		}
		for _, seg := range o.Body[:n] {
			if d := distance(self.X, self.Y, seg.X, seg.Y); d < best {
				best = d
				p := seg
				threat = &p
			}
		}
	}
	if threat == nil {
		return false
	}
	if best > 0 {
		b.heading = math.Atan2(self.Y-threat.Y, self.X-threat.X)
	} else {
		b.heading = normalizeAngle(self.Angle + math.Pi)
	}
	if best < BotEscapeDistance && self.Length() > BotEscapeMinLength && b.boostTicks == 0 {
		b.boostTicks = BotEscapeBoostTicks
	}
	return true
}

// --- Priority 3: food seeking ---
func (b *Bot) seekFood(self *Entity, world BotWorld) bool {
	if world.Food == nil {
		return false
	}
	radius := BotFoodSeekRadius * b.FoodPreference
	var target *Food
	best := math.MaxFloat64
	for _, f := range world.Food.Nearby(self.X, self.Y, radius) {
		d := distance(self.X, self.Y, f.X, f.Y)
		if d < best || (d == best && target != nil && f.ID < target.ID) {
			best = d
			target = f
		}
	}
	if target == nil {
		return false
	}
	if best > 0 {
		b.heading = math.Atan2(target.Y-self.Y, target.X-self.X)
	}
	return true
}

// --- Priority 4: prey pursuit ---
func (b *Bot) pursuePrey(self *Entity, world BotWorld) bool {
	if b.Aggressiveness < BotAggressionMin {
		return false
	}
	var prey *Entity
	best := BotPursuitRadius
	for _, o := range world.Entities {
		if o.ID == self.ID || !o.Alive {
			continue
		}
		if float64(o.Length()) >= BotPreyRatio*float64(self.Length()) {
			continue
		}
		if d := distance(self.X, self.Y, o.X, o.Y); d < best {
			best = d
			prey = o
		}
	}
	if prey == nil {
		return false
	}
	// Linear extrapolation of the prey's head along its heading
	lead := prey.Speed() * BotInterceptLead
	tx := prey.X + math.Cos(prey.Angle)*lead
	ty := prey.Y + math.Sin(prey.Angle)*lead
	if tx != self.X || ty != self.Y {
		b.heading = math.Atan2(ty-self.Y, tx-self.X)
	}
	return true
}

// --- Priority 5: wander ---
func (b *Bot) wander(self *Entity, rng *rand.Rand) {
	b.heading = normalizeAngle(b.heading + (rng.Float64()-0.5)*BotWanderJitter)
	if b.boostCooldown == 0 && self.Length() > MinLength && rng.Float64() < BotWanderBoostChance {
		b.boostTicks = BotWanderBoostTicks
		b.boostCooldown = BotBoostCooldownTicks
	}
}

// scheduleRespawn starts the respawn countdown once per death.
func (b *Bot) scheduleRespawn() {
	if b.respawnIn == 0 {
		b.respawnIn = BotRespawnDelay
	}
	b.boostTicks = 0
}

// tickRespawn counts down and reports true on the tick the bot should come back.
func (b *Bot) tickRespawn() bool {
	if b.respawnIn <= 0 {
		return false
	}
	b.respawnIn--
	return b.respawnIn == 0
}

// reset clears decision state for a freshly respawned entity
func (b *Bot) reset(heading float64, rng *rand.Rand) {
	b.heading = heading
	b.thinkTimer = 1 + rng.Intn(BotThinkInterval)
	b.boostTicks = 0
	b.boostCooldown = 0
	b.respawnIn = 0
}
