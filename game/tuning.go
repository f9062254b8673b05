package game

// Simulation tuning constants. Distances are world units, durations are ticks.
const (
	// Game loop
	TickRate = 60 // ticks per second

	// Arena: rectangular, origin top-left, y grows downward.
	ArenaWidth  = 4000.0
	ArenaHeight = 4000.0
	// SpawnMargin keeps new entities away from the walls on spawn
	SpawnMargin = 300.0

	// Entity body
	InitialLength  = 10  // starting segments
	MinLength      = 5   // boosting never shrinks below this
	SegmentSpacing = 6.0 // px between consecutive segments

	// Head radius grows with length up to a cap; body segments are slightly thinner.
	BaseHeadRadius       = 10.0
	HeadRadiusPerSegment = 0.04
	MaxHeadRadius        = 24.0
	SegmentRadiusRatio   = 0.8

	// Turn rate: max radians per tick, linear in length with a floor.
	BaseTurnRate       = 0.12
	TurnRatePerSegment = 0.0004
	MinTurnRate        = 0.035

	// Speed: px per tick, linear in length with a floor.
	BaseSpeed       = 3.2
	SpeedPerSegment = 0.004
	MinSpeed        = 2.0
	BoostMultiplier = 2.0

	// Boost trail: chance that a shed tail segment leaves food behind
	BoostDropChance = 0.5

	// Death drop
	DeathHeadFood       = 4    // value-2 items scattered around the head
	DeathHeadScatter    = 24.0 // px
	DeathBodyScatter    = 8.0  // px
	DeathFoodPerSegment = 2    // value-1 items per remaining segment

	// Food
	FoodTarget       = 800
	FoodMargin       = 50.0 // random spawns stay this far from the walls
	FoodSpawnPerTick = 40   // replenish cap per tick once the room is running
	FoodRadiusSmall  = 4.0  // value 1
	FoodRadiusLarge  = 6.0  // value 2
	FoodQueryMargin  = FoodRadiusLarge
	GridCellSize     = 200.0
	FoodMagnetRadius = 16.0 // px beyond eating range that food drifts toward a head
	FoodMagnetSpeed  = 2.0  // px per tick

	// Value fallback for bounty when an entity carries no value
	FallbackValuePerSegment = 0.01

	// Collision
	GraceSegments      = 3   // segments behind a head that cannot kill
	HeadOnFactor       = 0.8 // heads collide below this fraction of summed radii
	HeadOnMutualMargin = 3   // length gap below which a head-on kills both

	// Visibility
	ViewRadius       = 900.0
	VisibilityFactor = 1.2247448713915890 // sqrt(1.5)
	LeaderboardSize  = 10

	// Bot population
	InitialBots = 12 // kept when the room has no humans
	BotFloor    = 4
	BotCeiling  = 16

	// Bot AI
	BotThinkInterval      = 6     // ticks between decisions
	BotRespawnDelay       = 180   // ticks (~3 sec at 60 tps)
	BotWallMargin         = 150.0 // px, steer inward when this close to a wall
	BotDangerRadius       = 160.0 // px, competitors this close are threats
	BotNearHeadSegments   = 8     // body segments near a head that count as threatening
	BotThreatRatio        = 0.8   // competitor length / own length to count as a threat
	BotEscapeDistance     = 70.0  // px, threats this close trigger an escape boost
	BotEscapeMinLength    = MinLength + 10
	BotEscapeBoostTicks   = 30
	BotFoodSeekRadius     = 250.0 // px, scaled by food preference
	BotAggressionMin      = 0.5   // aggressiveness needed to hunt
	BotPreyRatio          = 0.7   // prey length / own length ceiling
	BotPursuitRadius      = 350.0 // px
	BotInterceptLead      = 12.0  // ticks of linear extrapolation
	BotWanderJitter       = 0.4   // radians, full width
	BotWanderBoostChance  = 0.02
	BotWanderBoostTicks   = 20
	BotBoostCooldownTicks = 180
)

// PlayerColors is the entity color palette
var PlayerColors = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12", "#9b59b6",
	"#1abc9c", "#e67e22", "#e91e63", "#00bcd4", "#8bc34a",
	"#ff5722", "#607d8b", "#795548", "#673ab7", "#03a9f4",
	"#4caf50", "#ffeb3b", "#ff9800", "#f44336", "#9c27b0",
}
