package game

// Tier is an immutable stakes configuration for a room.
type Tier struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	BuyIn       float64 `json:"buyIn"`
	PlatformFee float64 `json:"platformFee"` // fraction of each bounty kept by the house
}

// FreeTierID identifies the zero-stakes fallback tier
const FreeTierID = "free"

// FreeTier is used whenever a requested tier is unknown.
var FreeTier = Tier{ID: FreeTierID, Name: "Free", BuyIn: 0, PlatformFee: 0}

// Wall sentinel used as the killer of deaths nobody is credited for
const (
	WallKillerID   = "boundary"
	WallKillerName = "Boundary"
)

// KillEvent describes one death produced by a tick.
type KillEvent struct {
	Tick         uint64
	KillerID     string // WallKillerID when nobody is credited
	KillerName   string
	VictimID     string
	VictimName   string
	Bounty       float64
	VictimLength int
}

// Credited reports whether a killer received a bounty for this death
func (k KillEvent) Credited() bool {
	return k.KillerID != WallKillerID
}
