package lobby

import (
	"context"
	"log"

	"slether-arena/game"
)

// TierProvider supplies the stakes configurations rooms are created with.
type TierProvider interface {
	ListTiers() []game.Tier
	GetTier(id string) (game.Tier, bool)
}

// KillLogger records kills and sessions. Calls are fire-and-forget: an
// implementation must not block and its failures never reach the simulation.
type KillLogger interface {
	LogKill(roomID string, ev game.KillEvent)
	LogJoin(roomID, playerID, name string, buyIn float64)
	LogSession(playerID string, earnings float64, kills int)
}

// Provisioner registers a room with an external orchestrator. An empty id
// with a nil error means the orchestrator declined.
type Provisioner interface {
	CreateRemoteRoom(ctx context.Context, regionHint string, metadata map[string]string) (string, error)
}

// Publisher delivers per-tick output to connections. Implementations must not
// block the caller on slow connections.
type Publisher interface {
	PublishState(connID string, snap game.Snapshot)
	PublishKill(recipients []string, ev game.KillEvent)
	PublishDeath(connID string, ev game.KillEvent)
	PublishLeaderboard(recipients []string, entries []game.LeaderboardEntry)
}

// CashoutSigner attaches a verifiable receipt to a cashout.
type CashoutSigner interface {
	SignCashout(res CashoutResult) (string, error)
}

// LogLogger is the KillLogger used when no database is configured.
type LogLogger struct{}

func (LogLogger) LogKill(roomID string, ev game.KillEvent) {
	log.Printf("room %s: %s killed %s (bounty %.2f, length %d)", roomID, ev.KillerName, ev.VictimName, ev.Bounty, ev.VictimLength)
}

func (LogLogger) LogJoin(roomID, playerID, name string, buyIn float64) {
	log.Printf("room %s: player %s (%s) joined with buy-in %.2f", roomID, name, playerID, buyIn)
}

func (LogLogger) LogSession(playerID string, earnings float64, kills int) {
	log.Printf("player %s left with earnings %.2f and %d kills", playerID, earnings, kills)
}

type nopPublisher struct{}

func (nopPublisher) PublishState(string, game.Snapshot) {}
func (nopPublisher) PublishKill([]string, game.KillEvent) {}
func (nopPublisher) PublishDeath(string, game.KillEvent) {}
func (nopPublisher) PublishLeaderboard([]string, []game.LeaderboardEntry) {}
