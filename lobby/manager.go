package lobby

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"slether-arena/game"
)

// Config tunes the scheduler.
type Config struct {
	TickRate          int // ticks per second
	MaxPlayersPerRoom int
	EmptyRoomGrace    time.Duration // an empty room lives this long before it is reaped
	ViewRadius        float64
	LeaderboardSize   int
	Region            string // hint passed to the provisioner
	ProvisionTimeout  time.Duration
	MaxNameLength     int
	Room              game.RoomConfig
	Now               func() time.Time // nil means time.Now
}

// DefaultConfig returns the production scheduler settings
func DefaultConfig() Config {
	return Config{
		TickRate:          game.TickRate,
		MaxPlayersPerRoom: 20,
		EmptyRoomGrace:    30 * time.Second,
		ViewRadius:        game.ViewRadius,
		LeaderboardSize:   game.LeaderboardSize,
		ProvisionTimeout:  5 * time.Second,
		MaxNameLength:     24,
		Room:              game.DefaultRoomConfig(),
	}
}

// Deps are the external collaborators. Only Tiers is required; nil Logger
// falls back to LogLogger, nil Publisher drops output, nil Provisioner and
// nil Signer disable those features.
type Deps struct {
	Tiers       TierProvider
	Logger      KillLogger
	Provisioner Provisioner
	Publisher   Publisher
	Signer      CashoutSigner
}

// JoinResult is sent to a player on room entry.
type JoinResult struct {
	PlayerID    string
	RoomID      string
	Tier        game.Tier
	Entity      game.EntityState
	ArenaWidth  float64
	ArenaHeight float64
}

// CashoutResult is the final accounting for a player leaving with their stake.
type CashoutResult struct {
	PlayerID string
	RoomID   string
	Name     string
	Earnings float64 // bounties collected over the session
	Payout   float64 // value carried at cashout; zero if dead
	Kills    int
	Deaths   int
	Elapsed  time.Duration
	Receipt  string // signed token, empty without a signer
}

// Manager owns every room, drives them on one fixed-rate clock and routes
// connection commands to the room the connection joined.
type Manager struct {
	mu         sync.RWMutex
	rooms      map[string]*game.Room
	routes     map[string]string // connection id -> room id
	emptySince map[string]time.Time

	cfg  Config
	deps Deps
	now  func() time.Time

	runMu   sync.Mutex // guards running and stopped
	running bool
	stopped bool
	quit    chan struct{}
	done    chan struct{} // closed when Run returns
}

// NewManager creates a scheduler with no rooms.
func NewManager(cfg Config, deps Deps) *Manager {
	if deps.Tiers == nil {
		deps.Tiers = NewTierCatalog(DefaultTiers())
	}
	if deps.Logger == nil {
		deps.Logger = LogLogger{}
	}
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = game.TickRate
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.Room.Now == nil {
		cfg.Room.Now = now
	}
	return &Manager{
		rooms:      make(map[string]*game.Room),
		routes:     make(map[string]string),
		emptySince: make(map[string]time.Time),
		cfg:        cfg,
		deps:       deps,
		now:        now,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run drives every room at the configured tick rate. Blocks until Stop.
// Returns immediately if the manager is already running or stopped.
func (m *Manager) Run() {
	m.runMu.Lock()
	if m.running || m.stopped {
		m.runMu.Unlock()
		return
	}
	m.running = true
	m.runMu.Unlock()
	defer close(m.done)

	ticker := time.NewTicker(time.Second / time.Duration(m.cfg.TickRate))
	defer ticker.Stop()
	log.Printf("scheduler started at %d ticks/sec", m.cfg.TickRate)

	for {
		select {
		case <-m.quit:
			log.Printf("scheduler stopped")
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Stop ends Run and waits for the tick in progress to finish. Safe to call
// more than once.
func (m *Manager) Stop() {
	m.runMu.Lock()
	wasRunning := m.running
	if !m.stopped {
		m.stopped = true
		close(m.quit)
	}
	m.runMu.Unlock()
	if wasRunning {
		<-m.done
	}
}

// Tick advances every room once, publishes the results and reaps rooms
// that have been empty past the grace period. Rooms advance in parallel;
// a single room is never advanced concurrently with itself.
func (m *Manager) Tick() {
	rooms := m.sortedRooms()
	var wg sync.WaitGroup
	for _, r := range rooms {
		wg.Add(1)
		go func(r *game.Room) {
			defer wg.Done()
			m.tickRoom(r)
		}(r)
	}
	wg.Wait()
	m.reapEmptyRooms()
}

func (m *Manager) tickRoom(r *game.Room) {
	events := r.Advance()
	participants := r.PlayerIDs()

	for _, ev := range events {
		m.deps.Publisher.PublishKill(participants, ev)
		if m.routedTo(ev.VictimID, r.ID) {
			m.deps.Publisher.PublishDeath(ev.VictimID, ev)
		}
		m.deps.Logger.LogKill(r.ID, ev)
	}
	for _, id := range participants {
		m.deps.Publisher.PublishState(id, r.VisibleState(id, m.cfg.ViewRadius))
	}
	if len(participants) > 0 {
		m.deps.Publisher.PublishLeaderboard(participants, r.Leaderboard(m.cfg.LeaderboardSize))
	}
}

func (m *Manager) reapEmptyRooms() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, r := range m.rooms {
		if r.HumanCount() > 0 {
			delete(m.emptySince, id)
			continue
		}
		since, ok := m.emptySince[id]
		if !ok {
			m.emptySince[id] = now
			continue
		}
		if now.Sub(since) > m.cfg.EmptyRoomGrace {
			delete(m.rooms, id)
			delete(m.emptySince, id)
			log.Printf("room %s: reaped after %s empty", id, now.Sub(since).Round(time.Second))
		}
	}
}

// Join places a connection into a room of the requested tier, creating one
// when every room of that tier is full. Unknown tiers fall back to the free tier.
// A connection that is already in a room leaves it first.
func (m *Manager) Join(connID, name, tierID string, demo bool) JoinResult {
	tier, ok := m.deps.Tiers.GetTier(tierID)
	if !ok {
		if tierID != "" {
			log.Printf("unknown tier %q for %s, using %s", tierID, connID, game.FreeTierID)
		}
		tier = game.FreeTier
	}
	name = m.cleanName(name)

	if _, ok := m.RoomOf(connID); ok {
		m.Leave(connID)
	}

	m.mu.Lock()
	r, created := m.findOrCreateRoomLocked(tier)
	state := r.AddPlayer(connID, name, demo)
	m.routes[connID] = r.ID
	delete(m.emptySince, r.ID)
	m.mu.Unlock()

	if created {
		log.Printf("room %s: created for tier %s", r.ID, tier.ID)
		if m.deps.Provisioner != nil {
			go m.provision(r)
		}
	}
	buyIn := tier.BuyIn
	if demo {
		buyIn = 0
	}
	m.deps.Logger.LogJoin(r.ID, connID, name, buyIn)

	w, h := r.Size()
	return JoinResult{
		PlayerID:    connID,
		RoomID:      r.ID,
		Tier:        tier,
		Entity:      state,
		ArenaWidth:  w,
		ArenaHeight: h,
	}
}

func (m *Manager) findOrCreateRoomLocked(tier game.Tier) (*game.Room, bool) {
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := m.rooms[id]
		if r.Tier.ID == tier.ID && r.HumanCount() < m.cfg.MaxPlayersPerRoom {
			return r, false
		}
	}
	r := game.NewRoom(uuid.New().String(), tier, m.cfg.Room)
	m.rooms[r.ID] = r
	return r, true
}

// provision registers a room with the external orchestrator. Failures are
// logged; the room keeps running either way.
func (m *Manager) provision(r *game.Room) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ProvisionTimeout)
	defer cancel()

	remoteID, err := m.deps.Provisioner.CreateRemoteRoom(ctx, m.cfg.Region, map[string]string{
		"roomId": r.ID,
		"tier":   r.Tier.ID,
	})
	if err != nil {
		log.Printf("room %s: provisioning failed: %v", r.ID, err)
		return
	}
	if remoteID == "" {
		return
	}
	r.SetRemoteID(remoteID)
	log.Printf("room %s: provisioned as %s", r.ID, remoteID)
}

func (m *Manager) cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	if m.cfg.MaxNameLength > 0 {
		if runes := []rune(name); len(runes) > m.cfg.MaxNameLength {
			name = string(runes[:m.cfg.MaxNameLength])
		}
	}
	return name
}

// HandleInput routes an aim point to the connection's entity.
func (m *Manager) HandleInput(connID string, x, y float64) {
	if r, ok := m.roomFor(connID); ok {
		r.HandleInput(connID, x, y)
	}
}

// HandleBoost routes a boost toggle to the connection's entity.
func (m *Manager) HandleBoost(connID string, active bool) {
	if r, ok := m.roomFor(connID); ok {
		r.HandleBoost(connID, active)
	}
}

// Respawn gives the connection a fresh entity in its current room.
func (m *Manager) Respawn(connID string, demo bool) (game.EntityState, bool) {
	r, ok := m.roomFor(connID)
	if !ok {
		return game.EntityState{}, false
	}
	state, ok := r.RespawnPlayer(connID, demo)
	if ok && !demo && r.Tier.BuyIn > 0 {
		m.deps.Logger.LogJoin(r.ID, connID, state.Name, r.Tier.BuyIn)
	}
	return state, ok
}

// Cashout removes the connection from its room and returns its final accounting.
func (m *Manager) Cashout(connID string) (CashoutResult, bool) {
	roomID, meta, ok := m.remove(connID)
	if !ok {
		return CashoutResult{}, false
	}
	res := CashoutResult{
		PlayerID: connID,
		RoomID:   roomID,
		Name:     meta.Name,
		Earnings: meta.Earnings,
		Payout:   meta.FinalValue,
		Kills:    meta.Kills,
		Deaths:   meta.Deaths,
		Elapsed:  m.now().Sub(meta.JoinedAt),
	}
	if m.deps.Signer != nil {
		receipt, err := m.deps.Signer.SignCashout(res)
		if err != nil {
			log.Printf("cashout receipt for %s: %v", connID, err)
		} else {
			res.Receipt = receipt
		}
	}
	return res, true
}

// Leave removes the connection from its room, if any.
func (m *Manager) Leave(connID string) bool {
	_, _, ok := m.remove(connID)
	return ok
}

func (m *Manager) remove(connID string) (string, game.PlayerMeta, bool) {
	m.mu.Lock()
	roomID, ok := m.routes[connID]
	delete(m.routes, connID)
	r := m.rooms[roomID]
	m.mu.Unlock()
	if !ok || r == nil {
		return "", game.PlayerMeta{}, false
	}

	meta, ok := r.RemovePlayer(connID)
	if !ok {
		return "", game.PlayerMeta{}, false
	}
	m.deps.Logger.LogSession(connID, meta.Earnings, meta.Kills)
	return roomID, meta, true
}

// RoomOf returns the room id a connection is routed to
func (m *Manager) RoomOf(connID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.routes[connID]
	return id, ok
}

// Room returns a room by id
func (m *Manager) Room(id string) (*game.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// ListRooms summarises every room, ordered by id
func (m *Manager) ListRooms() []game.RoomInfo {
	rooms := m.sortedRooms()
	out := make([]game.RoomInfo, len(rooms))
	for i, r := range rooms {
		out[i] = r.Info()
	}
	return out
}

// Tiers lists the tiers players can join
func (m *Manager) Tiers() []game.Tier {
	return m.deps.Tiers.ListTiers()
}

func (m *Manager) roomFor(connID string) (*game.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.routes[connID]
	if !ok {
		return nil, false
	}
	r, ok := m.rooms[id]
	return r, ok
}

func (m *Manager) routedTo(connID, roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routes[connID] == roomID
}

func (m *Manager) sortedRooms() []*game.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*game.Room, len(ids))
	for i, id := range ids {
		out[i] = m.rooms[id]
	}
	return out
}
