package game

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// RoomConfig holds per-room simulation settings.
type RoomConfig struct {
	Width       float64
	Height      float64
	FoodTarget  int
	SpawnMargin float64

	// Bot population; with BotsEnabled false the room only ever holds humans.
	BotsEnabled bool
	InitialBots int // kept while no humans are present
	BotFloor    int
	BotCeiling  int

	Collision CollisionRules

	Seed int64            // 0 picks a time-based seed
	Now  func() time.Time // nil means time.Now
}

// DefaultRoomConfig returns the standard arena with bots enabled
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		Width:       ArenaWidth,
		Height:      ArenaHeight,
		FoodTarget:  FoodTarget,
		SpawnMargin: SpawnMargin,
		BotsEnabled: true,
		InitialBots: InitialBots,
		BotFloor:    BotFloor,
		BotCeiling:  BotCeiling,
		Collision:   DefaultCollisionRules(),
	}
}

// PlayerMeta is the per-human bookkeeping that survives respawns.
type PlayerMeta struct {
	ID         string
	Name       string
	BuyIn      float64 // total staked across lives
	Earnings   float64 // bounties collected
	Kills      int
	Deaths     int
	JoinedAt   time.Time
	FinalValue float64 // value carried at removal; zero if dead
}

// EntityState is a copy of an entity safe to hand outside the room lock.
type EntityState struct {
	ID         string
	Name       string
	Color      string
	IsBot      bool
	X, Y       float64
	Angle      float64
	Boosting   bool
	HeadRadius float64
	Body       []Point
	Length     int
	Value      float64
	Kills      int
}

// Snapshot is the state one participant is shown for one tick.
type Snapshot struct {
	Tick      uint64
	Timestamp time.Time
	Entities  []EntityState
	Food      []Food
}

// LeaderboardEntry is a single leaderboard row
type LeaderboardEntry struct {
	Name   string
	Length int
	Kills  int
}

// RoomInfo summarises a room for listings
type RoomInfo struct {
	ID         string    `json:"id"`
	TierID     string    `json:"tier"`
	Humans     int       `json:"humans"`
	Bots       int       `json:"bots"`
	TotalKills int       `json:"kills"`
	RemoteID   string    `json:"remoteId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Room owns one arena: its entities, food, bots and per-player stats.
// Every exported method takes the room lock, so input handlers may run
// concurrently with Advance.
type Room struct {
	mu sync.Mutex

	ID   string
	Tier Tier

	cfg        RoomConfig
	entities   map[string]*Entity
	players    map[string]*PlayerMeta
	bots       map[string]*Bot
	food       *FoodField
	rng        *rand.Rand
	now        func() time.Time
	createdAt  time.Time
	tick       uint64
	totalKills int
	botSeq     int
	remoteID   string
}

// NewRoom creates a room, fills its food field and seeds its bot population.
func NewRoom(id string, tier Tier, cfg RoomConfig) *Room {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rng := rand.New(rand.NewSource(seed))
	r := &Room{
		ID:       id,
		Tier:     tier,
		cfg:      cfg,
		entities: make(map[string]*Entity),
		players:  make(map[string]*PlayerMeta),
		bots:     make(map[string]*Bot),
		food:     NewFoodField(cfg.Width, cfg.Height, cfg.FoodTarget, rng),
		rng:      rng,
		now:      now,
	}
	r.createdAt = now()
	r.food.EnsurePopulation()
	r.adjustBotCount()
	return r
}

// --- players ---

// AddPlayer spawns a human. Stakes start at the tier buy-in unless demo is set.
// A key that is already present is respawned instead, keeping its stats.
func (r *Room) AddPlayer(id, name string, demo bool) EntityState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[id]; ok {
		e := r.respawnLocked(id, demo)
		return stateOf(e)
	}
	meta := &PlayerMeta{ID: id, Name: name, JoinedAt: r.now()}
	r.players[id] = meta
	e := r.spawnHuman(meta, demo)
	r.adjustBotCount()
	return stateOf(e)
}

// RemovePlayer drops a human's body as food if it was alive and forgets it.
// The returned metadata carries the value held at removal.
func (r *Room) RemovePlayer(id string) (PlayerMeta, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, ok := r.players[id]
	if !ok {
		return PlayerMeta{}, false
	}
	if e, ok := r.entities[id]; ok && e.Alive {
		meta.FinalValue = e.Value
		r.food.AbsorbBurst(e.DropAsFood(r.rng))
	}
	delete(r.entities, id)
	delete(r.players, id)
	r.adjustBotCount()
	return *meta, true
}

// RespawnPlayer replaces a human's entity with a fresh one; stats carry over.
func (r *Room) RespawnPlayer(id string, demo bool) (EntityState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[id]; !ok {
		return EntityState{}, false
	}
	return stateOf(r.respawnLocked(id, demo)), true
}

func (r *Room) respawnLocked(id string, demo bool) *Entity {
	if old, ok := r.entities[id]; ok && old.Alive {
		r.food.AbsorbBurst(old.DropAsFood(r.rng))
	}
	return r.spawnHuman(r.players[id], demo)
}

func (r *Room) spawnHuman(meta *PlayerMeta, demo bool) *Entity {
	e := r.newEntity(meta.ID, meta.Name)
	if !demo {
		e.Value = r.Tier.BuyIn
		meta.BuyIn += r.Tier.BuyIn
	}
	r.entities[meta.ID] = e
	return e
}

// newEntity builds an entity at a uniform random point inside the spawn margin
func (r *Room) newEntity(id, name string) *Entity {
	m := math.Min(r.cfg.SpawnMargin, math.Min(r.cfg.Width, r.cfg.Height)/2)
	x := m + r.rng.Float64()*(r.cfg.Width-2*m)
	y := m + r.rng.Float64()*(r.cfg.Height-2*m)
	angle := r.rng.Float64()*2*math.Pi - math.Pi
	color := PlayerColors[r.rng.Intn(len(PlayerColors))]
	return NewEntity(id, name, color, x, y, angle)
}

// HandleInput aims a living entity at a world point clamped to the arena.
func (r *Room) HandleInput(id string, x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[id]
	if !ok || !e.Alive {
		return
	}
	e.SetTargetHeading(clamp(x, 0, r.cfg.Width), clamp(y, 0, r.cfg.Height))
}

// HandleBoost toggles boost for a living entity.
func (r *Room) HandleBoost(id string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[id]
	if !ok || !e.Alive {
		return
	}
	e.SetBoost(active)
}

// --- bots ---

// AdjustBotCount moves the bot population toward its target.
func (r *Room) AdjustBotCount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adjustBotCount()
}

// botTarget is InitialBots with no humans, otherwise BotCeiling minus humans,
// never below BotFloor.
func (r *Room) botTarget() int {
	if !r.cfg.BotsEnabled {
		return 0
	}
	humans := len(r.players)
	if humans == 0 {
		return r.cfg.InitialBots
	}
	target := r.cfg.BotCeiling - humans
	if target < r.cfg.BotFloor {
		target = r.cfg.BotFloor
	}
	return target
}

func (r *Room) adjustBotCount() {
	target := r.botTarget()
	for len(r.bots) < target {
		r.spawnBot()
	}
	if len(r.bots) <= target {
		return
	}
	// Despawn dead bots first, then the newest ones by spawn order
	ids := r.sortedBotIDs()
	sort.SliceStable(ids, func(i, j int) bool {
		ei, ej := r.entities[ids[i]], r.entities[ids[j]]
		di := ei == nil || !ei.Alive
		dj := ej == nil || !ej.Alive
		if di != dj {
			return di
		}
		return r.bots[ids[i]].Seq < r.bots[ids[j]].Seq
	})
	for len(r.bots) > target {
		var id string
		if e := r.entities[ids[0]]; e == nil || !e.Alive {
			id, ids = ids[0], ids[1:]
		} else {
			id, ids = ids[len(ids)-1], ids[:len(ids)-1]
		}
		r.despawnBot(id)
	}
}

func (r *Room) spawnBot() {
	r.botSeq++
	id := fmt.Sprintf("bot-%d", r.botSeq)
	name := botNames[(r.botSeq-1)%len(botNames)]
	e := r.newEntity(id, name)
	e.IsBot = true
	r.entities[id] = e
	bot := NewBot(id, e.Angle, r.rng)
	bot.Seq = r.botSeq
	r.bots[id] = bot
}

func (r *Room) despawnBot(id string) {
	if e, ok := r.entities[id]; ok && e.Alive {
		r.food.AbsorbBurst(e.DropAsFood(r.rng))
	}
	delete(r.entities, id)
	delete(r.bots, id)
}

// tickBotRespawns brings back dead bots whose countdown has run out.
func (r *Room) tickBotRespawns() {
	for _, id := range r.sortedBotIDs() {
		bot := r.bots[id]
		if !bot.tickRespawn() {
			continue
		}
		old := r.entities[id]
		name := botNames[r.rng.Intn(len(botNames))]
		if old != nil {
			name = old.Name
		}
		e := r.newEntity(id, name)
		e.IsBot = true
		r.entities[id] = e
		bot.reset(e.Angle, r.rng)
	}
}

// --- simulation ---

// Advance runs exactly one tick and returns the deaths it produced.
func (r *Room) Advance() []KillEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tick++
	r.tickBotRespawns()
	ents := r.sortedEntities()
	var events []KillEvent

	// 1. Bot decisions
	world := BotWorld{Width: r.cfg.Width, Height: r.cfg.Height, Entities: ents, Food: r.food}
	for _, id := range r.sortedBotIDs() {
		e := r.entities[id]
		if e == nil || !e.Alive {
			continue
		}
		heading, boost := r.bots[id].Think(e, world, r.rng)
		e.TargetAngle = heading
		e.SetBoost(boost)
	}

	// 2. Movement; a wall clamp is fatal and preempts collisions
	for _, e := range ents {
		if !e.Alive {
			continue
		}
		clamped, shed := e.Advance(r.cfg.Width, r.cfg.Height)
		if shed != nil && r.rng.Float64() < BoostDropChance {
			r.food.AbsorbBurst([]*Food{{X: shed.X, Y: shed.Y, Value: 1, Color: e.Color}})
		}
		if clamped {
			if ev, ok := r.handleDeath(e, nil); ok {
				events = append(events, ev)
			}
		}
	}

	// 3. Body and head-to-head collisions
	for _, c := range DetectCollisions(ents, r.cfg.Collision) {
		victim := r.entities[c.VictimID]
		var killer *Entity
		if c.KillerID != "" {
			killer = r.entities[c.KillerID]
		}
		if ev, ok := r.handleDeath(victim, killer); ok {
			events = append(events, ev)
		}
	}

	// 4. Food
	r.applyFoodMagnet(ents)
	for _, e := range ents {
		for _, f := range FoodContacts(e, r.food) {
			e.Grow(f.Value)
			r.food.Remove(f.ID)
		}
	}

	// 5. Replenish
	r.food.Replenish(FoodSpawnPerTick)

	return events
}

// applyFoodMagnet pulls food just outside eating range toward each living head.
func (r *Room) applyFoodMagnet(ents []*Entity) {
	for _, e := range ents {
		if !e.Alive {
			continue
		}
		headR := e.HeadRadius()
		for _, f := range r.food.Nearby(e.X, e.Y, headR+FoodMagnetRadius) {
			dist := distance(e.X, e.Y, f.X, f.Y)
			if dist <= headR+f.Radius || dist == 0 {
				continue
			}
			step := math.Min(FoodMagnetSpeed, dist)
			r.food.Move(f, f.X+(e.X-f.X)/dist*step, f.Y+(e.Y-f.Y)/dist*step)
		}
	}
}

// HandleDeath kills victim, crediting killer when non-nil. It reports false
// if the victim was already dead.
func (r *Room) HandleDeath(victimID, killerID string) (KillEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	victim, ok := r.entities[victimID]
	if !ok {
		return KillEvent{}, false
	}
	return r.handleDeath(victim, r.entities[killerID])
}

func (r *Room) handleDeath(victim, killer *Entity) (KillEvent, bool) {
	if victim == nil || !victim.Alive {
		return KillEvent{}, false
	}
	ev := KillEvent{
		Tick:         r.tick,
		KillerID:     WallKillerID,
		KillerName:   WallKillerName,
		VictimID:     victim.ID,
		VictimName:   victim.Name,
		VictimLength: victim.Length(),
	}
	victim.Die()
	r.food.AbsorbBurst(victim.DropAsFood(r.rng))
	if meta, ok := r.players[victim.ID]; ok {
		meta.Deaths++
	}
	if bot, ok := r.bots[victim.ID]; ok {
		bot.scheduleRespawn()
	}

	if killer != nil && killer != victim {
		bounty := Bounty(victim, r.Tier.PlatformFee)
		killer.Value += bounty
		killer.Kills++
		if meta, ok := r.players[killer.ID]; ok {
			meta.Earnings += bounty
			meta.Kills++
		}
		r.totalKills++
		ev.KillerID = killer.ID
		ev.KillerName = killer.Name
		ev.Bounty = bounty
	}
	victim.Value = 0
	return ev, true
}

// --- views ---

// VisibleState returns living entities whose heads lie within
// viewRadius*sqrt(1.5) of the viewer and food within viewRadius. An unknown
// viewer gets the full state.
func (r *Room) VisibleState(viewerID string, viewRadius float64) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	viewer, ok := r.entities[viewerID]
	if !ok {
		return r.fullStateLocked()
	}
	snap := Snapshot{Tick: r.tick, Timestamp: r.now()}
	entityRadius := viewRadius * VisibilityFactor
	for _, e := range r.sortedEntities() {
		if !e.Alive {
			continue
		}
		if distance(viewer.X, viewer.Y, e.X, e.Y) <= entityRadius {
			snap.Entities = append(snap.Entities, stateOf(e))
		}
	}
	for _, f := range r.food.Nearby(viewer.X, viewer.Y, viewRadius) {
		snap.Food = append(snap.Food, *f)
	}
	return snap
}

// FullState returns every living entity and every food item.
func (r *Room) FullState() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fullStateLocked()
}

func (r *Room) fullStateLocked() Snapshot {
	snap := Snapshot{Tick: r.tick, Timestamp: r.now()}
	for _, e := range r.sortedEntities() {
		if e.Alive {
			snap.Entities = append(snap.Entities, stateOf(e))
		}
	}
	for _, f := range r.food.All() {
		snap.Food = append(snap.Food, *f)
	}
	return snap
}

// Leaderboard returns the longest living entities, at most limit of them.
func (r *Room) Leaderboard(limit int) []LeaderboardEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	alive := make([]*Entity, 0, len(r.entities))
	for _, e := range r.sortedEntities() {
		if e.Alive {
			alive = append(alive, e)
		}
	}
	sort.SliceStable(alive, func(i, j int) bool {
		return alive[i].Length() > alive[j].Length()
	})
	if limit >= 0 && len(alive) > limit {
		alive = alive[:limit]
	}
	entries := make([]LeaderboardEntry, len(alive))
	for i, e := range alive {
		entries[i] = LeaderboardEntry{Name: e.Name, Length: e.Length(), Kills: e.Kills}
	}
	return entries
}

// Entity returns a copy of one entity's state
func (r *Room) Entity(id string) (EntityState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	if !ok {
		return EntityState{}, false
	}
	return stateOf(e), true
}

// Player returns a copy of one human's metadata
func (r *Room) Player(id string) (PlayerMeta, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta, ok := r.players[id]
	if !ok {
		return PlayerMeta{}, false
	}
	return *meta, true
}

// PlayerIDs lists the humans in the room in ascending order
func (r *Room) PlayerIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HumanCount returns the number of human players
func (r *Room) HumanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// BotCount returns the number of registered bots, dead ones awaiting respawn included
func (r *Room) BotCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bots)
}

// FoodCount returns the number of food items on the field
func (r *Room) FoodCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.food.Len()
}

// Tick returns the number of ticks advanced so far
func (r *Room) Tick() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick
}

// Size returns the arena dimensions
func (r *Room) Size() (width, height float64) {
	return r.cfg.Width, r.cfg.Height
}

// SetRemoteID records the id an external provisioner assigned to this room
func (r *Room) SetRemoteID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remoteID = id
}

// Info summarises the room
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		ID:         r.ID,
		TierID:     r.Tier.ID,
		Humans:     len(r.players),
		Bots:       len(r.bots),
		TotalKills: r.totalKills,
		RemoteID:   r.remoteID,
		CreatedAt:  r.createdAt,
	}
}

func (r *Room) sortedEntities() []*Entity {
	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Entity, len(ids))
	for i, id := range ids {
		out[i] = r.entities[id]
	}
	return out
}

func (r *Room) sortedBotIDs() []string {
	ids := make([]string, 0, len(r.bots))
	for id := range r.bots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func stateOf(e *Entity) EntityState {
	body := make([]Point, len(e.Body))
	copy(body, e.Body)
	return EntityState{
		ID:         e.ID,
		Name:       e.Name,
		Color:      e.Color,
		IsBot:      e.IsBot,
		X:          e.X,
		Y:          e.Y,
		Angle:      e.Angle,
		Boosting:   e.Boosting,
		HeadRadius: e.HeadRadius(),
		Body:       body,
		Length:     e.Length(),
		Value:      e.Value,
		Kills:      e.Kills,
	}
}
