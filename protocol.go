package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"slether-arena/game"
	"slether-arena/lobby"
)

// Protocol uses single-character keys to minimize wire size.
// All x,y coordinates are rounded to 1 decimal place.
//
// Message type constants (value of "t" field):
//   Client → Server:
//     "j" = join     {"t":"j","n":"PlayerName","r":"bronze","d":0}   (r=tier id, d=demo 0/1)
//     "a" = aim      {"t":"a","x":1200.5,"y":830}                   (world-space point)
//     "b" = boost    {"t":"b","b":1}
//     "r" = respawn  {"t":"r","d":0}
//     "c" = cashout  {"t":"c"}
//     "l" = leave    {"t":"l"}
//   Server → Client:
//     "w" = welcome  {"t":"w","i":"id"}
//     "j" = joined   {"t":"j","i":"id","r":"roomId","e":{entity},"W":4000,"H":4000,...}
//     "s" = state    {"t":"s","k":tick,"ts":unixMillis,"s":[entities],"f":[food]}
//     "k" = kill     {"t":"k","ki":"killerId","kn":"killer","vi":"victimId","vn":"victim","p":0.9,"l":42}
//     "d" = death    {"t":"d","k":"KillerName","p":bounty,"l":length}
//     "l" = leaders  {"t":"l","l":[{"n":"name","l":42,"k":3}]}
//     "c" = cashout  {"t":"c","n":"name","e":earnings,"p":payout,"k":kills,"d":deaths,"ms":elapsed}
//     "e" = error    {"t":"e","m":"message"}
//
// With WIRE_FORMAT=msgpack the same structures travel as binary frames.

// Client message types
const (
	MsgJoin    = "j"
	MsgAim     = "a"
	MsgBoost   = "b"
	MsgRespawn = "r"
	MsgCashout = "c"
	MsgLeave   = "l"
)

// Server message types
const (
	MsgWelcome     = "w"
	MsgJoined      = "j"
	MsgState       = "s"
	MsgKill        = "k"
	MsgDeath       = "d"
	MsgLeaderboard = "l"
	MsgCashedOut   = "c"
	MsgRespawned   = "r"
	MsgError       = "e"
)

// ClientMessage is the base incoming message from the browser.
type ClientMessage struct {
	Type  string  `json:"t"`
	Name  string  `json:"n,omitempty"`
	Tier  string  `json:"r,omitempty"`
	Demo  int     `json:"d,omitempty"` // 0 or 1
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Boost int     `json:"b,omitempty"` // 0 or 1 (client sends int, not bool)
}

// WelcomeMsg is sent immediately on WebSocket connect.
type WelcomeMsg struct {
	Type string `json:"t"`
	ID   string `json:"i"`
}

// EntityDTO is the compact entity for per-tick state updates.
// Segments are encoded as flat [x,y] pairs to save bytes vs {"x":..,"y":..} objects.
type EntityDTO struct {
	ID       string       `json:"i"`
	Name     string       `json:"n"`
	Color    string       `json:"c"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Angle    float64      `json:"a"`
	Segments [][2]float64 `json:"s"`
	Length   int          `json:"p"`
	Radius   float64      `json:"w"`
	Value    float64      `json:"v"`
	Kills    int          `json:"k,omitempty"`
	Boosting int          `json:"b,omitempty"` // 1 if boosting, omitted if not
	Bot      int          `json:"o,omitempty"`
}

// FoodDTO is the compact food item for per-tick state updates.
type FoodDTO struct {
	ID     string  `json:"i"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Value  int     `json:"v"`
	Radius float64 `json:"r"`
	Color  string  `json:"c"`
}

// TierDTO describes the stakes of the joined room
type TierDTO struct {
	ID          string  `json:"i"`
	Name        string  `json:"n"`
	BuyIn       float64 `json:"b"`
	PlatformFee float64 `json:"f"`
}

// JoinedMsg answers a join with the assigned id and the arena.
type JoinedMsg struct {
	Type   string    `json:"t"`
	ID     string    `json:"i"`
	RoomID string    `json:"r"`
	Tier   TierDTO   `json:"tr"`
	Entity EntityDTO `json:"e"`
	Width  float64   `json:"W"`
	Height float64   `json:"H"`
}

// RespawnedMsg carries the fresh entity after a respawn.
type RespawnedMsg struct {
	Type   string    `json:"t"`
	Entity EntityDTO `json:"e"`
}

// StateMsg is the per-tick culled state sent to each participant.
type StateMsg struct {
	Type     string      `json:"t"`
	Tick     uint64      `json:"k"`
	Time     int64       `json:"ts"` // unix millis
	Entities []EntityDTO `json:"s"`
	Food     []FoodDTO   `json:"f"`
}

// KillMsg is broadcast to a whole room for every death.
type KillMsg struct {
	Type       string  `json:"t"`
	KillerID   string  `json:"ki"`
	KillerName string  `json:"kn"`
	VictimID   string  `json:"vi"`
	VictimName string  `json:"vn"`
	Bounty     float64 `json:"p"`
	Length     int     `json:"l"`
}

// DeathMsg is sent to a player when their entity dies.
// k = killer name (or "Boundary"), p = bounty paid out of the victim's value
type DeathMsg struct {
	Type   string  `json:"t"`
	Killer string  `json:"k"`
	Bounty float64 `json:"p"`
	Length int     `json:"l"`
}

// LeaderboardEntry is a single leaderboard row.
type LeaderboardEntry struct {
	Name   string `json:"n"`
	Length int    `json:"l"`
	Kills  int    `json:"k"`
}

// LeaderboardMsg is broadcast to a whole room each tick.
type LeaderboardMsg struct {
	Type    string             `json:"t"`
	Entries []LeaderboardEntry `json:"l"`
}

// CashoutMsg is the final accounting sent before the player leaves.
type CashoutMsg struct {
	Type     string  `json:"t"`
	Name     string  `json:"n"`
	Earnings float64 `json:"e"`
	Payout   float64 `json:"p"`
	Kills    int     `json:"k"`
	Deaths   int     `json:"d"`
	Elapsed  int64   `json:"ms"`
	Receipt  string  `json:"rc,omitempty"`
}

// ErrorMsg reports a rejected command.
type ErrorMsg struct {
	Type    string `json:"t"`
	Message string `json:"m"`
}

// Codec turns outgoing messages into WebSocket frames and parses incoming ones.
type Codec interface {
	Encode(msg any) ([]byte, error)
	Decode(data []byte, v any) error
	FrameType() int
}

// NewCodec returns the codec for a wire format name ("json" or "msgpack").
func NewCodec(format string) (Codec, error) {
	switch format {
	case "", "json":
		return jsonCodec{}, nil
	case "msgpack":
		return msgpackCodec{}, nil
	}
	return nil, fmt.Errorf("unknown wire format %q", format)
}

type jsonCodec struct{}

func (jsonCodec) Encode(msg any) ([]byte, error)  { return json.Marshal(msg) }
func (jsonCodec) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) FrameType() int                  { return websocket.TextMessage }

// msgpackCodec reuses the json tags so both formats share one schema.
type msgpackCodec struct{}

func (msgpackCodec) Encode(msg any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }

// --- conversions ---

func toEntityDTO(e game.EntityState) EntityDTO {
	pairs := make([][2]float64, len(e.Body))
	for i, p := range e.Body {
		pairs[i] = [2]float64{roundTo1(p.X), roundTo1(p.Y)}
	}
	dto := EntityDTO{
		ID:       e.ID,
		Name:     e.Name,
		Color:    e.Color,
		X:        roundTo1(e.X),
		Y:        roundTo1(e.Y),
		Angle:    math.Round(e.Angle*1000) / 1000,
		Segments: pairs,
		Length:   e.Length,
		Radius:   roundTo1(e.HeadRadius),
		Value:    e.Value,
		Kills:    e.Kills,
	}
	if e.Boosting {
		dto.Boosting = 1
	}
	if e.IsBot {
		dto.Bot = 1
	}
	return dto
}

func toFoodDTO(f game.Food) FoodDTO {
	return FoodDTO{
		ID:     f.ID,
		X:      roundTo1(f.X),
		Y:      roundTo1(f.Y),
		Value:  f.Value,
		Radius: f.Radius,
		Color:  f.Color,
	}
}

func toStateMsg(snap game.Snapshot) StateMsg {
	msg := StateMsg{
		Type:     MsgState,
		Tick:     snap.Tick,
		Time:     snap.Timestamp.UnixMilli(),
		Entities: make([]EntityDTO, len(snap.Entities)),
		Food:     make([]FoodDTO, len(snap.Food)),
	}
	for i, e := range snap.Entities {
		msg.Entities[i] = toEntityDTO(e)
	}
	for i, f := range snap.Food {
		msg.Food[i] = toFoodDTO(f)
	}
	return msg
}

func toJoinedMsg(res lobby.JoinResult) JoinedMsg {
	return JoinedMsg{
		Type:   MsgJoined,
		ID:     res.PlayerID,
		RoomID: res.RoomID,
		Tier: TierDTO{
			ID:          res.Tier.ID,
			Name:        res.Tier.Name,
			BuyIn:       res.Tier.BuyIn,
			PlatformFee: res.Tier.PlatformFee,
		},
		Entity: toEntityDTO(res.Entity),
		Width:  res.ArenaWidth,
		Height: res.ArenaHeight,
	}
}

func toCashoutMsg(res lobby.CashoutResult) CashoutMsg {
	return CashoutMsg{
		Type:     MsgCashedOut,
		Name:     res.Name,
		Earnings: res.Earnings,
		Payout:   res.Payout,
		Kills:    res.Kills,
		Deaths:   res.Deaths,
		Elapsed:  res.Elapsed.Milliseconds(),
		Receipt:  res.Receipt,
	}
}

// roundTo1 rounds a float64 to 1 decimal place to save protocol bytes.
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
