package main

import (
	"encoding/json"
	"testing"

	"slether-arena/game"
	"slether-arena/lobby"
)

type fakeCommands struct {
	inRoom bool
	calls  []string
	aimX   float64
	boost  bool
}

func (f *fakeCommands) Join(connID, name, tierID string, demo bool) lobby.JoinResult {
	f.calls = append(f.calls, "join")
	f.inRoom = true
	return lobby.JoinResult{PlayerID: connID, RoomID: "room", Tier: game.FreeTier, Entity: game.EntityState{ID: connID, Name: name}}
}

func (f *fakeCommands) HandleInput(connID string, x, y float64) {
	f.calls = append(f.calls, "aim")
	f.aimX = x
}

func (f *fakeCommands) HandleBoost(connID string, active bool) {
	f.calls = append(f.calls, "boost")
	f.boost = active
}

func (f *fakeCommands) Respawn(connID string, demo bool) (game.EntityState, bool) {
	f.calls = append(f.calls, "respawn")
	return game.EntityState{ID: connID}, f.inRoom
}

func (f *fakeCommands) Cashout(connID string) (lobby.CashoutResult, bool) {
	f.calls = append(f.calls, "cashout")
	if !f.inRoom {
		return lobby.CashoutResult{}, false
	}
	f.inRoom = false
	return lobby.CashoutResult{PlayerID: connID, Payout: 5}, true
}

func (f *fakeCommands) Leave(connID string) bool {
	f.calls = append(f.calls, "leave")
	return f.inRoom
}

func newTestConn(t *testing.T) *Conn {
	t.Helper()
	codec, _ := NewCodec("json")
	return NewConn(nil, codec)
}

// nextFrame pops one queued frame and returns its type tag.
func nextFrame(t *testing.T, c *Conn) map[string]any {
	t.Helper()
	select {
	case data := <-c.send:
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("bad frame %q: %v", data, err)
		}
		return m
	default:
		t.Fatalf("no frame queued")
	}
	return nil
}

func TestDispatchJoinRepliesWithJoined(t *testing.T) {
	c := newTestConn(t)
	cmds := &fakeCommands{}
	if !c.dispatch(cmds, ClientMessage{Type: MsgJoin, Name: "Alice"}) {
		t.Fatalf("join closed the connection")
	}
	m := nextFrame(t, c)
	if m["t"] != MsgJoined || m["i"] != c.ID || m["r"] != "room" {
		t.Fatalf("joined frame = %v", m)
	}
}

func TestDispatchInputs(t *testing.T) {
	c := newTestConn(t)
	cmds := &fakeCommands{}
	c.dispatch(cmds, ClientMessage{Type: MsgAim, X: 12, Y: 3})
	c.dispatch(cmds, ClientMessage{Type: MsgBoost, Boost: 1})
	if cmds.aimX != 12 || !cmds.boost {
		t.Fatalf("aim=%v boost=%v", cmds.aimX, cmds.boost)
	}
	if len(c.send) != 0 {
		t.Fatalf("inputs should not produce replies")
	}
}

func TestDispatchOutsideRoomSendsError(t *testing.T) {
	c := newTestConn(t)
	cmds := &fakeCommands{}
	for _, typ := range []string{MsgRespawn, MsgCashout} {
		if !c.dispatch(cmds, ClientMessage{Type: typ}) {
			t.Fatalf("%s closed the connection", typ)
		}
		if m := nextFrame(t, c); m["t"] != MsgError {
			t.Fatalf("%s reply = %v", typ, m)
		}
	}
}

func TestDispatchCashoutAndLeave(t *testing.T) {
	c := newTestConn(t)
	cmds := &fakeCommands{inRoom: true}
	c.dispatch(cmds, ClientMessage{Type: MsgCashout})
	if m := nextFrame(t, c); m["t"] != MsgCashedOut || m["p"] != 5.0 {
		t.Fatalf("cashout reply = %v", m)
	}
	if c.dispatch(cmds, ClientMessage{Type: MsgLeave}) {
		t.Fatalf("leave should close the connection")
	}
	if !c.dispatch(cmds, ClientMessage{Type: "zz"}) {
		t.Fatalf("unknown type closed the connection")
	}
}

func TestSendDropsWhenFullAndAfterClose(t *testing.T) {
	c := newTestConn(t)
	for i := 0; i < sendBufferSz+10; i++ {
		if err := c.Send(ErrorMsg{Type: MsgError}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	if len(c.send) != sendBufferSz {
		t.Fatalf("queued %d frames, want %d", len(c.send), sendBufferSz)
	}
	c.Close()
	c.Close()
	if err := c.Send(ErrorMsg{Type: MsgError}); err != nil {
		t.Fatalf("send after close: %v", err)
	}
}

func TestConnManagerPublishes(t *testing.T) {
	codec, _ := NewCodec("json")
	m := NewConnManager(codec)
	a := NewConn(nil, codec)
	b := NewConn(nil, codec)
	m.Add(a)
	m.Add(b)

	ev := game.KillEvent{KillerID: a.ID, KillerName: "A", VictimID: b.ID, VictimName: "B", Bounty: 0.9, VictimLength: 12}
	m.PublishKill([]string{a.ID, b.ID, "gone"}, ev)
	m.PublishDeath(b.ID, ev)
	m.PublishLeaderboard([]string{a.ID}, []game.LeaderboardEntry{{Name: "A", Length: 20, Kills: 1}})
	m.PublishState(a.ID, game.Snapshot{Tick: 1})

	if got := nextFrame(t, a); got["t"] != MsgKill || got["vn"] != "B" {
		t.Fatalf("a kill frame = %v", got)
	}
	if got := nextFrame(t, a); got["t"] != MsgLeaderboard {
		t.Fatalf("a leaderboard frame = %v", got)
	}
	if got := nextFrame(t, a); got["t"] != MsgState {
		t.Fatalf("a state frame = %v", got)
	}
	if got := nextFrame(t, b); got["t"] != MsgKill {
		t.Fatalf("b kill frame = %v", got)
	}
	if got := nextFrame(t, b); got["t"] != MsgDeath || got["k"] != "A" {
		t.Fatalf("b death frame = %v", got)
	}

	m.Remove(b.ID)
	if m.Count() != 1 {
		t.Fatalf("count = %d", m.Count())
	}
	m.CloseAll()
	if m.Count() != 0 {
		t.Fatalf("count after CloseAll = %d", m.Count())
	}
}
