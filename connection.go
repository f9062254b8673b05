package main

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"slether-arena/game"
	"slether-arena/lobby"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 25 * time.Second
	maxMessage   = 4096
	sendBufferSz = 256 // frames queued per connection before we start dropping
)

// Commands is the part of the scheduler a connection drives.
type Commands interface {
	Join(connID, name, tierID string, demo bool) lobby.JoinResult
	HandleInput(connID string, x, y float64)
	HandleBoost(connID string, active bool)
	Respawn(connID string, demo bool) (game.EntityState, bool)
	Cashout(connID string) (lobby.CashoutResult, bool)
	Leave(connID string) bool
}

// Conn manages a single WebSocket player session. Outgoing frames go through
// a buffered channel drained by writePump so the tick never waits on a socket.
type Conn struct {
	ID    string
	ws    *websocket.Conn
	codec Codec
	send  chan []byte

	mu     sync.Mutex // protects closed
	closed bool
}

// NewConn creates a new connection wrapper
func NewConn(ws *websocket.Conn, codec Codec) *Conn {
	return &Conn{
		ID:    uuid.New().String(),
		ws:    ws,
		codec: codec,
		send:  make(chan []byte, sendBufferSz),
	}
}

// Send encodes msg and queues it. A full queue drops the frame.
func (c *Conn) Send(msg any) error {
	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}
	c.enqueue(data)
	return nil
}

func (c *Conn) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("send buffer full for %s, dropping frame", c.ID)
	}
}

// Close marks the connection closed and stops the writer
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump writes queued frames and keeps the socket alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(c.codec.FrameType(), data); err != nil {
				log.Printf("write error for %s: %v", c.ID, err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadLoop handles incoming messages for a connection until it disconnects.
// onDisconnect is called when the connection closes.
func (c *Conn) ReadLoop(cmds Commands, onDisconnect func(conn *Conn)) {
	defer func() {
		onDisconnect(c)
		c.Close()
	}()

	c.ws.SetReadLimit(maxMessage)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		frameType, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error for %s: %v", c.ID, err)
			}
			return
		}

		var msg ClientMessage
		codec := c.codec
		if frameType == websocket.TextMessage {
			codec = jsonCodec{}
		}
		if err := codec.Decode(raw, &msg); err != nil {
			log.Printf("bad message from %s: %v", c.ID, err)
			continue
		}
		if !c.dispatch(cmds, msg) {
			return
		}
	}
}

// dispatch applies one client message. It returns false when the
// connection should be closed.
func (c *Conn) dispatch(cmds Commands, msg ClientMessage) bool {
	switch msg.Type {
	case MsgJoin:
		res := cmds.Join(c.ID, msg.Name, msg.Tier, msg.Demo == 1)
		_ = c.Send(toJoinedMsg(res))

	case MsgAim:
		cmds.HandleInput(c.ID, msg.X, msg.Y)

	case MsgBoost:
		cmds.HandleBoost(c.ID, msg.Boost == 1)

	case MsgRespawn:
		state, ok := cmds.Respawn(c.ID, msg.Demo == 1)
		if !ok {
			_ = c.Send(ErrorMsg{Type: MsgError, Message: "not in a room"})
			return true
		}
		_ = c.Send(RespawnedMsg{Type: MsgRespawned, Entity: toEntityDTO(state)})

	case MsgCashout:
		res, ok := cmds.Cashout(c.ID)
		if !ok {
			_ = c.Send(ErrorMsg{Type: MsgError, Message: "not in a room"})
			return true
		}
		_ = c.Send(toCashoutMsg(res))

	case MsgLeave:
		cmds.Leave(c.ID)
		return false

	default:
		log.Printf("unknown message type %q from %s", msg.Type, c.ID)
	}
	return true
}

// ConnManager manages all active connections and publishes tick output to them.
type ConnManager struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	codec Codec
}

// NewConnManager creates an empty connection manager
func NewConnManager(codec Codec) *ConnManager {
	return &ConnManager{conns: make(map[string]*Conn), codec: codec}
}

// Add registers a connection
func (m *ConnManager) Add(c *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[c.ID] = c
}

// Remove unregisters a connection
func (m *ConnManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, id)
}

// Get returns a connection by ID
func (m *ConnManager) Get(id string) (*Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conns[id]
	return c, ok
}

// Count returns the number of active connections
func (m *ConnManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// CloseAll closes every connection, used on shutdown
func (m *ConnManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.conns {
		c.Close()
		delete(m.conns, id)
	}
}

func (m *ConnManager) sendTo(id string, msg any) {
	c, ok := m.Get(id)
	if !ok {
		return
	}
	if err := c.Send(msg); err != nil {
		log.Printf("encode error for %s: %v", id, err)
	}
}

// broadcast encodes msg once and queues it for every recipient.
func (m *ConnManager) broadcast(recipients []string, msg any) {
	if len(recipients) == 0 {
		return
	}
	data, err := m.codec.Encode(msg)
	if err != nil {
		log.Printf("encode error: %v", err)
		return
	}
	for _, id := range recipients {
		if c, ok := m.Get(id); ok {
			c.enqueue(data)
		}
	}
}

// PublishState implements lobby.Publisher
func (m *ConnManager) PublishState(connID string, snap game.Snapshot) {
	m.sendTo(connID, toStateMsg(snap))
}

// PublishKill implements lobby.Publisher
func (m *ConnManager) PublishKill(recipients []string, ev game.KillEvent) {
	m.broadcast(recipients, KillMsg{
		Type:       MsgKill,
		KillerID:   ev.KillerID,
		KillerName: ev.KillerName,
		VictimID:   ev.VictimID,
		VictimName: ev.VictimName,
		Bounty:     ev.Bounty,
		Length:     ev.VictimLength,
	})
}

// PublishDeath implements lobby.Publisher
func (m *ConnManager) PublishDeath(connID string, ev game.KillEvent) {
	m.sendTo(connID, DeathMsg{
		Type:   MsgDeath,
		Killer: ev.KillerName,
		Bounty: ev.Bounty,
		Length: ev.VictimLength,
	})
}

// PublishLeaderboard implements lobby.Publisher
func (m *ConnManager) PublishLeaderboard(recipients []string, entries []game.LeaderboardEntry) {
	rows := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		rows[i] = LeaderboardEntry{Name: e.Name, Length: e.Length, Kills: e.Kills}
	}
	m.broadcast(recipients, LeaderboardMsg{Type: MsgLeaderboard, Entries: rows})
}
