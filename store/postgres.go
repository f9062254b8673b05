package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lib/pq"

	"slether-arena/game"
)

// ErrNoTierTable is returned by LoadTiers when the tiers table does not exist.
var ErrNoTierTable = errors.New("tiers table missing")

const schema = `
CREATE TABLE IF NOT EXISTS tiers (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    buy_in       NUMERIC NOT NULL DEFAULT 0,
    platform_fee NUMERIC NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS kills (
    id            BIGSERIAL PRIMARY KEY,
    room_id       TEXT NOT NULL,
    killer_id     TEXT NOT NULL,
    killer_name   TEXT NOT NULL,
    victim_id     TEXT NOT NULL,
    victim_name   TEXT NOT NULL,
    bounty        NUMERIC NOT NULL,
    victim_length INTEGER NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS session_joins (
    id         BIGSERIAL PRIMARY KEY,
    room_id    TEXT NOT NULL,
    player_id  TEXT NOT NULL,
    name       TEXT NOT NULL,
    buy_in     NUMERIC NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS session_results (
    id         BIGSERIAL PRIMARY KEY,
    player_id  TEXT NOT NULL,
    earnings   NUMERIC NOT NULL,
    kills      INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Println("successfully connected to PostgreSQL")
	return db, nil
}

// Migrate creates the tables the server writes to.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// LoadTiers reads the stakes ladder from the tiers table.
func LoadTiers(ctx context.Context, db *sql.DB) ([]game.Tier, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name, buy_in, platform_fee FROM tiers ORDER BY buy_in")
	if err != nil {
		if isUndefinedTable(err) {
			return nil, ErrNoTierTable
		}
		return nil, fmt.Errorf("load tiers: %w", err)
	}
	defer rows.Close()

	var tiers []game.Tier
	for rows.Next() {
		var t game.Tier
		if err := rows.Scan(&t.ID, &t.Name, &t.BuyIn, &t.PlatformFee); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load tiers: %w", err)
	}
	return tiers, nil
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P01"
}

// Execer is the subset of *sql.DB the kill log writes through.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type write struct {
	query string
	args  []any
}

// KillLog persists kills and sessions from a background worker. Callers never
// block: when the queue is full or the log is closed the write is dropped and
// logged.
type KillLog struct {
	db      Execer
	mu      sync.RWMutex // guards closed and sends on queue
	closed  bool
	queue   chan write
	done    chan struct{}
	timeout time.Duration
}

// NewKillLog starts a worker draining a queue of size entries into db.
func NewKillLog(db Execer, size int) *KillLog {
	k := &KillLog{
		db:      db,
		queue:   make(chan write, size),
		done:    make(chan struct{}),
		timeout: 5 * time.Second,
	}
	go k.run()
	return k
}

func (k *KillLog) run() {
	defer close(k.done)
	for w := range k.queue {
		ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
		if _, err := k.db.ExecContext(ctx, w.query, w.args...); err != nil {
			log.Printf("failed to persist record: %v", err)
		}
		cancel()
	}
}

// Close stops accepting writes and waits for the queue to drain. Safe to call
// more than once.
func (k *KillLog) Close() {
	k.mu.Lock()
	if !k.closed {
		k.closed = true
		close(k.queue)
	}
	k.mu.Unlock()
	<-k.done
}

func (k *KillLog) enqueue(query string, args ...any) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		log.Printf("persistence closed, dropping write")
		return
	}
	select {
	case k.queue <- write{query: query, args: args}:
	default:
		log.Printf("persistence queue full, dropping write")
	}
}

func (k *KillLog) LogKill(roomID string, ev game.KillEvent) {
	k.enqueue(
		"INSERT INTO kills (room_id, killer_id, killer_name, victim_id, victim_name, bounty, victim_length) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		roomID, ev.KillerID, ev.KillerName, ev.VictimID, ev.VictimName, ev.Bounty, ev.VictimLength,
	)
}

func (k *KillLog) LogJoin(roomID, playerID, name string, buyIn float64) {
	k.enqueue(
		"INSERT INTO session_joins (room_id, player_id, name, buy_in) VALUES ($1, $2, $3, $4)",
		roomID, playerID, name, buyIn,
	)
}

func (k *KillLog) LogSession(playerID string, earnings float64, kills int) {
	k.enqueue(
		"INSERT INTO session_results (player_id, earnings, kills) VALUES ($1, $2, $3)",
		playerID, earnings, kills,
	)
}
