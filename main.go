package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"slether-arena/lobby"
	"slether-arena/provision"
	"slether-arena/receipt"
	"slether-arena/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development; tighten in production
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Enable per-message deflate compression (RFC 7692)
	EnableCompression: true,
}

func main() {
	cfg := LoadConfig()
	port := flag.String("port", cfg.Port, "Server port")
	flag.Parse()

	codec, err := NewCodec(cfg.WireFormat)
	if err != nil {
		log.Fatal(err)
	}
	conns := NewConnManager(codec)

	tiers := lobby.NewTierCatalog(lobby.DefaultTiers())
	deps := lobby.Deps{Tiers: tiers, Publisher: conns}

	var killLog *store.KillLog
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := store.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
		loaded, err := store.LoadTiers(ctx, db)
		switch {
		case errors.Is(err, store.ErrNoTierTable):
			log.Printf("no tiers table, using built-in tiers")
		case err != nil:
			log.Printf("failed to load tiers, using built-in tiers: %v", err)
		case len(loaded) > 0:
			tiers.Replace(loaded)
			log.Printf("loaded %d tiers from database", len(loaded))
		}
		cancel()
		killLog = store.NewKillLog(db, 1024)
		deps.Logger = killLog
	}
	if cfg.ProvisionerURL != "" {
		deps.Provisioner = provision.New(cfg.ProvisionerURL)
	}
	if cfg.ReceiptSecret != "" {
		deps.Signer = receipt.NewSigner(cfg.ReceiptSecret, "slether-arena", 24*time.Hour)
	}

	lcfg := lobby.DefaultConfig()
	lcfg.MaxPlayersPerRoom = cfg.MaxRoomPlayers
	lcfg.Region = cfg.Region
	manager := lobby.NewManager(lcfg, deps)

	rateLimiter := newIPRateLimiter(cfg.IPCooldown)
	cleanupQuit := make(chan struct{})
	go rateLimiter.runCleanup(60*time.Second, cleanupQuit)

	r := mux.NewRouter()
	r.HandleFunc(cfg.WebSocketPath, func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade error: %v", err)
			return
		}

		// Check limits after upgrade so client can receive error messages
		if conns.Count() >= cfg.MaxConnections {
			sendErrorAndClose(ws, "Server full. Please try again later.")
			return
		}
		if !rateLimiter.allow(ip) {
			sendErrorAndClose(ws, "Too many connections. Please wait a few seconds.")
			return
		}
		// Enable per-message write compression at best-speed level
		ws.EnableWriteCompression(true)

		conn := NewConn(ws, codec)
		conns.Add(conn)
		go conn.writePump()
		log.Printf("player connected: %s", conn.ID)

		// Send welcome immediately so client knows its ID
		_ = conn.Send(WelcomeMsg{Type: MsgWelcome, ID: conn.ID})

		onDisconnect := func(c *Conn) {
			conns.Remove(c.ID)
			manager.Leave(c.ID)
			log.Printf("player disconnected: %s", c.ID)
		}

		// Blocking read loop, runs until client disconnects
		conn.ReadLoop(manager, onDisconnect)
	})
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
	r.HandleFunc("/api/tiers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, manager.Tiers())
	}).Methods("GET")
	r.HandleFunc("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, manager.ListRooms())
	}).Methods("GET")

	// Serve static client files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))

	go manager.Run()

	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("server listening on :%s", *port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("shutting down server (signal: %v)...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	close(cleanupQuit)
	manager.Stop()
	conns.CloseAll()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if killLog != nil {
		killLog.Close()
	}
	log.Println("server stopped")
}

// sendErrorAndClose sends an error message via WebSocket then closes the connection
func sendErrorAndClose(ws *websocket.Conn, msg string) {
	data, _ := json.Marshal(ErrorMsg{Type: MsgError, Message: msg})
	_ = ws.WriteMessage(websocket.TextMessage, data)
	ws.Close()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
