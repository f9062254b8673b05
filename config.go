package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level settings read from the environment.
type Config struct {
	Port           string
	StaticDir      string
	WebSocketPath  string
	DatabaseURL    string // empty disables persistence
	ReceiptSecret  string // empty disables signed cashout receipts
	ProvisionerURL string // empty disables remote room provisioning
	Region         string
	WireFormat     string // "json" or "msgpack"
	MaxRoomPlayers int
	MaxConnections int
	IPCooldown     time.Duration // 0 disables the per-IP connect limit
}

// LoadConfig reads .env if present, then the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	return &Config{
		Port:           getEnv("PORT", "8080"),
		StaticDir:      getEnv("STATIC_DIR", "../client"),
		WebSocketPath:  getEnv("WS_PATH", "/ws"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		ReceiptSecret:  getEnv("RECEIPT_SECRET", ""),
		ProvisionerURL: getEnv("PROVISIONER_URL", ""),
		Region:         getEnv("REGION", "local"),
		WireFormat:     getEnv("WIRE_FORMAT", "json"),
		MaxRoomPlayers: getEnvInt("MAX_ROOM_PLAYERS", 20),
		MaxConnections: getEnvInt("MAX_CONNECTIONS", 500),
		IPCooldown:     time.Duration(getEnvIntMin("IP_COOLDOWN_SEC", 3, 0)) * time.Second,
	}
}

// getEnv reads an environment variable and returns its value or a default value
func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = defaultValue
		log.Printf("environment variable %s not set, using default value: %q", key, defaultValue)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	return getEnvIntMin(key, defaultValue, 1)
}

// getEnvIntMin is getEnvInt with an explicit lower bound.
func getEnvIntMin(key string, defaultValue, floor int) int {
	raw := getEnv(key, strconv.Itoa(defaultValue))
	v, err := strconv.Atoi(raw)
	if err != nil || v < floor {
		log.Printf("invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
