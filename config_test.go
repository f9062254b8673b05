package main

import (
	"testing"
	"time"
)

func TestIPCooldownZeroDisablesLimit(t *testing.T) {
	t.Setenv("IP_COOLDOWN_SEC", "0")
	cfg := LoadConfig()
	if cfg.IPCooldown != 0 {
		t.Fatalf("cooldown = %v, want 0", cfg.IPCooldown)
	}
	if !newIPRateLimiter(cfg.IPCooldown).allow("1.2.3.4") {
		t.Fatalf("disabled limiter refused")
	}
}

func TestGetEnvIntFallsBack(t *testing.T) {
	t.Setenv("MAX_CONNECTIONS", "0")
	t.Setenv("IP_COOLDOWN_SEC", "-1")
	cfg := LoadConfig()
	if cfg.MaxConnections != 500 {
		t.Fatalf("max connections = %d, want default 500", cfg.MaxConnections)
	}
	if cfg.IPCooldown != 3*time.Second {
		t.Fatalf("cooldown = %v, want default 3s", cfg.IPCooldown)
	}
}
