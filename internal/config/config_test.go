package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "HANDOFF_STORE", "HANDOFF_TTL", "SESSION_IDLE_TTL", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8081" || cfg.HandoffStore != "memory" || cfg.HandoffTTL != 24*time.Hour {
		t.Errorf("defaults: got %+v", cfg)
	}
	if cfg.SessionIdleTTL != 2*time.Hour {
		t.Errorf("session idle ttl: got %s", cfg.SessionIdleTTL)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("brokers: got %v, want none", cfg.KafkaBrokers)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HANDOFF_STORE", "redis")
	t.Setenv("HANDOFF_TTL", "90m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HandoffStore != "redis" || cfg.HandoffTTL != 90*time.Minute {
		t.Errorf("store: got %s %s", cfg.HandoffStore, cfg.HandoffTTL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("brokers: got %v", cfg.KafkaBrokers)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("origins: got %v", cfg.AllowedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		t.Setenv("HANDOFF_STORE", "localstorage")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for unknown store")
		}
	})
	t.Run("ttl", func(t *testing.T) {
		t.Setenv("HANDOFF_TTL", "soon")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for bad ttl")
		}
	})
	t.Run("idle ttl", func(t *testing.T) {
		t.Setenv("SESSION_IDLE_TTL", "forever")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for bad idle ttl")
		}
	})
	t.Run("short idle ttl", func(t *testing.T) {
		t.Setenv("SESSION_IDLE_TTL", "10s")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for idle ttl below a minute")
		}
	})
	t.Run("short ttl", func(t *testing.T) {
		t.Setenv("HANDOFF_TTL", "5s")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for ttl below a minute")
		}
	})
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "UTC"}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("location: got %v, %v", loc, err)
	}
}
