package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8000")
	}
	if cfg.StoreDriver != StoreMemory {
		t.Errorf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
	if !cfg.SeedDemoData {
		t.Error("SeedDemoData should default to true for the memory store")
	}
	if cfg.AccessTTL() != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 7*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", cfg.RefreshTTL())
	}
	if cfg.SessionSweepInterval() != 0 {
		t.Errorf("SessionSweepInterval = %v, want 0", cfg.SessionSweepInterval())
	}
	if cfg.AccessTokenBytes != 32 || cfg.RefreshTokenBytes != 40 {
		t.Errorf("token bytes = %d/%d, want 32/40", cfg.AccessTokenBytes, cfg.RefreshTokenBytes)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.EventsKafkaTopic != "cms-session-events" {
		t.Errorf("EventsKafkaTopic = %q, want cms-session-events", cfg.EventsKafkaTopic)
	}
	if cfg.KafkaBrokersList() != nil {
		t.Errorf("KafkaBrokersList = %v, want nil", cfg.KafkaBrokersList())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("STORE_DRIVER", "sqlite")
	os.Setenv("DATABASE_URL", "file:cms.db")
	os.Setenv("ACCESS_TTL", "5m")
	os.Setenv("SESSION_SWEEP_INTERVAL", "10m")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("SEED_DEMO_DATA", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.StoreDriver != StoreSQLite || cfg.DatabaseURL != "file:cms.db" {
		t.Errorf("store = %q %q", cfg.StoreDriver, cfg.DatabaseURL)
	}
	if cfg.AccessTTL() != 5*time.Minute {
		t.Errorf("AccessTTL = %v, want 5m", cfg.AccessTTL())
	}
	if cfg.SessionSweepInterval() != 10*time.Minute {
		t.Errorf("SessionSweepInterval = %v, want 10m", cfg.SessionSweepInterval())
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.SeedDemoData {
		t.Error("SeedDemoData should be false")
	}
}

func TestLoad_SeedDemoDataDefaultFollowsStore(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"memory", map[string]string{"STORE_DRIVER": "memory"}, true},
		{"postgres", map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": "postgres://cms@localhost/cms"}, false},
		{"sqlite", map[string]string{"STORE_DRIVER": "sqlite", "DATABASE_URL": "cms.db"}, false},
		{"postgres opt in", map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": "postgres://cms@localhost/cms", "SEED_DEMO_DATA": "true"}, true},
		{"memory opt out", map[string]string{"STORE_DRIVER": "memory", "SEED_DEMO_DATA": "false"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.SeedDemoData != tt.want {
				t.Errorf("SeedDemoData = %v, want %v", cfg.SeedDemoData, tt.want)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantSub string
	}{
		{"unknown store", map[string]string{"STORE_DRIVER": "mongo"}, "STORE_DRIVER"},
		{"postgres without dsn", map[string]string{"STORE_DRIVER": "postgres"}, "DATABASE_URL"},
		{"bad access ttl", map[string]string{"ACCESS_TTL": "soon"}, "ACCESS_TTL"},
		{"zero refresh ttl", map[string]string{"REFRESH_TTL": "0s"}, "REFRESH_TTL"},
		{"negative sweep", map[string]string{"SESSION_SWEEP_INTERVAL": "-1m"}, "SESSION_SWEEP_INTERVAL"},
		{"short tokens", map[string]string{"ACCESS_TOKEN_BYTES": "8"}, "ACCESS_TOKEN_BYTES"},
		{"bcrypt cost too high", map[string]string{"BCRYPT_COST": "40"}, "BCRYPT_COST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			cfg, err := Load()
			if err == nil {
				t.Fatalf("Load = %+v, want error", cfg)
			}
			if !strings.HasPrefix(err.Error(), "config:") || !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("err = %q, want config: ... %s", err, tt.wantSub)
			}
		})
	}
}

func TestKafkaBrokersList(t *testing.T) {
	cfg := &Config{KafkaBrokers: " kafka-1:9092, ,kafka-2:9092 "}
	got := cfg.KafkaBrokersList()
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Errorf("KafkaBrokersList = %v", got)
	}
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should yield nil brokers")
	}
}
