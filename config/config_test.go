package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load(map[string]string{})

	if cfg.Production {
		t.Error("Production = true with no env set, want false")
	}
	if cfg.PoolCapacity != defaultPoolCapacity {
		t.Errorf("PoolCapacity = %d, want %d", cfg.PoolCapacity, defaultPoolCapacity)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want Info", cfg.LogLevel)
	}
}

func TestLoadProductionFromEnv(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"env=production", map[string]string{envProduction: "production"}, true},
		{"env=prod", map[string]string{envProduction: "prod"}, true},
		{"env=development", map[string]string{envProduction: "development"}, false},
		{"debug=false", map[string]string{envDebug: "false"}, true},
		{"debug=true", map[string]string{envDebug: "true"}, false},
		{"debug=garbage", map[string]string{envDebug: "not-a-bool"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load(tc.env)
			if cfg.Production != tc.want {
				t.Errorf("Production = %v, want %v", cfg.Production, tc.want)
			}
		})
	}
}

func TestLoadPoolCapacityOverride(t *testing.T) {
	cfg := Load(map[string]string{envPoolCapacity: "4"})
	if cfg.PoolCapacity != 4 {
		t.Errorf("PoolCapacity = %d, want 4", cfg.PoolCapacity)
	}
}

func TestLoadPoolCapacityInvalidFallsBackToDefault(t *testing.T) {
	cfg := Load(map[string]string{envPoolCapacity: "not-a-number"})
	if cfg.PoolCapacity != defaultPoolCapacity {
		t.Errorf("PoolCapacity = %d, want default %d", cfg.PoolCapacity, defaultPoolCapacity)
	}
}

func TestLoadLogLevelOverride(t *testing.T) {
	cfg := Load(map[string]string{envLogLevel: "debug"})
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want Debug", cfg.LogLevel)
	}
}

func TestGetIsCachedAcrossCalls(t *testing.T) {
	first := Get()
	second := Get()
	if first != second {
		t.Errorf("Get() returned different values across calls: %+v vs %+v", first, second)
	}
}
