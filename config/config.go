// Package config centralizes the environment-driven tunables that the
// teacher package read ad hoc via os.Getenv in hverror.go
// (HV_ENV/HV_DEBUG). It generalizes that pattern to the ram and
// coroutine packages.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"sync"
)

// Config holds the process-wide tunables for the module.
type Config struct {
	// Production sanitizes error messages when true, mirroring the
	// teacher's isProductionEnv check.
	Production bool
	// PoolCapacity bounds the coroutine free list. Defaults to 16
	// (the distilled spec's P), overridable for tests that want to
	// exercise pool exhaustion without spawning thousands of
	// coroutines.
	PoolCapacity int
	// LogLevel controls the verbosity of the package-level slog
	// loggers used for probe-failure and persistence-fallback lines.
	LogLevel slog.Level
}

const (
	defaultPoolCapacity = 16
	envProduction       = "MACHINE_RT_ENV"
	envDebug            = "MACHINE_RT_DEBUG"
	envPoolCapacity     = "MACHINE_RT_POOL_SIZE"
	envLogLevel         = "MACHINE_RT_LOG_LEVEL"
)

var (
	once   sync.Once
	global Config
)

// Get returns the process-wide Config singleton, loading it from the
// environment on first use.
func Get() Config {
	once.Do(func() {
		global = Load(environ())
	})
	return global
}

// Load builds a Config from an explicit environment map, bypassing the
// process environment and the sync.Once cache. Tests use this instead
// of t.Setenv so they can exercise PoolCapacity overrides without
// mutating global state other tests rely on.
func Load(env map[string]string) Config {
	cfg := Config{
		PoolCapacity: defaultPoolCapacity,
		LogLevel:     slog.LevelInfo,
	}

	if v, ok := env[envProduction]; ok && (v == "production" || v == "prod") {
		cfg.Production = true
	}
	if v, ok := env[envDebug]; ok && v != "" {
		if val, err := strconv.ParseBool(v); err == nil && !val {
			cfg.Production = true
		}
	}
	if v, ok := env[envPoolCapacity]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PoolCapacity = n
		}
	}
	if v, ok := env[envLogLevel]; ok && v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			cfg.LogLevel = lvl
		}
	}

	return cfg
}

func environ() map[string]string {
	m := make(map[string]string, 4)
	for _, k := range []string{envProduction, envDebug, envPoolCapacity, envLogLevel} {
		if v, ok := os.LookupEnv(k); ok {
			m[k] = v
		}
	}
	return m
}
