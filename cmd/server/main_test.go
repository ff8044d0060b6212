package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/portfolio-engine/internal/config"
	"github.com/foliotrack/portfolio-engine/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	mr := miniredis.RunT(t)
	return &config.Config{
		Port:     0,
		RedisURL: "redis://" + mr.Addr(),
		CacheTTL: time.Minute,
	}
}

func TestOpenStore_RedisOnly(t *testing.T) {
	cfg := testConfig(t)

	kv, cleanup, err := openStore(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &store.RedisStore{}, kv)
	require.Len(t, cleanup, 1)
	cleanup[0]()
}

func TestOpenStore_MemoryFallback(t *testing.T) {
	kv, cleanup, err := openStore(&config.Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, kv)
	assert.Empty(t, cleanup)
}

func TestOpenStore_FailureStillReturnsCleanup(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseURL = "postgres://%zz"

	_, cleanup, err := openStore(cfg, zerolog.Nop())
	require.Error(t, err)
	// The Redis client opened before the failure must still be closable.
	require.Len(t, cleanup, 1)
	cleanup[0]()
}

func TestRun_ReturnsStartupErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.SectorsFile = filepath.Join(t.TempDir(), "missing.yaml")

	err := run(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sector table")
}
