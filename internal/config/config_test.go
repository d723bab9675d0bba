package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoats/tilespace/internal/config"
	"github.com/dcoats/tilespace/pkg/fs"
)

func TestLoadMissingDefaultFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.Load(fs.NewReal(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadMissingExplicitFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(fs.NewReal(), dir, "does-not-exist.jsonc")
	require.Error(t, err)
}

func TestLoadMergesProjectFileOverDefaults(t *testing.T) {
	dir := t.TempDir()

	jsonc := `{
		// trailing comment and comma tolerated
		"width": 4,
		"height": 4,
		"bloom": true,
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(jsonc), 0o600))

	cfg, err := config.Load(fs.NewReal(), dir, "")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 4, cfg.Height)
	assert.True(t, cfg.UseBloom)
	// Fields absent from the file fall back to defaults.
	assert.Equal(t, config.Default().Shards, cfg.Shards)
}

func TestLoadProjectFileCanDisablePrimeCacheDefault(t *testing.T) {
	dir := t.TempDir()

	// Default() has PrimeCacheSizes == true; the file must be able to turn
	// it back off, not just OR a true onto a false default.
	jsonc := `{"prime_cache": false}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(jsonc), 0o600))

	cfg, err := config.Load(fs.NewReal(), dir, "")
	require.NoError(t, err)
	assert.False(t, cfg.PrimeCacheSizes)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Width = 5
	cfg.Height = 5
	cfg.UseBloom = true
	cfg.BloomFPRate = 0.02
	cfg.ExpectedItems = 5000

	require.NoError(t, config.Save(fs.NewReal(), dir, cfg))

	got, err := config.Load(fs.NewReal(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestEnumerateConfigTranslation(t *testing.T) {
	cfg := config.Default()
	cfg.Shards = 6
	cfg.CachePerShard = 128

	ec := cfg.EnumerateConfig()
	assert.Equal(t, 6, ec.SetShardCount)
	assert.Equal(t, 128, ec.SetCachePerShard)
	assert.Equal(t, cfg.WorkerBatch, ec.WorkerBatch)
	assert.Equal(t, cfg.PrimeCacheSizes, ec.PrimeCacheSizes)
}
