package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesOverTopOfDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mindfry.toml")
	body := `
[Decay]
TickIntervalMs = 500
MinEnergyThreshold = 0.01

[Synapse]
MaxDepth = 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cfg.Decay.TickIntervalMs)
	assert.Equal(t, 0.01, cfg.Decay.MinEnergyThreshold)
	assert.Equal(t, 5, cfg.Synapse.MaxDepth)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Sizes, cfg.Sizes)
	assert.Equal(t, Default().Retention, cfg.Retention)
}
