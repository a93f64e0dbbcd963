package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./home", cfg.HomeDir)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 10000, cfg.LogBufferSize)
	assert.Equal(t, 32, cfg.EventBufferSize)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SILVA_HOME_DIR", "/srv/workflows")
	t.Setenv("SILVA_DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/workflows", cfg.HomeDir)
	assert.True(t, cfg.Debug)
}

func TestGetReturnsLoaded(t *testing.T) {
	t.Setenv("SILVA_HOME_DIR", "/srv/elsewhere")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, Get())
}
