package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, EnvProduction, c.Environment)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestIsDevelopment(t *testing.T) {
	assert.True(t, (&Config{Environment: EnvDevelopment}).IsDevelopment())
	assert.False(t, (&Config{Environment: EnvProduction}).IsDevelopment())
	assert.False(t, (&Config{Environment: "staging"}).IsDevelopment())
}
