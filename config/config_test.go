package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	require.NoError(t, LoadConfig())
	require.NotNil(t, Conf)

	assert.Equal(t, "watchtogether", Conf.App.Name)
	assert.Equal(t, ":8080", Conf.App.Port)
	assert.Equal(t, 30, Conf.Relay.PingIntervalSeconds)
	assert.Equal(t, "memory", Conf.Store.Backend)
	assert.Equal(t, 20.0, Conf.RateLimit.RPS)
	assert.Equal(t, 40, Conf.RateLimit.Burst)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("WATCHTOGETHER_APP_PORT", ":9999")
	t.Setenv("WATCHTOGETHER_STORE_BACKEND", "redis")

	require.NoError(t, LoadConfig())

	assert.Equal(t, ":9999", Conf.App.Port)
	assert.Equal(t, "redis", Conf.Store.Backend)
}
