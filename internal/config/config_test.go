package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults fill what the file omits", func(t *testing.T) {
		// Given: a config file with only a log level
		path := writeConfig(t, "log-level: debug\n")

		// When: loading it
		conf, err := Load(path)

		// Then: every other section has its default
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, BrokerMemory, conf.Relay.Broker)
		assert.Equal(t, 25*time.Second, conf.Relay.PingPeriod)
		assert.Equal(t, 2*time.Minute, conf.Relay.ChannelTTL)
		assert.Equal(t, int64(4096), conf.Relay.MaxMessageSize)
		assert.Equal(t, "ws://localhost:9090/ws", conf.Client.RelayURL)
		assert.Equal(t, "gemini-2.5-flash", conf.Suggester.Model)
		assert.Equal(t, 600*time.Millisecond, conf.Suggester.ThinkDelay)
		assert.Empty(t, conf.Postgres.DSN)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "relay:\n  broker: memory\n")
		t.Setenv("RELAY_BROKER", BrokerRedis)
		t.Setenv("GEMINI_API_KEY", "secret")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, BrokerRedis, conf.Relay.Broker)
		assert.Equal(t, "secret", conf.Suggester.APIKey)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		require.Error(t, err)
	})
}
