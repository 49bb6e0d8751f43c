package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	t.Run("Defaults fill what the file leaves out", func(t *testing.T) {
		conf := MustLoad(writeConfig(t, "http-port: \"8080\"\n"))

		assert.Equal(t, "8080", conf.HTTPPort)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, StoreRedis, conf.Store.Driver)
		assert.Equal(t, BrokerLocal, conf.Broker.Driver)
		assert.Equal(t, 10, conf.Room.CodeAttempts)
		assert.Equal(t, 5*time.Second, conf.Session.PublishTimeout)
	})

	t.Run("Sections are read from yaml", func(t *testing.T) {
		conf := MustLoad(writeConfig(t, `
store:
  driver: postgres
broker:
  driver: nats
nats:
  url: nats://broker:4222
session:
  turn-timeout: 30s
`))

		assert.Equal(t, StorePostgres, conf.Store.Driver)
		assert.Equal(t, BrokerNATS, conf.Broker.Driver)
		assert.Equal(t, "nats://broker:4222", conf.NATS.URL)
		assert.Equal(t, 30*time.Second, conf.Session.TurnTimeout)
	})

	t.Run("Unknown driver panics", func(t *testing.T) {
		path := writeConfig(t, "broker:\n  driver: kafka\n")

		assert.Panics(t, func() { MustLoad(path) })
	})

	t.Run("Missing file panics", func(t *testing.T) {
		assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "absent.yml")) })
	})
}
