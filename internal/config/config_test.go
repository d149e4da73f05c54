package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv убирает переменные, которые мог выставить запуск тестов
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"USER_ID", "USER_NAME", "GROUP", "LISTEN_ADDR", "SEEDS", "STORE_DRIVER", "STORE_PATH",
		"LOG_LEVEL", "SCAN_WINDOW", "CONNECT_TIMEOUT", "POLL_INTERVAL", "PING_INTERVAL",
		"PUSH_DELAY", "LATITUDE", "LONGITUDE", "ACCURACY",
	} {
		t.Setenv(envPrefix+key, "")
		require.NoError(t, os.Unsetenv(envPrefix+key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Link.ListenAddr)
	assert.Empty(t, cfg.Link.Seeds)
	assert.Equal(t, 30*time.Second, cfg.Link.ScanWindow)
	assert.Equal(t, 10*time.Second, cfg.Link.ConnectTimeout)
	assert.Equal(t, 2*time.Second, cfg.Link.PollInterval)
	assert.Equal(t, 60*time.Second, cfg.Sync.PingInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.Sync.PushDelay)
	assert.Equal(t, DriverBolt, cfg.Store.Driver)
	assert.False(t, cfg.Location.Set)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())

	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, "User id is required")
	cfg.Node.UserID = "u1"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"VASASYNC_USER_ID=u1\n"+
			"VASASYNC_USER_NAME=Aslak\n"+
			"VASASYNC_GROUP=g1\n"+
			"VASASYNC_SEEDS=10.0.0.1:7070, ,10.0.0.2:7070\n"+
			"VASASYNC_STORE_DRIVER=sqlite\n"+
			"VASASYNC_PUSH_DELAY=5ms\n"+
			"VASASYNC_LATITUDE=60.1699\n"+
			"VASASYNC_LONGITUDE=24.9384\n"+
			"VASASYNC_ACCURACY=4.5\n"+
			"VASASYNC_LOG_LEVEL=DEBUG\n",
	), 0o600))

	// окружение важнее файла
	t.Setenv(envPrefix+"GROUP", "g2")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, NodeConfig{UserID: "u1", UserName: "Aslak", Group: "g2"}, cfg.Node)
	assert.Equal(t, []string{"10.0.0.1:7070", "10.0.0.2:7070"}, cfg.Link.Seeds)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 5*time.Millisecond, cfg.EngineConfig().PushDelay)
	assert.Equal(t, 60*time.Second, cfg.EngineConfig().PingInterval)
	assert.Equal(t, LocationConfig{Latitude: 60.1699, Longitude: 24.9384, Accuracy: 4.5, Set: true}, cfg.Location)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad duration", env: map[string]string{"PING_INTERVAL": "soon"}},
		{name: "latitude without longitude", env: map[string]string{"LATITUDE": "60"}},
		{name: "bad latitude", env: map[string]string{"LATITUDE": "north", "LONGITUDE": "24"}},
		{name: "bad accuracy", env: map[string]string{"LATITUDE": "60", "LONGITUDE": "24", "ACCURACY": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(envPrefix+k, v)
			}

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Node:  NodeConfig{UserID: "u1"},
			Link:  LinkConfig{ScanWindow: time.Second, ConnectTimeout: time.Second, PollInterval: time.Second},
			Store: StoreConfig{Driver: DriverMemory},
			Log:   LogConfig{Level: "info"},
			Sync:  SyncConfig{PingInterval: time.Minute},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		mutate func(c *Config)
		name   string
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "redis" }},
		{name: "bolt without path", mutate: func(c *Config) { c.Store.Driver = DriverBolt }},
		{name: "latitude out of range", mutate: func(c *Config) { c.Location.Latitude = 91 }},
		{name: "zero ping interval", mutate: func(c *Config) { c.Sync.PingInterval = 0 }},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "loud" }},
		{name: "user id with space", mutate: func(c *Config) { c.Node.UserID = "aili hetta" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}
