// Package config loads node settings from a .env file and VASASYNC_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/iudanet/vasasync/internal/link"
	"github.com/iudanet/vasasync/internal/link/wslink"
	"github.com/iudanet/vasasync/internal/sync"
	"github.com/iudanet/vasasync/internal/validation"
)

const envPrefix = "VASASYNC_"

// Store drivers
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// DefaultListenAddr is where a hosting node serves links
const DefaultListenAddr = ":7070"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Link     LinkConfig
	Node     NodeConfig
	Store    StoreConfig
	Log      LogConfig
	Location LocationConfig
	Sync     SyncConfig
}

// NodeConfig identifies the user of this device
type NodeConfig struct {
	UserID   string `validate:"required"`
	UserName string
	Group    string
}

// LinkConfig of the WebSocket transport. An empty ListenAddr makes a
// scan-only node.
type LinkConfig struct {
	ListenAddr     string
	Seeds          []string
	ScanWindow     time.Duration `validate:"gt=0"`
	ConnectTimeout time.Duration `validate:"gt=0"`
	PollInterval   time.Duration `validate:"gt=0"`
}

type StoreConfig struct {
	Driver string `validate:"oneof=bolt sqlite memory"`
	Path   string `validate:"required_unless=Driver memory"`
}

// LocationConfig is the fixed position reported by the device.
// Set is false when no coordinates were configured.
type LocationConfig struct {
	Latitude  float64 `validate:"min=-90,max=90"`
	Longitude float64 `validate:"min=-180,max=180"`
	Accuracy  float64 `validate:"min=0"`
	Set       bool
}

type SyncConfig struct {
	PingInterval time.Duration `validate:"gt=0"`
	PushDelay    time.Duration `validate:"min=0"`
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

// Load reads files (".env" when none given) and then the environment.
// Variables already set in the environment win over the files.
// Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var err error
	cfg := &Config{
		Node: NodeConfig{
			UserID:   getEnv("USER_ID", ""),
			UserName: getEnv("USER_NAME", ""),
			Group:    getEnv("GROUP", ""),
		},
		Link: LinkConfig{
			ListenAddr: getEnv("LISTEN_ADDR", ""),
			Seeds:      getEnvAsList("SEEDS"),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", DriverBolt),
			Path:   getEnv("STORE_PATH", "vasasync.db"),
		},
		Log: LogConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
	}

	durations := []struct {
		dst *time.Duration
		key string
		def time.Duration
	}{
		{&cfg.Link.ScanWindow, "SCAN_WINDOW", link.DefaultScanWindow},
		{&cfg.Link.ConnectTimeout, "CONNECT_TIMEOUT", link.DefaultConnectTimeout},
		{&cfg.Link.PollInterval, "POLL_INTERVAL", wslink.DefaultPollInterval},
		{&cfg.Sync.PingInterval, "PING_INTERVAL", sync.DefaultPingInterval},
		{&cfg.Sync.PushDelay, "PUSH_DELAY", sync.DefaultPushDelay},
	}
	for _, d := range durations {
		if *d.dst, err = getEnvAsDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.Location, err = loadLocation(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the config after flags were applied
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := validation.ValidateUserID(c.Node.UserID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LogLevel returns the configured slog level
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// EngineConfig converts the timings into the engine's config
func (c *Config) EngineConfig() sync.Config {
	cfg := sync.DefaultConfig()
	cfg.PingInterval = c.Sync.PingInterval
	cfg.PushDelay = c.Sync.PushDelay
	return cfg
}

func loadLocation() (LocationConfig, error) {
	lat, latSet := os.LookupEnv(envPrefix + "LATITUDE")
	lon, lonSet := os.LookupEnv(envPrefix + "LONGITUDE")
	if !latSet && !lonSet {
		return LocationConfig{}, nil
	}
	if latSet != lonSet {
		return LocationConfig{}, fmt.Errorf("%w: %sLATITUDE and %sLONGITUDE go together", ErrInvalidConfig, envPrefix, envPrefix)
	}

	loc := LocationConfig{Set: true}
	var err error
	if loc.Latitude, err = strconv.ParseFloat(lat, 64); err != nil {
		return LocationConfig{}, fmt.Errorf("%w: invalid %sLATITUDE: %w", ErrInvalidConfig, envPrefix, err)
	}
	if loc.Longitude, err = strconv.ParseFloat(lon, 64); err != nil {
		return LocationConfig{}, fmt.Errorf("%w: invalid %sLONGITUDE: %w", ErrInvalidConfig, envPrefix, err)
	}
	if acc := getEnv("ACCURACY", ""); acc != "" {
		if loc.Accuracy, err = strconv.ParseFloat(acc, 64); err != nil {
			return LocationConfig{}, fmt.Errorf("%w: invalid %sACCURACY: %w", ErrInvalidConfig, envPrefix, err)
		}
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s%s: %w", ErrInvalidConfig, envPrefix, key, err)
	}
	return d, nil
}

// getEnvAsList разбирает список через запятую, пустые элементы отбрасываются
func getEnvAsList(key string) []string {
	var list []string
	for item := range strings.SplitSeq(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
