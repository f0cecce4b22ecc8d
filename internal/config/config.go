package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds environment-based settings
type Config struct {
	Environment   string
	ServerAddress string
	JWTSecret     string
	DatabaseURL   string
	LogLevel      zerolog.Level

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string

	UploadDir       string
	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string

	SnapshotMaxAge  time.Duration
	RefreshInterval time.Duration
}

func (c *Config) Development() bool {
	return c.Environment == "development"
}

// Load reads a .env file when present, then configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	dbURL := getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	jwt := getenv("JWT_SECRET")
	if jwt == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Environment:   withDefault(getenv("APP_ENV"), "production"),
		ServerAddress: withDefault(getenv("SERVER_ADDRESS"), ":8080"),
		JWTSecret:     jwt,
		DatabaseURL:   dbURL,

		RedisAddress:  getenv("REDIS_ADDRESS"),
		RedisUsername: getenv("REDIS_USERNAME"),
		RedisPassword: getenv("REDIS_PASSWORD"),

		MQTTBrokerURL: getenv("MQTT_BROKER_URL"),

		UploadDir:       withDefault(getenv("UPLOAD_DIR"), "./uploads"),
		UseSpaces:       getenv("USE_SPACES") == "true",
		SpacesEndpoint:  getenv("SPACES_ENDPOINT"),
		SpacesRegion:    getenv("SPACES_REGION"),
		SpacesBucket:    getenv("SPACES_BUCKET"),
		SpacesCDNURL:    getenv("SPACES_CDN_URL"),
		SpacesAccessKey: getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: getenv("SPACES_SECRET_KEY"),
	}

	level, err := zerolog.ParseLevel(withDefault(getenv("LOG_LEVEL"), "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.SnapshotMaxAge, err = duration(getenv, "SNAPSHOT_MAX_AGE", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = duration(getenv, "REFRESH_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.UseSpaces && (cfg.SpacesBucket == "" || cfg.SpacesEndpoint == "") {
		return nil, fmt.Errorf("USE_SPACES requires SPACES_ENDPOINT and SPACES_BUCKET")
	}
	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// duration accepts Go durations ("90s") or a bare number of seconds.
func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
