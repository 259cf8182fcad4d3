package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the course content core.
type Config struct {
	AppName     string
	AppEnv      string
	DatabaseURL string
	RedisURL    string
	// Courses is the raw course registry string, e.g.
	// "course:/first::ns_first, course:/:/".
	Courses string
	// DataRoot is the directory read-only course snapshots live under.
	DataRoot string
	// CanUseCache is the global feature flag for the content-store cache.
	CanUseCache bool
	CacheTTL    time.Duration
}

// Load reads configuration values from environment variables and an
// optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("WIDYA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Widya Core")
	v.SetDefault("app.env", "development")
	v.SetDefault("courses", "course:/:/")
	v.SetDefault("data.root", "data")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "5m")

	ttlString := v.GetString("cache.ttl")
	if ttlString == "" {
		ttlString = "5m"
	}
	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}

	cfg := Config{
		AppName:     v.GetString("app.name"),
		AppEnv:      v.GetString("app.env"),
		DatabaseURL: v.GetString("database.url"),
		RedisURL:    v.GetString("redis.url"),
		Courses:     v.GetString("courses"),
		DataRoot:    v.GetString("data.root"),
		CanUseCache: v.GetBool("cache.enabled"),
		CacheTTL:    ttl,
	}

	if cfg.Courses == "" {
		return Config{}, fmt.Errorf("course registry must not be empty")
	}

	return cfg, nil
}
