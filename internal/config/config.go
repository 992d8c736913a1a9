package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API struct {
		BaseURL string
	}
	Storage struct {
		Path string
	}
	Probe struct {
		Interval time.Duration
	}
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. Every setting has a sane local default.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{}

	cfg.API.BaseURL = os.Getenv("API_BASE_URL")
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:5000"
	}

	cfg.Storage.Path = os.Getenv("DATA_PATH")
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "restopos.db"
	}

	cfg.Probe.Interval = 15 * time.Second
	if raw := os.Getenv("PROBE_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PROBE_INTERVAL %q: %w", raw, err)
		}
		cfg.Probe.Interval = d
	}

	return cfg, nil
}
