package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config carries everything the pricing service reads from the environment.
// A .env file in the working directory is honored when present.
type Config struct {
	PriceCharting PriceCharting
	Cache         Cache
	Refresh       Refresh

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type PriceCharting struct {
	APIKey            string        `env:"PRICECHARTING_API_KEY"`
	BaseURL           string        `env:"PRICECHARTING_BASE_URL"`
	MaxRetries        int           `env:"PRICECHARTING_MAX_RETRIES" envDefault:"2"`
	AttemptTimeout    time.Duration `env:"PRICECHARTING_TIMEOUT" envDefault:"15s"`
	RequestsPerSecond float64       `env:"PRICECHARTING_RPS" envDefault:"2"`
}

type Cache struct {
	Path string        `env:"LORCANA_CACHE_PATH" envDefault:"data/lorcana-prices.json"`
	TTL  time.Duration `env:"LORCANA_CACHE_TTL" envDefault:"168h"` // one week
}

type Refresh struct {
	// Cron schedule for the background price refresh sweep.
	Schedule string `env:"LORCANA_REFRESH_SCHEDULE" envDefault:"0 3 * * *"`
	Enabled  bool   `env:"LORCANA_REFRESH_ENABLED" envDefault:"false"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config
	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	return config, nil
}
