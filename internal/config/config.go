package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	DatabaseURL string `env:"DATABASE_URL"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	NominatimURL       string `env:"NOMINATIM_URL" envDefault:"https://nominatim.openstreetmap.org"`
	NominatimUserAgent string `env:"NOMINATIM_USER_AGENT" envDefault:"jetlagged-server/1.0"`

	LocatorTimeout time.Duration `env:"LOCATOR_TIMEOUT" envDefault:"10s"`
	TickInterval   time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	LetterChance   float64       `env:"LETTER_CHANCE" envDefault:"0.3"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: PORT %d out of range", ErrInvalidConfig, c.Port)
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: TICK_INTERVAL must be positive", ErrInvalidConfig)
	case c.LocatorTimeout <= 0:
		return fmt.Errorf("%w: LOCATOR_TIMEOUT must be positive", ErrInvalidConfig)
	case c.LetterChance < 0 || c.LetterChance > 1:
		return fmt.Errorf("%w: LETTER_CHANCE must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// AIEnabled reports whether an OpenAI-compatible key was configured.
func (c Config) AIEnabled() bool {
	return c.OpenAIKey != ""
}
