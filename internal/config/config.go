package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	SegmenterURL   string        `env:"SEGMENTER_URL" envDefault:"http://localhost:8501"`
	AnnotatorURL   string        `env:"ANNOTATOR_URL" envDefault:"http://localhost:8502"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10m"`
	Concurrency    int           `env:"CONCURRENCY" envDefault:"1"`
	Ledger         bool          `env:"LEDGER" envDefault:"true"`
}

func Load() (*Config, error) {
	// Load .env if present, useful for local development.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, continuing with environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.Concurrency < 1 {
		slog.Warn("invalid CONCURRENCY, using 1", "value", cfg.Concurrency)
		cfg.Concurrency = 1
	}
	return &cfg, nil
}
