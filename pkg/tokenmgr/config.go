package tokenmgr

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// Config carries the manager settings for twelve-factor consumers. Exactly
// one durable store is picked: Redis when RedisURL is set, the token file
// when TokenFile is set, in-memory otherwise.
type Config struct {
	BaseURL        string        `env:"MEFEED_API_URL,required"`                       // Backend base URL, e.g. https://api.mefeed.app
	HTTPTimeout    time.Duration `env:"MEFEED_HTTP_TIMEOUT" envDefault:"30s"`          // Per-request timeout of the default HTTP client
	RefreshTimeout time.Duration `env:"MEFEED_REFRESH_TIMEOUT" envDefault:"10s"`       // Budget for the shared refresh call
	TokenFile      string        `env:"MEFEED_TOKEN_FILE"`                             // Path of the durable token file
	TokenFileKey   string        `env:"MEFEED_TOKEN_FILE_KEY"`                         // Base64 32-byte key; enables encryption at rest
	RedisURL       string        `env:"MEFEED_REDIS_URL"`                              // Redis connection URL for headless deployments
	RedisPrefix    string        `env:"MEFEED_REDIS_PREFIX" envDefault:"mefeed:session"` // Key namespace for the Redis store
}

var defaultEnvLoaded sync.Once

// LoadConfig populates Config from environment variables, loading a .env
// file first if one exists.
func LoadConfig() (Config, error) {
	defaultEnvLoaded.Do(func() {
		// The .env file is optional
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("tokenmgr: parse config: %w", err)
	}
	return cfg, nil
}

// NewFromConfig builds a Manager from Config. Options are applied after the
// config-derived settings, so they win on conflict.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	store, err := storeFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithRefreshTimeout(cfg.RefreshTimeout),
		WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	}
	if store != nil {
		base = append(base, WithStore(store))
	}

	return New(append(base, opts...)...)
}

func storeFromConfig(cfg Config) (Store, error) {
	switch {
	case cfg.RedisURL != "":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("tokenmgr: parse redis url: %w", err)
		}
		return NewRedisStore(redis.NewClient(opt), cfg.RedisPrefix)

	case cfg.TokenFile != "":
		var fileOpts []FileStoreOption
		if cfg.TokenFileKey != "" {
			key, err := base64.StdEncoding.DecodeString(cfg.TokenFileKey)
			if err != nil {
				return nil, fmt.Errorf("tokenmgr: decode token file key: %w", err)
			}
			fileOpts = append(fileOpts, WithEncryptionKey(key))
		}
		return NewFileStore(cfg.TokenFile, fileOpts...)

	default:
		return nil, nil
	}
}
