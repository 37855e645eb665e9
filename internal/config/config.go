package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMemory = "memory"
	DriverMySQL  = "mysql"
)

// Config is loaded from environment variables, 12-factor style.
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"snackend"`
	Env         string `envconfig:"ENV" default:"dev"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	DB struct {
		Driver string `envconfig:"DB_DRIVER" default:"memory"`
		DSN    string `envconfig:"DB_DSN"`
	}

	Stock struct {
		// pessimistic or optimistic; the orchestrator is agnostic to which.
		LockMode string `envconfig:"STOCK_LOCK_MODE" default:"pessimistic"`
	}

	Gateway struct {
		// Empty URL switches to the simulated gateway (demo/dev only).
		URL         string        `envconfig:"GATEWAY_URL"`
		Timeout     time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"5s"`
		SuccessRate float64       `envconfig:"GATEWAY_SUCCESS_RATE" default:"1.0"`
	}

	Auth struct {
		// token:buyer pairs, e.g. "t-alice:buyer-1,t-bob:buyer-2".
		Tokens map[string]string `envconfig:"AUTH_TOKENS"`
	}

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverMemory:
	case DriverMySQL:
		if c.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required for the mysql driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (must be memory or mysql)", c.DB.Driver)
	}

	switch c.Stock.LockMode {
	case "pessimistic", "optimistic":
	default:
		return fmt.Errorf("unknown STOCK_LOCK_MODE %q (must be pessimistic or optimistic)", c.Stock.LockMode)
	}

	if c.Gateway.SuccessRate < 0 || c.Gateway.SuccessRate > 1 {
		return fmt.Errorf("GATEWAY_SUCCESS_RATE must be within [0, 1]")
	}
	return nil
}
