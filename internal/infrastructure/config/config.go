package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// ErrMissingCredentials means the feed API credentials are incomplete.
var ErrMissingCredentials = errors.New("missing feed credentials")

// Config holds all application configuration.
type Config struct {
	// Teller API
	TellerBaseURL     string        `env:"TELLER_BASE_URL"     envDefault:"https://api.teller.io"`
	TellerCertFile    string        `env:"TELLER_CERT_FILE"    envDefault:""`
	TellerKeyFile     string        `env:"TELLER_KEY_FILE"     envDefault:""`
	TellerAccessToken string        `env:"TELLER_ACCESS_TOKEN" envDefault:""`
	TellerTimeout     time.Duration `env:"TELLER_TIMEOUT"      envDefault:"30s"`
	TellerMaxRetries  int           `env:"TELLER_MAX_RETRIES"  envDefault:"3"`

	// Data
	DataDir           string            `env:"BANKFEED_DATA_DIR"           envDefault:"./data"`
	LedgerFile        string            `env:"BANKFEED_LEDGER_FILE"        envDefault:"./ledger.jsonl"`
	UnassignedAccount string            `env:"BANKFEED_UNASSIGNED_ACCOUNT" envDefault:"Expenses:Unassigned"`
	Accounts          map[string]string `env:"BANKFEED_ACCOUNTS"           envSeparator:"," envKeyValSeparator:"="`
	MaxDateDelta      time.Duration     `env:"BANKFEED_MAX_DATE_DELTA"     envDefault:"72h"`

	// HTTP Server
	ServerAddr            string        `env:"SERVER_ADDR"             envDefault:":8080"`
	ServerReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT"     envDefault:"30s"`
	ServerWriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT"    envDefault:"30s"`
	ServerIdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT"     envDefault:"60s"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ServerRateLimit       float64       `env:"SERVER_RATE_LIMIT"       envDefault:"0"`
	ServerRateBurst       int           `env:"SERVER_RATE_BURST"       envDefault:"20"`
	SyncInterval          time.Duration `env:"SYNC_INTERVAL"           envDefault:"0"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateFeed checks that everything needed to reach the feed API is set.
func (c *Config) ValidateFeed() error {
	switch {
	case c.TellerCertFile == "":
		return fmt.Errorf("%w: TELLER_CERT_FILE", ErrMissingCredentials)
	case c.TellerKeyFile == "":
		return fmt.Errorf("%w: TELLER_KEY_FILE", ErrMissingCredentials)
	case c.TellerAccessToken == "":
		return fmt.Errorf("%w: TELLER_ACCESS_TOKEN", ErrMissingCredentials)
	}

	return nil
}

// DateGate returns the duplicate detector's date gate, nil when disabled.
func (c *Config) DateGate() *time.Duration {
	if c.MaxDateDelta <= 0 {
		return nil
	}

	delta := c.MaxDateDelta
	return &delta
}
