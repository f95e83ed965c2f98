package research

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls pacing and retry behavior for a run.
type Config struct {
	// CallDelay is the fixed pause between successful work units, a
	// courtesy to the external API's rate limits.
	CallDelay time.Duration
	// TestLimit caps the number of work units processed when a request
	// asks for testing mode.
	TestLimit int

	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

const (
	defaultCallDelay = 3 * time.Second
	defaultTestLimit = 5
)

// LoadConfig reads runner settings from MRS_* environment variables,
// falling back to defaults for anything unset.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if delay := strings.TrimSpace(os.Getenv("MRS_CALL_DELAY")); delay != "" {
		parsed, err := time.ParseDuration(delay)
		if err != nil {
			return Config{}, fmt.Errorf("parse MRS_CALL_DELAY: %w", err)
		}
		cfg.CallDelay = parsed
	}
	if limit := strings.TrimSpace(os.Getenv("MRS_TEST_LIMIT")); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil {
			return Config{}, fmt.Errorf("parse MRS_TEST_LIMIT: %w", err)
		}
		if value > 0 {
			cfg.TestLimit = value
		}
	}
	if retries := strings.TrimSpace(os.Getenv("MRS_MAX_RETRIES")); retries != "" {
		value, err := strconv.Atoi(retries)
		if err != nil {
			return Config{}, fmt.Errorf("parse MRS_MAX_RETRIES: %w", err)
		}
		if value > 0 {
			cfg.MaxRetries = value
		}
	}
	if backoff := strings.TrimSpace(os.Getenv("MRS_BASE_BACKOFF")); backoff != "" {
		parsed, err := time.ParseDuration(backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse MRS_BASE_BACKOFF: %w", err)
		}
		cfg.BaseBackoff = parsed
	}
	if backoff := strings.TrimSpace(os.Getenv("MRS_MAX_BACKOFF")); backoff != "" {
		parsed, err := time.ParseDuration(backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse MRS_MAX_BACKOFF: %w", err)
		}
		cfg.MaxBackoff = parsed
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.CallDelay < 0 {
		c.CallDelay = 0
	} else if c.CallDelay == 0 {
		c.CallDelay = defaultCallDelay
	}
	if c.TestLimit <= 0 {
		c.TestLimit = defaultTestLimit
	}
}
