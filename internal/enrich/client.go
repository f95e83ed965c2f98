// Package enrich wraps single text-completion calls with retry, backoff, and
// reference extraction. A failed call is converted into a content value
// rather than an error so one bad question never stops a batch.
package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/minhvu-dev/marketscribe/internal/common"
	"github.com/minhvu-dev/marketscribe/internal/llm"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 5 * time.Second
	defaultMaxDelay   = 60 * time.Second

	emptyResponseContent = "Không có nội dung trong phản hồi API"
)

// Config controls the retry policy of a Client.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
}

// Client issues completion calls against a provider. It is stateless per
// call but feeds every successful response through the run's ReferenceTally.
type Client struct {
	provider   llm.Provider
	tally      *ReferenceTally
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration

	sleep func(time.Duration)
}

// NewClient builds a Client around a provider and the run's tally. A nil
// tally disables reference tracking.
func NewClient(provider llm.Provider, tally *ReferenceTally, cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		provider:   provider,
		tally:      tally,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
		sleep:      time.Sleep,
	}
}

// Complete sends one prompt and returns the response text. Rate-limit
// failures are retried with exponential backoff up to the configured maximum;
// any other failure, or exhausted retries, is embedded in the returned
// content as an error string. Complete never returns an error to the caller.
func (c *Client) Complete(ctx context.Context, prompt string) string {
	logger := common.Logger()
	for attempt := 0; ; attempt++ {
		content, err := c.provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
		if err == nil {
			if content == "" {
				return emptyResponseContent
			}
			if c.tally != nil {
				c.tally.Observe(content)
			}
			return content
		}
		if !llm.IsRateLimit(err) {
			logger.Error("enrich: completion failed", "error", err)
			return fmt.Sprintf("API Error: %v", err)
		}
		if attempt >= c.maxRetries {
			logger.Error("enrich: rate limit retries exhausted", "retries", c.maxRetries, "error", err)
			return fmt.Sprintf("Rate limit error after %d retries: %v", c.maxRetries, err)
		}
		wait := c.backoff(attempt)
		logger.Warn("enrich: rate limit hit, backing off",
			"wait", wait, "attempt", attempt+1, "max_retries", c.maxRetries)
		c.sleep(wait)
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	wait := c.baseDelay << uint(attempt)
	if wait > c.maxDelay || wait <= 0 {
		wait = c.maxDelay
	}
	return wait
}
