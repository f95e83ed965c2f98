package research

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"MRS_CALL_DELAY", "MRS_TEST_LIMIT", "MRS_MAX_RETRIES", "MRS_BASE_BACKOFF", "MRS_MAX_BACKOFF"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.CallDelay != 3*time.Second {
		t.Fatalf("unexpected default call delay: %v", cfg.CallDelay)
	}
	if cfg.TestLimit != 5 {
		t.Fatalf("unexpected default test limit: %d", cfg.TestLimit)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("MRS_CALL_DELAY", "250ms")
	t.Setenv("MRS_TEST_LIMIT", "2")
	t.Setenv("MRS_MAX_RETRIES", "5")
	t.Setenv("MRS_BASE_BACKOFF", "1s")
	t.Setenv("MRS_MAX_BACKOFF", "10s")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.CallDelay != 250*time.Millisecond || cfg.TestLimit != 2 {
		t.Fatalf("pacing not read from env: %+v", cfg)
	}
	if cfg.MaxRetries != 5 || cfg.BaseBackoff != time.Second || cfg.MaxBackoff != 10*time.Second {
		t.Fatalf("retry policy not read from env: %+v", cfg)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("MRS_CALL_DELAY", "soon")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unparseable delay")
	}
	t.Setenv("MRS_CALL_DELAY", "")
	t.Setenv("MRS_TEST_LIMIT", "many")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unparseable limit")
	}
}
