package config

import (
	"os"
	"testing"
)

func withEnv(t *testing.T, kv map[string]string, fn func()) {
	t.Helper()
	for k, v := range kv {
		old, existed := os.LookupEnv(k)
		os.Setenv(k, v)
		defer func(k, old string, existed bool) {
			if existed {
				os.Setenv(k, old)
			} else {
				os.Unsetenv(k)
			}
		}(k, old, existed)
	}
	fn()
}

func TestLoad_Defaults(t *testing.T) {
	withEnv(t, map[string]string{}, func() {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MerkleBatchMode != "oldest" {
			t.Errorf("expected default batch mode 'oldest', got %q", cfg.MerkleBatchMode)
		}
		if cfg.MaxRevisions != 3 {
			t.Errorf("expected default MaxRevisions=3, got %d", cfg.MaxRevisions)
		}
		if cfg.SafeLagBlocks != 12 {
			t.Errorf("expected SafeLagBlocks=12, got %d", cfg.SafeLagBlocks)
		}
	})
}

func TestValidate_RequiresDatabaseURL(t *testing.T) {
	cfg := &Config{MerkleBatchMode: "oldest", MaxRevisions: 3}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when DB_URL is unset")
	}
}

func TestValidate_RequiresEtherscanFieldsWhenRemote(t *testing.T) {
	cfg := &Config{
		DatabaseURL:     "postgres://localhost/kwon",
		UseLocalSource:  false,
		MerkleBatchMode: "oldest",
		MaxRevisions:    3,
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error when etherscan fields are unset in remote mode")
	}
}

func TestValidate_RejectsUnknownBatchMode(t *testing.T) {
	cfg := &Config{
		DatabaseURL:      "postgres://localhost/kwon",
		UseLocalSource:   true,
		LocalAPIBase:     "http://localhost:9000",
		MerkleBatchMode:  "newest",
		MaxRevisions:     3,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown batch mode")
	}
}
