package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// minimalValid returns defaults patched with the fields Validate requires.
func minimalValid() Config {
	cfg := Defaults()
	cfg.Chain.RPCURL = "https://mainnet.base.org"
	cfg.Chain.ContractAddress = "0x1234567890123456789012345678901234567890"
	cfg.Wallet.PrivateKey = "0xabc123"
	cfg.Indexer.GraphQLURL = "https://example.com/subgraph"
	return cfg
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	cfg := minimalValid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"unknown mode", "rpc_url", "wallet", "graphql_url", "redis: addr"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateRejectsEncryptedKeyWithoutPassword(t *testing.T) {
	cfg := minimalValid()
	cfg.Wallet.PrivateKey = ""
	cfg.Wallet.EncryptedKeyPath = "/secrets/key.json"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "key_password") {
		t.Errorf("expected key_password error, got %v", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "server"

[chain]
rpc_url = "https://rpc.test"
receipt_timeout = "90s"

[server]
port = 9100
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("Mode = %q, want server", cfg.Mode)
	}
	if cfg.Chain.RPCURL != "https://rpc.test" {
		t.Errorf("RPCURL = %q", cfg.Chain.RPCURL)
	}
	if cfg.Chain.ReceiptTimeout.Duration != 90*time.Second {
		t.Errorf("ReceiptTimeout = %v, want 90s", cfg.Chain.ReceiptTimeout.Duration)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Server.Port)
	}
	// Untouched defaults survive the merge.
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want default 5432", cfg.Database.Port)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`mode = "server"`), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("POLICAST_MODE", "sync")
	t.Setenv("POLICAST_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("POLICAST_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("POLICAST_SYNC_ODDS_INTERVAL", "3s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "sync" {
		t.Errorf("Mode = %q, want sync", cfg.Mode)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Sync.OddsInterval.Duration != 3*time.Second {
		t.Errorf("OddsInterval = %v, want 3s", cfg.Sync.OddsInterval.Duration)
	}
}

func TestRedactedConfigMasksSecrets(t *testing.T) {
	cfg := minimalValid()
	cfg.Wallet.PrivateKey = "0xsecret"
	cfg.Database.Password = "hunter2"
	cfg.S3.SecretKey = "verysecret"
	cfg.Notify.TelegramToken = "tok"

	out := RedactedConfig(&cfg)

	if out.Wallet.PrivateKey != "***" || out.Database.Password != "***" || out.S3.SecretKey != "***" || out.Notify.TelegramToken != "***" {
		t.Error("secrets were not redacted")
	}
	if cfg.Wallet.PrivateKey != "0xsecret" {
		t.Error("original config was mutated")
	}
	// Non-secret fields pass through.
	if out.Chain.RPCURL != cfg.Chain.RPCURL {
		t.Error("non-secret field changed")
	}
}
