package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLICAST_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLICAST_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "POLICAST_CHAIN_RPC_URL")
	setInt64(&cfg.Chain.ChainID, "POLICAST_CHAIN_ID")
	setStr(&cfg.Chain.ContractAddress, "POLICAST_CHAIN_CONTRACT_ADDRESS")
	setUint64(&cfg.Chain.GasLimit, "POLICAST_CHAIN_GAS_LIMIT")
	setDuration(&cfg.Chain.ReceiptInterval, "POLICAST_CHAIN_RECEIPT_INTERVAL")
	setDuration(&cfg.Chain.ReceiptTimeout, "POLICAST_CHAIN_RECEIPT_TIMEOUT")
	setDuration(&cfg.Chain.AllowancePollInterval, "POLICAST_CHAIN_ALLOWANCE_POLL_INTERVAL")
	setDuration(&cfg.Chain.AllowanceDeadline, "POLICAST_CHAIN_ALLOWANCE_DEADLINE")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "POLICAST_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "POLICAST_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "POLICAST_WALLET_KEY_PASSWORD")

	// ── Indexer ──
	setStr(&cfg.Indexer.GraphQLURL, "POLICAST_INDEXER_GRAPHQL_URL")
	setStr(&cfg.Indexer.APIKey, "POLICAST_INDEXER_API_KEY")

	// ── Database ──
	setStr(&cfg.Database.DSN, "POLICAST_DATABASE_DSN")
	setStr(&cfg.Database.Host, "POLICAST_DATABASE_HOST")
	setInt(&cfg.Database.Port, "POLICAST_DATABASE_PORT")
	setStr(&cfg.Database.Database, "POLICAST_DATABASE_NAME")
	setStr(&cfg.Database.User, "POLICAST_DATABASE_USER")
	setStr(&cfg.Database.Password, "POLICAST_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "POLICAST_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "POLICAST_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "POLICAST_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "POLICAST_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "POLICAST_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLICAST_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLICAST_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLICAST_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLICAST_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLICAST_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "POLICAST_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLICAST_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLICAST_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLICAST_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLICAST_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLICAST_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLICAST_S3_FORCE_PATH_STYLE")

	// ── Sync ──
	setBool(&cfg.Sync.Enabled, "POLICAST_SYNC_ENABLED")
	setDuration(&cfg.Sync.MarketInterval, "POLICAST_SYNC_MARKET_INTERVAL")
	setDuration(&cfg.Sync.OddsInterval, "POLICAST_SYNC_ODDS_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "POLICAST_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "POLICAST_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "POLICAST_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "POLICAST_SERVER_API_KEY")
	setInt(&cfg.Server.TradeRateLimit, "POLICAST_SERVER_TRADE_RATE_LIMIT")
	setDuration(&cfg.Server.TradeRateWindow, "POLICAST_SERVER_TRADE_RATE_WINDOW")

	// ── Roles ──
	setStringSlice(&cfg.Roles.Admins, "POLICAST_ROLES_ADMINS")
	setStringSlice(&cfg.Roles.Creators, "POLICAST_ROLES_CREATORS")
	setStringSlice(&cfg.Roles.Validators, "POLICAST_ROLES_VALIDATORS")
	setStringSlice(&cfg.Roles.Resolvers, "POLICAST_ROLES_RESOLVERS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLICAST_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLICAST_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLICAST_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLICAST_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLICAST_MODE")
	setStr(&cfg.LogLevel, "POLICAST_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
