package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/policastlabs/policastd/internal/auth"
	s3blob "github.com/policastlabs/policastd/internal/blob/s3"
	"github.com/policastlabs/policastd/internal/cache/redis"
	"github.com/policastlabs/policastd/internal/chain"
	"github.com/policastlabs/policastd/internal/config"
	"github.com/policastlabs/policastd/internal/crypto"
	"github.com/policastlabs/policastd/internal/domain"
	"github.com/policastlabs/policastd/internal/indexer"
	"github.com/policastlabs/policastd/internal/notify"
	"github.com/policastlabs/policastd/internal/service"
	"github.com/policastlabs/policastd/internal/store/postgres"
	"github.com/policastlabs/policastd/internal/txflow"
)

// Dependencies bundles everything the application modes need to operate.
// It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Infrastructure clients, exposed for health checks.
	Chain    *chain.Client
	Postgres *postgres.Client
	Redis    *redis.Client
	S3       *s3blob.Client
	Indexer  *indexer.Client

	// Stores
	MarketStore   domain.MarketStore
	PositionStore domain.PositionStore
	TradeStore    domain.TradeStore

	// Caches and messaging
	MarketCache domain.MarketCache
	OddsCache   domain.OddsCache
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Auth and notifications
	Roles    *auth.RoleSet
	Notifier *notify.Notifier

	// Transaction pipeline
	Sequencer *txflow.Sequencer

	// Services
	Markets     *service.MarketService
	Trades      *service.TradeService
	Liquidity   *service.LiquidityService
	Portfolios  *service.PortfolioService
	Leaderboard *service.LeaderboardService
	Admin       *service.AdminService
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Operator key ---
	key, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: operator key: %w", err)
	}

	// --- Chain client ---
	chainClient, err := chain.New(ctx, chain.ClientConfig{
		RPCURL:          cfg.Chain.RPCURL,
		ChainID:         cfg.Chain.ChainID,
		ContractAddress: cfg.Chain.ContractAddress,
		PrivateKeyHex:   key,
		GasLimit:        cfg.Chain.GasLimit,
		ReceiptInterval: cfg.Chain.ReceiptInterval.Duration,
		ReceiptTimeout:  cfg.Chain.ReceiptTimeout.Duration,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: chain: %w", err)
	}
	closers = append(closers, chainClient.Close)
	deps.Chain = chainClient

	// --- Transaction sequencer ---
	token, err := chainClient.BettingToken(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: betting token: %w", err)
	}
	deps.Sequencer = txflow.New(chainClient, txflow.Config{
		Token:                 token,
		Owner:                 chainClient.Operator(),
		AllowancePollInterval: cfg.Chain.AllowancePollInterval.Duration,
		AllowanceDeadline:     cfg.Chain.AllowanceDeadline.Duration,
	}, logger)

	// --- Indexer ---
	deps.Indexer = indexer.NewClient(cfg.Indexer.GraphQLURL, cfg.Indexer.APIKey)

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)
	deps.Postgres = pgClient

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.PositionStore = postgres.NewPositionStore(pool)
	deps.TradeStore = postgres.NewTradeStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })
	deps.Redis = redisClient

	deps.MarketCache = redis.NewMarketCache(redisClient)
	deps.OddsCache = redis.NewOddsCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 blob storage ---
	s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
		Endpoint:       cfg.S3.Endpoint,
		Region:         cfg.S3.Region,
		Bucket:         cfg.S3.Bucket,
		AccessKey:      cfg.S3.AccessKey,
		SecretKey:      cfg.S3.SecretKey,
		UseSSL:         cfg.S3.UseSSL,
		ForcePathStyle: cfg.S3.ForcePathStyle,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: s3: %w", err)
	}
	closers = append(closers, func() { _ = s3Client.Close() })
	deps.S3 = s3Client

	deps.BlobWriter = s3blob.NewWriter(s3Client)
	deps.BlobReader = s3blob.NewReader(s3Client)
	deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.TradeStore)

	// --- Auth ---
	deps.Roles = auth.NewRoleSet(auth.Roles{
		Admins:     cfg.Roles.Admins,
		Creators:   cfg.Roles.Creators,
		Validators: cfg.Roles.Validators,
		Resolvers:  cfg.Roles.Resolvers,
	})

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Services ---
	deps.Markets = service.NewMarketService(deps.MarketStore, deps.MarketCache, deps.OddsCache, chainClient, logger)
	deps.Trades = service.NewTradeService(chainClient, deps.Sequencer, deps.MarketStore, deps.TradeStore, deps.SignalBus, deps.Notifier, logger)
	deps.Liquidity = service.NewLiquidityService(chainClient, deps.Sequencer, deps.MarketStore, logger)
	deps.Portfolios = service.NewPortfolioService(chainClient, deps.Indexer, deps.PositionStore, deps.MarketStore, deps.OddsCache, logger)
	deps.Leaderboard = service.NewLeaderboardService(deps.TradeStore, chainClient, logger)
	deps.Admin = service.NewAdminService(chainClient, deps.Sequencer, deps.Roles, deps.MarketStore, deps.MarketCache, deps.OddsCache, deps.Archiver, deps.Notifier, logger)

	return deps, cleanup, nil
}
