package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/internal/arbitrage"
	"github.com/dpereira/kalshi-poly-arb/internal/execution"
	"github.com/dpereira/kalshi-poly-arb/internal/matching"
	"github.com/dpereira/kalshi-poly-arb/internal/scanner"
	"github.com/dpereira/kalshi-poly-arb/internal/storage"
	"github.com/dpereira/kalshi-poly-arb/internal/venues/kalshi"
	"github.com/dpereira/kalshi-poly-arb/internal/venues/polymarket"
	"github.com/dpereira/kalshi-poly-arb/pkg/cache"
	"github.com/dpereira/kalshi-poly-arb/pkg/config"
	"github.com/dpereira/kalshi-poly-arb/pkg/healthprobe"
	"github.com/dpereira/kalshi-poly-arb/pkg/httpserver"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	matchCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	matcher := setupMatcher(cfg, logger, matchCache)
	kalshiClient := setupKalshiClient(cfg, logger)
	polyClient := setupPolymarketClient(cfg, logger)
	detector := setupDetector(cfg, logger)

	arbStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	executor, err := setupExecutor(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup executor: %w", err)
	}

	scan := scanner.New(&scanner.Config{
		Kalshi:         kalshiClient,
		Polymarket:     polyClient,
		Matcher:        matcher,
		Detector:       detector,
		Executor:       executor,
		Storage:        arbStorage,
		ScanInterval:   cfg.ScanInterval,
		MinProfitCents: cfg.MinProfitCents,
		Logger:         logger,
	})

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Scanner:       scan,
		Executions:    executor,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		scanner:       scan,
		executor:      executor,
		storage:       arbStorage,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100000, // 10x expected max entries (one per Kalshi market)
		MaxCost:     10000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupMatcher(cfg *config.Config, logger *zap.Logger, matchCache cache.Cache) *matching.Matcher {
	return matching.New(&matching.Config{
		Threshold:     float64(cfg.MatchThreshold),
		OverridesPath: cfg.OverridesPath,
		Cache:         matchCache,
		Logger:        logger,
	})
}

func setupKalshiClient(cfg *config.Config, logger *zap.Logger) *kalshi.Client {
	return kalshi.New(&kalshi.Config{
		BaseURL:    cfg.KalshiAPIURL,
		MaxRPS:     cfg.KalshiMaxRPS,
		MaxMarkets: cfg.MaxKalshiMarkets,
		Logger:     logger,
	})
}

func setupPolymarketClient(cfg *config.Config, logger *zap.Logger) *polymarket.Client {
	return polymarket.New(&polymarket.Config{
		GammaURL:   cfg.PolymarketGammaURL,
		ClobURL:    cfg.PolymarketClobURL,
		MaxRPS:     cfg.PolymarketMaxRPS,
		MaxMarkets: cfg.MaxPolymarketMarkets,
		Logger:     logger,
	})
}

func setupDetector(cfg *config.Config, logger *zap.Logger) *arbitrage.Detector {
	return arbitrage.New(&arbitrage.Config{
		KalshiFeeRate:     cfg.KalshiFeeRate,
		PolymarketFeeRate: cfg.PolymarketFeeRate,
		Logger:            logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupExecutor(cfg *config.Config, logger *zap.Logger) (*execution.Executor, error) {
	var orderClient *execution.OrderClient
	if cfg.PolymarketPK != "" {
		client, err := execution.NewOrderClient(&execution.OrderClientConfig{
			ClobURL:    cfg.PolymarketClobURL,
			APIKey:     cfg.PolymarketAPIKey,
			Secret:     cfg.PolymarketSecret,
			Passphrase: cfg.PolymarketPass,
			PrivateKey: cfg.PolymarketPK,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create order client: %w", err)
		}
		orderClient = client
	} else {
		logger.Info("polymarket-leg-dry-run",
			zap.String("reason", "POLYMARKET_PRIVATE_KEY not set, orders will be logged only"))
	}

	return execution.New(&execution.Config{
		Enabled:         cfg.AutoExecute,
		MaxPositionUSD:  cfg.MaxPositionUSD,
		MaxDailyLossUSD: cfg.MaxDailyLossUSD,
		MinProfitCents:  cfg.MinProfitCents,
		Cooldown:        time.Duration(cfg.CooldownSeconds * float64(time.Second)),
		Kalshi:          execution.NewKalshiLeg(cfg.KalshiAPIKeyID, logger),
		Polymarket:      execution.NewPolymarketLeg(orderClient, logger),
		Logger:          logger,
	}), nil
}
