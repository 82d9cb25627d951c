package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{db: db, logger: cfg.Logger}, nil
}

// StoreOpportunity journals an opportunity to PostgreSQL.
func (p *PostgresStorage) StoreOpportunity(ctx context.Context, opp *types.Opportunity) error {
	s := opp.Summary()

	query := `
		INSERT INTO arbitrage_opportunities (
			detected_at, kalshi_ticker, kalshi_title, polymarket_title,
			similarity, direction, kalshi_price, polymarket_price,
			cost, profit, roi, max_size, kalshi_url, polymarket_url
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		opp.Timestamp,
		s.KalshiTicker,
		s.KalshiTitle,
		s.PolymarketTitle,
		s.Similarity,
		s.Direction,
		s.KalshiPrice,
		s.PolymarketPrice,
		s.Cost,
		s.Profit,
		s.ROI,
		s.MaxSize,
		s.KalshiURL,
		s.PolymarketURL,
	)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	p.logger.Debug("opportunity-stored",
		zap.String("kalshi-ticker", s.KalshiTicker),
		zap.Float64("profit", s.Profit))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
