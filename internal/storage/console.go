package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

const rule = "────────────────────────────────────────────────────────────────────────"

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{logger: logger}
}

// StoreOpportunity pretty-prints a detected opportunity to console.
func (c *ConsoleStorage) StoreOpportunity(_ context.Context, opp *types.Opportunity) error {
	s := opp.Summary()

	fmt.Println("\n" + rule)
	fmt.Println("CROSS-VENUE ARBITRAGE DETECTED")
	fmt.Println(rule)
	fmt.Printf("Kalshi:     %s (%s)\n", s.KalshiTitle, s.KalshiTicker)
	fmt.Printf("Polymarket: %s\n", s.PolymarketTitle)
	fmt.Printf("Similarity: %.1f%%\n", s.Similarity)
	fmt.Printf("Direction:  %s\n", s.Direction)
	fmt.Println(rule)
	fmt.Printf("  Kalshi leg:      %.4f\n", s.KalshiPrice)
	fmt.Printf("  Polymarket leg:  %.4f\n", s.PolymarketPrice)
	fmt.Printf("  Total cost:      %.4f (worst-case fees included)\n", s.Cost)
	fmt.Printf("  Profit:          $%.4f per contract\n", s.Profit)
	fmt.Printf("  ROI:             %.2f%%\n", s.ROI)
	fmt.Printf("  Max size:        %.2f\n", s.MaxSize)
	fmt.Println(rule)

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
