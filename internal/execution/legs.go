package execution

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

// KalshiLeg places orders on Kalshi. Order submission requires API
// credentials; without them every call is a logged dry run.
//
// TODO: wire real order placement once the Kalshi trade API signing
// scheme (RSA-PSS over timestamp+method+path) is implemented.
type KalshiLeg struct {
	apiKeyID string
	logger   *zap.Logger
}

// NewKalshiLeg creates the Kalshi leg executor.
func NewKalshiLeg(apiKeyID string, logger *zap.Logger) *KalshiLeg {
	return &KalshiLeg{apiKeyID: apiKeyID, logger: logger}
}

func (l *KalshiLeg) buy(opp *types.Opportunity, side string, size float64) error {
	l.logger.Info("kalshi-leg-order",
		zap.String("side", side),
		zap.String("ticker", opp.Pair.KalshiMarket.Ticker),
		zap.Float64("price", opp.KalshiPrice),
		zap.Float64("size", size))

	if l.apiKeyID == "" {
		l.logger.Warn("kalshi-leg-dry-run", zap.String("reason", "no api key configured"))
	}
	return nil
}

// BuyYes places a YES buy order on Kalshi.
func (l *KalshiLeg) BuyYes(_ context.Context, opp *types.Opportunity, size float64) error {
	return l.buy(opp, "yes", size)
}

// BuyNo places a NO buy order on Kalshi.
func (l *KalshiLeg) BuyNo(_ context.Context, opp *types.Opportunity, size float64) error {
	return l.buy(opp, "no", size)
}

// PolymarketLeg places orders on the Polymarket CLOB through an
// OrderClient. A nil client means no signing credentials; calls then
// log and return without trading.
type PolymarketLeg struct {
	orders *OrderClient
	logger *zap.Logger
}

// NewPolymarketLeg creates the Polymarket leg executor. orders may be
// nil for dry-run operation.
func NewPolymarketLeg(orders *OrderClient, logger *zap.Logger) *PolymarketLeg {
	return &PolymarketLeg{orders: orders, logger: logger}
}

// BuyYes buys the YES outcome token.
func (l *PolymarketLeg) BuyYes(ctx context.Context, opp *types.Opportunity, size float64) error {
	if opp.Pair.PolymarketOutcome == nil {
		return fmt.Errorf("no polymarket outcome on pair")
	}
	return l.place(ctx, opp.Pair.PolymarketOutcome.TokenID, "yes", opp.PolymarketPrice, size)
}

// BuyNo buys the NO side. On Polymarket that is the second outcome
// token of a binary market; markets with any other outcome count fall
// back to the matched outcome's own token.
func (l *PolymarketLeg) BuyNo(ctx context.Context, opp *types.Opportunity, size float64) error {
	pm := opp.Pair.PolymarketMarket
	tokenID := ""
	switch {
	case len(pm.Outcomes) == 2:
		tokenID = pm.Outcomes[1].TokenID
	case opp.Pair.PolymarketOutcome != nil:
		tokenID = opp.Pair.PolymarketOutcome.TokenID
	}
	if tokenID == "" {
		return fmt.Errorf("no NO-side token for market %s", pm.ID)
	}
	return l.place(ctx, tokenID, "no", opp.PolymarketPrice, size)
}

func (l *PolymarketLeg) place(ctx context.Context, tokenID, side string, price, size float64) error {
	l.logger.Info("polymarket-leg-order",
		zap.String("side", side),
		zap.String("token", shortToken(tokenID)),
		zap.Float64("price", price),
		zap.Float64("size", size))

	if l.orders == nil {
		l.logger.Warn("polymarket-leg-dry-run", zap.String("reason", "no private key configured"))
		return nil
	}

	resp, err := l.orders.PlaceOrder(ctx, tokenID, price, size)
	if err != nil {
		return fmt.Errorf("place %s order: %w", side, err)
	}
	l.logger.Info("polymarket-order-placed",
		zap.String("order_id", resp.OrderID),
		zap.String("status", resp.Status))
	return nil
}

func shortToken(tokenID string) string {
	if len(tokenID) > 16 {
		return tokenID[:16]
	}
	return tokenID
}
