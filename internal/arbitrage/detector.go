// Package arbitrage detects riskless two-leg positions across matched
// market pairs.
package arbitrage

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

// Detector scans matched pairs for arbitrage in both directions.
type Detector struct {
	logger            *zap.Logger
	kalshiFeeRate     float64
	polymarketFeeRate float64
}

// Config holds detector configuration. Fee rates are the venues'
// settlement fee on winning-leg profit.
type Config struct {
	KalshiFeeRate     float64
	PolymarketFeeRate float64
	Logger            *zap.Logger
}

// New creates a new detector.
func New(cfg *Config) *Detector {
	return &Detector{
		logger:            cfg.Logger,
		kalshiFeeRate:     cfg.KalshiFeeRate,
		polymarketFeeRate: cfg.PolymarketFeeRate,
	}
}

// effectiveCost prices the full position including the worst-case
// settlement fee. Exactly one leg pays $1 at resolution and the fee is
// charged on that leg's profit, so the worst case is whichever leg fees
// higher if it wins.
func effectiveCost(yesPrice, noPrice, yesFeeRate, noFeeRate float64) float64 {
	feeIfYesWins := math.Max(0, 1.0-yesPrice) * yesFeeRate
	feeIfNoWins := math.Max(0, 1.0-noPrice) * noFeeRate
	return yesPrice + noPrice + math.Max(feeIfYesWins, feeIfNoWins)
}

// legPrice returns what the leg would actually cost: the ask when the
// book has one, the mid price otherwise.
func legPrice(ask, mid float64) float64 {
	if ask > 0 {
		return ask
	}
	return mid
}

// Detect scans every matched pair in both directions and returns the
// opportunities clearing minProfitCents, sorted by ROI descending. A
// profit exactly at the floor is emitted.
func (d *Detector) Detect(pairs []*types.MatchedPair, minProfitCents float64) []*types.Opportunity {
	minProfit := minProfitCents / 100.0
	var opportunities []*types.Opportunity

	for _, pair := range pairs {
		ko := pair.KalshiOutcome
		po := pair.PolymarketOutcome
		if ko == nil || po == nil {
			continue
		}

		if opp := d.checkDirection(pair, types.DirectionKalshiYesPolyNo, ko, po,
			d.kalshiFeeRate, d.polymarketFeeRate, minProfit); opp != nil {
			opportunities = append(opportunities, opp)
		}
		if opp := d.checkDirection(pair, types.DirectionPolyYesKalshiNo, po, ko,
			d.polymarketFeeRate, d.kalshiFeeRate, minProfit); opp != nil {
			opportunities = append(opportunities, opp)
		}
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].ROI > opportunities[j].ROI
	})

	OpportunitiesFound.Set(float64(len(opportunities)))
	if len(opportunities) > 0 {
		top := opportunities[0]
		d.logger.Info("opportunities-detected",
			zap.Int("count", len(opportunities)),
			zap.Float64("top_roi", top.ROI),
			zap.Float64("top_profit", top.Profit),
			zap.String("top_kalshi", top.Pair.KalshiMarket.Ticker))
	}

	return opportunities
}

// checkDirection prices one direction of one pair. yesOutcome is the
// outcome whose YES side is bought, noOutcome the one whose NO side is
// bought.
func (d *Detector) checkDirection(
	pair *types.MatchedPair,
	direction types.Direction,
	yesOutcome, noOutcome *types.Outcome,
	yesFeeRate, noFeeRate, minProfit float64,
) *types.Opportunity {
	yesPrice := legPrice(yesOutcome.YesAsk, yesOutcome.YesPrice)
	noPrice := legPrice(noOutcome.NoAsk, noOutcome.NoPrice)
	if yesPrice <= 0 || noPrice <= 0 {
		return nil
	}

	cost := effectiveCost(yesPrice, noPrice, yesFeeRate, noFeeRate)
	profit := 1.0 - cost
	if profit < minProfit {
		return nil
	}

	roi := 0.0
	if cost > 0 {
		roi = profit / cost * 100.0
	}

	maxSize := minDepth(yesOutcome.YesDepth, noOutcome.NoDepth)

	kalshiPrice := yesPrice
	polymarketPrice := noPrice
	if direction == types.DirectionPolyYesKalshiNo {
		kalshiPrice = noPrice
		polymarketPrice = yesPrice
	}

	return &types.Opportunity{
		Pair:            pair,
		Direction:       direction,
		Cost:            types.Round(cost, 4),
		Profit:          types.Round(profit, 4),
		ROI:             types.Round(roi, 2),
		MaxSize:         types.Round(maxSize, 2),
		KalshiPrice:     kalshiPrice,
		PolymarketPrice: polymarketPrice,
		Timestamp:       time.Now().UTC(),
	}
}

// minDepth takes the smaller of the two legs' depths. A missing depth
// does not constrain the position; if both are missing the size is
// unknown and reported as 0.
func minDepth(yesDepth, noDepth float64) float64 {
	a := yesDepth
	if a <= 0 {
		a = math.Inf(1)
	}
	b := noDepth
	if b <= 0 {
		b = math.Inf(1)
	}
	m := math.Min(a, b)
	if math.IsInf(m, 1) {
		return 0
	}
	return m
}
