package types

import (
	"fmt"
	"math"
	"time"
)

// Direction identifies which venue carries the YES leg of an arbitrage.
type Direction string

const (
	DirectionKalshiYesPolyNo Direction = "YES on Kalshi + NO on Polymarket"
	DirectionPolyYesKalshiNo Direction = "YES on Polymarket + NO on Kalshi"
)

// ParseDirection converts the wire string back to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionKalshiYesPolyNo, DirectionPolyYesKalshiNo:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Opportunity is a detected arbitrage on one matched pair in one
// direction. Cost includes the worst-case settlement fee; Profit is
// 1 - Cost; MaxSize is the smaller of the two legs' depths (0 when both
// are unknown).
type Opportunity struct {
	Pair            *MatchedPair
	Direction       Direction
	Cost            float64
	Profit          float64
	ROI             float64
	MaxSize         float64
	KalshiPrice     float64 // leg price actually used on the Kalshi side
	PolymarketPrice float64 // leg price actually used on the Polymarket side
	Timestamp       time.Time
}

// OpportunitySummary is the published wire form of an Opportunity. Field
// names are an API compatibility contract; do not rename.
type OpportunitySummary struct {
	KalshiTitle     string  `json:"kalshi_title"`
	PolymarketTitle string  `json:"polymarket_title"`
	KalshiTicker    string  `json:"kalshi_ticker"`
	Similarity      float64 `json:"similarity"`
	Direction       string  `json:"direction"`
	KalshiPrice     float64 `json:"kalshi_price"`
	PolymarketPrice float64 `json:"polymarket_price"`
	Cost            float64 `json:"cost"`
	Profit          float64 `json:"profit"`
	ROI             float64 `json:"roi"`
	MaxSize         float64 `json:"max_size"`
	Timestamp       string  `json:"timestamp"`
	Expiry          *string `json:"expiry"`
	KalshiURL       string  `json:"kalshi_url"`
	PolymarketURL   string  `json:"polymarket_url"`
}

// Summary builds the published wire form.
func (o *Opportunity) Summary() OpportunitySummary {
	km := o.Pair.KalshiMarket
	pm := o.Pair.PolymarketMarket

	var expiry *string
	exp := km.Expiration
	if exp == nil {
		exp = pm.Expiration
	}
	if exp != nil {
		s := exp.UTC().Format(time.RFC3339)
		expiry = &s
	}

	return OpportunitySummary{
		KalshiTitle:     km.Title,
		PolymarketTitle: pm.Title,
		KalshiTicker:    km.Ticker,
		Similarity:      Round(o.Pair.SimilarityScore, 1),
		Direction:       string(o.Direction),
		KalshiPrice:     Round(o.KalshiPrice, 4),
		PolymarketPrice: Round(o.PolymarketPrice, 4),
		Cost:            Round(o.Cost, 4),
		Profit:          Round(o.Profit, 4),
		ROI:             Round(o.ROI, 2),
		MaxSize:         Round(o.MaxSize, 2),
		Timestamp:       o.Timestamp.UTC().Format(time.RFC3339),
		Expiry:          expiry,
		KalshiURL:       km.URL,
		PolymarketURL:   pm.URL,
	}
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
