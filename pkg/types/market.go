package types

import (
	"time"
)

// Venue identifies which platform a market belongs to.
type Venue string

const (
	VenueKalshi     Venue = "kalshi"
	VenuePolymarket Venue = "polymarket"
)

// Outcome is one side of a binary market. All prices are normalized to
// the 0-1 range before storage; cents inputs are divided by 100 at parse
// time. Missing fields stay 0, never negative.
type Outcome struct {
	Name     string
	TokenID  string // venue-local handle (Kalshi ticker / Polymarket CLOB token)
	YesPrice float64
	NoPrice  float64
	YesAsk   float64
	NoAsk    float64
	YesBid   float64
	NoBid    float64
	YesDepth float64
	NoDepth  float64
}

// Market is a tradable question on one venue.
type Market struct {
	Venue      Venue
	ID         string // unique within the venue
	Title      string
	EventTitle string
	Outcomes   []Outcome
	Expiration *time.Time
	Volume     float64
	URL        string
	Ticker     string
}

// PrimaryOutcome returns the first outcome, or nil if the market has none.
func (m *Market) PrimaryOutcome() *Outcome {
	if m == nil || len(m.Outcomes) == 0 {
		return nil
	}
	return &m.Outcomes[0]
}

// MatchedPair asserts semantic equivalence between a Kalshi market and a
// Polymarket market. SimilarityScore is in [0, 100]; manual overrides
// always carry 100.
type MatchedPair struct {
	KalshiMarket      *Market
	PolymarketMarket  *Market
	SimilarityScore   float64
	KalshiOutcome     *Outcome
	PolymarketOutcome *Outcome
}

// NewMatchedPair builds a pair with both primary outcomes linked.
func NewMatchedPair(km, pm *Market, score float64) *MatchedPair {
	return &MatchedPair{
		KalshiMarket:      km,
		PolymarketMarket:  pm,
		SimilarityScore:   score,
		KalshiOutcome:     km.PrimaryOutcome(),
		PolymarketOutcome: pm.PrimaryOutcome(),
	}
}

// RelinkOutcomes re-points the pair at the (possibly enriched) first
// outcome of each market.
func (p *MatchedPair) RelinkOutcomes() {
	p.KalshiOutcome = p.KalshiMarket.PrimaryOutcome()
	p.PolymarketOutcome = p.PolymarketMarket.PrimaryOutcome()
}

// MatchSummary is the control-plane view of a matched pair.
type MatchSummary struct {
	KalshiID        string  `json:"kalshi_id"`
	KalshiTitle     string  `json:"kalshi_title"`
	PolymarketID    string  `json:"polymarket_id"`
	PolymarketTitle string  `json:"polymarket_title"`
	Similarity      float64 `json:"similarity"`
	KalshiYesPrice  float64 `json:"kalshi_yes_price"`
	PolyYesPrice    float64 `json:"polymarket_yes_price"`
}

// Summary builds the control-plane view of the pair.
func (p *MatchedPair) Summary() MatchSummary {
	s := MatchSummary{
		KalshiID:        p.KalshiMarket.ID,
		KalshiTitle:     p.KalshiMarket.Title,
		PolymarketID:    p.PolymarketMarket.ID,
		PolymarketTitle: p.PolymarketMarket.Title,
		Similarity:      p.SimilarityScore,
	}
	if p.KalshiOutcome != nil {
		s.KalshiYesPrice = p.KalshiOutcome.YesPrice
	}
	if p.PolymarketOutcome != nil {
		s.PolyYesPrice = p.PolymarketOutcome.YesPrice
	}
	return s
}
