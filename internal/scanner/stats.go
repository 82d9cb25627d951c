package scanner

import "github.com/dpereira/kalshi-poly-arb/pkg/types"

// Stats is the control-plane snapshot of scanner state.
type Stats struct {
	KalshiMarkets       int      `json:"kalshi_markets"`
	PolymarketMarkets   int      `json:"polymarket_markets"`
	MatchedPairs        int      `json:"matched_pairs"`
	ActiveOpportunities int      `json:"active_opportunities"`
	TotalScans          int      `json:"total_scans"`
	LastScan            string   `json:"last_scan"`
	IsRunning           bool     `json:"is_running"`
	ScanIntervalSeconds int      `json:"scan_interval"`
	MinProfitCents      float64  `json:"min_profit_cents"`
	MatchThreshold      float64  `json:"match_threshold"`
	AutoExecute         bool     `json:"auto_execute"`
	Errors              []string `json:"errors"`
}

// Stats builds the current snapshot. Errors carries the most recent
// entries of the error ring, newest last.
func (s *Scanner) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	errs := s.errors
	if len(errs) > errorSnapshotLen {
		errs = errs[len(errs)-errorSnapshotLen:]
	}
	errsCopy := make([]string, len(errs))
	copy(errsCopy, errs)

	return Stats{
		KalshiMarkets:       s.kalshiCount,
		PolymarketMarkets:   s.polyCount,
		MatchedPairs:        len(s.matchedPairs),
		ActiveOpportunities: len(s.opportunities),
		TotalScans:          s.totalScans,
		LastScan:            s.lastScan,
		IsRunning:           s.running,
		ScanIntervalSeconds: int(s.scanInterval.Seconds()),
		MinProfitCents:      s.minProfitCents,
		MatchThreshold:      s.matcher.Threshold(),
		AutoExecute:         s.executor.Enabled(),
		Errors:              errsCopy,
	}
}

// Opportunities returns the latest scan's opportunities in wire form,
// already sorted by ROI descending.
func (s *Scanner) Opportunities() []types.OpportunitySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.OpportunitySummary, 0, len(s.opportunities))
	for _, opp := range s.opportunities {
		out = append(out, opp.Summary())
	}
	return out
}

// Matches returns the latest scan's matched pairs in wire form.
func (s *Scanner) Matches() []types.MatchSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.MatchSummary, 0, len(s.matchedPairs))
	for _, pair := range s.matchedPairs {
		out = append(out, pair.Summary())
	}
	return out
}
