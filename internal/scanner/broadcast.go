package scanner

import (
	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

const subscriberBuffer = 8

// BroadcastStats is the per-scan stats block pushed to subscribers.
type BroadcastStats struct {
	KalshiMarkets       int    `json:"kalshi_markets"`
	PolymarketMarkets   int    `json:"polymarket_markets"`
	MatchedPairs        int    `json:"matched_pairs"`
	ActiveOpportunities int    `json:"active_opportunities"`
	TotalScans          int    `json:"total_scans"`
	LastScan            string `json:"last_scan"`
}

// ScanUpdate is the message pushed to subscribers after every scan.
type ScanUpdate struct {
	Type          string                     `json:"type"`
	Opportunities []types.OpportunitySummary `json:"opportunities"`
	Stats         BroadcastStats             `json:"stats"`
}

// Subscriber receives scan updates. A subscriber that stops draining
// its channel is dropped.
type Subscriber chan ScanUpdate

// Subscribe registers a new scan-update subscriber.
func (s *Scanner) Subscribe() Subscriber {
	sub := make(Subscriber, subscriberBuffer)
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.subMu.Unlock()
	return sub
}

// Unsubscribe removes and closes a subscriber.
func (s *Scanner) Unsubscribe(sub Subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for i, existing := range s.subscribers {
		if existing == sub {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// broadcast pushes the latest scan result to every subscriber. Sends
// never block; a subscriber with a full buffer is removed.
func (s *Scanner) broadcast() {
	s.mu.RLock()
	update := ScanUpdate{
		Type:          "scan_update",
		Opportunities: make([]types.OpportunitySummary, 0, len(s.opportunities)),
		Stats: BroadcastStats{
			KalshiMarkets:       s.kalshiCount,
			PolymarketMarkets:   s.polyCount,
			MatchedPairs:        len(s.matchedPairs),
			ActiveOpportunities: len(s.opportunities),
			TotalScans:          s.totalScans,
			LastScan:            s.lastScan,
		},
	}
	for _, opp := range s.opportunities {
		update.Opportunities = append(update.Opportunities, opp.Summary())
	}
	s.mu.RUnlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()

	var alive []Subscriber
	dropped := 0
	for _, sub := range s.subscribers {
		select {
		case sub <- update:
			alive = append(alive, sub)
		default:
			close(sub)
			dropped++
		}
	}
	s.subscribers = alive

	if dropped > 0 {
		s.logger.Warn("slow-subscribers-dropped", zap.Int("count", dropped))
	}
}
