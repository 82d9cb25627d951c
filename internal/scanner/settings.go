package scanner

import (
	"time"

	"go.uber.org/zap"
)

// SettingsUpdate is a partial runtime reconfiguration. Nil fields are
// left unchanged.
type SettingsUpdate struct {
	ScanIntervalSeconds *int     `json:"scan_interval"`
	MinProfitCents      *float64 `json:"min_profit_cents"`
	MatchThreshold      *float64 `json:"match_threshold"`
	AutoExecute         *bool    `json:"auto_execute"`
	MaxPositionUSD      *float64 `json:"max_position_usd"`
}

// UpdateSettings applies a runtime settings change. The new scan
// interval takes effect after the current wait; a threshold change
// clears the matcher's cache.
func (s *Scanner) UpdateSettings(update SettingsUpdate) {
	if update.ScanIntervalSeconds != nil {
		s.mu.Lock()
		s.scanInterval = time.Duration(*update.ScanIntervalSeconds) * time.Second
		s.mu.Unlock()
		s.logger.Info("scan-interval-updated", zap.Int("seconds", *update.ScanIntervalSeconds))
	}

	if update.MinProfitCents != nil {
		s.mu.Lock()
		s.minProfitCents = *update.MinProfitCents
		s.mu.Unlock()
		s.executor.SetMinProfitCents(*update.MinProfitCents)
		s.logger.Info("min-profit-updated", zap.Float64("cents", *update.MinProfitCents))
	}

	if update.MatchThreshold != nil {
		s.matcher.SetThreshold(*update.MatchThreshold)
		s.logger.Info("match-threshold-updated", zap.Float64("threshold", *update.MatchThreshold))
	}

	if update.AutoExecute != nil {
		s.executor.SetEnabled(*update.AutoExecute)
	}

	if update.MaxPositionUSD != nil {
		s.executor.SetMaxPositionUSD(*update.MaxPositionUSD)
		s.logger.Info("max-position-updated", zap.Float64("usd", *update.MaxPositionUSD))
	}
}
