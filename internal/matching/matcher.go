// Package matching pairs Kalshi markets with their Polymarket
// equivalents by fuzzy title similarity, with a manual curation layer
// on top.
package matching

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/cache"
	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

const matchCacheTTL = time.Hour

// cacheEntry is the scoring hint stored per Kalshi market id. Only the
// counterpart id and score are kept; market data is always resolved
// against the current scan so cached pairs never carry stale prices.
type cacheEntry struct {
	PolyID string
	Score  float64
}

// Matcher matches markets across venues using brute-force fuzzy
// matching over normalized titles.
type Matcher struct {
	logger *zap.Logger
	cache  cache.Cache

	mu        sync.RWMutex
	threshold float64

	overrides map[string]string
	excluded  map[string]bool
}

// Config holds matcher configuration.
type Config struct {
	Threshold     float64
	OverridesPath string
	Cache         cache.Cache
	Logger        *zap.Logger
}

// New creates a matcher and loads the curation file.
func New(cfg *Config) *Matcher {
	overrides, excluded := loadOverrides(cfg.OverridesPath, cfg.Logger)
	return &Matcher{
		logger:    cfg.Logger,
		cache:     cfg.Cache,
		threshold: cfg.Threshold,
		overrides: overrides,
		excluded:  excluded,
	}
}

// Threshold returns the current similarity cutoff.
func (m *Matcher) Threshold() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.threshold
}

// SetThreshold updates the similarity cutoff. Changing it invalidates
// every cached score, since entries below the new cutoff would leak
// through otherwise.
func (m *Matcher) SetThreshold(threshold float64) {
	m.mu.Lock()
	changed := m.threshold != threshold
	m.threshold = threshold
	m.mu.Unlock()

	if changed {
		m.ClearCache()
	}
}

// ClearCache drops all cached match hints.
func (m *Matcher) ClearCache() {
	m.cache.Clear()
	m.logger.Info("match-cache-cleared")
}

// candidate is one fuzzy-match result before uniqueness reduction.
type candidate struct {
	score float64
	pair  *types.MatchedPair
}

// Match pairs each Kalshi market with its best Polymarket counterpart.
// Manual overrides resolve first and always score 100. The result is
// unique per market on both sides, sorted by similarity descending.
func (m *Matcher) Match(kalshiMarkets, polyMarkets []*types.Market) []*types.MatchedPair {
	if len(kalshiMarkets) == 0 || len(polyMarkets) == 0 {
		return nil
	}

	start := time.Now()
	threshold := m.Threshold()

	polyByID := make(map[string]*types.Market, len(polyMarkets))
	for _, pm := range polyMarkets {
		polyByID[pm.ID] = pm
	}

	// Manual overrides claim their markets before fuzzy matching runs.
	overriddenKalshi := map[string]bool{}
	overriddenPoly := map[string]bool{}
	var overrideMatches []*types.MatchedPair

	for _, km := range kalshiMarkets {
		targetID, ok := m.overrides[km.ID]
		if !ok {
			continue
		}
		pm, ok := polyByID[targetID]
		if !ok {
			continue
		}
		pair := types.NewMatchedPair(km, pm, 100.0)
		overrideMatches = append(overrideMatches, pair)
		m.cache.Set(km.ID, cacheEntry{PolyID: pm.ID, Score: 100.0}, matchCacheTTL)
		overriddenKalshi[km.ID] = true
		overriddenPoly[pm.ID] = true
	}

	candidates := make([]*types.Market, 0, len(polyMarkets))
	candidateTitles := make([]string, 0, len(polyMarkets))
	for _, pm := range polyMarkets {
		if overriddenPoly[pm.ID] {
			continue
		}
		candidates = append(candidates, pm)
		candidateTitles = append(candidateTitles, Normalize(pm.Title))
	}

	if len(candidates) == 0 {
		m.cache.Wait()
		return overrideMatches
	}

	type pairKey struct {
		kalshiID string
		polyID   string
	}
	best := map[pairKey]candidate{}

	record := func(km, pm *types.Market, score float64) {
		key := pairKey{kalshiID: km.ID, polyID: pm.ID}
		prev, ok := best[key]
		if !ok || score > prev.score {
			best[key] = candidate{score: score, pair: types.NewMatchedPair(km, pm, score)}
		}
	}

	for _, km := range kalshiMarkets {
		if overriddenKalshi[km.ID] || m.excluded[km.ID] {
			continue
		}

		if raw, found := m.cache.Get(km.ID); found {
			if entry, ok := raw.(cacheEntry); ok {
				if pm, live := polyByID[entry.PolyID]; live && !overriddenPoly[pm.ID] {
					record(km, pm, entry.Score)
					continue
				}
			}
		}

		normTitle := Normalize(km.Title)
		bestScore := -1.0
		bestIdx := -1
		for i, title := range candidateTitles {
			score := TokenSortRatio(normTitle, title)
			if score >= threshold && score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			continue
		}

		pm := candidates[bestIdx]
		record(km, pm, bestScore)
		m.cache.Set(km.ID, cacheEntry{PolyID: pm.ID, Score: bestScore}, matchCacheTTL)
	}

	// Reduce to uniqueness: best Polymarket match per Kalshi market,
	// then best Kalshi match per Polymarket market.
	kalshiBest := map[string]candidate{}
	for key, c := range best {
		prev, ok := kalshiBest[key.kalshiID]
		if !ok || c.score > prev.score {
			kalshiBest[key.kalshiID] = c
		}
	}

	polyBest := map[string]candidate{}
	for _, c := range kalshiBest {
		pid := c.pair.PolymarketMarket.ID
		prev, ok := polyBest[pid]
		if !ok || c.score > prev.score {
			polyBest[pid] = c
		}
	}

	matched := make([]*types.MatchedPair, 0, len(overrideMatches)+len(polyBest))
	matched = append(matched, overrideMatches...)
	for _, c := range polyBest {
		matched = append(matched, c.pair)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SimilarityScore > matched[j].SimilarityScore
	})

	m.cache.Wait()

	PairsMatched.Set(float64(len(matched)))
	MatchDurationSeconds.Observe(time.Since(start).Seconds())
	m.logger.Info("markets-matched",
		zap.Int("pairs", len(matched)),
		zap.Int("overrides", len(overrideMatches)),
		zap.Float64("threshold", threshold),
		zap.Duration("elapsed", time.Since(start)))

	return matched
}
