package matching

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/cache"
	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Will BTC close above $60K?", "will btc close above 60k"},
		{"  Fed   rate CUT in 2026!! ", "fed rate cut in 2026"},
		{"already normalized", "already normalized"},
		{"", ""},
		{"???", ""},
	}
	for _, tt := range tests {
		got := Normalize(tt.in)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := Normalize(got); again != got {
			t.Errorf("Normalize not idempotent on %q: %q", got, again)
		}
	}
}

func TestTokenSortRatio(t *testing.T) {
	if got := TokenSortRatio("btc above 60k", "above 60k btc"); got != 100 {
		t.Errorf("reordered tokens should score 100, got %v", got)
	}
	if got := TokenSortRatio("", ""); got != 100 {
		t.Errorf("empty strings should score 100, got %v", got)
	}
	if got := TokenSortRatio("fed rate cut march", "nba finals winner"); got > 50 {
		t.Errorf("unrelated titles scored too high: %v", got)
	}
	close := TokenSortRatio("will bitcoin exceed 100k", "will bitcoin exceed 100000")
	if close < 80 {
		t.Errorf("near-identical titles scored too low: %v", close)
	}
}

func newTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func newTestMatcher(t *testing.T, threshold float64, overridesPath string) *Matcher {
	t.Helper()
	return New(&Config{
		Threshold:     threshold,
		OverridesPath: overridesPath,
		Cache:         newTestCache(t),
		Logger:        zap.NewNop(),
	})
}

func kalshiMarket(id, title string) *types.Market {
	return &types.Market{
		Venue:    types.VenueKalshi,
		ID:       id,
		Ticker:   id,
		Title:    title,
		Outcomes: []types.Outcome{{Name: title, TokenID: id, YesPrice: 0.5, NoPrice: 0.5}},
	}
}

func polyMarket(id, title string) *types.Market {
	return &types.Market{
		Venue:    types.VenuePolymarket,
		ID:       id,
		Title:    title,
		Outcomes: []types.Outcome{{Name: "Yes", TokenID: "tok-" + id, YesPrice: 0.5, NoPrice: 0.5}},
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	m := newTestMatcher(t, 80, "missing.json")

	if got := m.Match(nil, []*types.Market{polyMarket("1", "a")}); got != nil {
		t.Errorf("expected nil for empty kalshi side, got %v", got)
	}
	if got := m.Match([]*types.Market{kalshiMarket("K1", "a")}, nil); got != nil {
		t.Errorf("expected nil for empty poly side, got %v", got)
	}
}

func TestMatch_FuzzyTitleReordering(t *testing.T) {
	m := newTestMatcher(t, 80, "missing.json")

	pairs := m.Match(
		[]*types.Market{kalshiMarket("K1", "Will Bitcoin exceed $100k by March?")},
		[]*types.Market{
			polyMarket("P1", "Bitcoin: will it exceed 100k by March?"),
			polyMarket("P2", "NBA Finals winner 2026"),
		},
	)

	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].PolymarketMarket.ID != "P1" {
		t.Errorf("matched wrong market: %s", pairs[0].PolymarketMarket.ID)
	}
	if pairs[0].SimilarityScore < 80 {
		t.Errorf("score below threshold: %v", pairs[0].SimilarityScore)
	}
}

func TestMatch_BelowThresholdDropped(t *testing.T) {
	m := newTestMatcher(t, 80, "missing.json")

	pairs := m.Match(
		[]*types.Market{kalshiMarket("K1", "Fed rate cut in March")},
		[]*types.Market{polyMarket("P1", "Super Bowl halftime show")},
	)
	if len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(pairs))
	}
}

func TestMatch_UniquePerPolymarketMarket(t *testing.T) {
	m := newTestMatcher(t, 80, "missing.json")

	// Both Kalshi markets resolve to the same Polymarket market; only
	// the higher-scoring pairing survives.
	pairs := m.Match(
		[]*types.Market{
			kalshiMarket("K1", "Will Bitcoin exceed 100k by March 2026"),
			kalshiMarket("K2", "Bitcoin exceed 100k March 2026"),
		},
		[]*types.Market{polyMarket("P1", "Bitcoin exceed 100k March 2026")},
	)

	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair after reduction, got %d", len(pairs))
	}
	if pairs[0].KalshiMarket.ID != "K2" {
		t.Errorf("expected exact-title K2 to win, got %s", pairs[0].KalshiMarket.ID)
	}
	if pairs[0].SimilarityScore != 100 {
		t.Errorf("expected perfect score, got %v", pairs[0].SimilarityScore)
	}
}

func writeOverrides(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "market_overrides.json")
	err := os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		t.Fatalf("write overrides: %v", err)
	}
	return path
}

func TestMatch_ManualOverride(t *testing.T) {
	path := writeOverrides(t, `{"overrides":{"K1":"P9"},"excluded":[]}`)
	m := newTestMatcher(t, 80, path)

	pairs := m.Match(
		[]*types.Market{kalshiMarket("K1", "Completely different wording")},
		[]*types.Market{
			polyMarket("P9", "Another phrasing entirely"),
			polyMarket("P2", "Completely different wording"),
		},
	)

	var overridePair *types.MatchedPair
	for _, p := range pairs {
		if p.KalshiMarket.ID == "K1" {
			overridePair = p
		}
	}
	if overridePair == nil {
		t.Fatal("override pair missing")
	}
	if overridePair.PolymarketMarket.ID != "P9" {
		t.Errorf("override should force P9, got %s", overridePair.PolymarketMarket.ID)
	}
	if overridePair.SimilarityScore != 100 {
		t.Errorf("override score should be 100, got %v", overridePair.SimilarityScore)
	}
}

func TestMatch_ExcludedKalshiSkipped(t *testing.T) {
	path := writeOverrides(t, `{"overrides":{},"excluded":["K1"]}`)
	m := newTestMatcher(t, 80, path)

	pairs := m.Match(
		[]*types.Market{kalshiMarket("K1", "Bitcoin exceed 100k")},
		[]*types.Market{polyMarket("P1", "Bitcoin exceed 100k")},
	)
	if len(pairs) != 0 {
		t.Fatalf("excluded market should never match, got %d pairs", len(pairs))
	}
}

func TestMatch_MalformedOverridesIgnored(t *testing.T) {
	path := writeOverrides(t, `{"overrides": not valid json`)
	m := newTestMatcher(t, 80, path)

	pairs := m.Match(
		[]*types.Market{kalshiMarket("K1", "Bitcoin exceed 100k")},
		[]*types.Market{polyMarket("P1", "Bitcoin exceed 100k")},
	)
	if len(pairs) != 1 {
		t.Fatalf("matcher should still run with broken overrides, got %d pairs", len(pairs))
	}
}

func TestMatch_CacheResolvesAgainstCurrentScan(t *testing.T) {
	m := newTestMatcher(t, 80, "missing.json")

	km := kalshiMarket("K1", "Bitcoin exceed 100k")
	first := m.Match([]*types.Market{km}, []*types.Market{polyMarket("P1", "Bitcoin exceed 100k")})
	if len(first) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(first))
	}

	// Same Polymarket id, fresh object with new prices. The cached hint
	// must resolve to this scan's object, not the stale one.
	freshPoly := polyMarket("P1", "Bitcoin exceed 100k")
	freshPoly.Outcomes[0].YesPrice = 0.61
	second := m.Match([]*types.Market{km}, []*types.Market{freshPoly})
	if len(second) != 1 {
		t.Fatalf("expected 1 pair from cache, got %d", len(second))
	}
	if second[0].PolymarketMarket != freshPoly {
		t.Error("cached match should point at the current scan's market object")
	}
	if second[0].PolymarketOutcome.YesPrice != 0.61 {
		t.Errorf("cached match carries stale prices: %v", second[0].PolymarketOutcome.YesPrice)
	}
}

func TestMatch_CacheHintForVanishedMarketFallsThrough(t *testing.T) {
	m := newTestMatcher(t, 80, "missing.json")

	km := kalshiMarket("K1", "Bitcoin exceed 100k")
	_ = m.Match([]*types.Market{km}, []*types.Market{polyMarket("P1", "Bitcoin exceed 100k")})

	// P1 is gone this scan; the hint must not resurrect it and fuzzy
	// matching runs against what is actually live.
	pairs := m.Match([]*types.Market{km}, []*types.Market{polyMarket("P2", "Bitcoin exceed 100k")})
	if len(pairs) != 1 {
		t.Fatalf("expected fallthrough match, got %d pairs", len(pairs))
	}
	if pairs[0].PolymarketMarket.ID != "P2" {
		t.Errorf("expected fresh match against P2, got %s", pairs[0].PolymarketMarket.ID)
	}
}

func TestSetThreshold_ChangeClearsCache(t *testing.T) {
	c := newTestCache(t)
	m := New(&Config{
		Threshold:     80,
		OverridesPath: "missing.json",
		Cache:         c,
		Logger:        zap.NewNop(),
	})

	_ = m.Match(
		[]*types.Market{kalshiMarket("K1", "Bitcoin exceed 100k")},
		[]*types.Market{polyMarket("P1", "Bitcoin exceed 100k")},
	)
	if _, found := c.Get("K1"); !found {
		t.Fatal("expected cache to hold the match hint")
	}

	m.SetThreshold(90)
	if _, found := c.Get("K1"); found {
		t.Error("threshold change should clear the cache")
	}

	m.SetThreshold(90)
	if m.Threshold() != 90 {
		t.Errorf("threshold: got %v", m.Threshold())
	}
}

func TestMatch_SortedBySimilarityDescending(t *testing.T) {
	m := newTestMatcher(t, 80, "missing.json")

	pairs := m.Match(
		[]*types.Market{
			kalshiMarket("K1", "Fed cuts rates in March 2026"),
			kalshiMarket("K2", "Bitcoin exceed 100k"),
		},
		[]*types.Market{
			polyMarket("P1", "Fed cuts rates March 2026"),
			polyMarket("P2", "Bitcoin exceed 100k"),
		},
	)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].SimilarityScore < pairs[1].SimilarityScore {
		t.Errorf("pairs not sorted descending: %v then %v",
			pairs[0].SimilarityScore, pairs[1].SimilarityScore)
	}
}
