package arbitrage

import (
	"testing"

	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

func newTestDetector() *Detector {
	return New(&Config{
		KalshiFeeRate:     0.07,
		PolymarketFeeRate: 0.02,
		Logger:            zap.NewNop(),
	})
}

func pairWith(ko, po types.Outcome) *types.MatchedPair {
	km := &types.Market{
		Venue:    types.VenueKalshi,
		ID:       "K1",
		Ticker:   "K1",
		Title:    "k",
		Outcomes: []types.Outcome{ko},
	}
	pm := &types.Market{
		Venue:    types.VenuePolymarket,
		ID:       "P1",
		Title:    "p",
		Outcomes: []types.Outcome{po},
	}
	return types.NewMatchedPair(km, pm, 95)
}

func TestDetect_WorstCaseFeeCost(t *testing.T) {
	d := newTestDetector()

	// YES Kalshi at 0.45, NO Polymarket at 0.50:
	// cost = 0.45 + 0.50 + max(0.55*0.07, 0.50*0.02) = 0.9885
	pair := pairWith(
		types.Outcome{YesAsk: 0.45, YesPrice: 0.44, NoAsk: 0.60, NoPrice: 0.56, YesDepth: 100},
		types.Outcome{YesAsk: 0.62, YesPrice: 0.56, NoAsk: 0.50, NoPrice: 0.44, NoDepth: 250},
	)

	opps := d.Detect([]*types.MatchedPair{pair}, 1.0)
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}

	opp := opps[0]
	if opp.Direction != types.DirectionKalshiYesPolyNo {
		t.Errorf("direction: got %q", opp.Direction)
	}
	if opp.Cost != 0.9885 {
		t.Errorf("cost: got %v, want 0.9885", opp.Cost)
	}
	if opp.Profit != 0.0115 {
		t.Errorf("profit: got %v, want 0.0115", opp.Profit)
	}
	if opp.ROI != 1.16 {
		t.Errorf("roi: got %v, want 1.16", opp.ROI)
	}
	if opp.MaxSize != 100 {
		t.Errorf("max size: got %v, want 100", opp.MaxSize)
	}
	if opp.KalshiPrice != 0.45 || opp.PolymarketPrice != 0.50 {
		t.Errorf("leg prices: kalshi=%v poly=%v", opp.KalshiPrice, opp.PolymarketPrice)
	}
}

func TestDetect_ReverseDirection(t *testing.T) {
	d := newTestDetector()

	// YES Polymarket at 0.40, NO Kalshi at 0.55:
	// cost = 0.40 + 0.55 + max(0.60*0.02, 0.45*0.07) = 0.9815
	pair := pairWith(
		types.Outcome{YesAsk: 0.70, YesPrice: 0.65, NoAsk: 0.55, NoPrice: 0.50, NoDepth: 80},
		types.Outcome{YesAsk: 0.40, YesPrice: 0.38, NoAsk: 0.75, NoPrice: 0.70, YesDepth: 40},
	)

	opps := d.Detect([]*types.MatchedPair{pair}, 1.0)
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}

	opp := opps[0]
	if opp.Direction != types.DirectionPolyYesKalshiNo {
		t.Errorf("direction: got %q", opp.Direction)
	}
	if opp.Cost != 0.9815 {
		t.Errorf("cost: got %v, want 0.9815", opp.Cost)
	}
	if opp.Profit != 0.0185 {
		t.Errorf("profit: got %v, want 0.0185", opp.Profit)
	}
	if opp.KalshiPrice != 0.55 || opp.PolymarketPrice != 0.40 {
		t.Errorf("leg prices: kalshi=%v poly=%v", opp.KalshiPrice, opp.PolymarketPrice)
	}
	if opp.MaxSize != 40 {
		t.Errorf("max size: got %v, want 40", opp.MaxSize)
	}
}

func TestDetect_ProfitAtFloorEmits(t *testing.T) {
	d := New(&Config{Logger: zap.NewNop()}) // zero fee rates

	// cost = 0.45 + 0.50 = 0.95, profit = 0.05, floor exactly 5 cents
	pair := pairWith(
		types.Outcome{YesAsk: 0.45},
		types.Outcome{NoAsk: 0.50},
	)

	opps := d.Detect([]*types.MatchedPair{pair}, 5.0)
	if len(opps) == 0 {
		t.Fatal("profit equal to the floor must be emitted")
	}
	if opps[0].Profit != 0.05 {
		t.Errorf("profit: got %v", opps[0].Profit)
	}

	opps = d.Detect([]*types.MatchedPair{pair}, 5.01)
	for _, o := range opps {
		if o.Direction == types.DirectionKalshiYesPolyNo {
			t.Error("profit below the floor must not be emitted")
		}
	}
}

func TestDetect_MidPriceFallback(t *testing.T) {
	d := New(&Config{Logger: zap.NewNop()})

	// No asks anywhere, mid prices sum to 0.90
	pair := pairWith(
		types.Outcome{YesPrice: 0.42},
		types.Outcome{NoPrice: 0.48},
	)

	opps := d.Detect([]*types.MatchedPair{pair}, 1.0)
	if len(opps) != 1 {
		t.Fatalf("expected mid-price fallback opportunity, got %d", len(opps))
	}
	if opps[0].Cost != 0.90 {
		t.Errorf("cost: got %v, want 0.90", opps[0].Cost)
	}
}

func TestDetect_UnpriceableLegSkipped(t *testing.T) {
	d := New(&Config{Logger: zap.NewNop()})

	// Kalshi YES leg has neither ask nor mid; direction A cannot price.
	// The reverse direction is priced but unprofitable.
	pair := pairWith(
		types.Outcome{NoAsk: 0.60, NoPrice: 0.55},
		types.Outcome{YesAsk: 0.55, NoAsk: 0.48, NoPrice: 0.45},
	)

	opps := d.Detect([]*types.MatchedPair{pair}, 1.0)
	if len(opps) != 0 {
		t.Fatalf("expected no opportunities, got %d", len(opps))
	}
}

func TestDetect_NilOutcomesSkipped(t *testing.T) {
	d := newTestDetector()

	km := &types.Market{Venue: types.VenueKalshi, ID: "K1"}
	pm := &types.Market{Venue: types.VenuePolymarket, ID: "P1"}
	pair := types.NewMatchedPair(km, pm, 90)

	opps := d.Detect([]*types.MatchedPair{pair}, 1.0)
	if len(opps) != 0 {
		t.Fatalf("expected no opportunities for outcome-less pair, got %d", len(opps))
	}
}

func TestMinDepth(t *testing.T) {
	tests := []struct {
		yes, no, want float64
	}{
		{100, 200, 100},
		{200, 100, 100},
		{0, 200, 200},  // missing yes depth does not constrain
		{100, 0, 100},  // missing no depth does not constrain
		{0, 0, 0},      // both unknown
	}
	for _, tt := range tests {
		got := minDepth(tt.yes, tt.no)
		if got != tt.want {
			t.Errorf("minDepth(%v, %v) = %v, want %v", tt.yes, tt.no, got, tt.want)
		}
	}
}

func TestDetect_SortedByROIDescending(t *testing.T) {
	d := New(&Config{Logger: zap.NewNop()})

	small := pairWith(types.Outcome{YesAsk: 0.50}, types.Outcome{NoAsk: 0.48})
	large := pairWith(types.Outcome{YesAsk: 0.45}, types.Outcome{NoAsk: 0.48})

	opps := d.Detect([]*types.MatchedPair{small, large}, 1.0)
	if len(opps) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(opps))
	}
	if opps[0].ROI < opps[1].ROI {
		t.Errorf("not sorted by ROI desc: %v then %v", opps[0].ROI, opps[1].ROI)
	}
	if opps[0].Profit != 0.07 {
		t.Errorf("best opportunity first: got profit %v", opps[0].Profit)
	}
}
