package execution

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

type fakeLeg struct {
	mu     sync.Mutex
	yes    int
	no     int
	yesErr error
	noErr  error
}

func (f *fakeLeg) BuyYes(_ context.Context, _ *types.Opportunity, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.yes++
	return f.yesErr
}

func (f *fakeLeg) BuyNo(_ context.Context, _ *types.Opportunity, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.no++
	return f.noErr
}

func (f *fakeLeg) calls() (yes, no int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.yes, f.no
}

func testOpportunity(direction types.Direction, profit, maxSize float64) *types.Opportunity {
	km := &types.Market{Venue: types.VenueKalshi, ID: "K1", Ticker: "K1",
		Outcomes: []types.Outcome{{TokenID: "K1"}}}
	pm := &types.Market{Venue: types.VenuePolymarket, ID: "P1",
		Outcomes: []types.Outcome{{TokenID: "tok-yes"}, {TokenID: "tok-no"}}}
	return &types.Opportunity{
		Pair:      types.NewMatchedPair(km, pm, 95),
		Direction: direction,
		Cost:      1 - profit,
		Profit:    profit,
		MaxSize:   maxSize,
	}
}

func newTestExecutor(kalshi, poly LegExecutor) *Executor {
	return New(&Config{
		Enabled:         true,
		MaxPositionUSD:  100,
		MaxDailyLossUSD: 50,
		MinProfitCents:  2,
		Cooldown:        5 * time.Second,
		Kalshi:          kalshi,
		Polymarket:      poly,
		Logger:          zap.NewNop(),
	})
}

func TestExecute_Disabled(t *testing.T) {
	kalshi, poly := &fakeLeg{}, &fakeLeg{}
	e := newTestExecutor(kalshi, poly)
	e.SetEnabled(false)

	record := e.Execute(context.Background(), testOpportunity(types.DirectionKalshiYesPolyNo, 0.05, 50))
	if record.Success {
		t.Error("expected blocked record")
	}
	if record.Error != "auto-execution is disabled" {
		t.Errorf("unexpected reason: %q", record.Error)
	}
	if y, n := kalshi.calls(); y+n != 0 {
		t.Error("no legs should run while disabled")
	}
	if y, n := poly.calls(); y+n != 0 {
		t.Error("no legs should run while disabled")
	}
}

func TestExecute_SuccessDirectionA(t *testing.T) {
	kalshi, poly := &fakeLeg{}, &fakeLeg{}
	e := newTestExecutor(kalshi, poly)

	opp := testOpportunity(types.DirectionKalshiYesPolyNo, 0.05, 50)
	record := e.Execute(context.Background(), opp)

	if !record.Success {
		t.Fatalf("expected success, got error %q", record.Error)
	}
	if y, _ := kalshi.calls(); y != 1 {
		t.Error("expected Kalshi YES leg")
	}
	if _, n := poly.calls(); n != 1 {
		t.Error("expected Polymarket NO leg")
	}
	if record.Size != 50 {
		t.Errorf("size: got %v, want 50 (capped by depth)", record.Size)
	}
	if record.PnL != 0.05*50 {
		t.Errorf("pnl: got %v, want 2.5", record.PnL)
	}
	if e.DailyPnL() != 2.5 {
		t.Errorf("daily pnl: got %v", e.DailyPnL())
	}
	if record.ID == "" {
		t.Error("record should carry an id")
	}
}

func TestExecute_SuccessDirectionB(t *testing.T) {
	kalshi, poly := &fakeLeg{}, &fakeLeg{}
	e := newTestExecutor(kalshi, poly)

	record := e.Execute(context.Background(), testOpportunity(types.DirectionPolyYesKalshiNo, 0.05, 0))
	if !record.Success {
		t.Fatalf("expected success, got error %q", record.Error)
	}
	if y, _ := poly.calls(); y != 1 {
		t.Error("expected Polymarket YES leg")
	}
	if _, n := kalshi.calls(); n != 1 {
		t.Error("expected Kalshi NO leg")
	}
	if record.Size != 100 {
		t.Errorf("unknown depth should trade the position cap, got %v", record.Size)
	}
}

func TestExecute_MinProfitRecheck(t *testing.T) {
	e := newTestExecutor(&fakeLeg{}, &fakeLeg{})

	record := e.Execute(context.Background(), testOpportunity(types.DirectionKalshiYesPolyNo, 0.015, 50))
	if record.Success {
		t.Error("profit below the execution floor must be blocked")
	}
}

func TestExecute_Cooldown(t *testing.T) {
	e := newTestExecutor(&fakeLeg{}, &fakeLeg{})
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	opp := testOpportunity(types.DirectionKalshiYesPolyNo, 0.05, 50)
	if r := e.Execute(context.Background(), opp); !r.Success {
		t.Fatalf("first execution should pass: %q", r.Error)
	}

	now = now.Add(2 * time.Second)
	if r := e.Execute(context.Background(), opp); r.Success {
		t.Error("execution inside cooldown should be blocked")
	}

	now = now.Add(4 * time.Second)
	if r := e.Execute(context.Background(), opp); !r.Success {
		t.Errorf("execution after cooldown should pass: %q", r.Error)
	}
}

func TestExecute_DailyLossLimit(t *testing.T) {
	e := newTestExecutor(&fakeLeg{}, &fakeLeg{})
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	e.mu.Lock()
	e.dailyPnL = -60
	e.dailyResetDate = "2026-08-24"
	e.mu.Unlock()

	opp := testOpportunity(types.DirectionKalshiYesPolyNo, 0.05, 50)
	if r := e.Execute(context.Background(), opp); r.Success {
		t.Error("execution past the daily loss limit should be blocked")
	}

	// New UTC day resets the counter.
	now = now.Add(24 * time.Hour)
	if r := e.Execute(context.Background(), opp); !r.Success {
		t.Errorf("execution after the UTC reset should pass: %q", r.Error)
	}
}

func TestExecute_PartialFill(t *testing.T) {
	kalshi := &fakeLeg{yesErr: errors.New("order rejected")}
	poly := &fakeLeg{}
	e := newTestExecutor(kalshi, poly)

	record := e.Execute(context.Background(), testOpportunity(types.DirectionKalshiYesPolyNo, 0.05, 50))
	if record.Success {
		t.Fatal("expected failed record")
	}
	if !record.PartialFill {
		t.Error("one filled leg should flag a partial fill")
	}
	if record.Error == "" {
		t.Error("record should carry the leg error")
	}
	if e.DailyPnL() != 0 {
		t.Errorf("failed execution must not book pnl, got %v", e.DailyPnL())
	}
}

func TestExecute_BothLegsFail(t *testing.T) {
	kalshi := &fakeLeg{yesErr: errors.New("kalshi down")}
	poly := &fakeLeg{noErr: errors.New("poly down")}
	e := newTestExecutor(kalshi, poly)

	record := e.Execute(context.Background(), testOpportunity(types.DirectionKalshiYesPolyNo, 0.05, 50))
	if record.PartialFill {
		t.Error("both legs failing is not a partial fill")
	}
}

func TestExecutionLog_Bounded(t *testing.T) {
	e := newTestExecutor(&fakeLeg{}, &fakeLeg{})
	e.SetEnabled(false) // every attempt records a blocked entry

	opp := testOpportunity(types.DirectionKalshiYesPolyNo, 0.05, 50)
	for i := 0; i < executionLogLimit+20; i++ {
		e.Execute(context.Background(), opp)
	}

	log := e.ExecutionLog()
	if len(log) != executionLogLimit {
		t.Errorf("log length: got %d, want %d", len(log), executionLogLimit)
	}
}

func TestRecordSummary(t *testing.T) {
	e := newTestExecutor(&fakeLeg{}, &fakeLeg{})
	record := e.Execute(context.Background(), testOpportunity(types.DirectionKalshiYesPolyNo, 0.05, 50))

	s := record.Summary()
	if s.KalshiTicker != "K1" {
		t.Errorf("ticker: got %q", s.KalshiTicker)
	}
	if s.Direction != string(types.DirectionKalshiYesPolyNo) {
		t.Errorf("direction: got %q", s.Direction)
	}
	if !s.Success || s.PnL != 2.5 {
		t.Errorf("summary: %+v", s)
	}
}
