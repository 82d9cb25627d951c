// Package execution places the two legs of a detected arbitrage, behind
// a chain of safety guardrails.
package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

const executionLogLimit = 100

// LegExecutor places single-sided orders on one venue.
type LegExecutor interface {
	BuyYes(ctx context.Context, opp *types.Opportunity, size float64) error
	BuyNo(ctx context.Context, opp *types.Opportunity, size float64) error
}

// ExecutionRecord is the audit entry for one execution attempt,
// including attempts blocked by guardrails.
type ExecutionRecord struct {
	ID          string
	Opportunity *types.Opportunity
	ExecutedAt  time.Time
	Size        float64
	Success     bool
	PartialFill bool
	Error       string
	PnL         float64
}

// RecordSummary is the wire form of an ExecutionRecord.
type RecordSummary struct {
	ID           string  `json:"id"`
	ExecutedAt   string  `json:"executed_at"`
	KalshiTicker string  `json:"kalshi_ticker"`
	Direction    string  `json:"direction"`
	Size         float64 `json:"size"`
	Success      bool    `json:"success"`
	PartialFill  bool    `json:"partial_fill"`
	Error        string  `json:"error,omitempty"`
	PnL          float64 `json:"pnl"`
}

// Summary builds the wire form.
func (r *ExecutionRecord) Summary() RecordSummary {
	return RecordSummary{
		ID:           r.ID,
		ExecutedAt:   r.ExecutedAt.UTC().Format(time.RFC3339),
		KalshiTicker: r.Opportunity.Pair.KalshiMarket.Ticker,
		Direction:    string(r.Opportunity.Direction),
		Size:         types.Round(r.Size, 2),
		Success:      r.Success,
		PartialFill:  r.PartialFill,
		Error:        r.Error,
		PnL:          types.Round(r.PnL, 4),
	}
}

// Executor runs both legs of an opportunity with safety guardrails:
// global enable switch, daily loss limit, minimum profit recheck,
// cooldown between executions, and position sizing.
type Executor struct {
	logger     *zap.Logger
	kalshi     LegExecutor
	polymarket LegExecutor

	mu              sync.Mutex
	enabled         bool
	maxPositionUSD  float64
	maxDailyLossUSD float64
	minProfitCents  float64
	cooldown        time.Duration

	dailyPnL       float64
	dailyResetDate string
	lastExecution  time.Time
	log            []*ExecutionRecord

	now func() time.Time
}

// Config holds executor configuration.
type Config struct {
	Enabled         bool
	MaxPositionUSD  float64
	MaxDailyLossUSD float64
	MinProfitCents  float64
	Cooldown        time.Duration
	Kalshi          LegExecutor
	Polymarket      LegExecutor
	Logger          *zap.Logger
}

// New creates a new executor.
func New(cfg *Config) *Executor {
	return &Executor{
		logger:          cfg.Logger,
		kalshi:          cfg.Kalshi,
		polymarket:      cfg.Polymarket,
		enabled:         cfg.Enabled,
		maxPositionUSD:  cfg.MaxPositionUSD,
		maxDailyLossUSD: cfg.MaxDailyLossUSD,
		minProfitCents:  cfg.MinProfitCents,
		cooldown:        cfg.Cooldown,
		now:             time.Now,
	}
}

// Enabled reports whether auto-execution is on.
func (e *Executor) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// SetEnabled flips the auto-execution switch.
func (e *Executor) SetEnabled(enabled bool) {
	e.mu.Lock()
	e.enabled = enabled
	e.mu.Unlock()
	e.logger.Info("auto-execute-updated", zap.Bool("enabled", enabled))
}

// SetMinProfitCents updates the execution-side profit floor.
func (e *Executor) SetMinProfitCents(cents float64) {
	e.mu.Lock()
	e.minProfitCents = cents
	e.mu.Unlock()
}

// SetMaxPositionUSD updates the per-trade position cap.
func (e *Executor) SetMaxPositionUSD(usd float64) {
	e.mu.Lock()
	e.maxPositionUSD = usd
	e.mu.Unlock()
}

// DailyPnL returns today's accumulated estimated PnL.
func (e *Executor) DailyPnL() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetDailyIfNeeded()
	return e.dailyPnL
}

// ExecutionLog returns a copy of the bounded execution log, newest last.
func (e *Executor) ExecutionLog() []*ExecutionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*ExecutionRecord, len(e.log))
	copy(out, e.log)
	return out
}

// resetDailyIfNeeded zeroes the PnL counter on the first touch of each
// UTC day. Caller holds e.mu.
func (e *Executor) resetDailyIfNeeded() {
	today := e.now().UTC().Format("2006-01-02")
	if e.dailyResetDate != today {
		e.dailyPnL = 0
		e.dailyResetDate = today
	}
}

// positionSize caps the opportunity's size by the per-trade limit. An
// unknown size (0) trades the configured maximum. Caller holds e.mu.
func (e *Executor) positionSize(opp *types.Opportunity) float64 {
	if opp.MaxSize > 0 && opp.MaxSize < e.maxPositionUSD {
		return opp.MaxSize
	}
	return e.maxPositionUSD
}

// checkGuardrails returns the reason execution is blocked, or "" to
// proceed. Caller holds e.mu.
func (e *Executor) checkGuardrails(opp *types.Opportunity) string {
	if !e.enabled {
		return "auto-execution is disabled"
	}

	e.resetDailyIfNeeded()

	if e.dailyPnL < -e.maxDailyLossUSD {
		return fmt.Sprintf("daily loss limit reached ($%.2f)", e.dailyPnL)
	}

	if opp.Profit*100 < e.minProfitCents {
		return fmt.Sprintf("profit %.1f cents below minimum %.1f cents", opp.Profit*100, e.minProfitCents)
	}

	if !e.lastExecution.IsZero() {
		elapsed := e.now().Sub(e.lastExecution)
		if elapsed < e.cooldown {
			return fmt.Sprintf("cooldown active (%.1fs / %.1fs)", elapsed.Seconds(), e.cooldown.Seconds())
		}
	}

	if e.positionSize(opp) <= 0 {
		return "no executable size available"
	}

	return ""
}

// Execute attempts both legs of the opportunity. Guardrail blocks are
// recorded but return no error; leg failures are recorded with the
// partial-fill flag when only one side went through.
func (e *Executor) Execute(ctx context.Context, opp *types.Opportunity) *ExecutionRecord {
	e.mu.Lock()
	if reason := e.checkGuardrails(opp); reason != "" {
		record := e.appendRecordLocked(&ExecutionRecord{
			Opportunity: opp,
			Error:       reason,
		})
		e.mu.Unlock()
		ExecutionsTotal.WithLabelValues("blocked").Inc()
		e.logger.Info("execution-blocked", zap.String("reason", reason))
		return record
	}
	size := e.positionSize(opp)
	e.mu.Unlock()

	e.logger.Info("executing-arbitrage",
		zap.String("direction", string(opp.Direction)),
		zap.Float64("cost", opp.Cost),
		zap.Float64("profit", opp.Profit),
		zap.Float64("size", size))

	var yesErr, noErr error
	var wg sync.WaitGroup
	wg.Add(2)
	if opp.Direction == types.DirectionKalshiYesPolyNo {
		go func() { defer wg.Done(); yesErr = e.kalshi.BuyYes(ctx, opp, size) }()
		go func() { defer wg.Done(); noErr = e.polymarket.BuyNo(ctx, opp, size) }()
	} else {
		go func() { defer wg.Done(); yesErr = e.polymarket.BuyYes(ctx, opp, size) }()
		go func() { defer wg.Done(); noErr = e.kalshi.BuyNo(ctx, opp, size) }()
	}
	wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()

	if yesErr != nil || noErr != nil {
		firstErr := yesErr
		if firstErr == nil {
			firstErr = noErr
		}
		record := e.appendRecordLocked(&ExecutionRecord{
			Opportunity: opp,
			Size:        size,
			Error:       firstErr.Error(),
			PartialFill: (yesErr == nil) != (noErr == nil),
		})
		ExecutionsTotal.WithLabelValues("failed").Inc()
		e.logger.Error("execution-failed",
			zap.Bool("partial_fill", record.PartialFill),
			zap.Error(firstErr))
		return record
	}

	estimatedPnL := opp.Profit * size
	e.dailyPnL += estimatedPnL
	e.lastExecution = e.now()
	DailyPnLGauge.Set(e.dailyPnL)

	record := e.appendRecordLocked(&ExecutionRecord{
		Opportunity: opp,
		Size:        size,
		Success:     true,
		PnL:         estimatedPnL,
	})
	ExecutionsTotal.WithLabelValues("success").Inc()
	e.logger.Info("execution-succeeded", zap.Float64("estimated_pnl", estimatedPnL))
	return record
}

// appendRecordLocked stamps and appends a record, trimming the oldest
// entries past the log limit. Caller holds e.mu.
func (e *Executor) appendRecordLocked(record *ExecutionRecord) *ExecutionRecord {
	record.ID = uuid.New().String()
	record.ExecutedAt = e.now().UTC()
	e.log = append(e.log, record)
	if len(e.log) > executionLogLimit {
		e.log = e.log[len(e.log)-executionLogLimit:]
	}
	return record
}
