// Package scanner runs the periodic fetch, match, detect, execute loop
// and holds the latest scan results for the control plane.
package scanner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dpereira/kalshi-poly-arb/internal/execution"
	"github.com/dpereira/kalshi-poly-arb/internal/storage"
	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

const (
	enrichBatchSize  = 8
	initialBackoff   = time.Second
	maxBackoff       = 60 * time.Second
	errorRingLimit   = 20
	errorSnapshotLen = 5
)

// MarketSource discovers markets and enriches them with orderbooks.
type MarketSource interface {
	FetchActiveMarkets(ctx context.Context) ([]*types.Market, error)
	EnrichOrderbook(ctx context.Context, market *types.Market) error
	Close()
}

// PairMatcher pairs markets across venues.
type PairMatcher interface {
	Match(kalshiMarkets, polyMarkets []*types.Market) []*types.MatchedPair
	SetThreshold(threshold float64)
	Threshold() float64
}

// Detector finds opportunities on matched pairs.
type Detector interface {
	Detect(pairs []*types.MatchedPair, minProfitCents float64) []*types.Opportunity
}

// TradeExecutor executes opportunities behind guardrails.
type TradeExecutor interface {
	Execute(ctx context.Context, opp *types.Opportunity) *execution.ExecutionRecord
	Enabled() bool
	SetEnabled(enabled bool)
	SetMinProfitCents(cents float64)
	SetMaxPositionUSD(usd float64)
}

// Scanner orchestrates the scan loop.
type Scanner struct {
	kalshi   MarketSource
	poly     MarketSource
	matcher  PairMatcher
	detector Detector
	executor TradeExecutor
	store    storage.Storage
	logger   *zap.Logger

	// enrichment batch pause, shortened in tests
	enrichPause time.Duration

	mu             sync.RWMutex
	scanInterval   time.Duration
	minProfitCents float64
	running        bool
	stopCh         chan struct{}
	done           chan struct{}

	kalshiCount   int
	polyCount     int
	matchedPairs  []*types.MatchedPair
	opportunities []*types.Opportunity
	totalScans    int
	lastScan      string
	errors        []string

	subMu       sync.Mutex
	subscribers []Subscriber
}

// Config holds scanner configuration.
type Config struct {
	Kalshi         MarketSource
	Polymarket     MarketSource
	Matcher        PairMatcher
	Detector       Detector
	Executor       TradeExecutor
	Storage        storage.Storage
	ScanInterval   time.Duration
	MinProfitCents float64
	Logger         *zap.Logger
}

// New creates a new scanner.
func New(cfg *Config) *Scanner {
	return &Scanner{
		kalshi:         cfg.Kalshi,
		poly:           cfg.Polymarket,
		matcher:        cfg.Matcher,
		detector:       cfg.Detector,
		executor:       cfg.Executor,
		store:          cfg.Storage,
		logger:         cfg.Logger,
		enrichPause:    200 * time.Millisecond,
		scanInterval:   cfg.ScanInterval,
		minProfitCents: cfg.MinProfitCents,
	}
}

// Start launches the scan loop. Calling Start on a running scanner is a
// no-op.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("scanner-already-running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	stopCh := s.stopCh
	done := s.done
	interval := s.scanInterval
	s.mu.Unlock()

	s.logger.Info("scanner-started", zap.Duration("interval", interval))
	go s.runLoop(ctx, stopCh, done)
}

// Stop halts the loop, waits for the current scan to finish and closes
// the venue clients.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	s.kalshi.Close()
	s.poly.Close()
	s.logger.Info("scanner-stopped")
}

// runLoop scans on the configured interval. A failed scan backs off
// exponentially from 1s to 60s; the next success resets the backoff.
func (s *Scanner) runLoop(ctx context.Context, stopCh chan struct{}, done chan struct{}) {
	defer close(done)
	backoff := initialBackoff

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		err := s.scanOnce(ctx)
		if err != nil {
			ScanErrorsTotal.Inc()
			s.recordError(err)
			s.logger.Error("scan-failed", zap.Error(err), zap.Duration("backoff", backoff))

			if !s.waitOrStop(ctx, stopCh, backoff) {
				return
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		if !s.waitOrStop(ctx, stopCh, s.interval()) {
			return
		}
	}
}

func (s *Scanner) interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanInterval
}

func (s *Scanner) waitOrStop(ctx context.Context, stopCh chan struct{}, d time.Duration) bool {
	select {
	case <-stopCh:
		return false
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// scanOnce runs one full pipeline pass: concurrent venue fetch, match,
// orderbook enrichment, detection, journaling, broadcast and optional
// auto-execution of the top opportunity.
func (s *Scanner) scanOnce(ctx context.Context) error {
	start := time.Now()

	var kalshiMarkets, polyMarkets []*types.Market
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		kalshiMarkets, err = s.kalshi.FetchActiveMarkets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		polyMarkets, err = s.poly.FetchActiveMarkets(gctx)
		return err
	})
	err := g.Wait()
	if err != nil {
		return err
	}

	matched := s.matcher.Match(kalshiMarkets, polyMarkets)

	s.enrichOrderbooks(ctx, matched)
	for _, pair := range matched {
		pair.RelinkOutcomes()
	}

	opportunities := s.detector.Detect(matched, s.MinProfitCents())

	for _, opp := range opportunities {
		storeErr := s.store.StoreOpportunity(ctx, opp)
		if storeErr != nil {
			s.logger.Warn("opportunity-store-failed", zap.Error(storeErr))
		}
	}

	s.mu.Lock()
	s.kalshiCount = len(kalshiMarkets)
	s.polyCount = len(polyMarkets)
	s.matchedPairs = matched
	s.opportunities = opportunities
	s.totalScans++
	s.lastScan = time.Now().UTC().Format(time.RFC3339)
	scanNumber := s.totalScans
	s.mu.Unlock()

	ScansTotal.Inc()
	ScanDurationSeconds.Observe(time.Since(start).Seconds())
	LastScanTimestamp.SetToCurrentTime()
	s.logger.Info("scan-complete",
		zap.Int("scan", scanNumber),
		zap.Int("kalshi_markets", len(kalshiMarkets)),
		zap.Int("polymarket_markets", len(polyMarkets)),
		zap.Int("matched_pairs", len(matched)),
		zap.Int("opportunities", len(opportunities)),
		zap.Duration("elapsed", time.Since(start)))

	s.broadcast()

	if s.executor.Enabled() && len(opportunities) > 0 {
		s.executor.Execute(ctx, opportunities[0])
	}

	return nil
}

// enrichOrderbooks fetches books for every matched market, in batches
// so one scan does not hammer either venue. Individual failures are
// logged and the pair keeps its mid prices.
func (s *Scanner) enrichOrderbooks(ctx context.Context, pairs []*types.MatchedPair) {
	type task func() error

	var tasks []task
	for _, pair := range pairs {
		km := pair.KalshiMarket
		tasks = append(tasks, func() error { return s.kalshi.EnrichOrderbook(ctx, km) })

		if pair.PolymarketOutcome != nil && pair.PolymarketOutcome.TokenID != "" {
			pm := pair.PolymarketMarket
			tasks = append(tasks, func() error { return s.poly.EnrichOrderbook(ctx, pm) })
		}
	}

	for i := 0; i < len(tasks); i += enrichBatchSize {
		end := i + enrichBatchSize
		if end > len(tasks) {
			end = len(tasks)
		}

		var wg sync.WaitGroup
		for _, t := range tasks[i:end] {
			wg.Add(1)
			go func(t task) {
				defer wg.Done()
				err := t()
				if err != nil {
					s.logger.Debug("orderbook-enrich-failed", zap.Error(err))
				}
			}(t)
		}
		wg.Wait()

		if end < len(tasks) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.enrichPause):
			}
		}
	}
}

// MinProfitCents returns the current detection profit floor.
func (s *Scanner) MinProfitCents() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minProfitCents
}

func (s *Scanner) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err.Error())
	if len(s.errors) > errorRingLimit {
		s.errors = s.errors[len(s.errors)-errorRingLimit:]
	}
}
