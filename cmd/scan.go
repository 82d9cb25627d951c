package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dpereira/kalshi-poly-arb/internal/arbitrage"
	"github.com/dpereira/kalshi-poly-arb/internal/matching"
	"github.com/dpereira/kalshi-poly-arb/internal/venues/kalshi"
	"github.com/dpereira/kalshi-poly-arb/internal/venues/polymarket"
	"github.com/dpereira/kalshi-poly-arb/pkg/cache"
	"github.com/dpereira/kalshi-poly-arb/pkg/config"
	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan and print opportunities",
	Long: `Fetches markets from both venues once, matches them, enriches the
matched pairs with orderbooks and prints detected opportunities as a
table. Useful for debugging matching and detection without starting
the service.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolP("matches", "m", false, "Also print matched pairs without opportunities")
}

func runScan(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	showMatches, _ := cmd.Flags().GetBool("matches")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	matchCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100000,
		MaxCost:     10000,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}

	kalshiClient := kalshi.New(&kalshi.Config{
		BaseURL:    cfg.KalshiAPIURL,
		MaxRPS:     cfg.KalshiMaxRPS,
		MaxMarkets: cfg.MaxKalshiMarkets,
		Logger:     logger,
	})
	defer kalshiClient.Close()

	polyClient := polymarket.New(&polymarket.Config{
		GammaURL:   cfg.PolymarketGammaURL,
		ClobURL:    cfg.PolymarketClobURL,
		MaxRPS:     cfg.PolymarketMaxRPS,
		MaxMarkets: cfg.MaxPolymarketMarkets,
		Logger:     logger,
	})
	defer polyClient.Close()

	fmt.Println("Fetching markets from both venues...")

	var kalshiMarkets, polyMarkets []*types.Market
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var fetchErr error
		kalshiMarkets, fetchErr = kalshiClient.FetchActiveMarkets(gctx)
		return fetchErr
	})
	g.Go(func() error {
		var fetchErr error
		polyMarkets, fetchErr = polyClient.FetchActiveMarkets(gctx)
		return fetchErr
	})
	err = g.Wait()
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	fmt.Printf("Kalshi: %d markets, Polymarket: %d markets\n",
		len(kalshiMarkets), len(polyMarkets))

	matcher := matching.New(&matching.Config{
		Threshold:     float64(cfg.MatchThreshold),
		OverridesPath: cfg.OverridesPath,
		Cache:         matchCache,
		Logger:        logger,
	})

	pairs := matcher.Match(kalshiMarkets, polyMarkets)
	fmt.Printf("Matched pairs: %d\n\n", len(pairs))

	if showMatches {
		printMatches(os.Stdout, pairs)
	}

	fmt.Println("Enriching matched pairs with orderbooks...")
	for _, pair := range pairs {
		err = kalshiClient.EnrichOrderbook(ctx, pair.KalshiMarket)
		if err != nil {
			logger.Debug("kalshi-enrich-failed")
		}
		err = polyClient.EnrichOrderbook(ctx, pair.PolymarketMarket)
		if err != nil {
			logger.Debug("polymarket-enrich-failed")
		}
		pair.RelinkOutcomes()
	}

	detector := arbitrage.New(&arbitrage.Config{
		KalshiFeeRate:     cfg.KalshiFeeRate,
		PolymarketFeeRate: cfg.PolymarketFeeRate,
		Logger:            logger,
	})

	opps := detector.Detect(pairs, cfg.MinProfitCents)
	if len(opps) == 0 {
		fmt.Println("No opportunities found.")
		return nil
	}

	printOpportunities(os.Stdout, opps)
	return nil
}

func printMatches(out io.Writer, pairs []*types.MatchedPair) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tKALSHI\tPOLYMARKET\n")
	fmt.Fprintf(w, "-----\t------\t----------\n")
	for _, pair := range pairs {
		fmt.Fprintf(w, "%.1f\t%s\t%s\n",
			pair.SimilarityScore,
			truncate(pair.KalshiMarket.Title, 50),
			truncate(pair.PolymarketMarket.Title, 50))
	}
	_ = w.Flush()
	fmt.Fprintln(out)
}

func printOpportunities(out io.Writer, opps []*types.Opportunity) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ROI%%\tPROFIT\tCOST\tMAX SIZE\tDIRECTION\tMARKET\n")
	fmt.Fprintf(w, "----\t------\t----\t--------\t---------\t------\n")
	for _, opp := range opps {
		fmt.Fprintf(w, "%.2f\t$%.4f\t$%.4f\t%.0f\t%s\t%s\n",
			opp.ROI,
			opp.Profit,
			opp.Cost,
			opp.MaxSize,
			opp.Direction,
			truncate(opp.Pair.KalshiMarket.Title, 45))
	}
	_ = w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
