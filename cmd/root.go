// Package cmd holds the CLI entrypoints.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "kalshi-poly-arb",
	Short: "Cross-venue prediction market arbitrage scanner",
	Long: `Cross-venue arbitrage scanner for binary prediction markets.

The scanner fetches active markets from Kalshi and Polymarket, pairs
equivalent markets by fuzzy title matching, and detects positions where
buying YES on one venue and NO on the other costs less than the $1
guaranteed payout after worst-case fees. Detected opportunities are
journaled, broadcast over WebSocket, and optionally executed behind
safety guardrails.`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
