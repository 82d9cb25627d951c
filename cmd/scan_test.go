package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{
			name:     "short-string-unchanged",
			input:    "Bitcoin above 100k",
			max:      50,
			expected: "Bitcoin above 100k",
		},
		{
			name:     "exact-length-unchanged",
			input:    "abcde",
			max:      5,
			expected: "abcde",
		},
		{
			name:     "long-string-trimmed-with-ellipsis",
			input:    "Will the Fed cut interest rates at the next meeting",
			max:      20,
			expected: "Will the Fed cut ...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.max)
			assert.Equal(t, tt.expected, got)
			assert.LessOrEqual(t, len(got), tt.max)
		})
	}
}

func TestPrintOpportunities(t *testing.T) {
	kalshiMarket := &types.Market{
		Venue:    types.VenueKalshi,
		Ticker:   "KXBTC-25DEC31",
		Title:    "Bitcoin above $100k on Dec 31?",
		Outcomes: []types.Outcome{{}},
	}
	polyMarket := &types.Market{
		Venue:    types.VenuePolymarket,
		Title:    "Will Bitcoin be above $100k on Dec 31?",
		Outcomes: []types.Outcome{{}},
	}

	opp := &types.Opportunity{
		Pair:      types.NewMatchedPair(kalshiMarket, polyMarket, 92.5),
		Direction: types.DirectionKalshiYesPolyNo,
		Cost:      0.9885,
		Profit:    0.0115,
		ROI:       1.16,
		MaxSize:   100,
		Timestamp: time.Now().UTC(),
	}

	var buf bytes.Buffer
	printOpportunities(&buf, []*types.Opportunity{opp})

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "ROI%")
	assert.Contains(t, out, "1.16")
	assert.Contains(t, out, "$0.0115")
	assert.Contains(t, out, "$0.9885")
	assert.Contains(t, out, "Bitcoin above $100k on Dec 31?")
}

func TestPrintMatches(t *testing.T) {
	pair := types.NewMatchedPair(
		&types.Market{Venue: types.VenueKalshi, Title: "Kalshi title",
			Outcomes: []types.Outcome{{}}},
		&types.Market{Venue: types.VenuePolymarket, Title: "Polymarket title",
			Outcomes: []types.Outcome{{}}},
		88.3,
	)

	var buf bytes.Buffer
	printMatches(&buf, []*types.MatchedPair{pair})

	out := buf.String()
	assert.Contains(t, out, "88.3")
	assert.Contains(t, out, "Kalshi title")
	assert.Contains(t, out, "Polymarket title")
}
