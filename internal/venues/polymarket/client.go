// Package polymarket discovers active Polymarket markets via the Gamma
// API and enriches them with CLOB orderbook data.
package polymarket

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/restclient"
	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

const eventPageLimit = 100

// Client fetches markets and orderbooks from Polymarket.
type Client struct {
	rest       *restclient.Client
	gammaURL   string
	clobURL    string
	logger     *zap.Logger
	maxMarkets int

	// pauses between pages and per-token book fetches, shortened in tests
	pagePause time.Duration
	bookPause time.Duration
}

// Config holds Polymarket client configuration.
type Config struct {
	GammaURL   string
	ClobURL    string
	MaxRPS     int
	MaxMarkets int
	Logger     *zap.Logger
}

// New creates a new Polymarket client. Gamma and CLOB requests share
// one token bucket.
func New(cfg *Config) *Client {
	return &Client{
		rest: restclient.New(&restclient.Config{
			Venue:  string(types.VenuePolymarket),
			MaxRPS: cfg.MaxRPS,
			Logger: cfg.Logger,
		}),
		gammaURL:   strings.TrimRight(cfg.GammaURL, "/"),
		clobURL:    strings.TrimRight(cfg.ClobURL, "/"),
		logger:     cfg.Logger,
		maxMarkets: cfg.MaxMarkets,
		pagePause:  100 * time.Millisecond,
		bookPause:  50 * time.Millisecond,
	}
}

// Close releases the underlying HTTP resources.
func (c *Client) Close() {
	c.rest.Close()
}

// flexFloat decodes JSON numbers that Gamma sometimes serializes as
// strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexStrings decodes a JSON array that Gamma sometimes wraps in a
// string, e.g. "[\"Yes\", \"No\"]". Unparseable input decodes to nil.
type flexStrings []string

func (l *flexStrings) UnmarshalJSON(data []byte) error {
	raw := data
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			*l = nil
			return nil
		}
		raw = []byte(s)
	}
	var inner []string
	err := json.Unmarshal(raw, &inner)
	if err != nil {
		*l = nil
		return nil
	}
	*l = inner
	return nil
}

// flexFloats is flexStrings for numeric arrays, tolerating stringly
// elements inside the array as well.
type flexFloats []float64

func (l *flexFloats) UnmarshalJSON(data []byte) error {
	raw := data
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			*l = nil
			return nil
		}
		raw = []byte(s)
	}
	var inner []flexFloat
	err := json.Unmarshal(raw, &inner)
	if err != nil {
		*l = nil
		return nil
	}
	out := make([]float64, len(inner))
	for i, v := range inner {
		out[i] = float64(v)
	}
	*l = out
	return nil
}

type gammaMarket struct {
	ID            string      `json:"id"`
	Question      string      `json:"question"`
	Title         string      `json:"title"`
	ConditionID   string      `json:"conditionId"`
	Volume        flexFloat   `json:"volume"`
	Outcomes      flexStrings `json:"outcomes"`
	OutcomePrices flexFloats  `json:"outcomePrices"`
	ClobTokenIDs  flexStrings `json:"clobTokenIds"`
	EndDateSnake  string      `json:"end_date_iso"`
	EndDate       string      `json:"endDate"`
	EndDateISO    string      `json:"endDateIso"`
	CloseTime     string      `json:"close_time"`
}

type gammaEvent struct {
	Title   string        `json:"title"`
	Slug    string        `json:"slug"`
	Markets []gammaMarket `json:"markets"`
}

// FetchActiveMarkets pages through active Gamma events ordered by 24h
// volume and flattens their markets, up to the configured cap.
func (c *Client) FetchActiveMarkets(ctx context.Context) ([]*types.Market, error) {
	start := time.Now()
	var markets []*types.Market
	offset := 0

	for len(markets) < c.maxMarkets {
		params := url.Values{
			"active":    {"true"},
			"closed":    {"false"},
			"archived":  {"false"},
			"limit":     {strconv.Itoa(eventPageLimit)},
			"offset":    {strconv.Itoa(offset)},
			"order":     {"volume24hr"},
			"ascending": {"false"},
		}

		body, err := c.rest.Get(ctx, c.gammaURL+"/events", params)
		if err != nil {
			if len(markets) > 0 {
				c.logger.Warn("polymarket-events-page-failed",
					zap.Int("offset", offset),
					zap.Error(err))
				break
			}
			return nil, fmt.Errorf("fetch events offset=%d: %w", offset, err)
		}

		var events []gammaEvent
		err = json.Unmarshal(body, &events)
		if err != nil {
			c.logger.Warn("polymarket-events-decode-failed", zap.Error(err))
			break
		}
		if len(events) == 0 {
			break
		}

	flatten:
		for i := range events {
			event := &events[i]
			for j := range event.Markets {
				markets = append(markets, parseMarket(&event.Markets[j], event))
				if len(markets) >= c.maxMarkets {
					break flatten
				}
			}
		}

		if len(events) < eventPageLimit {
			break
		}
		offset += eventPageLimit
		if !sleepCtx(ctx, c.pagePause) {
			break
		}
	}

	FetchDurationSeconds.Observe(time.Since(start).Seconds())
	MarketsFetched.Set(float64(len(markets)))
	c.logger.Info("polymarket-markets-fetched",
		zap.Int("total", len(markets)),
		zap.Int("cap", c.maxMarkets),
		zap.Duration("elapsed", time.Since(start)))

	return markets, nil
}

func parseMarket(mkt *gammaMarket, event *gammaEvent) *types.Market {
	title := mkt.Question
	if title == "" {
		title = mkt.Title
	}

	outcomes := make([]types.Outcome, 0, len(mkt.Outcomes))
	for i, name := range mkt.Outcomes {
		price := 0.0
		if i < len(mkt.OutcomePrices) {
			price = mkt.OutcomePrices[i]
		}
		tokenID := ""
		if i < len(mkt.ClobTokenIDs) {
			tokenID = mkt.ClobTokenIDs[i]
		}
		noPrice := 0.0
		if price != 0 {
			noPrice = types.Round(1.0-price, 4)
		}
		outcomes = append(outcomes, types.Outcome{
			Name:     name,
			TokenID:  tokenID,
			YesPrice: price,
			NoPrice:  noPrice,
		})
	}

	// Gamma is inconsistent about the expiry field name; try the
	// variants in order of how reliably they are populated.
	var expiration *time.Time
	for _, raw := range []string{mkt.EndDateSnake, mkt.EndDate, mkt.EndDateISO, mkt.CloseTime} {
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}
		expiration = &t
		break
	}

	return &types.Market{
		Venue:      types.VenuePolymarket,
		ID:         mkt.ID,
		Title:      title,
		EventTitle: event.Title,
		Outcomes:   outcomes,
		Expiration: expiration,
		Volume:     float64(mkt.Volume),
		URL:        "https://polymarket.com/event/" + event.Slug,
		Ticker:     mkt.ConditionID,
	}
}

type bookLevel struct {
	Price flexFloat `json:"price"`
	Size  flexFloat `json:"size"`
}

type bookResponse struct {
	Bids []bookLevel `json:"bids"`
	Asks []bookLevel `json:"asks"`
}

// fetchBook fetches the CLOB book for one token. A 404 means the token
// has no book and returns an empty response.
func (c *Client) fetchBook(ctx context.Context, tokenID string) (*bookResponse, error) {
	body, err := c.rest.Get(ctx, c.clobURL+"/book", url.Values{"token_id": {tokenID}})
	if err != nil {
		var statusErr *restclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			OrderbookMissingTotal.Inc()
			return &bookResponse{}, nil
		}
		return nil, err
	}

	var book bookResponse
	err = json.Unmarshal(body, &book)
	if err != nil {
		return nil, fmt.Errorf("decode book: %w", err)
	}
	return &book, nil
}

// EnrichOrderbook fetches the CLOB book for every outcome token and
// fills bid, ask and depth. The NO side is the complement of the YES
// book, so no_depth mirrors yes_depth.
func (c *Client) EnrichOrderbook(ctx context.Context, market *types.Market) error {
	for i := range market.Outcomes {
		outcome := &market.Outcomes[i]
		if outcome.TokenID == "" {
			continue
		}

		book, err := c.fetchBook(ctx, outcome.TokenID)
		if err != nil {
			OrderbookErrorsTotal.Inc()
			return fmt.Errorf("fetch book for token %s: %w", shortToken(outcome.TokenID), err)
		}

		if len(book.Asks) > 0 {
			best := book.Asks[0]
			for _, lvl := range book.Asks[1:] {
				if lvl.Price < best.Price {
					best = lvl
				}
			}
			outcome.YesAsk = float64(best.Price)
			outcome.YesDepth = float64(best.Size)
		}

		if len(book.Bids) > 0 {
			best := book.Bids[0]
			for _, lvl := range book.Bids[1:] {
				if lvl.Price > best.Price {
					best = lvl
				}
			}
			outcome.YesBid = float64(best.Price)
		}

		if outcome.YesBid > 0 {
			outcome.NoAsk = types.Round(1.0-outcome.YesBid, 4)
		}
		if outcome.YesAsk > 0 {
			outcome.NoBid = types.Round(1.0-outcome.YesAsk, 4)
		}
		outcome.NoDepth = outcome.YesDepth

		if i < len(market.Outcomes)-1 {
			if !sleepCtx(ctx, c.bookPause) {
				break
			}
		}
	}

	return nil
}

func shortToken(tokenID string) string {
	if len(tokenID) > 20 {
		return tokenID[:20]
	}
	return tokenID
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
