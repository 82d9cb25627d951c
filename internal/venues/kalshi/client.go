// Package kalshi discovers open Kalshi markets and enriches them with
// orderbook data over the trade API v2.
package kalshi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/pkg/restclient"
	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

const (
	maxPerSeries    = 500
	marketPageLimit = 200
	eventPageLimit  = 100
	maxEventPages   = 30
	maxEvents       = 500
	seriesBatchSize = 8
)

// Client fetches markets and orderbooks from Kalshi.
type Client struct {
	rest       *restclient.Client
	baseURL    string
	logger     *zap.Logger
	maxMarkets int

	// pauses between pages and series batches, shortened in tests
	pagePause  time.Duration
	batchPause time.Duration
}

// Config holds Kalshi client configuration.
type Config struct {
	BaseURL    string
	MaxRPS     int
	MaxMarkets int
	Logger     *zap.Logger
}

// New creates a new Kalshi client.
func New(cfg *Config) *Client {
	return &Client{
		rest: restclient.New(&restclient.Config{
			Venue:  string(types.VenueKalshi),
			MaxRPS: cfg.MaxRPS,
			Logger: cfg.Logger,
		}),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     cfg.Logger,
		maxMarkets: cfg.MaxMarkets,
		pagePause:  100 * time.Millisecond,
		batchPause: 300 * time.Millisecond,
	}
}

// Close releases the underlying HTTP resources.
func (c *Client) Close() {
	c.rest.Close()
}

type marketPayload struct {
	Ticker         string  `json:"ticker"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	YesPrice       float64 `json:"yes_price"`
	NoPrice        float64 `json:"no_price"`
	LastPrice      float64 `json:"last_price"`
	Volume         float64 `json:"volume"`
	EventTicker    string  `json:"event_ticker"`
	SeriesTicker   string  `json:"series_ticker"`
	ExpirationTime string  `json:"expiration_time"`
	CloseTime      string  `json:"close_time"`
}

type marketsResponse struct {
	Markets []marketPayload `json:"markets"`
	Cursor  string          `json:"cursor"`
}

type eventPayload struct {
	Title   string          `json:"title"`
	Markets []marketPayload `json:"markets"`
}

type eventsResponse struct {
	Events []eventPayload `json:"events"`
	Cursor string         `json:"cursor"`
}

// FetchActiveMarkets sweeps the targeted series list plus the events API
// and returns the merged, ticker-deduplicated market set.
func (c *Client) FetchActiveMarkets(ctx context.Context) ([]*types.Market, error) {
	start := time.Now()

	seriesMarkets := c.sweepSeries(ctx)
	events := c.fetchEvents(ctx)

	seen := make(map[string]bool, len(seriesMarkets))
	markets := make([]*types.Market, 0, len(seriesMarkets))

	for _, m := range seriesMarkets {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		markets = append(markets, m)
	}

	eventsAdded := 0
outer:
	for _, event := range events {
		for i := range event.Markets {
			m := parseMarket(&event.Markets[i], event.Title)
			if m == nil || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			markets = append(markets, m)
			eventsAdded++
			if len(markets) >= c.maxMarkets {
				break outer
			}
		}
	}

	FetchDurationSeconds.Observe(time.Since(start).Seconds())
	MarketsFetched.Set(float64(len(markets)))
	c.logger.Info("kalshi-markets-fetched",
		zap.Int("total", len(markets)),
		zap.Int("from_series", len(markets)-eventsAdded),
		zap.Int("from_events", eventsAdded),
		zap.Duration("elapsed", time.Since(start)))

	return markets, nil
}

// sweepSeries fetches every series in SeriesTickers, in batches so a
// full sweep does not trip the venue rate limit at once. Per-series
// failures are logged and skipped.
func (c *Client) sweepSeries(ctx context.Context) []*types.Market {
	var all []*types.Market

	for i := 0; i < len(SeriesTickers); i += seriesBatchSize {
		end := i + seriesBatchSize
		if end > len(SeriesTickers) {
			end = len(SeriesTickers)
		}
		batch := SeriesTickers[i:end]
		results := make([][]*types.Market, len(batch))

		var wg sync.WaitGroup
		for j, series := range batch {
			wg.Add(1)
			go func(slot int, series string) {
				defer wg.Done()
				markets, err := c.fetchSeries(ctx, series)
				if err != nil {
					SeriesErrorsTotal.Inc()
					c.logger.Warn("kalshi-series-failed",
						zap.String("series", series),
						zap.Error(err))
					return
				}
				results[slot] = markets
			}(j, series)
		}
		wg.Wait()

		for _, r := range results {
			all = append(all, r...)
		}

		if end < len(SeriesTickers) {
			if !sleepCtx(ctx, c.batchPause) {
				break
			}
		}
	}

	return all
}

// fetchSeries pages through open markets for one series ticker, up to
// maxPerSeries.
func (c *Client) fetchSeries(ctx context.Context, series string) ([]*types.Market, error) {
	var markets []*types.Market
	cursor := ""

	for len(markets) < maxPerSeries {
		params := url.Values{
			"series_ticker": {series},
			"status":        {"open"},
			"limit":         {strconv.Itoa(marketPageLimit)},
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := c.rest.Get(ctx, c.baseURL+"/markets", params)
		if err != nil {
			if len(markets) > 0 {
				// keep the pages we already have
				c.logger.Warn("kalshi-series-page-failed",
					zap.String("series", series),
					zap.Error(err))
				break
			}
			return nil, err
		}

		var page marketsResponse
		err = json.Unmarshal(body, &page)
		if err != nil {
			return nil, fmt.Errorf("decode markets page: %w", err)
		}

		for i := range page.Markets {
			m := parseMarket(&page.Markets[i], series)
			if m != nil {
				markets = append(markets, m)
			}
		}

		cursor = page.Cursor
		if cursor == "" || len(page.Markets) == 0 {
			break
		}
		if !sleepCtx(ctx, c.pagePause) {
			break
		}
	}

	return markets, nil
}

// fetchEvents pages through open events with nested markets for broad
// coverage beyond the targeted series. Failures truncate, never abort.
func (c *Client) fetchEvents(ctx context.Context) []eventPayload {
	var events []eventPayload
	cursor := ""
	pages := 0

	for len(events) < maxEvents && pages < maxEventPages {
		params := url.Values{
			"status":              {"open"},
			"limit":               {strconv.Itoa(eventPageLimit)},
			"with_nested_markets": {"true"},
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := c.rest.Get(ctx, c.baseURL+"/events", params)
		if err != nil {
			c.logger.Warn("kalshi-events-failed", zap.Error(err))
			break
		}

		var page eventsResponse
		err = json.Unmarshal(body, &page)
		if err != nil {
			c.logger.Warn("kalshi-events-decode-failed", zap.Error(err))
			break
		}

		for i := range page.Events {
			events = append(events, page.Events[i])
			if len(events) >= maxEvents {
				break
			}
		}

		cursor = page.Cursor
		if cursor == "" || len(page.Events) == 0 {
			break
		}
		pages++
		if !sleepCtx(ctx, c.pagePause) {
			break
		}
	}

	return events
}

// parseMarket converts a raw payload into a Market, normalizing cents
// prices into the 0-1 range. Returns nil for unusable rows.
func parseMarket(mkt *marketPayload, eventTitle string) *types.Market {
	if mkt.Ticker == "" || mkt.Title == "" {
		return nil
	}

	yesPrice := mkt.YesPrice
	noPrice := mkt.NoPrice
	if yesPrice == 0 && noPrice == 0 && mkt.LastPrice > 0 {
		yesPrice = mkt.LastPrice
		if yesPrice > 1 {
			yesPrice /= 100.0
		}
		noPrice = types.Round(1.0-yesPrice, 4)
	}
	if yesPrice > 1 {
		yesPrice /= 100.0
	}
	if noPrice > 1 {
		noPrice /= 100.0
	}

	var expiration *time.Time
	expStr := mkt.ExpirationTime
	if expStr == "" {
		expStr = mkt.CloseTime
	}
	if expStr != "" {
		t, err := time.Parse(time.RFC3339, expStr)
		if err == nil {
			expiration = &t
		}
	}

	// Kalshi URLs: /markets/{series}/{event_ticker} links to the event.
	series := mkt.SeriesTicker
	if series == "" && mkt.EventTicker != "" {
		series = strings.SplitN(mkt.EventTicker, "-", 2)[0]
	}
	if series == "" {
		series = strings.SplitN(mkt.Ticker, "-", 2)[0]
	}
	eventSlug := strings.ToLower(mkt.EventTicker)
	if eventSlug == "" {
		eventSlug = strings.ToLower(mkt.Ticker)
	}

	title := eventTitle
	if title == "" {
		title = mkt.Subtitle
	}
	if title == "" {
		title = mkt.EventTicker
	}

	return &types.Market{
		Venue:      types.VenueKalshi,
		ID:         mkt.Ticker,
		Title:      mkt.Title,
		EventTitle: title,
		Outcomes: []types.Outcome{{
			Name:     mkt.Title,
			TokenID:  mkt.Ticker,
			YesPrice: yesPrice,
			NoPrice:  noPrice,
		}},
		Expiration: expiration,
		Volume:     mkt.Volume,
		URL:        fmt.Sprintf("https://kalshi.com/markets/%s/%s", strings.ToLower(series), eventSlug),
		Ticker:     mkt.Ticker,
	}
}

type orderbookResponse struct {
	Orderbook struct {
		Yes [][]float64 `json:"yes"`
		No  [][]float64 `json:"no"`
	} `json:"orderbook"`
}

// EnrichOrderbook fetches the market's orderbook and fills bid, ask and
// depth on every outcome. Kalshi publishes resting bids per side; the
// ask on each side is derived from the best bid on the opposite side.
func (c *Client) EnrichOrderbook(ctx context.Context, market *types.Market) error {
	body, err := c.rest.Get(ctx, fmt.Sprintf("%s/markets/%s/orderbook", c.baseURL, market.Ticker), nil)
	if err != nil {
		OrderbookErrorsTotal.Inc()
		return fmt.Errorf("fetch orderbook %s: %w", market.Ticker, err)
	}

	var book orderbookResponse
	err = json.Unmarshal(body, &book)
	if err != nil {
		OrderbookErrorsTotal.Inc()
		return fmt.Errorf("decode orderbook %s: %w", market.Ticker, err)
	}

	for i := range market.Outcomes {
		outcome := &market.Outcomes[i]

		if len(book.Orderbook.Yes) > 0 {
			outcome.YesBid, outcome.YesDepth = normalizeLevel(book.Orderbook.Yes[0])
		}
		if len(book.Orderbook.No) > 0 {
			outcome.NoBid, outcome.NoDepth = normalizeLevel(book.Orderbook.No[0])
		}

		if outcome.NoBid > 0 {
			outcome.YesAsk = types.Round(1.0-outcome.NoBid, 4)
		}
		if outcome.YesBid > 0 {
			outcome.NoAsk = types.Round(1.0-outcome.YesBid, 4)
		}
	}

	return nil
}

// normalizeLevel converts a [price, size] level from cents to the 0-1
// range.
func normalizeLevel(level []float64) (price, size float64) {
	if len(level) == 0 {
		return 0, 0
	}
	price = level[0]
	if price > 1 {
		price /= 100.0
	}
	if len(level) > 1 {
		size = level[1]
	}
	return price, size
}

// sleepCtx pauses for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
