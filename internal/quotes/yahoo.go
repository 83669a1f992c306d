package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// YahooSource resolves quotes from the Yahoo Finance v8 chart endpoint.
// Responses are cached for a short TTL so a burst of trades on the same
// symbol does not hammer the feed.
type YahooSource struct {
	cli   *http.Client
	ttl   time.Duration
	mu    sync.RWMutex
	cache map[string]cachedQuote
}

type cachedQuote struct {
	quote   Quote
	fetched time.Time
}

func NewYahooSource() *YahooSource {
	return &YahooSource{
		cli:   &http.Client{Timeout: 8 * time.Second},
		ttl:   60 * time.Second,
		cache: make(map[string]cachedQuote),
	}
}

var _ Source = (*YahooSource)(nil)

func (y *YahooSource) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return nil, ErrNotFound
	}

	y.mu.RLock()
	if c, ok := y.cache[symbol]; ok && time.Since(c.fetched) < y.ttl {
		y.mu.RUnlock()
		q := c.quote
		return &q, nil
	}
	y.mu.RUnlock()

	url := fmt.Sprintf("https://query2.finance.yahoo.com/v8/finance/chart/%s?interval=1m&range=1d", symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "stocksim/1.0")

	resp, err := y.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo http %d", resp.StatusCode)
	}

	var raw struct {
		Chart struct {
			Result []struct {
				Meta struct {
					Symbol             string  `json:"symbol"`
					ShortName          string  `json:"shortName"`
					LongName           string  `json:"longName"`
					RegularMarketPrice float64 `json:"regularMarketPrice"`
				} `json:"meta"`
			} `json:"result"`
			Error any `json:"error"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw.Chart.Result) == 0 {
		return nil, ErrNotFound
	}

	meta := raw.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, ErrNotFound
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	quote := Quote{
		Symbol: symbol,
		Name:   name,
		Price:  decimal.NewFromFloat(meta.RegularMarketPrice).Round(2),
	}

	y.mu.Lock()
	y.cache[symbol] = cachedQuote{quote: quote, fetched: time.Now()}
	y.mu.Unlock()

	q := quote
	return &q, nil
}
