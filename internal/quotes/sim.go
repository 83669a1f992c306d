package quotes

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PriceUpdate is one simulated price tick, broadcast to websocket clients.
type PriceUpdate struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Ts     int64   `json:"ts"` // Unix timestamp milliseconds
}

type listing struct {
	name  string
	price float64
}

var defaultListings = map[string]listing{
	"AAPL": {"Apple Inc.", 190.50},
	"AMZN": {"Amazon.com Inc.", 185.70},
	"GOOG": {"Alphabet Inc.", 165.25},
	"MSFT": {"Microsoft Corporation", 420.00},
	"NFLX": {"Netflix Inc.", 640.10},
	"TSLA": {"Tesla Inc.", 250.00},
}

// SimulatedFeed is an in-process quote source: a fixed listing table whose
// prices follow a small random walk. It doubles as the live price feed for
// the websocket hub via the Updates channel.
type SimulatedFeed struct {
	mu      sync.RWMutex
	prices  map[string]float64
	names   map[string]string
	updates chan PriceUpdate
	done    chan struct{}
}

func NewSimulatedFeed() *SimulatedFeed {
	f := &SimulatedFeed{
		prices:  make(map[string]float64, len(defaultListings)),
		names:   make(map[string]string, len(defaultListings)),
		updates: make(chan PriceUpdate, 100),
		done:    make(chan struct{}),
	}
	for symbol, l := range defaultListings {
		f.prices[symbol] = l.price
		f.names[symbol] = l.name
	}
	return f
}

var _ Source = (*SimulatedFeed)(nil)

// Start launches the background tick loop. Stop ends it.
func (f *SimulatedFeed) Start(interval time.Duration) {
	log.Println("Starting simulated quote feed...")
	go f.run(interval)
}

func (f *SimulatedFeed) Stop() {
	close(f.done)
}

// Updates is the stream of price ticks for broadcast consumers.
func (f *SimulatedFeed) Updates() <-chan PriceUpdate {
	return f.updates
}

func (f *SimulatedFeed) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
		}

		f.mu.Lock()
		for symbol := range f.prices {
			// Small random drift, +/- 0.5% per tick.
			changePercent := (rand.Float64() - 0.5) / 100
			newPrice := f.prices[symbol] * (1 + changePercent)
			if newPrice <= 0 {
				newPrice = f.prices[symbol]
			}
			f.prices[symbol] = newPrice

			update := PriceUpdate{
				Symbol: symbol,
				Price:  newPrice,
				Ts:     time.Now().UnixMilli(),
			}
			// Non-blocking send so a full channel never stalls the feed.
			select {
			case f.updates <- update:
			default:
			}
		}
		f.mu.Unlock()
	}
}

func (f *SimulatedFeed) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	symbol = Normalize(symbol)

	f.mu.RLock()
	defer f.mu.RUnlock()

	price, ok := f.prices[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	return &Quote{
		Symbol: symbol,
		Name:   f.names[symbol],
		Price:  decimal.NewFromFloat(price).Round(2),
	}, nil
}

// Snapshot returns a copy of the current price table.
func (f *SimulatedFeed) Snapshot() map[string]float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	prices := make(map[string]float64, len(f.prices))
	for symbol, price := range f.prices {
		prices[symbol] = price
	}
	return prices
}
