// Package events publishes trade notifications to interested consumers.
// Publishing is best-effort: a committed trade is never rolled back because
// the event could not be delivered.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopicTradeCompleted carries one TradeCompleted event per committed trade.
const TopicTradeCompleted = "trades.completed"

// TradeCompleted is emitted after the atomic commit step succeeds.
type TradeCompleted struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Symbol        string          `json:"symbol"`
	Quantity      int64           `json:"quantity"` // signed: positive buy, negative sell
	Price         decimal.Decimal `json:"price"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(topic string, event any) error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(topic string, event any) error { return nil }
