// Package model defines the core domain types shared across the portfolio engine.
// All monetary values use shopspring/decimal, never float64.
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The dashboard consumes amounts as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ConnectionStatus is the lifecycle state of a stored broker connection.
type ConnectionStatus string

// StatusConnected is the only state a stored connection can be in; a
// disconnected broker has no record at all.
const StatusConnected ConnectionStatus = "connected"

// Holding is a single position within one broker account.
// InvestedValue and CurrentValue are stored as written, never recomputed.
type Holding struct {
	Symbol        string          `json:"symbol" yaml:"symbol"`
	Name          string          `json:"name" yaml:"name"`
	Quantity      decimal.Decimal `json:"quantity" yaml:"quantity"`
	AvgPrice      decimal.Decimal `json:"avgPrice" yaml:"avgPrice"`
	CurrentPrice  decimal.Decimal `json:"currentPrice" yaml:"currentPrice"`
	InvestedValue decimal.Decimal `json:"investedValue" yaml:"investedValue"`
	CurrentValue  decimal.Decimal `json:"currentValue" yaml:"currentValue"`
	Broker        string          `json:"broker" yaml:"broker"`
}

// PortfolioSummary holds the per-broker totals.
type PortfolioSummary struct {
	Invested       decimal.Decimal `json:"invested" yaml:"invested"`
	CurrentValue   decimal.Decimal `json:"currentValue" yaml:"currentValue"`
	Returns        decimal.Decimal `json:"returns" yaml:"returns"`
	ReturnsPercent decimal.Decimal `json:"returnsPercent" yaml:"returnsPercent"`
}

// NewSummary derives returns and returns percent from the invested and
// current values. ReturnsPercent is rounded to 2 places and is zero when
// nothing was invested.
func NewSummary(invested, currentValue decimal.Decimal) PortfolioSummary {
	returns := currentValue.Sub(invested)
	return PortfolioSummary{
		Invested:       invested,
		CurrentValue:   currentValue,
		Returns:        returns,
		ReturnsPercent: ReturnsPercent(returns, invested),
	}
}

// ReturnsPercent returns returns/invested*100 rounded to 2 places, or zero
// when invested is not positive.
func ReturnsPercent(returns, invested decimal.Decimal) decimal.Decimal {
	if !invested.IsPositive() {
		return decimal.Zero
	}
	return returns.Div(invested).Mul(decimal.NewFromInt(100)).Round(2)
}

// UnmarshalJSON decodes a summary leniently: absent or malformed fields
// become zero instead of failing the whole record.
func (s *PortfolioSummary) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = PortfolioSummary{}
		return nil
	}
	*s = PortfolioSummary{
		Invested:       lenientDecimal(raw["invested"]),
		CurrentValue:   lenientDecimal(raw["currentValue"]),
		Returns:        lenientDecimal(raw["returns"]),
		ReturnsPercent: lenientDecimal(raw["returnsPercent"]),
	}
	return nil
}

func lenientDecimal(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero
	}
	return d
}

// PortfolioRecord is the stored snapshot of one broker's holdings.
// Summary is optional; records without one contribute nothing to totals.
type PortfolioRecord struct {
	Broker     string            `json:"broker"`
	Holdings   []Holding         `json:"holdings"`
	Summary    *PortfolioSummary `json:"summary,omitempty"`
	LastSynced time.Time         `json:"lastSynced"`
	SyncID     string            `json:"syncId,omitempty"`
}

// AggregateSummary holds totals across every broker of one user.
type AggregateSummary struct {
	TotalInvestment   decimal.Decimal `json:"totalInvestment"`
	TotalCurrentValue decimal.Decimal `json:"totalCurrentValue"`
	TotalReturns      decimal.Decimal `json:"totalReturns"`   // totalCurrentValue - totalInvestment
	ReturnsPercent    decimal.Decimal `json:"returnsPercent"` // 0 when nothing invested
}

// AggregatePortfolio is the consolidated cross-broker view. It is computed
// on every read and never persisted.
type AggregatePortfolio struct {
	Summary    AggregateSummary  `json:"summary"`
	Holdings   []Holding         `json:"holdings"`
	Portfolios []PortfolioRecord `json:"portfolios"`
}

// BrokerConnection is the stored record of a connected broker account.
// APISecret is sensitive: never log it, and use Redacted before returning
// the record to a client.
type BrokerConnection struct {
	Broker      string           `json:"broker"`
	ClientID    string           `json:"clientId"`
	APIKey      string           `json:"apiKey,omitempty"`
	APISecret   string           `json:"apiSecret,omitempty"`
	Status      ConnectionStatus `json:"status"`
	ConnectedAt time.Time        `json:"connectedAt"`
	LastSynced  *time.Time       `json:"lastSynced"`
}

// Redacted returns a copy with the API secret masked.
func (c BrokerConnection) Redacted() BrokerConnection {
	if c.APISecret != "" {
		c.APISecret = "***"
	}
	return c
}
