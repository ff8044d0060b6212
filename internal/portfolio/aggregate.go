// Package portfolio consolidates per-broker portfolio records into a single
// cross-broker view and derives sector allocation from holdings.
//
// Both operations are pure functions of their input and safe for
// concurrent use.
package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/foliotrack/portfolio-engine/internal/model"
)

// Aggregate merges per-broker records into one AggregatePortfolio.
//
// Records without a summary contribute zero to the totals. Holdings are
// concatenated in record order without merging identical symbols, so a
// symbol held at two brokers appears twice. TotalReturns is derived from
// the two totals rather than summed per broker.
func Aggregate(records []model.PortfolioRecord) model.AggregatePortfolio {
	totalInvestment := decimal.Zero
	totalCurrentValue := decimal.Zero
	holdings := make([]model.Holding, 0)

	for _, rec := range records {
		if rec.Summary != nil {
			totalInvestment = totalInvestment.Add(rec.Summary.Invested)
			totalCurrentValue = totalCurrentValue.Add(rec.Summary.CurrentValue)
		}
		holdings = append(holdings, rec.Holdings...)
	}

	portfolios := make([]model.PortfolioRecord, len(records))
	copy(portfolios, records)

	totalReturns := totalCurrentValue.Sub(totalInvestment)
	return model.AggregatePortfolio{
		Summary: model.AggregateSummary{
			TotalInvestment:   totalInvestment,
			TotalCurrentValue: totalCurrentValue,
			TotalReturns:      totalReturns,
			ReturnsPercent:    model.ReturnsPercent(totalReturns, totalInvestment),
		},
		Holdings:   holdings,
		Portfolios: portfolios,
	}
}
