package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/foliotrack/portfolio-engine/internal/model"
	"github.com/foliotrack/portfolio-engine/internal/ticker"
)

// Others is the catch-all sector for symbols missing from the table.
const Others = "Others"

// SectorTable maps a canonical symbol to its sector label.
type SectorTable map[string]string

// DefaultSectorTable returns the built-in symbol to sector mapping.
func DefaultSectorTable() SectorTable {
	t := SectorTable{}
	add := func(sector string, symbols ...string) {
		for _, s := range symbols {
			t[s] = sector
		}
	}
	add("IT", "TCS", "INFY", "WIPRO", "TECHM", "HCLTECH")
	add("Banking", "HDFCBANK", "ICICIBANK", "SBIN", "KOTAKBANK", "AXISBANK")
	add("Energy", "RELIANCE", "ONGC", "BPCL", "IOC")
	add("Telecom", "BHARTIARTL", "IDEA")
	add("Consumer", "ASIANPAINT", "NESTLEIND", "HINDUNILVR", "ITC", "BRITANNIA")
	add("Auto", "MARUTI", "TATAMOTORS", "M&M", "BAJAJ-AUTO")
	return t
}

// SectorOf returns the sector of symbol, or Others.
func (t SectorTable) SectorOf(symbol string) string {
	if sector, ok := t[ticker.Canonical(symbol)]; ok {
		return sector
	}
	return Others
}

// SectorShare is one bucket of an allocation.
type SectorShare struct {
	Name    string          `json:"name"`
	Value   decimal.Decimal `json:"value"`   // summed current value
	Percent decimal.Decimal `json:"percent"` // share of total, 1 dp
}

// Allocation lists sector buckets in order of first encounter.
type Allocation []SectorShare

// Empty reports whether there is nothing to display. Callers should render
// a no-data state rather than a zero-filled chart.
func (a Allocation) Empty() bool { return len(a) == 0 }

// Percentages returns the allocation as sector → percent.
func (a Allocation) Percentages() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a))
	for _, s := range a {
		out[s.Name] = s.Percent
	}
	return out
}

// SortedBySize returns a copy ordered by value, largest first. Ties keep
// their encounter order.
func (a Allocation) SortedBySize() Allocation {
	out := make(Allocation, len(a))
	copy(out, a)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.GreaterThan(out[j].Value)
	})
	return out
}

// Allocator buckets holdings into sectors using a fixed table.
type Allocator struct {
	table SectorTable
}

// NewAllocator creates an allocator. A nil table means DefaultSectorTable.
func NewAllocator(table SectorTable) *Allocator {
	if table == nil {
		table = DefaultSectorTable()
	}
	return &Allocator{table: table}
}

// Allocate sums current value per sector and computes each sector's share
// of the total, rounded to one decimal place. A zero total yields an empty
// allocation.
func (a *Allocator) Allocate(holdings []model.Holding) Allocation {
	var order []string
	totals := make(map[string]decimal.Decimal)

	for _, h := range holdings {
		sector := a.table.SectorOf(h.Symbol)
		if _, seen := totals[sector]; !seen {
			order = append(order, sector)
		}
		totals[sector] = totals[sector].Add(h.CurrentValue)
	}

	total := decimal.Zero
	for _, v := range totals {
		total = total.Add(v)
	}
	if total.IsZero() {
		return Allocation{}
	}

	hundred := decimal.NewFromInt(100)
	out := make(Allocation, 0, len(order))
	for _, sector := range order {
		out = append(out, SectorShare{
			Name:    sector,
			Value:   totals[sector],
			Percent: totals[sector].Div(total).Mul(hundred).Round(1),
		})
	}
	return out
}
