package portfolio

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/portfolio-engine/internal/brokersync"
	"github.com/foliotrack/portfolio-engine/internal/model"
)

func h(symbol, currentValue string) model.Holding {
	return model.Holding{Symbol: symbol, CurrentValue: d(currentValue)}
}

func fixtureHoldings() []model.Holding {
	return []model.Holding{
		h("RELIANCE", "122840"),
		h("HDFCBANK", "162340"),
		h("BHARTIARTL", "69784"),
		h("TCS", "89737.5"),
		h("ICICIBANK", "140190"),
		h("ASIANPAINT", "48685.5"),
		h("INFY", "108393.75"),
		h("ITC", "89120"),
	}
}

func TestDefaultSectorTable(t *testing.T) {
	table := DefaultSectorTable()
	cases := map[string]string{
		"TCS":        "IT",
		"hdfcbank":   "Banking",
		"RELIANCE":   "Energy",
		"BHARTIARTL": "Telecom",
		"ITC":        "Consumer",
		"M&M":        "Auto",
		"ZOMATO":     Others,
	}
	for sym, want := range cases {
		assert.Equal(t, want, table.SectorOf(sym), sym)
	}
}

func TestAllocate_EncounterOrderAndRounding(t *testing.T) {
	alloc := NewAllocator(nil).Allocate(fixtureHoldings())

	require.Len(t, alloc, 5)
	want := []struct{ name, value, pct string }{
		{"Energy", "122840", "14.8"},
		{"Banking", "302530", "36.4"},
		{"Telecom", "69784", "8.4"},
		{"IT", "198131.25", "23.8"},
		{"Consumer", "137805.5", "16.6"},
	}
	for i, w := range want {
		assert.Equal(t, w.name, alloc[i].Name)
		assert.True(t, alloc[i].Value.Equal(d(w.value)), "%s value %s", w.name, alloc[i].Value)
		assert.True(t, alloc[i].Percent.Equal(d(w.pct)), "%s percent %s", w.name, alloc[i].Percent)
	}
}

func TestAllocate_SingleBroker(t *testing.T) {
	alloc := NewAllocator(nil).Allocate(fixtureHoldings()[:3])

	p := alloc.Percentages()
	assert.True(t, p["Energy"].Equal(d("34.6")))
	assert.True(t, p["Banking"].Equal(d("45.7")))
	assert.True(t, p["Telecom"].Equal(d("19.7")))
}

func TestAllocate_UnknownSymbolsGoToOthers(t *testing.T) {
	alloc := NewAllocator(nil).Allocate([]model.Holding{h("ZOMATO", "50"), h("PAYTM", "50")})

	require.Len(t, alloc, 1)
	assert.Equal(t, Others, alloc[0].Name)
	assert.True(t, alloc[0].Percent.Equal(d("100")))
}

func TestAllocate_EmptyInput(t *testing.T) {
	alloc := NewAllocator(nil).Allocate(nil)
	assert.True(t, alloc.Empty())
	assert.NotNil(t, alloc)
}

func TestAllocate_ZeroValueHoldingsAreEmpty(t *testing.T) {
	alloc := NewAllocator(nil).Allocate([]model.Holding{h("TCS", "0")})
	assert.True(t, alloc.Empty())
}

func TestAllocate_InjectedTable(t *testing.T) {
	alloc := NewAllocator(SectorTable{"TCS": "Tech"}).Allocate([]model.Holding{h("tcs", "10"), h("INFY", "30")})

	require.Len(t, alloc, 2)
	assert.Equal(t, "Tech", alloc[0].Name)
	assert.True(t, alloc[0].Percent.Equal(d("25")))
	assert.Equal(t, Others, alloc[1].Name)
	assert.True(t, alloc[1].Percent.Equal(d("75")))
}

func TestAllocation_SortedBySize(t *testing.T) {
	alloc := NewAllocator(nil).Allocate(fixtureHoldings())
	sorted := alloc.SortedBySize()

	assert.Equal(t, "Banking", sorted[0].Name)
	assert.Equal(t, "Telecom", sorted[len(sorted)-1].Name)
	// Original keeps encounter order.
	assert.Equal(t, "Energy", alloc[0].Name)
}

func TestAllocate_PercentagesSumToHundred(t *testing.T) {
	sum := decimal.Zero
	for _, s := range NewAllocator(nil).Allocate(fixtureHoldings()) {
		sum = sum.Add(s.Percent)
	}
	assert.True(t, sum.Sub(decimal.NewFromInt(100)).Abs().LessThanOrEqual(d("0.1")), "sum %s", sum)
}

func TestAllocate_RandomPercentagesStayNearHundred(t *testing.T) {
	symbols := []string{"TCS", "HDFCBANK", "RELIANCE", "IDEA", "ITC", "MARUTI", "ZOMATO"}
	rng := rand.New(rand.NewSource(7))
	alloc := NewAllocator(nil)

	for i := 0; i < 200; i++ {
		var holdings []model.Holding
		for j := 0; j <= rng.Intn(10); j++ {
			holdings = append(holdings, model.Holding{
				Symbol:       symbols[rng.Intn(len(symbols))],
				CurrentValue: decimal.New(1+rng.Int63n(1_000_000), -2),
			})
		}
		out := alloc.Allocate(holdings)
		sum := decimal.Zero
		for _, s := range out {
			sum = sum.Add(s.Percent)
		}
		// Arbitrary values: each bucket is off by at most 0.05 after rounding,
		// so the bound grows with the bucket count. The 0.1 bound is checked
		// on the built-in dataset below.
		tolerance := decimal.New(5, -2).Mul(decimal.NewFromInt(int64(len(out))))
		require.True(t, sum.Sub(decimal.NewFromInt(100)).Abs().LessThanOrEqual(tolerance), "sum %s", sum)
	}
}

func TestAllocate_DefaultDatasetSumsWithinOneTenth(t *testing.T) {
	dataset := brokersync.DefaultDataset()
	brokers := []string{"zerodha", "groww", "upstox"}
	alloc := NewAllocator(nil)

	for mask := 1; mask < 1<<len(brokers); mask++ {
		var holdings []model.Holding
		var names []string
		for i, b := range brokers {
			if mask&(1<<i) != 0 {
				holdings = append(holdings, dataset[b].Holdings...)
				names = append(names, b)
			}
		}
		sum := decimal.Zero
		for _, s := range alloc.Allocate(holdings) {
			sum = sum.Add(s.Percent)
		}
		assert.True(t, sum.Sub(decimal.NewFromInt(100)).Abs().LessThanOrEqual(d("0.1")), "%v: sum %s", names, sum)
	}
}

func TestLoadSectorTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("IT: [tcs, INFY]\nPharma: [SUNPHARMA]\n"), 0o644))

	table, err := LoadSectorTable(path)
	require.NoError(t, err)
	assert.Equal(t, "IT", table.SectorOf("TCS"))
	assert.Equal(t, "Pharma", table.SectorOf("sunpharma"))
	assert.Equal(t, Others, table.SectorOf("HDFCBANK"))
}

func TestLoadSectorTable_DuplicateSymbol(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("IT: [TCS]\nBanking: [TCS]\n"), 0o644))

	_, err := LoadSectorTable(path)
	assert.Error(t, err)
}
