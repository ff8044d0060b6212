package brokersync

import (
	"github.com/shopspring/decimal"

	"github.com/foliotrack/portfolio-engine/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func holding(symbol, name, qty, avg, cur, invested, current string) model.Holding {
	return model.Holding{
		Symbol:        symbol,
		Name:          name,
		Quantity:      d(qty),
		AvgPrice:      d(avg),
		CurrentPrice:  d(cur),
		InvestedValue: d(invested),
		CurrentValue:  d(current),
	}
}

// DefaultDataset returns the built-in demo holdings for zerodha, groww and
// upstox.
func DefaultDataset() Dataset {
	return Dataset{
		"zerodha": {
			Holdings: []model.Holding{
				holding("RELIANCE", "Reliance Industries", "50", "2200.00", "2456.80", "110000.00", "122840.00"),
				holding("HDFCBANK", "HDFC Bank", "100", "1650.00", "1623.40", "165000.00", "162340.00"),
				holding("BHARTIARTL", "Bharti Airtel", "80", "820.00", "872.30", "65600.00", "69784.00"),
			},
			Summary: model.NewSummary(d("340600.00"), d("354964.00")),
		},
		"groww": {
			Holdings: []model.Holding{
				holding("TCS", "Tata Consultancy Services", "25", "3400.00", "3589.50", "85000.00", "89737.50"),
				holding("ICICIBANK", "ICICI Bank", "150", "890.00", "934.60", "133500.00", "140190.00"),
				holding("ASIANPAINT", "Asian Paints", "15", "3100.00", "3245.70", "46500.00", "48685.50"),
			},
			Summary: model.NewSummary(d("265000.00"), d("278613.00")),
		},
		"upstox": {
			Holdings: []model.Holding{
				holding("INFY", "Infosys Limited", "75", "1320.00", "1445.25", "99000.00", "108393.75"),
				holding("ITC", "ITC Limited", "200", "420.00", "445.60", "84000.00", "89120.00"),
			},
			Summary: model.NewSummary(d("183000.00"), d("197513.75")),
		},
	}
}
