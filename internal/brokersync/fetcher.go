// Package brokersync fetches holdings from broker accounts. Only a mock
// source exists: it serves a fixed dataset after an artificial delay.
package brokersync

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/foliotrack/portfolio-engine/internal/model"
	"github.com/foliotrack/portfolio-engine/internal/ticker"
)

// DefaultDelay simulates broker API latency.
const DefaultDelay = time.Second

// Result is a full holdings snapshot for one broker account.
type Result struct {
	Holdings []model.Holding        `json:"holdings" yaml:"holdings"`
	Summary  model.PortfolioSummary `json:"summary" yaml:"summary"`
}

// Fetcher retrieves a broker account's current holdings. A result is
// always complete; there is no paged or incremental fetch.
type Fetcher interface {
	Fetch(ctx context.Context, broker string, conn model.BrokerConnection) (Result, error)
}

// Dataset maps a lower-case broker identifier to its canned result.
type Dataset map[string]Result

// MockFetcher serves results from a Dataset. Unknown brokers get an empty
// result rather than an error.
type MockFetcher struct {
	dataset Dataset
	delay   time.Duration
	limiter *rate.Limiter
}

// Option configures a MockFetcher.
type Option func(*MockFetcher)

// WithDelay overrides the simulated latency.
func WithDelay(d time.Duration) Option {
	return func(f *MockFetcher) { f.delay = d }
}

// WithRateLimit caps simulated broker calls per second. Zero or negative
// disables the limit.
func WithRateLimit(perSecond int) Option {
	return func(f *MockFetcher) {
		if perSecond <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
}

// NewMockFetcher creates a fetcher over dataset. A nil dataset means
// DefaultDataset.
func NewMockFetcher(dataset Dataset, opts ...Option) *MockFetcher {
	if dataset == nil {
		dataset = DefaultDataset()
	}
	f := &MockFetcher{dataset: dataset, delay: DefaultDelay}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch waits for the simulated latency, then returns a copy of the canned
// result with every holding stamped with its broker.
func (f *MockFetcher) Fetch(ctx context.Context, broker string, _ model.BrokerConnection) (Result, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return Result{}, fmt.Errorf("broker %s: rate limit: %w", broker, err)
		}
	}

	if f.delay > 0 {
		timer := time.NewTimer(f.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("broker %s: %w", broker, ctx.Err())
		case <-timer.C:
		}
	}

	key := strings.ToLower(broker)
	canned, ok := f.dataset[key]
	if !ok {
		return Result{
			Holdings: []model.Holding{},
			Summary:  model.NewSummary(decimal.Zero, decimal.Zero),
		}, nil
	}

	holdings := make([]model.Holding, len(canned.Holdings))
	for i, h := range canned.Holdings {
		h.Broker = key
		holdings[i] = h
	}
	return Result{Holdings: holdings, Summary: canned.Summary}, nil
}

// LoadDataset reads a YAML dataset file. Broker keys are lower-cased,
// symbols canonicalised, and each summary's returns are derived from its
// invested and current values.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file '%s': %w", path, err)
	}

	var raw map[string]Result
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse dataset from YAML: %w", err)
	}

	ds := make(Dataset, len(raw))
	for broker, res := range raw {
		key, err := ticker.NormalizeBroker(broker)
		if err != nil {
			return nil, err
		}
		for i := range res.Holdings {
			sym, err := ticker.ParseSymbol(res.Holdings[i].Symbol)
			if err != nil {
				return nil, fmt.Errorf("broker %s: %w", key, err)
			}
			res.Holdings[i].Symbol = sym
		}
		if res.Holdings == nil {
			res.Holdings = []model.Holding{}
		}
		res.Summary = model.NewSummary(res.Summary.Invested, res.Summary.CurrentValue)
		ds[key] = res
	}
	return ds, nil
}
