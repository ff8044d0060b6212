package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/foliotrack/portfolio-engine/internal/model"
)

// Records gives typed access to connection and portfolio records kept in a
// KV under the broker:/portfolio: key scheme. Values are JSON.
type Records struct {
	kv KV
}

// NewRecords creates a record repository on top of kv.
func NewRecords(kv KV) *Records {
	return &Records{kv: kv}
}

// PutConnection stores (or replaces) a user's connection record.
func (r *Records) PutConnection(ctx context.Context, userID string, conn model.BrokerConnection) error {
	return r.put(ctx, BrokerKey(userID, conn.Broker), conn)
}

// Connection returns the connection record for broker, or ErrNotFound.
func (r *Records) Connection(ctx context.Context, userID, broker string) (*model.BrokerConnection, error) {
	var conn model.BrokerConnection
	if err := r.get(ctx, BrokerKey(userID, broker), &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

// Connections returns every connection record of a user keyed by storage key.
func (r *Records) Connections(ctx context.Context, userID string) (map[string]model.BrokerConnection, error) {
	prefix := BrokerPrefix(userID)
	entries, err := r.kv.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	conns := make(map[string]model.BrokerConnection, len(entries))
	for _, e := range entries {
		if !ownedBy(prefix, e.Key) {
			continue
		}
		var conn model.BrokerConnection
		if err := json.Unmarshal(e.Value, &conn); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		conns[e.Key] = conn
	}
	return conns, nil
}

// PutPortfolio stores (or fully replaces) a user's portfolio record.
func (r *Records) PutPortfolio(ctx context.Context, userID string, rec model.PortfolioRecord) error {
	return r.put(ctx, PortfolioKey(userID, rec.Broker), rec)
}

// Portfolio returns the portfolio record for broker, or ErrNotFound.
func (r *Records) Portfolio(ctx context.Context, userID, broker string) (*model.PortfolioRecord, error) {
	var rec model.PortfolioRecord
	if err := r.get(ctx, PortfolioKey(userID, broker), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Portfolios returns every portfolio record of a user in key order.
func (r *Records) Portfolios(ctx context.Context, userID string) ([]model.PortfolioRecord, error) {
	prefix := PortfolioPrefix(userID)
	entries, err := r.kv.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	recs := make([]model.PortfolioRecord, 0, len(entries))
	for _, e := range entries {
		if !ownedBy(prefix, e.Key) {
			continue
		}
		var rec model.PortfolioRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// DeleteBroker removes both the connection and the portfolio record of
// broker. The two deletes are independent writes, not a transaction.
func (r *Records) DeleteBroker(ctx context.Context, userID, broker string) error {
	if err := r.kv.Delete(ctx, BrokerKey(userID, broker)); err != nil {
		return err
	}
	return r.kv.Delete(ctx, PortfolioKey(userID, broker))
}

func (r *Records) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.kv.Set(ctx, key, data)
}

func (r *Records) get(ctx context.Context, key string, v any) error {
	data, err := r.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
