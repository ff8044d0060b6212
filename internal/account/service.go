// Package account implements the broker connection lifecycle (connect,
// sync, disconnect) and the portfolio read endpoints on top of the
// key-value store.
//
// All monetary values use shopspring/decimal, never float64.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/foliotrack/portfolio-engine/internal/brokersync"
	"github.com/foliotrack/portfolio-engine/internal/metrics"
	"github.com/foliotrack/portfolio-engine/internal/model"
	"github.com/foliotrack/portfolio-engine/internal/portfolio"
	"github.com/foliotrack/portfolio-engine/internal/store"
	"github.com/foliotrack/portfolio-engine/internal/ticker"
)

var (
	// ErrValidation marks a request with missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when operating on a broker that is not connected.
	ErrNotFound = errors.New("broker not connected")
)

// Service owns the connect/sync/disconnect flow. It holds no locks: each
// operation touches at most two keys and the writes are not atomic. A
// failure between them can leave the connection and portfolio records out
// of step.
type Service struct {
	records   *store.Records
	fetcher   brokersync.Fetcher
	allocator *portfolio.Allocator
	wsHub     *WSHub // optional WebSocket hub for lifecycle events
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a new account service.
// Pass nil for hub if WebSocket broadcasting is not needed, and nil for
// allocator to use the default sector table.
func NewService(kv store.KV, fetcher brokersync.Fetcher, allocator *portfolio.Allocator, hub *WSHub, log zerolog.Logger) *Service {
	if allocator == nil {
		allocator = portfolio.NewAllocator(nil)
	}
	return &Service{
		records:   store.NewRecords(kv),
		fetcher:   fetcher,
		allocator: allocator,
		wsHub:     hub,
		log:       log.With().Str("component", "account").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ConnectRequest is the JSON body for POST /brokers/connect.
type ConnectRequest struct {
	Broker    string `json:"broker"`
	ClientID  string `json:"clientId"`
	APIKey    string `json:"apiKey,omitempty"`
	APISecret string `json:"apiSecret,omitempty"`
	UserID    string `json:"userId"`
}

// Connect stores a new connection record for the broker, replacing any
// existing one. lastSynced starts out absent.
func (s *Service) Connect(ctx context.Context, req ConnectRequest) (*model.BrokerConnection, error) {
	if req.Broker == "" || req.ClientID == "" || req.UserID == "" {
		return nil, fmt.Errorf("%w: missing required fields: broker, clientId, userId", ErrValidation)
	}
	broker, err := normalize(req.UserID, req.Broker)
	if err != nil {
		return nil, err
	}

	conn := model.BrokerConnection{
		Broker:      broker,
		ClientID:    req.ClientID,
		APIKey:      req.APIKey,
		APISecret:   req.APISecret,
		Status:      model.StatusConnected,
		ConnectedAt: s.now(),
	}
	if err := s.records.PutConnection(ctx, req.UserID, conn); err != nil {
		return nil, fmt.Errorf("store connection: %w", err)
	}

	metrics.BrokerConnectsTotal.WithLabelValues(broker).Inc()
	s.log.Info().
		Str("user", req.UserID).
		Str("broker", broker).
		Str("client_id", req.ClientID).
		Msg("broker connected")

	s.broadcast(WSMessage{Type: EventBrokerConnected, UserID: req.UserID, Broker: broker})
	return &conn, nil
}

// ListConnections returns the user's connection records keyed by storage key.
func (s *Service) ListConnections(ctx context.Context, userID string) (map[string]model.BrokerConnection, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing required field: userId", ErrValidation)
	}
	if err := ticker.ValidateUserID(userID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	conns, err := s.records.Connections(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return conns, nil
}

// Sync fetches the broker's holdings and fully replaces the stored
// portfolio record, then stamps the connection's lastSynced. If the fetch
// fails the previous record is left untouched.
func (s *Service) Sync(ctx context.Context, userID, broker string) (*brokersync.Result, error) {
	if userID == "" || broker == "" {
		return nil, fmt.Errorf("%w: missing required fields: userId, broker", ErrValidation)
	}
	broker, err := normalize(userID, broker)
	if err != nil {
		return nil, err
	}

	conn, err := s.records.Connection(ctx, userID, broker)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}

	start := time.Now()
	res, err := s.fetcher.Fetch(ctx, conn.Broker, *conn)
	metrics.SyncLatency.WithLabelValues(conn.Broker).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SyncsTotal.WithLabelValues(conn.Broker, "error").Inc()
		return nil, fmt.Errorf("fetch %s: %w", conn.Broker, err)
	}

	syncedAt := s.now()
	summary := res.Summary
	rec := model.PortfolioRecord{
		Broker:     conn.Broker,
		Holdings:   res.Holdings,
		Summary:    &summary,
		LastSynced: syncedAt,
		SyncID:     uuid.New().String(),
	}
	if err := s.records.PutPortfolio(ctx, userID, rec); err != nil {
		metrics.SyncsTotal.WithLabelValues(conn.Broker, "error").Inc()
		return nil, fmt.Errorf("store portfolio: %w", err)
	}

	conn.LastSynced = &syncedAt
	if err := s.records.PutConnection(ctx, userID, *conn); err != nil {
		metrics.SyncsTotal.WithLabelValues(conn.Broker, "error").Inc()
		return nil, fmt.Errorf("update connection: %w", err)
	}

	metrics.SyncsTotal.WithLabelValues(conn.Broker, "ok").Inc()
	s.log.Info().
		Str("user", userID).
		Str("broker", conn.Broker).
		Str("sync_id", rec.SyncID).
		Int("holdings", len(res.Holdings)).
		Str("invested", summary.Invested.String()).
		Str("current_value", summary.CurrentValue.String()).
		Msg("portfolio synced")

	s.broadcast(WSMessage{
		Type:         EventPortfolioSynced,
		UserID:       userID,
		Broker:       conn.Broker,
		SyncID:       rec.SyncID,
		Invested:     summary.Invested.String(),
		CurrentValue: summary.CurrentValue.String(),
	})
	return &res, nil
}

// Portfolio loads every stored portfolio record of the user and aggregates
// them. The result is never persisted.
func (s *Service) Portfolio(ctx context.Context, userID string) (model.AggregatePortfolio, error) {
	if userID == "" {
		return model.AggregatePortfolio{}, fmt.Errorf("%w: missing required field: userId", ErrValidation)
	}
	if err := ticker.ValidateUserID(userID); err != nil {
		return model.AggregatePortfolio{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	recs, err := s.records.Portfolios(ctx, userID)
	if err != nil {
		return model.AggregatePortfolio{}, fmt.Errorf("load portfolios: %w", err)
	}
	return portfolio.Aggregate(recs), nil
}

// Allocation returns the sector allocation of the user's aggregated holdings.
func (s *Service) Allocation(ctx context.Context, userID string) (portfolio.Allocation, error) {
	agg, err := s.Portfolio(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.allocator.Allocate(agg.Holdings), nil
}

// Disconnect erases the connection and portfolio records of broker.
// Disconnecting a broker that is not connected succeeds.
func (s *Service) Disconnect(ctx context.Context, userID, broker string) error {
	if userID == "" || broker == "" {
		return fmt.Errorf("%w: missing required fields: userId, broker", ErrValidation)
	}
	broker, err := normalize(userID, broker)
	if err != nil {
		return err
	}
	if err := s.records.DeleteBroker(ctx, userID, broker); err != nil {
		return fmt.Errorf("delete broker records: %w", err)
	}

	metrics.BrokerDisconnectsTotal.Inc()
	s.log.Info().Str("user", userID).Str("broker", broker).Msg("broker disconnected")

	s.broadcast(WSMessage{Type: EventBrokerDisconnected, UserID: userID, Broker: broker})
	return nil
}

// normalize validates the user id and returns the lower-cased broker id.
// Both end up inside storage keys.
func normalize(userID, broker string) (string, error) {
	if err := ticker.ValidateUserID(userID); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	b, err := ticker.NormalizeBroker(broker)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return b, nil
}

func (s *Service) broadcast(msg WSMessage) {
	if s.wsHub != nil {
		s.wsHub.Broadcast(msg)
	}
}
