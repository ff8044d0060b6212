package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foliotrack/portfolio-engine/internal/brokersync"
	"github.com/foliotrack/portfolio-engine/internal/model"
	"github.com/foliotrack/portfolio-engine/internal/portfolio"
)

// --- Request/Response types ---

// SyncRequest is the JSON body for POST /brokers/sync.
type SyncRequest struct {
	UserID string `json:"userId"`
	Broker string `json:"broker"`
}

// ConnectResponse is returned from POST /brokers/connect.
type ConnectResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Broker  model.BrokerConnection `json:"broker"`
}

// ConnectionsResponse is returned from GET /brokers/{userID}.
type ConnectionsResponse struct {
	Success bool                              `json:"success"`
	Brokers map[string]model.BrokerConnection `json:"brokers"`
}

// SyncResponse is returned from POST /brokers/sync.
type SyncResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    brokersync.Result `json:"data"`
}

// PortfolioResponse is returned from GET /portfolio/{userID}.
type PortfolioResponse struct {
	Success bool `json:"success"`
	model.AggregatePortfolio
}

// AllocationResponse is returned from GET /portfolio/{userID}/allocation.
// Empty is true when there is nothing to chart.
type AllocationResponse struct {
	Success bool                 `json:"success"`
	Empty   bool                 `json:"empty"`
	Sectors portfolio.Allocation `json:"sectors"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// --- HTTP Handlers ---

// HandleConnect handles POST /api/v1/brokers/connect
func (s *Service) HandleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	conn, err := s.Connect(r.Context(), req)
	if err != nil {
		s.writeFailure(w, err, "Failed to connect broker")
		return
	}

	writeJSON(w, http.StatusOK, ConnectResponse{
		Success: true,
		Message: "Broker connected successfully",
		Broker:  conn.Redacted(),
	})
}

// HandleListConnections handles GET /api/v1/brokers/{userID}
func (s *Service) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.ListConnections(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeFailure(w, err, "Failed to fetch brokers")
		return
	}

	redacted := make(map[string]model.BrokerConnection, len(conns))
	for k, c := range conns {
		redacted[k] = c.Redacted()
	}
	writeJSON(w, http.StatusOK, ConnectionsResponse{Success: true, Brokers: redacted})
}

// HandleSync handles POST /api/v1/brokers/sync
func (s *Service) HandleSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.Sync(r.Context(), req.UserID, req.Broker)
	if err != nil {
		s.writeFailure(w, err, "Failed to sync portfolio")
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{
		Success: true,
		Message: "Portfolio synced successfully",
		Data:    *res,
	})
}

// HandlePortfolio handles GET /api/v1/portfolio/{userID}
func (s *Service) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	agg, err := s.Portfolio(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeFailure(w, err, "Failed to fetch portfolio")
		return
	}
	writeJSON(w, http.StatusOK, PortfolioResponse{Success: true, AggregatePortfolio: agg})
}

// HandleAllocation handles GET /api/v1/portfolio/{userID}/allocation
func (s *Service) HandleAllocation(w http.ResponseWriter, r *http.Request) {
	alloc, err := s.Allocation(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeFailure(w, err, "Failed to compute allocation")
		return
	}
	writeJSON(w, http.StatusOK, AllocationResponse{Success: true, Empty: alloc.Empty(), Sectors: alloc})
}

// HandleDisconnect handles DELETE /api/v1/brokers/{userID}/{broker}
func (s *Service) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	err := s.Disconnect(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "broker"))
	if err != nil {
		s.writeFailure(w, err, "Failed to disconnect broker")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Broker disconnected successfully"})
}

// writeFailure maps a service error to its status code. Unexpected errors
// are logged and returned as 500 with the cause in details.
func (s *Service) writeFailure(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		writeError(w, "Broker not connected", http.StatusNotFound)
	default:
		s.log.Error().Err(err).Msg(message)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: message, Details: err.Error()})
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
