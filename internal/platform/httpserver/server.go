package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	exchangegateway "agora/contexts/governance-core/exchange-gateway"
	exchangeerrors "agora/contexts/governance-core/exchange-gateway/domain/errors"
	exchangehttp "agora/contexts/governance-core/exchange-gateway/transport/http"
	governanceengine "agora/contexts/governance-core/governance-engine"
	governanceerrors "agora/contexts/governance-core/governance-engine/domain/errors"
	governancehttp "agora/contexts/governance-core/governance-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "agora/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	governance governanceengine.Module
	exchange   exchangegateway.Module
	health     func() error
}

func New(
	governance governanceengine.Module,
	exchange exchangegateway.Module,
	health func() error,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		governance: governance,
		exchange:   exchange,
		health:     health,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/governance/proposals", s.handleCreateProposal)
	s.mux.HandleFunc("GET /v1/governance/proposals", s.handleListProposals)
	s.mux.HandleFunc("GET /v1/governance/proposals/{proposal_id}", s.handleGetProposal)
	s.mux.HandleFunc("POST /v1/governance/proposals/{proposal_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("POST /v1/governance/proposals/{proposal_id}/execute", s.handleExecuteProposal)

	s.mux.HandleFunc("POST /v1/exchange/purchases", s.handlePurchase)
	s.mux.HandleFunc("GET /v1/exchange/purchases", s.handleListPurchases)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.health != nil {
		if err := s.health(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	proposer := r.Header.Get("X-User-Id")
	if strings.TrimSpace(proposer) == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req governancehttp.CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.CreateProposalHandler(r.Context(), proposer, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.ListProposalsHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.GetProposalHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voter := r.Header.Get("X-User-Id")
	if strings.TrimSpace(voter) == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}

	var req governancehttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.CastVoteHandler(r.Context(), voter, proposalID, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get("X-User-Id")
	if strings.TrimSpace(caller) == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}

	resp, err := s.governance.Handler.ExecuteProposalHandler(r.Context(), caller, proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	buyer := r.Header.Get("X-User-Id")
	if strings.TrimSpace(buyer) == "" {
		writeExchangeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req exchangehttp.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeExchangeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.exchange.Handler.PurchaseHandler(r.Context(), buyer, req)
	if err != nil {
		writeExchangeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	buyer := r.Header.Get("X-User-Id")
	if strings.TrimSpace(buyer) == "" {
		writeExchangeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.exchange.Handler.ListPurchasesHandler(r.Context(), buyer)
	if err != nil {
		writeExchangeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseProposalID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := r.PathValue("proposal_id")
	proposalID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || proposalID == 0 {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_proposal_id", "proposal_id must be a positive integer")
		return 0, false
	}
	return proposalID, true
}

func writeGovernanceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, governanceerrors.ErrProposalNotFound):
		writeGovernanceError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, governanceerrors.ErrNotAuthorized):
		writeGovernanceError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, governanceerrors.ErrAlreadyExecuted):
		writeGovernanceError(w, http.StatusConflict, "already_executed", err.Error())
	case errors.Is(err, governanceerrors.ErrAlreadyVoted):
		writeGovernanceError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, governanceerrors.ErrInsufficientBalance):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, governanceerrors.ErrInvalidProposalInput),
		errors.Is(err, governanceerrors.ErrInvalidVoteInput):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeExchangeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exchangeerrors.ErrInsufficientPayment):
		writeExchangeError(w, http.StatusUnprocessableEntity, "insufficient_payment", err.Error())
	case errors.Is(err, exchangeerrors.ErrReserveExhausted):
		writeExchangeError(w, http.StatusConflict, "reserve_exhausted", err.Error())
	case errors.Is(err, exchangeerrors.ErrInvalidPurchaseInput):
		writeExchangeError(w, http.StatusBadRequest, "invalid_purchase", err.Error())
	default:
		writeExchangeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, governancehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeExchangeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, exchangehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
