package handler

import (
	"log/slog"
	"net/http"

	"github.com/stakeline/stakeline/internal/service"
)

// PoolHandler serves the pool-level query and transition endpoints.
type PoolHandler struct {
	svc    *service.PoolService
	logger *slog.Logger
}

// NewPoolHandler creates a PoolHandler backed by the given service.
func NewPoolHandler(svc *service.PoolService, logger *slog.Logger) *PoolHandler {
	return &PoolHandler{svc: svc, logger: logHandler(logger, "pool")}
}

// GetStats returns the aggregate pool snapshot.
// GET /api/pool/stats
func (h *PoolHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "stats failed", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetToken returns the receipt-token metadata.
// GET /api/pool/token
func (h *PoolHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.TokenInfo(r.Context()))
}

type initializeRequest struct {
	RateBps uint16 `json:"rate_bps"`
}

// Initialize activates the pool.
// POST /api/pool/initialize
func (h *PoolHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req initializeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.Initialize(r.Context(), caller, req.RateBps); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": true, "rate_bps": req.RateBps})
}

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

// Stake deposits base units for the caller.
// POST /api/pool/stake
func (h *PoolHandler) Stake(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.Stake(r.Context(), caller, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AccountState(r.Context(), caller))
}

// Unstake withdraws base units for the caller.
// POST /api/pool/unstake
func (h *PoolHandler) Unstake(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.Unstake(r.Context(), caller, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AccountState(r.Context(), caller))
}

// Distribute runs an owner-triggered yield distribution.
// POST /api/pool/distribute
func (h *PoolHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}

	dist, err := h.svc.DistributeYield(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"amount": dist.Amount, "height": dist.Height})
}

// Claim mints the caller's accumulated rewards.
// POST /api/pool/claim
func (h *PoolHandler) Claim(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}

	amount, err := h.svc.ClaimRewards(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claimed": amount})
}

type transferRequest struct {
	To     string  `json:"to"`
	Amount uint64  `json:"amount"`
	Memo   *string `json:"memo,omitempty"`
}

// Transfer moves receipt tokens from the caller to another account.
// POST /api/pool/transfer
func (h *PoolHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	to, ok := parseAddress(req.To)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid recipient address")
		return
	}

	if err := h.svc.Transfer(r.Context(), caller, to, req.Amount, req.Memo); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AccountState(r.Context(), caller))
}

// Pause blocks staking operations.
// POST /api/pool/pause
func (h *PoolHandler) Pause(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	if err := h.svc.Pause(r.Context(), caller); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

// Unpause lifts a pause.
// POST /api/pool/unpause
func (h *PoolHandler) Unpause(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	if err := h.svc.Unpause(r.Context(), caller); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

// UpdateRate sets a new yield rate.
// POST /api/pool/rate
func (h *PoolHandler) UpdateRate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req initializeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.UpdateYieldRate(r.Context(), caller, req.RateBps); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rate_bps": req.RateBps})
}

type insuranceRequest struct {
	Enabled bool `json:"enabled"`
}

// ToggleInsurance flips insurance provisioning.
// POST /api/pool/insurance
func (h *PoolHandler) ToggleInsurance(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req insuranceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.ToggleInsurance(r.Context(), caller, req.Enabled); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"insurance_enabled": req.Enabled})
}

type tokenURIRequest struct {
	URI *string `json:"uri"`
}

// SetTokenURI sets or clears the receipt-token metadata URI.
// POST /api/pool/token/uri
func (h *PoolHandler) SetTokenURI(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAccount(w, r)
	if !ok {
		return
	}
	var req tokenURIRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.SetTokenURI(r.Context(), caller, req.URI); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.TokenInfo(r.Context()))
}
