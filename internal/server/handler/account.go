package handler

import (
	"log/slog"
	"net/http"

	"github.com/stakeline/stakeline/internal/service"
)

// AccountHandler serves per-account read queries.
type AccountHandler struct {
	svc    *service.PoolService
	logger *slog.Logger
}

// NewAccountHandler creates an AccountHandler backed by the given service.
func NewAccountHandler(svc *service.PoolService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, logger: logHandler(logger, "account")}
}

// GetAccount returns the full per-account row.
// GET /api/accounts/{account}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r, "account")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AccountState(r.Context(), account))
}

// GetBalance returns the account's receipt-token balance.
// GET /api/accounts/{account}/balance
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r, "account")
	if !ok {
		return
	}
	state := h.svc.AccountState(r.Context(), account)
	writeJSON(w, http.StatusOK, map[string]any{
		"account": state.Account,
		"balance": state.Balance,
	})
}

// GetRewards returns the account's pending rewards.
// GET /api/accounts/{account}/rewards
func (h *AccountHandler) GetRewards(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r, "account")
	if !ok {
		return
	}
	state := h.svc.AccountState(r.Context(), account)
	writeJSON(w, http.StatusOK, map[string]any{
		"account":         state.Account,
		"pending_rewards": state.PendingRewards,
	})
}

// GetRisk returns the account's cumulative risk score.
// GET /api/accounts/{account}/risk
func (h *AccountHandler) GetRisk(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r, "account")
	if !ok {
		return
	}
	state := h.svc.AccountState(r.Context(), account)
	writeJSON(w, http.StatusOK, map[string]any{
		"account":    state.Account,
		"risk_score": state.RiskScore,
	})
}

// GetCoverage returns the account's insurance coverage.
// GET /api/accounts/{account}/coverage
func (h *AccountHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, r, "account")
	if !ok {
		return
	}
	state := h.svc.AccountState(r.Context(), account)
	writeJSON(w, http.StatusOK, map[string]any{
		"account":  state.Account,
		"coverage": state.Coverage,
	})
}
