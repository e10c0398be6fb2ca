package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stakeline/stakeline/internal/chain"
	"github.com/stakeline/stakeline/internal/domain"
	"github.com/stakeline/stakeline/internal/ledger"
	"github.com/stakeline/stakeline/internal/service"
)

const (
	ownerAddr = "0x00000000000000000000000000000000000F00d0"
	aliceAddr = "0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa"
)

// Minimal in-memory stores, enough to stand up a real PoolService.

type memSnapshots struct {
	state    *domain.PoolState
	accounts map[domain.Account]domain.AccountState
}

func (m *memSnapshots) SavePoolState(_ context.Context, s domain.PoolState) error {
	m.state = &s
	return nil
}

func (m *memSnapshots) LoadPoolState(context.Context) (domain.PoolState, error) {
	if m.state == nil {
		return domain.PoolState{}, domain.ErrNotFound
	}
	return *m.state, nil
}

func (m *memSnapshots) UpsertAccount(_ context.Context, row domain.AccountState) error {
	m.accounts[row.Account] = row
	return nil
}

func (m *memSnapshots) ListAccounts(context.Context) ([]domain.AccountState, error) {
	return nil, nil
}

type memDists struct{ rows []domain.Distribution }

func (m *memDists) Insert(_ context.Context, d domain.Distribution) error {
	m.rows = append(m.rows, d)
	return nil
}

func (m *memDists) List(context.Context, domain.ListOpts) ([]domain.Distribution, error) {
	return m.rows, nil
}

type memEvents struct{ rows []domain.Event }

func (m *memEvents) Append(_ context.Context, e domain.Event) error {
	m.rows = append(m.rows, e)
	return nil
}

func (m *memEvents) List(context.Context, domain.ListOpts) ([]domain.Event, error) {
	return m.rows, nil
}

func (m *memEvents) ListBefore(context.Context, time.Time) ([]domain.Event, error) {
	return m.rows, nil
}

func (m *memEvents) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

type memStats struct{ stats *domain.PoolStats }

func (m *memStats) SetStats(_ context.Context, s domain.PoolStats) error {
	m.stats = &s
	return nil
}

func (m *memStats) GetStats(context.Context) (domain.PoolStats, error) {
	if m.stats == nil {
		return domain.PoolStats{}, domain.ErrNotFound
	}
	return *m.stats, nil
}

type memBus struct{}

func (memBus) Publish(context.Context, string, []byte) error { return nil }
func (memBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func newTestHandlers(t *testing.T) (*PoolHandler, *AccountHandler) {
	t.Helper()
	clock, err := chain.NewClock(time.Now().Add(-300*time.Hour), time.Hour)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewPoolService(
		ledger.NewPool(domain.Account(ownerAddr), "Stakeline Receipt", "sSTK"),
		clock,
		&memSnapshots{accounts: make(map[domain.Account]domain.AccountState)},
		&memDists{},
		&memEvents{},
		&memStats{},
		memBus{},
		nil,
		logger,
	)
	return NewPoolHandler(svc, logger), NewAccountHandler(svc, logger)
}

func post(t *testing.T, h http.HandlerFunc, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	if caller != "" {
		req.Header.Set("X-Account", caller)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestStakeEndpoint(t *testing.T) {
	pool, _ := newTestHandlers(t)

	rec := post(t, pool.Initialize, "/api/pool/initialize", ownerAddr, map[string]any{"rate_bps": 500})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = post(t, pool.Stake, "/api/pool/stake", aliceAddr, map[string]any{"amount": 1_000_000})
	require.Equal(t, http.StatusOK, rec.Code)

	var state domain.AccountState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Equal(t, uint64(1_000_000), state.Balance)
}

func TestStakeRejectsMissingCaller(t *testing.T) {
	pool, _ := newTestHandlers(t)
	rec := post(t, pool.Stake, "/api/pool/stake", "", map[string]any{"amount": 1_000_000})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "X-Account")
}

func TestStakeRejectsBadAddress(t *testing.T) {
	pool, _ := newTestHandlers(t)
	rec := post(t, pool.Stake, "/api/pool/stake", "not-an-address", map[string]any{"amount": 1_000_000})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid account address")
}

func TestDomainErrorMapping(t *testing.T) {
	pool, _ := newTestHandlers(t)

	// Staking an inactive pool conflicts with the lifecycle.
	rec := post(t, pool.Stake, "/api/pool/stake", aliceAddr, map[string]any{"amount": 1_000_000})
	require.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusOK,
		post(t, pool.Initialize, "/api/pool/initialize", ownerAddr, map[string]any{"rate_bps": 500}).Code)

	// Below the minimum stake is a bad request.
	rec = post(t, pool.Stake, "/api/pool/stake", aliceAddr, map[string]any{"amount": 10})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Non-owner distribution is forbidden.
	rec = post(t, pool.Distribute, "/api/pool/distribute", aliceAddr, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAccountEndpoints(t *testing.T) {
	pool, accounts := newTestHandlers(t)

	require.Equal(t, http.StatusOK,
		post(t, pool.Initialize, "/api/pool/initialize", ownerAddr, map[string]any{"rate_bps": 500}).Code)
	require.Equal(t, http.StatusOK,
		post(t, pool.Stake, "/api/pool/stake", aliceAddr, map[string]any{"amount": 2_000_000}).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/"+aliceAddr+"/balance", nil)
	req.SetPathValue("account", aliceAddr)
	rec := httptest.NewRecorder()
	accounts.GetBalance(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(2_000_000), body["balance"])

	req = httptest.NewRequest(http.MethodGet, "/api/accounts/bogus/balance", nil)
	req.SetPathValue("account", "bogus")
	rec = httptest.NewRecorder()
	accounts.GetBalance(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
