package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fadedpez/playtimeshop/internal/metrics"
	"github.com/fadedpez/playtimeshop/internal/types"
	"github.com/fadedpez/playtimeshop/pkg/catalog"
	"github.com/fadedpez/playtimeshop/pkg/clock"
	"github.com/fadedpez/playtimeshop/pkg/entities"
	"github.com/fadedpez/playtimeshop/pkg/grant"
	ledgerRepo "github.com/fadedpez/playtimeshop/pkg/repositories/ledger"
	"github.com/fadedpez/playtimeshop/pkg/services/shop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var start = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

type ServerTestSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *clock.Fake
	repo   *ledgerRepo.MemoryRepository
	host   *grant.MemoryHost
	server *httptest.Server
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewFake(start)
	s.repo = ledgerRepo.NewMemoryRepository()
	s.host = grant.NewMemoryHost()

	registry := prometheus.NewRegistry()
	service, err := shop.NewService(shop.Options{
		Repository: s.repo,
		Catalog:    catalog.Default(),
		Rate:       entities.NewRewardRate(10, 5*time.Minute),
		Granter:    s.host,
		Clock:      s.clock,
		Metrics:    metrics.New(registry),
	})
	s.Require().NoError(err)

	api := NewServer(service, nil)
	api.EnableMetrics(registry)
	s.server = httptest.NewServer(api.Handler())
}

func (s *ServerTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ServerTestSuite) do(method, path, body string) (*http.Response, []byte) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, data
}

// setBalance stores a ledger and opens a session for the player
func (s *ServerTestSuite) setBalance(playerID string, balance int64) {
	s.Require().NoError(s.repo.SaveLedger(s.ctx, &entities.PlayerLedger{
		PlayerID:        playerID,
		Balance:         balance,
		LastAccrualTime: s.clock.Now(),
	}))
	resp, _ := s.do(http.MethodPost, "/api/players/"+playerID+"/connect", "")
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *ServerTestSuite) TestSessionLifecycle() {
	// Execute
	resp, _ := s.do(http.MethodPost, "/api/players/p1/connect", "")
	s.Equal(http.StatusNoContent, resp.StatusCode)

	s.clock.Advance(10 * time.Minute)
	resp, body := s.do(http.MethodPost, "/api/players/p1/disconnect", "")

	// Assert
	s.Equal(http.StatusOK, resp.StatusCode)
	var balance balanceResponse
	s.Require().NoError(json.Unmarshal(body, &balance))
	s.Equal(balanceResponse{PlayerID: "p1", Balance: 20}, balance)
}

func (s *ServerTestSuite) TestPoints() {
	// Setup
	s.setBalance("p1", 99)

	// Execute
	resp, body := s.do(http.MethodGet, "/api/players/p1/points", "")

	// Assert
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/json", resp.Header.Get("Content-Type"))
	s.JSONEq(`{"playerId":"p1","balance":99}`, string(body))
}

func (s *ServerTestSuite) TestPurchaseGranted() {
	// Setup
	s.setBalance("p1", 150)

	// Execute
	resp, body := s.do(http.MethodPost, "/api/players/p1/purchases", `{"offer":"neo"}`)

	// Assert
	s.Equal(http.StatusOK, resp.StatusCode)
	var result entities.PurchaseResult
	s.Require().NoError(json.Unmarshal(body, &result))
	s.Equal(entities.OutcomeGranted, result.Outcome)
	s.Equal(int64(50), result.Balance)
	s.NotEmpty(result.AttemptID)
	s.Equal(100, s.host.Item("p1", 4300))
}

func (s *ServerTestSuite) TestPurchaseRefusals() {
	testCases := []struct {
		name    string
		balance int64
		fail    error
		outcome entities.PurchaseOutcome
	}{
		{name: "insufficient balance", balance: 99, outcome: entities.OutcomeInsufficientBalance},
		{name: "grant failed", balance: 150, fail: grant.ErrHostUnavailable, outcome: entities.OutcomeGrantFailed},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.setBalance("p1", tc.balance)
			s.host.FailWith(tc.fail)
			defer s.host.FailWith(nil)

			resp, body := s.do(http.MethodPost, "/api/players/p1/purchases", `{"offer":"neo"}`)

			s.Equal(http.StatusOK, resp.StatusCode)
			var result entities.PurchaseResult
			s.Require().NoError(json.Unmarshal(body, &result))
			s.Equal(tc.outcome, result.Outcome)
			s.Equal(tc.balance, result.Balance)
		})
	}
}

func (s *ServerTestSuite) TestPurchaseErrors() {
	testCases := []struct {
		name   string
		path   string
		body   string
		status int
		code   types.ErrorCode
	}{
		{name: "unknown offer", path: "/api/players/p1/purchases", body: `{"offer":"gold"}`, status: http.StatusNotFound, code: types.ErrOfferNotFound},
		{name: "missing offer", path: "/api/players/p1/purchases", body: `{}`, status: http.StatusBadRequest, code: types.ErrInvalidArgument},
		{name: "malformed body", path: "/api/players/p1/purchases", body: `offer=neo`, status: http.StatusBadRequest, code: types.ErrInvalidArgument},
		{name: "blank player", path: "/api/players/%20/purchases", body: `{"offer":"neo"}`, status: http.StatusBadRequest, code: types.ErrInvalidArgument},
		{name: "not connected", path: "/api/players/p2/purchases", body: `{"offer":"neo"}`, status: http.StatusConflict, code: types.ErrPlayerOffline},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, body := s.do(http.MethodPost, tc.path, tc.body)

			s.Equal(tc.status, resp.StatusCode)
			var errResp errorResponse
			s.Require().NoError(json.Unmarshal(body, &errResp))
			s.Equal(string(tc.code), errResp.Code)
			s.NotEmpty(errResp.Message)
		})
	}
}

func (s *ServerTestSuite) TestCatalog() {
	// Execute
	resp, body := s.do(http.MethodGet, "/api/catalog", "")

	// Assert
	s.Equal(http.StatusOK, resp.StatusCode)
	var cat catalogResponse
	s.Require().NoError(json.Unmarshal(body, &cat))
	s.Equal("10", cat.Rate.PointsPerPeriod)
	s.Equal(5.0, cat.Rate.PeriodMinutes)
	s.Require().Len(cat.Offers, 3)
	s.Equal(offerResponse{Kind: "item", Name: "neo", Description: "Neodymium Ore", Cost: 100, Quantity: 100, ItemID: 4300}, cat.Offers[0])
	s.Equal("health", cat.Offers[1].StatKind)
	s.Equal(2000, cat.Offers[1].MaxStat)
}

func (s *ServerTestSuite) TestMetrics() {
	// Setup
	s.setBalance("p1", 150)
	s.do(http.MethodPost, "/api/players/p1/purchases", `{"offer":"neo"}`)

	// Execute
	resp, body := s.do(http.MethodGet, "/metrics", "")

	// Assert
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), `playtimeshop_purchases_total{outcome="GRANTED"} 1`)
	s.Contains(string(body), "playtimeshop_points_spent_total 100")
}

// failingShop returns canned results from OnConnect and Buy
type failingShop struct {
	*shop.Service
	err    error
	result entities.PurchaseResult
}

func (f *failingShop) OnConnect(context.Context, string) error { return f.err }

func (f *failingShop) Buy(context.Context, string, string) (entities.PurchaseResult, error) {
	return f.result, f.err
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	// Setup
	failing := &failingShop{err: errors.New("connection refused to 10.0.0.3")}
	server := httptest.NewServer(NewServer(failing, nil).Handler())
	defer server.Close()

	// Execute
	resp, err := http.Post(server.URL+"/api/players/p1/connect", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	var errResp errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, errorResponse{Code: string(types.ErrInternalError), Message: "internal error"}, errResp)
}

func TestGrantedButNotSaved(t *testing.T) {
	// Setup
	failing := &failingShop{
		err:    types.NewShopError(types.ErrPersistenceFailure, "failed to save ledger"),
		result: entities.Granted("neo", 50),
	}
	server := httptest.NewServer(NewServer(failing, nil).Handler())
	defer server.Close()

	// Execute
	resp, err := http.Post(server.URL+"/api/players/p1/purchases", "application/json", bytes.NewBufferString(`{"offer":"neo"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	var errResp errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, string(types.ErrPersistenceFailure), errResp.Code)
	require.NotNil(t, errResp.Result)
	assert.True(t, errResp.Result.IsGranted())
}
