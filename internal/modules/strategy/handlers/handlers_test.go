package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuxing-lab/tianji/internal/clients/tencent"
	"github.com/wuxing-lab/tianji/internal/modules/strategy"
)

type stubQuotes struct {
	quote *tencent.Quote
	err   error
	calls int
}

func (s *stubQuotes) GetQuote(code string) (*tencent.Quote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

type stubCapital struct {
	total float64
}

func (s stubCapital) TotalAssets() float64 { return s.total }

func newTestRouter(t *testing.T, quotes *stubQuotes, capital float64) *chi.Mux {
	t.Helper()

	log := zerolog.Nop()
	calc := strategy.NewCalculator(strategy.DefaultConfig(), log)
	handler := NewHandler(calc, quotes, stubCapital{total: capital}, log)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func TestPreviewPlan_ExplicitPrice(t *testing.T) {
	quotes := &stubQuotes{}
	router := newTestRouter(t, quotes, 1000000)

	body := `{"code":"600519","name":"贵州茅台","price":100.00}`
	req := httptest.NewRequest(http.MethodPost, "/plans/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Zero(t, quotes.calls)

	var resp struct {
		Plan struct {
			Tranche1Shares       float64 `json:"tranche1_shares"`
			Tranche1Cost         float64 `json:"tranche1_cost"`
			Tranche2TriggerPrice float64 `json:"tranche2_trigger_price"`
			TakeProfitPrice      float64 `json:"take_profit_price"`
			StopLossPrice        float64 `json:"stop_loss_price"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 800, resp.Plan.Tranche1Shares, 1e-9)
	assert.InDelta(t, 80000, resp.Plan.Tranche1Cost, 1e-9)
	assert.InDelta(t, 93.00, resp.Plan.Tranche2TriggerPrice, 1e-9)
	assert.InDelta(t, 105.00, resp.Plan.TakeProfitPrice, 1e-9)
	assert.InDelta(t, 89.745, resp.Plan.StopLossPrice, 1e-9)
}

func TestPreviewPlan_PriceFromQuote(t *testing.T) {
	quotes := &stubQuotes{quote: &tencent.Quote{Name: "贵州茅台", Code: "600519", Price: 100.00}}
	router := newTestRouter(t, quotes, 1000000)

	body := `{"code":"600519"}`
	req := httptest.NewRequest(http.MethodPost, "/plans/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, quotes.calls)

	var resp struct {
		Plan struct {
			Name           string  `json:"name"`
			Tranche1Shares float64 `json:"tranche1_shares"`
		} `json:"plan"`
		Quote *tencent.Quote `json:"quote"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "贵州茅台", resp.Plan.Name)
	assert.InDelta(t, 800, resp.Plan.Tranche1Shares, 1e-9)
	require.NotNil(t, resp.Quote)
	assert.InDelta(t, 100.00, resp.Quote.Price, 1e-9)
}

func TestPreviewPlan_InsufficientCapital(t *testing.T) {
	router := newTestRouter(t, &stubQuotes{}, 50000)

	body := `{"code":"600519","price":1000.00}`
	req := httptest.NewRequest(http.MethodPost, "/plans/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPreviewPlan_QuoteNotFound(t *testing.T) {
	quotes := &stubQuotes{err: tencent.ErrQuoteNotFound}
	router := newTestRouter(t, quotes, 1000000)

	body := `{"code":"999999"}`
	req := httptest.NewRequest(http.MethodPost, "/plans/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewPlan_MissingCode(t *testing.T) {
	router := newTestRouter(t, &stubQuotes{}, 1000000)

	req := httptest.NewRequest(http.MethodPost, "/plans/preview", strings.NewReader(`{"price":10.0}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuote(t *testing.T) {
	quotes := &stubQuotes{quote: &tencent.Quote{Name: "贵州茅台", Code: "600519", Price: 1530.00}}
	router := newTestRouter(t, quotes, 0)

	req := httptest.NewRequest(http.MethodGet, "/quotes/600519", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var quote tencent.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.InDelta(t, 1530.00, quote.Price, 1e-9)
}

func TestGetQuote_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid code", tencent.ErrInvalidCode, http.StatusBadRequest},
		{"not found", tencent.ErrQuoteNotFound, http.StatusNotFound},
		{"endpoint down", errors.New("connection refused"), http.StatusBadGateway},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, &stubQuotes{err: tc.err}, 0)

			req := httptest.NewRequest(http.MethodGet, "/quotes/600519", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
