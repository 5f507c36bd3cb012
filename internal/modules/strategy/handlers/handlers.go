// Package handlers provides HTTP handlers for plan previews and quotes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wuxing-lab/tianji/internal/clients/tencent"
	"github.com/wuxing-lab/tianji/internal/modules/strategy"
)

// QuoteProvider fetches a real-time quote snapshot for an instrument code.
type QuoteProvider interface {
	GetQuote(code string) (*tencent.Quote, error)
}

// CapitalSource supplies the sizing baseline for plan previews.
type CapitalSource interface {
	TotalAssets() float64
}

// Handler handles plan preview and quote HTTP requests
type Handler struct {
	calc    *strategy.Calculator
	quotes  QuoteProvider
	capital CapitalSource
	log     zerolog.Logger
}

// NewHandler creates a new strategy handler
func NewHandler(calc *strategy.Calculator, quotes QuoteProvider, capital CapitalSource, log zerolog.Logger) *Handler {
	return &Handler{
		calc:    calc,
		quotes:  quotes,
		capital: capital,
		log:     log.With().Str("handler", "strategy").Logger(),
	}
}

type previewRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	// Price is optional: when zero the current quote price is used.
	Price float64 `json:"price"`
	// TotalCapital is optional: when zero the ledger's asset baseline is used.
	TotalCapital float64 `json:"total_capital"`
}

// HandlePreviewPlan computes a two-tranche plan without touching the ledger.
// The plan becomes durable only via POST /ledger/positions.
func (h *Handler) HandlePreviewPlan(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		h.writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	price := req.Price
	name := req.Name
	var quote *tencent.Quote
	if price <= 0 {
		q, err := h.quotes.GetQuote(req.Code)
		if err != nil {
			if errors.Is(err, tencent.ErrInvalidCode) {
				h.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			if errors.Is(err, tencent.ErrQuoteNotFound) {
				h.writeError(w, http.StatusNotFound, "quote not found")
				return
			}
			h.log.Warn().Err(err).Str("code", req.Code).Msg("Quote fetch failed during preview")
			h.writeError(w, http.StatusBadGateway, "quote source unavailable")
			return
		}
		quote = q
		price = q.Price
		if name == "" {
			name = q.Name
		}
	}

	capital := req.TotalCapital
	if capital <= 0 {
		capital = h.capital.TotalAssets()
	}

	plan, err := h.calc.ComputePlan(capital, price, req.Code, name)
	if err != nil {
		if errors.Is(err, strategy.ErrInsufficientCapital) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	response := map[string]interface{}{
		"plan": plan,
	}
	if quote != nil {
		response["quote"] = quote
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetQuote returns the current snapshot for a 6-digit code.
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	quote, err := h.quotes.GetQuote(code)
	if err != nil {
		if errors.Is(err, tencent.ErrInvalidCode) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, tencent.ErrQuoteNotFound) {
			h.writeError(w, http.StatusNotFound, "quote not found")
			return
		}
		h.log.Warn().Err(err).Str("code", code).Msg("Quote fetch failed")
		h.writeError(w, http.StatusBadGateway, "quote source unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
