// Package handlers provides HTTP handlers for the portfolio ledger.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wuxing-lab/tianji/internal/domain"
	"github.com/wuxing-lab/tianji/internal/modules/ledger"
	"github.com/wuxing-lab/tianji/internal/modules/strategy"
)

// Handler handles ledger HTTP requests
type Handler struct {
	service *ledger.Service
	calc    *strategy.Calculator
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *ledger.Service, calc *strategy.Calculator, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		calc:    calc,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleGetSummary returns the account overview: cash, market value (cost
// basis), total assets, win rate.
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.GetSummary())
}

type resetRequest struct {
	StartingCash float64 `json:"starting_cash"`
}

// HandleReset wipes the ledger and starts over with fresh cash. Destructive;
// the client is expected to confirm with the user first.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StartingCash <= 0 {
		h.writeError(w, http.StatusBadRequest, "starting_cash must be positive")
		return
	}

	h.service.Initialize(req.StartingCash)
	h.writeJSON(w, http.StatusOK, h.service.GetSummary())
}

// HandleListPositions returns open positions, most recent first, each with an
// advisory overdue flag.
func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	positions := h.service.OpenPositions()

	result := make([]map[string]interface{}, 0, len(positions))
	for i := range positions {
		p := &positions[i]
		result = append(result, map[string]interface{}{
			"position": p,
			"overdue":  p.Overdue(now),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

type openPositionRequest struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	TotalCapital float64 `json:"total_capital"`
	Category     string  `json:"category"`
	Rationale    string  `json:"rationale"`
}

// HandleOpenPosition recomputes the plan from the submitted inputs and
// confirms it against the ledger. The plan is never taken verbatim from the
// client; sizing always goes through the calculator.
func (h *Handler) HandleOpenPosition(w http.ResponseWriter, r *http.Request) {
	var req openPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" || req.Price <= 0 {
		h.writeError(w, http.StatusBadRequest, "code and a positive price are required")
		return
	}

	category := domain.RationaleCategory(req.Category)
	if !category.Valid() {
		h.writeError(w, http.StatusBadRequest, "unknown rationale category")
		return
	}

	capital := req.TotalCapital
	if capital <= 0 {
		capital = h.service.TotalAssets()
	}

	plan, err := h.calc.ComputePlan(capital, req.Price, req.Code, req.Name)
	if err != nil {
		if errors.Is(err, strategy.ErrInsufficientCapital) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pos, err := h.service.OpenPosition(plan, category, req.Rationale)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientCash) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if errors.Is(err, ledger.ErrInvalidRationale) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, pos)
}

type closePositionRequest struct {
	RealizedPL float64 `json:"realized_pl"`
}

// HandleClosePosition archives an open position with a caller-supplied
// realized P/L.
func (h *Handler) HandleClosePosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req closePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cp, err := h.service.ClosePosition(id, req.RealizedPL)
	if err != nil {
		if errors.Is(err, ledger.ErrPositionNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, cp)
}

// HandleGetHistory returns closed positions, most recent first.
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.ClosedPositions())
}

// HandleExportHistory streams the closed-trade archive as a CSV download.
func (h *Handler) HandleExportHistory(w http.ResponseWriter, r *http.Request) {
	closed := h.service.ClosedPositions()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trade_history.csv"`)
	w.WriteHeader(http.StatusOK)

	if err := ledger.WriteHistoryCSV(w, closed); err != nil {
		h.log.Error().Err(err).Msg("Failed to stream history CSV")
	}
}

// HandleGetStats returns performance statistics over the closed-trade
// archive, overall and per rationale category.
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, ledger.ComputeStats(h.service.ClosedPositions()))
}

// HandleListRationales returns the fixed rationale categories with their
// display labels and hints.
func (h *Handler) HandleListRationales(w http.ResponseWriter, r *http.Request) {
	categories := domain.AllRationaleCategories()
	result := make([]map[string]interface{}, 0, len(categories))
	for _, c := range categories {
		info := c.Info()
		result = append(result, map[string]interface{}{
			"category": c,
			"label":    info.Label,
			"hint":     info.Hint,
		})
	}
	h.writeJSON(w, http.StatusOK, result)
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
