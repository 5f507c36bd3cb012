// Package handlers provides HTTP handlers for AI advisory commentary.
//
// Advisory output is free text shown to the user as-is. A failing or
// unconfigured advisory backend degrades to a canned message with HTTP 200;
// it never surfaces as a server error and never touches ledger state.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wuxing-lab/tianji/internal/clients/gemini"
	"github.com/wuxing-lab/tianji/internal/domain"
)

const (
	unavailableText   = "AI 顾问暂时不可用，请稍后再试。"
	notConfiguredText = "未配置 AI 顾问。设置 GEMINI_API_KEY 后可用。"
)

// Generator produces free-text commentary for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LedgerView is the read-only slice of the ledger the reviews need.
type LedgerView interface {
	OpenPositions() []domain.Position
	ClosedPositions() []domain.ClosedPosition
}

// Handler handles advisory HTTP requests
type Handler struct {
	ai     Generator
	ledger LedgerView
	log    zerolog.Logger
}

// NewHandler creates a new advisory handler
func NewHandler(ai Generator, ledger LedgerView, log zerolog.Logger) *Handler {
	return &Handler{
		ai:     ai,
		ledger: ledger,
		log:    log.With().Str("handler", "advisory").Logger(),
	}
}

type planReviewRequest struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Category  string  `json:"category"`
	Rationale string  `json:"rationale"`
}

// HandlePlanReview stress-tests a buy thesis before the plan is confirmed.
func (h *Handler) HandlePlanReview(w http.ResponseWriter, r *http.Request) {
	var req planReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" || req.Rationale == "" {
		h.writeError(w, http.StatusBadRequest, "code and rationale are required")
		return
	}

	category := domain.RationaleCategory(req.Category)
	if !category.Valid() {
		h.writeError(w, http.StatusBadRequest, "unknown rationale category")
		return
	}

	prompt := gemini.PlanReviewPrompt(req.Code, req.Name, req.Price, category, req.Rationale)
	h.respond(r.Context(), w, prompt)
}

// HandleHoldingsReview reviews the current open positions for risk overlap.
func (h *Handler) HandleHoldingsReview(w http.ResponseWriter, r *http.Request) {
	open := h.ledger.OpenPositions()
	if len(open) == 0 {
		h.writeJSON(w, http.StatusOK, map[string]string{"text": "当前没有持仓。"})
		return
	}

	prompt := gemini.HoldingsReviewPrompt(open)
	h.respond(r.Context(), w, prompt)
}

// HandleHistoryReview generates a retrospective over the closed-trade
// archive.
func (h *Handler) HandleHistoryReview(w http.ResponseWriter, r *http.Request) {
	closed := h.ledger.ClosedPositions()
	if len(closed) == 0 {
		h.writeJSON(w, http.StatusOK, map[string]string{"text": "还没有已平仓的交易记录。"})
		return
	}

	prompt := gemini.HistoryReviewPrompt(closed)
	h.respond(r.Context(), w, prompt)
}

// respond runs the prompt and maps every backend failure to a 200 with
// degraded text.
func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, prompt string) {
	text, err := h.ai.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, gemini.ErrNotConfigured) {
			h.writeJSON(w, http.StatusOK, map[string]string{"text": notConfiguredText})
			return
		}
		h.log.Warn().Err(err).Msg("Advisory generation failed")
		h.writeJSON(w, http.StatusOK, map[string]string{"text": unavailableText})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"text": text})
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
