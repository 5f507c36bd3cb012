package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all advisory routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/advisory", func(r chi.Router) {
		r.Post("/plan-review", h.HandlePlanReview)
		r.Post("/holdings-review", h.HandleHoldingsReview)
		r.Post("/history-review", h.HandleHistoryReview)
	})
}
