package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers plan preview and quote routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/plans/preview", h.HandlePreviewPlan)
	r.Get("/quotes/{code}", h.HandleGetQuote)
}
