package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Get("/", h.HandleGetSummary)
		r.Post("/reset", h.HandleReset)

		r.Get("/positions", h.HandleListPositions)
		r.Post("/positions", h.HandleOpenPosition)
		r.Post("/positions/{id}/close", h.HandleClosePosition)

		r.Get("/history", h.HandleGetHistory)
		r.Get("/history/export", h.HandleExportHistory)
		r.Get("/stats", h.HandleGetStats)
	})

	r.Get("/rationales", h.HandleListRationales)
}
