package dashboard

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stats", h.Stats)
	r.Get("/recent", h.Recent)
	r.Get("/ratings", h.Ratings)
	r.Get("/professions", h.Professions)
	r.Get("/classifications", h.Classifications)
}
