package professions

import (
	"net/http"

	"github.com/bondly/bondly/internal/platform/httpx"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	httpx.Success(w, http.StatusOK, h.catalog.Filter(q.Get("category"), q.Get("search")), "")
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	httpx.Success(w, http.StatusOK, h.catalog.Categories(), "")
}
