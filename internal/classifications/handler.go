package classifications

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bondly/bondly/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("source") == SourcePartners {
		items, err := h.service.Derived(r.Context(), q.Get("search"))
		if err != nil {
			httpx.HandleError(w, h.logger, err)
			return
		}
		httpx.Success(w, http.StatusOK, items, "")
		return
	}
	items, err := h.service.List(r.Context(), q.Get("search"))
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, items, "")
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusCreated, c, "Classification créée avec succès")
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.classificationID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, c, "")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.classificationID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	c, err := h.service.UpdateLabel(r.Context(), id, req)
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, c, "Classification mise à jour avec succès")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.classificationID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, nil, "Classification supprimée avec succès")
}

func (h *Handler) classificationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.HandleError(w, h.logger, httpx.InvalidID("Identifiant de classification invalide"))
		return uuid.Nil, false
	}
	return id, true
}
