package partners

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bondly/bondly/internal/platform/httpx"
	"github.com/bondly/bondly/internal/shared"
)

const idempotencyModule = "partners"

// KeyStore remembers Idempotency-Key values already used for a create.
type KeyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Handler serves /api/partners.
type Handler struct {
	logger  *slog.Logger
	service *Service
	keys    KeyStore
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithKeyStore enables Idempotency-Key handling on POST.
func WithKeyStore(keys KeyStore) HandlerOption {
	return func(h *Handler) { h.keys = keys }
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, opts ...HandlerOption) *Handler {
	h := &Handler{logger: logger, service: service}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := shared.ParsePageRequest(q, h.service.Limits())
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	result, err := h.service.List(r.Context(), ListFilter{
		Search:         q.Get("search"),
		Status:         q.Get("status"),
		Classification: q.Get("classification"),
		Job:            q.Get("job"),
		SortBy:         q.Get("sortBy"),
		SortOrder:      q.Get("sortOrder"),
		Page:           page,
	})
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, result, "")
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePartnerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get(shared.IdempotencyHeader))
	if key != "" && h.keys != nil {
		if err := h.keys.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			httpx.HandleError(w, h.logger, err)
			return
		}
	}
	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		if key != "" && h.keys != nil {
			if derr := h.keys.Delete(r.Context(), key); derr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusCreated, p, "Partenaire créé avec succès")
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.partnerID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, p, "")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.partnerID(w, r)
	if !ok {
		return
	}
	var req UpdatePartnerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, p, "Partenaire mis à jour avec succès")
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.partnerID(w, r)
	if !ok {
		return
	}
	if err := h.service.Archive(r.Context(), id); err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, nil, "Partenaire archivé avec succès")
}

func (h *Handler) partnerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.HandleError(w, h.logger, httpx.InvalidID("Identifiant de partenaire invalide"))
		return uuid.Nil, false
	}
	return id, true
}
