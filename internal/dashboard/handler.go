package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bondly/bondly/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, stats, "")
}

func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}
	items, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, items, "")
}

func (h *Handler) Ratings(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.Ratings(r.Context())
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, buckets, "")
}

func (h *Handler) Professions(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}
	items, err := h.service.Professions(r.Context(), limit)
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, items, "")
}

func (h *Handler) Classifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}
	items, err := h.service.Classifications(r.Context(), limit)
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, items, "")
}

// limit reads ?limit=; zero means the endpoint default.
func (h *Handler) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		httpx.HandleError(w, h.logger, httpx.BadRequest("limit doit être un entier positif"))
		return 0, false
	}
	return n, true
}
