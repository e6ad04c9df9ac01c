package search

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

func (h *Handler) Basic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpx.HandleError(w, h.logger, httpx.BadRequest("limit doit être un entier positif"))
			return
		}
		limit = n
	}
	res, err := h.service.Basic(r.Context(), q.Get("q"), Type(strings.ToLower(q.Get("type"))), limit)
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, res, "")
}

func (h *Handler) Advanced(w http.ResponseWriter, r *http.Request) {
	var req AdvancedRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	page, err := h.service.Advanced(r.Context(), req)
	if err != nil {
		httpx.HandleError(w, h.logger, err)
		return
	}
	httpx.Success(w, http.StatusOK, page, "")
}
