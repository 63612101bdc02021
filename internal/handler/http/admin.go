package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/service"
	"github.com/utafrali/wishlist/pkg/httputil"
	"github.com/utafrali/wishlist/pkg/pagination"
)

// AdminHandler handles the admin wishlist endpoints.
type AdminHandler struct {
	service *service.WishlistService
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(svc *service.WishlistService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: svc, logger: logger}
}

// DeleteResponse confirms an admin deletion.
type DeleteResponse struct {
	Removed bool `json:"removed"`
}

// Browse handles GET /admin/api/wishlist
func (h *AdminHandler) Browse(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	q := r.URL.Query()
	filter := domain.BrowseFilter{
		UserID:    q.Get("user_id"),
		ProductID: q.Get("product_id"),
	}

	result, err := h.service.Browse(r.Context(), filter, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}

// Delete handles DELETE /admin/api/wishlist/{id}
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, DeleteResponse{Removed: true})
}
