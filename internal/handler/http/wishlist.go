package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/service"
	"github.com/utafrali/wishlist/pkg/httputil"
	"github.com/utafrali/wishlist/pkg/pagination"
	"github.com/utafrali/wishlist/pkg/validator"
)

// WishlistHandler handles the public wishlist endpoints.
type WishlistHandler struct {
	service *service.WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// keyRequest carries identifiers as raw JSON so strings and numbers are
// both accepted.
type keyRequest struct {
	UserID    json.RawMessage `json:"user_id"`
	ProductID json.RawMessage `json:"product_id"`
	VariantID json.RawMessage `json:"variant_id"`
}

func (k keyRequest) toKey() (domain.Key, error) {
	userID, _, err := normalizeID("user_id", k.UserID)
	if err != nil {
		return domain.Key{}, err
	}
	productID, _, err := normalizeID("product_id", k.ProductID)
	if err != nil {
		return domain.Key{}, err
	}
	variantID, present, err := normalizeID("variant_id", k.VariantID)
	if err != nil {
		return domain.Key{}, err
	}

	key := domain.Key{UserID: userID, ProductID: productID}
	if present {
		key.VariantID = &variantID
	}
	return key, nil
}

// AddRequest is the body of POST /api/wishlist/add.
type AddRequest struct {
	keyRequest
	domain.Metadata
}

var metadataFields = map[string]domain.MetadataFields{
	"product_title":  domain.FieldProductTitle,
	"product_handle": domain.FieldProductHandle,
	"product_image":  domain.FieldProductImage,
	"variant_title":  domain.FieldVariantTitle,
	"variant_image":  domain.FieldVariantImage,
}

// UnmarshalJSON decodes the request and records which metadata fields were
// sent as an explicit null, so they can be cleared rather than kept.
func (a *AddRequest) UnmarshalJSON(data []byte) error {
	type plain AddRequest
	if err := json.Unmarshal(data, (*plain)(a)); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Clear = 0
	for name, f := range metadataFields {
		if v, ok := raw[name]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			a.Clear |= f
		}
	}
	return nil
}

// --- Response DTOs ---

// AddResponse is the stored entry plus whether the add created it.
type AddResponse struct {
	*domain.WishlistEntry
	Created bool `json:"created"`
}

// RemoveResponse reports how many entries a removal deleted.
type RemoveResponse struct {
	RemovedCount int64 `json:"removed_count"`
}

// CheckResponse indicates whether a key is in the wishlist.
type CheckResponse struct {
	InWishlist bool `json:"in_wishlist"`
}

// --- Handlers ---

// Add handles POST /api/wishlist/add
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	key, err := req.toKey()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	entry, created, err := h.service.Add(r.Context(), service.AddInput{Key: key, Metadata: req.Metadata})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteSuccess(w, status, AddResponse{WishlistEntry: entry, Created: created})
}

// Remove handles POST /api/wishlist/remove and DELETE /api/wishlist
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	key, err := req.toKey()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	removed, err := h.service.Remove(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, RemoveResponse{RemovedCount: removed})
}

// List handles GET /api/wishlist/{userId}
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId", "user_id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	params, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.List(r.Context(), userID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, result)
}

// Check handles GET /api/wishlist/{userId}/check
func (h *WishlistHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId", "user_id")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	q := r.URL.Query()
	key := domain.Key{UserID: userID, ProductID: strings.TrimSpace(q.Get("product_id"))}
	if q.Has("variant_id") {
		variant := strings.TrimSpace(q.Get("variant_id"))
		key.VariantID = &variant
	}

	exists, err := h.service.Exists(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, CheckResponse{InWishlist: exists})
}
