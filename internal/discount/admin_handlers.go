package discount

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-bazaar/internal/common"
	"github.com/noah-isme/backend-bazaar/internal/tenant"
)

// AdminHandler exposes the store-owner CRUD surface for discounts.
type AdminHandler struct {
	Svc      *Service
	Validate *validator.Validate
}

type createDiscountRequest struct {
	StoreID           *string          `json:"storeId" validate:"omitempty,uuid4"`
	Code              string           `json:"code" validate:"required,min=2,max=64"`
	DiscountType      string           `json:"discountType" validate:"required,oneof=percentage fixed"`
	Value             decimal.Decimal  `json:"value" validate:"required"`
	MinOrderAmount    *decimal.Decimal `json:"minOrderAmount"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount"`
	StartsAt          *time.Time       `json:"startsAt"`
	EndsAt            *time.Time       `json:"endsAt"`
	UsageLimit        *int32           `json:"usageLimit" validate:"omitempty,gte=0"`
	UsageLimitPerUser *int32           `json:"usageLimitPerUser" validate:"omitempty,gte=0"`
	IsActive          *bool            `json:"isActive"`
}

type patchDiscountRequest struct {
	Value             *decimal.Decimal `json:"value"`
	MinOrderAmount    *decimal.Decimal `json:"minOrderAmount"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount"`
	StartsAt          *time.Time       `json:"startsAt"`
	EndsAt            *time.Time       `json:"endsAt"`
	UsageLimit        *int32           `json:"usageLimit" validate:"omitempty,gte=0"`
	UsageLimitPerUser *int32           `json:"usageLimitPerUser" validate:"omitempty,gte=0"`
	IsActive          *bool            `json:"isActive"`
}

// Create registers a new discount code.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
	}
	var storeID *uuid.UUID
	if payload.StoreID != nil {
		id, err := uuid.Parse(*payload.StoreID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid store id", nil)
			return
		}
		storeID = &id
	} else {
		storeID = storeFromRequest(r)
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	d, err := h.Svc.Create(r.Context(), Discount{
		StoreID:           storeID,
		Code:              payload.Code,
		Kind:              Kind(payload.DiscountType),
		Value:             payload.Value,
		MinOrderAmount:    payload.MinOrderAmount,
		MaxDiscountAmount: payload.MaxDiscountAmount,
		StartsAt:          payload.StartsAt,
		EndsAt:            payload.EndsAt,
		UsageLimit:        payload.UsageLimit,
		UsageLimitPerUser: payload.UsageLimitPerUser,
		IsActive:          active,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "discount code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": d})
}

// List returns discounts, optionally scoped to one store.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	var storeID *uuid.UUID
	if raw := r.URL.Query().Get("storeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid store id", nil)
			return
		}
		storeID = &id
	} else {
		storeID = storeFromRequest(r)
	}
	page, perPage := common.ParsePagination(r, 20)
	items, total, err := h.Svc.List(r.Context(), storeID, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to list discounts", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": items,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get returns one discount by id.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	d, err := h.Svc.Q.GetDiscountByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// Patch partially updates a discount. Code and type are immutable.
func (h *AdminHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var payload patchDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
	}
	d, err := h.Svc.Update(r.Context(), id, Patch{
		Value:             payload.Value,
		MinOrderAmount:    payload.MinOrderAmount,
		MaxDiscountAmount: payload.MaxDiscountAmount,
		StartsAt:          payload.StartsAt,
		EndsAt:            payload.EndsAt,
		UsageLimit:        payload.UsageLimit,
		UsageLimitPerUser: payload.UsageLimitPerUser,
		IsActive:          payload.IsActive,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// Delete deactivates a discount, preserving its usage history.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Deactivate(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, common.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "discount not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process discount request", nil)
	}
}

// storeFromRequest reads the resolved tenant store when the request did
// not name one explicitly. Non-UUID store slugs are ignored.
func storeFromRequest(r *http.Request) *uuid.UUID {
	raw, ok := tenant.StoreFromContext(r.Context())
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid discount id", nil)
		return uuid.Nil, false
	}
	return id, true
}
