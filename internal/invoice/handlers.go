package invoice

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-bazaar/internal/common"
)

// Handler exposes invoice endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type createLineRequest struct {
	ServiceID string          `json:"serviceId" validate:"required,uuid4"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int32           `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"required"`
}

type createInvoiceRequest struct {
	OrderID        *string             `json:"orderId" validate:"omitempty,uuid4"`
	Lines          []createLineRequest `json:"lines" validate:"required,min=1,dive"`
	DiscountAmount decimal.Decimal     `json:"discountAmount"`
	Notes          *string             `json:"notes"`
}

// Create issues an invoice for service lines.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var payload createInvoiceRequest
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
	in := CreateInput{DiscountAmount: payload.DiscountAmount, Notes: payload.Notes}
	if payload.OrderID != nil {
		id, err := uuid.Parse(*payload.OrderID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
			return
		}
		in.OrderID = &id
	}
	for _, l := range payload.Lines {
		serviceID, err := uuid.Parse(l.ServiceID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid service id", nil)
			return
		}
		in.Lines = append(in.Lines, LineInput{
			ServiceID: serviceID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	inv, err := h.Svc.Create(r.Context(), userID, in)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": inv})
}

// List returns the caller's invoices.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	invoices, total, err := h.Svc.List(r.Context(), userID, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to list invoices", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": invoices,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Get returns one invoice with its lines.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid invoice id", nil)
		return
	}
	inv, err := h.Svc.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "invoice not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load invoice", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": inv})
}

func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user identity", nil)
		return uuid.Nil, false
	}
	return userID, true
}
