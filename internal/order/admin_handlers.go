package order

import (
	"encoding/json"
	"net/http"

	"github.com/noah-isme/backend-bazaar/internal/common"
)

// AdminHandler exposes the operator-facing status surface.
type AdminHandler struct {
	Svc *Service
}

type setStatusRequest struct {
	Status string  `json:"status"`
	Reason *string `json:"reason"`
}

// SetStatus moves an order along the lifecycle. Illegal transitions are
// conflicts, not validation errors.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	var payload setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	next, err := ParseStatus(payload.Status)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	o, err := h.Svc.SetStatus(r.Context(), orderID, next, payload.Reason)
	if err != nil {
		(&Handler{Svc: h.Svc}).writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}
