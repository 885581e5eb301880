package discount

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-bazaar/internal/common"
)

// Handler serves the public validation endpoint.
type Handler struct {
	Svc *Service
}

type validateRequest struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
	Result
}

// ValidateCode previews a discount code against an order amount. Rejections
// are 400s carrying the human-readable reason; the caller keeps its money
// either way.
func (h *Handler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var payload validateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if strings.TrimSpace(payload.Code) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "discount code is required", nil)
		return
	}
	if payload.OrderAmount.IsNegative() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "order amount must not be negative", nil)
		return
	}
	res, err := h.Svc.Preview(r.Context(), payload.Code, userID, payload.OrderAmount)
	if err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			common.JSON(w, http.StatusBadRequest, map[string]any{
				"valid": false,
				"error": rej.Reason,
			})
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to validate discount", nil)
		return
	}
	common.JSON(w, http.StatusOK, validateResponse{Valid: true, Result: res})
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
