package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/celar-labs/celar/internal/common"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const codePaymentDeclined = "payment_declined"

func (h *Handler) respondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error(r.Context(), "failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError is the single place where domain errors become HTTP
// status codes and messages.
func (h *Handler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := errorResponse{Message: "Internal server error"}

	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body.Message = verr.Message
	case errors.Is(err, common.ErrorValidation):
		status = http.StatusBadRequest
		body.Message = "Invalid request body"
	case errors.Is(err, common.ErrorInvalidRole):
		status = http.StatusBadRequest
		body.Message = `Invalid role. Must be "psp" or "dev"`
	case errors.Is(err, common.ErrorAlreadyExists):
		status = http.StatusConflict
		body.Message = "User with this email already exists"
	case errors.Is(err, common.ErrorInvalidCredentials):
		status = http.StatusUnauthorized
		body.Message = "Invalid credentials"
	case errors.Is(err, common.ErrorMissingToken):
		status = http.StatusUnauthorized
		body.Message = "Unauthorized"
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		status = http.StatusForbidden
		body.Message = "Forbidden"
	case errors.Is(err, common.ErrRefreshTokenExpired):
		status = http.StatusUnauthorized
		body.Message = "Refresh token expired"
	case errors.Is(err, common.ErrPaymentDeclined):
		body.Message = "Payment failed. Please try again."
		body.Code = codePaymentDeclined
	default:
		h.logger.Error(r.Context(), "unhandled service error", "error", err)
	}

	h.respondWithJSON(w, r, status, body)
}
