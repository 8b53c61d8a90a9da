package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/celar-labs/celar/internal/common"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type signupResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse answers /login and /refresh. "token" is the access token.
type tokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// sendRequest takes amount as a JSON number or a numeric string. A nil
// Amount means the field was absent.
type sendRequest struct {
	Recipient string           `json:"recipient"`
	Amount    *decimal.Decimal `json:"amount"`
	Currency  string           `json:"currency"`
}

type sendResponse struct {
	Message       string `json:"message"`
	TransactionID int64  `json:"transactionId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type transactionView struct {
	Recipient string      `json:"recipient"`
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
	Timestamp time.Time   `json:"timestamp"`
}

// decodeJSON reads exactly one JSON object into dst and rejects unknown
// fields. Failures carry a ValidationError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.NewValidationError("Request body is required")
		}
		return common.NewValidationError("Invalid request body: %s", describeDecodeError(err))
	}
	if dec.More() {
		return common.NewValidationError("Invalid request body: trailing data")
	}
	return nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q has the wrong type", typeErr.Field)
	case errors.As(err, &maxErr):
		return "too large"
	default:
		return err.Error()
	}
}
