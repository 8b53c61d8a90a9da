// Package rest exposes the payment services over HTTP/JSON using chi.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/logging"
	"github.com/celar-labs/celar/internal/server/auth"
	"github.com/celar-labs/celar/internal/server/models"
	"github.com/celar-labs/celar/internal/server/services"
)

// UserService is what the handlers need from the credential store and the
// session issuer.
type UserService interface {
	CreateUser(ctx context.Context, email, password, role string) (int64, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Verify(token string) (*auth.Claims, error)
}

type Ledger interface {
	ListForUser(ctx context.Context, userID int64) ([]models.Transaction, error)
}

type Payments interface {
	Send(ctx context.Context, userID int64, p services.Payment) (*models.Transaction, error)
}

// Pinger reports store health for GET /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	users    UserService
	ledger   Ledger
	payments Payments
	store    Pinger
	logger   logging.Logger
}

func NewHandler(users UserService, ledger Ledger, payments Payments, store Pinger, logger logging.Logger) *Handler {
	return &Handler{
		users:    users,
		ledger:   ledger,
		payments: payments,
		store:    store,
		logger:   logger.With("module", "rest"),
	}
}

// Signup handles POST /signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	id, err := h.users.CreateUser(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, r, http.StatusCreated, signupResponse{
		Message: "User registered successfully",
		UserID:  id,
	})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	pair, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, r, http.StatusOK, tokenResponse{Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Refresh handles POST /refresh. Any unusable refresh token is a 401 so
// the client falls back to the login screen.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrRefreshTokenExpired) {
			h.respondWithJSON(w, r, http.StatusUnauthorized, errorResponse{Message: "Invalid refresh token"})
			return
		}
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, r, http.StatusOK, tokenResponse{Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Logout handles POST /logout by revoking the given refresh token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if err := h.users.Logout(r.Context(), req.RefreshToken); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, r, http.StatusOK, messageResponse{Message: "Logged out"})
}

// Transactions handles GET /transactions for the authenticated user.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		h.respondWithError(w, r, common.ErrorMissingToken)
		return
	}

	items, err := h.ledger.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	out := make([]transactionView, 0, len(items))
	for _, it := range items {
		out = append(out, transactionView{
			Recipient: it.Recipient,
			Amount:    json.Number(it.Amount.String()),
			Currency:  it.Currency,
			Timestamp: it.CreatedAt,
		})
	}

	h.respondWithJSON(w, r, http.StatusOK, out)
}

// Send handles POST /send for the authenticated user.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		h.respondWithError(w, r, common.ErrorMissingToken)
		return
	}

	var req sendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if req.Amount == nil {
		h.respondWithError(w, r, common.NewValidationError("Recipient, amount, and currency are required"))
		return
	}

	tx, err := h.payments.Send(r.Context(), claims.UserID, services.Payment{
		Recipient: req.Recipient,
		Amount:    *req.Amount,
		Currency:  req.Currency,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, r, http.StatusOK, sendResponse{Message: "Payment successful", TransactionID: tx.ID})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn(r.Context(), "health check failed", "error", err)
		h.respondWithJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.respondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
