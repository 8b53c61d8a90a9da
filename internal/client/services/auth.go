// Package services contains application services for the celar client.
// This file defines the authentication service: sign up, sign in, sign out
// and restoring a saved session.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/celar-labs/celar/internal/client/client"
	"github.com/celar-labs/celar/internal/client/models"
	"github.com/celar-labs/celar/internal/client/repositories/activity"
	"github.com/celar-labs/celar/internal/client/session"
	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/logging"
)

// ErrSessionExpired is returned when the server rejects the session and the
// client has signed out.
var ErrSessionExpired = errors.New("session expired, please log in again")

var roles = []string{"psp", "dev"}

// AuthService defines authentication operations for the CLI.
//
// Form fields are validated before any request is made; such failures carry
// a common.ValidationError.
type AuthService interface {
	Signup(ctx context.Context, email, password, role string) (int64, error)
	Login(ctx context.Context, email, password string) (*models.Profile, error)
	Logout(ctx context.Context) error
	// Restore loads the saved session, if any, and returns the resulting state.
	Restore(ctx context.Context) (session.State, error)
}

type authService struct {
	client   client.Client
	session  *session.Manager
	activity activity.Repository
	logger   logging.Logger
}

func NewAuthService(c client.Client, s *session.Manager, a activity.Repository, logger logging.Logger) AuthService {
	return &authService{client: c, session: s, activity: a, logger: logger.With("module", "auth")}
}

func (a *authService) Signup(ctx context.Context, email, password, role string) (int64, error) {
	email, role = strings.TrimSpace(email), strings.ToLower(strings.TrimSpace(role))
	if email == "" || password == "" || role == "" {
		return 0, common.NewValidationError("All fields are required")
	}
	if !strings.Contains(email, "@") {
		return 0, common.NewValidationError("Please enter a valid email address")
	}
	if !isKnownRole(role) {
		return 0, common.NewValidationError(`Role must be "psp" or "dev"`)
	}

	id, err := a.client.Signup(ctx, email, password, role)
	if err != nil {
		return 0, fmt.Errorf("signup: %w", err)
	}
	return id, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.NewValidationError("Email and password are required")
	}

	tokens, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := a.session.SignIn(ctx, tokens); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	profile, _ := a.session.Profile()
	if _, err := a.activity.SeedDefaults(ctx, profile.UserID); err != nil {
		a.logger.Warn(ctx, "failed to seed balances", "user_id", profile.UserID, "error", err)
	}
	return &profile, nil
}

// Logout revokes the refresh token on the server when possible and always
// clears the local session.
func (a *authService) Logout(ctx context.Context) error {
	if rt := a.session.RefreshToken(); rt != "" {
		if err := a.client.Logout(ctx, rt); err != nil {
			a.logger.Warn(ctx, "server logout failed", "error", err)
		}
	}
	return a.session.SignOut(ctx)
}

func (a *authService) Restore(ctx context.Context) (session.State, error) {
	err := a.session.Load(ctx)
	return a.session.State(), err
}

func isKnownRole(role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
