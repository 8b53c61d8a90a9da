// Package services contains server-side business logic. This file implements
// UserService: the credential store and the session issuer, plus rotation
// and revocation of server-stored refresh tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/server/auth"
	"github.com/celar-labs/celar/internal/server/config"
	"github.com/celar-labs/celar/internal/server/models"
	"github.com/celar-labs/celar/internal/server/repositories/repomanager"
)

const refreshTokenBytes = 32

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// dummyHash is compared against when the email is unknown, so both login
// failure branches do the same bcrypt work.
var dummyHash = sync.OnceValues(func() (string, error) {
	return auth.HashPassword("celar-dummy-password")
})

type UserService struct {
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

func NewUserService(m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// CreateUser registers a user and returns its id. Missing fields give a
// ValidationError, an unknown role common.ErrorInvalidRole and a taken
// email common.ErrorAlreadyExists.
func (s *UserService) CreateUser(ctx context.Context, email, password, role string) (int64, error) {
	if strings.TrimSpace(email) == "" || password == "" || role == "" {
		return 0, common.NewValidationError("All fields are required")
	}

	if len(password) > auth.MaxPasswordBytes {
		return 0, common.NewValidationError("Password must be at most %d bytes", auth.MaxPasswordBytes)
	}

	r, ok := models.ParseRole(role)
	if !ok {
		return 0, common.ErrorInvalidRole
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repomanager.Users().Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         r,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return 0, common.ErrorAlreadyExists
		}
		return 0, fmt.Errorf("error creating user: %w", err)
	}

	return user.ID, nil
}

// FindByEmail returns common.ErrorNotFound for unknown emails.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users().GetByEmail(ctx, email)
}

// Login checks the credentials and issues a TokenPair. Unknown email and
// wrong password both return common.ErrorInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	if email == "" || password == "" {
		return nil, common.NewValidationError("Email and password are required")
	}
	if len(password) > auth.MaxPasswordBytes {
		// No stored account can have such a password.
		return nil, common.ErrorInvalidCredentials
	}

	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if hash, herr := dummyHash(); herr == nil {
				_, _ = auth.CheckPassword(hash, password)
			}
			return nil, common.ErrorInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrorInvalidCredentials
	}

	return s.generateTokenPair(ctx, s.repomanager, user)
}

// Verify checks an access token. It returns common.ErrTokenExpired or
// common.ErrInvalidToken on failure.
func (s *UserService) Verify(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.jwtSecret)
}

// RefreshToken consumes refreshToken and returns a new TokenPair. The old
// token is deleted and the new one stored in the same transaction, so a
// refresh token works exactly once.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrInvalidToken
	}

	var pair *TokenPair
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx repomanager.RepositoryManager) error {
		token, err := tx.RefreshTokens().Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}
		if token.Expires.Before(s.now()) {
			return common.ErrRefreshTokenExpired
		}

		if err := tx.RefreshTokens().Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		user, err := tx.Users().GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error loading user: %w", err)
		}

		pair, err = s.generateTokenPair(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// Logout revokes refreshToken. Unknown tokens are ignored. Access tokens
// already issued stay valid until they expire.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.repomanager.RefreshTokens().Delete(ctx, refreshToken)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

func (s *UserService) generateTokenPair(ctx context.Context, m repomanager.RepositoryManager, user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateToken(user, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refresh, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := m.RefreshTokens().Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
