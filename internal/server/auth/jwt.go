// Package auth issues and verifies the signed session tokens handed out at
// login.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the subject's identity. The JSON names match what clients
// decode for display: userId, email, role.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64       `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// GenerateToken signs an HS256 token for user valid for validityDuration from now.
func GenerateToken(user *models.User, secretKey []byte, validityDuration time.Duration) (string, error) {
	return generateAt(user, secretKey, validityDuration, time.Now())
}

func generateAt(user *models.User, secretKey []byte, validityDuration time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies the signature and expiry of tokenString.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// verification yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == 0 {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
