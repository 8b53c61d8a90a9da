package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/celar-labs/celar/internal/common"
	"github.com/celar-labs/celar/internal/server/auth"
	"github.com/celar-labs/celar/internal/server/config"
	"github.com/celar-labs/celar/internal/server/models"
	"github.com/celar-labs/celar/internal/server/repositories/repomanager"
	"github.com/celar-labs/celar/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	return cfg
}

func newUserService(t *testing.T) (*UserService, *repomanager.MemoryRepositoryManager) {
	t.Helper()
	m := repomanager.NewMemoryRepositoryManager()
	return NewUserService(m, testConfig()), m
}

func TestCreateUser_StoresHashNotPlaintext(t *testing.T) {
	ctx := context.Background()
	s, m := newUserService(t)

	id, err := s.CreateUser(ctx, "a@x.com", "secret1", "dev")
	require.NoError(t, err)
	assert.Positive(t, id)

	u, err := m.Users().GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.Equal(t, models.RoleDeveloper, u.Role)

	ok, err := auth.CheckPassword(u.PasswordHash, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	pair, err := s.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestCreateUser_Validation(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserService(t)

	tests := []struct {
		name                  string
		email, password, role string
		want                  error
	}{
		{"no email", "", "pw", "psp", common.ErrorValidation},
		{"no password", "a@x.com", "", "psp", common.ErrorValidation},
		{"no role", "a@x.com", "pw", "", common.ErrorValidation},
		{"bad role", "a@x.com", "pw", "admin", common.ErrorInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateUser(ctx, tt.email, tt.password, tt.role)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	ctx := context.Background()
	s, m := newUserService(t)

	first, err := s.CreateUser(ctx, "a@x.com", "secret1", "psp")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "a@x.com", "other", "dev")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	u, err := m.Users().GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, first, u.ID)
	assert.Equal(t, models.RolePSP, u.Role)
}

func TestCreateUser_PasswordLength(t *testing.T) {
	ctx := context.Background()
	s, m := newUserService(t)

	_, err := s.CreateUser(ctx, "long@x.com", strings.Repeat("p", auth.MaxPasswordBytes+8), "dev")
	require.ErrorIs(t, err, common.ErrorValidation)
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Password must be at most 72 bytes", ve.Message)
	_, err = m.Users().GetByEmail(ctx, "long@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	longest := strings.Repeat("p", auth.MaxPasswordBytes)
	_, err = s.CreateUser(ctx, "max@x.com", longest, "dev")
	require.NoError(t, err)
	_, err = s.Login(ctx, "max@x.com", longest)
	require.NoError(t, err)

	_, err = s.Login(ctx, "max@x.com", longest+"p")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
}

func TestFindByEmail(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserService(t)
	id, err := s.CreateUser(ctx, "a@x.com", "secret1", "psp")
	require.NoError(t, err)

	u, err := s.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, models.RolePSP, u.Role)

	_, err = s.FindByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLogin_NoEnumerationSignal(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserService(t)
	_, err := s.CreateUser(ctx, "a@x.com", "secret1", "dev")
	require.NoError(t, err)

	_, errWrong := s.Login(ctx, "a@x.com", "nope")
	_, errUnknown := s.Login(ctx, "ghost@x.com", "secret1")

	assert.ErrorIs(t, errWrong, common.ErrorInvalidCredentials)
	assert.ErrorIs(t, errUnknown, common.ErrorInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestLogin_MissingFields(t *testing.T) {
	s, _ := newUserService(t)
	_, err := s.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestLogin_ClaimsAndLifetime(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserService(t)
	id, err := s.CreateUser(ctx, "a@x.com", "secret1", "psp")
	require.NoError(t, err)

	pair, err := s.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	claims, err := s.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, models.RolePSP, claims.Role)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerify_Expired(t *testing.T) {
	s, _ := newUserService(t)
	token, err := auth.GenerateToken(&models.User{ID: 1, Email: "a@x.com", Role: models.RolePSP}, []byte("test-secret"), -time.Minute)
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	_, err = s.Verify("garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefreshToken_RotatesOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserService(t)
	_, err := s.CreateUser(ctx, "a@x.com", "secret1", "dev")
	require.NoError(t, err)
	pair, err := s.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	next, err := s.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	claims, err := s.Verify(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)

	_, err = s.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = s.RefreshToken(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefreshToken_Expired(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewMemoryRepositoryManager()
	cfg := testConfig()
	cfg.RefreshTokenValidityDuration = -time.Minute
	s := NewUserService(m, cfg)

	_, err := s.CreateUser(ctx, "a@x.com", "secret1", "dev")
	require.NoError(t, err)
	pair, err := s.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	_, err = s.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserService(t)
	_, err := s.CreateUser(ctx, "a@x.com", "secret1", "dev")
	require.NoError(t, err)
	pair, err := s.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, pair.RefreshToken))
	require.NoError(t, s.Logout(ctx, pair.RefreshToken))
	require.NoError(t, s.Logout(ctx, ""))

	_, err = s.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

type failingManager struct {
	*repomanager.MemoryRepositoryManager
	users users.Repository
}

func (f *failingManager) Users() users.Repository { return f.users }

type brokenUsers struct{ err error }

func (b brokenUsers) Create(context.Context, *models.User) (*models.User, error) { return nil, b.err }
func (b brokenUsers) GetByEmail(context.Context, string) (*models.User, error)   { return nil, b.err }
func (b brokenUsers) GetByID(context.Context, int64) (*models.User, error)       { return nil, b.err }

func TestUserService_StoreFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("db down")
	m := &failingManager{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager(), users: brokenUsers{err: boom}}
	s := NewUserService(m, testConfig())

	_, err := s.CreateUser(ctx, "a@x.com", "pw", "psp")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = s.Login(ctx, "a@x.com", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrorInvalidCredentials)
}
