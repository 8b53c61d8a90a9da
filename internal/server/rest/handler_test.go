package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/celar-labs/celar/internal/logging"
	"github.com/celar-labs/celar/internal/server/auth"
	"github.com/celar-labs/celar/internal/server/config"
	"github.com/celar-labs/celar/internal/server/models"
	"github.com/celar-labs/celar/internal/server/notify"
	"github.com/celar-labs/celar/internal/server/repositories/repomanager"
	"github.com/celar-labs/celar/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type discardQueue struct{ n atomic.Int32 }

func (q *discardQueue) Enqueue(notify.Event) bool {
	q.n.Add(1)
	return true
}

type testEnv struct {
	srv     *httptest.Server
	approve atomic.Bool
	queue   *discardQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret

	m := repomanager.NewMemoryRepositoryManager()
	env := &testEnv{queue: &discardQueue{}}
	env.approve.Store(true)

	users := services.NewUserService(m, cfg)
	ledger := services.NewLedgerService(m)
	payments := services.NewPaymentService(ledger, services.DeciderFunc(env.approve.Load), env.queue, logging.Nop{})

	h := NewHandler(users, ledger, payments, m, logging.Nop{})
	env.srv = httptest.NewServer(NewRouter(h))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, authHeader string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func (e *testEnv) signupAndLogin(t *testing.T, email string) string {
	t.Helper()
	code, _ := e.do(t, http.MethodPost, "/signup", "", map[string]string{"email": email, "password": "secret1", "role": "dev"})
	require.Equal(t, http.StatusCreated, code)

	code, body := e.do(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, code)
	return decode[tokenResponse](t, body).Token
}

func TestScenario_SignupLoginListSend(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/signup", "", map[string]string{"email": "a@x.com", "password": "secret1", "role": "dev"})
	require.Equal(t, http.StatusCreated, code)
	signup := decode[signupResponse](t, body)
	assert.Equal(t, "User registered successfully", signup.Message)
	assert.Positive(t, signup.UserID)

	code, body = env.do(t, http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, code)
	tokens := decode[tokenResponse](t, body)
	require.NotEmpty(t, tokens.Token)
	require.NotEmpty(t, tokens.RefreshToken)
	bearer := "Bearer " + tokens.Token

	code, body = env.do(t, http.MethodGet, "/transactions", bearer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body))

	code, body = env.do(t, http.MethodPost, "/send", bearer, `{"recipient":"b@x.com","amount":10,"currency":"USD"}`)
	require.Equal(t, http.StatusOK, code)
	sent := decode[sendResponse](t, body)
	assert.Equal(t, "Payment successful", sent.Message)
	assert.Positive(t, sent.TransactionID)
	assert.Equal(t, int32(1), env.queue.n.Load())

	env.approve.Store(false)
	code, body = env.do(t, http.MethodPost, "/send", bearer, `{"recipient":"c@x.com","amount":"2.50","currency":"EUR"}`)
	require.Equal(t, http.StatusInternalServerError, code)
	declined := decode[errorResponse](t, body)
	assert.Equal(t, "Payment failed. Please try again.", declined.Message)
	assert.Equal(t, "payment_declined", declined.Code)
	assert.Equal(t, int32(1), env.queue.n.Load())

	code, body = env.do(t, http.MethodGet, "/transactions", bearer, nil)
	require.Equal(t, http.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "b@x.com", list[0]["recipient"])
	assert.Equal(t, float64(10), list[0]["amount"])
	assert.Equal(t, "USD", list[0]["currency"])
	assert.NotEmpty(t, list[0]["timestamp"])
	assert.NotContains(t, list[0], "id")
	assert.NotContains(t, list[0], "userId")
}

func TestAuth_AbsentVersusInvalid(t *testing.T) {
	env := newTestEnv(t)
	token := env.signupAndLogin(t, "a@x.com")

	expired, err := auth.GenerateToken(&models.User{ID: 1, Email: "a@x.com", Role: models.RoleDeveloper}, []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	forged, err := auth.GenerateToken(&models.User{ID: 1, Email: "a@x.com", Role: models.RoleDeveloper}, []byte("other"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"absent", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + token, http.StatusForbidden},
		{"no token", "Bearer", http.StatusForbidden},
		{"garbage", "Bearer not-a-jwt", http.StatusForbidden},
		{"expired", "Bearer " + expired, http.StatusForbidden},
		{"bad signature", "Bearer " + forged, http.StatusForbidden},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := env.do(t, http.MethodGet, "/transactions", tt.header, nil)
			assert.Equal(t, tt.want, code)
		})
	}

	code, _ := env.do(t, http.MethodPost, "/send", "", `{"recipient":"b","amount":1,"currency":"USD"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSignup_Errors(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodPost, "/signup", "", map[string]string{"email": "a@x.com", "password": "secret1", "role": "psp"})
	require.Equal(t, http.StatusCreated, code)

	tests := []struct {
		name    string
		body    any
		code    int
		message string
	}{
		{"duplicate", map[string]string{"email": "a@x.com", "password": "x", "role": "dev"}, http.StatusConflict, "User with this email already exists"},
		{"missing field", map[string]string{"email": "b@x.com", "password": "x"}, http.StatusBadRequest, "All fields are required"},
		{"bad role", map[string]string{"email": "b@x.com", "password": "x", "role": "admin"}, http.StatusBadRequest, `Invalid role. Must be "psp" or "dev"`},
		{"password too long", map[string]string{"email": "b@x.com", "password": strings.Repeat("x", 73), "role": "dev"}, http.StatusBadRequest, "Password must be at most 72 bytes"},
		{"unknown field", `{"email":"b@x.com","password":"x","role":"dev","admin":true}`, http.StatusBadRequest, ""},
		{"not json", `email=b`, http.StatusBadRequest, ""},
		{"empty body", nil, http.StatusBadRequest, "Request body is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := env.do(t, http.MethodPost, "/signup", "", tt.body)
			assert.Equal(t, tt.code, code)
			if tt.message != "" {
				assert.Equal(t, tt.message, decode[errorResponse](t, body).Message)
			}
		})
	}
}

func TestLogin_IdenticalFailures(t *testing.T) {
	env := newTestEnv(t)
	env.signupAndLogin(t, "a@x.com")

	codeWrong, bodyWrong := env.do(t, http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "wrong"})
	codeUnknown, bodyUnknown := env.do(t, http.MethodPost, "/login", "", map[string]string{"email": "nobody@x.com", "password": "secret1"})

	assert.Equal(t, http.StatusUnauthorized, codeWrong)
	assert.Equal(t, codeWrong, codeUnknown)
	assert.JSONEq(t, string(bodyWrong), string(bodyUnknown))
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, string(bodyWrong))

	code, body := env.do(t, http.MethodPost, "/login", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email and password are required", decode[errorResponse](t, body).Message)
}

func TestSend_Validation(t *testing.T) {
	env := newTestEnv(t)
	bearer := "Bearer " + env.signupAndLogin(t, "a@x.com")

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"zero", `{"recipient":"b","amount":0,"currency":"USD"}`, "Amount must be a positive number"},
		{"negative", `{"recipient":"b","amount":-3,"currency":"USD"}`, "Amount must be a positive number"},
		{"missing amount", `{"recipient":"b","currency":"USD"}`, "Recipient, amount, and currency are required"},
		{"missing recipient", `{"amount":5,"currency":"USD"}`, "Recipient, amount, and currency are required"},
		{"bad amount", `{"recipient":"b","amount":"lots","currency":"USD"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := env.do(t, http.MethodPost, "/send", bearer, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			if tt.message != "" {
				assert.Equal(t, tt.message, decode[errorResponse](t, body).Message)
			}
		})
	}

	code, body := env.do(t, http.MethodGet, "/transactions", bearer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body))
	assert.Equal(t, int32(0), env.queue.n.Load())
}

func TestTransactions_ScopedToCaller(t *testing.T) {
	env := newTestEnv(t)
	alice := "Bearer " + env.signupAndLogin(t, "alice@x.com")
	bob := "Bearer " + env.signupAndLogin(t, "bob@x.com")

	code, _ := env.do(t, http.MethodPost, "/send", alice, `{"recipient":"carol","amount":1,"currency":"USD"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := env.do(t, http.MethodGet, "/transactions", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body))
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	env.signupAndLogin(t, "a@x.com")

	code, body := env.do(t, http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, code)
	first := decode[tokenResponse](t, body)

	code, body = env.do(t, http.MethodPost, "/refresh", "", map[string]string{"refreshToken": first.RefreshToken})
	require.Equal(t, http.StatusOK, code)
	second := decode[tokenResponse](t, body)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	code, _ = env.do(t, http.MethodGet, "/transactions", "Bearer "+second.Token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/refresh", "", map[string]string{"refreshToken": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(t, http.MethodPost, "/logout", "", map[string]string{"refreshToken": second.RefreshToken})
	assert.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/refresh", "", map[string]string{"refreshToken": second.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	h := NewHandler(nil, nil, nil, failingPinger{}, logging.Nop{})
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/send", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

	resp, err := env.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Less(t, resp.StatusCode, 300)
}
