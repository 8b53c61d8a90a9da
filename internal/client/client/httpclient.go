package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/celar-labs/celar/internal/client/models"
	"github.com/celar-labs/celar/internal/common"
	"github.com/shopspring/decimal"
)

const maxErrorBody = 64 << 10

// HTTPClient implements Client over the REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

type sendBody struct {
	Recipient string      `json:"recipient"`
	Amount    json.Number `json:"amount"`
	Currency  string      `json:"currency"`
}

type signupReply struct {
	UserID int64 `json:"userId"`
}

type sendReply struct {
	TransactionID int64 `json:"transactionId"`
}

type errorReply struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *HTTPClient) Signup(ctx context.Context, email, password, role string) (int64, error) {
	var out signupReply
	err := c.do(ctx, http.MethodPost, "/signup", "", credentials{Email: email, Password: password, Role: role}, &out)
	if err != nil {
		return 0, err
	}
	return out.UserID, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*Tokens, error) {
	var out Tokens
	if err := c.do(ctx, http.MethodPost, "/login", "", credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	var out Tokens
	if err := c.do(ctx, http.MethodPost, "/refresh", "", refreshBody{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", "", refreshBody{RefreshToken: refreshToken}, nil)
}

func (c *HTTPClient) Transactions(ctx context.Context, accessToken string) ([]models.Transaction, error) {
	out := []models.Transaction{}
	if err := c.do(ctx, http.MethodGet, "/transactions", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Send(ctx context.Context, accessToken, recipient string, amount decimal.Decimal, currency string) (int64, error) {
	var out sendReply
	in := sendBody{Recipient: recipient, Amount: json.Number(amount.String()), Currency: currency}
	if err := c.do(ctx, http.MethodPost, "/send", accessToken, in, &out); err != nil {
		return 0, err
	}
	return out.TransactionID, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	var reply errorReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&reply); err == nil {
		apiErr.Message = reply.Message
		apiErr.Code = reply.Code
	}
	return apiErr
}
