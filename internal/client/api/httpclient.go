package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/teamloop/teamloop-cli/internal/client/models"
)

const requestIDHeader = "X-Request-Id"

// HTTPClient talks JSON over HTTP to the TeamLoop backend.
//
// token supplies the current bearer token ("" when anonymous); it is read
// per request so the client always sends the session store's latest value.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   func() string
}

func NewHTTPClient(baseURL string, timeout time.Duration, token func() string) *HTTPClient {
	if token == nil {
		token = func() string { return "" }
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   token,
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/health", nil, nil, true)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var out LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &out, false); err != nil {
		return LoginResult{}, retagUnauthorized(err, ErrInvalidCredentials)
	}
	return out, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil, false)
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var out messageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", req, &out, false); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *HTTPClient) GetCurrentUser(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) (ResetRequestResult, error) {
	body := struct {
		Email string `json:"email"`
	}{email}

	var out ResetRequestResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/forgot-password", body, &out, false); err != nil {
		return ResetRequestResult{}, err
	}
	return out, nil
}

func (c *HTTPClient) CheckResetToken(ctx context.Context, token string) error {
	body := struct {
		Token string `json:"token"`
	}{token}

	var out struct {
		Valid bool `json:"valid"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/validate-reset-token", body, &out, false); err != nil {
		return err
	}
	if !out.Valid {
		return &APIError{Status: http.StatusOK, Base: ErrTokenInvalid}
	}
	return nil
}

func (c *HTTPClient) SubmitPasswordReset(ctx context.Context, token, password string) (string, error) {
	body := struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}{token, password}

	var out messageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/reset-password", body, &out, false); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *HTTPClient) RedeemVerificationToken(ctx context.Context, token string) (string, error) {
	body := struct {
		Token string `json:"token"`
	}{token}

	// Never retried at the transport layer: redemption consumes the token.
	var out messageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/verify-email", body, &out, false); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *HTTPClient) ResendVerificationEmail(ctx context.Context, email string) (string, error) {
	body := struct {
		Email string `json:"email"`
	}{email}

	var out messageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/resend-verification", body, &out, false); err != nil {
		return "", err
	}
	return out.Message, nil
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Message           string `json:"message"`
	NeedsVerification bool   `json:"needsVerification"`
}

// doJSON performs one API call. When retryable is true, transport-level
// failures are retried with a short constant backoff; responses, including
// 5xx, are never retried.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any, retryable bool) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	attempt := func(ctx context.Context) error {
		req, err := c.newRequest(ctx, method, path, payload)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
			if retryable {
				return retry.RetryableError(err)
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusMultipleChoices {
			return decodeAPIError(resp)
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	if !retryable {
		return attempt(ctx)
	}

	backoff := retry.WithMaxRetries(2, retry.NewConstant(200*time.Millisecond))
	return retry.Do(ctx, backoff, attempt)
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func decodeAPIError(resp *http.Response) error {
	var body errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &body)

	apiErr := &APIError{
		Status:            resp.StatusCode,
		Message:           body.Message,
		NeedsVerification: body.NeedsVerification,
	}

	switch {
	case body.NeedsVerification:
		apiErr.Base = ErrNeedsVerification
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiErr.Base = ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound ||
		resp.StatusCode == http.StatusGone ||
		resp.StatusCode == http.StatusUnprocessableEntity:
		apiErr.Base = ErrTokenInvalid
	case resp.StatusCode >= http.StatusInternalServerError:
		apiErr.Base = ErrUnavailable
	}

	return apiErr
}

// retagUnauthorized rebases an ErrUnauthorized APIError onto a more specific
// sentinel for endpoints where 401 has a narrower meaning.
func retagUnauthorized(err error, base error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Base == ErrUnauthorized {
		apiErr.Base = base
	}
	return err
}
