// AngelaMos | 2026
// supabase.go

package identity

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

	"github.com/carterperez-dev/meetstack/backend/internal/auth"
	"github.com/carterperez-dev/meetstack/backend/internal/config"
)

const maxErrorBody = 4 << 10

var ErrAdminKeyMissing = errors.New("service role key not configured")

// SupabaseClient talks to a GoTrue compatible auth server.
type SupabaseClient struct {
	baseURL        string
	anonKey        string
	serviceRoleKey string
	httpClient     *http.Client
}

func NewSupabaseClient(cfg config.IdentityConfig) *SupabaseClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SupabaseClient{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		anonKey:        cfg.AnonKey,
		serviceRoleKey: cfg.ServiceRoleKey,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type gotrueUser struct {
	ID         string            `json:"id"`
	Email      string            `json:"email"`
	Identities []json.RawMessage `json:"identities"`
}

// gotrueSession covers both signup shapes: a session wrapping the user, or
// the bare user when email confirmation is pending.
type gotrueSession struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   int64       `json:"expires_at"`
	User        *gotrueUser `json:"user"`

	gotrueUser
}

type gotrueError struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *gotrueError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *SupabaseClient) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	var out gotrueSession
	status, apiErr, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", c.anonKey,
		credentials{Email: email, Password: password}, &out)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	if apiErr != nil {
		if apiErr.ErrorCode == "user_already_exists" ||
			strings.Contains(strings.ToLower(apiErr.text()), "already registered") {
			return nil, fmt.Errorf("signup: %w", auth.ErrAlreadyRegistered)
		}
		return nil, fmt.Errorf("signup: status %d: %s", status, apiErr.text())
	}

	user := out.User
	if user == nil {
		user = &out.gotrueUser
	}
	if user.ID == "" {
		return nil, errors.New("signup: response carried no user")
	}

	// With confirmations on, an existing address yields an obfuscated user
	// that has no identities.
	if user.Identities != nil && len(user.Identities) == 0 {
		return nil, fmt.Errorf("signup: %w", auth.ErrAlreadyRegistered)
	}

	return out.toSession(user), nil
}

func (c *SupabaseClient) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	var out gotrueSession
	status, apiErr, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", c.anonKey,
		credentials{Email: email, Password: password}, &out)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if apiErr != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return nil, fmt.Errorf("sign in: %s: %w", apiErr.text(), auth.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("sign in: status %d: %s", status, apiErr.text())
	}

	if out.User == nil || out.AccessToken == "" {
		return nil, errors.New("sign in: response carried no session")
	}

	return out.toSession(out.User), nil
}

// DeleteUser needs the service role key.
func (c *SupabaseClient) DeleteUser(ctx context.Context, subject string) error {
	if c.serviceRoleKey == "" {
		return fmt.Errorf("delete user %s: %w", subject, ErrAdminKeyMissing)
	}

	path := "/auth/v1/admin/users/" + url.PathEscape(subject)
	status, apiErr, err := c.do(ctx, http.MethodDelete, path, c.serviceRoleKey, nil, nil)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", subject, err)
	}

	if apiErr != nil && status != http.StatusNotFound {
		return fmt.Errorf("delete user %s: status %d: %s", subject, status, apiErr.text())
	}

	return nil
}

func (s *gotrueSession) toSession(user *gotrueUser) *auth.Session {
	session := &auth.Session{
		Subject:     user.ID,
		Email:       user.Email,
		AccessToken: s.AccessToken,
	}
	if s.ExpiresAt > 0 {
		session.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	}
	return session
}

// do sends one request. A non 2xx reply is returned as apiErr with a nil err.
func (c *SupabaseClient) do(
	ctx context.Context,
	method, path, key string,
	body, out any,
) (int, *gotrueError, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr gotrueError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if json.Unmarshal(raw, &apiErr) != nil || apiErr.text() == "" {
			apiErr.Msg = strings.TrimSpace(string(raw))
			if apiErr.Msg == "" {
				apiErr.Msg = resp.Status
			}
		}
		return resp.StatusCode, &apiErr, nil
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("decode response: %w", err)
		}
	}

	return resp.StatusCode, nil, nil
}
