package auth

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

	"github.com/golang-jwt/jwt/v5"

	"infosec-dashboard/internal/model"
)

var (
	ErrInvalidCredential    = errors.New("invalid email or password")
	ErrVerificationRequired = errors.New("email verification required before sign in")
	ErrSessionExpired       = errors.New("session expired")
	ErrIdentityUnavailable  = errors.New("identity provider unavailable")
)

// IdentityClient talks to an nhost-compatible authentication service.
type IdentityClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewIdentityClient(baseURL string, httpClient *http.Client) *IdentityClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &IdentityClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type identityUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl"`
}

type identitySession struct {
	AccessToken          string        `json:"accessToken"`
	AccessTokenExpiresIn int           `json:"accessTokenExpiresIn"`
	RefreshToken         string        `json:"refreshToken"`
	User                 *identityUser `json:"user"`
}

type identityError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (*identitySession, error) {
	var out struct {
		Session *identitySession `json:"session"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/signin/email-password", body, &out); err != nil {
		return nil, err
	}
	if out.Session == nil {
		return nil, ErrVerificationRequired
	}
	return out.Session, nil
}

func (c *IdentityClient) SignUp(ctx context.Context, email, password string) (*identitySession, error) {
	var out struct {
		Session *identitySession `json:"session"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/signup/email-password", body, &out); err != nil {
		return nil, err
	}
	if out.Session == nil {
		return nil, ErrVerificationRequired
	}
	return out.Session, nil
}

func (c *IdentityClient) Refresh(ctx context.Context, refreshToken string) (*identitySession, error) {
	var out identitySession
	if err := c.post(ctx, "/token", map[string]string{"refreshToken": refreshToken}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("refresh returned no access token: %w", ErrIdentityUnavailable)
	}
	return &out, nil
}

func (c *IdentityClient) SignOut(ctx context.Context, refreshToken string) error {
	return c.post(ctx, "/signout", map[string]string{"refreshToken": refreshToken}, nil)
}

func (c *IdentityClient) post(ctx context.Context, path string, payload any, out any) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal identity request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("build identity request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity request %s failed: %w: %w", path, ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read identity response failed: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		var idErr identityError
		_ = json.Unmarshal(raw, &idErr)
		if path == "/token" {
			return fmt.Errorf("%w: %s", ErrSessionExpired, idErr.Message)
		}
		return fmt.Errorf("%w: %s", ErrInvalidCredential, idErr.Message)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("identity response status %d: %w", resp.StatusCode, ErrIdentityUnavailable)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse identity json failed: %w", err)
	}
	return nil
}

// toSession converts the provider payload, taking the expiry from the JWT exp
// claim when present. The signature is the provider's concern, not ours.
func toSession(s *identitySession, now time.Time) model.Session {
	out := model.Session{
		Token:         s.AccessToken,
		RefreshToken:  s.RefreshToken,
		Authenticated: s.AccessToken != "",
	}
	if s.User != nil {
		out.User = model.Profile{
			ID:          s.User.ID,
			DisplayName: s.User.DisplayName,
			Email:       s.User.Email,
			AvatarURL:   s.User.AvatarURL,
		}
	}
	if exp, ok := tokenExpiry(s.AccessToken); ok {
		out.ExpiresAt = exp
	} else if s.AccessTokenExpiresIn > 0 {
		out.ExpiresAt = now.Add(time.Duration(s.AccessTokenExpiresIn) * time.Second)
	}
	return out
}

func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
