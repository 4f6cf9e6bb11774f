package app

import (
	"context"
	"time"

	"infosec-dashboard/internal/auth"
	"infosec-dashboard/internal/model"
)

// AuthService is the sign-in surface of the dashboard.
type AuthService struct {
	provider *auth.Provider
}

type AuthResult struct {
	User      ProfileView `json:"user"`
	ExpiresAt time.Time   `json:"expires_at,omitempty"`
}

// ProfileView is the signed-in user as shown in the header.
type ProfileView struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

func NewAuthService(provider *auth.Provider) *AuthService {
	return &AuthService{provider: provider}
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	session, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return toAuthResult(session), nil
}

func (s *AuthService) SignUp(ctx context.Context, email, password, confirm string) (*AuthResult, error) {
	session, err := s.provider.SignUp(ctx, email, password, confirm)
	if err != nil {
		return nil, err
	}
	return toAuthResult(session), nil
}

func (s *AuthService) SignOut(ctx context.Context) error {
	return s.provider.SignOut(ctx)
}

func (s *AuthService) Me() ProfileView {
	return toProfileView(s.provider.CurrentSession())
}

func toAuthResult(session model.Session) *AuthResult {
	return &AuthResult{User: toProfileView(session), ExpiresAt: session.ExpiresAt}
}

func toProfileView(session model.Session) ProfileView {
	return ProfileView{
		ID:            session.User.ID,
		Name:          session.User.Name(),
		Email:         session.User.Email,
		AvatarURL:     session.User.AvatarURL,
		Authenticated: session.Authenticated,
	}
}
