package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskhub/internal/auth/domain"
	"taskhub/internal/auth/ports"
)

// Config controls token expirations.
type Config struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Service orchestrates authentication workflows.
type Service struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	tokens   ports.TokenManager
	config   Config
	now      func() time.Time
}

// NewService constructs a Service instance.
func NewService(users ports.UserRepository, sessions ports.SessionRepository, tokens ports.TokenManager, cfg Config) *Service {
	if sessions != nil && tokens != nil {
		type refreshVerifier interface {
			SetVerifier(func(string, string) (bool, error))
		}
		if verifier, ok := sessions.(refreshVerifier); ok {
			verifier.SetVerifier(func(plain, encoded string) (bool, error) {
				return tokens.VerifyRefreshToken(plain, encoded)
			})
		}
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL == 0 {
		cfg.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		config:   cfg,
		now:      time.Now,
	}
}

// WithNow allows tests to control the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register registers a new user with email/password.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return domain.User{}, fmt.Errorf("email is required")
	}
	if password == "" {
		return domain.User{}, fmt.Errorf("password is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return domain.User{}, domain.ErrUserExists
	}

	hashed, err := s.tokens.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		Status:       domain.UserStatusActive,
		PasswordHash: hashed,
		Preferences:  domain.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.users.Create(ctx, user)
}

// LoginWithPassword authenticates a user using email/password.
func (s *Service) LoginWithPassword(ctx context.Context, email, password, userAgent, ip string) (domain.TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}
	ok, err := s.tokens.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}
	if user.Status != domain.UserStatusActive {
		return domain.TokenPair{}, fmt.Errorf("user disabled")
	}
	return s.issueTokens(ctx, user, userAgent, ip)
}

// RefreshAccessToken rotates refresh tokens and issues a new access token.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken, userAgent, ip string) (domain.TokenPair, error) {
	session, err := s.sessions.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if session.ExpiresAt.Before(s.now()) {
		return domain.TokenPair{}, domain.ErrSessionExpired
	}
	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	_ = s.sessions.DeleteByID(ctx, session.ID)
	return s.issueTokens(ctx, user, userAgent, ip)
}

// Logout invalidates the session behind the refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessions.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	return s.sessions.DeleteByID(ctx, session.ID)
}

// ParseAccessToken parses an access token and returns the claims.
func (s *Service) ParseAccessToken(ctx context.Context, token string) (domain.Claims, error) {
	return s.tokens.ParseAccessToken(ctx, token)
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateProfile updates the display name and preference settings.
func (s *Service) UpdateProfile(ctx context.Context, userID string, displayName *string, prefs *domain.Preferences) (domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if displayName != nil {
		user.DisplayName = strings.TrimSpace(*displayName)
	}
	if prefs != nil {
		updated := *prefs
		if strings.TrimSpace(updated.Timezone) == "" {
			updated.Timezone = user.Preferences.Timezone
		}
		user.Preferences = updated
	}
	user.UpdatedAt = s.now()
	return s.users.Update(ctx, user)
}

// ChangePassword verifies the current password and replaces it, revoking all
// existing sessions for the account.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if next == "" {
		return fmt.Errorf("new password is required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := s.tokens.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return domain.ErrInvalidCredentials
	}
	hashed, err := s.tokens.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hashed
	user.UpdatedAt = s.now()
	if _, err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.sessions.DeleteByUser(ctx, userID)
}

func (s *Service) issueTokens(ctx context.Context, user domain.User, userAgent, ip string) (domain.TokenPair, error) {
	plainRefresh, hashedRefresh, err := s.tokens.GenerateRefreshToken(ctx)
	if err != nil {
		return domain.TokenPair{}, err
	}
	session := domain.Session{
		ID:                      uuid.NewString(),
		UserID:                  user.ID,
		RefreshTokenHash:        hashedRefresh,
		RefreshTokenFingerprint: domain.FingerprintRefreshToken(plainRefresh),
		UserAgent:               userAgent,
		IP:                      ip,
		CreatedAt:               s.now(),
		ExpiresAt:               s.now().Add(s.config.RefreshTokenTTL),
	}
	if _, err := s.sessions.Create(ctx, session); err != nil {
		return domain.TokenPair{}, err
	}
	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(ctx, user, session.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:   accessToken,
		AccessExpiry:  expiresAt,
		RefreshToken:  plainRefresh,
		RefreshExpiry: session.ExpiresAt,
	}, nil
}
