package app_test

import (
	"context"
	"testing"
	"time"

	"taskhub/internal/auth/adapters"
	authapp "taskhub/internal/auth/app"
	"taskhub/internal/auth/domain"
)

func newService(t *testing.T) *authapp.Service {
	t.Helper()
	users, sessions := adapters.NewMemoryStores()
	tokenManager := adapters.NewJWTTokenManager("secret", "test", 15*time.Minute)
	return authapp.NewService(users, sessions, tokenManager, authapp.Config{})
}

func TestRegisterAndLogin(t *testing.T) {
	service := newService(t)

	ctx := context.Background()
	user, err := service.Register(ctx, "test@example.com", "password", "Tester")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !user.Preferences.DefaultLockAfterDue {
		t.Fatalf("expected lock-after-due to default on")
	}
	tokens, err := service.LoginWithPassword(ctx, "test@example.com", "password", "agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued: %+v", tokens)
	}
	if tokens.RefreshExpiry.Before(time.Now()) {
		t.Fatalf("expected refresh token expiry in future")
	}
	claims, err := service.ParseAccessToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != user.ID {
		t.Fatalf("expected subject %s got %s", user.ID, claims.Subject)
	}

	refreshed, err := service.RefreshAccessToken(ctx, tokens.RefreshToken, "agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == tokens.AccessToken {
		t.Fatalf("expected new access token on refresh")
	}
	// old refresh token is rotated out
	if _, err := service.RefreshAccessToken(ctx, tokens.RefreshToken, "agent", "127.0.0.1"); err == nil {
		t.Fatalf("expected rotated refresh token to be rejected")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	if _, err := service.Register(ctx, "dup@example.com", "password", "A"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.Register(ctx, "Dup@Example.com", "password", "B"); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	if _, err := service.Register(ctx, "x@example.com", "password", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.LoginWithPassword(ctx, "x@example.com", "wrong", "agent", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	user, err := service.Register(ctx, "p@example.com", "old-password", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	tokens, err := service.LoginWithPassword(ctx, "p@example.com", "old-password", "agent", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := service.ChangePassword(ctx, user.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := service.RefreshAccessToken(ctx, tokens.RefreshToken, "agent", ""); err == nil {
		t.Fatalf("expected sessions to be revoked after password change")
	}
	if _, err := service.LoginWithPassword(ctx, "p@example.com", "new-password", "agent", ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	service := newService(t)
	ctx := context.Background()
	user, err := service.Register(ctx, "prefs@example.com", "password", "Before")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	name := "After"
	prefs := domain.Preferences{Timezone: "Europe/Berlin", NotificationsEnabled: false, DefaultLockAfterDue: false}
	updated, err := service.UpdateProfile(ctx, user.ID, &name, &prefs)
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.DisplayName != "After" {
		t.Fatalf("expected display name update, got %q", updated.DisplayName)
	}
	if updated.Preferences.Timezone != "Europe/Berlin" || updated.Preferences.NotificationsEnabled {
		t.Fatalf("unexpected preferences: %+v", updated.Preferences)
	}
}
