package domain

import "time"

// UserStatus represents the lifecycle state of an account.
type UserStatus string

const (
	// UserStatusActive indicates a usable account.
	UserStatusActive UserStatus = "active"
	// UserStatusDisabled indicates the account is disabled and cannot sign in.
	UserStatusDisabled UserStatus = "disabled"
)

// Preferences captures per-account settings surfaced on the settings page.
type Preferences struct {
	Timezone             string
	NotificationsEnabled bool
	DefaultLockAfterDue  bool
}

// DefaultPreferences returns the settings applied to new accounts.
func DefaultPreferences() Preferences {
	return Preferences{
		Timezone:             "UTC",
		NotificationsEnabled: true,
		DefaultLockAfterDue:  true,
	}
}

// User represents a person who can access the application.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Status       UserStatus
	PasswordHash string
	Preferences  Preferences
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents a refresh-token backed login session.
type Session struct {
	ID                      string
	UserID                  string
	RefreshTokenHash        string
	RefreshTokenFingerprint string
	UserAgent               string
	IP                      string
	CreatedAt               time.Time
	ExpiresAt               time.Time
}

// Claims represents the JWT payload extracted from issued access tokens.
type Claims struct {
	Subject   string
	Email     string
	SessionID string
	ExpiresAt time.Time
}

// TokenPair bundles issued tokens together with expiry metadata.
type TokenPair struct {
	AccessToken   string
	AccessExpiry  time.Time
	RefreshToken  string
	RefreshExpiry time.Time
}
